// Package config provides configuration structures and utilities for readmark.
// It defines the main configuration options for matching highlights, writing
// annotations, and report generation preferences.
package config
