// Package model defines the core data types shared across readmark:
// books and highlights read from reader backups, match results produced
// by the anchoring engine, and citation reports summarizing a run.
package model
