package config

// BookConfig holds per-book configuration for a single title.
// This allows customizing matching and annotation behavior per book,
// which is useful when one PDF rendering extracts much noisier text
// than the rest of a library.
type BookConfig struct {
	// Threshold overrides the global similarity threshold for this book.
	// If zero, the global Threshold is used.
	Threshold float64 `yaml:"threshold,omitempty"`

	// WindowTolerance overrides the global window tolerance for this book.
	// If negative or absent, the global WindowTolerance is used.
	WindowTolerance *int `yaml:"windowTolerance,omitempty"`

	// Color overrides the highlight color for this book's annotations.
	// Accepts a named color (yellow, green, blue, red, purple) or a
	// "#rrggbb" hex value.
	Color string `yaml:"color,omitempty"`

	// File overrides the path to the book file. Useful when the backup's
	// recorded file name no longer matches the file on disk.
	File string `yaml:"file,omitempty"`

	// Skip excludes this book from --all processing.
	Skip bool `yaml:"skip,omitempty"`
}

// File represents the structure of the .readmark configuration file.
type File struct {
	// Books maps book titles to their per-book configurations.
	// Keys are matched against backup titles case-insensitively by the caller.
	Books map[string]BookConfig `yaml:"books,omitempty"`

	// Defaults contains default book configuration applied to all books
	// unless overridden in the book-specific configuration.
	Defaults BookConfig `yaml:"defaults,omitempty"`
}

// GetBookConfig returns the configuration for a specific book title.
// It merges the book-specific configuration with defaults.
func (cf *File) GetBookConfig(title string) BookConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with book-specific configuration if present
	if bookConfig, ok := cf.Books[title]; ok {
		if bookConfig.Threshold != 0 {
			result.Threshold = bookConfig.Threshold
		}
		if bookConfig.WindowTolerance != nil {
			result.WindowTolerance = bookConfig.WindowTolerance
		}
		if bookConfig.Color != "" {
			result.Color = bookConfig.Color
		}
		if bookConfig.File != "" {
			result.File = bookConfig.File
		}
		if bookConfig.Skip {
			result.Skip = true
		}
	}

	return result
}
