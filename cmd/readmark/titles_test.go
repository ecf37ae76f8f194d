package main

import (
	"testing"
)

// TestClip tests column display clipping.
func TestClip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{
			name:  "short string unchanged",
			input: "Walden",
			limit: 40,
			want:  "Walden",
		},
		{
			name:  "exact length unchanged",
			input: "abcde",
			limit: 5,
			want:  "abcde",
		},
		{
			name:  "long string clipped with ellipsis",
			input: "A Very Long Book Title Indeed",
			limit: 10,
			want:  "A Very ...",
		},
		{
			name:  "multibyte runes counted as one",
			input: "Éducation Sentimentale",
			limit: 12,
			want:  "Éducation...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := clip(tt.input, tt.limit); got != tt.want {
				t.Errorf("clip(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.want)
			}
		})
	}
}

// TestNewTitlesCmd tests the titles command creation.
func TestNewTitlesCmd(t *testing.T) {
	t.Parallel()

	cmd := NewTitlesCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "titles" {
			t.Errorf("unexpected use: %q", cmd.Use)
		}
	})

	t.Run("has highlighted flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("highlighted") == nil {
			t.Error("expected highlighted flag")
		}
	})
}

// TestNewCitationsCmd tests the citations command creation.
func TestNewCitationsCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCitationsCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "citations <book-file-or-title>" {
			t.Errorf("unexpected use: %q", cmd.Use)
		}
	})

	t.Run("has notes flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("notes") == nil {
			t.Error("expected notes flag")
		}
	})
}

// TestNewVerifyCmd tests the verify command creation.
func TestNewVerifyCmd(t *testing.T) {
	t.Parallel()

	cmd := NewVerifyCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "verify [book-title]" {
			t.Errorf("unexpected use: %q", cmd.Use)
		}
	})

	t.Run("has dir flag with default", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("dir")
		if flag == nil {
			t.Fatal("expected dir flag")
		}
		if flag.DefValue != "." {
			t.Errorf("expected default '.', got %q", flag.DefValue)
		}
	})
}
