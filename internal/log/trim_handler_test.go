package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestTrimHandler tests attribute trimming behavior.
func TestTrimHandler(t *testing.T) {
	t.Parallel()

	t.Run("short strings pass through untouched", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTrimHandler(slog.NewTextHandler(&buf, nil), 20))

		logger.Info("msg", "text", "short value")

		if !strings.Contains(buf.String(), "short value") {
			t.Errorf("expected untouched value in output: %s", buf.String())
		}
	})

	t.Run("long strings are truncated with ellipsis", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTrimHandler(slog.NewTextHandler(&buf, nil), 10))

		long := strings.Repeat("abcde", 10)
		logger.Info("msg", "text", long)

		output := buf.String()
		if strings.Contains(output, long) {
			t.Error("expected long value to be truncated")
		}
		if !strings.Contains(output, "abcdeabcde...") {
			t.Errorf("expected truncated value with ellipsis: %s", output)
		}
	})

	t.Run("truncation counts runes not bytes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTrimHandler(slog.NewTextHandler(&buf, nil), 4))

		logger.Info("msg", "text", "héllô wörld")

		if !strings.Contains(buf.String(), "héll...") {
			t.Errorf("expected rune-safe truncation: %s", buf.String())
		}
	})

	t.Run("non-string attributes pass through", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTrimHandler(slog.NewTextHandler(&buf, nil), 5))

		logger.Info("msg", "page", 1234567890)

		if !strings.Contains(buf.String(), "1234567890") {
			t.Errorf("expected numeric attribute untouched: %s", buf.String())
		}
	})

	t.Run("grouped attributes are trimmed too", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTrimHandler(slog.NewTextHandler(&buf, nil), 5))

		logger.Info("msg", slog.Group("book", "title", "a very long book title"))

		output := buf.String()
		if strings.Contains(output, "a very long book title") {
			t.Errorf("expected grouped value truncated: %s", output)
		}
	})

	t.Run("WithAttrs trims bound attributes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTrimHandler(slog.NewTextHandler(&buf, nil), 5))

		bound := logger.With("title", "an overlong bound attribute")
		bound.Info("msg")

		if strings.Contains(buf.String(), "an overlong bound attribute") {
			t.Errorf("expected bound attribute truncated: %s", buf.String())
		}
	})

	t.Run("nil handler falls back to default", func(t *testing.T) {
		t.Parallel()

		h := NewTrimHandler(nil, 0)
		if h == nil {
			t.Fatal("expected non-nil handler")
		}
		if h.maxLen != DefaultMaxAttrLen {
			t.Errorf("maxLen = %d, want %d", h.maxLen, DefaultMaxAttrLen)
		}
	})
}

// TestNewLogger tests the logger constructors.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("verbose enables debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, true)

		logger.Debug("debug message")

		if !strings.Contains(buf.String(), "debug message") {
			t.Error("expected debug output in verbose mode")
		}
	})

	t.Run("non-verbose suppresses info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, false)

		logger.Info("info message")

		if buf.Len() != 0 {
			t.Errorf("expected no output at info level, got: %s", buf.String())
		}
	})

	t.Run("JSON logger emits JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewJSONLogger(&buf, true)

		logger.Warn("warn message", "key", "value")

		output := buf.String()
		if !strings.Contains(output, `"msg":"warn message"`) {
			t.Errorf("expected JSON output: %s", output)
		}
	})
}

// TestTruncate tests the truncate helper.
func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		limit int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 5, "hello..."},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.input, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.want)
		}
	}
}
