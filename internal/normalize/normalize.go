package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Text is the result of normalizing a string. Display retains the
// original casing for user-facing output; Key is the case- and
// diacritic-folded form used for all comparisons.
type Text struct {
	// Display is the cleaned text with original casing preserved.
	Display string

	// Key is the comparison form: Display lowercased with diacritics folded.
	Key string
}

// IsEmpty reports whether normalization left no comparable text.
func (t Text) IsEmpty() bool {
	return t.Key == ""
}

// asciiReplacer unifies typographic variants to their ASCII equivalents
// and strips invisible characters that reader apps and PDF extractors
// disagree on. Soft hyphens appear where the renderer broke a word across
// lines; zero-width characters survive copy-paste from some ebook formats.
var asciiReplacer = strings.NewReplacer(
	// Curly and low quotes to straight quotes.
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
	// En, em and horizontal-bar dashes to hyphen-minus.
	"–", "-", "—", "-", "―", "-",
	// Soft hyphen and zero-width characters removed outright. Written as
	// escapes: a raw U+FEFF is only legal as the first rune of a file.
	"\u00AD", "", "\u200B", "", "\u200C", "", "\u200D", "", "\uFEFF", "",
)

// foldDiacritics decomposes, removes combining marks, and recomposes.
// "Élodie" folds to "Elodie". Applying it twice is a no-op, which keeps
// Normalize idempotent.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes text for comparison. Rules apply in fixed order:
// runs of whitespace (including line breaks) collapse to a single space,
// leading/trailing whitespace is trimmed, typographic quotes and dashes
// unify to ASCII, soft hyphens and zero-width characters are stripped,
// and the comparison key additionally folds case and diacritics.
//
// Normalize is pure and idempotent: Normalize(Normalize(s).Display)
// yields the same Text for every s.
func Normalize(s string) Text {
	display := asciiReplacer.Replace(collapse(s))
	// Stripping invisibles can expose new whitespace runs ("a ­ b").
	display = collapse(display)
	return Text{Display: display, Key: fold(display)}
}

// Fold returns only the comparison key of Normalize(s).
func Fold(s string) string {
	return Normalize(s).Key
}

// collapse reduces all whitespace runs to single spaces and trims the ends.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// fold lowercases and removes diacritics from already-cleaned text.
func fold(display string) string {
	folded, _, err := transform.String(foldDiacritics, display)
	if err != nil {
		// Malformed UTF-8 passes through; lowercasing still applies.
		folded = display
	}
	return strings.ToLower(folded)
}
