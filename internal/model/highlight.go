package model

import "time"

// HighlightStyle describes how a highlight should be rendered.
// Style is pass-through data: it never influences matching.
type HighlightStyle string

// Supported highlight styles.
const (
	StyleHighlight     HighlightStyle = "highlight"
	StyleUnderline     HighlightStyle = "underline"
	StyleStrikethrough HighlightStyle = "strikethrough"
)

// ProvenanceHint carries the location metadata the reader app recorded
// when the highlight was created. It is used only to break ties between
// equally good match candidates, never to constrain the search.
type ProvenanceHint struct {
	// Page is the 1-based page number recorded by the reader app.
	// Zero means no page hint was recorded.
	Page int `json:"page,omitempty"`

	// Chapter is the chapter or bookmark label, if the reader recorded one.
	Chapter string `json:"chapter,omitempty"`
}

// HasPage reports whether a page hint was recorded.
func (p ProvenanceHint) HasPage() bool {
	return p.Page > 0
}

// Highlight is a single user-selected passage read from a backup.
// It is immutable once read: the anchoring engine only ever inspects it.
type Highlight struct {
	// Text is the raw captured passage exactly as the reader app stored it.
	// It may differ from the PDF's extracted text due to reflow, pagination,
	// whitespace normalization, or encoding artifacts.
	Text string `json:"text"`

	// Note is the optional note the user attached to the passage.
	Note string `json:"note,omitempty"`

	// Color is the optional highlight color tag ("yellow", "#ffd54f", ...).
	// Pass-through data for the annotation writer.
	Color string `json:"color,omitempty"`

	// Style is the optional rendering style tag. Pass-through data.
	Style HighlightStyle `json:"style,omitempty"`

	// CreatedAt is when the reader app recorded the highlight.
	CreatedAt time.Time `json:"created_at,omitzero"`

	// Hint is the optional provenance metadata used for tie-breaking.
	Hint ProvenanceHint `json:"hint,omitzero"`

	// Position is the reader app's ordering key (page number plus an
	// intra-page offset). It orders highlights in reading order even when
	// no usable page hint exists.
	Position float64 `json:"position,omitempty"`
}

// Book groups the highlights that belong to one document.
// Identity is by normalized title: two backup entries with titles that
// normalize to the same key describe the same book.
type Book struct {
	// Title as recorded in the backup.
	Title string `json:"title"`

	// Author is optional; not every backup records one.
	Author string `json:"author,omitempty"`

	// FileName is the book file the backup associates with this entry,
	// if any. Used to locate the document to convert and annotate.
	FileName string `json:"file_name,omitempty"`

	// Highlights in reader-recorded order.
	Highlights []Highlight `json:"highlights"`
}
