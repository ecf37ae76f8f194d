package match

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/readmark/readmark/internal/index"
	"github.com/readmark/readmark/internal/model"
	"github.com/readmark/readmark/internal/normalize"
)

// Matching policy defaults. The threshold and tolerance are policy
// choices, not derivable constants; both are configurable via Options
// and the config file.
const (
	// DefaultThreshold is the minimum similarity an approximate window
	// must reach to be accepted as a partial match. At 0.80 a five-word
	// window tolerates roughly one word's worth of noise, which keeps
	// short-highlight false positives rare.
	DefaultThreshold = 0.80

	// DefaultWindowTolerance widens the sliding window by this many
	// tokens on each side of the highlight's own token count. Reflow
	// noise (dropped or duplicated line-break words) stays within two.
	DefaultWindowTolerance = 2
)

// scoreEpsilon is the margin within which two window scores count as
// tied and the tie-break rule applies.
const scoreEpsilon = 1e-9

// Matcher anchors highlights in one document index.
//
// Matching is non-destructive: the index is only read, so overlapping
// and duplicate highlights resolve independently, and matching the same
// highlight twice yields identical results.
type Matcher struct {
	idx       *index.Index
	threshold float64
	tolerance int
	logger    *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithThreshold sets the similarity threshold for partial matches.
// Values outside (0, 1] are ignored.
func WithThreshold(t float64) Option {
	return func(m *Matcher) {
		if t > 0 && t <= 1 {
			m.threshold = t
		}
	}
}

// WithWindowTolerance sets the window-size tolerance in tokens.
// Negative values are ignored.
func WithWindowTolerance(n int) Option {
	return func(m *Matcher) {
		if n >= 0 {
			m.tolerance = n
		}
	}
}

// WithLogger sets a custom logger for match diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		m.logger = logger
	}
}

// New creates a Matcher over a fully built index.
func New(idx *index.Index, opts ...Option) *Matcher {
	m := &Matcher{
		idx:       idx,
		threshold: DefaultThreshold,
		tolerance: DefaultWindowTolerance,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// MatchAll anchors every highlight independently and returns results in
// the same order. One unmatchable highlight never affects the others.
func (m *Matcher) MatchAll(highlights []model.Highlight) []*model.MatchResult {
	results := make([]*model.MatchResult, len(highlights))
	for i := range highlights {
		results[i] = m.Match(&highlights[i])
	}
	return results
}

// Match anchors one highlight. Exact substring search wins when the
// normalized highlight text occurs verbatim in the logical stream;
// otherwise the best approximate window above the threshold is accepted
// as a partial match. Ties break toward the provenance hint, then the
// earliest stream position.
func (m *Matcher) Match(h *model.Highlight) *model.MatchResult {
	key := normalize.Fold(h.Text)
	if key == "" {
		return model.Unmatched(h, "empty highlight text")
	}

	if res := m.exact(h, key); res != nil {
		return res
	}

	m.logger.Debug("exact search failed, trying approximate alignment",
		"text", h.Text,
	)
	return m.approximate(h, key)
}

// candidate is one possible anchoring during search.
type candidate struct {
	score float64
	page  int // page of the first matched token
	start int // stream offset of the first matched byte
	token int // token index of the first matched token, approximate only
	size  int // token count, approximate only
}

// better reports whether c should replace best under the tie-break rule:
// higher score wins; within scoreEpsilon, smaller hint distance wins,
// then the earlier stream position.
func (c candidate) better(best *candidate, hint model.ProvenanceHint) bool {
	if best == nil {
		return true
	}
	if c.score > best.score+scoreEpsilon {
		return true
	}
	if c.score < best.score-scoreEpsilon {
		return false
	}
	if hint.HasPage() {
		if d, bd := hintDistance(hint, c.page), hintDistance(hint, best.page); d != bd {
			return d < bd
		}
	}
	return c.start < best.start
}

// hintDistance is how far a candidate's page lies from the hinted page.
func hintDistance(hint model.ProvenanceHint, page int) int {
	d := page - hint.Page
	if d < 0 {
		return -d
	}
	return d
}

// exact searches for boundary-aligned verbatim occurrences of key in the
// logical stream. Returns nil when there are none.
func (m *Matcher) exact(h *model.Highlight, key string) *model.MatchResult {
	stream := m.idx.Stream()

	var best *candidate
	for from := 0; from <= len(stream)-len(key); {
		i := strings.Index(stream[from:], key)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(key)
		from = start + 1

		if !m.idx.BoundaryAligned(start, end) {
			continue
		}
		first, ok := m.idx.TokenAt(start)
		if !ok {
			continue
		}
		c := candidate{score: 1.0, page: m.idx.TokenPage(first), start: start}
		if c.better(best, h.Hint) {
			best = &c
		}
	}
	if best == nil {
		return nil
	}

	return &model.MatchResult{
		Highlight:  h,
		Fragments:  m.idx.Span(best.start, best.start+len(key)),
		Confidence: 1.0,
		Status:     model.StatusMatched,
	}
}

// approximate slides token windows sized to the highlight's token count
// plus or minus the tolerance over the whole stream and scores each with
// the similarity measure. The best window is accepted only above the
// threshold.
func (m *Matcher) approximate(h *model.Highlight, key string) *model.MatchResult {
	hTokens := strings.Fields(key)
	n := len(hTokens)

	counts := make(map[string]int, n)
	for _, t := range hTokens {
		counts[t]++
	}

	minSize := max(1, n-m.tolerance)
	maxSize := min(n+m.tolerance, m.idx.TokenCount())

	var best *candidate
	for size := minSize; size <= maxSize; size++ {
		for i := 0; i+size <= m.idx.TokenCount(); i++ {
			if !m.roughOverlap(counts, n, i, size) {
				continue
			}
			score := similarity(key, m.idx.WindowText(i, size))
			c := candidate{
				score: score,
				page:  m.idx.TokenPage(i),
				start: m.idx.TokenStart(i),
				token: i,
				size:  size,
			}
			if c.better(best, h.Hint) {
				best = &c
			}
		}
	}

	if best == nil || best.score < m.threshold {
		reason := "no candidate window"
		if best != nil {
			reason = fmt.Sprintf("best similarity %.2f below threshold %.2f", best.score, m.threshold)
		}
		return model.Unmatched(h, reason)
	}

	return &model.MatchResult{
		Highlight:  h,
		Fragments:  m.idx.TokenSpan(best.token, best.token+best.size-1),
		Confidence: best.score,
		Status:     model.StatusPartial,
	}
}

// roughOverlap cheaply rejects windows sharing fewer than half of the
// highlight's tokens before paying for an edit-distance computation.
// Short highlights skip the filter; with so few tokens it rejects more
// true candidates than it saves.
func (m *Matcher) roughOverlap(counts map[string]int, n, i, size int) bool {
	if n <= 2 {
		return true
	}
	remaining := make(map[string]int, len(counts))
	for k, v := range counts {
		remaining[k] = v
	}
	shared := 0
	for j := i; j < i+size; j++ {
		k := m.idx.TokenKey(j)
		if remaining[k] > 0 {
			remaining[k]--
			shared++
		}
	}
	return shared*2 >= n
}
