// Package match anchors highlight text in a document index. It tries an
// exact substring search over the normalized logical stream first and
// falls back to a sliding-window similarity alignment for text the
// reader app captured with reflow or extraction noise.
package match
