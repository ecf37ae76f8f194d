// Package annotate writes highlight and note annotations into a PDF.
// It consumes resolved page rectangles; everything about where to draw
// was decided upstream by the matcher and geometry resolver.
package annotate
