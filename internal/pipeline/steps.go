package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/readmark/readmark/internal/annotate"
	"github.com/readmark/readmark/internal/citation"
	"github.com/readmark/readmark/internal/convert"
	"github.com/readmark/readmark/internal/extract"
	"github.com/readmark/readmark/internal/geometry"
	"github.com/readmark/readmark/internal/index"
	"github.com/readmark/readmark/internal/match"
	"github.com/readmark/readmark/internal/model"
)

// ConvertStep turns the source ebook into a PDF when it isn't one
// already. The PDF path is recorded on the report for later steps.
type ConvertStep struct {
	converter *convert.Converter
	workDir   string
}

// NewConvertStep creates a conversion step writing PDFs into workDir.
func NewConvertStep(converter *convert.Converter, workDir string) *ConvertStep {
	return &ConvertStep{converter: converter, workDir: workDir}
}

// Name returns the step name.
func (s *ConvertStep) Name() string {
	return "convert"
}

// Do executes the conversion step.
func (s *ConvertStep) Do(ctx context.Context, report *BookReport) error {
	pdfPath, err := s.converter.ToPDF(ctx, report.BookPath, s.workDir)
	if err != nil {
		return fmt.Errorf("convert %s: %w", filepath.Base(report.BookPath), err)
	}
	report.PDFPath = pdfPath
	return nil
}

// ExtractStep pulls positioned words out of every page of the PDF.
type ExtractStep struct {
	extractor *extract.Extractor
}

// NewExtractStep creates a text extraction step.
func NewExtractStep(extractor *extract.Extractor) *ExtractStep {
	return &ExtractStep{extractor: extractor}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do executes the extraction step.
func (s *ExtractStep) Do(_ context.Context, report *BookReport) error {
	pages, err := s.extractor.File(report.PDFPath)
	if err != nil {
		return fmt.Errorf("extract text from %s: %w", filepath.Base(report.PDFPath), err)
	}
	report.Pages = pages
	return nil
}

// IndexStep builds the searchable text index from extracted pages.
type IndexStep struct{}

// NewIndexStep creates an index building step.
func NewIndexStep() *IndexStep {
	return &IndexStep{}
}

// Name returns the step name.
func (s *IndexStep) Name() string {
	return "index"
}

// Do executes the indexing step.
func (s *IndexStep) Do(_ context.Context, report *BookReport) error {
	report.Index = index.Build(report.Pages)
	if report.Index.TokenCount() == 0 {
		return fmt.Errorf("no text extracted from %s", filepath.Base(report.PDFPath))
	}
	return nil
}

// MatchStep anchors every highlight of the book into the index.
type MatchStep struct {
	threshold float64
	tolerance int
	logger    *slog.Logger
}

// MatchStepOption configures a MatchStep.
type MatchStepOption func(*MatchStep)

// WithMatchThreshold sets the similarity threshold for approximate matches.
func WithMatchThreshold(threshold float64) MatchStepOption {
	return func(s *MatchStep) {
		s.threshold = threshold
	}
}

// WithMatchWindowTolerance sets the window size tolerance in tokens.
func WithMatchWindowTolerance(tolerance int) MatchStepOption {
	return func(s *MatchStep) {
		s.tolerance = tolerance
	}
}

// WithMatchLogger sets a custom logger for the match step.
func WithMatchLogger(logger *slog.Logger) MatchStepOption {
	return func(s *MatchStep) {
		s.logger = logger
	}
}

// NewMatchStep creates a highlight matching step.
func NewMatchStep(opts ...MatchStepOption) *MatchStep {
	s := &MatchStep{
		threshold: match.DefaultThreshold,
		tolerance: match.DefaultWindowTolerance,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *MatchStep) Name() string {
	return "match"
}

// Do executes the matching step.
func (s *MatchStep) Do(_ context.Context, report *BookReport) error {
	matcher := match.New(report.Index,
		match.WithThreshold(s.threshold),
		match.WithWindowTolerance(s.tolerance),
		match.WithLogger(s.logger),
	)
	report.Matches = matcher.MatchAll(report.Book.Highlights)
	return nil
}

// ResolveStep turns matched fragments into drawable annotations, one
// rectangle per visual line.
type ResolveStep struct {
	logger *slog.Logger
}

// ResolveStepOption configures a ResolveStep.
type ResolveStepOption func(*ResolveStep)

// WithResolveLogger sets a custom logger for the resolve step.
func WithResolveLogger(logger *slog.Logger) ResolveStepOption {
	return func(s *ResolveStep) {
		s.logger = logger
	}
}

// NewResolveStep creates a geometry resolution step.
func NewResolveStep(opts ...ResolveStepOption) *ResolveStep {
	s := &ResolveStep{logger: slog.Default()}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ResolveStep) Name() string {
	return "resolve"
}

// Do executes the geometry resolution step.
//
// A match whose geometry is entirely degenerate is downgraded to
// unmatched here, so verification counts it as missing rather than
// silently skipping its annotation.
func (s *ResolveStep) Do(_ context.Context, report *BookReport) error {
	annotations := make([]annotate.Annotation, 0, len(report.Matches))
	for _, res := range report.Matches {
		rects, err := geometry.Resolve(res)
		if err != nil {
			if errors.Is(err, geometry.ErrNoGeometry) {
				s.logger.Warn("highlight has no drawable geometry",
					"text", model.Truncate(res.Highlight.Text),
				)
				res.Status = model.StatusUnmatched
				res.Reason = "matched text has no drawable geometry"
				continue
			}
			return fmt.Errorf("resolve geometry: %w", err)
		}
		if len(rects) == 0 {
			continue
		}
		annotations = append(annotations, annotate.Annotation{
			Rects:    rects,
			Color:    res.Highlight.Color,
			Note:     res.Highlight.Note,
			Contents: res.Highlight.Text,
		})
	}
	report.Annotations = annotations
	return nil
}

// AnnotateStep writes the resolved annotations into a copy of the PDF.
type AnnotateStep struct {
	writer    annotate.Writer
	outputDir string
}

// NewAnnotateStep creates an annotation writing step. Annotated PDFs
// land in outputDir next to nothing else; an empty outputDir keeps
// them beside the source PDF.
func NewAnnotateStep(writer annotate.Writer, outputDir string) *AnnotateStep {
	return &AnnotateStep{writer: writer, outputDir: outputDir}
}

// Name returns the step name.
func (s *AnnotateStep) Name() string {
	return "annotate"
}

// Do executes the annotation step.
func (s *AnnotateStep) Do(_ context.Context, report *BookReport) error {
	if s.outputDir != "" {
		if err := os.MkdirAll(s.outputDir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	report.OutputPath = s.outputPath(report.PDFPath)

	written, err := s.writer.Apply(report.PDFPath, report.OutputPath, report.Annotations)
	report.AnnotationsWritten = written
	if err != nil {
		return fmt.Errorf("annotate %s: %w", filepath.Base(report.OutputPath), err)
	}
	return nil
}

// outputPath derives the annotated file name from the PDF path.
func (s *AnnotateStep) outputPath(pdfPath string) string {
	base := filepath.Base(pdfPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + "_highlighted.pdf"
	dir := s.outputDir
	if dir == "" {
		dir = filepath.Dir(pdfPath)
	}
	return filepath.Join(dir, name)
}

// VerifyStep tallies match outcomes into a citation completeness report.
type VerifyStep struct{}

// NewVerifyStep creates a citation verification step.
func NewVerifyStep() *VerifyStep {
	return &VerifyStep{}
}

// Name returns the step name.
func (s *VerifyStep) Name() string {
	return "verify"
}

// Do executes the verification step.
func (s *VerifyStep) Do(_ context.Context, report *BookReport) error {
	report.Citation = citation.Verify(&report.Book, report.Matches)
	return nil
}

// DefaultConfig holds configuration for the default pipeline.
type DefaultConfig struct {
	// Converter renders non-PDF ebooks. Required when inputs may
	// not already be PDFs.
	Converter *convert.Converter

	// WorkDir receives converted PDFs.
	WorkDir string

	// OutputDir receives annotated PDFs. Empty means beside the source.
	OutputDir string

	// Threshold is the similarity threshold for approximate matches.
	Threshold float64

	// WindowTolerance is the window size tolerance in tokens.
	WindowTolerance int

	// Writer applies annotations to PDFs.
	Writer annotate.Writer

	// Logger for all steps.
	Logger *slog.Logger
}

// DefaultPipeline creates a pipeline with all standard steps in order.
//
// Design decision: We provide a default pipeline because:
// 1. Most users want the full anchor-and-annotate run
// 2. Reduces boilerplate in the CLI
// 3. Ensures consistent ordering
//
// Verification runs before annotation: the citation report depends only
// on match outcomes, so a failed PDF write still yields a report.
func DefaultPipeline(cfg DefaultConfig, pipelineOpts ...Option) *Pipeline {
	if cfg.Converter == nil {
		cfg.Converter = convert.New()
	}
	if cfg.Writer == nil {
		cfg.Writer = annotate.NewPDFWriter()
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = match.DefaultThreshold
	}
	if cfg.WindowTolerance == 0 {
		cfg.WindowTolerance = match.DefaultWindowTolerance
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	p := New(pipelineOpts...)
	p.AddSteps(
		NewConvertStep(cfg.Converter, cfg.WorkDir),
		NewExtractStep(extract.New(extract.WithLogger(cfg.Logger))),
		NewIndexStep(),
		NewMatchStep(
			WithMatchThreshold(cfg.Threshold),
			WithMatchWindowTolerance(cfg.WindowTolerance),
			WithMatchLogger(cfg.Logger),
		),
		NewResolveStep(WithResolveLogger(cfg.Logger)),
		NewVerifyStep(),
		NewAnnotateStep(cfg.Writer, cfg.OutputDir),
	)

	return p
}
