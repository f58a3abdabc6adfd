package extract

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/vqtran/docpin/internal/errors"
	"github.com/vqtran/docpin/internal/filetype"
)

// DefaultMaxFileSize is the largest file the extractor will open.
const DefaultMaxFileSize = 10 * 1024 * 1024

// Extractor dispatches extraction by file-type classification.
// Extraction is pure and re-entrant; one Extractor may be shared by
// concurrent operations.
type Extractor struct {
	maxFileSize int64
	logger      *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxFileSize overrides the file size limit.
func WithMaxFileSize(n int64) Option {
	return func(e *Extractor) { e.maxFileSize = n }
}

// WithLogger injects the logger used for degrade events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract converts one file into ordered text blocks.
//
// Malformed or unreadable input fails with an extraction error. Empty
// content is not an error: it yields an empty block sequence. If a
// document fails midway through, the blocks collected so far are
// returned with Partial set and the cause is logged, never propagated.
func (e *Extractor) Extract(path string) (*Extraction, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "file not found: "+path, err)
		}
		return nil, errors.Wrap(errors.ErrCodeExtractFailed, err)
	}
	if info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "not a file: "+path, nil)
	}
	if info.Size() > e.maxFileSize {
		return nil, errors.New(errors.ErrCodeFileTooLarge, "file exceeds size limit: "+path, nil).
			WithDetail("size", strconv.FormatInt(info.Size(), 10)).
			WithDetail("limit", strconv.FormatInt(e.maxFileSize, 10))
	}

	category := filetype.Classify(path)
	switch category {
	case filetype.Word:
		return e.extractWord(path)
	case filetype.Excel:
		return e.extractExcel(path)
	case filetype.PowerPoint:
		return e.extractPowerPoint(path)
	case filetype.Text:
		return e.extractText(path)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"unsupported file type for extraction: "+category.String(), nil).
			WithDetail("path", path)
	}
}

// degrade logs an extraction failure and returns the blocks collected
// so far as a partial result.
func (e *Extractor) degrade(path string, blocks []TextBlock, cause error) *Extraction {
	e.logger.Warn("extract_partial",
		slog.String("path", path),
		slog.Int("blocks_collected", len(blocks)),
		slog.String("error", cause.Error()))
	return &Extraction{Blocks: blocks, Partial: true}
}

// Flatten joins block texts into one searchable blob, block boundaries
// separated by a blank line.
func Flatten(blocks []TextBlock) string {
	if len(blocks) == 0 {
		return ""
	}
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "\n\n")
}
