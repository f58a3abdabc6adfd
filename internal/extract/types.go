// Package extract converts project files (Word, Excel, PowerPoint,
// plain text/code) into an ordered sequence of typed text blocks with
// structural coordinates. Blocks are the addressable granularity for
// search and anchoring; they are never persisted beyond one operation.
package extract

// BlockKind identifies the structural unit a block was extracted from.
type BlockKind string

const (
	// KindParagraph is one Word document paragraph.
	KindParagraph BlockKind = "paragraph"
	// KindCell is one non-blank spreadsheet cell.
	KindCell BlockKind = "cell"
	// KindSlide is one visible text run on a presentation slide.
	KindSlide BlockKind = "slide"
	// KindLine is one line of a plain text or code file.
	KindLine BlockKind = "line"
)

// TextBlock is a unit of extracted text with its structural coordinate.
// Ordinal is stable within one extraction pass: skipped blank
// paragraphs still consume an ordinal so indices line up across runs.
type TextBlock struct {
	Text    string
	Ordinal int
	Kind    BlockKind

	// Cell coordinates (Kind == KindCell). Row and Column are 1-based.
	SheetName string
	Row       int
	Column    int

	// SlideNumber is 1-based (Kind == KindSlide).
	SlideNumber int

	// LineNumber is 1-based (Kind == KindLine).
	LineNumber int
}

// Extraction is the result of extracting one file.
type Extraction struct {
	Blocks []TextBlock

	// Partial is set when extraction failed midway and Blocks holds
	// only what was collected before the failure.
	Partial bool
}
