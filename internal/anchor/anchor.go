// Package anchor implements durable position markers. An anchor
// remembers where a match was found and survives file edits by
// validating a content hash at resolution time instead of trusting
// the recorded offsets.
package anchor

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/vqtran/docpin/internal/extract"
	"github.com/vqtran/docpin/internal/filetype"
	"github.com/vqtran/docpin/internal/textnorm"
)

// Data is the serialized anchor payload. Optional coordinate fields
// are omitted when unset so stored blobs stay compact. Anchors are
// immutable: resolution never rewrites one, a new selection creates a
// new anchor.
//
// TextHash is the validation key; CharOffset and CharLength are
// advisory and recomputed at resolution time.
type Data struct {
	FileType       filetype.Category `json:"fileType"`
	ParagraphIndex *int              `json:"paragraphIndex,omitempty"`
	SlideNumber    int               `json:"slideNumber,omitempty"`
	SheetName      string            `json:"sheetName,omitempty"`
	CellRow        int               `json:"cellRow,omitempty"`
	CellColumn     int               `json:"cellColumn,omitempty"`
	TextHash       string            `json:"textHash"`
	SearchKeyword  string            `json:"searchKeyword,omitempty"`
	CharOffset     int               `json:"charOffset"`
	CharLength     int               `json:"charLength"`
	LineNumber     int               `json:"lineNumber,omitempty"`
	PageNumber     int               `json:"pageNumber,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// Status is the outcome of resolving an anchor.
type Status string

const (
	// Exact means the anchored block's hash still matches; the
	// recorded coordinates can be trusted.
	Exact Status = "exact"
	// Drifted means the block changed but the keyword was found
	// again; the returned coordinates are relocated.
	Drifted Status = "drifted"
	// NotFound means the content changed beyond recovery. Callers
	// must surface this, never silently jump to offset zero.
	NotFound Status = "not_found"
)

// Resolution is a live position derived from an anchor.
type Resolution struct {
	Status     Status
	Block      *extract.TextBlock
	CharOffset int
	CharLength int
	Relocated  bool
}

// HashText returns the hex SHA-1 of a block's text, the drift
// detection key stored in anchors.
func HashText(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Create packages a match into an anchor. block is the block the match
// was found in; offset and length are byte coordinates of the match
// inside the block's text; keyword, when non-empty, enables relocation
// after drift.
func Create(fileType filetype.Category, block extract.TextBlock, offset, length int, keyword string) *Data {
	d := &Data{
		FileType:      fileType,
		TextHash:      HashText(block.Text),
		SearchKeyword: keyword,
		CharOffset:    offset,
		CharLength:    length,
		CreatedAt:     time.Now().UTC(),
	}

	switch fileType {
	case filetype.Word:
		ordinal := block.Ordinal
		d.ParagraphIndex = &ordinal
	case filetype.PowerPoint:
		d.SlideNumber = block.SlideNumber
	case filetype.Excel:
		d.SheetName = block.SheetName
		d.CellRow = block.Row
		d.CellColumn = block.Column
	case filetype.Text:
		d.LineNumber = block.LineNumber
	}
	return d
}

// Resolve locates an anchor inside the current extraction of its file.
// The anchored block is found by structural coordinates, its hash
// recomputed and compared; on mismatch the keyword, when present, is
// searched document-wide and the first match wins.
func Resolve(d *Data, extraction *extract.Extraction) *Resolution {
	if block := locateBlock(d, extraction.Blocks); block != nil {
		if HashText(block.Text) == d.TextHash {
			return &Resolution{
				Status:     Exact,
				Block:      block,
				CharOffset: d.CharOffset,
				CharLength: d.CharLength,
			}
		}
	}

	if d.SearchKeyword != "" {
		if res := relocate(d.SearchKeyword, extraction.Blocks); res != nil {
			return res
		}
	}
	return &Resolution{Status: NotFound}
}

// locateBlock finds the block the anchor's structural coordinates
// point at, or nil when no such block exists anymore.
func locateBlock(d *Data, blocks []extract.TextBlock) *extract.TextBlock {
	for i := range blocks {
		b := &blocks[i]
		switch d.FileType {
		case filetype.Word:
			if d.ParagraphIndex != nil && b.Ordinal == *d.ParagraphIndex {
				return b
			}
		case filetype.PowerPoint:
			// A slide holds several runs; prefer the one whose hash
			// still matches, falling back to the slide's first run.
			if b.SlideNumber == d.SlideNumber && HashText(b.Text) == d.TextHash {
				return b
			}
		case filetype.Excel:
			if b.SheetName == d.SheetName && b.Row == d.CellRow && b.Column == d.CellColumn {
				return b
			}
		case filetype.Text:
			if b.LineNumber == d.LineNumber {
				return b
			}
		}
	}
	if d.FileType == filetype.PowerPoint {
		return firstOnSlide(d.SlideNumber, blocks)
	}
	return nil
}

func firstOnSlide(slideNumber int, blocks []extract.TextBlock) *extract.TextBlock {
	for i := range blocks {
		if blocks[i].SlideNumber == slideNumber {
			return &blocks[i]
		}
	}
	return nil
}

// relocate re-runs the normalized search across all blocks and returns
// the first match in document order.
func relocate(keyword string, blocks []extract.TextBlock) *Resolution {
	for i := range blocks {
		matches := textnorm.FindAll(blocks[i].Text, keyword)
		if len(matches) == 0 {
			continue
		}
		return &Resolution{
			Status:     Drifted,
			Block:      &blocks[i],
			CharOffset: matches[0].Start,
			CharLength: matches[0].Length,
			Relocated:  true,
		}
	}
	return nil
}

// Marshal serializes an anchor to its stored JSON form.
func Marshal(d *Data) ([]byte, error) {
	return json.Marshal(d)
}

// Unmarshal parses a stored anchor blob.
func Unmarshal(payload []byte) (*Data, error) {
	var d Data
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
