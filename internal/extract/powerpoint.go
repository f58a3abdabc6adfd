package extract

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vqtran/docpin/internal/errors"
)

var slidePartPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPowerPoint reads a .pptx archive and emits one block per
// visible text run, in slide order then shape-traversal order.
// SlideNumber is 1-based.
func (e *Extractor) extractPowerPoint(filePath string) (*Extraction, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, errors.New(errors.ErrCodeDocumentCorrupt, "not a valid PowerPoint archive: "+filePath, err)
	}
	defer func() { _ = zr.Close() }()

	slides := slideParts(&zr.Reader)

	var blocks []TextBlock
	ordinal := 0
	for _, slide := range slides {
		part, err := slide.file.Open()
		if err != nil {
			return e.degrade(filePath, blocks, err), nil
		}

		slideBlocks, parseErr := parseSlideRuns(part, slide.number, &ordinal)
		_ = part.Close()
		blocks = append(blocks, slideBlocks...)
		if parseErr != nil {
			return e.degrade(filePath, blocks, parseErr), nil
		}
	}

	return &Extraction{Blocks: blocks}, nil
}

type slidePart struct {
	file   *zip.File
	number int
}

// slideParts collects slide XML parts sorted by slide number. The
// archive may list parts in any order; slide10 must sort after slide2.
func slideParts(zr *zip.Reader) []slidePart {
	var slides []slidePart
	for _, f := range zr.File {
		m := slidePartPattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slidePart{file: f, number: n})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })
	return slides
}

// parseSlideRuns walks one slide's XML and emits a block for every
// non-blank <a:t> text run, in shape-traversal order.
func parseSlideRuns(r io.Reader, slideNumber int, ordinal *int) ([]TextBlock, error) {
	dec := xml.NewDecoder(r)

	var blocks []TextBlock
	var text strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return blocks, nil
		}
		if err != nil {
			return blocks, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
				text.Reset()
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
				if s := text.String(); strings.TrimSpace(s) != "" {
					blocks = append(blocks, TextBlock{
						Text:        s,
						Ordinal:     *ordinal,
						Kind:        KindSlide,
						SlideNumber: slideNumber,
					})
					*ordinal++
				}
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		}
	}
}
