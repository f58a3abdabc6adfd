package extract

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"

	"github.com/vqtran/docpin/internal/errors"
)

// extractWord reads word/document.xml from a .docx archive and emits
// one block per paragraph. Blank paragraphs are skipped but still
// consume an ordinal so paragraph indices stay stable across runs.
func (e *Extractor) extractWord(path string) (*Extraction, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeDocumentCorrupt, "not a valid Word archive: "+path, err)
	}
	defer func() { _ = zr.Close() }()

	part, err := openZipPart(&zr.Reader, "word/document.xml")
	if err != nil {
		return nil, errors.New(errors.ErrCodeDocumentCorrupt, "word/document.xml missing: "+path, err)
	}
	defer func() { _ = part.Close() }()

	blocks, parseErr := parseWordParagraphs(part)
	if parseErr != nil {
		return e.degrade(path, blocks, parseErr), nil
	}
	return &Extraction{Blocks: blocks}, nil
}

// parseWordParagraphs walks the document XML token stream. A paragraph
// is a <w:p> element; its visible text is the concatenation of all
// <w:t> runs inside it. Returns collected blocks plus the error that
// interrupted parsing, if any.
func parseWordParagraphs(r io.Reader) ([]TextBlock, error) {
	dec := xml.NewDecoder(r)

	var blocks []TextBlock
	ordinal := -1
	depth := 0 // nesting depth of <w:p>, tables nest paragraphs
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
			switch t.Name.Local {
			case "p":
				depth++
				if depth == 1 {
					ordinal++
					text.Reset()
				}
			case "t":
				inText = true
			case "tab":
				if depth > 0 {
					text.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 {
					text.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if depth == 1 {
					if s := text.String(); strings.TrimSpace(s) != "" {
						blocks = append(blocks, TextBlock{
							Text:    s,
							Ordinal: ordinal,
							Kind:    KindParagraph,
						})
					}
				}
				if depth > 0 {
					depth--
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && depth > 0 {
				text.Write(t)
			}
		}
	}
}
