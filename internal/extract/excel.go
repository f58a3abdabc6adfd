package extract

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/vqtran/docpin/internal/errors"
)

// extractExcel reads an .xlsx archive and emits one block per non-blank
// cell, carrying the sheet name and 1-based row/column parsed from the
// cell reference. Shared strings are dereferenced here; callers never
// see raw string-table indices.
func (e *Extractor) extractExcel(filePath string) (*Extraction, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, errors.New(errors.ErrCodeDocumentCorrupt, "not a valid Excel archive: "+filePath, err)
	}
	defer func() { _ = zr.Close() }()

	shared, err := parseSharedStrings(&zr.Reader)
	if err != nil {
		return e.degrade(filePath, nil, err), nil
	}

	sheets, err := parseWorkbookSheets(&zr.Reader)
	if err != nil {
		return nil, errors.New(errors.ErrCodeDocumentCorrupt, "workbook metadata unreadable: "+filePath, err)
	}

	var blocks []TextBlock
	ordinal := 0
	for _, sheet := range sheets {
		part, err := openZipPart(&zr.Reader, sheet.part)
		if err != nil {
			// A sheet listed in the workbook but missing from the
			// archive degrades to whatever was collected so far.
			return e.degrade(filePath, blocks, err), nil
		}

		sheetBlocks, parseErr := parseSheetCells(part, sheet.name, shared, &ordinal)
		_ = part.Close()
		blocks = append(blocks, sheetBlocks...)
		if parseErr != nil {
			return e.degrade(filePath, blocks, parseErr), nil
		}
	}

	return &Extraction{Blocks: blocks}, nil
}

// sheetRef is one worksheet in workbook order.
type sheetRef struct {
	name string
	part string // archive path, e.g. xl/worksheets/sheet1.xml
}

// parseWorkbookSheets reads sheet names from xl/workbook.xml and
// resolves their relationship IDs to worksheet parts.
func parseWorkbookSheets(zr *zip.Reader) ([]sheetRef, error) {
	rels, err := parseWorkbookRels(zr)
	if err != nil {
		return nil, err
	}

	part, err := openZipPart(zr, "xl/workbook.xml")
	if err != nil {
		return nil, err
	}
	defer func() { _ = part.Close() }()

	var workbook struct {
		Sheets []struct {
			Name string `xml:"name,attr"`
			RID  string `xml:"id,attr"`
		} `xml:"sheets>sheet"`
	}
	if err := xml.NewDecoder(part).Decode(&workbook); err != nil {
		return nil, err
	}

	var sheets []sheetRef
	for i, s := range workbook.Sheets {
		target, ok := rels[s.RID]
		if !ok {
			// Fall back to conventional naming when the rel is absent.
			target = "worksheets/sheet" + strconv.Itoa(i+1) + ".xml"
		}
		sheets = append(sheets, sheetRef{name: s.Name, part: resolveWorkbookTarget(target)})
	}
	return sheets, nil
}

// parseWorkbookRels maps relationship IDs to part targets.
func parseWorkbookRels(zr *zip.Reader) (map[string]string, error) {
	rels := make(map[string]string)

	part, err := openZipPart(zr, "xl/_rels/workbook.xml.rels")
	if err != nil {
		// Optional: conventional sheet paths are used instead.
		return rels, nil
	}
	defer func() { _ = part.Close() }()

	var doc struct {
		Relationships []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if err := xml.NewDecoder(part).Decode(&doc); err != nil {
		return nil, err
	}
	for _, r := range doc.Relationships {
		rels[r.ID] = r.Target
	}
	return rels, nil
}

// resolveWorkbookTarget resolves a relationship target against the xl/
// directory. Absolute targets ("/xl/worksheets/sheet1.xml") are used
// as-is after trimming the slash.
func resolveWorkbookTarget(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join("xl", target)
}

// parseSharedStrings reads xl/sharedStrings.xml into an indexable
// table. Rich-text entries concatenate all their runs. A workbook
// without shared strings yields an empty table.
func parseSharedStrings(zr *zip.Reader) ([]string, error) {
	if !hasZipPart(zr, "xl/sharedStrings.xml") {
		return nil, nil
	}
	part, err := openZipPart(zr, "xl/sharedStrings.xml")
	if err != nil {
		return nil, err
	}
	defer func() { _ = part.Close() }()

	dec := xml.NewDecoder(part)

	var table []string
	var current strings.Builder
	inEntry := false
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return table, nil
		}
		if err != nil {
			return table, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "si":
				inEntry = true
				current.Reset()
			case "t":
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "si":
				table = append(table, current.String())
				inEntry = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inEntry && inText {
				current.Write(t)
			}
		}
	}
}

// parseSheetCells walks one worksheet's XML and emits a block for every
// non-blank cell. ordinal is shared across sheets so blocks keep
// document order for the whole workbook.
func parseSheetCells(r io.Reader, sheetName string, shared []string, ordinal *int) ([]TextBlock, error) {
	dec := xml.NewDecoder(r)

	var blocks []TextBlock
	var cellRef, cellType string
	var value strings.Builder
	inValue := false
	inInline := false

	emit := func() {
		text := value.String()
		value.Reset()

		if cellType == "s" {
			idx, err := strconv.Atoi(strings.TrimSpace(text))
			if err != nil || idx < 0 || idx >= len(shared) {
				return
			}
			text = shared[idx]
		}
		if strings.TrimSpace(text) == "" {
			return
		}

		column, row, err := ParseCellRef(cellRef)
		if err != nil {
			return
		}

		blocks = append(blocks, TextBlock{
			Text:      text,
			Ordinal:   *ordinal,
			Kind:      KindCell,
			SheetName: sheetName,
			Row:       row,
			Column:    column,
		})
		*ordinal++
	}

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
			case "c":
				cellRef, cellType = "", ""
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "r":
						cellRef = attr.Value
					case "t":
						cellType = attr.Value
					}
				}
			case "v":
				inValue = true
			case "is":
				inInline = true
			case "t":
				if inInline {
					inValue = true
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "c":
				emit()
			case "v":
				inValue = false
			case "is":
				inInline = false
			case "t":
				if inInline {
					inValue = false
				}
			}
		case xml.CharData:
			if inValue {
				value.Write(t)
			}
		}
	}
}
