package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vqtran/docpin/internal/errors"
)

// writeArchive builds an OOXML-style zip fixture on disk.
func writeArchive(t *testing.T, path string, parts map[string]string) {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExtractText_LinesAndOrdinals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	content := "first line\n\nthird line\nfourth line\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	result, err := New().Extract(path)
	require.NoError(t, err)
	require.Len(t, result.Blocks, 3)
	assert.False(t, result.Partial)

	// Blank line 2 is skipped but line numbers stay stable.
	assert.Equal(t, "first line", result.Blocks[0].Text)
	assert.Equal(t, 1, result.Blocks[0].LineNumber)
	assert.Equal(t, KindLine, result.Blocks[0].Kind)
	assert.Equal(t, "third line", result.Blocks[1].Text)
	assert.Equal(t, 3, result.Blocks[1].LineNumber)
	assert.Equal(t, 4, result.Blocks[2].LineNumber)
}

func TestExtractText_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	result, err := New().Extract(path)
	require.NoError(t, err)
	assert.Empty(t, result.Blocks)
	assert.False(t, result.Partial)
}

func TestExtract_FileNotFound(t *testing.T) {
	_, err := New().Extract(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFileNotFound, errors.GetCode(err))
}

func TestExtract_UnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50}, 0o644))

	_, err := New().Extract(path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestExtract_FileTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("a"), 128), 0o644))

	_, err := New(WithMaxFileSize(64)).Extract(path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFileTooLarge, errors.GetCode(err))
}

func TestExtractWord_Paragraphs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.docx")
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
    <w:p><w:r><w:t> </w:t></w:r></w:p>
    <w:p><w:r><w:t>Third </w:t></w:r><w:r><w:t>paragraph</w:t></w:r></w:p>
  </w:body>
</w:document>`
	writeArchive(t, path, map[string]string{"word/document.xml": doc})

	result, err := New().Extract(path)
	require.NoError(t, err)
	require.Len(t, result.Blocks, 2)

	assert.Equal(t, "First paragraph", result.Blocks[0].Text)
	assert.Equal(t, 0, result.Blocks[0].Ordinal)
	assert.Equal(t, KindParagraph, result.Blocks[0].Kind)

	// The blank paragraph consumed ordinal 1.
	assert.Equal(t, "Third paragraph", result.Blocks[1].Text)
	assert.Equal(t, 2, result.Blocks[1].Ordinal)
}

func TestExtractWord_TabsAndBreaks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.docx")
	doc := `<w:document xmlns:w="http://x">
  <w:body>
    <w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p>
  </w:body>
</w:document>`
	writeArchive(t, path, map[string]string{"word/document.xml": doc})

	result, err := New().Extract(path)
	require.NoError(t, err)
	require.Len(t, result.Blocks, 1)
	assert.Equal(t, "a\tb\nc", result.Blocks[0].Text)
}

func TestExtractWord_PartialOnTruncatedXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	doc := `<w:document xmlns:w="http://x"><w:body>` +
		`<w:p><w:r><w:t>survives</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>cut off mid-par` // truncated on purpose
	writeArchive(t, path, map[string]string{"word/document.xml": doc})

	result, err := New().Extract(path)
	require.NoError(t, err, "mid-document failure degrades, never propagates")
	assert.True(t, result.Partial)
	require.Len(t, result.Blocks, 1)
	assert.Equal(t, "survives", result.Blocks[0].Text)
}

func TestExtractWord_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.docx")
	require.NoError(t, os.WriteFile(path, []byte("plain text, no zip magic"), 0o644))

	_, err := New().Extract(path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDocumentCorrupt, errors.GetCode(err))
}

func TestExtractExcel_SharedStringsAndCoordinates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.xlsx")
	writeArchive(t, path, map[string]string{
		"xl/workbook.xml": `<workbook><sheets>
			<sheet name="Expenses" sheetId="1" id="rId1"/>
		</sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<Relationships>
			<Relationship Id="rId1" Target="worksheets/sheet1.xml"/>
		</Relationships>`,
		"xl/sharedStrings.xml": `<sst>
			<si><t>Office rent</t></si>
			<si><r><t>Travel</t></r><r><t> costs</t></r></si>
		</sst>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData>
			<row r="2">
				<c r="B2" t="s"><v>0</v></c>
				<c r="C2"><v>1200</v></c>
			</row>
			<row r="10">
				<c r="AA10" t="s"><v>1</v></c>
				<c r="AB10"><v></v></c>
			</row>
		</sheetData></worksheet>`,
	})

	result, err := New().Extract(path)
	require.NoError(t, err)
	require.Len(t, result.Blocks, 3)

	first := result.Blocks[0]
	assert.Equal(t, "Office rent", first.Text, "shared string must be dereferenced")
	assert.Equal(t, KindCell, first.Kind)
	assert.Equal(t, "Expenses", first.SheetName)
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, 2, first.Column)

	assert.Equal(t, "1200", result.Blocks[1].Text)

	third := result.Blocks[2]
	assert.Equal(t, "Travel costs", third.Text, "rich-text runs concatenate")
	assert.Equal(t, 10, third.Row)
	assert.Equal(t, 27, third.Column)
}

func TestExtractExcel_InlineStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inline.xlsx")
	writeArchive(t, path, map[string]string{
		"xl/workbook.xml": `<workbook><sheets>
			<sheet name="Sheet1" sheetId="1" id="rId1"/>
		</sheets></workbook>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData>
			<row r="1"><c r="A1" t="inlineStr"><is><t>hello inline</t></is></c></row>
		</sheetData></worksheet>`,
	})

	result, err := New().Extract(path)
	require.NoError(t, err)
	require.Len(t, result.Blocks, 1)
	assert.Equal(t, "hello inline", result.Blocks[0].Text)
	assert.Equal(t, 1, result.Blocks[0].Row)
	assert.Equal(t, 1, result.Blocks[0].Column)
}

func TestExtractPowerPoint_SlideOrderAndRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")
	slide := func(runs ...string) string {
		body := ""
		for _, r := range runs {
			body += "<a:r><a:t>" + r + "</a:t></a:r>"
		}
		return `<p:sld xmlns:a="http://a" xmlns:p="http://p"><p:txBody><a:p>` + body + `</a:p></p:txBody></p:sld>`
	}
	writeArchive(t, path, map[string]string{
		// Listed out of order on purpose: slide10 must sort after slide2.
		"ppt/slides/slide10.xml": slide("last slide"),
		"ppt/slides/slide1.xml":  slide("title", "subtitle"),
		"ppt/slides/slide2.xml":  slide("agenda"),
	})

	result, err := New().Extract(path)
	require.NoError(t, err)
	require.Len(t, result.Blocks, 4)

	assert.Equal(t, "title", result.Blocks[0].Text)
	assert.Equal(t, 1, result.Blocks[0].SlideNumber)
	assert.Equal(t, KindSlide, result.Blocks[0].Kind)
	assert.Equal(t, "subtitle", result.Blocks[1].Text)
	assert.Equal(t, "agenda", result.Blocks[2].Text)
	assert.Equal(t, 2, result.Blocks[2].SlideNumber)
	assert.Equal(t, "last slide", result.Blocks[3].Text)
	assert.Equal(t, 10, result.Blocks[3].SlideNumber)

	for i, b := range result.Blocks {
		assert.Equal(t, i, b.Ordinal)
	}
}

func TestParseCellRef(t *testing.T) {
	tests := []struct {
		ref     string
		col     int
		row     int
		wantErr bool
	}{
		{"B2", 2, 2, false},
		{"AA10", 27, 10, false},
		{"A1", 1, 1, false},
		{"Z99", 26, 99, false},
		{"AB10", 28, 10, false},
		{"$B$2", 2, 2, false},
		{"b2", 2, 2, false},
		{"", 0, 0, true},
		{"42", 0, 0, true},
		{"ABC", 0, 0, true},
		{"A0", 0, 0, true},
	}

	for _, tt := range tests {
		col, row, err := ParseCellRef(tt.ref)
		if tt.wantErr {
			assert.Error(t, err, tt.ref)
			continue
		}
		require.NoError(t, err, tt.ref)
		assert.Equal(t, tt.col, col, tt.ref)
		assert.Equal(t, tt.row, row, tt.ref)
	}
}

func TestFlatten(t *testing.T) {
	blocks := []TextBlock{
		{Text: "one"},
		{Text: "two"},
		{Text: "three"},
	}
	assert.Equal(t, "one\n\ntwo\n\nthree", Flatten(blocks))
	assert.Equal(t, "", Flatten(nil))
}
