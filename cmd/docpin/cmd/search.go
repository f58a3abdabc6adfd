package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vqtran/docpin/internal/extract"
	"github.com/vqtran/docpin/internal/searcher"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search project documents accent-insensitively",
		Long: `Search walks the project's indexable files and reports every
occurrence of the keyword. Matching ignores diacritics: "ngan sach"
finds "Ngân Sách", and the reported offsets point into the original
text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0])
		},
	}
	return cmd
}

func runSearch(cmd *cobra.Command, keyword string) error {
	a, cleanup, err := newApp()
	if err != nil {
		return err
	}
	defer cleanup()

	s := searcher.New(a.root, a.extractor, a.index,
		searcher.WithExcludes(a.cfg.Index.Exclude),
		searcher.WithWorkers(a.workers()),
	)

	result, err := s.Search(cmd.Context(), keyword)
	if err != nil {
		return err
	}

	for _, m := range result.Matches {
		a.out.Match(location(a.root, m.FilePath, m.Block), m.Block.Text, m.Start, m.Length)
	}

	a.out.Newline()
	if result.FilesFailed > 0 {
		a.out.Warningf("%d match(es) in %d file(s), %d file(s) unreadable",
			len(result.Matches), result.FilesScanned, result.FilesFailed)
	} else {
		a.out.Statusf("", "%d match(es) in %d file(s)", len(result.Matches), result.FilesScanned)
	}
	return nil
}

// location renders a block's position as path plus its structural
// coordinate: line for text, paragraph for Word, sheet cell for Excel,
// slide for PowerPoint.
func location(root, path string, b extract.TextBlock) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	switch b.Kind {
	case extract.KindLine:
		return fmt.Sprintf("%s:%d", rel, b.LineNumber)
	case extract.KindParagraph:
		return fmt.Sprintf("%s ¶%d", rel, b.Ordinal+1)
	case extract.KindCell:
		return fmt.Sprintf("%s %s!%s%d", rel, b.SheetName, columnName(b.Column), b.Row)
	case extract.KindSlide:
		return fmt.Sprintf("%s slide %d", rel, b.SlideNumber)
	default:
		return rel
	}
}

// columnName converts a 1-based column index to its letter form
// (1 -> A, 27 -> AA).
func columnName(col int) string {
	if col < 1 {
		return "?"
	}
	var sb strings.Builder
	for col > 0 {
		col--
		sb.WriteByte(byte('A' + col%26))
		col /= 26
	}
	// Letters come out least significant first.
	s := sb.String()
	runes := []byte(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
