package extract

import (
	"bufio"
	"os"
	"strings"

	"github.com/vqtran/docpin/internal/errors"
)

// extractText reads a plain text or code file and emits one block per
// non-blank line. LineNumber is 1-based; blank lines are skipped but
// still consume an ordinal so line coordinates stay stable.
func (e *Extractor) extractText(path string) (*Extraction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeFilePermission, "cannot open file: "+path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	// Long minified lines would blow the default 64KB token limit.
	scanner.Buffer(make([]byte, 0, 64*1024), int(e.maxFileSize))

	var blocks []TextBlock
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		blocks = append(blocks, TextBlock{
			Text:       line,
			Ordinal:    lineNumber - 1,
			Kind:       KindLine,
			LineNumber: lineNumber,
		})
	}
	if err := scanner.Err(); err != nil {
		return e.degrade(path, blocks, err), nil
	}

	return &Extraction{Blocks: blocks}, nil
}
