package extract

import (
	"strconv"
	"strings"

	"github.com/vqtran/docpin/internal/errors"
)

// ParseCellRef parses a spreadsheet-style cell reference ("B2", "AA10",
// "$C$7") into a 1-based column and row. Column letters are a base-26
// number with A=1, so "AA" is 27.
func ParseCellRef(ref string) (column, row int, err error) {
	ref = strings.ToUpper(strings.ReplaceAll(ref, "$", ""))
	if ref == "" {
		return 0, 0, errors.New(errors.ErrCodeInvalidCellRef, "empty cell reference", nil)
	}

	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		column = column*26 + int(ref[i]-'A') + 1
		i++
	}
	if column == 0 || i == len(ref) {
		return 0, 0, errors.New(errors.ErrCodeInvalidCellRef, "malformed cell reference: "+ref, nil)
	}

	row, convErr := strconv.Atoi(ref[i:])
	if convErr != nil || row < 1 {
		return 0, 0, errors.New(errors.ErrCodeInvalidCellRef, "malformed cell reference: "+ref, convErr)
	}
	return column, row, nil
}
