// Package textnorm implements accent-insensitive text matching with
// exact offset recovery.
//
// Matching folds text to a lowercase, diacritic-free form (NFD
// decomposition keeping only the base character, plus the Vietnamese
// đ/Đ -> d/D fold that generic decomposition does not cover). Because
// folding changes byte lengths per character, a parallel offset map is
// built so match positions in the folded text can be converted back to
// exact byte offsets in the original string.
package textnorm

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Fold returns the folded form of s: lowercase, diacritics stripped,
// đ/Đ folded to d. Folding an already-folded string is a no-op.
func Fold(s string) string {
	folded, _ := foldString(s, false)
	return folded
}

// FoldWithMap returns the folded form of s plus a byte offset map of
// length len(folded)+1. offsets[i] is the byte index into s of the
// character that produced folded byte i; the sentinel entry
// offsets[len(folded)] equals len(s).
func FoldWithMap(s string) (string, []int) {
	return foldString(s, true)
}

func foldString(s string, withMap bool) (string, []int) {
	var buf []byte
	var offsets []int
	if withMap {
		buf = make([]byte, 0, len(s))
		offsets = make([]int, 0, len(s)+1)
	} else {
		buf = make([]byte, 0, len(s))
	}

	for i, r := range s {
		base, ok := foldRune(r)
		if !ok {
			// Standalone combining mark: contributes nothing, the
			// offset of the following character still points past it.
			continue
		}

		start := len(buf)
		buf = utf8.AppendRune(buf, base)
		if withMap {
			for j := start; j < len(buf); j++ {
				offsets = append(offsets, i)
			}
		}
	}

	if withMap {
		offsets = append(offsets, len(s))
	}
	return string(buf), offsets
}

// foldRune folds a single rune to its lowercase base character.
// Returns false for combining marks, which fold to nothing.
func foldRune(r rune) (rune, bool) {
	if unicode.Is(unicode.Mn, r) {
		return 0, false
	}

	// Decompose and keep the first non-mark component. For precomposed
	// characters like 'ệ' (U+1EC7) the decomposition is base + marks.
	base := r
	if r >= utf8.RuneSelf {
		decomposed := norm.NFD.String(string(r))
		found := false
		for _, d := range decomposed {
			if !unicode.Is(unicode.Mn, d) {
				base = d
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}

	base = unicode.ToLower(base)

	// đ (U+0111) has no Unicode decomposition to 'd'; Đ (U+0110)
	// lowercases to đ first, so a single check covers both.
	if base == 'đ' {
		base = 'd'
	}
	return base, true
}
