package textnorm

import (
	"strings"
)

// Match is one keyword occurrence located in the original string.
// Start and Length are byte offsets into the original haystack, not the
// folded copy.
type Match struct {
	Start  int
	Length int
}

// End returns the byte offset just past the match.
func (m Match) End() int {
	return m.Start + m.Length
}

// FindAll finds every occurrence of keyword in haystack under folded
// (case- and accent-insensitive) matching and maps each hit back to
// byte offsets in the original haystack. Occurrences are reported in
// order; the scan resumes one byte after each match start, so
// overlapping matches with distinct starts are all reported.
//
// An empty keyword or haystack yields no matches, never an error.
func FindAll(haystack, keyword string) []Match {
	if haystack == "" || keyword == "" {
		return nil
	}

	foldedKeyword := Fold(keyword)
	if foldedKeyword == "" {
		return nil
	}

	folded, offsets := FoldWithMap(haystack)
	if folded == "" {
		return nil
	}

	var matches []Match
	from := 0
	for {
		idx := strings.Index(folded[from:], foldedKeyword)
		if idx < 0 {
			break
		}
		start := from + idx
		end := start + len(foldedKeyword)

		origStart := offsets[start]
		origEnd := offsets[end]
		if origEnd > origStart && origEnd <= len(haystack) {
			matches = append(matches, Match{Start: origStart, Length: origEnd - origStart})
		}

		from = start + 1
	}
	return matches
}

// Contains reports whether keyword occurs in haystack under folded matching.
func Contains(haystack, keyword string) bool {
	if haystack == "" || keyword == "" {
		return false
	}
	foldedKeyword := Fold(keyword)
	if foldedKeyword == "" {
		return false
	}
	return strings.Contains(Fold(haystack), foldedKeyword)
}
