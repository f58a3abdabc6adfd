package textnorm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFold_Basics(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello world"},
		{"Việt Nam", "viet nam"},
		{"Đà Nẵng", "da nang"},
		{"đường", "duong"},
		{"CAFÉ", "cafe"},
		{"", ""},
		{"123 !?", "123 !?"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in), tt.in)
	}
}

func TestFold_Idempotent(t *testing.T) {
	inputs := []string{"Việt Nam", "Đà Nẵng", "hello", "Trường Đại học Bách khoa"}
	for _, s := range inputs {
		once := Fold(s)
		assert.Equal(t, once, Fold(once), s)
	}
}

func TestFold_CombiningMarkSequence(t *testing.T) {
	// 'e' followed by a standalone combining acute accent (NFD form).
	s := "cafe\u0301"
	assert.Equal(t, "cafe", Fold(s))
}

func TestFoldWithMap_SentinelAndLength(t *testing.T) {
	s := "Việt"
	folded, offsets := FoldWithMap(s)

	assert.Equal(t, "viet", folded)
	require.Len(t, offsets, len(folded)+1)
	assert.Equal(t, len(s), offsets[len(folded)])
	assert.Equal(t, 0, offsets[0])
}

func TestFindAll_PlainASCII(t *testing.T) {
	s := "the quick brown fox jumps over the lazy dog"
	matches := FindAll(s, "the")

	require.Len(t, matches, 2)
	assert.Equal(t, Match{Start: 0, Length: 3}, matches[0])
	assert.Equal(t, Match{Start: strings.Index(s, "the lazy"), Length: 3}, matches[1])
	for _, m := range matches {
		assert.Equal(t, "the", s[m.Start:m.End()])
	}
}

func TestFindAll_AccentInsensitive(t *testing.T) {
	s := "Việt Nam"
	matches := FindAll(s, "viet")

	require.Len(t, matches, 1)
	// The match must cover the original "Việt" with its true byte length,
	// not the folded length.
	assert.Equal(t, 0, matches[0].Start)
	assert.Equal(t, len("Việt"), matches[0].Length)
	assert.Equal(t, "Việt", s[matches[0].Start:matches[0].End()])
}

func TestFindAll_DFolding(t *testing.T) {
	s := "Đà Nẵng"
	matches := FindAll(s, "da")

	require.Len(t, matches, 1)
	assert.Equal(t, "Đà", s[matches[0].Start:matches[0].End()])
}

func TestFindAll_AccentedKeyword(t *testing.T) {
	// The keyword is folded with the same rules, so accented keywords
	// match unaccented text and vice versa.
	matches := FindAll("da nang city", "Đà")
	require.Len(t, matches, 1)
	assert.Equal(t, "da", "da nang city"[matches[0].Start:matches[0].End()])
}

func TestFindAll_CaseInsensitive(t *testing.T) {
	matches := FindAll("Hello HELLO hello", "hello")
	require.Len(t, matches, 3)
}

func TestFindAll_OverlappingStarts(t *testing.T) {
	// "aaaa" contains "aa" starting at 0, 1, and 2.
	matches := FindAll("aaaa", "aa")
	require.Len(t, matches, 3)
	assert.Equal(t, 0, matches[0].Start)
	assert.Equal(t, 1, matches[1].Start)
	assert.Equal(t, 2, matches[2].Start)
}

func TestFindAll_EmptyInputs(t *testing.T) {
	assert.Empty(t, FindAll("", "key"))
	assert.Empty(t, FindAll("haystack", ""))
	assert.Empty(t, FindAll("", ""))
}

func TestFindAll_NoMatch(t *testing.T) {
	assert.Empty(t, FindAll("hello world", "xyz"))
}

func TestFindAll_MatchAtEndOfString(t *testing.T) {
	s := "tài liệu dự án"
	matches := FindAll(s, "an")

	require.NotEmpty(t, matches)
	last := matches[len(matches)-1]
	assert.Equal(t, "án", s[last.Start:last.End()])
	assert.Equal(t, len(s), last.End())
}

func TestFindAll_DecomposedHaystack(t *testing.T) {
	// NFD haystack: base letters followed by separate combining marks.
	s := "Vie\u0302\u0323t Nam" // "Việt Nam" fully decomposed
	matches := FindAll(s, "viet")

	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].Start)
	// The span includes the combining marks that belong to the matched base.
	assert.Equal(t, len("Vie\u0302\u0323t"), matches[0].Length)
	assert.Equal(t, "Vie\u0302\u0323t", s[:matches[0].End()])
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Thành phố Đà Nẵng", "da nang"))
	assert.False(t, Contains("Thành phố Đà Nẵng", "hanoi"))
	assert.False(t, Contains("", "x"))
	assert.False(t, Contains("x", ""))
}
