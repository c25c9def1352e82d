package editline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCamelMatch(t *testing.T) {
	require.True(t, camelMatch("fB", "fooBar"))
	require.True(t, camelMatch("cAC", "createAccessControl"))
	require.True(t, camelMatch("foo", "fooBar"))
	require.False(t, camelMatch("fX", "fooBar"))
	require.False(t, camelMatch("x", "fooBar"))
	require.False(t, camelMatch("", "fooBar"))
}

func TestTypoMatch(t *testing.T) {
	require.True(t, typoMatch("comit", "commit", 2))
	require.True(t, typoMatch("chekout", "checkout", 2))
	require.False(t, typoMatch("co", "commit", 2))
	require.False(t, typoMatch("zzzzzz", "commit", 2))

	require.Equal(t, 0, editDistance("abc", "abc"))
	require.Equal(t, 1, editDistance("abc", "abd"))
	require.Equal(t, 3, editDistance("", "abc"))
}

func TestCommonPrefix(t *testing.T) {
	cands := []Candidate{{Value: "commit"}, {Value: "checkout"}, {Value: "clone"}}
	require.Equal(t, "c", commonPrefix(cands))
	require.Equal(t, "", commonPrefix(nil))
	require.Equal(t, "ab", commonPrefix([]Candidate{{Value: "abc"}, {Value: "abd"}}))
}

func TestMatchCandidates(t *testing.T) {
	r, _, _ := newTestReader(40, 10)
	cands := []Candidate{
		{Value: "commit"}, {Value: "Checkout"}, {Value: "fooBar"},
	}

	out := r.matchCandidates("com", cands)
	require.Len(t, out, 1)
	require.Equal(t, "commit", out[0].Value)

	// Case-insensitive matching is off by default.
	require.Empty(t, r.matchCandidates("check", cands))
	r.SetFlag(FlagCaseInsensitive, true)
	out = r.matchCandidates("check", cands)
	require.Len(t, out, 1)
	require.Equal(t, "Checkout", out[0].Value)

	// CamelCase matching kicks in when prefixes fail.
	out = r.matchCandidates("fB", cands)
	require.Len(t, out, 1)
	require.Equal(t, "fooBar", out[0].Value)

	// Typo matching is the last resort.
	out = r.matchCandidates("comit", cands)
	require.Len(t, out, 1)
	require.Equal(t, "commit", out[0].Value)
	r.SetFlag(FlagCompleteMatcherTypo, false)
	require.Empty(t, r.matchCandidates("comit", cands))

	// An empty word matches everything unless EMPTY_WORD_OPTIONS is off.
	require.Len(t, r.matchCandidates("", cands), 3)
	r.SetFlag(FlagEmptyWordOptions, false)
	require.Empty(t, r.matchCandidates("", cands))
}

func TestGatherCandidatesDedup(t *testing.T) {
	r, _, _ := newTestReader(40, 10)
	r.completers = []Completer{
		StringsCompleter{"dup", "one"},
		StringsCompleter{"dup", "two"},
	}
	r.buf.init()

	_, cands, ok := r.gatherCandidates()
	require.True(t, ok)
	require.Len(t, cands, 3)
}

func TestGatherCandidatesStripsANSI(t *testing.T) {
	r, _, _ := newTestReader(40, 10)
	r.completers = []Completer{completerFunc(func(_ *Reader, _ *ParsedLine, out *[]Candidate) {
		*out = append(*out, Candidate{Value: "x", Display: FgRed + "x" + AttrReset})
	})}
	r.buf.init()

	_, cands, ok := r.gatherCandidates()
	require.True(t, ok)
	require.Equal(t, "x", cands[0].Display)
}

type completerFunc func(r *Reader, line *ParsedLine, out *[]Candidate)

func (f completerFunc) Complete(r *Reader, line *ParsedLine, out *[]Candidate) {
	f(r, line, out)
}

func TestGroupCandidates(t *testing.T) {
	r, _, _ := newTestReader(40, 10)
	cands := []Candidate{
		{Value: "b", Group: "g1"},
		{Value: "z"},
		{Value: "a", Group: "g1"},
		{Value: "c", Group: "g2"},
	}
	out := r.groupCandidates(cands)
	require.Equal(t, []string{"a", "b", "z", "c"},
		[]string{out[0].Value, out[1].Value, out[2].Value, out[3].Value})

	r.SetFlag(FlagAutoGroup, false)
	r.SetFlag(FlagGroup, false)
	out = r.groupCandidates(cands)
	require.Equal(t, "a", out[0].Value)
	require.Equal(t, "z", out[3].Value)
}

func TestBuildListRows(t *testing.T) {
	r, _, _ := newTestReader(40, 10)
	cands := []Candidate{
		{Value: "alpha", Group: "words"},
		{Value: "beta", Group: "words"},
	}
	rows := r.buildListRows(r.groupCandidates(cands), -1)
	require.NotEmpty(t, rows)
	var first string
	for _, c := range rows[0] {
		first += string(c.r)
	}
	require.Equal(t, "words", first)
}

func TestWhitespaceParser(t *testing.T) {
	var p whitespaceParser

	pl, err := p.Parse("git commit -m msg", 6, ParseComplete)
	require.NoError(t, err)
	require.Equal(t, []string{"git", "commit", "-m", "msg"}, pl.Words)
	require.Equal(t, 1, pl.WordIndex)
	require.Equal(t, 2, pl.WordCursor)
	require.Equal(t, "commit", pl.Word())

	// Cursor between words completes an empty word.
	pl, err = p.Parse("git ", 4, ParseComplete)
	require.NoError(t, err)
	require.Equal(t, 1, pl.WordIndex)
	require.Equal(t, "", pl.Word())

	pl, err = p.Parse("", 0, ParseComplete)
	require.NoError(t, err)
	require.Equal(t, "", pl.Word())
}
