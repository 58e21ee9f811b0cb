package pegvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureTree(t *testing.T) {
	p, err := CompileString(`
		Pair  <- {:key: Word :} '=' {:value: Word / List :}
		List  <- '[' { Word } (',' { Word })* ']'
		Word  <- [a-z]+
	`, nil)
	require.NoError(t, err)

	input := "k=[a,bc]"
	r, err := p.Match(input)
	require.NoError(t, err)
	require.True(t, r.Matched)
	assert.Equal(t, 8, r.End)

	assert.Equal(t, []Capture{
		{Kind: CaptureGroup, Index: 1, Name: "key", Range: NewRange(0, 1), Parent: -1},
		{Kind: CaptureGroup, Index: 2, Name: "value", Range: NewRange(2, 8), Parent: -1},
		{Kind: CaptureSimple, Index: 3, Range: NewRange(3, 4), Parent: 1},
		{Kind: CaptureSimple, Index: 4, Range: NewRange(5, 7), Parent: 1},
	}, r.Captures)

	tree := r.Tree()
	require.Len(t, tree, 2)
	assert.Empty(t, tree[0].Children)
	require.Len(t, tree[1].Children, 2)
	assert.Equal(t, "a", tree[1].Children[0].Capture.Text([]rune(input)))
	assert.Equal(t, "bc", tree[1].Children[1].Capture.Text([]rune(input)))

	assert.Equal(t, `group#2(value)@2..8 "[a,bc]"
  simple#3@3..4 "a"
  simple#4@5..7 "bc"
`, tree[1].Pretty([]rune(input)))

	assert.Equal(t, "group#1(key)@0..1\n", tree[0].Pretty(nil))
}

func TestMatchResultShift(t *testing.T) {
	r := MatchResult{
		Matched:  true,
		End:      3,
		Captures: []Capture{{Range: NewRange(1, 2), Parent: -1}},
	}
	shifted := r.shift(4)
	assert.Equal(t, 7, shifted.End)
	assert.Equal(t, NewRange(5, 6), shifted.Captures[0].Range)
	assert.Equal(t, r, r.shift(0))
}

func TestCaptureString(t *testing.T) {
	assert.Equal(t, "simple#1@0..2", Capture{Index: 1, Range: NewRange(0, 2)}.String())
	assert.Equal(t, "position#2@3", Capture{Kind: CapturePosition, Index: 2, Range: NewRange(3, 3)}.String())
	assert.Equal(t, "group#3(x)@1..4", Capture{Kind: CaptureGroup, Index: 3, Name: "x", Range: NewRange(1, 4)}.String())
	assert.Equal(t, "CaptureKind(9)", CaptureKind(9).String())
}
