package pegvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bogusInstruction struct{}

func (bogusInstruction) Name() string   { return "bogus" }
func (bogusInstruction) String() string { return "bogus" }

func TestNewProgram(t *testing.T) {
	for _, test := range []struct {
		Name     string
		Code     []Instruction
		Expected error
	}{
		{"unlinked label", []Instruction{ILabel{ID: 1}, IEnd{}}, ErrBadInstruction},
		{"unlinked jump", []Instruction{IJump{Label: ILabel{ID: 3}}, IEnd{}}, ErrBadInstruction},
		{"set without charset", []Instruction{ISet{}, IEnd{}}, ErrBadInstruction},
		{"nil instruction", []Instruction{nil, IEnd{}}, ErrBadInstruction},
		{"jump past the end", []Instruction{IJump{Offset: 5}, IEnd{}}, ErrBadAddress},
		{"choice before the start", []Instruction{IChoice{Offset: -1}, IEnd{}}, ErrBadAddress},
		{"call past the end", []Instruction{ICall{Offset: 2}, IEnd{}}, ErrBadAddress},
	} {
		t.Run(test.Name, func(t *testing.T) {
			p, err := NewProgram(test.Code, nil)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, test.Expected)
			assert.ErrorIs(t, err, ErrInvariant)
		})
	}

	t.Run("unknown instructions fail at run time", func(t *testing.T) {
		p, err := NewProgram([]Instruction{bogusInstruction{}, IEnd{}}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, p.Len())

		_, err = p.Match("")
		assert.ErrorIs(t, err, ErrBadInstruction)

		_, err = p.MarshalBinary()
		assert.EqualError(t, err, "can't encode `bogus` at 0")
	})
}

func TestProgramPrettyString(t *testing.T) {
	t.Run("jump targets get labels", func(t *testing.T) {
		p, err := Compile(alt(lit("a"), lit("bc")), nil)
		require.NoError(t, err)
		assert.Equal(t, ""+
			"000000          choice l3\n"+
			"000001          char 'a'\n"+
			"000002          commit l5\n"+
			"000003  l3      char 'b'\n"+
			"000004          char 'c'\n"+
			"000005  l5      end\n",
			p.PrettyString())
		assert.Equal(t, p.PrettyString(), p.String())
	})

	t.Run("rules and captures", func(t *testing.T) {
		p, err := CompileString("A <- {:x: 'a'i :} B*\nB <- [^\\n] {}", nil)
		require.NoError(t, err)
		assert.Equal(t, ""+
			"000000          call l2\n"+
			"000001          jump l11\n"+
			"\n;; A\n"+
			"000002  l2      char 'a' nocase\n"+
			"000003          full_capture group 1 ; #1 x\n"+
			"000004          choice l7\n"+
			"000005  l5      call l8\n"+
			"000006          partial_commit l5\n"+
			"000007  l7      return\n"+
			"\n;; B\n"+
			"000008  l8      set [^\\n]\n"+
			"000009          full_capture position 0 ; #2\n"+
			"000010          return\n"+
			"000011  l11     end\n",
			p.PrettyString())
	})

	t.Run("highlighting", func(t *testing.T) {
		p, err := Compile(lit("a"), nil)
		require.NoError(t, err)
		out := p.HighlightPrettyString()
		assert.Contains(t, out, "\x1b[")
		assert.Contains(t, out, "char")
	})
}
