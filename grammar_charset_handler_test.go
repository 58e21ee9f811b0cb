package pegvm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCharsets(t *testing.T) {
	for _, test := range []struct {
		Name     string
		Grammar  string
		Expected string
	}{
		{"Choice of characters", "'a' / 'b' / [0-9]", "[ab0-9]"},
		{"Only adjacent alternatives", "'a' / 'bc' / 'd' / 'e'", "'a' / 'bc' / [de]"},
		{"Lone alternative", "'a' / 'bc'", "'a' / 'bc'"},
		{"Case insensitive literal", "'x'i / 'y'", "[xXy]"},
		{"Negated classes are kept", "[^a] / 'b'", "[^a] / 'b'"},
		{"Not followed by any", "!'a' .", "[^a]"},
		{"Not class followed by any", "![a-z] .", "[^a-z]"},
		{"Not negated class followed by any", "![^a-z] .", "[a-z]"},
		{"Within a sequence", "'x' !'a' . 'y'", "'x' [^a] 'y'"},
		{"Longer literals are kept", "!'ab' .", "!'ab' ."},
		{"Within repetitions", "('a' / 'b')*", "[ab]*"},
		{"Within captures", "{ 'a' / 'b' }", "{ [ab] }"},
		{"Within definitions", "A <- 'a' / 'b' / B\nB <- !'c' .", "A <- [ab] / B\nB <- [^c]"},
	} {
		t.Run(test.Name, func(t *testing.T) {
			node, err := ParseGrammar(test.Grammar)
			require.NoError(t, err)
			before := node.Text()

			assert.Equal(t, test.Expected, AddCharsets(node).Text())
			assert.Equal(t, before, node.Text())
		})
	}
}

func TestCompilerCharsets(t *testing.T) {
	t.Run("choices become one set", func(t *testing.T) {
		p, err := Compile(alt(lit("a"), lit("b"), cls('0', '9')), nil)
		require.NoError(t, err)
		expected := []Instruction{
			ISet{Set: NewCharset([]CharRange{{Lo: '0', Hi: '9'}, {Lo: 'a', Hi: 'b'}}, false)},
			IEnd{},
		}
		if diff := cmp.Diff(expected, p.Code(), cmpCharsets); diff != "" {
			t.Errorf("unexpected code (-want +got):\n%s", diff)
		}
	})

	t.Run("nothing is merged without optimizations", func(t *testing.T) {
		cfg := NewConfig()
		cfg.SetInt("compiler.optimize", 0)
		p, err := Compile(alt(lit("a"), lit("b")), cfg)
		require.NoError(t, err)
		assert.Equal(t, 5, p.Len())
	})

	t.Run("same matches either way", func(t *testing.T) {
		const text = `
			S    <- Item (',' Item)* !.
			Item <- { 'x'i / 'y' / [0-9] } / '"' { (!'"' .)* } '"'
		`
		off := NewConfig()
		off.SetBool("compiler.add_charsets", false)
		slow, err := CompileString(text, off)
		require.NoError(t, err)
		fast, err := CompileString(text, nil)
		require.NoError(t, err)
		assert.Less(t, fast.Len(), slow.Len())

		for _, input := range []string{`X,y,7,"a b"`, `x,"",Y`, `z`, `"open`, `1,,2`} {
			want, err := slow.Match(input)
			require.NoError(t, err)
			got, err := fast.Match(input)
			require.NoError(t, err)
			assert.Equal(t, want, got, input)
		}
	})
}
