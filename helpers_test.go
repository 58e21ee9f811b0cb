package pegvm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// short constructors for building expressions by hand in tests

func lit(s string) AstNode             { return NewLiteralNode(s) }
func dot() AstNode                     { return NewAnyNode() }
func seq(items ...AstNode) AstNode     { return NewSequenceNode(items...) }
func alt(items ...AstNode) AstNode     { return NewChoiceNode(items...) }
func star(e AstNode) AstNode           { return NewZeroOrMoreNode(e) }
func plus(e AstNode) AstNode           { return NewOneOrMoreNode(e) }
func opt(e AstNode) AstNode            { return NewOptionalNode(e) }
func not(e AstNode) AstNode            { return NewNotNode(e) }
func and(e AstNode) AstNode            { return NewAndNode(e) }
func id(name string) AstNode           { return NewIdentifierNode(name) }
func capture(i int, e AstNode) AstNode { return NewCaptureNode(i, "", e) }

func cls(ranges ...rune) AstNode {
	var rs []CharRange
	for i := 0; i+1 < len(ranges); i += 2 {
		rs = append(rs, CharRange{Lo: ranges[i], Hi: ranges[i+1]})
	}
	return NewClassNode(rs, false)
}

func def(name string, expr AstNode) *DefinitionNode {
	return NewDefinitionNode(name, expr)
}

func grammar(defs ...*DefinitionNode) AstNode {
	return NewGrammarNode(defs...)
}

// optimizeLevels runs `fn` once for each level of the compiler
// optimizations
func optimizeLevels(t *testing.T, fn func(t *testing.T, cfg *Config)) {
	for _, level := range []int{0, 1} {
		cfg := NewConfig()
		cfg.SetInt("compiler.optimize", level)
		t.Run("O"+string(rune('0'+level)), func(t *testing.T) {
			fn(t, cfg)
		})
	}
}

// exec compiles `node` and matches it against `input` with a fresh
// virtual machine.  It also checks that the stack was left with
// nothing but its bottom frame.
func exec(t *testing.T, node AstNode, cfg *Config, input string) MatchResult {
	t.Helper()
	p, err := Compile(node, cfg)
	require.NoError(t, err)
	vm := NewVirtualMachine(p)
	r, err := vm.Match(input)
	require.NoError(t, err)
	require.Equal(t, 1, vm.stack.len(), "stack not balanced after matching %q", input)
	return r
}

// execGrammar is like `exec` but takes the grammar as text
func execGrammar(t *testing.T, text, input string) MatchResult {
	t.Helper()
	node, err := ParseGrammar(text)
	require.NoError(t, err)
	return exec(t, node, nil, input)
}

// runCode runs hand written instructions against `input`
func runCode(t *testing.T, code []Instruction, input string) (MatchResult, error) {
	t.Helper()
	p, err := NewProgram(code, nil)
	require.NoError(t, err)
	return NewVirtualMachine(p).Match(input)
}

var cmpCharsets = cmp.Comparer(func(a, b *Charset) bool { return a.Equal(b) })
