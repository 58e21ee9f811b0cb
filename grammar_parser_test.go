package pegvm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefinition(t *testing.T) {
	for _, test := range []struct {
		Name           string
		Grammar        string
		ExpectedOutput string
	}{
		{
			Name:           "Any",
			Grammar:        "A <- .",
			ExpectedOutput: "Grammar(Definition(A, Any))",
		},
		{
			Name:           "Choice",
			Grammar:        "A <- 'a' / 'b'",
			ExpectedOutput: `Grammar(Definition(A, Choice(Literal("a"), Literal("b"))))`,
		},
		{
			Name:    "Two definitions",
			Grammar: "A <- 'a' B\nB <- 'b'",
			ExpectedOutput: `Grammar(Definition(A, Sequence(Literal("a"), Identifier(B))), ` +
				`Definition(B, Literal("b")))`,
		},
		{
			Name:           "Comment",
			Grammar:        "-- leading comment\nA <- . -- something something\n",
			ExpectedOutput: "Grammar(Definition(A, Any))",
		},
		{
			Name:           "Identifier with digits and underscores",
			Grammar:        "rule_1 <- other_2",
			ExpectedOutput: "Grammar(Definition(rule_1, Identifier(other_2)))",
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			parser := NewGrammarParser(test.Grammar)
			output, err := parser.Parse()
			require.NoError(t, err)
			assert.Equal(t, test.ExpectedOutput, output.String())
		})
	}
}

func TestParseExpression(t *testing.T) {
	for _, test := range []struct {
		Name           string
		Grammar        string
		ExpectedOutput string
	}{
		{"Literal", "'abc'", `Literal("abc")`},
		{"Double quoted literal", `"abc"`, `Literal("abc")`},
		{"Literal without case", "'abc'i", `Literal("abc", nocase)`},
		{"Literal followed by identifier", "'a'ident", `Sequence(Literal("a"), Identifier(ident))`},
		{"Literal followed by i", "'a' i", `Sequence(Literal("a"), Identifier(i))`},
		{"Empty literal", "''", "Empty"},
		{"Escapes", `'\n\t\\\'A'`, `Literal("\n\t\\'A")`},
		{"Sequence", "'a' . 'b'", `Sequence(Literal("a"), Any, Literal("b"))`},
		{"Choice", "'a' / 'b' 'c' / 'd'", `Choice(Literal("a"), Sequence(Literal("b"), Literal("c")), Literal("d"))`},
		{"Parenthesis", "(('a'))", `Literal("a")`},
		{"Group", "('a' / 'b') 'c'", `Sequence(Choice(Literal("a"), Literal("b")), Literal("c"))`},
	} {
		t.Run(test.Name, func(t *testing.T) {
			output, err := ParseGrammar(test.Grammar)
			require.NoError(t, err)
			assert.Equal(t, test.ExpectedOutput, output.String())
		})
	}
}

func TestParsePrefix(t *testing.T) {
	for _, test := range []struct {
		Name           string
		Grammar        string
		ExpectedOutput string
	}{
		{"Not", "!'a'", `Not(Literal("a"))`},
		{"And", "&'a'", `And(Literal("a"))`},
		{"Both", "!'a' &'b' .", `Sequence(Not(Literal("a")), And(Literal("b")), Any)`},
		{"Binds looser than suffix", "!'a'*", `Not(Repetition(Literal("a"), *))`},
	} {
		t.Run(test.Name, func(t *testing.T) {
			output, err := ParseGrammar(test.Grammar)
			require.NoError(t, err)
			assert.Equal(t, test.ExpectedOutput, output.String())
		})
	}
}

func TestParseSuffix(t *testing.T) {
	for _, test := range []struct {
		Name           string
		Grammar        string
		ExpectedOutput string
	}{
		{"Optional", "'a'?", `Repetition(Literal("a"), ?)`},
		{"ZeroOrMore", "'a'*", `Repetition(Literal("a"), *)`},
		{"OneOrMore", "'a'+", `Repetition(Literal("a"), +)`},
		{"Stacked", "'a'+?", `Repetition(Repetition(Literal("a"), +), ?)`},
		{"At least", "'a'^2", `Sequence(Literal("a"), Literal("a"), Repetition(Literal("a"), *))`},
		{"At least zero", "'a'^0", `Repetition(Literal("a"), *)`},
		{"At most", "'a'^-2", `Repetition(Sequence(Literal("a"), Repetition(Literal("a"), ?)), ?)`},
		{"At most zero", "'a'^-0", "Empty"},
		{
			"Repeated captures keep one number",
			"{ 'a' }^2 {}",
			`Sequence(Sequence(Capture(1, simple, Literal("a")), Capture(1, simple, Literal("a")), ` +
				`Repetition(Capture(1, simple, Literal("a")), *)), Capture(2, position, Empty))`,
		},
		{
			"Bounded captures keep one number",
			"{ 'a' }^-2 { 'b' }",
			`Sequence(Repetition(Sequence(Capture(1, simple, Literal("a")), ` +
				`Repetition(Capture(1, simple, Literal("a")), ?)), ?), Capture(2, simple, Literal("b")))`,
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			output, err := ParseGrammar(test.Grammar)
			require.NoError(t, err)
			assert.Equal(t, test.ExpectedOutput, output.String())
		})
	}
}

func TestParsePrimary(t *testing.T) {
	for _, test := range []struct {
		Name           string
		Grammar        string
		ExpectedOutput string
	}{
		{"Class", "[a-z_]", "Class(a-z, _)"},
		{"Negated class", "[^0-9]", "Class(^0-9)"},
		{"Class with escapes", `[\]\-a-z]`, `Class(\], \-, a-z)`},
		{"Class with trailing dash", "[a-]", `Class(a, \-)`},
		{"Empty class", "[]", "Class()"},
		{"Any", ".", "Any"},
		{"Capture", "{ 'a' }", `Capture(1, simple, Literal("a"))`},
		{"Named capture", "{:name: [a-z]+ :}", "Capture(1, name, group, Repetition(Class(a-z), +))"},
		{"Position capture", "{}", "Capture(1, position, Empty)"},
		{
			"Captures are numbered in order",
			"{ { 'a' } 'b' } {:n: . :} {}",
			`Sequence(Capture(1, simple, Sequence(Capture(2, simple, Literal("a")), Literal("b"))), ` +
				`Capture(3, n, group, Any), Capture(4, position, Empty))`,
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			output, err := ParseGrammar(test.Grammar)
			require.NoError(t, err)
			assert.Equal(t, test.ExpectedOutput, output.String())
		})
	}
}

func TestParseTextRoundTrip(t *testing.T) {
	for _, grammar := range []string{
		"A <- 'a' B / !C &'d'\nB <- [a-z_0-9]+ 'x'i\nC <- ('a' / 'b')* .",
		`S <- { 'it\'s' } {:rest: [\]\-^]? :} {}`,
		"'a' ('b' 'c')? !('d' / 'e')",
	} {
		t.Run(grammar, func(t *testing.T) {
			first, err := ParseGrammar(grammar)
			require.NoError(t, err)
			second, err := ParseGrammar(first.Text())
			require.NoError(t, err)
			assert.Equal(t, first.String(), second.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Run("unterminated literal", func(t *testing.T) {
		_, err := ParseGrammar("A <- 'a")
		require.Error(t, err)

		var perr ParsingError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "Literal", perr.Production)
		assert.Equal(t, NewRange(5, 7), perr.Range)
		assert.Equal(t, "Literal: Unterminated literal @ 1:6..8", err.Error())
	})

	t.Run("lines and columns", func(t *testing.T) {
		_, err := ParseGrammar("A <- 'a'\nB <- 'b")
		var perr ParsingError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, NewRange(14, 16), perr.Range)
		assert.Equal(t, Span{
			Start: Location{Line: 2, Column: 6, Cursor: 14},
			End:   Location{Line: 2, Column: 8, Cursor: 16},
		}, perr.Span)
		assert.Equal(t, "Literal: Unterminated literal @ 2:6..8", err.Error())
	})

	for _, grammar := range []string{
		"A <- [a-z",
		"A <- 'a' )",
		"A <- ('a'",
		`'\q'`,
		"{:name 'a' :}",
		"<- 'a'",
	} {
		t.Run(grammar, func(t *testing.T) {
			_, err := ParseGrammar(grammar)
			require.Error(t, err)

			var perr ParsingError
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestParseRanges(t *testing.T) {
	node, err := ParseGrammar("A <- 'a'\nBee <- A")
	require.NoError(t, err)

	g := node.(*GrammarNode)
	assert.Equal(t, NewRange(0, 8), g.Definitions[0].Range())
	assert.Equal(t, NewRange(9, 17), g.Definitions[1].Range())

	id := g.Definitions[1].Expr.(*IdentifierNode)
	assert.Equal(t, NewRange(16, 17), id.Range())
}
