package pegvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pegGrammar builds a grammar that recognizes the PEG notation
// itself, without going through the grammar parser
func pegGrammar() *GrammarNode {
	sp := id("Sp")
	return NewGrammarNode(
		def("Top", seq(sp, id("Pattern"), not(dot()))),
		def("Pattern", alt(id("Grammar"), id("SimplePatt"))),
		def("Grammar", plus(seq(
			NewCaptureNode(1, "def", id("Name")), sp, lit("<-"), sp, id("SimplePatt"),
		))),
		def("SimplePatt", seq(id("Alternative"), star(seq(lit("/"), sp, id("Alternative"))))),
		def("Alternative", plus(seq(opt(alt(lit("!"), lit("&"))), sp, id("Suffix")))),
		def("Suffix", seq(id("Primary"), star(seq(alt(lit("*"), lit("+"), lit("?")), sp)))),
		def("Primary", alt(
			seq(lit("("), sp, id("Pattern"), lit(")"), sp),
			seq(lit("."), sp),
			id("Literal"),
			id("Charclass"),
			seq(id("Nonterm"), not(lit("<-"))),
		)),
		def("Literal", seq(lit("'"), star(seq(not(lit("'")), dot())), lit("'"), sp)),
		def("Charclass", seq(
			lit("["),
			star(seq(not(lit("]")), alt(seq(dot(), lit("-"), dot()), dot()))),
			lit("]"),
			sp,
		)),
		def("Nonterm", seq(id("Name"), sp)),
		def("Name", plus(cls('a', 'z', 'A', 'Z'))),
		def("Sp", star(alt(lit(" "), lit("\t"), lit("\n")))),
	)
}

func TestBootstrapGrammar(t *testing.T) {
	built := pegGrammar()
	fromText, err := ParseGrammar(built.Text())
	require.NoError(t, err)

	for name, node := range map[string]AstNode{"built": built, "parsed": fromText} {
		t.Run(name, func(t *testing.T) {
			p, err := Compile(node, nil)
			require.NoError(t, err)

			t.Run("grammar", func(t *testing.T) {
				input := "Expr <- Term ('+' Term)*\nTerm <- [0-9]+ / '(' Expr ')'\n"
				r, err := p.Match(input)
				require.NoError(t, err)
				require.True(t, r.Matched)
				assert.Equal(t, len([]rune(input)), r.End)

				var defs []string
				for _, c := range r.Named("def") {
					defs = append(defs, c.Text([]rune(input)))
				}
				assert.Equal(t, []string{"Expr", "Term"}, defs)
			})

			t.Run("expression", func(t *testing.T) {
				input := "'a'* / !'b' . &[x-z] ('c' 'd')?"
				r, err := p.Match(input)
				require.NoError(t, err)
				require.True(t, r.Matched)
				assert.Equal(t, len(input), r.End)
				assert.Empty(t, r.Named("def"))
			})

			t.Run("invalid", func(t *testing.T) {
				for _, input := range []string{"A <- ('a'", "A <- 'a", "<- 'a'", "A <- [a-z"} {
					r, err := p.Match(input)
					require.NoError(t, err)
					assert.False(t, r.Matched, input)
				}
			})
		})
	}

	t.Run("same code from both sources", func(t *testing.T) {
		a, err := Compile(built, nil)
		require.NoError(t, err)
		b, err := Compile(fromText, nil)
		require.NoError(t, err)

		fa, err := a.Fingerprint()
		require.NoError(t, err)
		fb, err := b.Fingerprint()
		require.NoError(t, err)
		assert.Equal(t, fa, fb)
	})
}
