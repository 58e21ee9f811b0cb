package pegvm

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// CompileString parses the grammar text `grammar` and compiles it
// with `cfg`
func CompileString(grammar string, cfg *Config) (*Program, error) {
	ast, err := ParseGrammar(grammar)
	if err != nil {
		return nil, err
	}
	return Compile(ast, cfg)
}

// MustCompile is like `CompileString` but panics on errors.  It's
// meant for grammars known at build time.
func MustCompile(grammar string) *Program {
	p, err := CompileString(grammar, nil)
	if err != nil {
		panic("pegvm: can't compile grammar: " + err.Error())
	}
	return p
}

// MatchAll matches every one of `inputs` against `p` concurrently,
// running at most `limit` matches at the same time (no limit when
// `limit` is zero or negative).  Results are in the same order as
// the inputs.  The first error cancels the matches that didn't start
// yet and is returned.
func MatchAll(ctx context.Context, p *Program, inputs []string, limit int) ([]MatchResult, error) {
	results := make([]MatchResult, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := p.Match(input)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
