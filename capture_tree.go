package pegvm

import (
	"fmt"
	"strings"
)

// MatchResult is what the virtual machine reports after running a
// program.  When `Matched` is false, the other fields are zero.
type MatchResult struct {
	Matched bool

	// End is the position right after the last rune consumed by
	// the match
	End int

	// Captures are listed in the order they were opened
	Captures []Capture
}

// CaptureTree is a capture along with the captures nested inside of
// it
type CaptureTree struct {
	Capture  Capture
	Children []*CaptureTree
}

// Tree rebuilds the nesting of the flat capture list and returns the
// top level captures
func (r MatchResult) Tree() []*CaptureTree {
	var (
		roots []*CaptureTree
		nodes = make([]*CaptureTree, len(r.Captures))
	)
	for i, c := range r.Captures {
		nodes[i] = &CaptureTree{Capture: c}
		if c.Parent < 0 || c.Parent >= i {
			roots = append(roots, nodes[i])
			continue
		}
		p := nodes[c.Parent]
		p.Children = append(p.Children, nodes[i])
	}
	return roots
}

// Named returns the captures with the name `name`
func (r MatchResult) Named(name string) []Capture {
	var out []Capture
	for _, c := range r.Captures {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// shift moves every position of the result `n` runes forward
func (r MatchResult) shift(n int) MatchResult {
	if n == 0 {
		return r
	}
	r.End += n
	for i := range r.Captures {
		r.Captures[i].Range = r.Captures[i].Range.Shift(n)
	}
	return r
}

// Pretty renders the tree with one capture per line, indented by
// depth.  When `input` is given, the text of each capture is shown
// too.
func (t *CaptureTree) Pretty(input []rune) string {
	var s strings.Builder
	t.pretty(&s, input, 0)
	return s.String()
}

func (t *CaptureTree) pretty(s *strings.Builder, input []rune, depth int) {
	s.WriteString(strings.Repeat("  ", depth))
	s.WriteString(t.Capture.String())
	if input != nil && t.Capture.Range.End <= len(input) {
		fmt.Fprintf(s, " %q", t.Capture.Text(input))
	}
	s.WriteString("\n")
	for _, child := range t.Children {
		child.pretty(s, input, depth+1)
	}
}
