package pegvm

import (
	"fmt"
	"strings"
)

// AstNode is the interface implemented by every parsing expression.
// Nodes are immutable once built; transformations that need a
// modified copy go through `Clone`.
type AstNode interface {
	// Accept dispatches the node to the matching method of the
	// visitor `v`
	Accept(v AstNodeVisitor) error

	// Text renders the node back into the grammar syntax accepted
	// by `ParseGrammar`
	Text() string

	// String returns a debugging representation of the node
	String() string

	// Clone returns a deep copy of the node
	Clone() AstNode
}

// Node Type: Empty

type EmptyNode struct{}

func NewEmptyNode() *EmptyNode { return &EmptyNode{} }

func (n *EmptyNode) Accept(v AstNodeVisitor) error { return v.VisitEmptyNode(n) }
func (n *EmptyNode) Text() string                  { return "''" }
func (n *EmptyNode) String() string                { return "Empty" }
func (n *EmptyNode) Clone() AstNode                { return &EmptyNode{} }

// Node Type: Literal

type LiteralNode struct {
	Value           string
	CaseInsensitive bool
}

func NewLiteralNode(v string) *LiteralNode {
	return &LiteralNode{Value: v}
}

func NewLiteralNodeNoCase(v string) *LiteralNode {
	return &LiteralNode{Value: v, CaseInsensitive: true}
}

func (n *LiteralNode) Accept(v AstNodeVisitor) error { return v.VisitLiteralNode(n) }
func (n *LiteralNode) Clone() AstNode                { c := *n; return &c }

func (n *LiteralNode) Text() string {
	s := "'" + escapeLiteral(n.Value, '\'') + "'"
	if n.CaseInsensitive {
		s += "i"
	}
	return s
}

func (n *LiteralNode) String() string {
	if n.CaseInsensitive {
		return fmt.Sprintf("Literal(%q, nocase)", n.Value)
	}
	return fmt.Sprintf("Literal(%q)", n.Value)
}

// Node Type: Any

type AnyNode struct{}

func NewAnyNode() *AnyNode { return &AnyNode{} }

func (n *AnyNode) Accept(v AstNodeVisitor) error { return v.VisitAnyNode(n) }
func (n *AnyNode) Text() string                  { return "." }
func (n *AnyNode) String() string                { return "Any" }
func (n *AnyNode) Clone() AstNode                { return &AnyNode{} }

// CharRange is an inclusive range of code points
type CharRange struct{ Lo, Hi rune }

func (r CharRange) String() string {
	if r.Lo == r.Hi {
		return escapeLiteral(string(r.Lo), ']')
	}
	return escapeLiteral(string(r.Lo), ']') + "-" + escapeLiteral(string(r.Hi), ']')
}

// Node Type: Class

type ClassNode struct {
	Ranges  []CharRange
	Negated bool
}

func NewClassNode(ranges []CharRange, negated bool) *ClassNode {
	return &ClassNode{Ranges: ranges, Negated: negated}
}

func (n *ClassNode) Accept(v AstNodeVisitor) error { return v.VisitClassNode(n) }

func (n *ClassNode) Clone() AstNode {
	ranges := make([]CharRange, len(n.Ranges))
	copy(ranges, n.Ranges)
	return &ClassNode{Ranges: ranges, Negated: n.Negated}
}

func (n *ClassNode) Text() string {
	var s strings.Builder
	s.WriteString("[")
	if n.Negated {
		s.WriteString("^")
	}
	for _, r := range n.Ranges {
		s.WriteString(r.String())
	}
	s.WriteString("]")
	return s.String()
}

func (n *ClassNode) String() string {
	items := make([]string, len(n.Ranges))
	for i, r := range n.Ranges {
		items[i] = r.String()
	}
	neg := ""
	if n.Negated {
		neg = "^"
	}
	return fmt.Sprintf("Class(%s%s)", neg, strings.Join(items, ", "))
}

// Node Type: Sequence

type SequenceNode struct {
	Items []AstNode
}

func NewSequenceNode(items ...AstNode) *SequenceNode {
	return &SequenceNode{Items: items}
}

func (n *SequenceNode) Accept(v AstNodeVisitor) error { return v.VisitSequenceNode(n) }
func (n *SequenceNode) Clone() AstNode                { return &SequenceNode{Items: cloneNodes(n.Items)} }

func (n *SequenceNode) Text() string {
	if len(n.Items) == 0 {
		return "''"
	}
	parts := make([]string, len(n.Items))
	for i, item := range n.Items {
		if _, ok := item.(*ChoiceNode); ok {
			parts[i] = "(" + item.Text() + ")"
			continue
		}
		parts[i] = item.Text()
	}
	return strings.Join(parts, " ")
}

func (n *SequenceNode) String() string {
	return fmt.Sprintf("Sequence(%s)", nodesString(n.Items))
}

// Node Type: Choice

type ChoiceNode struct {
	Items []AstNode
}

func NewChoiceNode(items ...AstNode) *ChoiceNode {
	return &ChoiceNode{Items: items}
}

func (n *ChoiceNode) Accept(v AstNodeVisitor) error { return v.VisitChoiceNode(n) }
func (n *ChoiceNode) Clone() AstNode                { return &ChoiceNode{Items: cloneNodes(n.Items)} }

func (n *ChoiceNode) Text() string {
	parts := make([]string, len(n.Items))
	for i, item := range n.Items {
		parts[i] = item.Text()
	}
	return strings.Join(parts, " / ")
}

func (n *ChoiceNode) String() string {
	return fmt.Sprintf("Choice(%s)", nodesString(n.Items))
}

// Repeat tells how many times the expression of a `RepetitionNode`
// may match
type Repeat int

const (
	RepeatZeroOrOne Repeat = iota
	RepeatZeroOrMore
	RepeatOneOrMore
)

func (r Repeat) String() string {
	switch r {
	case RepeatZeroOrOne:
		return "?"
	case RepeatZeroOrMore:
		return "*"
	case RepeatOneOrMore:
		return "+"
	default:
		return fmt.Sprintf("Repeat(%d)", int(r))
	}
}

// Node Type: Repetition

type RepetitionNode struct {
	Expr   AstNode
	Repeat Repeat
}

func NewRepetitionNode(expr AstNode, r Repeat) *RepetitionNode {
	return &RepetitionNode{Expr: expr, Repeat: r}
}

func NewOptionalNode(expr AstNode) *RepetitionNode   { return NewRepetitionNode(expr, RepeatZeroOrOne) }
func NewZeroOrMoreNode(expr AstNode) *RepetitionNode { return NewRepetitionNode(expr, RepeatZeroOrMore) }
func NewOneOrMoreNode(expr AstNode) *RepetitionNode  { return NewRepetitionNode(expr, RepeatOneOrMore) }

func (n *RepetitionNode) Accept(v AstNodeVisitor) error { return v.VisitRepetitionNode(n) }
func (n *RepetitionNode) Text() string                  { return wrapText(n.Expr) + n.Repeat.String() }
func (n *RepetitionNode) String() string                { return fmt.Sprintf("Repetition(%s, %s)", n.Expr, n.Repeat) }

func (n *RepetitionNode) Clone() AstNode {
	return &RepetitionNode{Expr: n.Expr.Clone(), Repeat: n.Repeat}
}

// RepeatAtLeast builds `expr^n`: `n` copies of `expr` followed by
// `expr*`.
func RepeatAtLeast(expr AstNode, n int) AstNode {
	items := make([]AstNode, 0, n+1)
	for i := 0; i < n; i++ {
		items = append(items, expr.Clone())
	}
	items = append(items, NewZeroOrMoreNode(expr.Clone()))
	if len(items) == 1 {
		return items[0]
	}
	return NewSequenceNode(items...)
}

// RepeatAtMost builds `expr^-n`: up to `n` matches of `expr`, as the
// nested optionals `(expr (expr ...)?)?`.
func RepeatAtMost(expr AstNode, n int) AstNode {
	if n <= 0 {
		return NewEmptyNode()
	}
	var accum AstNode = NewOptionalNode(expr.Clone())
	for i := 1; i < n; i++ {
		accum = NewOptionalNode(NewSequenceNode(expr.Clone(), accum))
	}
	return accum
}

// Node Type: And

type AndNode struct {
	Expr AstNode
}

func NewAndNode(expr AstNode) *AndNode { return &AndNode{Expr: expr} }

func (n *AndNode) Accept(v AstNodeVisitor) error { return v.VisitAndNode(n) }
func (n *AndNode) Text() string                  { return "&" + wrapText(n.Expr) }
func (n *AndNode) String() string                { return fmt.Sprintf("And(%s)", n.Expr) }
func (n *AndNode) Clone() AstNode                { return &AndNode{Expr: n.Expr.Clone()} }

// Node Type: Not

type NotNode struct {
	Expr AstNode
}

func NewNotNode(expr AstNode) *NotNode { return &NotNode{Expr: expr} }

func (n *NotNode) Accept(v AstNodeVisitor) error { return v.VisitNotNode(n) }
func (n *NotNode) Text() string                  { return "!" + wrapText(n.Expr) }
func (n *NotNode) String() string                { return fmt.Sprintf("Not(%s)", n.Expr) }
func (n *NotNode) Clone() AstNode                { return &NotNode{Expr: n.Expr.Clone()} }

// Node Type: Capture

// CaptureNode records the span matched by `Expr`.  `Index` is the
// number the front end assigned to the capture, and `Name` is only
// set for named captures.
type CaptureNode struct {
	Index int
	Name  string
	Kind  CaptureKind
	Expr  AstNode

	// origin is the node this one was cloned from, so copies made
	// by `^n` share the capture number of what was written
	origin *CaptureNode
}

func NewCaptureNode(index int, name string, expr AstNode) *CaptureNode {
	kind := CaptureSimple
	if name != "" {
		kind = CaptureGroup
	}
	return &CaptureNode{Index: index, Name: name, Kind: kind, Expr: expr}
}

func NewPositionCaptureNode(index int) *CaptureNode {
	return &CaptureNode{Index: index, Kind: CapturePosition, Expr: NewEmptyNode()}
}

func (n *CaptureNode) Accept(v AstNodeVisitor) error { return v.VisitCaptureNode(n) }

func (n *CaptureNode) Clone() AstNode {
	c := *n
	c.Expr = n.Expr.Clone()
	if c.origin == nil {
		c.origin = n
	}
	return &c
}

func (n *CaptureNode) Text() string {
	switch {
	case n.Kind == CapturePosition:
		return "{}"
	case n.Name != "":
		return fmt.Sprintf("{:%s: %s :}", n.Name, n.Expr.Text())
	default:
		return fmt.Sprintf("{ %s }", n.Expr.Text())
	}
}

func (n *CaptureNode) String() string {
	if n.Name == "" {
		return fmt.Sprintf("Capture(%d, %s, %s)", n.Index, n.Kind, n.Expr)
	}
	return fmt.Sprintf("Capture(%d, %s, %s, %s)", n.Index, n.Name, n.Kind, n.Expr)
}

// Node Type: Identifier

type IdentifierNode struct {
	Name string

	// rg is where the identifier was found within the grammar
	// text.  Nodes built by hand have a zero range.
	rg Range
}

func NewIdentifierNode(name string) *IdentifierNode {
	return &IdentifierNode{Name: name}
}

func (n *IdentifierNode) Accept(v AstNodeVisitor) error { return v.VisitIdentifierNode(n) }
func (n *IdentifierNode) Text() string                  { return n.Name }
func (n *IdentifierNode) String() string                { return fmt.Sprintf("Identifier(%s)", n.Name) }
func (n *IdentifierNode) Clone() AstNode                { c := *n; return &c }
func (n *IdentifierNode) Range() Range                  { return n.rg }

// Node Type: Definition

type DefinitionNode struct {
	Name string
	Expr AstNode
	rg   Range
}

func NewDefinitionNode(name string, expr AstNode) *DefinitionNode {
	return &DefinitionNode{Name: name, Expr: expr}
}

func (n *DefinitionNode) Accept(v AstNodeVisitor) error { return v.VisitDefinitionNode(n) }
func (n *DefinitionNode) Text() string                  { return fmt.Sprintf("%s <- %s", n.Name, n.Expr.Text()) }
func (n *DefinitionNode) String() string                { return fmt.Sprintf("Definition(%s, %s)", n.Name, n.Expr) }
func (n *DefinitionNode) Range() Range                  { return n.rg }

func (n *DefinitionNode) Clone() AstNode {
	return &DefinitionNode{Name: n.Name, Expr: n.Expr.Clone(), rg: n.rg}
}

// Node Type: Grammar

// GrammarNode is a set of named rules.  The first definition is the
// start rule.
type GrammarNode struct {
	Definitions []*DefinitionNode
}

func NewGrammarNode(defs ...*DefinitionNode) *GrammarNode {
	return &GrammarNode{Definitions: defs}
}

func (n *GrammarNode) Accept(v AstNodeVisitor) error { return v.VisitGrammarNode(n) }

func (n *GrammarNode) Clone() AstNode {
	defs := make([]*DefinitionNode, len(n.Definitions))
	for i, def := range n.Definitions {
		defs[i] = def.Clone().(*DefinitionNode)
	}
	return &GrammarNode{Definitions: defs}
}

// FirstDefinition returns the start rule, or nil for an empty grammar
func (n *GrammarNode) FirstDefinition() *DefinitionNode {
	if len(n.Definitions) == 0 {
		return nil
	}
	return n.Definitions[0]
}

// DefsByName indexes the definitions by name.  When a name is
// defined twice, the first definition wins.
func (n *GrammarNode) DefsByName() map[string]*DefinitionNode {
	defs := make(map[string]*DefinitionNode, len(n.Definitions))
	for _, def := range n.Definitions {
		if _, ok := defs[def.Name]; !ok {
			defs[def.Name] = def
		}
	}
	return defs
}

func (n *GrammarNode) Text() string {
	lines := make([]string, len(n.Definitions))
	for i, def := range n.Definitions {
		lines[i] = def.Text()
	}
	return strings.Join(lines, "\n")
}

func (n *GrammarNode) String() string {
	items := make([]string, len(n.Definitions))
	for i, def := range n.Definitions {
		items[i] = def.String()
	}
	return fmt.Sprintf("Grammar(%s)", strings.Join(items, ", "))
}

func cloneNodes(nodes []AstNode) []AstNode {
	out := make([]AstNode, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

func nodesString(nodes []AstNode) string {
	items := make([]string, len(nodes))
	for i, n := range nodes {
		items[i] = n.String()
	}
	return strings.Join(items, ", ")
}

// wrapText adds parenthesis around composite expressions so prefix
// and suffix operators bind to the whole of them
func wrapText(n AstNode) string {
	switch n.(type) {
	case *SequenceNode, *ChoiceNode:
		return "(" + n.Text() + ")"
	default:
		return n.Text()
	}
}

var literalEscapes = map[rune]string{
	'\n': `\n`,
	'\r': `\r`,
	'\t': `\t`,
	'\\': `\\`,
}

// escapeLiteral renders `s` so it can be read back by the grammar
// parser within a literal (or class) delimited by `quote`
func escapeLiteral(s string, quote rune) string {
	var out strings.Builder
	for _, r := range s {
		if esc, ok := literalEscapes[r]; ok {
			out.WriteString(esc)
			continue
		}
		if r == quote || (quote == ']' && (r == '-' || r == '^' || r == '[')) {
			out.WriteRune('\\')
		}
		out.WriteRune(r)
	}
	return out.String()
}
