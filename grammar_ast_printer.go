package pegvm

import (
	"fmt"
	"strings"

	"github.com/clarete/pegvm/ascii"
)

type AstFormatToken int

const (
	AstFormatToken_None AstFormatToken = iota
	AstFormatToken_Span
	AstFormatToken_Literal
	AstFormatToken_Operator
	AstFormatToken_Operand
)

// astPrinterTheme is a map from the tokens available for pretty
// printing a grammar to an ASCII color
var astPrinterTheme = map[AstFormatToken]string{
	AstFormatToken_None:     ascii.Reset,
	AstFormatToken_Span:     ascii.DefaultTheme.Span,
	AstFormatToken_Literal:  ascii.DefaultTheme.Literal,
	AstFormatToken_Operator: ascii.DefaultTheme.Operator,
	AstFormatToken_Operand:  ascii.DefaultTheme.Operand,
}

// PrettyAst renders `n` as a tree with one node per line.  Nodes that
// came out of the grammar parser with a position show it too.
func PrettyAst(n AstNode) string {
	return ppAstNode(n, func(input string, _ AstFormatToken) string {
		return input
	})
}

// HighlightPrettyAst is like `PrettyAst` with terminal colors
func HighlightPrettyAst(n AstNode) string {
	return ppAstNode(n, func(input string, token AstFormatToken) string {
		return astPrinterTheme[token] + input + astPrinterTheme[AstFormatToken_None]
	})
}

func ppAstNode(n AstNode, format FormatFunc[AstFormatToken]) string {
	gp := &grammarPrinter{newTreePrinter(format)}
	n.Accept(gp)
	gp.write("\n")
	return gp.output.String()
}

type grammarPrinter struct {
	*treePrinter[AstFormatToken]
}

func (gp *grammarPrinter) VisitGrammarNode(n *GrammarNode) error {
	gp.writeOperator("Grammar")
	if len(n.Definitions) > 0 {
		gp.write("\n")
	}
	gp.branches(len(n.Definitions), func(i int) { n.Definitions[i].Accept(gp) })
	return nil
}

func (gp *grammarPrinter) VisitDefinitionNode(n *DefinitionNode) error {
	gp.writeOperatorWithOneRand("Definition", n.Name)
	gp.writeSpanl(n)
	gp.child(n.Expr)
	return nil
}

func (gp *grammarPrinter) VisitCaptureNode(n *CaptureNode) error {
	rand := fmt.Sprintf("#%d", n.Index)
	if n.Name != "" {
		rand += " " + n.Name
	}
	if n.Kind == CapturePosition {
		gp.writeOperatorWithOneRand("Position", rand)
		return nil
	}
	gp.writeOperatorWithOneRand("Capture", rand)
	gp.write("\n")
	gp.child(n.Expr)
	return nil
}

func (gp *grammarPrinter) VisitSequenceNode(n *SequenceNode) error {
	gp.writeOperator("Sequence")
	gp.children(n.Items)
	return nil
}

func (gp *grammarPrinter) VisitChoiceNode(n *ChoiceNode) error {
	gp.writeOperator("Choice")
	gp.children(n.Items)
	return nil
}

func (gp *grammarPrinter) VisitRepetitionNode(n *RepetitionNode) error {
	gp.writeOperatorWithOneRand("Repetition", n.Repeat.String())
	gp.write("\n")
	gp.child(n.Expr)
	return nil
}

func (gp *grammarPrinter) VisitAndNode(n *AndNode) error {
	gp.writeOperator("And")
	gp.write("\n")
	gp.child(n.Expr)
	return nil
}

func (gp *grammarPrinter) VisitNotNode(n *NotNode) error {
	gp.writeOperator("Not")
	gp.write("\n")
	gp.child(n.Expr)
	return nil
}

func (gp *grammarPrinter) VisitLiteralNode(n *LiteralNode) error {
	gp.writeOperator("Literal")
	gp.writeOperator("[")
	gp.writeToken(n.Text(), AstFormatToken_Literal)
	gp.writeOperator("]")
	return nil
}

func (gp *grammarPrinter) VisitClassNode(n *ClassNode) error {
	text := strings.TrimSuffix(strings.TrimPrefix(n.Text(), "["), "]")
	gp.writeOperator("Class")
	gp.writeOperator("[")
	gp.writeToken(text, AstFormatToken_Literal)
	gp.writeOperator("]")
	return nil
}

func (gp *grammarPrinter) VisitAnyNode(*AnyNode) error {
	gp.writeOperator("Any")
	return nil
}

func (gp *grammarPrinter) VisitEmptyNode(*EmptyNode) error {
	gp.writeOperator("Empty")
	return nil
}

func (gp *grammarPrinter) VisitIdentifierNode(n *IdentifierNode) error {
	gp.writeOperatorWithOneRand("Identifier", n.Name)
	gp.writeSpan(n)
	return nil
}

func (gp *grammarPrinter) child(n AstNode) {
	gp.branches(1, func(int) { n.Accept(gp) })
}

func (gp *grammarPrinter) children(items []AstNode) {
	if len(items) > 0 {
		gp.write("\n")
	}
	gp.branches(len(items), func(i int) { items[i].Accept(gp) })
}

func (gp *grammarPrinter) writeOperator(op string) {
	gp.writeToken(op, AstFormatToken_Operator)
}

func (gp *grammarPrinter) writeOperatorWithOneRand(rator, rand string) {
	gp.writeToken(rator, AstFormatToken_Operator)
	gp.writeToken("[", AstFormatToken_Operator)
	gp.writeToken(rand, AstFormatToken_Operand)
	gp.writeToken("]", AstFormatToken_Operator)
}

type ranged interface{ Range() Range }

// writeSpan shows where the node was found within the grammar text.
// Nodes built by hand have no position and nothing is written.
func (gp *grammarPrinter) writeSpan(n ranged) {
	rg := n.Range()
	if rg == (Range{}) {
		return
	}
	gp.writeToken(fmt.Sprintf(" (%s)", rg), AstFormatToken_Span)
}

func (gp *grammarPrinter) writeSpanl(n ranged) {
	gp.writeSpan(n)
	gp.write("\n")
}
