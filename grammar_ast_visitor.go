package pegvm

type AstNodeVisitor interface {
	VisitGrammarNode(*GrammarNode) error
	VisitDefinitionNode(*DefinitionNode) error
	VisitCaptureNode(*CaptureNode) error
	VisitSequenceNode(*SequenceNode) error
	VisitChoiceNode(*ChoiceNode) error
	VisitRepetitionNode(*RepetitionNode) error
	VisitAndNode(*AndNode) error
	VisitNotNode(*NotNode) error
	VisitLiteralNode(*LiteralNode) error
	VisitClassNode(*ClassNode) error
	VisitAnyNode(*AnyNode) error
	VisitEmptyNode(*EmptyNode) error
	VisitIdentifierNode(*IdentifierNode) error
}

func WalkGrammarNode(g AstNodeVisitor, n *GrammarNode) error {
	for _, def := range n.Definitions {
		if err := def.Accept(g); err != nil {
			return err
		}
	}
	return nil
}

func WalkSequenceNode(g AstNodeVisitor, n *SequenceNode) error {
	for _, item := range n.Items {
		if err := item.Accept(g); err != nil {
			return err
		}
	}
	return nil
}

// Inspect traverses an AST in depth-first order. It calls the
// function f for each node in the tree. If f returns true, Inspect
// continues to traverse the node's children; if it returns false,
// Inspect skips the children of the current node.
//
// Identifiers are not followed into the definitions they reference,
// so the traversal always terminates.
//
// Example usage:
//
//	Inspect(node, func(n AstNode) bool {
//	    if def, ok := n.(*DefinitionNode); ok {
//	        fmt.Println("Found definition:", def.Name)
//	    }
//	    return true // continue traversing
//	})
func Inspect(node AstNode, f func(AstNode) bool) {
	if node == nil || !f(node) {
		return
	}
	switch n := node.(type) {
	case *RepetitionNode:
		Inspect(n.Expr, f)

	case *AndNode:
		Inspect(n.Expr, f)

	case *NotNode:
		Inspect(n.Expr, f)

	case *CaptureNode:
		Inspect(n.Expr, f)

	case *DefinitionNode:
		Inspect(n.Expr, f)

	case *SequenceNode:
		for _, item := range n.Items {
			Inspect(item, f)
		}

	case *ChoiceNode:
		for _, item := range n.Items {
			Inspect(item, f)
		}

	case *GrammarNode:
		for _, def := range n.Definitions {
			Inspect(def, f)
		}
	}
}
