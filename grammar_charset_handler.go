package pegvm

import "unicode"

// AddCharsets returns a copy of `node` where expressions that match
// exactly one character out of a set are turned into a single
// `ClassNode`, so they compile down to one `ISet` instruction:
//
//	'a' / 'b' / [0-9]   ->  [ab0-9]
//	!'"' .              ->  [^"]
//	![a-z] .            ->  [^a-z]
//
// Only adjacent alternatives are merged, so the order of the choice
// is kept.  The input tree is left untouched.
func AddCharsets(node AstNode) AstNode {
	return addCharset(node.Clone())
}

func addCharset(expr AstNode) AstNode {
	switch e := expr.(type) {
	case *GrammarNode:
		for _, def := range e.Definitions {
			def.Expr = addCharset(def.Expr)
		}

	case *DefinitionNode:
		e.Expr = addCharset(e.Expr)

	case *SequenceNode:
		for i, item := range e.Items {
			e.Items[i] = addCharset(item)
		}
		e.Items = complementCharsets(e.Items)
		if len(e.Items) == 1 {
			return e.Items[0]
		}

	case *ChoiceNode:
		for i, item := range e.Items {
			e.Items[i] = addCharset(item)
		}
		e.Items = mergeCharsets(e.Items)
		if len(e.Items) == 1 {
			return e.Items[0]
		}

	case *RepetitionNode:
		e.Expr = addCharset(e.Expr)

	case *AndNode:
		e.Expr = addCharset(e.Expr)

	case *NotNode:
		e.Expr = addCharset(e.Expr)

	case *CaptureNode:
		e.Expr = addCharset(e.Expr)
	}
	return expr
}

// mergeCharsets joins each run of adjacent single character
// alternatives into one class
func mergeCharsets(items []AstNode) []AstNode {
	var (
		out    = make([]AstNode, 0, len(items))
		ranges []CharRange
		run    int
	)
	flush := func(i int) {
		switch run {
		case 0:
		case 1:
			out = append(out, items[i-1])
		default:
			out = append(out, NewClassNode(ranges, false))
		}
		ranges, run = nil, 0
	}
	for i, item := range items {
		rs, ok := charsetRanges(item)
		if !ok {
			flush(i)
			out = append(out, item)
			continue
		}
		ranges = append(ranges, rs...)
		run++
	}
	flush(len(items))
	return out
}

// complementCharsets replaces `!c .` with the complement of `c`
func complementCharsets(items []AstNode) []AstNode {
	out := make([]AstNode, 0, len(items))
	for i := 0; i < len(items); i++ {
		if i+1 < len(items) {
			if cls, ok := complement(items[i], items[i+1]); ok {
				out = append(out, cls)
				i++
				continue
			}
		}
		out = append(out, items[i])
	}
	return out
}

func complement(fst, snd AstNode) (AstNode, bool) {
	not, ok := fst.(*NotNode)
	if !ok {
		return nil, false
	}
	if _, ok := snd.(*AnyNode); !ok {
		return nil, false
	}
	if cls, ok := not.Expr.(*ClassNode); ok && cls.Negated {
		return NewClassNode(cls.Ranges, false), true
	}
	ranges, ok := charsetRanges(not.Expr)
	if !ok {
		return nil, false
	}
	return NewClassNode(ranges, true), true
}

// charsetRanges returns the ranges of an expression that matches
// exactly one character out of a set
func charsetRanges(n AstNode) ([]CharRange, bool) {
	switch e := n.(type) {
	case *ClassNode:
		if e.Negated {
			return nil, false
		}
		return e.Ranges, true
	case *LiteralNode:
		runes := []rune(e.Value)
		if len(runes) != 1 {
			return nil, false
		}
		ranges := []CharRange{{Lo: runes[0], Hi: runes[0]}}
		if e.CaseInsensitive {
			for f := unicode.SimpleFold(runes[0]); f != runes[0]; f = unicode.SimpleFold(f) {
				ranges = append(ranges, CharRange{Lo: f, Hi: f})
			}
		}
		return ranges, true
	}
	return nil, false
}
