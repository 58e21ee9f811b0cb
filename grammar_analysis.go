package pegvm

import "sort"

// nullableRules computes which rules can succeed without consuming
// any input.  It's the least fixpoint of `isNullable` over all the
// definitions of the grammar, so mutually recursive rules converge.
func nullableRules(g *GrammarNode) map[string]bool {
	nullable := make(map[string]bool, len(g.Definitions))
	for changed := true; changed; {
		changed = false
		for _, def := range g.Definitions {
			if nullable[def.Name] {
				continue
			}
			if isNullable(def.Expr, nullable) {
				nullable[def.Name] = true
				changed = true
			}
		}
	}
	return nullable
}

// isNullable returns true if the expression can match the empty
// string.  `rules` tells which rules are known to be nullable;
// identifiers missing from it are assumed to consume input.
func isNullable(node AstNode, rules map[string]bool) bool {
	switch n := node.(type) {
	case *EmptyNode:
		return true
	case *LiteralNode:
		return n.Value == ""
	case *AnyNode, *ClassNode:
		return false
	case *SequenceNode:
		// Sequence is nullable if ALL items are nullable
		for _, item := range n.Items {
			if !isNullable(item, rules) {
				return false
			}
		}
		return true
	case *ChoiceNode:
		// Choice is nullable if ANY alternative is nullable
		for _, item := range n.Items {
			if isNullable(item, rules) {
				return true
			}
		}
		return false
	case *RepetitionNode:
		if n.Repeat == RepeatOneOrMore {
			return isNullable(n.Expr, rules)
		}
		return true
	case *AndNode, *NotNode:
		return true
	case *CaptureNode:
		return isNullable(n.Expr, rules)
	case *IdentifierNode:
		return rules[n.Name]
	case *DefinitionNode:
		return isNullable(n.Expr, rules)
	default:
		return false
	}
}

// fixedSize returns how many runes `node` consumes when it matches,
// if that number is the same for every possible match.  Expressions
// that contain captures or call other rules are never considered
// fixed, so a capture around them needs an open/close pair.
func fixedSize(node AstNode) (int, bool) {
	switch n := node.(type) {
	case *EmptyNode:
		return 0, true

	case *LiteralNode:
		return len([]rune(n.Value)), true

	case *AnyNode, *ClassNode:
		return 1, true

	case *SequenceNode:
		var total int
		for _, item := range n.Items {
			is, ok := fixedSize(item)
			if !ok {
				return 0, false
			}
			total += is
		}
		return total, true

	case *ChoiceNode:
		val := -1
		for _, item := range n.Items {
			is, ok := fixedSize(item)
			if !ok || (val >= 0 && val != is) {
				return 0, false
			}
			val = is
		}
		if val < 0 {
			return 0, false
		}
		return val, true

	case *AndNode:
		if hasCaptures(n.Expr) {
			return 0, false
		}
		return 0, !hasCalls(n.Expr)

	case *NotNode:
		if hasCaptures(n.Expr) {
			return 0, false
		}
		return 0, !hasCalls(n.Expr)

	default:
		return 0, false
	}
}

func hasCaptures(node AstNode) bool {
	var found bool
	Inspect(node, func(n AstNode) bool {
		if _, ok := n.(*CaptureNode); ok {
			found = true
		}
		return !found
	})
	return found
}

func hasCalls(node AstNode) bool {
	return len(findIdentifiers(node)) > 0
}

type callGraph map[string]map[string]struct{}

func findIdentifiers(node AstNode) []string {
	var ids []string
	Inspect(node, func(n AstNode) bool {
		if id, ok := n.(*IdentifierNode); ok {
			ids = append(ids, id.Name)
		}
		return true
	})
	return ids
}

// getLeftRecursiveFromGrammar builds a "left-call graph" where an
// edge from A to B means A can call B before consuming any input.
// Any rule in a cycle of this graph is left-recursive and would make
// the VM recurse forever.
func getLeftRecursiveFromGrammar(g *GrammarNode, nullable map[string]bool) map[string]struct{} {
	lcg := make(callGraph, len(g.Definitions))
	for _, d := range g.Definitions {
		if _, ok := lcg[d.Name]; !ok {
			lcg[d.Name] = make(map[string]struct{})
		}
		for _, call := range getLeftCalls(d.Expr, nullable) {
			lcg[d.Name][call] = struct{}{}
		}
	}
	return lcg.getIsRecursive()
}

// getLeftCalls returns all rule names that could be called at the
// position where an expression starts, considering nullable
// prefixes. For example, in "B? A", both B and A are potential
// left-calls because B? can match empty.
func getLeftCalls(node AstNode, nullable map[string]bool) []string {
	var calls []string
	collectLeftCalls(node, nullable, &calls)
	return calls
}

func collectLeftCalls(node AstNode, nullable map[string]bool, calls *[]string) {
	switch n := node.(type) {
	case *SequenceNode:
		// collect calls from each item until we hit a
		// non-nullable item
		for _, item := range n.Items {
			collectLeftCalls(item, nullable, calls)
			if !isNullable(item, nullable) {
				break
			}
		}
	case *ChoiceNode:
		for _, item := range n.Items {
			collectLeftCalls(item, nullable, calls)
		}
	case *IdentifierNode:
		*calls = append(*calls, n.Name)
	case *CaptureNode:
		collectLeftCalls(n.Expr, nullable, calls)
	case *RepetitionNode:
		collectLeftCalls(n.Expr, nullable, calls)
	case *AndNode:
		// predicates don't consume input but still run their
		// expression at the current position
		collectLeftCalls(n.Expr, nullable, calls)
	case *NotNode:
		collectLeftCalls(n.Expr, nullable, calls)
	}
}

// getIsRecursive returns the vertices that take part in at least one
// cycle reachable through a back edge of a depth first traversal.
func (g callGraph) getIsRecursive() map[string]struct{} {
	var (
		stack   = []string{}
		onStack = map[string]bool{}
		visited = map[string]bool{}
		recurse = map[string]struct{}{}
		pos     = map[string]int{}
		dfs     func(string)
	)
	dfs = func(v string) {
		visited[v] = true
		pos[v] = len(stack)
		stack = append(stack, v)
		onStack[v] = true

		// Sort edges for deterministic traversal
		edges := make([]string, 0, len(g[v]))
		for w := range g[v] {
			edges = append(edges, w)
		}
		sort.Strings(edges)

		for _, w := range edges {
			if !visited[w] {
				dfs(w)
				continue
			}
			if onStack[w] {
				// back edge v -> w: mark the cycle path w..v
				for i := pos[w]; i < len(stack); i++ {
					recurse[stack[i]] = struct{}{}
				}
			}
		}
		stack = stack[:len(stack)-1]
		onStack[v] = false
	}

	vertices := make([]string, 0, len(g))
	for v := range g {
		vertices = append(vertices, v)
	}
	sort.Strings(vertices)

	for _, v := range vertices {
		if !visited[v] {
			dfs(v)
		}
	}
	return recurse
}
