package pegvm

import (
	"fmt"
	"sort"
)

// Compile translates the expression `node` into a program.  When
// `node` is a `GrammarNode`, the program starts by calling its first
// definition.  A nil `cfg` means the values from `NewConfig()`.
func Compile(node AstNode, cfg *Config) (*Program, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if node != nil && cfg.GetInt("compiler.optimize") > 0 && cfg.GetBool("compiler.add_charsets") {
		node = AddCharsets(node)
	}
	c := newCompiler(cfg)
	if err := c.compile(node); err != nil {
		return nil, err
	}
	code, err := c.link()
	if err != nil {
		return nil, err
	}
	return newProgram(code, c.identifiers, c.captures, cfg), nil
}

type compiler struct {
	config *Config

	// code is a vector where the compiler writes down the
	// instructions, labels included
	code []Instruction

	// labelID is the last label ID handed out by `newLabel`
	labelID int

	// definitionLabels maps each rule name to the label of its
	// first instruction
	definitionLabels map[string]ILabel

	// ruleByLabel is the inverse of `definitionLabels`, used to
	// fill up `identifiers` once addresses are known
	ruleByLabel map[int]string

	// identifiers is a map from the address of the first
	// instruction in a rule to the rule name
	identifiers map[int]string

	// nullable tells which rules can match without consuming
	// any input
	nullable map[string]bool

	// captures is the capture table.  Capture instructions point
	// into it.
	captures []CaptureInfo

	// rule is the name of the definition being compiled
	rule string
}

func newCompiler(config *Config) *compiler {
	return &compiler{
		config:           config,
		definitionLabels: map[string]ILabel{},
		ruleByLabel:      map[int]string{},
		identifiers:      map[int]string{},
		nullable:         map[string]bool{},
	}
}

func (c *compiler) compile(node AstNode) error {
	switch n := node.(type) {
	case *GrammarNode:
		return n.Accept(c)
	case *DefinitionNode:
		return NewGrammarNode(n).Accept(c)
	case nil:
		return &CompileError{Err: ErrUnsupportedNode}
	}
	if err := node.Accept(c); err != nil {
		return err
	}
	c.emit(IEnd{})
	return nil
}

// newLabel creates a new `ILabel` instruction with an ID that is
// unique within this compilation
func (c *compiler) newLabel() ILabel {
	c.labelID++
	return ILabel{ID: c.labelID}
}

func (c *compiler) emit(i Instruction) {
	c.code = append(c.code, i)
}

func (c *compiler) optimize() int {
	return c.config.GetInt("compiler.optimize")
}

func (c *compiler) VisitGrammarNode(node *GrammarNode) error {
	if len(node.Definitions) == 0 {
		return &CompileError{Err: ErrEmptyGrammar}
	}

	// first pass: every rule gets a label, so calls can be
	// emitted before the definition they target
	for _, def := range node.Definitions {
		if _, ok := c.definitionLabels[def.Name]; ok {
			return &CompileError{Err: ErrDuplicateRule, Rule: def.Name}
		}
		l := c.newLabel()
		c.definitionLabels[def.Name] = l
		c.ruleByLabel[l.ID] = def.Name
	}

	c.nullable = nullableRules(node)

	if c.config.GetBool("compiler.left_recursion_check") {
		if lr := getLeftRecursiveFromGrammar(node, c.nullable); len(lr) > 0 {
			names := make([]string, 0, len(lr))
			for name := range lr {
				names = append(names, name)
			}
			sort.Strings(names)
			return &CompileError{Err: ErrLeftRecursion, Rule: names[0]}
		}
	}

	end := c.newLabel()
	c.emit(ICall{Label: c.definitionLabels[node.FirstDefinition().Name]})
	c.emit(IJump{Label: end})

	if err := WalkGrammarNode(c, node); err != nil {
		return err
	}

	c.emit(end)
	c.emit(IEnd{})
	return nil
}

func (c *compiler) VisitDefinitionNode(node *DefinitionNode) error {
	c.rule = node.Name
	defer func() { c.rule = "" }()

	c.emit(c.definitionLabels[node.Name])
	if err := node.Expr.Accept(c); err != nil {
		return err
	}
	c.emit(IReturn{})
	return nil
}

func (c *compiler) VisitCaptureNode(node *CaptureNode) error {
	slot := len(c.captures)
	c.captures = append(c.captures, CaptureInfo{Index: node.Index, Name: node.Name, Kind: node.Kind})

	if node.Kind == CapturePosition {
		c.emit(IFullCapture{Kind: node.Kind, Size: 0, Index: slot})
		return node.Expr.Accept(c)
	}

	if c.config.GetBool("compiler.full_captures") {
		if sz, ok := fixedSize(node.Expr); ok {
			if err := node.Expr.Accept(c); err != nil {
				return err
			}
			c.emit(IFullCapture{Kind: node.Kind, Size: sz, Index: slot})
			return nil
		}
	}

	c.emit(IOpenCapture{Kind: node.Kind, Index: slot})
	if err := node.Expr.Accept(c); err != nil {
		return err
	}
	c.emit(ICloseCapture{})
	return nil
}

func (c *compiler) VisitSequenceNode(node *SequenceNode) error {
	return WalkSequenceNode(c, node)
}

func (c *compiler) VisitChoiceNode(node *ChoiceNode) error {
	switch len(node.Items) {
	case 0:
		c.emit(IFail{})
		return nil
	case 1:
		return node.Items[0].Accept(c)
	}

	end := c.newLabel()
	last := len(node.Items) - 1

	for _, item := range node.Items[:last] {
		next := c.newLabel()
		c.emit(IChoice{Label: next})
		if err := item.Accept(c); err != nil {
			return err
		}
		c.emit(ICommit{Label: end})
		c.emit(next)
	}

	if err := node.Items[last].Accept(c); err != nil {
		return err
	}

	c.emit(end)
	return nil
}

func (c *compiler) VisitRepetitionNode(node *RepetitionNode) error {
	switch node.Repeat {
	case RepeatZeroOrOne:
		return c.compileOptional(node.Expr)
	case RepeatZeroOrMore:
		return c.compileZeroOrMore(node.Expr)
	case RepeatOneOrMore:
		if err := node.Expr.Accept(c); err != nil {
			return err
		}
		return c.compileZeroOrMore(node.Expr)
	default:
		return &CompileError{Err: ErrUnsupportedNode, Rule: c.rule, Node: node}
	}
}

func (c *compiler) compileOptional(expr AstNode) error {
	lb := c.newLabel()

	c.emit(IChoice{Label: lb})
	if err := expr.Accept(c); err != nil {
		return err
	}
	c.emit(ICommit{Label: lb})
	c.emit(lb)
	return nil
}

func (c *compiler) compileZeroOrMore(expr AstNode) error {
	var (
		nullable = isNullable(expr, c.nullable)
		l0       = c.newLabel()
		l1       = c.newLabel()
		l2       = c.newLabel()
	)

	simple := c.optimize() == 0 && !nullable
	if simple {
		c.emit(l0)
	}

	c.emit(IChoice{Label: l2})
	c.emit(l1)

	if err := expr.Accept(c); err != nil {
		return err
	}

	if simple {
		c.emit(ICommit{Label: l0})
	} else {
		c.emit(IPartialCommit{Label: l1, Progress: nullable})
	}

	c.emit(l2)
	return nil
}

func (c *compiler) VisitAndNode(node *AndNode) error {
	if c.optimize() == 0 {
		return c.VisitNotNode(NewNotNode(NewNotNode(node.Expr)))
	}

	l1 := c.newLabel()
	l2 := c.newLabel()

	c.emit(IChoice{Label: l1})
	if err := node.Expr.Accept(c); err != nil {
		return err
	}
	c.emit(IBackCommit{Label: l2})
	c.emit(l1)
	c.emit(IFail{})
	c.emit(l2)
	return nil
}

func (c *compiler) VisitNotNode(node *NotNode) error {
	l1 := c.newLabel()

	c.emit(IChoice{Label: l1})
	if err := node.Expr.Accept(c); err != nil {
		return err
	}

	switch c.optimize() {
	case 0:
		l2 := c.newLabel()
		c.emit(ICommit{Label: l2})
		c.emit(l2)
		c.emit(IFail{})
	default:
		c.emit(IFailTwice{})
	}

	c.emit(l1)
	return nil
}

func (c *compiler) VisitIdentifierNode(node *IdentifierNode) error {
	label, ok := c.definitionLabels[node.Name]
	if !ok {
		return &CompileError{Err: ErrUnresolvedRule, Rule: c.rule, Node: node}
	}
	c.emit(ICall{Label: label})
	return nil
}

func (c *compiler) VisitLiteralNode(node *LiteralNode) error {
	for _, r := range node.Value {
		c.emit(IChar{Char: r, CaseInsensitive: node.CaseInsensitive})
	}
	return nil
}

func (c *compiler) VisitClassNode(node *ClassNode) error {
	c.emit(ISet{Set: newCharsetFromClass(node)})
	return nil
}

func (c *compiler) VisitAnyNode(node *AnyNode) error {
	c.emit(IAny{})
	return nil
}

func (c *compiler) VisitEmptyNode(node *EmptyNode) error {
	return nil
}

// link drops the labels from the code and rewrites every reference
// to a label as an offset relative to the referencing instruction
func (c *compiler) link() ([]Instruction, error) {
	var (
		addrs = make(map[int]int, c.labelID)
		n     int
	)
	for _, i := range c.code {
		if l, ok := i.(ILabel); ok {
			addrs[l.ID] = n
			continue
		}
		n++
	}

	for id, name := range c.ruleByLabel {
		c.identifiers[addrs[id]] = name
	}

	code := make([]Instruction, 0, n)
	for _, i := range c.code {
		switch ii := i.(type) {
		case ILabel:
			continue
		case jumper:
			target, ok := addrs[ii.label().ID]
			if !ok {
				return nil, fmt.Errorf("label %s was referenced but never emitted", ii.label())
			}
			code = append(code, ii.resolve(target-len(code)))
		default:
			code = append(code, ii)
		}
	}
	return code, nil
}
