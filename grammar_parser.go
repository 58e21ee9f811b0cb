package pegvm

import "strconv"

// ParseGrammar parses the grammar text `text` into an AST.  The text
// is either a list of definitions (`Name <- expression`), giving a
// `GrammarNode` whose first definition is the start rule, or a single
// expression.  Captures are numbered from 1 in the order they
// appear.
func ParseGrammar(text string) (AstNode, error) {
	return NewGrammarParser(text).Parse()
}

type GrammarParser struct {
	Parser
}

func NewGrammarParser(grammar string) *GrammarParser {
	p := &GrammarParser{}
	p.SetInput(grammar)
	return p
}

// Parse kicks off parsing the input string and generates an AST
// describing a grammar
func (p *GrammarParser) Parse() (AstNode, error) {
	node, err := p.ParseGrammar()
	if err != nil {
		return nil, p.farthestError(err)
	}
	numberCaptures(node)
	return node, nil
}

// numberCaptures assigns capture indexes in order of appearance.  The
// traversal is depth first and children are visited in the order
// they were written.  Copies of a capture take the number of the
// capture they were cloned from.
func numberCaptures(node AstNode) {
	var idx int
	seen := map[*CaptureNode]int{}
	Inspect(node, func(n AstNode) bool {
		c, ok := n.(*CaptureNode)
		if !ok {
			return true
		}
		key := c
		if c.origin != nil {
			key = c.origin
		}
		if i, ok := seen[key]; ok {
			c.Index = i
			return true
		}
		idx++
		c.Index = idx
		seen[key] = idx
		return true
	})
}

// GR: Grammar <- Spacing (Definition+ / Expression) EndOfFile
func (p *GrammarParser) ParseGrammar() (AstNode, error) {
	p.ParseSpacing()
	node, err := Choice(p, []ParserFn[AstNode]{
		func(p Backtrackable) (AstNode, error) {
			defs, err := OneOrMore(p, func(p Backtrackable) (*DefinitionNode, error) {
				return p.(*GrammarParser).ParseDefinition()
			})
			if err != nil {
				return nil, err
			}
			return NewGrammarNode(defs...), nil
		},
		func(p Backtrackable) (AstNode, error) {
			return p.(*GrammarParser).ParseExpression()
		},
	})
	if err != nil {
		return nil, err
	}
	p.ParseSpacing()
	if _, err := Not(p, func(p Backtrackable) (rune, error) { return p.Any() }); err != nil {
		return nil, err
	}
	return node, nil
}

// GR: Definition <- Identifier LEFTARROW Expression
func (p *GrammarParser) ParseDefinition() (*DefinitionNode, error) {
	p.ParseSpacing()
	start := p.Cursor()
	identifier, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.ParseLeftArrow(); err != nil {
		return nil, err
	}
	expr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	def := NewDefinitionNode(identifier, expr)
	def.rg = NewRange(start, p.Cursor())
	return def, nil
}

// GR: Expression <- Sequence (SLASH Sequence)*
func (p *GrammarParser) ParseExpression() (AstNode, error) {
	p.ParseSpacing()
	head, err := p.ParseSequence()
	if err != nil {
		return nil, err
	}
	tail, err := ZeroOrMore(p, func(p Backtrackable) (AstNode, error) {
		p.(*GrammarParser).ParseSpacing()
		if _, err := p.ExpectRune('/'); err != nil {
			return nil, err
		}
		p.(*GrammarParser).ParseSpacing()
		return p.(*GrammarParser).ParseSequence()
	})
	if err != nil {
		return nil, err
	}
	if len(tail) == 0 {
		return head, nil
	}
	return NewChoiceNode(append([]AstNode{head}, tail...)...), nil
}

// GR: Sequence <- Prefix*
func (p *GrammarParser) ParseSequence() (AstNode, error) {
	items, err := ZeroOrMore(p, func(p Backtrackable) (AstNode, error) {
		return p.(*GrammarParser).ParsePrefix()
	})
	if err != nil {
		return nil, err
	}
	switch len(items) {
	case 0:
		return NewEmptyNode(), nil
	case 1:
		return items[0], nil
	default:
		return NewSequenceNode(items...), nil
	}
}

// GR: Prefix <- (AND / NOT)? Suffix
func (p *GrammarParser) ParsePrefix() (AstNode, error) {
	p.ParseSpacing()
	prefix, err := Optional(p, func(p Backtrackable) (rune, error) {
		return ChoiceRune(p, map[rune]struct{}{'&': {}, '!': {}})
	})
	if err != nil {
		return nil, err
	}
	expr, err := p.ParseSuffix()
	if err != nil {
		return nil, err
	}
	switch prefix {
	case '&':
		return NewAndNode(expr), nil
	case '!':
		return NewNotNode(expr), nil
	default:
		return expr, nil
	}
}

// GR: Suffix <- Primary (QUESTION / STAR / PLUS / '^' '-'? Number)*
func (p *GrammarParser) ParseSuffix() (AstNode, error) {
	p.ParseSpacing()
	expr, err := p.ParsePrimary()
	if err != nil {
		return nil, err
	}
	suffixes, err := ZeroOrMore(p, func(p Backtrackable) (func(AstNode) AstNode, error) {
		p.(*GrammarParser).ParseSpacing()
		return p.(*GrammarParser).parseSuffixOp()
	})
	if err != nil {
		return nil, err
	}
	for _, fn := range suffixes {
		expr = fn(expr)
	}
	return expr, nil
}

func (p *GrammarParser) parseSuffixOp() (func(AstNode) AstNode, error) {
	return Choice(p, []ParserFn[func(AstNode) AstNode]{
		func(p Backtrackable) (func(AstNode) AstNode, error) {
			if _, err := p.ExpectRune('?'); err != nil {
				return nil, err
			}
			return func(e AstNode) AstNode { return NewOptionalNode(e) }, nil
		},
		func(p Backtrackable) (func(AstNode) AstNode, error) {
			if _, err := p.ExpectRune('*'); err != nil {
				return nil, err
			}
			return func(e AstNode) AstNode { return NewZeroOrMoreNode(e) }, nil
		},
		func(p Backtrackable) (func(AstNode) AstNode, error) {
			if _, err := p.ExpectRune('+'); err != nil {
				return nil, err
			}
			return func(e AstNode) AstNode { return NewOneOrMoreNode(e) }, nil
		},
		func(p Backtrackable) (func(AstNode) AstNode, error) {
			if _, err := p.ExpectRune('^'); err != nil {
				return nil, err
			}
			atMost, err := Optional(p, p.ExpectRuneFn('-'))
			if err != nil {
				return nil, err
			}
			n, err := p.(*GrammarParser).parseNumber()
			if err != nil {
				return nil, err
			}
			if atMost == '-' {
				return func(e AstNode) AstNode { return RepeatAtMost(e, n) }, nil
			}
			return func(e AstNode) AstNode { return RepeatAtLeast(e, n) }, nil
		},
	})
}

func (p *GrammarParser) parseNumber() (int, error) {
	start := p.Cursor()
	digits, err := OneOrMore(p, p.ExpectRangeFn('0', '9'))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(string(digits))
	if err != nil {
		return 0, p.Throw("Number", err.Error(), NewRange(start, p.Cursor()))
	}
	return n, nil
}

// GR: Primary <- Identifier !LEFTARROW
// GR:          / OPEN Expression CLOSE
// GR:          / Literal / Class / DOT / Capture
func (p *GrammarParser) ParsePrimary() (AstNode, error) {
	return Choice(p, []ParserFn[AstNode]{
		func(p Backtrackable) (AstNode, error) { return p.(*GrammarParser).ParseIdentifier() },
		func(p Backtrackable) (AstNode, error) { return p.(*GrammarParser).ParseParenExpression() },
		func(p Backtrackable) (AstNode, error) { return p.(*GrammarParser).ParseLiteral() },
		func(p Backtrackable) (AstNode, error) { return p.(*GrammarParser).ParseClass() },
		func(p Backtrackable) (AstNode, error) { return p.(*GrammarParser).ParseDot() },
		func(p Backtrackable) (AstNode, error) { return p.(*GrammarParser).ParseCapture() },
	})
}

// GR: Identifier <- IdentStart IdentCont*
// GR: IdentStart <- [a-zA-Z_]
// GR: IdentCont  <- IdentStart / [0-9]
func (p *GrammarParser) ParseIdentifier() (AstNode, error) {
	start := p.Cursor()
	value, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	end := p.Cursor()

	if _, err := Not(p, func(p Backtrackable) (AstNode, error) {
		return nil, p.(*GrammarParser).ParseLeftArrow()
	}); err != nil {
		return nil, err
	}

	id := NewIdentifierNode(value)
	id.rg = NewRange(start, end)
	return id, nil
}

func (p *GrammarParser) parseIdentifier() (string, error) {
	head, err := Choice(p, []ParserFn[rune]{
		p.ExpectRangeFn('a', 'z'),
		p.ExpectRangeFn('A', 'Z'),
		p.ExpectRuneFn('_'),
	})
	if err != nil {
		return "", err
	}
	tail, err := ZeroOrMore(p, func(p Backtrackable) (rune, error) {
		return Choice(p, []ParserFn[rune]{
			p.ExpectRangeFn('a', 'z'),
			p.ExpectRangeFn('A', 'Z'),
			p.ExpectRangeFn('0', '9'),
			p.ExpectRuneFn('_'),
		})
	})
	if err != nil {
		return "", err
	}
	return string(append([]rune{head}, tail...)), nil
}

// GR: LEFTARROW <- '<-'
func (p *GrammarParser) ParseLeftArrow() error {
	p.ParseSpacing()
	_, err := p.ExpectLiteral("<-")
	return err
}

func (p *GrammarParser) ParseParenExpression() (AstNode, error) {
	if _, err := p.ExpectRune('('); err != nil {
		return nil, err
	}
	expr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	p.ParseSpacing()
	if _, err := p.ExpectRune(')'); err != nil {
		return nil, err
	}
	return expr, nil
}

// GR: Capture <- '{}'
// GR:          / '{:' Identifier ':' Expression ':}'
// GR:          / '{' Expression '}'
func (p *GrammarParser) ParseCapture() (AstNode, error) {
	return Choice(p, []ParserFn[AstNode]{
		func(p Backtrackable) (AstNode, error) {
			if _, err := p.ExpectLiteral("{}"); err != nil {
				return nil, err
			}
			return NewPositionCaptureNode(0), nil
		},
		func(p Backtrackable) (AstNode, error) {
			gp := p.(*GrammarParser)
			if _, err := p.ExpectLiteral("{:"); err != nil {
				return nil, err
			}
			gp.ParseSpacing()
			name, err := gp.parseIdentifier()
			if err != nil {
				return nil, err
			}
			if _, err := p.ExpectRune(':'); err != nil {
				return nil, err
			}
			expr, err := gp.ParseExpression()
			if err != nil {
				return nil, err
			}
			gp.ParseSpacing()
			if _, err := p.ExpectLiteral(":}"); err != nil {
				return nil, err
			}
			return NewCaptureNode(0, name, expr), nil
		},
		func(p Backtrackable) (AstNode, error) {
			gp := p.(*GrammarParser)
			if _, err := p.ExpectRune('{'); err != nil {
				return nil, err
			}
			expr, err := gp.ParseExpression()
			if err != nil {
				return nil, err
			}
			gp.ParseSpacing()
			if _, err := p.ExpectRune('}'); err != nil {
				return nil, err
			}
			return NewCaptureNode(0, "", expr), nil
		},
	})
}

// GR: Class <- '[' '^'? (!']' Range)* ']'
func (p *GrammarParser) ParseClass() (AstNode, error) {
	if _, err := p.ExpectRune('['); err != nil {
		return nil, err
	}
	negated, err := Optional(p, p.ExpectRuneFn('^'))
	if err != nil {
		return nil, err
	}
	ranges, err := ZeroOrMore(p, func(p Backtrackable) (CharRange, error) {
		if _, err := Not(p, p.ExpectRuneFn(']')); err != nil {
			return CharRange{}, err
		}
		return p.(*GrammarParser).ParseRange()
	})
	if err != nil {
		return nil, err
	}
	if _, err := p.ExpectRune(']'); err != nil {
		return nil, err
	}
	return NewClassNode(ranges, negated == '^'), nil
}

// GR: Range <- Char '-' !']' Char / Char
func (p *GrammarParser) ParseRange() (CharRange, error) {
	return Choice(p, []ParserFn[CharRange]{
		func(p Backtrackable) (CharRange, error) {
			gp := p.(*GrammarParser)
			left, err := gp.parseChar()
			if err != nil {
				return CharRange{}, err
			}
			if _, err := p.ExpectRune('-'); err != nil {
				return CharRange{}, err
			}
			if _, err := Not(p, p.ExpectRuneFn(']')); err != nil {
				return CharRange{}, err
			}
			right, err := gp.parseChar()
			if err != nil {
				return CharRange{}, err
			}
			return CharRange{Lo: left, Hi: right}, nil
		},
		func(p Backtrackable) (CharRange, error) {
			c, err := p.(*GrammarParser).parseChar()
			if err != nil {
				return CharRange{}, err
			}
			return CharRange{Lo: c, Hi: c}, nil
		},
	})
}

// GR: DOT <- '.'
func (p *GrammarParser) ParseDot() (AstNode, error) {
	if _, err := p.ExpectRune('.'); err != nil {
		return nil, err
	}
	return NewAnyNode(), nil
}

// GR: Literal <- (['] (!['] Char)* ['] / ["] (!["] Char)* ["]) 'i'?
func (p *GrammarParser) ParseLiteral() (AstNode, error) {
	value, err := Choice(p, []ParserFn[string]{
		func(p Backtrackable) (string, error) { return p.(*GrammarParser).parseQuoted('\'') },
		func(p Backtrackable) (string, error) { return p.(*GrammarParser).parseQuoted('"') },
	})
	if err != nil {
		return nil, err
	}
	nocase, err := Optional(p, func(p Backtrackable) (rune, error) {
		if _, err := p.ExpectRune('i'); err != nil {
			return 0, err
		}
		// `'a'i` is a flag, `'a' id` is a sequence
		if _, err := Not(p, func(p Backtrackable) (string, error) {
			return p.(*GrammarParser).parseIdentifier()
		}); err != nil {
			return 0, err
		}
		return 'i', nil
	})
	if err != nil {
		return nil, err
	}
	if value == "" {
		return NewEmptyNode(), nil
	}
	if nocase == 'i' {
		return NewLiteralNodeNoCase(value), nil
	}
	return NewLiteralNode(value), nil
}

func (p *GrammarParser) parseQuoted(quote rune) (string, error) {
	start := p.Cursor()
	if _, err := p.ExpectRune(quote); err != nil {
		return "", err
	}
	s, err := ZeroOrMore(p, func(p Backtrackable) (rune, error) {
		if _, err := Not(p, p.ExpectRuneFn(quote)); err != nil {
			return 0, err
		}
		return p.(*GrammarParser).parseChar()
	})
	if err != nil {
		return "", err
	}
	if _, err := p.ExpectRune(quote); err != nil {
		return "", p.Throw("Literal", "Unterminated literal", NewRange(start, p.Cursor()))
	}
	return string(s), nil
}

var charEscapes = map[rune]rune{
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'[':  '[',
	']':  ']',
	'-':  '-',
	'^':  '^',
}

// GR: Char <- '\\' [nrt'"\[\]\\\-^]
// GR:       / '\\u' HexDigit HexDigit HexDigit HexDigit
// GR:       / !'\\' .
func (p *GrammarParser) parseChar() (rune, error) {
	start := p.Cursor()
	if p.Peek() != '\\' {
		return p.Any()
	}
	p.Any()
	c, err := p.Any()
	if err != nil {
		return 0, err
	}
	if r, ok := charEscapes[c]; ok {
		return r, nil
	}
	if c != 'u' {
		return 0, p.NewError("escape", "Unknown escape sequence \\"+string(c), NewRange(start, p.Cursor()))
	}
	var hex []rune
	for i := 0; i < 4; i++ {
		h, err := Choice(p, []ParserFn[rune]{
			p.ExpectRangeFn('0', '9'),
			p.ExpectRangeFn('a', 'f'),
			p.ExpectRangeFn('A', 'F'),
		})
		if err != nil {
			return 0, err
		}
		hex = append(hex, h)
	}
	v, err := strconv.ParseUint(string(hex), 16, 32)
	if err != nil {
		return 0, p.NewError("hex", err.Error(), NewRange(start, p.Cursor()))
	}
	return rune(v), nil
}

// GR: Spacing <- (Space / Comment)*
// GR: Space   <- ' ' / '\t' / '\r' / '\n'
// GR: Comment <- '--' (!'\n' .)*
func (p *GrammarParser) ParseSpacing() {
	ZeroOrMore(p, func(p Backtrackable) (rune, error) {
		return Choice(p, []ParserFn[rune]{
			func(p Backtrackable) (rune, error) {
				return 0, p.(*GrammarParser).ParseComment()
			},
			func(p Backtrackable) (rune, error) {
				return ChoiceRune(p, spacingRunes)
			},
		})
	})
}

var spacingRunes = map[rune]struct{}{
	' ':  {},
	'\t': {},
	'\r': {},
	'\n': {},
}

func (p *GrammarParser) ParseComment() error {
	if _, err := p.ExpectLiteral("--"); err != nil {
		return err
	}
	ZeroOrMore(p, func(p Backtrackable) (rune, error) {
		if _, err := Not(p, p.ExpectRuneFn('\n')); err != nil {
			return 0, err
		}
		return p.Any()
	})
	return nil
}
