package pegvm

import (
	"fmt"
	"sort"
	"strings"
)

// Parser keeps the state necessary to build parsing expressions on
// top of the basic parsing expressions available, like Choice,
// ZeroOrMore, OneOrMore, Optional, etc.
type Parser struct {
	ffp    int
	cursor int
	input  []rune

	// lastErr is the backtracking error created at the farthest
	// position.  It's what gets reported when parsing fails.
	lastErr    *backtrackingError
	predStkCnt int

	// pos is built on the first error that needs line and column
	// numbers
	pos *posIndex
}

type Backtrackable interface {
	// SetInput associates input to a concrete parser struct
	SetInput(input string)

	// Peek returns the rune within the input that is under the
	// parser cursor.  It does not change the cursor.
	Peek() rune

	// Any returns the current rune and advances the cursor.  It
	// errors if the cursor is beyond the input length.
	Any() (rune, error)

	// Backtrack resets the parser's cursor
	Backtrack(cursor int)

	Cursor() int

	// NewError creates a new error message
	NewError(expected, msg string, rg Range) error

	// Throw creates an error that can't be handled by backtracking
	Throw(production, msg string, rg Range) error

	// WithinPredicate returns true if the parser is currently
	// executing a predicate expression.  This is used to prevent
	// generating exceptions from within the ~Throw~ operator so
	// it generates backtracking errors instead
	WithinPredicate() bool

	// EnterPredicate is called by the `Not` operator to inform
	// the parser that a predicate evaluation has started.  This
	// function is reentrant.
	EnterPredicate()

	// LeavePredicate is also called by the `Not` operator to
	// inform the parser that a predicate evaluation has ended.
	// This function is reentrant.
	LeavePredicate()

	// ExpectRune returns `r` if it's the same rune that's under
	// the cursor, or errors otherwise.
	ExpectRune(r rune) (rune, error)

	// ExpectRange returns the rune under the cursor if it's
	// between runes `l` and `r`, or errors otherwise.
	ExpectRange(l, r rune) (rune, error)

	// ExpectRangeFn returns a function wrapping a `ExpectRange` call.
	ExpectRangeFn(l, r rune) ParserFn[rune]

	// ExpectRuneFn returns a function wrapping an `ExpectRune` call.
	ExpectRuneFn(r rune) ParserFn[rune]

	// ExpectLiteral returns `l` if the input under the cursor
	// starts with it, or errors otherwise.
	ExpectLiteral(l string) (string, error)
}

// SetInput associates an input to the parser struct and resets its
// state
func (p *Parser) SetInput(input string) {
	p.ffp = 0
	p.cursor = 0
	p.input = []rune(input)
	p.lastErr = nil
	p.predStkCnt = 0
	p.pos = nil
}

// span translates a range of the input into lines and columns
func (p *Parser) span(rg Range) Span {
	if p.pos == nil {
		p.pos = newPosIndex(p.input)
	}
	return p.pos.Span(rg)
}

func (p *Parser) Cursor() int {
	return p.cursor
}

// Peek returns the character under the input cursor, or eof if the
// entire input has been consumed
func (p *Parser) Peek() rune {
	if p.cursor >= len(p.input) {
		return eof
	}
	return p.input[p.cursor]
}

// Backtrack resets the cursor of the parser to `cursor`
func (p *Parser) Backtrack(cursor int) {
	p.cursor = cursor
}

func (p *Parser) ExpectRune(v rune) (rune, error) {
	start := p.Cursor()
	c := p.Peek()
	if c == v {
		return p.Any()
	}

	exp := "`" + string(v) + "`"
	msg := "Expected " + exp + " but got " + showRune(c)
	return 0, p.NewError(exp, msg, NewRange(start, p.Cursor()))
}

func (p *Parser) ExpectRuneFn(v rune) ParserFn[rune] {
	return func(p Backtrackable) (rune, error) { return p.ExpectRune(v) }
}

func (p *Parser) ExpectRange(l, r rune) (rune, error) {
	start := p.Cursor()
	c := p.Peek()
	if c >= l && c <= r {
		return p.Any()
	}

	exp := "`" + string(l) + "-" + string(r) + "`"
	msg := "Expected " + exp + " but got " + showRune(c)
	return 0, p.NewError(exp, msg, NewRange(start, p.Cursor()))
}

func (p *Parser) ExpectRangeFn(l, r rune) ParserFn[rune] {
	return func(p Backtrackable) (rune, error) { return p.ExpectRange(l, r) }
}

func (p *Parser) ExpectLiteral(literal string) (string, error) {
	start := p.Cursor()
	for _, v := range literal {
		if p.Peek() == v {
			p.Any()
			continue
		}
		exp := "`" + literal + "`"
		return "", p.NewError(exp, "Missing "+exp, NewRange(start, p.Cursor()))
	}
	return literal, nil
}

// Any matches any rune under the input cursor, and will error on EOF
func (p *Parser) Any() (rune, error) {
	pos := p.Cursor()
	c := p.Peek()
	if c == eof {
		return 0, p.NewError(".", "Unexpected end of input", NewRange(pos, pos))
	}
	p.cursor++
	if p.cursor > p.ffp {
		p.ffp = p.cursor
	}
	return c, nil
}

// NewError creates a type of error that is handled and discarded when
// the parser backtracks the input position
func (p *Parser) NewError(exp, msg string, rg Range) error {
	err := &backtrackingError{
		Expected: exp,
		Message:  msg,
		Range:    rg,
	}
	if !p.WithinPredicate() && (p.lastErr == nil || rg.Start >= p.lastErr.Range.Start) {
		p.lastErr = err
	}
	return err
}

// Throw returns an error that can't be caught by the backtrack system
// and will error right away
func (p *Parser) Throw(production, msg string, rg Range) error {
	if p.WithinPredicate() {
		return p.NewError(production, msg, rg)
	}
	return ParsingError{
		Production: production,
		Message:    msg,
		Range:      rg,
		Span:       p.span(rg),
	}
}

// farthestError turns the error created at the farthest position
// into a `ParsingError`
func (p *Parser) farthestError(err error) error {
	if isthrown(err) {
		return err
	}
	pos := p.ffp
	msg := err.Error()
	if p.lastErr != nil {
		pos = p.lastErr.Range.Start
		msg = p.lastErr.Message
	}
	rg := NewRange(pos, pos)
	return ParsingError{Message: msg, Range: rg, Span: p.span(rg)}
}

func (p *Parser) WithinPredicate() bool { return p.predStkCnt > 0 }
func (p *Parser) EnterPredicate()       { p.predStkCnt++ }
func (p *Parser) LeavePredicate()       { p.predStkCnt-- }

func showRune(r rune) string {
	if r == eof {
		return "EOF"
	}
	return fmt.Sprintf("%q", r)
}

// ParserFn is the signature of a parser function.  It unfortunately
// can't be a method because of Go's generics limitations, but a
// closure will fit in just right.  By being generic on its return,
// all matching functions can be generic over this same `T`, which
// allow composing recursive parsers sharing the same tooling despite
// their different return types
type ParserFn[T any] func(p Backtrackable) (T, error)

// ZeroOrMore will call `fn` until it errors out, collecting and
// returning all the successful outputs.  Since we support any set of
// expressions within the closure `fn`, it will backtrack on error.
func ZeroOrMore[T any](p Backtrackable, fn ParserFn[T]) ([]T, error) {
	var output []T
	for {
		state := p.Cursor()
		item, err := fn(p)
		if err != nil {
			p.Backtrack(state)
			if isthrown(err) && !p.WithinPredicate() {
				return nil, err
			}
			break
		}
		output = append(output, item)
		if p.Cursor() == state {
			// no progress, the same item would match again
			break
		}
	}
	return output, nil
}

// OneOrMore will match `fn` once and then pass fn to ZeroOrMore
func OneOrMore[T any](p Backtrackable, fn ParserFn[T]) ([]T, error) {
	head, err := fn(p)
	if err != nil {
		return nil, err
	}
	tail, err := ZeroOrMore(p, fn)
	if err != nil {
		return nil, err
	}
	return append([]T{head}, tail...), nil
}

// ChoiceRune is a specialization of `Choice` that's less verbose for
// picking from a set of runes
func ChoiceRune(p Backtrackable, runes map[rune]struct{}) (rune, error) {
	start := p.Cursor()
	r := p.Peek()
	if _, ok := runes[r]; ok {
		return p.Any()
	}

	expected := make([]string, 0, len(runes))
	for k := range runes {
		expected = append(expected, fmt.Sprintf("%q", k))
	}
	sort.Strings(expected)
	exp := strings.Join(expected, ", ")
	msg := fmt.Sprintf("Expected %s but got %s", exp, showRune(r))
	return ' ', p.NewError(exp, msg, NewRange(start, p.Cursor()))
}

// Choice walks through fns and return the first to succeed.  It will
// backtrack the parser cursor before each attempt, and it will fail
// if no alternatives match.
func Choice[T any](p Backtrackable, fns []ParserFn[T]) (T, error) {
	var (
		zero        T
		expected    []string
		expectedMap = map[string]struct{}{}
		start       = p.Cursor()
	)
	for _, fn := range fns {
		item, err := fn(p)
		if err == nil {
			return item, nil
		}
		p.Backtrack(start)
		if isthrown(err) && !p.WithinPredicate() {
			return zero, err
		}
		if berr, ok := err.(*backtrackingError); ok {
			if _, ok := expectedMap[berr.Expected]; !ok {
				expectedMap[berr.Expected] = struct{}{}
				expected = append(expected, berr.Expected)
			}
		}
	}
	exp := strings.Join(expected, ", ")
	msg := "Expected " + exp + " but got " + showRune(p.Peek())
	return zero, p.NewError(exp, msg, NewRange(start, p.Cursor()))
}

// Optional is a syntax sugar for an ordered choice in which the
// second option is the zero value of `T`
func Optional[T any](p Backtrackable, fn ParserFn[T]) (T, error) {
	return Choice(p, []ParserFn[T]{
		fn,
		func(p Backtrackable) (T, error) {
			var zero T
			return zero, nil
		},
	})
}

// And returns an error if fn fails, or succeeds if fn succeeds.  It
// never consumes any input.
func And[T any](p Backtrackable, fn ParserFn[T]) (T, error) {
	var zero T
	p.EnterPredicate()
	start := p.Cursor()
	_, err := fn(p)

	// unconditionally backtrack as the predicate never consumes any input
	p.Backtrack(start)
	p.LeavePredicate()

	if err != nil {
		return zero, p.NewError("&", "And Error", NewRange(start, p.Cursor()))
	}
	return zero, nil
}

// Not returns an error if fn succeeds, or succeed if fn doesn't succeed
func Not[T any](p Backtrackable, fn ParserFn[T]) (T, error) {
	var zero T
	p.EnterPredicate()
	start := p.Cursor()
	_, err := fn(p)

	// unconditionally backtrack as the predicate never consumes any input
	p.Backtrack(start)
	p.LeavePredicate()

	if err == nil {
		return zero, p.NewError("!", "Unexpected "+showRune(p.Peek()), NewRange(start, p.Cursor()))
	}
	return zero, nil
}
