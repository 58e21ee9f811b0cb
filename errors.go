package pegvm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedRule is returned when an identifier references a
	// rule that the grammar does not define
	ErrUnresolvedRule = errors.New("rule does not exist")

	// ErrUnsupportedNode is returned when the compiler finds an AST
	// node it does not know how to emit code for
	ErrUnsupportedNode = errors.New("unsupported node")

	// ErrDuplicateRule is returned when two definitions share a name
	ErrDuplicateRule = errors.New("rule defined more than once")

	// ErrLeftRecursion is returned for rules that can call
	// themselves without consuming input
	ErrLeftRecursion = errors.New("left recursive rule")

	// ErrEmptyGrammar is returned when compiling a grammar without
	// definitions
	ErrEmptyGrammar = errors.New("grammar has no definitions")
)

var (
	// ErrInvariant is wrapped by every error that means the program
	// or the machine is broken.  These errors are never reported as
	// a failed match.
	ErrInvariant = errors.New("vm invariant violated")

	ErrCallFrame          = fmt.Errorf("%w: commit over a call frame", ErrInvariant)
	ErrChoiceFrame        = fmt.Errorf("%w: return over a choice frame", ErrInvariant)
	ErrPendingCalls       = fmt.Errorf("%w: end reached with pending frames", ErrInvariant)
	ErrUnbalancedCaptures = fmt.Errorf("%w: unbalanced capture log", ErrInvariant)
	ErrBadAddress         = fmt.Errorf("%w: address out of program bounds", ErrInvariant)
	ErrBadInstruction     = fmt.Errorf("%w: instruction can't be executed", ErrInvariant)

	// ErrStepLimit is returned when a match runs for more steps than
	// `vm.max_steps` allows
	ErrStepLimit = errors.New("step limit exceeded")
)

// CompileError is returned by the compiler.  `Rule` is the name of
// the definition being compiled when the error happened, if any.
type CompileError struct {
	Err  error
	Rule string
	Node AstNode
}

func (e *CompileError) Error() string {
	var node string
	if e.Node != nil {
		node = e.Node.Text()
	}
	switch {
	case e.Rule != "" && node != "":
		return fmt.Sprintf("%s: `%s` (in rule `%s`)", e.Err, node, e.Rule)
	case e.Rule != "":
		return fmt.Sprintf("%s: `%s`", e.Err, e.Rule)
	case node != "":
		return fmt.Sprintf("%s: `%s`", e.Err, node)
	default:
		return e.Err.Error()
	}
}

func (e *CompileError) Unwrap() error { return e.Err }

// RuntimeError is returned by the virtual machine when it can't
// proceed.  A pattern that does not match is not an error.
type RuntimeError struct {
	Err    error
	PC     int
	Cursor int
	Op     string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s (pc=%d, cursor=%d, op=%s)", e.Err, e.PC, e.Cursor, e.Op)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// ParsingError is the error thrown when the grammar text can't be
// parsed successfuly
type ParsingError struct {
	Message string
	// Production is the grammar rule the parser was in when it
	// gave up
	Production string
	Range      Range
	// Span is `Range` in lines and columns
	Span Span
}

// Error returns the human readable representation of a parsing error
func (e ParsingError) Error() string {
	var where fmt.Stringer = e.Span
	if e.Span.Start.Line == 0 {
		where = e.Range
	}
	if e.Production == "" {
		return fmt.Sprintf("%s @ %s", e.Message, where)
	}
	return fmt.Sprintf("%s: %s @ %s", e.Production, e.Message, where)
}

// backtrackingError is an internal error type that is captured by the
// Choice operator
type backtrackingError struct {
	Message  string
	Expected string
	Range    Range
}

func (e backtrackingError) Error() string {
	return fmt.Sprintf("%s @ %s", e.Message, e.Range)
}

func isthrown(err error) bool {
	_, ok := err.(ParsingError)
	return ok
}
