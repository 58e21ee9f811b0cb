package pegvm

import (
	"unicode"

	"github.com/rs/zerolog"
)

type VirtualMachine struct {
	program *Program

	// input is a buffer reused by `Match` for decoding the input
	// text into runes
	input []rune

	stack    *stack
	captures captureLog

	// maxSteps is how many instructions a single match can
	// execute.  Zero means no limit.
	maxSteps int

	logger zerolog.Logger
}

func NewVirtualMachine(p *Program) *VirtualMachine {
	return &VirtualMachine{
		program:  p,
		stack:    newStack(p.config.GetInt("vm.stack_size")),
		maxSteps: p.config.GetInt("vm.max_steps"),
		logger:   zerolog.Nop(),
	}
}

// SetLogger sets the logger that receives one event per executed
// instruction when its level is `zerolog.TraceLevel`
func (vm *VirtualMachine) SetLogger(logger zerolog.Logger) {
	vm.logger = logger
}

// SetMaxSteps overrides the step budget read from `vm.max_steps`
func (vm *VirtualMachine) SetMaxSteps(n int) {
	vm.maxSteps = n
}

// Match runs the program against `input` starting at its first
// rune.  Not matching is not an error: the result just has `Matched`
// set to false.  Errors are only returned when the step budget runs
// out or when the program breaks an invariant of the machine.
func (vm *VirtualMachine) Match(input string) (MatchResult, error) {
	vm.input = vm.input[:0]
	for _, r := range input {
		vm.input = append(vm.input, r)
	}
	return vm.run(vm.input)
}

// MatchRunes is like `Match` but takes the input already decoded
func (vm *VirtualMachine) MatchRunes(input []rune) (MatchResult, error) {
	return vm.run(input)
}

// FindRunes tries to match the program at each position of `input`,
// starting from the first one.  It returns where the first match
// starts, and a result whose positions are relative to the whole
// input.
func (vm *VirtualMachine) FindRunes(input []rune) (int, MatchResult, error) {
	for start := 0; start <= len(input); start++ {
		r, err := vm.run(input[start:])
		if err != nil {
			return start, MatchResult{}, err
		}
		if r.Matched {
			return start, r.shift(start), nil
		}
	}
	return 0, MatchResult{}, nil
}

func (vm *VirtualMachine) run(input []rune) (MatchResult, error) {
	var (
		code    = vm.program.code
		pc      int
		cursor  int
		steps   int
		tracing = vm.tracing()
	)

	vm.stack.reset()
	vm.captures.reset()

code:
	for {
		if pc < 0 || pc >= len(code) {
			return MatchResult{}, &RuntimeError{Err: ErrBadAddress, PC: pc, Cursor: cursor}
		}
		if vm.maxSteps > 0 {
			if steps++; steps > vm.maxSteps {
				return MatchResult{}, vm.errorAt(ErrStepLimit, pc, cursor)
			}
		}
		if tracing {
			vm.logger.Trace().
				Int("pc", pc).
				Int("cursor", cursor).
				Int("stack", vm.stack.len()).
				Int("captures", vm.captures.len()).
				Stringer("op", code[pc]).
				Msg("step")
		}

		switch ii := code[pc].(type) {
		case IChar:
			if cursor >= len(input) || !matchRune(ii, input[cursor]) {
				goto fail
			}
			cursor++
			pc++

		case IAny:
			if cursor >= len(input) {
				goto fail
			}
			cursor++
			pc++

		case ISet:
			if cursor >= len(input) || !ii.Set.Has(input[cursor]) {
				goto fail
			}
			cursor++
			pc++

		case IChoice:
			vm.stack.push(frame{
				t:        frameType_Backtracking,
				pc:       pc + ii.Offset,
				cursor:   cursor,
				captures: vm.captures.len(),
			})
			pc++

		case ICommit:
			if vm.stack.top().t != frameType_Backtracking {
				return MatchResult{}, vm.errorAt(ErrCallFrame, pc, cursor)
			}
			vm.stack.pop()
			pc += ii.Offset

		case IPartialCommit:
			top := vm.stack.top()
			if top.t != frameType_Backtracking {
				return MatchResult{}, vm.errorAt(ErrCallFrame, pc, cursor)
			}
			if ii.Progress && top.cursor == cursor {
				// an iteration that consumed nothing would
				// repeat forever, so the loop ends here and
				// drops what that iteration captured
				vm.captures.truncate(top.captures)
				vm.stack.pop()
				pc++
				continue
			}
			top.cursor = cursor
			top.captures = vm.captures.len()
			pc += ii.Offset

		case IBackCommit:
			if vm.stack.top().t != frameType_Backtracking {
				return MatchResult{}, vm.errorAt(ErrCallFrame, pc, cursor)
			}
			f := vm.stack.pop()
			cursor = f.cursor
			vm.captures.truncate(f.captures)
			pc += ii.Offset

		case IFailTwice:
			if vm.stack.top().t != frameType_Backtracking {
				return MatchResult{}, vm.errorAt(ErrCallFrame, pc, cursor)
			}
			vm.stack.pop()
			goto fail

		case ICall:
			vm.stack.push(frame{t: frameType_Call, pc: pc + 1})
			pc += ii.Offset

		case IReturn:
			if vm.stack.onlySentinel() || vm.stack.top().t != frameType_Call {
				return MatchResult{}, vm.errorAt(ErrChoiceFrame, pc, cursor)
			}
			pc = vm.stack.pop().pc

		case IJump:
			pc += ii.Offset

		case IFail:
			goto fail

		case IFullCapture:
			if ii.Size < 0 || ii.Size > cursor {
				return MatchResult{}, vm.errorAt(ErrUnbalancedCaptures, pc, cursor)
			}
			vm.captures.full(ii.Kind, ii.Index, cursor-ii.Size, cursor)
			pc++

		case IOpenCapture:
			vm.captures.open(ii.Kind, ii.Index, cursor)
			pc++

		case ICloseCapture:
			vm.captures.close(cursor)
			pc++

		case IEnd:
			if !vm.stack.onlySentinel() {
				return MatchResult{}, vm.errorAt(ErrPendingCalls, pc, cursor)
			}
			caps, err := vm.captures.fold(vm.program.captures)
			if err != nil {
				return MatchResult{}, vm.errorAt(err, pc, cursor)
			}
			return MatchResult{Matched: true, End: cursor, Captures: caps}, nil

		default:
			return MatchResult{}, vm.errorAt(ErrBadInstruction, pc, cursor)
		}
		continue

	fail:
		for !vm.stack.onlySentinel() {
			f := vm.stack.pop()
			if f.t != frameType_Backtracking {
				continue
			}
			if tracing {
				vm.logger.Trace().
					Int("pc", f.pc).
					Int("cursor", f.cursor).
					Int("from", cursor).
					Msg("backtrack")
			}
			pc = f.pc
			cursor = f.cursor
			vm.captures.truncate(f.captures)
			continue code
		}
		return MatchResult{}, nil
	}
}

func (vm *VirtualMachine) tracing() bool {
	return vm.logger.GetLevel() <= zerolog.TraceLevel && zerolog.GlobalLevel() <= zerolog.TraceLevel
}

func (vm *VirtualMachine) errorAt(err error, pc, cursor int) *RuntimeError {
	return &RuntimeError{Err: err, PC: pc, Cursor: cursor, Op: vm.program.code[pc].Name()}
}

func matchRune(i IChar, r rune) bool {
	if r == i.Char {
		return true
	}
	if !i.CaseInsensitive {
		return false
	}
	// walk the orbit of equivalent runes under simple case folding
	for f := unicode.SimpleFold(i.Char); f != i.Char; f = unicode.SimpleFold(f) {
		if f == r {
			return true
		}
	}
	return false
}
