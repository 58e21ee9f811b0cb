package pegvm

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/clarete/pegvm/ascii"
)

type AsmFormatToken int

const (
	AsmFormatToken_None AsmFormatToken = iota
	AsmFormatToken_Comment
	AsmFormatToken_Label
	AsmFormatToken_Literal
	AsmFormatToken_Operator
	AsmFormatToken_Operand
)

// asmPrinterTheme is a map from the tokens available for pretty
// printing the ASM listing to an ASCII color.  These colors are
// supposed to fair well on both dark and light terminal settings
var asmPrinterTheme = map[AsmFormatToken]string{
	AsmFormatToken_None:     ascii.Reset,
	AsmFormatToken_Comment:  ascii.DefaultTheme.Comment,
	AsmFormatToken_Label:    ascii.DefaultTheme.Label,
	AsmFormatToken_Literal:  ascii.DefaultTheme.Literal,
	AsmFormatToken_Operator: ascii.DefaultTheme.Operator,
	AsmFormatToken_Operand:  ascii.DefaultTheme.Operand,
}

// Program is the output of the compiler.  It's immutable and can be
// shared by any number of goroutines.
type Program struct {
	// code is an array of instructions that get executed by the
	// virtual machine
	code []Instruction

	// identifiers is a map with keys as the position of the first
	// instruction of each rule and values as the rule name
	identifiers map[int]string

	// captures is the capture table.  Capture instructions refer
	// to entries of this table by position.
	captures []CaptureInfo

	config *Config

	// vms keeps idle virtual machines around so `Match` doesn't
	// have to allocate stacks for every call
	vms sync.Pool
}

func newProgram(code []Instruction, identifiers map[int]string, captures []CaptureInfo, cfg *Config) *Program {
	p := &Program{
		code:        code,
		identifiers: identifiers,
		captures:    captures,
		config:      cfg,
	}
	p.vms.New = func() any { return NewVirtualMachine(p) }
	return p
}

// NewProgram creates a program out of already linked instructions,
// and checks that every offset lands within the program.  A nil
// `cfg` means the values from `NewConfig()`.
func NewProgram(code []Instruction, cfg *Config) (*Program, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := validateCode(code); err != nil {
		return nil, err
	}
	return newProgram(code, map[int]string{}, nil, cfg), nil
}

func validateCode(code []Instruction) error {
	for pc, i := range code {
		switch ii := i.(type) {
		case ILabel:
			return fmt.Errorf("%w: unlinked label %s at %d", ErrBadInstruction, ii, pc)
		case ISet:
			if ii.Set == nil {
				return fmt.Errorf("%w: set without charset at %d", ErrBadInstruction, pc)
			}
		case jumper:
			if ii.label().ID != 0 {
				return fmt.Errorf("%w: unlinked label %s at %d", ErrBadInstruction, ii.label(), pc)
			}
			if target := pc + ii.offset(); target < 0 || target >= len(code) {
				return fmt.Errorf("%w: %s at %d jumps to %d", ErrBadAddress, ii, pc, target)
			}
		case nil:
			return fmt.Errorf("%w: nil instruction at %d", ErrBadInstruction, pc)
		}
	}
	return nil
}

// Code returns a copy of the instructions of the program
func (p *Program) Code() []Instruction {
	out := make([]Instruction, len(p.code))
	copy(out, p.code)
	return out
}

// Captures returns a copy of the capture table
func (p *Program) Captures() []CaptureInfo {
	out := make([]CaptureInfo, len(p.captures))
	copy(out, p.captures)
	return out
}

// Rules returns the rule names indexed by the address of their first
// instruction
func (p *Program) Rules() map[int]string {
	out := make(map[int]string, len(p.identifiers))
	for k, v := range p.identifiers {
		out[k] = v
	}
	return out
}

func (p *Program) Len() int { return len(p.code) }

// Match runs the program against `input` with a virtual machine
// borrowed from the program's pool
func (p *Program) Match(input string) (MatchResult, error) {
	vm := p.vms.Get().(*VirtualMachine)
	defer p.vms.Put(vm)
	return vm.Match(input)
}

// MatchRunes is like `Match` but takes the input already decoded
func (p *Program) MatchRunes(input []rune) (MatchResult, error) {
	vm := p.vms.Get().(*VirtualMachine)
	defer p.vms.Put(vm)
	return vm.MatchRunes(input)
}

// Find tries to match the program at each position of `input`,
// starting from the first one, and returns the first match.  The
// positions in the result are relative to the whole input.
func (p *Program) Find(input string) (MatchResult, error) {
	vm := p.vms.Get().(*VirtualMachine)
	defer p.vms.Put(vm)
	_, r, err := vm.FindRunes([]rune(input))
	return r, err
}

func (p *Program) PrettyString() string {
	return p.prettyString(func(input string, _ AsmFormatToken) string {
		return input
	})
}

func (p *Program) HighlightPrettyString() string {
	return p.prettyString(func(input string, token AsmFormatToken) string {
		return asmPrinterTheme[token] + input + asmPrinterTheme[AsmFormatToken_None]
	})
}

func (p *Program) String() string {
	return p.PrettyString()
}

func (p *Program) prettyString(format FormatFunc[AsmFormatToken]) string {
	var (
		s       strings.Builder
		targets = p.jumpTargets()
	)

	writeComment := func(i string) {
		s.WriteString(format(i, AsmFormatToken_Comment))
	}
	writeName := func(pc int, name string) {
		writeComment(fmt.Sprintf("%06d  ", pc))
		if _, ok := targets[pc]; ok {
			s.WriteString(format(fmt.Sprintf("l%-6d ", pc), AsmFormatToken_Label))
		} else {
			s.WriteString("        ")
		}
		s.WriteString(format(name, AsmFormatToken_Operator))
	}
	writeTarget := func(target int) {
		s.WriteString(format(fmt.Sprintf(" l%d", target), AsmFormatToken_Label))
	}
	writeOperand := func(v string) {
		s.WriteString(format(" "+v, AsmFormatToken_Operand))
	}
	writeLiteral := func(v string) {
		s.WriteString(format(" "+v, AsmFormatToken_Literal))
	}

	for pc, instruction := range p.code {
		if name, ok := p.identifiers[pc]; ok {
			writeComment(fmt.Sprintf("\n;; %s\n", name))
		}
		writeName(pc, instruction.Name())

		switch ii := instruction.(type) {
		case IPartialCommit:
			writeTarget(pc + ii.Offset)
			if ii.Progress {
				writeOperand("progress")
			}

		case jumper:
			writeTarget(pc + ii.offset())

		case IChar:
			writeLiteral(fmt.Sprintf("'%s'", escapeLiteral(string(ii.Char), '\'')))
			if ii.CaseInsensitive {
				writeOperand("nocase")
			}

		case ISet:
			writeLiteral(ii.Set.String())

		case IFullCapture:
			writeOperand(ii.Kind.String())
			writeLiteral(fmt.Sprintf("%d", ii.Size))
			p.writeCaptureName(writeComment, ii.Index)

		case IOpenCapture:
			writeOperand(ii.Kind.String())
			p.writeCaptureName(writeComment, ii.Index)
		}
		s.WriteString("\n")
	}
	return s.String()
}

func (p *Program) writeCaptureName(writeComment func(string), slot int) {
	if slot < 0 || slot >= len(p.captures) {
		writeComment(fmt.Sprintf(" ; #%d", slot))
		return
	}
	info := p.captures[slot]
	if info.Name != "" {
		writeComment(fmt.Sprintf(" ; #%d %s", info.Index, info.Name))
		return
	}
	writeComment(fmt.Sprintf(" ; #%d", info.Index))
}

// jumpTargets returns the addresses that any instruction transfers
// control to, so the listing can label them
func (p *Program) jumpTargets() map[int]struct{} {
	targets := map[int]struct{}{}
	for pc, i := range p.code {
		if j, ok := i.(jumper); ok {
			targets[pc+j.offset()] = struct{}{}
		}
	}
	return targets
}

// sortedRules returns the addresses of the rules in ascending order
func (p *Program) sortedRules() []int {
	addrs := make([]int, 0, len(p.identifiers))
	for addr := range p.identifiers {
		addrs = append(addrs, addr)
	}
	sort.Ints(addrs)
	return addrs
}
