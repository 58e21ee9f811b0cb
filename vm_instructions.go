package pegvm

import (
	"fmt"
	"strconv"
)

type Instruction interface {
	// Name returns the name of the instruction
	Name() string

	// String returns the name of the instruction followed by its
	// operands
	String() string
}

// jumper is implemented by the instructions that transfer control.
// Before linking they point at an `ILabel`; the link pass replaces
// the label with an offset relative to the instruction's own
// address.
type jumper interface {
	Instruction
	label() ILabel
	resolve(offset int) Instruction
	offset() int
}

type IAny struct{}

func (IAny) Name() string     { return "any" }
func (i IAny) String() string { return i.Name() }

type IChar struct {
	Char            rune
	CaseInsensitive bool
}

func (IChar) Name() string { return "char" }

func (i IChar) String() string {
	s := i.Name() + " " + strconv.QuoteRune(i.Char)
	if i.CaseInsensitive {
		s += " nocase"
	}
	return s
}

type ISet struct{ Set *Charset }

func (ISet) Name() string     { return "set" }
func (i ISet) String() string { return i.Name() + " " + i.Set.String() }

type ILabel struct{ ID int }

func (ILabel) Name() string     { return "label" }
func (i ILabel) String() string { return fmt.Sprintf("l%d", i.ID) }

type IChoice struct {
	Label  ILabel
	Offset int
}

func (IChoice) Name() string                  { return "choice" }
func (i IChoice) String() string              { return jumperString(i) }
func (i IChoice) label() ILabel               { return i.Label }
func (i IChoice) offset() int                 { return i.Offset }
func (i IChoice) resolve(off int) Instruction { return IChoice{Offset: off} }

type ICommit struct {
	Label  ILabel
	Offset int
}

func (ICommit) Name() string                  { return "commit" }
func (i ICommit) String() string              { return jumperString(i) }
func (i ICommit) label() ILabel               { return i.Label }
func (i ICommit) offset() int                 { return i.Offset }
func (i ICommit) resolve(off int) Instruction { return ICommit{Offset: off} }

// IPartialCommit updates the alternative on top of the stack with
// the current position and capture log length and jumps.  With
// `Progress` set, a body that consumed nothing ends the loop: the
// alternative is dropped and execution continues right after the
// instruction.
type IPartialCommit struct {
	Label    ILabel
	Offset   int
	Progress bool
}

func (IPartialCommit) Name() string    { return "partial_commit" }
func (i IPartialCommit) label() ILabel { return i.Label }
func (i IPartialCommit) offset() int   { return i.Offset }

func (i IPartialCommit) resolve(off int) Instruction {
	return IPartialCommit{Offset: off, Progress: i.Progress}
}

func (i IPartialCommit) String() string {
	s := jumperString(i)
	if i.Progress {
		s += " progress"
	}
	return s
}

type IBackCommit struct {
	Label  ILabel
	Offset int
}

func (IBackCommit) Name() string                  { return "back_commit" }
func (i IBackCommit) String() string              { return jumperString(i) }
func (i IBackCommit) label() ILabel               { return i.Label }
func (i IBackCommit) offset() int                 { return i.Offset }
func (i IBackCommit) resolve(off int) Instruction { return IBackCommit{Offset: off} }

type IJump struct {
	Label  ILabel
	Offset int
}

func (IJump) Name() string                  { return "jump" }
func (i IJump) String() string              { return jumperString(i) }
func (i IJump) label() ILabel               { return i.Label }
func (i IJump) offset() int                 { return i.Offset }
func (i IJump) resolve(off int) Instruction { return IJump{Offset: off} }

type ICall struct {
	Label  ILabel
	Offset int
}

func (ICall) Name() string                  { return "call" }
func (i ICall) String() string              { return jumperString(i) }
func (i ICall) label() ILabel               { return i.Label }
func (i ICall) offset() int                 { return i.Offset }
func (i ICall) resolve(off int) Instruction { return ICall{Offset: off} }

type IReturn struct{}

func (IReturn) Name() string     { return "return" }
func (i IReturn) String() string { return i.Name() }

type IFail struct{}

func (IFail) Name() string     { return "fail" }
func (i IFail) String() string { return i.Name() }

type IFailTwice struct{}

func (IFailTwice) Name() string     { return "fail_twice" }
func (i IFailTwice) String() string { return i.Name() }

// IFullCapture records a capture of `Size` runes ending at the
// current position
type IFullCapture struct {
	Kind  CaptureKind
	Size  int
	Index int
}

func (IFullCapture) Name() string { return "full_capture" }

func (i IFullCapture) String() string {
	return fmt.Sprintf("%s %s size=%d idx=%d", i.Name(), i.Kind, i.Size, i.Index)
}

type IOpenCapture struct {
	Kind  CaptureKind
	Index int
}

func (IOpenCapture) Name() string { return "open_capture" }

func (i IOpenCapture) String() string {
	return fmt.Sprintf("%s %s idx=%d", i.Name(), i.Kind, i.Index)
}

type ICloseCapture struct{}

func (ICloseCapture) Name() string     { return "close_capture" }
func (i ICloseCapture) String() string { return i.Name() }

type IEnd struct{}

func (IEnd) Name() string     { return "end" }
func (i IEnd) String() string { return i.Name() }

func jumperString(j jumper) string {
	if l := j.label(); l.ID != 0 {
		return j.Name() + " " + l.String()
	}
	return fmt.Sprintf("%s %+d", j.Name(), j.offset())
}
