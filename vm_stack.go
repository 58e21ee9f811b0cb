package pegvm

type frameType int

const (
	frameType_Backtracking frameType = iota
	frameType_Call
)

var frameTypeNames = map[frameType]string{
	frameType_Backtracking: "backtracking",
	frameType_Call:         "call",
}

func (t frameType) String() string { return frameTypeNames[t] }

type frame struct {
	t frameType

	// pc is used in both `frameType_{Backtracking,Call}` and
	// stores the program counter index to resume from
	pc int

	// cursor is only used in `frameType_Backtracking` and stores
	// the position of the subject when the choice was made
	cursor int

	// captures is only used in `frameType_Backtracking` and
	// stores the length of the capture log when the choice was
	// made
	captures int
}

// stack holds both return addresses and choice points.  Its first
// frame is a call frame that stands for the caller of the whole
// match; it's never popped.
type stack struct {
	frames []frame
}

func newStack(size int) *stack {
	s := &stack{frames: make([]frame, 0, max(size, 1))}
	s.reset()
	return s
}

// reset empties the stack and pushes the sentinel frame back
func (s *stack) reset() {
	s.frames = append(s.frames[:0], frame{t: frameType_Call, pc: -1})
}

func (s *stack) push(f frame) {
	s.frames = append(s.frames, f)
}

func (s *stack) pop() frame {
	idx := len(s.frames) - 1
	f := s.frames[idx]
	s.frames = s.frames[:idx]
	return f
}

func (s *stack) top() *frame {
	return s.peek(0)
}

func (s *stack) peek(n int) *frame {
	return &s.frames[len(s.frames)-n-1]
}

func (s *stack) len() int {
	return len(s.frames)
}

// onlySentinel is true when nothing but the bottom frame is left
func (s *stack) onlySentinel() bool {
	return len(s.frames) == 1
}
