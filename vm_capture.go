package pegvm

import "fmt"

// CaptureKind tells how a capture was created
type CaptureKind uint8

const (
	// CaptureSimple is the span matched by an unnamed `{ e }`
	CaptureSimple CaptureKind = iota

	// CapturePosition records a position and has no width
	CapturePosition

	// CaptureGroup is the span matched by a named `{:name: e :}`
	CaptureGroup
)

var captureKindNames = map[CaptureKind]string{
	CaptureSimple:   "simple",
	CapturePosition: "position",
	CaptureGroup:    "group",
}

func (k CaptureKind) String() string {
	if name, ok := captureKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("CaptureKind(%d)", int(k))
}

// CaptureInfo is what the compiler knows about a capture.  Capture
// instructions refer to it through its position in the capture
// table of the `Program`.
type CaptureInfo struct {
	Index int
	Name  string
	Kind  CaptureKind
}

// Capture is a sub-match reported after a successful match
type Capture struct {
	Kind  CaptureKind
	Index int
	Name  string
	Range Range

	// Parent is the position of the enclosing capture within the
	// same list, or -1 for top level captures
	Parent int
}

// Text returns the part of `input` matched by the capture
func (c Capture) Text(input []rune) string {
	return c.Range.Str(input)
}

func (c Capture) String() string {
	if c.Name != "" {
		return fmt.Sprintf("%s#%d(%s)@%s", c.Kind, c.Index, c.Name, c.Range)
	}
	return fmt.Sprintf("%s#%d@%s", c.Kind, c.Index, c.Range)
}

type capEntryType uint8

const (
	capEntry_Full capEntryType = iota
	capEntry_Open
	capEntry_Close
)

type capEntry struct {
	t    capEntryType
	kind CaptureKind

	// slot is the position of the capture in the capture table
	// of the program.  Unused by close entries.
	slot int

	// start is unused by close entries and end is unused by open
	// entries
	start, end int
}

// captureLog is only ever appended to or truncated from its end.
// Choice points save its length and failing restores it.
type captureLog struct {
	entries []capEntry
}

func (l *captureLog) len() int { return len(l.entries) }

func (l *captureLog) truncate(n int) { l.entries = l.entries[:n] }

func (l *captureLog) reset() { l.entries = l.entries[:0] }

func (l *captureLog) full(kind CaptureKind, slot, start, end int) {
	l.entries = append(l.entries, capEntry{t: capEntry_Full, kind: kind, slot: slot, start: start, end: end})
}

func (l *captureLog) open(kind CaptureKind, slot, start int) {
	l.entries = append(l.entries, capEntry{t: capEntry_Open, kind: kind, slot: slot, start: start})
}

func (l *captureLog) close(end int) {
	l.entries = append(l.entries, capEntry{t: capEntry_Close, end: end})
}

// fold turns the log into the list of captures in the order they
// were opened.  The names and indexes come from `table`; slots
// outside of it are reported with the slot as their index.
func (l *captureLog) fold(table []CaptureInfo) ([]Capture, error) {
	if len(l.entries) == 0 {
		return nil, nil
	}
	var (
		out  = make([]Capture, 0, len(l.entries))
		open = make([]int, 0, 8)
	)
	parent := func() int {
		if len(open) == 0 {
			return -1
		}
		return open[len(open)-1]
	}
	for _, e := range l.entries {
		switch e.t {
		case capEntry_Full:
			out = append(out, newCapture(table, e, e.start, e.end, parent()))

		case capEntry_Open:
			out = append(out, newCapture(table, e, e.start, e.start, parent()))
			open = append(open, len(out)-1)

		case capEntry_Close:
			if len(open) == 0 {
				return nil, ErrUnbalancedCaptures
			}
			idx := open[len(open)-1]
			open = open[:len(open)-1]
			out[idx].Range.End = e.end
		}
	}
	if len(open) > 0 {
		return nil, ErrUnbalancedCaptures
	}
	return out, nil
}

func newCapture(table []CaptureInfo, e capEntry, start, end, parent int) Capture {
	c := Capture{Kind: e.kind, Index: e.slot, Range: NewRange(start, end), Parent: parent}
	if e.slot >= 0 && e.slot < len(table) {
		c.Index = table[e.slot].Index
		c.Name = table[e.slot].Name
	}
	return c
}
