package pegvm

import (
	"fmt"
	"sort"
)

// Location is a position within a text.  `Line` and `Column` start
// at 1 and count runes.  `Cursor` is the rune offset from the start
// of the text.
type Location struct {
	Line   int
	Column int
	Cursor int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Span is the line/column counterpart of a `Range`
type Span struct {
	Start, End Location
}

func NewSpan(start, end Location) Span {
	return Span{Start: start, End: end}
}

func (s Span) String() string {
	switch {
	case s.Start == s.End:
		return s.Start.String()
	case s.Start.Line == s.End.Line:
		return fmt.Sprintf("%s..%d", s.Start, s.End.Column)
	default:
		return fmt.Sprintf("%s..%s", s.Start, s.End)
	}
}

// posIndex turns rune offsets into line/column locations
type posIndex struct {
	size int

	// lineStart holds the rune offset where each line starts
	lineStart []int
}

func newPosIndex(input []rune) *posIndex {
	// line 1 always starts at offset 0
	lineStart := make([]int, 1, 64)
	for i, r := range input {
		if r == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}
	return &posIndex{size: len(input), lineStart: lineStart}
}

func (pi *posIndex) Span(r Range) Span {
	return Span{
		Start: pi.LocationAt(r.Start),
		End:   pi.LocationAt(r.End),
	}
}

func (pi *posIndex) LocationAt(cursor int) Location {
	cursor = max(0, min(cursor, pi.size))

	// first line starting after the cursor, then one step back
	line := sort.Search(len(pi.lineStart), func(i int) bool {
		return pi.lineStart[i] > cursor
	}) - 1

	return Location{
		Line:   line + 1,
		Column: cursor - pi.lineStart[line] + 1,
		Cursor: cursor,
	}
}
