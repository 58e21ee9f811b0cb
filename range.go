package pegvm

import "fmt"

const eof = -1

// Range is a span within the input, counted in runes.  `End` is
// exclusive.
type Range struct{ Start, End int }

func NewRange(start, end int) Range {
	return Range{Start: start, End: end}
}

func (r Range) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

// Len is the number of runes covered by the range
func (r Range) Len() int { return r.End - r.Start }

// Str extracts the text covered by the range out of `v`
func (r Range) Str(v []rune) string {
	return string(v[r.Start:r.End])
}

func (r Range) Contains(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Shift moves both ends of the range `n` positions forward
func (r Range) Shift(n int) Range {
	return Range{Start: r.Start + n, End: r.End + n}
}
