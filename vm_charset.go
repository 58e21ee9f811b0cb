package pegvm

import (
	"sort"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// latin1Max is the last code point covered by the bitmap of a
// `Charset`.  Anything above it is looked up in the sorted ranges.
const latin1Max = 0xFF

// Charset is the set of code points matched by the `ISet`
// instruction.  Code points up to U+00FF are answered by a bitmap in
// a single operation, the remaining ones with a binary search over
// the sorted, non overlapping ranges of the set.
type Charset struct {
	// ranges are sorted by `Lo` and never overlap or touch each
	// other
	ranges []CharRange

	// negated inverts the result of `Has`
	negated bool

	// latin holds all the codepoints of this charset up to
	// `latin1Max`
	latin *bitset.BitSet
}

// NewCharset builds a set from possibly unsorted and overlapping
// ranges.  Ranges with `Lo > Hi` are ignored.
func NewCharset(ranges []CharRange, negated bool) *Charset {
	cs := &Charset{
		ranges:  normalizeRanges(ranges),
		negated: negated,
		latin:   bitset.New(latin1Max + 1),
	}
	for _, r := range cs.ranges {
		if r.Lo > latin1Max {
			break
		}
		for c := r.Lo; c <= r.Hi && c <= latin1Max; c++ {
			cs.latin.Set(uint(c))
		}
	}
	return cs
}

func newCharsetFromClass(n *ClassNode) *Charset {
	return NewCharset(n.Ranges, n.Negated)
}

func normalizeRanges(in []CharRange) []CharRange {
	ranges := make([]CharRange, 0, len(in))
	for _, r := range in {
		if r.Lo <= r.Hi {
			ranges = append(ranges, r)
		}
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Lo < ranges[j].Lo })

	out := ranges[:0]
	for _, r := range ranges {
		if n := len(out); n > 0 && r.Lo <= out[n-1].Hi+1 {
			out[n-1].Hi = max(out[n-1].Hi, r.Hi)
			continue
		}
		out = append(out, r)
	}
	return out
}

// Has returns true if `r` belongs to the set
func (cs *Charset) Has(r rune) bool {
	return cs.contains(r) != cs.negated
}

func (cs *Charset) contains(r rune) bool {
	if r < 0 {
		return false
	}
	if r <= latin1Max {
		return cs.latin.Test(uint(r))
	}
	i := sort.Search(len(cs.ranges), func(i int) bool { return cs.ranges[i].Hi >= r })
	return i < len(cs.ranges) && cs.ranges[i].Lo <= r
}

// Ranges returns a copy of the normalized ranges of the set
func (cs *Charset) Ranges() []CharRange {
	out := make([]CharRange, len(cs.ranges))
	copy(out, cs.ranges)
	return out
}

func (cs *Charset) Negated() bool { return cs.negated }

func (cs *Charset) Equal(o *Charset) bool {
	if cs.negated != o.negated || len(cs.ranges) != len(o.ranges) {
		return false
	}
	for i := range cs.ranges {
		if cs.ranges[i] != o.ranges[i] {
			return false
		}
	}
	return true
}

func (cs *Charset) String() string {
	var s strings.Builder
	s.WriteString("[")
	if cs.negated {
		s.WriteString("^")
	}
	for _, r := range cs.ranges {
		s.WriteString(r.String())
	}
	s.WriteString("]")
	return s.String()
}
