package pegvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCharset(t *testing.T) {
	t.Run("ranges are sorted and merged", func(t *testing.T) {
		cs := NewCharset([]CharRange{
			{Lo: 'x', Hi: 'z'},
			{Lo: 'a', Hi: 'f'},
			{Lo: 'd', Hi: 'k'},
			{Lo: 'l', Hi: 'm'},
			{Lo: 'z', Hi: 'a'},
		}, false)
		assert.Equal(t, []CharRange{{Lo: 'a', Hi: 'm'}, {Lo: 'x', Hi: 'z'}}, cs.Ranges())
		assert.Equal(t, "[a-mx-z]", cs.String())
	})

	t.Run("membership", func(t *testing.T) {
		cs := NewCharset([]CharRange{
			{Lo: '0', Hi: '9'},
			{Lo: 'é', Hi: 'é'},
			{Lo: 'α', Hi: 'ω'},
			{Lo: 0x1F600, Hi: 0x1F64F},
		}, false)

		for _, r := range []rune{'0', '5', '9', 'é', 'α', 'λ', 'ω', 0x1F600, 0x1F642} {
			assert.True(t, cs.Has(r), "%q", r)
		}
		for _, r := range []rune{'a', '/', ':', 'è', 'Ω', 0x1F650, eof} {
			assert.False(t, cs.Has(r), "%q", r)
		}
	})

	t.Run("negated", func(t *testing.T) {
		cs := NewCharset([]CharRange{{Lo: 'a', Hi: 'z'}}, true)
		assert.True(t, cs.Negated())
		assert.False(t, cs.Has('q'))
		assert.True(t, cs.Has('Q'))
		assert.True(t, cs.Has('ж'))
		assert.Equal(t, "[^a-z]", cs.String())
	})

	t.Run("empty", func(t *testing.T) {
		cs := NewCharset(nil, false)
		assert.False(t, cs.Has('a'))
		assert.Empty(t, cs.Ranges())
		assert.True(t, NewCharset(nil, true).Has('a'))
	})

	t.Run("range crossing the bitmap boundary", func(t *testing.T) {
		cs := NewCharset([]CharRange{{Lo: 0xF0, Hi: 0x110}}, false)
		assert.True(t, cs.Has(0xF0))
		assert.True(t, cs.Has(0xFF))
		assert.True(t, cs.Has(0x100))
		assert.True(t, cs.Has(0x110))
		assert.False(t, cs.Has(0xEF))
		assert.False(t, cs.Has(0x111))
	})

	t.Run("equal", func(t *testing.T) {
		a := NewCharset([]CharRange{{Lo: 'a', Hi: 'c'}, {Lo: 'd', Hi: 'f'}}, false)
		b := NewCharset([]CharRange{{Lo: 'a', Hi: 'f'}}, false)
		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(NewCharset([]CharRange{{Lo: 'a', Hi: 'f'}}, true)))
		assert.False(t, a.Equal(NewCharset([]CharRange{{Lo: 'a', Hi: 'e'}}, false)))
	})

	t.Run("special characters are escaped", func(t *testing.T) {
		cs := NewCharset([]CharRange{{Lo: '-', Hi: '-'}, {Lo: ']', Hi: '^'}}, false)
		assert.Equal(t, `[\-\]-\^]`, cs.String())
	})
}
