package extio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocateIsContiguous(t *testing.T) {
	s := NewAddressSpace(20)
	a := s.Allocate(8)
	b := s.Allocate(8)
	c := s.Allocate(16)

	assert.Equal(t, Span{Start: 20, End: 27}, a)
	assert.Equal(t, Span{Start: 28, End: 35}, b)
	assert.Equal(t, Span{Start: 36, End: 51}, c)
	assert.Equal(t, Pin(52), s.Next())
	assert.Equal(t, Pin(20), s.First())
}

func TestAllocateFromZeroNative(t *testing.T) {
	s := NewAddressSpace(0)
	assert.Equal(t, Span{Start: 0, End: 0}, s.Allocate(1))
}

func TestAllocateLimits(t *testing.T) {
	s := NewAddressSpace(20)
	assert.Panics(t, func() { s.Allocate(0) })

	s = NewAddressSpace(NoPin - 10)
	sp := s.Allocate(10)
	assert.Equal(t, NoPin-1, sp.End, "last usable pin sits just below NoPin")
	assert.Panics(t, func() { s.Allocate(1) })
}

func TestSpanTranslation(t *testing.T) {
	sp := Span{Start: 28, End: 35}
	assert.Equal(t, Pin(8), sp.Len())
	assert.True(t, sp.Contains(28))
	assert.True(t, sp.Contains(35))
	assert.False(t, sp.Contains(27))
	assert.False(t, sp.Contains(36))
	assert.Equal(t, Pin(33), sp.Pin(5))
	assert.Equal(t, Pin(5), sp.Local(33))
}

func TestPinAndModeStrings(t *testing.T) {
	assert.Equal(t, "42", Pin(42).String())
	assert.Equal(t, "none", NoPin.String())

	for _, m := range []Mode{ModeInput, ModeOutput, ModeInputPullup, ModeInputPulldown} {
		got, ok := ParseMode(m.String())
		assert.True(t, ok)
		assert.Equal(t, m, got)
	}
	_, ok := ParseMode("analog")
	assert.False(t, ok)
}
