package stack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFiniteFieldElement(t *testing.T) {
	assert := require.New(t)

	e, err := NewFiniteFieldElement(3, true, 2)
	assert.NoError(err)
	assert.Equal(3, e.Position())
	assert.Equal(2, e.ExtensionDegree())
	assert.Equal(2, e.Length())
	assert.True(e.Negate())

	_, err = NewFiniteFieldElement(3, false, 0)
	assert.ErrorIs(err, ErrDegreeMismatch)

	// slots 1, 0, -1: the element sticks out past the top
	_, err = NewFiniteFieldElement(1, false, 3)
	assert.ErrorIs(err, ErrOutOfStack)

	// negative positions are resolved against the bottom at emission time
	_, err = NewFiniteFieldElement(-1, false, 3)
	assert.NoError(err)

	assert.Panics(func() { FFE(1, false, 3) })
}

func TestExtractComponent(t *testing.T) {
	assert := require.New(t)

	e := FFE(5, true, 3)
	for i := 0; i < 3; i++ {
		c := e.ExtractComponent(i)
		assert.Equal(5-i, c.Position())
		assert.Equal(1, c.ExtensionDegree())
		assert.True(c.Negate())
	}

	assert.Panics(func() { e.ExtractComponent(3) })
	assert.Panics(func() { e.ExtractComponent(-1) })
}

func TestDescriptorsAreValues(t *testing.T) {
	assert := require.New(t)

	e := FFE(4, false, 2)
	shifted := e.Shift(3)
	negated := e.SetNegate(true)

	assert.Equal(7, shifted.Position())
	assert.True(negated.Negate())
	assert.Equal(4, e.Position())
	assert.False(e.Negate())

	n := NewNumber(2, false)
	assert.Equal(5, n.Shift(3).Position())
	assert.Equal(2, n.Position())
}

func TestNewEllipticCurvePoint(t *testing.T) {
	assert := require.New(t)

	p, err := NewEllipticCurvePoint(FFE(3, false, 2), FFE(1, true, 2))
	assert.NoError(err)
	assert.Equal(3, p.Position())
	assert.Equal(4, p.Length())
	assert.True(p.Negate())

	// x slots 2, 1 run into y slot 1
	_, err = NewEllipticCurvePoint(FFE(2, false, 2), FFE(1, false, 2))
	assert.ErrorIs(err, ErrOverlap)

	_, err = NewEllipticCurvePoint(FFE(3, false, 2), FFE(1, false, 1))
	assert.ErrorIs(err, ErrDegreeMismatch)

	assert.Panics(func() { ECP(FFE(2, false, 2), FFE(1, false, 2)) })
}

func TestOrderingAgainstPoints(t *testing.T) {
	assert := require.New(t)

	p := ECP(FFE(3, false, 1), FFE(2, false, 1))

	// ordering against a point is judged on its x coordinate
	assert.True(NewBaseElement(4).IsBefore(p))
	assert.False(NewBaseElement(3).IsBefore(p))

	// a point's own extent ends at its y coordinate
	assert.True(p.IsBefore(NewBaseElement(1)))
	overlaps, _ := p.OverlapsOnTheRight(NewBaseElement(2))
	assert.True(overlaps)
}

func TestCheckOrder(t *testing.T) {
	assert := require.New(t)

	lambda := FFE(7, false, 2)
	p := ECP(FFE(5, false, 2), FFE(3, false, 2))
	q := NewNumber(1, false)

	assert.NoError(CheckOrder([]Element{lambda, p, q}))

	// the point's y coordinate runs into the number
	assert.ErrorIs(CheckOrder([]Element{lambda, p, NewNumber(2, false)}), ErrOverlap)
	assert.ErrorIs(CheckOrder([]Element{p, lambda}), ErrOverlap)
}

func TestBitmaskRoundTrip(t *testing.T) {
	assert := require.New(t)

	assert.Equal([]bool{true, false, true, false}, BitmaskToBooleanList(5, 4))
	assert.Equal([]bool{false, false}, BitmaskToBooleanList(0, 2))
	assert.Equal(5, BooleanListToBitmask([]bool{true, false, true}))

	for bitmask := 0; bitmask < 16; bitmask++ {
		assert.Equal(bitmask, BooleanListToBitmask(BitmaskToBooleanList(bitmask, 4)))
	}
}
