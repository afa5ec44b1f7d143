// Package stack defines descriptors of where logical values sit on the
// execution stack at the instant a generator references them.
//
// A descriptor carries a position (distance from the top of a stated stack
// snapshot, position 0 being the top), a negate flag (the value is
// arithmetically negated before use) and, for field elements, the number of
// stack slots composing one element. Descriptors are immutable values: they
// are only copied with an adjusted position (Shift) or a toggled negate flag
// (SetNegate). Negative positions address the stack from the bottom,
// position -1 being the bottommost element.
package stack

import (
	"errors"
	"fmt"
)

// ErrOverlap is returned when two descriptors used together occupy
// intersecting stack ranges.
var ErrOverlap = errors.New("stack elements overlap")

// ErrOutOfStack is returned when a descriptor does not fit in the stack it
// refers to.
var ErrOutOfStack = errors.New("element does not fit in the stack")

// ErrDegreeMismatch is returned when operand extension degrees disagree.
var ErrDegreeMismatch = errors.New("extension degrees do not match")

// ErrOutOfOrder is returned when descriptors are not laid out in the declared
// order.
var ErrOutOfOrder = errors.New("stack elements out of order")

// Element is a descriptor of a value on the stack.
type Element interface {
	// Position is the distance of the element's first slot from the top of
	// the stack snapshot the descriptor refers to.
	Position() int
	// Length is the number of stack slots the element occupies.
	Length() int
	// IsBefore reports whether the element sits deeper in the stack than
	// other.
	IsBefore(other Element) bool
	// OverlapsOnTheRight reports whether the end of the element overlaps the
	// beginning of other, with a diagnostic message when it does.
	OverlapsOnTheRight(other Element) (bool, string)
}

// anchor returns the position against which ordering and overlap are judged;
// for a point that is the x coordinate.
func anchor(e Element) int {
	if p, ok := e.(EllipticCurvePoint); ok {
		return p.X.Position()
	}
	return e.Position()
}

// BaseElement is an opaque single-slot element (a byte string or a number
// whose sign is irrelevant).
type BaseElement struct {
	position int
}

// NewBaseElement returns a descriptor of a single-slot element.
func NewBaseElement(position int) BaseElement {
	return BaseElement{position: position}
}

func (e BaseElement) Position() int { return e.position }
func (e BaseElement) Length() int   { return 1 }

func (e BaseElement) IsBefore(other Element) bool {
	return e.position > anchor(other)
}

func (e BaseElement) OverlapsOnTheRight(other Element) (bool, string) {
	if e.position <= anchor(other) {
		return true, fmt.Sprintf("self.position: %d, other.position: %d", e.position, anchor(other))
	}
	return false, ""
}

// Shift returns a copy of the descriptor with position increased by n.
func (e BaseElement) Shift(n int) BaseElement {
	e.position += n
	return e
}

// Number is a single-slot signed integer.
type Number struct {
	position int
	negate   bool
}

// NewNumber returns a descriptor of a number on the stack.
func NewNumber(position int, negate bool) Number {
	return Number{position: position, negate: negate}
}

func (e Number) Position() int { return e.position }
func (e Number) Negate() bool  { return e.negate }
func (e Number) Length() int   { return 1 }

func (e Number) IsBefore(other Element) bool {
	return e.position > anchor(other)
}

func (e Number) OverlapsOnTheRight(other Element) (bool, string) {
	if e.position <= anchor(other) {
		return true, fmt.Sprintf("self.position: %d, other.position: %d", e.position, anchor(other))
	}
	return false, ""
}

// Shift returns a copy of the descriptor with position increased by n.
func (e Number) Shift(n int) Number {
	e.position += n
	return e
}

// SetNegate returns a copy of the descriptor with the negate flag set.
func (e Number) SetNegate(negate bool) Number {
	e.negate = negate
	return e
}

// FiniteFieldElement is an element of F_q^n occupying n contiguous slots,
// the first component being the deepest.
type FiniteFieldElement struct {
	position        int
	negate          bool
	extensionDegree int
}

// NewFiniteFieldElement returns a descriptor of a finite field element. It
// returns an error when the extension degree is not positive or the element
// does not fit in the stack.
func NewFiniteFieldElement(position int, negate bool, extensionDegree int) (FiniteFieldElement, error) {
	if extensionDegree <= 0 {
		return FiniteFieldElement{}, fmt.Errorf("%w: extension_degree: %d", ErrDegreeMismatch, extensionDegree)
	}
	if position >= 0 && position-extensionDegree+1 < 0 {
		return FiniteFieldElement{}, fmt.Errorf("%w: position: %d, extension_degree: %d", ErrOutOfStack, position, extensionDegree)
	}
	return FiniteFieldElement{position: position, negate: negate, extensionDegree: extensionDegree}, nil
}

// FFE is NewFiniteFieldElement, panicking on invalid input. For layouts fixed
// at compile time.
func FFE(position int, negate bool, extensionDegree int) FiniteFieldElement {
	e, err := NewFiniteFieldElement(position, negate, extensionDegree)
	if err != nil {
		panic(err)
	}
	return e
}

func (e FiniteFieldElement) Position() int        { return e.position }
func (e FiniteFieldElement) Negate() bool         { return e.negate }
func (e FiniteFieldElement) ExtensionDegree() int { return e.extensionDegree }
func (e FiniteFieldElement) Length() int          { return e.extensionDegree }

func (e FiniteFieldElement) IsBefore(other Element) bool {
	return e.position > anchor(other)
}

func (e FiniteFieldElement) OverlapsOnTheRight(other Element) (bool, string) {
	if e.position-e.extensionDegree < anchor(other) {
		return true, fmt.Sprintf("self.position: %d, self.extension_degree: %d, other.position: %d",
			e.position, e.extensionDegree, anchor(other))
	}
	return false, ""
}

// Shift returns a copy of the descriptor with position increased by n.
func (e FiniteFieldElement) Shift(n int) FiniteFieldElement {
	e.position += n
	return e
}

// SetNegate returns a copy of the descriptor with the negate flag set.
func (e FiniteFieldElement) SetNegate(negate bool) FiniteFieldElement {
	e.negate = negate
	return e
}

// ExtractComponent returns the descriptor of a single component of the
// element. Component 0 is the deepest slot.
func (e FiniteFieldElement) ExtractComponent(component int) FiniteFieldElement {
	if component < 0 || component >= e.extensionDegree {
		panic(fmt.Sprintf("component %d out of range for extension degree %d", component, e.extensionDegree))
	}
	return FiniteFieldElement{position: e.position - component, negate: e.negate, extensionDegree: 1}
}

// EllipticCurvePoint is a curve point laid out as two consecutive field
// elements (x below y); the point's negate flag is the y coordinate's.
type EllipticCurvePoint struct {
	X FiniteFieldElement
	Y FiniteFieldElement
}

// NewEllipticCurvePoint returns a descriptor of a curve point. The
// coordinates must not overlap and must share an extension degree.
func NewEllipticCurvePoint(x, y FiniteFieldElement) (EllipticCurvePoint, error) {
	if overlaps, msg := x.OverlapsOnTheRight(y); overlaps {
		return EllipticCurvePoint{}, fmt.Errorf("%w: x and y coordinates: %s", ErrOverlap, msg)
	}
	if x.extensionDegree != y.extensionDegree {
		return EllipticCurvePoint{}, fmt.Errorf("%w: x.extension_degree: %d, y.extension_degree: %d",
			ErrDegreeMismatch, x.extensionDegree, y.extensionDegree)
	}
	return EllipticCurvePoint{X: x, Y: y}, nil
}

// ECP is NewEllipticCurvePoint, panicking on invalid input.
func ECP(x, y FiniteFieldElement) EllipticCurvePoint {
	p, err := NewEllipticCurvePoint(x, y)
	if err != nil {
		panic(err)
	}
	return p
}

func (p EllipticCurvePoint) Position() int { return p.X.position }
func (p EllipticCurvePoint) Negate() bool  { return p.Y.negate }
func (p EllipticCurvePoint) Length() int   { return 2 * p.X.extensionDegree }

func (p EllipticCurvePoint) IsBefore(other Element) bool {
	return p.Y.IsBefore(other)
}

func (p EllipticCurvePoint) OverlapsOnTheRight(other Element) (bool, string) {
	return p.Y.OverlapsOnTheRight(other)
}

// Shift returns a copy of the descriptor with both coordinates shifted by n.
func (p EllipticCurvePoint) Shift(n int) EllipticCurvePoint {
	return EllipticCurvePoint{X: p.X.Shift(n), Y: p.Y.Shift(n)}
}

// SetNegate returns a copy of the descriptor with the negate flag set.
func (p EllipticCurvePoint) SetNegate(negate bool) EllipticCurvePoint {
	p.Y = p.Y.SetNegate(negate)
	return p
}

// CheckOrder verifies that the elements neither overlap nor are out of the
// declared bottom-to-top order.
func CheckOrder(elements []Element) error {
	for i := 0; i < len(elements)-1; i++ {
		if overlaps, msg := elements[i].OverlapsOnTheRight(elements[i+1]); overlaps {
			return fmt.Errorf("%w: %s (index of self: %d, index of other: %d)", ErrOverlap, msg, i, i+1)
		}
	}
	for i := 0; i < len(elements)-1; i++ {
		if !elements[i].IsBefore(elements[i+1]) {
			return fmt.Errorf("%w: element %d is not before element %d", ErrOutOfOrder, i, i+1)
		}
	}
	return nil
}

// BitmaskToBooleanList expands a rolling-option bitmask into n booleans, bit
// 0 first.
func BitmaskToBooleanList(bitmask int, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = bitmask>>i&1 == 1
	}
	return out
}

// BooleanListToBitmask packs booleans into a bitmask, index 0 at bit 0.
func BooleanListToBitmask(list []bool) int {
	bitmask := 0
	for i, v := range list {
		if v {
			bitmask |= 1 << i
		}
	}
	return bitmask
}
