package script

import (
	"fmt"
	"math/big"

	"github.com/zkscript/zkscript/stack"
)

// MovingFunction brings elements to the top of the stack, either destructively
// (Roll) or by duplication (Pick).
type MovingFunction func(position, nElements int) Script

// pattern tables for the short fixed sequences that beat a generic
// <n> OP_PICK / <n> OP_ROLL pair.
var patternsToPick = map[[2]int][]byte{
	{0, 1}: {OP_DUP},
	{1, 1}: {OP_OVER},
	{1, 2}: {OP_2DUP},
	{3, 2}: {OP_2OVER},
	{3, 4}: {OP_2OVER, OP_2OVER},
}

var patternsToRoll = map[[2]int][]byte{
	{1, 1}: {OP_SWAP},
	{2, 1}: {OP_ROT},
	{2, 2}: {OP_ROT, OP_ROT},
	{3, 2}: {OP_2SWAP},
	{5, 2}: {OP_2ROT},
	{5, 4}: {OP_2ROT, OP_2ROT},
}

func smallIntOpcode(n int) (byte, bool) {
	switch {
	case n == -1:
		return OP_1NEGATE, true
	case n == 0:
		return OP_0, true
	case n >= 1 && n <= 16:
		return OP_1 + byte(n-1), true
	}
	return 0, false
}

func checkMoveBounds(position, nElements int) {
	if position >= 0 && position < nElements-1 {
		panic(fmt.Sprintf("when positive, position must be at least equal to n_elements - 1: position: %d, n_elements: %d",
			position, nElements))
	}
}

// Pick emits the script duplicating elements x_{position}, ...,
// x_{position-nElements+1} to the top of the stack. Position 0 is the top;
// negative positions count from the bottom, -1 being the bottommost element.
// Pick panics when the requested range extends past the top, which is a
// layout-computation bug in the calling generator.
func Pick(position, nElements int) Script {
	checkMoveBounds(position, nElements)

	out := New()

	if ops, ok := patternsToPick[[2]int{position, nElements}]; ok {
		return *out.PushOp(ops...)
	}
	switch {
	case position >= 0 && position <= 16:
		op, _ := smallIntOpcode(position)
		for i := 0; i < nElements; i++ {
			out.PushOp(op, OP_PICK)
		}
	case position < 0:
		ixToPick := position
		for i := 0; i < nElements; i++ {
			out.PushOp(OP_DEPTH)
			if ixToPick == -1 {
				out.PushOp(OP_1SUB)
			} else {
				out.PushInt64(int64(-ixToPick))
				out.PushOp(OP_SUB)
			}
			out.PushOp(OP_PICK)
			ixToPick--
		}
	default:
		numEncoded := EncodeNum(big.NewInt(int64(position)))
		for i := 0; i < nElements; i++ {
			out.PushData(numEncoded)
			out.PushOp(OP_PICK)
		}
	}

	return out
}

// Roll emits the script moving elements x_{position}, ...,
// x_{position-nElements+1} to the top of the stack, removing them from their
// original position. Same position conventions and panic behavior as Pick.
func Roll(position, nElements int) Script {
	checkMoveBounds(position, nElements)

	if position == nElements-1 {
		return New()
	}

	out := New()

	if ops, ok := patternsToRoll[[2]int{position, nElements}]; ok {
		return *out.PushOp(ops...)
	}
	switch {
	case position >= 1 && position <= 16:
		op, _ := smallIntOpcode(position)
		for i := 0; i < nElements; i++ {
			out.PushOp(op, OP_ROLL)
		}
	case position < 0:
		for i := 0; i < nElements; i++ {
			out.PushOp(OP_DEPTH)
			if position == -1 {
				out.PushOp(OP_1SUB)
			} else {
				out.PushInt64(int64(-position))
				out.PushOp(OP_SUB)
			}
			out.PushOp(OP_ROLL)
		}
	default:
		numEncoded := EncodeNum(big.NewInt(int64(position)))
		for i := 0; i < nElements; i++ {
			out.PushData(numEncoded)
			out.PushOp(OP_ROLL)
		}
	}

	return out
}

// BoolToMovingFunction maps a rolling flag to the corresponding moving
// function.
func BoolToMovingFunction(isRolled bool) MovingFunction {
	if isRolled {
		return Roll
	}
	return Pick
}

// Move emits the script bringing all slots of element to the top of the
// stack with the given moving function.
func Move(element stack.Element, moving MovingFunction) Script {
	return MoveRange(element, moving, 0, element.Length())
}

// MoveRange emits the script bringing slots [startIndex, endIndex) of element
// to the top of the stack. It panics when the requested slots are out of the
// element's declared bounds.
func MoveRange(element stack.Element, moving MovingFunction, startIndex, endIndex int) Script {
	if startIndex < 0 {
		panic(fmt.Sprintf("start index must be positive: start_index: %d", startIndex))
	}
	if element.Length() < endIndex {
		panic(fmt.Sprintf("moving more elements than self: self has %d elements, end_index: %d",
			element.Length(), endIndex))
	}
	return moving(element.Position()-startIndex, endIndex-startIndex)
}

// NumsToScript pushes a list of integers with minimal encoding.
func NumsToScript(nums []*big.Int) Script {
	out := New()
	for _, n := range nums {
		out.PushInt(n)
	}
	return out
}

// Mod emits a modulo reduction. prep is an ASM fragment run first (commonly
// "OP_FROMALTSTACK OP_ROT" to pull the next component under the modulus);
// isModOnTop states whether the modulus is the top element after prep;
// isPositive forces a non-negative representative; isConstantReused leaves
// the modulus as the second-to-top element afterwards.
func Mod(prep string, isModOnTop, isPositive, isConstantReused bool) Script {
	out := MustParse(prep)

	switch {
	case isPositive && isConstantReused && isModOnTop:
		out.PushOp(OP_TUCK, OP_MOD, OP_OVER, OP_ADD, OP_OVER, OP_MOD)
	case isPositive && isConstantReused && !isModOnTop:
		out.PushOp(OP_OVER, OP_MOD, OP_OVER, OP_ADD, OP_OVER, OP_MOD)
	case isPositive && !isConstantReused && isModOnTop:
		out.PushOp(OP_TUCK, OP_MOD, OP_OVER, OP_ADD, OP_SWAP, OP_MOD)
	case isPositive && !isConstantReused && !isModOnTop:
		out.PushOp(OP_OVER, OP_MOD, OP_OVER, OP_ADD, OP_SWAP, OP_MOD)
	case !isPositive && isConstantReused && isModOnTop:
		out.PushOp(OP_TUCK, OP_MOD)
	case !isPositive && isConstantReused && !isModOnTop:
		out.PushOp(OP_OVER, OP_MOD)
	case !isPositive && !isConstantReused && isModOnTop:
		out.PushOp(OP_MOD)
	default:
		out.PushOp(OP_SWAP, OP_MOD)
	}

	return out
}

// ModFromAlt is Mod with the default "OP_FROMALTSTACK OP_ROT" preparation.
func ModFromAlt(isPositive, isConstantReused bool) Script {
	return Mod("OP_FROMALTSTACK OP_ROT", true, isPositive, isConstantReused)
}

// VerifyBottomConstant emits the check that the bottommost stack element
// equals n, terminating execution on mismatch.
func VerifyBottomConstant(n *big.Int) Script {
	out := New()
	out.PushOp(OP_DEPTH, OP_1SUB, OP_PICK)
	out.PushInt(n)
	out.PushOp(OP_EQUALVERIFY)
	return out
}

// FetchBottomConstant emits the script bringing the bottommost stack element
// (the modulus) to the top, removing it when clean is set.
func FetchBottomConstant(clean bool) Script {
	out := New()
	if clean {
		out.PushOp(OP_DEPTH, OP_1SUB, OP_ROLL)
	} else {
		out.PushOp(OP_DEPTH, OP_1SUB, OP_PICK)
	}
	return out
}
