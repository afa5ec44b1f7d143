package ec

import (
	"math/big"

	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/stack"
)

// infinityBytes is the in-script encoding of the point at infinity: two data
// pushes of the byte 0x00 (not the number zero).
var infinityBytes = []byte{0x00}

// PointAdditionWithUnknownPoints emits the script computing P + Q when the
// relation between P and Q is unknown: the script branches on P == Q,
// P == -Q, and either operand being the point at infinity.
//
// Stack in:  [q, .., gradient, P, Q]
// Stack out: [{q}, .., P + Q]
//
// When P != -Q and neither point is at infinity, the gradient of the line
// through P and Q must sit below P; in every other case no gradient is
// passed. The gradient is always verified in script.
func (c *CurveFq) PointAdditionWithUnknownPoints(cfg script.ModConfig) script.Script {
	out := cfg.VerifyConstant(c.Q)

	// Check if Q is (0x00, 0x00), in that case terminate and return P
	out.PushOp(script.OP_2DUP, script.OP_CAT)
	out.PushData([]byte{0x00, 0x00})
	out.PushOp(script.OP_EQUAL, script.OP_NOT)
	out.PushOp(script.OP_IF)

	// Check if P is (0x00, 0x00), in that case terminate and return Q
	out.PushOp(script.OP_2OVER, script.OP_CAT)
	out.PushData([]byte{0x00, 0x00})
	out.PushOp(script.OP_EQUAL, script.OP_NOT)
	out.PushOp(script.OP_IF)

	// Check if P = -Q, in that case terminate and return (0x00, 0x00)
	out.PushOp(script.OP_DUP)
	out.Append(script.Pick(3, 1))
	out.PushOp(script.OP_ADD)
	out.PushOp(script.OP_DEPTH, script.OP_1SUB, script.OP_PICK, script.OP_MOD, script.OP_0NOTEQUAL)
	out.PushOp(script.OP_IF)

	// Compute the gradient residue and park it on the altstack: the tangent
	// equation when P = Q, the chord equation otherwise.
	out.PushOp(script.OP_2OVER, script.OP_2OVER)
	out.PushOp(script.OP_CAT)
	out.PushOp(script.OP_ROT, script.OP_ROT)
	out.PushOp(script.OP_CAT)
	out.PushOp(script.OP_EQUAL)

	out.PushOp(script.OP_IF)
	out.PushOp(script.OP_DUP)
	out.PushOp(script.OP_2, script.OP_MUL)
	out.Append(script.Pick(3, 1))
	out.PushOp(script.OP_MUL)
	out.Append(script.Pick(2, 1))
	out.PushOp(script.OP_DUP)
	out.PushOp(script.OP_MUL)
	out.PushOp(script.OP_3, script.OP_MUL)
	if c.A.Sign() != 0 {
		out.PushInt(c.A)
		out.PushOp(script.OP_ADD)
	}
	out.PushOp(script.OP_SUB)

	out.PushOp(script.OP_ELSE)
	out.Append(script.Pick(4, 2))
	out.PushOp(script.OP_MUL, script.OP_ADD)
	out.PushOp(script.OP_OVER, script.OP_5, script.OP_PICK, script.OP_MUL, script.OP_3, script.OP_PICK, script.OP_ADD)
	out.PushOp(script.OP_SUB)
	out.PushOp(script.OP_ENDIF)

	out.PushOp(script.OP_TOALTSTACK)

	// x(P+Q) = gradient^2 - xP - xQ
	out.PushOp(script.OP_2OVER)
	out.PushOp(script.OP_SWAP)
	out.PushOp(script.OP_DUP, script.OP_MUL)
	out.PushOp(script.OP_ROT, script.OP_ROT, script.OP_ADD, script.OP_SUB)

	// y(P+Q) = gradient * (xP - x(P+Q)) - yP
	out.PushOp(script.OP_TUCK)
	out.PushOp(script.OP_2SWAP)
	out.PushOp(script.OP_SUB)
	out.PushOp(script.OP_2SWAP, script.OP_TOALTSTACK)
	out.PushOp(script.OP_MUL, script.OP_FROMALTSTACK, script.OP_SUB)

	if cfg.TakeModulo {
		out.PushOp(script.OP_TOALTSTACK)
		out.Append(script.Pick(-1, 1))
		out.Append(script.Mod("", true, cfg.PositiveModulo, true))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, false))
	}

	// Check the parked gradient residue is 0 mod q
	out.PushOp(script.OP_FROMALTSTACK)
	out.Append(script.Mod("OP_DEPTH OP_1SUB OP_PICK", true, false, false))
	out.PushOp(script.OP_0, script.OP_EQUALVERIFY)

	// Termination because P = -Q
	out.PushOp(script.OP_ELSE)
	out.PushOp(script.OP_2DROP, script.OP_2DROP)
	out.PushData(infinityBytes)
	out.PushData(infinityBytes)
	out.PushOp(script.OP_ENDIF)

	// Termination because P = (0x00, 0x00)
	out.PushOp(script.OP_ELSE)
	out.PushOp(script.OP_2SWAP, script.OP_2DROP)
	out.PushOp(script.OP_ENDIF)

	// Termination because Q = (0x00, 0x00)
	out.PushOp(script.OP_ELSE)
	out.PushOp(script.OP_2DROP)
	out.PushOp(script.OP_ENDIF)

	if cfg.CleanConstant {
		out.Append(script.Roll(-1, 1))
		out.PushOp(script.OP_DROP)
	}

	return out
}

// MultiAddition emits the script summing n := nPointsOnStack +
// nPointsOnAltstack points, folding first the points on the stack and then
// those parked on the altstack. Each fold is a PointAdditionWithUnknownPoints
// and consumes the gradient laid below the running sum.
//
// Stack in:  [gradient_n, .., gradient_3, P_3, gradient_2, P_2, P_1]
// Altstack:  [P_n, .., P_(nPointsOnStack+1)]
// Stack out: [P_1 + .. + P_n]
func (c *CurveFq) MultiAddition(
	nPointsOnStack, nPointsOnAltstack int,
	cfg script.ModConfig,
) script.Script {
	out := cfg.VerifyConstant(c.Q)

	inner := c.PointAdditionWithUnknownPoints(script.ModConfig{})

	for i := 0; i < nPointsOnStack-1; i++ {
		out.Append(inner)
	}

	if nPointsOnStack == 0 {
		out.PushOp(script.OP_FROMALTSTACK, script.OP_FROMALTSTACK)
		nPointsOnAltstack--
	}

	for i := 0; i < nPointsOnAltstack; i++ {
		out.PushOp(script.OP_FROMALTSTACK, script.OP_FROMALTSTACK)
		out.Append(inner)
	}

	if cfg.TakeModulo {
		// The point at infinity is not a pair of numbers; skip the reduction
		out.PushOp(script.OP_2DUP, script.OP_CAT)
		out.PushData([]byte{0x00, 0x00})
		out.PushOp(script.OP_EQUAL, script.OP_NOT, script.OP_IF)
		out.PushOp(script.OP_TOALTSTACK)
		out.Append(script.Pick(-1, 1))
		out.Append(script.Mod("", true, cfg.PositiveModulo, true))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, false))
		out.PushOp(script.OP_ENDIF)
	}

	if cfg.CleanConstant {
		out.Append(script.Roll(-1, 1))
		out.PushOp(script.OP_DROP)
	}

	return out
}

// UnrolledMultiplication emits the unrolled double-and-add loop computing
// a*P for a scalar a <= maxMultiplier. Each iteration is gated by markers
// laid on the stack by UnrolledMultiplicationInput; intermediate values grow
// unreduced until their estimated bit size crosses moduloThreshold, at which
// point a reduction is emitted.
//
// Stack in:  [q, .., marker_a_is_zero, gradient_operations, P := (xP, yP)]
// Stack out: [q, .., P, aP]
//
// With fixedLengthUnlock the unlocking script is expected padded to the
// length of the worst-case scalar, and each skipped iteration clears its
// padding slots.
func (c *CurveFq) UnrolledMultiplication(
	maxMultiplier *big.Int,
	moduloThreshold int,
	cfg script.ModConfig,
	fixedLengthUnlock bool,
) script.Script {
	out := cfg.VerifyConstant(c.Q)

	// stack in:  [marker_a_is_zero, [lambdas, a], P]
	// stack out: [marker_a_is_zero, [lambdas, a], P, T]
	out.PushOp(script.OP_2DUP)

	sizeQ := c.Q.BitLen()
	currentSize := sizeQ

	gradient := stack.FFE(4, false, 1)
	doubleP := stack.ECP(stack.FFE(1, false, 1), stack.FFE(0, false, 1))
	addP := stack.ECP(stack.FFE(3, false, 1), stack.FFE(2, false, 1))
	addQ := stack.ECP(stack.FFE(1, false, 1), stack.FFE(0, false, 1))

	additionRolling := stack.BooleanListToBitmask([]bool{!fixedLengthUnlock, false, true})

	for i := maxMultiplier.BitLen() - 2; i >= 0; i-- {
		// Both the doubling and the addition must be accounted for, as which
		// branches execute depends on the scalar.
		sizeAfterOperations := 2 * 4 * currentSize
		stepCfg := script.ModConfig{}
		if sizeAfterOperations > moduloThreshold || i == 0 {
			stepCfg.TakeModulo = true
			stepCfg.PositiveModulo = cfg.PositiveModulo && i == 0
			currentSize = sizeQ
		} else {
			currentSize = sizeAfterOperations
		}

		// stack in:  [auxiliary_data, marker_doubling, P, T]
		// stack out: [P, T] if marker_doubling = 0, else [P, 2T]
		out.Append(script.Roll(4, 1))
		out.PushOp(script.OP_IF)
		out.Append(mustScript(c.PointAlgebraicDoubling(stepCfg, true, BottomModulus(), gradient, doubleP, 3)))

		// stack in:  [auxiliary_data_addition, marker_addition, P, 2T]
		// stack out: [P, 2T] if marker_addition = 0, else [P, (2T+P)]
		out.Append(script.Roll(4, 1))
		out.PushOp(script.OP_IF)
		out.Append(mustScript(c.PointAlgebraicAddition(stepCfg, true, BottomModulus(), gradient, addP, addQ, additionRolling)))

		if fixedLengthUnlock {
			out.PushOp(script.OP_ENDIF, script.OP_ELSE)
			out.Append(script.Roll(5, 2))
			out.PushOp(script.OP_2DROP, script.OP_ENDIF)
			out.Append(script.Roll(4, 1))
			out.PushOp(script.OP_DROP)
		} else {
			out.PushOp(script.OP_ENDIF, script.OP_ENDIF)
		}
	}

	// stack in:  [marker_a_is_zero, P, aP]
	// stack out: [P, 0x00, 0x00] if a == 0, else [P, aP]
	out.Append(script.Roll(4, 1))
	out.PushOp(script.OP_IF)
	out.PushOp(script.OP_2DROP)
	out.PushData(infinityBytes)
	out.PushData(infinityBytes)
	out.PushOp(script.OP_ENDIF)

	if cfg.CleanConstant {
		out.PushOp(script.OP_DEPTH, script.OP_1SUB, script.OP_ROLL, script.OP_DROP)
	}

	return out
}

// UnrolledMultiplicationInput builds the unlocking-side script feeding
// UnrolledMultiplication: the modulus (optional), the zero-scalar marker, the
// per-iteration gradients interleaved with execution markers, and finally P.
// P is skipped when nil, for locking scripts that hard-code the base.
//
// gradients[j] holds the doubling gradient at gradients[j][0] and, when bit
// (N-j-1) of a is set, the addition gradient at gradients[j][1], N being the
// index of the most significant bit of a. Iterations above N are padded with
// a skip marker each; with fixedLengthUnlock every iteration block is padded
// to four pushes so the scalar bits sit at fixed offsets.
func (c *CurveFq) UnrolledMultiplicationInput(
	p []*big.Int,
	a *big.Int,
	gradients [][][]*big.Int,
	maxMultiplier *big.Int,
	loadModulus bool,
	fixedLengthUnlock bool,
) script.Script {
	m := maxMultiplier.BitLen() - 1

	out := script.New()
	if loadModulus {
		out.PushInt(c.Q)
	}

	pad := func(iterations int) {
		perIteration := 1
		if fixedLengthUnlock {
			perIteration = 4
		}
		for i := 0; i < iterations*perIteration; i++ {
			out.PushOp(script.OP_0)
		}
	}

	if a.Sign() == 0 {
		out.PushOp(script.OP_1)
		pad(m)
	} else {
		n := a.BitLen() - 1

		// marker_a_is_zero
		out.PushOp(script.OP_0)

		for j := len(gradients) - 1; j >= 0; j-- {
			if a.Bit(n-j-1) == 1 {
				out.Append(script.NumsToScript(gradients[j][1]))
				out.PushOp(script.OP_1)
			} else {
				out.PushOp(script.OP_0)
				if fixedLengthUnlock {
					out.PushOp(script.OP_0)
				}
			}
			out.Append(script.NumsToScript(gradients[j][0]))
			out.PushOp(script.OP_1)
		}
		pad(m - n)
	}

	if p != nil {
		out.Append(script.NumsToScript(p))
	}

	return out
}

// MSMWithFixedBasesInput builds the unlocking-side script feeding
// MSMWithFixedBases: the modulus (optional), the gradients of the folding
// additions, then one UnrolledMultiplicationInput block per scalar, the first
// extractableScalars of them in the fixed-length layout.
//
// gradientsAdditions[i] is the gradient of the addition folding the (i+2)-th
// partial product into the running sum, in folding order; a nil entry is
// skipped when the corresponding addition involves the point at infinity.
func (c *CurveFq) MSMWithFixedBasesInput(
	scalars []*big.Int,
	gradientsMultiplications [][][][]*big.Int,
	maxMultipliers []*big.Int,
	gradientsAdditions [][]*big.Int,
	loadModulus bool,
	extractableScalars int,
) script.Script {
	out := script.New()
	if loadModulus {
		out.PushInt(c.Q)
	}

	for i := len(gradientsAdditions) - 1; i >= 0; i-- {
		out.Append(script.NumsToScript(gradientsAdditions[i]))
	}

	n := len(scalars)
	for i := n - 1; i >= 0; i-- {
		out.Append(c.UnrolledMultiplicationInput(
			nil,
			scalars[i],
			gradientsMultiplications[i],
			maxMultipliers[i],
			false,
			i < extractableScalars,
		))
	}

	return out
}

// MSMWithFixedBases emits the multi-scalar multiplication
// (a_1, .., a_n) -> a_1*P_1 + .. + a_n*P_n with the bases P_i hard-coded in
// the script. Each a_i*P_i is computed with UnrolledMultiplication, parked on
// the altstack, and the partial products are folded with MultiAddition.
//
// Stack in:  [gradient[..], .., a_n, gradients[a_n, P_n], .., a_1, gradients[a_1, P_1]]
// Stack out: [a_1*P_1 + .. + a_n*P_n]
//
// The first extractableScalars scalars (the last loaded on the stack) use the
// fixed-length unlocking layout so their values sit at known offsets.
func (c *CurveFq) MSMWithFixedBases(
	bases [][]*big.Int,
	maxMultipliers []*big.Int,
	moduloThreshold int,
	cfg script.ModConfig,
	extractableScalars int,
) script.Script {
	out := cfg.VerifyConstant(c.Q)

	for i, base := range bases {
		out.Append(script.NumsToScript(base))
		out.Append(c.UnrolledMultiplication(
			maxMultipliers[i],
			moduloThreshold,
			script.ModConfig{},
			i < extractableScalars,
		))
		// Park a_i * P_i on the altstack and drop the base
		out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)
		out.PushOp(script.OP_2DROP)
	}

	out.Append(c.MultiAddition(0, len(bases), script.ModConfig{
		TakeModulo:     cfg.TakeModulo,
		PositiveModulo: cfg.PositiveModulo,
		CleanConstant:  cfg.CleanConstant,
	}))

	return out
}
