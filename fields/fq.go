// Package fields generates Bitcoin Script programs for arithmetic in a prime
// field F_q and in tower extensions of it (quadratic and cubic levels up to
// degree 12). Extension levels are composed recursively: each level owns the
// script generator of its base field and expresses its own operations through
// it, following the standard tower-extension formulas.
//
// Every operation is a pure function of the operand stack descriptors and the
// modulo-discipline flags: the same inputs always produce byte-identical
// scripts. Caller-supplied descriptors are validated and construction fails
// with a named error; layout arithmetic internal to a generator panics on
// violation, as that is a generator bug rather than caller error.
package fields

import (
	"math/big"

	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/stack"
)

// Fq generates scripts for arithmetic operations in F_q.
type Fq struct {
	// Q is the characteristic of the field.
	Q *big.Int
}

// NewFq returns the script generator for F_q.
func NewFq(q *big.Int) Fq {
	return Fq{Q: new(big.Int).Set(q)}
}

// AlgebraicSum emits the script computing ±x ±y, the signs taken from the
// negate flags of the operand descriptors.
//
// Stack in:  [q, .., x, .., y, ..]
// Stack out: [q, .., ±x ±y]
func (f Fq) AlgebraicSum(cfg script.ModConfig, x, y stack.FiniteFieldElement, rollingOptions int) (script.Script, error) {
	if err := stack.CheckOrder([]stack.Element{x, y}); err != nil {
		return script.Script{}, err
	}
	rolled := stack.BitmaskToBooleanList(rollingOptions, 2)
	isXRolled, isYRolled := rolled[0], rolled[1]

	out := cfg.VerifyConstant(f.Q)

	out.Append(script.Move(y, script.BoolToMovingFunction(isYRolled)))
	out.Append(script.Move(x.Shift(boolToInt(!isYRolled)), script.BoolToMovingFunction(isXRolled)))
	if x.Negate() == y.Negate() {
		out.PushOp(script.OP_ADD)
	} else {
		out.PushOp(script.OP_SUB)
	}
	if y.Negate() {
		out.PushOp(script.OP_NEGATE)
	}
	if cfg.TakeModulo {
		out.Append(script.FetchBottomConstant(cfg.CleanConstant))
		out.Append(script.Mod("", true, cfg.PositiveModulo, cfg.IsConstantReused))
	}
	return out, nil
}

// Inverse emits the script computing x^-1 as x^(q-2) via a square-and-multiply
// chain over the bits of q-2, reducing after every modFrequency
// multiplications to keep intermediate magnitudes bounded. A zero input maps
// to zero.
func (f Fq) Inverse(cfg script.ModConfig, x stack.FiniteFieldElement, rollingOption int, modFrequency int) script.Script {
	isXRolled := stack.BitmaskToBooleanList(rollingOption, 1)[0]

	exponent := new(big.Int).Sub(f.Q, big.NewInt(2))

	out := cfg.VerifyConstant(f.Q)
	out.Append(script.Move(x, script.BoolToMovingFunction(isXRolled)))
	if x.Negate() {
		out.PushOp(script.OP_NEGATE)
	}

	// q = 2 and q = 3 invert trivially
	if f.Q.Cmp(big.NewInt(3)) > 0 {
		out.PushOp(script.OP_DUP)

		mulTracker := 0
		nBits := exponent.BitLen()
		for i := nBits - 2; i >= 1; i-- {
			if exponent.Bit(i) == 0 {
				out.PushOp(script.OP_DUP, script.OP_MUL)
				mulTracker++
			} else {
				out.PushOp(script.OP_DUP, script.OP_MUL, script.OP_OVER, script.OP_MUL)
				mulTracker += 2
			}
			if mulTracker >= modFrequency {
				out.Append(script.Pick(-1, 1))
				out.Append(script.Mod("", true, false, false))
				mulTracker = 0
			}
		}

		out.PushOp(script.OP_DUP, script.OP_MUL, script.OP_MUL)
	}

	if cfg.TakeModulo {
		out.Append(script.FetchBottomConstant(cfg.CleanConstant))
		out.Append(script.Mod("", true, cfg.PositiveModulo, cfg.IsConstantReused))
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// mustScript unwraps generator results whose inputs are fixed by the calling
// generator's own layout computation.
func mustScript(s script.Script, err error) script.Script {
	if err != nil {
		panic(err)
	}
	return s
}
