package fields

import (
	"math/big"

	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/stack"
)

// Fq12Cubic generates scripts for arithmetic in F_q^12 = F_q^4[r] / (r^3 - s),
// the cubic extension of F_q^4. Elements are laid out as the triplet
// (x0, x1, x2) of F_q^4 components with x = x0 + x1*r + x2*r^2, x0 deepest.
//
// MulByNonResidue multiplies the F_q^4 element on top of the stack by s.
// NewFq12Cubic defaults it to the base field's MulByU.
type Fq12Cubic struct {
	Extension
	Fq4Field        *Fq4
	MulByNonResidue func(cfg script.ModConfig) script.Script
}

// NewFq12Cubic returns the script generator for the cubic extension of the
// given F_q^4.
func NewFq12Cubic(q *big.Int, fq4 *Fq4) *Fq12Cubic {
	f := &Fq12Cubic{
		Extension: newExtension(q, 12),
		Fq4Field:  fq4,
	}
	f.MulByNonResidue = fq4.MulByU
	return f
}

// Mul emits the script computing x * y with the schoolbook formula over
// F_q^4, folding the r^3 = s and r^4 = s*r reductions into the first and
// second components.
//
// Stack in:  [q, .., x := (x0, x1, x2), y := (y0, y1, y2)], xi, yi in F_q^4
// Stack out: [q, .., x * y]
func (f *Fq12Cubic) Mul(cfg script.ModConfig) script.Script {
	fq4 := f.Fq4Field

	out := cfg.VerifyConstant(f.Q)

	// third component: x2*y0 + x1*y1 + x0*y2 to the altstack
	out.Append(script.Pick(15, 4))
	out.Append(script.Pick(15, 4))
	out.Append(fq4.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(11, 4))
	out.Append(script.Pick(27, 4))
	out.Append(fq4.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(31, 4))
	out.Append(script.Pick(15, 4))
	out.Append(fq4.Mul(script.ModConfig{}, 1))
	out.Append(fq4.AddThree(script.ModConfig{}))
	for i := 0; i < 4; i++ {
		out.PushOp(script.OP_TOALTSTACK)
	}

	// second component: x2*y2*s + x1*y0 + x0*y1 to the altstack
	out.Append(script.Pick(15, 4))
	out.Append(script.Pick(7, 4))
	out.Append(fq4.Mul(script.ModConfig{}, 1))
	out.Append(f.MulByNonResidue(script.ModConfig{}))
	out.Append(script.Pick(15, 4))
	out.Append(script.Pick(27, 4))
	out.Append(fq4.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(15, 4))
	out.Append(script.Pick(35, 4))
	out.Append(fq4.Mul(script.ModConfig{}, 1))
	out.Append(fq4.AddThree(script.ModConfig{}))
	for i := 0; i < 4; i++ {
		out.PushOp(script.OP_TOALTSTACK)
	}

	// first component: (x2*y1 + x1*y2)*s + x0*y0 stays on the stack
	out.Append(script.Roll(15, 4))
	out.Append(script.Roll(11, 4))
	out.Append(fq4.Mul(script.ModConfig{}, 1))
	out.Append(script.Roll(15, 4))
	out.Append(script.Roll(11, 4))
	out.Append(fq4.Mul(script.ModConfig{}, 1))
	out.Append(fq4.AddTop(script.ModConfig{}))
	out.Append(f.MulByNonResidue(script.ModConfig{}))
	for i := 0; i < 4; i++ {
		out.PushOp(script.OP_TOALTSTACK)
	}
	out.Append(fq4.Mul(script.ModConfig{}, 1))
	for i := 0; i < 4; i++ {
		out.PushOp(script.OP_FROMALTSTACK)
	}

	if cfg.TakeModulo {
		out.Append(fq4.AddTop(reduceCfg(cfg)))
		for i := 0; i < 7; i++ {
			out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		}
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.Append(fq4.AddTop(script.ModConfig{}))
		for i := 0; i < 8; i++ {
			out.PushOp(script.OP_FROMALTSTACK)
		}
	}
	return out
}

// Square emits the script computing x^2 via
// (x0^2 + 2*x1*x2*s, 2*x0*x1 + x2^2*s, 2*x0*x2 + x1^2) over F_q^4.
func (f *Fq12Cubic) Square(cfg script.ModConfig) script.Script {
	fq4 := f.Fq4Field

	out := cfg.VerifyConstant(f.Q)

	// third component: 2*x2*x0 + x1^2 to the altstack
	out.PushOp(script.OP_2OVER, script.OP_2OVER)
	out.Append(script.Pick(15, 4))
	out.Append(fq4.Mul(script.ModConfig{}, 2))
	out.Append(script.Pick(11, 4))
	out.Append(fq4.Square(script.ModConfig{}, 1))
	out.Append(fq4.AddTop(script.ModConfig{}))
	for i := 0; i < 4; i++ {
		out.PushOp(script.OP_TOALTSTACK)
	}

	// second component: 2*x1*x0 + x2^2*s to the altstack
	out.Append(script.Roll(7, 4))
	out.PushOp(script.OP_2)
	out.Append(mustScript(fq4.BaseFieldScalarMul(
		script.ModConfig{}, stack.FFE(4, false, 4), stack.FFE(0, false, 1), 3,
	)))
	out.PushOp(script.OP_2OVER, script.OP_2OVER)
	out.Append(script.Pick(15, 4))
	out.Append(fq4.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(11, 4))
	out.Append(fq4.Square(script.ModConfig{}, 1))
	out.Append(f.MulByNonResidue(script.ModConfig{}))
	out.Append(fq4.AddTop(script.ModConfig{}))
	for i := 0; i < 4; i++ {
		out.PushOp(script.OP_TOALTSTACK)
	}

	// first component: 2*x1*x2*s + x0^2 stays on the stack
	out.Append(fq4.Mul(script.ModConfig{}, 1))
	out.Append(f.MulByNonResidue(script.ModConfig{}))
	for i := 0; i < 4; i++ {
		out.PushOp(script.OP_TOALTSTACK)
	}
	out.Append(fq4.Square(script.ModConfig{}, 1))
	for i := 0; i < 4; i++ {
		out.PushOp(script.OP_FROMALTSTACK)
	}

	if cfg.TakeModulo {
		out.Append(fq4.AddTop(reduceCfg(cfg)))
		for i := 0; i < 7; i++ {
			out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		}
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.Append(fq4.AddTop(script.ModConfig{}))
		for i := 0; i < 8; i++ {
			out.PushOp(script.OP_FROMALTSTACK)
		}
	}
	return out
}

// ToQuadratic emits the permutation converting an element of the cubic tower
// to the quadratic one. With x = ((a,b),(c,d),(e,f)) read as a triplet of
// F_q^4 components, the isomorphism
//
//	F_q^4[r] / (r^3 - s) ~ F_q^6[w] / (w^2 - v)
//
// maps x to ((a,e,d),(c,b,f)).
func (f *Fq12Cubic) ToQuadratic() script.Script {
	out := script.Roll(11, 2)
	out.PushOp(script.OP_2ROT)
	out.Append(script.Roll(7, 2))
	out.Append(script.Roll(9, 2))
	out.Append(script.Roll(11, 2))
	out.Append(script.Roll(11, 2))
	return out
}
