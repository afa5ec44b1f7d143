package fields

import (
	"math/big"

	"github.com/zkscript/zkscript/script"
)

// Fq2 generates scripts for arithmetic in F_q^2 = F_q[u] / (u^2 - nonResidue).
// Elements are laid out as (x0, x1) with x = x0 + x1*u, x0 deepest.
//
// MulByNonResidue is the towering hook: it multiplies the top element by the
// non-residue chosen for the next extension level. NewFq2 defaults it to
// MulByU; towers over a different non-residue (e.g. 1+u for BLS12-381)
// override it after construction.
type Fq2 struct {
	Extension
	NonResidue      *big.Int
	MulByNonResidue func(cfg script.ModConfig) script.Script
}

// NewFq2 returns the script generator for F_q^2 with the given non-residue.
func NewFq2(q, nonResidue *big.Int) *Fq2 {
	f := &Fq2{
		Extension:  newExtension(q, 2),
		NonResidue: new(big.Int).Set(nonResidue),
	}
	f.MulByNonResidue = f.MulByU
	return f
}

func (f *Fq2) nonResidueIsMinusOne() bool {
	return f.NonResidue.Cmp(big.NewInt(-1)) == 0
}

// scale appends a multiplication by a compile-time scalar when it is not 1.
func scale(out *script.Script, scalar int64) {
	if scalar != 1 {
		out.PushInt64(scalar)
		out.PushOp(script.OP_MUL)
	}
}

// batchedModulo reduces the component on the stack and then the component on
// the altstack.
func (f *Fq2) batchedModulo(cfg script.ModConfig) script.Script {
	out := script.FetchBottomConstant(cfg.CleanConstant)
	out.Append(script.Mod("", true, cfg.PositiveModulo, true))
	out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	return out
}

// Add emits the script computing scalar * (x + y).
//
// Stack in:  [q, .., x := (x0, x1), y := (y0, y1)]
// Stack out: [q, .., scalar * (x0 + y0), scalar * (x1 + y1)]
func (f *Fq2) Add(cfg script.ModConfig, scalar int64) script.Script {
	out := cfg.VerifyConstant(f.Q)

	// x1 + y1 to the altstack, x0 + y0 on the stack
	out.PushOp(script.OP_ROT, script.OP_ADD)
	scale(&out, scalar)
	out.PushOp(script.OP_TOALTSTACK)
	out.PushOp(script.OP_ADD)
	scale(&out, scalar)

	if cfg.TakeModulo {
		out.Append(f.batchedModulo(cfg))
	} else {
		out.PushOp(script.OP_FROMALTSTACK)
	}
	return out
}

// Subtract emits the script computing x - y.
func (f *Fq2) Subtract(cfg script.ModConfig) script.Script {
	out := cfg.VerifyConstant(f.Q)

	out.PushOp(script.OP_ROT, script.OP_SWAP, script.OP_SUB, script.OP_TOALTSTACK)
	out.PushOp(script.OP_SUB)

	if cfg.TakeModulo {
		out.Append(f.batchedModulo(cfg))
	} else {
		out.PushOp(script.OP_FROMALTSTACK)
	}
	return out
}

// Negate emits the script computing -x.
func (f *Fq2) Negate(cfg script.ModConfig) script.Script {
	out := cfg.VerifyConstant(f.Q)

	out.PushOp(script.OP_NEGATE, script.OP_TOALTSTACK)
	out.PushOp(script.OP_NEGATE)

	if cfg.TakeModulo {
		out.Append(f.batchedModulo(cfg))
	} else {
		out.PushOp(script.OP_FROMALTSTACK)
	}
	return out
}

// ScalarMul emits the script multiplying x by a base-field scalar sitting on
// top of it.
//
// Stack in:  [q, .., x := (x0, x1), lambda]
// Stack out: [q, .., lambda * x0, lambda * x1]
func (f *Fq2) ScalarMul(cfg script.ModConfig) script.Script {
	out := cfg.VerifyConstant(f.Q)

	out.PushOp(script.OP_TUCK, script.OP_MUL, script.OP_TOALTSTACK)
	out.PushOp(script.OP_MUL)

	if cfg.TakeModulo {
		out.Append(f.batchedModulo(cfg))
	} else {
		out.PushOp(script.OP_FROMALTSTACK)
	}
	return out
}

// Mul emits the script computing scalar * (x * y) with the schoolbook
// formula (x0*y0 + x1*y1*nonResidue, x0*y1 + x1*y0); the non-residue -1 case
// folds the first component into a single subtraction.
func (f *Fq2) Mul(cfg script.ModConfig, scalar int64) script.Script {
	out := cfg.VerifyConstant(f.Q)

	// first component: x0*y0 + x1*y1*nonResidue
	out.PushOp(script.OP_2OVER, script.OP_2OVER)
	out.PushOp(script.OP_ROT, script.OP_MUL, script.OP_TOALTSTACK)
	out.PushOp(script.OP_MUL, script.OP_FROMALTSTACK)
	if f.nonResidueIsMinusOne() {
		out.PushOp(script.OP_SUB)
	} else {
		out.PushInt(f.NonResidue)
		out.PushOp(script.OP_MUL, script.OP_ADD)
	}
	scale(&out, scalar)

	// second component: x0*y1 + x1*y0
	out.PushOp(script.OP_2SWAP, script.OP_MUL)
	out.PushOp(script.OP_2SWAP, script.OP_MUL)
	out.PushOp(script.OP_ADD)
	scale(&out, scalar)

	if cfg.TakeModulo {
		out.PushOp(script.OP_TOALTSTACK)
		out.Append(f.batchedModulo(cfg))
	}
	return out
}

// Square emits the script computing x^2. For non-residue -1 the first
// component is the single product (x0-x1)(x0+x1).
func (f *Fq2) Square(cfg script.ModConfig) script.Script {
	out := cfg.VerifyConstant(f.Q)

	if f.nonResidueIsMinusOne() {
		out.PushOp(script.OP_2DUP, script.OP_2DUP)
		out.PushOp(script.OP_SUB, script.OP_2SWAP, script.OP_ADD, script.OP_MUL)

		if cfg.TakeModulo {
			out.Append(script.FetchBottomConstant(cfg.CleanConstant))
			out.Append(script.Mod("", true, cfg.PositiveModulo, true))
			out.Append(script.Mod("OP_2SWAP OP_MUL OP_2 OP_MUL OP_ROT", true, cfg.PositiveModulo, cfg.IsConstantReused))
		} else {
			out.PushOp(script.OP_ROT, script.OP_ROT, script.OP_MUL, script.OP_2, script.OP_MUL)
		}
	} else {
		out.PushOp(script.OP_2DUP, script.OP_2, script.OP_MUL, script.OP_MUL, script.OP_TOALTSTACK)

		out.PushOp(script.OP_DUP)
		out.PushInt(f.NonResidue)
		out.PushOp(script.OP_MUL, script.OP_MUL)
		out.PushOp(script.OP_SWAP, script.OP_DUP, script.OP_MUL, script.OP_ADD)

		if cfg.TakeModulo {
			out.Append(f.batchedModulo(cfg))
		} else {
			out.PushOp(script.OP_FROMALTSTACK)
		}
	}
	return out
}

// AddThree emits the script computing x + y + z.
//
// If the final modulo is taken, the components of the operands must be
// non-negative.
func (f *Fq2) AddThree(cfg script.ModConfig) script.Script {
	out := cfg.VerifyConstant(f.Q)

	out.PushOp(script.OP_ROT, script.OP_ADD, script.OP_TOALTSTACK)
	out.PushOp(script.OP_ADD, script.OP_ROT, script.OP_ADD)

	if cfg.TakeModulo {
		out.Append(script.FetchBottomConstant(cfg.CleanConstant))
		out.Append(script.Mod("", true, cfg.PositiveModulo, true))
		out.Append(script.Mod("OP_SWAP OP_ROT OP_FROMALTSTACK OP_ADD", false, cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.PushOp(script.OP_SWAP)
		out.PushOp(script.OP_FROMALTSTACK, script.OP_ADD)
	}
	return out
}

// Conjugate emits the script computing (x0, -x1).
func (f *Fq2) Conjugate(cfg script.ModConfig) script.Script {
	out := cfg.VerifyConstant(f.Q)

	out.PushOp(script.OP_NEGATE)

	if cfg.TakeModulo {
		out.PushOp(script.OP_TOALTSTACK)
		out.Append(f.batchedModulo(cfg))
	}
	return out
}

// MulByU emits the script multiplying x by u: (x0 + x1*u) * u =
// x1*nonResidue + x0*u.
func (f *Fq2) MulByU(cfg script.ModConfig) script.Script {
	out := cfg.VerifyConstant(f.Q)

	if f.nonResidueIsMinusOne() {
		out.PushOp(script.OP_NEGATE)
	} else {
		out.PushInt(f.NonResidue)
		out.PushOp(script.OP_MUL)
	}

	if cfg.TakeModulo {
		out.Append(script.FetchBottomConstant(cfg.CleanConstant))
		out.Append(script.Mod("", true, cfg.PositiveModulo, true))
		out.Append(script.Mod("OP_ROT OP_ROT", true, cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.PushOp(script.OP_SWAP)
	}
	return out
}

// MulByOnePlusU emits the script multiplying x by 1 + u:
// (x0 + x1*nonResidue, x0 + x1).
func (f *Fq2) MulByOnePlusU(cfg script.ModConfig) script.Script {
	out := cfg.VerifyConstant(f.Q)

	out.PushOp(script.OP_2DUP, script.OP_ADD, script.OP_TOALTSTACK)
	switch {
	case f.nonResidueIsMinusOne():
		out.PushOp(script.OP_NEGATE, script.OP_ADD)
	case f.NonResidue.Sign() > 0:
		out.PushInt(f.NonResidue)
		out.PushOp(script.OP_MUL, script.OP_ADD)
	default:
		out.PushInt(new(big.Int).Abs(f.NonResidue))
		out.PushOp(script.OP_NEGATE, script.OP_MUL, script.OP_ADD)
	}

	if cfg.TakeModulo {
		out.Append(f.batchedModulo(cfg))
	} else {
		out.PushOp(script.OP_FROMALTSTACK)
	}
	return out
}
