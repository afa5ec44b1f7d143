package fields

import (
	"math/big"

	"github.com/zkscript/zkscript/script"
)

// Fq6 generates scripts for arithmetic in F_q^6 = F_q^2[v] / (v^3 - xi),
// where xi is the non-residue over F_q^2 implemented by the base field's
// MulByNonResidue hook. Elements are laid out as (a, b, c) with
// x = a + b*v + c*v^2 and a, b, c in F_q^2.
//
// MulByNonResidue multiplies the top F_q^6 element by the non-residue of the
// next extension level; NewFq6 defaults it to MulByV.
type Fq6 struct {
	Extension
	BaseField       *Fq2
	MulByNonResidue func(cfg script.ModConfig) script.Script
}

// NewFq6 returns the script generator for F_q^6 over the given base field.
func NewFq6(q *big.Int, baseField *Fq2) *Fq6 {
	f := &Fq6{
		Extension: newExtension(q, 6),
		BaseField: baseField,
	}
	f.MulByNonResidue = f.MulByV
	return f
}

// reduceCfg is the configuration handed to the base-field operation that
// computes the first component when the whole result is reduced: it reduces
// in place and leaves q on top for the batched reductions that follow.
func reduceCfg(cfg script.ModConfig) script.ModConfig {
	return script.ModConfig{
		TakeModulo:       true,
		PositiveModulo:   cfg.PositiveModulo,
		CleanConstant:    cfg.CleanConstant,
		IsConstantReused: true,
	}
}

// Add emits the script computing x + y.
//
// Stack in:  [q, .., x := (x0, x1, x2), y := (y0, y1, y2)], xi, yi in F_q^2
// Stack out: [q, .., x + y]
func (f *Fq6) Add(cfg script.ModConfig) script.Script {
	fq2 := f.BaseField

	out := cfg.VerifyConstant(f.Q)

	// x2 + y2 to the altstack
	out.Append(script.Roll(7, 2))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// x1 + y1
	out.PushOp(script.OP_2ROT)
	out.Append(fq2.Add(script.ModConfig{}, 1))

	if cfg.TakeModulo {
		out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)
		out.Append(fq2.Add(reduceCfg(cfg), 1))
		for i := 0; i < 3; i++ {
			out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		}
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.PushOp(script.OP_2ROT, script.OP_2ROT)
		out.Append(fq2.Add(script.ModConfig{}, 1))
		out.PushOp(script.OP_2SWAP)
		out.PushOp(script.OP_FROMALTSTACK, script.OP_FROMALTSTACK)
	}
	return out
}

// Subtract emits the script computing x - y.
func (f *Fq6) Subtract(cfg script.ModConfig) script.Script {
	fq2 := f.BaseField

	out := cfg.VerifyConstant(f.Q)

	// x2 - y2 to the altstack
	out.Append(script.Roll(7, 2))
	out.PushOp(script.OP_2SWAP)
	out.Append(fq2.Subtract(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// x1 - y1
	out.PushOp(script.OP_2ROT, script.OP_2SWAP)
	out.Append(fq2.Subtract(script.ModConfig{}))

	if cfg.TakeModulo {
		out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)
		out.Append(fq2.Subtract(reduceCfg(cfg)))
		for i := 0; i < 3; i++ {
			out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		}
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.PushOp(script.OP_2ROT, script.OP_2ROT)
		out.Append(fq2.Subtract(script.ModConfig{}))
		out.PushOp(script.OP_2SWAP)
		out.PushOp(script.OP_FROMALTSTACK, script.OP_FROMALTSTACK)
	}
	return out
}

// FqScalarMul emits the script multiplying x by a scalar in F_q sitting on
// top of it.
//
// Stack in:  [q, .., x := (x0, .., x5), lambda]
// Stack out: [q, .., x * lambda]
func (f *Fq6) FqScalarMul(cfg script.ModConfig) script.Script {
	fq2 := f.BaseField

	out := cfg.VerifyConstant(f.Q)

	for i := 0; i < 4; i++ {
		out.PushOp(script.OP_TUCK, script.OP_MUL, script.OP_TOALTSTACK)
	}

	if cfg.TakeModulo {
		out.Append(fq2.ScalarMul(reduceCfg(cfg)))
		for i := 0; i < 3; i++ {
			out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		}
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.Append(fq2.ScalarMul(script.ModConfig{}))
		for i := 0; i < 4; i++ {
			out.PushOp(script.OP_FROMALTSTACK)
		}
	}
	return out
}

// ScalarMul emits the script multiplying x by a scalar in F_q^2 sitting on
// top of it.
//
// Stack in:  [q, .., x := (x0, .., x5), lambda := (l0, l1)]
// Stack out: [q, .., x * lambda]
func (f *Fq6) ScalarMul(cfg script.ModConfig) script.Script {
	fq2 := f.BaseField

	out := cfg.VerifyConstant(f.Q)

	// x2 * lambda to the altstack
	out.PushOp(script.OP_2SWAP, script.OP_2OVER)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// x1 * lambda
	out.PushOp(script.OP_2SWAP, script.OP_2OVER)
	out.Append(fq2.Mul(script.ModConfig{}, 1))

	if cfg.TakeModulo {
		out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)
		out.Append(fq2.Mul(reduceCfg(cfg), 1))
		for i := 0; i < 3; i++ {
			out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		}
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.PushOp(script.OP_2ROT, script.OP_2ROT)
		out.Append(fq2.Mul(script.ModConfig{}, 1))
		out.PushOp(script.OP_2SWAP, script.OP_FROMALTSTACK, script.OP_FROMALTSTACK)
	}
	return out
}

// Negate emits the script computing -x.
func (f *Fq6) Negate(cfg script.ModConfig) script.Script {
	fq2 := f.BaseField

	out := cfg.VerifyConstant(f.Q)

	if cfg.TakeModulo {
		out.Append(fq2.Negate(script.ModConfig{}))
		out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)
		out.Append(fq2.Negate(script.ModConfig{}))
		out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)
		out.Append(fq2.Negate(reduceCfg(cfg)))
		for i := 0; i < 3; i++ {
			out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		}
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.PushOp(script.OP_2ROT)
		out.Append(fq2.Negate(script.ModConfig{}))
		out.PushOp(script.OP_2ROT)
		out.Append(fq2.Negate(script.ModConfig{}))
		out.PushOp(script.OP_2ROT)
		out.Append(fq2.Negate(script.ModConfig{}))
	}
	return out
}

// Mul emits the script computing x * y with the schoolbook formula over
// F_q^2:
//
//	(x0*y0 + (x1*y2 + x2*y1)*xi, x0*y1 + x1*y0 + x2*y2*xi, x0*y2 + x1*y1 + x2*y0)
func (f *Fq6) Mul(cfg script.ModConfig) script.Script {
	fq2 := f.BaseField

	out := cfg.VerifyConstant(f.Q)

	// third component: x1*y1 + x0*y2 + x2*y0 to the altstack
	out.PushOp(script.OP_2OVER)
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2OVER)
	out.Append(script.Pick(15, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(11, 2))
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// second component: x0*y1 + x2*y2*xi + x1*y0 to the altstack
	out.PushOp(script.OP_2OVER)
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2OVER)
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(script.Pick(13, 2))
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// first component: x0*y0 + (x1*y2 + x2*y1)*xi stays on the stack
	out.Append(script.Roll(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2SWAP)
	out.Append(script.Roll(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.PushOp(script.OP_2ROT, script.OP_2ROT)
	out.Append(fq2.Mul(script.ModConfig{}, 1))

	if cfg.TakeModulo {
		out.Append(fq2.Add(reduceCfg(cfg), 1))
		for i := 0; i < 3; i++ {
			out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		}
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.Append(fq2.Add(script.ModConfig{}, 1))
		for i := 0; i < 4; i++ {
			out.PushOp(script.OP_FROMALTSTACK)
		}
	}
	return out
}

// Square emits the script computing x^2 via
//
//	(x0^2 + 2*x1*x2*xi, x2^2*xi + 2*x0*x1, x1^2 + 2*x0*x2)
func (f *Fq6) Square(cfg script.ModConfig) script.Script {
	fq2 := f.BaseField

	out := cfg.VerifyConstant(f.Q)

	// third component: x1^2 + 2*x0*x2 to the altstack
	out.PushOp(script.OP_2OVER)
	out.Append(fq2.Square(script.ModConfig{}))
	out.PushOp(script.OP_2OVER)
	out.PushOp(script.OP_2)
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.PushOp(script.OP_2SWAP, script.OP_2OVER)
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// second component: x2^2*xi + 2*x0*x1 to the altstack
	out.PushOp(script.OP_2SWAP)
	out.Append(fq2.Square(script.ModConfig{}))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.PushOp(script.OP_2ROT, script.OP_2SWAP, script.OP_2OVER)
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2)
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// first component: x0^2 + 2*x1*x2*xi stays on the stack
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.PushOp(script.OP_2SWAP)
	out.Append(fq2.Square(script.ModConfig{}))

	if cfg.TakeModulo {
		out.Append(fq2.Add(reduceCfg(cfg), 1))
		for i := 0; i < 3; i++ {
			out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		}
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.Append(fq2.Add(script.ModConfig{}, 1))
		for i := 0; i < 4; i++ {
			out.PushOp(script.OP_FROMALTSTACK)
		}
	}
	return out
}

// MulByV emits the script multiplying x by v:
// (a + b*v + c*v^2) * v = c*xi + a*v + b*v^2.
func (f *Fq6) MulByV(cfg script.ModConfig) script.Script {
	fq2 := f.BaseField

	out := cfg.VerifyConstant(f.Q)

	if cfg.TakeModulo {
		out.Append(fq2.MulByNonResidue(script.ModConfig{
			TakeModulo:     true,
			PositiveModulo: cfg.PositiveModulo,
		}))
		out.Append(script.Mod("OP_2ROT OP_SWAP OP_DEPTH OP_1SUB OP_PICK", true, cfg.PositiveModulo, true))
		out.Append(script.Mod("OP_SWAP OP_ROT", false, cfg.PositiveModulo, false))
		out.PushOp(script.OP_2ROT, script.OP_SWAP)
		out.Append(script.FetchBottomConstant(cfg.CleanConstant))
		out.Append(script.Mod("", true, cfg.PositiveModulo, true))
		out.Append(script.Mod("OP_SWAP OP_ROT", false, cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.Append(fq2.MulByNonResidue(script.ModConfig{}))
		out.PushOp(script.OP_2ROT, script.OP_2ROT)
	}
	return out
}
