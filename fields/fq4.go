package fields

import (
	"math/big"

	"github.com/zkscript/zkscript/script"
)

// Fq4 generates scripts for arithmetic in F_q^4 = F_q^2[u] / (u^2 - v), where
// v is the non-residue over F_q^2 implemented by the base field's
// MulByNonResidue hook. Elements are laid out as (a, b) = (x0, x1, x2, x3)
// with x = a + b*u and a, b in F_q^2.
//
// GammasFrobenius holds [gamma1, gamma2, gamma3] with
// gamma_i = v^((q^i - 1) / 2), used by the Frobenius endomorphisms.
type Fq4 struct {
	Extension
	BaseField       *Fq2
	GammasFrobenius [][]*big.Int
}

// NewFq4 returns the script generator for F_q^4 over the given base field.
func NewFq4(q *big.Int, baseField *Fq2, gammasFrobenius [][]*big.Int) *Fq4 {
	return &Fq4{
		Extension:       newExtension(q, 4),
		BaseField:       baseField,
		GammasFrobenius: gammasFrobenius,
	}
}

// ScalarMul emits the script multiplying x in F_q^4 by a scalar in F_q^2
// sitting on top of it.
//
// Stack in:  [q, .., x := (x0, x1, x2, x3), lambda := (l0, l1)]
// Stack out: [q, .., x * lambda]
func (f *Fq4) ScalarMul(cfg script.ModConfig) script.Script {
	fq2 := f.BaseField

	out := cfg.VerifyConstant(f.Q)

	if cfg.TakeModulo {
		out.PushOp(script.OP_2DUP, script.OP_2ROT)
		out.Append(fq2.Mul(script.ModConfig{}, 1))
		out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)
		out.Append(fq2.Mul(script.ModConfig{
			TakeModulo:       true,
			PositiveModulo:   cfg.PositiveModulo,
			CleanConstant:    cfg.CleanConstant,
			IsConstantReused: true,
		}, 1))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.PushOp(script.OP_2ROT, script.OP_2OVER)
		out.Append(fq2.Mul(script.ModConfig{}, 1))
		out.PushOp(script.OP_2ROT, script.OP_2ROT)
		out.Append(fq2.Mul(script.ModConfig{}, 1))
	}
	return out
}

// Mul emits the script computing scalar * (x * y) with the formula
// (a0*b0 + a1*b1*v, a0*b1 + a1*b0) over F_q^2.
//
// Stack in:  [q, .., x := (a0, a1), y := (b0, b1)]
// Stack out: [q, .., scalar * x * y]
func (f *Fq4) Mul(cfg script.ModConfig, scalar int64) script.Script {
	fq2 := f.BaseField

	out := cfg.VerifyConstant(f.Q)

	// second component: scalar * (a0*b1 + a1*b0) to the altstack
	out.PushOp(script.OP_2OVER, script.OP_2OVER)
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2SWAP)
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, scalar))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// first component: scalar * (a0*b0 + a1*b1*v) on the stack
	out.PushOp(script.OP_2ROT)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.PushOp(script.OP_2ROT, script.OP_2ROT)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{
		TakeModulo:       cfg.TakeModulo,
		PositiveModulo:   cfg.PositiveModulo,
		CleanConstant:    cfg.CleanConstant,
		IsConstantReused: cfg.TakeModulo,
	}, scalar))

	if cfg.TakeModulo {
		out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.PushOp(script.OP_FROMALTSTACK, script.OP_FROMALTSTACK)
	}
	return out
}

// Square emits the script computing scalar * x^2 via
// (a^2 + b^2*v, 2*a*b) over F_q^2.
func (f *Fq4) Square(cfg script.ModConfig, scalar int64) script.Script {
	fq2 := f.BaseField

	out := cfg.VerifyConstant(f.Q)

	if cfg.TakeModulo {
		out.PushOp(script.OP_2OVER, script.OP_2OVER)
		out.Append(fq2.Mul(script.ModConfig{}, 2*scalar))
		out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

		out.Append(fq2.Square(script.ModConfig{}))
		out.Append(fq2.MulByNonResidue(script.ModConfig{}))
		out.PushOp(script.OP_2SWAP)
		out.Append(fq2.Square(script.ModConfig{}))
		out.Append(fq2.Add(script.ModConfig{
			TakeModulo:       true,
			PositiveModulo:   cfg.PositiveModulo,
			CleanConstant:    cfg.CleanConstant,
			IsConstantReused: true,
		}, scalar))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.PushOp(script.OP_2OVER, script.OP_2OVER)
		out.Append(fq2.Square(script.ModConfig{}))
		out.Append(fq2.MulByNonResidue(script.ModConfig{}))
		out.PushOp(script.OP_2SWAP)
		out.Append(fq2.Square(script.ModConfig{}))
		out.Append(fq2.Add(script.ModConfig{}, scalar))

		out.PushOp(script.OP_2ROT, script.OP_2ROT)
		out.Append(fq2.Mul(script.ModConfig{}, 2*scalar))
	}
	return out
}

// AddThree emits the script computing x + y + z in F_q^4.
func (f *Fq4) AddThree(cfg script.ModConfig) script.Script {
	fq2 := f.BaseField

	out := cfg.VerifyConstant(f.Q)

	// second components first, result to the altstack
	out.PushOp(script.OP_2ROT)
	out.Append(script.Roll(9, 2))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	if cfg.TakeModulo {
		out.Append(fq2.AddThree(script.ModConfig{
			TakeModulo:       true,
			PositiveModulo:   cfg.PositiveModulo,
			CleanConstant:    cfg.CleanConstant,
			IsConstantReused: true,
		}))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.Append(fq2.AddThree(script.ModConfig{}))
		out.PushOp(script.OP_FROMALTSTACK, script.OP_FROMALTSTACK)
	}
	return out
}

// FrobeniusOdd emits the script computing x^(q^n) for odd n:
// (conjugate(a), conjugate(b) * gamma_(n mod 4)).
func (f *Fq4) FrobeniusOdd(n int, cfg script.ModConfig) script.Script {
	if n%2 != 1 {
		panic("frobenius odd power must be odd")
	}

	fq2 := f.BaseField
	gammas := f.GammasFrobenius[n%4-1]

	out := cfg.VerifyConstant(f.Q)

	// conjugate(b) * gamma to the altstack
	out.Append(fq2.Conjugate(script.ModConfig{}))
	out.Append(script.NumsToScript(gammas))
	out.Append(fq2.Mul(script.ModConfig{
		TakeModulo:     cfg.TakeModulo,
		PositiveModulo: cfg.PositiveModulo,
	}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	if cfg.IsConstantReused {
		out.Append(fq2.Conjugate(script.ModConfig{
			TakeModulo:       cfg.TakeModulo,
			PositiveModulo:   cfg.PositiveModulo,
			CleanConstant:    cfg.CleanConstant,
			IsConstantReused: true,
		}))
		out.PushOp(script.OP_FROMALTSTACK, script.OP_ROT, script.OP_FROMALTSTACK)
	} else {
		out.Append(fq2.Conjugate(script.ModConfig{
			TakeModulo:     cfg.TakeModulo,
			PositiveModulo: cfg.PositiveModulo,
			CleanConstant:  cfg.CleanConstant,
		}))
		out.PushOp(script.OP_FROMALTSTACK, script.OP_FROMALTSTACK)
	}
	return out
}

// FrobeniusEven emits the script computing x^(q^n) for even n not divisible
// by 4: (a, b * gamma_(n mod 4)).
func (f *Fq4) FrobeniusEven(n int, cfg script.ModConfig) script.Script {
	if n%2 != 0 || n%4 == 0 {
		panic("frobenius even power must be 2 mod 4")
	}

	fq2 := f.BaseField
	gammas := f.GammasFrobenius[n%4-1]

	out := cfg.VerifyConstant(f.Q)

	// b * gamma to the altstack
	out.Append(script.NumsToScript(gammas))
	out.Append(fq2.Mul(script.ModConfig{
		TakeModulo:     cfg.TakeModulo,
		PositiveModulo: cfg.PositiveModulo,
	}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	if cfg.TakeModulo {
		out.Append(script.FetchBottomConstant(cfg.CleanConstant))
		out.Append(script.Mod("", true, cfg.PositiveModulo, true))
		out.Append(script.Mod("OP_TOALTSTACK", true, cfg.PositiveModulo, cfg.IsConstantReused))
		out.PushOp(script.OP_FROMALTSTACK, script.OP_FROMALTSTACK, script.OP_FROMALTSTACK)
		if cfg.IsConstantReused {
			out.Append(script.Roll(4, 1))
			out.PushOp(script.OP_SWAP)
		}
	} else {
		out.PushOp(script.OP_FROMALTSTACK, script.OP_FROMALTSTACK)
	}
	return out
}

// MulByU emits the script multiplying x by u: (a + b*u) * u = b*v + a*u.
func (f *Fq4) MulByU(cfg script.ModConfig) script.Script {
	fq2 := f.BaseField

	out := cfg.VerifyConstant(f.Q)

	if cfg.TakeModulo {
		out.Append(fq2.MulByNonResidue(script.ModConfig{
			TakeModulo:     true,
			PositiveModulo: cfg.PositiveModulo,
		}))
		out.PushOp(script.OP_2SWAP, script.OP_SWAP)
		out.Append(script.FetchBottomConstant(cfg.CleanConstant))
		out.Append(script.Mod("", true, cfg.PositiveModulo, true))
		out.Append(script.Mod("OP_SWAP OP_ROT", false, cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.Append(fq2.MulByNonResidue(script.ModConfig{PositiveModulo: cfg.PositiveModulo}))
		out.PushOp(script.OP_2SWAP)
	}
	return out
}

// Conjugate emits the script computing (a, -b).
func (f *Fq4) Conjugate(cfg script.ModConfig) script.Script {
	fq2 := f.BaseField

	out := cfg.VerifyConstant(f.Q)

	out.Append(fq2.Negate(script.ModConfig{}))

	if cfg.TakeModulo {
		out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK, script.OP_TOALTSTACK)
		out.Append(script.FetchBottomConstant(cfg.CleanConstant))
		out.Append(script.Mod("", true, cfg.PositiveModulo, true))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	}
	return out
}
