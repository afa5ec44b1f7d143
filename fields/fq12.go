package fields

import (
	"math/big"

	"github.com/zkscript/zkscript/script"
)

// Fq12 generates scripts for arithmetic in F_q^12 = F_q^6[w] / (w^2 - v).
// Elements are laid out as (x0, x1) with x = x0 + x1*w and x0, x1 in F_q^6;
// the component-wise operations name the six F_q^2 coefficients
// (a, b, c, d, e, f) with x0 = (a, b, c) and x1 = (d, e, f).
//
// GammasFrobenius holds [gamma1, .., gamma11] with
// gamma_i = [gamma_i1, .., gamma_i5], gamma_ij the F_q^2 coefficients of
// xi^(j * (q^i - 1) / 6), used by the Frobenius endomorphisms.
type Fq12 struct {
	Extension
	Fq2Field        *Fq2
	Fq6Field        *Fq6
	GammasFrobenius [][][]*big.Int
}

// NewFq12 returns the script generator for F_q^12 over the given tower.
func NewFq12(q *big.Int, fq2 *Fq2, fq6 *Fq6, gammasFrobenius [][][]*big.Int) *Fq12 {
	return &Fq12{
		Extension:       newExtension(q, 12),
		Fq2Field:        fq2,
		Fq6Field:        fq6,
		GammasFrobenius: gammasFrobenius,
	}
}

// Mul emits the script computing x * y with the formula
// (x0*y0 + x1*y1*v, x0*y1 + x1*y0) over F_q^6.
//
// Stack in:  [q, .., x := (x0, x1), y := (y0, y1)], xi, yi in F_q^6
// Stack out: [q, .., x * y]
func (f *Fq12) Mul(cfg script.ModConfig) script.Script {
	fq6 := f.Fq6Field

	out := cfg.VerifyConstant(f.Q)

	// second component: x0*y1 + x1*y0 to the altstack
	out.PushOp(script.OP_2OVER, script.OP_2OVER)
	out.Append(script.Pick(9, 2))
	out.PushOp(script.OP_2ROT, script.OP_2ROT)
	out.Append(script.Pick(29, 6))
	out.Append(fq6.Mul(script.ModConfig{}))

	out.Append(script.Pick(15, 4))
	out.Append(script.Pick(21, 2))
	out.PushOp(script.OP_2ROT, script.OP_2ROT)
	out.Append(script.Pick(29, 6))
	out.Append(fq6.Mul(script.ModConfig{}))

	out.Append(fq6.Add(script.ModConfig{}))
	for i := 0; i < 6; i++ {
		out.PushOp(script.OP_TOALTSTACK)
	}

	// first component: x0*y0 + x1*y1*v stays on the stack
	out.Append(script.Roll(15, 4))
	out.Append(script.Roll(17, 2))
	out.PushOp(script.OP_2ROT, script.OP_2ROT)
	out.Append(fq6.Mul(script.ModConfig{}))
	out.Append(fq6.MulByNonResidue(script.ModConfig{}))
	for i := 0; i < 6; i++ {
		out.PushOp(script.OP_TOALTSTACK)
	}

	out.Append(fq6.Mul(script.ModConfig{}))
	for i := 0; i < 6; i++ {
		out.PushOp(script.OP_FROMALTSTACK)
	}

	if cfg.TakeModulo {
		out.Append(fq6.Add(reduceCfg(cfg)))
		for i := 0; i < 5; i++ {
			out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		}
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.Append(fq6.Add(script.ModConfig{}))
		for i := 0; i < 6; i++ {
			out.PushOp(script.OP_FROMALTSTACK)
		}
	}
	return out
}

// Square emits the script computing x^2, working directly on the sixtuple
// (a, b, c, d, e, f) of F_q^2 components. The fourth, fifth and sixth
// components of the result are left halved on the altstack and doubled while
// being pulled back.
func (f *Fq12) Square(cfg script.ModConfig) script.Script {
	fq2 := f.Fq2Field

	out := cfg.VerifyConstant(f.Q)

	// sixth component: b*e + a*f + c*d to the altstack
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

	// fifth component: a*e + c*f*xi + b*d to the altstack
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

	// fourth component: (c*e + b*f)*xi + a*d to the altstack
	out.PushOp(script.OP_2OVER)
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2OVER)
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(script.Pick(13, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// third component: f^2*xi + 2*(d*e + a*c) + b^2 to the altstack
	out.PushOp(script.OP_2OVER)
	out.Append(script.Pick(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2OVER)
	out.Append(fq2.Square(script.ModConfig{}))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.PushOp(script.OP_2SWAP)
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Square(script.ModConfig{}))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// second component: (c^2 + 2*e*f)*xi + 2*a*b + d^2 to the altstack
	out.PushOp(script.OP_2OVER)
	out.PushOp(script.OP_2OVER)
	out.Append(fq2.Mul(script.ModConfig{}, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Square(script.ModConfig{}))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(script.Pick(13, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Square(script.ModConfig{}))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// first component: a^2 + (e^2 + 2*(d*f + b*c))*xi stays on the stack
	out.PushOp(script.OP_2ROT)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Roll(7, 2))
	out.Append(script.Roll(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 2))
	out.PushOp(script.OP_2SWAP)
	out.Append(fq2.Square(script.ModConfig{}))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.PushOp(script.OP_2SWAP)
	out.Append(fq2.Square(script.ModConfig{}))

	if cfg.TakeModulo {
		out.Append(fq2.Add(reduceCfg(cfg), 1))
		for i := 0; i < 4; i++ {
			out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		}
		for i := 0; i < 5; i++ {
			out.Append(script.Mod("OP_FROMALTSTACK OP_2 OP_MUL OP_ROT", true, cfg.PositiveModulo, true))
		}
		out.Append(script.Mod("OP_FROMALTSTACK OP_2 OP_MUL OP_ROT", true, cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.Append(fq2.Add(script.ModConfig{}, 1))
		for i := 0; i < 4; i++ {
			out.PushOp(script.OP_FROMALTSTACK)
		}
		for i := 0; i < 6; i++ {
			out.PushOp(script.OP_FROMALTSTACK, script.OP_2, script.OP_MUL)
		}
	}
	return out
}

// Conjugate emits the script computing (x0, -x1).
func (f *Fq12) Conjugate(cfg script.ModConfig) script.Script {
	fq6 := f.Fq6Field

	out := cfg.VerifyConstant(f.Q)

	out.Append(fq6.Negate(script.ModConfig{}))

	if cfg.TakeModulo {
		for i := 0; i < 11; i++ {
			out.PushOp(script.OP_TOALTSTACK)
		}
		out.Append(script.FetchBottomConstant(cfg.CleanConstant))
		out.Append(script.Mod("", true, cfg.PositiveModulo, true))
		for i := 0; i < 10; i++ {
			out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		}
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	}
	return out
}

// FrobeniusOdd emits the script computing x^(q^n) for odd n: each F_q^2
// component is conjugated and, except the first, multiplied by its gamma.
func (f *Fq12) FrobeniusOdd(n int, cfg script.ModConfig) script.Script {
	if n%2 != 1 {
		panic("frobenius odd power must be odd")
	}

	fq2 := f.Fq2Field
	gammas := f.GammasFrobenius[n%12-1]

	noClean := script.ModConfig{
		TakeModulo:     cfg.TakeModulo,
		PositiveModulo: cfg.PositiveModulo,
	}

	out := cfg.VerifyConstant(f.Q)

	// conjugate(a)
	out.Append(script.Roll(11, 2))
	out.Append(fq2.Conjugate(noClean))
	out.PushOp(script.OP_2ROT, script.OP_2ROT)

	// conjugate(b) * gamma12, conjugate(c) * gamma14, conjugate(d) * gamma11
	for _, j := range []int{1, 3, 0} {
		out.Append(script.Roll(11, 2))
		out.Append(fq2.Conjugate(script.ModConfig{}))
		out.Append(script.NumsToScript(gammas[j]))
		out.Append(fq2.Mul(noClean, 1))
		out.PushOp(script.OP_2ROT, script.OP_2ROT)
	}

	// conjugate(e) * gamma13
	out.PushOp(script.OP_2SWAP)
	out.Append(fq2.Conjugate(script.ModConfig{}))
	out.Append(script.NumsToScript(gammas[2]))
	out.Append(fq2.Mul(noClean, 1))
	out.PushOp(script.OP_2SWAP)

	// conjugate(f) * gamma15
	out.Append(fq2.Conjugate(script.ModConfig{}))
	out.Append(script.NumsToScript(gammas[4]))
	out.Append(fq2.Mul(script.ModConfig{
		TakeModulo:       cfg.TakeModulo,
		PositiveModulo:   cfg.PositiveModulo,
		CleanConstant:    cfg.CleanConstant,
		IsConstantReused: cfg.IsConstantReused,
	}, 1))

	return out
}

// FrobeniusEven emits the script computing x^(q^n) for even n not divisible
// by 12: the first component passes through, the others are multiplied by
// their gammas.
func (f *Fq12) FrobeniusEven(n int, cfg script.ModConfig) script.Script {
	if n%2 != 0 || n%12 == 0 {
		panic("frobenius even power must be even and not 0 mod 12")
	}

	fq2 := f.Fq2Field
	gammas := f.GammasFrobenius[n%12-1]

	noClean := script.ModConfig{
		TakeModulo:     cfg.TakeModulo,
		PositiveModulo: cfg.PositiveModulo,
	}

	out := cfg.VerifyConstant(f.Q)

	// a, reduced in place when the result is reduced
	out.Append(script.Roll(11, 2))
	if cfg.TakeModulo {
		out.Append(script.Mod("OP_SWAP OP_DEPTH OP_1SUB OP_PICK", true, cfg.PositiveModulo, true))
		out.Append(script.Mod("OP_SWAP OP_ROT", false, cfg.PositiveModulo, false))
	}
	out.PushOp(script.OP_2ROT, script.OP_2ROT)

	// b * gamma22, c * gamma24, d * gamma21
	for _, j := range []int{1, 3, 0} {
		out.Append(script.Roll(11, 2))
		out.Append(script.NumsToScript(gammas[j]))
		out.Append(fq2.Mul(noClean, 1))
		out.PushOp(script.OP_2ROT, script.OP_2ROT)
	}

	// e * gamma23
	out.PushOp(script.OP_2SWAP)
	out.Append(script.NumsToScript(gammas[2]))
	out.Append(fq2.Mul(noClean, 1))
	out.PushOp(script.OP_2SWAP)

	// f * gamma25
	out.Append(script.NumsToScript(gammas[4]))
	out.Append(fq2.Mul(script.ModConfig{
		TakeModulo:       cfg.TakeModulo,
		PositiveModulo:   cfg.PositiveModulo,
		CleanConstant:    cfg.CleanConstant,
		IsConstantReused: cfg.IsConstantReused,
	}, 1))

	return out
}
