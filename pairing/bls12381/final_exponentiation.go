package bls12381

import (
	"github.com/zkscript/zkscript/fields"
	"github.com/zkscript/zkscript/pairing"
	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/stack"
)

// FinalExponentiation generates the scripts raising the Miller loop output
// to (q^12 - 1) / r. The easy part moves the accumulator from the cubic to
// the quadratic tower and divides by the injected inverse; the hard part is
// a fixed addition chain over the seed.
type FinalExponentiation struct {
	*pairing.CyclotomicExponentiation
	fq12      *fields.Fq12
	fq12Cubic *fields.Fq12Cubic
}

// NewFinalExponentiation returns the final exponentiation generator over the
// two F_q^12 representations.
func NewFinalExponentiation(fq12 *fields.Fq12, fq12Cubic *fields.Fq12Cubic) *FinalExponentiation {
	return &FinalExponentiation{
		CyclotomicExponentiation: &pairing.CyclotomicExponentiation{
			Q:               fq12.Q,
			ExtensionDegree: 12,
			Inverse:         fq12.Conjugate,
			Square:          fq12.Square,
			Mul:             fq12.Mul,
		},
		fq12:      fq12,
		fq12Cubic: fq12Cubic,
	}
}

// EasyExponentiationWithInverseCheck emits the script computing
// f^[(q^6-1)(q^2+1)] while verifying the injected inverse.
//
// Stack in:  [q, .., inverse(f_quadratic), .., f, ..], f in the cubic tower,
// its inverse already in the quadratic tower
// Stack out: [q, .., f^[(q^6-1)(q^2+1)]], quadratic tower
//
// Inverting in F_q^12 on script is prohibitive, so the inverse is injected
// and checked by multiplying it against f.
func (e *FinalExponentiation) EasyExponentiationWithInverseCheck(
	cfg script.ModConfig,
	fInverse, f stack.FiniteFieldElement,
) (script.Script, error) {
	isDefaultConfig := fInverse.Position() == 2*e.ExtensionDegree-1 &&
		f.Position() == e.ExtensionDegree-1

	out := cfg.VerifyConstant(e.Q)

	if !isDefaultConfig {
		out.Append(script.Move(fInverse, script.Roll))
		shift := 0
		if fInverse.IsBefore(f) {
			shift = fInverse.ExtensionDegree()
		}
		out.Append(script.Move(f.Shift(shift), script.Roll))
	}

	// The Miller loop output lives in the cubic tower; the exponentiation
	// runs in the quadratic one.
	out.Append(e.fq12Cubic.ToQuadratic())

	// inverse(f) * f = 1
	out.Append(script.Pick(23, 12))
	out.Append(script.Pick(23, 12))
	out.Append(e.fq12.Mul(script.ModConfig{TakeModulo: true, PositiveModulo: true}))
	for j := 0; j < 11; j++ {
		out.PushOp(script.OP_0, script.OP_EQUALVERIFY)
	}
	out.PushOp(script.OP_1, script.OP_EQUALVERIFY)

	// inverse(f) * conjugate(f) = f^(q^6-1), then multiply by its q^2
	// Frobenius
	out.Append(e.fq12.Conjugate(script.ModConfig{}))
	out.Append(e.fq12.Mul(script.ModConfig{}))
	out.Append(script.Pick(11, 12))
	out.Append(e.fq12.FrobeniusEven(2, script.ModConfig{}))
	out.Append(e.fq12.Mul(script.ModConfig{
		TakeModulo:       cfg.TakeModulo,
		PositiveModulo:   cfg.PositiveModulo,
		CleanConstant:    cfg.CleanConstant,
		IsConstantReused: cfg.IsConstantReused,
	}))

	return out, nil
}

// HardExponentiation emits the script computing g^[(q^4 - q^2 + 1)/r] for g
// the output of the easy part, with a fixed addition chain over the seed:
// four exponentiations by u, one by u/2, interleaved with conjugations,
// Frobenius maps and multiplications. Cyclotomic inverses are conjugations,
// so the negative seed digits run directly on script.
func (e *FinalExponentiation) HardExponentiation(cfg script.ModConfig, moduloThreshold int) script.Script {
	reduced := script.ModConfig{TakeModulo: true, PositiveModulo: false}

	out := cfg.VerifyConstant(e.Q)

	// t0 = g^2
	out.Append(script.Pick(11, 12))
	out.Append(e.fq12.Square(reduced))

	// t1 = t0^u
	out.Append(script.Pick(11, 12))
	out.Append(e.Exponentiate(expMillerLoop, moduloThreshold, reduced))

	// t2 = t1^(u/2)
	out.Append(script.Pick(11, 12))
	out.Append(e.Exponentiate(expMillerLoop[1:], moduloThreshold, reduced))

	// t3 = conjugate(g); t1 = conjugate(t1 * t3) * t2
	out.Append(script.Pick(47, 12))
	out.Append(e.fq12.Conjugate(script.ModConfig{}))
	out.Append(script.Roll(35, 12))
	out.Append(e.fq12.Mul(script.ModConfig{}))
	out.Append(e.fq12.Conjugate(script.ModConfig{}))
	out.Append(e.fq12.Mul(reduced))

	// t2 = t1^u; t3 = t2^u; t3 = t3 * conjugate(t1)
	out.Append(script.Pick(11, 12))
	out.Append(e.Exponentiate(expMillerLoop, moduloThreshold, reduced))
	out.Append(script.Pick(11, 12))
	out.Append(e.Exponentiate(expMillerLoop, moduloThreshold, reduced))
	out.Append(script.Pick(35, 12))
	out.Append(e.fq12.Conjugate(script.ModConfig{}))
	out.Append(e.fq12.Mul(reduced))

	// t1 = t1^(q^3) * t2^(q^2)
	out.Append(script.Roll(35, 12))
	out.Append(e.fq12.FrobeniusOdd(3, script.ModConfig{}))
	out.Append(script.Roll(35, 12))
	out.Append(e.fq12.FrobeniusEven(2, script.ModConfig{}))
	out.Append(e.fq12.Mul(script.ModConfig{}))

	// t2 = t3^u * t0 * g; t1 = t1 * t2
	out.Append(script.Pick(23, 12))
	out.Append(e.Exponentiate(expMillerLoop, moduloThreshold, reduced))
	out.Append(script.Roll(47, 12))
	out.Append(e.fq12.Mul(script.ModConfig{}))
	out.Append(script.Roll(47, 12))
	out.Append(e.fq12.Mul(script.ModConfig{}))
	out.Append(e.fq12.Mul(script.ModConfig{}))

	// out = t1 * t3^q
	out.Append(script.Roll(23, 12))
	out.Append(e.fq12.FrobeniusOdd(1, script.ModConfig{}))
	out.Append(e.fq12.Mul(script.ModConfig{
		TakeModulo:     cfg.TakeModulo,
		PositiveModulo: cfg.PositiveModulo,
		CleanConstant:  cfg.CleanConstant,
	}))

	return out
}
