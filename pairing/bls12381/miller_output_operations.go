package bls12381

import (
	"github.com/zkscript/zkscript/fields"
	"github.com/zkscript/zkscript/script"
)

// MillerOutputOperations generates the products accumulated along the Miller
// loop, over F_q^12 = F_q^2[s, r] / (r^3 - s, s^2 - xi).
//
// Three layouts appear on the stack:
//   - sparse: a + b*s + c*r^2 with a, c in F_q^2 and b in F_q (a line
//     evaluation, 5 elements);
//   - somewhat sparse: a + b*s + c*r*s + d*r^2 + e*r^2*s with all
//     components in F_q^2 (a product of two evaluations, 10 elements);
//   - dense: all six F_q^2 components (12 elements).
//
// Each product computes its output components top-down, parking them on the
// altstack, and reduces them in one batched tail when the result is taken
// modulo q.
type MillerOutputOperations struct {
	*fields.Fq12Cubic
}

// NewMillerOutputOperations returns the Miller loop product generator over
// the given cubic tower.
func NewMillerOutputOperations(f *fields.Fq12Cubic) *MillerOutputOperations {
	return &MillerOutputOperations{Fq12Cubic: f}
}

// batchedTail pulls the parked components back under the modulus: nine
// reductions plus a final one honouring IsConstantReused, or plain altstack
// restores when the result is not reduced.
func (m *MillerOutputOperations) batchedTail(out *script.Script, cfg script.ModConfig, parked int) {
	if cfg.TakeModulo {
		for i := 0; i < parked-1; i++ {
			out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		}
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		for i := 0; i < parked; i++ {
			out.PushOp(script.OP_FROMALTSTACK)
		}
	}
}

// firstComponentAdd closes the deepest component: the final F_q^2 addition is
// the one that fetches the modulus when the result is reduced.
func (m *MillerOutputOperations) firstComponentAdd(cfg script.ModConfig) script.Script {
	fq2 := m.Fq4Field.BaseField
	if cfg.TakeModulo {
		return fq2.Add(script.ModConfig{
			TakeModulo:       true,
			PositiveModulo:   cfg.PositiveModulo,
			CleanConstant:    cfg.CleanConstant,
			IsConstantReused: true,
		}, 1)
	}
	return fq2.Add(script.ModConfig{}, 1)
}

// LineEvalTimesEval multiplies two sparse elements.
//
// Stack in:  [q, .., x := (a1, b1, c1), y := (a2, b2, c2)]
// Stack out: [q, .., x * y], somewhat sparse
func (m *MillerOutputOperations) LineEvalTimesEval(cfg script.ModConfig) script.Script {
	fq2 := m.Fq4Field.BaseField

	out := cfg.VerifyConstant(m.Q)

	// fifth component: b2*c1 + b1*c2
	out.Append(script.Pick(6, 2))
	out.Append(script.Pick(4, 1))
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.PushOp(script.OP_2OVER)
	out.Append(script.Pick(11, 1))
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// fourth component: a1*c2 + a2*c1
	out.PushOp(script.OP_2DUP)
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(8, 2))
	out.Append(script.Pick(8, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// third component: c1*c2
	out.Append(script.Roll(6, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// second component: a1*b2 + a2*b1
	out.Append(script.Pick(5, 2))
	out.Append(script.Pick(2, 1))
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.Append(script.Pick(4, 2))
	out.Append(script.Pick(7, 1))
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// first component: a1*a2 + b1*b2*xi, with xi = 1 + u folded into two
	// scalar additions
	out.Append(script.Roll(3, 1))
	out.PushOp(script.OP_MUL, script.OP_TOALTSTACK)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_FROMALTSTACK, script.OP_TUCK, script.OP_ADD, script.OP_TOALTSTACK, script.OP_ADD)
	if cfg.TakeModulo {
		out.PushOp(script.OP_DEPTH, script.OP_1SUB)
		if cfg.CleanConstant {
			out.PushOp(script.OP_ROLL)
		} else {
			out.PushOp(script.OP_PICK)
		}
		out.Append(script.Mod("", true, cfg.PositiveModulo, true))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
	} else {
		out.PushOp(script.OP_FROMALTSTACK)
	}

	m.batchedTail(&out, cfg, 8)
	return out
}

// MillerLoopOutputTimesEval multiplies a dense element by a sparse element.
//
// Stack in:  [q, .., x := (a1, b1, c1, d1, e1, f1), y := (a2, b2, c2)]
// Stack out: [q, .., x * y], dense
func (m *MillerOutputOperations) MillerLoopOutputTimesEval(cfg script.ModConfig) script.Script {
	fq2 := m.Fq4Field.BaseField

	out := cfg.VerifyConstant(m.Q)

	// sixth component: b1*c2 + e1*b2 + a2*f1
	out.Append(script.Pick(14, 2))
	out.PushOp(script.OP_2OVER)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(10, 2))
	out.Append(script.Pick(6, 1))
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.Append(script.Pick(10, 2))
	out.Append(script.Pick(10, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// fifth component: a1*c2 + a2*e1 + b2*f1*xi
	out.Append(script.Pick(16, 2))
	out.PushOp(script.OP_2OVER)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(10, 2))
	out.Append(script.Pick(8, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(10, 2))
	out.Append(script.Pick(8, 1))
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// fourth component: c1*b2 + d1*a2 + e1*c2, consuming e1
	out.Append(script.Pick(12, 2))
	out.Append(script.Pick(4, 1))
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.Append(script.Pick(12, 2))
	out.Append(script.Pick(8, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Roll(12, 2))
	out.Append(script.Pick(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// third component: c1*a2 + (b2*d1 + c2*f1)*xi, consuming f1
	out.Append(script.Pick(10, 2))
	out.Append(script.Pick(6, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(10, 2))
	out.Append(script.Pick(6, 1))
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.Append(script.Roll(10, 2))
	out.Append(script.Pick(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// second component: a1*b2 + b1*a2 + c1*c2, consuming c1
	out.Append(script.Pick(12, 2))
	out.Append(script.Pick(4, 1))
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.Append(script.Pick(12, 2))
	out.Append(script.Pick(8, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Roll(12, 2))
	out.Append(script.Pick(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// first component: a1*a2 + (c1*c2 + b1*b2)*xi
	out.Append(script.Roll(6, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Roll(6, 2))
	out.Append(script.Roll(4, 1))
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.PushOp(script.OP_2ROT, script.OP_2ROT)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(m.firstComponentAdd(cfg))

	m.batchedTail(&out, cfg, 10)
	return out
}

// MillerLoopOutputTimesEvalTimesEval multiplies a dense element by a somewhat
// sparse element.
//
// Stack in:  [q, .., x := (a1, b1, c1, d1, e1, f1), y := (a2, b2, c2, d2, e2)]
// Stack out: [q, .., x * y], dense
func (m *MillerOutputOperations) MillerLoopOutputTimesEvalTimesEval(cfg script.ModConfig) script.Script {
	fq2 := m.Fq4Field.BaseField

	out := cfg.VerifyConstant(m.Q)

	// sixth component: e1*b2 + a2*f1 + c1*c2 + b1*d2 + e2*a1
	out.Append(script.Pick(13, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(13, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(21, 2))
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(25, 2))
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(29, 2))
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// fifth component: (d1*c2 + e2*b1 + b2*f1)*xi + a2*e1 + d2*a1
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2OVER)
	out.Append(script.Pick(23, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(25, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// fourth component: d1*a2 + e2*f1*xi + d2*e1 + b2*c1 + c2*a1
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2OVER)
	out.Append(script.Pick(15, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(script.Pick(17, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(23, 2))
	out.Append(script.Pick(15, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(29, 2))
	out.Append(script.Pick(15, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// third component: (d1*b2 + e1*e2 + d2*f1 + b1*c2)*xi + a2*c1
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2OVER)
	out.Append(script.Pick(17, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(25, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(script.Pick(19, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// second component: (d1*e2 + c2*f1)*xi + a1*b2 + a2*b1 + d2*c1,
	// consuming f1
	out.Append(script.Pick(15, 2))
	out.PushOp(script.OP_2OVER)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Roll(13, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(script.Pick(21, 2))
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(21, 2))
	out.Append(script.Pick(15, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(21, 2))
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// first component: a1*a2 + (b1*b2 + e2*c1 + d1*d2 + e1*c2)*xi
	out.Append(script.Roll(15, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Roll(13, 2))
	out.PushOp(script.OP_2ROT)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2ROT)
	out.Append(script.Roll(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_2SWAP)
	out.Append(script.Roll(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.PushOp(script.OP_2ROT, script.OP_2ROT)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(m.firstComponentAdd(cfg))

	m.batchedTail(&out, cfg, 10)
	return out
}

// LineEvalTimesEvalTimesEval multiplies a sparse element by a somewhat sparse
// element.
//
// Stack in:  [q, .., x := (a1, b1, c1), y := (a2, b2, c2, d2, e2)]
// Stack out: [q, .., x * y], dense
func (m *MillerOutputOperations) LineEvalTimesEvalTimesEval(cfg script.ModConfig) script.Script {
	fq2 := m.Fq4Field.BaseField

	out := cfg.VerifyConstant(m.Q)

	// sixth component: a1*e2 + b1*d2 + c1*b2
	out.Append(script.Pick(14, 2))
	out.PushOp(script.OP_2OVER)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(5, 2))
	out.Append(script.Pick(16, 1))
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// fifth component: a1*d2 + b1*e2*xi + c1*a2
	out.Append(script.Pick(14, 2))
	out.Append(script.Pick(5, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2OVER)
	out.Append(script.Pick(16, 1))
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(15, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// fourth component: a1*c2 + c1*d2, consuming d2
	out.Append(script.Pick(14, 2))
	out.Append(script.Pick(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(13, 2))
	out.Append(script.Roll(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// third component: (b1*c2 + c1*e2)*xi, consuming e2
	out.PushOp(script.OP_2OVER)
	out.Append(script.Pick(12, 1))
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.PushOp(script.OP_2SWAP)
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// second component: a1*b2 + a2*b1
	out.Append(script.Pick(10, 2))
	out.Append(script.Pick(5, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(7, 2))
	out.Append(script.Pick(12, 1))
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// first component: a1*a2 + (c1*c2 + b1*b2)*xi
	out.Append(script.Roll(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2SWAP)
	out.Append(script.Roll(6, 1))
	out.Append(fq2.ScalarMul(script.ModConfig{}))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.PushOp(script.OP_2ROT, script.OP_2ROT)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(m.firstComponentAdd(cfg))

	m.batchedTail(&out, cfg, 10)
	return out
}

// LineEvalTimesEvalTimesEvalTimesEval multiplies two somewhat sparse
// elements.
//
// Stack in:  [q, .., x := (a1, b1, c1, d1, e1), y := (a2, b2, c2, d2, e2)]
// Stack out: [q, .., x * y], dense
func (m *MillerOutputOperations) LineEvalTimesEvalTimesEvalTimesEval(cfg script.ModConfig) script.Script {
	fq2 := m.Fq4Field.BaseField

	out := cfg.VerifyConstant(m.Q)

	// sixth component: d1*b2 + e1*a2 + a1*e2 + b1*d2
	out.Append(script.Pick(13, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(13, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(23, 2))
	out.Append(script.Pick(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(23, 2))
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// fifth component: d1*a2 + (c1*c2 + e1*b2 + b1*e2)*xi + a1*d2
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2SWAP)
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(23, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(script.Pick(23, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// fourth component: c1*a2 + d1*d2 + e1*e2*xi + a1*c2
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(script.Pick(25, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// third component: (c1*b2 + d1*e2 + e1*d2 + b1*c2)*xi
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(5, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(23, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// second component: (c1*e2 + c2*e1)*xi + a1*b2 + a2*b1, consuming e1 and
	// e2
	out.Append(script.Pick(15, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Roll(11, 2))
	out.Append(script.Pick(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(script.Pick(17, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(17, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// first component: a1*a2 + (c1*d2 + d1*c2 + b1*b2)*xi
	out.Append(script.Roll(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Roll(9, 2))
	out.PushOp(script.OP_2ROT)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2ROT)
	out.Append(script.Roll(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.PushOp(script.OP_2ROT, script.OP_2ROT)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(m.firstComponentAdd(cfg))

	m.batchedTail(&out, cfg, 10)
	return out
}

// LineEvalTimesEvalSixfold multiplies a somewhat sparse element by a dense
// element, completing the product of the six line evaluations of a triple
// loop addition step.
//
// Stack in:  [q, .., x := (a1, b1, c1, d1, e1), y := (a2, b2, c2, d2, e2, f2)]
// Stack out: [q, .., x * y], dense
func (m *MillerOutputOperations) LineEvalTimesEvalSixfold(cfg script.ModConfig) script.Script {
	fq2 := m.Fq4Field.BaseField

	out := cfg.VerifyConstant(m.Q)

	// sixth component: d1*b2 + e1*a2 + a1*f2 + b1*e2 + c1*c2
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(15, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(25, 2))
	out.Append(script.Pick(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(25, 2))
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(27, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// fifth component: d1*a2 + (e1*b2 + b1*f2 + c1*d2)*xi + a1*e2
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(23, 2))
	out.Append(script.Pick(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(23, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(script.Pick(25, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// fourth component: d1*e2 + e1*f2*xi + a1*d2 + b1*c2 + c1*a2
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(5, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(5, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(script.Pick(25, 2))
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(25, 2))
	out.Append(script.Pick(15, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(25, 2))
	out.Append(script.Pick(21, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// third component: (d1*f2 + e1*e2 + b1*d2 + c1*b2)*xi + a1*c2
	out.Append(script.Pick(15, 2))
	out.PushOp(script.OP_2OVER)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(23, 2))
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(25, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(script.Pick(23, 2))
	out.Append(script.Pick(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// second component: d1*c2 + (e1*d2 + c1*f2)*xi + a1*b2 + b1*a2,
	// consuming f2
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(9, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2ROT)
	out.Append(script.Pick(21, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.Append(script.Pick(23, 2))
	out.Append(script.Pick(13, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Pick(15, 2))
	out.Append(script.Pick(25, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// first component: a1*a2 + (b1*b2 + e2*c1 + d1*d2 + e1*c2)*xi
	out.Append(script.Roll(15, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.Roll(13, 2))
	out.PushOp(script.OP_2ROT)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.PushOp(script.OP_2ROT)
	out.Append(script.Roll(11, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.AddThree(script.ModConfig{}))
	out.PushOp(script.OP_2SWAP)
	out.Append(script.Roll(7, 2))
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(fq2.Add(script.ModConfig{}, 1))
	out.Append(fq2.MulByNonResidue(script.ModConfig{}))
	out.PushOp(script.OP_2ROT, script.OP_2ROT)
	out.Append(fq2.Mul(script.ModConfig{}, 1))
	out.Append(m.firstComponentAdd(cfg))

	m.batchedTail(&out, cfg, 10)
	return out
}

// MillerLoopOutputSquare squares the dense Miller loop accumulator.
func (m *MillerOutputOperations) MillerLoopOutputSquare(cfg script.ModConfig) script.Script {
	return m.Square(cfg)
}

// MillerLoopOutputTimesEvalTimesEvalTimesEval multiplies two dense elements.
func (m *MillerOutputOperations) MillerLoopOutputTimesEvalTimesEvalTimesEval(cfg script.ModConfig) script.Script {
	return m.Mul(cfg)
}

// MillerLoopOutputTimesEvalSixfold multiplies two dense elements.
func (m *MillerOutputOperations) MillerLoopOutputTimesEvalSixfold(cfg script.ModConfig) script.Script {
	return m.Mul(cfg)
}

// RationalForm adapts op to operands in rational form: x = (x0, .., xn) is
// represented as (X0, .., Xn, k) with xi = Xi/k. The two denominators are
// multiplied and appended to the product of the numerators.
//
// denominatorPosition is the stack position of the deeper denominator before
// op runs: 6 for sparse by sparse and dense by sparse products, 11 for
// products yielding a dense element from a somewhat sparse operand, 13 for
// dense by dense products, 0 for the squaring.
func (m *MillerOutputOperations) RationalForm(
	op func(script.ModConfig) script.Script,
	denominatorPosition int,
	cfg script.ModConfig,
) script.Script {
	var out script.Script
	if denominatorPosition != 0 {
		out = script.Roll(denominatorPosition, 1)
	} else {
		out = script.Pick(denominatorPosition, 1)
	}
	out.PushOp(script.OP_MUL, script.OP_TOALTSTACK)

	inner := cfg
	inner.IsConstantReused = cfg.TakeModulo
	out.Append(op(inner))

	if cfg.TakeModulo {
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.PushOp(script.OP_FROMALTSTACK)
	}
	return out
}
