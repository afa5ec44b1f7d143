package pairing

import (
	"bytes"

	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/stack"
)

// SinglePairing emits the script evaluating the pairing e(P, Q).
//
// Stack in:  [q, .., inverse(miller(P,Q)), gradients, P, Q]
// Stack out: [q, .., unverified gradients, e(P, Q)]
//
// P and Q are data pushes; the point at infinity is the single byte 0x00 per
// coordinate, and e(P, Q) = 1 whenever either point is at infinity. The
// inverse of the Miller loop output is injected and checked on script, which
// is cheaper than inverting in F_q^k.
func (m *Model) SinglePairing(
	moduloThreshold int,
	verifyGradients bool,
	cfg script.ModConfig,
) (script.Script, error) {
	out := cfg.VerifyConstant(m.Q)

	infinityCoordinate := []byte{0x00}

	// Q at infinity?
	out.Append(script.Pick(m.NPointsTwist-1, m.NPointsTwist))
	for j := 0; j < m.NPointsTwist-1; j++ {
		out.PushOp(script.OP_CAT)
	}
	out.PushData(bytes.Repeat(infinityCoordinate, m.NPointsTwist))
	out.PushOp(script.OP_EQUAL)
	out.PushOp(script.OP_NOT)
	out.PushOp(script.OP_IF)

	// P at infinity?
	out.Append(script.Pick(m.NPointsTwist+m.NPointsCurve-1, m.NPointsCurve))
	for j := 0; j < m.NPointsCurve-1; j++ {
		out.PushOp(script.OP_CAT)
	}
	out.PushData(bytes.Repeat(infinityCoordinate, m.NPointsCurve))
	out.PushOp(script.OP_EQUAL)
	out.PushOp(script.OP_NOT)
	out.PushOp(script.OP_IF)

	millerLoop, err := m.MillerLoop(moduloThreshold, verifyGradients, script.ModConfig{})
	if err != nil {
		return script.Script{}, err
	}
	out.Append(millerLoop)

	// Unverified gradients survive the loop below the injected inverse.
	gradientTracker := 0
	if !verifyGradients {
		gradientTracker = m.ExtensionDegree * m.stepsPerExponent()
	}

	// No subgroup membership checks are needed here, so w*Q is dropped:
	// [inverse(miller(P,Q)), w*Q, miller(P,Q)] -> [inverse(miller(P,Q)), miller(P,Q)]
	out.Append(script.Roll(
		m.NElementsMillerOutput+m.NPointsTwist-1, m.NPointsTwist,
	))
	for j := 0; j < m.NPointsTwist; j++ {
		out.PushOp(script.OP_DROP)
	}

	easy, err := m.EasyExponentiationWithInverseCheck(
		script.ModConfig{TakeModulo: true},
		stack.FFE(2*m.NElementsMillerOutput-1, false, m.NElementsMillerOutput).Shift(gradientTracker),
		stack.FFE(m.NElementsMillerOutput-1, false, m.NElementsMillerOutput),
	)
	if err != nil {
		return script.Script{}, err
	}
	out.Append(easy)
	out.Append(m.HardExponentiation(script.ModConfig{
		TakeModulo:     true,
		PositiveModulo: cfg.PositiveModulo,
		CleanConstant:  cfg.CleanConstant,
	}, moduloThreshold))

	// Either point at infinity: drop both points and publish the identity.
	for branch := 0; branch < 2; branch++ {
		out.PushOp(script.OP_ELSE)
		for j := 0; j < (m.NPointsTwist+m.NPointsCurve)/2; j++ {
			out.PushOp(script.OP_2DROP)
		}
		out.PushOp(script.OP_1)
		for j := 0; j < m.NElementsMillerOutput-1; j++ {
			out.PushOp(script.OP_0)
		}
		if cfg.CleanConstant {
			out.PushOp(script.OP_DEPTH)
			out.PushOp(script.OP_1SUB)
			out.PushOp(script.OP_ROLL)
			out.PushOp(script.OP_DROP)
		}
		out.PushOp(script.OP_ENDIF)
	}

	return script.Optimise(out), nil
}

// TriplePairing emits the script evaluating the product of three pairings,
// e(P1, Q1) * e(P2, Q2) * e(P3, Q3).
//
// Stack in:  [q, .., inverse(miller(P1,Q1) * miller(P2,Q2) * miller(P3,Q3)),
// gradients, P1, P2, P3, Q1, Q2, Q3]
// Stack out: [q, .., unverified gradients, e(P1, Q1) * e(P2, Q2) * e(P3, Q3)]
//
// None of the points may be the point at infinity. gradientsOnStack and
// precomputedGradients are interpreted as in TripleMillerLoop.
func (m *Model) TriplePairing(
	moduloThreshold int,
	verifyGradients [3]bool,
	cfg script.ModConfig,
	gradientsOnStack bool,
	precomputedGradients *PrecomputedGradients,
) (script.Script, error) {
	out := cfg.VerifyConstant(m.Q)

	tripleMillerLoop, err := m.TripleMillerLoop(
		moduloThreshold, verifyGradients, script.ModConfig{},
		gradientsOnStack, precomputedGradients,
	)
	if err != nil {
		return script.Script{}, err
	}
	out.Append(tripleMillerLoop)

	// Injected gradients are consumed inside the loop, whatever their flag
	// says; only unverified on-stack ones survive below the injected inverse.
	checked := [3]bool{
		verifyGradients[0],
		verifyGradients[1] || !gradientsOnStack,
		verifyGradients[2] || !gradientsOnStack,
	}
	gradientTracker := 0
	for _, ok := range checked {
		if !ok {
			gradientTracker += m.ExtensionDegree
		}
	}
	gradientTracker *= m.stepsPerExponent()

	easy, err := m.EasyExponentiationWithInverseCheck(
		script.ModConfig{TakeModulo: true},
		stack.FFE(2*m.NElementsMillerOutput-1, false, m.NElementsMillerOutput).Shift(gradientTracker),
		stack.FFE(m.NElementsMillerOutput-1, false, m.NElementsMillerOutput),
	)
	if err != nil {
		return script.Script{}, err
	}
	out.Append(easy)
	out.Append(m.HardExponentiation(script.ModConfig{
		TakeModulo:     true,
		PositiveModulo: cfg.PositiveModulo,
		CleanConstant:  cfg.CleanConstant,
	}, moduloThreshold))

	return script.Optimise(out), nil
}
