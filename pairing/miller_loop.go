package pairing

import (
	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/stack"
)

// MillerLoop emits the script evaluating the Miller loop at P_ and Q_.
//
// Stack in:  [q, .., gradients, P, Q], P on E(F_q), Q on the twisted curve
// Stack out: [q, .., w*Q, miller(P, Q)]
//
// The gradients are the doubling and addition gradients of the loop, deepest
// first, grouped per iteration from the most significant digit down. When
// verifyGradients is false the gradients are consumed arithmetically without
// being checked against the computed points, and each group is left on the
// stack below the output.
//
// cfg.PositiveModulo applies to the final reduction only; intermediate
// reductions keep whichever sign the arithmetic produces. cfg.TakeModulo and
// cfg.IsConstantReused are ignored: the loop always reduces its output.
//
// P and Q must not be the point at infinity.
func (m *Model) MillerLoop(
	moduloThreshold int,
	verifyGradients bool,
	cfg script.ModConfig,
) (script.Script, error) {
	exp := m.ExpMillerLoop
	out := cfg.VerifyConstant(m.Q)

	// T = Q, negated when the loop computes w*(-Q)
	for j := 0; j < m.NPointsTwist; j++ {
		out.Append(script.Pick(m.NPointsTwist-1, 1))
		if exp[len(exp)-1] == -1 && j >= m.NPointsTwist/2 {
			out.PushOp(script.OP_NEGATE)
		}
	}

	qBits := m.Q.BitLen()
	sizeMillerOutput := qBits
	sizePointMultiplication := qBits

	gradientAddition := stack.FFE(
		2*m.NPointsTwist+m.NPointsCurve+2*m.ExtensionDegree-1, false, m.ExtensionDegree,
	)
	gradientDoubling := stack.FFE(
		2*m.NPointsTwist+m.NPointsCurve+m.ExtensionDegree-1, false, m.ExtensionDegree,
	)
	p := stack.ECP(
		stack.FFE(2*m.NPointsTwist+m.NPointsCurve-1, false, m.NPointsCurve/2),
		stack.FFE(2*m.NPointsTwist+m.NPointsCurve/2-1, false, m.NPointsCurve/2),
	)
	q := stack.ECP(
		stack.FFE(2*m.NPointsTwist-1, false, m.NPointsTwist/2),
		stack.FFE(m.NPointsTwist+m.NPointsTwist/2-1, false, m.NPointsTwist/2),
	)
	t := stack.ECP(
		stack.FFE(m.NPointsTwist-1, false, m.NPointsTwist/2),
		stack.FFE(m.NPointsTwist/2-1, false, m.NPointsTwist/2),
	)

	// Unverified gradients pile up below the iteration groups still to be
	// consumed; the tracker deepens the descriptors accordingly.
	gradientTracker := 0
	for i := len(exp) - 2; i >= 0; i-- {
		positiveModuloI := cfg.PositiveModulo && i == 0

		takeModuloMillerOutput, takeModuloPoint, newSizeMillerOutput, newSizePoint := m.SizeEstimation(
			moduloThreshold, i, exp, sizeMillerOutput, sizePointMultiplication, false,
		)
		sizeMillerOutput, sizePointMultiplication = newSizeMillerOutput, newSizePoint

		// The first step leaves its evaluations unpadded; the second squares
		// them by duplication and pads to the dense representation.
		if i == len(exp)-3 {
			if exp[i+1] == 0 {
				out.Append(script.Pick(m.NElementsEvaluationOutput-1, m.NElementsEvaluationOutput))
				out.Append(m.LineEvalTimesEval(script.ModConfig{TakeModulo: takeModuloMillerOutput}))
				out.Append(m.PadEvalTimesEvalToMillerOutput)
			} else {
				out.Append(script.Pick(
					m.NElementsEvaluationTimesEvaluation-1, m.NElementsEvaluationTimesEvaluation,
				))
				out.Append(m.LineEvalTimesEvalTimesEvalTimesEval(script.ModConfig{TakeModulo: takeModuloMillerOutput}))
				out.Append(m.PadEvalTimesEvalTimesEvalTimesEvalToMillerOutput)
			}
		}
		if i < len(exp)-3 {
			out.Append(m.MillerLoopOutputSquare(script.ModConfig{TakeModulo: true}))
		}

		var step script.Script
		var err error
		if exp[i] == 0 {
			step, err = m.millerStepWithoutAddition(
				i,
				[2]bool{takeModuloMillerOutput, takeModuloPoint},
				positiveModuloI,
				verifyGradients,
				cfg.CleanConstant,
				gradientDoubling.Shift(gradientTracker),
				p, t,
			)
			if !verifyGradients {
				gradientTracker += m.ExtensionDegree
			}
		} else {
			step, err = m.millerStepWithAddition(
				i,
				[2]bool{takeModuloMillerOutput, takeModuloPoint},
				positiveModuloI,
				verifyGradients,
				cfg.CleanConstant,
				gradientDoubling.Shift(gradientTracker),
				gradientAddition.Shift(gradientTracker),
				p, q, t,
			)
			if !verifyGradients {
				gradientTracker += 2 * m.ExtensionDegree
			}
		}
		if err != nil {
			return script.Script{}, err
		}
		out.Append(step)
	}

	// [P, Q, w*Q, miller(P,Q)] -> [w*Q, miller(P,Q)]
	out.Append(script.Move(q.Shift(m.NElementsMillerOutput), script.Roll))
	out.Append(script.Move(p.Shift(m.NElementsMillerOutput), script.Roll))
	for j := 0; j < m.NPointsTwist+m.NPointsCurve; j++ {
		out.PushOp(script.OP_DROP)
	}

	return script.Optimise(out), nil
}

// millerStepWithoutAddition performs one doubling-only step:
// f <- f^2 * ev_(l_(T,T))(P), T <- 2T.
func (m *Model) millerStepWithoutAddition(
	i int,
	takeModulo [2]bool,
	positiveModulo, verifyGradient, cleanConstant bool,
	gradientDoubling stack.FiniteFieldElement,
	p, t stack.EllipticCurvePoint,
) (script.Script, error) {
	firstStep := i == len(m.ExpMillerLoop)-2
	shift := m.NElementsMillerOutput
	if firstStep {
		shift = 0
	}

	out := script.New()

	// [.., T, {f^2}] -> [.., T, {f^2}, ev_(l_(T,T))(P)]
	lineEval, err := m.LineEval(
		script.ModConfig{TakeModulo: true, PositiveModulo: true},
		gradientDoubling.Shift(shift),
		p.Shift(shift),
		t.Shift(shift),
		0,
	)
	if err != nil {
		return script.Script{}, err
	}
	out.Append(lineEval)

	if !firstStep {
		out.Append(m.MillerLoopOutputTimesEval(script.ModConfig{
			TakeModulo:     takeModulo[0],
			PositiveModulo: positiveModulo,
		}))
	}

	parked := m.NElementsMillerOutput
	if firstStep {
		parked = m.NElementsEvaluationOutput
	}
	for j := 0; j < parked; j++ {
		out.PushOp(script.OP_TOALTSTACK)
	}

	doubling, err := m.PointDoublingTwistedCurve(
		script.ModConfig{
			TakeModulo:     takeModulo[1],
			PositiveModulo: positiveModulo,
			CleanConstant:  i == 0 && cleanConstant,
		},
		verifyGradient,
		gradientDoubling,
		t,
		stack.BooleanListToBitmask([]bool{verifyGradient, true}),
	)
	if err != nil {
		return script.Script{}, err
	}
	out.Append(doubling)

	for j := 0; j < parked; j++ {
		out.PushOp(script.OP_FROMALTSTACK)
	}
	return out, nil
}

// millerStepWithAddition performs one doubling-plus-addition step:
// f <- f^2 * ev_(l_(T,T))(P) * ev_(l_(2T,±Q))(P), T <- 2T ± Q.
func (m *Model) millerStepWithAddition(
	i int,
	takeModulo [2]bool,
	positiveModulo, verifyGradient, cleanConstant bool,
	gradientDoubling, gradientAddition stack.FiniteFieldElement,
	p, q, t stack.EllipticCurvePoint,
) (script.Script, error) {
	firstStep := i == len(m.ExpMillerLoop)-2
	shift := m.NElementsMillerOutput
	if firstStep {
		shift = 0
	}
	negateQ := m.ExpMillerLoop[i] == -1

	out := script.New()

	// [.., T, {f^2}] -> [.., T, {f^2}, ev_(l_(T,T))(P)]
	lineEval, err := m.LineEval(
		script.ModConfig{TakeModulo: true},
		gradientDoubling.Shift(shift),
		p.Shift(shift),
		t.Shift(shift),
		0,
	)
	if err != nil {
		return script.Script{}, err
	}
	out.Append(lineEval)

	// [.., ev_(l_(T,T))(P)] -> [.., ev_(l_(T,T))(P), ev_(l_(2T,±Q))(P)]
	lineEval, err = m.LineEval(
		script.ModConfig{TakeModulo: true},
		gradientAddition.Shift(m.NElementsEvaluationOutput+shift),
		p.Shift(m.NElementsEvaluationOutput+shift),
		q.Shift(m.NElementsEvaluationOutput+shift).SetNegate(negateQ),
		0,
	)
	if err != nil {
		return script.Script{}, err
	}
	out.Append(lineEval)

	out.Append(m.LineEvalTimesEval(script.ModConfig{
		TakeModulo: firstStep && takeModulo[0],
	}))
	if !firstStep {
		out.Append(m.MillerLoopOutputTimesEvalTimesEval(script.ModConfig{
			TakeModulo:     takeModulo[0],
			PositiveModulo: positiveModulo,
		}))
	}

	parked := m.NElementsMillerOutput
	if firstStep {
		parked = m.NElementsEvaluationTimesEvaluation
	}
	for j := 0; j < parked; j++ {
		out.PushOp(script.OP_TOALTSTACK)
	}

	doubling, err := m.PointDoublingTwistedCurve(
		script.ModConfig{},
		verifyGradient,
		gradientDoubling,
		t,
		stack.BooleanListToBitmask([]bool{verifyGradient, true}),
	)
	if err != nil {
		return script.Script{}, err
	}
	out.Append(doubling)

	// The doubling gradient was consumed only if it was verified.
	additionGradient := gradientAddition
	if verifyGradient {
		additionGradient = gradientAddition.Shift(-m.ExtensionDegree)
	}
	addition, err := m.PointAdditionTwistedCurve(
		script.ModConfig{
			TakeModulo:     takeModulo[1],
			PositiveModulo: positiveModulo,
			CleanConstant:  i == 0 && cleanConstant,
		},
		verifyGradient,
		additionGradient,
		q.SetNegate(negateQ),
		t,
		stack.BooleanListToBitmask([]bool{verifyGradient, false, true}),
	)
	if err != nil {
		return script.Script{}, err
	}
	out.Append(addition)

	for j := 0; j < parked; j++ {
		out.PushOp(script.OP_FROMALTSTACK)
	}
	return out, nil
}
