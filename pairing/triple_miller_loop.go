package pairing

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/stack"
)

// PrecomputedGradients holds the gradients of two fixed twist points whose
// Miller loop contributions are injected by the locking script instead of
// being supplied on the stack. Indexing is [point][iteration][gradient],
// iterations running from the most significant exponent digit down, with one
// gradient per doubling-only iteration and two (doubling first) otherwise.
type PrecomputedGradients [2][][][]*big.Int

// TripleMillerLoop emits the script evaluating the product of three Miller
// loops, miller(P1,Q1) * miller(P2,Q2) * miller(P3,Q3).
//
// Stack in:  [q, .., gradients, P1, P2, P3, Q1, Q2, Q3]
// Stack out: [q, .., unverified gradients, miller(P1,Q1) * miller(P2,Q2) * miller(P3,Q3)]
//
// verifyGradients selects per pair whether the gradients are checked against
// the computed points; unverified ones are consumed arithmetically and left
// on the stack. When gradientsOnStack is false the gradients of the second
// and third pair are injected from precomputedGradients and only the first
// pair's travel on the stack; each step sinks the injected ones under the
// points, next to the first pair's, so the loop body sees the on-stack
// layout, and consumes them before the step ends.
//
// cfg is interpreted as in MillerLoop.
func (m *Model) TripleMillerLoop(
	moduloThreshold int,
	verifyGradients [3]bool,
	cfg script.ModConfig,
	gradientsOnStack bool,
	precomputedGradients *PrecomputedGradients,
) (script.Script, error) {
	exp := m.ExpMillerLoop
	if !gradientsOnStack {
		if precomputedGradients == nil {
			return script.Script{}, errors.New("pairing: injected gradients required when not on the stack")
		}
		for k := 0; k < 2; k++ {
			if len(precomputedGradients[k]) != len(exp)-1 {
				return script.Script{}, errors.New("pairing: injected gradients must cover every loop iteration")
			}
			for i, group := range precomputedGradients[k] {
				want := 1
				if exp[len(exp)-2-i] != 0 {
					want = 2
				}
				if len(group) != want {
					return script.Script{}, fmt.Errorf(
						"pairing: %d injected gradients at iteration %d, want %d", len(group), i, want,
					)
				}
			}
		}
	}

	// One layout for both modes: the six gradients of the current iteration
	// sit right under the points, addition ones below the doubling ones. The
	// injected steps recreate it by sinking the pushed gradients before the
	// line evaluations.
	gradientsAddition := make([]stack.FiniteFieldElement, 3)
	gradientsDoubling := make([]stack.FiniteFieldElement, 3)
	for j := 0; j < 3; j++ {
		gradientsAddition[j] = stack.FFE(
			6*m.NPointsTwist+3*m.NPointsCurve+(6-j)*m.ExtensionDegree-1, false, m.ExtensionDegree,
		)
		gradientsDoubling[j] = stack.FFE(
			6*m.NPointsTwist+3*m.NPointsCurve+(3-j)*m.ExtensionDegree-1, false, m.ExtensionDegree,
		)
	}

	p := make([]stack.EllipticCurvePoint, 3)
	q := make([]stack.EllipticCurvePoint, 3)
	t := make([]stack.EllipticCurvePoint, 3)
	for j := 0; j < 3; j++ {
		p[j] = stack.ECP(
			stack.FFE(6*m.NPointsTwist+(3-j)*m.NPointsCurve-1, false, m.NPointsCurve/2),
			stack.FFE(6*m.NPointsTwist+(2-j)*m.NPointsCurve+m.NPointsCurve/2-1, false, m.NPointsCurve/2),
		)
		q[j] = stack.ECP(
			stack.FFE((6-j)*m.NPointsTwist-1, false, m.NPointsTwist/2),
			stack.FFE((5-j)*m.NPointsTwist+m.NPointsTwist/2-1, false, m.NPointsTwist/2),
		)
		t[j] = stack.ECP(
			stack.FFE((3-j)*m.NPointsTwist-1, false, m.NPointsTwist/2),
			stack.FFE((2-j)*m.NPointsTwist+m.NPointsTwist/2-1, false, m.NPointsTwist/2),
		)
	}

	out := cfg.VerifyConstant(m.Q)

	// T_j = Q_j, negated when the loop computes w*(-Q_j)
	for j := 0; j < 3; j++ {
		for k := 0; k < m.NPointsTwist; k++ {
			out.Append(script.Pick(3*m.NPointsTwist-1, 1))
			if exp[len(exp)-1] == -1 && k >= m.NPointsTwist/2 {
				out.PushOp(script.OP_NEGATE)
			}
		}
	}

	qBits := m.Q.BitLen()
	sizeMillerOutput := qBits
	sizePointMultiplication := qBits

	gradientTracker := 0
	for loopI := len(exp) - 2; loopI >= 0; loopI-- {
		positiveModuloI := cfg.PositiveModulo && loopI == 0
		cleanConstantI := cfg.CleanConstant && loopI == 0

		takeModuloMillerOutput, takeModuloPoint, newSizeMillerOutput, newSizePoint := m.SizeEstimation(
			moduloThreshold, loopI, exp, sizeMillerOutput, sizePointMultiplication, true,
		)
		sizeMillerOutput, sizePointMultiplication = newSizeMillerOutput, newSizePoint

		if loopI != len(exp)-2 {
			out.Append(m.MillerLoopOutputSquare(script.ModConfig{}))
		}

		var injected [2][][]*big.Int
		if !gradientsOnStack {
			for k := 0; k < 2; k++ {
				injected[k] = precomputedGradients[k][len(exp)-2-loopI]
			}
		}

		shiftedDoubling := make([]stack.FiniteFieldElement, 3)
		shiftedAddition := make([]stack.FiniteFieldElement, 3)
		for j := 0; j < 3; j++ {
			shiftedDoubling[j] = gradientsDoubling[j].Shift(gradientTracker)
			shiftedAddition[j] = gradientsAddition[j].Shift(gradientTracker)
		}

		// Injected gradients are consumed inside the step; only the first
		// pair's can pile up.
		unverifiedWidth := 0
		for j, verified := range verifyGradients {
			if j > 0 && !gradientsOnStack {
				continue
			}
			if !verified {
				unverifiedWidth += m.ExtensionDegree
			}
		}

		var step script.Script
		var err error
		takeModuloStep := [2]bool{takeModuloMillerOutput, takeModuloPoint}
		if exp[loopI] == 0 {
			if gradientsOnStack {
				step, err = m.tripleStepWithoutAddition(
					loopI, takeModuloStep, positiveModuloI, verifyGradients, verifyGradients,
					cleanConstantI, shiftedDoubling, p, t,
				)
			} else {
				step, err = m.tripleStepWithoutAdditionInjected(
					loopI, takeModuloStep, positiveModuloI, verifyGradients, cleanConstantI,
					shiftedDoubling, p, t, injected, gradientTracker,
				)
			}
			gradientTracker += unverifiedWidth
		} else {
			if gradientsOnStack {
				step, err = m.tripleStepWithAddition(
					loopI, takeModuloStep, positiveModuloI, verifyGradients, verifyGradients,
					cleanConstantI, shiftedDoubling, shiftedAddition, p, q, t,
				)
			} else {
				step, err = m.tripleStepWithAdditionInjected(
					loopI, takeModuloStep, positiveModuloI, verifyGradients, cleanConstantI,
					shiftedDoubling, shiftedAddition, p, q, t, injected, gradientTracker,
				)
			}
			gradientTracker += 2 * unverifiedWidth
		}
		if err != nil {
			return script.Script{}, err
		}
		out.Append(step)
	}

	// [P1, P2, P3, Q1, Q2, Q3, w*Q1, w*Q2, w*Q3, f] -> [f]
	out.Append(script.Roll(
		6*m.NPointsTwist+3*m.NPointsCurve+m.NElementsMillerOutput-1,
		6*m.NPointsTwist+3*m.NPointsCurve,
	))
	for j := 0; j < 6*m.NPointsTwist+3*m.NPointsCurve; j++ {
		out.PushOp(script.OP_DROP)
	}

	return script.Optimise(out), nil
}

// tripleStepWithoutAddition performs one doubling-only step on the three
// pairs:
// f <- f^2 * ev_(l_(T1,T1))(P1) * ev_(l_(T2,T2))(P2) * ev_(l_(T3,T3))(P3),
// T_j <- 2*T_j.
//
// rollGradients selects per pair whether the doubling gradient is consumed;
// injected gradients are always rolled so they cannot outlive the step.
func (m *Model) tripleStepWithoutAddition(
	loopI int,
	takeModulo [2]bool,
	positiveModulo bool,
	verifyGradients, rollGradients [3]bool,
	cleanConstant bool,
	gradientsDoubling []stack.FiniteFieldElement,
	p, t []stack.EllipticCurvePoint,
) (script.Script, error) {
	firstStep := loopI == len(m.ExpMillerLoop)-2
	shift := m.NElementsMillerOutput
	if firstStep {
		shift = 0
	}

	out := script.New()

	for j := 0; j < 3; j++ {
		evalShift := j*m.NElementsEvaluationOutput + shift
		lineEval, err := m.LineEval(
			script.ModConfig{TakeModulo: true},
			gradientsDoubling[j].Shift(evalShift),
			p[j].Shift(evalShift),
			t[j].Shift(evalShift),
			0,
		)
		if err != nil {
			return script.Script{}, err
		}
		out.Append(lineEval)
	}

	out.Append(m.LineEvalTimesEval(script.ModConfig{}))
	out.Append(m.LineEvalTimesEvalTimesEval(script.ModConfig{
		TakeModulo: firstStep && takeModulo[0],
	}))
	if !firstStep {
		out.Append(m.MillerLoopOutputTimesEvalTimesEvalTimesEval(script.ModConfig{
			TakeModulo:     takeModulo[0],
			PositiveModulo: positiveModulo,
		}))
	}

	for j := 0; j < m.NElementsMillerOutput; j++ {
		out.PushOp(script.OP_TOALTSTACK)
	}

	for j := 0; j < 3; j++ {
		doubling, err := m.PointDoublingTwistedCurve(
			script.ModConfig{
				TakeModulo:     takeModulo[1],
				PositiveModulo: positiveModulo,
				CleanConstant:  j == 2 && loopI == 0 && cleanConstant,
			},
			verifyGradients[j],
			gradientsDoubling[j],
			t[j].Shift(j*m.NPointsTwist),
			stack.BooleanListToBitmask([]bool{rollGradients[j], true}),
		)
		if err != nil {
			return script.Script{}, err
		}
		out.Append(doubling)
	}

	for j := 0; j < m.NElementsMillerOutput; j++ {
		out.PushOp(script.OP_FROMALTSTACK)
	}
	return out, nil
}

// tripleStepWithoutAdditionInjected is tripleStepWithoutAddition with the
// second and third doubling gradients pushed by the locking script and sunk
// under the points next to the first pair's, consumed unverified within the
// step.
func (m *Model) tripleStepWithoutAdditionInjected(
	loopI int,
	takeModulo [2]bool,
	positiveModulo bool,
	verifyGradients [3]bool,
	cleanConstant bool,
	gradientsDoubling []stack.FiniteFieldElement,
	p, t []stack.EllipticCurvePoint,
	injected [2][][]*big.Int,
	gradientTracker int,
) (script.Script, error) {
	firstStep := loopI == len(m.ExpMillerLoop)-2

	out := script.New()

	// Park the accumulator, push the two doubling gradients and sink them
	// under the points and any piled-up unverified gradients, recreating the
	// on-stack layout.
	if !firstStep {
		for j := 0; j < m.NElementsMillerOutput; j++ {
			out.PushOp(script.OP_TOALTSTACK)
		}
	}
	block := 6*m.NPointsTwist + 3*m.NPointsCurve + gradientTracker
	for k := 0; k < 2; k++ {
		out.Append(script.NumsToScript(injected[k][0]))
	}
	out.Append(script.Roll(block+2*m.ExtensionDegree-1, block))
	if !firstStep {
		for j := 0; j < m.NElementsMillerOutput; j++ {
			out.PushOp(script.OP_FROMALTSTACK)
		}
	}

	step, err := m.tripleStepWithoutAddition(
		loopI, takeModulo, positiveModulo,
		verifyGradients, [3]bool{verifyGradients[0], true, true},
		cleanConstant, gradientsDoubling, p, t,
	)
	if err != nil {
		return script.Script{}, err
	}
	out.Append(step)
	return out, nil
}

// tripleStepWithAddition performs one doubling-plus-addition step on the
// three pairs:
// f <- f^2 * prod_j ev_(l_(Tj,Tj))(Pj) * ev_(l_(2Tj,±Qj))(Pj),
// T_j <- 2*T_j ± Q_j.
//
// rollGradients selects per pair whether the gradients are consumed;
// injected gradients are always rolled so they cannot outlive the step.
func (m *Model) tripleStepWithAddition(
	loopI int,
	takeModulo [2]bool,
	positiveModulo bool,
	verifyGradients, rollGradients [3]bool,
	cleanConstant bool,
	gradientsDoubling, gradientsAddition []stack.FiniteFieldElement,
	p, q, t []stack.EllipticCurvePoint,
) (script.Script, error) {
	firstStep := loopI == len(m.ExpMillerLoop)-2
	shift := m.NElementsMillerOutput
	if firstStep {
		shift = 0
	}
	negateQ := m.ExpMillerLoop[loopI] == -1

	neeo := m.NElementsEvaluationOutput
	neete := m.NElementsEvaluationTimesEvaluation

	out := script.New()

	// Fold the six line evaluations pairwise: (t1*t2), (t3*t1'), (t2'*t3').
	type evaluation struct {
		gradient stack.FiniteFieldElement
		point    stack.EllipticCurvePoint
		curve    stack.EllipticCurvePoint
		negate   bool
		fold     bool // multiply the two evaluations on top afterwards
	}
	evaluations := []evaluation{
		{gradientsDoubling[0].Shift(shift), p[0].Shift(shift), t[0].Shift(shift), false, false},
		{gradientsDoubling[1].Shift(neeo + shift), p[1].Shift(neeo + shift), t[1].Shift(neeo + shift), false, true},
		{gradientsDoubling[2].Shift(neete + shift), p[2].Shift(neete + shift), t[2].Shift(neete + shift), false, false},
		{
			gradientsAddition[0].Shift(neete + neeo + shift),
			p[0].Shift(neete + neeo + shift),
			q[0].Shift(neete + neeo + shift),
			true, true,
		},
		{
			gradientsAddition[1].Shift(2*neete + shift),
			p[1].Shift(2*neete + shift),
			q[1].Shift(2*neete + shift),
			true, false,
		},
		{
			gradientsAddition[2].Shift(2*neete + neeo + shift),
			p[2].Shift(2*neete + neeo + shift),
			q[2].Shift(2*neete + neeo + shift),
			true, true,
		},
	}
	for _, ev := range evaluations {
		lineEval, err := m.LineEval(
			script.ModConfig{TakeModulo: true},
			ev.gradient,
			ev.point,
			ev.curve.SetNegate(ev.negate && negateQ),
			0,
		)
		if err != nil {
			return script.Script{}, err
		}
		out.Append(lineEval)
		if ev.fold {
			out.Append(m.LineEvalTimesEval(script.ModConfig{}))
		}
	}

	out.Append(m.LineEvalTimesEvalTimesEvalTimesEval(script.ModConfig{}))
	out.Append(m.LineEvalTimesEvalSixfold(script.ModConfig{
		TakeModulo: firstStep && takeModulo[0],
	}))
	if !firstStep {
		out.Append(m.MillerLoopOutputTimesEvalSixfold(script.ModConfig{
			TakeModulo:     takeModulo[0],
			PositiveModulo: positiveModulo,
		}))
	}

	for j := 0; j < m.NElementsMillerOutput; j++ {
		out.PushOp(script.OP_TOALTSTACK)
	}

	// Doubling and addition per pair; rolled doubling gradients sit above the
	// addition ones, so the addition descriptors climb by one slot per roll.
	rolledShift := 0
	for j := 0; j < 3; j++ {
		doubling, err := m.PointDoublingTwistedCurve(
			script.ModConfig{TakeModulo: takeModulo[1]},
			verifyGradients[j],
			gradientsDoubling[j],
			t[j].Shift(j*m.NPointsTwist),
			stack.BooleanListToBitmask([]bool{rollGradients[j], true}),
		)
		if err != nil {
			return script.Script{}, err
		}
		out.Append(doubling)
		if rollGradients[j] {
			rolledShift += m.ExtensionDegree
		}

		addition, err := m.PointAdditionTwistedCurve(
			script.ModConfig{
				TakeModulo:     takeModulo[1],
				PositiveModulo: positiveModulo,
				CleanConstant:  j == 2 && loopI == 0 && cleanConstant,
			},
			verifyGradients[j],
			gradientsAddition[j].Shift(-rolledShift),
			q[j].SetNegate(negateQ),
			t[j].Shift((j-2)*m.NPointsTwist),
			stack.BooleanListToBitmask([]bool{rollGradients[j], false, true}),
		)
		if err != nil {
			return script.Script{}, err
		}
		out.Append(addition)
	}

	for j := 0; j < m.NElementsMillerOutput; j++ {
		out.PushOp(script.OP_FROMALTSTACK)
	}
	return out, nil
}

// tripleStepWithAdditionInjected is tripleStepWithAddition with the addition
// and doubling gradients of the second and third pair pushed by the locking
// script and sunk under the points next to the first pair's, consumed
// unverified within the step.
func (m *Model) tripleStepWithAdditionInjected(
	loopI int,
	takeModulo [2]bool,
	positiveModulo bool,
	verifyGradients [3]bool,
	cleanConstant bool,
	gradientsDoubling, gradientsAddition []stack.FiniteFieldElement,
	p, q, t []stack.EllipticCurvePoint,
	injected [2][][]*big.Int,
	gradientTracker int,
) (script.Script, error) {
	firstStep := loopI == len(m.ExpMillerLoop)-2
	ext := m.ExtensionDegree

	out := script.New()

	// Park the accumulator and recreate the on-stack layout
	// [gA1 gA2 gA3 gD1 gD2 gD3] under the points and any piled-up unverified
	// gradients: the addition gradients are sunk below the first pair's
	// doubling one, the doubling gradients above it.
	if !firstStep {
		for j := 0; j < m.NElementsMillerOutput; j++ {
			out.PushOp(script.OP_TOALTSTACK)
		}
	}
	block := 6*m.NPointsTwist + 3*m.NPointsCurve + gradientTracker
	for k := 0; k < 2; k++ {
		out.Append(script.NumsToScript(injected[k][1]))
	}
	out.Append(script.Roll(block+3*ext-1, block+ext))
	for k := 0; k < 2; k++ {
		out.Append(script.NumsToScript(injected[k][0]))
	}
	out.Append(script.Roll(block+2*ext-1, block))
	if !firstStep {
		for j := 0; j < m.NElementsMillerOutput; j++ {
			out.PushOp(script.OP_FROMALTSTACK)
		}
	}

	step, err := m.tripleStepWithAddition(
		loopI, takeModulo, positiveModulo,
		verifyGradients, [3]bool{verifyGradients[0], true, true},
		cleanConstant, gradientsDoubling, gradientsAddition, p, q, t,
	)
	if err != nil {
		return script.Script{}, err
	}
	out.Append(step)
	return out, nil
}
