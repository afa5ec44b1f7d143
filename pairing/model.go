// Package pairing provides curve-independent script generators for bilinear
// pairings over pairing-friendly curves: single and triple Miller loops,
// exponentiation in the cyclotomic subgroup and the final pairing assembly.
//
// A Model bundles the script capabilities of a concrete curve. The curve
// packages instantiate one by wiring in their tower arithmetic, line
// evaluations and final exponentiation; everything in this package is generic
// over the tower shape via the element counts carried by the model.
package pairing

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/stack"
)

// LineEvalFunc generates the script evaluating at P_ the line through the
// twist points selected by the gradient.
type LineEvalFunc func(
	cfg script.ModConfig,
	gradient stack.FiniteFieldElement,
	p, q stack.EllipticCurvePoint,
	rollingOptions int,
) (script.Script, error)

// ProductFunc generates the script multiplying the operands on top of the
// stack, laid out in one of the representations produced along the Miller
// loop (sparse line evaluation, product of two evaluations, or dense).
type ProductFunc func(cfg script.ModConfig) script.Script

// PointDoublingFunc generates the script doubling a point on the twisted
// curve, optionally verifying the supplied gradient.
type PointDoublingFunc func(
	cfg script.ModConfig,
	verifyGradient bool,
	gradient stack.FiniteFieldElement,
	p stack.EllipticCurvePoint,
	rollingOptions int,
) (script.Script, error)

// PointAdditionFunc generates the script adding two points on the twisted
// curve, optionally verifying the supplied gradient.
type PointAdditionFunc func(
	cfg script.ModConfig,
	verifyGradient bool,
	gradient stack.FiniteFieldElement,
	p, q stack.EllipticCurvePoint,
	rollingOptions int,
) (script.Script, error)

// EasyExponentiationFunc generates the script computing the easy part of the
// final exponentiation while checking the injected inverse of the Miller
// loop output.
type EasyExponentiationFunc func(
	cfg script.ModConfig,
	fInverse, f stack.FiniteFieldElement,
) (script.Script, error)

// HardExponentiationFunc generates the script computing the hard part of the
// final exponentiation.
type HardExponentiationFunc func(cfg script.ModConfig, moduloThreshold int) script.Script

// SizeEstimationFunc decides whether the Miller loop accumulator and the
// point multiplications must be reduced at step i, and returns their updated
// bit sizes. See EstimateMillerLoopSizes.
type SizeEstimationFunc func(
	moduloThreshold, i int,
	exp []int,
	sizeMillerOutput, sizePointMultiplication int,
	isTripleMillerLoop bool,
) (takeModuloMillerOutput, takeModuloPointMultiplication bool, newSizeMillerOutput, newSizePointMultiplication int)

// Model is the script-generation model of a pairing-friendly curve.
//
// The exponent ExpMillerLoop is little endian with digits in {-1, 0, 1} and a
// non-zero leading digit; a leading digit of -1 makes the loop run on -w and
// negates T at initialisation.
type Model struct {
	Q               *big.Int
	ExpMillerLoop   []int
	ExtensionDegree int
	NPointsCurve    int
	NPointsTwist    int

	// Element counts of the Miller loop representations: dense output,
	// sparse line evaluation, and product of two evaluations.
	NElementsMillerOutput              int
	NElementsEvaluationOutput          int
	NElementsEvaluationTimesEvaluation int

	PointDoublingTwistedCurve PointDoublingFunc
	PointAdditionTwistedCurve PointAdditionFunc

	LineEval LineEvalFunc

	// Sparse products of line evaluations. The trailing factor counts name
	// the operands: eval (sparse) and eval-times-eval (somewhat sparse).
	// Sixfold multiplies a product of four evaluations by a product of two,
	// completing the six line evaluations of a triple loop addition step.
	LineEvalTimesEval                   ProductFunc
	LineEvalTimesEvalTimesEval          ProductFunc
	LineEvalTimesEvalTimesEvalTimesEval ProductFunc
	LineEvalTimesEvalSixfold            ProductFunc

	// Updates of the dense Miller loop accumulator by the sparse products
	// above.
	MillerLoopOutputSquare                      ProductFunc
	MillerLoopOutputTimesEval                   ProductFunc
	MillerLoopOutputTimesEvalTimesEval          ProductFunc
	MillerLoopOutputTimesEvalTimesEvalTimesEval ProductFunc
	MillerLoopOutputTimesEvalSixfold            ProductFunc

	// Padding of a partial product to the dense representation.
	PadEvalTimesEvalToMillerOutput                   script.Script
	PadEvalTimesEvalTimesEvalTimesEvalToMillerOutput script.Script

	EasyExponentiationWithInverseCheck EasyExponentiationFunc
	HardExponentiation                 HardExponentiationFunc

	SizeEstimation SizeEstimationFunc
}

// NewModel validates the capability set and returns the model.
func NewModel(m Model) (*Model, error) {
	if m.Q == nil || m.Q.Sign() <= 0 {
		return nil, errors.New("pairing: modulus must be a positive integer")
	}
	if len(m.ExpMillerLoop) < 2 {
		return nil, errors.New("pairing: exponent must have at least two digits")
	}
	if m.ExpMillerLoop[len(m.ExpMillerLoop)-1] == 0 {
		return nil, errors.New("pairing: exponent leading digit must be non-zero")
	}
	for _, d := range m.ExpMillerLoop {
		if d < -1 || d > 1 {
			return nil, fmt.Errorf("pairing: exponent digit %d out of range", d)
		}
	}
	for _, dim := range []struct {
		name  string
		value int
	}{
		{"ExtensionDegree", m.ExtensionDegree},
		{"NPointsCurve", m.NPointsCurve},
		{"NPointsTwist", m.NPointsTwist},
		{"NElementsMillerOutput", m.NElementsMillerOutput},
		{"NElementsEvaluationOutput", m.NElementsEvaluationOutput},
		{"NElementsEvaluationTimesEvaluation", m.NElementsEvaluationTimesEvaluation},
	} {
		if dim.value <= 0 {
			return nil, fmt.Errorf("pairing: %s must be positive", dim.name)
		}
	}
	for _, capability := range []struct {
		name string
		ok   bool
	}{
		{"PointDoublingTwistedCurve", m.PointDoublingTwistedCurve != nil},
		{"PointAdditionTwistedCurve", m.PointAdditionTwistedCurve != nil},
		{"LineEval", m.LineEval != nil},
		{"LineEvalTimesEval", m.LineEvalTimesEval != nil},
		{"LineEvalTimesEvalTimesEval", m.LineEvalTimesEvalTimesEval != nil},
		{"LineEvalTimesEvalTimesEvalTimesEval", m.LineEvalTimesEvalTimesEvalTimesEval != nil},
		{"LineEvalTimesEvalSixfold", m.LineEvalTimesEvalSixfold != nil},
		{"MillerLoopOutputSquare", m.MillerLoopOutputSquare != nil},
		{"MillerLoopOutputTimesEval", m.MillerLoopOutputTimesEval != nil},
		{"MillerLoopOutputTimesEvalTimesEval", m.MillerLoopOutputTimesEvalTimesEval != nil},
		{"MillerLoopOutputTimesEvalTimesEvalTimesEval", m.MillerLoopOutputTimesEvalTimesEvalTimesEval != nil},
		{"MillerLoopOutputTimesEvalSixfold", m.MillerLoopOutputTimesEvalSixfold != nil},
		{"EasyExponentiationWithInverseCheck", m.EasyExponentiationWithInverseCheck != nil},
		{"HardExponentiation", m.HardExponentiation != nil},
		{"SizeEstimation", m.SizeEstimation != nil},
	} {
		if !capability.ok {
			return nil, fmt.Errorf("pairing: missing capability %s", capability.name)
		}
	}
	return &m, nil
}

// stepsPerExponent counts the doubling-only and doubling-plus-addition steps
// the Miller loop performs, weighting the latter twice. Unverified gradients
// occupy this many extension-degree slots on the stack after the loop.
func (m *Model) stepsPerExponent() int {
	steps := 0
	for _, d := range m.ExpMillerLoop[:len(m.ExpMillerLoop)-1] {
		if d == 0 {
			steps++
		} else {
			steps += 2
		}
	}
	return steps
}
