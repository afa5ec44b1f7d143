package bls12381

import (
	"github.com/zkscript/zkscript/ec"
	"github.com/zkscript/zkscript/pairing"
	"github.com/zkscript/zkscript/script"
)

// Bits of growth per Miller loop operation absorbed by the size estimation:
// ceil(log2(32)), the largest number of additions folded into one output
// coordinate of a dense product.
const sizeEstimationBits = 5

// NewPairingModel assembles the BLS12-381 pairing model: tower arithmetic,
// twisted curve operations, line evaluations and final exponentiation wired
// into the curve-independent Miller loop generators.
func NewPairingModel() (*pairing.Model, error) {
	twistedCurve := ec.NewCurveFq2(q, twistedA, fq2Script)
	lineFunctions := NewLineFunctions(fq2Script)
	products := NewMillerOutputOperations(fq12CubicScript)
	finalExp := NewFinalExponentiation(fq12Script, fq12CubicScript)

	// (a, b, d, e, f) -> ((a, b), (0, d), (e, f)): inject the zero r
	// component of a product of two evaluations.
	padEvalTimesEval := script.New()
	for j := 0; j < 6; j++ {
		padEvalTimesEval.PushOp(script.OP_TOALTSTACK)
	}
	padEvalTimesEval.PushOp(script.OP_0, script.OP_0)
	for j := 0; j < 6; j++ {
		padEvalTimesEval.PushOp(script.OP_FROMALTSTACK)
	}

	return pairing.NewModel(pairing.Model{
		Q:               q,
		ExpMillerLoop:   expMillerLoop,
		ExtensionDegree: extensionDegree,
		NPointsCurve:    nPointsCurve,
		NPointsTwist:    nPointsTwist,

		NElementsMillerOutput:              nElementsMillerOutput,
		NElementsEvaluationOutput:          nElementsEvaluationOutput,
		NElementsEvaluationTimesEvaluation: nElementsEvaluationTimesEvaluation,

		PointDoublingTwistedCurve: twistedCurve.PointAlgebraicDoubling,
		PointAdditionTwistedCurve: twistedCurve.PointAlgebraicAddition,

		LineEval: lineFunctions.LineEvaluation,

		LineEvalTimesEval:                   products.LineEvalTimesEval,
		LineEvalTimesEvalTimesEval:          products.LineEvalTimesEvalTimesEval,
		LineEvalTimesEvalTimesEvalTimesEval: products.LineEvalTimesEvalTimesEvalTimesEval,
		LineEvalTimesEvalSixfold:            products.LineEvalTimesEvalSixfold,

		MillerLoopOutputSquare:                      products.MillerLoopOutputSquare,
		MillerLoopOutputTimesEval:                   products.MillerLoopOutputTimesEval,
		MillerLoopOutputTimesEvalTimesEval:          products.MillerLoopOutputTimesEvalTimesEval,
		MillerLoopOutputTimesEvalTimesEvalTimesEval: products.MillerLoopOutputTimesEvalTimesEvalTimesEval,
		MillerLoopOutputTimesEvalSixfold:            products.MillerLoopOutputTimesEvalSixfold,

		PadEvalTimesEvalToMillerOutput:                   padEvalTimesEval,
		PadEvalTimesEvalTimesEvalTimesEvalToMillerOutput: script.New(),

		EasyExponentiationWithInverseCheck: finalExp.EasyExponentiationWithInverseCheck,
		HardExponentiation:                 finalExp.HardExponentiation,

		SizeEstimation: func(
			moduloThreshold, i int,
			exp []int,
			sizeMillerOutput, sizePointMultiplication int,
			isTripleMillerLoop bool,
		) (bool, bool, int, int) {
			return pairing.EstimateMillerLoopSizes(
				q, moduloThreshold, i, exp,
				sizeMillerOutput, sizePointMultiplication,
				isTripleMillerLoop, sizeEstimationBits,
			)
		},
	})
}
