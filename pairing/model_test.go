package pairing

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/stack"
)

func validModel() Model {
	product := func(cfg script.ModConfig) script.Script { return script.New() }
	doubling := func(
		cfg script.ModConfig,
		verifyGradient bool,
		gradient stack.FiniteFieldElement,
		p stack.EllipticCurvePoint,
		rollingOptions int,
	) (script.Script, error) {
		return script.New(), nil
	}
	addition := func(
		cfg script.ModConfig,
		verifyGradient bool,
		gradient stack.FiniteFieldElement,
		p, q stack.EllipticCurvePoint,
		rollingOptions int,
	) (script.Script, error) {
		return script.New(), nil
	}
	lineEval := func(
		cfg script.ModConfig,
		gradient stack.FiniteFieldElement,
		p, q stack.EllipticCurvePoint,
		rollingOptions int,
	) (script.Script, error) {
		return script.New(), nil
	}
	easy := func(cfg script.ModConfig, fInverse, f stack.FiniteFieldElement) (script.Script, error) {
		return script.New(), nil
	}
	hard := func(cfg script.ModConfig, moduloThreshold int) script.Script { return script.New() }
	sizes := func(
		moduloThreshold, i int,
		exp []int,
		sizeMillerOutput, sizePointMultiplication int,
		isTripleMillerLoop bool,
	) (bool, bool, int, int) {
		return false, false, 0, 0
	}

	return Model{
		Q:               big.NewInt(19),
		ExpMillerLoop:   []int{0, -1, 1},
		ExtensionDegree: 2,
		NPointsCurve:    2,
		NPointsTwist:    4,

		NElementsMillerOutput:              12,
		NElementsEvaluationOutput:          5,
		NElementsEvaluationTimesEvaluation: 10,

		PointDoublingTwistedCurve: doubling,
		PointAdditionTwistedCurve: addition,

		LineEval: lineEval,

		LineEvalTimesEval:                   product,
		LineEvalTimesEvalTimesEval:          product,
		LineEvalTimesEvalTimesEvalTimesEval: product,
		LineEvalTimesEvalSixfold:            product,

		MillerLoopOutputSquare:                      product,
		MillerLoopOutputTimesEval:                   product,
		MillerLoopOutputTimesEvalTimesEval:          product,
		MillerLoopOutputTimesEvalTimesEvalTimesEval: product,
		MillerLoopOutputTimesEvalSixfold:            product,

		EasyExponentiationWithInverseCheck: easy,
		HardExponentiation:                 hard,

		SizeEstimation: sizes,
	}
}

func TestNewModel(t *testing.T) {
	m, err := NewModel(validModel())
	require.NoError(t, err)
	require.NotNil(t, m)

	t.Run("missing modulus", func(t *testing.T) {
		bad := validModel()
		bad.Q = nil
		_, err := NewModel(bad)
		require.Error(t, err)
	})

	t.Run("short exponent", func(t *testing.T) {
		bad := validModel()
		bad.ExpMillerLoop = []int{1}
		_, err := NewModel(bad)
		require.Error(t, err)
	})

	t.Run("zero leading digit", func(t *testing.T) {
		bad := validModel()
		bad.ExpMillerLoop = []int{1, 1, 0}
		_, err := NewModel(bad)
		require.Error(t, err)
	})

	t.Run("digit out of range", func(t *testing.T) {
		bad := validModel()
		bad.ExpMillerLoop = []int{2, 0, 1}
		_, err := NewModel(bad)
		require.Error(t, err)
	})

	t.Run("zero dimension", func(t *testing.T) {
		bad := validModel()
		bad.NElementsMillerOutput = 0
		_, err := NewModel(bad)
		require.Error(t, err)
	})

	t.Run("missing capability", func(t *testing.T) {
		bad := validModel()
		bad.LineEval = nil
		_, err := NewModel(bad)
		require.Error(t, err)
	})
}

func TestStepsPerExponent(t *testing.T) {
	m, err := NewModel(validModel())
	require.NoError(t, err)

	// digits below the leading one: 0 counts one step, non-zero counts two
	require.Equal(t, 3, m.stepsPerExponent())
}

func TestEstimateMillerLoopSizes(t *testing.T) {
	q := new(big.Int).Lsh(big.NewInt(1), 254)
	exp := []int{0, 1, 0, 1}

	t.Run("last step always reduces", func(t *testing.T) {
		takeF, takeP, sizeF, sizeP := EstimateMillerLoopSizes(q, 1<<20, 0, exp, 300, 300, false, 4)
		require.True(t, takeF)
		require.True(t, takeP)
		require.Zero(t, sizeF)
		require.Zero(t, sizeP)
	})

	t.Run("large threshold lets sizes grow", func(t *testing.T) {
		takeF, takeP, sizeF, sizeP := EstimateMillerLoopSizes(q, 1<<20, 3, exp, 255, 255, false, 4)
		require.False(t, takeF)
		require.False(t, takeP)
		require.Greater(t, sizeF, 255)
		require.Greater(t, sizeP, 255)
	})

	t.Run("tight threshold resets to the modulus size", func(t *testing.T) {
		takeF, takeP, sizeF, sizeP := EstimateMillerLoopSizes(q, 300, 3, exp, 255, 255, false, 4)
		require.True(t, takeF)
		require.True(t, takeP)
		require.Equal(t, q.BitLen(), sizeF)
		require.Equal(t, q.BitLen(), sizeP)
	})

	t.Run("addition steps grow faster", func(t *testing.T) {
		_, _, doublingOnly, _ := EstimateMillerLoopSizes(q, 1<<20, 3, exp, 255, 255, false, 4)
		_, _, withAddition, _ := EstimateMillerLoopSizes(q, 1<<20, 2, exp, 255, 255, false, 4)
		require.Greater(t, withAddition, doublingOnly)
	})

	t.Run("triple loop carries three factors", func(t *testing.T) {
		_, _, single, _ := EstimateMillerLoopSizes(q, 1<<20, 3, exp, 255, 255, false, 4)
		_, _, triple, _ := EstimateMillerLoopSizes(q, 1<<20, 3, exp, 255, 255, true, 4)
		require.Greater(t, triple, single)
	})
}
