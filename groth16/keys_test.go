package groth16

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkscript/zkscript/ec"
	"github.com/zkscript/zkscript/pairing"
	"github.com/zkscript/zkscript/script"
)

// layoutModel is a minimal model for witness layout tests; it never compiles
// a verifier.
func layoutModel() *Model {
	q := big.NewInt(17)
	return &Model{
		Pairing: &pairing.Model{Q: q, NPointsCurve: 2, NPointsTwist: 4},
		Curve:   ec.NewCurveFq(q, big.NewInt(0), big.NewInt(7)),
		R:       big.NewInt(8),
	}
}

func TestUnlockingKeyLayout(t *testing.T) {
	m := layoutModel()

	key := &UnlockingKey{
		PublicInputs: []*big.Int{big.NewInt(3)},
		A:            []*big.Int{big.NewInt(6), big.NewInt(11)},
		B:            []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3), big.NewInt(4)},
		C:            []*big.Int{big.NewInt(7), big.NewInt(8)},
		GradientsPairings: [3][][][]*big.Int{
			{{{big.NewInt(2)}}},
			{{{big.NewInt(3)}}},
			{{{big.NewInt(4)}}},
		},
		InverseMillerOutput: []*big.Int{big.NewInt(5)},
		GradientsMultiplications: [][][][]*big.Int{
			{{{big.NewInt(8)}, {big.NewInt(10)}}},
		},
		GradientsAdditions: [][]*big.Int{{big.NewInt(9)}},
	}

	t.Run("gradients on the stack", func(t *testing.T) {
		unlock := key.ToUnlockingScript(m, true, true)
		require.Equal(t,
			"0x11 OP_5 OP_2 OP_3 OP_4"+
				" OP_6 OP_11 OP_1 OP_2 OP_3 OP_4 OP_7 OP_8"+
				" OP_9"+
				" OP_0 OP_10 OP_1 OP_8 OP_1 OP_0 OP_0",
			unlock.String(),
		)
	})

	t.Run("gradients injected", func(t *testing.T) {
		unlock := key.ToUnlockingScript(m, false, false)
		require.Equal(t,
			"OP_5 OP_2"+
				" OP_6 OP_11 OP_1 OP_2 OP_3 OP_4 OP_7 OP_8"+
				" OP_9"+
				" OP_0 OP_10 OP_1 OP_8 OP_1 OP_0 OP_0",
			unlock.String(),
		)
	})
}

func TestUnlockingKeyWithPrecomputedMSMLayout(t *testing.T) {
	m := layoutModel()

	key := &UnlockingKeyWithPrecomputedMSM{
		A: []*big.Int{big.NewInt(6), big.NewInt(11)},
		B: []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3), big.NewInt(4)},
		C: []*big.Int{big.NewInt(7), big.NewInt(8)},
		GradientsPairings: [3][][][]*big.Int{
			{{{big.NewInt(2)}, {big.NewInt(12)}}},
			{{{big.NewInt(3)}, {big.NewInt(13)}}},
			{{{big.NewInt(4)}, {big.NewInt(14)}}},
		},
		InverseMillerOutput: []*big.Int{big.NewInt(5)},
		PrecomputedMSM:      []*big.Int{big.NewInt(15), big.NewInt(16)},
	}

	// Addition gradients load before doubling ones within an iteration group
	unlock := key.ToUnlockingScript(m, true, true)
	require.Equal(t,
		"0x11 OP_5 OP_12 OP_13 OP_14 OP_2 OP_3 OP_4"+
			" OP_6 OP_11 OP_1 OP_2 OP_3 OP_4 OP_7 OP_8 OP_15 OP_16",
		unlock.String(),
	)
}

func TestVerifierRejectsMalformedKeys(t *testing.T) {
	m := layoutModel()

	_, err := m.Verifier(&LockingKey{}, 200, nil, script.Reduce)
	require.Error(t, err)

	key := &LockingKey{
		AlphaBeta:  make([]*big.Int, 12),
		MinusGamma: make([]*big.Int, 4),
		MinusDelta: make([]*big.Int, 4),
		GammaAbc:   [][]*big.Int{{big.NewInt(1), big.NewInt(2)}, {big.NewInt(3), big.NewInt(4)}},
	}
	_, err = m.Verifier(key, 200, []*big.Int{big.NewInt(8), big.NewInt(8)}, script.Reduce)
	require.Error(t, err)
}
