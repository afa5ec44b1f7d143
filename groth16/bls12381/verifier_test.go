package bls12381

import (
	"math/big"
	"testing"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	"github.com/stretchr/testify/require"

	"github.com/zkscript/zkscript/groth16"
	"github.com/zkscript/zkscript/internal/ecarith"
	"github.com/zkscript/zkscript/pairing"
	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/test"
)

// millerLoopValue executes the Miller loop script for the pair (p, q) and
// returns its output as an element of the quadratic tower. The loop leaves
// the output in the cubic tower, component 0 deepest; the words are regrouped
// here the way the in-script tower conversion does.
func millerLoopValue(
	a *test.Assert,
	m *groth16.Model,
	p *bls12381.G1Affine,
	q *bls12381.G2Affine,
) bls12381.GT {
	gradients, err := TwistMultiplicationGradients(m, q)
	a.NoError(err)

	lock, err := m.Pairing.MillerLoop(200, true, script.ModConfig{})
	a.NoError(err)
	unlock := m.Pairing.SinglePairingInput(G1ToInts(p), G2ToInts(q), gradients, nil, true)

	e := a.Run(unlock, lock)
	a.CleanStack(e, 1+m.Pairing.NPointsTwist+m.Pairing.NElementsMillerOutput)

	words := make([]*big.Int, m.Pairing.NElementsMillerOutput)
	for i := range words {
		words[i] = e.Num(len(words) - 1 - i)
	}

	var out bls12381.GT
	targets := []*fp.Element{
		&out.C0.B0.A0, &out.C0.B0.A1,
		&out.C0.B1.A0, &out.C0.B1.A1,
		&out.C0.B2.A0, &out.C0.B2.A1,
		&out.C1.B0.A0, &out.C1.B0.A1,
		&out.C1.B1.A0, &out.C1.B1.A1,
		&out.C1.B2.A0, &out.C1.B2.A1,
	}
	cubicToQuadratic := []int{0, 1, 8, 9, 6, 7, 4, 5, 2, 3, 10, 11}
	for i, j := range cubicToQuadratic {
		targets[i].SetBigInt(new(big.Int).Mod(words[j], fp.Modulus()))
	}
	return out
}

func TestTripleMillerLoopInjectedMatchesOnStack(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the triple Miller loop twice on the engine")
	}

	m, err := NewModel()
	require.NoError(t, err)
	a := test.NewAssert(t)

	_, _, g1, g2 := bls12381.Generators()
	scale1 := func(k int64) bls12381.G1Affine {
		var p bls12381.G1Affine
		p.ScalarMultiplication(&g1, big.NewInt(k))
		return p
	}
	scale2 := func(k int64) bls12381.G2Affine {
		var p bls12381.G2Affine
		p.ScalarMultiplication(&g2, big.NewInt(k))
		return p
	}
	p := [3]bls12381.G1Affine{scale1(2), scale1(3), scale1(5)}
	q := [3]bls12381.G2Affine{scale2(7), scale2(11), scale2(13)}

	var pInts, qInts [3][]*big.Int
	var gradients [3][][][]*big.Int
	for k := 0; k < 3; k++ {
		pInts[k] = G1ToInts(&p[k])
		qInts[k] = G2ToInts(&q[k])
		gradients[k], err = TwistMultiplicationGradients(m, &q[k])
		a.NoError(err)
	}

	onStack, err := m.Pairing.TripleMillerLoop(
		200, [3]bool{true, true, true}, script.ModConfig{}, true, nil,
	)
	a.NoError(err)
	injected, err := m.Pairing.TripleMillerLoop(
		200, [3]bool{true, false, false}, script.ModConfig{}, false,
		&pairing.PrecomputedGradients{gradients[1], gradients[2]},
	)
	a.NoError(err)

	// Injecting the second and third pair's gradients must reproduce the
	// on-stack run exactly, leftover stack included.
	first := a.Run(m.Pairing.TriplePairingInput(pInts, qInts, gradients, nil, true, true), onStack)
	second := a.Run(m.Pairing.TriplePairingInput(pInts, qInts, gradients, nil, false, true), injected)

	a.CleanStack(first, 1+3*m.Pairing.NPointsTwist+m.Pairing.NElementsMillerOutput)
	a.StackNums(second, first.Nums()...)
}

func TestSinglePairingBilinear(t *testing.T) {
	if testing.Short() {
		t.Skip("runs full pairings on the engine")
	}

	m, err := NewModel()
	require.NoError(t, err)

	_, _, g1, g2 := bls12381.Generators()
	scalar := big.NewInt(23)
	var scaledG1 bls12381.G1Affine
	scaledG1.ScalarMultiplication(&g1, scalar)
	var scaledG2 bls12381.G2Affine
	scaledG2.ScalarMultiplication(&g2, scalar)

	// e(23*G1, G2) = e(G1, 23*G2), anchored to the reference pairing.
	expected, err := bls12381.Pair(
		[]bls12381.G1Affine{scaledG1}, []bls12381.G2Affine{g2},
	)
	require.NoError(t, err)

	pairs := []struct {
		name string
		p    bls12381.G1Affine
		q    bls12381.G2Affine
	}{
		{"scalar on G1", scaledG1, g2},
		{"scalar on G2", g1, scaledG2},
	}
	for _, pair := range pairs {
		pair := pair
		t.Run(pair.name, func(t *testing.T) {
			a := test.NewAssert(t)

			f := millerLoopValue(a, m, &pair.p, &pair.q)
			var inverse bls12381.GT
			inverse.Inverse(&f)

			gradients, err := TwistMultiplicationGradients(m, &pair.q)
			a.NoError(err)

			lock, err := m.Pairing.SinglePairing(
				200, true, script.ModConfig{PositiveModulo: true},
			)
			a.NoError(err)
			unlock := m.Pairing.SinglePairingInput(
				G1ToInts(&pair.p), G2ToInts(&pair.q), gradients, GTToInts(&inverse), true,
			)

			e := a.Run(unlock, lock)
			a.CleanStack(e, 1+m.Pairing.NElementsMillerOutput)
			a.TopNums(e, GTToInts(&expected)...)
		})
	}
}

// testUnlockingScript assembles the witness for the fixture key: the
// gradients of w*B, the inverse of the Miller product, and the gradients of
// the public-input multiplication and its folding addition.
func testUnlockingScript(
	a *test.Assert,
	m *groth16.Model,
	vk *VerifyingKey,
	proof *Proof,
	publicInput *big.Int,
	maxMultipliers []*big.Int,
) script.Script {
	var minusGamma, minusDelta bls12381.G2Affine
	minusGamma.Neg(&vk.Gamma)
	minusDelta.Neg(&vk.Delta)

	// msm = gamma_abc[0] + a_1 * gamma_abc[1]
	var scaled, msm bls12381.G1Affine
	scaled.ScalarMultiplication(&vk.GammaAbc[1], publicInput)
	msm.Add(&vk.GammaAbc[0], &scaled)

	fAB := millerLoopValue(a, m, &proof.A, &proof.B)
	fMsmGamma := millerLoopValue(a, m, &msm, &minusGamma)
	fCDelta := millerLoopValue(a, m, &proof.C, &minusDelta)

	var product, inverse bls12381.GT
	product.Mul(&fAB, &fMsmGamma)
	product.Mul(&product, &fCDelta)
	inverse.Inverse(&product)

	gradientsB, err := TwistMultiplicationGradients(m, &proof.B)
	a.NoError(err)

	curve := ecarith.NewCurve(fp.Modulus(), curveA, curveB)
	base := ecarith.NewPoint(
		vk.GammaAbc[1].X.BigInt(new(big.Int)),
		vk.GammaAbc[1].Y.BigInt(new(big.Int)),
	)
	foldGradient, err := curve.Gradient(
		ecarith.NewPoint(
			vk.GammaAbc[0].X.BigInt(new(big.Int)),
			vk.GammaAbc[0].Y.BigInt(new(big.Int)),
		),
		ecarith.NewPoint(
			scaled.X.BigInt(new(big.Int)),
			scaled.Y.BigInt(new(big.Int)),
		),
	)
	a.NoError(err)

	aInts, bInts, cInts := proof.ProofToInts()
	key := &groth16.UnlockingKey{
		PublicInputs:             []*big.Int{publicInput},
		A:                        aInts,
		B:                        bInts,
		C:                        cInts,
		GradientsPairings:        [3][][][]*big.Int{gradientsB},
		InverseMillerOutput:      GTToInts(&inverse),
		GradientsMultiplications: [][][][]*big.Int{curve.MultiplicationGradients(base, publicInput)},
		MaxMultipliers:           maxMultipliers,
		GradientsAdditions:       [][]*big.Int{{foldGradient}},
	}
	return key.ToUnlockingScript(m, false, true)
}

func TestVerifierExecution(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the full verifier on the engine")
	}

	m, err := NewModel()
	require.NoError(t, err)

	vk := testVerifyingKey(t)
	key, err := vk.LockingKey(m, true)
	require.NoError(t, err)

	maxMultipliers := []*big.Int{big.NewInt(1 << 8)}
	lock, err := m.Verifier(key, 200, maxMultipliers, script.Reduce)
	require.NoError(t, err)

	// The fixture satisfies
	// e(A, B) = e(alpha, beta) * e(msm, gamma) * e(C, delta) for a_1 = 2:
	// 5*71 = 3*5 + 7*(13 + 2*17) + 11*1.
	_, _, g1, g2 := bls12381.Generators()
	var proof Proof
	proof.A.ScalarMultiplication(&g1, big.NewInt(5))
	proof.B.ScalarMultiplication(&g2, big.NewInt(71))
	proof.C = g1

	t.Run("accepts a valid proof", func(t *testing.T) {
		a := test.NewAssert(t)
		unlock := testUnlockingScript(a, m, vk, &proof, big.NewInt(2), maxMultipliers)
		e := a.Run(unlock, lock)
		a.CleanStack(e, 1)
		a.TopNums(e, big.NewInt(1))
	})

	t.Run("rejects a flipped public input", func(t *testing.T) {
		a := test.NewAssert(t)
		// The witness is recomputed honestly for a_1 = 3, so every
		// intermediate check passes and only the final comparison against
		// e(alpha, beta) can fail, either aborting the script or leaving
		// false on the stack.
		unlock := testUnlockingScript(a, m, vk, &proof, big.NewInt(3), maxMultipliers)
		e := test.NewEngine()
		a.NoError(e.Execute(unlock))
		if err := e.Execute(lock); err == nil {
			a.Zero(e.Num(0).Sign())
		}
	})
}
