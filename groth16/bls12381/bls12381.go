// Package bls12381 instantiates the Groth16 verifier over the BLS12-381
// pairing model and decomposes gnark-crypto key and proof material into the
// word lists the script generators consume.
package bls12381

import (
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/zkscript/zkscript/ec"
	"github.com/zkscript/zkscript/groth16"
	pairingbls12381 "github.com/zkscript/zkscript/pairing/bls12381"
)

// Coefficients of the base curve E: y^2 = x^3 + 4.
var (
	curveA = big.NewInt(0)
	curveB = big.NewInt(4)
)

// NewModel returns the Groth16 script generator over BLS12-381.
func NewModel() (*groth16.Model, error) {
	pairingModel, err := pairingbls12381.NewPairingModel()
	if err != nil {
		return nil, err
	}
	curve := ec.NewCurveFq(fp.Modulus(), curveA, curveB)
	return groth16.NewModel(pairingModel, curve, fr.Modulus()), nil
}

// G1ToInts decomposes a G1 point into the script coordinate list [x, y].
func G1ToInts(p *bls12381.G1Affine) []*big.Int {
	return []*big.Int{
		p.X.BigInt(new(big.Int)),
		p.Y.BigInt(new(big.Int)),
	}
}

// G2ToInts decomposes a twist point into the script coordinate list
// [x_0, x_1, y_0, y_1].
func G2ToInts(p *bls12381.G2Affine) []*big.Int {
	return []*big.Int{
		p.X.A0.BigInt(new(big.Int)),
		p.X.A1.BigInt(new(big.Int)),
		p.Y.A0.BigInt(new(big.Int)),
		p.Y.A1.BigInt(new(big.Int)),
	}
}

// GTToInts decomposes an F_q^12 element into the 12 words of the quadratic
// tower layout, the first component deepest on the stack.
func GTToInts(e *bls12381.GT) []*big.Int {
	words := [12]fp.Element{
		e.C0.B0.A0, e.C0.B0.A1,
		e.C0.B1.A0, e.C0.B1.A1,
		e.C0.B2.A0, e.C0.B2.A1,
		e.C1.B0.A0, e.C1.B0.A1,
		e.C1.B1.A0, e.C1.B1.A1,
		e.C1.B2.A0, e.C1.B2.A1,
	}
	out := make([]*big.Int, len(words))
	for i := range words {
		out[i] = words[i].BigInt(new(big.Int))
	}
	return out
}

// VerifyingKey holds the Groth16 verification key points.
type VerifyingKey struct {
	Alpha    bls12381.G1Affine
	Beta     bls12381.G2Affine
	Gamma    bls12381.G2Affine
	Delta    bls12381.G2Affine
	GammaAbc []bls12381.G1Affine
}

// Proof holds the three Groth16 proof points.
type Proof struct {
	A bls12381.G1Affine
	B bls12381.G2Affine
	C bls12381.G1Affine
}

// LockingKey decomposes the verifying key into the locking key of a Verifier
// script: e(alpha, beta) is computed here, gamma and delta are negated, and
// the Miller loop gradients of w*(-gamma) and w*(-delta) are precomputed
// when withPrecomputedGradients is set.
func (vk *VerifyingKey) LockingKey(
	m *groth16.Model,
	withPrecomputedGradients bool,
) (*groth16.LockingKey, error) {
	alphaBeta, err := bls12381.Pair(
		[]bls12381.G1Affine{vk.Alpha},
		[]bls12381.G2Affine{vk.Beta},
	)
	if err != nil {
		return nil, err
	}

	var minusGamma, minusDelta bls12381.G2Affine
	minusGamma.Neg(&vk.Gamma)
	minusDelta.Neg(&vk.Delta)

	gammaAbc := make([][]*big.Int, len(vk.GammaAbc))
	for i := range vk.GammaAbc {
		gammaAbc[i] = G1ToInts(&vk.GammaAbc[i])
	}

	key := &groth16.LockingKey{
		AlphaBeta:  GTToInts(&alphaBeta),
		MinusGamma: G2ToInts(&minusGamma),
		MinusDelta: G2ToInts(&minusDelta),
		GammaAbc:   gammaAbc,
	}

	if withPrecomputedGradients {
		precomputed, err := PrecomputedPairingGradients(m, &minusGamma, &minusDelta)
		if err != nil {
			return nil, err
		}
		key.PrecomputedGradients = precomputed
	}

	return key, nil
}

// ProofToInts decomposes the proof points into the word lists of an
// UnlockingKey.
func (p *Proof) ProofToInts() (a, b, c []*big.Int) {
	return G1ToInts(&p.A), G2ToInts(&p.B), G1ToInts(&p.C)
}
