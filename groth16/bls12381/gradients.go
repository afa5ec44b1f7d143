package bls12381

import (
	"errors"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"

	"github.com/zkscript/zkscript/groth16"
	"github.com/zkscript/zkscript/pairing"
)

// errGradientUndefined reports a vanishing denominator in a gradient, which
// cannot happen on the Miller loop orbit of a point of order r.
var errGradientUndefined = errors.New("bls12381: gradient undefined")

// PrecomputedPairingGradients computes the Miller loop gradients of
// w*(-gamma) and w*(-delta) for injection into a locking script.
func PrecomputedPairingGradients(
	m *groth16.Model,
	minusGamma, minusDelta *bls12381.G2Affine,
) (*pairing.PrecomputedGradients, error) {
	gamma, err := TwistMultiplicationGradients(m, minusGamma)
	if err != nil {
		return nil, err
	}
	delta, err := TwistMultiplicationGradients(m, minusDelta)
	if err != nil {
		return nil, err
	}
	return &pairing.PrecomputedGradients{gamma, delta}, nil
}

// TwistMultiplicationGradients computes the gradients the Miller loop
// consumes for the twist point Q: per iteration the tangent at the running
// point and, on non-zero exponent digits, the chord through the doubled
// point and ±Q. Iterations run from the most significant digit down, the
// doubling gradient first in each group.
func TwistMultiplicationGradients(
	m *groth16.Model,
	q *bls12381.G2Affine,
) ([][][]*big.Int, error) {
	exp := m.Pairing.ExpMillerLoop
	modulus := fp.Modulus()

	base := twistPoint{
		x: [2]*big.Int{q.X.A0.BigInt(new(big.Int)), q.X.A1.BigInt(new(big.Int))},
		y: [2]*big.Int{q.Y.A0.BigInt(new(big.Int)), q.Y.A1.BigInt(new(big.Int))},
		q: modulus,
	}

	t := base
	if exp[len(exp)-1] == -1 {
		t = t.negate()
	}

	gradients := make([][][]*big.Int, 0, len(exp)-1)
	for i := len(exp) - 2; i >= 0; i-- {
		tangent, err := t.tangentGradient()
		if err != nil {
			return nil, err
		}
		group := [][]*big.Int{tangent[:]}
		t = t.double(tangent)

		if exp[i] != 0 {
			s := base
			if exp[i] == -1 {
				s = s.negate()
			}
			chord, err := t.chordGradient(s)
			if err != nil {
				return nil, err
			}
			group = append(group, chord[:])
			t = t.add(s, chord)
		}

		gradients = append(gradients, group)
	}

	return gradients, nil
}

// twistPoint is an affine point of E'(F_q^2), y^2 = x^3 + 4(1+u), held as
// big integers for gradient derivation. The curve A coefficient is zero, so
// the tangent is 3x^2 / 2y.
type twistPoint struct {
	x, y [2]*big.Int
	q    *big.Int
}

func (p twistPoint) negate() twistPoint {
	return twistPoint{
		x: p.x,
		y: fq2Neg(p.y, p.q),
		q: p.q,
	}
}

func (p twistPoint) tangentGradient() ([2]*big.Int, error) {
	numerator := fq2ScalarMul(fq2Square(p.x, p.q), big.NewInt(3), p.q)
	denominator := fq2ScalarMul(p.y, big.NewInt(2), p.q)
	return fq2Div(numerator, denominator, p.q)
}

func (p twistPoint) chordGradient(other twistPoint) ([2]*big.Int, error) {
	numerator := fq2Sub(p.y, other.y, p.q)
	denominator := fq2Sub(p.x, other.x, p.q)
	return fq2Div(numerator, denominator, p.q)
}

func (p twistPoint) double(gradient [2]*big.Int) twistPoint {
	x := fq2Sub(fq2Square(gradient, p.q), fq2ScalarMul(p.x, big.NewInt(2), p.q), p.q)
	y := fq2Sub(fq2Mul(gradient, fq2Sub(p.x, x, p.q), p.q), p.y, p.q)
	return twistPoint{x: x, y: y, q: p.q}
}

func (p twistPoint) add(other twistPoint, gradient [2]*big.Int) twistPoint {
	x := fq2Sub(fq2Sub(fq2Square(gradient, p.q), p.x, p.q), other.x, p.q)
	y := fq2Sub(fq2Mul(gradient, fq2Sub(p.x, x, p.q), p.q), p.y, p.q)
	return twistPoint{x: x, y: y, q: p.q}
}

// F_q^2 arithmetic with u^2 = -1 over big integers, canonical residues.

func fq2Neg(x [2]*big.Int, q *big.Int) [2]*big.Int {
	c0 := new(big.Int).Neg(x[0])
	c1 := new(big.Int).Neg(x[1])
	return [2]*big.Int{c0.Mod(c0, q), c1.Mod(c1, q)}
}

func fq2Sub(x, y [2]*big.Int, q *big.Int) [2]*big.Int {
	c0 := new(big.Int).Sub(x[0], y[0])
	c1 := new(big.Int).Sub(x[1], y[1])
	return [2]*big.Int{c0.Mod(c0, q), c1.Mod(c1, q)}
}

func fq2Mul(x, y [2]*big.Int, q *big.Int) [2]*big.Int {
	c0 := new(big.Int).Mul(x[0], y[0])
	c0.Sub(c0, new(big.Int).Mul(x[1], y[1]))
	c1 := new(big.Int).Mul(x[0], y[1])
	c1.Add(c1, new(big.Int).Mul(x[1], y[0]))
	return [2]*big.Int{c0.Mod(c0, q), c1.Mod(c1, q)}
}

func fq2Square(x [2]*big.Int, q *big.Int) [2]*big.Int {
	return fq2Mul(x, x, q)
}

func fq2ScalarMul(x [2]*big.Int, scalar, q *big.Int) [2]*big.Int {
	c0 := new(big.Int).Mul(x[0], scalar)
	c1 := new(big.Int).Mul(x[1], scalar)
	return [2]*big.Int{c0.Mod(c0, q), c1.Mod(c1, q)}
}

func fq2Div(x, y [2]*big.Int, q *big.Int) ([2]*big.Int, error) {
	norm := new(big.Int).Mul(y[0], y[0])
	norm.Add(norm, new(big.Int).Mul(y[1], y[1]))
	norm.Mod(norm, q)
	if norm.ModInverse(norm, q) == nil {
		return [2]*big.Int{}, errGradientUndefined
	}
	conjugate := [2]*big.Int{y[0], new(big.Int).Neg(y[1])}
	return fq2Mul(x, fq2ScalarMul(conjugate, norm, q), q), nil
}
