// Package bls12381 instantiates the pairing script model for BLS12-381 with
// the M-twist layout: Q lives on E'(F_q^2) with E': y^2 = x^3 + 4(1 + u), and
// line evaluations land in F_q^12 built as the cubic extension of F_q^4.
package bls12381

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
)

// q is the modulus of the base field.
var q = fp.Modulus()

// bigNonResidue is the non-residue of F_q defining F_q^2: u^2 = -1.
var bigNonResidue = big.NewInt(-1)

// seedAbs is |u| for the curve seed u = -0xd201000000010000. The seed is
// negative, so the Miller loop runs on -w and every non-zero exponent digit
// is -1.
var seedAbs = new(big.Int).SetUint64(0xd201000000010000)

// expMillerLoop is the little-endian digit expansion of the seed, digits in
// {-1, 0}.
var expMillerLoop = func() []int {
	digits := make([]int, seedAbs.BitLen())
	for i := range digits {
		digits[i] = -int(seedAbs.Bit(i))
	}
	return digits
}()

// twistedA is the A coefficient of the twisted curve
// E': y^2 = x^3 + 4*(1 + u).
var twistedA = [2]*big.Int{big.NewInt(0), big.NewInt(0)}

// Element counts of the stack representations.
const (
	extensionDegree                    = 2
	nPointsCurve                       = 2
	nPointsTwist                       = 4
	nElementsMillerOutput              = 12
	nElementsEvaluationOutput          = 5
	nElementsEvaluationTimesEvaluation = 10
)

// fq2Add, fq2Mul and fq2Exp are plain big.Int arithmetic over F_q^2 with
// u^2 = -1, used to derive the Frobenius constants at package initialisation.
func fq2Mul(x, y [2]*big.Int) [2]*big.Int {
	c0 := new(big.Int).Mul(x[0], y[0])
	c0.Sub(c0, new(big.Int).Mul(x[1], y[1]))
	c1 := new(big.Int).Mul(x[0], y[1])
	c1.Add(c1, new(big.Int).Mul(x[1], y[0]))
	return [2]*big.Int{c0.Mod(c0, q), c1.Mod(c1, q)}
}

func fq2Exp(x [2]*big.Int, e *big.Int) [2]*big.Int {
	out := [2]*big.Int{big.NewInt(1), big.NewInt(0)}
	for i := e.BitLen() - 1; i >= 0; i-- {
		out = fq2Mul(out, out)
		if e.Bit(i) == 1 {
			out = fq2Mul(out, x)
		}
	}
	return out
}

// gammasFrobenius holds [gamma1, .., gamma11] with
// gamma_n_j = xi^(j * (q^n - 1) / 6) for j = 1, .., 5, where xi = 1 + u is
// the non-residue of the sextic twist.
var gammasFrobenius = func() [][][]*big.Int {
	xi := [2]*big.Int{big.NewInt(1), big.NewInt(1)}
	one := big.NewInt(1)
	six := big.NewInt(6)

	gammas := make([][][]*big.Int, 11)
	qPower := new(big.Int).Set(q)
	for n := range gammas {
		exponent := new(big.Int).Sub(qPower, one)
		exponent.Div(exponent, six)

		row := make([][]*big.Int, 5)
		for j := range row {
			e := new(big.Int).Mul(exponent, big.NewInt(int64(j+1)))
			gamma := fq2Exp(xi, e)
			row[j] = []*big.Int{gamma[0], gamma[1]}
		}
		gammas[n] = row
		qPower.Mul(qPower, q)
	}
	return gammas
}()
