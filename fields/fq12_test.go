package fields

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zkscript/zkscript/script"
)

// sext is a reference element of F_q^12 = F_q^6[w] / (w^2 - v), built on the
// same tower as the reference F_q^6.
type sext [2]triple

func ref12Mul(x, y sext) sext {
	return sext{
		ref6Add(ref6Mul(x[0], y[0]), ref6MulByV(ref6Mul(x[1], y[1]))),
		ref6Add(ref6Mul(x[0], y[1]), ref6Mul(x[1], y[0])),
	}
}

func sextOf(xs []int64) sext {
	return sext{tripleOf(xs[:6]), tripleOf(xs[6:])}
}

func matches12(got []*big.Int, want sext) bool {
	return len(got) == 12 && matches6(got[:6], want[0]) && matches6(got[6:], want[1])
}

// fq12TestGammas holds the F_q^2 coefficients of (1+u)^(j * (q^n - 1) / 6) for
// n = 1, .., 11 and j = 1, .., 5.
func fq12TestGammas() ([][5]pair, [][][]*big.Int) {
	pairs := make([][5]pair, 11)
	lists := make([][][]*big.Int, 11)
	qPower := big.NewInt(testModulus)
	for n := range pairs {
		exponent := new(big.Int).Sub(qPower, big.NewInt(1))
		exponent.Div(exponent, big.NewInt(6))
		lists[n] = make([][]*big.Int, 5)
		for j := 0; j < 5; j++ {
			e := new(big.Int).Mul(exponent, big.NewInt(int64(j+1)))
			pairs[n][j] = fq2Pow(fq6TestNonResidue, pair{1, 1}, e)
			lists[n][j] = []*big.Int{big.NewInt(pairs[n][j].c0), big.NewInt(pairs[n][j].c1)}
		}
		qPower.Mul(qPower, big.NewInt(testModulus))
	}
	return pairs, lists
}

func newFq12Test() (*Fq12, [][5]pair) {
	fq2 := NewFq2(big.NewInt(testModulus), big.NewInt(fq6TestNonResidue))
	fq2.MulByNonResidue = fq2.MulByOnePlusU
	fq6 := NewFq6(big.NewInt(testModulus), fq2)
	gammas, lists := fq12TestGammas()
	return NewFq12(big.NewInt(testModulus), fq2, fq6, lists), gammas
}

// ref12Frobenius applies x -> x^(q^n) component-wise: the pairs sit at the
// powers w^0, w^2, w^4 (first F_q^6 component) and w^1, w^3, w^5 (second), so
// they pick up gamma_n2/gamma_n4 and gamma_n1/gamma_n3/gamma_n5 respectively.
func ref12Frobenius(n int, x sext, gammas [][5]pair) sext {
	phi := func(p pair) pair { return p }
	if n%2 == 1 {
		phi = func(p pair) pair { return pair{p.c0, mod19(-p.c1)} }
	}
	g := gammas[n-1]
	return sext{
		triple{
			phi(x[0][0]),
			mul2(phi(x[0][1]), g[1]),
			mul2(phi(x[0][2]), g[3]),
		},
		triple{
			mul2(phi(x[1][0]), g[0]),
			mul2(phi(x[1][1]), g[2]),
			mul2(phi(x[1][2]), g[4]),
		},
	}
}

func TestFq12Arithmetic(t *testing.T) {
	f, _ := newFq12Test()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	genElement := gen.SliceOfN(12, gen.Int64Range(0, testModulus-1))

	properties.Property("multiplication", prop.ForAll(
		func(xs, ys []int64) bool {
			got, err := runOnNums(f.Mul(script.Reduce), append(xs, ys...)...)
			return err == nil && matches12(got, ref12Mul(sextOf(xs), sextOf(ys)))
		},
		genElement, genElement,
	))

	properties.Property("squaring", prop.ForAll(
		func(xs []int64) bool {
			got, err := runOnNums(f.Square(script.Reduce), xs...)
			x := sextOf(xs)
			return err == nil && matches12(got, ref12Mul(x, x))
		},
		genElement,
	))

	properties.Property("conjugation", prop.ForAll(
		func(xs []int64) bool {
			got, err := runOnNums(f.Conjugate(script.Reduce), xs...)
			x := sextOf(xs)
			return err == nil && matches12(got, sext{x[0], ref6Negate(x[1])})
		},
		genElement,
	))

	properties.TestingRun(t)
}

func TestFq12Frobenius(t *testing.T) {
	f, gammas := newFq12Test()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	genElement := gen.SliceOfN(12, gen.Int64Range(0, testModulus-1))

	for _, n := range []int{1, 3} {
		n := n
		properties.Property(fmt.Sprintf("frobenius to the power q^%d", n), prop.ForAll(
			func(xs []int64) bool {
				got, err := runOnNums(f.FrobeniusOdd(n, script.Reduce), xs...)
				return err == nil && matches12(got, ref12Frobenius(n, sextOf(xs), gammas))
			},
			genElement,
		))
	}

	properties.Property("frobenius to the power q^2", prop.ForAll(
		func(xs []int64) bool {
			got, err := runOnNums(f.FrobeniusEven(2, script.Reduce), xs...)
			return err == nil && matches12(got, ref12Frobenius(2, sextOf(xs), gammas))
		},
		genElement,
	))

	properties.TestingRun(t)
}
