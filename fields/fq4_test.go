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

// quad is a reference element of F_q^4 = F_q^2[u] / (u^2 - (1+u')) with the
// base F_q^2 built on non-residue 2.
type quad [2]pair

const fq4TestNonResidue = 2

func mul4(x, y pair) pair { return refMul(fq4TestNonResidue, x, y) }
func nuMul(x pair) pair   { return mul4(pair{1, 1}, x) }

func refConj2(x pair) pair { return pair{x.c0, mod19(-x.c1)} }

// fq2Pow is schoolbook exponentiation in F_q^2, used to derive the Frobenius
// constants of the towers.
func fq2Pow(nonResidue int64, x pair, e *big.Int) pair {
	out := pair{1, 0}
	for i := e.BitLen() - 1; i >= 0; i-- {
		out = refMul(nonResidue, out, out)
		if e.Bit(i) == 1 {
			out = refMul(nonResidue, out, x)
		}
	}
	return out
}

func ref4Mul(x, y quad) quad {
	return quad{
		refAdd(mul4(x[0], y[0]), nuMul(mul4(x[1], y[1]))),
		refAdd(mul4(x[0], y[1]), mul4(x[1], y[0])),
	}
}

func ref4Scale(x quad, s int64) quad {
	return quad{
		pair{x[0].c0 * s, x[0].c1 * s}.reduce(),
		pair{x[1].c0 * s, x[1].c1 * s}.reduce(),
	}
}

func quadOf(xs []int64) quad {
	return quad{pair{xs[0], xs[1]}, pair{xs[2], xs[3]}}
}

func matches4(got []*big.Int, want quad) bool {
	if len(got) != 4 {
		return false
	}
	for i := 0; i < 2; i++ {
		if got[2*i].Int64() != want[i].c0 || got[2*i+1].Int64() != want[i].c1 {
			return false
		}
	}
	return true
}

// fq4TestGammas holds (1+u)^((q^n - 1) / 2) for n = 1, 2, 3.
func fq4TestGammas() ([3]pair, [][]*big.Int) {
	var pairs [3]pair
	lists := make([][]*big.Int, 3)
	qPower := big.NewInt(testModulus)
	for n := range pairs {
		e := new(big.Int).Sub(qPower, big.NewInt(1))
		e.Div(e, big.NewInt(2))
		pairs[n] = fq2Pow(fq4TestNonResidue, pair{1, 1}, e)
		lists[n] = []*big.Int{big.NewInt(pairs[n].c0), big.NewInt(pairs[n].c1)}
		qPower.Mul(qPower, big.NewInt(testModulus))
	}
	return pairs, lists
}

func newFq4Test() (*Fq4, [3]pair) {
	fq2 := NewFq2(big.NewInt(testModulus), big.NewInt(fq4TestNonResidue))
	fq2.MulByNonResidue = fq2.MulByOnePlusU
	gammas, lists := fq4TestGammas()
	return NewFq4(big.NewInt(testModulus), fq2, lists), gammas
}

func TestFq4Arithmetic(t *testing.T) {
	f, _ := newFq4Test()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	genComponent := gen.Int64Range(0, testModulus-1)
	genElement := gen.SliceOfN(4, genComponent)

	properties.Property("scalar multiplication", prop.ForAll(
		func(xs []int64, l0, l1 int64) bool {
			got, err := runOnNums(f.ScalarMul(script.Reduce), append(xs, l0, l1)...)
			x := quadOf(xs)
			lambda := pair{l0, l1}
			want := quad{mul4(x[0], lambda), mul4(x[1], lambda)}
			return err == nil && matches4(got, want)
		},
		genElement, genComponent, genComponent,
	))

	properties.Property("multiplication", prop.ForAll(
		func(xs, ys []int64) bool {
			got, err := runOnNums(f.Mul(script.Reduce, 1), append(xs, ys...)...)
			return err == nil && matches4(got, ref4Mul(quadOf(xs), quadOf(ys)))
		},
		genElement, genElement,
	))

	properties.Property("scaled multiplication", prop.ForAll(
		func(xs, ys []int64) bool {
			got, err := runOnNums(f.Mul(script.Reduce, 3), append(xs, ys...)...)
			want := ref4Scale(ref4Mul(quadOf(xs), quadOf(ys)), 3)
			return err == nil && matches4(got, want)
		},
		genElement, genElement,
	))

	properties.Property("squaring", prop.ForAll(
		func(xs []int64) bool {
			got, err := runOnNums(f.Square(script.Reduce, 1), xs...)
			x := quadOf(xs)
			return err == nil && matches4(got, ref4Mul(x, x))
		},
		genElement,
	))

	properties.Property("scaled squaring", prop.ForAll(
		func(xs []int64) bool {
			got, err := runOnNums(f.Square(script.Reduce, 2), xs...)
			x := quadOf(xs)
			return err == nil && matches4(got, ref4Scale(ref4Mul(x, x), 2))
		},
		genElement,
	))

	properties.Property("three-operand addition", prop.ForAll(
		func(xs, ys, zs []int64) bool {
			values := append(append(xs, ys...), zs...)
			got, err := runOnNums(f.AddThree(script.Reduce), values...)
			x, y, z := quadOf(xs), quadOf(ys), quadOf(zs)
			want := quad{
				refAdd(refAdd(x[0], y[0]), z[0]),
				refAdd(refAdd(x[1], y[1]), z[1]),
			}
			return err == nil && matches4(got, want)
		},
		genElement, genElement, genElement,
	))

	properties.Property("multiplication by u", prop.ForAll(
		func(xs []int64) bool {
			got, err := runOnNums(f.MulByU(script.Reduce), xs...)
			x := quadOf(xs)
			return err == nil && matches4(got, quad{nuMul(x[1]), x[0]})
		},
		genElement,
	))

	properties.Property("conjugation", prop.ForAll(
		func(xs []int64) bool {
			got, err := runOnNums(f.Conjugate(script.Reduce), xs...)
			x := quadOf(xs)
			return err == nil && matches4(got, quad{x[0], refNegate(x[1])})
		},
		genElement,
	))

	properties.TestingRun(t)
}

func TestFq4Frobenius(t *testing.T) {
	f, gammas := newFq4Test()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	genElement := gen.SliceOfN(4, gen.Int64Range(0, testModulus-1))

	for _, n := range []int{1, 3} {
		n := n
		properties.Property(fmt.Sprintf("frobenius to the power q^%d", n), prop.ForAll(
			func(xs []int64) bool {
				got, err := runOnNums(f.FrobeniusOdd(n, script.Reduce), xs...)
				x := quadOf(xs)
				want := quad{refConj2(x[0]), mul4(refConj2(x[1]), gammas[n%4-1])}
				return err == nil && matches4(got, want)
			},
			genElement,
		))
	}

	properties.Property("even frobenius", prop.ForAll(
		func(xs []int64) bool {
			got, err := runOnNums(f.FrobeniusEven(2, script.Reduce), xs...)
			x := quadOf(xs)
			want := quad{x[0], mul4(x[1], gammas[1])}
			return err == nil && matches4(got, want)
		},
		genElement,
	))

	properties.TestingRun(t)
}
