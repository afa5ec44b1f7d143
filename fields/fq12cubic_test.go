package fields

import (
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/test"
)

// cub is a reference element of F_q^12 = F_q^4[r] / (r^3 - u), the cubic
// tower over the reference F_q^4.
type cub [3]quad

func sMul(x quad) quad { return quad{nuMul(x[1]), x[0]} }

func ref4Add(x, y quad) quad {
	return quad{refAdd(x[0], y[0]), refAdd(x[1], y[1])}
}

func ref12cMul(x, y cub) cub {
	c0 := ref4Add(ref4Mul(x[0], y[0]), sMul(ref4Add(ref4Mul(x[1], y[2]), ref4Mul(x[2], y[1]))))
	c1 := ref4Add(ref4Add(ref4Mul(x[0], y[1]), ref4Mul(x[1], y[0])), sMul(ref4Mul(x[2], y[2])))
	c2 := ref4Add(ref4Add(ref4Mul(x[0], y[2]), ref4Mul(x[1], y[1])), ref4Mul(x[2], y[0]))
	return cub{c0, c1, c2}
}

func cubOf(xs []int64) cub {
	return cub{quadOf(xs[:4]), quadOf(xs[4:8]), quadOf(xs[8:])}
}

func matches12c(got []*big.Int, want cub) bool {
	return len(got) == 12 &&
		matches4(got[:4], want[0]) &&
		matches4(got[4:8], want[1]) &&
		matches4(got[8:], want[2])
}

func newFq12CubicTest() *Fq12Cubic {
	fq2 := NewFq2(big.NewInt(testModulus), big.NewInt(fq4TestNonResidue))
	fq2.MulByNonResidue = fq2.MulByOnePlusU
	fq4 := NewFq4(big.NewInt(testModulus), fq2, nil)
	return NewFq12Cubic(big.NewInt(testModulus), fq4)
}

func TestFq12CubicArithmetic(t *testing.T) {
	f := newFq12CubicTest()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	genElement := gen.SliceOfN(12, gen.Int64Range(0, testModulus-1))

	properties.Property("multiplication", prop.ForAll(
		func(xs, ys []int64) bool {
			got, err := runOnNums(f.Mul(script.Reduce), append(xs, ys...)...)
			return err == nil && matches12c(got, ref12cMul(cubOf(xs), cubOf(ys)))
		},
		genElement, genElement,
	))

	properties.Property("squaring", prop.ForAll(
		func(xs []int64) bool {
			got, err := runOnNums(f.Square(script.Reduce), xs...)
			x := cubOf(xs)
			return err == nil && matches12c(got, ref12cMul(x, x))
		},
		genElement,
	))

	properties.TestingRun(t)
}

func TestFq12CubicToQuadratic(t *testing.T) {
	assert := test.NewAssert(t)
	f := newFq12CubicTest()

	// ((a, b), (c, d), (e, f)) maps to ((a, e, d), (c, b, f))
	got, err := runOnNums(f.ToQuadratic(), 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	assert.NoError(err)
	assert.Len(got, 13)

	want := []int64{testModulus, 1, 2, 9, 10, 7, 8, 5, 6, 3, 4, 11, 12}
	for i, w := range want {
		assert.EqualValues(w, got[i].Int64())
	}
}
