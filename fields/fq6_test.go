package fields

import (
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zkscript/zkscript/script"
)

// triple is a reference element of F_q^6 = F_q^2[v] / (v^3 - (1+u)) with the
// base F_q^2 built on non-residue 3, mirroring the tower under F_q^12.
type triple [3]pair

const fq6TestNonResidue = 3

func mul2(x, y pair) pair { return refMul(fq6TestNonResidue, x, y) }
func xiMul(x pair) pair   { return mul2(pair{1, 1}, x) }

func ref6Add(x, y triple) triple {
	return triple{refAdd(x[0], y[0]), refAdd(x[1], y[1]), refAdd(x[2], y[2])}
}

func ref6Subtract(x, y triple) triple {
	return triple{refSubtract(x[0], y[0]), refSubtract(x[1], y[1]), refSubtract(x[2], y[2])}
}

func ref6Negate(x triple) triple {
	return triple{refNegate(x[0]), refNegate(x[1]), refNegate(x[2])}
}

func ref6ScalarMul(x triple, l pair) triple {
	return triple{mul2(x[0], l), mul2(x[1], l), mul2(x[2], l)}
}

func ref6Mul(x, y triple) triple {
	c0 := refAdd(mul2(x[0], y[0]), xiMul(refAdd(mul2(x[1], y[2]), mul2(x[2], y[1]))))
	c1 := refAdd(refAdd(mul2(x[0], y[1]), mul2(x[1], y[0])), xiMul(mul2(x[2], y[2])))
	c2 := refAdd(refAdd(mul2(x[1], y[1]), mul2(x[0], y[2])), mul2(x[2], y[0]))
	return triple{c0, c1, c2}
}

func ref6MulByV(x triple) triple {
	return triple{xiMul(x[2]), x[0], x[1]}
}

func tripleOf(xs []int64) triple {
	return triple{pair{xs[0], xs[1]}, pair{xs[2], xs[3]}, pair{xs[4], xs[5]}}
}

func matches6(got []*big.Int, want triple) bool {
	if len(got) != 6 {
		return false
	}
	for i := 0; i < 3; i++ {
		if got[2*i].Int64() != want[i].c0 || got[2*i+1].Int64() != want[i].c1 {
			return false
		}
	}
	return true
}

func newFq6Test() *Fq6 {
	fq2 := NewFq2(big.NewInt(testModulus), big.NewInt(fq6TestNonResidue))
	fq2.MulByNonResidue = fq2.MulByOnePlusU
	return NewFq6(big.NewInt(testModulus), fq2)
}

func TestFq6Arithmetic(t *testing.T) {
	f := newFq6Test()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	genComponent := gen.Int64Range(0, testModulus-1)
	genElement := gen.SliceOfN(6, genComponent)

	properties.Property("addition", prop.ForAll(
		func(xs, ys []int64) bool {
			got, err := runOnNums(f.Add(script.Reduce), append(xs, ys...)...)
			return err == nil && matches6(got, ref6Add(tripleOf(xs), tripleOf(ys)))
		},
		genElement, genElement,
	))

	properties.Property("subtraction", prop.ForAll(
		func(xs, ys []int64) bool {
			got, err := runOnNums(f.Subtract(script.Reduce), append(xs, ys...)...)
			return err == nil && matches6(got, ref6Subtract(tripleOf(xs), tripleOf(ys)))
		},
		genElement, genElement,
	))

	properties.Property("negation", prop.ForAll(
		func(xs []int64) bool {
			got, err := runOnNums(f.Negate(script.Reduce), xs...)
			return err == nil && matches6(got, ref6Negate(tripleOf(xs)))
		},
		genElement,
	))

	properties.Property("base field scalar multiplication", prop.ForAll(
		func(xs []int64, lambda int64) bool {
			got, err := runOnNums(f.FqScalarMul(script.Reduce), append(xs, lambda)...)
			return err == nil && matches6(got, ref6ScalarMul(tripleOf(xs), pair{lambda, 0}))
		},
		genElement, genComponent,
	))

	properties.Property("scalar multiplication", prop.ForAll(
		func(xs []int64, l0, l1 int64) bool {
			got, err := runOnNums(f.ScalarMul(script.Reduce), append(xs, l0, l1)...)
			return err == nil && matches6(got, ref6ScalarMul(tripleOf(xs), pair{l0, l1}))
		},
		genElement, genComponent, genComponent,
	))

	properties.Property("multiplication", prop.ForAll(
		func(xs, ys []int64) bool {
			got, err := runOnNums(f.Mul(script.Reduce), append(xs, ys...)...)
			return err == nil && matches6(got, ref6Mul(tripleOf(xs), tripleOf(ys)))
		},
		genElement, genElement,
	))

	properties.Property("squaring", prop.ForAll(
		func(xs []int64) bool {
			got, err := runOnNums(f.Square(script.Reduce), xs...)
			x := tripleOf(xs)
			return err == nil && matches6(got, ref6Mul(x, x))
		},
		genElement,
	))

	properties.Property("multiplication by v", prop.ForAll(
		func(xs []int64) bool {
			got, err := runOnNums(f.MulByV(script.Reduce), xs...)
			return err == nil && matches6(got, ref6MulByV(tripleOf(xs)))
		},
		genElement,
	))

	properties.TestingRun(t)
}
