package fields

import (
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/stack"
)

const fq3TestNonResidue = 2

func ref3Mul(x, y [3]int64) [3]int64 {
	nr := int64(fq3TestNonResidue)
	return [3]int64{
		mod19(x[0]*y[0] + nr*(x[1]*y[2] + x[2]*y[1])),
		mod19(nr*x[2]*y[2] + x[0]*y[1] + x[1]*y[0]),
		mod19(x[1]*y[1] + x[0]*y[2] + x[2]*y[0]),
	}
}

func matches3(got []*big.Int, want [3]int64) bool {
	if len(got) != 3 {
		return false
	}
	for i := range want {
		if got[i].Int64() != want[i] {
			return false
		}
	}
	return true
}

func TestFq3Arithmetic(t *testing.T) {
	f := NewFq3(big.NewInt(testModulus), big.NewInt(fq3TestNonResidue))

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	genComponent := gen.Int64Range(0, testModulus-1)
	genElement := gen.SliceOfN(3, genComponent)

	properties.Property("multiplication", prop.ForAll(
		func(xs, ys []int64) bool {
			got, err := runOnNums(f.MulTop(script.Reduce), append(xs, ys...)...)
			x := [3]int64{xs[0], xs[1], xs[2]}
			y := [3]int64{ys[0], ys[1], ys[2]}
			return err == nil && matches3(got, ref3Mul(x, y))
		},
		genElement, genElement,
	))

	properties.Property("squaring", prop.ForAll(
		func(xs []int64) bool {
			got, err := runOnNums(f.SquareTop(script.Reduce), xs...)
			x := [3]int64{xs[0], xs[1], xs[2]}
			return err == nil && matches3(got, ref3Mul(x, x))
		},
		genElement,
	))

	properties.Property("scaled squaring", prop.ForAll(
		func(xs []int64) bool {
			lock, err := f.Square(script.Reduce, stack.FFE(2, false, 3), 3, true)
			if err != nil {
				return false
			}
			got, err := runOnNums(lock, xs...)
			x := [3]int64{xs[0], xs[1], xs[2]}
			z := ref3Mul(x, x)
			want := [3]int64{mod19(3 * z[0]), mod19(3 * z[1]), mod19(3 * z[2])}
			return err == nil && matches3(got, want)
		},
		genElement,
	))

	properties.Property("addition", prop.ForAll(
		func(xs, ys []int64) bool {
			got, err := runOnNums(f.AddTop(script.Reduce), append(xs, ys...)...)
			want := [3]int64{
				mod19(xs[0] + ys[0]),
				mod19(xs[1] + ys[1]),
				mod19(xs[2] + ys[2]),
			}
			return err == nil && matches3(got, want)
		},
		genElement, genElement,
	))

	properties.TestingRun(t)
}

func TestFq3SquareKeepsPickedOperand(t *testing.T) {
	f := NewFq3(big.NewInt(testModulus), big.NewInt(fq3TestNonResidue))

	lock, err := f.Square(script.Reduce, stack.FFE(2, false, 3), 1, false)
	if err != nil {
		t.Fatal(err)
	}

	got, err := runOnNums(lock, 5, 7, 11)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 6 {
		t.Fatalf("stack depth %d, want 6", len(got))
	}

	want := ref3Mul([3]int64{5, 7, 11}, [3]int64{5, 7, 11})
	for i, w := range []int64{5, 7, 11, want[0], want[1], want[2]} {
		if got[i].Int64() != w {
			t.Fatalf("stack element %d: got %d, want %d", i, got[i].Int64(), w)
		}
	}
}
