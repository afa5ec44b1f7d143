package fields

import (
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/stack"
	"github.com/zkscript/zkscript/test"
)

const testModulus = 19

func mod19(x int64) int64 {
	return (x%testModulus + testModulus) % testModulus
}

// runOnNums executes the unlock values followed by the generated script and
// returns the final stack, bottom first.
func runOnNums(lock script.Script, values ...int64) ([]*big.Int, error) {
	unlock := script.New()
	unlock.PushInt64(testModulus)
	for _, v := range values {
		unlock.PushInt64(v)
	}
	e := test.NewEngine()
	if err := e.Execute(unlock); err != nil {
		return nil, err
	}
	if err := e.Execute(lock); err != nil {
		return nil, err
	}
	return e.Nums(), nil
}

func TestFqAlgebraicSum(t *testing.T) {
	assert := test.NewAssert(t)
	f := NewFq(big.NewInt(testModulus))

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	genComponent := gen.Int64Range(0, testModulus-1)

	for _, tc := range []struct {
		name    string
		negateX bool
		negateY bool
		want    func(x, y int64) int64
	}{
		{"x + y", false, false, func(x, y int64) int64 { return mod19(x + y) }},
		{"-x + y", true, false, func(x, y int64) int64 { return mod19(y - x) }},
		{"x - y", false, true, func(x, y int64) int64 { return mod19(x - y) }},
		{"-x - y", true, true, func(x, y int64) int64 { return mod19(-x - y) }},
	} {
		lock, err := f.AlgebraicSum(
			script.Reduce,
			stack.FFE(1, tc.negateX, 1),
			stack.FFE(0, tc.negateY, 1),
			3,
		)
		assert.NoError(err)

		properties.Property(tc.name, prop.ForAll(
			func(x, y int64) bool {
				got, err := runOnNums(lock, x, y)
				return err == nil && len(got) == 1 && got[0].Int64() == tc.want(x, y)
			},
			genComponent, genComponent,
		))
	}

	properties.TestingRun(t)
}

func TestFqInverse(t *testing.T) {
	f := NewFq(big.NewInt(testModulus))

	// reduce mid-chain every few multiplications to bound operand growth
	lock := f.Inverse(script.Reduce, stack.FFE(0, false, 1), 1, 3)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("x * x^-1 = 1", prop.ForAll(
		func(x int64) bool {
			got, err := runOnNums(lock, x)
			return err == nil && len(got) == 1 && mod19(x*got[0].Int64()) == 1
		},
		gen.Int64Range(1, testModulus-1),
	))

	properties.TestingRun(t)

	t.Run("zero maps to zero", func(t *testing.T) {
		assert := test.NewAssert(t)
		got, err := runOnNums(lock, 0)
		assert.NoError(err)
		assert.Len(got, 1)
		assert.Zero(got[0].Sign())
	})
}

func TestFqInverseNegatedOperand(t *testing.T) {
	assert := test.NewAssert(t)
	f := NewFq(big.NewInt(testModulus))

	lock := f.Inverse(script.Reduce, stack.FFE(0, true, 1), 1, 3)

	// (-7)^-1 = 12^-1 = 8 mod 19
	got, err := runOnNums(lock, 7)
	assert.NoError(err)
	assert.Len(got, 1)
	assert.EqualValues(8, got[0].Int64())
}
