package ec

import (
	"math/big"
	"testing"

	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/test"
)

func pushInfinity(s *script.Script) {
	s.PushData(infinityBytes)
	s.PushData(infinityBytes)
}

func TestPointAdditionWithUnknownPoints(t *testing.T) {
	curve, arith := testCurves()

	lock := curve.PointAdditionWithUnknownPoints(script.Reduce)

	p := testP
	q := arith.Double(testP)

	t.Run("distinct points", func(t *testing.T) {
		assert := test.NewAssert(t)
		gradient, err := arith.Gradient(p, q)
		assert.NoError(err)
		want := arith.Add(p, q)

		unlock := script.New()
		unlock.PushInt(testQ)
		unlock.PushInt(gradient)
		pushPoint(&unlock, p)
		pushPoint(&unlock, q)

		e := assert.Run(unlock, lock)
		assert.CleanStack(e, 2)
		assert.StackNums(e, want.X, want.Y)
	})

	t.Run("coincident points", func(t *testing.T) {
		assert := test.NewAssert(t)
		gradient, err := arith.Gradient(p, p)
		assert.NoError(err)
		want := arith.Double(p)

		unlock := script.New()
		unlock.PushInt(testQ)
		unlock.PushInt(gradient)
		pushPoint(&unlock, p)
		pushPoint(&unlock, p)

		e := assert.Run(unlock, lock)
		assert.CleanStack(e, 2)
		assert.StackNums(e, want.X, want.Y)
	})

	t.Run("inverse points", func(t *testing.T) {
		assert := test.NewAssert(t)

		// no gradient: the line through P and -P is vertical
		unlock := script.New()
		unlock.PushInt(testQ)
		pushPoint(&unlock, p)
		pushPoint(&unlock, arith.Neg(p))

		e := assert.Run(unlock, lock)
		assert.CleanStack(e, 2)
		assert.Equal(infinityBytes, e.Bytes(1))
		assert.Equal(infinityBytes, e.Bytes(0))
	})

	t.Run("first operand at infinity", func(t *testing.T) {
		assert := test.NewAssert(t)

		unlock := script.New()
		unlock.PushInt(testQ)
		pushInfinity(&unlock)
		pushPoint(&unlock, q)

		e := assert.Run(unlock, lock)
		assert.CleanStack(e, 2)
		assert.StackNums(e, q.X, q.Y)
	})

	t.Run("second operand at infinity", func(t *testing.T) {
		assert := test.NewAssert(t)

		unlock := script.New()
		unlock.PushInt(testQ)
		pushPoint(&unlock, p)
		pushInfinity(&unlock)

		e := assert.Run(unlock, lock)
		assert.CleanStack(e, 2)
		assert.StackNums(e, p.X, p.Y)
	})

	t.Run("wrong gradient", func(t *testing.T) {
		assert := test.NewAssert(t)
		gradient, err := arith.Gradient(p, q)
		assert.NoError(err)

		unlock := script.New()
		unlock.PushInt(testQ)
		unlock.PushInt(new(big.Int).Add(gradient, big.NewInt(1)))
		pushPoint(&unlock, p)
		pushPoint(&unlock, q)

		assert.Fails(unlock, lock)
	})
}

func TestMultiAddition(t *testing.T) {
	assert := test.NewAssert(t)
	curve, arith := testCurves()

	p1 := testP
	p2 := arith.Double(testP)
	p3 := arith.ScalarMul(testP, big.NewInt(4))

	s2 := arith.Add(p2, p1)
	want := arith.Add(p3, s2)

	g2, err := arith.Gradient(p2, p1)
	assert.NoError(err)
	g3, err := arith.Gradient(p3, s2)
	assert.NoError(err)

	unlock := script.New()
	unlock.PushInt(testQ)
	unlock.PushInt(g3)
	pushPoint(&unlock, p3)
	unlock.PushInt(g2)
	pushPoint(&unlock, p2)
	pushPoint(&unlock, p1)

	lock := curve.MultiAddition(3, 0, script.Reduce)

	e := assert.Run(unlock, lock)
	assert.CleanStack(e, 2)
	assert.StackNums(e, want.X, want.Y)
}

func TestMultiAdditionWithAltstack(t *testing.T) {
	assert := test.NewAssert(t)
	curve, arith := testCurves()

	p1 := testP
	p2 := arith.Double(testP)
	p3 := arith.ScalarMul(testP, big.NewInt(4))
	p4 := arith.ScalarMul(testP, big.NewInt(5))

	s2 := arith.Add(p2, p1)
	s3 := arith.Add(s2, p3)
	want := arith.Add(s3, p4)

	g2, err := arith.Gradient(p2, p1)
	assert.NoError(err)
	g3, err := arith.Gradient(s2, p3)
	assert.NoError(err)
	g4, err := arith.Gradient(s3, p4)
	assert.NoError(err)

	// p4 is parked first so that p3 is pulled back first
	unlock := script.New()
	unlock.PushInt(testQ)
	unlock.PushInt(g4)
	unlock.PushInt(g3)
	unlock.PushInt(g2)
	pushPoint(&unlock, p4)
	unlock.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)
	pushPoint(&unlock, p3)
	unlock.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)
	pushPoint(&unlock, p2)
	pushPoint(&unlock, p1)

	lock := curve.MultiAddition(2, 2, script.Reduce)

	e := assert.Run(unlock, lock)
	assert.CleanStack(e, 2)
	assert.StackNums(e, want.X, want.Y)
}

func TestUnrolledMultiplication(t *testing.T) {
	curve, arith := testCurves()
	maxMultiplier := big.NewInt(8)

	for _, tc := range []struct {
		name            string
		a               int64
		moduloThreshold int
	}{
		{"reduction only at the end", 3, 200},
		{"reduction at every step", 7, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert := test.NewAssert(t)

			a := big.NewInt(tc.a)
			want := arith.ScalarMul(testP, a)
			gradients := arith.MultiplicationGradients(testP, a)

			unlock := curve.UnrolledMultiplicationInput(
				[]*big.Int{testP.X, testP.Y}, a, gradients, maxMultiplier, true, false,
			)
			lock := curve.UnrolledMultiplication(maxMultiplier, tc.moduloThreshold, script.Reduce, false)

			e := assert.Run(unlock, lock)
			assert.CleanStack(e, 4)
			assert.StackNums(e, testP.X, testP.Y, want.X, want.Y)
		})
	}

	t.Run("zero scalar", func(t *testing.T) {
		assert := test.NewAssert(t)

		unlock := curve.UnrolledMultiplicationInput(
			[]*big.Int{testP.X, testP.Y}, big.NewInt(0), nil, maxMultiplier, true, false,
		)
		lock := curve.UnrolledMultiplication(maxMultiplier, 200, script.Reduce, false)

		e := assert.Run(unlock, lock)
		assert.CleanStack(e, 4)
		assert.Equal(infinityBytes, e.Bytes(1))
		assert.Equal(infinityBytes, e.Bytes(0))
	})

	t.Run("wrong gradient", func(t *testing.T) {
		assert := test.NewAssert(t)

		a := big.NewInt(3)
		gradients := arith.MultiplicationGradients(testP, a)
		gradients[0][0][0] = new(big.Int).Add(gradients[0][0][0], big.NewInt(1))

		unlock := curve.UnrolledMultiplicationInput(
			[]*big.Int{testP.X, testP.Y}, a, gradients, maxMultiplier, true, false,
		)
		lock := curve.UnrolledMultiplication(maxMultiplier, 200, script.Reduce, false)

		assert.Fails(unlock, lock)
	})
}

func TestUnrolledMultiplicationInput(t *testing.T) {
	assert := test.NewAssert(t)
	curve, _ := testCurves()

	// a = 3 on P = (6, 11) with the tangent at P and the chord through 2P
	// and P, padded up to multiplier 8
	unlock := curve.UnrolledMultiplicationInput(
		[]*big.Int{big.NewInt(6), big.NewInt(11)},
		big.NewInt(3),
		[][][]*big.Int{{{big.NewInt(8)}, {big.NewInt(10)}}},
		big.NewInt(8),
		true, false,
	)
	assert.Equal(
		"0x11 OP_0 OP_10 OP_1 OP_8 OP_1 OP_0 OP_0 OP_6 OP_11",
		unlock.String(),
	)
}

func TestMSMWithFixedBases(t *testing.T) {
	assert := test.NewAssert(t)
	curve, arith := testCurves()

	base1 := testP
	base2 := arith.Double(testP)
	a1 := big.NewInt(3)
	a2 := big.NewInt(5)

	t1 := arith.ScalarMul(base1, a1)
	t2 := arith.ScalarMul(base2, a2)
	want := arith.Add(t2, t1)
	gFold, err := arith.Gradient(t2, t1)
	assert.NoError(err)

	maxMultiplier := big.NewInt(8)
	lock := curve.MSMWithFixedBases(
		[][]*big.Int{{base1.X, base1.Y}, {base2.X, base2.Y}},
		[]*big.Int{maxMultiplier, maxMultiplier},
		200,
		script.Reduce,
		0,
	)

	unlock := script.New()
	unlock.PushInt(testQ)
	unlock.PushInt(gFold)
	unlock.Append(curve.UnrolledMultiplicationInput(
		nil, a2, arith.MultiplicationGradients(base2, a2), maxMultiplier, false, false,
	))
	unlock.Append(curve.UnrolledMultiplicationInput(
		nil, a1, arith.MultiplicationGradients(base1, a1), maxMultiplier, false, false,
	))

	e := assert.Run(unlock, lock)
	assert.CleanStack(e, 2)
	assert.StackNums(e, want.X, want.Y)
}
