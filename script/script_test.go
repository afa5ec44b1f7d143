package script_test

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/test"
)

func TestEncodeNum(t *testing.T) {
	for _, tc := range []struct {
		n    int64
		want []byte
	}{
		{0, []byte{}},
		{1, []byte{0x01}},
		{-1, []byte{0x81}},
		{127, []byte{0x7f}},
		{-127, []byte{0xff}},
		{128, []byte{0x80, 0x00}},
		{-128, []byte{0x80, 0x80}},
		{255, []byte{0xff, 0x00}},
		{256, []byte{0x00, 0x01}},
	} {
		require.Equal(t, tc.want, script.EncodeNum(big.NewInt(tc.n)), "%d", tc.n)
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("decode inverts encode", prop.ForAll(
		func(n int64) bool {
			x := big.NewInt(n)
			return script.DecodeNum(script.EncodeNum(x)).Cmp(x) == 0
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestPushInt(t *testing.T) {
	s := script.New()
	s.PushInt64(0)
	s.PushInt64(-1)
	s.PushInt64(16)
	s.PushInt64(17)
	s.PushInt64(-2)
	require.Equal(t, "OP_0 OP_1NEGATE OP_16 0x11 0x82", s.String())
}

func TestParseString(t *testing.T) {
	asm := "OP_DEPTH OP_1SUB OP_PICK 0x11 OP_EQUALVERIFY OP_7"
	s, err := script.ParseString(asm)
	require.NoError(t, err)
	require.Equal(t, asm, s.String())

	_, err = script.ParseString("OP_NOSUCHOP")
	require.Error(t, err)
	_, err = script.ParseString("0xzz")
	require.Error(t, err)
}

func TestPickRollPatterns(t *testing.T) {
	require.Equal(t, "OP_DUP", script.Pick(0, 1).String())
	require.Equal(t, "OP_2OVER", script.Pick(3, 2).String())
	require.Equal(t, "OP_SWAP", script.Roll(1, 1).String())
	require.Equal(t, "OP_2ROT", script.Roll(5, 2).String())

	// moving the top n elements to the top is a no-op
	require.Equal(t, "", script.Roll(1, 2).String())

	require.Panics(t, func() { script.Pick(1, 3) })
	require.Panics(t, func() { script.Roll(0, 2) })
}

func TestPickRollExecution(t *testing.T) {
	nums := func(values ...int64) []*big.Int {
		out := make([]*big.Int, len(values))
		for i, v := range values {
			out[i] = big.NewInt(v)
		}
		return out
	}
	load := script.NumsToScript(nums(1, 2, 3, 4, 5))

	t.Run("pick duplicates", func(t *testing.T) {
		assert := test.NewAssert(t)
		e := assert.Run(load, script.Pick(2, 2))
		assert.StackNums(e, nums(1, 2, 3, 4, 5, 3, 4)...)
	})

	t.Run("roll moves", func(t *testing.T) {
		assert := test.NewAssert(t)
		e := assert.Run(load, script.Roll(3, 2))
		assert.StackNums(e, nums(1, 4, 5, 2, 3)...)
	})

	t.Run("negative positions count from the bottom", func(t *testing.T) {
		assert := test.NewAssert(t)
		e := assert.Run(load, script.Roll(-1, 1))
		assert.StackNums(e, nums(2, 3, 4, 5, 1)...)

		e = assert.Run(load, script.Pick(-1, 2))
		assert.StackNums(e, nums(1, 2, 3, 4, 5, 1, 2)...)
	})
}

func TestMod(t *testing.T) {
	nums := func(values ...int64) []*big.Int {
		out := make([]*big.Int, len(values))
		for i, v := range values {
			out[i] = big.NewInt(v)
		}
		return out
	}

	t.Run("positive residue", func(t *testing.T) {
		assert := test.NewAssert(t)
		e := assert.Run(script.NumsToScript(nums(-13, 7)), script.Mod("", true, true, false))
		assert.StackNums(e, big.NewInt(1))
	})

	t.Run("reused constant stays second to top", func(t *testing.T) {
		assert := test.NewAssert(t)
		e := assert.Run(script.NumsToScript(nums(-13, 7)), script.Mod("", true, true, true))
		assert.StackNums(e, big.NewInt(7), big.NewInt(1))
	})

	t.Run("signed residue keeps the sign", func(t *testing.T) {
		assert := test.NewAssert(t)
		e := assert.Run(script.NumsToScript(nums(-13, 7)), script.Mod("", true, false, false))
		assert.StackNums(e, big.NewInt(-6))
	})

	t.Run("from altstack", func(t *testing.T) {
		// a previous reduction left [q, result] with 20 parked on the
		// altstack; the next component comes back under the modulus
		assert := test.NewAssert(t)
		unlock := script.NumsToScript(nums(20))
		unlock.PushOp(script.OP_TOALTSTACK)
		unlock.Append(script.NumsToScript(nums(7, 6)))
		e := assert.Run(unlock, script.ModFromAlt(true, true))
		assert.StackNums(e, big.NewInt(6), big.NewInt(7), big.NewInt(6))
	})
}

func TestBottomConstant(t *testing.T) {
	load := script.New()
	load.PushInt64(19)
	load.PushInt64(5)

	t.Run("verify passes on match", func(t *testing.T) {
		assert := test.NewAssert(t)
		e := assert.Run(load, script.VerifyBottomConstant(big.NewInt(19)))
		assert.StackNums(e, big.NewInt(19), big.NewInt(5))
	})

	t.Run("verify aborts on mismatch", func(t *testing.T) {
		assert := test.NewAssert(t)
		assert.Fails(load, script.VerifyBottomConstant(big.NewInt(17)))
	})

	t.Run("fetch picks or cleans", func(t *testing.T) {
		assert := test.NewAssert(t)
		e := assert.Run(load, script.FetchBottomConstant(false))
		assert.StackNums(e, big.NewInt(19), big.NewInt(5), big.NewInt(19))

		e = assert.Run(load, script.FetchBottomConstant(true))
		assert.StackNums(e, big.NewInt(5), big.NewInt(19))
	})
}

func TestOptimise(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{"OP_1 OP_TOALTSTACK OP_FROMALTSTACK OP_2", "OP_1 OP_2"},
		{"OP_ROT OP_ROT OP_ROT", ""},
		{"OP_SWAP OP_ADD", "OP_ADD"},
		{"OP_SWAP OP_SUB OP_NEGATE", "OP_SUB"},
		// cancellations cascade to a fixed point
		{"OP_TOALTSTACK OP_ROT OP_ROT OP_ROT OP_FROMALTSTACK", ""},
		{"OP_DUP OP_MUL", "OP_DUP OP_MUL"},
	} {
		got := script.Optimise(script.MustParse(tc.in))
		require.Equal(t, tc.want, got.String(), "input %q", tc.in)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	s := script.MustParse("OP_DEPTH OP_1SUB OP_PICK 0x11 OP_EQUALVERIFY OP_ADD")

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)

	var decoded script.Script
	_, err = decoded.ReadFrom(&buf)
	require.NoError(t, err)
	require.Equal(t, s.String(), decoded.String())
}

func TestMarshalRejectsForeignMajor(t *testing.T) {
	envelope := func(version string) []byte {
		data, err := cbor.Marshal(map[int]interface{}{1: version, 2: []byte{script.OP_1}})
		require.NoError(t, err)
		return data
	}

	var s script.Script
	_, err := s.ReadFrom(bytes.NewReader(envelope("999.0.0")))
	require.ErrorContains(t, err, "v999.0.0")

	_, err = s.ReadFrom(bytes.NewReader(envelope("not-a-version")))
	require.Error(t, err)
}
