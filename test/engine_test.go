package test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkscript/zkscript/script"
)

func run(t *testing.T, asm string) *Engine {
	t.Helper()
	e := NewEngine()
	require.NoError(t, e.Execute(script.MustParse(asm)))
	return e
}

func TestArithmetic(t *testing.T) {
	assert := NewAssert(t)

	e := run(t, "OP_2 OP_3 OP_ADD")
	assert.StackNums(e, big.NewInt(5))

	e = run(t, "OP_2 OP_3 OP_SUB")
	assert.StackNums(e, big.NewInt(-1))

	e = run(t, "OP_10 OP_1NEGATE OP_MUL")
	assert.StackNums(e, big.NewInt(-10))

	// remainder follows the sign of the dividend
	e = run(t, "OP_7 OP_NEGATE OP_3 OP_MOD")
	assert.StackNums(e, big.NewInt(-1))

	e = run(t, "OP_7 OP_3 OP_MOD")
	assert.StackNums(e, big.NewInt(1))
}

func TestBigNumbers(t *testing.T) {
	assert := NewAssert(t)

	x, _ := new(big.Int).SetString("ffffffffffffffffffffffffffffffffffffffff", 16)
	s := script.New()
	s.PushInt(x)
	s.PushInt(x)
	s.PushOp(script.OP_MUL)

	e := assert.Run(s)
	assert.StackNums(e, new(big.Int).Mul(x, x))
}

func TestStackManipulation(t *testing.T) {
	assert := NewAssert(t)

	e := run(t, "OP_1 OP_2 OP_3 OP_ROT")
	assert.StackNums(e, big.NewInt(2), big.NewInt(3), big.NewInt(1))

	e = run(t, "OP_1 OP_2 OP_TUCK")
	assert.StackNums(e, big.NewInt(2), big.NewInt(1), big.NewInt(2))

	e = run(t, "OP_1 OP_2 OP_3 OP_4 OP_2SWAP")
	assert.StackNums(e, big.NewInt(3), big.NewInt(4), big.NewInt(1), big.NewInt(2))

	e = run(t, "OP_1 OP_2 OP_3 OP_2 OP_PICK")
	assert.StackNums(e, big.NewInt(1), big.NewInt(2), big.NewInt(3), big.NewInt(1))

	e = run(t, "OP_1 OP_2 OP_3 OP_2 OP_ROLL")
	assert.StackNums(e, big.NewInt(2), big.NewInt(3), big.NewInt(1))

	e = run(t, "OP_1 OP_2 OP_TOALTSTACK OP_TOALTSTACK OP_DEPTH OP_FROMALTSTACK OP_FROMALTSTACK")
	assert.StackNums(e, big.NewInt(0), big.NewInt(1), big.NewInt(2))
}

func TestConditionals(t *testing.T) {
	assert := NewAssert(t)

	e := run(t, "OP_1 OP_IF OP_2 OP_ELSE OP_3 OP_ENDIF")
	assert.StackNums(e, big.NewInt(2))

	e = run(t, "OP_0 OP_IF OP_2 OP_ELSE OP_3 OP_ENDIF")
	assert.StackNums(e, big.NewInt(3))

	// nested branch inside a skipped branch must not execute
	e = run(t, "OP_0 OP_IF OP_1 OP_IF OP_2 OP_ENDIF OP_ELSE OP_4 OP_ENDIF")
	assert.StackNums(e, big.NewInt(4))

	assert.Fails(script.MustParse("OP_1 OP_IF OP_2"))
	assert.Fails(script.MustParse("OP_ELSE"))
}

func TestSplice(t *testing.T) {
	assert := NewAssert(t)

	e := run(t, "0x0102 0x0304 OP_CAT")
	assert.Equal([]byte{1, 2, 3, 4}, e.Bytes(0))

	e = run(t, "0x01020304 OP_2 OP_SPLIT")
	assert.Equal([]byte{3, 4}, e.Bytes(0))
	assert.Equal([]byte{1, 2}, e.Bytes(1))

	e = run(t, "0x010203 OP_SIZE")
	assert.StackNums(e, script.DecodeNum([]byte{1, 2, 3}), big.NewInt(3))

	// NUM2BIN pads, BIN2NUM minimally re-encodes
	e = run(t, "OP_5 OP_4 OP_NUM2BIN")
	assert.Equal([]byte{5, 0, 0, 0}, e.Bytes(0))

	e = run(t, "OP_5 OP_4 OP_NUM2BIN OP_BIN2NUM")
	assert.StackNums(e, big.NewInt(5))
}

func TestVerifyOpcodes(t *testing.T) {
	assert := NewAssert(t)

	e := run(t, "OP_2 OP_2 OP_EQUALVERIFY OP_1")
	assert.StackNums(e, big.NewInt(1))

	assert.Fails(script.MustParse("OP_2 OP_3 OP_EQUALVERIFY"))
	assert.Fails(script.MustParse("OP_0 OP_VERIFY"))

	// number equality is not byte equality
	e = run(t, "OP_5 OP_4 OP_NUM2BIN OP_5 OP_NUMEQUAL")
	assert.StackNums(e, big.NewInt(1))

	e = run(t, "OP_5 OP_4 OP_NUM2BIN OP_5 OP_EQUAL")
	assert.StackNums(e, big.NewInt(0))
}

func TestNegativeZeroIsFalse(t *testing.T) {
	assert := NewAssert(t)

	e := run(t, "0x80 OP_IF OP_1 OP_ELSE OP_2 OP_ENDIF")
	assert.StackNums(e, big.NewInt(2))
}

func TestHashes(t *testing.T) {
	assert := NewAssert(t)

	e := run(t, "0x616263 OP_SHA256")
	assert.Equal(
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		big.NewInt(0).SetBytes(e.Bytes(0)).Text(16),
	)

	e = run(t, "0x616263 OP_HASH160")
	assert.Len(e.Bytes(0), 20)
}
