package merkle

import (
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/require"

	"github.com/zkscript/zkscript/test"
)

func hashNode(parts ...[]byte) []byte {
	h := sha256.New()
	for _, part := range parts {
		h.Write(part)
	}
	return h.Sum(nil)
}

// testPath builds a depth-3 path for leaf data d: the level-1 sibling is
// concatenated on the right (bit set), the level-2 one on the left (bit
// clear).
func testPath() (d, sibling1, sibling2, root []byte) {
	d = []byte("leaf")
	sibling1 = hashNode([]byte("sibling one"))
	sibling2 = hashNode([]byte("sibling two"))

	h1 := hashNode(d)
	h2 := hashNode(h1, sibling1)
	root = hashNode(sibling2, h2)
	return d, sibling1, sibling2, root
}

func TestLockingProofWithBitFlags(t *testing.T) {
	d, sibling1, sibling2, root := testPath()

	tree, err := NewTree(root, "OP_SHA256", 3)
	require.NoError(t, err)

	key := &BitFlagsUnlockingKey{
		Data: d,
		Aux:  [][]byte{sibling1, sibling2},
		Bits: bitset.New(2).Set(0),
	}

	t.Run("valid path", func(t *testing.T) {
		assert := test.NewAssert(t)
		unlock, err := key.ToUnlockingScript(tree)
		assert.NoError(err)

		e := assert.Run(unlock, tree.LockingProofWithBitFlags(false))
		assert.CleanStack(e, 1)
		assert.StackNums(e, big.NewInt(1))
	})

	t.Run("equal verify consumes the result", func(t *testing.T) {
		assert := test.NewAssert(t)
		unlock, err := key.ToUnlockingScript(tree)
		assert.NoError(err)

		e := assert.Run(unlock, tree.LockingProofWithBitFlags(true))
		assert.CleanStack(e, 0)
	})

	t.Run("wrong leaf", func(t *testing.T) {
		assert := test.NewAssert(t)
		bad := &BitFlagsUnlockingKey{
			Data: []byte("not the leaf"),
			Aux:  key.Aux,
			Bits: key.Bits,
		}
		unlock, err := bad.ToUnlockingScript(tree)
		assert.NoError(err)

		e := assert.Run(unlock, tree.LockingProofWithBitFlags(false))
		assert.StackNums(e, big.NewInt(0))
		assert.Fails(unlock, tree.LockingProofWithBitFlags(true))
	})

	t.Run("flipped direction bit", func(t *testing.T) {
		assert := test.NewAssert(t)
		flipped := &BitFlagsUnlockingKey{
			Data: d,
			Aux:  key.Aux,
			Bits: bitset.New(2),
		}
		unlock, err := flipped.ToUnlockingScript(tree)
		assert.NoError(err)

		e := assert.Run(unlock, tree.LockingProofWithBitFlags(false))
		assert.StackNums(e, big.NewInt(0))
	})
}

func TestLockingProofWithTwoAux(t *testing.T) {
	d, sibling1, sibling2, root := testPath()

	tree, err := NewTree(root, "OP_SHA256", 3)
	require.NoError(t, err)

	key := &TwoAuxUnlockingKey{
		Data:     d,
		AuxLeft:  [][]byte{nil, sibling2},
		AuxRight: [][]byte{sibling1, nil},
	}

	t.Run("valid path", func(t *testing.T) {
		assert := test.NewAssert(t)
		unlock, err := key.ToUnlockingScript(tree)
		assert.NoError(err)

		e := assert.Run(unlock, tree.LockingProofWithTwoAux(false))
		assert.CleanStack(e, 1)
		assert.StackNums(e, big.NewInt(1))
	})

	t.Run("sibling on the wrong side", func(t *testing.T) {
		assert := test.NewAssert(t)
		swapped := &TwoAuxUnlockingKey{
			Data:     d,
			AuxLeft:  [][]byte{sibling1, sibling2},
			AuxRight: [][]byte{nil, nil},
		}
		unlock, err := swapped.ToUnlockingScript(tree)
		assert.NoError(err)

		e := assert.Run(unlock, tree.LockingProofWithTwoAux(false))
		assert.StackNums(e, big.NewInt(0))
	})
}

func TestNewTreeValidation(t *testing.T) {
	root := hashNode([]byte("root"))

	_, err := NewTree(nil, "OP_SHA256", 3)
	require.Error(t, err)

	_, err = NewTree(root, "OP_SHA256", 0)
	require.Error(t, err)

	_, err = NewTree(root, "", 3)
	require.Error(t, err)

	_, err = NewTree(root, "OP_SHA256 OP_DUP", 3)
	require.Error(t, err)

	tree, err := NewTree(root, "OP_SHA256 OP_RIPEMD160", 4)
	require.NoError(t, err)
	require.Equal(t, 4, tree.Depth)
}

func TestUnlockingKeyValidation(t *testing.T) {
	root := hashNode([]byte("root"))
	tree, err := NewTree(root, "OP_SHA256", 3)
	require.NoError(t, err)

	_, err = (&BitFlagsUnlockingKey{
		Data: []byte("d"),
		Aux:  [][]byte{root},
		Bits: bitset.New(1),
	}).ToUnlockingScript(tree)
	require.Error(t, err)

	_, err = (&BitFlagsUnlockingKey{
		Data: []byte("d"),
		Aux:  [][]byte{root, root},
	}).ToUnlockingScript(tree)
	require.Error(t, err)

	_, err = (&TwoAuxUnlockingKey{
		Data:    []byte("d"),
		AuxLeft: [][]byte{root}, AuxRight: [][]byte{root, root},
	}).ToUnlockingScript(tree)
	require.Error(t, err)
}
