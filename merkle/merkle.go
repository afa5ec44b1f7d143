// Package merkle generates Merkle path verification scripts: a locking
// script recomputes the root from a leaf and its path and compares it to a
// configured value. Two path layouts are supported: one auxiliary label plus
// a direction bit per level, or two auxiliary labels per level with the
// direction encoded by which one is empty.
package merkle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zkscript/zkscript/script"
)

// hashOpcodes are the opcodes a node hash may be built from.
var hashOpcodes = map[string]bool{
	"OP_RIPEMD160": true,
	"OP_SHA1":      true,
	"OP_SHA256":    true,
	"OP_HASH160":   true,
	"OP_HASH256":   true,
}

// Tree generates the verification scripts of a Merkle tree with a fixed
// root, node hash and depth.
type Tree struct {
	// Root is the expected root label.
	Root []byte
	// HashFunction is the node hash, one or more hash opcodes.
	HashFunction script.Script
	// Depth is the number of levels; a tree of depth n verifies paths of
	// n-1 auxiliary labels.
	Depth int
}

// NewTree returns a Merkle tree script generator. hashFunction is a space
// separated sequence of hash opcodes, applied in order to compute a node
// label.
func NewTree(root []byte, hashFunction string, depth int) (*Tree, error) {
	if len(root) == 0 {
		return nil, errors.New("merkle: empty root")
	}
	if depth <= 0 {
		return nil, fmt.Errorf("merkle: depth %d, want at least 1", depth)
	}
	tokens := strings.Fields(hashFunction)
	if len(tokens) == 0 {
		return nil, errors.New("merkle: empty hash function")
	}
	for _, token := range tokens {
		if !hashOpcodes[token] {
			return nil, fmt.Errorf("merkle: %s is not a hash opcode", token)
		}
	}

	return &Tree{
		Root:         append([]byte(nil), root...),
		HashFunction: script.MustParse(hashFunction),
		Depth:        depth,
	}, nil
}

// LockingProofWithBitFlags emits the script verifying a Merkle path in the
// bit-flag layout.
//
// Stack in:  [aux_(depth-1), bit_(depth-1), .., aux_1, bit_1, d]
// Stack out: [d in the tree]
//
// Every level hashes the running label concatenated with its sibling, the
// bit selecting which side the sibling is on. With isEqualVerify the final
// comparison aborts the script on mismatch instead of leaving a boolean.
func (t *Tree) LockingProofWithBitFlags(isEqualVerify bool) script.Script {
	out := script.New()
	out.Append(t.HashFunction)

	for i := 0; i < t.Depth-1; i++ {
		out.PushOp(script.OP_SWAP, script.OP_IF, script.OP_SWAP, script.OP_ENDIF)
		out.PushOp(script.OP_CAT)
		out.Append(t.HashFunction)
	}

	out.PushData(t.Root)
	if isEqualVerify {
		out.PushOp(script.OP_EQUALVERIFY)
	} else {
		out.PushOp(script.OP_EQUAL)
	}

	return out
}

// LockingProofWithTwoAux emits the script verifying a Merkle path in the
// two-label layout: every level concatenates aux_left, the running label and
// aux_right without branching, the sibling side encoded by which label is
// the empty string.
//
// Stack in:  [aux_left_(depth-1), aux_right_(depth-1), .., aux_left_1,
// aux_right_1, d]
// Stack out: [d in the tree]
func (t *Tree) LockingProofWithTwoAux(isEqualVerify bool) script.Script {
	out := script.New()
	out.Append(t.HashFunction)

	for i := 0; i < t.Depth-1; i++ {
		out.PushOp(script.OP_SWAP, script.OP_CAT, script.OP_CAT)
		out.Append(t.HashFunction)
	}

	out.PushData(t.Root)
	if isEqualVerify {
		out.PushOp(script.OP_EQUALVERIFY)
	} else {
		out.PushOp(script.OP_EQUAL)
	}

	return out
}
