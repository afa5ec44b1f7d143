package merkle

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/zkscript/zkscript/script"
)

// BitFlagsUnlockingKey holds a Merkle path in the bit-flag layout.
type BitFlagsUnlockingKey struct {
	// Data is the leaf preimage being proven.
	Data []byte
	// Aux[i] is the sibling label at level i+1, leaf side first.
	Aux [][]byte
	// Bits selects per level which side the sibling is concatenated on;
	// bit i set swaps the running label and Aux[i].
	Bits *bitset.BitSet
}

// ToUnlockingScript builds the witness pushes consumed by
// LockingProofWithBitFlags.
func (k *BitFlagsUnlockingKey) ToUnlockingScript(t *Tree) (script.Script, error) {
	if len(k.Aux) != t.Depth-1 {
		return script.Script{}, fmt.Errorf(
			"merkle: %d auxiliary labels for a tree of depth %d", len(k.Aux), t.Depth,
		)
	}
	if k.Bits == nil {
		return script.Script{}, fmt.Errorf("merkle: missing direction bits")
	}

	out := script.New()
	for i := len(k.Aux) - 1; i >= 0; i-- {
		out.PushData(k.Aux[i])
		if k.Bits.Test(uint(i)) {
			out.PushOp(script.OP_1)
		} else {
			out.PushOp(script.OP_0)
		}
	}
	out.PushData(k.Data)

	return out, nil
}

// TwoAuxUnlockingKey holds a Merkle path in the two-label layout: at every
// level exactly one of the two labels is the sibling and the other is the
// empty string.
type TwoAuxUnlockingKey struct {
	Data     []byte
	AuxLeft  [][]byte
	AuxRight [][]byte
}

// ToUnlockingScript builds the witness pushes consumed by
// LockingProofWithTwoAux.
func (k *TwoAuxUnlockingKey) ToUnlockingScript(t *Tree) (script.Script, error) {
	if len(k.AuxLeft) != len(k.AuxRight) {
		return script.Script{}, fmt.Errorf(
			"merkle: %d left labels against %d right ones", len(k.AuxLeft), len(k.AuxRight),
		)
	}
	if len(k.AuxLeft) != t.Depth-1 {
		return script.Script{}, fmt.Errorf(
			"merkle: %d auxiliary label pairs for a tree of depth %d", len(k.AuxLeft), t.Depth,
		)
	}

	out := script.New()
	for i := len(k.AuxLeft) - 1; i >= 0; i-- {
		out.PushData(k.AuxLeft[i])
		out.PushData(k.AuxRight[i])
	}
	out.PushData(k.Data)

	return out, nil
}
