package pairing

import (
	"math/big"

	"github.com/zkscript/zkscript/script"
)

// infinityBytes is the in-script encoding of one coordinate of the point at
// infinity.
var infinityBytes = []byte{0x00}

// SinglePairingInput builds the unlocking-side script feeding SinglePairing:
// the modulus (optional), the inverse of the Miller loop output, the
// gradients computing w*Q, then P and Q. A nil p or q stands for the point at
// infinity and is pushed as 0x00 bytes; the inverse and the gradients are
// omitted in that case, as the locking script short-circuits.
//
// gradients[i][j] is the j-th gradient of the i-th loop iteration, iterations
// running from the most significant exponent digit down.
func (m *Model) SinglePairingInput(
	p, q []*big.Int,
	gradients [][][]*big.Int,
	inverseMillerOutput []*big.Int,
	loadModulus bool,
) script.Script {
	out := script.New()
	if loadModulus {
		out.PushInt(m.Q)
	}

	switch {
	case p == nil && q != nil:
		for i := 0; i < m.NPointsCurve; i++ {
			out.PushData(infinityBytes)
		}
		out.Append(script.NumsToScript(q))
	case p != nil && q == nil:
		out.Append(script.NumsToScript(p))
		for i := 0; i < m.NPointsTwist; i++ {
			out.PushData(infinityBytes)
		}
	case p == nil && q == nil:
		for i := 0; i < m.NPointsCurve+m.NPointsTwist; i++ {
			out.PushData(infinityBytes)
		}
	default:
		out.Append(script.NumsToScript(inverseMillerOutput))
		for i := len(gradients) - 1; i >= 0; i-- {
			for j := len(gradients[i]) - 1; j >= 0; j-- {
				out.Append(script.NumsToScript(gradients[i][j]))
			}
		}
		out.Append(script.NumsToScript(p))
		out.Append(script.NumsToScript(q))
	}

	return out
}

// TriplePairingInput builds the unlocking-side script feeding TriplePairing:
// the modulus (optional), the inverse of the product of the three Miller
// loop outputs, the gradients, then P1, P2, P3 and Q1, Q2, Q3.
//
// gradients[k][i][j] is the j-th gradient of the i-th loop iteration for the
// k-th pair. With gradientsOnStack the three columns are interleaved per
// iteration; otherwise only the first pair's gradients are loaded and the
// locking script is expected to inject the other two.
func (m *Model) TriplePairingInput(
	p, q [3][]*big.Int,
	gradients [3][][][]*big.Int,
	inverseMillerOutput []*big.Int,
	gradientsOnStack bool,
	loadModulus bool,
) script.Script {
	out := script.New()
	if loadModulus {
		out.PushInt(m.Q)
	}

	out.Append(script.NumsToScript(inverseMillerOutput))

	for i := len(gradients[0]) - 1; i >= 0; i-- {
		for j := len(gradients[0][i]) - 1; j >= 0; j-- {
			if gradientsOnStack {
				for k := 0; k < 3; k++ {
					out.Append(script.NumsToScript(gradients[k][i][j]))
				}
			} else {
				out.Append(script.NumsToScript(gradients[0][i][j]))
			}
		}
	}

	for k := 0; k < 3; k++ {
		out.Append(script.NumsToScript(p[k]))
	}
	for k := 0; k < 3; k++ {
		out.Append(script.NumsToScript(q[k]))
	}

	return out
}
