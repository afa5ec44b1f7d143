package groth16

import (
	"math/big"

	"github.com/zkscript/zkscript/pairing"
	"github.com/zkscript/zkscript/script"
)

// LockingKey holds the verification key material baked into a Verifier
// script.
type LockingKey struct {
	// AlphaBeta is e(alpha, beta), precomputed off-script.
	AlphaBeta []*big.Int
	// MinusGamma and MinusDelta are -gamma and -delta on the twisted curve.
	MinusGamma []*big.Int
	MinusDelta []*big.Int
	// GammaAbc are the CRS points; GammaAbc[0] is the constant term, so the
	// script verifies len(GammaAbc)-1 public inputs.
	GammaAbc [][]*big.Int
	// PrecomputedGradients holds the Miller loop gradients of w*(-gamma) and
	// w*(-delta) to inject into the script. When nil the unlocking script
	// supplies them and the script verifies them against the computed points.
	PrecomputedGradients *pairing.PrecomputedGradients
}

// LockingKeyWithPrecomputedMSM is a LockingKey for scripts that take the
// public-input MSM as witness data instead of computing it.
type LockingKeyWithPrecomputedMSM struct {
	AlphaBeta            []*big.Int
	MinusGamma           []*big.Int
	MinusDelta           []*big.Int
	PrecomputedGradients *pairing.PrecomputedGradients
}

// UnlockingKey holds the witness data of a Verifier script.
type UnlockingKey struct {
	// PublicInputs are a_1, .., a_l; a_0 = 1 is implicit.
	PublicInputs []*big.Int
	// A, B, C are the proof points, A and C on the base curve, B on the
	// twisted curve.
	A []*big.Int
	B []*big.Int
	C []*big.Int
	// GradientsPairings[0] are the gradients of w*B; [1] and [2] those of
	// w*(-gamma) and w*(-delta), only loaded when the locking key does not
	// carry them precomputed.
	GradientsPairings [3][][][]*big.Int
	// InverseMillerOutput is the inverse of
	// miller(A,B) * miller(msm, -gamma) * miller(C, -delta).
	InverseMillerOutput []*big.Int
	// GradientsMultiplications[i] feeds the unrolled multiplication
	// a_(i+1) * gamma_abc[i+1].
	GradientsMultiplications [][][][]*big.Int
	// MaxMultipliers bounds each public input; nil bounds them all by the
	// group order. Must match the bounds the locking script was built with.
	MaxMultipliers []*big.Int
	// GradientsAdditions[i] is the gradient folding a_(i+1) * gamma_abc[i+1]
	// into the running sum, in folding order. Entries for additions touching
	// the point at infinity are nil.
	GradientsAdditions [][]*big.Int
}

// ToUnlockingScript builds the witness pushes consumed by the Verifier
// script built from a locking key with the same gradient mode and bounds.
// gradientsOnStack must be true exactly when the locking key carries no
// precomputed gradients.
func (k *UnlockingKey) ToUnlockingScript(
	m *Model,
	gradientsOnStack bool,
	loadModulus bool,
) script.Script {
	out := script.New()
	if loadModulus {
		out.PushInt(m.Pairing.Q)
	}

	out.Append(script.NumsToScript(k.InverseMillerOutput))
	out.Append(pairingGradients(k.GradientsPairings, gradientsOnStack))

	out.Append(script.NumsToScript(k.A))
	out.Append(script.NumsToScript(k.B))
	out.Append(script.NumsToScript(k.C))

	for i := len(k.GradientsAdditions) - 1; i >= 0; i-- {
		out.Append(script.NumsToScript(k.GradientsAdditions[i]))
	}

	for i := 0; i < len(k.PublicInputs); i++ {
		maxMultiplier := m.R
		if k.MaxMultipliers != nil {
			maxMultiplier = k.MaxMultipliers[i]
		}
		out.Append(m.Curve.UnrolledMultiplicationInput(
			nil,
			k.PublicInputs[i],
			k.GradientsMultiplications[i],
			maxMultiplier,
			false,
			false,
		))
	}

	return out
}

// UnlockingKeyWithPrecomputedMSM holds the witness data of a
// VerifierWithPrecomputedMSM script.
type UnlockingKeyWithPrecomputedMSM struct {
	A []*big.Int
	B []*big.Int
	C []*big.Int
	// GradientsPairings is interpreted as in UnlockingKey.
	GradientsPairings [3][][][]*big.Int
	InverseMillerOutput []*big.Int
	// PrecomputedMSM is sum_(i=0)^l a_i * gamma_abc[i].
	PrecomputedMSM []*big.Int
}

// ToUnlockingScript builds the witness pushes consumed by a
// VerifierWithPrecomputedMSM script.
func (k *UnlockingKeyWithPrecomputedMSM) ToUnlockingScript(
	m *Model,
	gradientsOnStack bool,
	loadModulus bool,
) script.Script {
	out := script.New()
	if loadModulus {
		out.PushInt(m.Pairing.Q)
	}

	out.Append(script.NumsToScript(k.InverseMillerOutput))
	out.Append(pairingGradients(k.GradientsPairings, gradientsOnStack))

	out.Append(script.NumsToScript(k.A))
	out.Append(script.NumsToScript(k.B))
	out.Append(script.NumsToScript(k.C))
	out.Append(script.NumsToScript(k.PrecomputedMSM))

	return out
}

// pairingGradients loads the Miller loop gradients, iterations from the last
// executed up so the first executed ends on top, the three pairs interleaved
// per gradient when they all travel on the stack.
func pairingGradients(gradients [3][][][]*big.Int, gradientsOnStack bool) script.Script {
	out := script.New()
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
	return out
}
