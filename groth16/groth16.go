// Package groth16 generates Groth16 proof verification scripts on top of a
// pairing script model. The verifier turns the check
// e(A,B) = alpha_beta * e(sum_i a_i*gamma_abc[i], gamma) * e(C, delta) into
// e(A,B) * e(sum_i a_i*gamma_abc[i], -gamma) * e(C, -delta) = alpha_beta,
// whose left hand side is a triple pairing.
package groth16

import (
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/zkscript/zkscript/ec"
	"github.com/zkscript/zkscript/logger"
	"github.com/zkscript/zkscript/pairing"
	"github.com/zkscript/zkscript/script"
)

// infinityBytes is the in-script encoding of one coordinate of the point at
// infinity.
var infinityBytes = []byte{0x00}

// Model generates Groth16 verification scripts over a pairing model.
type Model struct {
	// Pairing is the pairing model of the instantiation.
	Pairing *pairing.Model
	// Curve is the base curve E(F_q) carrying the proof points and the CRS.
	Curve *ec.CurveFq
	// R is the order of G1, G2 and GT.
	R *big.Int
}

// NewModel returns a Groth16 script generator over the given pairing model
// and base curve.
func NewModel(pairingModel *pairing.Model, curve *ec.CurveFq, r *big.Int) *Model {
	return &Model{Pairing: pairingModel, Curve: curve, R: r}
}

// Verifier emits the Groth16 verification script for the given locking key.
//
// Stack in:  [q, .., inverse(miller products), gradients_pairing, A, B, C,
// gradient_msm_additions, a_1, gradients[a_1, gamma_abc[1]], ..,
// a_l, gradients[a_l, gamma_abc[l]]]
// Stack out: [q, .., true/false]
//
// a_i and gradients[a_i, gamma_abc[i]] are the input of the unrolled
// multiplication computing a_i * gamma_abc[i] (the base is hard-coded); the
// msm addition gradients fold the partial products into
// sum_(i=0)^l a_i * gamma_abc[i], with a_0 = 1. maxMultipliers bounds each
// public input; nil bounds them all by the group order.
//
// The per-input multiplications and the triple pairing are compiled
// concurrently and joined in a fixed order, so the emitted bytes do not
// depend on scheduling.
func (m *Model) Verifier(
	key *LockingKey,
	moduloThreshold int,
	maxMultipliers []*big.Int,
	cfg script.ModConfig,
) (script.Script, error) {
	if len(key.GammaAbc) == 0 {
		return script.Script{}, errors.New("groth16: locking key carries no CRS points")
	}
	nPub := len(key.GammaAbc) - 1
	if maxMultipliers != nil && len(maxMultipliers) != nPub {
		return script.Script{}, fmt.Errorf(
			"groth16: %d max multipliers for %d public inputs", len(maxMultipliers), nPub,
		)
	}

	multiplications := make([]script.Script, nPub)
	var triple script.Script

	var g errgroup.Group
	for i := 0; i < nPub; i++ {
		i := i
		g.Go(func() error {
			maxMultiplier := m.R
			if maxMultipliers != nil {
				maxMultiplier = maxMultipliers[i]
			}
			multiplications[i] = m.Curve.UnrolledMultiplication(
				maxMultiplier, moduloThreshold, script.ModConfig{}, false,
			)
			return nil
		})
	}
	g.Go(func() error {
		var err error
		triple, err = m.triplePairing(key.PrecomputedGradients, moduloThreshold, cfg)
		return err
	})
	if err := g.Wait(); err != nil {
		return script.Script{}, err
	}

	out := cfg.VerifyConstant(m.Pairing.Q)

	// Compute the a_i * gamma_abc[i] and park them on the altstack, leaving
	// gamma_abc[0] on the stack.
	for i := nPub; i >= 0; i-- {
		if isInfinity(key.GammaAbc[i]) {
			for j := 0; j < m.Pairing.NPointsCurve; j++ {
				out.PushData(infinityBytes)
			}
		} else {
			out.Append(script.NumsToScript(key.GammaAbc[i]))
		}
		if i > 0 {
			out.Append(multiplications[i-1])
			// Drop the base
			out.PushOp(script.OP_2SWAP, script.OP_2DROP)
			for j := 0; j < m.Pairing.NPointsCurve; j++ {
				out.PushOp(script.OP_TOALTSTACK)
			}
		}
	}

	// Fold the partial products into sum_(i=0)^l a_i * gamma_abc[i]
	addition := m.Curve.PointAdditionWithUnknownPoints(script.ModConfig{TakeModulo: true})
	for i := 0; i < nPub; i++ {
		for j := 0; j < m.Pairing.NPointsCurve; j++ {
			out.PushOp(script.OP_FROMALTSTACK)
		}
		out.Append(addition)
	}

	out.Append(m.pairingCheck(key.MinusGamma, key.MinusDelta, key.AlphaBeta, triple))

	compiled := script.Optimise(out)

	log := logger.Logger()
	log.Debug().Int("nbPublicInputs", nPub).Int("size", compiled.Len()).Msg("compiled groth16 verifier")

	return compiled, nil
}

// VerifierWithPrecomputedMSM emits the Groth16 verification script taking
// sum_(i=0)^l a_i * gamma_abc[i] from the unlocking script instead of
// computing it.
//
// Stack in:  [q, .., inverse(miller products), gradients_pairing, A, B, C,
// sum_(i=0)^l a_i * gamma_abc[i]]
// Stack out: [q, .., true/false]
func (m *Model) VerifierWithPrecomputedMSM(
	key *LockingKeyWithPrecomputedMSM,
	moduloThreshold int,
	cfg script.ModConfig,
) (script.Script, error) {
	triple, err := m.triplePairing(key.PrecomputedGradients, moduloThreshold, cfg)
	if err != nil {
		return script.Script{}, err
	}

	out := cfg.VerifyConstant(m.Pairing.Q)
	out.Append(m.pairingCheck(key.MinusGamma, key.MinusDelta, key.AlphaBeta, triple))

	return script.Optimise(out), nil
}

func (m *Model) triplePairing(
	precomputed *pairing.PrecomputedGradients,
	moduloThreshold int,
	cfg script.ModConfig,
) (script.Script, error) {
	gradientsOnStack := precomputed == nil

	// The gradients of w*B depend on the proof and are always verified; the
	// ones of the fixed twist points only travel unchecked when they are not
	// baked into the script.
	return m.Pairing.TriplePairing(
		moduloThreshold,
		[3]bool{true, gradientsOnStack, gradientsOnStack},
		script.ModConfig{
			PositiveModulo: true,
			CleanConstant:  cfg.CleanConstant,
		},
		gradientsOnStack,
		precomputed,
	)
}

// pairingCheck rearranges [.., A, B, C, msm] into the triple pairing input
// [.., A, msm, C, B, -gamma, -delta], runs the pairing and compares the
// result against alpha_beta.
func (m *Model) pairingCheck(
	minusGamma, minusDelta, alphaBeta []*big.Int,
	triplePairing script.Script,
) script.Script {
	nCurve := m.Pairing.NPointsCurve
	nTwist := m.Pairing.NPointsTwist

	out := script.Roll(2*nCurve-1, nCurve)
	out.Append(script.Roll(2*nCurve+nTwist-1, nTwist))
	out.Append(script.NumsToScript(minusGamma))
	out.Append(script.NumsToScript(minusDelta))

	out.Append(triplePairing)

	for i := len(alphaBeta) - 1; i >= 0; i-- {
		out.PushInt(alphaBeta[i])
		if i > 0 {
			out.PushOp(script.OP_EQUALVERIFY)
		} else {
			out.PushOp(script.OP_EQUAL)
		}
	}

	return out
}

func isInfinity(p []*big.Int) bool {
	for _, coordinate := range p {
		if coordinate.Sign() != 0 {
			return false
		}
	}
	return true
}
