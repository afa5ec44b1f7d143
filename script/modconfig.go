package script

import "math/big"

// ModConfig carries the per-call modulo-discipline flags every generator
// accepts. It is passed explicitly on each call; there is no process-wide
// modulo state.
type ModConfig struct {
	// TakeModulo reduces the result modulo q before leaving it on the stack.
	TakeModulo bool
	// PositiveModulo picks the non-negative representative of the residue.
	PositiveModulo bool
	// CheckConstant verifies the modulus literal at the bottom of the stack
	// before any computation.
	CheckConstant bool
	// CleanConstant removes the modulus literal once no further operation
	// needs it. Only meaningful together with TakeModulo.
	CleanConstant bool
	// IsConstantReused leaves the modulus as the second-to-top element after
	// the final reduction, for a following call.
	IsConstantReused bool
}

// Reduce is the canonical ModConfig for a final, fully reduced result with
// the modulus consumed.
var Reduce = ModConfig{
	TakeModulo:     true,
	PositiveModulo: true,
	CheckConstant:  true,
	CleanConstant:  true,
}

// VerifyConstant emits the modulus check when CheckConstant is set, an empty
// script otherwise. Generators start their emission with it.
func (c ModConfig) VerifyConstant(q *big.Int) Script {
	if c.CheckConstant {
		return VerifyBottomConstant(q)
	}
	return New()
}

// WithoutFinalModulo returns a copy of the config for an intermediate step
// whose result stays unreduced.
func (c ModConfig) WithoutFinalModulo() ModConfig {
	c.TakeModulo = false
	c.CleanConstant = false
	c.IsConstantReused = false
	return c
}
