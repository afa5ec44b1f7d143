package bls12381

import (
	"github.com/zkscript/zkscript/fields"
)

// Tower instantiation: F_q^2 = F_q[u]/(u^2 + 1), F_q^4 = F_q^2[s]/(s^2 - xi),
// F_q^12 is built both as the cubic extension of F_q^4 (the Miller loop
// representation) and as the quadratic extension of F_q^6 (the final
// exponentiation representation), with xi = 1 + u.
var (
	fq2Script = func() *fields.Fq2 {
		f := fields.NewFq2(q, bigNonResidue)
		f.MulByNonResidue = f.MulByOnePlusU
		return f
	}()
	fq4Script       = fields.NewFq4(q, fq2Script, nil)
	fq6Script       = fields.NewFq6(q, fq2Script)
	fq12Script      = fields.NewFq12(q, fq2Script, fq6Script, gammasFrobenius)
	fq12CubicScript = fields.NewFq12Cubic(q, fq4Script)
)
