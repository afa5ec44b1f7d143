package bls12381

import (
	"github.com/zkscript/zkscript/fields"
	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/stack"
)

// LineFunctions generates the line evaluation scripts of the Miller loop.
type LineFunctions struct {
	fq2 *fields.Fq2
}

// NewLineFunctions returns the line evaluation generator over fq2.
func NewLineFunctions(fq2 *fields.Fq2) *LineFunctions {
	return &LineFunctions{fq2: fq2}
}

// LineEvaluation emits the script evaluating at P the line through T and Q.
//
// Stack in:  [q, .., gradient, .., P, .., Q, ..], P on E(F_q), Q on the
// sextic twist E'(F_q^2), gradient in F_q^2
// Stack out: [q, .., ev_(l_(T,Q))(P)]
//
// gradient is the gradient through T and Q (of the tangent at T when T = Q)
// and is consumed without being checked. For the M-twist the evaluation is
// -yQ + gradient*xQ + yP*s - gradient*xP*r^2, an element of F_q^12 as the
// cubic extension of F_q^4; the zero second component is not emitted.
func (l *LineFunctions) LineEvaluation(
	cfg script.ModConfig,
	gradient stack.FiniteFieldElement,
	p, q stack.EllipticCurvePoint,
	rollingOptions int,
) (script.Script, error) {
	if err := stack.CheckOrder([]stack.Element{gradient, p, q}); err != nil {
		return script.Script{}, err
	}
	rolled := stack.BitmaskToBooleanList(rollingOptions, 3)
	isGradientRolled, isPRolled, isQRolled := rolled[0], rolled[1], rolled[2]

	out := cfg.VerifyConstant(l.fq2.Q)

	// -gradient * xP, component by component onto the altstack
	// [.., gradient, .., P, .., Q, ..] ->
	// [.., {gradient}, .., {xP} yP, .., Q, .., gradient_1, gradient_0]
	out.Append(script.MoveRange(gradient, script.BoolToMovingFunction(isGradientRolled), 1, 2))
	out.Append(script.Move(p.X.Shift(1), script.BoolToMovingFunction(isPRolled)))
	out.PushOp(script.OP_NEGATE)
	out.PushOp(script.OP_TUCK, script.OP_OVER, script.OP_MUL)
	out.PushOp(script.OP_ROT)
	out.Append(script.MoveRange(
		gradient.Shift(3-boolToInt(isPRolled)-boolToInt(isGradientRolled)),
		script.BoolToMovingFunction(isGradientRolled),
		0, 1,
	))
	out.PushOp(script.OP_TUCK, script.OP_MUL, script.OP_ROT)
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)

	// -yQ + gradient * xQ
	// altstack: [-gradient*xP, (-yQ + gradient*xQ)_1]
	out.PushOp(script.OP_SWAP)
	out.Append(script.Move(q.X.Shift(2), script.BoolToMovingFunction(isQRolled)))
	out.Append(l.fq2.Mul(script.ModConfig{}, 1))
	out.Append(script.MoveRange(q.Y.Shift(2), script.BoolToMovingFunction(isQRolled), 1, 2))
	if q.Negate() {
		out.PushOp(script.OP_ADD)
	} else {
		out.PushOp(script.OP_SUB)
	}
	out.PushOp(script.OP_TOALTSTACK)
	out.Append(script.MoveRange(
		q.Y.Shift(1-boolToInt(isQRolled)),
		script.BoolToMovingFunction(isQRolled),
		0, 1,
	))
	if q.Negate() {
		out.PushOp(script.OP_ADD)
	} else {
		out.PushOp(script.OP_SUB)
	}

	if cfg.TakeModulo {
		if cfg.CleanConstant {
			out.Append(script.Roll(-1, 1))
		} else {
			out.Append(script.Pick(-1, 1))
		}
		out.Append(script.Mod("", true, cfg.PositiveModulo, true))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		out.Append(script.Move(p.Y.Shift(3-4*boolToInt(isQRolled)), script.BoolToMovingFunction(isPRolled)))
		out.PushOp(script.OP_ROT)
		out.Append(script.Mod("", true, cfg.PositiveModulo, true))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, true))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, cfg.IsConstantReused))
	} else {
		out.PushOp(script.OP_FROMALTSTACK)
		out.Append(script.Move(p.Y.Shift(2-2*boolToInt(isQRolled)), script.BoolToMovingFunction(isPRolled)))
		out.PushOp(script.OP_FROMALTSTACK, script.OP_FROMALTSTACK)
	}

	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
