// Package ec generates Bitcoin Script programs for affine elliptic curve
// arithmetic over a prime field F_q and its quadratic extension.
//
// Gradients (the slopes of the chord or tangent used by the addition
// formulas) are not computed in script: they are supplied as witness data and,
// where requested, verified in script against the line equation. Points are
// laid out as two consecutive field elements, x below y; the point at
// infinity is encoded as the pair of data pushes 0x00 0x00, which are byte
// strings rather than the number zero.
package ec

import (
	"math/big"

	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/stack"
)

// CurveFq generates scripts for arithmetic on the short-Weierstrass curve
// y^2 = x^3 + A*x + B over F_q.
type CurveFq struct {
	Q *big.Int
	A *big.Int
	B *big.Int
}

// NewCurveFq returns the script generator for E(F_q).
func NewCurveFq(q, a, b *big.Int) *CurveFq {
	return &CurveFq{
		Q: new(big.Int).Set(q),
		A: new(big.Int).Set(a),
		B: new(big.Int).Set(b),
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func mustScript(s script.Script, err error) script.Script {
	if err != nil {
		panic(err)
	}
	return s
}

// BottomModulus is the descriptor of the modulus sitting at the bottom of the
// stack, the position every generator leaves it in.
func BottomModulus() stack.Number {
	return stack.NewNumber(-1, false)
}

// Default operand layouts: the gradient below the operand points, everything
// adjacent on top of the stack.
func defaultAdditionLayoutFq() (stack.FiniteFieldElement, stack.EllipticCurvePoint, stack.EllipticCurvePoint) {
	return stack.FFE(4, false, 1),
		stack.ECP(stack.FFE(3, false, 1), stack.FFE(2, false, 1)),
		stack.ECP(stack.FFE(1, false, 1), stack.FFE(0, false, 1))
}

func defaultDoublingLayoutFq() (stack.FiniteFieldElement, stack.EllipticCurvePoint) {
	return stack.FFE(2, false, 1),
		stack.ECP(stack.FFE(1, false, 1), stack.FFE(0, false, 1))
}

// EvaluateCurveEquation emits the script leaving
// (y_P^2 - x_P^3 - A*x_P - B) mod q on the stack.
//
// Stack in:  [q, .., P, ..]
// Stack out: [q, .., P, .., (y_P^2 - x_P^3 - A*x_P - B) mod q]
func (c *CurveFq) EvaluateCurveEquation(
	checkConstant, cleanConstant bool,
	modulus stack.Number,
	p stack.EllipticCurvePoint,
	rollingOption bool,
) (script.Script, error) {
	if modulus.Position() > 0 {
		if err := stack.CheckOrder([]stack.Element{modulus, p}); err != nil {
			return script.Script{}, err
		}
	}

	out := script.New()
	if checkConstant {
		out.Append(script.VerifyBottomConstant(c.Q))
	}

	out.Append(script.Move(p, script.BoolToMovingFunction(rollingOption)))
	out.PushOp(script.OP_DUP, script.OP_MUL)
	if c.A.Sign() != 0 {
		out.PushOp(script.OP_OVER)
	} else {
		out.PushOp(script.OP_SWAP)
	}
	out.PushOp(script.OP_DUP, script.OP_DUP, script.OP_MUL, script.OP_MUL, script.OP_SUB)
	if c.A.Sign() != 0 {
		out.PushOp(script.OP_SWAP)
		out.PushInt(c.A)
		out.PushOp(script.OP_MUL, script.OP_SUB)
	}
	switch {
	case c.B.Cmp(big.NewInt(1)) == 0:
		out.PushOp(script.OP_1SUB)
	case c.B.Cmp(big.NewInt(-1)) == 0:
		out.PushOp(script.OP_1ADD)
	case c.B.Sign() == 0:
	default:
		out.PushInt(c.B)
		out.PushOp(script.OP_SUB)
	}

	modulusShift := 0
	if modulus.Position() > 0 {
		modulusShift = 1 - 2*boolToInt(rollingOption)
	}
	out.Append(script.Move(modulus.Shift(modulusShift), script.BoolToMovingFunction(cleanConstant)))
	out.Append(script.Mod("", true, false, false))

	return out, nil
}

// IsOnCurve emits the script verifying that P satisfies the curve equation,
// failing the execution otherwise.
func (c *CurveFq) IsOnCurve(
	checkConstant, cleanConstant bool,
	modulus stack.Number,
	p stack.EllipticCurvePoint,
	rollingOption bool,
) (script.Script, error) {
	out, err := c.EvaluateCurveEquation(checkConstant, cleanConstant, modulus, p, rollingOption)
	if err != nil {
		return script.Script{}, err
	}
	out.PushOp(script.OP_0, script.OP_EQUALVERIFY)
	return out, nil
}

// PointAlgebraicAddition emits the script computing P_ + Q_, where P_ (resp.
// Q_) is -P (resp. -Q) when the descriptor carries the negate flag. The
// gradient of the line through P_ and Q_ is read from the stack; when
// verifyGradient is set its validity is checked in script first.
//
// Stack in:  [q, .., gradient, .., P, .., Q, ..]
// Stack out: [q, .., {gradient}, .., {P}, .., {Q}, .., P_ + Q_]
//
// where rolled operands are consumed and picked operands stay. The caller
// must guarantee that P_ != Q_, P_ != -Q_ and neither is the point at
// infinity.
func (c *CurveFq) PointAlgebraicAddition(
	cfg script.ModConfig,
	verifyGradient bool,
	modulus stack.Number,
	gradient stack.FiniteFieldElement,
	p, q stack.EllipticCurvePoint,
	rollingOptions int,
) (script.Script, error) {
	if err := stack.CheckOrder([]stack.Element{gradient, p, q}); err != nil {
		return script.Script{}, err
	}
	if verifyGradient {
		return c.pointAdditionVerifyingGradient(cfg, modulus, gradient, p, q, rollingOptions), nil
	}
	return c.pointAdditionWithoutVerifyingGradient(cfg, modulus, gradient, p, q, rollingOptions), nil
}

// PointAlgebraicDoubling emits the script computing 2P_. The gradient of the
// tangent at P_ is read from the stack; when verifyGradient is set its
// validity is checked in script first.
//
// Stack in:  [q, .., gradient, .., P, ..]
// Stack out: [q, .., {gradient}, .., {P}, .., 2P_]
//
// P must not be the point at infinity.
func (c *CurveFq) PointAlgebraicDoubling(
	cfg script.ModConfig,
	verifyGradient bool,
	modulus stack.Number,
	gradient stack.FiniteFieldElement,
	p stack.EllipticCurvePoint,
	rollingOptions int,
) (script.Script, error) {
	if err := stack.CheckOrder([]stack.Element{gradient, p}); err != nil {
		return script.Script{}, err
	}
	if verifyGradient {
		return c.pointDoublingVerifyingGradient(cfg, modulus, gradient, p, rollingOptions), nil
	}
	return c.pointDoublingWithoutVerifyingGradient(cfg, modulus, gradient, p, rollingOptions), nil
}

func (c *CurveFq) pointAdditionVerifyingGradient(
	cfg script.ModConfig,
	modulus stack.Number,
	gradient stack.FiniteFieldElement,
	p, q stack.EllipticCurvePoint,
	rollingOptions int,
) script.Script {
	rolled := stack.BitmaskToBooleanList(rollingOptions, 3)
	isGradientRolled, isPRolled, isQRolled := rolled[0], rolled[1], rolled[2]

	out := cfg.VerifyConstant(c.Q)

	// Verify that gradient is the gradient between P_ and Q_:
	// gradient * (xP - xQ) - (yP_ - yQ_) must be 0 mod q.
	// stack out:    [q, .., yP, xQ, xP, gradient, or fail]
	// altstack out: [q, if TakeModulo]
	out.Append(script.Move(q, script.BoolToMovingFunction(isQRolled)))
	out.Append(script.Move(p.Y.Shift(2-2*boolToInt(isQRolled)), script.BoolToMovingFunction(isPRolled)))
	out.PushOp(script.OP_TUCK)
	if p.Negate() != q.Negate() {
		out.PushOp(script.OP_ADD)
	} else {
		out.PushOp(script.OP_SUB)
	}
	out.Append(script.Roll(2, 1))
	out.Append(script.Move(
		p.X.Shift(3-2*boolToInt(isQRolled)-boolToInt(isPRolled)),
		script.BoolToMovingFunction(isPRolled),
	))
	out.PushOp(script.OP_2DUP, script.OP_SUB)
	out.Append(script.Move(
		gradient.Shift(5-2*boolToInt(isPRolled)-2*boolToInt(isQRolled)),
		script.BoolToMovingFunction(isGradientRolled),
	))
	out.PushOp(script.OP_TUCK, script.OP_MUL)
	out.Append(script.Roll(4, 1))
	if !q.Negate() {
		out.PushOp(script.OP_SUB)
	} else {
		out.PushOp(script.OP_ADD)
	}
	out.Append(script.Move(modulus, script.BoolToMovingFunction(cfg.CleanConstant)))
	out.Append(script.Mod("", true, false, true))
	out.PushOp(script.OP_0, script.OP_EQUALVERIFY)
	if cfg.TakeModulo {
		out.PushOp(script.OP_TOALTSTACK)
	} else {
		out.PushOp(script.OP_DROP)
	}

	// x(P_+Q_) = gradient^2 - xP - xQ, with xP saved on the altstack
	out.PushOp(script.OP_DUP, script.OP_DUP, script.OP_MUL)
	out.PushOp(script.OP_2SWAP, script.OP_TUCK)
	out.PushOp(script.OP_TOALTSTACK, script.OP_ADD, script.OP_SUB)

	// y(P_+Q_) = gradient * (xP - x(P_+Q_)) - yP_
	out.PushOp(script.OP_FROMALTSTACK)
	out.Append(script.Pick(1, 1))
	out.PushOp(script.OP_SUB)
	out.Append(script.Roll(2, 1))
	out.PushOp(script.OP_MUL)
	out.Append(script.Roll(2, 1))
	if p.Negate() {
		out.PushOp(script.OP_ADD)
	} else {
		out.PushOp(script.OP_SUB)
	}
	if cfg.TakeModulo {
		out.Append(script.Mod("OP_FROMALTSTACK", true, cfg.PositiveModulo, true))
		out.Append(script.Mod("OP_TOALTSTACK", true, cfg.PositiveModulo, false))
		out.PushOp(script.OP_FROMALTSTACK)
	}

	return out
}

func (c *CurveFq) pointAdditionWithoutVerifyingGradient(
	cfg script.ModConfig,
	modulus stack.Number,
	gradient stack.FiniteFieldElement,
	p, q stack.EllipticCurvePoint,
	rollingOptions int,
) script.Script {
	rolled := stack.BitmaskToBooleanList(rollingOptions, 3)
	isGradientRolled, isPRolled, isQRolled := rolled[0], rolled[1], rolled[2]

	out := cfg.VerifyConstant(c.Q)

	// yQ is unused; drop it when rolled
	if isQRolled {
		out.Append(script.Move(q.Y, script.Roll))
		out.PushOp(script.OP_DROP)
	}

	// x(P_+Q_) = gradient^2 - xP - xQ
	out.Append(script.Move(q.X.Shift(-boolToInt(isQRolled)), script.BoolToMovingFunction(isQRolled)))
	out.Append(script.Move(p.X.Shift(1-2*boolToInt(isQRolled)), script.BoolToMovingFunction(isPRolled)))
	out.PushOp(script.OP_TUCK, script.OP_ADD)
	out.Append(script.Move(
		gradient.Shift(2-2*boolToInt(isQRolled)-boolToInt(isPRolled)),
		script.BoolToMovingFunction(isGradientRolled),
	))
	out.PushOp(script.OP_DUP, script.OP_DUP, script.OP_MUL)
	out.Append(script.Roll(2, 1))
	out.PushOp(script.OP_SUB)

	// y(P_+Q_) = gradient * (xP - x(P_+Q_)) - yP_
	out.Append(script.Roll(2, 1))
	out.Append(script.Pick(1, 1))
	out.PushOp(script.OP_SUB)
	out.Append(script.Roll(2, 1))
	out.PushOp(script.OP_MUL)
	out.Append(script.Move(p.Y.Shift(2-2*boolToInt(isQRolled)), script.BoolToMovingFunction(isPRolled)))
	if p.Negate() {
		out.PushOp(script.OP_ADD)
	} else {
		out.PushOp(script.OP_SUB)
	}
	if cfg.TakeModulo {
		out.PushOp(script.OP_TOALTSTACK)
		out.Append(script.Move(modulus, script.BoolToMovingFunction(cfg.CleanConstant)))
		out.Append(script.Mod("", true, cfg.PositiveModulo, true))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, false))
	}

	return out
}

func (c *CurveFq) pointDoublingVerifyingGradient(
	cfg script.ModConfig,
	modulus stack.Number,
	gradient stack.FiniteFieldElement,
	p stack.EllipticCurvePoint,
	rollingOptions int,
) script.Script {
	rolled := stack.BitmaskToBooleanList(rollingOptions, 2)
	isGradientRolled, isPRolled := rolled[0], rolled[1]

	out := cfg.VerifyConstant(c.Q)

	// Verify that gradient is the gradient of the tangent at P_:
	// 2*yP_*gradient - (3*xP^2 + A) must be 0 mod q.
	// stack out:    [q, .., xP, yP, gradient, or fail]
	// altstack out: [q, if TakeModulo]
	out.Append(script.Move(p, script.BoolToMovingFunction(isPRolled)))
	out.Append(script.Pick(1, 2))
	out.PushOp(script.OP_2, script.OP_MUL)
	out.Append(script.Move(gradient.Shift(4-2*boolToInt(isPRolled)), script.BoolToMovingFunction(isGradientRolled)))
	out.PushOp(script.OP_TUCK)
	out.PushOp(script.OP_MUL)
	out.Append(script.Roll(2, 1))
	out.PushOp(script.OP_DUP, script.OP_MUL)
	out.PushOp(script.OP_3, script.OP_MUL)
	if c.A.Sign() != 0 {
		out.PushInt(c.A)
		out.PushOp(script.OP_ADD)
	}
	if p.Negate() {
		out.PushOp(script.OP_ADD)
	} else {
		out.PushOp(script.OP_SUB)
	}
	out.Append(script.Move(modulus, script.BoolToMovingFunction(cfg.CleanConstant)))
	out.Append(script.Mod("", true, false, true))
	out.PushOp(script.OP_0, script.OP_EQUALVERIFY)
	if cfg.TakeModulo {
		out.PushOp(script.OP_TOALTSTACK)
	} else {
		out.PushOp(script.OP_DROP)
	}

	// x(2P_) = gradient^2 - 2*xP, with yP saved on the altstack
	out.PushOp(script.OP_DUP, script.OP_DUP, script.OP_MUL)
	out.Append(script.Roll(3, 2))
	out.PushOp(script.OP_TOALTSTACK)
	out.PushOp(script.OP_TUCK)
	out.PushOp(script.OP_2, script.OP_MUL, script.OP_SUB)

	// y(2P_) = gradient * (xP - x(2P_)) - yP_
	out.Append(script.Roll(1, 1))
	out.Append(script.Pick(1, 1))
	out.PushOp(script.OP_SUB)
	out.Append(script.Roll(2, 1))
	out.PushOp(script.OP_MUL)
	out.PushOp(script.OP_FROMALTSTACK)
	if p.Negate() {
		out.PushOp(script.OP_ADD)
	} else {
		out.PushOp(script.OP_SUB)
	}
	if cfg.TakeModulo {
		out.Append(script.Mod("OP_FROMALTSTACK", true, cfg.PositiveModulo, true))
		out.Append(script.Mod("OP_TOALTSTACK", true, cfg.PositiveModulo, false))
		out.PushOp(script.OP_FROMALTSTACK)
	}

	return out
}

func (c *CurveFq) pointDoublingWithoutVerifyingGradient(
	cfg script.ModConfig,
	modulus stack.Number,
	gradient stack.FiniteFieldElement,
	p stack.EllipticCurvePoint,
	rollingOptions int,
) script.Script {
	rolled := stack.BitmaskToBooleanList(rollingOptions, 2)
	isGradientRolled, isPRolled := rolled[0], rolled[1]

	out := cfg.VerifyConstant(c.Q)

	// x(2P_) = gradient^2 - 2*xP
	out.Append(script.Move(p, script.BoolToMovingFunction(isPRolled)))
	out.PushOp(script.OP_OVER, script.OP_2, script.OP_MUL)
	out.Append(script.Move(gradient.Shift(3-2*boolToInt(isPRolled)), script.BoolToMovingFunction(isGradientRolled)))
	out.PushOp(script.OP_TUCK, script.OP_DUP, script.OP_MUL)
	out.PushOp(script.OP_SWAP, script.OP_SUB)

	// y(2P_) = gradient * (xP - x(2P_)) - yP_
	out.Append(script.Roll(3, 1))
	out.Append(script.Pick(1, 1))
	out.PushOp(script.OP_SUB)
	out.Append(script.Roll(2, 1))
	out.PushOp(script.OP_MUL)
	out.Append(script.Roll(2, 1))
	if p.Negate() {
		out.PushOp(script.OP_ADD)
	} else {
		out.PushOp(script.OP_SUB)
	}
	if cfg.TakeModulo {
		out.PushOp(script.OP_TOALTSTACK)
		out.Append(script.Move(modulus, script.BoolToMovingFunction(cfg.CleanConstant)))
		out.Append(script.Mod("", true, cfg.PositiveModulo, true))
		out.Append(script.ModFromAlt(cfg.PositiveModulo, false))
	}

	return out
}
