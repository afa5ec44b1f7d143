package ec

import (
	"errors"
	"math/big"

	"github.com/zkscript/zkscript/fields"
	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/stack"
)

// CurveFq2 generates scripts for arithmetic on a short-Weierstrass curve
// defined over F_q^2. A is the curve coefficient as an element of F_q^2,
// component 0 first.
type CurveFq2 struct {
	Q   *big.Int
	A   [2]*big.Int
	Fq2 *fields.Fq2
}

// NewCurveFq2 returns the script generator for E(F_q^2).
func NewCurveFq2(q *big.Int, a [2]*big.Int, fq2 *fields.Fq2) *CurveFq2 {
	return &CurveFq2{
		Q:   new(big.Int).Set(q),
		A:   [2]*big.Int{new(big.Int).Set(a[0]), new(big.Int).Set(a[1])},
		Fq2: fq2,
	}
}

// Default operand layouts over F_q^2: gradient below P below Q, adjacent on
// top of the stack.
func defaultAdditionLayoutFq2() (stack.FiniteFieldElement, stack.EllipticCurvePoint, stack.EllipticCurvePoint) {
	return stack.FFE(9, false, 2),
		stack.ECP(stack.FFE(7, false, 2), stack.FFE(5, false, 2)),
		stack.ECP(stack.FFE(3, false, 2), stack.FFE(1, false, 2))
}

func defaultDoublingLayoutFq2() (stack.FiniteFieldElement, stack.EllipticCurvePoint) {
	return stack.FFE(5, false, 2),
		stack.ECP(stack.FFE(3, false, 2), stack.FFE(1, false, 2))
}

// PointAlgebraicAddition emits the script computing P_ + Q_ on E(F_q^2); see
// CurveFq.PointAlgebraicAddition for the conventions.
func (c *CurveFq2) PointAlgebraicAddition(
	cfg script.ModConfig,
	verifyGradient bool,
	gradient stack.FiniteFieldElement,
	p, q stack.EllipticCurvePoint,
	rollingOptions int,
) (script.Script, error) {
	if verifyGradient {
		return c.PointAdditionVerifyingGradient(cfg, gradient, p, q, rollingOptions)
	}
	return c.PointAdditionWithoutVerifyingGradient(cfg, gradient, p, q, rollingOptions)
}

// PointAlgebraicDoubling emits the script computing 2P_ on E(F_q^2); see
// CurveFq.PointAlgebraicDoubling for the conventions.
func (c *CurveFq2) PointAlgebraicDoubling(
	cfg script.ModConfig,
	verifyGradient bool,
	gradient stack.FiniteFieldElement,
	p stack.EllipticCurvePoint,
	rollingOptions int,
) (script.Script, error) {
	if verifyGradient {
		return c.PointDoublingVerifyingGradient(cfg, gradient, p, rollingOptions)
	}
	return c.PointDoublingWithoutVerifyingGradient(cfg, gradient, p, rollingOptions)
}

// PointNegation emits the script computing -P for P on top of the stack,
// leaving the point at infinity untouched. The modulus cannot be cleaned from
// inside this script.
func (c *CurveFq2) PointNegation(cfg script.ModConfig) (script.Script, error) {
	if cfg.CleanConstant {
		return script.Script{}, errors.New("the modulus cannot be cleaned from inside point negation")
	}

	out := cfg.VerifyConstant(c.Q)

	// Skip the negation when P is the point at infinity
	out.PushOp(script.OP_2OVER, script.OP_2OVER)
	out.PushOp(script.OP_CAT, script.OP_CAT, script.OP_CAT)
	out.PushData([]byte{0x00, 0x00, 0x00, 0x00})
	out.PushOp(script.OP_EQUAL, script.OP_NOT, script.OP_IF)

	out.Append(c.Fq2.Negate(script.ModConfig{}))

	if cfg.TakeModulo {
		// stack: [.., xP0], altstack: [-yP1, -yP0, xP1]
		out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK, script.OP_TOALTSTACK)
		out.PushOp(script.OP_DEPTH, script.OP_1SUB, script.OP_PICK)
		out.Append(script.Mod("", true, true, true))
		out.Append(script.ModFromAlt(true, true))
		out.Append(script.ModFromAlt(true, true))
		out.Append(script.ModFromAlt(true, cfg.IsConstantReused))
	}

	out.PushOp(script.OP_ENDIF)

	return out, nil
}

// PointAdditionVerifyingGradient computes P_ + Q_ after checking in script
// that the supplied gradient is the gradient of the line through P_ and Q_.
func (c *CurveFq2) PointAdditionVerifyingGradient(
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

	out := cfg.VerifyConstant(c.Q)

	noModulo := script.ModConfig{}

	// Verify that gradient is the gradient between P_ and Q_:
	// gradient * (xP - xQ) + (yQ_ - yP_) must be 0 mod q.
	// stack out: [q, .., gradient, xP, xQ, (yP_)_1, (yP_)_0, or fail]
	out.Append(script.Move(gradient, script.BoolToMovingFunction(isGradientRolled)))
	out.Append(script.Move(p.X.Shift(2), script.BoolToMovingFunction(isPRolled)))
	out.Append(script.Pick(3, 4))
	out.Append(script.Move(q.X.Shift(8), script.BoolToMovingFunction(isQRolled)))
	out.PushOp(script.OP_2SWAP, script.OP_2OVER)
	out.Append(c.Fq2.Subtract(noModulo))
	out.Append(script.Roll(5, 2))
	out.Append(c.Fq2.Mul(noModulo, 1))
	out.Append(script.MoveRange(q.Y.Shift(8), script.BoolToMovingFunction(isQRolled), 1, 2))
	if q.Negate() {
		out.PushOp(script.OP_NEGATE)
	}
	out.Append(script.MoveRange(p.Y.Shift(9-3*boolToInt(isQRolled)), script.BoolToMovingFunction(isPRolled), 1, 2))
	if p.Negate() {
		out.PushOp(script.OP_NEGATE)
	}
	out.PushOp(script.OP_TUCK, script.OP_SUB)
	out.Append(script.MoveRange(q.Y.Shift(10-boolToInt(isQRolled)), script.BoolToMovingFunction(isQRolled), 0, 1))
	if q.Negate() {
		out.PushOp(script.OP_NEGATE)
	}
	out.Append(script.MoveRange(
		p.Y.Shift(11-4*boolToInt(isQRolled)-boolToInt(isPRolled)),
		script.BoolToMovingFunction(isPRolled), 0, 1,
	))
	if p.Negate() {
		out.PushOp(script.OP_NEGATE)
	}
	out.PushOp(script.OP_TUCK, script.OP_SUB)
	out.Append(script.Roll(2, 1))
	out.Append(script.Roll(5, 2))
	out.Append(c.Fq2.Add(script.ModConfig{TakeModulo: true, PositiveModulo: true}, 1))
	out.PushOp(script.OP_CAT, script.OP_0, script.OP_EQUALVERIFY)

	// x(P_+Q_) = gradient^2 - (xP + xQ), with yP_ saved on the altstack
	out.PushOp(script.OP_TOALTSTACK, script.OP_TOALTSTACK)
	out.Append(script.Pick(3, 2))
	out.Append(c.Fq2.Add(noModulo, 1))
	out.PushOp(script.OP_2ROT, script.OP_2SWAP, script.OP_2OVER)
	out.Append(c.Fq2.Square(noModulo))
	out.PushOp(script.OP_2SWAP)
	out.Append(c.Fq2.Subtract(script.ModConfig{TakeModulo: cfg.TakeModulo, PositiveModulo: cfg.PositiveModulo}))

	// y(P_+Q_) = gradient * (xP - x(P_+Q_)) - yP_
	out.PushOp(script.OP_2ROT, script.OP_2OVER)
	out.Append(c.Fq2.Subtract(noModulo))
	out.Append(script.Roll(5, 2))
	out.Append(c.Fq2.Mul(noModulo, 1))
	out.PushOp(script.OP_FROMALTSTACK, script.OP_SUB)
	if cfg.TakeModulo {
		if cfg.CleanConstant {
			out.Append(script.Roll(-1, 1))
		} else {
			out.Append(script.Pick(-1, 1))
		}
		out.Append(script.Mod("", true, cfg.PositiveModulo, true))
		out.Append(script.Roll(2, 1))
		out.PushOp(script.OP_FROMALTSTACK, script.OP_SUB)
		out.Append(script.Roll(2, 1))
		out.Append(script.Mod("", true, cfg.PositiveModulo, false))
	} else {
		out.Append(script.Roll(1, 1))
		out.PushOp(script.OP_FROMALTSTACK, script.OP_SUB)
	}
	out.Append(script.Roll(1, 1))

	return out, nil
}

// PointAdditionWithoutVerifyingGradient computes P_ + Q_ taking the supplied
// gradient on trust.
func (c *CurveFq2) PointAdditionWithoutVerifyingGradient(
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

	out := cfg.VerifyConstant(c.Q)

	noModulo := script.ModConfig{}

	// x(P_+Q_) = gradient^2 - (xP + xQ)
	out.Append(script.Move(gradient, script.BoolToMovingFunction(isGradientRolled)))
	out.Append(script.Pick(1, 2))
	out.Append(c.Fq2.Square(noModulo))
	out.Append(script.Move(p.X.Shift(4), script.BoolToMovingFunction(isPRolled)))
	out.Append(script.Move(q.X.Shift(6), script.BoolToMovingFunction(isQRolled)))
	out.Append(script.Pick(3, 2))
	out.Append(c.Fq2.Add(noModulo, 1))
	out.Append(script.Roll(5, 2))
	out.Append(script.Roll(3, 2))
	out.Append(c.Fq2.Subtract(script.ModConfig{TakeModulo: cfg.TakeModulo, PositiveModulo: cfg.PositiveModulo}))

	// y(P_+Q_) = gradient * (xP - x(P_+Q_)) - yP_
	out.PushOp(script.OP_2SWAP, script.OP_2OVER)
	out.Append(c.Fq2.Subtract(noModulo))
	out.Append(script.Roll(5, 2))
	out.Append(c.Fq2.Mul(noModulo, 1))
	out.PushOp(script.OP_TOALTSTACK)
	out.Append(script.MoveRange(p.Y.Shift(3-2*boolToInt(isQRolled)), script.BoolToMovingFunction(isPRolled), 0, 1))
	if p.Negate() {
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
	}
	out.PushOp(script.OP_FROMALTSTACK)
	out.Append(script.MoveRange(
		p.Y.Shift(4-2*boolToInt(isQRolled)+boolToInt(cfg.TakeModulo)),
		script.BoolToMovingFunction(isPRolled), 1, 2,
	))
	if p.Negate() {
		out.PushOp(script.OP_ADD)
	} else {
		out.PushOp(script.OP_SUB)
	}
	if cfg.TakeModulo {
		out.Append(script.Roll(2, 1))
		out.Append(script.Mod("", true, cfg.PositiveModulo, false))
	}

	// yQ is unused; drop it when rolled
	if isQRolled {
		out.Append(script.Move(q.Y.Shift(4), script.Roll))
		out.PushOp(script.OP_2DROP)
	}
	if cfg.CleanConstant && !cfg.TakeModulo {
		out.Append(script.Roll(-1, 1))
		out.PushOp(script.OP_DROP)
	}

	return out, nil
}

// PointDoublingVerifyingGradient computes 2P_ after checking in script that
// the supplied gradient is the gradient of the tangent at P_.
func (c *CurveFq2) PointDoublingVerifyingGradient(
	cfg script.ModConfig,
	gradient stack.FiniteFieldElement,
	p stack.EllipticCurvePoint,
	rollingOptions int,
) (script.Script, error) {
	if err := stack.CheckOrder([]stack.Element{gradient, p}); err != nil {
		return script.Script{}, err
	}
	rolled := stack.BitmaskToBooleanList(rollingOptions, 2)
	isGradientRolled, isPRolled := rolled[0], rolled[1]

	out := cfg.VerifyConstant(c.Q)

	noModulo := script.ModConfig{}

	// Verify that gradient is the gradient of the tangent at P_:
	// 2*gradient*yP_ - (3*xP^2 + A) must be 0 mod q.
	// stack out: [q, .., gradient, yP, xP, or fail]
	out.Append(script.Move(gradient, script.BoolToMovingFunction(isGradientRolled)))
	out.Append(script.Move(p.Y.Shift(2), script.BoolToMovingFunction(isPRolled)))
	out.Append(script.Pick(3, 4))
	out.Append(c.Fq2.Mul(noModulo, 1))
	out.PushOp(script.OP_2)
	if p.Negate() {
		out.PushOp(script.OP_NEGATE)
	}
	out.Append(c.Fq2.ScalarMul(noModulo))
	out.Append(script.Move(p.X.Shift(6-2*boolToInt(isPRolled)), script.BoolToMovingFunction(isPRolled)))
	out.Append(script.Roll(3, 2))
	out.Append(script.Pick(3, 2))
	out.Append(c.Fq2.Square(noModulo))
	out.PushOp(script.OP_3, script.OP_TUCK)
	out.PushOp(script.OP_MUL)
	if c.A[1].Sign() != 0 {
		out.PushInt(c.A[1])
		out.PushOp(script.OP_ADD)
	}
	out.PushOp(script.OP_TOALTSTACK)
	out.PushOp(script.OP_MUL)
	if c.A[0].Sign() != 0 {
		out.PushInt(c.A[0])
		out.PushOp(script.OP_ADD)
	}
	out.PushOp(script.OP_FROMALTSTACK)
	out.Append(c.Fq2.Subtract(script.ModConfig{TakeModulo: true, PositiveModulo: true}))
	out.PushOp(script.OP_CAT, script.OP_0, script.OP_EQUALVERIFY)

	// x(2P_) = gradient^2 - 2*xP
	out.Append(script.Roll(5, 2))
	out.Append(script.Pick(1, 2))
	out.Append(c.Fq2.Square(noModulo))
	out.Append(script.Roll(5, 2))
	out.Append(script.Roll(3, 2))
	out.Append(script.Pick(3, 2))
	out.PushOp(script.OP_2)
	out.Append(c.Fq2.ScalarMul(noModulo))
	out.Append(c.Fq2.Subtract(script.ModConfig{TakeModulo: cfg.TakeModulo, PositiveModulo: cfg.PositiveModulo}))

	// y(2P_) = gradient * (xP - x(2P_)) - yP_
	out.Append(script.Roll(3, 2))
	out.Append(script.Pick(3, 2))
	out.Append(c.Fq2.Subtract(noModulo))
	out.Append(script.Roll(5, 2))
	out.Append(c.Fq2.Mul(noModulo, 1))
	out.Append(script.Roll(5, 2))
	finalCfg := script.ModConfig{
		TakeModulo:     cfg.TakeModulo,
		PositiveModulo: cfg.PositiveModulo,
		CleanConstant:  cfg.CleanConstant,
	}
	if p.Negate() {
		out.Append(c.Fq2.Add(finalCfg, 1))
	} else {
		out.Append(c.Fq2.Subtract(finalCfg))
	}

	return out, nil
}

// PointDoublingWithoutVerifyingGradient computes 2P_ taking the supplied
// gradient on trust.
func (c *CurveFq2) PointDoublingWithoutVerifyingGradient(
	cfg script.ModConfig,
	gradient stack.FiniteFieldElement,
	p stack.EllipticCurvePoint,
	rollingOptions int,
) (script.Script, error) {
	if err := stack.CheckOrder([]stack.Element{gradient, p}); err != nil {
		return script.Script{}, err
	}
	rolled := stack.BitmaskToBooleanList(rollingOptions, 2)
	isGradientRolled, isPRolled := rolled[0], rolled[1]

	out := cfg.VerifyConstant(c.Q)

	noModulo := script.ModConfig{}

	// x(2P_) = gradient^2 - 2*xP
	out.Append(script.Move(gradient, script.BoolToMovingFunction(isGradientRolled)))
	out.Append(script.Pick(1, 2))
	out.Append(c.Fq2.Square(noModulo))
	out.Append(script.Move(p.X.Shift(4), script.BoolToMovingFunction(isPRolled)))
	out.Append(script.Pick(1, 2))
	out.PushOp(script.OP_2)
	out.Append(c.Fq2.ScalarMul(noModulo))
	out.Append(script.Roll(5, 2))
	out.Append(script.Roll(3, 2))
	out.Append(c.Fq2.Subtract(script.ModConfig{TakeModulo: cfg.TakeModulo, PositiveModulo: cfg.PositiveModulo}))

	// y(2P_) = gradient * (xP - x(2P_)) - yP_
	out.Append(script.Roll(3, 2))
	out.Append(script.Pick(3, 2))
	out.Append(c.Fq2.Subtract(noModulo))
	out.Append(script.Roll(5, 2))
	out.Append(c.Fq2.Mul(noModulo, 1))
	out.Append(script.Move(p.Y.Shift(4), script.BoolToMovingFunction(isPRolled)))
	finalCfg := script.ModConfig{
		TakeModulo:     cfg.TakeModulo,
		PositiveModulo: cfg.PositiveModulo,
		CleanConstant:  cfg.CleanConstant,
	}
	if p.Negate() {
		out.Append(c.Fq2.Add(finalCfg, 1))
	} else {
		out.Append(c.Fq2.Subtract(finalCfg))
	}

	return out, nil
}
