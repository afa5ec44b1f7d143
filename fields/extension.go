package fields

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/stack"
)

// Extension holds what every tower level above F_q shares: the modulus, the
// extension degree over the prime field, and the prime-field generator the
// component-wise operations bottom out in.
type Extension struct {
	Q          *big.Int
	Degree     int
	PrimeField Fq
}

func newExtension(q *big.Int, degree int) Extension {
	return Extension{Q: new(big.Int).Set(q), Degree: degree, PrimeField: NewFq(q)}
}

// ExtensionDegree returns the degree of the extension over F_q.
func (e Extension) ExtensionDegree() int { return e.Degree }

// Modulus returns the field characteristic.
func (e Extension) Modulus() *big.Int { return e.Q }

// checkDegree validates that caller-supplied operands have the level's
// extension degree.
func (e Extension) checkDegree(elements ...stack.FiniteFieldElement) error {
	for _, el := range elements {
		if el.ExtensionDegree() != e.Degree {
			return fmt.Errorf("%w: operand degree %d, field degree %d",
				stack.ErrDegreeMismatch, el.ExtensionDegree(), e.Degree)
		}
	}
	return nil
}

// algebraicSumToAltstack computes ±x ±y component-wise, leaving the first
// component on the stack and the remaining ones on the altstack (last
// component deepest). Specialized move sequences cover the layouts the tower
// generators actually produce; the generic path moves component pairs one by
// one.
func (e Extension) algebraicSumToAltstack(x, y stack.FiniteFieldElement, rollingOptions int) script.Script {
	if x.ExtensionDegree() != y.ExtensionDegree() {
		panic("x and y must have the same extension degree")
	}
	rolled := stack.BitmaskToBooleanList(rollingOptions, 2)
	isXRolled, isYRolled := rolled[0], rolled[1]
	degree := x.ExtensionDegree()

	isYOnTop := y.Position() == degree-1
	isDefaultConfig := x.Position() == 2*degree-1 && isYOnTop && isXRolled && isYRolled
	isDegreeTwoSpecialConfig := degree == 2 && isYOnTop && x.Position() == 3*degree-1 && isXRolled && isYRolled

	out := script.New()

	switch {
	case isDefaultConfig:
		switch degree {
		case 2, 3:
			for i := 0; i < degree; i++ {
				out.Append(mustScript(e.PrimeField.AlgebraicSum(
					script.ModConfig{},
					x.Shift(-i*(boolToInt(isXRolled)+boolToInt(isYRolled))).ExtractComponent(degree-1-i),
					y.Shift(-i*boolToInt(isYRolled)).ExtractComponent(degree-1-i),
					3,
				)))
				if i != degree-1 {
					out.PushOp(script.OP_TOALTSTACK)
				}
			}
		case 4:
			out.Append(script.MoveRange(x, script.BoolToMovingFunction(isXRolled), 2, 4))
			for j := 0; j < degree; j++ {
				var negate [2]bool
				if j <= 1 {
					negate = [2]bool{y.Negate(), x.Negate()}
				} else {
					negate = [2]bool{x.Negate(), y.Negate()}
				}
				out.Append(mustScript(e.PrimeField.AlgebraicSum(
					script.ModConfig{},
					stack.FFE(2-(j%2), negate[0], 1),
					stack.FFE(0, negate[1], 1),
					3,
				)))
				if j != degree-1 {
					out.PushOp(script.OP_TOALTSTACK)
				}
			}
		case 6:
			out.Append(script.MoveRange(x, script.BoolToMovingFunction(isXRolled), 4, 6))
			out.Append(e.algebraicSumToAltstack(
				stack.FFE(3, y.Negate(), 2),
				stack.FFE(1, x.Negate(), 2),
				3,
			))
			out.PushOp(script.OP_TOALTSTACK)
			out.Append(e.algebraicSumToAltstack(
				stack.FFE(x.Shift(-4).Position(), x.Negate(), 4),
				stack.FFE(y.Shift(-2).Position(), y.Negate(), 4),
				3,
			))
		default:
			remainder := degree - 1
			if remainder > 6 {
				remainder = 6
			}
			out.Append(e.algebraicSumToAltstack(
				stack.FFE(x.Position()-remainder, x.Negate(), degree-remainder),
				stack.FFE(y.Position()-remainder, y.Negate(), degree-remainder),
				3,
			))
			out.PushOp(script.OP_TOALTSTACK)
			out.Append(e.algebraicSumToAltstack(
				stack.FFE(x.Shift(-degree+remainder).Position(), x.Negate(), remainder),
				stack.FFE(y.Shift(-degree+remainder).Position(), y.Negate(), remainder),
				3,
			))
		}
	case isDegreeTwoSpecialConfig:
		out.Append(script.Move(x, script.Roll))
		out.Append(e.algebraicSumToAltstack(
			stack.FFE(2*degree-1, y.Negate(), degree),
			stack.FFE(degree-1, x.Negate(), degree),
			3,
		))
	default:
		for i := 0; i < degree; i++ {
			out.Append(mustScript(e.PrimeField.AlgebraicSum(
				script.ModConfig{},
				x.Shift(-i*(boolToInt(isXRolled)+boolToInt(isYRolled))).ExtractComponent(degree-1-i),
				y.Shift(-i*boolToInt(isYRolled)).ExtractComponent(degree-1-i),
				rollingOptions,
			)))
			if i != degree-1 {
				out.PushOp(script.OP_TOALTSTACK)
			}
		}
	}

	return out
}

// AlgebraicSum emits the script computing ±x ±y in F_q^n, the signs taken
// from the operand negate flags.
//
// Stack in:  [q, .., x := (x0, .., xn), .., y := (y0, .., yn), ..]
// Stack out: [q, .., ±x ±y]
func (e Extension) AlgebraicSum(cfg script.ModConfig, x, y stack.FiniteFieldElement, rollingOptions int) (script.Script, error) {
	if err := e.checkDegree(x, y); err != nil {
		return script.Script{}, err
	}
	if err := stack.CheckOrder([]stack.Element{x, y}); err != nil {
		return script.Script{}, err
	}

	out := cfg.VerifyConstant(e.Q)
	out.Append(e.algebraicSumToAltstack(x, y, rollingOptions))

	if cfg.TakeModulo {
		out.Append(e.TakeModulo(cfg.PositiveModulo, cfg.CleanConstant, cfg.IsConstantReused))
	} else {
		out.Append(e.FromAltstack())
	}
	return out, nil
}

// Add emits the script computing x + y in F_q^n.
func (e Extension) Add(cfg script.ModConfig, x, y stack.FiniteFieldElement, rollingOptions int) (script.Script, error) {
	if x.Negate() || y.Negate() {
		return script.Script{}, fmt.Errorf("add expects non-negated operands")
	}
	return e.AlgebraicSum(cfg, x, y, rollingOptions)
}

// AddTop is Add for the common layout of both operands on top of the stack.
func (e Extension) AddTop(cfg script.ModConfig) script.Script {
	return mustScript(e.Add(cfg,
		stack.FFE(2*e.Degree-1, false, e.Degree),
		stack.FFE(e.Degree-1, false, e.Degree),
		3,
	))
}

// Subtract emits the script computing x - y in F_q^n.
func (e Extension) Subtract(cfg script.ModConfig, x, y stack.FiniteFieldElement, rollingOptions int) (script.Script, error) {
	if x.Negate() || y.Negate() {
		return script.Script{}, fmt.Errorf("subtract expects non-negated operands")
	}
	return e.AlgebraicSum(cfg, x, y.SetNegate(true), rollingOptions)
}

// SubtractTop is Subtract for both operands on top of the stack.
func (e Extension) SubtractTop(cfg script.ModConfig) script.Script {
	return mustScript(e.Subtract(cfg,
		stack.FFE(2*e.Degree-1, false, e.Degree),
		stack.FFE(e.Degree-1, false, e.Degree),
		3,
	))
}

// BaseFieldScalarMul emits the script multiplying x in F_q^n by a scalar in
// F_q sitting on the stack.
//
// Stack in:  [q, .., x, .., scalar, ..]
// Stack out: [q, .., x * scalar]
func (e Extension) BaseFieldScalarMul(cfg script.ModConfig, x, scalar stack.FiniteFieldElement, rollingOptions int) (script.Script, error) {
	if scalar.ExtensionDegree() != 1 {
		return script.Script{}, fmt.Errorf("%w: scalar must have extension degree 1", stack.ErrDegreeMismatch)
	}
	if err := stack.CheckOrder([]stack.Element{x, scalar}); err != nil {
		return script.Script{}, err
	}

	rolled := stack.BitmaskToBooleanList(rollingOptions, 2)
	isScalarRolled, isXRolled := rolled[0], rolled[1]
	isDefaultConfig := x.Position() == e.Degree && scalar.Position() == 0

	out := cfg.VerifyConstant(e.Q)

	if isDefaultConfig {
		if scalar.Negate() {
			out.PushOp(script.OP_NEGATE)
		}
		for i := 0; i < e.Degree-1; i++ {
			out.PushOp(script.OP_TUCK, script.OP_MUL, script.OP_TOALTSTACK)
		}
		out.PushOp(script.OP_MUL)
	} else {
		out.Append(script.Move(scalar, script.BoolToMovingFunction(isScalarRolled)))
		if scalar.Negate() {
			out.PushOp(script.OP_NEGATE)
		}
		for i := e.Degree - 1; i >= 0; i-- {
			out.Append(script.Move(
				x.Shift(1-boolToInt(isScalarRolled)-(e.Degree-1-i)*boolToInt(isXRolled)).ExtractComponent(i),
				script.BoolToMovingFunction(isXRolled),
			))
			if i != 0 {
				out.PushOp(script.OP_OVER, script.OP_MUL, script.OP_TOALTSTACK)
			} else {
				out.PushOp(script.OP_MUL)
			}
		}
	}

	if cfg.TakeModulo {
		out.Append(e.TakeModulo(cfg.PositiveModulo, cfg.CleanConstant, cfg.IsConstantReused))
	} else {
		out.Append(e.FromAltstack())
	}
	return out, nil
}

// TakeModulo emits the batched reduction of a result whose first component is
// on the stack and remaining components on the altstack.
//
// Stack in:  [q, .., x0], altstack: [xn, .., x1]
// Stack out: [q, .., x0 % q, .., xn % q], altstack: []
func (e Extension) TakeModulo(positiveModulo, cleanConstant, isConstantReused bool) script.Script {
	out := script.FetchBottomConstant(cleanConstant)
	out.Append(script.Mod("", true, positiveModulo, true))
	for i := 0; i < e.Degree-2; i++ {
		out.Append(script.ModFromAlt(positiveModulo, true))
	}
	out.Append(script.ModFromAlt(positiveModulo, isConstantReused))
	return out
}

// FromAltstack pulls the n-1 higher components of a result back from the
// altstack.
func (e Extension) FromAltstack() script.Script {
	return script.MustParse(strings.TrimSpace(strings.Repeat("OP_FROMALTSTACK ", e.Degree-1)))
}
