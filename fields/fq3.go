package fields

import (
	"math/big"

	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/stack"
)

// Fq3 generates scripts for arithmetic in F_q^3 = F_q[u] / (u^3 - nonResidue).
// Elements are laid out as (x0, x1, x2) with x = x0 + x1*u + x2*u^2, x0
// deepest. Addition, subtraction and base-field scalar multiplication come
// from the embedded Extension.
type Fq3 struct {
	Extension
	NonResidue *big.Int
}

// NewFq3 returns the script generator for F_q^3 with the given non-residue.
func NewFq3(q, nonResidue *big.Int) *Fq3 {
	return &Fq3{
		Extension:  newExtension(q, 3),
		NonResidue: new(big.Int).Set(nonResidue),
	}
}

// Square emits the script computing scalar * x^2 via
//
//	(x0^2 + 2*x1*x2*nr, x2^2*nr + 2*x0*x1, x1^2 + 2*x0*x2)
//
// When rollingOption is false the operand stays on the stack below the
// result.
//
// Stack in:  [q, .., x := (x0, x1, x2), ..]
// Stack out: [q, .., scalar * x^2]
func (f *Fq3) Square(cfg script.ModConfig, x stack.FiniteFieldElement, scalar int64, rollingOption bool) (script.Script, error) {
	if err := f.checkDegree(x); err != nil {
		return script.Script{}, err
	}

	out := cfg.VerifyConstant(f.Q)

	if x.Position() == f.Degree-1 && !rollingOption {
		// every component sources fresh copies so x is left untouched

		// x1^2 + 2*x0*x2 to the altstack
		out.Append(script.Move(x.ExtractComponent(1), script.Pick))
		out.PushOp(script.OP_DUP, script.OP_MUL)
		out.Append(script.Move(x.Shift(1).ExtractComponent(2), script.Pick))
		out.Append(script.Move(x.Shift(2).ExtractComponent(0), script.Pick))
		out.PushOp(script.OP_2, script.OP_MUL, script.OP_MUL, script.OP_ADD)
		scale(&out, scalar)
		out.PushOp(script.OP_TOALTSTACK)

		// x2^2 * nr + 2*x0*x1 to the altstack
		out.Append(script.Move(x.ExtractComponent(2), script.Pick))
		out.PushOp(script.OP_DUP)
		out.PushInt(f.NonResidue)
		out.PushOp(script.OP_MUL, script.OP_MUL)
		out.Append(script.Move(x.Shift(1).ExtractComponent(0), script.Pick))
		out.Append(script.Move(x.Shift(2).ExtractComponent(1), script.Pick))
		out.PushOp(script.OP_2, script.OP_MUL, script.OP_MUL, script.OP_ADD)
		scale(&out, scalar)
		out.PushOp(script.OP_TOALTSTACK)

		// x0^2 + 2*x1*x2*nr stays on the stack
		out.Append(script.Move(x.ExtractComponent(0), script.Pick))
		out.PushOp(script.OP_DUP, script.OP_MUL, script.OP_TOALTSTACK)
		out.Append(script.Move(x.ExtractComponent(1), script.Pick))
		out.Append(script.Move(x.Shift(1).ExtractComponent(2), script.Pick))
		out.PushOp(script.OP_2)
		out.PushInt(f.NonResidue)
		out.PushOp(script.OP_MUL, script.OP_MUL, script.OP_MUL, script.OP_FROMALTSTACK, script.OP_ADD)
		scale(&out, scalar)
	} else {
		// x1^2 + 2*x0*x2 to the altstack, leaving x1, x2, x0 on the stack
		if x.Position() == f.Degree-1 {
			out.Append(script.Move(x.ExtractComponent(1), script.Pick))
			out.PushOp(script.OP_DUP, script.OP_MUL)
			out.Append(script.Move(x.Shift(1).ExtractComponent(2), script.Pick))
			out.Append(script.Move(x.Shift(2).ExtractComponent(0), script.Roll))
		} else {
			out.Append(script.Move(x.ExtractComponent(1), script.BoolToMovingFunction(rollingOption)))
			out.PushOp(script.OP_DUP, script.OP_DUP, script.OP_MUL)
			out.Append(script.Move(x.Shift(2).ExtractComponent(2), script.BoolToMovingFunction(rollingOption)))
			out.Append(script.Move(
				x.Shift(3-2*boolToInt(rollingOption)).ExtractComponent(0),
				script.BoolToMovingFunction(rollingOption),
			))
		}
		out.PushOp(script.OP_TUCK, script.OP_2, script.OP_MUL, script.OP_MUL, script.OP_ROT, script.OP_ADD)
		scale(&out, scalar)
		out.PushOp(script.OP_TOALTSTACK)

		// x2^2 * nr + 2*x0*x1 to the altstack
		out.PushOp(script.OP_OVER, script.OP_DUP)
		out.PushInt(f.NonResidue)
		out.PushOp(script.OP_MUL, script.OP_MUL)
		out.PushOp(script.OP_OVER)
		out.Append(script.Pick(4, 1))
		out.PushOp(script.OP_2, script.OP_MUL, script.OP_MUL, script.OP_ADD)
		scale(&out, scalar)
		out.PushOp(script.OP_TOALTSTACK)

		// x0^2 + 2*x1*x2*nr stays on the stack
		out.PushOp(script.OP_DUP, script.OP_MUL, script.OP_TOALTSTACK)
		out.PushOp(script.OP_2)
		out.PushInt(f.NonResidue)
		out.PushOp(script.OP_MUL, script.OP_MUL, script.OP_MUL, script.OP_FROMALTSTACK, script.OP_ADD)
		scale(&out, scalar)
	}

	if cfg.TakeModulo {
		out.Append(f.TakeModulo(cfg.PositiveModulo, cfg.CleanConstant, cfg.IsConstantReused))
	} else {
		out.Append(f.FromAltstack())
	}
	return out, nil
}

// SquareTop is Square for the operand on top of the stack.
func (f *Fq3) SquareTop(cfg script.ModConfig) script.Script {
	return mustScript(f.Square(cfg, stack.FFE(2, false, 3), 1, true))
}

// Mul emits the script computing scalar * (x * y) via the schoolbook formula
//
//	(x0*y0 + (x1*y2 + x2*y1)*nr, x2*y2*nr + x0*y1 + x1*y0, x1*y1 + x0*y2 + x2*y0)
//
// Stack in:  [q, .., x := (x0, x1, x2), .., y := (y0, y1, y2), ..]
// Stack out: [q, .., scalar * x * y]
func (f *Fq3) Mul(cfg script.ModConfig, x, y stack.FiniteFieldElement, scalar int64, rollingOptions int) (script.Script, error) {
	if err := f.checkDegree(x, y); err != nil {
		return script.Script{}, err
	}
	if err := stack.CheckOrder([]stack.Element{x, y}); err != nil {
		return script.Script{}, err
	}

	rolled := stack.BitmaskToBooleanList(rollingOptions, 2)
	isXRolled, isYRolled := rolled[0], rolled[1]

	out := cfg.VerifyConstant(f.Q)

	// x1*y1 + x0*y2 + x2*y0 to the altstack
	out.Append(script.Move(y.ExtractComponent(2), script.Pick))
	out.Append(script.Move(x.Shift(1).ExtractComponent(0), script.Pick))
	out.PushOp(script.OP_MUL)

	out.Append(script.Move(y.Shift(1).ExtractComponent(1), script.Pick))
	out.Append(script.Move(x.Shift(2).ExtractComponent(1), script.Pick))
	out.PushOp(script.OP_MUL, script.OP_ADD)

	out.Append(script.Move(y.Shift(1).ExtractComponent(0), script.Pick))
	out.Append(script.Move(x.Shift(2).ExtractComponent(2), script.Pick))
	out.PushOp(script.OP_MUL, script.OP_ADD)
	scale(&out, scalar)
	out.PushOp(script.OP_TOALTSTACK)

	// x2*y2*nr + x0*y1 + x1*y0 to the altstack
	out.Append(script.Move(y.ExtractComponent(2), script.Pick))
	out.Append(script.Move(x.Shift(1).ExtractComponent(2), script.Pick))
	out.PushOp(script.OP_MUL)
	out.PushInt(f.NonResidue)
	out.PushOp(script.OP_MUL)

	out.Append(script.Move(y.Shift(1).ExtractComponent(1), script.Pick))
	out.Append(script.Move(x.Shift(2).ExtractComponent(0), script.Pick))
	out.PushOp(script.OP_MUL, script.OP_ADD)

	out.Append(script.Move(y.Shift(1).ExtractComponent(0), script.Pick))
	out.Append(script.Move(x.Shift(2).ExtractComponent(1), script.Pick))
	out.PushOp(script.OP_MUL, script.OP_ADD)
	scale(&out, scalar)
	out.PushOp(script.OP_TOALTSTACK)

	// x0*y0 + (x1*y2 + x2*y1)*nr stays on the stack, consuming the operands
	// when rolled
	out.Append(script.Move(y.ExtractComponent(2), script.BoolToMovingFunction(isYRolled)))
	out.Append(script.Move(x.Shift(1-boolToInt(isYRolled)).ExtractComponent(1), script.BoolToMovingFunction(isXRolled)))
	out.PushOp(script.OP_MUL)

	out.Append(script.Move(y.Shift(1-boolToInt(isYRolled)).ExtractComponent(1), script.BoolToMovingFunction(isYRolled)))
	out.Append(script.Move(x.Shift(2-2*boolToInt(isYRolled)).ExtractComponent(2), script.BoolToMovingFunction(isXRolled)))
	out.PushOp(script.OP_MUL, script.OP_ADD)
	out.PushInt(f.NonResidue)
	out.PushOp(script.OP_MUL)

	out.Append(script.Move(y.Shift(1-2*boolToInt(isYRolled)).ExtractComponent(0), script.BoolToMovingFunction(isYRolled)))
	out.Append(script.Move(
		x.Shift(2-3*boolToInt(isYRolled)-2*boolToInt(isXRolled)).ExtractComponent(0),
		script.BoolToMovingFunction(isXRolled),
	))
	out.PushOp(script.OP_MUL, script.OP_ADD)
	scale(&out, scalar)

	if cfg.TakeModulo {
		out.Append(f.TakeModulo(cfg.PositiveModulo, cfg.CleanConstant, cfg.IsConstantReused))
	} else {
		out.Append(f.FromAltstack())
	}
	return out, nil
}

// MulTop is Mul for both operands on top of the stack.
func (f *Fq3) MulTop(cfg script.ModConfig) script.Script {
	return mustScript(f.Mul(cfg, stack.FFE(5, false, 3), stack.FFE(2, false, 3), 1, 3))
}
