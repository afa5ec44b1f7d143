package pairing

import (
	"math/big"

	"github.com/zkscript/zkscript/script"
)

// Carry of one cyclotomic squaring or multiplication: log2 of the number of
// additions folded into a single output coordinate.
const cyclotomicGrowthBits = 5

// CyclotomicExponentiation generates scripts computing x^e for x in the
// cyclotomic subgroup of F_q^k, where inversion is a conjugation and hence
// cheap enough to run negative exponent digits on script.
type CyclotomicExponentiation struct {
	Q               *big.Int
	ExtensionDegree int

	Inverse ProductFunc
	Square  ProductFunc
	Mul     ProductFunc
}

// Exponentiate emits the script computing x^e with a square-and-multiply walk
// over the digits of exp.
//
// Stack in:  [q, .., x], x in the cyclotomic subgroup of F_q^k
// Stack out: [q, .., x^e]
//
// exp is little endian with digits in {-1, 0, 1} and a non-zero leading
// digit. The copies of x and of its cyclotomic inverse consumed by the
// non-zero digits are laid out on the stack up front, so the main loop only
// squares and multiplies. Intermediate results are reduced whenever the next
// operation would exceed moduloThreshold bits; cfg governs the final
// reduction and the constant handling.
func (c *CyclotomicExponentiation) Exponentiate(
	exp []int,
	moduloThreshold int,
	cfg script.ModConfig,
) script.Script {
	n := c.ExtensionDegree
	out := cfg.VerifyConstant(c.Q)

	// Lay out the operand copies, most significant digit on top. prev tracks
	// whether the last copy was x (1) or its inverse (-1).
	everSeenF := false
	everSeenInverse := false
	prev := 0
	countPrev := 0
	for _, digit := range exp {
		switch {
		case digit == 1 && prev == 1:
			out.Append(script.Pick(n-1, n))
			countPrev++
		case digit == 1 && prev == -1:
			if everSeenF {
				out.Append(script.Pick(n+n*countPrev-1, n))
			} else {
				out.Append(script.Pick(n-1, n))
				out.Append(c.Inverse(script.ModConfig{}))
				everSeenF = true
			}
			prev = 1
			countPrev = 1
		case digit == 1:
			prev = 1
			countPrev = 1
			everSeenF = true
		case digit == -1 && prev == 1:
			if everSeenInverse {
				out.Append(script.Pick(n+n*countPrev-1, n))
			} else {
				out.Append(script.Pick(n-1, n))
				out.Append(c.Inverse(script.ModConfig{}))
				everSeenInverse = true
			}
			prev = -1
			countPrev = 1
		case digit == -1 && prev == -1:
			out.Append(script.Pick(n-1, n))
			countPrev++
		case digit == -1:
			out.Append(c.Inverse(script.ModConfig{}))
			prev = -1
			countPrev = 1
			everSeenInverse = true
		}
	}

	// Square-and-multiply from the second most significant digit down. Before
	// each step, project the operand growth two operations ahead: reduce
	// after the squaring if a squaring plus multiplication would overflow the
	// threshold, after the multiplication if a further squaring would.
	qBits := c.Q.BitLen()
	currentSize := qBits
	for i := len(exp) - 2; i >= 0; i-- {
		moduloSquare := false
		moduloMultiplication := false
		cleanConstantFinal := false

		if i == 0 {
			cleanConstantFinal = cfg.CleanConstant
		}

		if i == 0 && cfg.TakeModulo {
			moduloSquare = true
			if exp[0] != 0 {
				moduloMultiplication = true
			}
		} else if exp[i] != 0 {
			futureSize := cyclotomicGrowthBits + currentSize*2
			futureSize = cyclotomicGrowthBits + futureSize + qBits
			if futureSize > moduloThreshold {
				moduloSquare = true
				currentSize = cyclotomicGrowthBits + qBits*2
			} else if cyclotomicGrowthBits+futureSize*2 > moduloThreshold {
				moduloMultiplication = true
				currentSize = qBits
			} else {
				currentSize = futureSize
			}
		} else {
			futureSize := cyclotomicGrowthBits + currentSize*2
			if cyclotomicGrowthBits+futureSize*2 > moduloThreshold {
				moduloSquare = true
				currentSize = qBits
			} else {
				currentSize = futureSize
			}
		}

		if exp[i] != 0 {
			out.Append(c.Square(script.ModConfig{
				TakeModulo:     moduloSquare,
				PositiveModulo: true,
			}))
			out.Append(c.Mul(script.ModConfig{
				TakeModulo:     moduloMultiplication,
				PositiveModulo: true,
				CleanConstant:  cleanConstantFinal,
			}))
		} else {
			out.Append(c.Square(script.ModConfig{
				TakeModulo:     moduloSquare,
				PositiveModulo: true,
				CleanConstant:  cleanConstantFinal,
			}))
		}
	}

	return out
}
