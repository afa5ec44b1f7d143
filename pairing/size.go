package pairing

import "math/big"

// Growth of the x coordinate under one doubling or addition: the worst
// coordinate is bounded by 6*q*max(xP, xQ), contributing log2(6) = 3 bits on
// top of the modulus.
const pointGrowthBits = 3

// EstimateMillerLoopSizes tracks the bit sizes of the Miller loop accumulator
// and of the running point multiplications across one step of the loop, and
// decides whether either must be reduced modulo q to stay below
// moduloThreshold. n bounds the carry of one accumulator multiplication:
// log2 of the number of additions folded into a single output coordinate.
//
// Returns the reduction flags for the accumulator and the points, followed by
// their updated sizes. At the last step both are always reduced.
func EstimateMillerLoopSizes(
	q *big.Int,
	moduloThreshold, i int,
	exp []int,
	sizeMillerOutput, sizePointMultiplication int,
	isTripleMillerLoop bool,
	n int,
) (bool, bool, int, int) {
	if i == 0 {
		return true, true, 0, 0
	}

	qBits := q.BitLen()

	// One squaring of the accumulator, followed by one multiplication with a
	// line evaluation per remaining factor. A step with an addition carries
	// twice the factors.
	multiplier := 1
	if exp[i-1] != 0 {
		multiplier = 2
	}
	if isTripleMillerLoop {
		multiplier *= 3
	}
	futureMillerOutput := 2*sizeMillerOutput + n
	for j := 0; j < multiplier; j++ {
		futureMillerOutput = qBits + futureMillerOutput + n
	}

	futurePointMultiplication := qBits + sizePointMultiplication + pointGrowthBits
	if exp[i-1] != 0 {
		futurePointMultiplication = qBits + futurePointMultiplication + pointGrowthBits
	}

	takeModuloMillerOutput := futureMillerOutput > moduloThreshold
	takeModuloPointMultiplication := futurePointMultiplication > moduloThreshold

	newSizeMillerOutput := futureMillerOutput
	if takeModuloMillerOutput {
		newSizeMillerOutput = qBits
	}
	newSizePointMultiplication := futurePointMultiplication
	if takeModuloPointMultiplication {
		newSizePointMultiplication = qBits
	}

	return takeModuloMillerOutput, takeModuloPointMultiplication, newSizeMillerOutput, newSizePointMultiplication
}
