// Package zkscript compiles algebraic statements into Bitcoin Script programs.
//
// The library generates exact, size-optimized, loop-free scripts for:
//   - arithmetic in towered finite fields (quadratic and cubic extensions up to degree 12)
//   - elliptic curve group operations over F_q and F_q^2, including unrolled
//     double-and-add scalar multiplication
//   - bilinear pairings (single and triple Miller loops with final exponentiation)
//   - Groth16 proof verification
//   - Merkle path verification
//
// Generators are pure functions of their parameters: compiling twice with the
// same inputs yields byte-identical scripts. The emitted programs carry their
// own correctness checks; an incorrect witness makes the script evaluate to
// false at execution time.
package zkscript

import (
	"github.com/blang/semver/v4"
)

// Version of the zkscript library. Serialized programs are stamped with it.
var Version = semver.MustParse("0.3.0")
