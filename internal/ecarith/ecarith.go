// Package ecarith implements affine short-Weierstrass arithmetic over big
// integers. It is the witness-side counterpart of the script generators: it
// computes the points and chord/tangent gradients that unlocking scripts
// supply and that the generated scripts verify.
package ecarith

import (
	"fmt"
	"math/big"
)

// Curve is the short-Weierstrass curve y^2 = x^3 + A*x + B over F_q.
type Curve struct {
	Q *big.Int
	A *big.Int
	B *big.Int
}

// NewCurve returns the curve with the given parameters.
func NewCurve(q, a, b *big.Int) *Curve {
	return &Curve{
		Q: new(big.Int).Set(q),
		A: new(big.Int).Set(a),
		B: new(big.Int).Set(b),
	}
}

// Point is an affine point. The zero value is the point at infinity.
type Point struct {
	X, Y     *big.Int
	Infinity bool
}

// NewPoint returns the affine point (x, y).
func NewPoint(x, y *big.Int) Point {
	return Point{X: new(big.Int).Set(x), Y: new(big.Int).Set(y)}
}

// InfinityPoint returns the point at infinity.
func InfinityPoint() Point {
	return Point{Infinity: true}
}

// Equal reports whether two points are the same point.
func (p Point) Equal(other Point) bool {
	if p.Infinity || other.Infinity {
		return p.Infinity == other.Infinity
	}
	return p.X.Cmp(other.X) == 0 && p.Y.Cmp(other.Y) == 0
}

func (c *Curve) mod(x *big.Int) *big.Int {
	return x.Mod(x, c.Q)
}

// IsOnCurve reports whether p satisfies the curve equation.
func (c *Curve) IsOnCurve(p Point) bool {
	if p.Infinity {
		return true
	}
	lhs := new(big.Int).Mul(p.Y, p.Y)
	c.mod(lhs)
	rhs := new(big.Int).Mul(p.X, p.X)
	rhs.Mul(rhs, p.X)
	rhs.Add(rhs, new(big.Int).Mul(c.A, p.X))
	rhs.Add(rhs, c.B)
	c.mod(rhs)
	return lhs.Cmp(rhs) == 0
}

// Neg returns -p.
func (c *Curve) Neg(p Point) Point {
	if p.Infinity {
		return p
	}
	y := new(big.Int).Neg(p.Y)
	return Point{X: new(big.Int).Set(p.X), Y: c.mod(y)}
}

// Gradient returns the gradient of the line through p and q: the tangent at p
// when p == q, the chord otherwise. It errors when the gradient does not
// exist (a point at infinity, or q == -p).
func (c *Curve) Gradient(p, q Point) (*big.Int, error) {
	if p.Infinity || q.Infinity {
		return nil, fmt.Errorf("gradient undefined through the point at infinity")
	}
	if p.Equal(q) {
		if p.Y.Sign() == 0 {
			return nil, fmt.Errorf("tangent undefined at a point of order two")
		}
		// (3x^2 + a) / 2y
		num := new(big.Int).Mul(p.X, p.X)
		num.Mul(num, big.NewInt(3))
		num.Add(num, c.A)
		den := new(big.Int).Lsh(p.Y, 1)
		den.ModInverse(den, c.Q)
		num.Mul(num, den)
		return c.mod(num), nil
	}
	if p.X.Cmp(q.X) == 0 {
		return nil, fmt.Errorf("gradient undefined: points are inverses of each other")
	}
	// (yq - yp) / (xq - xp)
	num := new(big.Int).Sub(q.Y, p.Y)
	den := new(big.Int).Sub(q.X, p.X)
	den.Mod(den, c.Q)
	den.ModInverse(den, c.Q)
	num.Mul(num, den)
	return c.mod(num), nil
}

// Add returns p + q, handling coincident points, inverses, and points at
// infinity.
func (c *Curve) Add(p, q Point) Point {
	if p.Infinity {
		return q
	}
	if q.Infinity {
		return p
	}
	if p.X.Cmp(q.X) == 0 {
		sum := new(big.Int).Add(p.Y, q.Y)
		if sum.Mod(sum, c.Q).Sign() == 0 {
			return InfinityPoint()
		}
	}
	gradient, err := c.Gradient(p, q)
	if err != nil {
		panic(err)
	}
	// x3 = gradient^2 - xp - xq, y3 = gradient*(xp - x3) - yp
	x3 := new(big.Int).Mul(gradient, gradient)
	x3.Sub(x3, p.X)
	x3.Sub(x3, q.X)
	c.mod(x3)
	y3 := new(big.Int).Sub(p.X, x3)
	y3.Mul(y3, gradient)
	y3.Sub(y3, p.Y)
	c.mod(y3)
	return Point{X: x3, Y: y3}
}

// Double returns 2p.
func (c *Curve) Double(p Point) Point {
	return c.Add(p, p)
}

// ScalarMul returns a*p by double-and-add.
func (c *Curve) ScalarMul(p Point, a *big.Int) Point {
	if a.Sign() == 0 || p.Infinity {
		return InfinityPoint()
	}
	out := p
	for i := a.BitLen() - 2; i >= 0; i-- {
		out = c.Double(out)
		if a.Bit(i) == 1 {
			out = c.Add(out, p)
		}
	}
	return out
}

// MultiplicationGradients returns the gradients consumed by the unrolled
// double-and-add loop for a*p, iteration by iteration: gradients[j][0] is the
// doubling gradient and, when the corresponding scalar bit is set,
// gradients[j][1] is the addition gradient. The most significant bit of a is
// skipped; a must be positive.
func (c *Curve) MultiplicationGradients(p Point, a *big.Int) [][][]*big.Int {
	gradients := make([][][]*big.Int, 0, a.BitLen()-1)
	t := p
	for i := a.BitLen() - 2; i >= 0; i-- {
		step := make([][]*big.Int, 0, 2)
		g, err := c.Gradient(t, t)
		if err != nil {
			panic(err)
		}
		step = append(step, []*big.Int{g})
		t = c.Double(t)
		if a.Bit(i) == 1 {
			g, err = c.Gradient(t, p)
			if err != nil {
				panic(err)
			}
			step = append(step, []*big.Int{g})
			t = c.Add(t, p)
		}
		gradients = append(gradients, step)
	}
	return gradients
}
