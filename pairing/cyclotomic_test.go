package pairing

import (
	"math/big"
	"testing"

	"github.com/zkscript/zkscript/fields"
	"github.com/zkscript/zkscript/script"
	"github.com/zkscript/zkscript/test"
)

// cyclotomicFixture runs exponentiation over F_19^2 with u^2 = -1, where the
// norm-1 subgroup has order q+1 = 20 and conjugation inverts.
func cyclotomicFixture() (*fields.Fq2, *CyclotomicExponentiation) {
	q := big.NewInt(19)
	f := fields.NewFq2(q, big.NewInt(-1))
	c := &CyclotomicExponentiation{
		Q:               q,
		ExtensionDegree: 2,
		Inverse:         f.Conjugate,
		Square:          f.Square,
		Mul: func(cfg script.ModConfig) script.Script {
			return f.Mul(cfg, 1)
		},
	}
	return f, c
}

func fq2MulRef(a, b [2]*big.Int, q *big.Int) [2]*big.Int {
	c0 := new(big.Int).Mul(a[0], b[0])
	c0.Sub(c0, new(big.Int).Mul(a[1], b[1]))
	c1 := new(big.Int).Mul(a[0], b[1])
	c1.Add(c1, new(big.Int).Mul(a[1], b[0]))
	return [2]*big.Int{c0.Mod(c0, q), c1.Mod(c1, q)}
}

func fq2PowRef(x [2]*big.Int, e int, q *big.Int) [2]*big.Int {
	out := [2]*big.Int{big.NewInt(1), big.NewInt(0)}
	for i := 0; i < e; i++ {
		out = fq2MulRef(out, x, q)
	}
	return out
}

func TestCyclotomicExponentiate(t *testing.T) {
	_, c := cyclotomicFixture()

	// (3, 7) has norm 3^2 + 7^2 = 1 mod 19 and order 20
	x := [2]*big.Int{big.NewInt(3), big.NewInt(7)}

	tests := []struct {
		name string
		exp  []int
		e    int
	}{
		{"squares and multiplies", []int{1, 0, 1}, 5},
		{"signed digit uses the conjugate", []int{-1, 0, 1}, 3},
		{"zero trailing digit", []int{0, 1, 1}, 6},
		{"repeated multiplications", []int{1, 0, 1, 1}, 13},
		{"repeated conjugate copies", []int{-1, 0, -1, 1}, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert := test.NewAssert(t)

			unlock := script.New()
			unlock.PushInt(c.Q)
			unlock.Append(script.NumsToScript(x[:]))

			e := assert.Run(unlock, c.Exponentiate(tc.exp, 200, script.Reduce))
			want := fq2PowRef(x, tc.e, c.Q)
			assert.CleanStack(e, 2)
			assert.StackNums(e, want[0], want[1])
		})
	}
}

func TestCyclotomicExponentiateLowThreshold(t *testing.T) {
	assert := test.NewAssert(t)
	_, c := cyclotomicFixture()
	x := [2]*big.Int{big.NewInt(3), big.NewInt(7)}

	unlock := script.New()
	unlock.PushInt(c.Q)
	unlock.Append(script.NumsToScript(x[:]))

	// threshold tight enough to force intermediate reductions
	e := assert.Run(unlock, c.Exponentiate([]int{1, 0, 1, 1}, 16, script.Reduce))
	want := fq2PowRef(x, 13, c.Q)
	assert.CleanStack(e, 2)
	assert.StackNums(e, want[0], want[1])
}

func TestCyclotomicExponentiateKeepsConstant(t *testing.T) {
	assert := test.NewAssert(t)
	_, c := cyclotomicFixture()
	x := [2]*big.Int{big.NewInt(3), big.NewInt(7)}

	unlock := script.New()
	unlock.PushInt(c.Q)
	unlock.Append(script.NumsToScript(x[:]))

	cfg := script.ModConfig{TakeModulo: true, PositiveModulo: true, CheckConstant: true}
	e := assert.Run(unlock, c.Exponentiate([]int{1, 0, 1}, 200, cfg))
	want := fq2PowRef(x, 5, c.Q)
	assert.CleanStack(e, 3)
	assert.StackNums(e, c.Q, want[0], want[1])
}
