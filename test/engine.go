// Package test provides an in-process interpreter for the generated scripts
// and assertion helpers around it. The interpreter implements the opcode
// subset the generators emit, with unbounded integers and the re-enabled
// splice opcodes, so every generated program can be executed and its final
// stack inspected inside a unit test.
package test

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/ripemd160"

	"github.com/zkscript/zkscript/script"
)

// ErrStackUnderflow is returned when an opcode needs more elements than the
// stack holds.
var ErrStackUnderflow = errors.New("stack underflow")

// ErrVerifyFailed is returned when a verification opcode fails.
var ErrVerifyFailed = errors.New("verification failed")

// ErrMalformedScript is returned on truncated pushes or unbalanced
// conditionals.
var ErrMalformedScript = errors.New("malformed script")

// ErrUnknownOpcode is returned on opcodes outside the interpreted subset.
var ErrUnknownOpcode = errors.New("unknown opcode")

// Engine executes scripts over a pair of byte-string stacks. Arithmetic
// operates on arbitrary-precision integers in the Bitcoin number encoding.
// The zero value is an engine with empty stacks.
type Engine struct {
	stack    [][]byte
	altstack [][]byte
}

// NewEngine returns an engine with empty stacks.
func NewEngine() *Engine {
	return &Engine{}
}

// Depth returns the number of elements on the main stack.
func (e *Engine) Depth() int { return len(e.stack) }

// AltDepth returns the number of elements on the altstack.
func (e *Engine) AltDepth() int { return len(e.altstack) }

// Bytes returns the element at the given distance from the top of the stack.
func (e *Engine) Bytes(position int) []byte {
	out := e.stack[len(e.stack)-1-position]
	cp := make([]byte, len(out))
	copy(cp, out)
	return cp
}

// Num returns the element at the given distance from the top of the stack,
// decoded as a number.
func (e *Engine) Num(position int) *big.Int {
	return script.DecodeNum(e.stack[len(e.stack)-1-position])
}

// Nums returns the whole stack decoded as numbers, bottom first.
func (e *Engine) Nums() []*big.Int {
	out := make([]*big.Int, len(e.stack))
	for i, el := range e.stack {
		out[i] = script.DecodeNum(el)
	}
	return out
}

// PushNum pushes a number onto the stack.
func (e *Engine) PushNum(n *big.Int) {
	e.stack = append(e.stack, script.EncodeNum(n))
}

// PushBytes pushes a byte string onto the stack.
func (e *Engine) PushBytes(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	e.stack = append(e.stack, cp)
}

func (e *Engine) pop() ([]byte, error) {
	if len(e.stack) == 0 {
		return nil, ErrStackUnderflow
	}
	out := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	return out, nil
}

func (e *Engine) popNum() (*big.Int, error) {
	data, err := e.pop()
	if err != nil {
		return nil, err
	}
	return script.DecodeNum(data), nil
}

func (e *Engine) popNums(n int) ([]*big.Int, error) {
	if len(e.stack) < n {
		return nil, ErrStackUnderflow
	}
	out := make([]*big.Int, n)
	for i := n - 1; i >= 0; i-- {
		out[i], _ = e.popNum()
	}
	return out, nil
}

func (e *Engine) push(data []byte) {
	e.stack = append(e.stack, data)
}

func (e *Engine) pushNum(n *big.Int) {
	e.stack = append(e.stack, script.EncodeNum(n))
}

func (e *Engine) pushBool(v bool) {
	if v {
		e.pushNum(big.NewInt(1))
	} else {
		e.push([]byte{})
	}
}

// castToBool applies the script truthiness rules: empty, all-zero, and
// negative zero are false.
func castToBool(data []byte) bool {
	for i, b := range data {
		if b != 0 {
			return i != len(data)-1 || b != 0x80
		}
	}
	return false
}

// Execute runs the script to completion. Execution state persists across
// calls, so an unlocking script can be executed before a locking script.
func (e *Engine) Execute(s script.Script) error {
	raw := s.Bytes()
	// conditional execution flags, one per open OP_IF
	var conds []bool

	executing := func() bool {
		for _, c := range conds {
			if !c {
				return false
			}
		}
		return true
	}

	i := 0
	for i < len(raw) {
		op := raw[i]

		// data pushes
		if op >= 0x01 && op <= script.OP_PUSHDATA4 {
			data, next, err := decodePush(raw, i)
			if err != nil {
				return err
			}
			if executing() {
				e.push(data)
			}
			i = next
			continue
		}

		i++

		switch op {
		case script.OP_IF, script.OP_NOTIF:
			cond := false
			if executing() {
				top, err := e.pop()
				if err != nil {
					return fmt.Errorf("%s: %w", script.OpcodeName(op), err)
				}
				cond = castToBool(top)
				if op == script.OP_NOTIF {
					cond = !cond
				}
			}
			conds = append(conds, cond)
			continue
		case script.OP_ELSE:
			if len(conds) == 0 {
				return fmt.Errorf("%w: OP_ELSE without OP_IF", ErrMalformedScript)
			}
			conds[len(conds)-1] = !conds[len(conds)-1]
			continue
		case script.OP_ENDIF:
			if len(conds) == 0 {
				return fmt.Errorf("%w: OP_ENDIF without OP_IF", ErrMalformedScript)
			}
			conds = conds[:len(conds)-1]
			continue
		}

		if !executing() {
			continue
		}

		if err := e.step(op); err != nil {
			return fmt.Errorf("%s: %w", script.OpcodeName(op), err)
		}
	}

	if len(conds) != 0 {
		return fmt.Errorf("%w: unbalanced conditional", ErrMalformedScript)
	}
	return nil
}

func (e *Engine) step(op byte) error {
	switch op {
	case script.OP_0:
		e.push([]byte{})
	case script.OP_1NEGATE:
		e.pushNum(big.NewInt(-1))
	case script.OP_NOP:
	case script.OP_RETURN:
		return fmt.Errorf("%w: OP_RETURN", ErrVerifyFailed)

	case script.OP_VERIFY:
		top, err := e.pop()
		if err != nil {
			return err
		}
		if !castToBool(top) {
			return ErrVerifyFailed
		}

	case script.OP_TOALTSTACK:
		top, err := e.pop()
		if err != nil {
			return err
		}
		e.altstack = append(e.altstack, top)
	case script.OP_FROMALTSTACK:
		if len(e.altstack) == 0 {
			return ErrStackUnderflow
		}
		e.push(e.altstack[len(e.altstack)-1])
		e.altstack = e.altstack[:len(e.altstack)-1]

	case script.OP_DEPTH:
		e.pushNum(big.NewInt(int64(len(e.stack))))
	case script.OP_DROP:
		_, err := e.pop()
		return err
	case script.OP_2DROP:
		return e.dropN(2)
	case script.OP_DUP:
		return e.dupN(1)
	case script.OP_2DUP:
		return e.dupN(2)
	case script.OP_3DUP:
		return e.dupN(3)
	case script.OP_NIP:
		if len(e.stack) < 2 {
			return ErrStackUnderflow
		}
		e.stack = append(e.stack[:len(e.stack)-2], e.stack[len(e.stack)-1])
	case script.OP_OVER:
		return e.pickAt(1)
	case script.OP_2OVER:
		if err := e.pickAt(3); err != nil {
			return err
		}
		return e.pickAt(3)
	case script.OP_PICK:
		n, err := e.popNum()
		if err != nil {
			return err
		}
		return e.pickAt(int(n.Int64()))
	case script.OP_ROLL:
		n, err := e.popNum()
		if err != nil {
			return err
		}
		return e.rollAt(int(n.Int64()))
	case script.OP_ROT:
		return e.rollAt(2)
	case script.OP_2ROT:
		if err := e.rollAt(5); err != nil {
			return err
		}
		return e.rollAt(5)
	case script.OP_SWAP:
		return e.rollAt(1)
	case script.OP_2SWAP:
		if err := e.rollAt(3); err != nil {
			return err
		}
		return e.rollAt(3)
	case script.OP_TUCK:
		if len(e.stack) < 2 {
			return ErrStackUnderflow
		}
		top := e.stack[len(e.stack)-1]
		cp := make([]byte, len(top))
		copy(cp, top)
		e.stack = append(e.stack, nil)
		copy(e.stack[len(e.stack)-2:], e.stack[len(e.stack)-3:len(e.stack)-1])
		e.stack[len(e.stack)-3] = cp
	case script.OP_IFDUP:
		if len(e.stack) == 0 {
			return ErrStackUnderflow
		}
		if castToBool(e.stack[len(e.stack)-1]) {
			return e.dupN(1)
		}

	case script.OP_CAT:
		x2, err := e.pop()
		if err != nil {
			return err
		}
		x1, err := e.pop()
		if err != nil {
			return err
		}
		e.push(append(x1, x2...))
	case script.OP_SPLIT:
		n, err := e.popNum()
		if err != nil {
			return err
		}
		x, err := e.pop()
		if err != nil {
			return err
		}
		at := int(n.Int64())
		if at < 0 || at > len(x) {
			return fmt.Errorf("%w: OP_SPLIT index %d out of range", ErrMalformedScript, at)
		}
		e.push(x[:at])
		e.push(x[at:])
	case script.OP_SIZE:
		if len(e.stack) == 0 {
			return ErrStackUnderflow
		}
		e.pushNum(big.NewInt(int64(len(e.stack[len(e.stack)-1]))))
	case script.OP_NUM2BIN:
		size, err := e.popNum()
		if err != nil {
			return err
		}
		n, err := e.popNum()
		if err != nil {
			return err
		}
		out, err := num2bin(n, int(size.Int64()))
		if err != nil {
			return err
		}
		e.push(out)
	case script.OP_BIN2NUM:
		x, err := e.pop()
		if err != nil {
			return err
		}
		e.pushNum(script.DecodeNum(x))

	case script.OP_EQUAL, script.OP_EQUALVERIFY:
		x2, err := e.pop()
		if err != nil {
			return err
		}
		x1, err := e.pop()
		if err != nil {
			return err
		}
		equal := bytes.Equal(x1, x2)
		if op == script.OP_EQUALVERIFY {
			if !equal {
				return ErrVerifyFailed
			}
		} else {
			e.pushBool(equal)
		}

	case script.OP_1ADD:
		return e.unaryNum(func(x *big.Int) *big.Int { return x.Add(x, big.NewInt(1)) })
	case script.OP_1SUB:
		return e.unaryNum(func(x *big.Int) *big.Int { return x.Sub(x, big.NewInt(1)) })
	case script.OP_NEGATE:
		return e.unaryNum(func(x *big.Int) *big.Int { return x.Neg(x) })
	case script.OP_ABS:
		return e.unaryNum(func(x *big.Int) *big.Int { return x.Abs(x) })
	case script.OP_NOT:
		return e.unaryNum(func(x *big.Int) *big.Int {
			if x.Sign() == 0 {
				return big.NewInt(1)
			}
			return big.NewInt(0)
		})
	case script.OP_0NOTEQUAL:
		return e.unaryNum(func(x *big.Int) *big.Int {
			if x.Sign() != 0 {
				return big.NewInt(1)
			}
			return big.NewInt(0)
		})

	case script.OP_ADD:
		return e.binaryNum(func(a, b *big.Int) *big.Int { return a.Add(a, b) })
	case script.OP_SUB:
		return e.binaryNum(func(a, b *big.Int) *big.Int { return a.Sub(a, b) })
	case script.OP_MUL:
		return e.binaryNum(func(a, b *big.Int) *big.Int { return a.Mul(a, b) })
	case script.OP_DIV:
		return e.binaryNumErr(func(a, b *big.Int) (*big.Int, error) {
			if b.Sign() == 0 {
				return nil, fmt.Errorf("%w: division by zero", ErrMalformedScript)
			}
			return a.Quo(a, b), nil
		})
	case script.OP_MOD:
		// remainder carries the sign of the dividend
		return e.binaryNumErr(func(a, b *big.Int) (*big.Int, error) {
			if b.Sign() == 0 {
				return nil, fmt.Errorf("%w: modulo by zero", ErrMalformedScript)
			}
			return a.Rem(a, b), nil
		})

	case script.OP_BOOLAND:
		return e.binaryBool(func(a, b *big.Int) bool { return a.Sign() != 0 && b.Sign() != 0 })
	case script.OP_BOOLOR:
		return e.binaryBool(func(a, b *big.Int) bool { return a.Sign() != 0 || b.Sign() != 0 })
	case script.OP_NUMEQUAL:
		return e.binaryBool(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })
	case script.OP_NUMEQUALVERIFY:
		nums, err := e.popNums(2)
		if err != nil {
			return err
		}
		if nums[0].Cmp(nums[1]) != 0 {
			return ErrVerifyFailed
		}
	case script.OP_NUMNOTEQUAL:
		return e.binaryBool(func(a, b *big.Int) bool { return a.Cmp(b) != 0 })
	case script.OP_LESSTHAN:
		return e.binaryBool(func(a, b *big.Int) bool { return a.Cmp(b) < 0 })
	case script.OP_GREATERTHAN:
		return e.binaryBool(func(a, b *big.Int) bool { return a.Cmp(b) > 0 })
	case script.OP_LESSTHANOREQUAL:
		return e.binaryBool(func(a, b *big.Int) bool { return a.Cmp(b) <= 0 })
	case script.OP_GREATERTHANOREQUAL:
		return e.binaryBool(func(a, b *big.Int) bool { return a.Cmp(b) >= 0 })
	case script.OP_MIN:
		return e.binaryNum(func(a, b *big.Int) *big.Int {
			if a.Cmp(b) <= 0 {
				return a
			}
			return b
		})
	case script.OP_MAX:
		return e.binaryNum(func(a, b *big.Int) *big.Int {
			if a.Cmp(b) >= 0 {
				return a
			}
			return b
		})
	case script.OP_WITHIN:
		nums, err := e.popNums(3)
		if err != nil {
			return err
		}
		e.pushBool(nums[0].Cmp(nums[1]) >= 0 && nums[0].Cmp(nums[2]) < 0)

	case script.OP_RIPEMD160:
		return e.hash(func(data []byte) []byte {
			h := ripemd160.New()
			h.Write(data)
			return h.Sum(nil)
		})
	case script.OP_SHA1:
		return e.hash(func(data []byte) []byte {
			out := sha1.Sum(data)
			return out[:]
		})
	case script.OP_SHA256:
		return e.hash(func(data []byte) []byte {
			out := sha256.Sum256(data)
			return out[:]
		})
	case script.OP_HASH160:
		return e.hash(func(data []byte) []byte {
			inner := sha256.Sum256(data)
			h := ripemd160.New()
			h.Write(inner[:])
			return h.Sum(nil)
		})
	case script.OP_HASH256:
		return e.hash(func(data []byte) []byte {
			inner := sha256.Sum256(data)
			out := sha256.Sum256(inner[:])
			return out[:]
		})

	default:
		if op >= script.OP_1 && op <= script.OP_16 {
			e.pushNum(big.NewInt(int64(op-script.OP_1) + 1))
			return nil
		}
		return fmt.Errorf("%w: 0x%02x", ErrUnknownOpcode, op)
	}
	return nil
}

func (e *Engine) dropN(n int) error {
	if len(e.stack) < n {
		return ErrStackUnderflow
	}
	e.stack = e.stack[:len(e.stack)-n]
	return nil
}

func (e *Engine) dupN(n int) error {
	if len(e.stack) < n {
		return ErrStackUnderflow
	}
	for i := 0; i < n; i++ {
		el := e.stack[len(e.stack)-n]
		cp := make([]byte, len(el))
		copy(cp, el)
		e.push(cp)
	}
	return nil
}

func (e *Engine) pickAt(position int) error {
	if position < 0 || position >= len(e.stack) {
		return ErrStackUnderflow
	}
	el := e.stack[len(e.stack)-1-position]
	cp := make([]byte, len(el))
	copy(cp, el)
	e.push(cp)
	return nil
}

func (e *Engine) rollAt(position int) error {
	if position < 0 || position >= len(e.stack) {
		return ErrStackUnderflow
	}
	ix := len(e.stack) - 1 - position
	el := e.stack[ix]
	e.stack = append(e.stack[:ix], e.stack[ix+1:]...)
	e.push(el)
	return nil
}

func (e *Engine) unaryNum(f func(*big.Int) *big.Int) error {
	x, err := e.popNum()
	if err != nil {
		return err
	}
	e.pushNum(f(x))
	return nil
}

func (e *Engine) binaryNum(f func(a, b *big.Int) *big.Int) error {
	nums, err := e.popNums(2)
	if err != nil {
		return err
	}
	e.pushNum(f(nums[0], nums[1]))
	return nil
}

func (e *Engine) binaryNumErr(f func(a, b *big.Int) (*big.Int, error)) error {
	nums, err := e.popNums(2)
	if err != nil {
		return err
	}
	out, err := f(nums[0], nums[1])
	if err != nil {
		return err
	}
	e.pushNum(out)
	return nil
}

func (e *Engine) binaryBool(f func(a, b *big.Int) bool) error {
	nums, err := e.popNums(2)
	if err != nil {
		return err
	}
	e.pushBool(f(nums[0], nums[1]))
	return nil
}

func (e *Engine) hash(f func([]byte) []byte) error {
	x, err := e.pop()
	if err != nil {
		return err
	}
	e.push(f(x))
	return nil
}

// num2bin encodes n into exactly size bytes, sign bit in the last byte.
func num2bin(n *big.Int, size int) ([]byte, error) {
	minimal := script.EncodeNum(n)
	if len(minimal) > size {
		return nil, fmt.Errorf("%w: number does not fit in %d bytes", ErrMalformedScript, size)
	}
	out := make([]byte, size)
	copy(out, minimal)
	if n.Sign() < 0 && size > 0 {
		out[len(minimal)-1] &= 0x7f
		out[size-1] |= 0x80
	}
	return out, nil
}

// decodePush decodes the data push starting at offset i and returns the data
// and the offset of the next instruction.
func decodePush(raw []byte, i int) ([]byte, int, error) {
	op := raw[i]
	var n, hdr int
	switch {
	case op >= 0x01 && op <= 0x4b:
		n, hdr = int(op), 1
	case op == script.OP_PUSHDATA1:
		if i+1 >= len(raw) {
			return nil, i, fmt.Errorf("%w: truncated OP_PUSHDATA1", ErrMalformedScript)
		}
		n, hdr = int(raw[i+1]), 2
	case op == script.OP_PUSHDATA2:
		if i+2 >= len(raw) {
			return nil, i, fmt.Errorf("%w: truncated OP_PUSHDATA2", ErrMalformedScript)
		}
		n, hdr = int(raw[i+1])|int(raw[i+2])<<8, 3
	case op == script.OP_PUSHDATA4:
		if i+4 >= len(raw) {
			return nil, i, fmt.Errorf("%w: truncated OP_PUSHDATA4", ErrMalformedScript)
		}
		n, hdr = int(raw[i+1])|int(raw[i+2])<<8|int(raw[i+3])<<16|int(raw[i+4])<<24, 5
	default:
		return nil, i, fmt.Errorf("%w: not a push opcode", ErrMalformedScript)
	}
	if i+hdr+n > len(raw) {
		return nil, i, fmt.Errorf("%w: truncated push data", ErrMalformedScript)
	}
	out := make([]byte, n)
	copy(out, raw[i+hdr:i+hdr+n])
	return out, i + hdr + n, nil
}
