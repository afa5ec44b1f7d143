// Package script implements the Bitcoin Script instruction buffer the
// generators emit into, together with the stack-manipulation and
// modulo-discipline primitives shared by every generator.
package script

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Script is an append-only Bitcoin Script instruction buffer. The zero value
// is an empty script. Emission order is deterministic: the serialized bytes
// are exactly the opcodes and pushes in the order they were appended.
type Script struct {
	raw []byte
}

// New returns an empty script.
func New() Script {
	return Script{}
}

// PushOp appends raw opcodes.
func (s *Script) PushOp(ops ...byte) *Script {
	s.raw = append(s.raw, ops...)
	return s
}

// PushData appends data with the minimal push encoding.
func (s *Script) PushData(data []byte) *Script {
	n := len(data)
	switch {
	case n <= 0x4b:
		s.raw = append(s.raw, byte(n))
	case n <= 0xff:
		s.raw = append(s.raw, OP_PUSHDATA1, byte(n))
	case n <= 0xffff:
		s.raw = append(s.raw, OP_PUSHDATA2)
		s.raw = binary.LittleEndian.AppendUint16(s.raw, uint16(n))
	default:
		s.raw = append(s.raw, OP_PUSHDATA4)
		s.raw = binary.LittleEndian.AppendUint32(s.raw, uint32(n))
	}
	s.raw = append(s.raw, data...)
	return s
}

// PushInt appends the minimal push of an integer: OP_1NEGATE and OP_0..OP_16
// when in range, a pushdata of the number encoding otherwise.
func (s *Script) PushInt(n *big.Int) *Script {
	if n.IsInt64() {
		v := n.Int64()
		if v == -1 {
			return s.PushOp(OP_1NEGATE)
		}
		if v >= 0 && v <= 16 {
			if v == 0 {
				return s.PushOp(OP_0)
			}
			return s.PushOp(OP_1 + byte(v-1))
		}
	}
	return s.PushData(EncodeNum(n))
}

// PushInt64 is PushInt for native integers.
func (s *Script) PushInt64(n int64) *Script {
	return s.PushInt(big.NewInt(n))
}

// Append appends another script.
func (s *Script) Append(others ...Script) *Script {
	for _, o := range others {
		s.raw = append(s.raw, o.raw...)
	}
	return s
}

// Concat returns the concatenation of scripts as a new script.
func Concat(scripts ...Script) Script {
	var out Script
	out.Append(scripts...)
	return out
}

// Bytes returns a copy of the serialized script.
func (s Script) Bytes() []byte {
	out := make([]byte, len(s.raw))
	copy(out, s.raw)
	return out
}

// Len returns the serialized byte length of the script.
func (s Script) Len() int {
	return len(s.raw)
}

// Equal reports whether two scripts are byte-identical.
func (s Script) Equal(other Script) bool {
	return string(s.raw) == string(other.raw)
}

// String renders the script in ASM form: opcode names and 0x-prefixed hex
// pushes.
func (s Script) String() string {
	var sb strings.Builder
	i := 0
	for i < len(s.raw) {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		op := s.raw[i]
		data, next, err := readPush(s.raw, i)
		switch {
		case err != nil:
			sb.WriteString("[malformed]")
			return sb.String()
		case data != nil:
			sb.WriteString("0x")
			sb.WriteString(hex.EncodeToString(data))
			i = next
		default:
			if name := opcodeNames[op]; name != "" {
				sb.WriteString(name)
			} else {
				fmt.Fprintf(&sb, "OP_UNKNOWN(0x%02x)", op)
			}
			i++
		}
	}
	return sb.String()
}

// readPush decodes a push operation starting at offset i. It returns the
// pushed data and the offset of the next instruction, or (nil, i, nil) when
// the byte at i is not a data push. OP_0 is treated as an opcode, not a push.
func readPush(raw []byte, i int) ([]byte, int, error) {
	op := raw[i]
	var n, hdr int
	switch {
	case op >= 0x01 && op <= 0x4b:
		n, hdr = int(op), 1
	case op == OP_PUSHDATA1:
		if i+1 >= len(raw) {
			return nil, i, errors.New("truncated OP_PUSHDATA1")
		}
		n, hdr = int(raw[i+1]), 2
	case op == OP_PUSHDATA2:
		if i+2 >= len(raw) {
			return nil, i, errors.New("truncated OP_PUSHDATA2")
		}
		n, hdr = int(binary.LittleEndian.Uint16(raw[i+1:])), 3
	case op == OP_PUSHDATA4:
		if i+4 >= len(raw) {
			return nil, i, errors.New("truncated OP_PUSHDATA4")
		}
		n, hdr = int(binary.LittleEndian.Uint32(raw[i+1:])), 5
	default:
		return nil, i, nil
	}
	if i+hdr+n > len(raw) {
		return nil, i, errors.New("truncated push data")
	}
	data := raw[i+hdr : i+hdr+n]
	if n == 0 {
		data = []byte{}
	}
	return data, i + hdr + n, nil
}

// ParseString builds a script from its ASM form. Tokens are opcode names,
// 0x-prefixed hex pushes, or decimal integers (pushed minimally). An empty
// string yields an empty script.
func ParseString(asm string) (Script, error) {
	out := New()
	for _, tok := range strings.Fields(asm) {
		switch {
		case strings.HasPrefix(tok, "0x"):
			data, err := hex.DecodeString(tok[2:])
			if err != nil {
				return Script{}, fmt.Errorf("invalid hex push %q: %w", tok, err)
			}
			out.PushData(data)
		default:
			if op, ok := opcodeValues[tok]; ok {
				out.PushOp(op)
				continue
			}
			n, ok := new(big.Int).SetString(tok, 10)
			if !ok {
				return Script{}, fmt.Errorf("unknown token %q", tok)
			}
			out.PushInt(n)
		}
	}
	return out, nil
}

// MustParse is ParseString, panicking on malformed input. For fixed script
// fragments known at compile time.
func MustParse(asm string) Script {
	out, err := ParseString(asm)
	if err != nil {
		panic(err)
	}
	return out
}
