package script

import "math/big"

// EncodeNum encodes an integer with the Bitcoin number encoding:
// little-endian magnitude, sign carried by the high bit of the last byte.
// Zero encodes to the empty string.
func EncodeNum(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{}
	}
	mag := new(big.Int).Abs(n).Bytes() // big-endian
	out := make([]byte, len(mag))
	for i, b := range mag {
		out[len(mag)-1-i] = b
	}
	if out[len(out)-1]&0x80 != 0 {
		if n.Sign() < 0 {
			out = append(out, 0x80)
		} else {
			out = append(out, 0x00)
		}
	} else if n.Sign() < 0 {
		out[len(out)-1] |= 0x80
	}
	return out
}

// DecodeNum decodes a Bitcoin-encoded number. The empty string decodes to 0.
// Non-minimal encodings are accepted, matching interpreter behavior after
// OP_NUM2BIN round trips.
func DecodeNum(data []byte) *big.Int {
	if len(data) == 0 {
		return new(big.Int)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	negative := buf[len(buf)-1]&0x80 != 0
	buf[len(buf)-1] &= 0x7f
	// back to big-endian
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	out := new(big.Int).SetBytes(buf)
	if negative {
		out.Neg(out)
	}
	return out
}
