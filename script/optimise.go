package script

import "strings"

// peephole cancellation patterns, applied over the ASM token stream until a
// fixed point is reached at every append.
var optimisePatterns = []struct {
	match       []string
	replacement []string
}{
	{[]string{"OP_TOALTSTACK", "OP_FROMALTSTACK"}, nil},
	{[]string{"OP_FROMALTSTACK", "OP_TOALTSTACK"}, nil},
	{[]string{"OP_ROT", "OP_ROT", "OP_ROT"}, nil},
	{[]string{"OP_SWAP", "OP_ADD"}, []string{"OP_ADD"}},
	{[]string{"OP_SWAP", "OP_MUL"}, []string{"OP_MUL"}},
	{[]string{"OP_SWAP", "OP_SUB", "OP_NEGATE"}, []string{"OP_SUB"}},
}

// Optimise removes operation sequences that cancel out, such as
// OP_TOALTSTACK OP_FROMALTSTACK pairs left behind by generator composition.
func Optimise(s Script) Script {
	tokens := strings.Fields(s.String())
	out := make([]string, 0, len(tokens))

	for _, tok := range tokens {
		out = append(out, tok)
	retry:
		for _, p := range optimisePatterns {
			n := len(p.match)
			if len(out) < n {
				continue
			}
			matched := true
			for i := 0; i < n; i++ {
				if out[len(out)-n+i] != p.match[i] {
					matched = false
					break
				}
			}
			if matched {
				out = out[:len(out)-n]
				out = append(out, p.replacement...)
				goto retry
			}
		}
	}

	return MustParse(strings.Join(out, " "))
}
