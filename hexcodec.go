package gdbstub

import (
	"encoding/hex"

	"golang.org/x/exp/constraints"
)

// hexEncode renders data as uppercase hex, high nibble first, into a
// freshly allocated byte slice. encoding/hex emits lowercase, so the
// output is upper-cased afterward to match spec.md §4.4's "uppercase"
// requirement for checksum digits and register/memory dumps alike.
func hexEncode(data []byte) []byte {
	out := make([]byte, hex.EncodedLen(len(data)))
	hex.Encode(out, data)
	upperInPlace(out)
	return out
}

// appendHexUpper appends the uppercase hex encoding of data to dst,
// growing dst as needed, and returns the result. It is the allocation-
// avoiding counterpart of hexEncode used by the Reply Builder's scratch
// buffer.
func appendHexUpper(dst, data []byte) []byte {
	start := len(dst)
	need := hex.EncodedLen(len(data))
	if cap(dst)-start < need {
		grown := make([]byte, start, growCapacity(cap(dst), start+need))
		copy(grown, dst)
		dst = grown
	}
	dst = dst[:start+need]
	hex.Encode(dst[start:], data)
	upperInPlace(dst[start:])
	return dst
}

func upperInPlace(b []byte) {
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
}

// hexDecode decodes a hex string (accepting both cases, per spec.md
// §4.4) into bytes.
func hexDecode(data []byte) ([]byte, error) {
	out := make([]byte, hex.DecodedLen(len(data)))
	n, err := hex.Decode(out, data)
	if err != nil {
		return nil, NewStubError("hexDecode", StatusProtocolViolation, err)
	}
	return out[:n], nil
}

// growCapacity doubles cur until it is at least need, mirroring the
// Packet Buffer's "doubling-adjacent reallocation" growth policy from
// spec.md §4.1.
func growCapacity(cur, need int) int {
	if cur == 0 {
		cur = 64
	}
	for cur < need {
		cur *= 2
	}
	return cur
}

// hexDigitValue reports the numeric value of a single ASCII hex digit,
// accepting both cases.
func hexDigitValue(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}

// isTerminator reports whether c is one of the operand terminators
// spec.md §4.2 names: `,`, `:`, `=`, `;`, or the end of the body.
func isTerminator(c byte) bool {
	switch c {
	case ',', ':', '=', ';':
		return true
	default:
		return false
	}
}

// parseHexUint parses big-endian hex digits from data starting at
// offset until a terminator character or the end of data, generic over
// any unsigned integer width so the same scan loop serves addresses,
// lengths and register indices (spec.md §4.2's "numeric operands are
// big-endian hex ... terminated by ...", generalized per
// uni7corn-microdbg's use of golang.org/x/exp/constraints for
// width-independent numeric helpers). It returns the parsed value and
// the offset of the terminator (or len(data) if none was found).
func parseHexUint[T constraints.Unsigned](data []byte, offset int) (T, int, error) {
	start := offset
	var acc T
	for offset < len(data) {
		c := data[offset]
		if isTerminator(c) {
			break
		}
		v, ok := hexDigitValue(c)
		if !ok {
			return 0, offset, NewStubError("parseHexUint", StatusProtocolViolation, nil)
		}
		acc = acc*16 + T(v)
		offset++
	}
	if offset == start {
		return 0, offset, NewStubError("parseHexUint", StatusProtocolViolation, nil)
	}
	return acc, offset, nil
}

// Escape RSP-escapes $, #, *, and } within a binary payload: each is
// replaced by } followed by the byte XOR 0x20. No in-scope command uses
// raw binary payloads (spec.md's command table is entirely hex-encoded),
// so the core dispatcher never calls this; it is exported for embedders
// that add binary (`X`) packet support on top of this module.
func Escape(in []byte) []byte {
	out := make([]byte, 0, len(in))
	for _, b := range in {
		if b == '$' || b == '#' || b == '*' || b == '}' {
			out = append(out, '}', b^0x20)
		} else {
			out = append(out, b)
		}
	}
	return out
}

// Unescape reverses Escape.
func Unescape(in []byte) ([]byte, error) {
	out := make([]byte, 0, len(in))
	for i := 0; i < len(in); i++ {
		if in[i] == '}' {
			if i+1 >= len(in) {
				return nil, NewStubError("Unescape", StatusProtocolViolation, nil)
			}
			i++
			out = append(out, in[i]^0x20)
		} else {
			out = append(out, in[i])
		}
	}
	return out, nil
}
