package gdbstub

import (
	"bytes"
	"testing"
)

// Invariant 3 of spec.md §8: decode(encode(B)) == B for all byte
// sequences B.
func TestHexRoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		{0x00},
		{0xFF},
		{0x11, 0x22, 0x33, 0x44},
		bytes.Repeat([]byte{0xAB}, 300),
	}
	for _, b := range cases {
		encoded := hexEncode(b)
		decoded, err := hexDecode(encoded)
		if err != nil {
			t.Fatalf("hexDecode(%x) failed: %v", encoded, err)
		}
		if !bytes.Equal(decoded, b) {
			t.Fatalf("round trip mismatch: got %x, want %x", decoded, b)
		}
	}
}

func TestHexEncodeIsUppercase(t *testing.T) {
	got := string(hexEncode([]byte{0xAB, 0xCD}))
	if got != "ABCD" {
		t.Fatalf("hexEncode = %q, want ABCD", got)
	}
}

func TestHexDecodeAcceptsBothCases(t *testing.T) {
	got, err := hexDecode([]byte("aAbB"))
	if err != nil {
		t.Fatalf("hexDecode failed: %v", err)
	}
	if !bytes.Equal(got, []byte{0xAA, 0xBB}) {
		t.Fatalf("hexDecode(aAbB) = %x, want aabb", got)
	}
}

func TestAppendHexUpperGrowsPastInitialCapacity(t *testing.T) {
	dst := make([]byte, 0, 2)
	dst = appendHexUpper(dst, bytes.Repeat([]byte{0x11}, 100))
	if len(dst) != 200 {
		t.Fatalf("expected 200 hex digits, got %d", len(dst))
	}
}

func TestParseHexUintStopsAtTerminator(t *testing.T) {
	v, next, err := parseHexUint[uint64]([]byte("1000,2"), 0)
	if err != nil {
		t.Fatalf("parseHexUint failed: %v", err)
	}
	if v != 0x1000 {
		t.Fatalf("parsed value = %#x, want 0x1000", v)
	}
	if next != 4 {
		t.Fatalf("terminator offset = %d, want 4", next)
	}
}

func TestParseHexUintStopsAtEndOfData(t *testing.T) {
	v, next, err := parseHexUint[uint]([]byte("67"), 0)
	if err != nil {
		t.Fatalf("parseHexUint failed: %v", err)
	}
	if v != 0x67 || next != 2 {
		t.Fatalf("got v=%#x next=%d, want v=0x67 next=2", v, next)
	}
}

func TestParseHexUintRejectsInvalidDigit(t *testing.T) {
	if _, _, err := parseHexUint[uint64]([]byte("1g00"), 0); err == nil {
		t.Fatal("expected an error for a non-hex digit")
	}
}

func TestParseHexUintRejectsEmptyOperand(t *testing.T) {
	if _, _, err := parseHexUint[uint64]([]byte(","), 0); err == nil {
		t.Fatal("expected an error for an operand with zero digits")
	}
}

// Escape/Unescape back the binary (X-packet) extension point spec.md
// §4.1 describes but that no in-scope command uses; exercised directly
// here rather than via the dispatcher.
func TestEscapeUnescapeRoundTrip(t *testing.T) {
	raw := []byte{'$', '#', '*', '}', 0x20, 0x00, 0xFF}
	escaped := Escape(raw)
	// '}' is itself the escape marker, so it legitimately appears in the
	// output; only '$', '#' and '*' must be gone entirely.
	for _, b := range []byte{'$', '#', '*'} {
		if bytes.IndexByte(escaped, b) != -1 {
			t.Fatalf("escaped payload still contains raw special byte %q: %x", b, escaped)
		}
	}
	wantEscaped := []byte{'}', '$' ^ 0x20, '}', '#' ^ 0x20, '}', '*' ^ 0x20, '}', '}' ^ 0x20, 0x20, 0x00, 0xFF}
	if !bytes.Equal(escaped, wantEscaped) {
		t.Fatalf("Escape = %x, want %x", escaped, wantEscaped)
	}
	unescaped, err := Unescape(escaped)
	if err != nil {
		t.Fatalf("Unescape failed: %v", err)
	}
	if !bytes.Equal(unescaped, raw) {
		t.Fatalf("round trip mismatch: got %x, want %x", unescaped, raw)
	}
}

func TestUnescapeRejectsTrailingMarker(t *testing.T) {
	if _, err := Unescape([]byte{'a', '}'}); err == nil {
		t.Fatal("expected an error for a trailing, unterminated escape marker")
	}
}
