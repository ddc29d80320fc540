package gdbstub

import (
	"bytes"
	"testing"
)

func TestFramerAcceptsValidChecksum(t *testing.T) {
	f := NewFramer()

	var acks []bool
	var accepted [][]byte
	f.Ack = func(ok bool) { acks = append(acks, ok) }
	f.OnAccepted = func(body []byte) { accepted = append(accepted, append([]byte(nil), body...)) }

	f.Feed([]byte("$g#67"))

	if len(acks) != 1 || !acks[0] {
		t.Fatalf("expected a single positive ack, got %v", acks)
	}
	if len(accepted) != 1 || string(accepted[0]) != "g" {
		t.Fatalf("expected accepted body %q, got %v", "g", accepted)
	}
}

// Scenario 4 of spec.md §8: a bad checksum NACKs and never dispatches.
func TestFramerRejectsBadChecksum(t *testing.T) {
	f := NewFramer()

	var acks []bool
	dispatched := false
	f.Ack = func(ok bool) { acks = append(acks, ok) }
	f.OnAccepted = func(body []byte) { dispatched = true }

	f.Feed([]byte("$g#00"))

	if len(acks) != 1 || acks[0] {
		t.Fatalf("expected a single negative ack, got %v", acks)
	}
	if dispatched {
		t.Fatal("dispatcher must not run on checksum mismatch")
	}
}

func TestFramerInterrupt(t *testing.T) {
	f := NewFramer()

	interrupts := 0
	f.OnInterrupt = func() { interrupts++ }

	f.Feed([]byte{0x03})

	if interrupts != 1 {
		t.Fatalf("expected exactly one interrupt callback, got %d", interrupts)
	}
}

func TestFramerResetStartsFreshPacket(t *testing.T) {
	f := NewFramer()

	var accepted [][]byte
	f.OnAccepted = func(body []byte) { accepted = append(accepted, append([]byte(nil), body...)) }

	f.Feed([]byte("$abc"))
	f.Reset()
	f.Feed([]byte("$g#67"))

	if len(accepted) != 1 || string(accepted[0]) != "g" {
		t.Fatalf("expected Reset to discard the partial packet, got %v", accepted)
	}
}

func TestFramerSplitAcrossFeedCalls(t *testing.T) {
	f := NewFramer()

	var accepted [][]byte
	f.OnAccepted = func(body []byte) { accepted = append(accepted, append([]byte(nil), body...)) }

	packet := []byte("$g#67")
	for _, b := range packet {
		f.Feed([]byte{b})
	}

	if len(accepted) != 1 || string(accepted[0]) != "g" {
		t.Fatalf("expected one accepted body across split feeds, got %v", accepted)
	}
}

func TestFramerBufferGrowsBeyondInitialCapacity(t *testing.T) {
	f := NewFramer()

	body := bytes.Repeat([]byte("A"), 1024)
	var sum uint8
	for _, b := range body {
		sum += b
	}

	var accepted []byte
	f.OnAccepted = func(b []byte) { accepted = append([]byte(nil), b...) }

	packet := append([]byte("$"), body...)
	packet = append(packet, '#')
	packet = appendHexUpper(packet, []byte{sum})
	f.Feed(packet)

	if string(accepted) != string(body) {
		t.Fatalf("expected large body to round-trip, got %d bytes", len(accepted))
	}
}
