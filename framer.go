package gdbstub

// receiveState is the Packet Framer's three-state machine, per
// spec.md §3 and §4.1.
type receiveState int

const (
	stateWaitForStart receiveState = iota
	stateReceiveBody
	stateReceiveChecksum
)

// Framer locates `$...#cc` frames in an arbitrary byte stream, verifies
// the modulo-256 additive checksum, and reports the out-of-band 0x03
// interrupt. It never buffers more than the current in-flight packet;
// the Packet Buffer's capacity is retained between packets and grows
// on demand (spec.md §4.1).
//
// Framer does not own a Transport: the caller feeds it bytes via Feed
// and receives callbacks for interrupts and accepted/rejected frames.
// This keeps the state machine testable without a real connection,
// matching how BertoldVdb-go-gdb's rawRecvPacket inlines the same
// switch but couples it directly to net.Conn; this module separates the
// two so the framer's invariants (spec.md §8, properties 1, 4, 5) can
// be tested in isolation.
type Framer struct {
	buf         []byte
	writeOffset int
	state       receiveState
	bodyLen     int
	sum         uint8

	checksumDigits [2]byte
	checksumIdx    int

	// OnInterrupt is invoked when a 0x03 byte is seen outside a frame.
	OnInterrupt func()

	// OnAccepted is invoked with the validated packet body (the bytes
	// strictly between `$` and `#`) once its checksum matches. The body
	// slice aliases the Framer's internal buffer and is only valid until
	// the next Feed call.
	OnAccepted func(body []byte)

	// OnRejected is invoked when a packet's checksum does not match.
	// Framer has already decided to NACK; OnRejected exists purely for
	// observability (logging/metrics), not to influence the NACK.
	OnRejected func()

	// Ack is invoked exactly once per complete packet, before
	// OnAccepted/OnRejected, with true for a checksum match and false
	// otherwise — matching spec.md §5's ordering guarantee (c): "the
	// +/- ack is emitted strictly before the dispatcher runs".
	Ack func(ok bool)
}

// NewFramer constructs a Framer with its Packet Buffer ready for use.
func NewFramer() *Framer {
	return &Framer{buf: make([]byte, 0, 256)}
}

// Reset returns the framer to WaitForStart without freeing the Packet
// Buffer, per spec.md §6's Reset operation and invariant 5 from §8: the
// next `$` strictly starts a new packet regardless of prior state.
func (f *Framer) Reset() {
	f.state = stateWaitForStart
	f.writeOffset = 0
	f.bodyLen = 0
	f.sum = 0
	f.checksumIdx = 0
}

// Feed processes every byte of data before returning, per spec.md
// §4.1: "a single byte may advance the state more than once per outer
// receive loop; the framer processes every byte handed to it before
// returning."
func (f *Framer) Feed(data []byte) {
	for _, b := range data {
		f.feedByte(b)
	}
}

func (f *Framer) feedByte(b byte) {
	switch f.state {
	case stateWaitForStart:
		switch {
		case b == '$':
			f.writeOffset = 0
			f.sum = 0
			f.state = stateReceiveBody
		case b == 0x03:
			if f.OnInterrupt != nil {
				f.OnInterrupt()
			}
		default:
			// Discard; WaitForStart never buffers.
		}

	case stateReceiveBody:
		if b == '#' {
			f.bodyLen = f.writeOffset
			f.checksumIdx = 0
			f.state = stateReceiveChecksum
			return
		}
		f.appendBody(b)
		f.sum += b

	case stateReceiveChecksum:
		f.checksumDigits[f.checksumIdx] = b
		f.checksumIdx++
		if f.checksumIdx < 2 {
			return
		}
		f.completeChecksum()
	}
}

func (f *Framer) appendBody(b byte) {
	if f.writeOffset >= cap(f.buf) {
		grown := make([]byte, cap(f.buf), growCapacity(cap(f.buf), f.writeOffset+1))
		copy(grown, f.buf)
		f.buf = grown
	}
	if f.writeOffset >= len(f.buf) {
		f.buf = f.buf[:f.writeOffset+1]
	}
	f.buf[f.writeOffset] = b
	f.writeOffset++
}

func (f *Framer) completeChecksum() {
	hi, okHi := hexDigitValue(f.checksumDigits[0])
	lo, okLo := hexDigitValue(f.checksumDigits[1])
	ok := okHi && okLo && uint8(hi<<4|lo) == f.sum

	if f.Ack != nil {
		f.Ack(ok)
	}
	if ok {
		if f.OnAccepted != nil {
			f.OnAccepted(f.buf[:f.bodyLen])
		}
	} else if f.OnRejected != nil {
		f.OnRejected()
	}

	f.Reset()
}
