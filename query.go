package gdbstub

import (
	"strconv"
	"strings"
)

// queryEntry is one row of the `q`/`Q` sub-dispatch table.
type queryEntry struct {
	Prefix string
	Handle func(s *Session, rest string) ([]byte, bool)
}

// queryTable is hand-sorted longest-prefix-first, per spec.md §9's
// design note: a later, shorter entry must never shadow an earlier,
// longer one. init() below asserts the ordering instead of trusting it.
var queryTable = []queryEntry{
	{"qXfer:features:read:", (*Session).handleQXferFeatures},
	{"qSupported:", func(s *Session, rest string) ([]byte, bool) { return s.handleQSupported(rest), true }},
	{"qSupported", func(s *Session, rest string) ([]byte, bool) { return s.handleQSupported(rest), true }},
	{"qTStatus", func(s *Session, rest string) ([]byte, bool) { return []byte("T0"), true }},
	{"qRcmd,", (*Session).handleQRcmd},
}

func init() {
	for i := 1; i < len(queryTable); i++ {
		if len(queryTable[i].Prefix) > len(queryTable[i-1].Prefix) {
			panic("gdbstub: queryTable entries must be sorted longest-prefix-first")
		}
	}
}

// dispatchQuery handles a `q`/`Q` packet by longest-prefix match against
// queryTable, falling back to the standard "unsupported" empty reply.
func (s *Session) dispatchQuery(body []byte) ([]byte, bool) {
	str := string(body)
	for _, e := range queryTable {
		if strings.HasPrefix(str, e.Prefix) {
			return e.Handle(s, str[len(e.Prefix):])
		}
	}
	return ReplyEmpty(), true
}

// handleQXferFeatures implements `qXfer:features:read:ANNEX:OFFSET,LENGTH`
// per spec.md §4.2/§4.3: only the `target.xml` annex is recognized, and
// the reply is prefixed `m` (more data follows) or `l` (this is the last
// chunk), matching the GDB qXfer chunk-transfer convention.
func (s *Session) handleQXferFeatures(rest string) ([]byte, bool) {
	if !s.features.Has(FeatureTargetDescRead) {
		return ReplyEmpty(), true
	}

	annex, tail, ok := strings.Cut(rest, ":")
	if !ok {
		return ReplyErr(StatusProtocolViolation), true
	}
	if annex != "target.xml" {
		return ReplyErr(StatusNotFound), true
	}

	offStr, lenStr, ok := strings.Cut(tail, ",")
	if !ok {
		return ReplyErr(StatusProtocolViolation), true
	}
	offset, err := strconv.ParseUint(offStr, 16, 64)
	if err != nil {
		return ReplyErr(StatusProtocolViolation), true
	}
	length, err := strconv.ParseUint(lenStr, 16, 64)
	if err != nil {
		return ReplyErr(StatusProtocolViolation), true
	}

	xml := s.targetDescriptionXML()
	start := int(offset)
	if start > len(xml) {
		start = len(xml)
	}
	end := start + int(length)
	if end > len(xml) {
		end = len(xml)
	}

	s.reply.Reset()
	if end >= len(xml) {
		s.reply.WriteByte('l')
	} else {
		s.reply.WriteByte('m')
	}
	s.reply.WriteString(string(xml[start:end]))
	return s.reply.Body(), true
}

// handleQRcmd implements `qRcmd,<hex>`: decode the hex payload into a
// monitor command name and arguments, run it against the Monitor Output
// Context, and reply with the hex-encoded output (or OK if it wrote
// nothing), per spec.md §4.5. An unknown command name replies with the
// StatusNotFound `E NN` error.
func (s *Session) handleQRcmd(rest string) ([]byte, bool) {
	decoded, err := hexDecode([]byte(rest))
	if err != nil {
		return ReplyErr(StatusProtocolViolation), true
	}

	name, args := splitMonitorCommand(decoded)
	fn, ok := s.monitorCommands[name]
	if !ok {
		return ReplyErr(StatusNotFound), true
	}

	s.monitor.Reset()
	if err := fn(&s.monitor, args); err != nil {
		return ReplyErr(StatusInternal), true
	}

	out := s.monitor.Bytes()
	if len(out) == 0 {
		return ReplyOK(), true
	}
	s.reply.Reset()
	s.reply.WriteHex(out)
	return s.reply.Body(), true
}
