package gdbstub

// dispatchTracepoint implements the `z`/`Z` commands of spec.md §4.2:
// `Z<kind>,<addr>,<size>` sets and `z<kind>,<addr>,<size>` clears a
// tracepoint, via the optional Tracepointer capability. A Target that
// does not implement Tracepointer causes every `z`/`Z` packet to reply
// empty ("not supported").
func (s *Session) dispatchTracepoint(body []byte) ([]byte, bool) {
	tp, ok := s.target.(Tracepointer)
	if !ok {
		return ReplyEmpty(), true
	}
	if len(body) < 3 || body[2] != ',' {
		return ReplyErr(StatusProtocolViolation), true
	}
	if body[1] < '0' || body[1] > '4' {
		return ReplyErr(StatusProtocolViolation), true
	}
	kind := TracepointKind(body[1] - '0')

	addr, next, err := parseHexUint[uint64](body, 3)
	if err != nil || next >= len(body) || body[next] != ',' {
		return ReplyErr(StatusProtocolViolation), true
	}
	size, _, err := parseHexUint[uint64](body, next+1)
	if err != nil {
		return ReplyErr(StatusProtocolViolation), true
	}

	var opErr error
	if body[0] == 'Z' {
		opErr = tp.SetTracepoint(addr, kind, int(size))
	} else {
		opErr = tp.ClearTracepoint(addr, kind, int(size))
	}
	if opErr != nil {
		return ReplyErr(StatusInternal), true
	}
	return ReplyOK(), true
}
