package gdbstub

// registerByteRange returns the byte offset and width (in bytes) of
// register idx within the concatenated register-file layout ReadRegisters/
// WriteRegisters use, per spec.md §3's Register Scratch Buffer.
func registerByteRange(regs []RegisterInfo, idx int) (offset, size int) {
	for i := 0; i < idx; i++ {
		offset += regs[i].BitWidth / 8
	}
	return offset, regs[idx].BitWidth / 8
}

func totalRegisterBytes(regs []RegisterInfo) int {
	total := 0
	for _, r := range regs {
		total += r.BitWidth / 8
	}
	return total
}

// dispatch parses a framed body (body[0] is the command letter),
// drives the Target through the appropriate operation, and returns the
// reply body to send plus whether any reply should be sent at all.
// The dispatcher never retries. Branches that send a reply report
// target-adapter failures via E NN; `c`, `R` and `k` send no reply, so
// a failure there is only logged.
func (s *Session) dispatch(body []byte) (reply []byte, send bool) {
	if len(body) == 0 {
		return nil, true
	}

	switch body[0] {
	case '!':
		return s.cmdEnableExtended()
	case '?':
		return ReplyStop(), true
	case 'c':
		return s.cmdContinue()
	case 's':
		return s.cmdStep()
	case 'g':
		return s.cmdReadAllRegisters()
	case 'G':
		return s.cmdWriteAllRegisters(body)
	case 'm':
		return s.cmdReadMemory(body)
	case 'M':
		return s.cmdWriteMemory(body)
	case 'p':
		return s.cmdReadRegister(body)
	case 'P':
		return s.cmdWriteRegister(body)
	case 'z', 'Z':
		return s.dispatchTracepoint(body)
	case 'q', 'Q':
		return s.dispatchQuery(body)
	case 'v':
		return s.dispatchVerb(body)
	case 'R':
		return s.cmdRestart()
	case 'k':
		return s.cmdKill()
	default:
		return ReplyEmpty(), true
	}
}

func (s *Session) cmdEnableExtended() ([]byte, bool) {
	if _, ok := s.target.(Restarter); !ok {
		return ReplyEmpty(), true
	}
	s.extendedMode = true
	return ReplyOK(), true
}

func (s *Session) cmdContinue() ([]byte, bool) {
	if err := s.target.Continue(); err != nil {
		s.logger.WithError(err).Warn("target.Continue failed")
	}
	s.lastState = StateRunning
	return nil, false
}

func (s *Session) cmdStep() ([]byte, bool) {
	if err := s.target.Step(); err != nil {
		return ReplyErr(StatusInternal), true
	}
	s.lastState = s.target.State()
	return ReplyStop(), true
}

func (s *Session) cmdReadAllRegisters() ([]byte, bool) {
	regs := s.target.Registers()
	if err := s.target.ReadRegisters(s.regIndex, s.regScratch); err != nil {
		return ReplyErr(StatusInternal), true
	}
	s.reply.Reset()
	s.reply.WriteHex(s.regScratch[:totalRegisterBytes(regs)])
	return s.reply.Body(), true
}

func (s *Session) cmdWriteAllRegisters(body []byte) ([]byte, bool) {
	regs := s.target.Registers()
	data, err := hexDecode(body[1:])
	if err != nil || len(data) != totalRegisterBytes(regs) {
		return ReplyErr(StatusProtocolViolation), true
	}
	if err := s.target.WriteRegisters(s.regIndex, data); err != nil {
		return ReplyErr(StatusInternal), true
	}
	return ReplyOK(), true
}

func (s *Session) cmdReadRegister(body []byte) ([]byte, bool) {
	idx, _, err := parseHexUint[uint](body, 1)
	regs := s.target.Registers()
	if err != nil || int(idx) >= len(regs) {
		return ReplyErr(StatusProtocolViolation), true
	}
	_, size := registerByteRange(regs, int(idx))
	buf := make([]byte, size)
	if err := s.target.ReadRegisters([]int{int(idx)}, buf); err != nil {
		return ReplyErr(StatusInternal), true
	}
	s.reply.Reset()
	s.reply.WriteHex(buf)
	return s.reply.Body(), true
}

func (s *Session) cmdWriteRegister(body []byte) ([]byte, bool) {
	idx, next, err := parseHexUint[uint](body, 1)
	regs := s.target.Registers()
	if err != nil || int(idx) >= len(regs) || next >= len(body) || body[next] != '=' {
		return ReplyErr(StatusProtocolViolation), true
	}
	_, size := registerByteRange(regs, int(idx))
	data, err := hexDecode(body[next+1:])
	if err != nil || len(data) != size {
		return ReplyErr(StatusProtocolViolation), true
	}
	if err := s.target.WriteRegisters([]int{int(idx)}, data); err != nil {
		return ReplyErr(StatusInternal), true
	}
	return ReplyOK(), true
}

// memoryReadChunk bounds each Target.ReadMemory call, per spec.md
// §4.2's "streamed in 1 KiB chunks". Each chunk's hex is appended to
// the Reply Builder via WriteHex, which grows the destination by the
// encoded (doubled) length automatically — the cursor-advance bug
// spec.md §9 flags (advancing by raw length instead of encoded length)
// cannot occur here because there is no separate cursor to miscount.
const memoryReadChunk = 1024

func (s *Session) cmdReadMemory(body []byte) ([]byte, bool) {
	addr, next, err := parseHexUint[uint64](body, 1)
	if err != nil || next >= len(body) || body[next] != ',' {
		return ReplyErr(StatusProtocolViolation), true
	}
	length, _, err := parseHexUint[uint64](body, next+1)
	if err != nil {
		return ReplyErr(StatusProtocolViolation), true
	}

	s.reply.Reset()
	buf := make([]byte, memoryReadChunk)
	remaining := length
	for remaining > 0 {
		n := uint64(memoryReadChunk)
		if remaining < n {
			n = remaining
		}
		chunk := buf[:n]
		if err := s.target.ReadMemory(addr, chunk); err != nil {
			return ReplyErr(StatusInternal), true
		}
		s.reply.WriteHex(chunk)
		addr += n
		remaining -= n
	}
	return s.reply.Body(), true
}

func (s *Session) cmdWriteMemory(body []byte) ([]byte, bool) {
	addr, next, err := parseHexUint[uint64](body, 1)
	if err != nil || next >= len(body) || body[next] != ',' {
		return ReplyErr(StatusProtocolViolation), true
	}
	length, next2, err := parseHexUint[uint64](body, next+1)
	if err != nil || next2 >= len(body) || body[next2] != ':' {
		return ReplyErr(StatusProtocolViolation), true
	}
	data, err := hexDecode(body[next2+1:])
	if err != nil || uint64(len(data)) != length {
		return ReplyErr(StatusProtocolViolation), true
	}
	if err := s.target.WriteMemory(addr, data); err != nil {
		return ReplyErr(StatusInternal), true
	}
	return ReplyOK(), true
}

func (s *Session) cmdRestart() ([]byte, bool) {
	restarter, ok := s.target.(Restarter)
	if !s.extendedMode || !ok {
		return ReplyEmpty(), true
	}
	if err := restarter.Restart(); err != nil {
		s.logger.WithError(err).Warn("target.Restart failed")
	}
	s.lastState = s.target.State()
	return nil, false
}

func (s *Session) cmdKill() ([]byte, bool) {
	if killer, ok := s.target.(Killer); ok {
		if err := killer.Kill(); err != nil {
			s.logger.WithError(err).Warn("target.Kill failed")
		}
	}
	return nil, false
}
