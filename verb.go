package gdbstub

import "strings"

// dispatchVerb implements the `v` sub-dispatch of spec.md §4.2:
// `vCont?` reports the supported actions, and `vCont;ACTION[:tid]...`
// runs the first action against the Target (thread IDs are accepted
// syntactically and ignored, per spec.md §1's Non-goals on multi-thread
// support).
func (s *Session) dispatchVerb(body []byte) ([]byte, bool) {
	str := string(body)
	switch {
	case str == "vCont?":
		return []byte("vCont;s;c;t"), true
	case strings.HasPrefix(str, "vCont;"):
		return s.handleVCont(str[len("vCont;"):])
	default:
		return ReplyEmpty(), true
	}
}

func (s *Session) handleVCont(rest string) ([]byte, bool) {
	first := rest
	if i := strings.IndexByte(rest, ';'); i >= 0 {
		first = rest[:i]
	}
	action, _, _ := strings.Cut(first, ":")

	switch action {
	case "c":
		return s.cmdContinue()
	case "s":
		return s.cmdStep()
	case "t":
		if err := s.target.Stop(); err != nil {
			s.logger.WithError(err).Warn("target.Stop failed on vCont;t")
		}
		s.lastState = StateStopped
		return ReplyStop(), true
	default:
		return ReplyEmpty(), true
	}
}
