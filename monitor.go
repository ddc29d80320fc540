package gdbstub

import (
	"fmt"
	"strings"
)

// monitorCapacity is the fixed scratch buffer size from spec.md §4.5.
const monitorCapacity = 512

// MonitorOutput is the fixed-capacity scratch buffer exposed to
// qRcmd/monitor command callbacks. Output beyond capacity is silently
// truncated, per spec.md §4.5.
type MonitorOutput struct {
	buf [monitorCapacity]byte
	n   int
}

// Reset clears the buffer for the next qRcmd invocation.
func (m *MonitorOutput) Reset() {
	m.n = 0
}

// Bytes returns the bytes written so far.
func (m *MonitorOutput) Bytes() []byte {
	return m.buf[:m.n]
}

// Write implements io.Writer, truncating silently once capacity is
// reached, so callbacks may use fmt.Fprintf(m, ...) directly.
func (m *MonitorOutput) Write(p []byte) (int, error) {
	room := len(m.buf) - m.n
	if room <= 0 {
		return len(p), nil
	}
	if len(p) > room {
		p = p[:room]
	}
	copy(m.buf[m.n:], p)
	m.n += len(p)
	return len(p), nil
}

// Printf formats per spec.md §4.5's conversion subset (%u %d %s %x %X
// %p %%, with # prefixing 0x) and appends the result, truncating
// silently at capacity. Go's fmt.Sprintf already implements every verb
// here except %u (unsigned decimal has no dedicated Go verb — %d
// already handles unsigned operands) and %p against non-pointer
// operands (fmt requires an actual pointer type); translateMonitorFormat
// rewrites both to a form fmt accepts before delegating.
func (m *MonitorOutput) Printf(format string, args ...interface{}) {
	fmt.Fprintf(m, translateMonitorFormat(format), args...)
}

func translateMonitorFormat(format string) string {
	var b strings.Builder
	i := 0
	for i < len(format) {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			b.WriteString("%%")
			i += 2
			continue
		}
		start := i
		i++
		hash := false
		for i < len(format) && format[i] == '#' {
			hash = true
			i++
		}
		if i >= len(format) {
			b.WriteString(format[start:i])
			break
		}
		verb := format[i]
		i++
		switch verb {
		case 'u':
			b.WriteString("%d")
		case 'p':
			if hash {
				b.WriteString("%#x")
			} else {
				b.WriteString("0x%x")
			}
		case 'x', 'X':
			if hash && verb == 'X' {
				// fmt's %#X would prefix "0X"; the prefix is always "0x".
				b.WriteString("0x%X")
				break
			}
			b.WriteByte('%')
			if hash {
				b.WriteByte('#')
			}
			b.WriteByte(verb)
		case 'd', 's':
			b.WriteByte('%')
			b.WriteByte(verb)
		default:
			b.WriteString(format[start:i])
		}
	}
	return b.String()
}

// builtinMonitorCommands returns the commands every Session supports
// regardless of the Target's own CommandTable, currently just
// "version" (spec.md §4.2 ADDED: reports this module's semver and the
// negotiated protocol version).
func builtinMonitorCommands(s *Session) map[string]MonitorFunc {
	return map[string]MonitorFunc{
		"version": func(m *MonitorOutput, args []string) error {
			m.Printf("gdbstub %s (protocol %s)", ModuleVersion.String(), s.negotiatedVersion())
			return nil
		},
	}
}

// splitMonitorCommand splits a decoded qRcmd payload into a command
// name and its remaining arguments, on the first space, per spec.md
// §4.2.
func splitMonitorCommand(decoded []byte) (name string, args []string) {
	s := string(decoded)
	parts := strings.SplitN(strings.TrimSpace(s), " ", 2)
	name = parts[0]
	if len(parts) == 2 {
		args = strings.Fields(parts[1])
	}
	return name, args
}
