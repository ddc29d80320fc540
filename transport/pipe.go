package transport

import "io"

// Pipe is a gdbstub.Transport backed by an arbitrary io.ReadWriteCloser
// rather than a network connection — stdio, an exec.Cmd's pipes, or one
// end of a net.Pipe() pair for tests, mirroring the teacher's test
// style (gdbserver/server_test.go drives the server over a net.Pipe
// net.Conn directly; Pipe generalizes that to any stream).
type Pipe struct {
	*Stream
}

// NewPipe wraps rwc.
func NewPipe(rwc io.ReadWriteCloser) *Pipe {
	return &Pipe{Stream: NewStream(rwc)}
}
