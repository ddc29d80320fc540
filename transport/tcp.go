package transport

import "net"

// TCP is a gdbstub.Transport backed by a single net.Conn. One TCP value
// is bound to exactly one Session, matching spec.md §5's one-session-
// per-connection model; the accept loop that creates these lives in
// cmd/gdbstub-server, grounded on the teacher's cmd-gdb-rsp-server
// net.Listen/Accept loop.
type TCP struct {
	*Stream
	conn net.Conn
}

// NewTCP wraps conn.
func NewTCP(conn net.Conn) *TCP {
	return &TCP{Stream: NewStream(conn), conn: conn}
}

// Addr returns the remote address of the underlying connection, for
// log correlation alongside the Session's UUID.
func (t *TCP) Addr() net.Addr {
	return t.conn.RemoteAddr()
}

// Listen starts a TCP listener and returns it unwrapped; Accept wraps
// each accepted connection as a TCP transport. Callers drive the accept
// loop themselves (see cmd/gdbstub-server/main.go) so they can fan each connection out
// to its own goroutine and Session.
func Listen(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

// Accept blocks for the next connection on ln and wraps it.
func Accept(ln net.Listener) (*TCP, error) {
	conn, err := ln.Accept()
	if err != nil {
		return nil, err
	}
	return NewTCP(conn), nil
}
