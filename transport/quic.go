package transport

import (
	"context"
	"crypto/tls"

	"github.com/quic-go/quic-go"
)

// QUIC is a gdbstub.Transport backed by a single QUIC stream: one RSP
// session per stream, many streams per QUIC connection. Grounded on
// Orizon's only quic-go consumer (internal/runtime/netstack/http3.go),
// generalized from its http3.Server wrapper down to a raw stream
// transport since this module needs RSP framing over QUIC, not HTTP.
type QUIC struct {
	*Stream
	stream *quic.Stream
}

// NewQUIC wraps an already-accepted or already-opened QUIC stream.
func NewQUIC(stream *quic.Stream) *QUIC {
	return &QUIC{Stream: NewStream(stream), stream: stream}
}

// QUICListener accepts QUIC connections and hands back one Transport
// per accepted stream, matching the shape of Listen/Accept in tcp.go.
type QUICListener struct {
	ln *quic.Listener
}

// ListenQUIC starts a QUIC listener on addr with the given TLS config.
func ListenQUIC(addr string, tlsConf *tls.Config) (*QUICListener, error) {
	ln, err := quic.ListenAddr(addr, tlsConf, nil)
	if err != nil {
		return nil, err
	}
	return &QUICListener{ln: ln}, nil
}

// Accept blocks for the next connection, then its first stream, and
// wraps that stream as a Transport. Additional streams on the same
// connection are intentionally not surfaced here — spec.md §5's model
// is one Session per Transport, and a QUIC connection that wants
// multiple concurrent RSP sessions should dial multiple connections.
func (l *QUICListener) Accept(ctx context.Context) (*QUIC, error) {
	conn, err := l.ln.Accept(ctx)
	if err != nil {
		return nil, err
	}
	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	return NewQUIC(stream), nil
}

// Close shuts down the listener.
func (l *QUICListener) Close() error {
	return l.ln.Close()
}

// DialQUIC opens a client-side QUIC connection and stream, for test
// harnesses and other client-side callers.
func DialQUIC(ctx context.Context, addr string, tlsConf *tls.Config) (*QUIC, error) {
	conn, err := quic.DialAddr(ctx, addr, tlsConf, nil)
	if err != nil {
		return nil, err
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return NewQUIC(stream), nil
}
