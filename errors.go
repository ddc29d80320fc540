package gdbstub

import (
	"errors"
	"fmt"
)

// StatusCode is the internal status taxonomy from which RSP-visible
// `E NN` replies are derived. Not every code is visible to the peer;
// see StubError.Visible.
type StatusCode int

const (
	StatusOK StatusCode = iota
	StatusInvalidParameter
	StatusOutOfMemory
	StatusProtocolViolation
	StatusNotSupported
	StatusNotFound
	StatusBufferOverflow
	StatusPeerDisconnected
	StatusTryAgain
	StatusInternal
)

func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "ok"
	case StatusInvalidParameter:
		return "invalid parameter"
	case StatusOutOfMemory:
		return "out of memory"
	case StatusProtocolViolation:
		return "protocol violation"
	case StatusNotSupported:
		return "not supported"
	case StatusNotFound:
		return "not found"
	case StatusBufferOverflow:
		return "buffer overflow"
	case StatusPeerDisconnected:
		return "peer disconnected"
	case StatusTryAgain:
		return "try again"
	case StatusInternal:
		return "internal error"
	default:
		return fmt.Sprintf("status(%d)", int(c))
	}
}

// StubError is the error type returned across the Target/Transport
// adapter boundary and from Session methods. Its Code maps to the RSP
// `E NN` byte (the low byte of the negated code) for codes that are
// surfaced to the peer at all; StatusNotSupported instead surfaces as
// an empty reply per RSP convention, and StatusPeerDisconnected and
// StatusTryAgain abort Session.Run without ever reaching the wire.
// StatusInternal is what the dispatcher reports to the peer as `E NN`
// when a Target operation fails.
type StubError struct {
	Code  StatusCode
	Op    string
	cause error
}

func (e *StubError) Error() string {
	switch {
	case e.cause != nil && e.Op != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code.String(), e.cause)
	case e.cause != nil:
		return fmt.Sprintf("%s: %v", e.Code.String(), e.cause)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Code.String())
	default:
		return e.Code.String()
	}
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As and
// to github.com/pkg/errors' Cause/Unwrap-compatible helpers.
func (e *StubError) Unwrap() error { return e.cause }

// Is reports whether target is a *StubError with the same Code, so
// errors.Is(err, ErrPeerDisconnected) matches any StubError carrying
// that status regardless of Op or wrapped cause.
func (e *StubError) Is(target error) bool {
	t, ok := target.(*StubError)
	return ok && e.Code == t.Code
}

// ErrByte returns the `NN` byte of the `E NN` reply for this error: the
// low byte of the negated status code, per spec.md §6.
func (e *StubError) ErrByte() byte {
	return byte(-int8(e.Code)) //nolint:gosec // intentional 8-bit wrap, matches source semantics
}

// NewStubError constructs a StubError carrying the RSP-level status plus
// an optional cause from across the Target/Transport adapter boundary,
// reachable via Unwrap so callers keep both.
func NewStubError(op string, code StatusCode, cause error) error {
	return &StubError{Code: code, Op: op, cause: cause}
}

// AsStubError unwraps err looking for a *StubError.
func AsStubError(err error) (*StubError, bool) {
	var se *StubError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Sentinel errors for the cases spec.md §7 says "terminate the Run call"
// rather than "surface E NN". Session.Run returns ErrPeerDisconnected
// and ErrTryAgain directly; nothing in this package returns ErrInternal.
var (
	ErrPeerDisconnected = &StubError{Code: StatusPeerDisconnected, Op: "transport"}
	ErrTryAgain         = &StubError{Code: StatusTryAgain, Op: "transport"}
	ErrInternal         = &StubError{Code: StatusInternal, Op: "session"}
)
