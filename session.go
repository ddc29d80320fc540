package gdbstub

import (
	"context"
	"io"

	semver "github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config customizes Session construction. All fields are optional.
type Config struct {
	// Logger receives per-session structured log entries. Defaults to
	// logrus.StandardLogger(), tagged with a fresh session UUID so
	// concurrent sessions can be told apart in shared log output (the
	// example server in cmd/gdbstub-server runs many of these at once).
	Logger *logrus.Entry

	// FeatureVersionConstraint is a semver constraint string (e.g.
	// ">=1.0.0") the peer's advertised protocolVersion qSupported token
	// is checked against. Defaults to ">=1.0.0". A failing check never
	// aborts the connection — RSP has no machinery for that — it only
	// produces a warning log line; see SPEC_FULL.md §4.2.
	FeatureVersionConstraint string

	// Allocator, if set, is used to pre-size the Packet Buffer, Reply
	// Builder scratch buffer and Register Scratch Buffer instead of
	// letting the Go runtime's allocator size them on demand. This is
	// the opt-in half of spec.md §9's "opaque handle with
	// owner-provided allocator" design note; the default path (nil)
	// simply lets make([]byte, ...) and append do their job. Growth of
	// the Packet Buffer and Reply Builder beyond their initial sizes
	// still goes through make.
	Allocator func(size int) []byte
}

// Session is the Session Context from spec.md §3: created once per
// connection, driving one Target through one Transport until Run
// returns.
type Session struct {
	target    Target
	transport Transport

	framer *Framer
	reply  *ReplyBuilder
	monitor MonitorOutput

	regIndex   []int
	regScratch []byte

	lastState    RunState
	extendedMode bool
	features     FeatureSet

	versionConstraint   *semver.Constraints
	peerProtocolVersion string

	cachedXML  []byte
	xmlBuilt   bool

	monitorCommands map[string]MonitorFunc

	logger *logrus.Entry
	id     uuid.UUID
}

// NewSession creates a Session Context bound to target and transport.
// It fails with StatusInvalidParameter if either is nil.
func NewSession(cfg Config, target Target, transport Transport) (*Session, error) {
	if target == nil || transport == nil {
		return nil, NewStubError("NewSession", StatusInvalidParameter, nil)
	}

	constraintStr := cfg.FeatureVersionConstraint
	if constraintStr == "" {
		constraintStr = ">=1.0.0"
	}
	constraint, err := semver.NewConstraint(constraintStr)
	if err != nil {
		return nil, NewStubError("NewSession", StatusInvalidParameter, err)
	}

	id := uuid.New()
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	logger = logger.WithField("session", id.String())

	alloc := cfg.Allocator
	if alloc == nil {
		alloc = func(size int) []byte { return make([]byte, size) }
	}

	regs := target.Registers()
	index := make([]int, len(regs))
	totalBits := 0
	for i, r := range regs {
		index[i] = i
		totalBits += r.BitWidth
	}

	s := &Session{
		target:            target,
		transport:         transport,
		framer:            NewFramer(),
		reply:             NewReplyBuilder(),
		regIndex:          index,
		regScratch:        alloc(totalBits / 8),
		lastState:         target.State(),
		versionConstraint: constraint,
		logger:            logger,
		id:                id,
	}
	s.framer.buf = alloc(cap(s.framer.buf))[:0]
	s.reply.buf = alloc(cap(s.reply.buf))[:0]

	s.monitorCommands = builtinMonitorCommands(s)
	if ct, ok := target.(CommandTable); ok {
		for name, fn := range ct.Commands() {
			s.monitorCommands[name] = fn
		}
	}

	s.framer.Ack = s.sendAck
	s.framer.OnAccepted = s.handlePacket
	s.framer.OnInterrupt = s.handleInterrupt

	return s, nil
}

// ID returns the session's correlation UUID, used to tag log entries
// and returned so embedders can correlate across their own logs too.
func (s *Session) ID() uuid.UUID { return s.id }

// Run enters the receive loop (spec.md §5, §6). It returns when ctx is
// canceled, the transport disconnects, or try-again is reached with no
// Poller available. It is not safe to call concurrently with itself.
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.checkSpontaneousStop()

		avail, err := s.transport.Peek()
		if err != nil {
			return NewStubError("transport.Peek", StatusPeerDisconnected, err)
		}

		if avail == 0 {
			if p, ok := s.transport.(Poller); ok {
				polled := make(chan error, 1)
				go func() { polled <- p.Poll() }()
				select {
				case <-ctx.Done():
					return ctx.Err()
				case err := <-polled:
					if err != nil {
						return NewStubError("transport.Poll", StatusPeerDisconnected, err)
					}
				}
				continue
			}
			return ErrTryAgain
		}

		buf := make([]byte, avail)
		n, err := s.transport.Read(buf)
		if err != nil {
			return NewStubError("transport.Read", StatusPeerDisconnected, err)
		}
		if n == 0 {
			return ErrPeerDisconnected
		}

		s.framer.Feed(buf[:n])
	}
}

// Reset returns the framer to WaitForStart. Buffers and negotiated
// features are retained, per spec.md §6.
func (s *Session) Reset() {
	s.framer.Reset()
}

// Close releases adapter resources that implement io.Closer. The core
// Session itself owns no resources beyond Go-GC-managed memory; Close
// exists so embedders get one place to tear down both adapters and
// collect any errors doing so.
func (s *Session) Close() error {
	var result *multierror.Error
	if c, ok := s.target.(io.Closer); ok {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "target close"))
		}
	}
	if c, ok := s.transport.(io.Closer); ok {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "transport close"))
		}
	}
	return result.ErrorOrNil()
}

// checkSpontaneousStop implements spec.md §4.2's "spontaneous stop
// notification": on entry to the receive loop, if the Target
// transitioned Running->Stopped since the last observation, emit an
// unsolicited S05 before reading any input.
func (s *Session) checkSpontaneousStop() {
	cur := s.target.State()
	if s.lastState == StateRunning && cur == StateStopped {
		if err := s.sendReply(ReplyStop()); err != nil {
			s.logger.WithError(err).Warn("failed to send spontaneous stop-reply")
		}
	}
	s.lastState = cur
}

func (s *Session) handlePacket(body []byte) {
	reply, send := s.dispatch(body)
	if !send {
		return
	}
	if err := s.sendReply(reply); err != nil {
		s.logger.WithError(err).Warn("failed to send reply")
	}
}

func (s *Session) handleInterrupt() {
	if err := s.target.Stop(); err != nil {
		s.logger.WithError(err).Warn("target.Stop failed on out-of-band interrupt")
	}
	s.lastState = StateStopped
	if err := s.sendReply(ReplyStop()); err != nil {
		s.logger.WithError(err).Warn("failed to send interrupt stop-reply")
	}
}

func (s *Session) sendAck(ok bool) {
	b := byte('-')
	if ok {
		b = '+'
	}
	if _, err := s.transport.Write([]byte{b}); err != nil {
		s.logger.WithError(err).Warn("failed to send ack")
	}
}

func (s *Session) sendReply(body []byte) error {
	_, err := s.transport.Write(FrameReply(body))
	return err
}

// targetDescriptionXML returns the cached target.xml blob, building it
// at most once per Session (spec.md §3's "cached Target Description is
// built at most once per Session Context").
func (s *Session) targetDescriptionXML() []byte {
	if !s.xmlBuilt {
		s.cachedXML = buildTargetXML(s.target.Architecture(), s.target.Registers())
		s.xmlBuilt = true
	}
	return s.cachedXML
}
