package gdbstub

// RunState is the last observed execution state of a Target, used by
// Session to detect a running-to-stopped edge and emit a spontaneous
// stop-reply.
type RunState int

const (
	StateStopped RunState = iota
	StateRunning
)

// RegisterClass is the semantic class of a register, used by the
// Target Description Builder to decide which registers get a `type`
// attribute in target.xml.
type RegisterClass int

const (
	RegGeneral RegisterClass = iota
	RegProgramCounter
	RegStackPointer
	RegCodePointer
	RegStatus
)

// Architecture identifies the target CPU architecture, as supplied by
// the Target Adapter. It drives the <architecture> element and the
// feature name of the generated target.xml.
type Architecture string

const (
	ArchARM   Architecture = "arm"
	ArchX86   Architecture = "x86"
	ArchAMD64 Architecture = "amd64"
)

// RegisterInfo describes one entry of a Target's register file, in the
// order the Target expects to receive indices for ReadRegisters and
// WriteRegisters.
type RegisterInfo struct {
	Name     string
	BitWidth int
	Class    RegisterClass
}

// Target is the debug capability interface a CPU, simulator or
// hypervisor implements to be driven by this module. All methods must
// return promptly; Session.Run calls them synchronously from its
// receive loop and does not expect them to block for the duration of a
// full "continue".
type Target interface {
	// Architecture reports the CPU architecture tag used to pick the
	// target.xml feature name.
	Architecture() Architecture

	// Registers returns the ordered, static register descriptor table.
	// The slice and its contents must not change for the lifetime of
	// the Target.
	Registers() []RegisterInfo

	// State reports the current run-state without side effects.
	State() RunState

	// Stop interrupts a running target. Called on an out-of-band 0x03
	// and for the `vCont;t` action.
	Stop() error

	// Step executes exactly one instruction.
	Step() error

	// Continue resumes execution. It must not block until the target
	// stops; Session observes stops via the State()/edge-check path.
	Continue() error

	// ReadMemory reads len(buf) bytes starting at addr into buf.
	ReadMemory(addr uint64, buf []byte) error

	// WriteMemory writes buf to addr.
	WriteMemory(addr uint64, buf []byte) error

	// ReadRegisters writes the raw, little-endian bytes of each
	// register named by indices, in order, into out. out must be sized
	// to the sum of the named registers' byte widths.
	ReadRegisters(indices []int, out []byte) error

	// WriteRegisters reads the raw, little-endian bytes of each
	// register named by indices, in order, from in.
	WriteRegisters(indices []int, in []byte) error
}

// Restarter is an optional Target capability. A Target that implements
// it supports the RSP `R` command once extended mode (`!`) is enabled.
type Restarter interface {
	Restart() error
}

// Killer is an optional Target capability backing the RSP `k` command.
type Killer interface {
	Kill() error
}

// TracepointKind mirrors the RSP `z`/`Z` second operand: 0 software
// breakpoint, 1 hardware breakpoint, 2 write watchpoint, 3 read
// watchpoint, 4 access watchpoint.
type TracepointKind byte

// Tracepointer is an optional Target capability backing `z`/`Z`. A
// Target that does not implement it causes the dispatcher to reply
// empty ("not supported") to every `z`/`Z` packet.
type Tracepointer interface {
	SetTracepoint(addr uint64, kind TracepointKind, size int) error
	ClearTracepoint(addr uint64, kind TracepointKind, size int) error
}

// MonitorFunc is a user-defined `monitor` command invoked via `qRcmd`.
// Output written through m is hex-encoded and returned as the qRcmd
// reply; an empty output replies OK.
type MonitorFunc func(m *MonitorOutput, args []string) error

// CommandTable is an optional Target capability exposing custom
// `monitor <name> [args...]` commands.
type CommandTable interface {
	Commands() map[string]MonitorFunc
}

// Transport is the byte-oriented collaborator Session reads RSP
// packets from and writes RSP packets/acks to. Implementations live in
// the transport subpackage (TCP, Pipe, QUIC) but any io.Reader/Writer
// pair can be adapted.
type Transport interface {
	// Peek reports how many bytes are available to Read without
	// blocking, or an error if that cannot be determined.
	Peek() (int, error)

	// Read copies available bytes into buf. Session.Run calls it only
	// after Peek or Poll has reported data, and treats a return of zero
	// bytes with a nil error as a disconnect.
	Read(buf []byte) (int, error)

	// Write writes buf in full, retrying partial writes internally.
	Write(buf []byte) (int, error)
}

// Poller is an optional Transport capability. When present, Session.Run
// calls Poll to block until data is available instead of returning
// ErrTryAgain.
type Poller interface {
	Poll() error
}
