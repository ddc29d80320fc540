package gdbstub

import (
	"sync"
)

// mockTarget is a minimal Target implementation for unit tests. Its
// register file is two 16-bit registers whose raw bytes are
// [0x11 0x22 0x33 0x44], matching spec.md §8 scenario 2 verbatim.
type mockTarget struct {
	mu    sync.Mutex
	arch  Architecture
	regs  []RegisterInfo
	bytes []byte // concatenated raw register bytes, index order
	mem   []byte // flat, byte-addressed memory image
	state RunState

	stopCalls     int
	continueCalls int
	stepCalls     int
	restartCalls  int
	killCalls     int

	tracepoints map[string]bool
	commands    map[string]MonitorFunc

	continueErr error
	stepErr     error
	memErr      error
}

func newMockTarget() *mockTarget {
	mem := make([]byte, 1<<16)
	mem[0x1000] = 0xAA
	mem[0x1001] = 0xBB
	return &mockTarget{
		arch: ArchAMD64,
		regs: []RegisterInfo{
			{Name: "r0", BitWidth: 16, Class: RegGeneral},
			{Name: "r1", BitWidth: 16, Class: RegGeneral},
		},
		bytes:       []byte{0x11, 0x22, 0x33, 0x44},
		mem:         mem,
		state:       StateStopped,
		tracepoints: make(map[string]bool),
	}
}

func (m *mockTarget) Architecture() Architecture    { return m.arch }
func (m *mockTarget) Registers() []RegisterInfo     { return m.regs }
func (m *mockTarget) State() RunState               { m.mu.Lock(); defer m.mu.Unlock(); return m.state }

func (m *mockTarget) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	m.state = StateStopped
	return nil
}

func (m *mockTarget) Step() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stepCalls++
	return m.stepErr
}

func (m *mockTarget) Continue() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.continueCalls++
	if m.continueErr == nil {
		m.state = StateRunning
	}
	return m.continueErr
}

func (m *mockTarget) ReadMemory(addr uint64, buf []byte) error {
	if m.memErr != nil {
		return m.memErr
	}
	if addr+uint64(len(buf)) > uint64(len(m.mem)) {
		return NewStubError("mockTarget.ReadMemory", StatusInvalidParameter, nil)
	}
	copy(buf, m.mem[addr:])
	return nil
}

func (m *mockTarget) WriteMemory(addr uint64, buf []byte) error {
	if m.memErr != nil {
		return m.memErr
	}
	if addr+uint64(len(buf)) > uint64(len(m.mem)) {
		return NewStubError("mockTarget.WriteMemory", StatusInvalidParameter, nil)
	}
	copy(m.mem[addr:], buf)
	return nil
}

func (m *mockTarget) ReadRegisters(indices []int, out []byte) error {
	offset := 0
	for _, idx := range indices {
		width := m.regs[idx].BitWidth / 8
		start := byteOffsetFor(m.regs, idx)
		copy(out[offset:offset+width], m.bytes[start:start+width])
		offset += width
	}
	return nil
}

func (m *mockTarget) WriteRegisters(indices []int, in []byte) error {
	offset := 0
	for _, idx := range indices {
		width := m.regs[idx].BitWidth / 8
		start := byteOffsetFor(m.regs, idx)
		copy(m.bytes[start:start+width], in[offset:offset+width])
		offset += width
	}
	return nil
}

func (m *mockTarget) Restart() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restartCalls++
	m.state = StateStopped
	return nil
}

func (m *mockTarget) Kill() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.killCalls++
	return nil
}

func (m *mockTarget) SetTracepoint(addr uint64, kind TracepointKind, size int) error {
	m.tracepoints[tracepointTestKey(addr, kind)] = true
	return nil
}

func (m *mockTarget) ClearTracepoint(addr uint64, kind TracepointKind, size int) error {
	delete(m.tracepoints, tracepointTestKey(addr, kind))
	return nil
}

func (m *mockTarget) Commands() map[string]MonitorFunc {
	return m.commands
}

func byteOffsetFor(regs []RegisterInfo, idx int) int {
	offset := 0
	for i := 0; i < idx; i++ {
		offset += regs[i].BitWidth / 8
	}
	return offset
}

func tracepointTestKey(addr uint64, kind TracepointKind) string {
	return string([]byte{byte(kind)}) + string(rune(addr))
}

// pipeTransport is a trivial in-memory Transport for unit tests that
// exercise the dispatcher directly without a real connection: writes
// are captured, and there is nothing to read.
type pipeTransport struct {
	mu      sync.Mutex
	written [][]byte
}

func (p *pipeTransport) Peek() (int, error)       { return 0, nil }
func (p *pipeTransport) Read([]byte) (int, error) { return 0, nil }
func (p *pipeTransport) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written = append(p.written, append([]byte(nil), buf...))
	return len(buf), nil
}
