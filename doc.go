// Package gdbstub implements the server half of the GDB Remote Serial
// Protocol: packet framing, command dispatch, target-description
// generation and qSupported feature negotiation. It owns none of the
// transport, the target CPU, or memory allocation; those are supplied
// by the caller through the Target and Transport interfaces.
package gdbstub
