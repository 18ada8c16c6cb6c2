// Package emu provides the architectural state and functional execution model
// for RV32I: register file, memory, pure execution units, and an
// instruction-at-a-time reference interpreter.
package emu

import "fmt"

// FaultKind classifies fatal simulation errors.
type FaultKind int

// Fault kinds. Every fault aborts the simulation run; there is no
// architectural trap model.
const (
	// IllegalInstruction reports a word matching no supported encoding.
	IllegalInstruction FaultKind = iota
	// MisalignedAccess reports a load/store or instruction fetch address
	// violating the configured alignment policy.
	MisalignedAccess
	// OutOfBoundsAccess reports an access outside the configured memory.
	OutOfBoundsAccess
	// UnsupportedOperation reports an instruction from an ISA extension
	// the simulator does not implement.
	UnsupportedOperation
)

// String returns the fault kind name.
func (k FaultKind) String() string {
	switch k {
	case IllegalInstruction:
		return "illegal instruction"
	case MisalignedAccess:
		return "misaligned access"
	case OutOfBoundsAccess:
		return "out-of-bounds access"
	case UnsupportedOperation:
		return "unsupported operation"
	}
	return "unknown fault"
}

// SimError is a fatal simulation fault. It carries the offending address (for
// memory faults), the PC of the instruction that caused it, and the cycle in
// which it was detected. PC and Cycle are stamped by whoever drives the
// simulation; the units that detect a fault only know the kind and address.
type SimError struct {
	Kind  FaultKind
	Addr  uint32
	PC    uint32
	Cycle uint64

	wrapped error
}

// Error implements the error interface.
func (e *SimError) Error() string {
	msg := fmt.Sprintf("%v at pc=%#x, cycle %d", e.Kind, e.PC, e.Cycle)
	if e.Kind == MisalignedAccess || e.Kind == OutOfBoundsAccess {
		msg += fmt.Sprintf(" (address %#x)", e.Addr)
	}
	if e.wrapped != nil {
		msg += ": " + e.wrapped.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause, if any, for errors.Is matching.
func (e *SimError) Unwrap() error {
	return e.wrapped
}

// At stamps the fault with the offending PC and cycle and returns it.
func (e *SimError) At(pc uint32, cycle uint64) *SimError {
	e.PC = pc
	e.Cycle = cycle
	return e
}

// NewFault creates a SimError of the given kind wrapping an optional cause.
func NewFault(kind FaultKind, cause error) *SimError {
	return &SimError{Kind: kind, wrapped: cause}
}

// NewMemFault creates a memory SimError carrying the offending address.
func NewMemFault(kind FaultKind, addr uint32) *SimError {
	return &SimError{Kind: kind, Addr: addr}
}
