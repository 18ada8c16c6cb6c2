package emu

import (
	"fmt"
	"io"
)

// Linux RISC-V syscall numbers the simulator understands.
const (
	// SyscallWrite is the write(fd, buf, len) syscall.
	SyscallWrite = 64
	// SyscallExit terminates the program with the code in a0.
	SyscallExit = 93
)

// SyscallResult represents the outcome of handling an ECALL.
type SyscallResult struct {
	// Exited is true if the program requested termination.
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int32

	// HasRet is true if Ret should be written to a0.
	HasRet bool

	// Ret is the syscall return value.
	Ret uint32

	// Err is set if the syscall itself faulted.
	Err error
}

// SyscallHandler handles ECALL instructions. The handler reads the syscall
// number and arguments from the register file and may touch memory, but must
// not modify registers directly; the caller commits Ret to a0.
type SyscallHandler interface {
	Handle() SyscallResult
}

// DefaultSyscallHandler implements the minimal syscall surface the simulator
// supports: exit and write. Everything else is an UnsupportedOperation fault.
type DefaultSyscallHandler struct {
	regFile *RegFile
	memory  *Memory
	stdout  io.Writer
}

// NewDefaultSyscallHandler creates the default handler. A nil stdout discards
// write output.
func NewDefaultSyscallHandler(
	regFile *RegFile,
	memory *Memory,
	stdout io.Writer,
) *DefaultSyscallHandler {
	return &DefaultSyscallHandler{
		regFile: regFile,
		memory:  memory,
		stdout:  stdout,
	}
}

// Handle dispatches on the syscall number in a7.
func (h *DefaultSyscallHandler) Handle() SyscallResult {
	num := h.regFile.ReadReg(RegA7)

	switch num {
	case SyscallExit:
		return SyscallResult{
			Exited:   true,
			ExitCode: int32(h.regFile.ReadReg(RegA0)),
		}
	case SyscallWrite:
		return h.handleWrite()
	default:
		return SyscallResult{
			Err: NewFault(UnsupportedOperation,
				fmt.Errorf("syscall %d", num)),
		}
	}
}

func (h *DefaultSyscallHandler) handleWrite() SyscallResult {
	addr := h.regFile.ReadReg(RegA1)
	length := h.regFile.ReadReg(RegA2)

	buf, err := h.memory.ReadBytes(addr, length)
	if err != nil {
		return SyscallResult{Err: err}
	}

	if h.stdout != nil {
		if _, err := h.stdout.Write(buf); err != nil {
			return SyscallResult{Err: err}
		}
	}

	return SyscallResult{HasRet: true, Ret: length}
}
