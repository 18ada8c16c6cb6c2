package emu

import (
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/r5sim/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true if the program terminated (exit syscall or EBREAK).
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int32

	// Err is set if a fatal simulation fault occurred.
	Err error
}

// Emulator executes RV32I instructions one at a time, with no pipeline
// timing. It serves as the architectural reference for the timing model: for
// any program, the pipelined simulator must reach the same final register and
// memory state the Emulator reaches.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	decoder *insts.Decoder

	alu        *ALU
	branchUnit *BranchUnit

	syscallHandler SyscallHandler
	stdout         io.Writer

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithStdout sets the writer that receives write-syscall output.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stdout = w
	}
}

// WithSyscallHandler sets a custom syscall handler.
func WithSyscallHandler(handler SyscallHandler) EmulatorOption {
	return func(e *Emulator) {
		e.syscallHandler = handler
	}
}

// WithStackPointer sets the initial stack pointer value (x2).
func WithStackPointer(sp uint32) EmulatorOption {
	return func(e *Emulator) {
		e.regFile.WriteReg(RegSP, sp)
	}
}

// WithMaxInstructions caps the number of instructions Run will execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a reference interpreter over the given register file
// and memory.
func NewEmulator(regFile *RegFile, memory *Memory, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile:    regFile,
		memory:     memory,
		decoder:    insts.NewDecoder(),
		alu:        NewALU(),
		branchUnit: NewBranchUnit(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.syscallHandler == nil {
		e.syscallHandler = NewDefaultSyscallHandler(regFile, memory, e.stdout)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// InstructionCount returns the number of instructions executed so far.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// SetPC sets the program counter.
func (e *Emulator) SetPC(pc uint32) {
	e.regFile.PC = pc
}

// fault converts any error into a SimError stamped with pc and the current
// instruction count.
func (e *Emulator) fault(err error, pc uint32) error {
	var simErr *SimError
	if errors.As(err, &simErr) {
		return simErr.At(pc, e.instructionCount)
	}

	kind := IllegalInstruction
	if errors.Is(err, insts.ErrUnsupportedOperation) {
		kind = UnsupportedOperation
	}
	return NewFault(kind, err).At(pc, e.instructionCount)
}

// Step fetches, decodes, and executes a single instruction.
func (e *Emulator) Step() StepResult {
	pc := e.regFile.PC

	if pc%4 != 0 {
		return StepResult{Err: NewMemFault(MisalignedAccess, pc).
			At(pc, e.instructionCount)}
	}

	word, err := e.memory.Read32(pc)
	if err != nil {
		return StepResult{Err: e.fault(err, pc)}
	}

	inst, err := e.decoder.Decode(word)
	if err != nil {
		return StepResult{Err: e.fault(err, pc)}
	}

	e.instructionCount++

	result := e.execute(inst, pc)
	return result
}

// execute applies one decoded instruction to the architectural state.
func (e *Emulator) execute(inst *insts.Instruction, pc uint32) StepResult {
	rs1 := e.regFile.ReadReg(inst.Rs1)
	rs2 := e.regFile.ReadReg(inst.Rs2)
	nextPC := pc + 4

	switch {
	case inst.Op == insts.OpLUI:
		e.regFile.WriteReg(inst.Rd, uint32(inst.Imm))
	case inst.Op == insts.OpAUIPC:
		e.regFile.WriteReg(inst.Rd, pc+uint32(inst.Imm))
	case inst.IsJump():
		_, target := e.branchUnit.Resolve(inst, rs1, rs2, pc)
		e.regFile.WriteReg(inst.Rd, pc+4)
		nextPC = target
	case inst.IsBranch():
		taken, target := e.branchUnit.Resolve(inst, rs1, rs2, pc)
		if taken {
			nextPC = target
		}
	case inst.IsLoad():
		value, err := e.load(inst, rs1)
		if err != nil {
			return StepResult{Err: e.fault(err, pc)}
		}
		e.regFile.WriteReg(inst.Rd, value)
	case inst.IsStore():
		if err := e.store(inst, rs1, rs2); err != nil {
			return StepResult{Err: e.fault(err, pc)}
		}
	case inst.Op == insts.OpFENCE:
		// No-op: a single in-order hart needs no ordering.
	case inst.Op == insts.OpECALL:
		result := e.syscallHandler.Handle()
		if result.Err != nil {
			return StepResult{Err: e.fault(result.Err, pc)}
		}
		if result.Exited {
			return StepResult{Exited: true, ExitCode: result.ExitCode}
		}
		if result.HasRet {
			e.regFile.WriteReg(RegA0, result.Ret)
		}
	case inst.Op == insts.OpEBREAK:
		return StepResult{Exited: true}
	default:
		// Register-register and register-immediate arithmetic.
		y := rs2
		if inst.Format == insts.FormatI {
			y = uint32(inst.Imm)
		}
		e.regFile.WriteReg(inst.Rd, e.alu.Execute(inst.Op, rs1, y))
	}

	e.regFile.PC = nextPC
	return StepResult{}
}

func (e *Emulator) load(inst *insts.Instruction, base uint32) (uint32, error) {
	addr := base + uint32(inst.Imm)

	switch inst.Op {
	case insts.OpLB:
		v, err := e.memory.Read8(addr)
		return uint32(int32(int8(v))), err
	case insts.OpLBU:
		v, err := e.memory.Read8(addr)
		return uint32(v), err
	case insts.OpLH:
		v, err := e.memory.Read16(addr)
		return uint32(int32(int16(v))), err
	case insts.OpLHU:
		v, err := e.memory.Read16(addr)
		return uint32(v), err
	default: // OpLW
		return e.memory.Read32(addr)
	}
}

func (e *Emulator) store(inst *insts.Instruction, base, value uint32) error {
	addr := base + uint32(inst.Imm)

	switch inst.Op {
	case insts.OpSB:
		return e.memory.Write8(addr, uint8(value))
	case insts.OpSH:
		return e.memory.Write16(addr, uint16(value))
	default: // OpSW
		return e.memory.Write32(addr, value)
	}
}

// Run executes instructions until the program exits, a fault occurs, or the
// instruction cap is reached.
func (e *Emulator) Run() (int32, error) {
	for {
		if e.maxInstructions > 0 &&
			e.instructionCount >= e.maxInstructions {
			return 0, fmt.Errorf("instruction limit of %d reached",
				e.maxInstructions)
		}

		result := e.Step()
		if result.Err != nil {
			return 0, result.Err
		}
		if result.Exited {
			return result.ExitCode, nil
		}
	}
}
