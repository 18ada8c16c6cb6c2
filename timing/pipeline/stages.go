package pipeline

import (
	"github.com/sarchlab/r5sim/emu"
	"github.com/sarchlab/r5sim/insts"
)

// FetchStage reads instruction words from memory.
type FetchStage struct {
	memory *emu.Memory
}

// NewFetchStage creates a new fetch stage.
func NewFetchStage(memory *emu.Memory) *FetchStage {
	return &FetchStage{memory: memory}
}

// Fetch reads the instruction word at pc. Instruction fetches must be
// word-aligned regardless of the data alignment policy.
func (s *FetchStage) Fetch(pc uint32) (uint32, error) {
	if pc%4 != 0 {
		return 0, emu.NewMemFault(emu.MisalignedAccess, pc)
	}
	word, err := s.memory.Read32(pc)
	if err != nil {
		return 0, err
	}
	return word, nil
}

// DecodeStage decodes instruction words and reads the register file.
type DecodeStage struct {
	regFile *emu.RegFile
	decoder *insts.Decoder
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage(regFile *emu.RegFile) *DecodeStage {
	return &DecodeStage{
		regFile: regFile,
		decoder: insts.NewDecoder(),
	}
}

// DecodeResult holds the output of the decode stage.
type DecodeResult struct {
	Inst *insts.Instruction

	// Register file values for the source registers.
	Rs1Value uint32
	Rs2Value uint32

	// Control signals derived from the instruction.
	MemRead  bool
	MemWrite bool
	RegWrite bool
	MemToReg bool
	IsBranch bool
	IsSystem bool
}

// Decode decodes a word and reads source register values. The register file
// has write-through semantics: a value written back earlier in the same
// cycle is visible here.
func (s *DecodeStage) Decode(word uint32) (DecodeResult, error) {
	inst, err := s.decoder.Decode(word)
	if err != nil {
		return DecodeResult{}, err
	}

	result := DecodeResult{
		Inst:     inst,
		Rs1Value: s.regFile.ReadReg(inst.Rs1),
		Rs2Value: s.regFile.ReadReg(inst.Rs2),
		MemRead:  inst.IsLoad(),
		MemWrite: inst.IsStore(),
		RegWrite: inst.WritesRd() && inst.Rd != 0,
		MemToReg: inst.IsLoad(),
		IsBranch: inst.IsBranch() || inst.IsJump(),
		IsSystem: inst.IsSystem(),
	}

	return result, nil
}

// Peek decodes a word without touching the register file, for hazard
// lookahead. Words that fail to decode return nil; the error surfaces when
// the word properly reaches Decode.
func (s *DecodeStage) Peek(word uint32) *insts.Instruction {
	inst, err := s.decoder.Decode(word)
	if err != nil {
		return nil
	}
	return inst
}

// ExecuteStage performs ALU operations, address calculation, and branch
// resolution on post-forwarding operand values.
type ExecuteStage struct {
	alu        *emu.ALU
	branchUnit *emu.BranchUnit
}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{
		alu:        emu.NewALU(),
		branchUnit: emu.NewBranchUnit(),
	}
}

// ExecuteResult holds the output of the execute stage.
type ExecuteResult struct {
	ALUResult  uint32
	StoreValue uint32

	// Branch outcome, resolved here.
	BranchTaken  bool
	BranchTarget uint32
}

// Execute computes the result for the instruction in ID/EX. rs1Value and
// rs2Value are the operand values after forwarding.
func (s *ExecuteStage) Execute(
	idex *IDEXRegister,
	rs1Value, rs2Value uint32,
) ExecuteResult {
	result := ExecuteResult{}
	inst := idex.Inst

	if inst == nil {
		return result
	}

	switch {
	case inst.Op == insts.OpLUI:
		result.ALUResult = uint32(inst.Imm)
	case inst.Op == insts.OpAUIPC:
		result.ALUResult = idex.PC + uint32(inst.Imm)
	case inst.IsJump():
		result.BranchTaken, result.BranchTarget =
			s.branchUnit.Resolve(inst, rs1Value, rs2Value, idex.PC)
		result.ALUResult = idex.PC + 4 // Link value
	case inst.IsBranch():
		result.BranchTaken, result.BranchTarget =
			s.branchUnit.Resolve(inst, rs1Value, rs2Value, idex.PC)
	case inst.IsLoad(), inst.IsStore():
		result.ALUResult = rs1Value + uint32(inst.Imm)
		result.StoreValue = rs2Value
	case inst.Op == insts.OpFENCE, inst.IsSystem():
		// Nothing to compute.
	case inst.Format == insts.FormatI:
		result.ALUResult = s.alu.Execute(inst.Op, rs1Value, uint32(inst.Imm))
	default:
		result.ALUResult = s.alu.Execute(inst.Op, rs1Value, rs2Value)
	}

	return result
}

// MemoryStage performs data memory loads and stores.
type MemoryStage struct {
	memory *emu.Memory
}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage(memory *emu.Memory) *MemoryStage {
	return &MemoryStage{memory: memory}
}

// MemoryResult holds the output of the memory stage.
type MemoryResult struct {
	MemData uint32
}

// Access performs the memory read or write for the instruction in EX/MEM.
// Loads sign- or zero-extend to 32 bits per the opcode.
func (s *MemoryStage) Access(exmem *EXMEMRegister) (MemoryResult, error) {
	result := MemoryResult{}

	if !exmem.Valid {
		return result, nil
	}

	addr := exmem.ALUResult

	switch {
	case exmem.MemRead:
		switch exmem.Inst.Op {
		case insts.OpLB:
			v, err := s.memory.Read8(addr)
			if err != nil {
				return result, err
			}
			result.MemData = uint32(int32(int8(v)))
		case insts.OpLBU:
			v, err := s.memory.Read8(addr)
			if err != nil {
				return result, err
			}
			result.MemData = uint32(v)
		case insts.OpLH:
			v, err := s.memory.Read16(addr)
			if err != nil {
				return result, err
			}
			result.MemData = uint32(int32(int16(v)))
		case insts.OpLHU:
			v, err := s.memory.Read16(addr)
			if err != nil {
				return result, err
			}
			result.MemData = uint32(v)
		default: // OpLW
			v, err := s.memory.Read32(addr)
			if err != nil {
				return result, err
			}
			result.MemData = v
		}
	case exmem.MemWrite:
		switch exmem.Inst.Op {
		case insts.OpSB:
			return result, s.memory.Write8(addr, uint8(exmem.StoreValue))
		case insts.OpSH:
			return result, s.memory.Write16(addr, uint16(exmem.StoreValue))
		default: // OpSW
			return result, s.memory.Write32(addr, exmem.StoreValue)
		}
	}

	return result, nil
}

// WritebackStage commits results to the register file. It is the register
// file's single write port.
type WritebackStage struct {
	regFile *emu.RegFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{regFile: regFile}
}

// Writeback writes the instruction's result register. Bubbles and
// non-writing instructions have no effect; the register file itself
// discards x0 writes.
func (s *WritebackStage) Writeback(memwb *MEMWBRegister) {
	if !memwb.Valid || !memwb.RegWrite {
		return
	}

	value := memwb.ALUResult
	if memwb.MemToReg {
		value = memwb.MemData
	}

	s.regFile.WriteReg(memwb.Rd, value)
}
