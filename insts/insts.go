// Package insts provides RV32I instruction definitions, decoding, and
// encoding.
//
// This package implements decoding of RV32I machine code into structured
// instruction representations. It supports the full base integer instruction
// set: LUI, AUIPC, JAL, JALR, conditional branches, loads and stores of
// 1/2/4 bytes, register-immediate and register-register arithmetic, FENCE,
// ECALL, and EBREAK.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode(0x00500093) // ADDI x1, x0, 5
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Imm)
package insts

// NOP is the canonical RV32I no-op, encoded as ADDI x0, x0, 0.
const NOP uint32 = 0x00000013

// Op represents an RV32I opcode.
type Op uint16

// RV32I opcodes.
const (
	OpUnknown Op = iota
	OpLUI
	OpAUIPC
	OpJAL
	OpJALR
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpSB
	OpSH
	OpSW
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpFENCE
	OpECALL
	OpEBREAK
)

var opNames = map[Op]string{
	OpLUI: "lui", OpAUIPC: "auipc", OpJAL: "jal", OpJALR: "jalr",
	OpBEQ: "beq", OpBNE: "bne", OpBLT: "blt", OpBGE: "bge",
	OpBLTU: "bltu", OpBGEU: "bgeu",
	OpLB: "lb", OpLH: "lh", OpLW: "lw", OpLBU: "lbu", OpLHU: "lhu",
	OpSB: "sb", OpSH: "sh", OpSW: "sw",
	OpADDI: "addi", OpSLTI: "slti", OpSLTIU: "sltiu", OpXORI: "xori",
	OpORI: "ori", OpANDI: "andi", OpSLLI: "slli", OpSRLI: "srli",
	OpSRAI: "srai",
	OpADD: "add", OpSUB: "sub", OpSLL: "sll", OpSLT: "slt", OpSLTU: "sltu",
	OpXOR: "xor", OpSRL: "srl", OpSRA: "sra", OpOR: "or", OpAND: "and",
	OpFENCE: "fence", OpECALL: "ecall", OpEBREAK: "ebreak",
}

// String returns the instruction mnemonic.
func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "unknown"
}

// Format represents an RV32I instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // Register-register arithmetic
	FormatI              // Register-immediate arithmetic, loads, JALR, SYSTEM
	FormatS              // Stores
	FormatB              // Conditional branches
	FormatU              // LUI, AUIPC
	FormatJ              // JAL
)

// Instruction represents a decoded RV32I instruction. It is produced once by
// the Decoder and never mutated afterwards.
type Instruction struct {
	Op     Op     // Operation code
	Format Format // Encoding format

	// Register indices. Fields that the format does not use are zero.
	Rd  uint8 // Destination register
	Rs1 uint8 // First source register
	Rs2 uint8 // Second source register

	// Imm is the sign-extended immediate. For U-format it holds the upper
	// 20 bits already in place; for shifts it holds the 5-bit shamt.
	Imm int32

	// Raw is the original 32-bit instruction word.
	Raw uint32
}

// WritesRd reports whether the instruction writes a destination register.
// A write to x0 is still reported here; the register file discards it.
func (i *Instruction) WritesRd() bool {
	switch i.Format {
	case FormatR, FormatU, FormatJ:
		return true
	case FormatI:
		return i.Op != OpECALL && i.Op != OpEBREAK && i.Op != OpFENCE
	}
	return false
}

// ReadsRs1 reports whether the instruction reads its first source register.
func (i *Instruction) ReadsRs1() bool {
	switch i.Format {
	case FormatR, FormatS, FormatB:
		return true
	case FormatI:
		return i.Op != OpECALL && i.Op != OpEBREAK && i.Op != OpFENCE
	}
	return false
}

// ReadsRs2 reports whether the instruction reads its second source register.
func (i *Instruction) ReadsRs2() bool {
	switch i.Format {
	case FormatR, FormatS, FormatB:
		return true
	}
	return false
}

// IsLoad reports whether the instruction reads data memory.
func (i *Instruction) IsLoad() bool {
	switch i.Op {
	case OpLB, OpLH, OpLW, OpLBU, OpLHU:
		return true
	}
	return false
}

// IsStore reports whether the instruction writes data memory.
func (i *Instruction) IsStore() bool {
	return i.Format == FormatS
}

// IsBranch reports whether the instruction is a conditional branch.
func (i *Instruction) IsBranch() bool {
	return i.Format == FormatB
}

// IsJump reports whether the instruction is an unconditional jump.
func (i *Instruction) IsJump() bool {
	return i.Op == OpJAL || i.Op == OpJALR
}

// IsSystem reports whether the instruction is ECALL or EBREAK.
func (i *Instruction) IsSystem() bool {
	return i.Op == OpECALL || i.Op == OpEBREAK
}
