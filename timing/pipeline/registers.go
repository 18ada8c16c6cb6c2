// Package pipeline provides the 5-stage RV32I pipeline model: inter-stage
// latches, stage logic, hazard detection with forwarding, and the per-cycle
// driver.
package pipeline

import "github.com/sarchlab/r5sim/insts"

// IFIDRegister holds state between the Fetch and Decode stages.
type IFIDRegister struct {
	// Valid indicates the latch holds an instruction; false is a bubble.
	Valid bool

	// PC is the program counter of the fetched instruction.
	PC uint32

	// InstructionWord is the raw 32-bit instruction word.
	InstructionWord uint32
}

// Clear resets the IF/ID latch to a bubble.
func (r *IFIDRegister) Clear() {
	*r = IFIDRegister{}
}

// IDEXRegister holds state between the Decode and Execute stages.
type IDEXRegister struct {
	// Valid indicates the latch holds an instruction; false is a bubble.
	Valid bool

	// PC is the program counter of the instruction.
	PC uint32

	// Inst is the decoded instruction.
	Inst *insts.Instruction

	// Register values read from the register file at decode time. Stale
	// values are replaced by the forwarding network in Execute.
	Rs1Value uint32
	Rs2Value uint32

	// Register numbers for hazard detection.
	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	// Control signals.
	MemRead  bool // Load instruction
	MemWrite bool // Store instruction
	RegWrite bool // Writes a register in Writeback
	MemToReg bool // Writeback value comes from memory
	IsBranch bool // Conditional branch or jump, resolved in Execute
	IsSystem bool // ECALL or EBREAK, serialized in Execute
}

// Clear resets the ID/EX latch to a bubble.
func (r *IDEXRegister) Clear() {
	*r = IDEXRegister{}
}

// EXMEMRegister holds state between the Execute and Memory stages.
type EXMEMRegister struct {
	// Valid indicates the latch holds an instruction; false is a bubble.
	Valid bool

	// PC is the program counter of the instruction.
	PC uint32

	// Inst is the decoded instruction.
	Inst *insts.Instruction

	// ALUResult is the computed value: the memory address for loads and
	// stores, the link value for jumps, the result for ALU operations.
	ALUResult uint32

	// StoreValue is the (post-forwarding) rs2 value for stores.
	StoreValue uint32

	// Destination register number.
	Rd uint8

	// Control signals propagated from ID/EX.
	MemRead  bool
	MemWrite bool
	RegWrite bool
	MemToReg bool
}

// Clear resets the EX/MEM latch to a bubble.
func (r *EXMEMRegister) Clear() {
	*r = EXMEMRegister{}
}

// MEMWBRegister holds state between the Memory and Writeback stages.
type MEMWBRegister struct {
	// Valid indicates the latch holds an instruction; false is a bubble.
	Valid bool

	// PC is the program counter of the instruction.
	PC uint32

	// Inst is the decoded instruction.
	Inst *insts.Instruction

	// ALUResult is the computed value for non-load instructions.
	ALUResult uint32

	// MemData is the (extended) value read from memory for loads.
	MemData uint32

	// Destination register number.
	Rd uint8

	// Control signals.
	RegWrite bool
	MemToReg bool
}

// Clear resets the MEM/WB latch to a bubble.
func (r *MEMWBRegister) Clear() {
	*r = MEMWBRegister{}
}
