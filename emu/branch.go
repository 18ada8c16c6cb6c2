package emu

import "github.com/sarchlab/r5sim/insts"

// BranchUnit resolves conditional branches and unconditional jumps. It is a
// pure function of the instruction, its (post-forwarding) operand values, and
// the instruction's PC.
type BranchUnit struct{}

// NewBranchUnit creates a new branch resolver.
func NewBranchUnit() *BranchUnit {
	return &BranchUnit{}
}

// Resolve returns the taken decision and target address for a branch or jump.
// For JALR the computed target has its low bit cleared, as the ISA requires.
func (b *BranchUnit) Resolve(
	inst *insts.Instruction,
	rs1Value, rs2Value uint32,
	pc uint32,
) (taken bool, target uint32) {
	switch inst.Op {
	case insts.OpJAL:
		return true, pc + uint32(inst.Imm)
	case insts.OpJALR:
		return true, (rs1Value + uint32(inst.Imm)) &^ 1
	case insts.OpBEQ:
		taken = rs1Value == rs2Value
	case insts.OpBNE:
		taken = rs1Value != rs2Value
	case insts.OpBLT:
		taken = int32(rs1Value) < int32(rs2Value)
	case insts.OpBGE:
		taken = int32(rs1Value) >= int32(rs2Value)
	case insts.OpBLTU:
		taken = rs1Value < rs2Value
	case insts.OpBGEU:
		taken = rs1Value >= rs2Value
	default:
		return false, 0
	}

	return taken, pc + uint32(inst.Imm)
}
