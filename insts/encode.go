package insts

// Instruction encoding, the inverse of Decode. It exists for test tooling:
// decoding a supported word and re-encoding it yields the original word.
// The assembler-style helpers below are what tests use to build programs.

// opInfo maps an Op to its major opcode and funct fields.
var opInfo = map[Op]struct {
	opcode uint32
	funct3 uint32
	funct7 uint32
}{
	OpLUI:    {opcode: opcodeLUI},
	OpAUIPC:  {opcode: opcodeAUIPC},
	OpJAL:    {opcode: opcodeJAL},
	OpJALR:   {opcode: opcodeJALR},
	OpBEQ:    {opcode: opcodeBranch, funct3: 0b000},
	OpBNE:    {opcode: opcodeBranch, funct3: 0b001},
	OpBLT:    {opcode: opcodeBranch, funct3: 0b100},
	OpBGE:    {opcode: opcodeBranch, funct3: 0b101},
	OpBLTU:   {opcode: opcodeBranch, funct3: 0b110},
	OpBGEU:   {opcode: opcodeBranch, funct3: 0b111},
	OpLB:     {opcode: opcodeLoad, funct3: 0b000},
	OpLH:     {opcode: opcodeLoad, funct3: 0b001},
	OpLW:     {opcode: opcodeLoad, funct3: 0b010},
	OpLBU:    {opcode: opcodeLoad, funct3: 0b100},
	OpLHU:    {opcode: opcodeLoad, funct3: 0b101},
	OpSB:     {opcode: opcodeStore, funct3: 0b000},
	OpSH:     {opcode: opcodeStore, funct3: 0b001},
	OpSW:     {opcode: opcodeStore, funct3: 0b010},
	OpADDI:   {opcode: opcodeOpImm, funct3: 0b000},
	OpSLTI:   {opcode: opcodeOpImm, funct3: 0b010},
	OpSLTIU:  {opcode: opcodeOpImm, funct3: 0b011},
	OpXORI:   {opcode: opcodeOpImm, funct3: 0b100},
	OpORI:    {opcode: opcodeOpImm, funct3: 0b110},
	OpANDI:   {opcode: opcodeOpImm, funct3: 0b111},
	OpSLLI:   {opcode: opcodeOpImm, funct3: 0b001},
	OpSRLI:   {opcode: opcodeOpImm, funct3: 0b101},
	OpSRAI:   {opcode: opcodeOpImm, funct3: 0b101, funct7: 0b0100000},
	OpADD:    {opcode: opcodeOp, funct3: 0b000},
	OpSUB:    {opcode: opcodeOp, funct3: 0b000, funct7: 0b0100000},
	OpSLL:    {opcode: opcodeOp, funct3: 0b001},
	OpSLT:    {opcode: opcodeOp, funct3: 0b010},
	OpSLTU:   {opcode: opcodeOp, funct3: 0b011},
	OpXOR:    {opcode: opcodeOp, funct3: 0b100},
	OpSRL:    {opcode: opcodeOp, funct3: 0b101},
	OpSRA:    {opcode: opcodeOp, funct3: 0b101, funct7: 0b0100000},
	OpOR:     {opcode: opcodeOp, funct3: 0b110},
	OpAND:    {opcode: opcodeOp, funct3: 0b111},
	OpFENCE:  {opcode: opcodeFence},
	OpECALL:  {opcode: opcodeSystem},
	OpEBREAK: {opcode: opcodeSystem},
}

// Encode produces the 32-bit word for a decoded instruction.
func Encode(inst *Instruction) uint32 {
	info := opInfo[inst.Op]

	switch inst.Format {
	case FormatR:
		return encodeR(info.opcode, info.funct3, info.funct7,
			inst.Rd, inst.Rs1, inst.Rs2)
	case FormatI:
		switch inst.Op {
		case OpSLLI, OpSRLI, OpSRAI:
			return encodeR(info.opcode, info.funct3, info.funct7,
				inst.Rd, inst.Rs1, uint8(inst.Imm&0x1F))
		case OpECALL:
			return encodeI(info.opcode, info.funct3, inst.Rd, inst.Rs1, 0)
		case OpEBREAK:
			return encodeI(info.opcode, info.funct3, inst.Rd, inst.Rs1, 1)
		case OpFENCE:
			return inst.Raw
		default:
			return encodeI(info.opcode, info.funct3,
				inst.Rd, inst.Rs1, inst.Imm)
		}
	case FormatS:
		return encodeS(info.opcode, info.funct3,
			inst.Rs1, inst.Rs2, inst.Imm)
	case FormatB:
		return encodeB(info.opcode, info.funct3,
			inst.Rs1, inst.Rs2, inst.Imm)
	case FormatU:
		return encodeU(info.opcode, inst.Rd, inst.Imm)
	case FormatJ:
		return encodeJ(info.opcode, inst.Rd, inst.Imm)
	}
	return 0
}

func encodeR(opcode, f3, f7 uint32, rd, rs1, rs2 uint8) uint32 {
	return f7<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 |
		f3<<12 | uint32(rd)<<7 | opcode
}

func encodeI(opcode, f3 uint32, rd, rs1 uint8, imm int32) uint32 {
	return uint32(imm)<<20 | uint32(rs1)<<15 |
		f3<<12 | uint32(rd)<<7 | opcode
}

func encodeS(opcode, f3 uint32, rs1, rs2 uint8, imm int32) uint32 {
	uimm := uint32(imm)
	return (uimm>>5&0x7F)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 |
		f3<<12 | (uimm&0x1F)<<7 | opcode
}

func encodeB(opcode, f3 uint32, rs1, rs2 uint8, imm int32) uint32 {
	uimm := uint32(imm)
	return (uimm>>12&0x1)<<31 | (uimm>>5&0x3F)<<25 |
		uint32(rs2)<<20 | uint32(rs1)<<15 | f3<<12 |
		(uimm>>1&0xF)<<8 | (uimm>>11&0x1)<<7 | opcode
}

func encodeU(opcode uint32, rd uint8, imm int32) uint32 {
	return uint32(imm)&0xFFFFF000 | uint32(rd)<<7 | opcode
}

func encodeJ(opcode uint32, rd uint8, imm int32) uint32 {
	uimm := uint32(imm)
	return (uimm>>20&0x1)<<31 | (uimm>>1&0x3FF)<<21 |
		(uimm>>11&0x1)<<20 | (uimm>>12&0xFF)<<12 |
		uint32(rd)<<7 | opcode
}

// Assembler-style helpers for building test programs.

// RType assembles a register-register instruction.
func RType(op Op, rd, rs1, rs2 uint8) uint32 {
	info := opInfo[op]
	return encodeR(info.opcode, info.funct3, info.funct7, rd, rs1, rs2)
}

// IType assembles a register-immediate instruction (also loads and JALR).
func IType(op Op, rd, rs1 uint8, imm int32) uint32 {
	info := opInfo[op]
	switch op {
	case OpSLLI, OpSRLI, OpSRAI:
		return encodeR(info.opcode, info.funct3, info.funct7,
			rd, rs1, uint8(imm&0x1F))
	}
	return encodeI(info.opcode, info.funct3, rd, rs1, imm)
}

// SType assembles a store instruction.
func SType(op Op, rs1, rs2 uint8, imm int32) uint32 {
	info := opInfo[op]
	return encodeS(info.opcode, info.funct3, rs1, rs2, imm)
}

// BType assembles a conditional branch with a byte offset.
func BType(op Op, rs1, rs2 uint8, offset int32) uint32 {
	info := opInfo[op]
	return encodeB(info.opcode, info.funct3, rs1, rs2, offset)
}

// UType assembles LUI or AUIPC; imm carries the upper 20 bits in place.
func UType(op Op, rd uint8, imm int32) uint32 {
	info := opInfo[op]
	return encodeU(info.opcode, rd, imm)
}

// JType assembles JAL with a byte offset.
func JType(op Op, rd uint8, offset int32) uint32 {
	info := opInfo[op]
	return encodeJ(info.opcode, rd, offset)
}

// ECALL assembles the environment-call instruction.
func ECALL() uint32 { return encodeI(opcodeSystem, 0, 0, 0, 0) }

// EBREAK assembles the breakpoint instruction.
func EBREAK() uint32 { return encodeI(opcodeSystem, 0, 0, 0, 1) }
