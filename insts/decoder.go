package insts

import (
	"errors"
	"fmt"
)

// Decode error sentinels. Callers match them with errors.Is.
var (
	// ErrIllegalInstruction reports a word that matches no supported
	// encoding.
	ErrIllegalInstruction = errors.New("illegal instruction")

	// ErrUnsupportedOperation reports a word that belongs to an ISA
	// extension the simulator does not implement (M, A, F/D, C, Zicsr).
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// Major opcode values (bits [6:0]).
const (
	opcodeLUI    = 0b0110111
	opcodeAUIPC  = 0b0010111
	opcodeJAL    = 0b1101111
	opcodeJALR   = 0b1100111
	opcodeBranch = 0b1100011
	opcodeLoad   = 0b0000011
	opcodeStore  = 0b0100011
	opcodeOpImm  = 0b0010011
	opcodeOp     = 0b0110011
	opcodeFence  = 0b0001111
	opcodeSystem = 0b1110011

	// Extension opcodes recognized only to report UnsupportedOperation.
	opcodeAmo     = 0b0101111
	opcodeLoadFp  = 0b0000111
	opcodeStoreFp = 0b0100111
	opcodeOpFp    = 0b1010011
	opcodeFmadd   = 0b1000011
	opcodeFmsub   = 0b1000111
	opcodeFnmsub  = 0b1001011
	opcodeFnmadd  = 0b1001111
)

// Decoder decodes RV32I machine code into instructions. Decoding is total
// and stateless: the same word always yields the same result.
type Decoder struct{}

// NewDecoder creates a new RV32I instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RV32I instruction word. It returns
// ErrIllegalInstruction for words that match no encoding and
// ErrUnsupportedOperation for recognized extension opcodes.
func (d *Decoder) Decode(word uint32) (*Instruction, error) {
	inst := &Instruction{Raw: word}

	// The all-zero word is the defined illegal instruction.
	if word == 0 {
		return nil, illegalf(word)
	}

	// The two low bits are 11 for all 32-bit instructions; anything else
	// is a compressed (C extension) encoding.
	if word&0b11 != 0b11 {
		return nil, fmt.Errorf("%w: compressed encoding %#04x",
			ErrUnsupportedOperation, word&0xFFFF)
	}

	opcode := word & 0x7F
	switch opcode {
	case opcodeLUI:
		inst.Op = OpLUI
		d.decodeU(word, inst)
	case opcodeAUIPC:
		inst.Op = OpAUIPC
		d.decodeU(word, inst)
	case opcodeJAL:
		inst.Op = OpJAL
		d.decodeJ(word, inst)
	case opcodeJALR:
		if funct3(word) != 0 {
			return nil, illegalf(word)
		}
		inst.Op = OpJALR
		d.decodeI(word, inst)
	case opcodeBranch:
		if err := d.decodeBranch(word, inst); err != nil {
			return nil, err
		}
	case opcodeLoad:
		if err := d.decodeLoad(word, inst); err != nil {
			return nil, err
		}
	case opcodeStore:
		if err := d.decodeStore(word, inst); err != nil {
			return nil, err
		}
	case opcodeOpImm:
		if err := d.decodeOpImm(word, inst); err != nil {
			return nil, err
		}
	case opcodeOp:
		if err := d.decodeOp(word, inst); err != nil {
			return nil, err
		}
	case opcodeFence:
		// FENCE and FENCE.I are memory-ordering no-ops in this model.
		inst.Op = OpFENCE
		inst.Format = FormatI
	case opcodeSystem:
		if err := d.decodeSystem(word, inst); err != nil {
			return nil, err
		}
	case opcodeAmo, opcodeLoadFp, opcodeStoreFp, opcodeOpFp,
		opcodeFmadd, opcodeFmsub, opcodeFnmsub, opcodeFnmadd:
		return nil, fmt.Errorf("%w: opcode %#09b in word %#010x",
			ErrUnsupportedOperation, opcode, word)
	default:
		return nil, illegalf(word)
	}

	return inst, nil
}

func illegalf(word uint32) error {
	return fmt.Errorf("%w: word %#010x", ErrIllegalInstruction, word)
}

// Field extraction helpers.

func rd(word uint32) uint8     { return uint8((word >> 7) & 0x1F) }
func rs1(word uint32) uint8    { return uint8((word >> 15) & 0x1F) }
func rs2(word uint32) uint8    { return uint8((word >> 20) & 0x1F) }
func funct3(word uint32) uint8 { return uint8((word >> 12) & 0x7) }
func funct7(word uint32) uint8 { return uint8(word >> 25) }

// immI extracts the sign-extended I-format immediate (bits [31:20]).
func immI(word uint32) int32 {
	return int32(word) >> 20
}

// immS extracts the sign-extended S-format immediate
// (imm[11:5]=bits[31:25], imm[4:0]=bits[11:7]).
func immS(word uint32) int32 {
	imm := (word>>25)<<5 | (word >> 7 & 0x1F)
	return int32(imm<<20) >> 20
}

// immB extracts the sign-extended B-format immediate. The bits are scattered
// as imm[12|10:5]=bits[31:25], imm[4:1|11]=bits[11:7]; the low bit is forced
// to zero by the encoding.
func immB(word uint32) int32 {
	imm := (word>>31)<<12 |
		(word >> 7 & 0x1) << 11 |
		(word >> 25 & 0x3F) << 5 |
		(word >> 8 & 0xF) << 1
	return int32(imm<<19) >> 19
}

// immU extracts the U-format immediate, upper 20 bits in place.
func immU(word uint32) int32 {
	return int32(word & 0xFFFFF000)
}

// immJ extracts the sign-extended J-format immediate. The bits are scattered
// as imm[20|10:1|11|19:12]=bits[31:12]; the low bit is forced to zero.
func immJ(word uint32) int32 {
	imm := (word>>31)<<20 |
		(word >> 12 & 0xFF) << 12 |
		(word >> 20 & 0x1) << 11 |
		(word >> 21 & 0x3FF) << 1
	return int32(imm<<11) >> 11
}

func (d *Decoder) decodeU(word uint32, inst *Instruction) {
	inst.Format = FormatU
	inst.Rd = rd(word)
	inst.Imm = immU(word)
}

func (d *Decoder) decodeJ(word uint32, inst *Instruction) {
	inst.Format = FormatJ
	inst.Rd = rd(word)
	inst.Imm = immJ(word)
}

func (d *Decoder) decodeI(word uint32, inst *Instruction) {
	inst.Format = FormatI
	inst.Rd = rd(word)
	inst.Rs1 = rs1(word)
	inst.Imm = immI(word)
}

func (d *Decoder) decodeBranch(word uint32, inst *Instruction) error {
	switch funct3(word) {
	case 0b000:
		inst.Op = OpBEQ
	case 0b001:
		inst.Op = OpBNE
	case 0b100:
		inst.Op = OpBLT
	case 0b101:
		inst.Op = OpBGE
	case 0b110:
		inst.Op = OpBLTU
	case 0b111:
		inst.Op = OpBGEU
	default:
		return illegalf(word)
	}

	inst.Format = FormatB
	inst.Rs1 = rs1(word)
	inst.Rs2 = rs2(word)
	inst.Imm = immB(word)
	return nil
}

func (d *Decoder) decodeLoad(word uint32, inst *Instruction) error {
	switch funct3(word) {
	case 0b000:
		inst.Op = OpLB
	case 0b001:
		inst.Op = OpLH
	case 0b010:
		inst.Op = OpLW
	case 0b100:
		inst.Op = OpLBU
	case 0b101:
		inst.Op = OpLHU
	default:
		return illegalf(word)
	}

	d.decodeI(word, inst)
	return nil
}

func (d *Decoder) decodeStore(word uint32, inst *Instruction) error {
	switch funct3(word) {
	case 0b000:
		inst.Op = OpSB
	case 0b001:
		inst.Op = OpSH
	case 0b010:
		inst.Op = OpSW
	default:
		return illegalf(word)
	}

	inst.Format = FormatS
	inst.Rs1 = rs1(word)
	inst.Rs2 = rs2(word)
	inst.Imm = immS(word)
	return nil
}

func (d *Decoder) decodeOpImm(word uint32, inst *Instruction) error {
	switch funct3(word) {
	case 0b000:
		inst.Op = OpADDI
	case 0b010:
		inst.Op = OpSLTI
	case 0b011:
		inst.Op = OpSLTIU
	case 0b100:
		inst.Op = OpXORI
	case 0b110:
		inst.Op = OpORI
	case 0b111:
		inst.Op = OpANDI
	case 0b001:
		if funct7(word) != 0 {
			return illegalf(word)
		}
		inst.Op = OpSLLI
	case 0b101:
		switch funct7(word) {
		case 0b0000000:
			inst.Op = OpSRLI
		case 0b0100000:
			inst.Op = OpSRAI
		default:
			return illegalf(word)
		}
	}

	d.decodeI(word, inst)
	if inst.Op == OpSLLI || inst.Op == OpSRLI || inst.Op == OpSRAI {
		// Shift-immediate instructions carry a 5-bit shamt in the rs2
		// field position, not a full I-immediate.
		inst.Imm = int32(rs2(word))
	}
	return nil
}

func (d *Decoder) decodeOp(word uint32, inst *Instruction) error {
	f3, f7 := funct3(word), funct7(word)

	if f7 == 0b0000001 {
		// M extension (MUL/DIV family).
		return fmt.Errorf("%w: M-extension word %#010x",
			ErrUnsupportedOperation, word)
	}

	switch {
	case f3 == 0b000 && f7 == 0:
		inst.Op = OpADD
	case f3 == 0b000 && f7 == 0b0100000:
		inst.Op = OpSUB
	case f3 == 0b001 && f7 == 0:
		inst.Op = OpSLL
	case f3 == 0b010 && f7 == 0:
		inst.Op = OpSLT
	case f3 == 0b011 && f7 == 0:
		inst.Op = OpSLTU
	case f3 == 0b100 && f7 == 0:
		inst.Op = OpXOR
	case f3 == 0b101 && f7 == 0:
		inst.Op = OpSRL
	case f3 == 0b101 && f7 == 0b0100000:
		inst.Op = OpSRA
	case f3 == 0b110 && f7 == 0:
		inst.Op = OpOR
	case f3 == 0b111 && f7 == 0:
		inst.Op = OpAND
	default:
		return illegalf(word)
	}

	inst.Format = FormatR
	inst.Rd = rd(word)
	inst.Rs1 = rs1(word)
	inst.Rs2 = rs2(word)
	return nil
}

func (d *Decoder) decodeSystem(word uint32, inst *Instruction) error {
	if funct3(word) != 0 {
		// CSR instructions belong to Zicsr.
		return fmt.Errorf("%w: Zicsr word %#010x",
			ErrUnsupportedOperation, word)
	}

	switch immI(word) {
	case 0:
		inst.Op = OpECALL
	case 1:
		inst.Op = OpEBREAK
	default:
		return illegalf(word)
	}

	inst.Format = FormatI
	return nil
}
