package emu

import "github.com/sarchlab/r5sim/insts"

// ALU implements RV32I arithmetic and logic operations as a pure function of
// its operands. Arithmetic wraps on 32-bit two's-complement overflow; shifts
// use only the low 5 bits of the shift amount.
type ALU struct{}

// NewALU creates a new ALU.
func NewALU() *ALU {
	return &ALU{}
}

// Execute computes the result for an ALU operation. Register-register and
// register-immediate variants of the same operation share an entry; the
// caller selects the b operand (register value or immediate) beforehand.
func (a *ALU) Execute(op insts.Op, x, y uint32) uint32 {
	switch op {
	case insts.OpADD, insts.OpADDI:
		return x + y
	case insts.OpSUB:
		return x - y
	case insts.OpSLT, insts.OpSLTI:
		if int32(x) < int32(y) {
			return 1
		}
		return 0
	case insts.OpSLTU, insts.OpSLTIU:
		if x < y {
			return 1
		}
		return 0
	case insts.OpAND, insts.OpANDI:
		return x & y
	case insts.OpOR, insts.OpORI:
		return x | y
	case insts.OpXOR, insts.OpXORI:
		return x ^ y
	case insts.OpSLL, insts.OpSLLI:
		return x << (y & 0x1F)
	case insts.OpSRL, insts.OpSRLI:
		return x >> (y & 0x1F)
	case insts.OpSRA, insts.OpSRAI:
		return uint32(int32(x) >> (y & 0x1F))
	}
	return 0
}
