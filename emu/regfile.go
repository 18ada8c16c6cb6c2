package emu

// Register indices with ABI meaning used by the simulator.
const (
	// RegSP is the stack pointer (x2).
	RegSP = 2
	// RegA0 is the first argument / return value register (x10).
	RegA0 = 10
	// RegA1 is the second argument register (x11).
	RegA1 = 11
	// RegA2 is the third argument register (x12).
	RegA2 = 12
	// RegA7 carries the syscall number (x17).
	RegA7 = 17
)

// RegFile represents the RV32I register file: 32 general-purpose 32-bit
// registers and the program counter. x0 is hardwired to zero.
type RegFile struct {
	// X holds general-purpose registers x0-x31. X[0] always reads as 0.
	X [32]uint32

	// PC is the program counter.
	PC uint32
}

// ReadReg reads a register value. Register 0 returns 0.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 || reg >= 32 {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Writes to register 0 are discarded.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 || reg >= 32 {
		return
	}
	r.X[reg] = value
}

var abiNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegName returns the ABI name of a register for display.
func RegName(reg uint8) string {
	if reg >= 32 {
		return "?"
	}
	return abiNames[reg]
}
