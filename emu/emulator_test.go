package emu_test

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/r5sim/emu"
	"github.com/sarchlab/r5sim/insts"
)

// loadWords writes a program into memory starting at address 0.
func loadWords(memory *emu.Memory, words []uint32) {
	for i, word := range words {
		ExpectWithOffset(1,
			memory.Write32(uint32(i)*4, word)).To(Succeed())
	}
}

// exitSequence returns the instructions that exit with the given code.
func exitSequence(code int32) []uint32 {
	return []uint32{
		insts.IType(insts.OpADDI, emu.RegA0, 0, code),
		insts.IType(insts.OpADDI, emu.RegA7, 0, emu.SyscallExit),
		insts.ECALL(),
	}
}

var _ = Describe("Emulator", func() {
	var (
		regFile *emu.RegFile
		memory  *emu.Memory
	)

	BeforeEach(func() {
		regFile = &emu.RegFile{}
		memory = emu.NewMemory(4096)
	})

	run := func(words []uint32) (int32, error) {
		loadWords(memory, words)
		emulator := emu.NewEmulator(regFile, memory)
		return emulator.Run()
	}

	It("should execute arithmetic and exit with the computed code", func() {
		program := []uint32{
			insts.IType(insts.OpADDI, 1, 0, 5),
			insts.IType(insts.OpADDI, 2, 0, 10),
			insts.RType(insts.OpADD, emu.RegA0, 1, 2),
			insts.IType(insts.OpADDI, emu.RegA7, 0, emu.SyscallExit),
			insts.ECALL(),
		}

		exitCode, err := run(program)

		Expect(err).NotTo(HaveOccurred())
		Expect(exitCode).To(Equal(int32(15)))
	})

	It("should store and load through memory", func() {
		program := append([]uint32{
			insts.IType(insts.OpADDI, 1, 0, -2),
			insts.SType(insts.OpSW, 0, 1, 256),
			insts.IType(insts.OpLW, 2, 0, 256),
			insts.IType(insts.OpLBU, 3, 0, 256),
			insts.IType(insts.OpLB, 4, 0, 256),
		}, exitSequence(0)...)

		_, err := run(program)

		Expect(err).NotTo(HaveOccurred())
		Expect(regFile.ReadReg(2)).To(Equal(uint32(0xFFFFFFFE)))
		Expect(regFile.ReadReg(3)).To(Equal(uint32(0xFE)))
		Expect(regFile.ReadReg(4)).To(Equal(uint32(0xFFFFFFFE)))
	})

	It("should ignore writes to x0", func() {
		program := append([]uint32{
			insts.IType(insts.OpADDI, 0, 0, 5),
		}, exitSequence(0)...)

		_, err := run(program)

		Expect(err).NotTo(HaveOccurred())
		Expect(regFile.ReadReg(0)).To(Equal(uint32(0)))
	})

	It("should take branches", func() {
		program := []uint32{
			insts.IType(insts.OpADDI, 1, 0, 1),        // 0
			insts.BType(insts.OpBNE, 1, 0, 8),         // 4: taken, to 12
			insts.IType(insts.OpADDI, 2, 0, 99),       // 8: skipped
			insts.IType(insts.OpADDI, 3, 0, 7),        // 12
			insts.BType(insts.OpBEQ, 1, 0, 8),         // 16: not taken
			insts.IType(insts.OpADDI, 4, 0, 8),        // 20
		}
		program = append(program, exitSequence(0)...)

		_, err := run(program)

		Expect(err).NotTo(HaveOccurred())
		Expect(regFile.ReadReg(2)).To(Equal(uint32(0)))
		Expect(regFile.ReadReg(3)).To(Equal(uint32(7)))
		Expect(regFile.ReadReg(4)).To(Equal(uint32(8)))
	})

	It("should link and return through JAL and JALR", func() {
		program := []uint32{
			insts.JType(insts.OpJAL, 1, 12),           // 0: to 12, x1=4
			insts.IType(insts.OpADDI, 2, 0, 50),       // 4: after return
			insts.JType(insts.OpJAL, 0, 16),           // 8: to 24
			insts.IType(insts.OpADDI, 3, 0, 3),        // 12: subroutine
			insts.IType(insts.OpJALR, 0, 1, 0),        // 16: return to 4
			insts.NOP,                                 // 20
		}
		program = append(program, exitSequence(0)...) // 24

		_, err := run(program)

		Expect(err).NotTo(HaveOccurred())
		Expect(regFile.ReadReg(1)).To(Equal(uint32(4)))
		Expect(regFile.ReadReg(2)).To(Equal(uint32(50)))
		Expect(regFile.ReadReg(3)).To(Equal(uint32(3)))
	})

	It("should build addresses with LUI and AUIPC", func() {
		program := append([]uint32{
			insts.UType(insts.OpLUI, 1, 0x1000),       // x1 = 0x1000
			insts.UType(insts.OpAUIPC, 2, 0x1000),     // x2 = 4 + 0x1000
		}, exitSequence(0)...)

		_, err := run(program)

		Expect(err).NotTo(HaveOccurred())
		Expect(regFile.ReadReg(1)).To(Equal(uint32(0x1000)))
		Expect(regFile.ReadReg(2)).To(Equal(uint32(0x1004)))
	})

	It("should write syscall output and return the length in a0", func() {
		var out bytes.Buffer
		Expect(memory.LoadSegment(512, []byte("hi"))).To(Succeed())

		program := []uint32{
			insts.IType(insts.OpADDI, emu.RegA0, 0, 1),   // fd
			insts.IType(insts.OpADDI, emu.RegA1, 0, 512), // buf
			insts.IType(insts.OpADDI, emu.RegA2, 0, 2),   // len
			insts.IType(insts.OpADDI, emu.RegA7, 0, emu.SyscallWrite),
			insts.ECALL(),
			insts.IType(insts.OpADDI, emu.RegA7, 0, emu.SyscallExit),
			insts.ECALL(),
		}
		loadWords(memory, program)

		emulator := emu.NewEmulator(regFile, memory, emu.WithStdout(&out))
		exitCode, err := emulator.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(Equal("hi"))
		// The write's return value is still in a0 at exit.
		Expect(exitCode).To(Equal(int32(2)))
	})

	It("should exit with code 0 on EBREAK", func() {
		exitCode, err := run([]uint32{
			insts.IType(insts.OpADDI, 1, 0, 1),
			insts.EBREAK(),
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(exitCode).To(Equal(int32(0)))
		Expect(regFile.ReadReg(1)).To(Equal(uint32(1)))
	})

	It("should fault on an illegal instruction with the PC recorded", func() {
		_, err := run([]uint32{
			insts.IType(insts.OpADDI, 1, 0, 1),
			0xFFFFFFFF,
		})

		Expect(err).To(HaveOccurred())
		var simErr *emu.SimError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Kind).To(Equal(emu.IllegalInstruction))
		Expect(simErr.PC).To(Equal(uint32(4)))
	})

	It("should fault on a misaligned store", func() {
		_, err := run([]uint32{
			insts.IType(insts.OpADDI, 1, 0, 7),
			insts.SType(insts.OpSW, 0, 1, 2),
		})

		Expect(err).To(HaveOccurred())
		var simErr *emu.SimError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Kind).To(Equal(emu.MisalignedAccess))
		Expect(simErr.Addr).To(Equal(uint32(2)))
	})

	It("should fault on an unknown syscall", func() {
		_, err := run([]uint32{
			insts.IType(insts.OpADDI, emu.RegA7, 0, 1000),
			insts.ECALL(),
		})

		Expect(err).To(HaveOccurred())
		var simErr *emu.SimError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Kind).To(Equal(emu.UnsupportedOperation))
	})

	It("should stop at the instruction cap", func() {
		loadWords(memory, []uint32{
			insts.JType(insts.OpJAL, 0, 0), // spin in place
		})

		emulator := emu.NewEmulator(regFile, memory,
			emu.WithMaxInstructions(100))
		_, err := emulator.Run()

		Expect(err).To(HaveOccurred())
		Expect(emulator.InstructionCount()).To(Equal(uint64(100)))
	})
})
