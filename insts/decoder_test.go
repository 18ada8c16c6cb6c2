package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/r5sim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("register-immediate instructions", func() {
		It("should decode ADDI", func() {
			// addi x1, x0, 5
			inst, err := decoder.Decode(insts.IType(insts.OpADDI, 1, 0, 5))

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Format).To(Equal(insts.FormatI))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int32(5)))
		})

		It("should sign-extend negative immediates", func() {
			inst, err := decoder.Decode(insts.IType(insts.OpADDI, 1, 2, -1))

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Imm).To(Equal(int32(-1)))
		})

		It("should decode shift immediates as 5-bit shamt", func() {
			inst, err := decoder.Decode(insts.IType(insts.OpSRAI, 3, 4, 31))

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpSRAI))
			Expect(inst.Imm).To(Equal(int32(31)))
		})

		It("should reject SLLI with a nonzero funct7", func() {
			word := insts.IType(insts.OpSLLI, 1, 1, 1) | 1<<25

			_, err := decoder.Decode(word)

			Expect(err).To(MatchError(insts.ErrIllegalInstruction))
		})
	})

	Describe("register-register instructions", func() {
		It("should decode ADD", func() {
			inst, err := decoder.Decode(insts.RType(insts.OpADD, 3, 1, 2))

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Format).To(Equal(insts.FormatR))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
		})

		It("should distinguish SUB from ADD by funct7", func() {
			inst, err := decoder.Decode(insts.RType(insts.OpSUB, 3, 1, 2))

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpSUB))
		})

		It("should reject the M extension as unsupported", func() {
			// mul x1, x2, x3: funct7 == 1
			word := uint32(1)<<25 | uint32(3)<<20 | uint32(2)<<15 |
				uint32(1)<<7 | 0b0110011

			_, err := decoder.Decode(word)

			Expect(err).To(MatchError(insts.ErrUnsupportedOperation))
		})
	})

	Describe("upper-immediate instructions", func() {
		It("should decode LUI with the immediate in place", func() {
			inst, err := decoder.Decode(
				insts.UType(insts.OpLUI, 5, 0x12345000))

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Format).To(Equal(insts.FormatU))
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Imm).To(Equal(int32(0x12345000)))
		})

		It("should decode AUIPC", func() {
			inst, err := decoder.Decode(
				insts.UType(insts.OpAUIPC, 6, -4096))

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpAUIPC))
			Expect(inst.Imm).To(Equal(int32(-4096)))
		})
	})

	Describe("branches and jumps", func() {
		It("should reassemble the B-format immediate", func() {
			inst, err := decoder.Decode(insts.BType(insts.OpBEQ, 1, 2, -8))

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpBEQ))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int32(-8)))
		})

		It("should reassemble the J-format immediate", func() {
			inst, err := decoder.Decode(insts.JType(insts.OpJAL, 1, 2048))

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int32(2048)))
		})

		It("should decode JALR", func() {
			inst, err := decoder.Decode(insts.IType(insts.OpJALR, 0, 1, 0))

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpJALR))
		})

		It("should reject JALR with a nonzero funct3", func() {
			word := insts.IType(insts.OpJALR, 0, 1, 0) | 1<<12

			_, err := decoder.Decode(word)

			Expect(err).To(MatchError(insts.ErrIllegalInstruction))
		})
	})

	Describe("loads and stores", func() {
		It("should decode LW", func() {
			inst, err := decoder.Decode(insts.IType(insts.OpLW, 4, 0, 64))

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpLW))
			Expect(inst.IsLoad()).To(BeTrue())
			Expect(inst.Imm).To(Equal(int32(64)))
		})

		It("should decode SW with the split S-format immediate", func() {
			inst, err := decoder.Decode(insts.SType(insts.OpSW, 2, 3, -20))

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpSW))
			Expect(inst.IsStore()).To(BeTrue())
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(3)))
			Expect(inst.Imm).To(Equal(int32(-20)))
		})
	})

	Describe("system instructions", func() {
		It("should decode ECALL", func() {
			inst, err := decoder.Decode(insts.ECALL())

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpECALL))
			Expect(inst.IsSystem()).To(BeTrue())
		})

		It("should decode EBREAK", func() {
			inst, err := decoder.Decode(insts.EBREAK())

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpEBREAK))
		})

		It("should reject Zicsr instructions as unsupported", func() {
			// csrrw x0, mstatus, x0: funct3 == 1
			word := uint32(0x300)<<20 | uint32(1)<<12 | 0b1110011

			_, err := decoder.Decode(word)

			Expect(err).To(MatchError(insts.ErrUnsupportedOperation))
		})
	})

	Describe("invalid words", func() {
		It("should reject the all-zero word", func() {
			_, err := decoder.Decode(0x00000000)

			Expect(err).To(MatchError(insts.ErrIllegalInstruction))
		})

		It("should reject the all-ones word", func() {
			_, err := decoder.Decode(0xFFFFFFFF)

			Expect(err).To(MatchError(insts.ErrIllegalInstruction))
		})

		It("should reject compressed encodings as unsupported", func() {
			// Low two bits != 0b11 means a 16-bit RVC encoding.
			_, err := decoder.Decode(0x00000001)

			Expect(err).To(MatchError(insts.ErrUnsupportedOperation))
		})
	})

	Describe("round trip", func() {
		It("should re-encode decoded words unchanged", func() {
			words := []uint32{
				insts.IType(insts.OpADDI, 1, 0, 5),
				insts.IType(insts.OpADDI, 1, 2, -1),
				insts.IType(insts.OpSLLI, 1, 2, 7),
				insts.IType(insts.OpSRAI, 1, 2, 31),
				insts.RType(insts.OpADD, 3, 1, 2),
				insts.RType(insts.OpSUB, 3, 1, 2),
				insts.RType(insts.OpSLTU, 3, 1, 2),
				insts.UType(insts.OpLUI, 5, 0x12345000),
				insts.UType(insts.OpAUIPC, 6, -4096),
				insts.BType(insts.OpBNE, 1, 2, -4094),
				insts.BType(insts.OpBGEU, 1, 2, 4094),
				insts.JType(insts.OpJAL, 1, -1048576),
				insts.JType(insts.OpJAL, 0, 1048574),
				insts.IType(insts.OpJALR, 1, 2, -2048),
				insts.IType(insts.OpLB, 4, 0, -128),
				insts.IType(insts.OpLHU, 4, 0, 100),
				insts.SType(insts.OpSB, 2, 3, -1),
				insts.SType(insts.OpSH, 2, 3, 2046),
				insts.ECALL(),
				insts.EBREAK(),
				insts.NOP,
			}

			for _, word := range words {
				inst, err := decoder.Decode(word)

				Expect(err).NotTo(HaveOccurred())
				Expect(insts.Encode(inst)).To(Equal(word))
			}
		})
	})
})
