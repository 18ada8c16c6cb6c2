package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/r5sim/emu"
)

// faultKind extracts the SimError kind from an error.
func faultKind(err error) emu.FaultKind {
	var simErr *emu.SimError
	ExpectWithOffset(1, errors.As(err, &simErr)).To(BeTrue())
	return simErr.Kind
}

var _ = Describe("Memory", func() {
	var memory *emu.Memory

	BeforeEach(func() {
		memory = emu.NewMemory(1024)
	})

	It("should read back written values", func() {
		Expect(memory.Write32(0, 0xDEADBEEF)).To(Succeed())
		Expect(memory.Write16(8, 0xCAFE)).To(Succeed())
		Expect(memory.Write8(10, 0x42)).To(Succeed())

		Expect(memory.Read32(0)).To(Equal(uint32(0xDEADBEEF)))
		Expect(memory.Read16(8)).To(Equal(uint16(0xCAFE)))
		Expect(memory.Read8(10)).To(Equal(uint8(0x42)))
	})

	It("should be little-endian", func() {
		Expect(memory.Write32(0, 0x11223344)).To(Succeed())

		Expect(memory.Read8(0)).To(Equal(uint8(0x44)))
		Expect(memory.Read8(3)).To(Equal(uint8(0x11)))
	})

	It("should start zero-filled", func() {
		Expect(memory.Read32(512)).To(Equal(uint32(0)))
	})

	Describe("bounds checking", func() {
		It("should allow access to the last valid byte", func() {
			Expect(memory.Write8(1023, 0xAB)).To(Succeed())
			Expect(memory.Read8(1023)).To(Equal(uint8(0xAB)))
		})

		It("should allow a word access ending at the memory size", func() {
			Expect(memory.Write32(1020, 1)).To(Succeed())
		})

		It("should reject access one past the end", func() {
			err := memory.Write8(1024, 0)

			Expect(err).To(HaveOccurred())
			Expect(faultKind(err)).To(Equal(emu.OutOfBoundsAccess))
		})

		It("should reject a word access straddling the end", func() {
			_, err := memory.Read32(1024)

			Expect(err).To(HaveOccurred())
			Expect(faultKind(err)).To(Equal(emu.OutOfBoundsAccess))
		})

		It("should reject a wrapped address", func() {
			_, err := memory.Read32(0xFFFFFFFC)

			Expect(err).To(HaveOccurred())
			Expect(faultKind(err)).To(Equal(emu.OutOfBoundsAccess))
		})
	})

	Describe("alignment checking", func() {
		It("should reject a misaligned word access by default", func() {
			_, err := memory.Read32(2)

			Expect(err).To(HaveOccurred())
			Expect(faultKind(err)).To(Equal(emu.MisalignedAccess))
		})

		It("should reject a misaligned halfword access by default", func() {
			err := memory.Write16(1, 0xFFFF)

			Expect(err).To(HaveOccurred())
			Expect(faultKind(err)).To(Equal(emu.MisalignedAccess))
		})

		It("should allow misaligned access in lenient mode", func() {
			lenient := emu.NewMemory(1024, emu.WithLenientAlignment())

			Expect(lenient.Write32(2, 0x11223344)).To(Succeed())
			Expect(lenient.Read32(2)).To(Equal(uint32(0x11223344)))
		})

		It("should still bounds-check in lenient mode", func() {
			lenient := emu.NewMemory(1024, emu.WithLenientAlignment())

			_, err := lenient.Read32(1022)

			Expect(err).To(HaveOccurred())
			Expect(faultKind(err)).To(Equal(emu.OutOfBoundsAccess))
		})
	})

	Describe("LoadSegment", func() {
		It("should bulk-copy at any address", func() {
			Expect(memory.LoadSegment(3, []byte{1, 2, 3})).To(Succeed())

			Expect(memory.Read8(3)).To(Equal(uint8(1)))
			Expect(memory.Read8(5)).To(Equal(uint8(3)))
		})

		It("should reject a segment past the end", func() {
			err := memory.LoadSegment(1023, []byte{1, 2})

			Expect(err).To(HaveOccurred())
			Expect(faultKind(err)).To(Equal(emu.OutOfBoundsAccess))
		})
	})

	Describe("ReadBytes", func() {
		It("should copy a byte range", func() {
			Expect(memory.LoadSegment(100, []byte("hello"))).To(Succeed())

			Expect(memory.ReadBytes(100, 5)).To(Equal([]byte("hello")))
		})

		It("should reject a range past the end", func() {
			_, err := memory.ReadBytes(1020, 8)

			Expect(err).To(HaveOccurred())
			Expect(faultKind(err)).To(Equal(emu.OutOfBoundsAccess))
		})
	})
})
