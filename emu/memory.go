package emu

import (
	"encoding/binary"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// DefaultMemSize is the default memory size (16 MiB).
const DefaultMemSize uint32 = 16 * 1024 * 1024

// Memory is a flat, byte-addressable, little-endian memory of fixed size.
// Every access is bounds-checked; multi-byte accesses are additionally
// alignment-checked unless lenient alignment is selected. All faults are
// fatal to the simulation run.
type Memory struct {
	storage     *mem.Storage
	size        uint32
	strictAlign bool
}

// MemoryOption is a functional option for configuring Memory.
type MemoryOption func(*Memory)

// WithLenientAlignment disables the natural-alignment check on multi-byte
// accesses. Bounds are still enforced.
func WithLenientAlignment() MemoryOption {
	return func(m *Memory) {
		m.strictAlign = false
	}
}

// NewMemory creates a zero-filled memory of the given size in bytes.
// Alignment checking is strict unless WithLenientAlignment is given.
func NewMemory(size uint32, opts ...MemoryOption) *Memory {
	m := &Memory{
		storage:     mem.NewStorage(uint64(size)),
		size:        size,
		strictAlign: true,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Size returns the memory size in bytes.
func (m *Memory) Size() uint32 {
	return m.size
}

// check validates bounds and alignment for an n-byte access at addr.
func (m *Memory) check(addr uint32, n uint32) *SimError {
	if n > m.size || addr > m.size-n {
		return NewMemFault(OutOfBoundsAccess, addr)
	}
	if m.strictAlign && addr%n != 0 {
		return NewMemFault(MisalignedAccess, addr)
	}
	return nil
}

func (m *Memory) read(addr uint32, n uint32) ([]byte, *SimError) {
	if err := m.check(addr, n); err != nil {
		return nil, err
	}
	data, err := m.storage.Read(uint64(addr), uint64(n))
	if err != nil {
		return nil, NewMemFault(OutOfBoundsAccess, addr)
	}
	return data, nil
}

func (m *Memory) write(addr uint32, data []byte) *SimError {
	if err := m.check(addr, uint32(len(data))); err != nil {
		return err
	}
	if err := m.storage.Write(uint64(addr), data); err != nil {
		return NewMemFault(OutOfBoundsAccess, addr)
	}
	return nil
}

// Read8 reads one byte.
func (m *Memory) Read8(addr uint32) (uint8, error) {
	data, err := m.read(addr, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// Read16 reads a little-endian halfword.
func (m *Memory) Read16(addr uint32) (uint16, error) {
	data, err := m.read(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data), nil
}

// Read32 reads a little-endian word.
func (m *Memory) Read32(addr uint32) (uint32, error) {
	data, err := m.read(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// Write8 writes one byte.
func (m *Memory) Write8(addr uint32, value uint8) error {
	if err := m.write(addr, []byte{value}); err != nil {
		return err
	}
	return nil
}

// Write16 writes a little-endian halfword.
func (m *Memory) Write16(addr uint32, value uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], value)
	if err := m.write(addr, buf[:]); err != nil {
		return err
	}
	return nil
}

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint32, value uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	if err := m.write(addr, buf[:]); err != nil {
		return err
	}
	return nil
}

// LoadSegment bulk-copies program image bytes at addr, bypassing the
// alignment policy. It is intended for the loader before simulation starts.
func (m *Memory) LoadSegment(addr uint32, data []byte) error {
	if uint64(addr)+uint64(len(data)) > uint64(m.size) {
		return NewMemFault(OutOfBoundsAccess, addr)
	}
	if len(data) == 0 {
		return nil
	}
	if err := m.storage.Write(uint64(addr), data); err != nil {
		return NewMemFault(OutOfBoundsAccess, addr)
	}
	return nil
}

// ReadBytes copies n bytes starting at addr, bounds-checked only. It serves
// the syscall handler and state inspection.
func (m *Memory) ReadBytes(addr uint32, n uint32) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if uint64(addr)+uint64(n) > uint64(m.size) {
		return nil, NewMemFault(OutOfBoundsAccess, addr)
	}
	data, err := m.storage.Read(uint64(addr), uint64(n))
	if err != nil {
		return nil, NewMemFault(OutOfBoundsAccess, addr)
	}
	return data, nil
}
