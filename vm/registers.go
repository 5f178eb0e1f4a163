package vm

import "fmt"

// RegisterFile holds the 31 general registers plus the program counter,
// per spec.md §3/§4.5. Register index 31 (ZeroRegister) is synthetic: it
// is never stored, reads as 0, and silently discards writes.
//
// Grounded on the teacher's vm/cpu.go CPU struct, generalized from ARM2's
// fixed R0-R14 + separate PC to AArch64's X0-X30 + separate PC, and from
// 32-bit-only registers to dual 32/64-bit views.
type RegisterFile struct {
	x  [GeneralRegisterCount]uint64 // X0-X30
	pc uint64
}

// NewRegisterFile returns a zeroed register file.
func NewRegisterFile() *RegisterFile {
	return &RegisterFile{}
}

// Reset clears every register and the program counter.
func (r *RegisterFile) Reset() {
	for i := range r.x {
		r.x[i] = 0
	}
	r.pc = 0
}

// Read64 returns the full 64-bit value of register i. Reading the zero
// register returns 0. i must be in [0,31]; i>31 is a caller bug, and
// returns 0 rather than panicking to keep decode paths total — callers
// that need strict bounds checking should validate the register field
// width (5 bits) before calling.
func (r *RegisterFile) Read64(i uint8) uint64 {
	if i == ZeroRegister {
		return 0
	}
	if int(i) >= len(r.x) {
		return 0
	}
	return r.x[i]
}

// Read32 returns the low 32 bits of register i.
func (r *RegisterFile) Read32(i uint8) uint32 {
	return uint32(r.Read64(i))
}

// Write writes a 64-bit value to register i. Writing the zero register is
// a no-op. 32-bit-mode callers must zero-extend (mask to uint32 range)
// before calling, per spec.md §3 ("top 32 bits are always cleared when a
// 32-bit-mode write occurs").
func (r *RegisterFile) Write(i uint8, value uint64) {
	if i == ZeroRegister {
		return
	}
	if int(i) >= len(r.x) {
		return
	}
	r.x[i] = value
}

// WriteSized writes value to register i, zero-extending from 32 bits when
// is64 is false.
func (r *RegisterFile) WriteSized(i uint8, value uint64, is64 bool) {
	if !is64 {
		value = uint64(uint32(value))
	}
	r.Write(i, value)
}

// PC returns the current program counter.
func (r *RegisterFile) PC() uint64 { return r.pc }

// SetPC sets the program counter to an absolute address.
func (r *RegisterFile) SetPC(addr uint64) { r.pc = addr }

// IncrementPC advances the program counter by one instruction word.
func (r *RegisterFile) IncrementPC() { r.pc += InstructionSize }

// AddOffsetPC adds a signed word-count offset*4 to the program counter.
// The executor's branch variants do not call it; they compute the target
// from the fetch address and use SetPC.
func (r *RegisterFile) AddOffsetPC(words int64) { r.pc = uint64(int64(r.pc) + words*InstructionSize) }

// SP returns the stack pointer value. This subset has no dedicated
// stack-pointer storage distinct from the general registers or PC; SP
// always reads as 0.
func (r *RegisterFile) SP() uint64 { return 0 }

// SetSP always fails: the stack pointer exists conceptually (per
// spec.md §3) but is not assignable in this subset.
func (r *RegisterFile) SetSP(uint64) error {
	return fmt.Errorf("stack pointer is not assignable in this instruction subset")
}

// RegisterWriteError describes a write to a register that rejects it. No
// function in this package returns it: SetSP reports its refusal with a
// plain error, and Write discards writes to the zero register.
type RegisterWriteError struct {
	Register uint8
}

func (e *RegisterWriteError) Error() string {
	return fmt.Sprintf("register x%d cannot be written through this path", e.Register)
}
