package vm

// ============================================================================
// AArch64 Subset Architecture Constants
// ============================================================================
// These values are defined by the documented AArch64 subset and shared
// between the encoder (github.com/a64toolkit/a64emu/asm) and this
// package's decoder/executor.

const (
	// InstructionSize is the width in bytes of every emitted/fetched word.
	InstructionSize = 4

	// GeneralRegisterCount is the number of addressable general registers,
	// 0-30. Index 31 is the synthetic zero register (never stored).
	GeneralRegisterCount = 31

	// ZeroRegister is the synthetic index for xzr/wzr/rzr: reads as 0,
	// writes discarded.
	ZeroRegister = 31

	// SignBitPos32/64 locate the sign bit for 32-bit and 64-bit results.
	SignBitPos32 = 31
	SignBitPos64 = 63

	// Mask1Bit .. Mask26Bit are common bitfield masks used by the decoder.
	Mask1Bit  = 0x1
	Mask2Bit  = 0x3
	Mask3Bit  = 0x7
	Mask4Bit  = 0xF
	Mask5Bit  = 0x1F
	Mask6Bit  = 0x3F
	Mask9Bit  = 0x1FF
	Mask12Bit = 0xFFF
	Mask16Bit = 0xFFFF
	Mask19Bit = 0x7FFFF
	Mask26Bit = 0x3FFFFFF

	// HALT is the sentinel word the fetch stage recognizes as a halt
	// request. It is bit-identical to "and x0, x0, x0".
	HALT uint32 = 0x8A000000

	// SFShift locates the operand-size bit (bit 31) shared by every
	// variant that carries an sf field (ImmArith, ImmWide, RegArith,
	// RegLogic, RegMultiply, the DT variants). Per-variant field shifts
	// beyond this one are local to each Encode/Decode pair in
	// instruction.go/decode.go rather than hoisted here, since this
	// subset's variants don't share a common field layout the way sf
	// does.
	SFShift = 31
)
