package vm_test

import (
	"testing"

	"github.com/a64toolkit/a64emu/vm"
	"github.com/stretchr/testify/assert"
)

func TestRegisterFile_ZeroRegisterReadsZero(t *testing.T) {
	r := vm.NewRegisterFile()
	r.Write(1, 42)
	assert.EqualValues(t, 0, r.Read64(vm.ZeroRegister))
}

func TestRegisterFile_ZeroRegisterWriteDiscarded(t *testing.T) {
	r := vm.NewRegisterFile()
	r.Write(vm.ZeroRegister, 0xFFFFFFFFFFFFFFFF)
	assert.EqualValues(t, 0, r.Read64(vm.ZeroRegister))
}

func TestRegisterFile_WriteSized32BitZeroExtends(t *testing.T) {
	r := vm.NewRegisterFile()
	r.Write(0, 0xFFFFFFFFFFFFFFFF)
	r.WriteSized(0, 0x80000000, false)
	assert.EqualValues(t, 0x0000000080000000, r.Read64(0), "top 32 bits must be cleared on a 32-bit write")
}

func TestRegisterFile_Read32IsLow32Bits(t *testing.T) {
	r := vm.NewRegisterFile()
	r.Write(3, 0x1122334455667788)
	assert.EqualValues(t, 0x55667788, r.Read32(3))
}

func TestRegisterFile_PC(t *testing.T) {
	r := vm.NewRegisterFile()
	r.SetPC(0x1000)
	assert.EqualValues(t, 0x1000, r.PC())
	r.IncrementPC()
	assert.EqualValues(t, 0x1004, r.PC())
	r.AddOffsetPC(-2)
	assert.EqualValues(t, 0x0FFC, r.PC())
}

func TestRegisterFile_StackPointerNotAssignable(t *testing.T) {
	r := vm.NewRegisterFile()
	assert.EqualValues(t, 0, r.SP())
	assert.Error(t, r.SetSP(0x1000))
}

func TestRegisterFile_Reset(t *testing.T) {
	r := vm.NewRegisterFile()
	r.Write(0, 1)
	r.SetPC(4)
	r.Reset()
	assert.EqualValues(t, 0, r.Read64(0))
	assert.EqualValues(t, 0, r.PC())
}
