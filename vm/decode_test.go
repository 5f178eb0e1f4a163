package vm_test

import (
	"testing"

	"github.com/a64toolkit/a64emu/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Round-trip, spec.md §8: decode(encode(inst)) == inst, and for every
// emitted word, encode(decode(w)) == w.

func TestDecodeEncode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		inst vm.Instruction
	}{
		{"ImmArith add", vm.ImmArith{SF: true, SetFlags: true, Op: vm.ArithAdd, Imm12: 0x123, Rn: 1, Rd: 2}},
		{"ImmArith sub shifted", vm.ImmArith{SF: false, Op: vm.ArithSub, Sh: true, Imm12: 0xABC, Rn: 3, Rd: 4}},
		{"ImmWide movz", vm.ImmWide{SF: true, Opc: vm.WideMOVZ, HW: 2, Imm16: 0xBEEF, Rd: 5}},
		{"ImmWide movn", vm.ImmWide{SF: false, Opc: vm.WideMOVN, HW: 0, Imm16: 0xFFFF, Rd: 0}},
		{"RegArith", vm.RegArith{SF: true, SetFlags: true, Op: vm.ArithAdd, Shift: vm.ShiftLSR, Rm: 6, Operand: 12, Rn: 7, Rd: 8}},
		{"RegLogic and", vm.RegLogic{SF: true, Opc: vm.LogicAnd, Shift: vm.ShiftROR, Rm: 9, Operand: 5, Rn: 10, Rd: 11}},
		{"RegLogic orn", vm.RegLogic{SF: false, Opc: vm.LogicOrr, N: true, Rm: 1, Rn: 2, Rd: 3}},
		{"RegMultiply madd", vm.RegMultiply{SF: true, X: false, Rm: 1, Ra: 2, Rn: 3, Rd: 4}},
		{"RegMultiply msub", vm.RegMultiply{SF: false, X: true, Rm: 5, Ra: 6, Rn: 7, Rd: 8}},
		{"DTImmOffset load", vm.DTImmOffset{SF: true, L: true, Imm12: 0x1FF, Xn: 1, Rt: 2}},
		{"DTImmOffset store", vm.DTImmOffset{SF: false, L: false, Imm12: 0xA, Xn: 3, Rt: 4}},
		{"DTRegOffset", vm.DTRegOffset{SF: true, L: true, Xm: 5, Xn: 6, Rt: 7}},
		{"DTLoadLiteral positive", vm.DTLoadLiteral{SF: true, Simm19: 1000, Rt: 9}},
		{"DTLoadLiteral negative", vm.DTLoadLiteral{SF: false, Simm19: -1000, Rt: 10}},
		{"DTPrePostIndex pre", vm.DTPrePostIndex{SF: true, L: true, I: true, Simm9: 8, Xn: 1, Rt: 2}},
		{"DTPrePostIndex post negative", vm.DTPrePostIndex{SF: false, L: false, I: false, Simm9: -16, Xn: 3, Rt: 4}},
		{"BranchUncond positive", vm.BranchUncond{Simm26: 12345}},
		{"BranchUncond negative", vm.BranchUncond{Simm26: -12345}},
		{"BranchCond", vm.BranchCond{Cond: vm.CondGE, Simm19: -42}},
		{"BranchReg", vm.BranchReg{Xn: 17}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word := tt.inst.Encode()
			decoded, err := vm.Decode(word)
			require.NoError(t, err)
			assert.Equal(t, tt.inst, decoded)
			assert.Equal(t, word, decoded.Encode(), "encode(decode(w)) must equal w")
		})
	}
}

func TestDecode_HaltSentinelIsAndX0X0X0(t *testing.T) {
	inst := vm.RegLogic{SF: true, Opc: vm.LogicAnd, Rm: 0, Rn: 0, Rd: 0}
	assert.Equal(t, vm.HALT, inst.Encode())
}

func TestDecode_UnrecognizedWordIsDecodeError(t *testing.T) {
	_, err := vm.Decode(0xFFFFFFFF)
	assert.Error(t, err)
	var decodeErr *vm.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}
