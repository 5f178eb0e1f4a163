package vm

import "fmt"

// DecodeError reports an unrecognized bit pattern at a given PC, per
// spec.md §7 class 4.
type DecodeError struct {
	Word uint32
	PC   uint64
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: unrecognized instruction 0x%08X at PC=0x%016X", e.Word, e.PC)
}

// Decode is a pure function from a 32-bit word to its decoded Instruction,
// per spec.md §4.3. Dispatch mirrors the teacher's vm/executor.go Decode
// switch-on-top-bits structure, adapted to this subset's own bit layout
// (see vm/instruction.go for the layout chosen for each group).
func Decode(word uint32) (Instruction, error) {
	group := (word >> 26) & Mask3Bit

	switch group {
	case 0b100: // DP-immediate
		if (word>>25)&Mask1Bit == 0 {
			return decodeImmArith(word), nil
		}
		return decodeImmWide(word), nil

	case 0b010: // DP-register
		if (word>>25)&Mask1Bit == 0 {
			return decodeRegArith(word), nil
		}
		if (word>>24)&Mask1Bit == 0 {
			return decodeRegLogic(word), nil
		}
		return decodeRegMultiply(word), nil

	case 0b110: // Data transfer
		sel := (word >> 24) & Mask2Bit
		switch sel {
		case 0b00:
			return decodeDTImmOffset(word), nil
		case 0b01:
			return decodeDTPrePostIndex(word), nil
		case 0b10:
			return decodeDTRegOffset(word), nil
		default: // 0b11
			return decodeDTLoadLiteral(word), nil
		}

	case 0b101: // Branch
		subtype := (word >> 29) & Mask3Bit
		switch subtype {
		case 0b000:
			return decodeBranchUncond(word), nil
		case 0b001:
			return decodeBranchCond(word), nil
		case 0b010:
			return decodeBranchReg(word), nil
		default:
			return nil, &DecodeError{Word: word}
		}

	default:
		return nil, &DecodeError{Word: word}
	}
}

func decodeImmArith(w uint32) Instruction {
	return ImmArith{
		SF:       (w>>SFShift)&Mask1Bit != 0,
		SetFlags: (w>>30)&Mask1Bit != 0,
		Op:       ArithOp((w >> 29) & Mask1Bit),
		Sh:       (w>>24)&Mask1Bit != 0,
		Imm12:    uint16((w >> 12) & Mask12Bit),
		Rn:       uint8((w >> 7) & Mask5Bit),
		Rd:       uint8((w >> 2) & Mask5Bit),
	}
}

func decodeImmWide(w uint32) Instruction {
	return ImmWide{
		SF:    (w>>SFShift)&Mask1Bit != 0,
		Opc:   WideOp((w >> 29) & Mask2Bit),
		HW:    uint8((w >> 23) & Mask2Bit),
		Imm16: uint16((w >> 7) & Mask16Bit),
		Rd:    uint8((w >> 2) & Mask5Bit),
	}
}

func decodeRegArith(w uint32) Instruction {
	return RegArith{
		SF:       (w>>SFShift)&Mask1Bit != 0,
		SetFlags: (w>>30)&Mask1Bit != 0,
		Op:       ArithOp((w >> 29) & Mask1Bit),
		Shift:    ShiftType((w >> 22) & Mask2Bit),
		Rm:       uint8((w >> 17) & Mask5Bit),
		Operand:  uint8((w >> 11) & Mask6Bit),
		Rn:       uint8((w >> 6) & Mask5Bit),
		Rd:       uint8((w >> 1) & Mask5Bit),
	}
}

func decodeRegLogic(w uint32) Instruction {
	return RegLogic{
		SF:      (w>>SFShift)&Mask1Bit != 0,
		Opc:     LogicOp((w >> 29) & Mask2Bit),
		Shift:   ShiftType((w >> 22) & Mask2Bit),
		N:       (w>>21)&Mask1Bit != 0,
		Rm:      uint8((w >> 16) & Mask5Bit),
		Operand: uint8((w >> 10) & Mask6Bit),
		Rn:      uint8((w >> 5) & Mask5Bit),
		Rd:      uint8(w & Mask5Bit),
	}
}

func decodeRegMultiply(w uint32) Instruction {
	return RegMultiply{
		SF: (w>>SFShift)&Mask1Bit != 0,
		X:  (w>>29)&Mask1Bit != 0,
		Rm: uint8((w >> 19) & Mask5Bit),
		Ra: uint8((w >> 14) & Mask5Bit),
		Rn: uint8((w >> 9) & Mask5Bit),
		Rd: uint8((w >> 4) & Mask5Bit),
	}
}

func decodeDTImmOffset(w uint32) Instruction {
	return DTImmOffset{
		SF:    (w>>SFShift)&Mask1Bit != 0,
		L:     (w>>30)&Mask1Bit != 0,
		Imm12: uint16((w >> 12) & Mask12Bit),
		Xn:    uint8((w >> 7) & Mask5Bit),
		Rt:    uint8((w >> 2) & Mask5Bit),
	}
}

func decodeDTRegOffset(w uint32) Instruction {
	return DTRegOffset{
		SF: (w>>SFShift)&Mask1Bit != 0,
		L:  (w>>30)&Mask1Bit != 0,
		Xm: uint8((w >> 16) & Mask5Bit),
		Xn: uint8((w >> 6) & Mask5Bit),
		Rt: uint8((w >> 1) & Mask5Bit),
	}
}

func decodeDTLoadLiteral(w uint32) Instruction {
	raw := (w >> 5) & Mask19Bit
	return DTLoadLiteral{
		SF:     (w>>SFShift)&Mask1Bit != 0,
		Simm19: int32(SignExtend(raw, 19)),
		Rt:     uint8(w & Mask5Bit),
	}
}

func decodeDTPrePostIndex(w uint32) Instruction {
	raw := (w >> 15) & Mask9Bit
	return DTPrePostIndex{
		SF:     (w>>SFShift)&Mask1Bit != 0,
		L:      (w>>30)&Mask1Bit != 0,
		I:      (w>>29)&Mask1Bit != 0,
		Simm9:  int16(SignExtend(raw, 9)),
		Xn:     uint8((w >> 5) & Mask5Bit),
		Rt:     uint8(w & Mask5Bit),
	}
}

func decodeBranchUncond(w uint32) Instruction {
	raw := w & Mask26Bit
	return BranchUncond{Simm26: int32(SignExtend(raw, 26))}
}

func decodeBranchCond(w uint32) Instruction {
	raw := w & Mask19Bit
	return BranchCond{
		Cond:   ConditionCode((w >> 22) & Mask4Bit),
		Simm19: int32(SignExtend(raw, 19)),
	}
}

func decodeBranchReg(w uint32) Instruction {
	return BranchReg{Xn: uint8((w >> 21) & Mask5Bit)}
}
