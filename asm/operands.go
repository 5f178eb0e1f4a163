package asm

import (
	"strconv"
	"strings"

	"github.com/a64toolkit/a64emu/vm"
)

// Register is a parsed register operand: an index 0..31 plus the width
// selected by its x/w prefix (xzr/rzr read as 64-bit, wzr as 32-bit;
// ambiguous cases are resolved by the caller per the "operand 1 zero
// register takes bit-mode from operand 2" rule in §4.1).
type Register struct {
	Index uint8
	SF    bool
}

// ParseRegister parses x<n>, w<n>, xzr, wzr, or rzr.
func ParseRegister(tok string) (Register, error) {
	lower := strings.ToLower(tok)
	switch lower {
	case "xzr", "rzr":
		return Register{Index: vm.ZeroRegister, SF: true}, nil
	case "wzr":
		return Register{Index: vm.ZeroRegister, SF: false}, nil
	}

	if len(lower) < 2 {
		return Register{}, invalidRegister(tok)
	}

	n, err := strconv.Atoi(lower[1:])
	if err != nil || n < 0 || n > 30 {
		return Register{}, invalidRegister(tok)
	}

	switch lower[0] {
	case 'x':
		return Register{Index: uint8(n), SF: true}, nil
	case 'w':
		return Register{Index: uint8(n), SF: false}, nil
	default:
		return Register{}, invalidRegister(tok)
	}
}

func invalidRegister(tok string) error {
	return &Error{Message: "invalid register operand " + tok}
}

// IsZeroRegisterToken reports whether tok names the zero register under
// any of its spellings, without committing to a width.
func IsZeroRegisterToken(tok string) bool {
	switch strings.ToLower(tok) {
	case "xzr", "wzr", "rzr":
		return true
	default:
		return false
	}
}

// ParseImmediate parses an optionally "#"-prefixed, optionally negative,
// decimal or 0x-hex integer literal.
func ParseImmediate(tok string) (int64, error) {
	s := strings.TrimPrefix(tok, "#")
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var v uint64
	var err error
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		v, err = strconv.ParseUint(s[2:], 16, 64)
	} else {
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, &Error{Message: "invalid immediate operand " + tok, Wrapped: err}
	}

	if neg {
		return -int64(v), nil
	}
	return int64(v), nil
}

// MemOperand is a parsed [xn ...] addressing form.
type MemOperand struct {
	Xn       Register
	Imm      int64 // byte offset, or register-offset marker ignored when Xm set
	Xm       *Register
	PreIndex bool // "[xn, #imm]!"
	HasImm   bool
}

// ParseMemOperand recognises the five memory operand shapes from §4.1:
// [xn], [xn,#imm], [xn,#imm]!, [xn],#imm, and [xn,xm]. The caller passes
// the tokens exactly as the comma split left them — operands is the slice
// starting at the "[..."-prefixed token — and this function reassembles
// the bracketed group itself.
func ParseMemOperand(operands []string) (MemOperand, int, error) {
	if len(operands) == 0 || !strings.HasPrefix(operands[0], "[") {
		return MemOperand{}, 0, &Error{Message: "expected memory operand"}
	}

	// Reassemble the bracketed group: it may span one token ("[xn]") or
	// two ("[xn,#imm]" split by the comma tokenizer into "[xn" and
	// "#imm]" or "#imm]!").
	first := operands[0]
	if strings.HasSuffix(first, "]") || strings.HasSuffix(first, "]!") {
		xnTok := strings.TrimPrefix(first, "[")
		xnTok = strings.TrimSuffix(strings.TrimSuffix(xnTok, "!"), "]")
		xn, err := ParseRegister(xnTok)
		if err != nil {
			return MemOperand{}, 0, err
		}
		return MemOperand{Xn: xn}, 1, nil
	}

	if len(operands) < 2 {
		return MemOperand{}, 0, &Error{Message: "truncated memory operand " + first}
	}

	xnTok := strings.TrimPrefix(first, "[")
	xn, err := ParseRegister(xnTok)
	if err != nil {
		return MemOperand{}, 0, err
	}

	second := operands[1]
	preIndex := strings.HasSuffix(second, "]!")
	second = strings.TrimSuffix(second, "]!")
	second = strings.TrimSuffix(second, "]")

	if strings.HasPrefix(second, "#") || isDigitOrHex(second) {
		imm, err := ParseImmediate(second)
		if err != nil {
			return MemOperand{}, 0, err
		}
		return MemOperand{Xn: xn, Imm: imm, HasImm: true, PreIndex: preIndex}, 2, nil
	}

	xm, err := ParseRegister(second)
	if err != nil {
		return MemOperand{}, 0, err
	}
	return MemOperand{Xn: xn, Xm: &xm}, 2, nil
}

// ParsePostIndexImmediate parses the trailing ", #imm" of a "[xn], #imm"
// post-index form, which the comma tokenizer hands back as its own
// operand after the closed "[xn]" token.
func ParsePostIndexImmediate(tok string) (int64, error) {
	return ParseImmediate(tok)
}

func isDigitOrHex(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	return s != "" && (s[0] >= '0' && s[0] <= '9')
}

// ParseShiftType parses lsl/lsr/asr/ror (case-insensitive).
func ParseShiftType(tok string) (vm.ShiftType, bool) {
	return vm.ParseShiftType(strings.ToLower(tok))
}

// ParseConditionSuffix splits "b.<cond>" into its condition code.
func ParseConditionSuffix(mnemonic string) (vm.ConditionCode, bool) {
	idx := strings.IndexByte(mnemonic, '.')
	if idx < 0 {
		return 0, false
	}
	return vm.ParseConditionCode(mnemonic[idx+1:])
}
