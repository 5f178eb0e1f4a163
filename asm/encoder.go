package asm

import (
	"strconv"
	"strings"

	"github.com/a64toolkit/a64emu/vm"
)

// Assembler turns source text into an ordered sequence of machine words,
// owning the symbol table and the emitted-word buffer for the lifetime of
// one pass (there is no global assembler state, per the teacher's module
// layout generalized away from singletons).
type Assembler struct {
	Symbols        *SymbolTable
	Words          []uint32
	LineForAddress map[uint32]int
	SourceForAddr  map[uint32]string
}

// NewAssembler returns an Assembler ready to assemble one source file.
func NewAssembler() *Assembler {
	return &Assembler{
		Symbols:        NewSymbolTable(),
		Words:          nil,
		LineForAddress: make(map[uint32]int),
		SourceForAddr:  make(map[uint32]string),
	}
}

// Assemble lexes and encodes source line by line, resolving labels as
// they're defined and back-patching forward references in place. It
// fails if any label is still pending once the whole input is consumed.
func (a *Assembler) Assemble(source string) ([]uint32, error) {
	lines, err := Lex(source)
	if err != nil {
		return nil, err
	}

	for _, ln := range lines {
		addr := uint32(len(a.Words)) * vm.InstructionSize

		if ln.Label != "" {
			if err := a.Symbols.Define(a.Words, addr, ln.Label); err != nil {
				return nil, attachContext(err, ln)
			}
		}

		if ln.Mnemonic == "" {
			continue
		}

		word, err := a.encodeLine(addr, ln)
		if err != nil {
			return nil, attachContext(err, ln)
		}
		a.Words = append(a.Words, word)
		a.LineForAddress[addr] = ln.Number
		a.SourceForAddr[addr] = strings.TrimSpace(ln.Raw)
	}

	if unresolved := a.Symbols.Unresolved(); len(unresolved) > 0 {
		return nil, &SymbolError{Name: unresolved[0], Message: "referenced but never defined"}
	}

	return a.Words, nil
}

func attachContext(err error, ln Line) error {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*Error); ok {
		if ae.Line == 0 {
			ae.Line = ln.Number
			ae.Raw = ln.Raw
		}
		return ae
	}
	return wrapError(ln.Number, ln.Raw, "encoding failed", err)
}

func (a *Assembler) encodeLine(addr uint32, ln Line) (uint32, error) {
	if strings.HasPrefix(ln.Mnemonic, ".") {
		return encodeDirective(ln)
	}

	mnemonic, operands := normalizeAlias(ln.Mnemonic, ln.Operands)
	lower := strings.ToLower(mnemonic)

	switch {
	case lower == "movz" || lower == "movn" || lower == "movk":
		return encodeImmWide(lower, operands)
	case lower == "add" || lower == "adds" || lower == "sub" || lower == "subs":
		return encodeArith(lower, operands)
	case lower == "and" || lower == "ands" || lower == "orr" || lower == "orn" || lower == "eor":
		return encodeLogic(lower, operands)
	case lower == "madd" || lower == "msub":
		return encodeMultiply(lower, operands)
	case lower == "ldr" || lower == "str":
		return a.encodeDataTransfer(lower, operands, addr)
	case lower == "b":
		return a.encodeBranchUncond(operands, addr)
	case strings.HasPrefix(lower, "b."):
		return a.encodeBranchCond(lower, operands, addr)
	case lower == "br":
		return encodeBranchReg(operands)
	default:
		return 0, newError(0, "", "unknown mnemonic "+ln.Mnemonic)
	}
}

func encodeDirective(ln Line) (uint32, error) {
	if strings.ToLower(ln.Mnemonic) != ".int" {
		return 0, newError(0, "", "unknown directive "+ln.Mnemonic)
	}
	if len(ln.Operands) != 1 {
		return 0, newError(0, "", ".int takes exactly one operand")
	}
	imm, err := ParseImmediate(ln.Operands[0])
	if err != nil {
		return 0, err
	}
	return uint32(imm), nil
}

func requireOperands(operands []string, n int, what string) error {
	if len(operands) < n {
		return newError(0, "", what+" requires at least "+strconv.Itoa(n)+" operands")
	}
	return nil
}

func isImmediateOperand(tok string) bool {
	if strings.HasPrefix(tok, "#") {
		return true
	}
	t := strings.TrimPrefix(tok, "-")
	return t != "" && t[0] >= '0' && t[0] <= '9'
}

func opForArith(lower string) vm.ArithOp {
	if strings.HasPrefix(lower, "add") {
		return vm.ArithAdd
	}
	return vm.ArithSub
}

func encodeArith(lower string, operands []string) (uint32, error) {
	if err := requireOperands(operands, 3, lower); err != nil {
		return 0, err
	}
	rd, err := ParseRegister(operands[0])
	if err != nil {
		return 0, err
	}
	rn, err := ParseRegister(operands[1])
	if err != nil {
		return 0, err
	}
	sf := rd.SF
	if IsZeroRegisterToken(operands[0]) {
		sf = rn.SF
	}
	setFlags := strings.HasSuffix(lower, "s")
	op := opForArith(lower)
	op2tok := operands[2]

	if isImmediateOperand(op2tok) {
		imm, err := ParseImmediate(op2tok)
		if err != nil {
			return 0, err
		}
		sh := false
		if len(operands) >= 5 && strings.EqualFold(operands[3], "lsl") {
			amt, err := ParseImmediate(operands[4])
			if err != nil {
				return 0, err
			}
			sh = amt != 0
		}
		if imm < 0 || imm > 0xFFF {
			return 0, newError(0, "", "immediate operand out of 12-bit range: "+op2tok)
		}
		inst := vm.ImmArith{SF: sf, SetFlags: setFlags, Op: op, Sh: sh, Imm12: uint16(imm), Rn: rn.Index, Rd: rd.Index}
		return inst.Encode(), nil
	}

	rm, err := ParseRegister(op2tok)
	if err != nil {
		return 0, err
	}
	shiftType := vm.ShiftLSL
	var amt int64
	if len(operands) >= 5 {
		st, ok := ParseShiftType(operands[3])
		if !ok {
			return 0, newError(0, "", "unknown shift type "+operands[3])
		}
		shiftType = st
		amt, err = ParseImmediate(operands[4])
		if err != nil {
			return 0, err
		}
	}
	inst := vm.RegArith{SF: sf, SetFlags: setFlags, Op: op, Shift: shiftType, Rm: rm.Index, Operand: uint8(amt), Rn: rn.Index, Rd: rd.Index}
	return inst.Encode(), nil
}

func encodeLogic(lower string, operands []string) (uint32, error) {
	if err := requireOperands(operands, 3, lower); err != nil {
		return 0, err
	}
	rd, err := ParseRegister(operands[0])
	if err != nil {
		return 0, err
	}
	rn, err := ParseRegister(operands[1])
	if err != nil {
		return 0, err
	}
	rm, err := ParseRegister(operands[2])
	if err != nil {
		return 0, err
	}
	sf := rd.SF
	if IsZeroRegisterToken(operands[0]) {
		sf = rn.SF
	}

	shiftType := vm.ShiftLSL
	var amt int64
	if len(operands) >= 5 {
		st, ok := ParseShiftType(operands[3])
		if !ok {
			return 0, newError(0, "", "unknown shift type "+operands[3])
		}
		shiftType = st
		amt, err = ParseImmediate(operands[4])
		if err != nil {
			return 0, err
		}
	}

	var opc vm.LogicOp
	n := false
	switch lower {
	case "and":
		opc = vm.LogicAnd
	case "ands":
		opc = vm.LogicAndFlags
	case "orr":
		opc = vm.LogicOrr
	case "orn":
		opc = vm.LogicOrr
		n = true
	case "eor":
		opc = vm.LogicEor
	}

	inst := vm.RegLogic{SF: sf, Opc: opc, N: n, Shift: shiftType, Rm: rm.Index, Operand: uint8(amt), Rn: rn.Index, Rd: rd.Index}
	return inst.Encode(), nil
}

func encodeMultiply(lower string, operands []string) (uint32, error) {
	if err := requireOperands(operands, 4, lower); err != nil {
		return 0, err
	}
	rd, err := ParseRegister(operands[0])
	if err != nil {
		return 0, err
	}
	rn, err := ParseRegister(operands[1])
	if err != nil {
		return 0, err
	}
	rm, err := ParseRegister(operands[2])
	if err != nil {
		return 0, err
	}
	ra, err := ParseRegister(operands[3])
	if err != nil {
		return 0, err
	}
	inst := vm.RegMultiply{SF: rd.SF, X: lower == "msub", Rm: rm.Index, Ra: ra.Index, Rn: rn.Index, Rd: rd.Index}
	return inst.Encode(), nil
}

func encodeImmWide(lower string, operands []string) (uint32, error) {
	if err := requireOperands(operands, 2, lower); err != nil {
		return 0, err
	}
	rd, err := ParseRegister(operands[0])
	if err != nil {
		return 0, err
	}
	imm, err := ParseImmediate(operands[1])
	if err != nil {
		return 0, err
	}
	if imm < 0 || imm > 0xFFFF {
		return 0, newError(0, "", "immediate operand out of 16-bit range: "+operands[1])
	}

	hw := 0
	if len(operands) >= 4 && strings.EqualFold(operands[2], "lsl") {
		amt, err := ParseImmediate(operands[3])
		if err != nil {
			return 0, err
		}
		hw = int(amt / 16)
	}

	var opc vm.WideOp
	switch lower {
	case "movn":
		opc = vm.WideMOVN
	case "movz":
		opc = vm.WideMOVZ
	case "movk":
		opc = vm.WideMOVK
	}

	inst := vm.ImmWide{SF: rd.SF, Opc: opc, HW: uint8(hw), Imm16: uint16(imm), Rd: rd.Index}
	return inst.Encode(), nil
}

func (a *Assembler) encodeDataTransfer(lower string, operands []string, addr uint32) (uint32, error) {
	if err := requireOperands(operands, 2, lower); err != nil {
		return 0, err
	}
	rt, err := ParseRegister(operands[0])
	if err != nil {
		return 0, err
	}
	rest := operands[1:]
	isLoad := lower == "ldr"

	if strings.HasPrefix(rest[0], "[") {
		mem, consumed, err := ParseMemOperand(rest)
		if err != nil {
			return 0, err
		}

		if consumed == 1 && len(rest) > 1 {
			imm, err := ParsePostIndexImmediate(rest[1])
			if err != nil {
				return 0, err
			}
			inst := vm.DTPrePostIndex{SF: rt.SF, L: isLoad, I: false, Simm9: int16(imm), Xn: mem.Xn.Index, Rt: rt.Index}
			return inst.Encode(), nil
		}

		if mem.PreIndex {
			inst := vm.DTPrePostIndex{SF: rt.SF, L: isLoad, I: true, Simm9: int16(mem.Imm), Xn: mem.Xn.Index, Rt: rt.Index}
			return inst.Encode(), nil
		}

		if mem.Xm != nil {
			inst := vm.DTRegOffset{SF: rt.SF, L: isLoad, Xm: mem.Xm.Index, Xn: mem.Xn.Index, Rt: rt.Index}
			return inst.Encode(), nil
		}

		size := int64(4)
		if rt.SF {
			size = 8
		}
		if mem.HasImm && mem.Imm%size != 0 {
			return 0, newError(0, "", "unsigned offset is not a multiple of the access size")
		}
		scaled := mem.Imm / size
		if scaled < 0 || scaled > 0xFFF {
			return 0, newError(0, "", "offset out of 12-bit scaled range")
		}
		inst := vm.DTImmOffset{SF: rt.SF, L: isLoad, Imm12: uint16(scaled), Xn: mem.Xn.Index, Rt: rt.Index}
		return inst.Encode(), nil
	}

	if !isLoad {
		return 0, newError(0, "", "str requires a memory operand")
	}

	tok := rest[0]
	var simm19 int32
	if isImmediateOperand(tok) {
		imm, err := ParseImmediate(tok)
		if err != nil {
			return 0, err
		}
		if imm%4 != 0 {
			return 0, newError(0, "", "load-literal immediate must be a multiple of 4")
		}
		simm19 = int32(imm / 4)
	} else {
		simm19 = a.Symbols.LookupOrDefer(addr, tok)
	}

	inst := vm.DTLoadLiteral{SF: rt.SF, Simm19: simm19, Rt: rt.Index}
	return inst.Encode(), nil
}

func (a *Assembler) encodeBranchUncond(operands []string, addr uint32) (uint32, error) {
	if err := requireOperands(operands, 1, "b"); err != nil {
		return 0, err
	}
	disp := a.Symbols.LookupOrDefer(addr, operands[0])
	inst := vm.BranchUncond{Simm26: disp}
	return inst.Encode(), nil
}

func (a *Assembler) encodeBranchCond(lower string, operands []string, addr uint32) (uint32, error) {
	if err := requireOperands(operands, 1, lower); err != nil {
		return 0, err
	}
	cond, ok := ParseConditionSuffix(lower)
	if !ok {
		return 0, newError(0, "", "unknown condition in "+lower)
	}
	disp := a.Symbols.LookupOrDefer(addr, operands[0])
	inst := vm.BranchCond{Cond: cond, Simm19: disp}
	return inst.Encode(), nil
}

func encodeBranchReg(operands []string) (uint32, error) {
	if err := requireOperands(operands, 1, "br"); err != nil {
		return 0, err
	}
	xn, err := ParseRegister(operands[0])
	if err != nil {
		return 0, err
	}
	inst := vm.BranchReg{Xn: xn.Index}
	return inst.Encode(), nil
}
