package vm

import "fmt"

// State mirrors the teacher's vm/executor.go ExecutionState, trimmed to
// the states this synchronous, single-threaded core actually reaches
// (spec.md §5): no breakpoint state here — that belongs to the debugger
// collaborator (see debugger.Debugger), which layers breakpoint checks
// around Step.
type State int

const (
	StateRunning State = iota
	StateHalted
	StateError
)

// DefaultMaxCycles bounds runaway programs the same way the teacher's
// vm.DefaultMaxCycles does; spec.md doesn't mandate a specific limit, but
// an unconditional loop driver needs one to stay useful as a library.
const DefaultMaxCycles = 10_000_000

// VM is the complete emulator: RegisterFile + Memory + PState, owned for
// the lifetime of one run, matching the single-owner resource model in
// spec.md §5.
type VM struct {
	Regs   *RegisterFile
	Memory *Memory
	PState PState

	State      State
	Cycles     uint64
	MaxCycles  uint64
	LastError  error
}

// NewVM returns a freshly reset VM with PC at 0.
func NewVM() *VM {
	return &VM{
		Regs:      NewRegisterFile(),
		Memory:    NewMemory(),
		State:     StateHalted,
		MaxCycles: DefaultMaxCycles,
	}
}

// Reset clears registers, memory, and flags.
func (v *VM) Reset() {
	v.Regs.Reset()
	v.Memory.Reset()
	v.PState = PState{}
	v.State = StateHalted
	v.Cycles = 0
	v.LastError = nil
}

// LoadImage loads a flat little-endian word stream at address 0 and
// positions PC at the start, per spec.md §6 ("Loads input.bin at address
// 0, runs until HALT").
func (v *VM) LoadImage(data []byte) error {
	if err := v.Memory.LoadImage(data); err != nil {
		return err
	}
	v.Regs.SetPC(0)
	v.State = StateHalted
	return nil
}

// isBranch reports whether inst mutates PC itself, so the loop driver
// must not additionally auto-increment it (spec.md §4.4 "Loop driver").
func isBranch(inst Instruction) bool {
	switch inst.Kind() {
	case KindBranchUncond, KindBranchCond, KindBranchReg:
		return true
	default:
		return false
	}
}

// Step fetches, decodes, and executes exactly one instruction. It reports
// halted=true when the fetched word was the HALT sentinel (spec.md §3)
// without executing anything further.
func (v *VM) Step() (halted bool, err error) {
	if v.MaxCycles > 0 && v.Cycles >= v.MaxCycles {
		v.State = StateError
		v.LastError = fmt.Errorf("cycle limit exceeded (%d cycles)", v.MaxCycles)
		return false, v.LastError
	}

	pc := v.Regs.PC()
	if pc > uint64(^uint32(0)) {
		v.State = StateError
		v.LastError = fmt.Errorf("program counter 0x%016X exceeds 32-bit address space", pc)
		return false, v.LastError
	}
	addr := uint32(pc)

	word, err := v.Memory.Load32(addr)
	if err != nil {
		v.State = StateError
		v.LastError = fmt.Errorf("fetch failed at PC=0x%08X: %w", addr, err)
		return false, v.LastError
	}

	if word == HALT {
		v.State = StateHalted
		return true, nil
	}

	inst, err := Decode(word)
	if err != nil {
		v.State = StateError
		v.LastError = fmt.Errorf("decode failed at PC=0x%08X: %w", addr, &DecodeError{Word: word, PC: pc})
		return false, v.LastError
	}

	if err := v.Execute(inst, addr); err != nil {
		v.State = StateError
		v.LastError = fmt.Errorf("execute failed at PC=0x%08X: %w", addr, err)
		return false, v.LastError
	}

	if !isBranch(inst) {
		v.Regs.IncrementPC()
	}

	v.Cycles++
	v.State = StateRunning
	return false, nil
}

// Run executes Step in a loop until HALT, an error, or MaxCycles is
// reached, matching the fetch/decode/execute loop driver in spec.md §4.4.
func (v *VM) Run() error {
	v.State = StateRunning
	for {
		halted, err := v.Step()
		if err != nil {
			return err
		}
		if halted {
			v.State = StateHalted
			return nil
		}
	}
}

// Execute applies a decoded instruction to the register file, memory, and
// flags, advancing PC only for branch variants (the loop driver handles
// the common case). addr is the address the instruction was fetched
// from, used for PC-relative computations (branches, load-literal).
func (v *VM) Execute(inst Instruction, addr uint32) error {
	switch i := inst.(type) {
	case ImmArith:
		return v.execImmArith(i)
	case RegArith:
		return v.execRegArith(i)
	case ImmWide:
		return v.execImmWide(i)
	case RegLogic:
		return v.execRegLogic(i)
	case RegMultiply:
		return v.execRegMultiply(i)
	case DTImmOffset:
		return v.execDTImmOffset(i)
	case DTRegOffset:
		return v.execDTRegOffset(i)
	case DTLoadLiteral:
		return v.execDTLoadLiteral(i, addr)
	case DTPrePostIndex:
		return v.execDTPrePostIndex(i)
	case BranchUncond:
		return v.execBranchUncond(i, addr)
	case BranchCond:
		return v.execBranchCond(i, addr)
	case BranchReg:
		return v.execBranchReg(i)
	default:
		return fmt.Errorf("unhandled instruction kind %v", inst.Kind())
	}
}

func (v *VM) execImmArith(i ImmArith) error {
	width := widthOf(i.SF)
	a := v.Regs.Read64(i.Rn)
	op2 := uint64(i.Imm12)
	if i.Sh {
		op2 <<= 12
	}
	return v.arith(i.SF, i.SetFlags, i.Op, a, op2, i.Rd, width)
}

func (v *VM) execRegArith(i RegArith) error {
	width := widthOf(i.SF)
	a := v.Regs.Read64(i.Rn)
	op2 := ApplyShift(v.Regs.Read64(i.Rm), i.Shift, i.Operand, width)
	return v.arith(i.SF, i.SetFlags, i.Op, a, op2, i.Rd, width)
}

// arith implements the shared ADD/ADDS/SUB/SUBS semantics of
// ImmArith/RegArith, per spec.md §4.4.
func (v *VM) arith(sf, setFlags bool, op ArithOp, a, op2 uint64, rd uint8, width int) error {
	mask := widthMask(width)
	a &= mask
	op2 &= mask

	var result uint64
	var carry, overflow bool
	switch op {
	case ArithAdd:
		result = (a + op2) & mask
		carry = AddCarry(a, op2, width)
		overflow = AddOverflow(a, op2, result, width)
	case ArithSub:
		result = (a - op2) & mask
		carry = SubCarry(a, op2, width)
		overflow = SubOverflow(a, op2, result, width)
	default:
		return fmt.Errorf("unknown arithmetic op %d", op)
	}

	if setFlags {
		v.PState.UpdateNZ(result, sf)
		v.PState.C = carry
		v.PState.V = overflow
	}

	v.Regs.WriteSized(rd, result, sf)
	return nil
}

func (v *VM) execRegLogic(i RegLogic) error {
	width := widthOf(i.SF)
	mask := widthMask(width)
	op2 := ApplyShift(v.Regs.Read64(i.Rm), i.Shift, i.Operand, width) & mask
	if i.N {
		op2 = ^op2 & mask
	}
	a := v.Regs.Read64(i.Rn) & mask

	var result uint64
	switch i.Opc {
	case LogicAnd, LogicAndFlags:
		result = a & op2
	case LogicOrr:
		result = a | op2
	case LogicEor:
		result = a ^ op2
	default:
		return fmt.Errorf("unknown logical op %d", i.Opc)
	}
	result &= mask

	if i.Opc == LogicAndFlags {
		v.PState.UpdateNZ(result, i.SF)
		v.PState.C = false
		v.PState.V = false
	}

	v.Regs.WriteSized(i.Rd, result, i.SF)
	return nil
}

func (v *VM) execRegMultiply(i RegMultiply) error {
	width := widthOf(i.SF)
	mask := widthMask(width)
	rn := v.Regs.Read64(i.Rn) & mask
	rm := v.Regs.Read64(i.Rm) & mask
	ra := v.Regs.Read64(i.Ra) & mask // Ra==ZeroRegister reads 0: the uniform "absent accumulator" from spec.md §9

	product := (rn * rm) & mask
	var result uint64
	if i.X {
		result = (ra - product) & mask
	} else {
		result = (ra + product) & mask
	}

	v.Regs.WriteSized(i.Rd, result, i.SF)
	return nil
}

func accessSize(sf bool) int {
	if sf {
		return 8
	}
	return 4
}

// loadTo reads access_size(sf) bytes from addr and zero-extends into rt.
func (v *VM) loadTo(addr uint32, rt uint8, sf bool) error {
	if sf {
		val, err := v.Memory.Load64(addr)
		if err != nil {
			return err
		}
		v.Regs.WriteSized(rt, val, true)
		return nil
	}
	val, err := v.Memory.Load32(addr)
	if err != nil {
		return err
	}
	v.Regs.WriteSized(rt, uint64(val), false)
	return nil
}

// storeFrom writes the low access_size(sf) bytes of rt to addr. A 32-bit
// store always uses Store32 (not a truncated 64-bit store), per spec.md
// §9's fix for the width-mismatch bug in post-indexed stores.
func (v *VM) storeFrom(addr uint32, rt uint8, sf bool) error {
	if sf {
		return v.Memory.Store64(addr, v.Regs.Read64(rt))
	}
	return v.Memory.Store32(addr, v.Regs.Read32(rt))
}

func (v *VM) execDTImmOffset(i DTImmOffset) error {
	addr := v.Regs.Read64(i.Xn) + uint64(i.Imm12)*uint64(accessSize(i.SF))
	if addr > uint64(^uint32(0)) {
		return fmt.Errorf("address 0x%X exceeds 32-bit address space", addr)
	}
	a := uint32(addr)
	if i.L {
		return v.loadTo(a, i.Rt, i.SF)
	}
	return v.storeFrom(a, i.Rt, i.SF)
}

func (v *VM) execDTRegOffset(i DTRegOffset) error {
	addr := v.Regs.Read64(i.Xn) + v.Regs.Read64(i.Xm)
	if addr > uint64(^uint32(0)) {
		return fmt.Errorf("address 0x%X exceeds 32-bit address space", addr)
	}
	a := uint32(addr)
	if i.L {
		return v.loadTo(a, i.Rt, i.SF)
	}
	return v.storeFrom(a, i.Rt, i.SF)
}

func (v *VM) execDTLoadLiteral(i DTLoadLiteral, currentAddr uint32) error {
	addr := int64(currentAddr) + int64(i.Simm19)*4
	if addr < 0 || addr > int64(^uint32(0)) {
		return fmt.Errorf("literal address 0x%X out of range", addr)
	}
	return v.loadTo(uint32(addr), i.Rt, i.SF)
}

func (v *VM) execDTPrePostIndex(i DTPrePostIndex) error {
	base := v.Regs.Read64(i.Xn)
	offset := int64(i.Simm9)

	var accessAddr uint64
	if i.I {
		// pre-index: compute address, write back, then access.
		accessAddr = uint64(int64(base) + offset)
		v.Regs.Write(i.Xn, accessAddr)
	} else {
		// post-index: access at the unmodified base, then write back.
		accessAddr = base
	}

	if accessAddr > uint64(^uint32(0)) {
		return fmt.Errorf("address 0x%X exceeds 32-bit address space", accessAddr)
	}
	a := uint32(accessAddr)

	var err error
	if i.L {
		err = v.loadTo(a, i.Rt, i.SF)
	} else {
		err = v.storeFrom(a, i.Rt, i.SF)
	}
	if err != nil {
		return err
	}

	if !i.I {
		v.Regs.Write(i.Xn, uint64(int64(base)+offset))
	}
	return nil
}

func (v *VM) execBranchUncond(i BranchUncond, currentAddr uint32) error {
	target := int64(currentAddr) + int64(i.Simm26)*4
	if target < 0 || target > int64(^uint32(0)) {
		return fmt.Errorf("branch target 0x%X out of range", target)
	}
	v.Regs.SetPC(uint64(target))
	return nil
}

func (v *VM) execBranchCond(i BranchCond, currentAddr uint32) error {
	taken, err := v.PState.Evaluate(i.Cond)
	if err != nil {
		return err
	}
	if taken {
		target := int64(currentAddr) + int64(i.Simm19)*4
		if target < 0 || target > int64(^uint32(0)) {
			return fmt.Errorf("branch target 0x%X out of range", target)
		}
		v.Regs.SetPC(uint64(target))
		return nil
	}
	v.Regs.SetPC(uint64(currentAddr) + InstructionSize)
	return nil
}

func (v *VM) execBranchReg(i BranchReg) error {
	v.Regs.SetPC(v.Regs.Read64(i.Xn))
	return nil
}

func (v *VM) execImmWide(i ImmWide) error {
	shift := uint(i.HW) * 16
	imm := uint64(i.Imm16) << shift

	var result uint64
	switch i.Opc {
	case WideMOVN:
		result = ^imm
	case WideMOVZ:
		result = imm
	case WideMOVK:
		current := v.Regs.Read64(i.Rd)
		laneMask := uint64(Mask16Bit) << shift
		result = (current &^ laneMask) | imm
	default:
		return fmt.Errorf("unknown wide-immediate opcode %d", i.Opc)
	}

	v.Regs.WriteSized(i.Rd, result, i.SF)
	return nil
}
