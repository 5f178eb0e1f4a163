package vm

import (
	"fmt"
	"strings"
)

// Dump renders the final register/PSTATE/memory state in the bit-exact
// format spec.md §6 requires (the test suite compares this textually):
// every register as "X%02d    = %016lx", PC the same way, PSTATE as four
// N/Z/C/V characters (or '-') in fixed order, then every non-zero 4-byte-
// aligned memory word in ascending address order.
func Dump(v *VM) string {
	var b strings.Builder

	b.WriteString("Registers:\n")
	for i := 0; i < GeneralRegisterCount; i++ {
		fmt.Fprintf(&b, "X%02d    = %016x\n", i, v.Regs.Read64(uint8(i)))
	}
	fmt.Fprintf(&b, "PC     = %016x\n", v.Regs.PC())
	fmt.Fprintf(&b, "PSTATE : %s\n", v.PState.String())

	b.WriteString("Non-Zero Memory:\n")
	for _, addr := range v.Memory.NonZeroWords() {
		word, _ := v.Memory.Load32(addr) // bounds already guaranteed by NonZeroWords
		fmt.Fprintf(&b, "0x%08X: %08x\n", addr, word)
	}

	return b.String()
}
