package asm

import "strings"

// normalizeAlias rewrites one of the fixed alias mnemonics (§4.1) into its
// canonical form by inserting or appending the zero register at the
// position the canonical instruction expects it. Mnemonics not in the
// table pass through unchanged. Kept as one table, expanded once before
// any per-variant encoding happens, rather than branched on inside each
// encoder (per the "expand once" design note).
func normalizeAlias(mnemonic string, operands []string) (string, []string) {
	switch strings.ToLower(mnemonic) {
	case "neg":
		return "sub", insertAt(operands, 1, "rzr")
	case "negs":
		return "subs", insertAt(operands, 1, "rzr")
	case "cmp":
		return "subs", insertAt(operands, 0, "rzr")
	case "cmn":
		return "adds", insertAt(operands, 0, "rzr")
	case "tst":
		return "ands", insertAt(operands, 0, "rzr")
	case "mvn":
		return "orn", insertAt(operands, 1, "rzr")
	case "mov":
		return "orr", insertAt(operands, 1, "rzr")
	case "mul":
		return "madd", append(append([]string{}, operands...), "rzr")
	case "mneg":
		return "msub", append(append([]string{}, operands...), "rzr")
	default:
		return mnemonic, operands
	}
}

func insertAt(s []string, idx int, val string) []string {
	out := make([]string, 0, len(s)+1)
	out = append(out, s[:idx]...)
	out = append(out, val)
	out = append(out, s[idx:]...)
	return out
}
