package asm

import (
	"fmt"

	"github.com/a64toolkit/a64emu/vm"
)

// SymbolTable tracks label definitions and deferred forward references
// during a single assembly pass, back-patching previously emitted words
// in place once a label's address becomes known. Grounded on the
// teacher's parser.SymbolTable (forward-reference bookkeeping via a
// relocation list), collapsed to the two-map state machine this subset
// specifies: a label is in exactly one of defined/pending at a time.
type SymbolTable struct {
	defined map[string]uint32
	pending map[string][]uint32
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		defined: make(map[string]uint32),
		pending: make(map[string][]uint32),
	}
}

// Define records name at addr, rejecting redefinition, and back-patches
// every word previously emitted against name in words — each must decode
// as a branch or load-literal variant carrying a zero displacement.
func (st *SymbolTable) Define(words []uint32, addr uint32, name string) error {
	if _, exists := st.defined[name]; exists {
		return &SymbolError{Name: name, Message: "already defined"}
	}
	st.defined[name] = addr

	refs := st.pending[name]
	for _, ref := range refs {
		disp := int32((int64(addr) - int64(ref)) / 4)
		if err := backpatch(words, ref, disp); err != nil {
			return fmt.Errorf("back-patching %q at 0x%08X: %w", name, ref, err)
		}
	}
	delete(st.pending, name)
	return nil
}

// LookupOrDefer returns the word-scaled displacement from currentAddr to
// name if name is already defined, or records currentAddr as a pending
// reference and returns 0 as a placeholder.
func (st *SymbolTable) LookupOrDefer(currentAddr uint32, name string) int32 {
	if addr, ok := st.defined[name]; ok {
		return int32((int64(addr) - int64(currentAddr)) / 4)
	}
	st.pending[name] = append(st.pending[name], currentAddr)
	return 0
}

// Unresolved returns the names still pending, for end-of-pass validation.
func (st *SymbolTable) Unresolved() []string {
	var names []string
	for name := range st.pending {
		names = append(names, name)
	}
	return names
}

// Defined returns a copy of the label->address mapping, for external
// collaborators such as the debugger's address/symbol resolver. It holds
// labels only; the address→source-line map is built separately by
// Assembler.Assemble.
func (st *SymbolTable) Defined() map[string]uint32 {
	out := make(map[string]uint32, len(st.defined))
	for name, addr := range st.defined {
		out[name] = addr
	}
	return out
}

// backpatch rewrites the displacement field of the word at byte address
// ref, decoding it to identify which of the three displacement-carrying
// variants it is and re-encoding with disp in place. Any other decoded
// shape is an internal error: the encoder must never defer a reference
// against a non-displacement instruction.
func backpatch(words []uint32, ref uint32, disp int32) error {
	idx := ref / 4
	if int(idx) >= len(words) {
		return fmt.Errorf("reference address 0x%08X is out of range", ref)
	}

	inst, err := vm.Decode(words[idx])
	if err != nil {
		return fmt.Errorf("word at 0x%08X does not decode: %w", ref, err)
	}

	switch v := inst.(type) {
	case vm.BranchUncond:
		v.Simm26 = disp
		words[idx] = v.Encode()
	case vm.BranchCond:
		v.Simm19 = disp
		words[idx] = v.Encode()
	case vm.DTLoadLiteral:
		v.Simm19 = disp
		words[idx] = v.Encode()
	default:
		return fmt.Errorf("word at 0x%08X is not a displacement-carrying encoding", ref)
	}
	return nil
}
