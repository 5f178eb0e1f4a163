package vm

import "sort"

// SymbolResolver maps addresses back to labels for the debugger's displays
// (the TUI's disassembly and breakpoint panes, the CLI's register,
// breakpoint and backtrace listings): an exact address hits a label directly, anything else
// resolves to the nearest label at or before it plus a byte offset, via
// binary search over the label addresses.
type SymbolResolver struct {
	// Forward mapping: symbol name -> address
	symbols map[string]uint32

	// Reverse mapping: address -> symbol name
	addressToSymbol map[uint32]string

	// Sorted list of all symbol addresses for nearest-symbol lookup
	sortedAddresses []uint32
}

// NewSymbolResolver creates a new symbol resolver from a symbol table.
// The symbols map should contain label names mapped to their addresses.
func NewSymbolResolver(symbols map[string]uint32) *SymbolResolver {
	if symbols == nil {
		symbols = make(map[string]uint32)
	}

	addressToSymbol := make(map[uint32]string)
	for name, addr := range symbols {
		addressToSymbol[addr] = name
	}

	sortedAddresses := make([]uint32, 0, len(addressToSymbol))
	for addr := range addressToSymbol {
		sortedAddresses = append(sortedAddresses, addr)
	}
	sort.Slice(sortedAddresses, func(i, j int) bool {
		return sortedAddresses[i] < sortedAddresses[j]
	})

	return &SymbolResolver{
		symbols:         symbols,
		addressToSymbol: addressToSymbol,
		sortedAddresses: sortedAddresses,
	}
}

// LookupAddress returns the exact symbol name for an address, or empty string if not found.
func (sr *SymbolResolver) LookupAddress(address uint32) string {
	return sr.addressToSymbol[address]
}

// ResolveAddress resolves an address to the nearest symbol with offset.
// Returns the symbol name, offset, and whether a symbol was found.
//
// Examples (within the emulator's 2 MiB flat address space):
//   - Address 0x100 with symbol "loop" at 0x100 -> ("loop", 0, true)
//   - Address 0x104 with symbol "loop" at 0x100 -> ("loop", 4, true)
//   - Address 0x0FC with no symbols before it -> ("", 0, false)
func (sr *SymbolResolver) ResolveAddress(address uint32) (symbolName string, offset uint32, found bool) {
	// Fast path: exact match
	if name, ok := sr.addressToSymbol[address]; ok {
		return name, 0, true
	}

	if len(sr.sortedAddresses) == 0 {
		return "", 0, false
	}

	// Find the nearest symbol at or before this address using binary search
	idx := sort.Search(len(sr.sortedAddresses), func(i int) bool {
		return sr.sortedAddresses[i] > address
	})

	if idx == 0 {
		return "", 0, false
	}

	nearestAddr := sr.sortedAddresses[idx-1]
	symbolName = sr.addressToSymbol[nearestAddr]
	offset = address - nearestAddr

	return symbolName, offset, true
}
