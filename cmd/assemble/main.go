// Command assemble turns an AArch64-subset source file into a raw binary
// image of little-endian 32-bit words, per spec.md §6: "assemble
// <input.s> <output.bin>". Exit 0 on success, non-zero on any fatal
// encoding/symbol error.
package main

import (
	"fmt"
	"os"

	"github.com/a64toolkit/a64emu/asm"
	"github.com/a64toolkit/a64emu/loader"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <input.s> <output.bin>\n", os.Args[0])
		os.Exit(1)
	}

	inPath, outPath := os.Args[1], os.Args[2]

	source, err := os.ReadFile(inPath) // #nosec G304 -- path is an explicit CLI argument
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading %s: %v\n", inPath, err)
		os.Exit(1)
	}

	a := asm.NewAssembler()
	words, err := a.Assemble(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "assembly error:\n%v\n", err)
		os.Exit(1)
	}

	if err := loader.WriteImage(outPath, words); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
