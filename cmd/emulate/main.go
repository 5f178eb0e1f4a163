// Command emulate loads a raw little-endian-word binary image and runs it
// to completion, per spec.md §6: "emulate <input.bin> [output.txt]".
// Loads input.bin at address 0, runs until HALT, writes the bit-exact
// register/PSTATE/memory dump to output.txt or stdout.
package main

import (
	"fmt"
	"os"

	"github.com/a64toolkit/a64emu/config"
	"github.com/a64toolkit/a64emu/loader"
	"github.com/a64toolkit/a64emu/vm"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <input.bin> [output.txt]\n", os.Args[0])
		os.Exit(1)
	}

	inPath := os.Args[1]
	var outPath string
	if len(os.Args) == 3 {
		outPath = os.Args[2]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	machine := vm.NewVM()
	machine.MaxCycles = cfg.Execution.MaxCycles
	if err := loader.LoadIntoVM(machine, inPath); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if err := machine.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
		os.Exit(1)
	}

	dump := vm.Dump(machine)

	if outPath == "" {
		fmt.Print(dump)
		return
	}

	if err := os.WriteFile(outPath, []byte(dump), 0o644); err != nil { // #nosec G306 -- dump is plain text, matches teacher's output permissions
		fmt.Fprintf(os.Stderr, "writing %s: %v\n", outPath, err)
		os.Exit(1)
	}
}
