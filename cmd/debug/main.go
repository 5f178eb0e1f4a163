// Command debug is the terminal debugger entry point promised by spec.md
// §1 and detailed as an external collaborator in §6/§4.8: it composes an
// asm.Assembler (for the address->source-line map) and a vm.VM behind a
// debugger.Debugger, and drives either the line-oriented CLI or the
// tview-based TUI over it.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/a64toolkit/a64emu/asm"
	"github.com/a64toolkit/a64emu/config"
	"github.com/a64toolkit/a64emu/debugger"
	"github.com/a64toolkit/a64emu/loader"
	"github.com/a64toolkit/a64emu/vm"
)

func main() {
	tuiMode := flag.Bool("tui", false, "use the full-screen TUI debugger instead of the line-oriented CLI")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-tui] <input.s|input.bin>\n", os.Args[0])
		os.Exit(1)
	}
	path := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	machine := vm.NewVM()
	machine.MaxCycles = cfg.Execution.MaxCycles
	dbg := debugger.NewDebugger(machine)
	dbg.History.SetMaxSize(cfg.Debugger.HistorySize)

	if strings.HasSuffix(path, ".s") {
		source, err := os.ReadFile(path) // #nosec G304 -- path is an explicit CLI argument
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading %s: %v\n", path, err)
			os.Exit(1)
		}

		a := asm.NewAssembler()
		words, err := a.Assemble(string(source))
		if err != nil {
			fmt.Fprintf(os.Stderr, "assembly error:\n%v\n", err)
			os.Exit(1)
		}
		if err := machine.LoadImage(loader.WordsToBytes(words)); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

		dbg.LoadSymbols(a.Symbols.Defined())
		dbg.LoadSourceMap(a.SourceForAddr)
	} else {
		if err := loader.LoadIntoVM(machine, path); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}

	if *tuiMode {
		err = debugger.RunTUI(dbg)
	} else {
		err = debugger.RunCLI(dbg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
