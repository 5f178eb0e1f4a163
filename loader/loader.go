// Package loader reads and writes the flat little-endian binary image
// format the assembler produces and the emulator consumes: a bare
// sequence of 32-bit words, with no header or trailer.
package loader

import (
	"fmt"
	"os"

	"github.com/a64toolkit/a64emu/vm"
)

// WordsToBytes packs words into their little-endian byte representation,
// the on-disk form written by the assembler CLI.
func WordsToBytes(words []uint32) []byte {
	out := make([]byte, len(words)*vm.InstructionSize)
	for i, w := range words {
		off := i * vm.InstructionSize
		out[off] = byte(w)
		out[off+1] = byte(w >> 8)
		out[off+2] = byte(w >> 16)
		out[off+3] = byte(w >> 24)
	}
	return out
}

// BytesToWords unpacks a little-endian byte stream into 32-bit words.
// len(data) must be a multiple of 4.
func BytesToWords(data []byte) ([]uint32, error) {
	if len(data)%vm.InstructionSize != 0 {
		return nil, fmt.Errorf("image length %d is not a multiple of %d bytes", len(data), vm.InstructionSize)
	}
	words := make([]uint32, len(data)/vm.InstructionSize)
	for i := range words {
		off := i * vm.InstructionSize
		words[i] = uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16 | uint32(data[off+3])<<24
	}
	return words, nil
}

// WriteImage writes words to path as a raw little-endian word stream.
func WriteImage(path string, words []uint32) error {
	if err := os.WriteFile(path, WordsToBytes(words), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadImage reads the raw bytes of a binary image from path, unvalidated;
// LoadIntoVM is the usual entry point for running one.
func ReadImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// LoadIntoVM reads the image at path and loads it into machine at address
// 0, positioning PC at the start.
func LoadIntoVM(machine *vm.VM, path string) error {
	data, err := ReadImage(path)
	if err != nil {
		return err
	}
	if err := machine.LoadImage(data); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
