// Command disasm prints a linear disassembly of an iNES ROM's PRG-ROM
// bank, starting at the reset vector (or an overridden entry point).
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"

	"github.com/nescore/6502/disassemble"
	"github.com/nescore/6502/ines"
	"github.com/nescore/6502/memory"
)

var (
	romPath   = flag.String("rom", "", "path to an iNES .nes file (required)")
	startFlag = flag.String("start", "", "hex address to start disassembling at, default is the reset vector")
	count     = flag.Int("count", 64, "number of instructions to disassemble")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "disasm: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if *romPath == "" {
		return errors.New("missing required -rom flag")
	}

	raw, err := ioutil.ReadFile(*romPath)
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}
	rom, err := ines.Load(raw)
	if err != nil {
		return fmt.Errorf("loading ROM: %w", err)
	}
	bus, err := memory.NewNESBus(rom.MappedPRG(), nil)
	if err != nil {
		return fmt.Errorf("mapping ROM onto address bus: %w", err)
	}

	pc := uint16(bus.Read(0xFFFD))<<8 | uint16(bus.Read(0xFFFC))
	if *startFlag != "" {
		v, err := strconv.ParseUint(*startFlag, 16, 16)
		if err != nil {
			return fmt.Errorf("parsing -start: %w", err)
		}
		pc = uint16(v)
	}

	for i := 0; i < *count; i++ {
		text, n := disassemble.Step(pc, bus)
		fmt.Printf("%04X: %s\n", pc, text)
		pc += uint16(n)
	}
	return nil
}
