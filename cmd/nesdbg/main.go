// Command nesdbg is a debugging convenience, not a product surface: it
// loads a ROM, runs it against the NES CPU core, and prints the final
// register/flag state (or the fatal error that stopped it) to stdout. It
// optionally writes a per-instruction CSV trace alongside the run.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"

	"github.com/nescore/6502/cpu"
	"github.com/nescore/6502/ines"
	"github.com/nescore/6502/memory"
)

var (
	romPath   = flag.String("rom", "", "path to an iNES .nes file (required)")
	entryFlag = flag.String("entry", "", "hex entry point overriding the reset vector, e.g. 8000")
	tracePath = flag.String("trace", "", "optional path to write a CSV instruction trace")
)

// csvTracer implements cpu.Tracer by appending one row per instruction to a
// csv.Writer, matching the trace record schema: pc, opcode, A, X, Y,
// status_string.
type csvTracer struct {
	w *csv.Writer
}

func (t *csvTracer) Trace(r cpu.Record) error {
	row := []string{
		fmt.Sprintf("%04X", r.PC),
		fmt.Sprintf("%02X", r.Opcode),
		fmt.Sprintf("%02X", r.A),
		fmt.Sprintf("%02X", r.X),
		fmt.Sprintf("%02X", r.Y),
		r.Status,
	}
	if err := t.w.Write(row); err != nil {
		return fmt.Errorf("nesdbg: writing trace row: %w", err)
	}
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "nesdbg: %v\n", err)
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

	def := &cpu.ChipDef{Ram: bus}

	if *entryFlag != "" {
		v, err := strconv.ParseUint(*entryFlag, 16, 16)
		if err != nil {
			return fmt.Errorf("parsing -entry: %w", err)
		}
		entry := uint16(v)
		def.DebugEntry = &entry
	}

	var traceFile *os.File
	if *tracePath != "" {
		traceFile, err = os.Create(*tracePath)
		if err != nil {
			return fmt.Errorf("creating trace file: %w", err)
		}
		defer traceFile.Close()
		w := csv.NewWriter(traceFile)
		defer w.Flush()
		if err := w.Write([]string{"pc", "opcode", "A", "X", "Y", "status_string"}); err != nil {
			return fmt.Errorf("writing trace header: %w", err)
		}
		def.Tracer = &csvTracer{w: w}
	}

	c, err := cpu.Init(def)
	if err != nil {
		return fmt.Errorf("initializing CPU: %w", err)
	}

	runErr := c.Run(context.Background())
	printFinalState(c, runErr)
	return nil
}

func printFinalState(c *cpu.Chip, runErr error) {
	fmt.Printf("PC=%04X A=%02X X=%02X Y=%02X SP=%02X cycles=%d\n",
		c.PC, c.A, c.X, c.Y, c.SP, c.Cycles)
	fmt.Printf("flags: C=%v Z=%v I=%v D=%v V=%v N=%v\n",
		c.FlagC, c.FlagZ, c.FlagI, c.FlagD, c.FlagV, c.FlagN)
	switch {
	case runErr != nil:
		fmt.Printf("run stopped with error: %v\n", runErr)
	case c.Halted:
		fmt.Printf("halted cleanly via opcode 0x%02X\n", c.HaltOpcode)
	}
}
