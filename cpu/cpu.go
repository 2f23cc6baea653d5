// Package cpu implements the Ricoh 2A03 (NES) variant of the MOS 6502:
// register file and status flags, the address-mode resolvers, the ALU and
// stack helpers, and the fetch-decode-execute loop that drives them. Only
// documented opcodes are implemented; any other opcode byte is a fatal
// UnknownOpcode, and BCD mode is tracked but never affects arithmetic,
// matching the Ricoh silicon this package models.
package cpu

import (
	"context"
	"fmt"

	"github.com/nescore/6502/irq"
	"github.com/nescore/6502/memory"
)

const (
	nmiVector   = uint16(0xFFFA)
	resetVector = uint16(0xFFFC)
	irqVector   = uint16(0xFFFE)

	pNegative  = uint8(0x80)
	pOverflow  = uint8(0x40)
	pAlwaysOne = uint8(0x20)
	pBreak     = uint8(0x10)
	pDecimal   = uint8(0x08)
	pInterrupt = uint8(0x04)
	pZero      = uint8(0x02)
	pCarry     = uint8(0x01)

	stackBase = uint16(0x0100)
)

// UnknownOpcode is returned when the fetched opcode byte is not in the
// documented 6502 instruction set (or the synthetic HALT). Every
// undocumented/illegal NMOS opcode surfaces this way.
type UnknownOpcode struct {
	PC     uint16
	Opcode uint8
}

func (e UnknownOpcode) Error() string {
	return fmt.Sprintf("unknown opcode 0x%02X at PC=0x%04X", e.Opcode, e.PC)
}

// TraceWriteError wraps a failure from the trace sink. It is non-fatal: the
// execution loop may choose to surface it to the caller, but it never halts
// the CPU on its own.
type TraceWriteError struct {
	Err error
}

func (e TraceWriteError) Error() string {
	return fmt.Sprintf("trace sink rejected record: %v", e.Err)
}

func (e TraceWriteError) Unwrap() error { return e.Err }

// Tracer receives one Record per instruction, emitted before the
// instruction executes, so the recorded registers reflect the CPU's state
// at the start of that instruction.
type Tracer interface {
	Trace(r Record) error
}

// Record is a single fetch-decode-execute loop trace entry.
type Record struct {
	PC     uint16
	Opcode uint8
	A, X, Y, SP uint8
	Status string
	// Disassembly is populated by callers that pair this package with the
	// disassemble package; the CPU core itself never sets it.
	Disassembly string
}

// Chip is a Ricoh 2A03 CPU core. Its register fields are exported so tests
// and tracers can inspect state directly without an accessor layer.
type Chip struct {
	A, X, Y uint8
	SP      uint8
	PC      uint16

	FlagC, FlagZ, FlagI, FlagD, FlagV, FlagN bool

	Cycles     uint64
	Halted     bool
	HaltOpcode uint8

	bus    memory.Bus
	irq    irq.Sender
	nmi    irq.Sender
	tracer Tracer
}

// ChipDef configures a Chip. Ram is the only required field; Irq, Nmi, and
// Tracer are optional collaborators wired by an embedder.
type ChipDef struct {
	Ram   memory.Bus
	Irq   irq.Sender
	Nmi   irq.Sender
	Tracer Tracer
	// DebugEntry, if non-nil, overrides the reset vector as the initial PC.
	DebugEntry *uint16
}

// Init constructs a Chip in its post-reset state. PC is loaded from the
// reset vector at $FFFC/$FFFD unless def.DebugEntry overrides it.
func Init(def *ChipDef) (*Chip, error) {
	if def.Ram == nil {
		return nil, fmt.Errorf("cpu: ChipDef.Ram is required")
	}
	c := &Chip{
		bus:    def.Ram,
		irq:    def.Irq,
		nmi:    def.Nmi,
		tracer: def.Tracer,
	}
	c.Reset(def.DebugEntry)
	return c, nil
}

// Reset puts the CPU into its defined power-on state: A=X=Y=0, SP=0xFD,
// interrupts disabled, all other flags clear, cycle counter zeroed. PC is
// loaded from the reset vector unless entry overrides it. Unlike real
// silicon (and unlike the wall-clock-calibrated chip this package is
// descended from), register and RAM contents are never randomized: this
// system's test ROMs depend on deterministic post-reset state.
func (c *Chip) Reset(entry *uint16) {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFD
	c.FlagC, c.FlagZ, c.FlagD, c.FlagV, c.FlagN = false, false, false, false, false
	c.FlagI = true
	c.Cycles = 0
	c.Halted = false
	c.HaltOpcode = 0

	if entry != nil {
		c.PC = *entry
		return
	}
	c.PC = c.readWord(resetVector)
}

// packStatus returns the flags packed into a single byte in NV1BDIZC bit
// order. Bit 5 is always set; the break bit reflects brk.
func (c *Chip) packStatus(brk bool) uint8 {
	var p uint8
	if c.FlagN {
		p |= pNegative
	}
	if c.FlagV {
		p |= pOverflow
	}
	p |= pAlwaysOne
	if brk {
		p |= pBreak
	}
	if c.FlagD {
		p |= pDecimal
	}
	if c.FlagI {
		p |= pInterrupt
	}
	if c.FlagZ {
		p |= pZero
	}
	if c.FlagC {
		p |= pCarry
	}
	return p
}

// unpackStatus sets the six flags from a packed status byte, ignoring bits
// 4 and 5 (break and the always-one bit aren't part of CPU state).
func (c *Chip) unpackStatus(p uint8) {
	c.FlagN = p&pNegative != 0
	c.FlagV = p&pOverflow != 0
	c.FlagD = p&pDecimal != 0
	c.FlagI = p&pInterrupt != 0
	c.FlagZ = p&pZero != 0
	c.FlagC = p&pCarry != 0
}

// statusString renders the flags as the trace schema's fixed-width status
// string in bit order N V - B D I Z C; set flags are upper-case, clear
// flags lower-case. The unused bit renders as T (for "true", always set),
// the break bit as B (never meaningfully set outside BRK handling, so
// always rendered lower-case here since this reflects live CPU state, not
// a pushed status byte).
func (c *Chip) statusString() string {
	bit := func(set bool, up, down byte) byte {
		if set {
			return up
		}
		return down
	}
	buf := [8]byte{
		bit(c.FlagN, 'N', 'n'),
		bit(c.FlagV, 'V', 'v'),
		'T',
		'b',
		bit(c.FlagD, 'D', 'd'),
		bit(c.FlagI, 'I', 'i'),
		bit(c.FlagZ, 'Z', 'z'),
		bit(c.FlagC, 'C', 'c'),
	}
	return string(buf[:])
}

func (c *Chip) readWord(addr uint16) uint16 {
	lo := c.bus.Read(addr)
	hi := c.bus.Read(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// fetch reads the byte at PC and advances PC by one.
func (c *Chip) fetch() uint8 {
	v := c.bus.Read(c.PC)
	c.PC++
	return v
}

// fetchWord reads the little-endian word at PC and advances PC by two.
func (c *Chip) fetchWord() uint16 {
	lo := c.fetch()
	hi := c.fetch()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *Chip) write(addr uint16, val uint8) error {
	return c.bus.Write(addr, val)
}

// Step executes exactly one instruction: it emits a trace record (if a
// tracer is wired), fetches and dispatches one opcode, then polls any wired
// interrupt sources. It returns the number of cycles the instruction (and
// any interrupt sequence that ran after it) cost, or a fatal error. If the
// tracer rejects the record, Step returns a TraceWriteError without
// executing the instruction.
func (c *Chip) Step() (int, error) {
	if c.Halted {
		return 0, nil
	}

	if c.tracer != nil {
		rec := Record{
			PC:     c.PC,
			Opcode: c.bus.Read(c.PC),
			A:      c.A,
			X:      c.X,
			Y:      c.Y,
			SP:     c.SP,
			Status: c.statusString(),
		}
		if err := c.tracer.Trace(rec); err != nil {
			return 0, TraceWriteError{Err: err}
		}
	}

	startPC := c.PC
	op := c.fetch()
	cycles, err := c.dispatch(op, startPC)
	if err != nil {
		return 0, err
	}
	c.Cycles += uint64(cycles)

	if !c.Halted {
		intCycles, err := c.pollInterrupts()
		if err != nil {
			return cycles, err
		}
		cycles += intCycles
		c.Cycles += uint64(intCycles)
	}

	return cycles, nil
}

// Run drives Step in a loop until the CPU halts, Step returns an error (a
// fatal error or a TraceWriteError), or ctx is cancelled. Cancellation is cooperative and is only observed
// between instructions, never mid-instruction.
func (c *Chip) Run(ctx context.Context) error {
	for !c.Halted {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}
