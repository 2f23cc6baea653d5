package cpu

// AddrMode identifies one of the eleven addressing modes an opcode can use,
// plus Implied (no operand) and Relative (branches). It is shared with the
// disassemble package so mnemonic rendering and execution agree on how
// many operand bytes an instruction consumes.
type AddrMode int

const (
	ModeImplied AddrMode = iota
	ModeAccumulator
	ModeImmediate
	ModeZeroPage
	ModeZeroPageX
	ModeZeroPageY
	ModeAbsolute
	ModeAbsoluteX
	ModeAbsoluteY
	ModeIndirect
	ModeIndirectX
	ModeIndirectY
	ModeRelative
)

// OpInfo describes one opcode slot: its mnemonic, addressing mode, and base
// cycle cost (before any branch-taken or page-crossing addition). A blank
// Mnemonic marks a slot with no documented instruction — every
// undocumented/illegal NMOS opcode falls in this category and is fatal.
type OpInfo struct {
	Mnemonic string
	Mode     AddrMode
	Cycles   int
}

// OpTable is the full 256-entry opcode matrix for the documented 6502
// instruction set plus the synthetic HALT at 0x02. Store and read-modify-
// write instructions already bake their indexed-addressing page-cross cost
// into Cycles (real hardware pays it unconditionally); load, compare, and
// arithmetic instructions pay it only when pageCrossPenalty reports the
// access actually crossed a page, added on top of Cycles.
var OpTable = [256]OpInfo{
	0x00: {"BRK", ModeImplied, 7},
	0x01: {"ORA", ModeIndirectX, 6},
	0x02: {"HLT", ModeImplied, 2},
	0x05: {"ORA", ModeZeroPage, 3},
	0x06: {"ASL", ModeZeroPage, 5},
	0x08: {"PHP", ModeImplied, 3},
	0x09: {"ORA", ModeImmediate, 2},
	0x0A: {"ASL", ModeAccumulator, 2},
	0x0D: {"ORA", ModeAbsolute, 4},
	0x0E: {"ASL", ModeAbsolute, 6},

	0x10: {"BPL", ModeRelative, 2},
	0x11: {"ORA", ModeIndirectY, 5},
	0x15: {"ORA", ModeZeroPageX, 4},
	0x16: {"ASL", ModeZeroPageX, 6},
	0x18: {"CLC", ModeImplied, 2},
	0x19: {"ORA", ModeAbsoluteY, 4},
	0x1D: {"ORA", ModeAbsoluteX, 4},
	0x1E: {"ASL", ModeAbsoluteX, 7},

	0x20: {"JSR", ModeAbsolute, 6},
	0x21: {"AND", ModeIndirectX, 6},
	0x24: {"BIT", ModeZeroPage, 3},
	0x25: {"AND", ModeZeroPage, 3},
	0x26: {"ROL", ModeZeroPage, 5},
	0x28: {"PLP", ModeImplied, 4},
	0x29: {"AND", ModeImmediate, 2},
	0x2A: {"ROL", ModeAccumulator, 2},
	0x2C: {"BIT", ModeAbsolute, 4},
	0x2D: {"AND", ModeAbsolute, 4},
	0x2E: {"ROL", ModeAbsolute, 6},

	0x30: {"BMI", ModeRelative, 2},
	0x31: {"AND", ModeIndirectY, 5},
	0x35: {"AND", ModeZeroPageX, 4},
	0x36: {"ROL", ModeZeroPageX, 6},
	0x38: {"SEC", ModeImplied, 2},
	0x39: {"AND", ModeAbsoluteY, 4},
	0x3D: {"AND", ModeAbsoluteX, 4},
	0x3E: {"ROL", ModeAbsoluteX, 7},

	0x40: {"RTI", ModeImplied, 6},
	0x41: {"EOR", ModeIndirectX, 6},
	0x45: {"EOR", ModeZeroPage, 3},
	0x46: {"LSR", ModeZeroPage, 5},
	0x48: {"PHA", ModeImplied, 3},
	0x49: {"EOR", ModeImmediate, 2},
	0x4A: {"LSR", ModeAccumulator, 2},
	0x4C: {"JMP", ModeAbsolute, 3},
	0x4D: {"EOR", ModeAbsolute, 4},
	0x4E: {"LSR", ModeAbsolute, 6},

	0x50: {"BVC", ModeRelative, 2},
	0x51: {"EOR", ModeIndirectY, 5},
	0x55: {"EOR", ModeZeroPageX, 4},
	0x56: {"LSR", ModeZeroPageX, 6},
	0x58: {"CLI", ModeImplied, 2},
	0x59: {"EOR", ModeAbsoluteY, 4},
	0x5D: {"EOR", ModeAbsoluteX, 4},
	0x5E: {"LSR", ModeAbsoluteX, 7},

	0x60: {"RTS", ModeImplied, 6},
	0x61: {"ADC", ModeIndirectX, 6},
	0x65: {"ADC", ModeZeroPage, 3},
	0x66: {"ROR", ModeZeroPage, 5},
	0x68: {"PLA", ModeImplied, 4},
	0x69: {"ADC", ModeImmediate, 2},
	0x6A: {"ROR", ModeAccumulator, 2},
	0x6C: {"JMP", ModeIndirect, 5},
	0x6D: {"ADC", ModeAbsolute, 4},
	0x6E: {"ROR", ModeAbsolute, 6},

	0x70: {"BVS", ModeRelative, 2},
	0x71: {"ADC", ModeIndirectY, 5},
	0x75: {"ADC", ModeZeroPageX, 4},
	0x76: {"ROR", ModeZeroPageX, 6},
	0x78: {"SEI", ModeImplied, 2},
	0x79: {"ADC", ModeAbsoluteY, 4},
	0x7D: {"ADC", ModeAbsoluteX, 4},
	0x7E: {"ROR", ModeAbsoluteX, 7},

	0x81: {"STA", ModeIndirectX, 6},
	0x84: {"STY", ModeZeroPage, 3},
	0x85: {"STA", ModeZeroPage, 3},
	0x86: {"STX", ModeZeroPage, 3},
	0x88: {"DEY", ModeImplied, 2},
	0x8A: {"TXA", ModeImplied, 2},
	0x8C: {"STY", ModeAbsolute, 4},
	0x8D: {"STA", ModeAbsolute, 4},
	0x8E: {"STX", ModeAbsolute, 4},

	0x90: {"BCC", ModeRelative, 2},
	0x91: {"STA", ModeIndirectY, 6},
	0x94: {"STY", ModeZeroPageX, 4},
	0x95: {"STA", ModeZeroPageX, 4},
	0x96: {"STX", ModeZeroPageY, 4},
	0x98: {"TYA", ModeImplied, 2},
	0x99: {"STA", ModeAbsoluteY, 5},
	0x9A: {"TXS", ModeImplied, 2},
	0x9D: {"STA", ModeAbsoluteX, 5},

	0xA0: {"LDY", ModeImmediate, 2},
	0xA1: {"LDA", ModeIndirectX, 6},
	0xA2: {"LDX", ModeImmediate, 2},
	0xA4: {"LDY", ModeZeroPage, 3},
	0xA5: {"LDA", ModeZeroPage, 3},
	0xA6: {"LDX", ModeZeroPage, 3},
	0xA8: {"TAY", ModeImplied, 2},
	0xA9: {"LDA", ModeImmediate, 2},
	0xAA: {"TAX", ModeImplied, 2},
	0xAC: {"LDY", ModeAbsolute, 4},
	0xAD: {"LDA", ModeAbsolute, 4},
	0xAE: {"LDX", ModeAbsolute, 4},

	0xB0: {"BCS", ModeRelative, 2},
	0xB1: {"LDA", ModeIndirectY, 5},
	0xB4: {"LDY", ModeZeroPageX, 4},
	0xB5: {"LDA", ModeZeroPageX, 4},
	0xB6: {"LDX", ModeZeroPageY, 4},
	0xB8: {"CLV", ModeImplied, 2},
	0xB9: {"LDA", ModeAbsoluteY, 4},
	0xBA: {"TSX", ModeImplied, 2},
	0xBC: {"LDY", ModeAbsoluteX, 4},
	0xBD: {"LDA", ModeAbsoluteX, 4},
	0xBE: {"LDX", ModeAbsoluteY, 4},

	0xC0: {"CPY", ModeImmediate, 2},
	0xC1: {"CMP", ModeIndirectX, 6},
	0xC4: {"CPY", ModeZeroPage, 3},
	0xC5: {"CMP", ModeZeroPage, 3},
	0xC6: {"DEC", ModeZeroPage, 5},
	0xC8: {"INY", ModeImplied, 2},
	0xC9: {"CMP", ModeImmediate, 2},
	0xCA: {"DEX", ModeImplied, 2},
	0xCC: {"CPY", ModeAbsolute, 4},
	0xCD: {"CMP", ModeAbsolute, 4},
	0xCE: {"DEC", ModeAbsolute, 6},

	0xD0: {"BNE", ModeRelative, 2},
	0xD1: {"CMP", ModeIndirectY, 5},
	0xD5: {"CMP", ModeZeroPageX, 4},
	0xD6: {"DEC", ModeZeroPageX, 6},
	0xD8: {"CLD", ModeImplied, 2},
	0xD9: {"CMP", ModeAbsoluteY, 4},
	0xDD: {"CMP", ModeAbsoluteX, 4},
	0xDE: {"DEC", ModeAbsoluteX, 7},

	0xE0: {"CPX", ModeImmediate, 2},
	0xE1: {"SBC", ModeIndirectX, 6},
	0xE4: {"CPX", ModeZeroPage, 3},
	0xE5: {"SBC", ModeZeroPage, 3},
	0xE6: {"INC", ModeZeroPage, 5},
	0xE8: {"INX", ModeImplied, 2},
	0xE9: {"SBC", ModeImmediate, 2},
	0xEA: {"NOP", ModeImplied, 2},
	0xEC: {"CPX", ModeAbsolute, 4},
	0xED: {"SBC", ModeAbsolute, 4},
	0xEE: {"INC", ModeAbsolute, 6},

	0xF0: {"BEQ", ModeRelative, 2},
	0xF1: {"SBC", ModeIndirectY, 5},
	0xF5: {"SBC", ModeZeroPageX, 4},
	0xF6: {"INC", ModeZeroPageX, 6},
	0xF8: {"SED", ModeImplied, 2},
	0xF9: {"SBC", ModeAbsoluteY, 4},
	0xFD: {"SBC", ModeAbsoluteX, 4},
	0xFE: {"INC", ModeAbsoluteX, 7},
}

// pageCrossPenalty reports whether mode is one where a page-crossing
// effective-address computation adds a cycle for load/compare/arithmetic
// instructions. Store and read-modify-write instructions never consult
// this: their table entry already bakes in the unconditional cost real
// hardware pays for those opcodes.
func pageCrossPenalty(mode AddrMode) bool {
	switch mode {
	case ModeAbsoluteX, ModeAbsoluteY, ModeIndirectY:
		return true
	}
	return false
}

// resolveAddr computes the effective address for any mode that addresses
// memory (i.e. excluding Implied, Accumulator, Immediate, and Relative,
// which are handled by their callers directly).
func (c *Chip) resolveAddr(mode AddrMode) (addr uint16, crossed bool) {
	switch mode {
	case ModeZeroPage:
		return c.zp(), false
	case ModeZeroPageX:
		return c.zpIndexed(c.X), false
	case ModeZeroPageY:
		return c.zpIndexed(c.Y), false
	case ModeAbsolute:
		return c.absolute(), false
	case ModeAbsoluteX:
		return c.absoluteIndexed(c.X)
	case ModeAbsoluteY:
		return c.absoluteIndexed(c.Y)
	case ModeIndirect:
		return c.indirect(), false
	case ModeIndirectX:
		return c.indexedIndirectX(), false
	case ModeIndirectY:
		return c.indirectIndexedY()
	}
	return 0, false
}

// loadOperand fetches the operand value for a load/compare/arithmetic
// instruction, along with any page-crossing cycle penalty.
func (c *Chip) loadOperand(mode AddrMode) (val uint8, extra int, err error) {
	if mode == ModeImmediate {
		return c.fetch(), 0, nil
	}
	addr, crossed := c.resolveAddr(mode)
	if crossed && pageCrossPenalty(mode) {
		extra = 1
	}
	return c.bus.Read(addr), extra, nil
}

// dispatch decodes and executes a single opcode already fetched from pc,
// returning its cycle cost or a fatal error.
func (c *Chip) dispatch(op uint8, pc uint16) (int, error) {
	info := OpTable[op]
	if info.Mnemonic == "" {
		return 0, UnknownOpcode{PC: pc, Opcode: op}
	}

	switch info.Mnemonic {
	case "HLT":
		c.Halted = true
		c.HaltOpcode = op
		return info.Cycles, nil

	case "BRK":
		// BRK is one byte in assembly, but real hardware treats it as two:
		// the byte after it is skipped, so the pushed return address is
		// PC+2 relative to the opcode's own address.
		if err := c.pushWord(c.PC + 1); err != nil {
			return 0, err
		}
		if err := c.pushStatus(true); err != nil {
			return 0, err
		}
		c.FlagI = true
		c.PC = c.readWord(irqVector)
		return info.Cycles, nil

	case "NOP":
		return info.Cycles, nil

	case "CLC":
		c.FlagC = false
		return info.Cycles, nil
	case "SEC":
		c.FlagC = true
		return info.Cycles, nil
	case "CLI":
		c.FlagI = false
		return info.Cycles, nil
	case "SEI":
		c.FlagI = true
		return info.Cycles, nil
	case "CLV":
		c.FlagV = false
		return info.Cycles, nil
	case "CLD":
		c.FlagD = false
		return info.Cycles, nil
	case "SED":
		c.FlagD = true
		return info.Cycles, nil

	case "TAX":
		c.X = c.A
		c.setNZ(c.X)
		return info.Cycles, nil
	case "TAY":
		c.Y = c.A
		c.setNZ(c.Y)
		return info.Cycles, nil
	case "TXA":
		c.A = c.X
		c.setNZ(c.A)
		return info.Cycles, nil
	case "TYA":
		c.A = c.Y
		c.setNZ(c.A)
		return info.Cycles, nil
	case "TSX":
		c.X = c.SP
		c.setNZ(c.X)
		return info.Cycles, nil
	case "TXS":
		c.SP = c.X // TXS does not affect flags.
		return info.Cycles, nil

	case "INX":
		c.X = c.inc(c.X)
		return info.Cycles, nil
	case "INY":
		c.Y = c.inc(c.Y)
		return info.Cycles, nil
	case "DEX":
		c.X = c.dec(c.X)
		return info.Cycles, nil
	case "DEY":
		c.Y = c.dec(c.Y)
		return info.Cycles, nil

	case "PHA":
		return info.Cycles, c.push(c.A)
	case "PHP":
		return info.Cycles, c.pushStatus(true)
	case "PLA":
		c.A = c.pull()
		c.setNZ(c.A)
		return info.Cycles, nil
	case "PLP":
		c.pullStatus()
		return info.Cycles, nil

	case "JMP":
		if info.Mode == ModeIndirect {
			c.PC = c.indirect()
		} else {
			c.PC = c.absolute()
		}
		return info.Cycles, nil

	case "JSR":
		target := c.absolute()
		if err := c.pushWord(c.PC - 1); err != nil {
			return 0, err
		}
		c.PC = target
		return info.Cycles, nil

	case "RTS":
		c.PC = c.pullWord() + 1
		return info.Cycles, nil

	case "RTI":
		c.pullStatus()
		c.PC = c.pullWord()
		return info.Cycles, nil

	case "BCC":
		return c.branch(!c.FlagC), nil
	case "BCS":
		return c.branch(c.FlagC), nil
	case "BEQ":
		return c.branch(c.FlagZ), nil
	case "BNE":
		return c.branch(!c.FlagZ), nil
	case "BMI":
		return c.branch(c.FlagN), nil
	case "BPL":
		return c.branch(!c.FlagN), nil
	case "BVC":
		return c.branch(!c.FlagV), nil
	case "BVS":
		return c.branch(c.FlagV), nil

	case "LDA", "LDX", "LDY":
		val, extra, err := c.loadOperand(info.Mode)
		if err != nil {
			return 0, err
		}
		switch info.Mnemonic {
		case "LDA":
			c.A = val
			c.setNZ(c.A)
		case "LDX":
			c.X = val
			c.setNZ(c.X)
		case "LDY":
			c.Y = val
			c.setNZ(c.Y)
		}
		return info.Cycles + extra, nil

	case "STA", "STX", "STY":
		addr, _ := c.resolveAddr(info.Mode)
		var v uint8
		switch info.Mnemonic {
		case "STA":
			v = c.A
		case "STX":
			v = c.X
		case "STY":
			v = c.Y
		}
		return info.Cycles, c.write(addr, v)

	case "ADC", "SBC", "AND", "ORA", "EOR", "CMP":
		val, extra, err := c.loadOperand(info.Mode)
		if err != nil {
			return 0, err
		}
		switch info.Mnemonic {
		case "ADC":
			c.adc(val)
		case "SBC":
			c.sbc(val)
		case "AND":
			c.and(val)
		case "ORA":
			c.ora(val)
		case "EOR":
			c.eor(val)
		case "CMP":
			c.compare(c.A, val)
		}
		return info.Cycles + extra, nil

	case "CPX":
		val, extra, err := c.loadOperand(info.Mode)
		if err != nil {
			return 0, err
		}
		c.compare(c.X, val)
		return info.Cycles + extra, nil

	case "CPY":
		val, extra, err := c.loadOperand(info.Mode)
		if err != nil {
			return 0, err
		}
		c.compare(c.Y, val)
		return info.Cycles + extra, nil

	case "BIT":
		val, _, err := c.loadOperand(info.Mode)
		if err != nil {
			return 0, err
		}
		c.bit(val)
		return info.Cycles, nil

	case "ASL", "LSR", "ROL", "ROR", "INC", "DEC":
		var alu func(uint8) uint8
		switch info.Mnemonic {
		case "ASL":
			alu = c.asl
		case "LSR":
			alu = c.lsr
		case "ROL":
			alu = c.rol
		case "ROR":
			alu = c.ror
		case "INC":
			alu = c.inc
		case "DEC":
			alu = c.dec
		}
		if info.Mode == ModeAccumulator {
			c.A = alu(c.A)
			return info.Cycles, nil
		}
		addr, _ := c.resolveAddr(info.Mode)
		v := alu(c.bus.Read(addr))
		return info.Cycles, c.write(addr, v)
	}

	return 0, UnknownOpcode{PC: pc, Opcode: op}
}

// branch implements the branch cycle-cost algorithm: 2 cycles if not
// taken, 3 if taken, 4 if taken and the target lands on a different page
// than the instruction following the branch.
func (c *Chip) branch(cond bool) int {
	disp := asSigned(c.fetch())
	if !cond {
		return 2
	}
	origin := c.PC
	target := uint16(int32(c.PC) + int32(disp))
	c.PC = target
	if origin&0xFF00 != target&0xFF00 {
		return 4
	}
	return 3
}
