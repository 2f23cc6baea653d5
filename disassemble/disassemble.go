// Package disassemble renders a single 6502 instruction at a given PC as a
// human-readable mnemonic string, for trace augmentation and tooling. It
// shares its opcode/addressing-mode table with the cpu package so the two
// never disagree about how many bytes an instruction consumes.
package disassemble

import (
	"fmt"

	"github.com/nescore/6502/cpu"
	"github.com/nescore/6502/memory"
)

// Step disassembles the instruction at pc, returning its mnemonic text and
// the number of bytes (including the opcode byte) the caller should advance
// PC by to reach the next instruction. It does not interpret control flow:
// a JMP's target is rendered as an operand, not followed. This always reads
// up to two bytes past pc, so callers must ensure that's a valid read
// (memory.Bus reads never fail, so this is safe against any Bus).
func Step(pc uint16, bus memory.Bus) (string, int) {
	op := bus.Read(pc)
	info := cpu.OpTable[op]
	if info.Mnemonic == "" {
		return fmt.Sprintf(".DB $%02X", op), 1
	}

	b1 := bus.Read(pc + 1)
	b2 := bus.Read(pc + 2)

	switch info.Mode {
	case cpu.ModeImplied:
		return info.Mnemonic, 1
	case cpu.ModeAccumulator:
		return fmt.Sprintf("%s A", info.Mnemonic), 1
	case cpu.ModeImmediate:
		return fmt.Sprintf("%s #$%02X", info.Mnemonic, b1), 2
	case cpu.ModeZeroPage:
		return fmt.Sprintf("%s $%02X", info.Mnemonic, b1), 2
	case cpu.ModeZeroPageX:
		return fmt.Sprintf("%s $%02X,X", info.Mnemonic, b1), 2
	case cpu.ModeZeroPageY:
		return fmt.Sprintf("%s $%02X,Y", info.Mnemonic, b1), 2
	case cpu.ModeIndirectX:
		return fmt.Sprintf("%s ($%02X,X)", info.Mnemonic, b1), 2
	case cpu.ModeIndirectY:
		return fmt.Sprintf("%s ($%02X),Y", info.Mnemonic, b1), 2
	case cpu.ModeRelative:
		target := pc + 2 + uint16(int16(int8(b1)))
		return fmt.Sprintf("%s $%04X", info.Mnemonic, target), 2
	case cpu.ModeAbsolute:
		return fmt.Sprintf("%s $%02X%02X", info.Mnemonic, b2, b1), 3
	case cpu.ModeAbsoluteX:
		return fmt.Sprintf("%s $%02X%02X,X", info.Mnemonic, b2, b1), 3
	case cpu.ModeAbsoluteY:
		return fmt.Sprintf("%s $%02X%02X,Y", info.Mnemonic, b2, b1), 3
	case cpu.ModeIndirect:
		return fmt.Sprintf("%s ($%02X%02X)", info.Mnemonic, b2, b1), 3
	}
	return fmt.Sprintf(".DB $%02X", op), 1
}
