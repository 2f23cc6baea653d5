package cpu

// pollInterrupts is checked once per completed instruction, never
// mid-instruction. NMI is never masked and takes priority over a
// simultaneously-raised IRQ; IRQ is masked by FlagI. A nil irq.Sender
// reads as never-raised, so embedders that don't wire a PPU/mapper see no
// interrupts at all.
func (c *Chip) pollInterrupts() (int, error) {
	switch {
	case c.nmi != nil && c.nmi.Raised():
		return c.runInterrupt(nmiVector)
	case c.irq != nil && c.irq.Raised() && !c.FlagI:
		return c.runInterrupt(irqVector)
	default:
		return 0, nil
	}
}

// runInterrupt performs the standard 7-cycle interrupt sequence: push PC
// unmodified (unlike BRK, which pushes PC+2), push status with the break
// bit clear, set the interrupt-disable flag, and load PC from vector.
func (c *Chip) runInterrupt(vector uint16) (int, error) {
	if err := c.pushWord(c.PC); err != nil {
		return 0, err
	}
	if err := c.pushStatus(false); err != nil {
		return 0, err
	}
	c.FlagI = true
	c.PC = c.readWord(vector)
	return 7, nil
}
