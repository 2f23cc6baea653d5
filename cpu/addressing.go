package cpu

// The resolvers below each compute the effective address for one memory
// addressing mode; the indexed ones also report whether indexing crossed a
// page boundary. resolveAddr (opcodes.go) selects among them. Immediate and
// Accumulator operands never touch memory and are handled by their callers.

// zp resolves Zero page: the effective address is the fetched byte itself.
func (c *Chip) zp() uint16 {
	return uint16(c.fetch())
}

// zpIndexed resolves Zero page,X or Zero page,Y: (fetch + index) mod 256.
// The addition always stays within a page, so this mode never adds a cycle.
func (c *Chip) zpIndexed(index uint8) uint16 {
	return uint16((c.fetch() + index) & 0xFF)
}

// absolute resolves Absolute: the 16-bit little-endian word at PC.
func (c *Chip) absolute() uint16 {
	return c.fetchWord()
}

// absoluteIndexed resolves Absolute,X or Absolute,Y. crossed is true when
// adding index to the low byte of base overflows into the next page,
// computed before masking per the spec's cycle-accounting rule.
func (c *Chip) absoluteIndexed(index uint8) (addr uint16, crossed bool) {
	base := c.fetchWord()
	lo := uint16(base&0xFF) + uint16(index)
	crossed = lo > 0xFF
	return base + uint16(index), crossed
}

// indirect resolves the operand of JMP ($nnnn), reproducing the 6502's
// page-wrap bug: when the pointer's low byte is 0xFF, the high byte of the
// target is fetched from the start of the same page rather than the next.
func (c *Chip) indirect() uint16 {
	ptr := c.fetchWord()
	lo := c.bus.Read(ptr)
	hiAddr := (ptr & 0xFF00) | ((ptr + 1) & 0x00FF)
	hi := c.bus.Read(hiAddr)
	return uint16(hi)<<8 | uint16(lo)
}

// indexedIndirectX resolves (Zero page,X): the pointer is (fetch+X) mod
// 256, read as a zero-page word.
func (c *Chip) indexedIndirectX() uint16 {
	ptr := (c.fetch() + c.X) & 0xFF
	lo := c.bus.Read(uint16(ptr))
	hi := c.bus.Read(uint16((ptr + 1) & 0xFF))
	return uint16(hi)<<8 | uint16(lo)
}

// indirectIndexedY resolves (Zero page),Y: the pointer is the fetched byte
// read as a zero-page word, then indexed by Y. crossed follows the same
// pre-mask low-byte rule as absoluteIndexed.
func (c *Chip) indirectIndexedY() (addr uint16, crossed bool) {
	ptr := c.fetch()
	lo := c.bus.Read(uint16(ptr))
	hi := c.bus.Read(uint16((ptr + 1) & 0xFF))
	base := uint16(hi)<<8 | uint16(lo)
	sum := uint16(lo) + uint16(c.Y)
	crossed = sum > 0xFF
	return base + uint16(c.Y), crossed
}
