package cpu

// push writes b to the stack page and decrements SP, wrapping from 0x00 to
// 0xFF.
func (c *Chip) push(b uint8) error {
	if err := c.write(stackBase+uint16(c.SP), b); err != nil {
		return err
	}
	c.SP--
	return nil
}

// pull increments SP, wrapping from 0xFF to 0x00, and returns the byte at
// the resulting stack address.
func (c *Chip) pull() uint8 {
	c.SP++
	return c.bus.Read(stackBase + uint16(c.SP))
}

// pushWord pushes w high byte first, then low byte, so a matching pullWord
// reads them back in the original order.
func (c *Chip) pushWord(w uint16) error {
	if err := c.push(uint8(w >> 8)); err != nil {
		return err
	}
	return c.push(uint8(w))
}

func (c *Chip) pullWord() uint16 {
	lo := c.pull()
	hi := c.pull()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *Chip) pushStatus(brk bool) error {
	return c.push(c.packStatus(brk))
}

func (c *Chip) pullStatus() {
	c.unpackStatus(c.pull())
}
