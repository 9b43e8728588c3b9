package cpu

// Step executes one instruction immediately, ignoring any stall, and returns
// its cycle cost. A halted CPU with nothing pending burns 4 cycles.
func (c *CPU) Step() uint8 {
	if c.halted {
		if c.pending() == 0 {
			return 4
		}
		c.halted = false
	}

	c.stall = 0
	return c.dispatch()
}
