package cpu

// cbPrefixed is the dispatch table for opcodes following the 0xCB prefix.
// The opcode decodes as two bits of operation, three bits of bit number or
// shift kind, and three bits of target register.
var cbPrefixed [256]opcode

func initCB() {
	shifts := [8]struct {
		name string
		fn   func(c *CPU, op ByteOperand)
	}{
		{"RLC", (*CPU).rlc},
		{"RRC", (*CPU).rrc},
		{"RL", (*CPU).rl},
		{"RR", (*CPU).rr},
		{"SLA", (*CPU).sla},
		{"SRA", (*CPU).sra},
		{"SWAP", (*CPU).swap},
		{"SRL", (*CPU).srl},
	}

	for code := range 256 {
		target := code & 0x07
		n := uint8(code>>3) & 0x07 //nolint:gosec // G115: code is below 256
		operand := byteTargets[target]
		name := targetNames[target]
		bitName := string('0' + rune(n))

		// Most are 8, (HL) operations are 16, BIT (HL) is 12
		cycles := cost(target, 8, 16)

		var entry opcode
		switch code >> 6 {
		case 0: // Rotates and shifts (0x00-0x3F)
			shift := shifts[n]
			entry = opcode{mnemonic: shift.name + " " + name, exec: func(c *CPU) uint8 {
				shift.fn(c, operand)
				return cycles
			}}
		case 1: // BIT (0x40-0x7F)
			cycles = cost(target, 8, 12)
			entry = opcode{mnemonic: "BIT " + bitName + "," + name, exec: func(c *CPU) uint8 {
				c.bit(n, operand)
				return cycles
			}}
		case 2: // RES (0x80-0xBF)
			entry = opcode{mnemonic: "RES " + bitName + "," + name, exec: func(c *CPU) uint8 {
				c.res(n, operand)
				return cycles
			}}
		case 3: // SET (0xC0-0xFF)
			entry = opcode{mnemonic: "SET " + bitName + "," + name, exec: func(c *CPU) uint8 {
				c.set(n, operand)
				return cycles
			}}
		}

		entry.length = 2
		cbPrefixed[code] = entry
	}
}
