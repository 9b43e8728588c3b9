package cpu

// Operands give the instruction primitives one way to read and write
// immediates, registers and memory. Byte and word capabilities are separate
// interfaces, so an 8-bit primitive cannot be handed a 16-bit operand.

// ByteSource is an operand that can be read as a byte.
type ByteSource interface {
	Load8(c *CPU) uint8
}

// ByteDest is an operand that can be written as a byte.
type ByteDest interface {
	Store8(c *CPU, value uint8)
}

// ByteOperand is read, modified and written back by a primitive.
type ByteOperand interface {
	ByteSource
	ByteDest
}

// WordSource is an operand that can be read as a word.
type WordSource interface {
	Load16(c *CPU) uint16
}

// WordDest is an operand that can be written as a word.
type WordDest interface {
	Store16(c *CPU, value uint16)
}

// WordOperand is read, modified and written back by a primitive.
type WordOperand interface {
	WordSource
	WordDest
}

// Imm8 is an immediate byte.
type Imm8 uint8

// Load8 returns the immediate.
func (i Imm8) Load8(*CPU) uint8 {
	return uint8(i)
}

// Imm16 is an immediate word.
type Imm16 uint16

// Load16 returns the immediate.
func (i Imm16) Load16(*CPU) uint16 {
	return uint16(i)
}

// Load8 reads the register.
func (r Reg8) Load8(c *CPU) uint8 {
	return c.Registers.Byte(r)
}

// Store8 writes the register.
func (r Reg8) Store8(c *CPU, value uint8) {
	c.Registers.SetByte(r, value)
}

// Load16 reads the register.
func (r Reg16) Load16(c *CPU) uint16 {
	return c.Registers.Word(r)
}

// Store16 writes the register.
func (r Reg16) Store16(c *CPU, value uint16) {
	c.Registers.SetWord(r, value)
}

// Addr is an absolute memory address. Words are little-endian.
type Addr uint16

// High returns the address 0xFF00+n used by LDH.
func High(n uint8) Addr {
	return Addr(0xFF00 | uint16(n))
}

// Load8 reads the byte at the address.
func (a Addr) Load8(c *CPU) uint8 {
	return c.Memory.Read(uint16(a))
}

// Store8 writes the byte at the address.
func (a Addr) Store8(c *CPU, value uint8) {
	c.Memory.Write(uint16(a), value)
}

// Load16 reads the little-endian word at the address.
func (a Addr) Load16(c *CPU) uint16 {
	low := uint16(c.Memory.Read(uint16(a)))
	high := uint16(c.Memory.Read(uint16(a) + 1))
	return high<<8 | low
}

// Store16 writes the little-endian word at the address.
func (a Addr) Store16(c *CPU, value uint16) {
	c.Memory.Write(uint16(a), uint8(value))      //nolint:gosec // G115: Intentional byte extraction from 16-bit value
	c.Memory.Write(uint16(a)+1, uint8(value>>8)) //nolint:gosec // G115: Intentional byte extraction from 16-bit value
}

// Indirect is the memory byte addressed by a register pair, e.g. (HL). The
// address is read from the register at access time.
type Indirect Reg16

// Load8 reads the byte the register points at.
func (i Indirect) Load8(c *CPU) uint8 {
	return c.Memory.Read(c.Registers.Word(Reg16(i)))
}

// Store8 writes the byte the register points at.
func (i Indirect) Store8(c *CPU, value uint8) {
	c.Memory.Write(c.Registers.Word(Reg16(i)), value)
}

func (i Indirect) String() string {
	return "(" + Reg16(i).String() + ")"
}
