package cpu

import "fmt"

// Flags represents CPU flag register bits.
const (
	FlagZ uint8 = 0b10000000 // Zero flag (bit 7)
	FlagN uint8 = 0b01000000 // Subtraction flag (bit 6)
	FlagH uint8 = 0b00100000 // Half-carry flag (bit 5)
	FlagC uint8 = 0b00010000 // Carry flag (bit 4)
)

// Reg8 names an 8-bit register. Each one is the high or low byte of a pair.
type Reg8 uint8

// 8-bit registers.
const (
	A Reg8 = iota
	F
	B
	C
	D
	E
	H
	L
)

func (r Reg8) String() string {
	return [...]string{"A", "F", "B", "C", "D", "E", "H", "L"}[r]
}

// Reg16 names a 16-bit register.
type Reg16 uint8

// 16-bit registers.
const (
	AF Reg16 = iota
	BC
	DE
	HL
	SP
	PC
)

func (r Reg16) String() string {
	return [...]string{"AF", "BC", "DE", "HL", "SP", "PC"}[r]
}

// Registers represents the SM83 CPU registers. The 8-bit registers are
// views into the pairs: A/F are the high/low bytes of AF and so on.
type Registers struct {
	AF uint16 // Accumulator and flags (low nibble of F always 0)
	BC uint16
	DE uint16
	HL uint16
	SP uint16 // Stack pointer
	PC uint16 // Program counter
}

// NewRegisters creates a new Registers instance with the post-boot values.
func NewRegisters() Registers {
	return Registers{
		AF: 0x01B0,
		BC: 0x0013,
		DE: 0x00D8,
		HL: 0x014D,
		SP: 0xFFFE,
		PC: 0x0100,
	}
}

// pair returns the register pair holding r and whether r is its high byte.
func (r *Registers) pair(reg Reg8) (*uint16, bool) {
	switch reg {
	case A:
		return &r.AF, true
	case F:
		return &r.AF, false
	case B:
		return &r.BC, true
	case C:
		return &r.BC, false
	case D:
		return &r.DE, true
	case E:
		return &r.DE, false
	case H:
		return &r.HL, true
	case L:
		return &r.HL, false
	default:
		panic(fmt.Sprintf("invalid 8-bit register %d", reg))
	}
}

// word returns the storage for a 16-bit register.
func (r *Registers) word(reg Reg16) *uint16 {
	switch reg {
	case AF:
		return &r.AF
	case BC:
		return &r.BC
	case DE:
		return &r.DE
	case HL:
		return &r.HL
	case SP:
		return &r.SP
	case PC:
		return &r.PC
	default:
		panic(fmt.Sprintf("invalid 16-bit register %d", reg))
	}
}

// Byte reads an 8-bit register.
func (r *Registers) Byte(reg Reg8) uint8 {
	p, high := r.pair(reg)
	if high {
		return uint8(*p >> 8) //nolint:gosec // G115: Intentional byte extraction from 16-bit register
	}
	return uint8(*p) //nolint:gosec // G115: Intentional byte extraction from 16-bit register
}

// SetByte writes an 8-bit register, updating its parent pair.
func (r *Registers) SetByte(reg Reg8, value uint8) {
	if reg == F {
		value &= 0xF0 // Lower 4 bits always 0
	}
	p, high := r.pair(reg)
	if high {
		*p = (*p & 0x00FF) | uint16(value)<<8
	} else {
		*p = (*p & 0xFF00) | uint16(value)
	}
}

// Word reads a 16-bit register.
func (r *Registers) Word(reg Reg16) uint16 {
	return *r.word(reg)
}

// SetWord writes a 16-bit register.
func (r *Registers) SetWord(reg Reg16, value uint16) {
	if reg == AF {
		value &= 0xFFF0 // Lower 4 bits of F always 0
	}
	*r.word(reg) = value
}

// Flag operations

// GetFlag checks if a flag is set.
func (r *Registers) GetFlag(flag uint8) bool {
	return uint8(r.AF)&flag != 0 //nolint:gosec // G115: F is the low byte of AF
}

// SetFlag sets a flag to 1.
func (r *Registers) SetFlag(flag uint8) {
	r.AF |= uint16(flag)
}

// ClearFlag sets a flag to 0.
func (r *Registers) ClearFlag(flag uint8) {
	r.AF &^= uint16(flag)
}

// SetFlagTo sets a flag to a specific boolean value.
func (r *Registers) SetFlagTo(flag uint8, value bool) {
	if value {
		r.SetFlag(flag)
	} else {
		r.ClearFlag(flag)
	}
}

// ZeroFlag returns the Zero flag state.
func (r *Registers) ZeroFlag() bool {
	return r.GetFlag(FlagZ)
}

// SubtractFlag returns the Subtract flag state.
func (r *Registers) SubtractFlag() bool {
	return r.GetFlag(FlagN)
}

// HalfCarryFlag returns the Half-carry flag state.
func (r *Registers) HalfCarryFlag() bool {
	return r.GetFlag(FlagH)
}

// CarryFlag returns the Carry flag state.
func (r *Registers) CarryFlag() bool {
	return r.GetFlag(FlagC)
}

func (r Registers) String() string {
	return fmt.Sprintf("AF=%04X BC=%04X DE=%04X HL=%04X SP=%04X PC=%04X",
		r.AF, r.BC, r.DE, r.HL, r.SP, r.PC)
}
