// Package cpu implements the Sharp SM83 CPU emulation for the Game Boy.
//
// The CPU is advanced one dot (T-cycle) at a time with Tick. An instruction
// executes completely on the tick it is fetched, after which the CPU stalls
// for the rest of the instruction's cycle cost.
package cpu

import (
	"errors"
	"fmt"

	"github.com/richardwooding/dmgcore/internal/memory"
)

// ErrUnknownOpcode indicates an opcode with no entry in the dispatch tables.
var ErrUnknownOpcode = errors.New("unknown opcode")

// Memory interface for CPU to access memory bus.
type Memory interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// CPU represents the Sharp SM83 CPU.
type CPU struct {
	Registers Registers
	Memory    Memory

	// Interrupt master enable flag
	IME bool

	halted bool

	// Ticks left before the next fetch
	stall uint8

	// Cycle counter (sum of dispatched instruction costs)
	Cycles uint64
}

// New creates a new CPU instance.
func New(mem Memory) *CPU {
	return &CPU{
		Registers: NewRegisters(),
		Memory:    mem,
	}
}

// Halted reports whether the CPU is waiting for an interrupt.
func (c *CPU) Halted() bool {
	return c.halted
}

// Stalled returns the number of ticks left before the next fetch.
func (c *CPU) Stalled() uint8 {
	return c.stall
}

// Ready reports whether the next Tick will fetch an instruction.
func (c *CPU) Ready() bool {
	return c.stall == 0 && (!c.halted || c.pending() != 0)
}

// pending returns the interrupts that are both requested and enabled.
func (c *CPU) pending() uint8 {
	return c.Memory.Read(memory.IF) & c.Memory.Read(memory.IE) & 0x1F
}

// Tick advances the CPU by one dot and reports whether an instruction was executed.
func (c *CPU) Tick() bool {
	if c.halted {
		if c.pending() == 0 {
			return false
		}
		c.halted = false
	}

	if c.stall > 0 {
		c.stall--
		return false
	}

	cycles := c.dispatch()

	// The fetch itself used this tick
	if cycles > 0 {
		c.stall = cycles - 1
	}

	return true
}

// dispatch services the highest priority interrupt if allowed, then fetches
// and executes one instruction.
func (c *CPU) dispatch() uint8 {
	if c.IME {
		c.serviceInterrupt()
	}

	opcode := c.fetchByte()
	entry := &unprefixed[opcode]
	if entry.exec == nil {
		panic(fmt.Errorf("%w: 0x%02X, SP: %04X, PC: %04X",
			ErrUnknownOpcode, opcode, c.Registers.SP, c.Registers.PC))
	}
	cycles := entry.exec(c)

	c.Cycles += uint64(cycles)
	return cycles
}

// serviceInterrupt calls the vector of the highest priority pending interrupt.
// Only one interrupt is serviced per call.
func (c *CPU) serviceInterrupt() {
	pending := c.pending()
	if pending == 0 {
		return
	}

	for _, i := range memory.Interrupts {
		if pending&i.Mask() == 0 {
			continue
		}
		c.Memory.Write(memory.IF, c.Memory.Read(memory.IF)&^i.Mask())
		c.IME = false
		c.call(true, Imm16(i.Vector()))
		return
	}
}

// fetchByte fetches the next byte from memory and increments PC.
func (c *CPU) fetchByte() uint8 {
	value := c.Memory.Read(c.Registers.PC)
	c.Registers.PC++
	return value
}

// fetchWord fetches the next word (16-bit) from memory and increments PC.
func (c *CPU) fetchWord() uint16 {
	low := uint16(c.fetchByte())
	high := uint16(c.fetchByte())
	return high<<8 | low
}

// pushByte decrements SP and stores a byte there.
func (c *CPU) pushByte(value uint8) {
	c.Registers.SP--
	c.Memory.Write(c.Registers.SP, value)
}

// popByte loads the byte at SP and increments SP.
func (c *CPU) popByte() uint8 {
	value := c.Memory.Read(c.Registers.SP)
	c.Registers.SP++
	return value
}

// push pushes a 16-bit value onto the stack, high byte first so it ends up
// at the higher address.
func (c *CPU) push(value uint16) {
	c.pushByte(uint8(value >> 8)) //nolint:gosec // G115: Intentional byte extraction from 16-bit value
	c.pushByte(uint8(value))      //nolint:gosec // G115: Intentional byte extraction from 16-bit value
}

// pop pops a 16-bit value from the stack.
func (c *CPU) pop() uint16 {
	low := uint16(c.popByte())
	high := uint16(c.popByte())
	return high<<8 | low
}
