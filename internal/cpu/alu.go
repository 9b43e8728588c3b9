package cpu

import "github.com/richardwooding/dmgcore/internal/memory"

// Instruction primitives. Every opcode table entry is a thin call into one of
// these with concrete operands, followed by its cycle cost.

// Loads

func (c *CPU) ld8(dst ByteDest, src ByteSource) {
	dst.Store8(c, src.Load8(c))
}

func (c *CPU) ld16(dst WordDest, src WordSource) {
	dst.Store16(c, src.Load16(c))
}

// ldi loads through (HL) and then increments HL.
func (c *CPU) ldi(dst ByteDest, src ByteSource) {
	c.ld8(dst, src)
	c.Registers.HL++
}

// ldd loads through (HL) and then decrements HL.
func (c *CPU) ldd(dst ByteDest, src ByteSource) {
	c.ld8(dst, src)
	c.Registers.HL--
}

// 8-bit arithmetic and logic

// add adds src (plus the carry flag for ADC) to A.
func (c *CPU) add(src ByteSource, withCarry bool) {
	a := c.Registers.Byte(A)
	b := src.Load8(c)
	carryVal := uint8(0)
	if withCarry && c.Registers.CarryFlag() {
		carryVal = 1
	}

	result := a + b + carryVal

	c.Registers.SetFlagTo(FlagZ, result == 0)
	c.Registers.ClearFlag(FlagN)
	c.Registers.SetFlagTo(FlagH, (a&0x0F)+(b&0x0F)+carryVal > 0x0F)
	c.Registers.SetFlagTo(FlagC, uint16(a)+uint16(b)+uint16(carryVal) > 0xFF)

	c.Registers.SetByte(A, result)
}

// subtract computes A - src (minus the carry flag for SBC) and sets flags.
func (c *CPU) subtract(src ByteSource, withCarry bool) uint8 {
	a := c.Registers.Byte(A)
	b := src.Load8(c)
	carryVal := uint8(0)
	if withCarry && c.Registers.CarryFlag() {
		carryVal = 1
	}

	result := a - b - carryVal

	c.Registers.SetFlagTo(FlagZ, result == 0)
	c.Registers.SetFlag(FlagN)
	c.Registers.SetFlagTo(FlagH, (a&0x0F) < (b&0x0F)+carryVal)
	c.Registers.SetFlagTo(FlagC, uint16(a) < uint16(b)+uint16(carryVal))

	return result
}

func (c *CPU) sub(src ByteSource, withCarry bool) {
	c.Registers.SetByte(A, c.subtract(src, withCarry))
}

// cp performs compare (subtraction without storing result) and sets flags.
func (c *CPU) cp(src ByteSource) {
	c.subtract(src, false)
}

func (c *CPU) and(src ByteSource) {
	c.logic(c.Registers.Byte(A)&src.Load8(c), true)
}

func (c *CPU) or(src ByteSource) {
	c.logic(c.Registers.Byte(A)|src.Load8(c), false)
}

func (c *CPU) xor(src ByteSource) {
	c.logic(c.Registers.Byte(A)^src.Load8(c), false)
}

// logic stores a bitwise result in A. Only AND sets the half-carry flag.
func (c *CPU) logic(result uint8, halfCarry bool) {
	c.Registers.SetByte(A, result)
	c.Registers.SetFlagTo(FlagZ, result == 0)
	c.Registers.ClearFlag(FlagN)
	c.Registers.SetFlagTo(FlagH, halfCarry)
	c.Registers.ClearFlag(FlagC)
}

// inc increments an 8-bit operand. Carry flag not affected.
func (c *CPU) inc(op ByteOperand) {
	value := op.Load8(c)
	result := value + 1

	c.Registers.SetFlagTo(FlagZ, result == 0)
	c.Registers.ClearFlag(FlagN)
	c.Registers.SetFlagTo(FlagH, (value&0x0F) == 0x0F)

	op.Store8(c, result)
}

// dec decrements an 8-bit operand. Carry flag not affected.
func (c *CPU) dec(op ByteOperand) {
	value := op.Load8(c)
	result := value - 1

	c.Registers.SetFlagTo(FlagZ, result == 0)
	c.Registers.SetFlag(FlagN)
	c.Registers.SetFlagTo(FlagH, (value&0x0F) == 0)

	op.Store8(c, result)
}

// daa performs Decimal Adjust Accumulator (DAA) operation.
func (c *CPU) daa() {
	a := c.Registers.Byte(A)

	if !c.Registers.SubtractFlag() { //nolint:nestif // Complex nested logic is required for BCD adjustment
		// After addition
		if c.Registers.CarryFlag() || a > 0x99 {
			a += 0x60
			c.Registers.SetFlag(FlagC)
		}
		if c.Registers.HalfCarryFlag() || (a&0x0F) > 0x09 {
			a += 0x06
		}
	} else {
		// After subtraction
		if c.Registers.CarryFlag() {
			a -= 0x60
		}
		if c.Registers.HalfCarryFlag() {
			a -= 0x06
		}
	}

	c.Registers.SetByte(A, a)
	c.Registers.SetFlagTo(FlagZ, a == 0)
	c.Registers.ClearFlag(FlagH)
}

func (c *CPU) cpl() {
	c.Registers.SetByte(A, ^c.Registers.Byte(A))
	c.Registers.SetFlag(FlagN)
	c.Registers.SetFlag(FlagH)
}

func (c *CPU) scf() {
	c.Registers.ClearFlag(FlagN)
	c.Registers.ClearFlag(FlagH)
	c.Registers.SetFlag(FlagC)
}

func (c *CPU) ccf() {
	c.Registers.ClearFlag(FlagN)
	c.Registers.ClearFlag(FlagH)
	c.Registers.SetFlagTo(FlagC, !c.Registers.CarryFlag())
}

// 16-bit arithmetic

// addHL adds src to HL. Z is not affected.
func (c *CPU) addHL(src WordSource) {
	a := c.Registers.HL
	b := src.Load16(c)

	c.Registers.ClearFlag(FlagN)
	c.Registers.SetFlagTo(FlagH, (a&0x0FFF)+(b&0x0FFF) > 0x0FFF)
	c.Registers.SetFlagTo(FlagC, uint32(a)+uint32(b) > 0xFFFF)

	c.Registers.HL = a + b
}

// inc16 and dec16 leave the flags alone.
func (c *CPU) inc16(op WordOperand) {
	op.Store16(c, op.Load16(c)+1)
}

func (c *CPU) dec16(op WordOperand) {
	op.Store16(c, op.Load16(c)-1)
}

// spOffset returns SP plus a sign-extended offset. H and C come from the
// unsigned addition of the low bytes; Z and N are always reset.
func (c *CPU) spOffset(offset uint8) uint16 {
	sp := c.Registers.SP
	low := uint8(sp) //nolint:gosec // G115: Intentional byte extraction from 16-bit register

	c.Registers.ClearFlag(FlagZ)
	c.Registers.ClearFlag(FlagN)
	c.Registers.SetFlagTo(FlagH, (low&0x0F)+(offset&0x0F) > 0x0F)
	c.Registers.SetFlagTo(FlagC, uint16(low)+uint16(offset) > 0xFF)

	return sp + uint16(int16(int8(offset))) //nolint:gosec // G115: Sign extension of the relative offset
}

// adda adds a signed immediate to SP (ADD SP,e8).
func (c *CPU) adda(offset uint8) {
	c.Registers.SP = c.spOffset(offset)
}

// lda loads SP plus a signed immediate into HL (LD HL,SP+e8).
func (c *CPU) lda(offset uint8) {
	c.Registers.HL = c.spOffset(offset)
}

// Rotate and shift helpers

// rotate stores a shifted result in op, with Z from the result and C from the
// bit shifted out.
func (c *CPU) rotate(op ByteOperand, result uint8, carry bool) {
	c.Registers.SetFlagTo(FlagZ, result == 0)
	c.Registers.ClearFlag(FlagN)
	c.Registers.ClearFlag(FlagH)
	c.Registers.SetFlagTo(FlagC, carry)
	op.Store8(c, result)
}

func (c *CPU) carryBit() uint8 {
	if c.Registers.CarryFlag() {
		return 1
	}
	return 0
}

// rlc rotates left, bit 7 into carry and bit 0.
func (c *CPU) rlc(op ByteOperand) {
	value := op.Load8(c)
	c.rotate(op, value<<1|value>>7, value&0x80 != 0)
}

// rrc rotates right, bit 0 into carry and bit 7.
func (c *CPU) rrc(op ByteOperand) {
	value := op.Load8(c)
	c.rotate(op, value>>1|value<<7, value&0x01 != 0)
}

// rl rotates left through carry.
func (c *CPU) rl(op ByteOperand) {
	value := op.Load8(c)
	c.rotate(op, value<<1|c.carryBit(), value&0x80 != 0)
}

// rr rotates right through carry.
func (c *CPU) rr(op ByteOperand) {
	value := op.Load8(c)
	c.rotate(op, value>>1|c.carryBit()<<7, value&0x01 != 0)
}

// sla shifts left into carry. Bit 0 becomes 0.
func (c *CPU) sla(op ByteOperand) {
	value := op.Load8(c)
	c.rotate(op, value<<1, value&0x80 != 0)
}

// sra shifts right into carry. Bit 7 is kept.
func (c *CPU) sra(op ByteOperand) {
	value := op.Load8(c)
	c.rotate(op, value>>1|value&0x80, value&0x01 != 0)
}

// srl shifts right into carry. Bit 7 becomes 0.
func (c *CPU) srl(op ByteOperand) {
	value := op.Load8(c)
	c.rotate(op, value>>1, value&0x01 != 0)
}

// swap exchanges the nibbles. Carry is always reset.
func (c *CPU) swap(op ByteOperand) {
	value := op.Load8(c)
	c.rotate(op, value<<4|value>>4, false)
}

// rotateA runs an accumulator rotate (RLCA, RRCA, RLA, RRA), which always
// clears Z.
func (c *CPU) rotateA(fn func(ByteOperand)) {
	fn(A)
	c.Registers.ClearFlag(FlagZ)
}

// Bit operations

// bit tests bit n of src. Carry flag not affected.
func (c *CPU) bit(n uint8, src ByteSource) {
	c.Registers.SetFlagTo(FlagZ, src.Load8(c)&(1<<n) == 0)
	c.Registers.ClearFlag(FlagN)
	c.Registers.SetFlag(FlagH)
}

func (c *CPU) res(n uint8, op ByteOperand) {
	op.Store8(c, op.Load8(c)&^(1<<n))
}

func (c *CPU) set(n uint8, op ByteOperand) {
	op.Store8(c, op.Load8(c)|(1<<n))
}

// Stack and control flow

func (c *CPU) pushOp(src WordSource) {
	c.push(src.Load16(c))
}

func (c *CPU) popOp(dst WordDest) {
	dst.Store16(c, c.pop())
}

// jp jumps to target when cond holds and reports whether it did.
func (c *CPU) jp(cond bool, target WordSource) bool {
	if cond {
		c.Registers.PC = target.Load16(c)
	}
	return cond
}

// jr adds a sign-extended displacement to PC, which already points past the
// instruction.
func (c *CPU) jr(cond bool, offset uint8) bool {
	if cond {
		c.Registers.PC += uint16(int16(int8(offset))) //nolint:gosec // G115: Sign extension of the relative offset
	}
	return cond
}

// call pushes the return address and jumps to target when cond holds.
func (c *CPU) call(cond bool, target WordSource) bool {
	if cond {
		addr := target.Load16(c)
		c.push(c.Registers.PC)
		c.Registers.PC = addr
	}
	return cond
}

// ret pops PC when cond holds.
func (c *CPU) ret(cond bool) bool {
	if cond {
		c.Registers.PC = c.pop()
	}
	return cond
}

func (c *CPU) reti() {
	c.ret(true)
	c.IME = true
}

func (c *CPU) rst(vector uint16) {
	c.call(true, Imm16(vector))
}

// Conditions

func (c *CPU) nz() bool { return !c.Registers.ZeroFlag() }
func (c *CPU) z() bool  { return c.Registers.ZeroFlag() }
func (c *CPU) nc() bool { return !c.Registers.CarryFlag() }
func (c *CPU) cc() bool { return c.Registers.CarryFlag() }

// Control

func (c *CPU) halt() {
	c.halted = true
}

// stop skips its padding byte and waits like HALT. Writing DIV resets the
// divider as the hardware does on STOP.
func (c *CPU) stop() {
	c.fetchByte()
	c.halted = true
	c.Memory.Write(memory.DIV, 0)
}

// branch returns taken when cond held, otherwise notTaken.
func branch(cond bool, taken, notTaken uint8) uint8 {
	if cond {
		return taken
	}
	return notTaken
}
