package cpu

import (
	"strings"

	"github.com/richardwooding/dmgcore/internal/logger"
)

// opcode is one dispatch table entry. exec runs the instruction, including
// fetching its immediates, and returns the cycles it took.
type opcode struct {
	mnemonic string
	length   uint8
	exec     func(c *CPU) uint8
}

// op builds a table entry. The instruction length follows from the immediate
// placeholder in the mnemonic (n8, e8, a8, n16 or a16).
func op(mnemonic string, exec func(c *CPU) uint8) opcode {
	length := uint8(1)
	switch {
	case strings.Contains(mnemonic, "n16"), strings.Contains(mnemonic, "a16"):
		length = 3
	case strings.Contains(mnemonic, "n8"), strings.Contains(mnemonic, "e8"), strings.Contains(mnemonic, "a8"):
		length = 2
	}
	return opcode{mnemonic: mnemonic, length: length, exec: exec}
}

// illegalOpcodes are unassigned on the SM83. Software occasionally executes
// them, so they are logged and skipped instead of stopping the machine.
var illegalOpcodes = [...]uint8{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD}

func illegal(code uint8) opcode {
	return opcode{
		mnemonic: "ILLEGAL",
		length:   1,
		exec: func(c *CPU) uint8 {
			logger.Logf("cpu", "illegal opcode 0x%02X at %04X", code, c.Registers.PC-1)
			return 4
		},
	}
}

// byteTargets is the operand order encoded in the low three bits of the
// register-indexed opcodes.
var byteTargets = [8]ByteOperand{B, C, D, E, H, L, Indirect(HL), A}

// cost returns the cycles for a register-indexed opcode: base for registers,
// memory for (HL).
func cost(target int, base, memory uint8) uint8 {
	if target == 6 {
		return memory
	}
	return base
}

// unprefixed is the dispatch table for single byte opcodes. The regular
// 0x40-0xBF block (register loads and accumulator arithmetic) is filled in by
// init.
var unprefixed = [256]opcode{
	// 0x00-0x0F
	0x00: op("NOP", func(c *CPU) uint8 { return 4 }),
	0x01: op("LD BC,n16", func(c *CPU) uint8 { c.ld16(BC, Imm16(c.fetchWord())); return 12 }),
	0x02: op("LD (BC),A", func(c *CPU) uint8 { c.ld8(Indirect(BC), A); return 8 }),
	0x03: op("INC BC", func(c *CPU) uint8 { c.inc16(BC); return 8 }),
	0x04: op("INC B", func(c *CPU) uint8 { c.inc(B); return 4 }),
	0x05: op("DEC B", func(c *CPU) uint8 { c.dec(B); return 4 }),
	0x06: op("LD B,n8", func(c *CPU) uint8 { c.ld8(B, Imm8(c.fetchByte())); return 8 }),
	0x07: op("RLCA", func(c *CPU) uint8 { c.rotateA(c.rlc); return 4 }),
	0x08: op("LD (a16),SP", func(c *CPU) uint8 { c.ld16(Addr(c.fetchWord()), SP); return 20 }),
	0x09: op("ADD HL,BC", func(c *CPU) uint8 { c.addHL(BC); return 8 }),
	0x0A: op("LD A,(BC)", func(c *CPU) uint8 { c.ld8(A, Indirect(BC)); return 8 }),
	0x0B: op("DEC BC", func(c *CPU) uint8 { c.dec16(BC); return 8 }),
	0x0C: op("INC C", func(c *CPU) uint8 { c.inc(C); return 4 }),
	0x0D: op("DEC C", func(c *CPU) uint8 { c.dec(C); return 4 }),
	0x0E: op("LD C,n8", func(c *CPU) uint8 { c.ld8(C, Imm8(c.fetchByte())); return 8 }),
	0x0F: op("RRCA", func(c *CPU) uint8 { c.rotateA(c.rrc); return 4 }),

	// 0x10-0x1F
	0x10: op("STOP n8", func(c *CPU) uint8 { c.stop(); return 4 }),
	0x11: op("LD DE,n16", func(c *CPU) uint8 { c.ld16(DE, Imm16(c.fetchWord())); return 12 }),
	0x12: op("LD (DE),A", func(c *CPU) uint8 { c.ld8(Indirect(DE), A); return 8 }),
	0x13: op("INC DE", func(c *CPU) uint8 { c.inc16(DE); return 8 }),
	0x14: op("INC D", func(c *CPU) uint8 { c.inc(D); return 4 }),
	0x15: op("DEC D", func(c *CPU) uint8 { c.dec(D); return 4 }),
	0x16: op("LD D,n8", func(c *CPU) uint8 { c.ld8(D, Imm8(c.fetchByte())); return 8 }),
	0x17: op("RLA", func(c *CPU) uint8 { c.rotateA(c.rl); return 4 }),
	0x18: op("JR e8", func(c *CPU) uint8 { c.jr(true, c.fetchByte()); return 12 }),
	0x19: op("ADD HL,DE", func(c *CPU) uint8 { c.addHL(DE); return 8 }),
	0x1A: op("LD A,(DE)", func(c *CPU) uint8 { c.ld8(A, Indirect(DE)); return 8 }),
	0x1B: op("DEC DE", func(c *CPU) uint8 { c.dec16(DE); return 8 }),
	0x1C: op("INC E", func(c *CPU) uint8 { c.inc(E); return 4 }),
	0x1D: op("DEC E", func(c *CPU) uint8 { c.dec(E); return 4 }),
	0x1E: op("LD E,n8", func(c *CPU) uint8 { c.ld8(E, Imm8(c.fetchByte())); return 8 }),
	0x1F: op("RRA", func(c *CPU) uint8 { c.rotateA(c.rr); return 4 }),

	// 0x20-0x2F
	0x20: op("JR NZ,e8", func(c *CPU) uint8 { return branch(c.jr(c.nz(), c.fetchByte()), 12, 8) }),
	0x21: op("LD HL,n16", func(c *CPU) uint8 { c.ld16(HL, Imm16(c.fetchWord())); return 12 }),
	0x22: op("LD (HL+),A", func(c *CPU) uint8 { c.ldi(Indirect(HL), A); return 8 }),
	0x23: op("INC HL", func(c *CPU) uint8 { c.inc16(HL); return 8 }),
	0x24: op("INC H", func(c *CPU) uint8 { c.inc(H); return 4 }),
	0x25: op("DEC H", func(c *CPU) uint8 { c.dec(H); return 4 }),
	0x26: op("LD H,n8", func(c *CPU) uint8 { c.ld8(H, Imm8(c.fetchByte())); return 8 }),
	0x27: op("DAA", func(c *CPU) uint8 { c.daa(); return 4 }),
	0x28: op("JR Z,e8", func(c *CPU) uint8 { return branch(c.jr(c.z(), c.fetchByte()), 12, 8) }),
	0x29: op("ADD HL,HL", func(c *CPU) uint8 { c.addHL(HL); return 8 }),
	0x2A: op("LD A,(HL+)", func(c *CPU) uint8 { c.ldi(A, Indirect(HL)); return 8 }),
	0x2B: op("DEC HL", func(c *CPU) uint8 { c.dec16(HL); return 8 }),
	0x2C: op("INC L", func(c *CPU) uint8 { c.inc(L); return 4 }),
	0x2D: op("DEC L", func(c *CPU) uint8 { c.dec(L); return 4 }),
	0x2E: op("LD L,n8", func(c *CPU) uint8 { c.ld8(L, Imm8(c.fetchByte())); return 8 }),
	0x2F: op("CPL", func(c *CPU) uint8 { c.cpl(); return 4 }),

	// 0x30-0x3F
	0x30: op("JR NC,e8", func(c *CPU) uint8 { return branch(c.jr(c.nc(), c.fetchByte()), 12, 8) }),
	0x31: op("LD SP,n16", func(c *CPU) uint8 { c.ld16(SP, Imm16(c.fetchWord())); return 12 }),
	0x32: op("LD (HL-),A", func(c *CPU) uint8 { c.ldd(Indirect(HL), A); return 8 }),
	0x33: op("INC SP", func(c *CPU) uint8 { c.inc16(SP); return 8 }),
	0x34: op("INC (HL)", func(c *CPU) uint8 { c.inc(Indirect(HL)); return 12 }),
	0x35: op("DEC (HL)", func(c *CPU) uint8 { c.dec(Indirect(HL)); return 12 }),
	0x36: op("LD (HL),n8", func(c *CPU) uint8 { c.ld8(Indirect(HL), Imm8(c.fetchByte())); return 12 }),
	0x37: op("SCF", func(c *CPU) uint8 { c.scf(); return 4 }),
	0x38: op("JR C,e8", func(c *CPU) uint8 { return branch(c.jr(c.cc(), c.fetchByte()), 12, 8) }),
	0x39: op("ADD HL,SP", func(c *CPU) uint8 { c.addHL(SP); return 8 }),
	0x3A: op("LD A,(HL-)", func(c *CPU) uint8 { c.ldd(A, Indirect(HL)); return 8 }),
	0x3B: op("DEC SP", func(c *CPU) uint8 { c.dec16(SP); return 8 }),
	0x3C: op("INC A", func(c *CPU) uint8 { c.inc(A); return 4 }),
	0x3D: op("DEC A", func(c *CPU) uint8 { c.dec(A); return 4 }),
	0x3E: op("LD A,n8", func(c *CPU) uint8 { c.ld8(A, Imm8(c.fetchByte())); return 8 }),
	0x3F: op("CCF", func(c *CPU) uint8 { c.ccf(); return 4 }),

	// 0xC0-0xCF
	0xC0: op("RET NZ", func(c *CPU) uint8 { return branch(c.ret(c.nz()), 20, 8) }),
	0xC1: op("POP BC", func(c *CPU) uint8 { c.popOp(BC); return 12 }),
	0xC2: op("JP NZ,a16", func(c *CPU) uint8 { return branch(c.jp(c.nz(), Imm16(c.fetchWord())), 16, 12) }),
	0xC3: op("JP a16", func(c *CPU) uint8 { c.jp(true, Imm16(c.fetchWord())); return 16 }),
	0xC4: op("CALL NZ,a16", func(c *CPU) uint8 { return branch(c.call(c.nz(), Imm16(c.fetchWord())), 24, 12) }),
	0xC5: op("PUSH BC", func(c *CPU) uint8 { c.pushOp(BC); return 16 }),
	0xC6: op("ADD A,n8", func(c *CPU) uint8 { c.add(Imm8(c.fetchByte()), false); return 8 }),
	0xC7: op("RST $00", func(c *CPU) uint8 { c.rst(0x00); return 16 }),
	0xC8: op("RET Z", func(c *CPU) uint8 { return branch(c.ret(c.z()), 20, 8) }),
	0xC9: op("RET", func(c *CPU) uint8 { c.ret(true); return 16 }),
	0xCA: op("JP Z,a16", func(c *CPU) uint8 { return branch(c.jp(c.z(), Imm16(c.fetchWord())), 16, 12) }),
	0xCB: op("PREFIX CB", func(c *CPU) uint8 { return cbPrefixed[c.fetchByte()].exec(c) }),
	0xCC: op("CALL Z,a16", func(c *CPU) uint8 { return branch(c.call(c.z(), Imm16(c.fetchWord())), 24, 12) }),
	0xCD: op("CALL a16", func(c *CPU) uint8 { c.call(true, Imm16(c.fetchWord())); return 24 }),
	0xCE: op("ADC A,n8", func(c *CPU) uint8 { c.add(Imm8(c.fetchByte()), true); return 8 }),
	0xCF: op("RST $08", func(c *CPU) uint8 { c.rst(0x08); return 16 }),

	// 0xD0-0xDF
	0xD0: op("RET NC", func(c *CPU) uint8 { return branch(c.ret(c.nc()), 20, 8) }),
	0xD1: op("POP DE", func(c *CPU) uint8 { c.popOp(DE); return 12 }),
	0xD2: op("JP NC,a16", func(c *CPU) uint8 { return branch(c.jp(c.nc(), Imm16(c.fetchWord())), 16, 12) }),
	0xD4: op("CALL NC,a16", func(c *CPU) uint8 { return branch(c.call(c.nc(), Imm16(c.fetchWord())), 24, 12) }),
	0xD5: op("PUSH DE", func(c *CPU) uint8 { c.pushOp(DE); return 16 }),
	0xD6: op("SUB n8", func(c *CPU) uint8 { c.sub(Imm8(c.fetchByte()), false); return 8 }),
	0xD7: op("RST $10", func(c *CPU) uint8 { c.rst(0x10); return 16 }),
	0xD8: op("RET C", func(c *CPU) uint8 { return branch(c.ret(c.cc()), 20, 8) }),
	0xD9: op("RETI", func(c *CPU) uint8 { c.reti(); return 16 }),
	0xDA: op("JP C,a16", func(c *CPU) uint8 { return branch(c.jp(c.cc(), Imm16(c.fetchWord())), 16, 12) }),
	0xDC: op("CALL C,a16", func(c *CPU) uint8 { return branch(c.call(c.cc(), Imm16(c.fetchWord())), 24, 12) }),
	0xDE: op("SBC A,n8", func(c *CPU) uint8 { c.sub(Imm8(c.fetchByte()), true); return 8 }),
	0xDF: op("RST $18", func(c *CPU) uint8 { c.rst(0x18); return 16 }),

	// 0xE0-0xEF
	0xE0: op("LDH (a8),A", func(c *CPU) uint8 { c.ld8(High(c.fetchByte()), A); return 12 }),
	0xE1: op("POP HL", func(c *CPU) uint8 { c.popOp(HL); return 12 }),
	0xE2: op("LD (C),A", func(c *CPU) uint8 { c.ld8(High(c.Registers.Byte(C)), A); return 8 }),
	0xE5: op("PUSH HL", func(c *CPU) uint8 { c.pushOp(HL); return 16 }),
	0xE6: op("AND n8", func(c *CPU) uint8 { c.and(Imm8(c.fetchByte())); return 8 }),
	0xE7: op("RST $20", func(c *CPU) uint8 { c.rst(0x20); return 16 }),
	0xE8: op("ADD SP,e8", func(c *CPU) uint8 { c.adda(c.fetchByte()); return 16 }),
	0xE9: op("JP HL", func(c *CPU) uint8 { c.jp(true, HL); return 4 }),
	0xEA: op("LD (a16),A", func(c *CPU) uint8 { c.ld8(Addr(c.fetchWord()), A); return 16 }),
	0xEE: op("XOR n8", func(c *CPU) uint8 { c.xor(Imm8(c.fetchByte())); return 8 }),
	0xEF: op("RST $28", func(c *CPU) uint8 { c.rst(0x28); return 16 }),

	// 0xF0-0xFF
	0xF0: op("LDH A,(a8)", func(c *CPU) uint8 { c.ld8(A, High(c.fetchByte())); return 12 }),
	0xF1: op("POP AF", func(c *CPU) uint8 { c.popOp(AF); return 12 }),
	0xF2: op("LD A,(C)", func(c *CPU) uint8 { c.ld8(A, High(c.Registers.Byte(C))); return 8 }),
	0xF3: op("DI", func(c *CPU) uint8 { c.IME = false; return 4 }),
	0xF5: op("PUSH AF", func(c *CPU) uint8 { c.pushOp(AF); return 16 }),
	0xF6: op("OR n8", func(c *CPU) uint8 { c.or(Imm8(c.fetchByte())); return 8 }),
	0xF7: op("RST $30", func(c *CPU) uint8 { c.rst(0x30); return 16 }),
	0xF8: op("LD HL,SP+e8", func(c *CPU) uint8 { c.lda(c.fetchByte()); return 12 }),
	0xF9: op("LD SP,HL", func(c *CPU) uint8 { c.ld16(SP, HL); return 8 }),
	0xFA: op("LD A,(a16)", func(c *CPU) uint8 { c.ld8(A, Addr(c.fetchWord())); return 16 }),
	// Takes effect immediately, without the one instruction delay of the hardware
	0xFB: op("EI", func(c *CPU) uint8 { c.IME = true; return 4 }),
	0xFE: op("CP n8", func(c *CPU) uint8 { c.cp(Imm8(c.fetchByte())); return 8 }),
	0xFF: op("RST $38", func(c *CPU) uint8 { c.rst(0x38); return 16 }),
}

// targetNames matches byteTargets.
var targetNames = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}

func init() {
	for _, code := range illegalOpcodes {
		unprefixed[code] = illegal(code)
	}

	// LD r,r' (0x40-0x7F). 0x76 would be LD (HL),(HL) and is HALT instead.
	for dst := range 8 {
		for src := range 8 {
			code := 0x40 | dst<<3 | src
			if code == 0x76 {
				unprefixed[code] = op("HALT", func(c *CPU) uint8 { c.halt(); return 4 })
				continue
			}
			cycles := cost(dst, cost(src, 4, 8), 8)
			unprefixed[code] = op("LD "+targetNames[dst]+","+targetNames[src], func(c *CPU) uint8 {
				c.ld8(byteTargets[dst], byteTargets[src])
				return cycles
			})
		}
	}

	// Accumulator arithmetic (0x80-0xBF)
	alu := [8]struct {
		name string
		fn   func(c *CPU, src ByteSource)
	}{
		{"ADD A,", func(c *CPU, src ByteSource) { c.add(src, false) }},
		{"ADC A,", func(c *CPU, src ByteSource) { c.add(src, true) }},
		{"SUB ", func(c *CPU, src ByteSource) { c.sub(src, false) }},
		{"SBC A,", func(c *CPU, src ByteSource) { c.sub(src, true) }},
		{"AND ", (*CPU).and},
		{"XOR ", (*CPU).xor},
		{"OR ", (*CPU).or},
		{"CP ", (*CPU).cp},
	}
	for i, a := range alu {
		for src := range 8 {
			cycles := cost(src, 4, 8)
			unprefixed[0x80|i<<3|src] = op(a.name+targetNames[src], func(c *CPU) uint8 {
				a.fn(c, byteTargets[src])
				return cycles
			})
		}
	}

	initCB()
}
