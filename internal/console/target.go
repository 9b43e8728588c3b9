package console

import (
	"github.com/richardwooding/dmgcore/internal/cpu"
	"github.com/richardwooding/dmgcore/internal/debug"
)

// target exposes the console to the debug host.
type target struct {
	c *Console
}

func (t target) Step() {
	t.c.state = stepping
}

func (t target) Resume() {
	t.c.state = running
	t.c.skipBreakpoint = true
}

func (t target) SetBreakpoint(opcode uint8) {
	t.c.breakpoints[opcode] = struct{}{}
}

func (t target) Registers() debug.RegisterSnapshot {
	return debug.RegisterSnapshot{
		Registers: t.c.cpu.Registers,
		IME:       t.c.cpu.IME,
		Halted:    t.c.cpu.Halted(),
		Cycles:    t.c.cpu.Cycles,
	}
}

func (t target) NextInstruction() debug.InstructionSnapshot {
	pc := t.c.cpu.Registers.PC
	return debug.InstructionSnapshot{
		Bytes: [3]uint8{
			t.c.bus.Read(pc),
			t.c.bus.Read(pc + 1),
			t.c.bus.Read(pc + 2),
		},
		Instruction: cpu.Disassemble(t.c.bus, pc),
	}
}
