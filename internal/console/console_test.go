package console

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/richardwooding/dmgcore/internal/cpu"
	"github.com/richardwooding/dmgcore/internal/debug"
	"github.com/richardwooding/dmgcore/internal/input"
	"github.com/richardwooding/dmgcore/internal/memory"
	"github.com/richardwooding/dmgcore/internal/ppu"
)

// makeROM returns a 32 KiB ROM with program at 0x0100 and isr at 0x0040.
func makeROM(program, isr []byte) []byte {
	rom := make([]byte, 2*memory.BankSize)
	copy(rom[0x0040:], isr)
	copy(rom[0x0100:], program)
	return rom
}

func newTestConsole(t *testing.T, program []byte, opts Options) *Console {
	t.Helper()
	c, err := New(makeROM(program, nil), opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

type fakeDisplay struct {
	frames int
	last   ppu.Frame
}

func (d *fakeDisplay) Present(frame *ppu.Frame) {
	d.frames++
	d.last = *frame
}

type fakeInput struct {
	events []ButtonEvent
}

func (i *fakeInput) Poll() []ButtonEvent {
	events := i.events
	i.events = nil
	return events
}

// loop is JR -2.
var loop = []byte{0x18, 0xFE}

func TestPowerUpState(t *testing.T) {
	c := newTestConsole(t, loop, Options{})
	bus := c.Bus()

	tests := []struct {
		name string
		addr uint16
		want uint8
	}{
		{"IF", memory.IF, 0xE1},
		{"IE", memory.IE, 0x00},
		{"P1", memory.P1, 0xFF},
		{"LCDC", memory.LCDC, 0x91},
		{"BGP", memory.BGP, 0xFC},
	}
	for _, tt := range tests {
		if got := bus.Read(tt.addr); got != tt.want {
			t.Errorf("%s = 0x%02X, want 0x%02X", tt.name, got, tt.want)
		}
	}

	if c.CPU().Registers.PC != 0x0100 {
		t.Errorf("PC = %04X, want 0100", c.CPU().Registers.PC)
	}
	if c.Stopped() {
		t.Error("console without a debugger should not start stopped")
	}
}

func TestNewInvalidROM(t *testing.T) {
	_, err := New(make([]byte, memory.BankSize), Options{})
	if !errors.Is(err, memory.ErrROMTooSmall) {
		t.Errorf("New() error = %v, want ErrROMTooSmall", err)
	}
}

func TestFrames(t *testing.T) {
	display := &fakeDisplay{}
	c := newTestConsole(t, loop, Options{Display: display})

	if err := c.RunFrame(); err != nil {
		t.Fatalf("RunFrame() error = %v", err)
	}
	if display.frames != 1 {
		t.Errorf("frames presented = %d, want 1", display.frames)
	}
	// The first frame ends when LY reaches 144
	if want := uint64(ppu.ScanlinesVisible * ppu.DotsPerScanline); c.Ticks() != want {
		t.Errorf("ticks after first frame = %d, want %d", c.Ticks(), want)
	}

	if err := c.RunFrame(); err != nil {
		t.Fatalf("RunFrame() error = %v", err)
	}
	if want := uint64(ppu.ScanlinesVisible*ppu.DotsPerScanline + ppu.DotsPerFrame); c.Ticks() != want {
		t.Errorf("ticks after second frame = %d, want %d", c.Ticks(), want)
	}
	if c.Bus().Read(memory.LY) != ppu.ScanlinesVisible {
		t.Errorf("LY = %d, want %d", c.Bus().Read(memory.LY), ppu.ScanlinesVisible)
	}
}

func TestSerialCapture(t *testing.T) {
	program := []byte{
		0x3E, 'H', // LD A,'H'
		0xE0, 0x01, // LDH (SB),A
		0x3E, 0x81, // LD A,$81
		0xE0, 0x02, // LDH (SC),A
		0x3E, 'i', // LD A,'i'
		0xE0, 0x01, // LDH (SB),A
		0x3E, 0x81, // LD A,$81
		0xE0, 0x02, // LDH (SC),A
		0x18, 0xFE, // JR -2
	}
	c := newTestConsole(t, program, Options{})

	for range 200 {
		if _, err := c.Tick(); err != nil {
			t.Fatal(err)
		}
	}

	if c.Serial() != "Hi" {
		t.Errorf("Serial() = %q, want %q", c.Serial(), "Hi")
	}
	if c.Bus().Read(memory.SC)&0x80 != 0 {
		t.Error("SC transfer bit should be cleared after capture")
	}
	if c.Bus().Read(memory.IF)&memory.Serial.Mask() == 0 {
		t.Error("serial interrupt not requested")
	}
}

func TestVBlankInterrupt(t *testing.T) {
	program := []byte{
		0x3E, 0x01, // LD A,$01
		0xE0, 0xFF, // LDH (IE),A
		0xFB,       // EI
		0x76,       // HALT
		0x18, 0xFD, // JR -3
	}
	isr := []byte{
		0x3E, 'V', // LD A,'V'
		0xE0, 0x01, // LDH (SB),A
		0x3E, 0x81, // LD A,$81
		0xE0, 0x02, // LDH (SC),A
		0xD9, // RETI
	}

	c, err := New(makeROM(program, isr), Options{})
	if err != nil {
		t.Fatal(err)
	}

	// The power-up VBlank request is serviced as soon as EI runs, then
	// the end of the first frame wakes HALT again
	for range 2 {
		if err := c.RunFrame(); err != nil {
			t.Fatal(err)
		}
	}

	if c.Serial() != "VV" {
		t.Errorf("Serial() = %q, want %q", c.Serial(), "VV")
	}
}

// lcdOff is XOR A; LDH (LCDC),A; JR -2.
var lcdOff = []byte{0xAF, 0xE0, 0x40, 0x18, 0xFE}

func TestRunFrameLCDOff(t *testing.T) {
	display := &fakeDisplay{}
	in := &fakeInput{events: []ButtonEvent{{Button: input.A, Pressed: true}}}
	c := newTestConsole(t, lcdOff, Options{Display: display, Input: in})

	done := make(chan error, 1)
	go func() {
		done <- c.RunFrame()
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunFrame() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunFrame() did not return with the LCD off")
	}

	if lcdc := c.Bus().Read(memory.LCDC); lcdc&ppu.LCDCLCDEnable != 0 {
		t.Fatalf("LCDC = 0x%02X, want LCD disabled", lcdc)
	}
	if c.Ticks() != ppu.DotsPerFrame {
		t.Errorf("ticks = %d, want %d", c.Ticks(), ppu.DotsPerFrame)
	}
	if display.frames != 0 {
		t.Errorf("frames presented = %d, want 0", display.frames)
	}
	if !c.joypad.Pressed(input.A) {
		t.Error("input not polled while the LCD is off")
	}
}

func TestRunCanceledLCDOff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := newTestConsole(t, lcdOff, Options{})

	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() ignored cancellation with the LCD off")
	}
}

func TestInputPolledPerFrame(t *testing.T) {
	in := &fakeInput{events: []ButtonEvent{{Button: input.A, Pressed: true}}}
	c := newTestConsole(t, loop, Options{Input: in})

	if err := c.RunFrame(); err != nil {
		t.Fatal(err)
	}

	// Select the action buttons; the joypad answers on the next tick
	c.Bus().Write(memory.P1, 0x10)
	if _, err := c.Tick(); err != nil {
		t.Fatal(err)
	}

	if got := c.Bus().Read(memory.P1) & 0x0F; got != 0x0E {
		t.Errorf("P1 nibble = 0x%X, want 0xE (A pressed)", got)
	}

	c.SetButton(input.A, false)
	if got := c.Bus().Read(memory.P1) & 0x0F; got != 0x0F {
		t.Errorf("P1 nibble after release = 0x%X, want 0xF", got)
	}
}

func TestDebuggerBreakpointAndStep(t *testing.T) {
	ctx := context.Background()
	host, remote := debug.NewPair()

	// INC A x3, then loop
	c := newTestConsole(t, []byte{0x3C, 0x3C, 0x3C, 0x18, 0xFE}, Options{Debugger: host})
	if !c.Stopped() {
		t.Fatal("console with a debugger should start stopped")
	}

	if err := remote.SetBreakpoint(ctx, 0x3C); err != nil {
		t.Fatal(err)
	}
	if err := remote.Resume(ctx); err != nil {
		t.Fatal(err)
	}

	// One command is handled per tick
	for range 2 {
		if _, err := c.Tick(); err != nil {
			t.Fatal(err)
		}
	}
	if c.Stopped() {
		t.Fatal("console should be running after resume")
	}

	for i := 0; i < 100 && !c.Stopped(); i++ {
		if _, err := c.Tick(); err != nil {
			t.Fatal(err)
		}
	}

	// The breakpoint at the resume address is skipped once
	regs := &c.CPU().Registers
	if !c.Stopped() || regs.PC != 0x0101 {
		t.Fatalf("stopped = %v at PC %04X, want stopped at 0101", c.Stopped(), regs.PC)
	}
	if a := regs.Byte(cpu.A); a != 0x02 {
		t.Errorf("A = 0x%02X, want 0x02", a)
	}

	if err := remote.Step(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Tick(); err != nil {
		t.Fatal(err)
	}

	if !c.Stopped() || regs.PC != 0x0102 {
		t.Errorf("after step: stopped = %v at PC %04X, want stopped at 0102", c.Stopped(), regs.PC)
	}

	remote.Close()
	if _, err := c.Tick(); !errors.Is(err, debug.ErrDisconnected) {
		t.Errorf("Tick() after disconnect = %v, want ErrDisconnected", err)
	}
}

func TestRunWithDebugger(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	host, remote := debug.NewPair()
	c := newTestConsole(t, []byte{0xC3, 0x50, 0x01}, Options{Debugger: host})

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	regs, err := remote.Registers(ctx)
	if err != nil {
		t.Fatalf("Registers() error = %v", err)
	}
	if regs.PC != 0x0100 || regs.AF != 0x01B0 {
		t.Errorf("Registers() = %v", regs)
	}

	instr, err := remote.NextInstruction(ctx)
	if err != nil {
		t.Fatalf("NextInstruction() error = %v", err)
	}
	if instr.Bytes != [3]uint8{0xC3, 0x50, 0x01} || instr.Instruction.Text != "JP $0150" {
		t.Errorf("NextInstruction() = %v", instr)
	}

	if err := remote.Quit(ctx); err != nil {
		t.Fatal(err)
	}
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil after quit", err)
	}

	// The host closed its side on return
	if _, err := remote.Registers(ctx); !errors.Is(err, debug.ErrDisconnected) {
		t.Errorf("Registers() after quit = %v, want ErrDisconnected", err)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := newTestConsole(t, loop, Options{Throttle: true})
	if err := c.Run(ctx); err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
	if c.Ticks() == 0 {
		t.Error("Run() did not tick")
	}
}

func TestPacer(t *testing.T) {
	start := time.Unix(0, 0)
	p := newPacer(10 * time.Millisecond)

	if got := p.next(start); got != 10*time.Millisecond {
		t.Errorf("first wait = %v, want 10ms", got)
	}

	// Frame took 4ms
	if got := p.next(start.Add(14 * time.Millisecond)); got != 6*time.Millisecond {
		t.Errorf("second wait = %v, want 6ms", got)
	}

	// Slightly late frames are caught up without waiting
	if got := p.next(start.Add(35 * time.Millisecond)); got != -5*time.Millisecond {
		t.Errorf("late wait = %v, want -5ms", got)
	}

	// More than a frame behind resynchronizes
	if got := p.next(start.Add(100 * time.Millisecond)); got != 0 {
		t.Errorf("resync wait = %v, want 0", got)
	}
	if got := p.next(start.Add(100 * time.Millisecond)); got != 10*time.Millisecond {
		t.Errorf("wait after resync = %v, want 10ms", got)
	}

	p.reset()
	if got := p.next(start.Add(time.Second)); got != 10*time.Millisecond {
		t.Errorf("wait after reset = %v, want 10ms", got)
	}
}
