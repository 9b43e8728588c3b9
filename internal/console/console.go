// Package console ties the CPU, memory, PPU, timer and joypad together and
// advances them in lockstep, one dot per tick.
package console

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/richardwooding/dmgcore/internal/cpu"
	"github.com/richardwooding/dmgcore/internal/debug"
	"github.com/richardwooding/dmgcore/internal/input"
	"github.com/richardwooding/dmgcore/internal/logger"
	"github.com/richardwooding/dmgcore/internal/memory"
	"github.com/richardwooding/dmgcore/internal/ppu"
	"github.com/richardwooding/dmgcore/internal/timer"
)

// FrameRate is the DMG refresh rate in frames per second.
const FrameRate = 4194304.0 / ppu.DotsPerFrame

// stoppedPoll is how long Run waits between debugger polls while stopped.
const stoppedPoll = 10 * time.Millisecond

// Display receives every completed frame. The frame is only valid during the
// call, so Present must copy what it keeps.
type Display interface {
	Present(frame *ppu.Frame)
}

// ButtonEvent is a button going down or up.
type ButtonEvent struct {
	Button  input.Button
	Pressed bool
}

// Input reports the button changes since the last poll. It is polled once
// per frame.
type Input interface {
	Poll() []ButtonEvent
}

// Options configures a Console. The zero value runs headless, unthrottled,
// without a debugger.
type Options struct {
	Display  Display
	Input    Input
	Debugger *debug.Host

	// Throttle paces Run to FrameRate, or to the given FrameRate if set
	Throttle  bool
	FrameRate float64
}

type debugState int

const (
	running debugState = iota
	stopped
	stepping
)

// Console is a complete DMG: CPU, bus, PPU, timer and joypad.
type Console struct {
	bus    *memory.Bus
	cpu    *cpu.CPU
	ppu    *ppu.PPU
	timer  *timer.Timer
	joypad *input.Joypad

	opts Options

	state       debugState
	breakpoints map[uint8]struct{}

	// Set on resume so the breakpoint the console stopped at does not fire again
	skipBreakpoint bool

	serial []byte
	ticks  uint64
}

// New creates a console running the given ROM image.
func New(rom []byte, opts Options) (*Console, error) {
	bus, err := memory.New(rom)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory: %w", err)
	}

	// Power-up register state
	bus.Poke(memory.IF, 0xE1)
	bus.Poke(memory.IE, 0x00)
	bus.Poke(memory.P1, 0xFF)
	bus.Poke(memory.LCDC, 0x91)
	bus.Poke(memory.BGP, 0xFC)

	c := &Console{
		bus:         bus,
		cpu:         cpu.New(bus),
		ppu:         ppu.New(),
		timer:       timer.New(),
		joypad:      input.New(),
		opts:        opts,
		breakpoints: make(map[uint8]struct{}),
		serial:      make([]byte, 0, 1024),
	}
	if opts.Debugger != nil {
		c.state = stopped
	}

	return c, nil
}

// CPU returns the console's CPU.
func (c *Console) CPU() *cpu.CPU {
	return c.cpu
}

// Bus returns the console's memory.
func (c *Console) Bus() *memory.Bus {
	return c.bus
}

// PPU returns the console's PPU.
func (c *Console) PPU() *ppu.PPU {
	return c.ppu
}

// Ticks returns the number of dots emulated.
func (c *Console) Ticks() uint64 {
	return c.ticks
}

// Stopped reports whether the debugger holds the console.
func (c *Console) Stopped() bool {
	return c.state == stopped
}

// Serial returns everything written to the serial port.
func (c *Console) Serial() string {
	return string(c.serial)
}

// Tick advances the console by one dot and reports whether a frame was
// completed. While stopped by the debugger it only polls for commands.
//
// An error means the console should stop: debug.ErrQuit or
// debug.ErrDisconnected from the debugger.
func (c *Console) Tick() (bool, error) {
	if c.opts.Debugger != nil {
		if err := c.opts.Debugger.Poll(target{c}); err != nil {
			return false, err
		}
	}

	switch c.state {
	case stopped:
		return false, nil
	case running:
		if c.cpu.Ready() && !c.skipBreakpoint && c.atBreakpoint() {
			c.state = stopped
			logger.Logf("debug", "breakpoint at %04X", c.cpu.Registers.PC)
			return false, nil
		}
	}

	c.ticks++
	c.bus.Tick()
	c.timer.Tick(c.bus)
	c.joypad.Tick(c.bus)

	if c.cpu.Tick() {
		c.skipBreakpoint = false
		if c.state == stepping {
			c.state = stopped
		}
	}
	c.captureSerial()

	if !c.ppu.Tick(c.bus) {
		return false, nil
	}

	if c.opts.Display != nil {
		c.opts.Display.Present(c.ppu.Frame())
	}
	c.pollInput()

	return true, nil
}

func (c *Console) pollInput() {
	if c.opts.Input == nil {
		return
	}
	for _, ev := range c.opts.Input.Poll() {
		c.SetButton(ev.Button, ev.Pressed)
	}
}

// SetButton presses or releases a joypad button.
func (c *Console) SetButton(b input.Button, pressed bool) {
	if pressed {
		c.joypad.Press(c.bus, b)
	} else {
		c.joypad.Release(c.bus, b)
	}
}

// RunFrame ticks until a frame is completed, the debugger stops the console,
// or the debugger quits. It never runs for more than a frame's worth of dots,
// so it also returns while the LCD is off.
func (c *Console) RunFrame() error {
	for range ppu.DotsPerFrame {
		frameDone, err := c.Tick()
		if err != nil || frameDone || c.state == stopped {
			return err
		}
	}

	// No frame with the LCD off, but buttons still change
	c.pollInput()
	return nil
}

// Run ticks the console until ctx is done or the debugger quits. A debugger
// quit or disconnect ends Run without error.
func (c *Console) Run(ctx context.Context) error {
	logger.Log("console", "started")
	defer logger.Log("console", "stopped")
	if c.opts.Debugger != nil {
		defer c.opts.Debugger.Close()
	}

	rate := c.opts.FrameRate
	if rate <= 0 {
		rate = FrameRate
	}
	pacer := newPacer(time.Duration(float64(time.Second) / rate))

	for {
		err := c.RunFrame()
		if errors.Is(err, debug.ErrQuit) || errors.Is(err, debug.ErrDisconnected) {
			return nil
		}
		if err != nil {
			return err
		}

		wait := time.Duration(0)
		switch {
		case c.state == stopped:
			wait = stoppedPoll
			pacer.reset()
		case c.opts.Throttle:
			wait = pacer.next(time.Now())
		}

		if err := sleep(ctx, wait); err != nil {
			return nil
		}
	}
}

// captureSerial records bytes sent over the link cable. There is no partner,
// so a transfer completes as soon as it is started.
func (c *Console) captureSerial() {
	sc := c.bus.Read(memory.SC)
	if sc&0x80 == 0 {
		return
	}

	c.serial = append(c.serial, c.bus.Read(memory.SB))
	c.bus.Poke(memory.SC, sc&0x7F)
	c.bus.RequestInterrupt(memory.Serial)
}

func (c *Console) atBreakpoint() bool {
	_, ok := c.breakpoints[c.bus.Read(c.cpu.Registers.PC)]
	return ok
}

// sleep waits for d or until ctx is done, and returns ctx's error in the
// latter case. It always checks ctx, even for a zero duration.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
