package timer

import (
	"testing"

	"github.com/richardwooding/dmgcore/internal/memory"
)

// Update advances the timer by the given number of dots.
func (t *Timer) Update(mem Memory, cycles int) {
	for range cycles {
		t.Tick(mem)
	}
}

// testBus wraps the real bus and counts timer interrupt requests.
type testBus struct {
	*memory.Bus
	interrupts int
}

func (b *testBus) RequestInterrupt(i memory.Interrupt) {
	if i == memory.Timer {
		b.interrupts++
	}
	b.Bus.RequestInterrupt(i)
}

func newTestBus(t testing.TB) *testBus {
	t.Helper()
	bus, err := memory.New(make([]byte, 2*memory.BankSize))
	if err != nil {
		t.Fatalf("memory.New() error = %v", err)
	}
	return &testBus{Bus: bus}
}

func TestDIVIncrement(t *testing.T) {
	timer := New()
	bus := newTestBus(t)

	// DIV should start at 0
	if bus.Read(memory.DIV) != 0 {
		t.Errorf("Initial DIV = %d, want 0", bus.Read(memory.DIV))
	}

	// DIV increments every 256 dots (16384 Hz)
	timer.Update(bus, 255)
	if bus.Read(memory.DIV) != 0 {
		t.Errorf("DIV after 255 dots = %d, want 0", bus.Read(memory.DIV))
	}

	timer.Tick(bus)
	if bus.Read(memory.DIV) != 1 {
		t.Errorf("DIV after 256 dots = %d, want 1", bus.Read(memory.DIV))
	}

	timer.Update(bus, 256)
	if bus.Read(memory.DIV) != 2 {
		t.Errorf("DIV after 512 dots = %d, want 2", bus.Read(memory.DIV))
	}
}

func TestDIVWrite(t *testing.T) {
	timer := New()
	bus := newTestBus(t)

	timer.Update(bus, 1000)
	if bus.Read(memory.DIV) == 0 {
		t.Fatal("DIV should be non-zero after 1000 dots")
	}

	// Writing any value resets the divider
	bus.Write(memory.DIV, 0x42)
	timer.Tick(bus)

	if bus.Read(memory.DIV) != 0 {
		t.Errorf("DIV after write = %d, want 0", bus.Read(memory.DIV))
	}
	if timer.Divider() != 0 {
		t.Errorf("divider after write = 0x%04X, want 0", timer.Divider())
	}
}

func TestTimerDisabled(t *testing.T) {
	timer := New()
	bus := newTestBus(t)

	// Timer disabled (TAC bit 2 = 0)
	bus.Write(memory.TAC, 0x00)
	bus.Write(memory.TMA, 0x00)
	bus.Write(memory.TIMA, 0xFF)

	// Run many dots - TIMA should not increment
	timer.Update(bus, 10000)

	if bus.Read(memory.TIMA) != 0xFF {
		t.Errorf("TIMA with timer disabled = %d, want 255", bus.Read(memory.TIMA))
	}
	if bus.interrupts != 0 {
		t.Error("Interrupt requested when timer disabled")
	}
}

func TestTimerFrequencies(t *testing.T) {
	tests := []struct {
		name   string
		tac    uint8
		period int
	}{
		{"4096Hz", 0x04, 1024}, // bit 9
		{"262144Hz", 0x05, 16}, // bit 3
		{"65536Hz", 0x06, 64},  // bit 5
		{"16384Hz", 0x07, 256}, // bit 7
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer := New()
			bus := newTestBus(t)
			bus.Write(memory.TAC, tt.tac)

			// The selected bit rises halfway through the period and
			// TIMA increments on its falling edge
			timer.Update(bus, tt.period-1)
			if bus.Read(memory.TIMA) != 0 {
				t.Errorf("TIMA after %d dots = %d, want 0", tt.period-1, bus.Read(memory.TIMA))
			}

			timer.Tick(bus)
			if bus.Read(memory.TIMA) != 1 {
				t.Errorf("TIMA after %d dots = %d, want 1", tt.period, bus.Read(memory.TIMA))
			}

			timer.Update(bus, 3*tt.period)
			if bus.Read(memory.TIMA) != 4 {
				t.Errorf("TIMA after %d dots = %d, want 4", 4*tt.period, bus.Read(memory.TIMA))
			}
		})
	}
}

func TestTimerOverflow(t *testing.T) {
	timer := New()
	bus := newTestBus(t)

	// Enable timer, set TIMA to 0xFF, TMA to 0x42
	bus.Write(memory.TAC, 0x05) // 262144 Hz
	bus.Write(memory.TMA, 0x42)
	bus.Write(memory.TIMA, 0xFF)

	timer.Update(bus, 16)

	// TIMA should wrap to 0 then reload with TMA
	if bus.Read(memory.TIMA) != 0x42 {
		t.Errorf("TIMA after overflow = 0x%02X, want 0x42", bus.Read(memory.TIMA))
	}
	if bus.Read(memory.IF)&memory.Timer.Mask() == 0 {
		t.Error("Timer interrupt not requested on overflow")
	}
}

func TestTimerMultipleOverflows(t *testing.T) {
	timer := New()
	bus := newTestBus(t)

	// TMA of 0xFC overflows after 4 increments
	bus.Write(memory.TAC, 0x05) // every 16 dots
	bus.Write(memory.TMA, 0xFC)
	bus.Write(memory.TIMA, 0xFC)

	timer.Update(bus, 20*16)

	// FC->FD->FE->FF->FC five times
	if bus.interrupts != 5 {
		t.Errorf("Interrupt count = %d, want 5", bus.interrupts)
	}
	if bus.Read(memory.TIMA) != 0xFC {
		t.Errorf("TIMA = 0x%02X, want 0xFC", bus.Read(memory.TIMA))
	}
}

func TestDIVWriteFallingEdge(t *testing.T) {
	timer := New()
	bus := newTestBus(t)

	// Enable timer at 262144 Hz (bit 3)
	bus.Write(memory.TAC, 0x05)

	// Bring the divider to 8 so bit 3 is set
	timer.Update(bus, 8)
	if bus.Read(memory.TIMA) != 0 {
		t.Fatalf("TIMA before DIV reset = %d, want 0", bus.Read(memory.TIMA))
	}

	// Resetting the divider drops bit 3 and clocks TIMA
	bus.Write(memory.DIV, 0x00)
	timer.Tick(bus)

	if bus.Read(memory.TIMA) != 1 {
		t.Errorf("TIMA after DIV reset = %d, want 1 (falling edge increment)", bus.Read(memory.TIMA))
	}
	if bus.Read(memory.DIV) != 0 {
		t.Errorf("DIV after reset = %d, want 0", bus.Read(memory.DIV))
	}
}

func TestTACChangeFallingEdge(t *testing.T) {
	timer := New()
	bus := newTestBus(t)

	// Enable timer at 4096 Hz (bit 9) and bring bit 9 high
	bus.Write(memory.TAC, 0x04)
	timer.Update(bus, 0x200)

	// Disabling the timer drops the selected bit
	bus.Write(memory.TAC, 0x00)
	timer.Tick(bus)

	if bus.Read(memory.TIMA) != 1 {
		t.Errorf("TIMA after TAC disable = %d, want 1 (falling edge)", bus.Read(memory.TIMA))
	}
}

func TestTimerStress_RapidTACChanges(t *testing.T) {
	timer := New()
	bus := newTestBus(t)

	// Rapidly change timer frequency
	frequencies := []uint8{0x04, 0x05, 0x06, 0x07}

	for i := range 100 {
		bus.Write(memory.TAC, frequencies[i%len(frequencies)])
		timer.Update(bus, 50)
	}

	if bus.Read(memory.TIMA) == 0 {
		t.Error("TIMA should have incremented during rapid TAC changes")
	}
	// 5000 dots = 19 DIV increments
	if bus.Read(memory.DIV) != 19 {
		t.Errorf("DIV = %d, want 19 after 5000 dots", bus.Read(memory.DIV))
	}
}

func TestTimerStress_FrequentDIVResets(t *testing.T) {
	timer := New()
	bus := newTestBus(t)

	bus.Write(memory.TAC, 0x05) // every 16 dots
	bus.Write(memory.TMA, 0xFE)
	bus.Write(memory.TIMA, 0xFE)

	// Each reset lands while bit 3 is high, so every iteration clocks TIMA once
	for range 100 {
		timer.Update(bus, 8)
		bus.Write(memory.DIV, 0x00)
		timer.Update(bus, 8)
	}

	if bus.Read(memory.DIV) != 0 {
		t.Errorf("DIV = %d, want 0", bus.Read(memory.DIV))
	}
	// 100 increments from 0xFE with TMA 0xFE overflow every second increment
	if bus.interrupts != 50 {
		t.Errorf("Interrupt count = %d, want 50", bus.interrupts)
	}
}

func TestTimerBoundary_DivCounterOverflow(t *testing.T) {
	timer := New()
	bus := newTestBus(t)

	timer.Update(bus, 0xFFFF)
	if bus.Read(memory.DIV) != 0xFF {
		t.Errorf("DIV before wrap = 0x%02X, want 0xFF", bus.Read(memory.DIV))
	}

	timer.Tick(bus)
	if timer.Divider() != 0 || bus.Read(memory.DIV) != 0 {
		t.Errorf("divider after wrap = 0x%04X (DIV 0x%02X), want 0", timer.Divider(), bus.Read(memory.DIV))
	}
}

func TestTimerBoundary_ZeroCycleUpdate(t *testing.T) {
	timer := New()
	bus := newTestBus(t)
	bus.Write(memory.TAC, 0x05)

	timer.Update(bus, 0)

	if timer.Divider() != 0 || bus.Read(memory.TIMA) != 0 {
		t.Error("Update with zero dots changed timer state")
	}
}
