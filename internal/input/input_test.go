package input

import (
	"testing"

	"github.com/richardwooding/dmgcore/internal/memory"
)

func newTestBus(t *testing.T, p1 uint8) *memory.Bus {
	t.Helper()
	bus, err := memory.New(make([]byte, 2*memory.BankSize))
	if err != nil {
		t.Fatalf("memory.New() error = %v", err)
	}
	bus.Poke(memory.P1, p1)
	return bus
}

func TestJoypad_NoButtonsPressed(t *testing.T) {
	j := New()
	bus := newTestBus(t, 0xC0) // both groups selected

	j.Tick(bus)

	if got := bus.Read(memory.P1); got != 0xCF {
		t.Errorf("P1 = 0x%02X, want 0xCF", got)
	}
}

func TestJoypad_ButtonMapping(t *testing.T) {
	tests := []struct {
		name         string
		selectValue  uint8
		pressed      []Button
		expectedBits uint8 // The low 4 bits of P1
	}{
		{"Action: A pressed", 0xDF, []Button{A}, 0x0E},
		{"Action: B pressed", 0xDF, []Button{B}, 0x0D},
		{"Action: Select pressed", 0xDF, []Button{Select}, 0x0B},
		{"Action: Start pressed", 0xDF, []Button{Start}, 0x07},
		{"Action: A and Start", 0xDF, []Button{A, Start}, 0x06},
		{"Direction: Right pressed", 0xEF, []Button{Right}, 0x0E},
		{"Direction: Left pressed", 0xEF, []Button{Left}, 0x0D},
		{"Direction: Up pressed", 0xEF, []Button{Up}, 0x0B},
		{"Direction: Down pressed", 0xEF, []Button{Down}, 0x07},
		{"Direction: A not visible", 0xEF, []Button{A}, 0x0F},
		{"Nothing selected", 0xFF, []Button{A, Up}, 0x0F},
		{"Both selected", 0xCF, []Button{A, Up}, 0x0A},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := New()
			bus := newTestBus(t, tt.selectValue)

			for _, b := range tt.pressed {
				j.Press(bus, b)
			}

			if got := bus.Read(memory.P1) & 0x0F; got != tt.expectedBits {
				t.Errorf("P1 low nibble = 0x%X, want 0x%X", got, tt.expectedBits)
			}
			if got := bus.Read(memory.P1) & 0xF0; got != tt.selectValue&0xF0 {
				t.Errorf("P1 high nibble = 0x%02X, want 0x%02X", got, tt.selectValue&0xF0)
			}
		})
	}
}

func TestJoypad_SelectChange(t *testing.T) {
	j := New()
	bus := newTestBus(t, 0xDF)
	j.Press(bus, Up)

	// Action group selected: Up not visible
	j.Tick(bus)
	if got := bus.Read(memory.P1) & 0x0F; got != 0x0F {
		t.Errorf("action nibble = 0x%X, want 0xF", got)
	}

	// The CPU selects the direction group; the nibble follows on the next tick
	bus.Write(memory.P1, 0xEF)
	if got := bus.Read(memory.P1) & 0x0F; got != 0x0F {
		t.Errorf("nibble before tick = 0x%X, want 0xF", got)
	}

	j.Tick(bus)
	if got := bus.Read(memory.P1) & 0x0F; got != 0x0B {
		t.Errorf("direction nibble = 0x%X, want 0xB", got)
	}
}

func TestOppositeDirectionBlocking(t *testing.T) {
	tests := []struct {
		first, second Button
	}{
		{Down, Up},
		{Up, Down},
		{Right, Left},
		{Left, Right},
	}

	for _, tt := range tests {
		t.Run(tt.first.String()+"+"+tt.second.String(), func(t *testing.T) {
			j := New()
			bus := newTestBus(t, 0xEF)

			j.Press(bus, tt.first)
			j.Press(bus, tt.second)
			if j.Pressed(tt.second) {
				t.Errorf("%s should be blocked when %s is pressed", tt.second, tt.first)
			}

			// Release the first, then the opposite can be pressed
			j.Release(bus, tt.first)
			j.Press(bus, tt.second)
			if !j.Pressed(tt.second) {
				t.Errorf("%s should be pressed after %s is released", tt.second, tt.first)
			}
		})
	}
}

func TestJoypadInterrupt(t *testing.T) {
	j := New()
	bus := newTestBus(t, 0xDF)
	j.Tick(bus)

	j.Press(bus, A)

	if bus.Read(memory.IF)&memory.Joypad.Mask() == 0 {
		t.Error("Joypad interrupt should be requested when a visible button is pressed")
	}
}

func TestJoypadInterrupt_OnlyOnVisibleChange(t *testing.T) {
	j := New()
	bus := newTestBus(t, 0xDF)
	j.Tick(bus)

	clearIF := func() { bus.Poke(memory.IF, 0) }

	// Direction buttons are not selected
	j.Press(bus, Up)
	if bus.Read(memory.IF) != 0 {
		t.Error("Pressing a hidden button should not request an interrupt")
	}

	j.Press(bus, A)
	if bus.Read(memory.IF) == 0 {
		t.Fatal("First press should request an interrupt")
	}
	clearIF()

	// Pressing again while already pressed should NOT request another interrupt
	j.Press(bus, A)
	if bus.Read(memory.IF) != 0 {
		t.Error("Repeated press should not request an interrupt")
	}

	// Releases never interrupt
	j.Release(bus, A)
	if bus.Read(memory.IF) != 0 {
		t.Error("Release should not request an interrupt")
	}

	j.Press(bus, A)
	if bus.Read(memory.IF) == 0 {
		t.Error("Press after release should request an interrupt")
	}
}

func TestReleaseButton(t *testing.T) {
	j := New()
	bus := newTestBus(t, 0xCF)

	for b := A; b <= Right; b++ {
		j.Press(bus, b)
		j.Release(bus, b)

		if j.Pressed(b) {
			t.Errorf("Button %s was not properly released", b)
		}
		if got := bus.Read(memory.P1) & 0x0F; got != 0x0F {
			t.Errorf("P1 nibble after releasing %s = 0x%X, want 0xF", b, got)
		}
	}
}

func TestButtonString(t *testing.T) {
	if Start.String() != "Start" {
		t.Errorf("Start.String() = %q", Start.String())
	}
	if got := Button(9).String(); got != "Button(9)" {
		t.Errorf("Button(9).String() = %q", got)
	}
}
