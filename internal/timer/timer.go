// Package timer implements the Game Boy timer system.
//
// The timer system consists of:
//   - DIV: Divider register (increments at 16384 Hz)
//   - TIMA: Timer counter (increments at configurable rate)
//   - TMA: Timer modulo (value to reload into TIMA on overflow)
//   - TAC: Timer control (enable and clock select)
//
// The registers live in memory, where the CPU reads and writes them. The
// timer keeps the internal 16-bit divider, of which DIV is the upper byte,
// and uses falling edge detection on one of its bits to increment TIMA at
// the selected frequency.
package timer

import "github.com/richardwooding/dmgcore/internal/memory"

// TAC register bits.
const (
	tacEnableBit = 0x04 // Bit 2: Timer enable
	tacClockMask = 0x03 // Bits 1-0: Clock select
)

// Memory is the part of the bus the timer needs.
type Memory interface {
	Read(addr uint16) uint8
	Poke(addr uint16, value uint8)
	RequestInterrupt(i memory.Interrupt)

	// DividerReset reports and clears a pending CPU write to DIV.
	DividerReset() bool
}

// Timer represents the Game Boy timer system.
type Timer struct {
	divCounter uint16 // Internal 16-bit counter (DIV is upper 8 bits)

	// Timer bit sampled on the previous tick
	lastBit bool
}

// New creates a new Timer.
func New() *Timer {
	return &Timer{}
}

// Divider returns the internal 16-bit divider.
func (t *Timer) Divider() uint16 {
	return t.divCounter
}

// Tick advances the timer by one dot.
//
// A write to DIV resets the whole divider. Because TIMA is clocked by a
// falling edge of the selected divider bit, resetting the divider or changing
// TAC while that bit is high also increments TIMA.
func (t *Timer) Tick(mem Memory) {
	if mem.DividerReset() {
		t.divCounter = 0
	} else {
		t.divCounter++ // uint16 overflow is intentional and correct
	}
	mem.Poke(memory.DIV, uint8(t.divCounter>>8)) //nolint:gosec // DIV is upper 8 bits

	bit := timerBit(t.divCounter, mem.Read(memory.TAC))
	if t.lastBit && !bit {
		incrementTIMA(mem)
	}
	t.lastBit = bit
}

// timerBit returns the divider bit selected by TAC, or false when the timer
// is disabled.
func timerBit(counter uint16, tac uint8) bool {
	if tac&tacEnableBit == 0 {
		return false
	}

	// Determine which bit to check based on clock select
	var bitPosition uint
	switch tac & tacClockMask {
	case 0: // 4096 Hz
		bitPosition = 9
	case 1: // 262144 Hz
		bitPosition = 3
	case 2: // 65536 Hz
		bitPosition = 5
	case 3: // 16384 Hz
		bitPosition = 7
	}

	return (counter & (1 << bitPosition)) != 0
}

// incrementTIMA increments the timer counter and handles overflow.
func incrementTIMA(mem Memory) {
	tima := mem.Read(memory.TIMA) + 1

	if tima == 0 {
		// Overflow occurred
		tima = mem.Read(memory.TMA)
		mem.RequestInterrupt(memory.Timer)
	}

	mem.Poke(memory.TIMA, tima)
}
