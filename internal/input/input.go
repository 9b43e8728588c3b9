// Package input implements Game Boy joypad input handling.
//
// The joypad owns the low nibble of P1. The CPU selects the action or
// direction group through bits 5 and 4, and the joypad answers with the
// buttons of the selected groups, inverted so that 0 means pressed.
package input

import (
	"fmt"

	"github.com/richardwooding/dmgcore/internal/memory"
)

// Button identifies one of the eight joypad buttons.
type Button uint8

// Joypad buttons.
const (
	A Button = iota
	B
	Start
	Select
	Up
	Down
	Left
	Right
)

var buttonNames = [...]string{"A", "B", "Start", "Select", "Up", "Down", "Left", "Right"}

func (b Button) String() string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return fmt.Sprintf("Button(%d)", uint8(b))
}

// P1 selection bits (0 = group selected).
const (
	selectAction    = 0x20 // P15
	selectDirection = 0x10 // P14
	selectMask      = selectAction | selectDirection
)

// Memory is the part of the bus the joypad needs.
type Memory interface {
	Read(addr uint16) uint8
	SetJoypadNibble(nibble uint8)
	RequestInterrupt(i memory.Interrupt)
}

// Joypad represents the Game Boy joypad state.
type Joypad struct {
	pressed [len(buttonNames)]bool

	// Selection bits seen on the last refresh
	lastSelect uint8
}

// New creates a new Joypad instance.
func New() *Joypad {
	return &Joypad{
		lastSelect: 0xFF, // Forces a refresh on the first tick
	}
}

// Pressed reports whether a button is held.
func (j *Joypad) Pressed(b Button) bool {
	return j.pressed[b]
}

// Press marks a button as held and requests the joypad interrupt if the
// visible nibble changed.
func (j *Joypad) Press(mem Memory, b Button) {
	// Block opposite directions
	switch {
	case b == Up && j.pressed[Down],
		b == Down && j.pressed[Up],
		b == Left && j.pressed[Right],
		b == Right && j.pressed[Left]:
		return
	}

	old := mem.Read(memory.P1) & 0x0F
	j.pressed[b] = true
	if j.refresh(mem) != old {
		mem.RequestInterrupt(memory.Joypad)
	}
}

// Release marks a button as released.
func (j *Joypad) Release(mem Memory, b Button) {
	j.pressed[b] = false
	j.refresh(mem)
}

// Tick recomputes the nibble when the CPU has changed the selection bits.
func (j *Joypad) Tick(mem Memory) {
	if mem.Read(memory.P1)&selectMask != j.lastSelect {
		j.refresh(mem)
	}
}

// refresh writes the nibble for the current selection into P1 and returns it.
func (j *Joypad) refresh(mem Memory) uint8 {
	sel := mem.Read(memory.P1) & selectMask
	j.lastSelect = sel

	nibble := j.nibble(sel)
	mem.SetJoypadNibble(nibble)
	return nibble
}

// nibble returns the inverted button bits for the selected groups.
func (j *Joypad) nibble(sel uint8) uint8 {
	var bits uint8

	if sel&selectAction == 0 {
		bits |= j.bits(Start, Select, B, A)
	}
	if sel&selectDirection == 0 {
		bits |= j.bits(Down, Up, Left, Right)
	}

	return ^bits & 0x0F
}

// bits packs four buttons into bits 3-0, first button highest.
func (j *Joypad) bits(b3, b2, b1, b0 Button) uint8 {
	var bits uint8
	for i, b := range [4]Button{b0, b1, b2, b3} {
		if j.pressed[b] {
			bits |= 1 << i
		}
	}
	return bits
}
