package main

import (
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/richardwooding/dmgcore/internal/console"
	"github.com/richardwooding/dmgcore/internal/input"
	"github.com/richardwooding/dmgcore/internal/ppu"
)

// DMG palette colors (classic Game Boy green tones).
var dmgPalette = [4]color.RGBA{
	{0xE0, 0xF8, 0xD0, 0xFF}, // White (lightest)
	{0x88, 0xC0, 0x70, 0xFF}, // Light gray
	{0x34, 0x68, 0x56, 0xFF}, // Dark gray
	{0x08, 0x18, 0x20, 0xFF}, // Black (darkest)
}

// Keyboard layout.
var keyMap = map[ebiten.Key]input.Button{
	ebiten.KeyArrowUp:    input.Up,
	ebiten.KeyArrowDown:  input.Down,
	ebiten.KeyArrowLeft:  input.Left,
	ebiten.KeyArrowRight: input.Right,
	ebiten.KeyZ:          input.A,
	ebiten.KeyX:          input.B,
	ebiten.KeyEnter:      input.Start,
	ebiten.KeyShift:      input.Select,
}

// Screen is the ebiten window. It is the console's display and input: the
// console goroutine presents frames and polls button events, while ebiten
// draws the latest frame and collects key presses on its own goroutine.
type Screen struct {
	mu     sync.Mutex
	frame  ppu.Frame
	events []console.ButtonEvent
	closed bool

	image  *ebiten.Image
	pixels []byte // Pre-allocated pixel buffer to avoid GC pressure
}

// NewScreen creates the window contents.
func NewScreen() *Screen {
	return &Screen{
		image:  ebiten.NewImage(ppu.ScreenWidth, ppu.ScreenHeight),
		pixels: make([]byte, ppu.ScreenWidth*ppu.ScreenHeight*4), // RGBA format
	}
}

// Present stores a completed frame for the next Draw.
func (s *Screen) Present(frame *ppu.Frame) {
	s.mu.Lock()
	s.frame = *frame
	s.mu.Unlock()
}

// Poll returns the button changes since the last call.
func (s *Screen) Poll() []console.ButtonEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.events
	s.events = nil
	return events
}

// Close ends the game loop on the next update.
func (s *Screen) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Update collects key presses. Escape closes the window.
func (s *Screen) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ebiten.Termination
	}

	for key, button := range keyMap {
		if inpututil.IsKeyJustPressed(key) {
			s.events = append(s.events, console.ButtonEvent{Button: button, Pressed: true})
		}
		if inpututil.IsKeyJustReleased(key) {
			s.events = append(s.events, console.ButtonEvent{Button: button, Pressed: false})
		}
	}

	return nil
}

// Draw draws the latest frame.
func (s *Screen) Draw(screen *ebiten.Image) {
	s.mu.Lock()
	for y := range s.frame {
		for x, shade := range s.frame[y] {
			c := dmgPalette[shade&0x03]

			offset := (y*ppu.ScreenWidth + x) * 4
			s.pixels[offset] = c.R
			s.pixels[offset+1] = c.G
			s.pixels[offset+2] = c.B
			s.pixels[offset+3] = c.A
		}
	}
	s.mu.Unlock()

	// Write all pixels at once (much faster than individual Set() calls)
	s.image.WritePixels(s.pixels)
	screen.DrawImage(s.image, nil)
}

// Layout returns the game screen size.
func (s *Screen) Layout(_, _ int) (int, int) {
	return ppu.ScreenWidth, ppu.ScreenHeight
}
