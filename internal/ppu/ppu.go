// Package ppu implements the Game Boy Picture Processing Unit (PPU).
//
// The PPU keeps no registers of its own: LCDC, scroll, palettes and window
// position are read from memory, and the current mode and scanline are
// written back into STAT and LY. A whole scanline is rendered at once when
// the line enters mode 3.
package ppu

import (
	"errors"
	"fmt"

	"github.com/richardwooding/dmgcore/internal/memory"
)

// ErrInvalidMode indicates a PPU mode outside 0-3.
var ErrInvalidMode = errors.New("invalid PPU mode")

const (
	// ScreenWidth is the Game Boy screen width in pixels.
	ScreenWidth = 160
	// ScreenHeight is the Game Boy screen height in pixels.
	ScreenHeight = 144
)

// Mode is the PPU mode reported in the low two bits of STAT.
type Mode uint8

const (
	// ModeHBlank is the PPU mode for H-Blank (end of scanline).
	ModeHBlank Mode = 0
	// ModeVBlank is the PPU mode for V-Blank (vertical blank period).
	ModeVBlank Mode = 1
	// ModeOAMScan is the PPU mode for OAM Scan (searching for sprites).
	ModeOAMScan Mode = 2
	// ModeDrawing is the PPU mode for drawing pixels.
	ModeDrawing Mode = 3
)

func (m Mode) String() string {
	switch m {
	case ModeHBlank:
		return "HBlank"
	case ModeVBlank:
		return "VBlank"
	case ModeOAMScan:
		return "OAMScan"
	case ModeDrawing:
		return "Drawing"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// statEnable returns the STAT bit that enables the interrupt for entering m.
func (m Mode) statEnable() uint8 {
	switch m {
	case ModeHBlank:
		return STATMode0Interrupt
	case ModeVBlank:
		return STATMode1Interrupt
	case ModeOAMScan:
		return STATMode2Interrupt
	case ModeDrawing:
		return 0
	default:
		panic(fmt.Errorf("%w: %d", ErrInvalidMode, uint8(m)))
	}
}

const (
	// DotsPerScanline is the total number of dots per scanline.
	DotsPerScanline = 456
	// DotsOAMScan is the duration of Mode 2 (OAM Scan) in dots.
	DotsOAMScan = 80
	// DotsDrawing is the duration of Mode 3 (Drawing) in dots.
	DotsDrawing = 172
	// DotsHBlank is the duration of Mode 0 (H-Blank) in dots.
	DotsHBlank = DotsPerScanline - DotsOAMScan - DotsDrawing
	// ScanlinesVisible is the number of visible scanlines.
	ScanlinesVisible = 144
	// ScanlinesVBlank is the number of V-Blank scanlines.
	ScanlinesVBlank = 10
	// ScanlinesTotal is the total number of scanlines per frame.
	ScanlinesTotal = ScanlinesVisible + ScanlinesVBlank
	// DotsPerFrame is the total number of dots per frame.
	DotsPerFrame = DotsPerScanline * ScanlinesTotal
)

const (
	// LCDCLCDEnable is the LCDC bit for LCD Display Enable.
	LCDCLCDEnable = 1 << 7
	// LCDCWindowTileMap is the LCDC bit for Window Tile Map select.
	LCDCWindowTileMap = 1 << 6
	// LCDCWindowEnable is the LCDC bit for Window Display Enable.
	LCDCWindowEnable = 1 << 5
	// LCDCBGTileData is the LCDC bit for BG & Window Tile Data select.
	LCDCBGTileData = 1 << 4
	// LCDCBGTileMap is the LCDC bit for BG Tile Map select.
	LCDCBGTileMap = 1 << 3
	// LCDCOBJSize is the LCDC bit for OBJ (sprite) size (0=8x8, 1=8x16).
	LCDCOBJSize = 1 << 2
	// LCDCOBJEnable is the LCDC bit for OBJ (sprite) Display Enable.
	LCDCOBJEnable = 1 << 1
	// LCDCBGWindowEnable is the LCDC bit for BG & Window Display Enable.
	LCDCBGWindowEnable = 1 << 0
)

const (
	// STATLYCInterrupt is the STAT bit for LYC=LY Interrupt.
	STATLYCInterrupt = 1 << 6
	// STATMode2Interrupt is the STAT bit for Mode 2 OAM Interrupt.
	STATMode2Interrupt = 1 << 5
	// STATMode1Interrupt is the STAT bit for Mode 1 V-Blank Interrupt.
	STATMode1Interrupt = 1 << 4
	// STATMode0Interrupt is the STAT bit for Mode 0 H-Blank Interrupt.
	STATMode0Interrupt = 1 << 3
	// STATLYCFlag is the STAT bit for LYC=LY Flag.
	STATLYCFlag = 1 << 2
	// STATModeMask is the mask for STAT mode bits.
	STATModeMask = 0x03
)

// Memory is the part of the bus the PPU needs. Poke stores without the
// CPU-facing write rules, so the PPU can update LY and the STAT mode bits.
type Memory interface {
	Read(addr uint16) uint8
	Poke(addr uint16, value uint8)
	RequestInterrupt(i memory.Interrupt)
}

// PPU represents the Game Boy Picture Processing Unit.
type PPU struct {
	// Dot within the current scanline, 0-455
	dot uint16

	// Sprites selected by the OAM scan of the current line
	sprites      []sprite
	spriteHeight uint8

	// Window rows drawn so far this frame
	windowLine uint8

	frames uint64
	frame  Frame
}

// New creates a new PPU instance.
func New() *PPU {
	return &PPU{
		sprites:      make([]sprite, 0, maxSpritesPerLine),
		spriteHeight: 8,
	}
}

// Dot returns the position within the current scanline.
func (p *PPU) Dot() uint16 {
	return p.dot
}

// WindowLine returns the window line counter.
func (p *PPU) WindowLine() uint8 {
	return p.windowLine
}

// Frames returns the number of frames completed.
func (p *PPU) Frames() uint64 {
	return p.frames
}

// Frame returns the frame being drawn. It is complete when Tick reports so
// and stays unchanged until line 0 of the next frame is rendered.
func (p *PPU) Frame() *Frame {
	return &p.frame
}

// Tick advances the PPU by one dot and reports whether a frame was completed.
func (p *PPU) Tick(mem Memory) bool {
	lcdc := mem.Read(memory.LCDC)
	if lcdc&LCDCLCDEnable == 0 {
		p.disable(mem)
		return false
	}

	ly := mem.Read(memory.LY)

	if p.dot == 0 {
		p.compareLY(mem, ly)
	}

	if ly < ScanlinesVisible {
		switch p.dot {
		case 0:
			p.setMode(mem, ModeOAMScan)
			p.scanOAM(mem, ly, lcdc)
		case DotsOAMScan:
			p.setMode(mem, ModeDrawing)
			p.renderScanline(mem, ly, lcdc)
		case DotsOAMScan + DotsDrawing:
			p.setMode(mem, ModeHBlank)
		}
	}

	p.dot++
	if p.dot < DotsPerScanline {
		return false
	}

	p.dot = 0
	ly++
	frameDone := false

	switch {
	case ly == ScanlinesVisible:
		p.setMode(mem, ModeVBlank)
		mem.RequestInterrupt(memory.VBlank)
		p.frames++
		frameDone = true
	case ly >= ScanlinesTotal:
		ly = 0
		p.windowLine = 0
	}

	mem.Poke(memory.LY, ly)
	return frameDone
}

// disable holds the PPU at the start of line 0 while the LCD is off.
func (p *PPU) disable(mem Memory) {
	p.dot = 0
	p.windowLine = 0
	mem.Poke(memory.LY, 0)
	stat := mem.Read(memory.STAT)
	mem.Poke(memory.STAT, stat&^STATModeMask)
}

// setMode writes the mode into STAT and requests the STAT interrupt if it is
// enabled for the new mode.
func (p *PPU) setMode(mem Memory, mode Mode) {
	enable := mode.statEnable()

	stat := mem.Read(memory.STAT)
	mem.Poke(memory.STAT, (stat&^STATModeMask)|uint8(mode))

	if stat&enable != 0 {
		mem.RequestInterrupt(memory.LCDStat)
	}
}

// compareLY updates the coincidence flag at the start of a scanline and
// requests the STAT interrupt when it becomes set.
func (p *PPU) compareLY(mem Memory, ly uint8) {
	stat := mem.Read(memory.STAT)
	if ly != mem.Read(memory.LYC) {
		mem.Poke(memory.STAT, stat&^STATLYCFlag)
		return
	}

	mem.Poke(memory.STAT, stat|STATLYCFlag)
	if stat&STATLYCFlag == 0 && stat&STATLYCInterrupt != 0 {
		mem.RequestInterrupt(memory.LCDStat)
	}
}

// CurrentMode returns the mode stored in STAT.
func CurrentMode(mem Memory) Mode {
	return Mode(mem.Read(memory.STAT) & STATModeMask)
}
