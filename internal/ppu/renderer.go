package ppu

import (
	"slices"

	"github.com/richardwooding/dmgcore/internal/memory"
)

// Shade is one of the four gray levels of the LCD, 0 lightest.
type Shade uint8

// LCD shades.
const (
	White Shade = iota
	LightGray
	DarkGray
	Black
)

// Frame is a complete screen of shades indexed [y][x].
type Frame [ScreenHeight][ScreenWidth]Shade

const (
	// SpriteAttrPriority is the sprite attribute bit for priority (0=Above BG, 1=Behind BG colors 1-3).
	SpriteAttrPriority = 1 << 7
	// SpriteAttrYFlip is the sprite attribute bit for vertical flip.
	SpriteAttrYFlip = 1 << 6
	// SpriteAttrXFlip is the sprite attribute bit for horizontal flip.
	SpriteAttrXFlip = 1 << 5
	// SpriteAttrPalette is the sprite attribute bit for palette number (0=OBP0, 1=OBP1).
	SpriteAttrPalette = 1 << 4
)

const (
	oamEntries        = 40
	maxSpritesPerLine = 10

	tileMapLow   = 0x9800
	tileMapHigh  = 0x9C00
	tileDataLow  = 0x8000
	tileDataHigh = 0x9000 // tile 0 for signed indices
)

type sprite struct {
	x, y      int
	tileIndex uint8
	attrs     uint8
}

// scanOAM selects up to ten sprites whose rows include ly, in drawing
// priority order: lowest x first, OAM order for equal x.
func (p *PPU) scanOAM(mem Memory, ly, lcdc uint8) {
	p.spriteHeight = 8
	if lcdc&LCDCOBJSize != 0 {
		p.spriteHeight = 16
	}

	p.sprites = p.sprites[:0]
	for i := range oamEntries {
		addr := memory.OAMStart + uint16(i)*4 //nolint:gosec // G115: i is below 40
		y := int(mem.Read(addr)) - 16
		if int(ly) < y || int(ly) >= y+int(p.spriteHeight) {
			continue
		}

		p.sprites = append(p.sprites, sprite{
			y:         y,
			x:         int(mem.Read(addr+1)) - 8,
			tileIndex: mem.Read(addr + 2),
			attrs:     mem.Read(addr + 3),
		})
		if len(p.sprites) == maxSpritesPerLine {
			break
		}
	}

	slices.SortStableFunc(p.sprites, func(a, b sprite) int {
		return a.x - b.x
	})
}

// renderScanline renders line ly into the frame.
func (p *PPU) renderScanline(mem Memory, ly, lcdc uint8) {
	var bgIndex [ScreenWidth]uint8

	bgp := mem.Read(memory.BGP)
	scx := mem.Read(memory.SCX)
	scy := mem.Read(memory.SCY)
	wx := mem.Read(memory.WX)
	wy := mem.Read(memory.WY)

	bgEnabled := lcdc&LCDCBGWindowEnable != 0
	windowActive := bgEnabled && lcdc&LCDCWindowEnable != 0 && ly >= wy

	bgMap := uint16(tileMapLow)
	if lcdc&LCDCBGTileMap != 0 {
		bgMap = tileMapHigh
	}
	windowMap := uint16(tileMapLow)
	if lcdc&LCDCWindowTileMap != 0 {
		windowMap = tileMapHigh
	}

	drewWindow := false
	row := &p.frame[ly]
	for x := range ScreenWidth {
		var colorIndex uint8

		switch {
		case !bgEnabled:
			// Background and window off: color 0
		case windowActive && x+7 >= int(wx):
			wxPos := uint8(x + 7 - int(wx)) //nolint:gosec // G115: 0-166 within a line
			colorIndex = p.tilePixel(mem, lcdc, windowMap, wxPos, p.windowLine)
			drewWindow = true
		default:
			bx := uint8(x) + scx //nolint:gosec // G115: Background wraps at 256
			by := ly + scy
			colorIndex = p.tilePixel(mem, lcdc, bgMap, bx, by)
		}

		bgIndex[x] = colorIndex
		row[x] = applyPalette(colorIndex, bgp)
	}

	if drewWindow {
		p.windowLine++
	}

	if lcdc&LCDCOBJEnable != 0 {
		p.renderSprites(mem, ly, row, &bgIndex)
	}
}

// tilePixel returns the color index at (x, y) of the 256x256 map at mapBase.
func (p *PPU) tilePixel(mem Memory, lcdc uint8, mapBase uint16, x, y uint8) uint8 {
	tileIndex := mem.Read(mapBase + uint16(y/8)*32 + uint16(x/8))
	return getTilePixel(mem, tileDataAddr(tileIndex, lcdc&LCDCBGTileData == 0), x%8, y%8)
}

// renderSprites draws the selected sprites over the background. For each
// pixel the first sprite in priority order with an opaque pixel wins, and is
// hidden if its priority bit is set and the background is not color 0.
func (p *PPU) renderSprites(mem Memory, ly uint8, row *[ScreenWidth]Shade, bgIndex *[ScreenWidth]uint8) {
	obp0 := mem.Read(memory.OBP0)
	obp1 := mem.Read(memory.OBP1)

	for x := range ScreenWidth {
		for _, spr := range p.sprites {
			col := x - spr.x
			if col < 0 || col >= 8 {
				continue
			}

			line := int(ly) - spr.y
			if spr.attrs&SpriteAttrYFlip != 0 {
				line = int(p.spriteHeight) - 1 - line
			}
			if spr.attrs&SpriteAttrXFlip != 0 {
				col = 7 - col
			}

			// In 8x16 mode bit 0 of the tile is ignored and the bottom half
			// uses the next tile
			tile := spr.tileIndex
			if p.spriteHeight == 16 {
				tile &^= 1
				if line >= 8 {
					tile++
					line -= 8
				}
			}

			colorIndex := getTilePixel(mem, tileDataLow+uint16(tile)*16, uint8(col), uint8(line)) //nolint:gosec // G115: col and line are 0-7
			if colorIndex == 0 {
				// Transparent
				continue
			}

			if spr.attrs&SpriteAttrPriority == 0 || bgIndex[x] == 0 {
				palette := obp0
				if spr.attrs&SpriteAttrPalette != 0 {
					palette = obp1
				}
				row[x] = applyPalette(colorIndex, palette)
			}
			break
		}
	}
}

// tileDataAddr calculates the address of tile data. In signed mode tile 0 is
// at 0x9000 and indices 128-255 select the tiles below it.
func tileDataAddr(tileIndex uint8, signed bool) uint16 {
	if signed {
		offset := int32(int8(tileIndex)) * 16       //nolint:gosec // G115: Intentional signed conversion
		return uint16(int32(tileDataHigh) + offset) //nolint:gosec // G115: Result stays within VRAM
	}
	return tileDataLow + uint16(tileIndex)*16
}

// getTilePixel gets a pixel from a tile.
// Tiles are 8x8 pixels, 2 bits per pixel, stored as 16 bytes.
func getTilePixel(mem Memory, tileAddr uint16, x, y uint8) uint8 {
	// Each row is 2 bytes
	lineAddr := tileAddr + uint16(y)*2

	low := mem.Read(lineAddr)
	high := mem.Read(lineAddr + 1)

	// Bit 7 is pixel 0, bit 0 is pixel 7
	bitPos := 7 - x
	return (high>>bitPos&1)<<1 | low>>bitPos&1
}

// applyPalette applies a palette to convert a color index (0-3) to a shade.
func applyPalette(colorIndex, palette uint8) Shade {
	return Shade(palette >> (colorIndex * 2) & 0x03)
}
