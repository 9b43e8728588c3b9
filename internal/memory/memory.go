// Package memory implements the Game Boy address space: banked cartridge ROM,
// a flat RAM/IO region and the special write behavior of a few registers.
package memory

import (
	"errors"
	"fmt"
)

var (
	// ErrROMTooSmall indicates the ROM does not fill the two mapped banks.
	ErrROMTooSmall = errors.New("ROM must contain at least two 16 KiB banks")

	// ErrROMNotBankAligned indicates the ROM size is not a whole number of banks.
	ErrROMNotBankAligned = errors.New("ROM size is not a multiple of 16 KiB")

	// ErrAddressOutOfRange indicates an access resolved outside the backing storage.
	ErrAddressOutOfRange = errors.New("address out of range")
)

// Bus is the 64 KiB address space seen by the CPU, PPU and the other devices.
//
// 0x0000-0x3FFF always maps bank 0, 0x4000-0x7FFF maps the current bank and
// 0x8000-0xFFFF is one flat region holding VRAM, WRAM, OAM, I/O and IE.
// There is no memory bank controller, so the current bank never changes.
type Bus struct {
	banks       [][]uint8
	currentBank int

	high [HighSize]uint8

	// OAM DMA state
	dmaActive bool
	dmaCursor uint16

	// Set when the CPU writes DIV, cleared by the timer
	divReset bool
}

// New creates a bus backed by the given cartridge ROM.
func New(rom []byte) (*Bus, error) {
	if len(rom) < 2*BankSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrROMTooSmall, len(rom))
	}
	if len(rom)%BankSize != 0 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrROMNotBankAligned, len(rom))
	}

	banks := make([][]uint8, 0, len(rom)/BankSize)
	for start := 0; start < len(rom); start += BankSize {
		bank := make([]uint8, BankSize)
		copy(bank, rom[start:start+BankSize])
		banks = append(banks, bank)
	}

	return &Bus{
		banks:       banks,
		currentBank: 1,
	}, nil
}

// Banks returns the number of ROM banks.
func (b *Bus) Banks() int {
	return len(b.banks)
}

// CurrentBank returns the bank mapped at 0x4000-0x7FFF.
func (b *Bus) CurrentBank() int {
	return b.currentBank
}

// bank returns ROM bank n, panicking if it does not exist.
func (b *Bus) bank(n int) []uint8 {
	if n >= len(b.banks) {
		panic(fmt.Errorf("%w: ROM bank %d of %d", ErrAddressOutOfRange, n, len(b.banks)))
	}
	return b.banks[n]
}

// slot resolves addr to its backing byte.
func (b *Bus) slot(addr uint16) *uint8 {
	switch {
	// ROM bank 0 (0000-3FFF)
	case addr < BankSize:
		return &b.bank(0)[addr]

	// Switchable ROM bank (4000-7FFF)
	case addr < HighStart:
		return &b.bank(b.currentBank)[addr-BankSize]

	// Echo RAM (E000-FDFF) mirrors C000-DDFF
	case addr >= EchoStart && addr <= EchoEnd:
		return &b.high[addr-(EchoStart-WRAMStart)-HighStart]

	default:
		return &b.high[addr-HighStart]
	}
}

// Read reads a byte from the bus.
func (b *Bus) Read(addr uint16) uint8 {
	return *b.slot(addr)
}

// Write writes a byte as the CPU would, honoring register side effects.
func (b *Bus) Write(addr uint16, value uint8) {
	switch {
	// ROM (0000-7FFF) is read-only without a bank controller
	case addr < HighStart:
		return

	// Only the selection bits of P1 are writable; the button bits belong to the joypad
	case addr == P1:
		p := b.slot(P1)
		*p = (*p & 0x0F) | (value & 0xF0)

	// Any write resets the divider
	case addr == DIV:
		*b.slot(DIV) = 0
		b.divReset = true

	// Mode and coincidence bits are owned by the PPU
	case addr == STAT:
		p := b.slot(STAT)
		*p = (*p & 0x87) | (value & 0x78)

	// LY is read-only
	case addr == LY:
		return

	// Start an OAM DMA from XX00 instead of storing the value
	case addr == DMA:
		b.dmaActive = true
		b.dmaCursor = uint16(value) << 8

	default:
		*b.slot(addr) = value
	}
}

// Poke stores a byte without any register side effects. Devices use it to
// update registers they own (LY, STAT mode bits, DIV, TIMA).
func (b *Bus) Poke(addr uint16, value uint8) {
	*b.slot(addr) = value
}

// SetJoypadNibble replaces the button bits (low nibble) of P1.
func (b *Bus) SetJoypadNibble(nibble uint8) {
	p := b.slot(P1)
	*p = (*p & 0xF0) | (nibble & 0x0F)
}

// RequestInterrupt sets the request bit of an interrupt in IF.
func (b *Bus) RequestInterrupt(i Interrupt) {
	*b.slot(IF) |= i.Mask()
}

// DividerReset reports whether DIV was written since the last call and clears the flag.
func (b *Bus) DividerReset() bool {
	reset := b.divReset
	b.divReset = false
	return reset
}

// DMAActive reports whether an OAM DMA transfer is in flight.
func (b *Bus) DMAActive() bool {
	return b.dmaActive
}

// Tick advances an in-flight OAM DMA by one byte.
func (b *Bus) Tick() {
	if !b.dmaActive {
		return
	}

	src := b.dmaCursor
	*b.slot(OAMStart | (src & 0xFF)) = b.Read(src)

	b.dmaCursor++
	if b.dmaCursor&0xFF >= OAMSize {
		b.dmaActive = false
	}
}
