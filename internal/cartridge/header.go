// Package cartridge loads Game Boy cartridge images and parses their headers.
package cartridge

import (
	"errors"
	"fmt"
)

// Header layout offsets.
const (
	headerStart    = 0x0100
	titleStart     = 0x0134
	titleEnd       = 0x0144
	checksumStart  = 0x0134
	checksumEnd    = 0x014C
	headerChecksum = 0x014D
	globalChecksum = 0x014E
	headerEnd      = 0x0150
)

// Header represents the Game Boy cartridge header (0x0100-0x014F).
type Header struct {
	// Entry point (0x0100-0x0103)
	EntryPoint [4]byte

	// Title (0x0134-0x0143)
	// In newer cartridges the last bytes hold the manufacturer code and
	// CGB flag, so the title may be shorter
	Title [16]byte

	// CGB flag (0x0143)
	// 0x80 = Game supports CGB functions, 0xC0 = CGB only
	CGBFlag byte

	// SGB flag (0x0146), 0x03 = Game supports SGB functions
	SGBFlag byte

	// Cartridge type (0x0147)
	CartridgeType CartridgeType

	// ROM size (0x0148), 32 KiB << ROMSize
	ROMSize byte

	// RAM size (0x0149)
	RAMSize byte

	// Destination code (0x014A), 0x00 = Japan, 0x01 = Overseas
	DestinationCode byte

	// Mask ROM version (0x014C)
	MaskROMVersion byte

	// Header checksum (0x014D)
	HeaderChecksum byte

	// Global checksum (0x014E-0x014F), big endian
	GlobalChecksum uint16

	// Sum computed over 0x0134-0x014C
	computedChecksum byte
}

// CartridgeType represents the type of cartridge and MBC.
//
//nolint:revive // CartridgeType is intentionally explicit for clarity
type CartridgeType byte

// Cartridge types as defined in the header at 0x0147.
const (
	TypeROMOnly        CartridgeType = 0x00
	TypeMBC1           CartridgeType = 0x01
	TypeMBC1RAM        CartridgeType = 0x02
	TypeMBC1RAMBattery CartridgeType = 0x03
	TypeMBC2           CartridgeType = 0x05
	TypeMBC2Battery    CartridgeType = 0x06
	TypeROMRAM         CartridgeType = 0x08
	TypeROMRAMBattery  CartridgeType = 0x09
	TypeMBC3           CartridgeType = 0x11
	TypeMBC3RAM        CartridgeType = 0x12
	TypeMBC3RAMBattery CartridgeType = 0x13
	TypeMBC5           CartridgeType = 0x19
	TypeMBC5RAM        CartridgeType = 0x1A
	TypeMBC5RAMBattery CartridgeType = 0x1B
)

var typeNames = map[CartridgeType]string{
	TypeROMOnly:        "ROM ONLY",
	TypeMBC1:           "MBC1",
	TypeMBC1RAM:        "MBC1+RAM",
	TypeMBC1RAMBattery: "MBC1+RAM+BATTERY",
	TypeMBC2:           "MBC2",
	TypeMBC2Battery:    "MBC2+BATTERY",
	TypeROMRAM:         "ROM+RAM",
	TypeROMRAMBattery:  "ROM+RAM+BATTERY",
	TypeMBC3:           "MBC3",
	TypeMBC3RAM:        "MBC3+RAM",
	TypeMBC3RAMBattery: "MBC3+RAM+BATTERY",
	TypeMBC5:           "MBC5",
	TypeMBC5RAM:        "MBC5+RAM",
	TypeMBC5RAMBattery: "MBC5+RAM+BATTERY",
}

// String returns a human-readable name for the cartridge type.
func (t CartridgeType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN (0x%02X)", byte(t))
}

// Fixed reports whether the cartridge runs without a bank controller, which
// is the only mapping the bus provides.
func (t CartridgeType) Fixed() bool {
	switch t {
	case TypeROMOnly, TypeROMRAM, TypeROMRAMBattery:
		return true
	default:
		return false
	}
}

// ROMBanks returns the number of 16 KiB ROM banks, or 0 for an invalid size byte.
func (h *Header) ROMBanks() int {
	if h.ROMSize <= 0x08 {
		return 2 << h.ROMSize
	}
	return 0
}

// ROMSizeBytes returns the total ROM size in bytes.
func (h *Header) ROMSizeBytes() int {
	return h.ROMBanks() * 16384
}

// RAMSizeBytes returns the cartridge RAM size in bytes.
func (h *Header) RAMSizeBytes() int {
	switch h.RAMSize {
	case 0x01:
		return 2 * 1024 // Unofficial
	case 0x02:
		return 8 * 1024
	case 0x03:
		return 32 * 1024
	case 0x04:
		return 128 * 1024
	case 0x05:
		return 64 * 1024
	default:
		return 0
	}
}

// TitleString returns the cartridge title, cut at the first null byte.
func (h *Header) TitleString() string {
	for i, b := range h.Title {
		if b == 0 {
			return string(h.Title[:i])
		}
	}
	return string(h.Title[:])
}

// ChecksumValid reports whether the header checksum matches its contents.
func (h *Header) ChecksumValid() bool {
	return h.computedChecksum == h.HeaderChecksum
}

// ErrHeaderTooShort indicates the ROM data is too small to contain a header.
var ErrHeaderTooShort = errors.New("ROM too small: must be at least 336 bytes (0x0150)")

// ParseHeader parses the cartridge header from ROM data.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < headerEnd {
		return nil, fmt.Errorf("%w: got %d bytes", ErrHeaderTooShort, len(rom))
	}

	h := &Header{
		CGBFlag:         rom[0x0143],
		SGBFlag:         rom[0x0146],
		CartridgeType:   CartridgeType(rom[0x0147]),
		ROMSize:         rom[0x0148],
		RAMSize:         rom[0x0149],
		DestinationCode: rom[0x014A],
		MaskROMVersion:  rom[0x014C],
		HeaderChecksum:  rom[headerChecksum],
		GlobalChecksum:  uint16(rom[globalChecksum])<<8 | uint16(rom[globalChecksum+1]),
	}
	copy(h.EntryPoint[:], rom[headerStart:headerStart+4])
	copy(h.Title[:], rom[titleStart:titleEnd])

	// checksum = checksum - byte - 1 over 0x0134-0x014C
	for addr := checksumStart; addr <= checksumEnd; addr++ {
		h.computedChecksum = h.computedChecksum - rom[addr] - 1
	}

	return h, nil
}

// GlobalChecksumValid verifies the 16-bit sum of the whole ROM, excluding the
// checksum bytes. Many commercial games get this wrong, so it is only reported.
func (h *Header) GlobalChecksumValid(rom []byte) bool {
	var sum uint16
	for i, b := range rom {
		if i == globalChecksum || i == globalChecksum+1 {
			continue
		}
		sum += uint16(b)
	}
	return sum == h.GlobalChecksum
}
