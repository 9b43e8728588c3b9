package cartridge

import (
	"fmt"
	"os"

	"github.com/richardwooding/dmgcore/internal/logger"
)

// Cartridge is a loaded cartridge image.
type Cartridge struct {
	// Title from the header, without padding
	Title string

	// Data is the whole ROM image
	Data []byte

	Header *Header
}

// Load reads a cartridge image from disk.
func Load(path string) (*Cartridge, error) {
	rom, err := os.ReadFile(path) //nolint:gosec // G304: ROM path is user-provided by design
	if err != nil {
		return nil, fmt.Errorf("failed to read ROM: %w", err)
	}
	return New(rom)
}

// New creates a cartridge from ROM data.
//
// Header problems that do not stop the ROM from being mapped are logged
// rather than rejected: a bad header checksum, a ROM shorter than the header
// claims, or a cartridge type that needs a bank controller.
func New(rom []byte) (*Cartridge, error) {
	header, err := ParseHeader(rom)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	if !header.ChecksumValid() {
		logger.Logf("cartridge", "header checksum mismatch (0x%02X)", header.HeaderChecksum)
	}
	if expected := header.ROMSizeBytes(); len(rom) < expected {
		logger.Logf("cartridge", "ROM size mismatch: header says %d bytes, got %d", expected, len(rom))
	}
	if !header.CartridgeType.Fixed() {
		logger.Logf("cartridge", "%s is not supported, banks above 1 are unreachable", header.CartridgeType)
	}

	return &Cartridge{
		Title:  header.TitleString(),
		Data:   rom,
		Header: header,
	}, nil
}
