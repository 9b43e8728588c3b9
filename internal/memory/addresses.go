package memory

// Address space layout.
const (
	// BankSize is the size of one cartridge ROM bank (16 KiB).
	BankSize = 0x4000
	// HighStart is the first address of the flat RAM/IO region.
	HighStart = 0x8000
	// HighSize is the size of the flat region covering 0x8000-0xFFFF.
	HighSize = 0x8000

	// VRAMStart is the first address of video RAM.
	VRAMStart = 0x8000
	// WRAMStart is the first address of work RAM.
	WRAMStart = 0xC000
	// EchoStart is the first address of the work RAM mirror.
	EchoStart = 0xE000
	// EchoEnd is the last address of the work RAM mirror.
	EchoEnd = 0xFDFF
	// OAMStart is the first address of object attribute memory.
	OAMStart = 0xFE00
	// OAMSize is the number of bytes in OAM (40 objects of 4 bytes).
	OAMSize = 0xA0
)

// Hardware register addresses.
const (
	P1   = 0xFF00 // Joypad
	SB   = 0xFF01 // Serial transfer data
	SC   = 0xFF02 // Serial transfer control
	DIV  = 0xFF04 // Divider
	TIMA = 0xFF05 // Timer counter
	TMA  = 0xFF06 // Timer modulo
	TAC  = 0xFF07 // Timer control
	IF   = 0xFF0F // Interrupt request
	LCDC = 0xFF40 // LCD control
	STAT = 0xFF41 // LCD status
	SCY  = 0xFF42 // Background scroll Y
	SCX  = 0xFF43 // Background scroll X
	LY   = 0xFF44 // Current scanline
	LYC  = 0xFF45 // Scanline compare
	DMA  = 0xFF46 // OAM DMA trigger
	BGP  = 0xFF47 // Background palette
	OBP0 = 0xFF48 // Object palette 0
	OBP1 = 0xFF49 // Object palette 1
	WY   = 0xFF4A // Window Y
	WX   = 0xFF4B // Window X + 7
	IE   = 0xFFFF // Interrupt enable
)

// Interrupt identifies one of the five interrupt sources. The value is the
// bit position in IF and IE, which is also the servicing priority (lower first).
type Interrupt uint8

// Interrupt sources in priority order.
const (
	VBlank Interrupt = iota
	LCDStat
	Timer
	Serial
	Joypad
)

// Interrupts lists every source in priority order.
var Interrupts = [...]Interrupt{VBlank, LCDStat, Timer, Serial, Joypad}

// Mask returns the IF/IE bit for the interrupt.
func (i Interrupt) Mask() uint8 {
	return 1 << i
}

// Vector returns the fixed handler address (0x40, 0x48, 0x50, 0x58, 0x60).
func (i Interrupt) Vector() uint16 {
	return 0x40 + 8*uint16(i)
}

func (i Interrupt) String() string {
	switch i {
	case VBlank:
		return "VBLANK"
	case LCDStat:
		return "STAT"
	case Timer:
		return "TIMER"
	case Serial:
		return "SERIAL"
	case Joypad:
		return "JOYPAD"
	default:
		return "UNKNOWN"
	}
}
