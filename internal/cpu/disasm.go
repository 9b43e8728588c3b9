package cpu

import (
	"fmt"
	"strings"
)

// Instruction is a decoded instruction for display.
type Instruction struct {
	Address  uint16
	Opcode   uint8
	Prefixed bool
	Length   uint8
	Text     string
}

func (i Instruction) String() string {
	return fmt.Sprintf("%04X: %s", i.Address, i.Text)
}

// Disassemble decodes the instruction at addr without executing it.
func Disassemble(mem Memory, addr uint16) Instruction {
	code := mem.Read(addr)
	if code == 0xCB {
		next := mem.Read(addr + 1)
		return Instruction{
			Address:  addr,
			Opcode:   next,
			Prefixed: true,
			Length:   2,
			Text:     cbPrefixed[next].mnemonic,
		}
	}

	entry := unprefixed[code]
	if entry.exec == nil {
		return Instruction{Address: addr, Opcode: code, Length: 1, Text: fmt.Sprintf("DB $%02X", code)}
	}

	text := entry.mnemonic
	switch entry.length {
	case 2:
		n := mem.Read(addr + 1)
		if strings.Contains(text, "e8") {
			text = strings.Replace(text, "e8", fmt.Sprintf("%+d", int8(n)), 1) //nolint:gosec // G115: Signed displacement
		} else {
			text = strings.NewReplacer("n8", fmt.Sprintf("$%02X", n), "a8", fmt.Sprintf("$%02X", n)).Replace(text)
		}
	case 3:
		nn := uint16(mem.Read(addr+2))<<8 | uint16(mem.Read(addr+1))
		text = strings.NewReplacer("n16", fmt.Sprintf("$%04X", nn), "a16", fmt.Sprintf("$%04X", nn)).Replace(text)
	}

	return Instruction{Address: addr, Opcode: code, Length: entry.length, Text: text}
}

// Mnemonic returns the table mnemonic of an opcode, with placeholders for
// immediates.
func Mnemonic(code uint8, prefixed bool) string {
	if prefixed {
		return cbPrefixed[code].mnemonic
	}
	return unprefixed[code].mnemonic
}
