// Package debug connects a running console to an interactive debugger.
//
// The two sides talk over a pair of one-way channels. The remote side sends
// commands and blocks for the responses of the two queries; the host side is
// polled by the console at most once per tick and never blocks. Responses
// are snapshots, so no live state crosses between goroutines.
package debug

import (
	"errors"
	"fmt"

	"github.com/richardwooding/dmgcore/internal/cpu"
)

var (
	// ErrQuit indicates the debugger asked the console to stop.
	ErrQuit = errors.New("debugger requested quit")

	// ErrDisconnected indicates the other side of the channel pair went away.
	ErrDisconnected = errors.New("debugger disconnected")
)

// CommandKind identifies a debugger command.
type CommandKind uint8

// Debugger commands.
const (
	Step CommandKind = iota
	Resume
	RequestRegisters
	RequestNextInstruction
	SetBreakpoint
	Quit
)

func (k CommandKind) String() string {
	switch k {
	case Step:
		return "Step"
	case Resume:
		return "Resume"
	case RequestRegisters:
		return "RequestRegisters"
	case RequestNextInstruction:
		return "RequestNextInstruction"
	case SetBreakpoint:
		return "SetBreakpoint"
	case Quit:
		return "Quit"
	default:
		return fmt.Sprintf("CommandKind(%d)", uint8(k))
	}
}

// Command is a message from the debugger to the console.
type Command struct {
	Kind CommandKind

	// Opcode byte for SetBreakpoint
	Opcode uint8

	// Seq numbers queries so late replies can be told apart
	Seq uint64
}

// RegisterSnapshot is a copy of the CPU state.
type RegisterSnapshot struct {
	cpu.Registers
	IME    bool
	Halted bool
	Cycles uint64
}

func (s RegisterSnapshot) String() string {
	return fmt.Sprintf("%s IME:%t HALT:%t CY:%d", s.Registers, s.IME, s.Halted, s.Cycles)
}

// InstructionSnapshot holds the three bytes at PC and their disassembly.
type InstructionSnapshot struct {
	Bytes       [3]uint8
	Instruction cpu.Instruction
}

func (s InstructionSnapshot) String() string {
	return fmt.Sprintf("%02X %02X %02X  %s", s.Bytes[0], s.Bytes[1], s.Bytes[2], s.Instruction)
}

// Response answers one of the two query commands.
type Response struct {
	Kind        CommandKind
	Seq         uint64 // Seq of the query answered
	Registers   RegisterSnapshot
	Instruction InstructionSnapshot
}

// Target is what the host drives on behalf of the debugger.
type Target interface {
	Step()
	Resume()
	Registers() RegisterSnapshot
	NextInstruction() InstructionSnapshot
	SetBreakpoint(opcode uint8)
}

// channelBuffer is the capacity of each direction.
const channelBuffer = 16

// NewPair creates a connected host and remote.
func NewPair() (*Host, *Remote) {
	commands := make(chan Command, channelBuffer)
	responses := make(chan Response, channelBuffer)
	return &Host{commands: commands, responses: responses},
		&Remote{commands: commands, responses: responses}
}
