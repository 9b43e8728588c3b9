package debug

import "github.com/richardwooding/dmgcore/internal/logger"

// Host is the console side of the channel pair.
type Host struct {
	commands  <-chan Command
	responses chan<- Response
	closed    bool
}

// Poll handles at most one pending command without blocking.
//
// It returns ErrQuit when the debugger asked to quit and ErrDisconnected once
// the remote has closed its side. The console treats both as a quit signal.
func (h *Host) Poll(t Target) error {
	var (
		cmd Command
		ok  bool
	)
	select {
	case cmd, ok = <-h.commands:
	default:
		return nil
	}

	if !ok {
		logger.Log("debug", "remote debugger disconnected")
		return ErrDisconnected
	}

	switch cmd.Kind {
	case Step:
		t.Step()
	case Resume:
		t.Resume()
	case SetBreakpoint:
		t.SetBreakpoint(cmd.Opcode)
	case RequestRegisters:
		h.respond(Response{Kind: cmd.Kind, Seq: cmd.Seq, Registers: t.Registers()})
	case RequestNextInstruction:
		h.respond(Response{Kind: cmd.Kind, Seq: cmd.Seq, Instruction: t.NextInstruction()})
	case Quit:
		return ErrQuit
	default:
		logger.Logf("debug", "unknown command %s", cmd.Kind)
	}

	return nil
}

// respond sends a response unless the remote stopped reading. The remote
// waits for every query it sends, so the buffer never fills in practice.
func (h *Host) respond(r Response) {
	if h.closed {
		return
	}
	select {
	case h.responses <- r:
	default:
		logger.Logf("debug", "dropped %s response", r.Kind)
	}
}

// Close tells the remote that the console has stopped.
func (h *Host) Close() {
	if h.closed {
		return
	}
	h.closed = true
	close(h.responses)
}
