package debug

import (
	"context"
	"fmt"
	"sync"
)

// Remote is the debugger side of the channel pair. It is safe for use by a
// single goroutine.
type Remote struct {
	commands  chan<- Command
	responses <-chan Response
	closeOnce sync.Once

	// Last query sent
	seq uint64
}

// Step executes one instruction and stops again.
func (r *Remote) Step(ctx context.Context) error {
	return r.send(ctx, Command{Kind: Step})
}

// Resume runs until the next breakpoint.
func (r *Remote) Resume(ctx context.Context) error {
	return r.send(ctx, Command{Kind: Resume})
}

// SetBreakpoint stops the console before it executes the given opcode byte.
func (r *Remote) SetBreakpoint(ctx context.Context, opcode uint8) error {
	return r.send(ctx, Command{Kind: SetBreakpoint, Opcode: opcode})
}

// Quit asks the console to stop.
func (r *Remote) Quit(ctx context.Context) error {
	return r.send(ctx, Command{Kind: Quit})
}

// Registers requests a register snapshot and waits for it.
func (r *Remote) Registers(ctx context.Context) (RegisterSnapshot, error) {
	resp, err := r.request(ctx, RequestRegisters)
	return resp.Registers, err
}

// NextInstruction requests the instruction at PC and waits for it.
func (r *Remote) NextInstruction(ctx context.Context) (InstructionSnapshot, error) {
	resp, err := r.request(ctx, RequestNextInstruction)
	return resp.Instruction, err
}

// Close disconnects from the console, which then stops. The remote must not
// send after Close.
func (r *Remote) Close() {
	r.closeOnce.Do(func() { close(r.commands) })
}

func (r *Remote) send(ctx context.Context, cmd Command) error {
	select {
	case r.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// request sends a query and waits for its reply. Replies to earlier queries
// that were abandoned when their context ended are discarded.
func (r *Remote) request(ctx context.Context, kind CommandKind) (Response, error) {
	r.seq++
	seq := r.seq
	if err := r.send(ctx, Command{Kind: kind, Seq: seq}); err != nil {
		return Response{}, err
	}

	for {
		select {
		case resp, ok := <-r.responses:
			if !ok {
				return Response{}, ErrDisconnected
			}
			if resp.Seq < seq {
				continue
			}
			if resp.Seq != seq || resp.Kind != kind {
				return Response{}, fmt.Errorf("unexpected %s response to %s", resp.Kind, kind)
			}
			return resp, nil
		case <-ctx.Done():
			return Response{}, ctx.Err()
		}
	}
}
