package debug

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bradleyjkemp/memviz"
)

const replHelp = `commands:
  reg       print registers
  l         print the next instruction
  s         step one instruction
  c         continue until a breakpoint
  bi XX     break before opcode XX (hex)
  viz FILE  write a graphviz dump of the last snapshots
  q         quit
`

// REPL is a line-oriented front end for a Remote.
type REPL struct {
	remote *Remote
	in     *bufio.Scanner
	closer io.Closer
	out    io.Writer

	// Last snapshots received, for viz
	registers   *RegisterSnapshot
	instruction *InstructionSnapshot
}

// NewREPL creates a REPL reading commands from in and printing to out. If in
// is also an io.Closer, Run closes it on return.
func NewREPL(remote *Remote, in io.Reader, out io.Writer) *REPL {
	r := &REPL{
		remote: remote,
		in:     bufio.NewScanner(in),
		out:    out,
	}
	r.closer, _ = in.(io.Closer)
	return r
}

// Run reads and executes commands until quit, end of input or ctx is done.
// The remote is closed on return, which stops the console.
//
// Lines are read by a separate goroutine. It ends when the input is closed or
// reaches its end, so a reader that is not an io.Closer keeps it blocked
// until the reader returns.
func (r *REPL) Run(ctx context.Context) error {
	defer r.remote.Close()
	if r.closer != nil {
		defer r.closer.Close()
	}

	// Reading blocks, so lines arrive from their own goroutine and Run can
	// still return when ctx is done
	lines := make(chan string)
	go func() {
		defer close(lines)
		for r.in.Scan() {
			select {
			case lines <- r.in.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(r.out, "> ")

		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return r.in.Err()
			}
			line = l
		}

		err := r.Execute(ctx, line)
		switch {
		case errors.Is(err, ErrQuit), errors.Is(err, context.Canceled):
			return nil
		case errors.Is(err, ErrDisconnected):
			return err
		case err != nil:
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}
}

// Execute runs a single command line. It returns ErrQuit after sending quit.
func (r *REPL) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "reg":
		regs, err := r.remote.Registers(ctx)
		if err != nil {
			return err
		}
		r.registers = &regs
		fmt.Fprintln(r.out, regs)

	case "l":
		instr, err := r.remote.NextInstruction(ctx)
		if err != nil {
			return err
		}
		r.instruction = &instr
		fmt.Fprintln(r.out, instr)

	case "s":
		return r.remote.Step(ctx)

	case "c":
		return r.remote.Resume(ctx)

	case "bi":
		if len(fields) != 2 {
			return errors.New("usage: bi XX")
		}
		opcode, err := strconv.ParseUint(fields[1], 16, 8)
		if err != nil {
			return fmt.Errorf("invalid opcode %q: %w", fields[1], err)
		}
		return r.remote.SetBreakpoint(ctx, uint8(opcode))

	case "viz":
		if len(fields) != 2 {
			return errors.New("usage: viz FILE")
		}
		return r.visualize(ctx, fields[1])

	case "q":
		if err := r.remote.Quit(ctx); err != nil {
			return err
		}
		return ErrQuit

	case "help", "?":
		fmt.Fprint(r.out, replHelp)

	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}

	return nil
}

// visualize writes the last snapshots as a graphviz document, fetching fresh
// ones if none were requested yet.
func (r *REPL) visualize(ctx context.Context, path string) error {
	if r.registers == nil {
		regs, err := r.remote.Registers(ctx)
		if err != nil {
			return err
		}
		r.registers = &regs
	}
	if r.instruction == nil {
		instr, err := r.remote.NextInstruction(ctx)
		if err != nil {
			return err
		}
		r.instruction = &instr
	}

	f, err := os.Create(path) //nolint:gosec // G304: output path is user-provided
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	memviz.Map(f, r.registers, r.instruction)
	fmt.Fprintf(r.out, "wrote %s\n", path)
	return nil
}
