// Package main provides the dmgcore CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"

	"github.com/richardwooding/dmgcore/internal/cartridge"
	"github.com/richardwooding/dmgcore/internal/console"
	"github.com/richardwooding/dmgcore/internal/debug"
	"github.com/richardwooding/dmgcore/internal/logger"
	"github.com/richardwooding/dmgcore/internal/ppu"
	"github.com/richardwooding/dmgcore/internal/testrom"
)

var (
	// ErrTestFailed indicates a test ROM failed.
	ErrTestFailed = errors.New("test failed")

	// ErrInvalidScale indicates the scale factor is out of valid range.
	ErrInvalidScale = errors.New("scale must be between 1 and 10")
)

// CLI represents the command-line interface structure.
type CLI struct {
	Info InfoCmd `cmd:"" help:"Display cartridge information."`
	Run  RunCmd  `cmd:"" help:"Run a Game Boy ROM."`
	Test TestCmd `cmd:"" help:"Run a test ROM and report results."`
}

// InfoCmd displays cartridge header information.
type InfoCmd struct {
	ROM string `arg:"" type:"existingfile" help:"Path to ROM file."`
}

// Run executes the info command.
func (c *InfoCmd) Run() error {
	cart, err := cartridge.Load(c.ROM)
	if err != nil {
		return fmt.Errorf("failed to load cartridge: %w", err)
	}

	header := cart.Header
	fmt.Printf("ROM Information:\n")
	fmt.Printf("  Title:           %s\n", cart.Title)
	fmt.Printf("  Cartridge Type:  %s (0x%02X)\n", header.CartridgeType, byte(header.CartridgeType))
	fmt.Printf("  ROM Size:        %d KiB (%d banks)\n", header.ROMSizeBytes()/1024, header.ROMBanks())
	fmt.Printf("  RAM Size:        %d KiB\n", header.RAMSizeBytes()/1024)
	fmt.Printf("  CGB Flag:        0x%02X\n", header.CGBFlag)
	fmt.Printf("  SGB Flag:        0x%02X\n", header.SGBFlag)
	fmt.Printf("  Header Checksum: 0x%02X (valid: %v)\n", header.HeaderChecksum, header.ChecksumValid())
	fmt.Printf("  Global Checksum: 0x%04X (valid: %v)\n", header.GlobalChecksum, header.GlobalChecksumValid(cart.Data))
	fmt.Printf("  Supported:       %v\n", header.CartridgeType.Fixed())

	logger.Tail(os.Stdout, 10)
	return nil
}

// RunCmd runs a Game Boy ROM.
type RunCmd struct {
	ROM         string `arg:"" type:"existingfile" help:"Path to ROM file."`
	Scale       int    `help:"Display scale factor (1-10)." default:"3"`
	Debug       bool   `help:"Start stopped with a debugger prompt on stdin."`
	Log         bool   `help:"Echo the log to stderr."`
	Statsview   bool   `help:"Serve runtime statistics at ${statsview_url}."`
	Unthrottled bool   `help:"Run as fast as possible instead of at the DMG frame rate."`
}

// Run executes the run command.
func (c *RunCmd) Run() error {
	// Validate scale factor
	if c.Scale < 1 || c.Scale > 10 {
		return fmt.Errorf("%w: got %d", ErrInvalidScale, c.Scale)
	}

	if c.Log {
		logger.SetEcho(os.Stderr)
	}

	cart, err := cartridge.Load(c.ROM)
	if err != nil {
		return fmt.Errorf("failed to load cartridge: %w", err)
	}

	if c.Statsview {
		launchStatsview(os.Stderr)
	}

	screen := NewScreen()
	opts := console.Options{
		Display:  screen,
		Input:    screen,
		Throttle: !c.Unthrottled,
	}

	var remote *debug.Remote
	if c.Debug {
		opts.Debugger, remote = debug.NewPair()
	}

	con, err := console.New(cart.Data, opts)
	if err != nil {
		return fmt.Errorf("failed to create console: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Closing the window stops the console, and the console stopping
		// closes the window
		defer screen.Close()
		return con.Run(gctx)
	})
	if remote != nil {
		g.Go(func() error {
			return debug.NewREPL(remote, os.Stdin, os.Stdout).Run(gctx)
		})
	}

	// Configure Ebiten window
	ebiten.SetWindowTitle(fmt.Sprintf("dmgcore - %s", cart.Title))
	ebiten.SetWindowSize(ppu.ScreenWidth*c.Scale, ppu.ScreenHeight*c.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	runErr := ebiten.RunGame(screen)
	cancel()
	if err := g.Wait(); err != nil {
		return fmt.Errorf("console error: %w", err)
	}
	logger.Logf("run", "%d frames in %d dots", con.PPU().Frames(), con.Ticks())
	if runErr != nil {
		return fmt.Errorf("display error: %w", runErr)
	}

	return nil
}

// TestCmd runs a test ROM and reports results.
type TestCmd struct {
	ROM     string `arg:"" type:"existingfile" help:"Path to test ROM file."`
	Timeout int    `default:"30" help:"Timeout in seconds."`
	Verbose bool   `short:"v" help:"Show detailed output."`
}

// Run executes the test command.
func (c *TestCmd) Run() error {
	fmt.Printf("Running test ROM: %s\n", c.ROM)

	result := testrom.Run(c.ROM, time.Duration(c.Timeout)*time.Second)
	fmt.Printf("Result: %s\n", result.String())

	if c.Verbose || !result.IsSuccess() {
		fmt.Printf("\nOutput:\n%s\n", result.Output)
	}
	if c.Verbose {
		fmt.Printf("Frames: %d\n", result.Frames)
		logger.Write(os.Stdout)
	}

	if !result.IsSuccess() {
		return ErrTestFailed
	}

	return nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("dmgcore"),
		kong.Description("A Game Boy (DMG) emulator written in Go."),
		kong.UsageOnError(),
		kong.Vars{"statsview_url": statsviewURL},
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
