// Package testrom runs test ROMs that report their result over the serial port.
package testrom

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/richardwooding/dmgcore/internal/cartridge"
	"github.com/richardwooding/dmgcore/internal/console"
)

// ErrTimeout indicates the ROM stopped producing output before reporting a result.
var ErrTimeout = errors.New("timeout waiting for serial output")

// Result represents the result of running a test ROM.
type Result struct {
	Title   string
	Output  string
	Passed  bool
	Failed  bool
	Timeout bool
	Error   error

	// Frames completed by the PPU, zero if the ROM kept the LCD off
	Frames uint64
}

// Run executes a test ROM headless and returns the result. The timeout
// restarts whenever the ROM writes new serial output.
func Run(romPath string, timeout time.Duration) *Result {
	result := &Result{}

	cart, err := cartridge.Load(romPath)
	if err != nil {
		result.Error = err
		return result
	}
	result.Title = cart.Title

	c, err := console.New(cart.Data, console.Options{})
	if err != nil {
		result.Error = fmt.Errorf("failed to create console: %w", err)
		return result
	}

	output, err := runUntilResult(c, timeout)
	result.Output = output
	result.Frames = c.PPU().Frames()
	if err != nil {
		result.Timeout = errors.Is(err, ErrTimeout)
		result.Error = err
		return result
	}

	// Check "Failed" first to avoid ambiguity if both strings are present
	result.Failed = strings.Contains(output, "Failed")
	result.Passed = strings.Contains(output, "Passed") && !result.Failed

	return result
}

// runUntilResult runs frames until the serial output contains "Passed" or
// "Failed", or until no new output arrives within timeout.
func runUntilResult(c *console.Console, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	lastLen := 0

	for {
		if err := c.RunFrame(); err != nil {
			return c.Serial(), err
		}

		output := c.Serial()
		if strings.Contains(output, "Passed") || strings.Contains(output, "Failed") {
			return output, nil
		}

		if len(output) > lastLen {
			lastLen = len(output)
			deadline = time.Now().Add(timeout)
		}
		if time.Now().After(deadline) {
			return output, ErrTimeout
		}
	}
}

// String returns a human-readable representation of the result.
func (r *Result) String() string {
	switch {
	case r.Timeout:
		return "TIMEOUT"
	case r.Error != nil:
		return fmt.Sprintf("ERROR: %v", r.Error)
	case r.Passed:
		return "PASSED"
	case r.Failed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the test passed.
func (r *Result) IsSuccess() bool {
	return r.Passed && !r.Failed && r.Error == nil
}
