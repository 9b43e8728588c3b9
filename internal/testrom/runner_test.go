package testrom

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeROM writes a 32 KiB ROM that runs setup, prints msg over serial and
// then loops.
func writeROM(t *testing.T, msg string, setup ...byte) string {
	t.Helper()

	rom := make([]byte, 0x8000)
	copy(rom[0x0134:], "SERIALTEST")

	pc := 0x0100
	emit := func(b ...byte) {
		copy(rom[pc:], b)
		pc += len(b)
	}
	emit(setup...)
	for _, ch := range []byte(msg) {
		emit(0x3E, ch, 0xE0, 0x01)   // LD A,ch; LDH (SB),A
		emit(0x3E, 0x81, 0xE0, 0x02) // LD A,$81; LDH (SC),A
	}
	emit(0x18, 0xFE) // JR -2

	path := filepath.Join(t.TempDir(), "serial.gb")
	if err := os.WriteFile(path, rom, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
		passed bool
	}{
		{"passed", "cpu_instrs\n\nPassed\n", "PASSED", true},
		{"failed", "01-special\n\nFailed #2\n", "FAILED", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Run(writeROM(t, tt.output), 5*time.Second)

			if result.Error != nil {
				t.Fatalf("Run() error = %v", result.Error)
			}
			if result.Title != "SERIALTEST" {
				t.Errorf("Title = %q, want SERIALTEST", result.Title)
			}
			if result.Output != tt.output {
				t.Errorf("Output = %q, want %q", result.Output, tt.output)
			}
			if result.String() != tt.want {
				t.Errorf("String() = %q, want %q", result.String(), tt.want)
			}
			if result.IsSuccess() != tt.passed {
				t.Errorf("IsSuccess() = %v, want %v", result.IsSuccess(), tt.passed)
			}
		})
	}
}

func TestRunTimeout(t *testing.T) {
	result := Run(writeROM(t, "running"), 50*time.Millisecond)

	if !result.Timeout || !errors.Is(result.Error, ErrTimeout) {
		t.Fatalf("Run() = %+v, want timeout", result)
	}
	if result.Output != "running" {
		t.Errorf("Output = %q, want %q", result.Output, "running")
	}
	if result.String() != "TIMEOUT" {
		t.Errorf("String() = %q, want TIMEOUT", result.String())
	}
	if result.Frames == 0 {
		t.Error("Frames = 0, want frames while waiting")
	}
}

func TestRunTimeoutLCDOff(t *testing.T) {
	// XOR A; LDH (LCDC),A
	path := writeROM(t, "off", 0xAF, 0xE0, 0x40)

	done := make(chan *Result, 1)
	go func() {
		done <- Run(path, 50*time.Millisecond)
	}()

	var result *Result
	select {
	case result = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not time out with the LCD off")
	}

	if !result.Timeout {
		t.Fatalf("Run() = %+v, want timeout", result)
	}
	if result.Output != "off" {
		t.Errorf("Output = %q, want %q", result.Output, "off")
	}
	if result.Frames != 0 {
		t.Errorf("Frames = %d, want 0", result.Frames)
	}
}

func TestRunMissingROM(t *testing.T) {
	result := Run(filepath.Join(t.TempDir(), "missing.gb"), time.Second)

	if !errors.Is(result.Error, os.ErrNotExist) {
		t.Errorf("Error = %v, want os.ErrNotExist", result.Error)
	}
	if result.IsSuccess() {
		t.Error("IsSuccess() = true for a missing ROM")
	}
}
