package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogAndTail(t *testing.T) {
	Clear()
	defer Clear()

	Log("cpu", "first")
	Logf("ppu", "line %d", 144)

	var buf bytes.Buffer
	Write(&buf)

	want := "cpu: first\nppu: line 144\n"
	if buf.String() != want {
		t.Errorf("Write() = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	Tail(&buf, 1)
	if buf.String() != "ppu: line 144\n" {
		t.Errorf("Tail(1) = %q", buf.String())
	}
}

func TestRepeatsCollapse(t *testing.T) {
	Clear()
	defer Clear()

	for i := 0; i < 3; i++ {
		Log("cpu", "illegal opcode")
	}

	entries := Entries()
	if len(entries) != 1 {
		t.Fatalf("len(Entries()) = %d, want 1", len(entries))
	}
	if entries[0].Repeated != 2 {
		t.Errorf("Repeated = %d, want 2", entries[0].Repeated)
	}
	if !strings.Contains(entries[0].String(), "repeat x3") {
		t.Errorf("String() = %q, want repeat count", entries[0].String())
	}
}

func TestBounded(t *testing.T) {
	Clear()
	defer Clear()

	for i := 0; i < maxEntries+10; i++ {
		Logf("test", "entry %d", i)
	}

	entries := Entries()
	if len(entries) != maxEntries {
		t.Fatalf("len(Entries()) = %d, want %d", len(entries), maxEntries)
	}
	if entries[0].Detail != "entry 10" {
		t.Errorf("oldest entry = %q, want %q", entries[0].Detail, "entry 10")
	}
}

func TestEcho(t *testing.T) {
	Clear()
	defer Clear()

	var buf bytes.Buffer
	SetEcho(&buf)
	defer SetEcho(nil)

	Log("debug", "multi\nline")
	if buf.String() != "debug: multiline\n" {
		t.Errorf("echo = %q", buf.String())
	}
}
