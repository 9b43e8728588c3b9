// Package logger keeps a single bounded log for the whole application.
//
// Entries are a tag naming the subsystem and a one-line detail. Consecutive
// identical entries are collapsed into one with a repeat count, so a ROM that
// hammers an illegal opcode does not flood the log.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// maximum number of entries kept by the central log.
const maxEntries = 256

// Entry is a single line in the log.
type Entry struct {
	Timestamp time.Time
	Tag       string
	Detail    string
	Repeated  int
}

func (e Entry) String() string {
	if e.Repeated > 0 {
		return fmt.Sprintf("%s: %s (repeat x%d)", e.Tag, e.Detail, e.Repeated+1)
	}
	return fmt.Sprintf("%s: %s", e.Tag, e.Detail)
}

type logger struct {
	mu      sync.Mutex
	entries []Entry
	echo    io.Writer
}

var central = &logger{}

// Log adds an entry to the central log.
func Log(tag, detail string) {
	central.log(tag, detail)
}

// Logf adds a formatted entry to the central log.
func Logf(tag, format string, args ...any) {
	central.log(tag, fmt.Sprintf(format, args...))
}

// SetEcho writes every new entry to output as well. A nil writer stops echoing.
func SetEcho(output io.Writer) {
	central.mu.Lock()
	defer central.mu.Unlock()
	central.echo = output
}

// Clear removes all entries.
func Clear() {
	central.mu.Lock()
	defer central.mu.Unlock()
	central.entries = central.entries[:0]
}

// Entries returns a copy of the current entries, oldest first.
func Entries() []Entry {
	central.mu.Lock()
	defer central.mu.Unlock()
	return append([]Entry(nil), central.entries...)
}

// Write writes every entry to output.
func Write(output io.Writer) {
	Tail(output, maxEntries)
}

// Tail writes the last n entries to output.
func Tail(output io.Writer, n int) {
	entries := Entries()
	if n < len(entries) {
		entries = entries[len(entries)-n:]
	}
	for _, e := range entries {
		_, _ = io.WriteString(output, e.String()+"\n")
	}
}

func (l *logger) log(tag, detail string) {
	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if n := len(l.entries); n > 0 && l.entries[n-1].Tag == tag && l.entries[n-1].Detail == detail {
		l.entries[n-1].Repeated++
		l.entries[n-1].Timestamp = now
	} else {
		l.entries = append(l.entries, Entry{Timestamp: now, Tag: tag, Detail: detail})
		if len(l.entries) > maxEntries {
			l.entries = l.entries[len(l.entries)-maxEntries:]
		}
	}

	if l.echo != nil {
		_, _ = io.WriteString(l.echo, Entry{Tag: tag, Detail: detail}.String()+"\n")
	}
}
