package flipbook

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// LogPayload is a structured diagnostic. Only Message is required.
type LogPayload struct {
	Message string
	// Remarks is a longer, human-oriented explanation.
	Remarks string
	// Stack is the stack trace associated with the problem, if any.
	Stack string
	// Object is an arbitrary value related to the problem.
	Object any
	// Inspect names the cell or scene the problem originated from.
	Inspect string
}

// Logger receives non-fatal diagnostics from the scheduler, the reactive
// graph and the playback manager.
type Logger interface {
	Warn(p LogPayload)
	Error(p LogPayload)
}

var (
	warnLabel  = color.New(color.Bold, color.FgYellow).SprintFunc()
	errorLabel = color.New(color.Bold, color.FgRed).SprintFunc()
	dimText    = color.New(color.Faint).SprintFunc()
)

// ConsoleLogger writes colored "[flipbook] warning:" and "[flipbook] error:"
// lines to a writer.
type ConsoleLogger struct {
	w io.Writer
	// Stacks enables printing of payload stack traces.
	Stacks bool
}

// NewConsoleLogger returns a ConsoleLogger writing to w. A nil w means stderr.
func NewConsoleLogger(w io.Writer) *ConsoleLogger {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleLogger{w: w}
}

// DefaultLogger is the logger used when none is configured.
func DefaultLogger() Logger {
	return NewConsoleLogger(os.Stderr)
}

func (l *ConsoleLogger) Warn(p LogPayload) {
	l.write(warnLabel("warning:"), p)
}

func (l *ConsoleLogger) Error(p LogPayload) {
	l.write(errorLabel("error:"), p)
}

func (l *ConsoleLogger) write(label string, p LogPayload) {
	msg := p.Message
	if p.Inspect != "" {
		msg = fmt.Sprintf("%s (%s)", msg, p.Inspect)
	}
	_, _ = fmt.Fprintf(l.w, "[flipbook] %s %s\n", label, msg)
	if p.Remarks != "" {
		for _, line := range strings.Split(strings.TrimRight(p.Remarks, "\n"), "\n") {
			_, _ = fmt.Fprintf(l.w, "           %s\n", dimText(line))
		}
	}
	if p.Object != nil {
		_, _ = fmt.Fprintf(l.w, "           %s\n", dimText(fmt.Sprintf("%+v", p.Object)))
	}
	if l.Stacks && p.Stack != "" {
		_, _ = fmt.Fprintln(l.w, dimText(p.Stack))
	}
}

// LogLevel distinguishes entries recorded by MemoryLogger.
type LogLevel uint8

const (
	LevelWarn LogLevel = iota
	LevelError
)

// LogEntry is one recorded diagnostic.
type LogEntry struct {
	Level   LogLevel
	Payload LogPayload
}

// MemoryLogger records every payload. Useful in tests and headless runs.
type MemoryLogger struct {
	Entries []LogEntry
}

func (l *MemoryLogger) Warn(p LogPayload) {
	l.Entries = append(l.Entries, LogEntry{Level: LevelWarn, Payload: p})
}

func (l *MemoryLogger) Error(p LogPayload) {
	l.Entries = append(l.Entries, LogEntry{Level: LevelError, Payload: p})
}

// Warnings returns the messages of all recorded warnings.
func (l *MemoryLogger) Warnings() []string {
	return l.messages(LevelWarn)
}

// Errors returns the messages of all recorded errors.
func (l *MemoryLogger) Errors() []string {
	return l.messages(LevelError)
}

func (l *MemoryLogger) messages(level LogLevel) []string {
	var out []string
	for _, e := range l.Entries {
		if e.Level == level {
			out = append(out, e.Payload.Message)
		}
	}
	return out
}

// Reset drops all recorded entries.
func (l *MemoryLogger) Reset() {
	l.Entries = l.Entries[:0]
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Warn(LogPayload)  {}
func (NopLogger) Error(LogPayload) {}
