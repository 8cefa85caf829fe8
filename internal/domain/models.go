package domain

import (
	"fmt"
	"strings"
	"time"
)

// Stream identifies which of the three supervised streams a line came from.
type Stream string

const (
	StreamStdin  Stream = "STDIN"
	StreamStdout Stream = "STDOUT"
	StreamStderr Stream = "STDERR"
)

// TimeLayout is the timestamp format used in logbook records and alert
// transcripts.
const TimeLayout = "2006-01-02 15:04:05 -0700"

// streamPad keeps stream tags aligned in rendered transcripts.
const streamPad = 6

type RunConfig struct {
	Command    []string
	Timeout    time.Duration
	Window     ExitWindow
	EchoStdout bool
	EchoStderr bool
	LogFile    string
	ServiceKey string
	Endpoint   string
	Quiet      bool
}

// ExitWindow is the inclusive range of exit codes considered a success.
type ExitWindow struct {
	Min int
	Max int
}

func (w ExitWindow) Contains(code int) bool {
	return w.Min <= code && code <= w.Max
}

// CapturedLine is one timestamped line observed on a supervised stream.
// Text has its line terminator and trailing whitespace stripped.
type CapturedLine struct {
	At     time.Time
	Stream Stream
	Text   string
}

func (l CapturedLine) String() string {
	return fmt.Sprintf("%s %-*s %s", l.At.Format(TimeLayout), streamPad, string(l.Stream), l.Text)
}

// Transcript is the append-only buffer of captured lines for a single run.
// It is written only by the supervisor loop and becomes read-only once the
// run terminates. Lines from the same stream appear in read order;
// cross-stream order reflects observed readiness interleaving and is not a
// chronological guarantee.
type Transcript struct {
	lines []CapturedLine
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) Append(at time.Time, stream Stream, text string) CapturedLine {
	line := CapturedLine{At: at, Stream: stream, Text: text}
	t.lines = append(t.lines, line)
	return line
}

func (t *Transcript) Len() int {
	return len(t.lines)
}

func (t *Transcript) Lines() []CapturedLine {
	return t.lines
}

// Render formats the transcript one line per entry, suitable for the alert
// details field.
func (t *Transcript) Render() string {
	var b strings.Builder
	for _, line := range t.lines {
		b.WriteString(line.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// RunResultKind distinguishes a reaped child from a watchdog timeout.
type RunResultKind int

const (
	RunExited RunResultKind = iota
	RunTimedOut
)

// RunResult is the terminal outcome of a single supervised run. The
// supervisor produces exactly one per invocation; once a timeout is latched
// a later exit observation never replaces it.
type RunResult struct {
	Kind        RunResultKind
	ExitCode    int
	TimeoutSecs int
	StartedAt   time.Time
	FinishedAt  time.Time
}

func (r RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// CommandLine renders argv as a single readable string, quoting arguments
// that contain whitespace.
func CommandLine(argv []string) string {
	parts := make([]string, 0, len(argv))
	for _, arg := range argv {
		if strings.ContainsAny(arg, " \t") {
			parts = append(parts, fmt.Sprintf("%q", arg))
		} else {
			parts = append(parts, arg)
		}
	}
	return strings.Join(parts, " ")
}

// NormalizeLine strips the line terminator and trailing whitespace from a
// raw captured line.
func NormalizeLine(raw string) string {
	return strings.TrimRight(raw, " \t\r\n")
}
