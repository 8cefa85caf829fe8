package infra

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/ward-cli/ward/internal/domain"
)

// Tags for records the supervisor writes about itself; captured lines use
// their stream name as the tag.
const (
	TagAlarm  = "ALARM"
	TagStatus = "STATUS"
	TagNotify = "NOTIFY"
)

// Logbook is the append-only run log. It is written only from the capture
// loop and the orchestrator, sequentially, so it needs no locking.
type Logbook struct {
	f *os.File
	w *bufio.Writer
}

// OpenLogbook opens path for appending, creating it if needed. The caller
// is expected to fail the whole invocation if this returns an error.
func OpenLogbook(path string) (*Logbook, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log %s: %w", path, err)
	}
	return &Logbook{f: f, w: bufio.NewWriter(f)}, nil
}

// Append writes one record with an explicit timestamp. A nil Logbook
// discards everything.
func (l *Logbook) Append(at time.Time, tag, text string) {
	if l == nil {
		return
	}
	fmt.Fprintf(l.w, "%s %-6s %s\n", at.Format(domain.TimeLayout), tag, text)
}

// Record writes one record stamped with the current time.
func (l *Logbook) Record(tag, text string) {
	l.Append(time.Now(), tag, text)
}

// Flush pushes buffered records to disk without closing the file.
func (l *Logbook) Flush() error {
	if l == nil {
		return nil
	}
	return l.w.Flush()
}

func (l *Logbook) Close() error {
	if l == nil {
		return nil
	}
	if err := l.w.Flush(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}
