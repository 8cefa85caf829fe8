package infra

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ward-cli/ward/internal/domain"
)

// pollTick bounds how long the loop waits before re-checking child state
// and the watchdog latch.
const pollTick = 1 * time.Second

// streamEvent is one line (or EOF) observed on a supervised stream.
type streamEvent struct {
	stream domain.Stream
	raw    string // line including its terminator, for forwarding and echo
	eof    bool
}

// Supervisor spawns the child command in its own process group and
// multiplexes its three stdio streams. One goroutine reads each stream and
// feeds a merge channel; a single consumer loop owns the transcript and the
// logbook, so no captured state is ever written from two goroutines. A
// dedicated forwarder goroutine owns the child's stdin, so a child that
// stops reading can never wedge the loop.
type Supervisor struct {
	Stdin   io.Reader // supervisor's own stdin, forwarded to the child
	Stdout  io.Writer // echo sink for child stdout when enabled
	Stderr  io.Writer // echo sink for child stderr when enabled
	Logbook *Logbook  // optional; nil discards records

	tick time.Duration
}

func NewSupervisor(logbook *Logbook) *Supervisor {
	return &Supervisor{
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Logbook: logbook,
		tick:    pollTick,
	}
}

// Run executes cfg.Command and drives the capture loop until the child has
// been reaped and both output pipes are drained. Captured lines are appended
// to transcript in observed readiness order. A spawn failure is returned as
// an error; every other outcome, including a timeout kill, is data in the
// returned RunResult.
func (s *Supervisor) Run(ctx context.Context, cfg *domain.RunConfig, transcript *domain.Transcript) (domain.RunResult, error) {
	result := domain.RunResult{Kind: domain.RunExited, StartedAt: time.Now()}

	cmd := exec.Command(cfg.Command[0], cfg.Command[1:]...)
	setupProcessGroup(cmd)

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return result, fmt.Errorf("stdin pipe: %w", err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		stdinR.Close()
		stdinW.Close()
		return result, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdinR.Close()
		stdinW.Close()
		stdoutR.Close()
		stdoutW.Close()
		return result, fmt.Errorf("stderr pipe: %w", err)
	}

	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		for _, f := range []*os.File{stdinR, stdinW, stdoutR, stdoutW, stderrR, stderrW} {
			f.Close()
		}
		return result, fmt.Errorf("starting %s: %w", cfg.Command[0], err)
	}

	// The child owns its ends now; keeping them open here would hold the
	// output pipes past the child's exit and stall the readers at EOF.
	stdinR.Close()
	stdoutW.Close()
	stderrW.Close()
	defer stdinW.Close()

	events := make(chan streamEvent, 64)

	var readers errgroup.Group
	readers.Go(func() error {
		readLines(stdoutR, domain.StreamStdout, events)
		return stdoutR.Close()
	})
	readers.Go(func() error {
		readLines(stderrR, domain.StreamStderr, events)
		return stderrR.Close()
	})

	// Exactly one reaper, regardless of how the run ends.
	waitCh := make(chan int, 1)
	go func() { waitCh <- reapChild(cmd) }()

	pgid := cmd.Process.Pid
	watchdog := NewWatchdog(cfg.Timeout, pgid)
	watchdog.Arm()
	defer watchdog.Disarm()

	// The forwarder may stay blocked on the supervisor's stdin long after
	// the child is gone, so it is deliberately not part of the errgroup.
	var childGone atomic.Bool
	if s.Stdin != nil {
		go forwardInput(s.Stdin, stdinW, &childGone, watchdog, events)
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	var (
		exited    bool
		exitCode  int
		openPipes = 2 // child stdout + stderr still before EOF
		alarmed   bool
	)
	cancel := ctx.Done()

	record := func(stream domain.Stream, raw string) {
		line := transcript.Append(time.Now(), stream, domain.NormalizeLine(raw))
		s.Logbook.Append(line.At, string(line.Stream), line.Text)
	}

	// The loop ends only when the child has been reaped and both output
	// pipes hit EOF, so output buffered at exit time is never lost.
	for !exited || openPipes > 0 {
		if watchdog.Fired() && !alarmed {
			alarmed = true
			s.Logbook.Record(TagAlarm, fmt.Sprintf("timeout after %s, terminating process group", cfg.Timeout))
		}

		select {
		case ev := <-events:
			switch {
			case ev.eof:
				// EOF on the supervisor's own stdin only stops forwarding.
				if ev.stream != domain.StreamStdin {
					openPipes--
				}
			default:
				record(ev.stream, ev.raw)
				if sink := s.echoSink(cfg, ev.stream); sink != nil {
					io.WriteString(sink, ev.raw)
				}
			}
		case code := <-waitCh:
			exited = true
			childGone.Store(true)
			exitCode = code
			watchdog.Disarm()
		case <-ticker.C:
			// Bounded wait; fall through to re-check the latches.
		case <-cancel:
			// The group id is only valid while the child is unreaped; after
			// that it could belong to someone else.
			if !exited {
				killProcessGroup(pgid, syscall.SIGKILL)
			}
			cancel = nil
		}
	}
	readers.Wait()

	result.FinishedAt = time.Now()
	result.ExitCode = exitCode
	if watchdog.Fired() {
		// Latched: a reap observed during the grace window must not turn
		// this back into a plain exit.
		result.Kind = domain.RunTimedOut
		result.TimeoutSecs = int(cfg.Timeout / time.Second)
	}
	return result, nil
}

func (s *Supervisor) echoSink(cfg *domain.RunConfig, stream domain.Stream) io.Writer {
	switch stream {
	case domain.StreamStdout:
		if cfg.EchoStdout {
			return s.Stdout
		}
	case domain.StreamStderr:
		if cfg.EchoStderr {
			return s.Stderr
		}
	}
	return nil
}

// forwardInput owns the write end of the child's stdin so the consumer
// loop never blocks on a stalled child. Lines are forwarded verbatim while
// the child is alive and not timed out, then handed to the loop for
// recording; afterwards they are still read, to unblock the producer, but
// discarded. A broken pipe from a child that closed its stdin early is a
// no-op and the line still counts as forwarded.
func forwardInput(src io.Reader, dst io.Writer, gone *atomic.Bool, watchdog *Watchdog, events chan<- streamEvent) {
	br := bufio.NewReader(src)
	for {
		raw, err := br.ReadString('\n')
		if raw != "" && !gone.Load() && !watchdog.Fired() {
			if _, werr := io.WriteString(dst, raw); werr == nil || errors.Is(werr, syscall.EPIPE) {
				events <- streamEvent{stream: domain.StreamStdin, raw: raw}
			}
		}
		if err != nil {
			events <- streamEvent{stream: domain.StreamStdin, eof: true}
			return
		}
	}
}

// readLines sends one event per line until EOF. A final line without a
// terminator is still delivered before the EOF event.
func readLines(r io.Reader, stream domain.Stream, events chan<- streamEvent) {
	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadString('\n')
		if raw != "" {
			events <- streamEvent{stream: stream, raw: raw}
		}
		if err != nil {
			events <- streamEvent{stream: stream, eof: true}
			return
		}
	}
}

// reapChild waits for the child exactly once and decodes its exit status.
// A child killed by a signal maps to 128+signal, shell style.
func reapChild(cmd *exec.Cmd) int {
	err := cmd.Wait()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code, ok := signalExitCode(exitErr); ok {
			return code
		}
		return exitErr.ExitCode()
	}
	return -1
}
