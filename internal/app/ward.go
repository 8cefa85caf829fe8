package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/ward-cli/ward/internal/domain"
	"github.com/ward-cli/ward/internal/infra"
	"github.com/ward-cli/ward/internal/ui"
)

// ExitInternal is the process exit code used when the child never produced
// a status of its own (spawn failure, unopenable log, bad configuration).
const ExitInternal = 125

// Notifier delivers the failure alert. Satisfied by alert.Client.
type Notifier interface {
	Trigger(ctx context.Context, description, details string) error
}

// Ward wires the validator, supervisor, classifier and alert dispatcher
// into a single run.
type Ward struct {
	validator *domain.ConfigValidator
	notifier  Notifier

	// Stdio seams; default to the process's own streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func NewWard(notifier Notifier) *Ward {
	return &Ward{
		validator: domain.NewConfigValidator(),
		notifier:  notifier,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
}

// Execute supervises one run of cfg.Command and returns the process exit
// code the invocation should use: the child's own code on any completed run
// (in or out of the window, timed out or not), ExitInternal when the child
// never produced a status. A failed alert dispatch is reported but never
// changes the exit code.
func (w *Ward) Execute(ctx context.Context, cfg *domain.RunConfig) (int, error) {
	if err := w.validator.Validate(cfg); err != nil {
		return ExitInternal, err
	}

	var logbook *infra.Logbook
	if cfg.LogFile != "" {
		lb, err := infra.OpenLogbook(cfg.LogFile)
		if err != nil {
			return ExitInternal, err
		}
		logbook = lb
	}

	runID := uuid.New().String()
	cmdline := domain.CommandLine(cfg.Command)
	logbook.Record(infra.TagStatus, fmt.Sprintf("run %s started: %s", runID, cmdline))

	sup := infra.NewSupervisor(logbook)
	sup.Stdin = w.Stdin
	sup.Stdout = w.Stdout
	sup.Stderr = w.Stderr

	transcript := domain.NewTranscript()
	result, err := sup.Run(ctx, cfg, transcript)
	if err != nil {
		logbook.Record(infra.TagStatus, fmt.Sprintf("run %s aborted: %v", runID, err))
		logbook.Close()
		return ExitInternal, err
	}

	verdict := domain.Classify(result, cfg.Window, cfg.Command)
	logbook.Record(infra.TagStatus, fmt.Sprintf("run %s finished: %s", runID, verdict.Description))

	if !verdict.OK {
		// Capture is over; flush before touching the network.
		if ferr := logbook.Flush(); ferr != nil {
			fmt.Fprintf(w.Stderr, "ward: flushing log: %v\n", ferr)
		}
		w.dispatch(ctx, logbook, verdict, transcript)
	}

	if cerr := logbook.Close(); cerr != nil {
		fmt.Fprintf(w.Stderr, "ward: closing log: %v\n", cerr)
	}

	if !cfg.Quiet {
		ui.Summary(w.Stderr, result, verdict)
	}

	return result.ExitCode, nil
}

func (w *Ward) dispatch(ctx context.Context, logbook *infra.Logbook, verdict domain.Verdict, transcript *domain.Transcript) {
	if w.notifier == nil {
		logbook.Record(infra.TagNotify, "no notifier configured, alert not sent")
		fmt.Fprintln(w.Stderr, "ward: no service key configured, alert not sent")
		return
	}

	details := transcript.Render()
	if details == "" {
		details = "(no output captured)"
	}

	if err := w.notifier.Trigger(ctx, verdict.Description, details); err != nil {
		logbook.Record(infra.TagNotify, fmt.Sprintf("alert dispatch failed: %v", err))
		fmt.Fprintf(w.Stderr, "ward: alert dispatch failed: %v\n", err)
		return
	}
	logbook.Record(infra.TagNotify, "alert dispatched")
}
