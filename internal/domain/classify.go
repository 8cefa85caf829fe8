package domain

import "fmt"

// Verdict is the classification of a finished run.
type Verdict struct {
	OK          bool
	Description string
}

// Classify maps a run result and the configured exit window to a verdict.
// It is total and side-effect-free: a timed-out run is always a failure, an
// exited run succeeds iff its code falls inside the window.
func Classify(result RunResult, window ExitWindow, command []string) Verdict {
	cmdline := CommandLine(command)

	if result.Kind == RunTimedOut {
		return Verdict{
			OK:          false,
			Description: fmt.Sprintf("command %s timed out after %ds", cmdline, result.TimeoutSecs),
		}
	}

	if window.Contains(result.ExitCode) {
		return Verdict{
			OK:          true,
			Description: fmt.Sprintf("command %s exited with code %d", cmdline, result.ExitCode),
		}
	}

	return Verdict{
		OK: false,
		Description: fmt.Sprintf("command %s exited with unexpected code %d (expected %d..%d)",
			cmdline, result.ExitCode, window.Min, window.Max),
	}
}
