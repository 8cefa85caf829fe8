package domain

import (
	"strings"
	"testing"
)

func TestClassify_ExitWindow(t *testing.T) {
	cases := []struct {
		name   string
		code   int
		window ExitWindow
		wantOK bool
	}{
		{"zero in zero window", 0, ExitWindow{0, 0}, true},
		{"one outside zero window", 1, ExitWindow{0, 0}, false},
		{"low edge", 2, ExitWindow{2, 5}, true},
		{"high edge", 5, ExitWindow{2, 5}, true},
		{"below window", 1, ExitWindow{2, 5}, false},
		{"above window", 6, ExitWindow{2, 5}, false},
		{"negative code", -1, ExitWindow{0, 0}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := Classify(RunResult{Kind: RunExited, ExitCode: tc.code}, tc.window, []string{"true"})
			if v.OK != tc.wantOK {
				t.Errorf("Classify(Exited(%d), [%d,%d]).OK = %v, want %v",
					tc.code, tc.window.Min, tc.window.Max, v.OK, tc.wantOK)
			}
		})
	}
}

func TestClassify_TimedOutAlwaysFails(t *testing.T) {
	v := Classify(RunResult{Kind: RunTimedOut, TimeoutSecs: 1}, ExitWindow{-100, 100}, []string{"sleep", "5"})
	if v.OK {
		t.Error("timed-out run classified as OK")
	}
	if !strings.Contains(v.Description, "1s") {
		t.Errorf("description %q, want to mention the 1s timeout", v.Description)
	}
	if !strings.Contains(v.Description, "sleep 5") {
		t.Errorf("description %q, want to mention the command line", v.Description)
	}
}

func TestClassify_OutOfWindowDescription(t *testing.T) {
	v := Classify(RunResult{Kind: RunExited, ExitCode: 3}, ExitWindow{0, 0}, []string{"sh", "-c", "exit 3"})
	if v.OK {
		t.Error("out-of-window exit classified as OK")
	}
	if !strings.Contains(v.Description, "3") {
		t.Errorf("description %q, want to mention code 3", v.Description)
	}
	if !strings.Contains(v.Description, "sh -c") {
		t.Errorf("description %q, want to mention the command", v.Description)
	}
	if !strings.Contains(v.Description, `"exit 3"`) {
		t.Errorf("description %q, want the whitespace argument quoted", v.Description)
	}
}

func TestClassify_Pure(t *testing.T) {
	result := RunResult{Kind: RunExited, ExitCode: 7}
	window := ExitWindow{0, 5}
	command := []string{"make", "deploy"}

	first := Classify(result, window, command)
	second := Classify(result, window, command)
	if first != second {
		t.Errorf("Classify not idempotent: %+v vs %+v", first, second)
	}
}
