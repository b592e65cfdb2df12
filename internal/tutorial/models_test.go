package tutorial

import "testing"

func TestParseNarrationMode(t *testing.T) {
	tests := []struct {
		in   string
		want NarrationMode
		ok   bool
	}{
		{"after", NarrationAfter, true},
		{"parallel", NarrationParallel, true},
		{"", "", false},
		{"During", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseNarrationMode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseNarrationMode(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNewTutorialRun(t *testing.T) {
	a := NewTutorialRun("generators", NarrationAfter, ApprovalManual)
	b := NewTutorialRun("generators", NarrationAfter, ApprovalManual)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("run ids not unique: %q, %q", a.ID, b.ID)
	}
	if a.State != StateIdle {
		t.Errorf("initial state = %q, want %q", a.State, StateIdle)
	}
}

func TestTranscriptIsACopy(t *testing.T) {
	run := doneRun()
	tr := run.Transcript()
	tr[0].Code = "mutated"

	if run.Segments[0].Code == "mutated" {
		t.Error("mutating the transcript reached the run")
	}
}

func TestCaptureIntervalDuration(t *testing.T) {
	iv := CaptureInterval{StartOffset: 2.5, EndOffset: 10.0}
	if got := iv.Duration(); got != 7.5 {
		t.Errorf("Duration() = %v, want 7.5", got)
	}
}
