package tutorial

import (
	"strings"
	"testing"
)

func TestForceApproveGate(t *testing.T) {
	v, err := ForceApproveGate{}.Review(Segment{Index: 3, Code: "x = 1"})
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if v.Decision != Accept {
		t.Errorf("decision = %v, want Accept", v.Decision)
	}
}

func TestManualGateDecisions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Verdict
	}{
		{"yes accepts", "yes\n", Verdict{Decision: Accept}},
		{"short yes accepts", "y\n", Verdict{Decision: Accept}},
		{"uppercase yes accepts", "YES\n", Verdict{Decision: Accept}},
		{"abort aborts", "abort\n", Verdict{Decision: Abort}},
		{"quit aborts", "q\n", Verdict{Decision: Abort}},
		{"closed input aborts", "", Verdict{Decision: Abort}},
		{
			"no collects feedback",
			"no\nAdd a docstring\n",
			Verdict{Decision: Reject, Feedback: "Add a docstring"},
		},
		{
			// The decision word is case-insensitive but the feedback line is
			// passed through untouched.
			"feedback is verbatim",
			"NO\nUse F-Strings Instead\n",
			Verdict{Decision: Reject, Feedback: "Use F-Strings Instead"},
		},
		{"closed input during feedback aborts", "no\n", Verdict{Decision: Abort}},
		{"malformed answer re-prompts", "maybe\n\nyes\n", Verdict{Decision: Accept}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			gate := NewManualGate(strings.NewReader(tt.input), &out)

			got, err := gate.Review(Segment{Index: 0, Code: "print('hi')", Explanation: "Prints a greeting."})
			if err != nil {
				t.Fatalf("Review() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Review() = %+v, want %+v", got, tt.want)
			}
			if !strings.Contains(out.String(), "print('hi')") {
				t.Error("prompt did not show the segment code")
			}
		})
	}
}

func TestManualGateRepromptCount(t *testing.T) {
	var out strings.Builder
	gate := NewManualGate(strings.NewReader("nope\nkinda\nyes\n"), &out)

	if _, err := gate.Review(Segment{Code: "x = 1"}); err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if got := strings.Count(out.String(), "[yes/no/abort]"); got != 3 {
		t.Errorf("prompted %d times, want 3", got)
	}
}

func TestNewGateSelectsPolicy(t *testing.T) {
	if _, ok := NewGate(ApprovalForce, strings.NewReader(""), &strings.Builder{}).(ForceApproveGate); !ok {
		t.Error("force policy did not produce a ForceApproveGate")
	}
	if _, ok := NewGate(ApprovalManual, strings.NewReader(""), &strings.Builder{}).(*ManualGate); !ok {
		t.Error("manual policy did not produce a ManualGate")
	}
}
