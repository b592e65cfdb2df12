package tutorial

import (
	"strings"
	"testing"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain sentence", "We start by importing pandas.", "We start by importing pandas."},
		{"emphasis flattened", "This is **really** _important_.", "This is really important."},
		{"inline code kept", "Call `len(items)` to count them.", "Call len(items) to count them."},
		{"soft break becomes space", "first line\nsecond line", "first line second line"},
		{"heading and paragraph", "# Setup\n\nInstall the package first.", "Setup Install the package first."},
		{"fence only", "```python\nx = 1\n```", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPlainTextSkipsFencedCode(t *testing.T) {
	in := "Here we define the function.\n\n```python\ndef secret():\n    pass\n```\n\nThen we call it."
	got := PlainText(in)

	if strings.Contains(got, "def secret") {
		t.Errorf("fenced code leaked into narration: %q", got)
	}
	if !strings.Contains(got, "Here we define the function.") || !strings.Contains(got, "Then we call it.") {
		t.Errorf("surrounding prose lost: %q", got)
	}
}

func TestPlainTextList(t *testing.T) {
	got := PlainText("- first step\n- second step")
	if !strings.Contains(got, "first step") || !strings.Contains(got, "second step") {
		t.Errorf("list items lost: %q", got)
	}
}
