package tutorial

import (
	"context"
	"errors"
	"testing"
	"time"
)

// keylogSession records the exact keystroke sequence a simulator emits.
type keylogSession struct {
	events  []string
	failAt  int // 1-based event count at which TypeText fails; 0 disables
	waitErr error
}

func (s *keylogSession) record(ev string) { s.events = append(s.events, ev) }

func (s *keylogSession) TypeText(t string) error {
	s.record("type:" + t)
	if s.failAt > 0 && len(s.events) >= s.failAt {
		return errors.New("keystroke injection failed")
	}
	return nil
}

func (s *keylogSession) PressEnter() error     { s.record("enter"); return nil }
func (s *keylogSession) PressBackspace() error { s.record("backspace"); return nil }
func (s *keylogSession) Submit() error         { s.record("submit"); return nil }
func (s *keylogSession) WaitIdle(ctx context.Context) error {
	s.record("wait")
	return s.waitErr
}

func noDelay(prev, next rune) time.Duration { return 0 }

func newKeylogSimulator(byLine, autoIndent bool) *TypingSimulator {
	sim := NewTypingSimulator(noDelay, byLine, autoIndent)
	sim.sleep = func(time.Duration) {}
	return sim
}

func TestTypeCharacterByCharacter(t *testing.T) {
	sess := &keylogSession{}
	sim := newKeylogSimulator(false, false)

	if err := sim.Type(context.Background(), sess, "ab\ncd\n"); err != nil {
		t.Fatalf("Type() error = %v", err)
	}

	want := []string{
		"type:a", "type:b", "enter",
		"type:c", "type:d", "enter",
		"submit", "wait",
	}
	assertEvents(t, sess.events, want)
}

func TestTypeByLine(t *testing.T) {
	sess := &keylogSession{}
	sim := newKeylogSimulator(true, false)

	if err := sim.Type(context.Background(), sess, "x = 1\nprint(x)"); err != nil {
		t.Fatalf("Type() error = %v", err)
	}

	want := []string{
		"type:x = 1", "enter",
		"type:print(x)", "enter",
		"submit", "wait",
	}
	assertEvents(t, sess.events, want)
}

func TestTypeAutoIndentStripsAndDedents(t *testing.T) {
	sess := &keylogSession{}
	sim := newKeylogSimulator(true, true)

	code := "def f():\n    return 1\nprint(f())"
	if err := sim.Type(context.Background(), sess, code); err != nil {
		t.Fatalf("Type() error = %v", err)
	}

	// The console indents the body itself, so the indented line is typed
	// stripped and the drop back to column zero costs four backspaces.
	want := []string{
		"type:def f():", "enter",
		"type:return 1", "enter",
		"backspace", "backspace", "backspace", "backspace",
		"type:print(f())", "enter",
		"submit", "wait",
	}
	assertEvents(t, sess.events, want)
}

func TestTypeSessionErrorStopsEmission(t *testing.T) {
	sess := &keylogSession{failAt: 2}
	sim := newKeylogSimulator(false, false)

	if err := sim.Type(context.Background(), sess, "abc"); err == nil {
		t.Fatal("Type() = nil, want session error")
	}
	for _, ev := range sess.events {
		if ev == "submit" {
			t.Error("cell was submitted after a failed keystroke")
		}
	}
}

func TestTypeCancelledContext(t *testing.T) {
	sess := &keylogSession{}
	sim := newKeylogSimulator(false, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sim.Type(ctx, sess, "x = 1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Type() error = %v, want context.Canceled", err)
	}
	if len(sess.events) != 0 {
		t.Errorf("events after cancel = %v, want none", sess.events)
	}
}

func TestTypeSurfacesWaitError(t *testing.T) {
	sess := &keylogSession{waitErr: errors.New("kernel wedged")}
	sim := newKeylogSimulator(true, false)

	if err := sim.Type(context.Background(), sess, "x = 1"); err == nil {
		t.Fatal("Type() = nil, want wait error")
	}
}

func TestTypingDelayDeterministicForSeed(t *testing.T) {
	sample := func() []time.Duration {
		delay := NewTypingDelay(42, 100*time.Millisecond, 60*time.Millisecond)
		out := make([]time.Duration, 0, 20)
		prev := rune(0)
		for _, ch := range "def f():\n    pass" {
			out = append(out, delay(prev, ch))
			prev = ch
		}
		return out
	}

	a, b := sample(), sample()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("delay %d differs across runs with the same seed: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestTypingDelayNeverNegative(t *testing.T) {
	// Jitter larger than base would go negative without the clamp.
	delay := NewTypingDelay(1, 10*time.Millisecond, 200*time.Millisecond)
	for i := 0; i < 100; i++ {
		if d := delay('a', 'b'); d < 0 {
			t.Fatalf("delay = %v, want >= 0", d)
		}
	}
}

func TestTypingDelayPausesAfterWhitespace(t *testing.T) {
	// Zero jitter makes the sample deterministic without a seed dependency.
	delay := NewTypingDelay(0, 100*time.Millisecond, 0)

	if got := delay('a', 'b'); got != 100*time.Millisecond {
		t.Errorf("delay after letter = %v, want 100ms", got)
	}
	if got := delay(' ', 'b'); got != 150*time.Millisecond {
		t.Errorf("delay after space = %v, want 150ms", got)
	}
	if got := delay('\n', 'b'); got != 150*time.Millisecond {
		t.Errorf("delay after newline = %v, want 150ms", got)
	}
}

func assertEvents(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d events %v, want %d events %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}
}
