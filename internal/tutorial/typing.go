package tutorial

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// Session is a live interactive shell accepting keystrokes. Typing mutates
// the visible state of the session, which is exactly what the screen capture
// records; the session has no other output channel.
type Session interface {
	// TypeText emits literal text into the session.
	TypeText(text string) error
	// PressEnter submits the current line.
	PressEnter() error
	// PressBackspace deletes one character (used to undo auto-indent).
	PressBackspace() error
	// Submit executes the typed cell.
	Submit() error
	// WaitIdle blocks until the session finishes executing the cell. A fault
	// or timeout is reported as an error wrapping ErrExecution.
	WaitIdle(ctx context.Context) error
}

// DelayFunc returns the pause before emitting next, given the previously
// emitted rune. Implementations must be deterministic for a fixed seed so
// typing pacing is reproducible in tests.
type DelayFunc func(prev, next rune) time.Duration

// NewTypingDelay returns a DelayFunc sampling base±jitter from a seeded
// source, with a slightly longer pause after whitespace to mimic a human
// pausing between words and lines.
func NewTypingDelay(seed int64, base, jitter time.Duration) DelayFunc {
	rng := rand.New(rand.NewSource(seed))
	return func(prev, next rune) time.Duration {
		d := base
		if jitter > 0 {
			d += time.Duration(rng.Int63n(int64(2*jitter)+1)) - jitter
		}
		if prev == ' ' || prev == '\n' {
			d += base / 2
		}
		if d < 0 {
			d = 0
		}
		return d
	}
}

// TypingSimulator replays code into a live session with human-like pacing.
// When autoIndent is set (Jupyter's Python console indents for you), each
// line is typed stripped of leading whitespace and dedents are applied with
// backspaces, so the on-screen indentation matches the source.
type TypingSimulator struct {
	delay      DelayFunc
	byLine     bool
	autoIndent bool
	sleep      func(time.Duration)
}

// NewTypingSimulator returns a simulator. byLine emits whole lines instead
// of single characters.
func NewTypingSimulator(delay DelayFunc, byLine, autoIndent bool) *TypingSimulator {
	return &TypingSimulator{
		delay:      delay,
		byLine:     byLine,
		autoIndent: autoIndent,
		sleep:      time.Sleep,
	}
}

// Type emits code into sess, submits it, and waits for execution to finish.
// It stops immediately if the session reports an error mid-emission or the
// context is cancelled; the error is surfaced to the caller rather than
// silently skipping the segment.
func (s *TypingSimulator) Type(ctx context.Context, sess Session, code string) error {
	lines := strings.Split(strings.TrimRight(code, "\n"), "\n")

	var prev rune
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}

		emit := line
		dedent := 0
		if s.autoIndent {
			emit = strings.TrimLeft(line, " \t")
			if i+1 < len(lines) {
				if gap := indentWidth(lines[i+1]) - indentWidth(line); gap < 0 {
					dedent = -gap
				}
			}
		}

		if err := s.emitLine(ctx, sess, emit, &prev); err != nil {
			return err
		}
		if err := sess.PressEnter(); err != nil {
			return err
		}
		prev = '\n'

		for j := 0; j < dedent; j++ {
			if err := sess.PressBackspace(); err != nil {
				return err
			}
		}
	}

	if err := sess.Submit(); err != nil {
		return err
	}
	return sess.WaitIdle(ctx)
}

func (s *TypingSimulator) emitLine(ctx context.Context, sess Session, line string, prev *rune) error {
	if s.byLine {
		if err := sess.TypeText(line); err != nil {
			return err
		}
		s.sleep(s.delay(*prev, '\n'))
		return nil
	}
	for _, ch := range line {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sess.TypeText(string(ch)); err != nil {
			return err
		}
		s.sleep(s.delay(*prev, ch))
		*prev = ch
	}
	return nil
}

// indentWidth counts leading spaces and tabs (a tab counts as one column,
// which is all the dedent math needs).
func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
