package shell

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"tutorial-orchestrator/internal/tutorial"
)

const (
	// startupDelay gives jupyter console time to reach its prompt before
	// the window is located and typing begins.
	startupDelay = 6 * time.Second

	idlePollInterval = 500 * time.Millisecond
	executionTimeout = 60 * time.Second
)

// ConsoleSession is a live Jupyter console running in its own terminal
// window, driven by xdotool keystroke injection. Implements tutorial.Session.
type ConsoleSession struct {
	kernel   string
	windowID string
	pid      int
	log      *slog.Logger

	ticks       func() (uint64, error)
	idlePoll    time.Duration
	execTimeout time.Duration
}

// OpenConsoleSession launches `jupyter console` for the kernel in a new
// terminal window, waits for it to settle, and locates the window.
func OpenConsoleSession(kernel string, log *slog.Logger) (*ConsoleSession, error) {
	cmd := exec.Command("gnome-terminal", "--", "jupyter", "console", "--kernel", kernel)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launching jupyter console: %w", err)
	}
	// The launcher hands the console off to the terminal server and exits
	// almost immediately; reap it and track the window's owner instead.
	go func() { _ = cmd.Wait() }()

	time.Sleep(startupDelay)

	windowID, pid, err := FindWindow("Terminal")
	if err != nil {
		return nil, err
	}

	log.Info("jupyter console ready",
		slog.String("kernel", kernel),
		slog.String("window_id", windowID),
		slog.Int("pid", pid))

	s := &ConsoleSession{
		kernel:      kernel,
		windowID:    windowID,
		pid:         pid,
		log:         log,
		idlePoll:    idlePollInterval,
		execTimeout: executionTimeout,
	}
	s.ticks = s.procTicks
	return s, nil
}

// WindowID returns the X11 id of the console's terminal window.
func (s *ConsoleSession) WindowID() string { return s.windowID }

// TypeText implements tutorial.Session.
func (s *ConsoleSession) TypeText(text string) error {
	return s.xdotool("type", "--window", s.windowID, "--delay", "0", "--", text)
}

// PressEnter implements tutorial.Session.
func (s *ConsoleSession) PressEnter() error {
	return s.xdotool("key", "--window", s.windowID, "Return")
}

// PressBackspace implements tutorial.Session.
func (s *ConsoleSession) PressBackspace() error {
	return s.xdotool("key", "--window", s.windowID, "BackSpace")
}

// Submit executes the typed cell (alt+enter runs the cell in jupyter
// console regardless of cursor position).
func (s *ConsoleSession) Submit() error {
	return s.xdotool("key", "--window", s.windowID, "alt+Return")
}

// WaitIdle blocks until the console finishes executing the cell: the
// window's owning process stops accruing CPU time between polls. A cell
// that never settles within the execution timeout is surfaced as a
// retryable execution error.
func (s *ConsoleSession) WaitIdle(ctx context.Context) error {
	deadline := time.Now().Add(s.execTimeout)
	prev, _ := s.ticks()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.idlePoll):
		}

		cur, err := s.ticks()
		if err == nil && cur == prev {
			return nil
		}
		prev = cur

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: cell did not settle within %s", tutorial.ErrExecution, s.execTimeout)
		}
	}
}

// Close closes the console's terminal window.
func (s *ConsoleSession) Close() error {
	return CloseWindow(s.windowID)
}

func (s *ConsoleSession) xdotool(args ...string) error {
	out, err := exec.Command("xdotool", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("xdotool %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (s *ConsoleSession) procTicks() (uint64, error) {
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", s.pid))
	if err != nil {
		return 0, err
	}
	return parseCPUTicks(string(stat))
}

// parseCPUTicks sums utime and stime from /proc/<pid>/stat. The comm field
// may contain spaces, so fields are counted from after the closing paren.
func parseCPUTicks(stat string) (uint64, error) {
	idx := strings.LastIndex(stat, ")")
	if idx < 0 {
		return 0, fmt.Errorf("malformed stat line")
	}
	// After comm the fields start at state, so utime and stime land at
	// offsets 11 and 12.
	fields := strings.Fields(stat[idx+1:])
	if len(fields) < 13 {
		return 0, fmt.Errorf("stat line has %d fields", len(fields))
	}
	utime, err := strconv.ParseUint(fields[11], 10, 64)
	if err != nil {
		return 0, err
	}
	stime, err := strconv.ParseUint(fields[12], 10, 64)
	if err != nil {
		return 0, err
	}
	return utime + stime, nil
}
