// Package shell manages the live Jupyter console: the terminal window it
// runs in (wmctrl, xwininfo) and keystroke injection into it (xdotool).
package shell

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Geometry is a window's absolute position and size on screen.
type Geometry struct {
	X, Y, Width, Height int
}

// FindWindow returns the X11 id and owning process id of the first window
// whose title contains title, from `wmctrl -lp` output. The PID is the
// process the window manager attributes the window to, which for a terminal
// is the live terminal server process, not the launcher that spawned it.
func FindWindow(title string) (id string, pid int, err error) {
	out, err := exec.Command("wmctrl", "-lp").Output()
	if err != nil {
		return "", 0, fmt.Errorf("wmctrl: %w", err)
	}
	id, pid, ok := parseWindow(string(out), title)
	if !ok {
		return "", 0, fmt.Errorf("no window matching %q", title)
	}
	return id, pid, nil
}

func parseWindow(wmctrlOutput, title string) (id string, pid int, ok bool) {
	for _, line := range strings.Split(wmctrlOutput, "\n") {
		if !strings.Contains(line, title) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		p, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		return fields[0], p, true
	}
	return "", 0, false
}

// WindowGeometry returns the absolute geometry of the window via xwininfo.
func WindowGeometry(windowID string) (Geometry, error) {
	out, err := exec.Command("xwininfo", "-id", windowID).Output()
	if err != nil {
		return Geometry{}, fmt.Errorf("xwininfo %s: %w", windowID, err)
	}
	return parseGeometry(string(out))
}

func parseGeometry(xwininfoOutput string) (Geometry, error) {
	fields := map[string]int{}
	for _, line := range strings.Split(xwininfoOutput, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		fields[key] = n
	}

	g := Geometry{}
	for key, dst := range map[string]*int{
		"Absolute upper-left X": &g.X,
		"Absolute upper-left Y": &g.Y,
		"Width":                 &g.Width,
		"Height":                &g.Height,
	} {
		n, ok := fields[key]
		if !ok {
			return Geometry{}, fmt.Errorf("xwininfo output missing %q", key)
		}
		*dst = n
	}
	return g, nil
}

// Fullscreen puts the window into fullscreen so the capture region is stable.
func Fullscreen(windowID string) error {
	if err := exec.Command("wmctrl", "-ir", windowID, "-b", "add,fullscreen").Run(); err != nil {
		return fmt.Errorf("wmctrl fullscreen %s: %w", windowID, err)
	}
	return nil
}

// CloseWindow asks the window manager to close the window.
func CloseWindow(windowID string) error {
	if err := exec.Command("wmctrl", "-ic", windowID).Run(); err != nil {
		return fmt.Errorf("wmctrl close %s: %w", windowID, err)
	}
	return nil
}
