package media

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFprobe reports media durations using the ffprobe binary. Implements
// speech.Prober.
type FFprobe struct {
	bin string
}

// NewFFprobe returns a prober using ffprobe from PATH.
func NewFFprobe() *FFprobe {
	return &FFprobe{bin: "ffprobe"}
}

// Duration returns the duration of the media file at path, in seconds.
func (p *FFprobe) Duration(ctx context.Context, path string) (float64, error) {
	out, err := exec.CommandContext(ctx, p.bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: parsing duration: %w", path, err)
	}
	return dur, nil
}
