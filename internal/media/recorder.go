// Package media drives ffmpeg, ffprobe, and ffplay for screen capture,
// duration probing, and narration playback.
package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"tutorial-orchestrator/internal/tutorial"
)

// DefaultFPS is the capture frame rate.
const DefaultFPS = 20

// Region is the screen rectangle to capture, in absolute X11 coordinates.
type Region struct {
	X, Y, Width, Height int
}

// Recorder captures a screen region with ffmpeg's x11grab, writing one file
// per capture interval. Implements tutorial.Recorder; the controller above
// it guarantees segment-serial use.
type Recorder struct {
	dir     string
	display string
	region  Region
	fps     int
	bin     string
	log     *slog.Logger

	cmd  *exec.Cmd
	path string
}

// NewRecorder returns a recorder writing interval files into dir.
// display is the X11 display, e.g. ":0".
func NewRecorder(dir, display string, region Region, fps int, log *slog.Logger) *Recorder {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Recorder{dir: dir, display: display, region: region, fps: fps, bin: "ffmpeg", log: log}
}

// Start implements tutorial.Recorder.
func (r *Recorder) Start(segmentIndex int) error {
	if r.cmd != nil {
		return tutorial.ErrRecordingDeviceBusy
	}

	// Trim the edges slightly to keep compositor borders out of frame.
	x, y := r.region.X+2, r.region.Y+2
	w, h := r.region.Width-2, r.region.Height-2

	path := filepath.Join(r.dir, fmt.Sprintf("capture_%03d.mp4", segmentIndex))
	args := []string{
		"-f", "x11grab",
		"-r", strconv.Itoa(r.fps),
		"-video_size", fmt.Sprintf("%dx%d", w, h),
		"-i", fmt.Sprintf("%s.0+%d,%d", r.display, x, y),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-movflags", "+faststart",
		"-y", path,
	}

	cmd := exec.Command(r.bin, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting ffmpeg: %w", err)
	}

	r.log.Debug("capture started",
		slog.Int("segment", segmentIndex),
		slog.String("path", path))
	r.cmd, r.path = cmd, path
	return nil
}

// Stop implements tutorial.Recorder: it signals ffmpeg to finalize the
// container and waits for it to exit.
func (r *Recorder) Stop() (string, error) {
	if r.cmd == nil {
		return "", errors.New("recorder not running")
	}
	cmd, path := r.cmd, r.path
	r.cmd, r.path = nil, ""

	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		_ = cmd.Process.Kill()
	}
	if err := cmd.Wait(); err != nil {
		// ffmpeg exits non-zero when interrupted; the file is still valid.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("stopping ffmpeg: %w", err)
		}
	}

	r.log.Debug("capture stopped", slog.String("path", path))
	return path, nil
}
