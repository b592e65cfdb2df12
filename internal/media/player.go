package media

import (
	"context"
	"fmt"
	"os/exec"
)

// FFplay plays audio clips through the default output device. Implements
// tutorial.Player. Cancelling the context stops playback.
type FFplay struct {
	bin string
}

// NewFFplay returns a player using ffplay from PATH.
func NewFFplay() *FFplay {
	return &FFplay{bin: "ffplay"}
}

// Play blocks until the clip finishes.
func (p *FFplay) Play(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, p.bin, "-nodisp", "-autoexit", "-loglevel", "quiet", path)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffplay %s: %w", path, err)
	}
	return nil
}
