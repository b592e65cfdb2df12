package tutorial

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Synthesizer converts narration text into an audio clip on disk and reports
// its duration in seconds.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (path string, durationSeconds float64, err error)
}

// Player plays an audio clip through the narration channel, blocking until
// playback finishes.
type Player interface {
	Play(ctx context.Context, path string) error
}

// NarrationRecorder produces timed narration clips for approved segments.
// Synthesis is retried once; a second failure is reported as ErrSynthesis so
// the orchestrator can degrade the run instead of aborting it.
type NarrationRecorder struct {
	synth  Synthesizer
	player Player
	log    *slog.Logger
}

// NewNarrationRecorder returns a recorder over the given synthesizer and
// player. player may be nil when only After mode is used.
func NewNarrationRecorder(synth Synthesizer, player Player, log *slog.Logger) *NarrationRecorder {
	return &NarrationRecorder{synth: synth, player: player, log: log}
}

// Synthesize produces the clip for one segment. The explanation arrives as
// markdown from the generator; it is flattened to plain text first so fence
// markers and emphasis syntax are never spoken. StartOffset is left zero for
// the orchestrator to align once the capture interval is known.
func (n *NarrationRecorder) Synthesize(ctx context.Context, seg Segment) (NarrationClip, error) {
	text := PlainText(seg.Explanation)
	if strings.TrimSpace(text) == "" {
		return NarrationClip{}, fmt.Errorf("%w: segment %d has no narration text", ErrSynthesis, seg.Index)
	}

	path, dur, err := n.synth.Synthesize(ctx, text)
	if err != nil {
		n.log.Warn("narration synthesis failed, retrying once",
			slog.Int("segment", seg.Index),
			slog.String("error", err.Error()))
		path, dur, err = n.synth.Synthesize(ctx, text)
	}
	if err != nil {
		return NarrationClip{}, fmt.Errorf("%w: segment %d: %v", ErrSynthesis, seg.Index, err)
	}

	return NarrationClip{SegmentIndex: seg.Index, Path: path, Duration: dur}, nil
}

// BeginPlayback starts playing clip and returns a channel that yields the
// playback result when it finishes. Cancelling ctx stops playback.
func (n *NarrationRecorder) BeginPlayback(ctx context.Context, clip NarrationClip) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- n.player.Play(ctx, clip.Path)
	}()
	return done
}
