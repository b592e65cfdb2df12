package tutorial

import (
	"fmt"
	"strings"
)

// Assembly is the sealed, ordered output handed to the external mux step:
// per-segment interval files with aligned narration offsets, preserving
// segment order and per-segment timing exactly as sealed.
type Assembly struct {
	RunID    string            `json:"run_id"`
	Topic    string            `json:"topic"`
	Mode     NarrationMode     `json:"narration_mode"`
	Degraded bool              `json:"degraded"`
	Segments []AssemblySegment `json:"segments"`
}

// AssemblySegment pairs one capture interval with its narration clip.
// Audio fields are empty for degraded segments.
type AssemblySegment struct {
	Index         int     `json:"index"`
	VideoPath     string  `json:"video_path"`
	VideoStart    float64 `json:"video_start"`
	VideoEnd      float64 `json:"video_end"`
	AudioPath     string  `json:"audio_path,omitempty"`
	AudioStart    float64 `json:"audio_start,omitempty"`
	AudioDuration float64 `json:"audio_duration,omitempty"`
}

// BuildAssembly validates the run's ordering invariants and produces the
// mux plan. It fails if the run did not complete, if intervals are out of
// order or overlap, or if a narration clip is missing without the run being
// flagged degraded.
func BuildAssembly(run *TutorialRun) (Assembly, error) {
	if run.State != StateDone {
		return Assembly{}, fmt.Errorf("cannot assemble run in state %q", run.State)
	}
	if len(run.Intervals) != len(run.Segments) {
		return Assembly{}, fmt.Errorf("%d intervals for %d executed segments", len(run.Intervals), len(run.Segments))
	}

	clips := make(map[int]NarrationClip, len(run.Clips))
	for _, c := range run.Clips {
		clips[c.SegmentIndex] = c
	}

	out := Assembly{
		RunID:    run.ID,
		Topic:    run.Topic,
		Mode:     run.Mode,
		Degraded: run.Degraded,
		Segments: make([]AssemblySegment, 0, len(run.Segments)),
	}

	prevEnd := 0.0
	for i, seg := range run.Segments {
		if seg.Status != StatusExecuted {
			return Assembly{}, fmt.Errorf("segment %d registered with status %q", seg.Index, seg.Status)
		}
		if seg.Index != i {
			return Assembly{}, fmt.Errorf("segment at position %d has index %d", i, seg.Index)
		}

		iv := run.Intervals[i]
		if iv.SegmentIndex != seg.Index {
			return Assembly{}, fmt.Errorf("interval at position %d belongs to segment %d", i, iv.SegmentIndex)
		}
		if iv.EndOffset < iv.StartOffset {
			return Assembly{}, fmt.Errorf("interval %d ends before it starts", iv.SegmentIndex)
		}
		if iv.StartOffset < prevEnd {
			return Assembly{}, fmt.Errorf("interval %d overlaps its predecessor", iv.SegmentIndex)
		}
		prevEnd = iv.EndOffset

		as := AssemblySegment{
			Index:      seg.Index,
			VideoPath:  iv.Path,
			VideoStart: iv.StartOffset,
			VideoEnd:   iv.EndOffset,
		}
		clip, ok := clips[seg.Index]
		if !ok && !run.Degraded {
			return Assembly{}, fmt.Errorf("segment %d has no narration clip and run is not degraded", seg.Index)
		}
		if ok {
			as.AudioPath = clip.Path
			as.AudioStart = clip.StartOffset
			as.AudioDuration = clip.Duration
		}
		out.Segments = append(out.Segments, as)
	}

	return out, nil
}

// ConcatManifest renders an ffconcat playlist of the capture interval files
// in segment order, for the external concatenation step.
func ConcatManifest(intervals []CaptureInterval) string {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, iv := range intervals {
		fmt.Fprintf(&b, "file '%s'\n", iv.Path)
		fmt.Fprintf(&b, "duration %.3f\n", iv.Duration())
	}
	return b.String()
}
