package tutorial

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// SegmentStatus tracks a segment through its lifecycle.
type SegmentStatus string

const (
	StatusProposed SegmentStatus = "proposed"
	StatusApproved SegmentStatus = "approved"
	StatusRejected SegmentStatus = "rejected"
	StatusExecuted SegmentStatus = "executed"
)

// NarrationMode selects when narration audio plays relative to typing.
type NarrationMode string

const (
	// NarrationAfter records the visual segment first; the clip is aligned
	// to start exactly where the capture interval ends.
	NarrationAfter NarrationMode = "after"

	// NarrationParallel plays narration concurrently with typing; the
	// capture interval closes when the later of the two finishes.
	NarrationParallel NarrationMode = "parallel"
)

// ParseNarrationMode converts a CLI/config string into a NarrationMode.
func ParseNarrationMode(s string) (NarrationMode, bool) {
	switch NarrationMode(s) {
	case NarrationAfter, NarrationParallel:
		return NarrationMode(s), true
	}
	return "", false
}

// ApprovalPolicy selects how proposed segments are reviewed.
type ApprovalPolicy string

const (
	ApprovalManual ApprovalPolicy = "manual"
	ApprovalForce  ApprovalPolicy = "force-approve"
)

// Segment is one unit of generated code plus its narration text.
// Immutable once its status reaches StatusExecuted.
type Segment struct {
	Index       int           `json:"index"`
	Code        string        `json:"code"`
	Explanation string        `json:"explanation"`
	Status      SegmentStatus `json:"status"`
}

// NarrationClip is a synthesized audio clip aligned to one segment.
// StartOffset is in seconds relative to the run's capture epoch.
type NarrationClip struct {
	SegmentIndex int     `json:"segment_index"`
	Path         string  `json:"path"`
	StartOffset  float64 `json:"start_offset"`
	Duration     float64 `json:"duration"`
}

// CaptureInterval is one sealed recording span. Offsets are in seconds
// relative to the run's capture epoch (the moment the first interval opened).
type CaptureInterval struct {
	SegmentIndex int     `json:"segment_index"`
	Path         string  `json:"path"`
	StartOffset  float64 `json:"start_offset"`
	EndOffset    float64 `json:"end_offset"`
}

// Duration returns the interval length in seconds.
func (iv CaptureInterval) Duration() float64 {
	return iv.EndOffset - iv.StartOffset
}

// RunState is the orchestrator state machine's current state.
type RunState string

const (
	StateIdle             RunState = "idle"
	StateGenerating       RunState = "generating"
	StateAwaitingApproval RunState = "awaiting_approval"
	StateCapturing        RunState = "capturing"
	StateNarrating        RunState = "narrating"
	StateSealing          RunState = "sealing"
	StateDone             RunState = "done"
	StateAborted          RunState = "aborted"
)

// TutorialRun is the aggregate for a single CLI invocation: the topic, the
// chosen modes, and the ordered segments, capture intervals, and narration
// clips sealed so far. Segments, Intervals, and Clips share index ordering;
// on a degraded run, Clips may be missing entries for segments whose
// narration synthesis failed.
type TutorialRun struct {
	ID        string         `json:"id"`
	Topic     string         `json:"topic"`
	Mode      NarrationMode  `json:"narration_mode"`
	Policy    ApprovalPolicy `json:"approval_policy"`
	StartedAt time.Time      `json:"started_at"`

	State     RunState          `json:"state"`
	Segments  []Segment         `json:"segments"`
	Intervals []CaptureInterval `json:"intervals"`
	Clips     []NarrationClip   `json:"clips"`
	Degraded  bool              `json:"degraded"`
}

// NewTutorialRun creates a run in StateIdle with a fresh ULID.
func NewTutorialRun(topic string, mode NarrationMode, policy ApprovalPolicy) *TutorialRun {
	return &TutorialRun{
		ID:        ulid.Make().String(),
		Topic:     topic,
		Mode:      mode,
		Policy:    policy,
		StartedAt: time.Now().UTC(),
		State:     StateIdle,
	}
}

// Transcript returns a copy of the executed segments, in order. It is the
// read-only generation context; callers never mutate the run through it.
func (r *TutorialRun) Transcript() []Segment {
	out := make([]Segment, len(r.Segments))
	copy(out, r.Segments)
	return out
}
