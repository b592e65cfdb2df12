package tutorial

import (
	"errors"
	"fmt"
)

var (
	// ErrTopicExhausted is returned by a SegmentGenerator when the topic is
	// fully covered and no further segments will be proposed.
	ErrTopicExhausted = errors.New("topic exhausted")

	// ErrGeneration marks a retryable failure to produce a segment.
	ErrGeneration = errors.New("segment generation failed")

	// ErrExecution marks a segment whose code faulted (or timed out) in the
	// live session. Retryable by regenerating the segment.
	ErrExecution = errors.New("code execution failed")

	// ErrSynthesis marks a narration synthesis failure. The orchestrator
	// degrades the run rather than aborting.
	ErrSynthesis = errors.New("narration synthesis failed")

	// ErrCaptureAlreadyOpen is returned when a capture interval is opened
	// while a prior one is unsealed. Fatal: it indicates a resource leak.
	ErrCaptureAlreadyOpen = errors.New("capture interval already open")

	// ErrRecordingDeviceBusy is returned by a recorder whose underlying
	// device already has an active recording. Fatal, same as above.
	ErrRecordingDeviceBusy = errors.New("recording device busy")

	// ErrIntervalSealed is returned when closing a handle that is not the
	// currently open interval.
	ErrIntervalSealed = errors.New("capture interval already sealed")
)

// RunError is a run-level fatal failure with the offending segment index
// attached. Per-segment recoverable errors never escape the orchestrator;
// anything surfaced as a RunError terminated the run.
type RunError struct {
	SegmentIndex int
	Err          error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("tutorial run failed at segment %d: %v", e.SegmentIndex, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
