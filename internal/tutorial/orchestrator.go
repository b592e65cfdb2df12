package tutorial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tutorial-orchestrator/internal/platform/metrics"
)

// DefaultRetryBudget caps reject/regenerate cycles for a single segment
// index; generation failures, rejections, and execution errors all draw
// from the same budget.
const DefaultRetryBudget = 3

// SegmentGenerator proposes the next code segment for a topic, conditioned
// on the transcript of executed segments and optional reviewer feedback.
// Returns ErrTopicExhausted when the topic is fully covered.
type SegmentGenerator interface {
	Propose(ctx context.Context, topic string, transcript []Segment, feedback string) (Segment, error)
}

// Options configures an Orchestrator. Metrics may be nil to disable metric
// recording (e.g. in tests).
type Options struct {
	RetryBudget int           // <= 0 means DefaultRetryBudget
	Padding     time.Duration // held after each segment before sealing
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Orchestrator is the state machine that sequences generation, approval,
// capture, typing, and narration per segment, and registers the sealed
// intervals and clips on the run. A single control goroutine drives it;
// narration playback in Parallel mode is the only concurrent side process,
// and the orchestrator waits on it before sealing.
type Orchestrator struct {
	gen       SegmentGenerator
	gate      ApprovalGate
	typist    *TypingSimulator
	session   Session
	capture   *CaptureController
	narration *NarrationRecorder

	log         *slog.Logger
	met         *metrics.Metrics
	retryBudget int
	padding     time.Duration
	sleep       func(time.Duration)

	mu  sync.Mutex
	run *TutorialRun
}

// NewOrchestrator wires the pipeline components together.
func NewOrchestrator(gen SegmentGenerator, gate ApprovalGate, typist *TypingSimulator, session Session, capture *CaptureController, narration *NarrationRecorder, opts Options) *Orchestrator {
	budget := opts.RetryBudget
	if budget <= 0 {
		budget = DefaultRetryBudget
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		gen:         gen,
		gate:        gate,
		typist:      typist,
		session:     session,
		capture:     capture,
		narration:   narration,
		log:         log,
		met:         opts.Metrics,
		retryBudget: budget,
		padding:     opts.Padding,
		sleep:       time.Sleep,
	}
}

// Run drives the full pipeline for the given run until the topic is
// exhausted, the reviewer aborts, or a fatal failure occurs.
//
// A clean abort (reviewer decision or context cancellation) leaves the run
// in StateAborted with a nil error and zero open capture handles. Fatal
// failures return a *RunError carrying the offending segment index; the run
// is unwound the same way. On normal completion the run is in StateDone.
func (o *Orchestrator) Run(ctx context.Context, run *TutorialRun) error {
	o.setRun(run)
	o.transition(run, StateGenerating)

	index := 0
	retries := 0
	feedback := ""

	for {
		if ctx.Err() != nil {
			o.unwind(run)
			return nil
		}

		seg, err := o.gen.Propose(ctx, run.Topic, run.Transcript(), feedback)
		feedback = ""
		if errors.Is(err, ErrTopicExhausted) {
			o.transition(run, StateDone)
			o.log.Info("topic exhausted, run complete",
				slog.Int("segments", len(run.Segments)),
				slog.Bool("degraded", run.Degraded))
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				o.unwind(run)
				return nil
			}
			retries++
			o.log.Warn("segment generation failed",
				slog.Int("index", index),
				slog.Int("attempt", retries),
				slog.String("error", err.Error()))
			if retries > o.retryBudget {
				return o.fail(run, index, fmt.Errorf("%w: %v", ErrGeneration, err))
			}
			continue
		}
		seg.Index = index
		seg.Status = StatusProposed
		if o.met != nil {
			o.met.IncSegmentsGenerated()
		}

		o.transition(run, StateAwaitingApproval)
		verdict, err := o.gate.Review(seg)
		if err != nil {
			return o.fail(run, index, err)
		}
		switch verdict.Decision {
		case Abort:
			o.log.Info("run aborted by reviewer", slog.Int("index", index))
			o.unwind(run)
			return nil
		case Reject:
			retries++
			if o.met != nil {
				o.met.IncSegmentsRejected()
			}
			if retries > o.retryBudget {
				return o.fail(run, index, fmt.Errorf("%w: rejected %d times", ErrGeneration, retries))
			}
			feedback = verdict.Feedback
			o.transition(run, StateGenerating)
			continue
		}
		seg.Status = StatusApproved
		if o.met != nil {
			o.met.IncSegmentsApproved()
		}

		iv, clip, err := o.executeSegment(ctx, run, seg)
		if err != nil {
			if ctx.Err() != nil {
				o.unwind(run)
				return nil
			}
			if errors.Is(err, ErrExecution) {
				retries++
				o.log.Warn("segment execution failed",
					slog.Int("index", index),
					slog.Int("attempt", retries),
					slog.String("error", err.Error()))
				if retries > o.retryBudget {
					return o.fail(run, index, err)
				}
				feedback = fmt.Sprintf("the previous snippet failed to execute (%v); produce a corrected replacement", err)
				o.transition(run, StateGenerating)
				continue
			}
			return o.fail(run, index, err)
		}

		o.transition(run, StateSealing)
		seg.Status = StatusExecuted
		o.mu.Lock()
		run.Segments = append(run.Segments, seg)
		run.Intervals = append(run.Intervals, iv)
		if clip != nil {
			run.Clips = append(run.Clips, *clip)
		} else {
			run.Degraded = true
		}
		o.mu.Unlock()
		if o.met != nil {
			o.met.IncSegmentsExecuted()
		}
		o.log.Info("segment sealed",
			slog.Int("index", index),
			slog.Float64("capture_start", iv.StartOffset),
			slog.Float64("capture_end", iv.EndOffset),
			slog.Bool("narrated", clip != nil))

		index++
		retries = 0
		o.transition(run, StateGenerating)
	}
}

// executeSegment drives capture, typing, and narration for one approved
// segment. The returned clip is nil when narration was dropped after the
// synthesis retry (the run degrades). The recorder is always released before
// returning, whatever happens.
func (o *Orchestrator) executeSegment(ctx context.Context, run *TutorialRun, seg Segment) (CaptureInterval, *NarrationClip, error) {
	var clip *NarrationClip

	// Parallel narration is synthesized up front so provider latency stays
	// outside the recording; only playback shares the interval with typing.
	if run.Mode == NarrationParallel {
		c, err := o.narration.Synthesize(ctx, seg)
		if err != nil {
			o.noteNarrationDropped(seg.Index, err)
		} else {
			clip = &c
		}
	}

	o.transition(run, StateCapturing)
	handle, err := o.capture.Open(seg.Index)
	if err != nil {
		return CaptureInterval{}, nil, err
	}
	sealed := false
	defer func() {
		if !sealed {
			if cerr := o.capture.CloseOpen(); cerr != nil {
				o.log.Error("releasing recorder after failure", slog.String("error", cerr.Error()))
			}
		}
	}()

	var playback <-chan error
	if clip != nil {
		playback = o.narration.BeginPlayback(ctx, *clip)
	}

	typeErr := o.typist.Type(ctx, o.session, seg.Code)

	if playback != nil {
		// Wait for the later of typing and playback; capture must not cut
		// off either stream.
		o.transition(run, StateNarrating)
		if perr := <-playback; perr != nil && typeErr == nil && ctx.Err() == nil {
			o.log.Warn("narration playback failed",
				slog.Int("segment", seg.Index),
				slog.String("error", perr.Error()))
		}
	}

	if typeErr != nil {
		if ctx.Err() != nil {
			return CaptureInterval{}, nil, ctx.Err()
		}
		if !errors.Is(typeErr, ErrExecution) {
			typeErr = fmt.Errorf("%w: %v", ErrExecution, typeErr)
		}
		return CaptureInterval{}, nil, typeErr
	}

	if o.padding > 0 {
		o.sleep(o.padding)
	}

	iv, err := o.capture.Close(handle)
	sealed = true
	if err != nil {
		return CaptureInterval{}, nil, err
	}

	switch run.Mode {
	case NarrationParallel:
		if clip != nil {
			clip.StartOffset = iv.StartOffset
		}
	default:
		c, serr := o.narration.Synthesize(ctx, seg)
		if serr != nil {
			o.noteNarrationDropped(seg.Index, serr)
		} else {
			c.StartOffset = iv.EndOffset
			clip = &c
		}
	}

	return iv, clip, nil
}

func (o *Orchestrator) noteNarrationDropped(index int, err error) {
	o.log.Warn("dropping narration for segment, run degrades",
		slog.Int("segment", index),
		slog.String("error", err.Error()))
	if o.met != nil {
		o.met.IncNarrationFailures()
	}
}

// unwind closes any open capture interval and marks the run aborted.
// Partial artifacts for the aborted segment are never registered.
func (o *Orchestrator) unwind(run *TutorialRun) {
	if err := o.capture.CloseOpen(); err != nil {
		o.log.Error("releasing recorder during abort", slog.String("error", err.Error()))
	}
	o.transition(run, StateAborted)
}

func (o *Orchestrator) fail(run *TutorialRun, index int, err error) error {
	o.unwind(run)
	return &RunError{SegmentIndex: index, Err: err}
}

func (o *Orchestrator) setRun(run *TutorialRun) {
	o.mu.Lock()
	o.run = run
	o.mu.Unlock()
}

func (o *Orchestrator) transition(run *TutorialRun, s RunState) {
	o.mu.Lock()
	run.State = s
	o.mu.Unlock()
	o.log.Debug("state transition", slog.String("state", string(s)))
}

// RunSnapshot is a point-in-time view of the run for the status endpoint.
type RunSnapshot struct {
	RunID            string        `json:"run_id,omitempty"`
	Topic            string        `json:"topic,omitempty"`
	State            RunState      `json:"state"`
	Mode             NarrationMode `json:"narration_mode,omitempty"`
	SegmentsExecuted int           `json:"segments_executed"`
	ClipsRecorded    int           `json:"clips_recorded"`
	Degraded         bool          `json:"degraded"`
}

// Snapshot returns the current run state; safe to call from other
// goroutines while Run is in flight.
func (o *Orchestrator) Snapshot() RunSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.run == nil {
		return RunSnapshot{State: StateIdle}
	}
	return RunSnapshot{
		RunID:            o.run.ID,
		Topic:            o.run.Topic,
		State:            o.run.State,
		Mode:             o.run.Mode,
		SegmentsExecuted: len(o.run.Segments),
		ClipsRecorded:    len(o.run.Clips),
		Degraded:         o.run.Degraded,
	}
}
