package tutorial

import (
	"sync"
	"time"
)

// Recorder is the screen recording device. At most one recording may be
// active process-wide; Start while busy must fail with ErrRecordingDeviceBusy.
type Recorder interface {
	// Start begins recording the interval file for the given segment.
	Start(segmentIndex int) error
	// Stop finalizes the current recording and returns the file path.
	Stop() (path string, err error)
}

// CaptureHandle identifies one open, unsealed capture interval.
type CaptureHandle struct {
	segmentIndex int
	startOffset  float64
}

// SegmentIndex reports which segment this handle records.
func (h *CaptureHandle) SegmentIndex() int { return h.segmentIndex }

// CaptureController owns the recording device and enforces the
// single-open-interval invariant with an explicit busy flag, so concurrent
// access bugs fail loudly instead of corrupting recordings.
type CaptureController struct {
	rec Recorder
	now func() time.Time

	mu    sync.Mutex
	epoch time.Time // zero until the first interval opens
	open  *CaptureHandle
}

// NewCaptureController returns a controller over rec.
func NewCaptureController(rec Recorder) *CaptureController {
	return &CaptureController{rec: rec, now: time.Now}
}

// Open starts recording for the given segment and returns its handle.
// Fails with ErrCaptureAlreadyOpen while a prior interval is unsealed.
func (c *CaptureController) Open(segmentIndex int) (*CaptureHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open != nil {
		return nil, ErrCaptureAlreadyOpen
	}

	now := c.now()
	if c.epoch.IsZero() {
		c.epoch = now
	}

	if err := c.rec.Start(segmentIndex); err != nil {
		return nil, err
	}

	h := &CaptureHandle{
		segmentIndex: segmentIndex,
		startOffset:  now.Sub(c.epoch).Seconds(),
	}
	c.open = h
	return h, nil
}

// Close seals the interval: the end offset is fixed and the recorder is
// released. The handle is invalid afterwards.
func (c *CaptureController) Close(h *CaptureHandle) (CaptureInterval, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h == nil || c.open != h {
		return CaptureInterval{}, ErrIntervalSealed
	}
	c.open = nil

	path, err := c.rec.Stop()
	if err != nil {
		return CaptureInterval{}, err
	}

	return CaptureInterval{
		SegmentIndex: h.segmentIndex,
		Path:         path,
		StartOffset:  h.startOffset,
		EndOffset:    c.now().Sub(c.epoch).Seconds(),
	}, nil
}

// CloseOpen seals and discards whatever interval is open, if any. Used when
// unwinding an abort or a fatal failure; the partial artifact is not
// registered with the run.
func (c *CaptureController) CloseOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open == nil {
		return nil
	}
	c.open = nil
	_, err := c.rec.Stop()
	return err
}

// OpenCount reports the number of open handles (0 or 1).
func (c *CaptureController) OpenCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open != nil {
		return 1
	}
	return 0
}
