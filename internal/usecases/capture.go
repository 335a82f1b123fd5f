package usecases

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"chamado.backend/internal/domain/entities"
	domainerrors "chamado.backend/internal/domain/errors"
	"chamado.backend/internal/domain/repositories"
	"chamado.backend/internal/infrastructure/metrics"
	"chamado.backend/pkg/logger"
)

// captureTick is the recording timer resolution.
const captureTick = time.Second

// newCaptureTicker starts the recording timer. It returns the tick channel
// and a stop function.
var newCaptureTicker = func(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// CaptureSession drives the identity video capture of one wizard:
// IDLE -> STREAMING -> RECORDING -> CAPTURED.
type CaptureSession struct {
	mu      sync.Mutex
	source  repositories.MediaSource
	metrics *metrics.Metrics
	now     func() time.Time

	state     entities.CaptureState
	elapsed   int
	cameraErr string

	stream   repositories.MediaStream
	recorder repositories.MediaRecorder
	video    *entities.VideoArtifact

	stopTicker func()
	done       chan struct{}
}

// NewCaptureSession creates an idle capture bound to a media source.
func NewCaptureSession(source repositories.MediaSource, m *metrics.Metrics) *CaptureSession {
	return &CaptureSession{
		source:  source,
		metrics: m,
		now:     time.Now,
		state:   entities.CaptureIdle,
	}
}

// Acquire opens the camera. A denied or failed request leaves the capture
// IDLE and is remembered as the camera error; it is not an error of the call.
func (c *CaptureSession) Acquire(ctx context.Context, grant entities.DeviceGrant) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case entities.CaptureStreaming:
		return nil
	case entities.CaptureIdle:
	default:
		return domainerrors.ErrInvalidCaptureState
	}
	c.acquireLocked(ctx, grant)
	return nil
}

func (c *CaptureSession) acquireLocked(ctx context.Context, grant entities.DeviceGrant) {
	stream, err := c.source.Open(ctx, grant)
	if err != nil {
		logger.Warn(ctx, "Camera access failed", zap.Error(err))
		c.cameraErr = err.Error()
		c.state = entities.CaptureIdle
		c.metrics.IncCapture("denied")
		return
	}
	c.stream = stream
	c.cameraErr = ""
	c.state = entities.CaptureStreaming
	c.metrics.IncCapture("acquired")
}

// StartRecording begins a recording of at most MaxRecordingSeconds.
func (c *CaptureSession) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != entities.CaptureStreaming || c.stream == nil {
		return domainerrors.ErrInvalidCaptureState
	}
	rec, err := c.stream.NewRecorder()
	if err != nil {
		return err
	}
	c.recorder = rec
	c.elapsed = 0
	c.state = entities.CaptureRecording

	ticks, stop := newCaptureTicker(captureTick)
	done := make(chan struct{})
	c.stopTicker = stop
	c.done = done
	go c.runTicker(ticks, done)

	c.metrics.IncCapture("started")
	logger.Debug(ctx, "Recording started")
	return nil
}

func (c *CaptureSession) runTicker(ticks <-chan time.Time, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			c.tick()
		}
	}
}

// tick advances the recording timer. The tick that finds 29 elapsed seconds
// stops the recording at exactly 30.
func (c *CaptureSession) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != entities.CaptureRecording {
		return
	}
	if c.elapsed >= entities.MaxRecordingSeconds-1 {
		c.elapsed = entities.MaxRecordingSeconds
		if err := c.finishLocked(); err != nil {
			logger.Error(context.Background(), "Failed to finalize recording", zap.Error(err))
			return
		}
		c.metrics.IncCapture("auto_stop")
		return
	}
	c.elapsed++
}

// AppendChunk adds encoded data to the running recording.
func (c *CaptureSession) AppendChunk(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != entities.CaptureRecording || c.recorder == nil {
		return domainerrors.ErrInvalidCaptureState
	}
	return c.recorder.Write(data)
}

// StopRecording finalizes the artifact and releases the camera.
func (c *CaptureSession) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != entities.CaptureRecording {
		return domainerrors.ErrInvalidCaptureState
	}
	if err := c.finishLocked(); err != nil {
		logger.Error(ctx, "Failed to finalize recording", zap.Error(err))
		return err
	}
	c.metrics.IncCapture("stopped")
	return nil
}

func (c *CaptureSession) finishLocked() error {
	c.stopTickerLocked()
	rec := c.recorder
	c.recorder = nil

	data, err := rec.Stop()
	if err != nil {
		c.stopStreamLocked()
		c.elapsed = 0
		c.state = entities.CaptureIdle
		return err
	}
	c.video = &entities.VideoArtifact{
		MimeType:   entities.VideoMimeType,
		Data:       data,
		Size:       len(data),
		Seconds:    c.elapsed,
		CapturedAt: c.now(),
	}
	c.stopStreamLocked()
	c.state = entities.CaptureCaptured
	return nil
}

// Reset discards the captured artifact and requests the camera again.
func (c *CaptureSession) Reset(ctx context.Context, grant entities.DeviceGrant) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != entities.CaptureCaptured {
		return domainerrors.ErrInvalidCaptureState
	}
	c.video = nil
	c.elapsed = 0
	c.state = entities.CaptureIdle
	c.metrics.IncCapture("reset")
	c.acquireLocked(ctx, grant)
	return nil
}

// Release stops the timer, any recorder and all tracks. An unfinished
// recording is discarded; a captured artifact is kept.
func (c *CaptureSession) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTickerLocked()
	if c.recorder != nil {
		_, _ = c.recorder.Stop()
		c.recorder = nil
	}
	c.stopStreamLocked()
	if c.state != entities.CaptureCaptured {
		c.state = entities.CaptureIdle
		c.elapsed = 0
	}
}

func (c *CaptureSession) stopTickerLocked() {
	if c.stopTicker != nil {
		c.stopTicker()
		c.stopTicker = nil
	}
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
}

func (c *CaptureSession) stopStreamLocked() {
	if c.stream != nil {
		c.stream.Stop()
		c.stream = nil
	}
}

// HasVideo reports whether an artifact has been captured.
func (c *CaptureSession) HasVideo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.video != nil
}

// CameraFailed reports whether the last camera request failed.
func (c *CaptureSession) CameraFailed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cameraErr != ""
}

// Video returns the captured artifact including its data.
func (c *CaptureSession) Video() (*entities.VideoArtifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.video == nil {
		return nil, false
	}
	v := *c.video
	return &v, true
}

// Snapshot returns the externally visible state.
func (c *CaptureSession) Snapshot() entities.CaptureSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := entities.CaptureSnapshot{
		State:       c.state,
		Elapsed:     c.elapsed,
		CameraError: c.cameraErr,
	}
	if c.state == entities.CaptureRecording {
		snap.Label = entities.RecordingLabel(c.elapsed)
	}
	if c.video != nil {
		v := *c.video
		v.Data = nil
		snap.Video = &v
	}
	return snap
}
