package audio

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type captureState int

const (
	captureIdle captureState = iota
	captureActive
	captureStopped
)

// Capturer owns one Device and runs the Idle -> Capturing -> Stopped
// lifecycle around a Recorder. A nil device means the environment exposes
// no audio input at all.
type Capturer struct {
	mu       sync.Mutex
	device   Device
	recorder *Recorder
	state    captureState
	logger   *zap.Logger
}

// NewCapturer wraps a host audio device. Pass a nil device to represent an
// environment without audio input; Start then fails with
// ErrEnvironmentUnsupported.
func NewCapturer(device Device, logger *zap.Logger) *Capturer {
	return &Capturer{device: device, logger: logger}
}

// Supported reports whether the environment has any audio input.
func (c *Capturer) Supported() bool {
	return c.device != nil
}

// Start acquires the device and begins accumulating chunks.
func (c *Capturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return ErrEnvironmentUnsupported
	}
	if c.state == captureActive {
		return fmt.Errorf("capture already active")
	}

	recorder := NewRecorder(c.device.SampleRate())
	if err := c.device.Start(func(chunk []float32) {
		recorder.Append(chunk)
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}

	c.recorder = recorder
	c.state = captureActive
	c.logger.Info("Audio capture started",
		zap.Int("sampleRate", recorder.SampleRate()))
	return nil
}

// Capturing reports whether a capture session is active.
func (c *Capturer) Capturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == captureActive
}

// Stop halts capture, releases the device, and returns the encoded payload.
// Empty payload means no audio was captured.
func (c *Capturer) Stop() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != captureActive {
		return "", nil
	}
	c.state = captureStopped

	if err := c.device.Stop(); err != nil {
		c.logger.Warn("Failed to release audio device", zap.Error(err))
	}

	payload := c.recorder.Stop()
	c.recorder = nil
	c.state = captureIdle
	c.logger.Info("Audio capture stopped", zap.Int("payloadBytes", len(payload)))
	return payload, nil
}

// Dispose forcibly releases the device and drops any accumulated audio.
// Safe to call at any time and more than once.
func (c *Capturer) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == captureActive && c.device != nil {
		if err := c.device.Stop(); err != nil {
			c.logger.Warn("Failed to release audio device", zap.Error(err))
		}
	}
	if c.recorder != nil {
		c.recorder.Stop()
		c.recorder = nil
	}
	c.state = captureIdle
}
