// Package voice wires audio capture, remote transcription, and intent
// extraction behind a single toggle control.
package voice

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/voyago/server/domain/entities"
	"github.com/voyago/server/domain/repositories"
	"github.com/voyago/server/internal/audio"
	"github.com/voyago/server/internal/intent"
)

// Orchestrator drives one utterance at a time: toggle once to start
// listening, toggle again to stop, transcribe, extract, and merge. Every
// failure is absorbed here; callers read Err for the most recent one.
type Orchestrator struct {
	mu       sync.Mutex
	capturer *audio.Capturer
	stt      repositories.SpeechToText
	logger   *zap.Logger

	intent     entities.TripIntent
	transcript string
	lastErr    error
}

// NewOrchestrator creates an orchestrator over a capturer and a
// recognition backend.
func NewOrchestrator(capturer *audio.Capturer, stt repositories.SpeechToText, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		capturer: capturer,
		stt:      stt,
		logger:   logger,
	}
}

// Supported reports whether the environment has audio input at all. When
// false the caller should fall back to typed text.
func (o *Orchestrator) Supported() bool {
	return o.capturer.Supported()
}

// Capturing reports whether an utterance is being recorded.
func (o *Orchestrator) Capturing() bool {
	return o.capturer.Capturing()
}

// Toggle starts capture when idle and finishes the utterance when
// capturing. The returned error is also retained for Err. The lock is
// not held across the remote call, so Intent, Transcript, and Err stay
// responsive while a transcription is in flight.
func (o *Orchestrator) Toggle(ctx context.Context) error {
	o.mu.Lock()

	if !o.capturer.Capturing() {
		err := o.capturer.Start()
		o.lastErr = err
		o.mu.Unlock()
		return err
	}

	payload, err := o.capturer.Stop()
	if err != nil {
		o.lastErr = err
		o.mu.Unlock()
		return err
	}
	if payload == "" {
		o.logger.Info("Utterance contained no audio")
		o.lastErr = nil
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()

	text, err := o.stt.Transcribe(ctx, payload, repositories.AudioConfig{
		SampleRate: audio.TargetSampleRate,
		Encoding:   "raw",
		Language:   "zh_cn",
	})

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.lastErr = err
		return err
	}

	o.transcript = text
	extracted := intent.Extract(text)
	o.intent.Merge(extracted)
	o.lastErr = nil

	o.logger.Info("Utterance processed",
		zap.String("transcript", text),
		zap.Bool("intentRecognized", !extracted.IsEmpty()))
	return nil
}

// ApplyText runs extraction over typed text, merging exactly like the
// voice path.
func (o *Orchestrator) ApplyText(text string) entities.TripIntent {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transcript = text
	o.intent.Merge(intent.Extract(text))
	return o.intent
}

// Prefill seeds fields the user already supplied; recognized fields never
// overwrite them.
func (o *Orchestrator) Prefill(seed entities.TripIntent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	seedCopy := seed
	seedCopy.Merge(o.intent)
	o.intent = seedCopy
}

// Intent returns the merged intent state.
func (o *Orchestrator) Intent() entities.TripIntent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.intent
}

// Transcript returns the last recognized or typed text.
func (o *Orchestrator) Transcript() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transcript
}

// Err returns the most recent failure from capture or transcription, or
// nil after a successful toggle cycle.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Dispose releases the capture device. Safe at any time.
func (o *Orchestrator) Dispose() {
	o.capturer.Dispose()
}

// ErrorCode maps a pipeline failure to its taxonomy code for transport to
// clients.
func ErrorCode(err error) string {
	var remoteErr *repositories.RemoteServiceError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, audio.ErrEnvironmentUnsupported):
		return "capture_environment_unsupported"
	case errors.Is(err, audio.ErrCaptureUnavailable):
		return "capture_unavailable"
	case errors.As(err, &remoteErr):
		return "remote_service_error"
	case errors.Is(err, repositories.ErrTranscriptionTimeout):
		return "timeout"
	case errors.Is(err, repositories.ErrTransport):
		return "transport_error"
	default:
		return "internal_error"
	}
}
