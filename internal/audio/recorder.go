package audio

import (
	"errors"
	"sync"
)

// ErrRecorderStopped is returned when samples arrive after Stop.
var ErrRecorderStopped = errors.New("recorder already stopped")

// Recorder accumulates the chunks of one utterance. Append is safe to call
// from the capture callback; the accumulated buffer is only read after the
// transition to stopped, so the callback and the stop handler never race on
// the same data.
type Recorder struct {
	mu         sync.Mutex
	sampleRate int
	chunks     [][]float32
	total      int
	stopped    bool
}

// NewRecorder creates a recorder for samples at the given native rate.
func NewRecorder(sampleRate int) *Recorder {
	return &Recorder{sampleRate: sampleRate}
}

// SampleRate returns the native rate the recorder was created with.
func (r *Recorder) SampleRate() int {
	return r.sampleRate
}

// Append copies one capture chunk into the accumulation buffer. The copy
// keeps the callback allocation-light on the caller's side: the driver may
// reuse its block buffer immediately.
func (r *Recorder) Append(chunk []float32) error {
	if len(chunk) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrRecorderStopped
	}
	owned := make([]float32, len(chunk))
	copy(owned, chunk)
	r.chunks = append(r.chunks, owned)
	r.total += len(owned)
	return nil
}

// Len returns the number of samples accumulated so far.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// Stop seals the recorder and returns the transport payload: all chunks
// merged, resampled to 16 kHz, PCM16-encoded, base64. An utterance with no
// captured audio yields the empty string. Stop is one-shot; later calls
// return the empty string.
func (r *Recorder) Stop() string {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return ""
	}
	r.stopped = true
	chunks := r.chunks
	total := r.total
	r.chunks = nil
	r.mu.Unlock()

	if total == 0 {
		return ""
	}
	merged := make([]float32, 0, total)
	for _, c := range chunks {
		merged = append(merged, c...)
	}
	return EncodePayload(merged, r.sampleRate)
}
