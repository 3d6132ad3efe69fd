package repositories

import (
	"context"
	"errors"
	"fmt"
)

// SpeechToText abstracts speech recognition services.
type SpeechToText interface {
	// Transcribe converts one utterance to text. The audio argument is the
	// base64-encoded PCM payload produced by the audio package.
	Transcribe(ctx context.Context, audio string, config AudioConfig) (string, error)
}

// AudioConfig represents audio configuration for speech recognition.
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

var (
	// ErrTranscriptionTimeout means the service produced no resolution
	// within the session ceiling.
	ErrTranscriptionTimeout = errors.New("transcription timed out")

	// ErrTransport covers connection-level failures and abnormal closes
	// before a result was delivered.
	ErrTransport = errors.New("transcription transport failure")
)

// RemoteServiceError is a nonzero response code from the recognition
// service, surfaced verbatim to the user.
type RemoteServiceError struct {
	Code    int
	Message string
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("recognition service error %d: %s", e.Code, e.Message)
}
