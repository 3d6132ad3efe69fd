package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/voyago/server/domain/entities"
)

// Supported message types
const (
	MessageTypeListeningStart   = "listening_start"
	MessageTypeListeningStarted = "listening_started"
	MessageTypeListeningEnd     = "listening_end"
	MessageTypeIntentResult     = "intent_result"
	MessageTypeError            = "error"
)

// ListeningStartMessage opens an utterance. The client reports the
// native sample rate of the audio it will stream as binary frames.
type ListeningStartMessage struct {
	Type       string `json:"type"`
	SampleRate int    `json:"sample_rate,omitempty"`
}

// ListeningStartedMessage acknowledges an opened utterance
type ListeningStartedMessage struct {
	Type        string `json:"type"`
	UtteranceID string `json:"utterance_id"`
	Timestamp   int64  `json:"timestamp"`
}

// IntentResultMessage carries the transcript and the extracted trip
// parameters back to the client after listening_end.
type IntentResultMessage struct {
	Type        string              `json:"type"`
	UtteranceID string              `json:"utterance_id"`
	Transcript  string              `json:"transcript"`
	Intent      entities.TripIntent `json:"intent"`
	DurationMs  int64               `json:"duration_ms"`
}

// ErrorMessage reports a failure with a stable error code
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// ParseListeningStart validates a raw listening_start payload
func ParseListeningStart(raw []byte) (*ListeningStartMessage, error) {
	var msg ListeningStartMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("invalid listening_start message: %w", err)
	}
	if msg.Type != MessageTypeListeningStart {
		return nil, fmt.Errorf("unexpected message type: %s", msg.Type)
	}
	if msg.SampleRate < 0 || (msg.SampleRate > 0 && msg.SampleRate < 8000) || msg.SampleRate > 48000 {
		return nil, fmt.Errorf("sample_rate must be between 8000 and 48000")
	}
	return &msg, nil
}
