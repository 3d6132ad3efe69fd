package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VoiceSessionStatus represents the terminal outcome of a voice session
type VoiceSessionStatus string

const (
	VoiceSessionStatusCompleted VoiceSessionStatus = "completed"
	VoiceSessionStatusFailed    VoiceSessionStatus = "failed"
)

// VoiceSession records one completed utterance: when it was spoken, what
// the recognition service heard, and which trip parameters were extracted.
// Audio is never stored.
type VoiceSession struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UtteranceID string             `json:"utterance_id" bson:"utterance_id"`
	DeviceID    string             `json:"device_id" bson:"device_id"`
	StartedAt   time.Time          `json:"started_at" bson:"started_at"`
	DurationMs  int64              `json:"duration_ms" bson:"duration_ms"`
	Transcript  string             `json:"transcript" bson:"transcript"`
	Intent      TripIntent         `json:"intent" bson:"intent"`
	Status      VoiceSessionStatus `json:"status" bson:"status"`
	ErrorCode   string             `json:"error_code,omitempty" bson:"error_code,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

// NewVoiceSession creates a session record for a device's utterance.
func NewVoiceSession(deviceID string) *VoiceSession {
	now := time.Now()
	return &VoiceSession{
		ID:          primitive.NewObjectID(),
		UtteranceID: uuid.NewString(),
		DeviceID:    deviceID,
		StartedAt:   now,
		Status:      VoiceSessionStatusCompleted,
		CreatedAt:   now,
	}
}

// Complete fills in the recognition result.
func (s *VoiceSession) Complete(transcript string, intent TripIntent) {
	s.Transcript = transcript
	s.Intent = intent
	s.Status = VoiceSessionStatusCompleted
	s.DurationMs = time.Since(s.StartedAt).Milliseconds()
}

// Fail marks the session as failed with a taxonomy code.
func (s *VoiceSession) Fail(code string) {
	s.Status = VoiceSessionStatusFailed
	s.ErrorCode = code
	s.DurationMs = time.Since(s.StartedAt).Milliseconds()
}

// Validate validates the session data
func (s *VoiceSession) Validate() error {
	if s.DeviceID == "" {
		return errors.New("device_id is required")
	}
	if s.UtteranceID == "" {
		return errors.New("utterance_id is required")
	}
	if s.Status != VoiceSessionStatusCompleted && s.Status != VoiceSessionStatusFailed {
		return errors.New("invalid session status")
	}
	return nil
}
