package api

import (
	"time"

	"github.com/voyago/server/domain/entities"
)

// DeviceAuthRequest represents the request payload for device authentication
type DeviceAuthRequest struct {
	SerialNumber string `json:"serial_number" validate:"required"`
	SecretKey    string `json:"secret_key" validate:"required"`
}

// DeviceAuthResponse represents the response payload for device authentication
type DeviceAuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	DeviceID  string    `json:"device_id"`
}

// ExtractRequest carries typed text through the same extraction pipeline
// the voice path uses.
type ExtractRequest struct {
	Text string `json:"text" validate:"required"`
	// Optional known values that must not be overwritten by extraction
	Seed *entities.TripIntent `json:"seed,omitempty"`
}

// ExtractResponse returns the extracted trip parameters
type ExtractResponse struct {
	Intent entities.TripIntent `json:"intent"`
}

// SessionListResponse returns recent voice sessions for a device
type SessionListResponse struct {
	Sessions []*entities.VoiceSession `json:"sessions"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
