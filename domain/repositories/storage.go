package repositories

import (
	"context"
	"time"

	"github.com/voyago/server/domain/entities"
)

// DeviceRepository defines data access methods for voice client devices
type DeviceRepository interface {
	Create(ctx context.Context, device *entities.Device) error
	GetByID(ctx context.Context, id string) (*entities.Device, error)
	GetBySerialNumber(ctx context.Context, serialNumber string) (*entities.Device, error)
	// ValidateDevice validates device credentials for authentication
	ValidateDevice(serialNumber, secret string) (*entities.Device, error)
}

// VoiceSessionRepository persists completed voice sessions: transcript and
// extracted intent, never the audio itself.
type VoiceSessionRepository interface {
	Create(ctx context.Context, session *entities.VoiceSession) error
	GetByID(ctx context.Context, id string) (*entities.VoiceSession, error)
	ListByDeviceID(ctx context.Context, deviceID string, limit int) ([]*entities.VoiceSession, error)
	// DeleteOlderThan prunes sessions recorded before the cutoff and
	// returns how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
