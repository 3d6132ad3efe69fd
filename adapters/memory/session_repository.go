package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/voyago/server/domain/entities"
	"github.com/voyago/server/domain/repositories"
)

// VoiceSessionRepository is an in-memory implementation of
// repositories.VoiceSessionRepository.
type VoiceSessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*entities.VoiceSession // hex ObjectID -> session
}

var _ repositories.VoiceSessionRepository = (*VoiceSessionRepository)(nil)

// NewVoiceSessionRepository creates an empty in-memory session repository.
func NewVoiceSessionRepository() *VoiceSessionRepository {
	return &VoiceSessionRepository{
		sessions: make(map[string]*entities.VoiceSession),
	}
}

// Create implements repositories.VoiceSessionRepository
func (m *VoiceSessionRepository) Create(ctx context.Context, session *entities.VoiceSession) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if err := session.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sessionCopy := *session
	m.sessions[session.ID.Hex()] = &sessionCopy
	return nil
}

// GetByID implements repositories.VoiceSessionRepository
func (m *VoiceSessionRepository) GetByID(ctx context.Context, id string) (*entities.VoiceSession, error) {
	if id == "" {
		return nil, errors.New("session ID cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, errors.New("session not found")
	}
	sessionCopy := *session
	return &sessionCopy, nil
}

// ListByDeviceID implements repositories.VoiceSessionRepository
func (m *VoiceSessionRepository) ListByDeviceID(ctx context.Context, deviceID string, limit int) ([]*entities.VoiceSession, error) {
	if deviceID == "" {
		return nil, errors.New("device ID cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*entities.VoiceSession, 0)
	for _, session := range m.sessions {
		if session.DeviceID == deviceID {
			sessionCopy := *session
			result = append(result, &sessionCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DeleteOlderThan implements repositories.VoiceSessionRepository
func (m *VoiceSessionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for id, session := range m.sessions {
		if session.CreatedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}
