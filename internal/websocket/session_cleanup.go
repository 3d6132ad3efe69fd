package websocket

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/voyago/server/domain/repositories"
)

// DefaultSessionRetention is how long completed voice sessions are kept.
const DefaultSessionRetention = 30 * 24 * time.Hour

// SessionCleanupService prunes old voice session records in the background
type SessionCleanupService struct {
	sessionRepo repositories.VoiceSessionRepository
	retention   time.Duration
	logger      *zap.Logger
	stopChan    chan struct{}
}

// NewSessionCleanupService creates a new session cleanup service. A zero
// retention falls back to DefaultSessionRetention.
func NewSessionCleanupService(sessionRepo repositories.VoiceSessionRepository, retention time.Duration, logger *zap.Logger) *SessionCleanupService {
	if retention <= 0 {
		retention = DefaultSessionRetention
	}
	return &SessionCleanupService{
		sessionRepo: sessionRepo,
		retention:   retention,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the background cleanup process
func (s *SessionCleanupService) Start() {
	go s.cleanupLoop()
	s.logger.Info("Session cleanup service started",
		zap.Duration("retention", s.retention))
}

// Stop gracefully stops the cleanup service
func (s *SessionCleanupService) Stop() {
	close(s.stopChan)
	s.logger.Info("Session cleanup service stopped")
}

// cleanupLoop runs the cleanup process periodically
func (s *SessionCleanupService) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	// Run initial cleanup after 1 minute
	initialTimer := time.NewTimer(1 * time.Minute)
	defer initialTimer.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-initialTimer.C:
			s.runCleanup()
		case <-ticker.C:
			s.runCleanup()
		}
	}
}

// runCleanup deletes sessions older than the retention window
func (s *SessionCleanupService) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.retention)
	deleted, err := s.sessionRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to prune voice sessions", zap.Error(err))
		return
	}

	if deleted > 0 {
		s.logger.Info("Pruned voice sessions",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
}
