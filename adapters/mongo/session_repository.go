package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/voyago/server/domain/entities"
	"github.com/voyago/server/domain/repositories"
)

const voiceSessionCollection = "voice_sessions"

// VoiceSessionRepository persists voice sessions in MongoDB
type VoiceSessionRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewVoiceSessionRepository creates a new MongoDB voice session repository
func NewVoiceSessionRepository(client *Client, logger *zap.Logger) repositories.VoiceSessionRepository {
	return &VoiceSessionRepository{
		collection: client.Database.Collection(voiceSessionCollection),
		logger:     logger,
	}
}

// Create stores a finished voice session
func (r *VoiceSessionRepository) Create(ctx context.Context, session *entities.VoiceSession) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("invalid voice session: %w", err)
	}

	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		r.logger.Error("Failed to create voice session",
			zap.String("device_id", session.DeviceID),
			zap.Error(err))
		return fmt.Errorf("failed to create voice session: %w", err)
	}

	r.logger.Debug("Voice session created",
		zap.String("session_id", session.ID.Hex()),
		zap.String("device_id", session.DeviceID),
		zap.String("status", string(session.Status)))
	return nil
}

// GetByID retrieves a voice session by its hex ID
func (r *VoiceSessionRepository) GetByID(ctx context.Context, id string) (*entities.VoiceSession, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid session ID format: %w", err)
	}

	var session entities.VoiceSession
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("voice session not found")
		}
		return nil, fmt.Errorf("failed to get voice session: %w", err)
	}

	return &session, nil
}

// ListByDeviceID returns the most recent sessions for a device, newest first
func (r *VoiceSessionRepository) ListByDeviceID(ctx context.Context, deviceID string, limit int) ([]*entities.VoiceSession, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"device_id": deviceID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list voice sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []*entities.VoiceSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode voice sessions: %w", err)
	}

	return sessions, nil
}

// DeleteOlderThan removes sessions created before the cutoff
func (r *VoiceSessionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		r.logger.Error("Failed to delete old voice sessions", zap.Error(err))
		return 0, fmt.Errorf("failed to delete old voice sessions: %w", err)
	}

	if result.DeletedCount > 0 {
		r.logger.Info("Deleted old voice sessions",
			zap.Int64("count", result.DeletedCount),
			zap.Time("cutoff", cutoff))
	}
	return result.DeletedCount, nil
}
