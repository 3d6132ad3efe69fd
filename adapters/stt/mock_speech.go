package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/voyago/server/domain/repositories"
)

// MockSpeechToText is a placeholder recognizer for development without
// service credentials.
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) repositories.SpeechToText {
	return &MockSpeechToText{logger: logger}
}

// Transcribe implements repositories.SpeechToText
func (s *MockSpeechToText) Transcribe(ctx context.Context, audio string, config repositories.AudioConfig) (string, error) {
	s.logger.Info("Processing speech-to-text",
		zap.Int("payloadSize", len(audio)),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("language", config.Language))

	// Mock transcription based on payload size
	switch {
	case len(audio) > 10000:
		return "我想去日本东京，预算一万元，带孩子，5月1日出发，5天", nil
	case len(audio) > 5000:
		return "预算大概8000", nil
	case len(audio) > 0:
		return "情侣出游", nil
	default:
		return "", nil
	}
}
