package stt

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/voyago/server/domain/repositories"
)

// GoogleSpeechToText implements SpeechToText for Google Cloud. Kept as an
// alternate backend behind the same interface; credentials come from the
// usual GOOGLE_APPLICATION_CREDENTIALS environment.
type GoogleSpeechToText struct {
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText creates a new Google Cloud recognition adapter.
func NewGoogleSpeechToText(logger *zap.Logger) *GoogleSpeechToText {
	return &GoogleSpeechToText{logger: logger}
}

// Transcribe decodes the base64 PCM payload and runs one streaming
// recognize exchange, returning the final transcript.
func (g *GoogleSpeechToText) Transcribe(ctx context.Context, audio string, config repositories.AudioConfig) (string, error) {
	if audio == "" {
		return "", nil
	}

	pcm, err := base64.StdEncoding.DecodeString(audio)
	if err != nil {
		return "", fmt.Errorf("invalid audio payload: %w", err)
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: create speech client: %v", repositories.ErrTransport, err)
	}
	defer client.Close()

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: open streaming recognize: %v", repositories.ErrTransport, err)
	}

	sampleRate := config.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}
	language := config.Language
	if language == "" {
		language = "cmn-Hans-CN"
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz: int32(sampleRate),
					LanguageCode:    language,
				},
				InterimResults:  false,
				SingleUtterance: true,
			},
		},
	}); err != nil {
		stream.CloseSend()
		return "", fmt.Errorf("%w: send streaming config: %v", repositories.ErrTransport, err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: pcm,
		},
	}); err != nil {
		stream.CloseSend()
		return "", fmt.Errorf("%w: send audio: %v", repositories.ErrTransport, err)
	}
	if err := stream.CloseSend(); err != nil {
		return "", fmt.Errorf("%w: close send: %v", repositories.ErrTransport, err)
	}

	var transcript string
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: receive: %v", repositories.ErrTransport, err)
		}
		for _, result := range resp.Results {
			if result.IsFinal && len(result.Alternatives) > 0 {
				transcript += result.Alternatives[0].Transcript
			}
		}
	}

	g.logger.Info("Google transcription completed", zap.Int("textLength", len(transcript)))
	return transcript, nil
}
