package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/voyago/server/adapters/memory"
	"github.com/voyago/server/adapters/mongo"
	"github.com/voyago/server/adapters/stt"
	"github.com/voyago/server/domain/repositories"
	"github.com/voyago/server/internal/api"
	"github.com/voyago/server/internal/websocket"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	speechToText := buildSpeechToText(logger)

	deviceRepo, sessionRepo, mongoClient := buildStorage(logger)
	if mongoClient != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			mongoClient.Close(ctx)
		}()
	}

	hub := websocket.NewHub(speechToText, sessionRepo, logger)
	go hub.Run()

	cleanup := websocket.NewSessionCleanupService(sessionRepo, sessionRetention(logger), logger)
	cleanup.Start()
	defer cleanup.Stop()

	api.InitRoutes(e, hub, deviceRepo, sessionRepo, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// buildSpeechToText selects the transcription backend from STT_PROVIDER.
// The default is the iFlytek websocket service; "google" and "mock" are
// alternatives.
func buildSpeechToText(logger *zap.Logger) repositories.SpeechToText {
	switch os.Getenv("STT_PROVIDER") {
	case "google":
		logger.Info("Using Google speech-to-text")
		return stt.NewGoogleSpeechToText(logger)
	case "mock":
		logger.Info("Using mock speech-to-text")
		return stt.NewMockSpeechToText(logger)
	default:
		config := stt.NewXfyunConfigFromEnv()
		client, err := stt.NewXfyunSpeechToText(config, logger)
		if err != nil {
			logger.Warn("Xfyun credentials missing, falling back to mock speech-to-text",
				zap.Error(err))
			return stt.NewMockSpeechToText(logger)
		}
		logger.Info("Using Xfyun speech-to-text")
		return client
	}
}

// buildStorage connects to MongoDB when MONGODB_URI is set, otherwise it
// serves everything from memory. The returned client is nil in the
// in-memory case.
func buildStorage(logger *zap.Logger) (repositories.DeviceRepository, repositories.VoiceSessionRepository, *mongo.Client) {
	client, err := mongo.NewClientFromEnv(logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if client == nil {
		logger.Info("MONGODB_URI not set, using in-memory storage")
		return memory.NewDeviceRepository(), memory.NewVoiceSessionRepository(), nil
	}
	return mongo.NewDeviceRepository(client, logger), mongo.NewVoiceSessionRepository(client, logger), client
}

func sessionRetention(logger *zap.Logger) time.Duration {
	raw := os.Getenv("SESSION_RETENTION")
	if raw == "" {
		return websocket.DefaultSessionRetention
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logger.Warn("Invalid SESSION_RETENTION, using default",
			zap.String("value", raw))
		return websocket.DefaultSessionRetention
	}
	return d
}
