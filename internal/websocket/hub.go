package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voyago/server/domain/entities"
	"github.com/voyago/server/domain/repositories"
	"github.com/voyago/server/internal/audio"
	"github.com/voyago/server/internal/intent"
	"github.com/voyago/server/internal/metrics"
	"github.com/voyago/server/internal/voice"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	// Timeout for a single transcription round trip.
	transcribeTimeout = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active clients and broadcasts messages to the clients.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	sttRepo     repositories.SpeechToText
	sessionRepo repositories.VoiceSessionRepository

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(
	sttRepo repositories.SpeechToText,
	sessionRepo repositories.VoiceSessionRepository,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		sttRepo:     sttRepo,
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.deviceID] = client
			h.mu.Unlock()
			metrics.WebsocketConnections.Inc()
			h.logger.Info("Client registered", zap.String("deviceID", client.deviceID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.deviceID]; ok {
				delete(h.clients, client.deviceID)
				client.closeSend()
			}
			h.mu.Unlock()
			metrics.WebsocketConnections.Dec()
			h.logger.Info("Client unregistered", zap.String("deviceID", client.deviceID))
		}
	}
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Device ID for this client
	deviceID string

	// Logger
	logger *zap.Logger

	// Accumulates float32 chunks between listening_start and
	// listening_end. Nil when no utterance is in flight.
	recorder *audio.Recorder

	utteranceID    string
	chunkCount     int
	listeningStart time.Time

	mutex sync.Mutex

	// Guards send against the hub closing it while a transcribe
	// goroutine is still running.
	sendMu     sync.Mutex
	sendClosed bool
}

// closeSend closes the outbound channel exactly once. Later sendJSON
// calls become no-ops instead of sends on a closed channel.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

// HandleWebSocket handles websocket requests with pre-authenticated device ID
func HandleWebSocket(hub *Hub, c echo.Context, deviceID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan WriteData, 256),
		deviceID: deviceID,
		logger:   logger,
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			// Control messages (listening_start, listening_end)
			c.processMessage(message)
		case websocket.BinaryMessage:
			// Raw float32 little-endian audio samples
			c.processBinaryAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage processes incoming control messages from the device
func (c *Client) processMessage(message []byte) {
	var msg map[string]interface{}
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Error("Failed to parse message", zap.Error(err))
		c.sendError("internal_error", "invalid message format")
		return
	}

	msgType, ok := msg["type"].(string)
	if !ok {
		c.logger.Error("Message missing type field")
		c.sendError("internal_error", "message missing type field")
		return
	}

	switch msgType {
	case MessageTypeListeningStart:
		start, err := ParseListeningStart(message)
		if err != nil {
			c.logger.Error("Invalid listening_start", zap.Error(err))
			c.sendError("internal_error", err.Error())
			return
		}
		c.handleListeningStart(start)
	case MessageTypeListeningEnd:
		c.handleListeningEnd()
	default:
		c.logger.Warn("Unknown message type", zap.String("type", msgType))
	}
}

// processBinaryAudioChunk appends raw audio samples to the active recorder
func (c *Client) processBinaryAudioChunk(data []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.recorder == nil {
		c.logger.Warn("Received audio chunk without an active utterance",
			zap.String("deviceID", c.deviceID))
		return
	}

	samples := audio.DecodeFloat32(data)
	if err := c.recorder.Append(samples); err != nil {
		c.logger.Error("Failed to append audio chunk",
			zap.String("deviceID", c.deviceID),
			zap.Error(err))
		return
	}

	c.chunkCount++
	metrics.AudioBytesReceived.Add(float64(len(data)))
}

// handleListeningStart begins a new utterance for the client
func (c *Client) handleListeningStart(msg *ListeningStartMessage) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	sampleRate := audio.TargetSampleRate
	if msg.SampleRate > 0 {
		sampleRate = msg.SampleRate
	}

	c.recorder = audio.NewRecorder(sampleRate)
	c.utteranceID = uuid.New().String()
	c.chunkCount = 0
	c.listeningStart = time.Now()

	c.logger.Info("Utterance started",
		zap.String("deviceID", c.deviceID),
		zap.String("utteranceID", c.utteranceID),
		zap.Int("sampleRate", sampleRate))

	c.sendJSON(ListeningStartedMessage{
		Type:        MessageTypeListeningStarted,
		UtteranceID: c.utteranceID,
		Timestamp:   c.listeningStart.Unix(),
	})
}

// handleListeningEnd finishes the utterance, transcribes the collected
// audio and extracts a trip intent from the transcript.
func (c *Client) handleListeningEnd() {
	c.mutex.Lock()
	if c.recorder == nil {
		c.mutex.Unlock()
		c.logger.Warn("listening_end without an active utterance",
			zap.String("deviceID", c.deviceID))
		c.sendError("internal_error", "no active utterance")
		return
	}

	payload := c.recorder.Stop()
	utteranceID := c.utteranceID
	started := c.listeningStart
	chunks := c.chunkCount
	c.recorder = nil
	c.utteranceID = ""
	c.mutex.Unlock()

	durationMs := time.Since(started).Milliseconds()
	c.logger.Info("Utterance ended",
		zap.String("deviceID", c.deviceID),
		zap.String("utteranceID", utteranceID),
		zap.Int("chunks", chunks),
		zap.Int64("durationMs", durationMs))

	// Empty recording skips the remote call entirely
	if payload == "" {
		c.sendResult(utteranceID, "", entities.TripIntent{}, durationMs)
		return
	}

	go c.transcribe(utteranceID, payload, started, durationMs)
}

func (c *Client) transcribe(utteranceID, payload string, started time.Time, durationMs int64) {
	ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
	defer cancel()

	session := entities.NewVoiceSession(c.deviceID)
	session.UtteranceID = utteranceID
	session.StartedAt = started

	begin := time.Now()
	transcript, err := c.hub.sttRepo.Transcribe(ctx, payload, repositories.AudioConfig{
		SampleRate: audio.TargetSampleRate,
		Encoding:   "raw",
		Language:   "zh_cn",
	})
	metrics.TranscriptionDuration.Observe(time.Since(begin).Seconds())

	if err != nil {
		code := voice.ErrorCode(err)
		metrics.UtterancesTotal.WithLabelValues("failed").Inc()
		metrics.TranscriptionErrors.WithLabelValues(code).Inc()
		c.logger.Error("Transcription failed",
			zap.String("deviceID", c.deviceID),
			zap.String("utteranceID", utteranceID),
			zap.String("code", code),
			zap.Error(err))

		session.Fail(code)
		c.persistSession(session)
		c.sendError(code, err.Error())
		return
	}

	extracted := intent.Extract(transcript)
	metrics.UtterancesTotal.WithLabelValues("completed").Inc()
	metrics.ObserveIntentFields(
		extracted.Destination != "",
		extracted.Budget > 0,
		extracted.Travelers > 0,
		extracted.StartDate != "",
	)

	c.logger.Info("Transcription completed",
		zap.String("deviceID", c.deviceID),
		zap.String("utteranceID", utteranceID),
		zap.String("transcript", transcript))

	session.Complete(transcript, extracted)
	c.persistSession(session)
	c.sendResult(utteranceID, transcript, extracted, durationMs)
}

func (c *Client) persistSession(session *entities.VoiceSession) {
	if c.hub.sessionRepo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.hub.sessionRepo.Create(ctx, session); err != nil {
		c.logger.Error("Failed to persist voice session",
			zap.String("deviceID", c.deviceID),
			zap.String("utteranceID", session.UtteranceID),
			zap.Error(err))
	}
}

func (c *Client) sendResult(utteranceID, transcript string, extracted entities.TripIntent, durationMs int64) {
	c.sendJSON(IntentResultMessage{
		Type:        MessageTypeIntentResult,
		UtteranceID: utteranceID,
		Transcript:  transcript,
		Intent:      extracted,
		DurationMs:  durationMs,
	})
}

func (c *Client) sendError(code, message string) {
	c.sendJSON(ErrorMessage{
		Type:    MessageTypeError,
		Code:    code,
		Message: message,
	})
}

func (c *Client) sendJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		c.logger.Debug("Client gone, dropping message",
			zap.String("deviceID", c.deviceID))
		return
	}
	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Send buffer full, dropping message",
			zap.String("deviceID", c.deviceID))
	}
}
