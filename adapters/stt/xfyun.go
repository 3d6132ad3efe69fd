package stt

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/voyago/server/domain/repositories"
)

const (
	defaultXfyunEndpoint = "wss://iat-api.xfyun.cn/v2/iat"
	defaultDomain        = "iat"
	defaultVadEOS        = 5000

	// sessionCeiling is the wall-clock deadline after which a pending
	// session is forcibly failed.
	sessionCeiling = 20 * time.Second

	// lastFrameDelay lets the audio frame flush before the end-of-stream
	// frame is sent.
	lastFrameDelay = 50 * time.Millisecond

	statusFirstFrame = 0
	statusLastFrame  = 2

	audioFormat   = "audio/L16;rate=16000"
	audioEncoding = "raw"
)

// XfyunConfig holds credentials and tuning for the Xfyun recognition API.
// Required fields: AppID, APIKey, APISecret.
type XfyunConfig struct {
	AppID     string
	APIKey    string
	APISecret string
	Endpoint  string // Optional: defaults to the public iat endpoint
	Domain    string // Optional: recognition domain, defaults to "iat"
	VadEOS    int    // Optional: end-of-speech silence threshold in ms
}

// NewXfyunConfigFromEnv creates an XfyunConfig from environment variables.
func NewXfyunConfigFromEnv() XfyunConfig {
	return XfyunConfig{
		AppID:     os.Getenv("XFYUN_APP_ID"),
		APIKey:    os.Getenv("XFYUN_API_KEY"),
		APISecret: os.Getenv("XFYUN_API_SECRET"),
		Endpoint:  os.Getenv("XFYUN_ENDPOINT"),
	}
}

// ValidateXfyunConfig validates the XfyunConfig.
func ValidateXfyunConfig(config XfyunConfig) error {
	if config.AppID == "" {
		return fmt.Errorf("xfyun app ID is required")
	}
	if config.APIKey == "" {
		return fmt.Errorf("xfyun API key is required")
	}
	if config.APISecret == "" {
		return fmt.Errorf("xfyun API secret is required")
	}
	return nil
}

// XfyunSpeechToText implements SpeechToText against the Xfyun streaming
// recognition service. Each Transcribe call runs one authenticated
// WebSocket session; sessions are never reused.
type XfyunSpeechToText struct {
	appID     string
	apiKey    string
	apiSecret string
	endpoint  string
	domain    string
	vadEOS    int
	ceiling   time.Duration
	logger    *zap.Logger
}

// Ensure XfyunSpeechToText implements the SpeechToText interface
var _ repositories.SpeechToText = (*XfyunSpeechToText)(nil)

// NewXfyunSpeechToText creates a new Xfyun recognition adapter.
func NewXfyunSpeechToText(config XfyunConfig, logger *zap.Logger) (*XfyunSpeechToText, error) {
	if err := ValidateXfyunConfig(config); err != nil {
		return nil, err
	}

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = defaultXfyunEndpoint
	}
	domain := config.Domain
	if domain == "" {
		domain = defaultDomain
	}
	vadEOS := config.VadEOS
	if vadEOS == 0 {
		vadEOS = defaultVadEOS
	}

	return &XfyunSpeechToText{
		appID:     config.AppID,
		apiKey:    config.APIKey,
		apiSecret: config.APISecret,
		endpoint:  endpoint,
		domain:    domain,
		vadEOS:    vadEOS,
		ceiling:   sessionCeiling,
		logger:    logger,
	}, nil
}

type commonParams struct {
	AppID string `json:"app_id"`
}

type businessParams struct {
	Language string `json:"language"`
	Domain   string `json:"domain"`
	Accent   string `json:"accent"`
	VadEOS   int    `json:"vad_eos"`
}

type dataParams struct {
	Status   int    `json:"status"`
	Format   string `json:"format"`
	Encoding string `json:"encoding"`
	Audio    string `json:"audio"`
}

type requestFrame struct {
	Common   *commonParams   `json:"common,omitempty"`
	Business *businessParams `json:"business,omitempty"`
	Data     dataParams      `json:"data"`
}

type responseFrame struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Data    *responseData `json:"data"`
}

type responseData struct {
	Status int               `json:"status"`
	Result *recognitionChunk `json:"result"`
}

type recognitionChunk struct {
	Ws []struct {
		Cw []struct {
			W string `json:"w"`
		} `json:"cw"`
	} `json:"ws"`
}

// Transcribe sends one base64 PCM payload through a fresh session and
// returns the final recognized text.
func (x *XfyunSpeechToText) Transcribe(ctx context.Context, audio string, config repositories.AudioConfig) (string, error) {
	if audio == "" {
		return "", nil
	}

	language := config.Language
	if language == "" {
		language = "zh_cn"
	}

	signed, err := signURL(x.endpoint, x.apiKey, x.apiSecret, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to sign request URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, signed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: dial: %v", repositories.ErrTransport, err)
	}

	s := &session{
		conn:   conn,
		done:   make(chan struct{}),
		logger: x.logger,
	}

	first := requestFrame{
		Common: &commonParams{AppID: x.appID},
		Business: &businessParams{
			Language: language,
			Domain:   x.domain,
			Accent:   "mandarin",
			VadEOS:   x.vadEOS,
		},
		Data: dataParams{
			Status:   statusFirstFrame,
			Format:   audioFormat,
			Encoding: audioEncoding,
			Audio:    audio,
		},
	}
	last := requestFrame{
		Data: dataParams{
			Status:   statusLastFrame,
			Format:   audioFormat,
			Encoding: audioEncoding,
			Audio:    "",
		},
	}

	go s.send(first, last)
	go s.receive()

	ceiling := time.NewTimer(x.ceiling)
	defer ceiling.Stop()

	select {
	case <-s.done:
	case <-ceiling.C:
		s.resolve("", repositories.ErrTranscriptionTimeout)
		<-s.done
	case <-ctx.Done():
		s.resolve("", fmt.Errorf("%w: %v", repositories.ErrTransport, ctx.Err()))
		<-s.done
	}

	if s.err != nil {
		x.logger.Warn("Transcription session failed", zap.Error(s.err))
		return "", s.err
	}
	x.logger.Info("Transcription completed", zap.Int("textLength", len(s.result)))
	return s.result, nil
}

// session is one live exchange with the service. Exactly one terminal
// resolution happens per session; resolve is a no-op after the first call
// and always force-closes the connection.
type session struct {
	conn   *websocket.Conn
	once   sync.Once
	done   chan struct{}
	text   strings.Builder
	result string
	err    error
	logger *zap.Logger
}

func (s *session) resolve(result string, err error) {
	s.once.Do(func() {
		s.result = result
		s.err = err
		s.conn.Close()
		close(s.done)
	})
}

// send writes the audio frame, waits for it to flush, then signals end of
// stream.
func (s *session) send(first, last requestFrame) {
	if err := s.conn.WriteJSON(first); err != nil {
		s.resolve("", fmt.Errorf("%w: write audio frame: %v", repositories.ErrTransport, err))
		return
	}
	time.Sleep(lastFrameDelay)
	if err := s.conn.WriteJSON(last); err != nil {
		s.resolve("", fmt.Errorf("%w: write final frame: %v", repositories.ErrTransport, err))
	}
}

// receive accumulates recognized tokens until the service reports the last
// result, a nonzero code, or the transport fails.
func (s *session) receive() {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if closeErr, ok := err.(*websocket.CloseError); ok && closeErr.Code == websocket.CloseNormalClosure {
				s.resolve("", fmt.Errorf("%w: closed before final result", repositories.ErrTransport))
				return
			}
			s.resolve("", fmt.Errorf("%w: %v", repositories.ErrTransport, err))
			return
		}

		var resp responseFrame
		if err := json.Unmarshal(raw, &resp); err != nil {
			s.logger.Warn("Skipping unparseable service message", zap.Error(err))
			continue
		}

		if resp.Code != 0 {
			s.resolve("", &repositories.RemoteServiceError{Code: resp.Code, Message: resp.Message})
			return
		}
		if resp.Data == nil {
			continue
		}

		if resp.Data.Result != nil {
			for _, ws := range resp.Data.Result.Ws {
				for _, cw := range ws.Cw {
					s.text.WriteString(cw.W)
				}
			}
		}
		if resp.Data.Status == statusLastFrame {
			s.resolve(strings.TrimSpace(s.text.String()), nil)
			return
		}
	}
}

// signURL builds the authenticated request URL: an HMAC-SHA256 signature
// over "host: <h>\ndate: <d>\nGET <path> HTTP/1.1", wrapped into the
// authorization header value the service expects and appended as query
// parameters together with the date and host.
func signURL(endpoint, apiKey, apiSecret string, now time.Time) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}

	date := now.UTC().Format(http.TimeFormat)
	canonical := fmt.Sprintf("host: %s\ndate: %s\nGET %s HTTP/1.1", u.Host, date, u.Path)

	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(canonical))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	origin := fmt.Sprintf(
		`api_key="%s", algorithm="hmac-sha256", headers="host date request-line", signature="%s"`,
		apiKey, signature)

	query := url.Values{}
	query.Set("authorization", base64.StdEncoding.EncodeToString([]byte(origin)))
	query.Set("date", date)
	query.Set("host", u.Host)

	return endpoint + "?" + query.Encode(), nil
}
