package stt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/voyago/server/domain/repositories"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newRecognitionServer runs handler for each WebSocket connection and
// returns the ws:// endpoint.
func newRecognitionServer(t *testing.T, handler func(conn *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newTestAdapter(t *testing.T, endpoint string) *XfyunSpeechToText {
	t.Helper()
	adapter, err := NewXfyunSpeechToText(XfyunConfig{
		AppID:     "test-app",
		APIKey:    "test-key",
		APISecret: "test-secret",
		Endpoint:  endpoint,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewXfyunSpeechToText failed: %v", err)
	}
	return adapter
}

func resultMessage(tokens []string, status int) []byte {
	cw := make([]map[string]string, len(tokens))
	for i, w := range tokens {
		cw[i] = map[string]string{"w": w}
	}
	msg := map[string]interface{}{
		"code":    0,
		"message": "success",
		"data": map[string]interface{}{
			"status": status,
			"result": map[string]interface{}{
				"ws": []map[string]interface{}{{"cw": cw}},
			},
		},
	}
	raw, _ := json.Marshal(msg)
	return raw
}

func TestTranscribeAccumulatesTokensInOrder(t *testing.T) {
	endpoint := newRecognitionServer(t, func(conn *websocket.Conn) {
		var first requestFrame
		if err := conn.ReadJSON(&first); err != nil {
			t.Errorf("Failed to read first frame: %v", err)
			return
		}
		if first.Data.Status != statusFirstFrame {
			t.Errorf("First frame status = %d, want %d", first.Data.Status, statusFirstFrame)
		}
		if first.Data.Audio == "" {
			t.Error("First frame should carry the audio payload")
		}
		if first.Common == nil || first.Common.AppID != "test-app" {
			t.Error("First frame missing app identity")
		}
		if first.Business == nil || first.Business.Language != "zh_cn" || first.Business.Accent != "mandarin" {
			t.Errorf("Unexpected business params: %+v", first.Business)
		}

		var last requestFrame
		if err := conn.ReadJSON(&last); err != nil {
			t.Errorf("Failed to read final frame: %v", err)
			return
		}
		if last.Data.Status != statusLastFrame || last.Data.Audio != "" {
			t.Errorf("Final frame = %+v, want status 2 with empty audio", last.Data)
		}

		conn.WriteMessage(websocket.TextMessage, resultMessage([]string{"我", "想"}, 1))
		conn.WriteMessage(websocket.TextMessage, resultMessage([]string{"去", "东", "京"}, statusLastFrame))
	})

	adapter := newTestAdapter(t, endpoint)
	text, err := adapter.Transcribe(context.Background(), "UENN", repositories.AudioConfig{})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "我想去东京" {
		t.Errorf("Transcribe = %q, want 我想去东京", text)
	}
}

func TestTranscribeRemoteServiceError(t *testing.T) {
	endpoint := newRecognitionServer(t, func(conn *websocket.Conn) {
		var frame requestFrame
		conn.ReadJSON(&frame)
		raw, _ := json.Marshal(map[string]interface{}{
			"code":    10165,
			"message": "invalid appid",
		})
		conn.WriteMessage(websocket.TextMessage, raw)
	})

	adapter := newTestAdapter(t, endpoint)
	_, err := adapter.Transcribe(context.Background(), "UENN", repositories.AudioConfig{})

	var remoteErr *repositories.RemoteServiceError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("Expected RemoteServiceError, got %v", err)
	}
	if remoteErr.Code != 10165 || remoteErr.Message != "invalid appid" {
		t.Errorf("RemoteServiceError = %+v", remoteErr)
	}
}

func TestTranscribeCeilingTimeout(t *testing.T) {
	endpoint := newRecognitionServer(t, func(conn *websocket.Conn) {
		// Accept frames but never answer.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	adapter := newTestAdapter(t, endpoint)
	adapter.ceiling = 200 * time.Millisecond

	_, err := adapter.Transcribe(context.Background(), "UENN", repositories.AudioConfig{})
	if !errors.Is(err, repositories.ErrTranscriptionTimeout) {
		t.Errorf("Expected ErrTranscriptionTimeout, got %v", err)
	}
}

func TestTranscribeTransportError(t *testing.T) {
	endpoint := newRecognitionServer(t, func(conn *websocket.Conn) {
		var frame requestFrame
		conn.ReadJSON(&frame)
		// Drop the connection before any result.
		conn.Close()
	})

	adapter := newTestAdapter(t, endpoint)
	_, err := adapter.Transcribe(context.Background(), "UENN", repositories.AudioConfig{})
	if !errors.Is(err, repositories.ErrTransport) {
		t.Errorf("Expected ErrTransport, got %v", err)
	}
}

func TestTranscribeEmptyPayload(t *testing.T) {
	adapter := newTestAdapter(t, "ws://unreachable.invalid/v2/iat")
	text, err := adapter.Transcribe(context.Background(), "", repositories.AudioConfig{})
	if err != nil || text != "" {
		t.Errorf("Empty payload should resolve empty without dialing, got %q, %v", text, err)
	}
}

func TestSignURL(t *testing.T) {
	fixed := time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)
	signed, err := signURL("wss://iat-api.xfyun.cn/v2/iat", "test-key", "test-secret", fixed)
	if err != nil {
		t.Fatalf("signURL failed: %v", err)
	}

	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("Signed URL does not parse: %v", err)
	}
	q := u.Query()

	if got := q.Get("host"); got != "iat-api.xfyun.cn" {
		t.Errorf("host param = %q", got)
	}
	if got := q.Get("date"); got != "Mon, 02 Jan 2006 15:04:05 GMT" {
		t.Errorf("date param = %q", got)
	}

	const wantAuth = "YXBpX2tleT0idGVzdC1rZXkiLCBhbGdvcml0aG09ImhtYWMtc2hhMjU2IiwgaGVhZGVycz0iaG9zdCBkYXRlIHJlcXVlc3QtbGluZSIsIHNpZ25hdHVyZT0iY1ZlTXZTT3lxQjl5Yk5PaExwQk1LOVBUZzd1aE9zTzJOajd0RFd0UGo1OD0i"
	if got := q.Get("authorization"); got != wantAuth {
		t.Errorf("authorization param = %q, want %q", got, wantAuth)
	}
}

func TestValidateXfyunConfig(t *testing.T) {
	valid := XfyunConfig{AppID: "a", APIKey: "k", APISecret: "s"}
	if err := ValidateXfyunConfig(valid); err != nil {
		t.Errorf("Valid config rejected: %v", err)
	}
	for _, config := range []XfyunConfig{
		{APIKey: "k", APISecret: "s"},
		{AppID: "a", APISecret: "s"},
		{AppID: "a", APIKey: "k"},
	} {
		if err := ValidateXfyunConfig(config); err == nil {
			t.Errorf("Incomplete config %+v should be rejected", config)
		}
	}
}
