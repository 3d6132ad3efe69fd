package websocket

import (
	"encoding/json"
	"testing"

	"github.com/voyago/server/domain/entities"
)

func TestParseListeningStart(t *testing.T) {
	msg, err := ParseListeningStart([]byte(`{"type":"listening_start","sample_rate":44100}`))
	if err != nil {
		t.Fatalf("ParseListeningStart() error = %v", err)
	}
	if msg.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", msg.SampleRate)
	}
}

func TestParseListeningStartDefaultsRate(t *testing.T) {
	msg, err := ParseListeningStart([]byte(`{"type":"listening_start"}`))
	if err != nil {
		t.Fatalf("ParseListeningStart() error = %v", err)
	}
	if msg.SampleRate != 0 {
		t.Errorf("SampleRate = %d, want 0", msg.SampleRate)
	}
}

func TestParseListeningStartRejectsBadRate(t *testing.T) {
	cases := []string{
		`{"type":"listening_start","sample_rate":4000}`,
		`{"type":"listening_start","sample_rate":96000}`,
		`{"type":"listening_end"}`,
		`{invalid`,
	}
	for _, raw := range cases {
		if _, err := ParseListeningStart([]byte(raw)); err == nil {
			t.Errorf("ParseListeningStart(%s) accepted invalid input", raw)
		}
	}
}

func TestIntentResultMessageShape(t *testing.T) {
	msg := IntentResultMessage{
		Type:        MessageTypeIntentResult,
		UtteranceID: "u-1",
		Transcript:  "去北京",
		Intent:      entities.TripIntent{Destination: "北京"},
		DurationMs:  1200,
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded["type"] != "intent_result" {
		t.Errorf("type = %v", decoded["type"])
	}
	intent := decoded["intent"].(map[string]interface{})
	if intent["destination"] != "北京" {
		t.Errorf("destination = %v", intent["destination"])
	}
	if _, present := intent["budget"]; present {
		t.Error("zero budget should be omitted from JSON")
	}
}
