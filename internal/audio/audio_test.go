package audio

import (
	"encoding/base64"
	"math"
	"testing"
)

func TestResampleConstantSignal(t *testing.T) {
	const v = 0.25
	in := make([]float32, 48000)
	for i := range in {
		in[i] = v
	}

	out := Resample(in, 48000, 16000)
	if len(out) != 16000 {
		t.Fatalf("Expected 16000 samples, got %d", len(out))
	}
	for i, s := range out {
		if math.Abs(float64(s-v)) > 1e-6 {
			t.Fatalf("Sample %d = %v, want %v", i, s, v)
		}
	}
}

func TestResampleSameRateIsCopy(t *testing.T) {
	in := []float32{0.1, -0.2, 0.3, -0.4}
	out := Resample(in, 16000, 16000)

	if len(out) != len(in) {
		t.Fatalf("Expected %d samples, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("Sample %d = %v, want %v", i, out[i], in[i])
		}
	}

	out[0] = 9
	if in[0] == 9 {
		t.Error("Resample returned the input slice instead of a copy")
	}
}

func TestEncodePCM16Extremes(t *testing.T) {
	cases := []struct {
		sample float32
		want   int16
	}{
		{1.0, 32767},
		{-1.0, -32768},
		{0.0, 0},
		{2.0, 32767},   // clamped
		{-2.0, -32768}, // clamped
	}
	for _, c := range cases {
		buf := EncodePCM16([]float32{c.sample})
		got := int16(uint16(buf[0]) | uint16(buf[1])<<8)
		if got != c.want {
			t.Errorf("EncodePCM16(%v) = %d, want %d", c.sample, got, c.want)
		}
	}
}

func TestPCM16RoundTripPreservesSign(t *testing.T) {
	in := []float32{0.5, -0.5, 0.9, -0.9, 0.001, -0.001}
	out := DecodePCM16(EncodePCM16(in))
	for i := range in {
		if (in[i] > 0) != (out[i] > 0) || (in[i] < 0) != (out[i] < 0) {
			t.Errorf("Sample %d changed sign: %v -> %v", i, in[i], out[i])
		}
	}
}

func TestDecodeFloat32(t *testing.T) {
	raw := []byte{0, 0, 128, 63, 0, 0, 128, 191} // 1.0, -1.0 little-endian
	out := DecodeFloat32(raw)
	if len(out) != 2 || out[0] != 1.0 || out[1] != -1.0 {
		t.Errorf("DecodeFloat32 = %v, want [1 -1]", out)
	}
}

func TestRecorderPayload(t *testing.T) {
	r := NewRecorder(16000)
	chunk := []float32{0.0, 1.0, -1.0}
	if err := r.Append(chunk); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	payload := r.Stop()
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("Payload is not valid base64: %v", err)
	}
	if len(raw) != 6 {
		t.Fatalf("Expected 6 PCM bytes, got %d", len(raw))
	}
	samples := DecodePCM16(raw)
	if samples[0] != 0 || samples[1] != 1 || samples[2] != -1 {
		t.Errorf("Decoded samples = %v", samples)
	}
}

func TestRecorderEmptyAndOneShot(t *testing.T) {
	r := NewRecorder(48000)
	if payload := r.Stop(); payload != "" {
		t.Errorf("Empty recorder should yield empty payload, got %q", payload)
	}
	if err := r.Append([]float32{0.5}); err != ErrRecorderStopped {
		t.Errorf("Append after Stop should fail, got %v", err)
	}
	if payload := r.Stop(); payload != "" {
		t.Errorf("Second Stop should yield empty payload, got %q", payload)
	}
}

func TestRecorderCopiesChunks(t *testing.T) {
	r := NewRecorder(16000)
	chunk := []float32{0.5, 0.5}
	r.Append(chunk)
	chunk[0] = -0.5 // driver reuses its block buffer

	raw, _ := base64.StdEncoding.DecodeString(r.Stop())
	samples := DecodePCM16(raw)
	if samples[0] < 0 {
		t.Error("Recorder did not copy the chunk on append")
	}
}
