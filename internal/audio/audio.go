// Package audio turns raw microphone samples into the payload the
// transcription service expects: mono 16 kHz PCM16 little-endian, base64
// encoded.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"math"
)

// TargetSampleRate is the rate the transcription service requires.
const TargetSampleRate = 16000

var (
	// ErrCaptureUnavailable means permission was denied or no input device
	// exists. The attempt failed but a retry may succeed.
	ErrCaptureUnavailable = errors.New("audio capture unavailable")

	// ErrEnvironmentUnsupported means the host exposes no audio-processing
	// capability at all. Permanent for the session.
	ErrEnvironmentUnsupported = errors.New("audio environment unsupported")
)

// Device models the host's audio-input capability: exclusive microphone
// access and a per-block sample callback.
type Device interface {
	// SampleRate returns the device's native sample rate in Hz.
	SampleRate() int
	// Start begins capture, invoking onChunk once per fixed-size block of
	// float32 samples in [-1, 1]. The chunk is only valid for the duration
	// of the callback.
	Start(onChunk func(chunk []float32)) error
	// Stop halts capture and releases the input stream.
	Stop() error
}

// Resample converts samples from one rate to another by linear
// interpolation. Equal rates return a copy.
func Resample(in []float32, from, to int) []float32 {
	if len(in) == 0 {
		return nil
	}
	if from == to {
		out := make([]float32, len(in))
		copy(out, in)
		return out
	}

	ratio := float64(from) / float64(to)
	out := make([]float32, int(float64(len(in))/ratio))
	for i := range out {
		pos := float64(i) * ratio
		left := int(pos)
		right := left + 1
		if right >= len(in) {
			right = len(in) - 1
		}
		frac := float32(pos - float64(left))
		out[i] = in[left]*(1-frac) + in[right]*frac
	}
	return out
}

// EncodePCM16 converts float samples to 16-bit signed little-endian bytes.
// Samples are clamped to [-1, 1] and scaled asymmetrically so that 1.0 maps
// to 32767 and -1.0 to -32768.
func EncodePCM16(samples []float32) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := float64(s)
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		var n int16
		if v < 0 {
			n = int16(math.Round(v * 32768))
		} else {
			n = int16(math.Round(v * 32767))
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(n))
	}
	return buf
}

// DecodePCM16 converts 16-bit signed little-endian bytes back to float
// samples. Odd trailing bytes are ignored.
func DecodePCM16(data []byte) []float32 {
	out := make([]float32, len(data)/2)
	for i := range out {
		n := int16(binary.LittleEndian.Uint16(data[i*2:]))
		if n < 0 {
			out[i] = float32(n) / 32768
		} else {
			out[i] = float32(n) / 32767
		}
	}
	return out
}

// DecodeFloat32 reinterprets little-endian IEEE 754 float32 bytes, the
// format clients use for binary audio frames. Odd trailing bytes are
// ignored.
func DecodeFloat32(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

// EncodePayload runs the full stop-side transform: resample to the target
// rate, encode PCM16, base64.
func EncodePayload(samples []float32, nativeRate int) string {
	if len(samples) == 0 {
		return ""
	}
	resampled := Resample(samples, nativeRate, TargetSampleRate)
	return base64.StdEncoding.EncodeToString(EncodePCM16(resampled))
}
