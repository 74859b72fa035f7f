package voice

import (
	"encoding/base64"
	"encoding/binary"
)

const (
	// InputSampleRate is the microphone capture rate in Hz
	InputSampleRate = 16000
	// OutputSampleRate is the synthesized playback rate in Hz
	OutputSampleRate = 24000
	// InputMIMEType tags outbound frames with their rate descriptor
	InputMIMEType = "audio/pcm;rate=16000"
)

// EncodePCM16 converts floating-point samples in [-1,1] to 16-bit signed
// little-endian PCM. The scale factor is 32768 with truncation toward zero;
// samples outside the representable range are clamped.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := s * 32768
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}

// EncodeFrame encodes one microphone frame for the realtime wire
func EncodeFrame(samples []float32) string {
	return base64.StdEncoding.EncodeToString(EncodePCM16(samples))
}

// ChunkDuration returns the playback duration in seconds of a chunk of
// 16-bit mono PCM at the given sample rate
func ChunkDuration(pcmBytes int, sampleRate int) float64 {
	return float64(pcmBytes/2) / float64(sampleRate)
}
