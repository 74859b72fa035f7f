package websocket

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/civicai/portal/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	// client to server
	MessageTypeSessionStart MessageType = "session_start"
	MessageTypeSessionStop  MessageType = "session_stop"
	MessageTypeMicReady     MessageType = "mic_ready"
	MessageTypeMicDenied    MessageType = "mic_denied"
	MessageTypeAudioFrame   MessageType = "audio_frame"

	// server to client
	MessageTypeAudioOut      MessageType = "audio_out"
	MessageTypeTranscript    MessageType = "transcript"
	MessageTypeInterrupted   MessageType = "interrupted"
	MessageTypeSessionClosed MessageType = "session_closed"
	MessageTypeError         MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// ClientMessage is the envelope every inbound frame is parsed into
type ClientMessage struct {
	Type MessageType `json:"type"`
	// Data carries base64 audio for audio_frame messages
	Data string `json:"data,omitempty"`
}

// ParseClientMessage decodes one inbound text frame
func ParseClientMessage(raw []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("invalid JSON frame: %w", err)
	}
	if msg.Type == "" {
		return ClientMessage{}, fmt.Errorf("frame missing type field")
	}
	return msg, nil
}

// DecodeAudioFrame unpacks an audio_frame payload: base64 of 32-bit
// little-endian IEEE 754 mono samples, as captured by the browser
func DecodeAudioFrame(data string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("audio frame is not valid base64: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("audio frame length %d is not a whole number of samples", len(raw))
	}
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return samples, nil
}

// AudioOutMessage carries one synthesized chunk with its playback slot
type AudioOutMessage struct {
	BaseMessage
	// Data is base64 of 16-bit little-endian PCM at 24 kHz
	Data string `json:"data"`
	// Start is the chunk's slot on the session playback clock, in seconds
	Start float64 `json:"start"`
	// Duration is the chunk's length in seconds
	Duration float64 `json:"duration"`
}

// TranscriptMessage carries the coalesced assistant transcript so far
type TranscriptMessage struct {
	BaseMessage
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionClosedMessage reports the end of a voice session
type SessionClosedMessage struct {
	BaseMessage
	Error string `json:"error,omitempty"`
}

// ErrorMessage reports a recoverable protocol or upstream failure
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func newBase(t MessageType) BaseMessage {
	return BaseMessage{Type: t, Timestamp: time.Now().Format(time.RFC3339)}
}

// NewAudioOutMessage builds an audio_out frame
func NewAudioOutMessage(pcm []byte, start, duration float64) *AudioOutMessage {
	return &AudioOutMessage{
		BaseMessage: newBase(MessageTypeAudioOut),
		Data:        base64.StdEncoding.EncodeToString(pcm),
		Start:       start,
		Duration:    duration,
	}
}

// NewTranscriptMessage builds a transcript frame from a message entity
func NewTranscriptMessage(msg entities.Message) *TranscriptMessage {
	return &TranscriptMessage{
		BaseMessage: newBase(MessageTypeTranscript),
		ID:          msg.ID,
		Role:        string(msg.Role),
		Content:     msg.Content,
	}
}

// NewInterruptedMessage builds an interrupted frame
func NewInterruptedMessage() *BaseMessage {
	base := newBase(MessageTypeInterrupted)
	return &base
}

// NewSessionClosedMessage builds a session_closed frame
func NewSessionClosedMessage(err error) *SessionClosedMessage {
	msg := &SessionClosedMessage{BaseMessage: newBase(MessageTypeSessionClosed)}
	if err != nil {
		msg.Error = err.Error()
	}
	return msg
}

// NewErrorMessage builds an error frame
func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: newBase(MessageTypeError),
		Code:        code,
		Message:     message,
	}
}
