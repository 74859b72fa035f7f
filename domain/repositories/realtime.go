package repositories

import (
	"context"
	"errors"
)

// ErrChannelClosed reports a clean remote-initiated close of a live channel
var ErrChannelClosed = errors.New("live channel closed")

// LiveConfig configures one realtime voice session
type LiveConfig struct {
	SystemInstruction string
	Voice             string
	Language          string
}

// AudioFrame is one outbound microphone frame, already encoded for the wire:
// base64 of 16-bit little-endian PCM, tagged with a MIME-style rate descriptor.
type AudioFrame struct {
	Data     string
	MIMEType string
}

// LiveEvent is one inbound message from the realtime channel. Any combination
// of fields may be set on a single event.
type LiveEvent struct {
	// Audio is a decoded chunk of synthesized 24 kHz mono PCM
	Audio []byte
	// Transcript is an incremental fragment of the assistant's utterance
	Transcript string
	// Interrupted signals that queued playback should be discarded
	Interrupted bool
	// TurnComplete marks the end of the current assistant utterance
	TurnComplete bool
}

// LiveChannel is an open duplex audio channel to the remote endpoint
type LiveChannel interface {
	// Send pushes one microphone frame; frames are sent as produced,
	// without client-side batching
	Send(ctx context.Context, frame AudioFrame) error
	// Receive blocks for the next inbound event. A clean remote close is
	// reported as ErrChannelClosed
	Receive() (LiveEvent, error)
	Close() error
}

// RealtimeGateway opens realtime voice sessions against the remote endpoint
type RealtimeGateway interface {
	Connect(ctx context.Context, cfg LiveConfig) (LiveChannel, error)
}
