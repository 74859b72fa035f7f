package websocket

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"testing"

	"github.com/civicai/portal/domain/entities"
)

func TestParseClientMessage(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"session_start"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.Type != MessageTypeSessionStart {
		t.Errorf("type: got %q", msg.Type)
	}
}

func TestParseClientMessageWithData(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"audio_frame","data":"AAAA"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.Type != MessageTypeAudioFrame || msg.Data != "AAAA" {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestParseClientMessageRejectsGarbage(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := ParseClientMessage([]byte(`{"data":"x"}`)); err == nil {
		t.Error("expected error for missing type")
	}
}

func encodeSamples(samples []float32) string {
	raw := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(s))
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestDecodeAudioFrame(t *testing.T) {
	want := []float32{0, 0.5, -0.25, 1}
	got, err := DecodeAudioFrame(encodeSamples(want))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("length: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDecodeAudioFrameErrors(t *testing.T) {
	if _, err := DecodeAudioFrame("!!not-base64!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	// 3 bytes is not a whole float32
	short := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	if _, err := DecodeAudioFrame(short); err == nil {
		t.Error("expected error for a partial sample")
	}
}

func TestNewAudioOutMessage(t *testing.T) {
	pcm := []byte{0x00, 0x40}
	msg := NewAudioOutMessage(pcm, 1.5, 0.25)

	if msg.Type != MessageTypeAudioOut {
		t.Errorf("type: got %q", msg.Type)
	}
	if msg.Start != 1.5 || msg.Duration != 0.25 {
		t.Errorf("slot: got start=%v duration=%v", msg.Start, msg.Duration)
	}
	raw, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil || len(raw) != 2 {
		t.Errorf("data not base64 of the pcm: %v", err)
	}
}

func TestNewTranscriptMessage(t *testing.T) {
	src := entities.NewMessage(entities.MessageRoleAssistant, "hello there")
	msg := NewTranscriptMessage(src)

	if msg.Type != MessageTypeTranscript {
		t.Errorf("type: got %q", msg.Type)
	}
	if msg.ID != src.ID || msg.Role != "assistant" || msg.Content != "hello there" {
		t.Errorf("unexpected transcript frame: %+v", msg)
	}
}

func TestNewSessionClosedMessage(t *testing.T) {
	clean := NewSessionClosedMessage(nil)
	if clean.Error != "" {
		t.Errorf("clean close carries an error: %q", clean.Error)
	}

	raw, err := json.Marshal(clean)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	json.Unmarshal(raw, &decoded)
	if _, present := decoded["error"]; present {
		t.Error("empty error field not omitted")
	}
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage("session_start_failed", "upstream unavailable")
	if msg.Type != MessageTypeError || msg.Code != "session_start_failed" {
		t.Errorf("unexpected error frame: %+v", msg)
	}
}
