package entities

import (
	"strings"
	"testing"
)

func TestConversationAppend(t *testing.T) {
	conv := &Conversation{}

	userContent := "I need a passport"
	msg := conv.Append(MessageRoleUser, userContent)

	if conv.Len() != 1 {
		t.Errorf("Expected 1 message, got %d", conv.Len())
	}
	if msg.ID == "" {
		t.Error("Expected message to carry an id")
	}
	if msg.Role != MessageRoleUser {
		t.Errorf("Expected user role, got %s", msg.Role)
	}
	if msg.Content != userContent {
		t.Errorf("Expected content %q, got %q", userContent, msg.Content)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}

	conv.Append(MessageRoleAssistant, "Which type of passport?")
	if conv.Len() != 2 {
		t.Errorf("Expected 2 messages, got %d", conv.Len())
	}
	if conv.Messages[1].Role != MessageRoleAssistant {
		t.Errorf("Expected assistant role, got %s", conv.Messages[1].Role)
	}
}

func TestConversationFlatten(t *testing.T) {
	conv := &Conversation{}
	conv.Append(MessageRoleUser, "Hello")
	conv.Append(MessageRoleAssistant, "Hi, what do you need?")
	conv.Append(MessageRoleUser, "A birth certificate")

	flat := conv.Flatten()

	lines := strings.Split(strings.TrimRight(flat, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), flat)
	}
	if lines[0] != "user: Hello" {
		t.Errorf("Unexpected first line: %q", lines[0])
	}
	if lines[1] != "assistant: Hi, what do you need?" {
		t.Errorf("Unexpected second line: %q", lines[1])
	}
	if lines[2] != "user: A birth certificate" {
		t.Errorf("Unexpected third line: %q", lines[2])
	}
}

func TestConversationFlattenEmpty(t *testing.T) {
	conv := &Conversation{}
	if flat := conv.Flatten(); flat != "" {
		t.Errorf("Expected empty document for empty transcript, got %q", flat)
	}
}
