package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/civicai/portal/domain/entities"
	"github.com/civicai/portal/domain/repositories"
)

const assistantSystemInstruction = "You are CivicAI, a friendly assistant for a citizen services portal. " +
	"You help citizens understand government schemes, forms, and procedures in plain language. " +
	"Answer concisely, avoid legal jargon, and say so when you are not certain."

// AssistantService answers general civic questions over a running
// conversation. The transcript lives only in the caller's session.
type AssistantService struct {
	gateway repositories.InferenceGateway
	logger  *zap.Logger
}

// NewAssistantService creates an assistant service
func NewAssistantService(gateway repositories.InferenceGateway, logger *zap.Logger) *AssistantService {
	return &AssistantService{gateway: gateway, logger: logger}
}

// Ask appends the question to the conversation, asks the model with the
// prior turns as context, and appends and returns the reply
func (s *AssistantService) Ask(ctx context.Context, conv *entities.Conversation, question string) (entities.Message, error) {
	history := make([]repositories.ChatMessage, 0, conv.Len())
	for _, msg := range conv.Messages {
		history = append(history, repositories.ChatMessage{
			Role:    repositories.Role(msg.Role),
			Content: msg.Content,
		})
	}
	conv.Append(entities.MessageRoleUser, question)

	temp := float32(0.7)
	answer, err := s.gateway.Complete(ctx, repositories.CompletionRequest{
		System:      assistantSystemInstruction,
		History:     history,
		Prompt:      question,
		Temperature: &temp,
	})
	if err != nil {
		s.logger.Warn("Assistant completion failed", zap.Error(err))
		return entities.Message{}, fmt.Errorf("assistant completion: %w", err)
	}

	return conv.Append(entities.MessageRoleAssistant, answer), nil
}
