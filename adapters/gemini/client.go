package gemini

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/civicai/portal/domain/repositories"
)

const (
	defaultTextModel = "gemini-2.0-flash"
	defaultLiveModel = "gemini-2.5-flash-native-audio-preview-09-2025"
)

// Config holds the gateway client configuration
type Config struct {
	APIKey    string
	TextModel string
	LiveModel string
}

// Validate checks the configuration before any call is attempted
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("gemini api key is required")
	}
	return nil
}

// Gateway implements repositories.InferenceGateway and
// repositories.RealtimeGateway on the Gemini API. One authenticated
// instance is constructed at startup and shared by all collaborators.
type Gateway struct {
	client    *genai.Client
	logger    *zap.Logger
	textModel string
	liveModel string
}

// New creates an authenticated Gemini gateway
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	textModel := cfg.TextModel
	if textModel == "" {
		textModel = defaultTextModel
	}
	liveModel := cfg.LiveModel
	if liveModel == "" {
		liveModel = defaultLiveModel
	}

	return &Gateway{
		client:    client,
		logger:    logger,
		textModel: textModel,
		liveModel: liveModel,
	}, nil
}

// buildContents assembles the ordered contents for a generation call
func buildContents(history []repositories.ChatMessage, prompt string, image *repositories.ImageInput) []*genai.Content {
	var contents []*genai.Content

	for _, msg := range history {
		role := genai.Role(genai.RoleUser)
		if msg.Role == repositories.AssistantRole {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	if image != nil {
		parts := []*genai.Part{genai.NewPartFromBytes(image.Data, image.MIMEType)}
		if prompt != "" {
			parts = append(parts, genai.NewPartFromText(prompt))
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	} else if prompt != "" {
		contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))
	}

	return contents
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
