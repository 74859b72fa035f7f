package gemini

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/civicai/portal/domain/repositories"
	"github.com/civicai/portal/internal/metrics"
)

// Complete returns the model's free-text reply for a completion request
func (g *Gateway) Complete(ctx context.Context, req repositories.CompletionRequest) (string, error) {
	contents := buildContents(req.History, req.Prompt, req.Image)

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(*req.Temperature)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, contents, config)
	if err != nil {
		metrics.GatewayCalls.WithLabelValues("complete", "error").Inc()
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		metrics.GatewayCalls.WithLabelValues("complete", "empty").Inc()
		g.logger.Warn("No content generated", zap.String("model", g.textModel))
		return "", fmt.Errorf("model returned no content")
	}

	metrics.GatewayCalls.WithLabelValues("complete", "ok").Inc()
	return text, nil
}
