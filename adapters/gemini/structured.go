package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/civicai/portal/domain/repositories"
	"github.com/civicai/portal/internal/metrics"
)

// GenerateStructured runs a generation call constrained to the declared
// shape and decodes the reply into out. A reply that does not parse leaves
// out at its zero value so rendering never breaks on a malformed response.
func (g *Gateway) GenerateStructured(ctx context.Context, req repositories.StructuredRequest, out interface{}) error {
	contents := buildContents(nil, req.Prompt, req.Image)

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenaiSchema(req.Schema),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, contents, config)
	if err != nil {
		metrics.GatewayCalls.WithLabelValues("structured", "error").Inc()
		return fmt.Errorf("generate structured content: %w", err)
	}

	text := responseText(resp)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		metrics.GatewayCalls.WithLabelValues("structured", "unparsable").Inc()
		g.logger.Warn("Structured response did not match declared shape",
			zap.String("model", g.textModel),
			zap.Error(err))
		return nil
	}

	metrics.GatewayCalls.WithLabelValues("structured", "ok").Inc()
	return nil
}

// toGenaiSchema converts a declared response shape to the wire schema
func toGenaiSchema(s *repositories.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Enum:     s.Enum,
		Required: s.Required,
		Items:    toGenaiSchema(s.Items),
	}

	switch s.Type {
	case repositories.TypeObject:
		out.Type = genai.TypeObject
	case repositories.TypeString:
		out.Type = genai.TypeString
	case repositories.TypeNumber:
		out.Type = genai.TypeNumber
	case repositories.TypeBoolean:
		out.Type = genai.TypeBoolean
	case repositories.TypeArray:
		out.Type = genai.TypeArray
	}

	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}

	return out
}
