package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/civicai/portal/domain/entities"
	"github.com/civicai/portal/domain/repositories"
)

// ErrEmptyFormText is returned when there is nothing to analyze
var ErrEmptyFormText = errors.New("form text is empty")

var formAnalysisSchema = &repositories.Schema{
	Type: repositories.TypeObject,
	Properties: map[string]*repositories.Schema{
		"purpose":               {Type: repositories.TypeString},
		"requirements":          {Type: repositories.TypeArray, Items: &repositories.Schema{Type: repositories.TypeString}},
		"deadlines":             {Type: repositories.TypeString},
		"commonMistakes":        {Type: repositories.TypeArray, Items: &repositories.Schema{Type: repositories.TypeString}},
		"simplifiedExplanation": {Type: repositories.TypeString},
	},
	Required: []string{"purpose", "requirements", "simplifiedExplanation"},
}

// FormService explains pasted government form text in citizen terms
type FormService struct {
	gateway repositories.InferenceGateway
	logger  *zap.Logger
}

// NewFormService creates a form analysis service
func NewFormService(gateway repositories.InferenceGateway, logger *zap.Logger) *FormService {
	return &FormService{gateway: gateway, logger: logger}
}

// Analyze breaks a form's raw text down into purpose, requirements,
// deadlines, common mistakes, and a plain-language explanation
func (s *FormService) Analyze(ctx context.Context, formText string) (entities.FormAnalysis, error) {
	if formText == "" {
		return entities.FormAnalysis{}, ErrEmptyFormText
	}

	prompt := "Analyze the following government form or document text for a citizen. " +
		"Explain its purpose, list the requirements and any deadlines, point out mistakes " +
		"applicants commonly make, and give a simplified explanation in everyday language.\n\n" +
		"Form text:\n" + formText

	var analysis entities.FormAnalysis
	err := s.gateway.GenerateStructured(ctx, repositories.StructuredRequest{
		Prompt: prompt,
		Schema: formAnalysisSchema,
	}, &analysis)
	if err != nil {
		s.logger.Warn("Form analysis failed", zap.Error(err))
		return entities.FormAnalysis{}, fmt.Errorf("form analysis: %w", err)
	}
	return analysis, nil
}
