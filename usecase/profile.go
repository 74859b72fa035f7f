package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/civicai/portal/domain/entities"
	"github.com/civicai/portal/domain/repositories"
)

// ErrEmptyImage is returned when a document extraction carries no image
var ErrEmptyImage = errors.New("document image is empty")

var profileSchema = &repositories.Schema{
	Type: repositories.TypeObject,
	Properties: map[string]*repositories.Schema{
		"fullName":       {Type: repositories.TypeString},
		"dateOfBirth":    {Type: repositories.TypeString},
		"gender":         {Type: repositories.TypeString},
		"state":          {Type: repositories.TypeString},
		"district":       {Type: repositories.TypeString},
		"documentMasked": {Type: repositories.TypeString},
	},
	Required: []string{"fullName"},
}

// ProfileService extracts identity details from uploaded documents and
// answers questions grounded in the citizen's profile. Extracted profiles
// are returned to the caller, never stored.
type ProfileService struct {
	gateway repositories.InferenceGateway
	logger  *zap.Logger
}

// NewProfileService creates a profile service
func NewProfileService(gateway repositories.InferenceGateway, logger *zap.Logger) *ProfileService {
	return &ProfileService{gateway: gateway, logger: logger}
}

// ExtractFromImage reads the identity fields off a photographed document.
// Document numbers come back masked to their last four characters.
func (s *ProfileService) ExtractFromImage(ctx context.Context, data []byte, mimeType string) (entities.UserProfile, error) {
	if len(data) == 0 {
		return entities.UserProfile{}, ErrEmptyImage
	}

	prompt := "Extract the identity details from this government identity document image: " +
		"full name, date of birth, gender, state, and district. " +
		"Mask the document number so only the last four characters remain visible."

	var profile entities.UserProfile
	err := s.gateway.GenerateStructured(ctx, repositories.StructuredRequest{
		Prompt: prompt,
		Image:  &repositories.ImageInput{Data: data, MIMEType: mimeType},
		Schema: profileSchema,
	}, &profile)
	if err != nil {
		s.logger.Warn("Profile extraction failed", zap.Error(err))
		return entities.UserProfile{}, fmt.Errorf("profile extraction: %w", err)
	}
	return profile, nil
}

// Ask answers a question using the citizen's profile as grounding context
func (s *ProfileService) Ask(ctx context.Context, profile entities.UserProfile, question string) (string, error) {
	system := "You are CivicAI, a personal assistant for a citizen services portal. " +
		"Answer the citizen's question using their profile where relevant. " +
		"Never reveal more of the document number than the profile already shows.\n\n" +
		fmt.Sprintf("Profile: name %s, date of birth %s, gender %s, state %s, district %s, document %s",
			profile.FullName, profile.DateOfBirth, profile.Gender,
			profile.State, profile.District, profile.DocumentMasked)

	answer, err := s.gateway.Complete(ctx, repositories.CompletionRequest{
		System: system,
		Prompt: question,
	})
	if err != nil {
		s.logger.Warn("Profile question failed", zap.Error(err))
		return "", fmt.Errorf("profile question: %w", err)
	}
	return answer, nil
}
