package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/civicai/portal/domain/entities"
	"github.com/civicai/portal/domain/repositories"
)

// ErrUnknownService is returned for a service name the catalog lacks
var ErrUnknownService = errors.New("unknown service")

// serviceCatalog names the government services the portal explains
var serviceCatalog = map[string]string{
	"aadhaar":           "Aadhaar identity enrollment and updates",
	"pan":               "Permanent Account Number issuance and corrections",
	"passport":          "Passport application and renewal",
	"driving-license":   "Driving license issuance and renewal",
	"birth-certificate": "Birth certificate registration and copies",
	"ration-card":       "Ration card enrollment and member changes",
}

var serviceDetailSchema = &repositories.Schema{
	Type: repositories.TypeObject,
	Properties: map[string]*repositories.Schema{
		"summary":        {Type: repositories.TypeString},
		"features":       {Type: repositories.TypeArray, Items: &repositories.Schema{Type: repositories.TypeString}},
		"steps":          {Type: repositories.TypeArray, Items: &repositories.Schema{Type: repositories.TypeString}},
		"aiInsight":      {Type: repositories.TypeString},
		"processingTime": {Type: repositories.TypeString},
		"checklist":      {Type: repositories.TypeArray, Items: &repositories.Schema{Type: repositories.TypeString}},
	},
	Required: []string{"summary", "steps"},
}

var rejectionSchema = &repositories.Schema{
	Type: repositories.TypeObject,
	Properties: map[string]*repositories.Schema{
		"approvalProbability": {Type: repositories.TypeNumber},
		"riskLevel": {
			Type: repositories.TypeString,
			Enum: []string{string(entities.PriorityLow), string(entities.PriorityMedium), string(entities.PriorityHigh)},
		},
		"redFlags":        {Type: repositories.TypeArray, Items: &repositories.Schema{Type: repositories.TypeString}},
		"mitigationSteps": {Type: repositories.TypeArray, Items: &repositories.Schema{Type: repositories.TypeString}},
		"aiAnalystNote":   {Type: repositories.TypeString},
	},
	Required: []string{"approvalProbability", "riskLevel"},
}

// ServiceInfoService explains individual government services and estimates
// rejection risk for a planned application
type ServiceInfoService struct {
	gateway repositories.InferenceGateway
	logger  *zap.Logger
}

// NewServiceInfoService creates a service catalog explainer
func NewServiceInfoService(gateway repositories.InferenceGateway, logger *zap.Logger) *ServiceInfoService {
	return &ServiceInfoService{gateway: gateway, logger: logger}
}

// Names lists the catalog's service identifiers
func (s *ServiceInfoService) Names() []string {
	names := make([]string, 0, len(serviceCatalog))
	for name := range serviceCatalog {
		names = append(names, name)
	}
	return names
}

// Detail describes one catalog service in citizen terms
func (s *ServiceInfoService) Detail(ctx context.Context, name string) (entities.ServiceDetailInfo, error) {
	description, ok := serviceCatalog[name]
	if !ok {
		return entities.ServiceDetailInfo{}, ErrUnknownService
	}

	prompt := fmt.Sprintf("Describe the government service %q for a citizen: "+
		"a short summary, its key features, the application steps in order, "+
		"one practical insight applicants usually miss, the typical processing time, "+
		"and a document checklist.", description)

	var detail entities.ServiceDetailInfo
	err := s.gateway.GenerateStructured(ctx, repositories.StructuredRequest{
		Prompt: prompt,
		Schema: serviceDetailSchema,
	}, &detail)
	if err != nil {
		s.logger.Warn("Service detail failed", zap.String("service", name), zap.Error(err))
		return entities.ServiceDetailInfo{}, fmt.Errorf("service detail: %w", err)
	}
	return detail, nil
}

// PredictRejection estimates how likely an application for the named
// service is to be rejected, given the applicant's own summary of it
func (s *ServiceInfoService) PredictRejection(ctx context.Context, name, applicationSummary string) (entities.RejectionPrediction, error) {
	description, ok := serviceCatalog[name]
	if !ok {
		return entities.RejectionPrediction{}, ErrUnknownService
	}

	prompt := fmt.Sprintf("An applicant is preparing an application for %q. "+
		"Their own summary of the application follows. Estimate the approval "+
		"probability as a fraction between 0 and 1, rate the rejection risk "+
		"(Low, Medium, or High), list concrete red flags, suggest mitigation "+
		"steps, and add a short analyst note.\n\nApplication summary:\n%s",
		description, applicationSummary)

	var prediction entities.RejectionPrediction
	err := s.gateway.GenerateStructured(ctx, repositories.StructuredRequest{
		Prompt: prompt,
		Schema: rejectionSchema,
	}, &prediction)
	if err != nil {
		s.logger.Warn("Rejection prediction failed", zap.String("service", name), zap.Error(err))
		return entities.RejectionPrediction{}, fmt.Errorf("rejection prediction: %w", err)
	}
	return prediction, nil
}
