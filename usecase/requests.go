package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/civicai/portal/domain/entities"
	"github.com/civicai/portal/domain/repositories"
)

var classificationSchema = &repositories.Schema{
	Type: repositories.TypeObject,
	Properties: map[string]*repositories.Schema{
		"category": {Type: repositories.TypeString},
		"priority": {
			Type: repositories.TypeString,
			Enum: []string{string(entities.PriorityLow), string(entities.PriorityMedium), string(entities.PriorityHigh)},
		},
		"department":    {Type: repositories.TypeString},
		"urgencyReason": {Type: repositories.TypeString},
	},
	Required: []string{"category", "priority", "department"},
}

// RequestService runs the administration queue: citizens submit requests,
// each one is classified for routing, and high-priority requests wait for
// an explicit operator confirmation before leaving the queue.
type RequestService struct {
	repo    repositories.ServiceRequestRepository
	gateway repositories.InferenceGateway
	logger  *zap.Logger
}

// NewRequestService creates a request queue service
func NewRequestService(
	repo repositories.ServiceRequestRepository,
	gateway repositories.InferenceGateway,
	logger *zap.Logger,
) *RequestService {
	return &RequestService{repo: repo, gateway: gateway, logger: logger}
}

// Submit files a new request and classifies it. Requests below High
// priority are processed immediately; High ones stay pending with their
// classification attached until an operator confirms. A failed
// classification leaves the request pending and unclassified rather than
// losing it.
func (s *RequestService) Submit(ctx context.Context, subject string) (*entities.ServiceRequest, error) {
	request := entities.NewServiceRequest(subject)
	if err := request.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	classification, err := s.classify(ctx, subject)
	if err != nil {
		s.logger.Warn("Request classification failed",
			zap.String("request_id", request.ID), zap.Error(err))
		return request, nil
	}

	request.Classification = classification
	if classification.Priority != entities.PriorityHigh {
		request.MarkProcessed()
	} else {
		s.logger.Info("High-priority request held for confirmation",
			zap.String("request_id", request.ID),
			zap.String("department", classification.Department))
	}
	if err := s.repo.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}
	return request, nil
}

// Classify re-runs classification for a queued request, for requests that
// were filed while the classifier was unavailable. Same priority rules as
// Submit: anything below High leaves the queue immediately.
func (s *RequestService) Classify(ctx context.Context, id string) (*entities.ServiceRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	classification, err := s.classify(ctx, request.Subject)
	if err != nil {
		return nil, fmt.Errorf("classify request: %w", err)
	}

	request.Classification = classification
	if classification.Priority != entities.PriorityHigh && request.Status == entities.RequestStatusPending {
		request.MarkProcessed()
	}
	if err := s.repo.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}
	return request, nil
}

// Process confirms a pending request out of the queue
func (s *RequestService) Process(ctx context.Context, id string) (*entities.ServiceRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	request.MarkProcessed()
	if err := s.repo.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}
	s.logger.Info("Request processed", zap.String("request_id", id))
	return request, nil
}

// Get returns one request by id
func (s *RequestService) Get(ctx context.Context, id string) (*entities.ServiceRequest, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the queue, newest first
func (s *RequestService) List(ctx context.Context) ([]*entities.ServiceRequest, error) {
	return s.repo.List(ctx)
}

func (s *RequestService) classify(ctx context.Context, subject string) (*entities.ClassificationResult, error) {
	prompt := "Classify the following citizen service request for routing. " +
		"Choose a category, a priority (Low, Medium, or High), the responsible " +
		"government department, and explain the urgency when priority is High.\n\n" +
		"Request: " + subject

	var result entities.ClassificationResult
	err := s.gateway.GenerateStructured(ctx, repositories.StructuredRequest{
		Prompt: prompt,
		Schema: classificationSchema,
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.Category == "" && result.Priority == "" {
		return nil, fmt.Errorf("empty classification for request")
	}
	return &result, nil
}
