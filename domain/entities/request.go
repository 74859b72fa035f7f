package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents the processing state of a service request
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "Pending"
	RequestStatusProcessed RequestStatus = "Processed"
)

// ServiceRequest is one citizen request sitting in the administration queue
type ServiceRequest struct {
	ID             string                `json:"id"`
	Subject        string                `json:"subject"`
	Classification *ClassificationResult `json:"classification,omitempty"`
	Status         RequestStatus         `json:"status"`
	CreatedAt      time.Time             `json:"created_at"`
}

// NewServiceRequest creates a pending request for the given subject
func NewServiceRequest(subject string) *ServiceRequest {
	return &ServiceRequest{
		ID:        uuid.New().String(),
		Subject:   subject,
		Status:    RequestStatusPending,
		CreatedAt: time.Now(),
	}
}

// MarkProcessed transitions the request out of the pending queue
func (r *ServiceRequest) MarkProcessed() {
	r.Status = RequestStatusProcessed
}

// Validate validates the request data
func (r *ServiceRequest) Validate() error {
	if r.Subject == "" {
		return errors.New("subject is required")
	}
	if r.Status != RequestStatusPending && r.Status != RequestStatusProcessed {
		return errors.New("invalid request status")
	}
	return nil
}
