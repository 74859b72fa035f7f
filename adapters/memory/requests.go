package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/civicai/portal/domain/entities"
)

// ErrRequestNotFound is returned when a request id is unknown
var ErrRequestNotFound = errors.New("service request not found")

// RequestRepository is an in-memory implementation of
// repositories.ServiceRequestRepository. All conversation and queue state
// is in-memory by design; nothing survives a restart.
type RequestRepository struct {
	mu       sync.RWMutex
	requests map[string]*entities.ServiceRequest
}

// NewRequestRepository creates an empty in-memory request repository
func NewRequestRepository() *RequestRepository {
	return &RequestRepository{
		requests: make(map[string]*entities.ServiceRequest),
	}
}

// Create stores a new service request
func (m *RequestRepository) Create(ctx context.Context, req *entities.ServiceRequest) error {
	if req == nil {
		return errors.New("request cannot be nil")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if _, exists := m.requests[req.ID]; exists {
		return errors.New("request with this id already exists")
	}

	stored := *req
	m.requests[req.ID] = &stored
	return nil
}

// GetByID returns a copy of the request with the given id
func (m *RequestRepository) GetByID(ctx context.Context, id string) (*entities.ServiceRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	req, exists := m.requests[id]
	if !exists {
		return nil, ErrRequestNotFound
	}

	found := *req
	return &found, nil
}

// List returns all requests, newest first
func (m *RequestRepository) List(ctx context.Context) ([]*entities.ServiceRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*entities.ServiceRequest, 0, len(m.requests))
	for _, req := range m.requests {
		found := *req
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update replaces a stored request
func (m *RequestRepository) Update(ctx context.Context, req *entities.ServiceRequest) error {
	if req == nil {
		return errors.New("request cannot be nil")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.requests[req.ID]; !exists {
		return ErrRequestNotFound
	}

	stored := *req
	m.requests[req.ID] = &stored
	return nil
}
