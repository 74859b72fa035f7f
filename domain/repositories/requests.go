package repositories

import (
	"context"

	"github.com/civicai/portal/domain/entities"
)

// ServiceRequestRepository defines data access methods for the
// administration queue of citizen requests
type ServiceRequestRepository interface {
	Create(ctx context.Context, req *entities.ServiceRequest) error
	GetByID(ctx context.Context, id string) (*entities.ServiceRequest, error)
	List(ctx context.Context) ([]*entities.ServiceRequest, error)
	Update(ctx context.Context, req *entities.ServiceRequest) error
}
