package repository

import (
	"context"

	"servio/internal/domain"
)

// ServiceAreaRepository defines the persistence operations for provider
// coverage areas.
type ServiceAreaRepository interface {
	// Create persists a new area. When the area is primary, any existing
	// primary area of the same provider is demoted in the same transaction.
	Create(ctx context.Context, area *domain.ServiceArea) error

	// GetByID retrieves an area by ID.
	GetByID(ctx context.Context, id string) (*domain.ServiceArea, error)

	// ListByProvider returns all areas declared by the provider.
	ListByProvider(ctx context.Context, providerID string) ([]*domain.ServiceArea, error)

	// Delete removes an area.
	Delete(ctx context.Context, id string) error
}
