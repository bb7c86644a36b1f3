package repository

import (
	"context"

	"servio/internal/domain"
)

// CatalogRepository is the read-only view of the catalog subsystem: service
// definitions and per-provider offerings.
type CatalogRepository interface {
	// GetService retrieves a service definition.
	GetService(ctx context.Context, serviceID string) (*domain.CatalogService, error)

	// GetOffering retrieves one provider's offering for a service.
	GetOffering(ctx context.Context, providerID, serviceID string) (*domain.ServiceOffering, error)

	// ListOfferings returns all active, available offerings for a service.
	ListOfferings(ctx context.Context, serviceID string) ([]*domain.ServiceOffering, error)
}
