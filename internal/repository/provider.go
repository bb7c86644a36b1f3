package repository

import (
	"context"

	"servio/internal/domain"
)

// ProviderRepository defines read/update operations on provider profiles.
type ProviderRepository interface {
	// GetByID retrieves a provider profile.
	GetByID(ctx context.Context, id string) (*domain.Provider, error)

	// GetByIDs retrieves multiple profiles keyed by ID; missing IDs are
	// simply absent from the result.
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Provider, error)
}
