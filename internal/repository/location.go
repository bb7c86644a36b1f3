package repository

import (
	"context"

	"servio/internal/domain"
)

// LocationRepository persists provider location samples for audit. Samples are
// append-only; the hot latest-position path lives in Redis.
type LocationRepository interface {
	// Append stores a new sample.
	Append(ctx context.Context, sample *domain.LocationSample) error

	// LatestByProvider returns the most recent persisted sample.
	LatestByProvider(ctx context.Context, providerID string) (*domain.LocationSample, error)

	// ListRecent returns up to limit samples for the provider, newest first.
	ListRecent(ctx context.Context, providerID string, limit int) ([]*domain.LocationSample, error)
}
