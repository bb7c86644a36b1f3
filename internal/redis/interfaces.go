package redis

import (
	"context"
	"time"

	"servio/internal/domain"
	"servio/internal/geo"
)

// LocationStoreInterface defines the interface for provider location
// operations.
type LocationStoreInterface interface {
	Record(ctx context.Context, sample *domain.LocationSample) error
	Latest(ctx context.Context, providerID string) (*domain.LocationSample, bool, error)
	OnlineWithin(ctx context.Context, center geo.Position, radiusKm float64, maxAge time.Duration) ([]*domain.LocationSample, error)
	SetOffline(ctx context.Context, providerID string) error
	IsOnline(ctx context.Context, providerID string) (bool, error)
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (bool, error)
	ReleaseBookingLock(ctx context.Context, bookingID string) error
	AcquireProviderLock(ctx context.Context, providerID string, ttl time.Duration) (bool, error)
	ReleaseProviderLock(ctx context.Context, providerID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
