package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"servio/internal/domain"
	"servio/internal/geo"
	"servio/internal/redis"
	"servio/internal/repository"
)

// LocationService ingests provider position pings. The latest position and
// the geo index live in Redis; every sample is also appended to PostgreSQL
// for audit.
type LocationService struct {
	region        geo.BoundingBox
	locationStore redis.LocationStoreInterface
	locationRepo  repository.LocationRepository
}

// NewLocationService creates a new LocationService.
func NewLocationService(region geo.BoundingBox, locationStore redis.LocationStoreInterface, locationRepo repository.LocationRepository) *LocationService {
	return &LocationService{
		region:        region,
		locationStore: locationStore,
		locationRepo:  locationRepo,
	}
}

// RecordRequest contains one provider position ping.
type RecordRequest struct {
	ProviderID     string
	Position       geo.Position
	AccuracyMeters float64
	HeadingDegrees float64
	SpeedKmh       float64
	Online         bool
	BatteryPercent int
}

// Record ingests a ping: it replaces the provider's latest known position and
// appends to the audit trail. Pings from different providers never contend.
func (s *LocationService) Record(ctx context.Context, req RecordRequest) (*domain.LocationSample, error) {
	if !s.region.Contains(req.Position) {
		return nil, ErrInvalidPosition
	}

	sample := &domain.LocationSample{
		ID:             uuid.New().String(),
		ProviderID:     req.ProviderID,
		Position:       req.Position,
		AccuracyMeters: req.AccuracyMeters,
		HeadingDegrees: req.HeadingDegrees,
		SpeedKmh:       req.SpeedKmh,
		Online:         req.Online,
		BatteryPercent: req.BatteryPercent,
		CapturedAt:     time.Now(),
	}

	if err := s.locationStore.Record(ctx, sample); err != nil {
		return nil, err
	}

	// Audit append is best-effort relative to the hot path; a failed insert
	// must not reject the ping.
	if s.locationRepo != nil {
		_ = s.locationRepo.Append(ctx, sample)
	}
	return sample, nil
}

// SetOffline removes the provider from the online index. Idempotent: going
// offline twice is not an error.
func (s *LocationService) SetOffline(ctx context.Context, providerID string) error {
	return s.locationStore.SetOffline(ctx, providerID)
}

// Latest returns the provider's most recent known sample, or nil when the
// provider has never pinged.
func (s *LocationService) Latest(ctx context.Context, providerID string) (*domain.LocationSample, error) {
	sample, found, err := s.locationStore.Latest(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return sample, nil
}
