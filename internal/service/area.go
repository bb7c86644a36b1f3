package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"servio/internal/domain"
	"servio/internal/geo"
	"servio/internal/redis"
	"servio/internal/repository"
)

const providerAreaLockTTL = 5 * time.Second

// AreaService manages provider-declared coverage areas.
type AreaService struct {
	region    geo.BoundingBox
	areaRepo  repository.ServiceAreaRepository
	lockStore redis.LockStoreInterface
}

// NewAreaService creates a new AreaService.
func NewAreaService(region geo.BoundingBox, areaRepo repository.ServiceAreaRepository, lockStore redis.LockStoreInterface) *AreaService {
	return &AreaService{
		region:    region,
		areaRepo:  areaRepo,
		lockStore: lockStore,
	}
}

// AddAreaRequest contains the parameters for declaring a coverage area.
type AddAreaRequest struct {
	ProviderID        string
	Label             string
	Center            geo.Position
	RadiusKm          float64
	IsPrimary         bool
	TravelTimeMinutes int
}

// Add declares a new coverage area. Setting a new primary area atomically
// demotes the provider's existing primary; concurrent primary swaps for the
// same provider are serialized by a provider-scoped lock.
func (s *AreaService) Add(ctx context.Context, req AddAreaRequest) (*domain.ServiceArea, error) {
	area := &domain.ServiceArea{
		ID:                uuid.New().String(),
		ProviderID:        req.ProviderID,
		Label:             req.Label,
		Center:            req.Center,
		RadiusKm:          req.RadiusKm,
		IsPrimary:         req.IsPrimary,
		TravelTimeMinutes: req.TravelTimeMinutes,
		CreatedAt:         time.Now(),
	}

	if !area.ValidRadius() {
		return nil, ErrInvalidRadius
	}
	if !s.region.Contains(area.Center) {
		return nil, ErrInvalidPosition
	}

	if req.IsPrimary && s.lockStore != nil {
		locked, err := s.lockStore.AcquireProviderLock(ctx, req.ProviderID, providerAreaLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, ErrConcurrentModification
		}
		defer s.lockStore.ReleaseProviderLock(ctx, req.ProviderID)
	}

	if err := s.areaRepo.Create(ctx, area); err != nil {
		return nil, err
	}
	return area, nil
}

// Remove deletes an area owned by the requesting provider.
func (s *AreaService) Remove(ctx context.Context, areaID, requesterProviderID string) error {
	area, err := s.areaRepo.GetByID(ctx, areaID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return err
	}
	if area.ProviderID != requesterProviderID {
		return ErrNotOwner
	}
	return s.areaRepo.Delete(ctx, areaID)
}

// List returns all areas declared by the provider.
func (s *AreaService) List(ctx context.Context, providerID string) ([]*domain.ServiceArea, error) {
	return s.areaRepo.ListByProvider(ctx, providerID)
}

// ContainsPoint reports whether the point lies within any of the provider's
// declared areas.
func (s *AreaService) ContainsPoint(ctx context.Context, providerID string, p geo.Position) (bool, error) {
	areas, err := s.areaRepo.ListByProvider(ctx, providerID)
	if err != nil {
		return false, err
	}
	for _, area := range areas {
		if area.Contains(p) {
			return true, nil
		}
	}
	return false, nil
}
