package service

import (
	"context"
	"errors"
	"sort"

	"servio/internal/config"
	"servio/internal/domain"
	"servio/internal/geo"
	"servio/internal/redis"
	"servio/internal/repository"
)

// MatchingService answers provider search requests: which online providers
// can serve a customer position for a given service, ranked by proximity.
// It performs no writes and is safe to run with arbitrary parallelism.
type MatchingService struct {
	cfg           config.MatchingConfig
	region        geo.BoundingBox
	travel        geo.TravelPolicy
	locationStore redis.LocationStoreInterface
	cacheStore    *redis.CacheStore
	catalogRepo   repository.CatalogRepository
	providerRepo  repository.ProviderRepository
	areaRepo      repository.ServiceAreaRepository
	pricing       *PricingService
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(
	cfg config.MatchingConfig,
	region geo.BoundingBox,
	travel geo.TravelPolicy,
	locationStore redis.LocationStoreInterface,
	cacheStore *redis.CacheStore,
	catalogRepo repository.CatalogRepository,
	providerRepo repository.ProviderRepository,
	areaRepo repository.ServiceAreaRepository,
	pricing *PricingService,
) *MatchingService {
	return &MatchingService{
		cfg:           cfg,
		region:        region,
		travel:        travel,
		locationStore: locationStore,
		cacheStore:    cacheStore,
		catalogRepo:   catalogRepo,
		providerRepo:  providerRepo,
		areaRepo:      areaRepo,
		pricing:       pricing,
	}
}

// SearchRequest contains the parameters for a provider search.
type SearchRequest struct {
	ServiceID   string
	Position    geo.Position
	RadiusKm    float64 // 0 uses the configured default
	IsEmergency bool
}

// Candidate is one ranked provider in a search response.
type Candidate struct {
	ProviderID             string
	ProviderName           string
	Rating                 float64
	RatingCount            int64
	DistanceKm             float64
	EstimatedTravelMinutes int
	Price                  domain.Money
	EmergencyApplied       bool
	Currency               string
}

// Search produces the ranked candidate list for a request. An empty list is a
// valid "no providers found" response, not an error.
func (s *MatchingService) Search(ctx context.Context, req SearchRequest) ([]*Candidate, error) {
	if !s.region.Contains(req.Position) {
		return nil, ErrInvalidPosition
	}

	radiusKm := req.RadiusKm
	if radiusKm <= 0 {
		radiusKm = s.cfg.DefaultRadiusKm
	}
	if radiusKm > s.cfg.MaxRadiusKm {
		radiusKm = s.cfg.MaxRadiusKm
	}

	svc, offerings, err := s.loadCatalog(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	// Providers offering the service, keyed for the intersection below.
	offeringByProvider := make(map[string]*domain.ServiceOffering, len(offerings))
	for _, o := range offerings {
		offeringByProvider[o.ProviderID] = o
	}
	if len(offeringByProvider) == 0 {
		return []*Candidate{}, nil
	}

	samples, err := s.locationStore.OnlineWithin(ctx, req.Position, radiusKm, s.cfg.LocationMaxAge)
	if err != nil {
		return nil, ErrMatchingUnavailable
	}

	type hit struct {
		sample   *domain.LocationSample
		offering *domain.ServiceOffering
	}
	hits := make([]hit, 0, len(samples))
	for _, sample := range samples {
		offering, ok := offeringByProvider[sample.ProviderID]
		if !ok {
			continue
		}
		if s.cfg.RequireAreaMatch {
			covered, err := s.areaCovers(ctx, sample.ProviderID, req.Position)
			if err != nil {
				return nil, ErrMatchingUnavailable
			}
			if !covered {
				continue
			}
		}
		hits = append(hits, hit{sample: sample, offering: offering})
	}
	if len(hits) == 0 {
		return []*Candidate{}, nil
	}

	providerIDs := make([]string, len(hits))
	for i, h := range hits {
		providerIDs[i] = h.sample.ProviderID
	}
	profiles, err := s.loadProviders(ctx, providerIDs)
	if err != nil {
		return nil, ErrMatchingUnavailable
	}

	candidates := make([]*Candidate, 0, len(hits))
	for _, h := range hits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		profile, ok := profiles[h.sample.ProviderID]
		if !ok || !profile.Active {
			continue
		}

		distance := geo.DistanceKm(req.Position, h.sample.Position)
		quote := s.pricing.QuoteService(svc, h.offering, req.IsEmergency)

		candidates = append(candidates, &Candidate{
			ProviderID:             profile.ID,
			ProviderName:           profile.Name,
			Rating:                 profile.AverageRating(),
			RatingCount:            profile.RatingCount,
			DistanceKm:             distance,
			EstimatedTravelMinutes: geo.EstimatedTravelMinutes(distance, s.travel),
			Price:                  quote.Total,
			EmergencyApplied:       quote.EmergencyApplied,
			Currency:               quote.Currency,
		})
	}

	// Nearest first; ties go to the better-rated provider, then provider ID
	// so equal inputs always rank the same way.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceKm != candidates[j].DistanceKm {
			return candidates[i].DistanceKm < candidates[j].DistanceKm
		}
		if candidates[i].Rating != candidates[j].Rating {
			return candidates[i].Rating > candidates[j].Rating
		}
		return candidates[i].ProviderID < candidates[j].ProviderID
	})

	return candidates, nil
}

// loadCatalog resolves the service definition and its active offerings under
// the configured catalog timeout. Lookups are bounded: one attempt, failure
// surfaces as unavailable rather than retrying indefinitely.
func (s *MatchingService) loadCatalog(ctx context.Context, serviceID string) (*domain.CatalogService, []*domain.ServiceOffering, error) {
	cctx := ctx
	if s.cfg.CatalogTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, s.cfg.CatalogTimeout)
		defer cancel()
	}

	svc, err := s.getServiceCached(cctx, serviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrServiceNotFound
		}
		return nil, nil, ErrMatchingUnavailable
	}

	offerings, err := s.catalogRepo.ListOfferings(cctx, serviceID)
	if err != nil {
		return nil, nil, ErrMatchingUnavailable
	}
	return svc, offerings, nil
}

// getServiceCached reads the service definition through the Redis cache.
func (s *MatchingService) getServiceCached(ctx context.Context, serviceID string) (*domain.CatalogService, error) {
	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetService(ctx, serviceID); err == nil && cached != nil {
			return &domain.CatalogService{
				ID:                       cached.ID,
				Name:                     cached.Name,
				BasePrice:                domain.Money(cached.BasePrice),
				EstimatedDurationMinutes: cached.EstimatedDurationMinutes,
				IsEmergencyCapable:       cached.IsEmergencyCapable,
				EmergencySurchargePct:    cached.EmergencySurchargePct,
			}, nil
		}
	}

	svc, err := s.catalogRepo.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		// Cache write failures don't fail the search.
		_ = s.cacheStore.SetService(ctx, &redis.CachedService{
			ID:                       svc.ID,
			Name:                     svc.Name,
			BasePrice:                int64(svc.BasePrice),
			EstimatedDurationMinutes: svc.EstimatedDurationMinutes,
			IsEmergencyCapable:       svc.IsEmergencyCapable,
			EmergencySurchargePct:    svc.EmergencySurchargePct,
		})
	}
	return svc, nil
}

// loadProviders fetches provider profiles, cache first, DB for misses.
func (s *MatchingService) loadProviders(ctx context.Context, ids []string) (map[string]*domain.Provider, error) {
	result := make(map[string]*domain.Provider, len(ids))
	missing := ids

	if s.cacheStore != nil {
		cached, miss, err := s.cacheStore.GetProvidersBatch(ctx, ids)
		if err == nil {
			for id, c := range cached {
				result[id] = &domain.Provider{
					ID:          c.ID,
					Name:        c.Name,
					Active:      c.Active,
					RatingSum:   c.RatingSum,
					RatingCount: c.RatingCount,
				}
			}
			missing = miss
		}
	}

	if len(missing) > 0 {
		fetched, err := s.providerRepo.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for id, p := range fetched {
			result[id] = p
		}
		if s.cacheStore != nil && len(fetched) > 0 {
			toCache := make([]*redis.CachedProvider, 0, len(fetched))
			for _, p := range fetched {
				toCache = append(toCache, &redis.CachedProvider{
					ID:          p.ID,
					Name:        p.Name,
					Active:      p.Active,
					RatingSum:   p.RatingSum,
					RatingCount: p.RatingCount,
				})
			}
			_ = s.cacheStore.SetProvidersBatch(ctx, toCache)
		}
	}

	return result, nil
}

// areaCovers reports whether any of the provider's declared areas contains
// the point. OR semantics across areas.
func (s *MatchingService) areaCovers(ctx context.Context, providerID string, p geo.Position) (bool, error) {
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
