package tests

import (
	"context"
	"testing"
	"time"

	"servio/internal/config"
	"servio/internal/domain"
	"servio/internal/geo"
	"servio/internal/service"
)

// ──────────────────────────────────────────────
// PROVIDER SEARCH
// ──────────────────────────────────────────────

func egyptRegion() geo.BoundingBox {
	return geo.BoundingBox{MinLat: 22, MaxLat: 32, MinLon: 25, MaxLon: 35}
}

func defaultMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		DefaultRadiusKm: 25,
		MaxRadiusKm:     100,
		LocationMaxAge:  5 * time.Minute,
	}
}

type matchingFixture struct {
	locations *MockLocationStore
	catalog   *MockCatalogRepository
	providers *MockProviderRepository
	areas     *MockServiceAreaRepository
	service   *service.MatchingService
}

func newMatchingFixture(cfg config.MatchingConfig) *matchingFixture {
	f := &matchingFixture{
		locations: NewMockLocationStore(),
		catalog:   NewMockCatalogRepository(),
		providers: NewMockProviderRepository(),
		areas:     NewMockServiceAreaRepository(),
	}
	pricing := service.NewPricingService(config.PricingConfig{CommissionPct: 15, Currency: "EGP"})
	f.service = service.NewMatchingService(
		cfg, egyptRegion(), geo.DefaultTravelPolicy(),
		f.locations, nil, f.catalog, f.providers, f.areas, pricing,
	)
	return f
}

func (f *matchingFixture) addProvider(id string, lat, lon float64, ratingSum, ratingCount int64) {
	f.providers.AddProvider(&domain.Provider{
		ID: id, Name: "Provider " + id, Active: true,
		RatingSum: ratingSum, RatingCount: ratingCount,
	})
	f.locations.AddSample(&domain.LocationSample{
		ProviderID: id,
		Position:   geo.Position{Lat: lat, Lon: lon},
		Online:     true,
		CapturedAt: time.Now(),
	})
	f.catalog.AddOffering(&domain.ServiceOffering{
		ProviderID: id, ServiceID: "svc-plumbing",
		IsAvailable: true, IsActive: true,
	})
}

func TestSearch_RanksByDistance(t *testing.T) {
	t.Parallel()

	f := newMatchingFixture(defaultMatchingConfig())
	f.catalog.AddService(&domain.CatalogService{ID: "svc-plumbing", BasePrice: 15000})

	center := geo.Position{Lat: 30.05, Lon: 31.24}
	f.addProvider("p-near", 30.04, 31.23, 45, 10) // ~1.5 km
	f.addProvider("p-far", 29.95, 31.10, 50, 10)  // ~17 km
	f.addProvider("p-mid", 30.00, 31.20, 40, 10)  // ~6.7 km

	got, err := f.service.Search(context.Background(), service.SearchRequest{
		ServiceID: "svc-plumbing",
		Position:  center,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}

	order := []string{"p-near", "p-mid", "p-far"}
	for i, want := range order {
		if got[i].ProviderID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, got[i].ProviderID)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].DistanceKm < got[i-1].DistanceKm {
			t.Error("candidates not sorted by distance")
		}
	}
	for _, cand := range got {
		if cand.DistanceKm > 25 {
			t.Errorf("candidate %s beyond radius: %.2f km", cand.ProviderID, cand.DistanceKm)
		}
		if cand.EstimatedTravelMinutes <= 0 {
			t.Errorf("candidate %s has no travel estimate", cand.ProviderID)
		}
		if cand.Price != domain.NewMoneyFromUnits(150, 0) {
			t.Errorf("candidate %s price = %v, want 150.00", cand.ProviderID, cand.Price)
		}
	}
}

func TestSearch_DistanceTiesBrokenByRatingThenID(t *testing.T) {
	t.Parallel()

	f := newMatchingFixture(defaultMatchingConfig())
	f.catalog.AddService(&domain.CatalogService{ID: "svc-plumbing", BasePrice: 10000})

	// Same position: distance ties exactly.
	f.addProvider("p-b", 30.04, 31.23, 50, 10) // rating 5.0
	f.addProvider("p-a", 30.04, 31.23, 30, 10) // rating 3.0
	f.addProvider("p-c", 30.04, 31.23, 30, 10) // rating 3.0, tie with p-a

	got, err := f.service.Search(context.Background(), service.SearchRequest{
		ServiceID: "svc-plumbing",
		Position:  geo.Position{Lat: 30.05, Lon: 31.24},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order := []string{"p-b", "p-a", "p-c"}
	for i, want := range order {
		if got[i].ProviderID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, got[i].ProviderID)
		}
	}
}

func TestSearch_EmptyResultIsNotAnError(t *testing.T) {
	t.Parallel()

	f := newMatchingFixture(defaultMatchingConfig())
	f.catalog.AddService(&domain.CatalogService{ID: "svc-plumbing", BasePrice: 10000})

	got, err := f.service.Search(context.Background(), service.SearchRequest{
		ServiceID: "svc-plumbing",
		Position:  geo.Position{Lat: 30.05, Lon: 31.24},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d candidates", len(got))
	}
}

func TestSearch_UnknownServiceRejected(t *testing.T) {
	t.Parallel()

	f := newMatchingFixture(defaultMatchingConfig())

	_, err := f.service.Search(context.Background(), service.SearchRequest{
		ServiceID: "svc-nope",
		Position:  geo.Position{Lat: 30.05, Lon: 31.24},
	})
	if err != service.ErrServiceNotFound {
		t.Errorf("expected ErrServiceNotFound, got %v", err)
	}
}

func TestSearch_OutOfRegionPositionRejected(t *testing.T) {
	t.Parallel()

	f := newMatchingFixture(defaultMatchingConfig())
	f.catalog.AddService(&domain.CatalogService{ID: "svc-plumbing", BasePrice: 10000})

	_, err := f.service.Search(context.Background(), service.SearchRequest{
		ServiceID: "svc-plumbing",
		Position:  geo.Position{Lat: 48.85, Lon: 2.35}, // Paris
	})
	if err != service.ErrInvalidPosition {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestSearch_RadiusCappedAtMax(t *testing.T) {
	t.Parallel()

	f := newMatchingFixture(defaultMatchingConfig())
	f.catalog.AddService(&domain.CatalogService{ID: "svc-plumbing", BasePrice: 10000})

	// ~208 km from center: beyond the 100 km hard cap.
	f.addProvider("p-distant", 28.18, 31.24, 0, 0)

	got, err := f.service.Search(context.Background(), service.SearchRequest{
		ServiceID: "svc-plumbing",
		Position:  geo.Position{Lat: 30.05, Lon: 31.24},
		RadiusKm:  500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected distant provider excluded by radius cap, got %d candidates", len(got))
	}
}

func TestSearch_ExcludesOfflineAndStaleProviders(t *testing.T) {
	t.Parallel()

	f := newMatchingFixture(defaultMatchingConfig())
	f.catalog.AddService(&domain.CatalogService{ID: "svc-plumbing", BasePrice: 10000})

	f.addProvider("p-online", 30.04, 31.23, 0, 0)

	// Offline provider at the same spot.
	f.providers.AddProvider(&domain.Provider{ID: "p-offline", Name: "Offline", Active: true})
	f.locations.AddSample(&domain.LocationSample{
		ProviderID: "p-offline",
		Position:   geo.Position{Lat: 30.04, Lon: 31.23},
		Online:     false,
		CapturedAt: time.Now(),
	})
	f.catalog.AddOffering(&domain.ServiceOffering{
		ProviderID: "p-offline", ServiceID: "svc-plumbing",
		IsAvailable: true, IsActive: true,
	})

	// Stale sample, older than the 5-minute window.
	f.providers.AddProvider(&domain.Provider{ID: "p-stale", Name: "Stale", Active: true})
	f.locations.AddSample(&domain.LocationSample{
		ProviderID: "p-stale",
		Position:   geo.Position{Lat: 30.04, Lon: 31.23},
		Online:     true,
		CapturedAt: time.Now().Add(-10 * time.Minute),
	})
	f.catalog.AddOffering(&domain.ServiceOffering{
		ProviderID: "p-stale", ServiceID: "svc-plumbing",
		IsAvailable: true, IsActive: true,
	})

	got, err := f.service.Search(context.Background(), service.SearchRequest{
		ServiceID: "svc-plumbing",
		Position:  geo.Position{Lat: 30.05, Lon: 31.24},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ProviderID != "p-online" {
		t.Errorf("expected only p-online, got %d candidates", len(got))
	}
}

func TestSearch_ExcludesProvidersWithoutOffering(t *testing.T) {
	t.Parallel()

	f := newMatchingFixture(defaultMatchingConfig())
	f.catalog.AddService(&domain.CatalogService{ID: "svc-plumbing", BasePrice: 10000})

	f.addProvider("p-offers", 30.04, 31.23, 0, 0)

	// Online, in range, but offers a different service.
	f.providers.AddProvider(&domain.Provider{ID: "p-other", Name: "Other", Active: true})
	f.locations.AddSample(&domain.LocationSample{
		ProviderID: "p-other",
		Position:   geo.Position{Lat: 30.04, Lon: 31.23},
		Online:     true,
		CapturedAt: time.Now(),
	})
	f.catalog.AddOffering(&domain.ServiceOffering{
		ProviderID: "p-other", ServiceID: "svc-electric",
		IsAvailable: true, IsActive: true,
	})

	got, err := f.service.Search(context.Background(), service.SearchRequest{
		ServiceID: "svc-plumbing",
		Position:  geo.Position{Lat: 30.05, Lon: 31.24},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ProviderID != "p-offers" {
		t.Errorf("expected only p-offers, got %d candidates", len(got))
	}
}

func TestSearch_AreaFilterWhenRequired(t *testing.T) {
	t.Parallel()

	cfg := defaultMatchingConfig()
	cfg.RequireAreaMatch = true
	f := newMatchingFixture(cfg)
	f.catalog.AddService(&domain.CatalogService{ID: "svc-plumbing", BasePrice: 10000})

	f.addProvider("p-covered", 30.04, 31.23, 0, 0)
	f.addProvider("p-uncovered", 30.04, 31.23, 0, 0)

	// Only p-covered declares an area containing the customer.
	f.areas.Create(context.Background(), &domain.ServiceArea{
		ID: "area-1", ProviderID: "p-covered",
		Center: geo.Position{Lat: 30.05, Lon: 31.24}, RadiusKm: 10,
	})
	f.areas.Create(context.Background(), &domain.ServiceArea{
		ID: "area-2", ProviderID: "p-uncovered",
		Center: geo.Position{Lat: 31.20, Lon: 29.95}, RadiusKm: 5, // Alexandria
	})

	got, err := f.service.Search(context.Background(), service.SearchRequest{
		ServiceID: "svc-plumbing",
		Position:  geo.Position{Lat: 30.05, Lon: 31.24},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ProviderID != "p-covered" {
		t.Errorf("expected only p-covered, got %d candidates", len(got))
	}
}

func TestSearch_EmergencyPricing(t *testing.T) {
	t.Parallel()

	f := newMatchingFixture(defaultMatchingConfig())
	f.catalog.AddService(&domain.CatalogService{
		ID: "svc-plumbing", BasePrice: 10000,
		IsEmergencyCapable: true, EmergencySurchargePct: 50,
	})
	f.addProvider("p1", 30.04, 31.23, 0, 0)

	got, err := f.service.Search(context.Background(), service.SearchRequest{
		ServiceID:   "svc-plumbing",
		Position:    geo.Position{Lat: 30.05, Lon: 31.24},
		IsEmergency: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if !got[0].EmergencyApplied {
		t.Error("expected emergency surcharge applied")
	}
	if got[0].Price != domain.NewMoneyFromUnits(150, 0) {
		t.Errorf("price = %v, want 150.00", got[0].Price)
	}
}

func TestSearch_StoreFailureSurfacesAsUnavailable(t *testing.T) {
	t.Parallel()

	f := newMatchingFixture(defaultMatchingConfig())
	f.catalog.AddService(&domain.CatalogService{ID: "svc-plumbing", BasePrice: 10000})
	// An offering must exist so the search actually reaches the location
	// store rather than short-circuiting on an empty candidate set.
	f.addProvider("p1", 30.04, 31.23, 0, 0)
	f.locations.OnlineWithinError = context.DeadlineExceeded

	_, err := f.service.Search(context.Background(), service.SearchRequest{
		ServiceID: "svc-plumbing",
		Position:  geo.Position{Lat: 30.05, Lon: 31.24},
	})
	if err != service.ErrMatchingUnavailable {
		t.Errorf("expected ErrMatchingUnavailable, got %v", err)
	}
}
