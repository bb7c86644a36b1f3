package tests

import (
	"context"
	"sync"
	"testing"

	"servio/internal/geo"
	"servio/internal/service"
)

// ──────────────────────────────────────────────
// SERVICE AREAS
// ──────────────────────────────────────────────

func newAreaFixture() (*MockServiceAreaRepository, *service.AreaService) {
	areas := NewMockServiceAreaRepository()
	return areas, service.NewAreaService(egyptRegion(), areas, NewMockLockStore())
}

func TestArea_AddValidatesRadius(t *testing.T) {
	t.Parallel()

	_, svc := newAreaFixture()
	center := geo.Position{Lat: 30.05, Lon: 31.24}

	for _, radius := range []float64{0, -5, 100.1, 500} {
		_, err := svc.Add(context.Background(), service.AddAreaRequest{
			ProviderID: "prov-1", Center: center, RadiusKm: radius,
		})
		if err != service.ErrInvalidRadius {
			t.Errorf("radius %v: expected ErrInvalidRadius, got %v", radius, err)
		}
	}

	// Boundary: exactly 100 km is allowed.
	if _, err := svc.Add(context.Background(), service.AddAreaRequest{
		ProviderID: "prov-1", Center: center, RadiusKm: 100,
	}); err != nil {
		t.Errorf("radius 100: unexpected error %v", err)
	}
}

func TestArea_AddValidatesCenter(t *testing.T) {
	t.Parallel()

	_, svc := newAreaFixture()

	_, err := svc.Add(context.Background(), service.AddAreaRequest{
		ProviderID: "prov-1",
		Center:     geo.Position{Lat: 51.5, Lon: -0.1}, // London
		RadiusKm:   10,
	})
	if err != service.ErrInvalidPosition {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestArea_NewPrimaryDemotesOldPrimary(t *testing.T) {
	t.Parallel()

	areas, svc := newAreaFixture()
	ctx := context.Background()
	center := geo.Position{Lat: 30.05, Lon: 31.24}

	first, err := svc.Add(ctx, service.AddAreaRequest{
		ProviderID: "prov-1", Label: "Downtown", Center: center, RadiusKm: 10, IsPrimary: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Add(ctx, service.AddAreaRequest{
		ProviderID: "prov-1", Label: "Giza", Center: geo.Position{Lat: 29.99, Lon: 31.21}, RadiusKm: 15, IsPrimary: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if count := areas.CountPrimary("prov-1"); count != 1 {
		t.Errorf("expected exactly 1 primary area, got %d", count)
	}
	stored, _ := areas.GetByID(ctx, first.ID)
	if stored.IsPrimary {
		t.Error("old primary was not demoted")
	}
}

func TestArea_ConcurrentPrimarySwapsLeaveOnePrimary(t *testing.T) {
	t.Parallel()

	areas, svc := newAreaFixture()
	center := geo.Position{Lat: 30.05, Lon: 31.24}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Lock contention surfaces as ErrConcurrentModification; that
			// is an acceptable outcome, two primaries is not.
			_, _ = svc.Add(context.Background(), service.AddAreaRequest{
				ProviderID: "prov-1", Center: center, RadiusKm: 10, IsPrimary: true,
			})
		}()
	}
	wg.Wait()

	if count := areas.CountPrimary("prov-1"); count > 1 {
		t.Errorf("expected at most 1 primary area, got %d", count)
	}
}

func TestArea_RemoveRequiresOwnership(t *testing.T) {
	t.Parallel()

	areas, svc := newAreaFixture()
	ctx := context.Background()

	area, err := svc.Add(ctx, service.AddAreaRequest{
		ProviderID: "prov-1", Center: geo.Position{Lat: 30.05, Lon: 31.24}, RadiusKm: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Remove(ctx, area.ID, "prov-other"); err != service.ErrNotOwner {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if err := svc.Remove(ctx, area.ID, "prov-1"); err != nil {
		t.Errorf("owner removal failed: %v", err)
	}
	if _, err := areas.GetByID(ctx, area.ID); err == nil {
		t.Error("area still present after removal")
	}
}

func TestArea_ContainsPointORSemantics(t *testing.T) {
	t.Parallel()

	_, svc := newAreaFixture()
	ctx := context.Background()

	// Two disjoint areas for the same provider.
	if _, err := svc.Add(ctx, service.AddAreaRequest{
		ProviderID: "prov-1", Center: geo.Position{Lat: 30.05, Lon: 31.24}, RadiusKm: 5,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Add(ctx, service.AddAreaRequest{
		ProviderID: "prov-1", Center: geo.Position{Lat: 31.20, Lon: 29.95}, RadiusKm: 5,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name string
		p    geo.Position
		want bool
	}{
		{"inside first area", geo.Position{Lat: 30.05, Lon: 31.24}, true},
		{"inside second area", geo.Position{Lat: 31.20, Lon: 29.95}, true},
		{"between areas", geo.Position{Lat: 30.60, Lon: 30.60}, false},
	}
	for _, tc := range cases {
		got, err := svc.ContainsPoint(ctx, "prov-1", tc.p)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: ContainsPoint = %v, want %v", tc.name, got, tc.want)
		}
	}

	got, err := svc.ContainsPoint(ctx, "prov-no-areas", geo.Position{Lat: 30.05, Lon: 31.24})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Error("provider without areas must not cover any point")
	}
}
