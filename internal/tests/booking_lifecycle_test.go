package tests

import (
	"context"
	"sync"
	"testing"
	"time"

	"servio/internal/config"
	"servio/internal/domain"
	"servio/internal/geo"
	"servio/internal/service"
)

// ──────────────────────────────────────────────
// BOOKING LIFECYCLE
// ──────────────────────────────────────────────

type bookingFixture struct {
	bookings  *MockBookingRepository
	catalog   *MockCatalogRepository
	providers *MockProviderRepository
	reviews   *MockReviewRepository
	locks     *MockLockStore
	service   *service.BookingService
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		bookings:  NewMockBookingRepository(),
		catalog:   NewMockCatalogRepository(),
		providers: NewMockProviderRepository(),
		locks:     NewMockLockStore(),
	}
	f.reviews = NewMockReviewRepository(f.providers)
	pricing := service.NewPricingService(config.PricingConfig{CommissionPct: 15, Currency: "EGP"})
	f.service = service.NewBookingService(
		egyptRegion(), defaultMatchingConfig(),
		f.bookings, f.catalog, f.reviews, f.locks, nil, pricing, nil,
	)
	return f
}

func cairoAddress() domain.Address {
	return domain.Address{
		Street:   "12 Tahrir St",
		City:     "Cairo",
		Position: geo.Position{Lat: 30.05, Lon: 31.24},
	}
}

func customer(id string) domain.Identity {
	return domain.Identity{UserID: id, Role: domain.RoleCustomer, AccountActive: true}
}

func provider(id string) domain.Identity {
	return domain.Identity{UserID: id, Role: domain.RoleProvider, AccountActive: true}
}

func admin() domain.Identity {
	return domain.Identity{UserID: "admin-1", Role: domain.RoleAdmin, AccountActive: true}
}

func TestBooking_CreateStartsPendingWithoutProvider(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.catalog.AddService(&domain.CatalogService{
		ID: "svc-plumbing", BasePrice: 15000, EstimatedDurationMinutes: 60,
	})

	booking, err := f.service.Create(context.Background(), service.CreateBookingRequest{
		CustomerID:  "cust-1",
		ServiceID:   "svc-plumbing",
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Address:     cairoAddress(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != domain.BookingStatusPending {
		t.Errorf("status = %s, want pending", booking.Status)
	}
	if booking.TotalAmount != 15000 {
		t.Errorf("total = %v, want 150.00", booking.TotalAmount)
	}
	if booking.PlatformCommission+booking.ProviderEarnings != booking.TotalAmount {
		t.Error("commission split must equal total")
	}
	if f.bookings.HistoryLen(booking.ID) != 1 {
		t.Errorf("expected 1 creation history entry, got %d", f.bookings.HistoryLen(booking.ID))
	}
}

func TestBooking_DirectAssignmentStartsConfirmed(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.catalog.AddService(&domain.CatalogService{ID: "svc-plumbing", BasePrice: 15000})
	f.catalog.AddOffering(&domain.ServiceOffering{
		ProviderID: "prov-1", ServiceID: "svc-plumbing",
		CustomPrice: 20000, IsAvailable: true, IsActive: true,
	})

	booking, err := f.service.Create(context.Background(), service.CreateBookingRequest{
		CustomerID:  "cust-1",
		ServiceID:   "svc-plumbing",
		ProviderID:  "prov-1",
		ScheduledAt: time.Now().Add(time.Hour),
		Address:     cairoAddress(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != domain.BookingStatusConfirmed {
		t.Errorf("status = %s, want confirmed", booking.Status)
	}
	if booking.TotalAmount != 20000 {
		t.Errorf("total = %v, want custom price 200.00", booking.TotalAmount)
	}
}

func TestBooking_DirectAssignmentRequiresOffering(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.catalog.AddService(&domain.CatalogService{ID: "svc-plumbing", BasePrice: 15000})

	_, err := f.service.Create(context.Background(), service.CreateBookingRequest{
		CustomerID:  "cust-1",
		ServiceID:   "svc-plumbing",
		ProviderID:  "prov-no-offering",
		ScheduledAt: time.Now().Add(time.Hour),
		Address:     cairoAddress(),
	})
	if err != service.ErrProviderNotEligible {
		t.Errorf("expected ErrProviderNotEligible, got %v", err)
	}
}

func TestBooking_CreateRejectsPastSchedule(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.catalog.AddService(&domain.CatalogService{ID: "svc-plumbing", BasePrice: 15000})

	_, err := f.service.Create(context.Background(), service.CreateBookingRequest{
		CustomerID:  "cust-1",
		ServiceID:   "svc-plumbing",
		ScheduledAt: time.Now().Add(-time.Hour),
		Address:     cairoAddress(),
	})
	if err != service.ErrInvalidSchedule {
		t.Errorf("expected ErrInvalidSchedule, got %v", err)
	}
}

// seedBooking stores a booking directly for transition tests.
func (f *bookingFixture) seedBooking(id string, status domain.BookingStatus) *domain.Booking {
	booking := &domain.Booking{
		ID:          id,
		CustomerID:  "cust-1",
		ProviderID:  "prov-1",
		ServiceID:   "svc-plumbing",
		Status:      status,
		ScheduledAt: time.Now().Add(time.Hour),
		Address:     cairoAddress(),
		Version:     1,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.bookings.AddBooking(booking)
	return booking
}

func TestBooking_FullLifecycleWithAuditTrail(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.seedBooking("bk-1", domain.BookingStatusPending)
	ctx := context.Background()

	steps := []struct {
		requester domain.Identity
		to        domain.BookingStatus
	}{
		{provider("prov-1"), domain.BookingStatusConfirmed},
		{provider("prov-1"), domain.BookingStatusInProgress},
		{provider("prov-1"), domain.BookingStatusCompleted},
	}
	for _, step := range steps {
		if _, err := f.service.Transition(ctx, service.TransitionRequest{
			BookingID: "bk-1",
			Requester: step.requester,
			NewStatus: step.to,
		}); err != nil {
			t.Fatalf("transition to %s: %v", step.to, err)
		}
	}

	final := f.bookings.GetBooking("bk-1")
	if final.Status != domain.BookingStatusCompleted {
		t.Errorf("final status = %s, want completed", final.Status)
	}
	if final.ActualStart.IsZero() || final.ActualEnd.IsZero() {
		t.Error("actual start/end must be stamped")
	}
	wantDuration := int(final.ActualEnd.Sub(final.ActualStart).Round(time.Minute) / time.Minute)
	if final.ActualDurationMin != wantDuration {
		t.Errorf("actual duration = %d min, want %d (end - start)", final.ActualDurationMin, wantDuration)
	}

	history, err := f.bookings.History(ctx, "bk-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history))
	}
	wantStatuses := []domain.BookingStatus{
		domain.BookingStatusConfirmed,
		domain.BookingStatusInProgress,
		domain.BookingStatusCompleted,
	}
	for i, want := range wantStatuses {
		if history[i].NewStatus != want {
			t.Errorf("history[%d] = %s, want %s", i, history[i].NewStatus, want)
		}
	}
	if history[0].PreviousStatus != domain.BookingStatusPending {
		t.Errorf("first entry previous = %s, want pending", history[0].PreviousStatus)
	}
}

func TestBooking_CustomerCannotConfirm(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.seedBooking("bk-1", domain.BookingStatusPending)

	_, err := f.service.Transition(context.Background(), service.TransitionRequest{
		BookingID: "bk-1",
		Requester: customer("cust-1"),
		NewStatus: domain.BookingStatusConfirmed,
	})
	if err != service.ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestBooking_StrangerCannotTransition(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.seedBooking("bk-1", domain.BookingStatusPending)

	_, err := f.service.Transition(context.Background(), service.TransitionRequest{
		BookingID: "bk-1",
		Requester: provider("prov-other"),
		NewStatus: domain.BookingStatusConfirmed,
	})
	if err != service.ErrForbidden {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	_, err = f.service.Transition(context.Background(), service.TransitionRequest{
		BookingID: "bk-1",
		Requester: customer("cust-other"),
		NewStatus: domain.BookingStatusCancelled,
	})
	if err != service.ErrForbidden {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestBooking_AdminBypassesOwnership(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.seedBooking("bk-1", domain.BookingStatusPending)

	booking, err := f.service.Transition(context.Background(), service.TransitionRequest{
		BookingID: "bk-1",
		Requester: admin(),
		NewStatus: domain.BookingStatusCancelled,
		Reason:    "fraud check",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != domain.BookingStatusCancelled {
		t.Errorf("status = %s, want cancelled", booking.Status)
	}
}

func TestBooking_TerminalStatesAreFinal(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.seedBooking("bk-cancelled", domain.BookingStatusCancelled)
	f.seedBooking("bk-disputed", domain.BookingStatusDisputed)

	for _, id := range []string{"bk-cancelled", "bk-disputed"} {
		for _, to := range []domain.BookingStatus{
			domain.BookingStatusPending,
			domain.BookingStatusConfirmed,
			domain.BookingStatusInProgress,
			domain.BookingStatusCompleted,
		} {
			_, err := f.service.Transition(context.Background(), service.TransitionRequest{
				BookingID: id,
				Requester: admin(),
				NewStatus: to,
			})
			if err != service.ErrInvalidTransition {
				t.Errorf("%s -> %s: expected ErrInvalidTransition, got %v", id, to, err)
			}
		}
	}
}

func TestBooking_OnlyAdminDisputesCompleted(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.seedBooking("bk-1", domain.BookingStatusCompleted)

	_, err := f.service.Transition(context.Background(), service.TransitionRequest{
		BookingID: "bk-1",
		Requester: customer("cust-1"),
		NewStatus: domain.BookingStatusDisputed,
	})
	if err != service.ErrInvalidTransition {
		t.Errorf("customer dispute: expected ErrInvalidTransition, got %v", err)
	}

	booking, err := f.service.Transition(context.Background(), service.TransitionRequest{
		BookingID: "bk-1",
		Requester: admin(),
		NewStatus: domain.BookingStatusDisputed,
	})
	if err != nil {
		t.Fatalf("admin dispute: %v", err)
	}
	if booking.Status != domain.BookingStatusDisputed {
		t.Errorf("status = %s, want disputed", booking.Status)
	}
}

func TestBooking_ConcurrentTransitionsHaveOneWinner(t *testing.T) {
	t.Parallel()

	for iter := 0; iter < 50; iter++ {
		f := newBookingFixture()
		f.seedBooking("bk-race", domain.BookingStatusPending)

		var wg sync.WaitGroup
		results := make([]error, 2)

		// Provider accepts while admin cancels.
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, results[0] = f.service.Transition(context.Background(), service.TransitionRequest{
				BookingID: "bk-race",
				Requester: provider("prov-1"),
				NewStatus: domain.BookingStatusConfirmed,
			})
		}()
		go func() {
			defer wg.Done()
			_, results[1] = f.service.Transition(context.Background(), service.TransitionRequest{
				BookingID: "bk-race",
				Requester: admin(),
				NewStatus: domain.BookingStatusCancelled,
			})
		}()
		wg.Wait()

		wins := 0
		for _, err := range results {
			switch err {
			case nil:
				wins++
			case service.ErrInvalidTransition, service.ErrConcurrentModification:
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if wins != 1 {
			t.Fatalf("iteration %d: expected exactly one winner, got %d", iter, wins)
		}

		final := f.bookings.GetBooking("bk-race")
		if final.Status != domain.BookingStatusConfirmed && final.Status != domain.BookingStatusCancelled {
			t.Fatalf("iteration %d: unexpected final status %s", iter, final.Status)
		}
		if f.bookings.HistoryLen("bk-race") != 1 {
			t.Fatalf("iteration %d: expected 1 history entry, got %d", iter, f.bookings.HistoryLen("bk-race"))
		}
	}
}

func TestBooking_LockContentionReportsCurrentStatus(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.seedBooking("bk-1", domain.BookingStatusConfirmed)

	// Another transition holds the booking lock.
	held, err := f.locks.AcquireBookingLock(context.Background(), "bk-1", 0)
	if err != nil || !held {
		t.Fatalf("failed to pre-acquire lock: %v", err)
	}

	booking, err := f.service.Transition(context.Background(), service.TransitionRequest{
		BookingID: "bk-1",
		Requester: provider("prov-1"),
		NewStatus: domain.BookingStatusInProgress,
	})
	if err != service.ErrConcurrentModification {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}
	if booking == nil {
		t.Fatal("rejected transition must still report the booking")
	}
	if booking.Status != domain.BookingStatusConfirmed {
		t.Errorf("reported status = %s, want confirmed", booking.Status)
	}
}

func TestBooking_ListIsRoleScoped(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.seedBooking("bk-1", domain.BookingStatusPending)
	other := &domain.Booking{
		ID: "bk-2", CustomerID: "cust-other", ProviderID: "prov-other",
		Status: domain.BookingStatusPending, Version: 1,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	f.bookings.AddBooking(other)

	got, err := f.service.List(context.Background(), customer("cust-1"), "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "bk-1" {
		t.Errorf("customer list: expected only bk-1, got %d bookings", len(got))
	}

	got, err = f.service.List(context.Background(), admin(), "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("admin list: expected 2 bookings, got %d", len(got))
	}
}
