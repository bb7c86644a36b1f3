package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"servio/internal/domain"
	"servio/internal/geo"
	"servio/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository with
// version-checked transitions, mirroring the optimistic concurrency control
// of the PostgreSQL implementation.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking
	history  map[string][]*domain.StatusHistoryEntry

	// Counters for verification
	CreateCallCount          int32
	ApplyTransitionCallCount int32

	// Error injection
	CreateError          error
	ApplyTransitionError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
		history:  make(map[string][]*domain.StatusHistoryEntry),
	}
}

// AddBooking seeds a booking without a history entry.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *booking
	m.bookings[booking.ID] = &copy
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking, entry *domain.StatusHistoryEntry) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *booking
	m.bookings[booking.ID] = &copy
	m.history[booking.ID] = append(m.history[booking.ID], entry)
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) List(ctx context.Context, filter repository.BookingFilter) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Booking, 0)
	for _, b := range m.bookings {
		if filter.CustomerID != "" && b.CustomerID != filter.CustomerID {
			continue
		}
		if filter.ProviderID != "" && b.ProviderID != filter.ProviderID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		copy := *b
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MockBookingRepository) ApplyTransition(ctx context.Context, booking *domain.Booking, entry *domain.StatusHistoryEntry, expectedVersion int64) error {
	atomic.AddInt32(&m.ApplyTransitionCallCount, 1)
	if m.ApplyTransitionError != nil {
		return m.ApplyTransitionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.bookings[booking.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	copy := *booking
	copy.Version = expectedVersion + 1
	m.bookings[booking.ID] = &copy
	m.history[booking.ID] = append(m.history[booking.ID], entry)
	return nil
}

func (m *MockBookingRepository) History(ctx context.Context, bookingID string) ([]*domain.StatusHistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.history[bookingID]
	result := make([]*domain.StatusHistoryEntry, len(entries))
	sorted := append([]*domain.StatusHistoryEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At.Before(sorted[j].At)
	})
	for i, e := range sorted {
		copy := *e
		result[i] = &copy
	}
	return result, nil
}

// GetBooking returns the stored booking for test assertions.
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[id]
}

// HistoryLen returns the number of history entries for a booking.
func (m *MockBookingRepository) HistoryLen(bookingID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.history[bookingID])
}

// ──────────────────────────────────────────────
// MOCK CATALOG REPOSITORY
// ──────────────────────────────────────────────

// MockCatalogRepository is a mock implementation of CatalogRepository.
type MockCatalogRepository struct {
	mu        sync.RWMutex
	services  map[string]*domain.CatalogService
	offerings map[string]*domain.ServiceOffering // providerID+"/"+serviceID

	// Error injection
	GetServiceError    error
	ListOfferingsError error
}

// NewMockCatalogRepository creates a new mock catalog repository.
func NewMockCatalogRepository() *MockCatalogRepository {
	return &MockCatalogRepository{
		services:  make(map[string]*domain.CatalogService),
		offerings: make(map[string]*domain.ServiceOffering),
	}
}

// AddService adds a service definition.
func (m *MockCatalogRepository) AddService(svc *domain.CatalogService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[svc.ID] = svc
}

// AddOffering adds a provider offering.
func (m *MockCatalogRepository) AddOffering(o *domain.ServiceOffering) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offerings[o.ProviderID+"/"+o.ServiceID] = o
}

func (m *MockCatalogRepository) GetService(ctx context.Context, serviceID string) (*domain.CatalogService, error) {
	if m.GetServiceError != nil {
		return nil, m.GetServiceError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	svc, ok := m.services[serviceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *svc
	return &copy, nil
}

func (m *MockCatalogRepository) GetOffering(ctx context.Context, providerID, serviceID string) (*domain.ServiceOffering, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.offerings[providerID+"/"+serviceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *o
	return &copy, nil
}

func (m *MockCatalogRepository) ListOfferings(ctx context.Context, serviceID string) ([]*domain.ServiceOffering, error) {
	if m.ListOfferingsError != nil {
		return nil, m.ListOfferingsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.ServiceOffering, 0)
	for _, o := range m.offerings {
		if o.ServiceID == serviceID && o.IsActive && o.IsAvailable {
			copy := *o
			result = append(result, &copy)
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK PROVIDER REPOSITORY
// ──────────────────────────────────────────────

// MockProviderRepository is a mock implementation of ProviderRepository.
type MockProviderRepository struct {
	mu        sync.RWMutex
	providers map[string]*domain.Provider
}

// NewMockProviderRepository creates a new mock provider repository.
func NewMockProviderRepository() *MockProviderRepository {
	return &MockProviderRepository{
		providers: make(map[string]*domain.Provider),
	}
}

// AddProvider adds a provider profile.
func (m *MockProviderRepository) AddProvider(p *domain.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[p.ID] = p
}

func (m *MockProviderRepository) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.providers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *p
	return &copy, nil
}

func (m *MockProviderRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]*domain.Provider)
	for _, id := range ids {
		if p, ok := m.providers[id]; ok {
			copy := *p
			result[id] = &copy
		}
	}
	return result, nil
}

// GetProvider returns the stored provider for test assertions.
func (m *MockProviderRepository) GetProvider(id string) *domain.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.providers[id]
}

// ──────────────────────────────────────────────
// MOCK SERVICE AREA REPOSITORY
// ──────────────────────────────────────────────

// MockServiceAreaRepository is a mock implementation of
// ServiceAreaRepository. Create demotes any existing primary area of the
// same provider, matching the transactional PostgreSQL behavior.
type MockServiceAreaRepository struct {
	mu    sync.RWMutex
	areas map[string]*domain.ServiceArea

	CreateCallCount int32
	CreateError     error
}

// NewMockServiceAreaRepository creates a new mock service area repository.
func NewMockServiceAreaRepository() *MockServiceAreaRepository {
	return &MockServiceAreaRepository{
		areas: make(map[string]*domain.ServiceArea),
	}
}

func (m *MockServiceAreaRepository) Create(ctx context.Context, area *domain.ServiceArea) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if area.IsPrimary {
		for _, a := range m.areas {
			if a.ProviderID == area.ProviderID && a.IsPrimary {
				a.IsPrimary = false
			}
		}
	}
	copy := *area
	m.areas[area.ID] = &copy
	return nil
}

func (m *MockServiceAreaRepository) GetByID(ctx context.Context, id string) (*domain.ServiceArea, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.areas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *a
	return &copy, nil
}

func (m *MockServiceAreaRepository) ListByProvider(ctx context.Context, providerID string) ([]*domain.ServiceArea, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.ServiceArea, 0)
	for _, a := range m.areas {
		if a.ProviderID == providerID {
			copy := *a
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockServiceAreaRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.areas[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.areas, id)
	return nil
}

// CountPrimary returns the number of primary areas for a provider.
func (m *MockServiceAreaRepository) CountPrimary(providerID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, a := range m.areas {
		if a.ProviderID == providerID && a.IsPrimary {
			count++
		}
	}
	return count
}

// ──────────────────────────────────────────────
// MOCK REVIEW REPOSITORY
// ──────────────────────────────────────────────

// MockReviewRepository is a mock implementation of ReviewRepository. Create
// folds the rating into the provider repository when one is attached,
// matching the transactional PostgreSQL behavior.
type MockReviewRepository struct {
	mu      sync.RWMutex
	reviews map[string]*domain.Review // keyed by booking ID

	Providers *MockProviderRepository

	CreateCallCount int32
	CreateError     error
}

// NewMockReviewRepository creates a new mock review repository.
func NewMockReviewRepository(providers *MockProviderRepository) *MockReviewRepository {
	return &MockReviewRepository{
		reviews:   make(map[string]*domain.Review),
		Providers: providers,
	}
}

func (m *MockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[review.BookingID]; ok {
		return repository.ErrDuplicate
	}
	copy := *review
	m.reviews[review.BookingID] = &copy

	if m.Providers != nil {
		m.Providers.mu.Lock()
		if p, ok := m.Providers.providers[review.ProviderID]; ok {
			p.RatingSum += int64(review.Rating)
			p.RatingCount++
		}
		m.Providers.mu.Unlock()
	}
	return nil
}

func (m *MockReviewRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reviews[bookingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *r
	return &copy, nil
}

func (m *MockReviewRepository) ListByProvider(ctx context.Context, providerID string, limit int) ([]*domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Review, 0)
	for _, r := range m.reviews {
		if r.ProviderID == providerID {
			copy := *r
			result = append(result, &copy)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu      sync.RWMutex
	samples map[string]*domain.LocationSample

	// Error injection
	RecordError       error
	OnlineWithinError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		samples: make(map[string]*domain.LocationSample),
	}
}

// AddSample seeds a provider's latest sample.
func (m *MockLocationStore) AddSample(sample *domain.LocationSample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples[sample.ProviderID] = sample
}

func (m *MockLocationStore) Record(ctx context.Context, sample *domain.LocationSample) error {
	if m.RecordError != nil {
		return m.RecordError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *sample
	m.samples[sample.ProviderID] = &copy
	return nil
}

func (m *MockLocationStore) Latest(ctx context.Context, providerID string) (*domain.LocationSample, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.samples[providerID]
	if !ok {
		return nil, false, nil
	}
	copy := *s
	return &copy, true, nil
}

func (m *MockLocationStore) OnlineWithin(ctx context.Context, center geo.Position, radiusKm float64, maxAge time.Duration) ([]*domain.LocationSample, error) {
	if m.OnlineWithinError != nil {
		return nil, m.OnlineWithinError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	result := make([]*domain.LocationSample, 0)
	for _, s := range m.samples {
		if !s.Online || s.Stale(now, maxAge) {
			continue
		}
		if geo.DistanceKm(center, s.Position) > radiusKm {
			continue
		}
		copy := *s
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockLocationStore) SetOffline(ctx context.Context, providerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.samples[providerID]; ok {
		s.Online = false
	}
	return nil
}

func (m *MockLocationStore) IsOnline(ctx context.Context, providerID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.samples[providerID]
	return ok && s.Online, nil
}

// GetSample returns the stored sample for test assertions.
func (m *MockLocationStore) GetSample(providerID string) *domain.LocationSample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.samples[providerID]
}

// ──────────────────────────────────────────────
// MOCK LOCATION REPOSITORY
// ──────────────────────────────────────────────

// MockLocationRepository is a mock implementation of LocationRepository.
type MockLocationRepository struct {
	mu      sync.RWMutex
	samples map[string][]*domain.LocationSample

	AppendCallCount int32
	AppendError     error
}

// NewMockLocationRepository creates a new mock location repository.
func NewMockLocationRepository() *MockLocationRepository {
	return &MockLocationRepository{
		samples: make(map[string][]*domain.LocationSample),
	}
}

func (m *MockLocationRepository) Append(ctx context.Context, sample *domain.LocationSample) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *sample
	m.samples[sample.ProviderID] = append(m.samples[sample.ProviderID], &copy)
	return nil
}

func (m *MockLocationRepository) LatestByProvider(ctx context.Context, providerID string) (*domain.LocationSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.samples[providerID]
	if len(list) == 0 {
		return nil, repository.ErrNotFound
	}
	copy := *list[len(list)-1]
	return &copy, nil
}

func (m *MockLocationRepository) ListRecent(ctx context.Context, providerID string, limit int) ([]*domain.LocationSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.samples[providerID]
	result := make([]*domain.LocationSample, 0, len(list))
	for i := len(list) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		copy := *list[i]
		result = append(result, &copy)
	}
	return result, nil
}

// CountSamples returns the number of appended samples for a provider.
func (m *MockLocationRepository) CountSamples(providerID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.samples[providerID])
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (bool, error) {
	return m.acquire("booking:" + bookingID)
}

func (m *MockLockStore) ReleaseBookingLock(ctx context.Context, bookingID string) error {
	m.release("booking:" + bookingID)
	return nil
}

func (m *MockLockStore) AcquireProviderLock(ctx context.Context, providerID string, ttl time.Duration) (bool, error) {
	return m.acquire("provider:" + providerID)
}

func (m *MockLockStore) ReleaseProviderLock(ctx context.Context, providerID string) error {
	m.release("provider:" + providerID)
	return nil
}

func (m *MockLockStore) acquire(key string) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *MockLockStore) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
}

// IsLocked reports whether a key is currently held.
func (m *MockLockStore) IsLocked(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks[key]
}
