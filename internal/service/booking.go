package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"servio/internal/config"
	"servio/internal/domain"
	"servio/internal/geo"
	"servio/internal/redis"
	"servio/internal/repository"
)

const bookingLockTTL = 10 * time.Second

// BookingService owns the booking lifecycle: creation, role-gated status
// transitions with an append-only audit trail, and review submission.
type BookingService struct {
	region              geo.BoundingBox
	catalogTimeout      time.Duration
	bookingRepo         repository.BookingRepository
	catalogRepo         repository.CatalogRepository
	reviewRepo          repository.ReviewRepository
	lockStore           redis.LockStoreInterface
	cacheStore          *redis.CacheStore
	pricing             *PricingService
	notificationService *NotificationService
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	region geo.BoundingBox,
	cfg config.MatchingConfig,
	bookingRepo repository.BookingRepository,
	catalogRepo repository.CatalogRepository,
	reviewRepo repository.ReviewRepository,
	lockStore redis.LockStoreInterface,
	cacheStore *redis.CacheStore,
	pricing *PricingService,
	notificationService *NotificationService,
) *BookingService {
	return &BookingService{
		region:              region,
		catalogTimeout:      cfg.CatalogTimeout,
		bookingRepo:         bookingRepo,
		catalogRepo:         catalogRepo,
		reviewRepo:          reviewRepo,
		lockStore:           lockStore,
		cacheStore:          cacheStore,
		pricing:             pricing,
		notificationService: notificationService,
	}
}

// CreateBookingRequest contains the parameters for creating a booking.
type CreateBookingRequest struct {
	CustomerID          string
	ServiceID           string
	ProviderID          string // optional: direct assignment
	ScheduledAt         time.Time
	Address             domain.Address
	SpecialInstructions string
	IsEmergency         bool
}

// Create prices and persists a new booking. With no provider the booking
// starts pending; with a direct-assigned provider it starts confirmed,
// provided the provider actually offers the service.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if !req.ScheduledAt.After(time.Now()) {
		return nil, ErrInvalidSchedule
	}
	if !s.region.Contains(req.Address.Position) {
		return nil, ErrInvalidPosition
	}

	svc, offering, err := s.resolveCatalog(ctx, req.ServiceID, req.ProviderID)
	if err != nil {
		return nil, err
	}

	quote := s.pricing.QuoteService(svc, offering, req.IsEmergency)

	status := domain.BookingStatusPending
	if req.ProviderID != "" {
		status = domain.BookingStatusConfirmed
	}

	now := time.Now()
	booking := &domain.Booking{
		ID:                   uuid.New().String(),
		CustomerID:           req.CustomerID,
		ProviderID:           req.ProviderID,
		ServiceID:            req.ServiceID,
		Status:               status,
		ScheduledAt:          req.ScheduledAt,
		Address:              req.Address,
		SpecialInstructions:  req.SpecialInstructions,
		EstimatedDurationMin: svc.EstimatedDurationMinutes,
		TotalAmount:          quote.Total,
		PlatformCommission:   quote.Commission,
		ProviderEarnings:     quote.ProviderEarnings,
		PaymentStatus:        domain.PaymentStatusPending,
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	entry := &domain.StatusHistoryEntry{
		ID:        uuid.New().String(),
		BookingID: booking.ID,
		NewStatus: status,
		ChangedBy: req.CustomerID,
		At:        now,
	}

	if err := s.bookingRepo.Create(ctx, booking, entry); err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyBookingCreated(ctx, booking)
	}
	return booking, nil
}

// resolveCatalog loads the service definition and, for direct assignment, the
// provider's offering. The provider must actively offer the service.
func (s *BookingService) resolveCatalog(ctx context.Context, serviceID, providerID string) (*domain.CatalogService, *domain.ServiceOffering, error) {
	cctx := ctx
	if s.catalogTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, s.catalogTimeout)
		defer cancel()
	}

	svc, err := s.catalogRepo.GetService(cctx, serviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrServiceNotFound
		}
		return nil, nil, ErrPricingUnavailable
	}

	if providerID == "" {
		return svc, nil, nil
	}

	offering, err := s.catalogRepo.GetOffering(cctx, providerID, serviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrProviderNotEligible
		}
		return nil, nil, ErrPricingUnavailable
	}
	if !offering.IsActive || !offering.IsAvailable {
		return nil, nil, ErrProviderNotEligible
	}
	return svc, offering, nil
}

// TransitionRequest contains the parameters for a status change.
type TransitionRequest struct {
	BookingID string
	Requester domain.Identity
	NewStatus domain.BookingStatus
	Reason    string
}

// Transition moves a booking to a new status under the requester's role
// rules. The status write and its history entry land atomically; concurrent
// attempts on the same booking resolve to exactly one winner. On a failed
// transition the booking is returned alongside the error so callers can
// report the current status.
func (s *BookingService) Transition(ctx context.Context, req TransitionRequest) (*domain.Booking, error) {
	if !domain.ValidBookingStatus(req.NewStatus) {
		return nil, ErrInvalidStatus
	}

	// Serialize transitions per booking across instances. The optimistic
	// version check below still protects against anything that slips through.
	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireBookingLock(ctx, req.BookingID, bookingLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			// Another transition holds the lock; report the booking's
			// current state alongside the conflict.
			if current, gerr := s.bookingRepo.GetByID(ctx, req.BookingID); gerr == nil {
				return current, ErrConcurrentModification
			}
			return nil, ErrConcurrentModification
		}
		defer s.lockStore.ReleaseBookingLock(ctx, req.BookingID)
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if !booking.OwnedBy(req.Requester) {
		return booking, ErrForbidden
	}
	if !domain.CanTransition(req.Requester.Role, booking.Status, req.NewStatus) {
		return booking, ErrInvalidTransition
	}

	previous := booking.Status
	expectedVersion := booking.Version
	now := time.Now()

	booking.Status = req.NewStatus
	booking.UpdatedAt = now
	switch req.NewStatus {
	case domain.BookingStatusInProgress:
		booking.ActualStart = now
	case domain.BookingStatusCompleted:
		booking.ActualEnd = now
		if !booking.ActualStart.IsZero() {
			booking.ActualDurationMin = int(now.Sub(booking.ActualStart).Round(time.Minute) / time.Minute)
		}
	}

	entry := &domain.StatusHistoryEntry{
		ID:             uuid.New().String(),
		BookingID:      booking.ID,
		PreviousStatus: previous,
		NewStatus:      req.NewStatus,
		ChangedBy:      req.Requester.UserID,
		Reason:         req.Reason,
		At:             now,
	}

	if err := s.bookingRepo.ApplyTransition(ctx, booking, entry, expectedVersion); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			// Re-read so the caller sees the winner's state.
			if current, gerr := s.bookingRepo.GetByID(ctx, req.BookingID); gerr == nil {
				return current, ErrConcurrentModification
			}
			return nil, ErrConcurrentModification
		}
		return nil, err
	}
	booking.Version = expectedVersion + 1

	if s.notificationService != nil {
		_ = s.notificationService.NotifyStatusChanged(ctx, booking, req.Requester.UserID)
	}
	return booking, nil
}

// SubmitReviewRequest contains the parameters for reviewing a booking.
type SubmitReviewRequest struct {
	BookingID string
	Requester domain.Identity
	Rating    int
	Text      string
	PhotoURLs []string
}

// SubmitReview records a customer review for a completed booking, at most
// once, folding the rating into the provider's rolling average.
func (s *BookingService) SubmitReview(ctx context.Context, req SubmitReviewRequest) (*domain.Review, error) {
	if !domain.ValidRating(req.Rating) {
		return nil, ErrInvalidRating
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if req.Requester.Role != domain.RoleAdmin && booking.CustomerID != req.Requester.UserID {
		return nil, ErrForbidden
	}
	if booking.Status != domain.BookingStatusCompleted {
		return nil, ErrBookingNotCompleted
	}

	review := &domain.Review{
		ID:         uuid.New().String(),
		BookingID:  booking.ID,
		CustomerID: booking.CustomerID,
		ProviderID: booking.ProviderID,
		Rating:     req.Rating,
		Text:       req.Text,
		PhotoURLs:  req.PhotoURLs,
		CreatedAt:  time.Now(),
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrReviewAlreadyExists
		}
		return nil, err
	}

	// The provider's cached rating is now stale.
	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateProvider(ctx, booking.ProviderID)
	}
	if s.notificationService != nil {
		_ = s.notificationService.NotifyReviewReceived(ctx, review)
	}
	return review, nil
}

// Get returns a booking visible to the requester. Customers and providers
// see only their own bookings; admins see all.
func (s *BookingService) Get(ctx context.Context, bookingID string, requester domain.Identity) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !s.visible(booking, requester) {
		return nil, ErrForbidden
	}
	return booking, nil
}

// List returns the requester's bookings, optionally filtered by status. For
// admins the filter passes through unscoped.
func (s *BookingService) List(ctx context.Context, requester domain.Identity, status domain.BookingStatus, limit int) ([]*domain.Booking, error) {
	if status != "" && !domain.ValidBookingStatus(status) {
		return nil, ErrInvalidStatus
	}

	filter := repository.BookingFilter{Status: status, Limit: limit}
	switch requester.Role {
	case domain.RoleCustomer:
		filter.CustomerID = requester.UserID
	case domain.RoleProvider:
		filter.ProviderID = requester.UserID
	case domain.RoleAdmin:
	default:
		return nil, ErrForbidden
	}
	return s.bookingRepo.List(ctx, filter)
}

// History returns the booking's status history, oldest first.
func (s *BookingService) History(ctx context.Context, bookingID string, requester domain.Identity) ([]*domain.StatusHistoryEntry, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !s.visible(booking, requester) {
		return nil, ErrForbidden
	}
	return s.bookingRepo.History(ctx, bookingID)
}

func (s *BookingService) visible(booking *domain.Booking, requester domain.Identity) bool {
	switch requester.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleCustomer:
		return booking.CustomerID == requester.UserID
	case domain.RoleProvider:
		return booking.ProviderID == requester.UserID
	}
	return false
}
