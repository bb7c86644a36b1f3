package repository

import (
	"context"

	"servio/internal/domain"
)

// BookingFilter narrows booking listings.
type BookingFilter struct {
	CustomerID string
	ProviderID string
	Status     domain.BookingStatus
	Limit      int
}

// BookingRepository defines the persistence operations for bookings and their
// audit trail. Multi-step writes are atomic: a status change and its history
// entry land in the same transaction or not at all.
type BookingRepository interface {
	// Create persists a new booking together with its creation history entry.
	Create(ctx context.Context, booking *domain.Booking, entry *domain.StatusHistoryEntry) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// List retrieves bookings matching the filter, newest first.
	List(ctx context.Context, filter BookingFilter) ([]*domain.Booking, error)

	// ApplyTransition writes the booking's new status, timestamps and pricing
	// fields and appends the history entry atomically. The write only lands
	// if the stored version still equals expectedVersion; otherwise
	// ErrVersionConflict is returned and nothing changes.
	ApplyTransition(ctx context.Context, booking *domain.Booking, entry *domain.StatusHistoryEntry, expectedVersion int64) error

	// History returns the booking's status history, oldest first.
	History(ctx context.Context, bookingID string) ([]*domain.StatusHistoryEntry, error)
}
