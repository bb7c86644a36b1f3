package repository

import (
	"context"

	"servio/internal/domain"
)

// ReviewRepository defines the persistence operations for booking reviews.
type ReviewRepository interface {
	// Create persists the review and folds its rating into the provider's
	// running sum/count in one transaction. Returns ErrDuplicate when the
	// booking already has a review.
	Create(ctx context.Context, review *domain.Review) error

	// GetByBookingID retrieves the review for a booking.
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Review, error)

	// ListByProvider returns the provider's reviews, newest first.
	ListByProvider(ctx context.Context, providerID string, limit int) ([]*domain.Review, error)
}
