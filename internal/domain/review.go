package domain

import "time"

// Review is a customer rating for a completed booking, at most one per
// booking.
type Review struct {
	ID         string
	BookingID  string
	CustomerID string
	ProviderID string
	Rating     int // 1-5 stars
	Text       string
	PhotoURLs  []string
	CreatedAt  time.Time
}

// ValidRating reports whether the rating is in the 1-5 range.
func ValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}
