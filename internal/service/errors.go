package service

import "errors"

var (
	// ErrInvalidPosition is returned when coordinates are malformed or
	// outside the operating region.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrInvalidRadius is returned when a service area radius is out of range.
	ErrInvalidRadius = errors.New("invalid radius")

	// ErrInvalidRating is returned when a review rating is outside 1-5.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrInvalidSchedule is returned when a booking is scheduled in the past.
	ErrInvalidSchedule = errors.New("scheduled time must be in the future")

	// ErrInvalidStatus is returned when a transition names an unknown status.
	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrForbidden is returned when the caller's role or ownership does not
	// permit the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrNotOwner is returned when a provider operates on a resource owned
	// by another provider.
	ErrNotOwner = errors.New("not the owner")

	// ErrAccountInactive is returned for any operation by a deactivated
	// account.
	ErrAccountInactive = errors.New("account inactive")

	// ErrInvalidTransition is returned when the status edge is not in the
	// caller's transition table.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConcurrentModification is returned when a racing writer changed the
	// booking first. The caller must re-fetch before retrying.
	ErrConcurrentModification = errors.New("booking modified concurrently")

	// ErrReviewAlreadyExists is returned on a second review for a booking.
	ErrReviewAlreadyExists = errors.New("review already exists")

	// ErrBookingNotCompleted is returned when reviewing a booking that is
	// not in the completed state.
	ErrBookingNotCompleted = errors.New("booking not completed")

	// ErrServiceNotFound is returned when the catalog has no such service.
	ErrServiceNotFound = errors.New("service not found")

	// ErrBookingNotFound is returned when the booking does not exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrProviderNotEligible is returned when a directly assigned provider
	// does not offer the requested service.
	ErrProviderNotEligible = errors.New("provider does not offer this service")

	// ErrMatchingUnavailable is returned when a store backing the matcher is
	// unreachable.
	ErrMatchingUnavailable = errors.New("matching temporarily unavailable")

	// ErrPricingUnavailable is returned when the catalog cannot be reached
	// for pricing.
	ErrPricingUnavailable = errors.New("pricing temporarily unavailable")
)
