package tests

import (
	"context"
	"testing"

	"servio/internal/domain"
	"servio/internal/service"
)

// ──────────────────────────────────────────────
// REVIEWS
// ──────────────────────────────────────────────

func TestReview_AcceptedOnceForCompletedBooking(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.providers.AddProvider(&domain.Provider{ID: "prov-1", Name: "Fixit", Active: true, RatingSum: 8, RatingCount: 2})
	f.seedBooking("bk-1", domain.BookingStatusCompleted)

	review, err := f.service.SubmitReview(context.Background(), service.SubmitReviewRequest{
		BookingID: "bk-1",
		Requester: customer("cust-1"),
		Rating:    5,
		Text:      "fast and clean work",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if review.ProviderID != "prov-1" {
		t.Errorf("review provider = %s, want prov-1", review.ProviderID)
	}

	// Rolling average: (8 + 5) / 3.
	p := f.providers.GetProvider("prov-1")
	if p.RatingSum != 13 || p.RatingCount != 3 {
		t.Errorf("provider rating sum/count = %d/%d, want 13/3", p.RatingSum, p.RatingCount)
	}
	if avg := p.AverageRating(); avg < 4.33 || avg > 4.34 {
		t.Errorf("average rating = %v, want ~4.333", avg)
	}

	// Second attempt is rejected and the rating stays put.
	_, err = f.service.SubmitReview(context.Background(), service.SubmitReviewRequest{
		BookingID: "bk-1",
		Requester: customer("cust-1"),
		Rating:    1,
	})
	if err != service.ErrReviewAlreadyExists {
		t.Errorf("expected ErrReviewAlreadyExists, got %v", err)
	}
	p = f.providers.GetProvider("prov-1")
	if p.RatingSum != 13 || p.RatingCount != 3 {
		t.Errorf("rating changed after rejected duplicate: %d/%d", p.RatingSum, p.RatingCount)
	}
}

func TestReview_RejectedForIncompleteBooking(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	for _, status := range []domain.BookingStatus{
		domain.BookingStatusPending,
		domain.BookingStatusConfirmed,
		domain.BookingStatusInProgress,
		domain.BookingStatusCancelled,
	} {
		f.seedBooking("bk-"+string(status), status)
		_, err := f.service.SubmitReview(context.Background(), service.SubmitReviewRequest{
			BookingID: "bk-" + string(status),
			Requester: customer("cust-1"),
			Rating:    4,
		})
		if err != service.ErrBookingNotCompleted {
			t.Errorf("status %s: expected ErrBookingNotCompleted, got %v", status, err)
		}
	}
}

func TestReview_RatingMustBeOneToFive(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.seedBooking("bk-1", domain.BookingStatusCompleted)

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := f.service.SubmitReview(context.Background(), service.SubmitReviewRequest{
			BookingID: "bk-1",
			Requester: customer("cust-1"),
			Rating:    rating,
		})
		if err != service.ErrInvalidRating {
			t.Errorf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
}

func TestReview_OnlyBookingCustomerMaySubmit(t *testing.T) {
	t.Parallel()

	f := newBookingFixture()
	f.seedBooking("bk-1", domain.BookingStatusCompleted)

	_, err := f.service.SubmitReview(context.Background(), service.SubmitReviewRequest{
		BookingID: "bk-1",
		Requester: customer("cust-other"),
		Rating:    5,
	})
	if err != service.ErrForbidden {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}
