package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"servio/internal/domain"
	"servio/internal/repository"
)

// ReviewRepository is a PostgreSQL implementation of
// repository.ReviewRepository.
type ReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new PostgreSQL review repository.
func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create persists the review and updates the provider's running rating
// sum/count in one transaction. booking_id carries a unique constraint; a
// second review for the same booking surfaces as ErrDuplicate.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		INSERT INTO booking_reviews (id, booking_id, customer_id, provider_id, rating, review_text, photo_urls, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = tx.ExecContext(ctx, query,
		review.ID,
		review.BookingID,
		review.CustomerID,
		review.ProviderID,
		review.Rating,
		nullString(review.Text),
		pq.Array(review.PhotoURLs),
		review.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			err = repository.ErrDuplicate
		}
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE providers SET rating_sum = rating_sum + $1, rating_count = rating_count + 1 WHERE id = $2`,
		review.Rating, review.ProviderID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetByBookingID retrieves the review for a booking.
func (r *ReviewRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Review, error) {
	query := `
		SELECT id, booking_id, customer_id, provider_id, rating, review_text, photo_urls, created_at
		FROM booking_reviews WHERE booking_id = $1
	`

	return scanReview(r.db.QueryRowContext(ctx, query, bookingID))
}

// ListByProvider returns the provider's reviews, newest first.
func (r *ReviewRepository) ListByProvider(ctx context.Context, providerID string, limit int) ([]*domain.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, booking_id, customer_id, provider_id, rating, review_text, photo_urls, created_at
		FROM booking_reviews WHERE provider_id = $1 ORDER BY created_at DESC LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, providerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func scanReview(row rowScanner) (*domain.Review, error) {
	var review domain.Review
	var text sql.NullString
	var photos pq.StringArray

	err := row.Scan(
		&review.ID,
		&review.BookingID,
		&review.CustomerID,
		&review.ProviderID,
		&review.Rating,
		&text,
		&photos,
		&review.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if text.Valid {
		review.Text = text.String
	}
	review.PhotoURLs = photos

	return &review, nil
}
