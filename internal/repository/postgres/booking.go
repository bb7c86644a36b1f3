package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"servio/internal/domain"
	"servio/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of
// repository.BookingRepository.
type BookingRepository struct {
	db *sql.DB
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `
	id, customer_id, provider_id, service_id, status, scheduled_at,
	actual_start, actual_end, actual_duration_min,
	street, city, region, lat, lon, special_instructions,
	estimated_duration_min, total_amount, platform_commission,
	provider_earnings, payment_status, version, created_at, updated_at
`

// Create persists a new booking and its creation history entry atomically.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking, entry *domain.StatusHistoryEntry) (err error) {
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
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	_, err = tx.ExecContext(ctx, query,
		booking.ID,
		booking.CustomerID,
		nullString(booking.ProviderID),
		booking.ServiceID,
		booking.Status,
		booking.ScheduledAt,
		nullTime(booking.ActualStart),
		nullTime(booking.ActualEnd),
		booking.ActualDurationMin,
		booking.Address.Street,
		booking.Address.City,
		booking.Address.Region,
		booking.Address.Position.Lat,
		booking.Address.Position.Lon,
		nullString(booking.SpecialInstructions),
		booking.EstimatedDurationMin,
		int64(booking.TotalAmount),
		int64(booking.PlatformCommission),
		int64(booking.ProviderEarnings),
		booking.PaymentStatus,
		booking.Version,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err = insertHistory(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(r.db.QueryRowContext(ctx, query, id))
}

// List retrieves bookings matching the filter, newest first.
func (r *BookingRepository) List(ctx context.Context, filter repository.BookingFilter) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := []any{}

	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		query += ` AND customer_id = $` + itoa(len(args))
	}
	if filter.ProviderID != "" {
		args = append(args, filter.ProviderID)
		query += ` AND provider_id = $` + itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + itoa(len(args))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	args = append(args, limit)
	query += ` ORDER BY created_at DESC LIMIT $` + itoa(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// ApplyTransition writes the booking mutation and history entry atomically,
// guarded by the optimistic version check.
func (r *BookingRepository) ApplyTransition(ctx context.Context, booking *domain.Booking, entry *domain.StatusHistoryEntry, expectedVersion int64) (err error) {
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
		UPDATE bookings
		SET status = $1, provider_id = $2, actual_start = $3, actual_end = $4,
		    actual_duration_min = $5, payment_status = $6, version = version + 1,
		    updated_at = $7
		WHERE id = $8 AND version = $9
	`

	result, err := tx.ExecContext(ctx, query,
		booking.Status,
		nullString(booking.ProviderID),
		nullTime(booking.ActualStart),
		nullTime(booking.ActualEnd),
		booking.ActualDurationMin,
		booking.PaymentStatus,
		time.Now(),
		booking.ID,
		expectedVersion,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		// Either the booking vanished or another writer won the race.
		var exists bool
		if err = tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, booking.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			err = repository.ErrNotFound
			return err
		}
		err = repository.ErrVersionConflict
		return err
	}

	if err = insertHistory(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit()
}

// History returns the booking's status history, oldest first.
func (r *BookingRepository) History(ctx context.Context, bookingID string) ([]*domain.StatusHistoryEntry, error) {
	query := `
		SELECT id, booking_id, previous_status, new_status, changed_by, reason, at
		FROM booking_status_history WHERE booking_id = $1 ORDER BY at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.StatusHistoryEntry
	for rows.Next() {
		var entry domain.StatusHistoryEntry
		var previous sql.NullString
		var reason sql.NullString
		if err := rows.Scan(&entry.ID, &entry.BookingID, &previous, &entry.NewStatus, &entry.ChangedBy, &reason, &entry.At); err != nil {
			return nil, err
		}
		if previous.Valid {
			entry.PreviousStatus = domain.BookingStatus(previous.String)
		}
		if reason.Valid {
			entry.Reason = reason.String
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func insertHistory(ctx context.Context, tx *sql.Tx, entry *domain.StatusHistoryEntry) error {
	query := `
		INSERT INTO booking_status_history (id, booking_id, previous_status, new_status, changed_by, reason, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.ExecContext(ctx, query,
		entry.ID,
		entry.BookingID,
		nullString(string(entry.PreviousStatus)),
		entry.NewStatus,
		entry.ChangedBy,
		nullString(entry.Reason),
		entry.At,
	)
	return err
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var providerID sql.NullString
	var actualStart, actualEnd sql.NullTime
	var instructions sql.NullString
	var total, commission, earnings int64

	err := row.Scan(
		&booking.ID,
		&booking.CustomerID,
		&providerID,
		&booking.ServiceID,
		&booking.Status,
		&booking.ScheduledAt,
		&actualStart,
		&actualEnd,
		&booking.ActualDurationMin,
		&booking.Address.Street,
		&booking.Address.City,
		&booking.Address.Region,
		&booking.Address.Position.Lat,
		&booking.Address.Position.Lon,
		&instructions,
		&booking.EstimatedDurationMin,
		&total,
		&commission,
		&earnings,
		&booking.PaymentStatus,
		&booking.Version,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if providerID.Valid {
		booking.ProviderID = providerID.String
	}
	if actualStart.Valid {
		booking.ActualStart = actualStart.Time
	}
	if actualEnd.Valid {
		booking.ActualEnd = actualEnd.Time
	}
	if instructions.Valid {
		booking.SpecialInstructions = instructions.String
	}
	booking.TotalAmount = domain.Money(total)
	booking.PlatformCommission = domain.Money(commission)
	booking.ProviderEarnings = domain.Money(earnings)

	return &booking, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
