package postgres

import (
	"context"
	"database/sql"
	"errors"

	"servio/internal/domain"
	"servio/internal/repository"
)

// LocationRepository is a PostgreSQL implementation of
// repository.LocationRepository. Samples are append-only rows; the table is
// the audit history behind the Redis latest-sample index.
type LocationRepository struct {
	q Querier
}

// NewLocationRepository creates a new PostgreSQL location repository.
func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{q: db}
}

const sampleColumns = `
	id, provider_id, lat, lon, accuracy_meters, heading_degrees, speed_kmh,
	online, battery_percent, captured_at
`

// Append stores a new sample.
func (r *LocationRepository) Append(ctx context.Context, sample *domain.LocationSample) error {
	query := `
		INSERT INTO provider_location_samples (` + sampleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		sample.ID,
		sample.ProviderID,
		sample.Position.Lat,
		sample.Position.Lon,
		sample.AccuracyMeters,
		sample.HeadingDegrees,
		sample.SpeedKmh,
		sample.Online,
		sample.BatteryPercent,
		sample.CapturedAt,
	)
	return err
}

// LatestByProvider returns the most recent persisted sample.
func (r *LocationRepository) LatestByProvider(ctx context.Context, providerID string) (*domain.LocationSample, error) {
	query := `
		SELECT ` + sampleColumns + `
		FROM provider_location_samples WHERE provider_id = $1
		ORDER BY captured_at DESC LIMIT 1
	`

	sample, err := scanSample(r.q.QueryRowContext(ctx, query, providerID))
	if err != nil {
		return nil, err
	}
	return sample, nil
}

// ListRecent returns up to limit samples for the provider, newest first.
func (r *LocationRepository) ListRecent(ctx context.Context, providerID string, limit int) ([]*domain.LocationSample, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT ` + sampleColumns + `
		FROM provider_location_samples WHERE provider_id = $1
		ORDER BY captured_at DESC LIMIT $2
	`

	rows, err := r.q.QueryContext(ctx, query, providerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []*domain.LocationSample
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

func scanSample(row rowScanner) (*domain.LocationSample, error) {
	var sample domain.LocationSample
	var accuracy, heading, speed sql.NullFloat64
	var battery sql.NullInt64

	err := row.Scan(
		&sample.ID,
		&sample.ProviderID,
		&sample.Position.Lat,
		&sample.Position.Lon,
		&accuracy,
		&heading,
		&speed,
		&sample.Online,
		&battery,
		&sample.CapturedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	sample.AccuracyMeters = accuracy.Float64
	sample.HeadingDegrees = heading.Float64
	sample.SpeedKmh = speed.Float64
	sample.BatteryPercent = int(battery.Int64)

	return &sample, nil
}
