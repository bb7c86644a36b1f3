package postgres

import (
	"context"
	"database/sql"
	"errors"

	"servio/internal/domain"
	"servio/internal/repository"
)

// ServiceAreaRepository is a PostgreSQL implementation of
// repository.ServiceAreaRepository.
type ServiceAreaRepository struct {
	db *sql.DB
}

// NewServiceAreaRepository creates a new PostgreSQL service area repository.
func NewServiceAreaRepository(db *sql.DB) *ServiceAreaRepository {
	return &ServiceAreaRepository{db: db}
}

// Create persists a new area. A primary area demotes the provider's previous
// primary in the same transaction, so there is never a moment with two.
func (r *ServiceAreaRepository) Create(ctx context.Context, area *domain.ServiceArea) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if area.IsPrimary {
		_, err = tx.ExecContext(ctx,
			`UPDATE provider_service_areas SET is_primary = FALSE WHERE provider_id = $1 AND is_primary = TRUE`,
			area.ProviderID,
		)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO provider_service_areas (id, provider_id, label, center_lat, center_lon, radius_km, is_primary, travel_time_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = tx.ExecContext(ctx, query,
		area.ID,
		area.ProviderID,
		area.Label,
		area.Center.Lat,
		area.Center.Lon,
		area.RadiusKm,
		area.IsPrimary,
		area.TravelTimeMinutes,
		area.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves an area by ID.
func (r *ServiceAreaRepository) GetByID(ctx context.Context, id string) (*domain.ServiceArea, error) {
	query := `
		SELECT id, provider_id, label, center_lat, center_lon, radius_km, is_primary, travel_time_minutes, created_at
		FROM provider_service_areas WHERE id = $1
	`

	var area domain.ServiceArea
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&area.ID,
		&area.ProviderID,
		&area.Label,
		&area.Center.Lat,
		&area.Center.Lon,
		&area.RadiusKm,
		&area.IsPrimary,
		&area.TravelTimeMinutes,
		&area.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &area, nil
}

// ListByProvider returns all areas declared by the provider.
func (r *ServiceAreaRepository) ListByProvider(ctx context.Context, providerID string) ([]*domain.ServiceArea, error) {
	query := `
		SELECT id, provider_id, label, center_lat, center_lon, radius_km, is_primary, travel_time_minutes, created_at
		FROM provider_service_areas WHERE provider_id = $1 ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var areas []*domain.ServiceArea
	for rows.Next() {
		var area domain.ServiceArea
		if err := rows.Scan(
			&area.ID,
			&area.ProviderID,
			&area.Label,
			&area.Center.Lat,
			&area.Center.Lon,
			&area.RadiusKm,
			&area.IsPrimary,
			&area.TravelTimeMinutes,
			&area.CreatedAt,
		); err != nil {
			return nil, err
		}
		areas = append(areas, &area)
	}
	return areas, rows.Err()
}

// Delete removes an area.
func (r *ServiceAreaRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM provider_service_areas WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
