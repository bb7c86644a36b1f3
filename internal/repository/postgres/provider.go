package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"servio/internal/domain"
	"servio/internal/repository"
)

// ProviderRepository is a PostgreSQL implementation of
// repository.ProviderRepository.
type ProviderRepository struct {
	q Querier
}

// NewProviderRepository creates a new PostgreSQL provider repository.
func NewProviderRepository(db *sql.DB) *ProviderRepository {
	return &ProviderRepository{q: db}
}

// GetByID retrieves a provider profile.
func (r *ProviderRepository) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	query := `
		SELECT id, name, phone, active, rating_sum, rating_count
		FROM providers WHERE id = $1
	`

	var provider domain.Provider
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&provider.ID,
		&provider.Name,
		&provider.Phone,
		&provider.Active,
		&provider.RatingSum,
		&provider.RatingCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &provider, nil
}

// GetByIDs retrieves multiple profiles in one query.
func (r *ProviderRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Provider, error) {
	if len(ids) == 0 {
		return map[string]*domain.Provider{}, nil
	}

	query := `
		SELECT id, name, phone, active, rating_sum, rating_count
		FROM providers WHERE id = ANY($1)
	`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]*domain.Provider, len(ids))
	for rows.Next() {
		var provider domain.Provider
		if err := rows.Scan(
			&provider.ID,
			&provider.Name,
			&provider.Phone,
			&provider.Active,
			&provider.RatingSum,
			&provider.RatingCount,
		); err != nil {
			return nil, err
		}
		result[provider.ID] = &provider
	}
	return result, rows.Err()
}
