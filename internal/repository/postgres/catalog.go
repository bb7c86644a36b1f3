package postgres

import (
	"context"
	"database/sql"
	"errors"

	"servio/internal/domain"
	"servio/internal/repository"
)

// CatalogRepository is a PostgreSQL-backed read-only view of the catalog
// subsystem's tables.
type CatalogRepository struct {
	q Querier
}

// NewCatalogRepository creates a new PostgreSQL catalog repository.
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{q: db}
}

// GetService retrieves a service definition.
func (r *CatalogRepository) GetService(ctx context.Context, serviceID string) (*domain.CatalogService, error) {
	query := `
		SELECT id, name, base_price, estimated_duration_minutes, is_emergency_capable, emergency_surcharge_pct
		FROM services WHERE id = $1 AND is_active = TRUE
	`

	var svc domain.CatalogService
	var basePrice int64
	err := r.q.QueryRowContext(ctx, query, serviceID).Scan(
		&svc.ID,
		&svc.Name,
		&basePrice,
		&svc.EstimatedDurationMinutes,
		&svc.IsEmergencyCapable,
		&svc.EmergencySurchargePct,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	svc.BasePrice = domain.Money(basePrice)

	return &svc, nil
}

// GetOffering retrieves one provider's offering for a service.
func (r *CatalogRepository) GetOffering(ctx context.Context, providerID, serviceID string) (*domain.ServiceOffering, error) {
	query := `
		SELECT provider_id, service_id, custom_price, is_available, is_active
		FROM provider_services WHERE provider_id = $1 AND service_id = $2
	`

	return scanOffering(r.q.QueryRowContext(ctx, query, providerID, serviceID))
}

// ListOfferings returns all active, available offerings for a service.
func (r *CatalogRepository) ListOfferings(ctx context.Context, serviceID string) ([]*domain.ServiceOffering, error) {
	query := `
		SELECT provider_id, service_id, custom_price, is_available, is_active
		FROM provider_services
		WHERE service_id = $1 AND is_active = TRUE AND is_available = TRUE
	`

	rows, err := r.q.QueryContext(ctx, query, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offerings []*domain.ServiceOffering
	for rows.Next() {
		offering, err := scanOffering(rows)
		if err != nil {
			return nil, err
		}
		offerings = append(offerings, offering)
	}
	return offerings, rows.Err()
}

func scanOffering(row rowScanner) (*domain.ServiceOffering, error) {
	var offering domain.ServiceOffering
	var customPrice sql.NullInt64

	err := row.Scan(
		&offering.ProviderID,
		&offering.ServiceID,
		&customPrice,
		&offering.IsAvailable,
		&offering.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if customPrice.Valid {
		offering.CustomPrice = domain.Money(customPrice.Int64)
	}

	return &offering, nil
}
