package postgres

import (
	"context"
	"database/sql"

	"eventboard/internal/domain"
)

type locationRepository struct {
	DB *sql.DB
}

func NewLocationRepository(db *sql.DB) domain.LocationRepository {
	return &locationRepository{
		DB: db,
	}
}

// Save upserts a lat/lon pair and fills in the stored ID. Saving the same
// pair twice yields the same row.
func (r *locationRepository) Save(ctx context.Context, loc *domain.Location) error {
	query := `
		INSERT INTO locations (lat, lon)
		VALUES ($1, $2)
		ON CONFLICT (lat, lon) DO UPDATE SET lat = EXCLUDED.lat
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, loc.Lat, loc.Lon).Scan(&loc.ID)
}
