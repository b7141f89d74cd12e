package postgres

import (
	"context"

	"github.com/lib/pq"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/repository"
)

type catalogRepository struct {
	db Queryable
}

func NewCatalogRepository(db Queryable) repository.CatalogRepository {
	return &catalogRepository{db: db}
}

// GetEquipment returns the requested equipment keyed by id. Unknown ids are simply absent.
func (r *catalogRepository) GetEquipment(ctx context.Context, ids []int64) (map[int64]domain.Equipment, error) {
	out := make(map[int64]domain.Equipment, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, price_per_day_cents FROM equipment WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, classify("get equipment", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.Equipment
		if err := rows.Scan(&e.ID, &e.Name, &e.PricePerDayCents); err != nil {
			return nil, classify("scan equipment", err)
		}
		out[e.ID] = e
	}
	return out, classify("get equipment", rows.Err())
}

// GetActivities returns the requested activities keyed by id. Unknown ids are simply absent.
func (r *catalogRepository) GetActivities(ctx context.Context, ids []int64) (map[int64]domain.Activity, error) {
	out := make(map[int64]domain.Activity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, price_per_participant_cents FROM activities WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, classify("get activities", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.Name, &a.PricePerParticipantCents); err != nil {
			return nil, classify("scan activity", err)
		}
		out[a.ID] = a
	}
	return out, classify("get activities", rows.Err())
}
