package postgres

import (
	"context"
	"fmt"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"
)

type assetRepository struct {
	db Queryable
}

func NewAssetRepository(db Queryable) repository.AssetRepository {
	return &assetRepository{db: db}
}

const assetColumns = `id, name, daily_rate_cents, status, location`

func (r *assetRepository) GetByID(ctx context.Context, id int64) (*domain.Asset, error) {
	return r.get(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = $1`, id)
}

func (r *assetRepository) LockForBooking(ctx context.Context, id int64) (*domain.Asset, error) {
	return r.get(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = $1 FOR UPDATE`, id)
}

func (r *assetRepository) get(ctx context.Context, query string, id int64) (*domain.Asset, error) {
	logger.DatabaseCall("select", query, "asset_id", id)
	a := &domain.Asset{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &a.DailyRateCents, &a.Status, &a.Location)
	if err != nil {
		return nil, classify(fmt.Sprintf("get asset %d", id), err)
	}
	return a, nil
}

func (r *assetRepository) List(ctx context.Context) ([]domain.Asset, error) {
	return r.list(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY id`)
}

func (r *assetRepository) ListByStatus(ctx context.Context, status domain.AssetStatus) ([]domain.Asset, error) {
	return r.list(ctx, `SELECT `+assetColumns+` FROM assets WHERE status = $1 ORDER BY id`, status)
}

func (r *assetRepository) list(ctx context.Context, query string, args ...any) ([]domain.Asset, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list assets", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		var a domain.Asset
		if err := rows.Scan(&a.ID, &a.Name, &a.DailyRateCents, &a.Status, &a.Location); err != nil {
			return nil, classify("scan asset", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list assets", err)
	}
	return assets, nil
}

func (r *assetRepository) UpdateStatus(ctx context.Context, id int64, status domain.AssetStatus) error {
	query := `UPDATE assets SET status = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return classify("update asset status", err)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("update", n, err, "asset_id", id)
	if err != nil {
		return classify("update asset status", err)
	}
	if n == 0 {
		return domain.NewNotFoundError("update asset status", "asset %d not found", id)
	}
	return nil
}
