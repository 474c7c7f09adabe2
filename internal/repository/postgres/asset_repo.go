package postgres

import (
	"context"
	"fmt"

	"merchandiser-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type assetRepo struct {
	db *pgxpool.Pool
}

func NewAssetRepository(db *pgxpool.Pool) domain.AssetRepository {
	return &assetRepo{db: db}
}

func (r *assetRepo) Create(ctx context.Context, asset *domain.Asset) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO merchandiser_assets (merchandiser_id, kind, storage_key, url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		asset.MerchandiserID, string(asset.Kind), asset.StorageKey, asset.URL,
	).Scan(&asset.ID, &asset.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

func (r *assetRepo) FindEarliestByMerchandiserIDs(ctx context.Context, ids []int64, kind domain.AssetKind) (map[int64]domain.Asset, error) {
	assets := make(map[int64]domain.Asset, len(ids))
	if len(ids) == 0 {
		return assets, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT ON (merchandiser_id) id, merchandiser_id, kind, storage_key, url, created_at
		FROM merchandiser_assets
		WHERE merchandiser_id = ANY($1) AND kind = $2
		ORDER BY merchandiser_id, created_at ASC, id ASC`,
		pq.Array(ids), string(kind))
	if err != nil {
		return nil, fmt.Errorf("asset lookup failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.Asset
		var k string
		if err := rows.Scan(&a.ID, &a.MerchandiserID, &k, &a.StorageKey, &a.URL, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Kind = domain.AssetKind(k)
		assets[a.MerchandiserID] = a
	}
	return assets, rows.Err()
}
