package postgres

import (
	"context"
	"fmt"

	"merchandiser-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type favoriteRepo struct {
	db *pgxpool.Pool
}

func NewFavoriteRepository(db *pgxpool.Pool) domain.FavoriteRepository {
	return &favoriteRepo{db: db}
}

func (r *favoriteRepo) Exists(ctx context.Context, akzenteID, merchandiserID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM merchandiser_favorites WHERE akzente_id = $1 AND merchandiser_id = $2)`,
		akzenteID, merchandiserID,
	).Scan(&exists)
	return exists, err
}

// Create relies on the primary key over the pair: a concurrent duplicate
// insert becomes a no-op instead of a second row.
func (r *favoriteRepo) Create(ctx context.Context, akzenteID, merchandiserID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO merchandiser_favorites (akzente_id, merchandiser_id)
		VALUES ($1, $2)
		ON CONFLICT (akzente_id, merchandiser_id) DO NOTHING`,
		akzenteID, merchandiserID)
	if err != nil {
		return false, fmt.Errorf("insert favorite: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *favoriteRepo) Delete(ctx context.Context, akzenteID, merchandiserID int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM merchandiser_favorites WHERE akzente_id = $1 AND merchandiser_id = $2`,
		akzenteID, merchandiserID)
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *favoriteRepo) ListMerchandiserIDs(ctx context.Context, akzenteID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT merchandiser_id FROM merchandiser_favorites WHERE akzente_id = $1 ORDER BY merchandiser_id`, akzenteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
