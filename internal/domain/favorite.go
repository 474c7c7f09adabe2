package domain

import (
	"context"
	"time"
)

// Favorite records that an Akzente marked a merchandiser. Unique per pair.
type Favorite struct {
	AkzenteID      int64     `json:"akzente_id"`
	MerchandiserID int64     `json:"merchandiser_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type FavoriteRepository interface {
	Exists(ctx context.Context, akzenteID, merchandiserID int64) (bool, error)
	// Create reports false when the pair already existed.
	Create(ctx context.Context, akzenteID, merchandiserID int64) (bool, error)
	// Delete reports false when there was nothing to remove.
	Delete(ctx context.Context, akzenteID, merchandiserID int64) (bool, error)
	ListMerchandiserIDs(ctx context.Context, akzenteID int64) ([]int64, error)
}

type FavoriteUsecase interface {
	// Toggle returns the favorite state after the call.
	Toggle(ctx context.Context, merchandiserID int64, viewerUserID string) (bool, error)
}
