package domain

import (
	"context"
	"time"
)

type AssetKind string

const (
	AssetKindPortrait AssetKind = "PORTRAIT"
	AssetKindDocument AssetKind = "DOCUMENT"
)

// Asset is a stored file attached to a merchandiser. Upload happens elsewhere.
type Asset struct {
	ID             int64     `json:"id"`
	MerchandiserID int64     `json:"merchandiser_id"`
	Kind           AssetKind `json:"kind"`
	StorageKey     string    `json:"-"`
	URL            string    `json:"url"`
	CreatedAt      time.Time `json:"created_at"`
}

type AssetRepository interface {
	Create(ctx context.Context, asset *Asset) error
	// FindEarliestByMerchandiserIDs loads one asset of the kind per merchandiser
	// in a single round trip. When several exist, the earliest created wins.
	// Merchandisers without a matching asset are absent from the map.
	FindEarliestByMerchandiserIDs(ctx context.Context, ids []int64, kind AssetKind) (map[int64]Asset, error)
}

// AssetURLSigner turns a storage key into a time-limited download URL.
type AssetURLSigner interface {
	SignURL(ctx context.Context, storageKey string) (string, error)
}
