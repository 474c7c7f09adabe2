package usecase

import (
	"context"
	"errors"

	"merchandiser-backend/internal/domain"
	"merchandiser-backend/pkg/apperror"
	"merchandiser-backend/pkg/logger"
)

type favoriteUsecase struct {
	merchandisers domain.MerchandiserRepository
	akzente       domain.AkzenteRepository
	favorites     domain.FavoriteRepository
}

func NewFavoriteUsecase(merchandisers domain.MerchandiserRepository, akzente domain.AkzenteRepository, favorites domain.FavoriteRepository) domain.FavoriteUsecase {
	return &favoriteUsecase{
		merchandisers: merchandisers,
		akzente:       akzente,
		favorites:     favorites,
	}
}

// Toggle flips the favorite fact of the viewer for a merchandiser. The pair
// is unique in the store, so a racing second insert is absorbed there and
// both callers see true.
func (u *favoriteUsecase) Toggle(ctx context.Context, merchandiserID int64, viewerUserID string) (bool, error) {
	if viewerUserID == "" {
		return false, apperror.Unauthorized("Authentication required")
	}

	akzente, err := u.akzente.GetByUserID(ctx, viewerUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, apperror.Forbidden("Only Akzente staff can mark favorites")
		}
		return false, storeError(err, "")
	}

	if _, err := u.merchandisers.GetByID(ctx, merchandiserID); err != nil {
		return false, storeError(err, "Merchandiser not found")
	}

	exists, err := u.favorites.Exists(ctx, akzente.ID, merchandiserID)
	if err != nil {
		return false, storeError(err, "")
	}

	if exists {
		if _, err := u.favorites.Delete(ctx, akzente.ID, merchandiserID); err != nil {
			return false, storeError(err, "")
		}
		return false, nil
	}

	created, err := u.favorites.Create(ctx, akzente.ID, merchandiserID)
	if err != nil {
		return false, storeError(err, "")
	}
	if !created {
		logger.Log.Debug("Favorite already present", "akzente_id", akzente.ID, "merchandiser_id", merchandiserID)
	}
	return true, nil
}
