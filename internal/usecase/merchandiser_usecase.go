package usecase

import (
	"context"
	"errors"
	"time"

	"merchandiser-backend/internal/domain"
	"merchandiser-backend/pkg/apperror"
	"merchandiser-backend/pkg/logger"
	"merchandiser-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// DefaultResyncTimeout bounds the job type resync when the request context is
// already gone.
const DefaultResyncTimeout = 5 * time.Second

type merchandiserUsecase struct {
	stores   domain.MerchandiserStores
	catalogs domain.Catalogs
	signer   domain.AssetURLSigner

	validate      *validator.Validate
	now           func() time.Time
	resyncTimeout time.Duration
}

// Option tweaks a merchandiser usecase.
type Option func(*merchandiserUsecase)

// WithClock replaces the time source used for age filters and soft removal.
func WithClock(now func() time.Time) Option {
	return func(u *merchandiserUsecase) { u.now = now }
}

// WithResyncTimeout bounds the detached job type resync.
func WithResyncTimeout(d time.Duration) Option {
	return func(u *merchandiserUsecase) { u.resyncTimeout = d }
}

// NewMerchandiserUsecase creates the profile usecase. signer may be nil, in
// which case portrait URLs are returned as stored.
func NewMerchandiserUsecase(stores domain.MerchandiserStores, catalogs domain.Catalogs, signer domain.AssetURLSigner, opts ...Option) domain.MerchandiserUsecase {
	u := &merchandiserUsecase{
		stores:        stores,
		catalogs:      catalogs,
		signer:        signer,
		validate:      validation.New(),
		now:           func() time.Time { return time.Now().UTC() },
		resyncTimeout: DefaultResyncTimeout,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Register creates the profile of a user who signed up as a merchandiser.
func (u *merchandiserUsecase) Register(ctx context.Context, userID string) (*domain.MerchandiserWithRelations, error) {
	user, err := u.stores.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	if user.Role != domain.RoleMerchandiser {
		return nil, apperror.Forbidden("Only merchandiser accounts can register a profile")
	}

	if _, err := u.stores.Merchandisers.GetByUserID(ctx, userID); err == nil {
		return nil, apperror.Conflict("Merchandiser profile already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, storeError(err, "")
	}

	m := &domain.Merchandiser{UserID: userID, Status: domain.StatusNew}
	if err := u.stores.Merchandisers.Create(ctx, m); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, apperror.Conflict("Merchandiser profile already exists")
		}
		return nil, storeError(err, "")
	}

	logger.Log.Info("Merchandiser registered", "merchandiser_id", m.ID, "user_id", userID)
	return u.GetProfile(ctx, m.ID)
}

// GetProfile loads the full aggregate. City and portrait are optional and
// degrade to nil; every other relation failure is returned.
func (u *merchandiserUsecase) GetProfile(ctx context.Context, id int64) (*domain.MerchandiserWithRelations, error) {
	m, err := u.stores.Merchandisers.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Merchandiser not found")
	}

	out := &domain.MerchandiserWithRelations{Merchandiser: *m}

	user, err := u.stores.Users.GetByID(ctx, m.UserID)
	switch {
	case err == nil:
		out.User = user
	case !errors.Is(err, domain.ErrNotFound):
		return nil, storeError(err, "")
	}

	if m.CityID != nil {
		city, err := u.catalogs.Cities.FindByID(ctx, *m.CityID)
		if err != nil {
			logger.Log.Warn("City lookup failed", "merchandiser_id", id, "city_id", *m.CityID, "error", err)
		} else {
			out.City = city
		}
	}

	if out.JobTypes, err = u.stores.JobTypes.ListByMerchandiser(ctx, id); err != nil {
		return nil, storeError(err, "")
	}
	if out.Specializations, err = u.stores.Specializations.ListByMerchandiser(ctx, id); err != nil {
		return nil, storeError(err, "")
	}
	if out.Languages, err = u.stores.Languages.ListByMerchandiser(ctx, id); err != nil {
		return nil, storeError(err, "")
	}
	if out.Education, err = u.stores.Education.ListByMerchandiser(ctx, id); err != nil {
		return nil, storeError(err, "")
	}
	if out.References, err = u.stores.References.ListByMerchandiser(ctx, id); err != nil {
		return nil, storeError(err, "")
	}
	if out.Contractuals, err = u.stores.Contractuals.ListByMerchandiser(ctx, id); err != nil {
		return nil, storeError(err, "")
	}

	if out.ReviewStats, err = u.stores.Reviews.Stats(ctx, id); err != nil {
		return nil, storeError(err, "")
	}

	portraits := u.loadPortraits(ctx, []int64{id})
	if p, ok := portraits[id]; ok {
		out.Portrait = &p
	}

	return out, nil
}

// Remove soft-removes the profile; it disappears from lookups and search.
func (u *merchandiserUsecase) Remove(ctx context.Context, id int64) error {
	if err := u.stores.Merchandisers.SoftDelete(ctx, id, u.now()); err != nil {
		return storeError(err, "Merchandiser not found")
	}
	logger.Log.Info("Merchandiser removed", "merchandiser_id", id)
	return nil
}

// loadPortraits fetches the earliest portrait per merchandiser in one lookup
// and signs its URL. Failures are logged and yield no portraits.
func (u *merchandiserUsecase) loadPortraits(ctx context.Context, ids []int64) map[int64]domain.Asset {
	if len(ids) == 0 {
		return nil
	}

	assets, err := u.stores.Assets.FindEarliestByMerchandiserIDs(ctx, ids, domain.AssetKindPortrait)
	if err != nil {
		logger.Log.Warn("Portrait lookup failed", "count", len(ids), "error", err)
		return nil
	}
	if u.signer == nil {
		return assets
	}

	for id, asset := range assets {
		if asset.StorageKey == "" {
			continue
		}
		url, err := u.signer.SignURL(ctx, asset.StorageKey)
		if err != nil {
			logger.Log.Warn("Portrait signing failed", "merchandiser_id", id, "error", err)
			continue
		}
		asset.URL = url
		assets[id] = asset
	}
	return assets
}
