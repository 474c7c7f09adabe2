package usecase_test

import (
	"testing"

	"merchandiser-backend/internal/domain"
	"merchandiser-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerchandiserUsecase_Register(t *testing.T) {
	f := newFixture(t)

	t.Run("Should create a NEW profile with empty collections", func(t *testing.T) {
		profile := f.register(t, 1)

		assert.NotZero(t, profile.ID)
		assert.Equal(t, domain.StatusNew, profile.Status)
		require.NotNil(t, profile.User)
		assert.Equal(t, "merch1@example.com", profile.User.Email)
		assert.Empty(t, profile.JobTypes)
		assert.Empty(t, profile.Specializations)
		assert.Equal(t, domain.ReviewStats{}, profile.ReviewStats)
		assert.Nil(t, profile.Portrait)
	})

	t.Run("Should reject a second profile for the same user", func(t *testing.T) {
		_, err := f.uc.Register(f.ctx, "merch-1")
		requireKind(t, err, apperror.KindConflict)
	})

	t.Run("Should reject users that are not merchandisers", func(t *testing.T) {
		f.addAkzente(t, "staff-1")
		_, err := f.uc.Register(f.ctx, "staff-1")
		requireKind(t, err, apperror.KindForbidden)
	})

	t.Run("Should fail for an unknown user", func(t *testing.T) {
		_, err := f.uc.Register(f.ctx, "ghost")
		requireKind(t, err, apperror.KindNotFound)
	})
}

func TestMerchandiserUsecase_GetProfile(t *testing.T) {
	f := newFixture(t)
	profile := f.register(t, 1)

	t.Run("Should hydrate city and catalog names", func(t *testing.T) {
		_, err := f.uc.Update(f.ctx, profile.ID, &domain.MerchandiserUpdate{
			CityID:          domain.Set(int64(1)),
			Specializations: domain.Set([]domain.SpecializationLink{{SpecializationID: 10}}),
			Languages:       domain.Set([]domain.LanguageLink{{LanguageID: 1, Level: domain.ProficiencyNative}}),
		})
		require.NoError(t, err)

		got, err := f.uc.GetProfile(f.ctx, profile.ID)
		require.NoError(t, err)
		require.NotNil(t, got.City)
		assert.Equal(t, "Berlin", got.City.Name)
		require.Len(t, got.Specializations, 1)
		assert.Equal(t, "Food", got.Specializations[0].SpecializationName)
		require.Len(t, got.Languages, 1)
		assert.Equal(t, "German", got.Languages[0].LanguageName)
		require.Len(t, got.JobTypes, 1)
		assert.Equal(t, "Promotion", got.JobTypes[0].JobTypeName)
	})

	t.Run("Should return the earliest portrait", func(t *testing.T) {
		assets := f.store.Stores().Assets
		require.NoError(t, assets.Create(f.ctx, &domain.Asset{MerchandiserID: profile.ID, Kind: domain.AssetKindPortrait, URL: "late.jpg", CreatedAt: fixedNow}))
		require.NoError(t, assets.Create(f.ctx, &domain.Asset{MerchandiserID: profile.ID, Kind: domain.AssetKindPortrait, URL: "early.jpg", CreatedAt: fixedNow.AddDate(0, -1, 0)}))
		require.NoError(t, assets.Create(f.ctx, &domain.Asset{MerchandiserID: profile.ID, Kind: domain.AssetKindDocument, URL: "contract.pdf", CreatedAt: fixedNow.AddDate(-1, 0, 0)}))

		got, err := f.uc.GetProfile(f.ctx, profile.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Portrait)
		assert.Equal(t, "early.jpg", got.Portrait.URL)
	})

	t.Run("Should fail for an unknown id", func(t *testing.T) {
		_, err := f.uc.GetProfile(f.ctx, 999)
		requireKind(t, err, apperror.KindNotFound)
	})
}

func TestMerchandiserUsecase_PortraitSigning(t *testing.T) {
	f := newFixture(t)
	profile := f.register(t, 1)
	require.NoError(t, f.store.Stores().Assets.Create(f.ctx, &domain.Asset{
		MerchandiserID: profile.ID, Kind: domain.AssetKindPortrait, StorageKey: "portraits/1.jpg",
	}))

	signer := new(MockSigner)
	signer.On("SignURL", f.ctx, "portraits/1.jpg").Return("https://assets.example/portraits/1.jpg?sig=abc", nil)
	f.withStores(f.store.Stores(), signer)

	got, err := f.uc.GetProfile(f.ctx, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Portrait)
	assert.Equal(t, "https://assets.example/portraits/1.jpg?sig=abc", got.Portrait.URL)
	signer.AssertExpectations(t)
}

func TestMerchandiserUsecase_Remove(t *testing.T) {
	f := newFixture(t)
	profile := f.register(t, 1)
	f.register(t, 2)

	require.NoError(t, f.uc.Remove(f.ctx, profile.ID))

	t.Run("Should hide the profile from lookups", func(t *testing.T) {
		_, err := f.uc.GetProfile(f.ctx, profile.ID)
		requireKind(t, err, apperror.KindNotFound)
	})

	t.Run("Should hide the profile from search", func(t *testing.T) {
		page, err := f.uc.Search(f.ctx, domain.SearchRequest{}, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("Should not remove twice", func(t *testing.T) {
		err := f.uc.Remove(f.ctx, profile.ID)
		requireKind(t, err, apperror.KindNotFound)
	})

	t.Run("Should allow the user to register again", func(t *testing.T) {
		again, err := f.uc.Register(f.ctx, "merch-1")
		require.NoError(t, err)
		assert.NotEqual(t, profile.ID, again.ID)
	})
}
