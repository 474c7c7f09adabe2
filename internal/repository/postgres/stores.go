package postgres

import (
	"merchandiser-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewStores wires every relation store against the same pool.
func NewStores(db *pgxpool.Pool) domain.MerchandiserStores {
	return domain.MerchandiserStores{
		Merchandisers:   NewMerchandiserRepository(db),
		JobTypes:        NewJobTypeLinkRepository(db),
		Specializations: NewSpecializationLinkRepository(db),
		Languages:       NewLanguageLinkRepository(db),
		Education:       NewEducationRepository(db),
		References:      NewReferenceRepository(db),
		Contractuals:    NewContractualLinkRepository(db),
		Favorites:       NewFavoriteRepository(db),
		Reviews:         NewReviewRepository(db),
		Assets:          NewAssetRepository(db),
		Users:           NewUserRepository(db),
		Akzente:         NewAkzenteRepository(db),
	}
}
