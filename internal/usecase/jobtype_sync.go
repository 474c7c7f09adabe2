package usecase

import (
	"context"
	"sort"

	"merchandiser-backend/internal/domain"
	"merchandiser-backend/pkg/logger"
)

// ResyncJobTypes rebuilds the job type links of a merchandiser from its
// specializations.
func (u *merchandiserUsecase) ResyncJobTypes(ctx context.Context, id int64) error {
	if _, err := u.stores.Merchandisers.GetByID(ctx, id); err != nil {
		return storeError(err, "Merchandiser not found")
	}
	return u.resyncJobTypes(ctx, id)
}

// resyncJobTypes makes the job type link set equal to the set of job types
// the specialization links imply. Links in both sets are left untouched so
// their comments survive; duplicates of one job type collapse to the oldest.
func (u *merchandiserUsecase) resyncJobTypes(ctx context.Context, id int64) error {
	specLinks, err := u.stores.Specializations.ListByMerchandiser(ctx, id)
	if err != nil {
		return storeError(err, "")
	}

	implied := make(map[int64]bool)
	if len(specLinks) > 0 {
		specIDs := make([]int64, 0, len(specLinks))
		for _, l := range specLinks {
			specIDs = append(specIDs, l.SpecializationID)
		}
		specs, err := u.catalogs.Specializations.FindByIDs(ctx, specIDs)
		if err != nil {
			return storeError(err, "")
		}
		for _, s := range specs {
			implied[s.JobTypeID] = true
		}
	}

	links, err := u.stores.JobTypes.ListByMerchandiser(ctx, id)
	if err != nil {
		return storeError(err, "")
	}

	var changes domain.ChangeSet[domain.JobTypeLink]
	linked := make(map[int64]bool, len(links))
	for _, l := range links {
		if !implied[l.JobTypeID] || linked[l.JobTypeID] {
			changes.Delete = append(changes.Delete, l.ID)
			continue
		}
		linked[l.JobTypeID] = true
	}
	for jobTypeID := range implied {
		if !linked[jobTypeID] {
			changes.Create = append(changes.Create, domain.JobTypeLink{MerchandiserID: id, JobTypeID: jobTypeID})
		}
	}
	sort.Slice(changes.Create, func(i, j int) bool { return changes.Create[i].JobTypeID < changes.Create[j].JobTypeID })

	if changes.Empty() {
		return nil
	}
	if err := u.stores.JobTypes.Apply(ctx, id, changes); err != nil {
		return storeError(err, "")
	}

	logger.Log.Debug("Job types resynced",
		"merchandiser_id", id, "created", len(changes.Create), "deleted", len(changes.Delete))
	return nil
}
