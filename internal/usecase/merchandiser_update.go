package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"merchandiser-backend/internal/domain"
	"merchandiser-backend/internal/reconcile"
	"merchandiser-backend/pkg/apperror"
	"merchandiser-backend/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// Steps reported in partial update details besides the collection names.
const (
	stepProfile = "profile"
	stepUser    = "user"
)

// profileFields is the validated view of the merged scalar fields.
type profileFields struct {
	Street      string     `validate:"max=200"`
	HouseNumber string     `validate:"max=20"`
	PostalCode  string     `validate:"max=20"`
	Nationality string     `validate:"max=100"`
	Status      string     `validate:"oneof=NEW ACTIVE INACTIVE"`
	Birthday    *time.Time `validate:"omitempty,not_future"`
	TaxNumber   string     `validate:"max=50"`
	TaxID       string     `validate:"max=50"`
	Website     string     `validate:"omitempty,url,max=500"`
}

type identityFields struct {
	FirstName string `validate:"required,max=100,valid_name"`
	LastName  string `validate:"required,max=100,valid_name"`
	Phone     string `validate:"max=30,valid_phone"`
	Email     string `validate:"required,email"`
}

// collectionStep reconciles one child collection when the payload carries it.
type collectionStep struct {
	name    string
	present bool
	run     func(ctx context.Context) error
}

// Update applies a partial payload. Scalars are merged and saved first, then
// the owning user, then each present child collection in a fixed order, each
// in its own transaction. The first failure stops the sequence without undoing
// earlier steps; the error lists what was committed. The job type resync runs
// in every case, and the result is always a fresh read.
func (u *merchandiserUsecase) Update(ctx context.Context, id int64, payload *domain.MerchandiserUpdate) (*domain.MerchandiserWithRelations, error) {
	if payload == nil {
		return nil, apperror.BadRequest("Update payload is required")
	}

	m, err := u.stores.Merchandisers.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Merchandiser not found")
	}

	steps := []collectionStep{
		{name: stepProfile, present: hasScalarChanges(payload), run: func(ctx context.Context) error {
			return u.updateScalars(ctx, m, payload)
		}},
		{name: stepUser, present: hasIdentityChanges(payload), run: func(ctx context.Context) error {
			return u.updateIdentity(ctx, m.UserID, payload)
		}},
		{name: domain.CollectionJobTypes, present: payload.JobTypes.Present(), run: func(ctx context.Context) error {
			return reconcileCollection(ctx, u.stores.JobTypes, id, domain.CollectionJobTypes, payload.JobTypes.Value(),
				keysFor(structValidator[domain.JobTypeLink](u.validate), domain.JobTypeLink.Equal, func(l domain.JobTypeLink) int64 { return l.ID }),
				func(ctx context.Context, items []domain.JobTypeLink) error {
					return checkReferences(ctx, domain.CollectionJobTypes, "job type", items,
						func(l domain.JobTypeLink) int64 { return l.JobTypeID },
						u.catalogs.JobTypes, func(v domain.JobType) int64 { return v.ID })
				})
		}},
		{name: domain.CollectionSpecializations, present: payload.Specializations.Present(), run: func(ctx context.Context) error {
			return reconcileCollection(ctx, u.stores.Specializations, id, domain.CollectionSpecializations, payload.Specializations.Value(),
				keysFor(structValidator[domain.SpecializationLink](u.validate), domain.SpecializationLink.Equal, func(l domain.SpecializationLink) int64 { return l.ID }),
				func(ctx context.Context, items []domain.SpecializationLink) error {
					return checkReferences(ctx, domain.CollectionSpecializations, "specialization", items,
						func(l domain.SpecializationLink) int64 { return l.SpecializationID },
						u.catalogs.Specializations, func(v domain.Specialization) int64 { return v.ID })
				})
		}},
		{name: domain.CollectionLanguages, present: payload.Languages.Present(), run: func(ctx context.Context) error {
			return reconcileCollection(ctx, u.stores.Languages, id, domain.CollectionLanguages, payload.Languages.Value(),
				keysFor(structValidator[domain.LanguageLink](u.validate), domain.LanguageLink.Equal, func(l domain.LanguageLink) int64 { return l.ID }),
				func(ctx context.Context, items []domain.LanguageLink) error {
					return checkReferences(ctx, domain.CollectionLanguages, "language", items,
						func(l domain.LanguageLink) int64 { return l.LanguageID },
						u.catalogs.Languages, func(v domain.Language) int64 { return v.ID })
				})
		}},
		{name: domain.CollectionEducation, present: payload.Education.Present(), run: func(ctx context.Context) error {
			return reconcileCollection(ctx, u.stores.Education, id, domain.CollectionEducation, payload.Education.Value(),
				keysFor(func(e domain.EducationEntry) error {
					if err := structValidator[domain.EducationEntry](u.validate)(e); err != nil {
						return err
					}
					return checkPeriod(e.StartDate, e.EndDate)
				}, domain.EducationEntry.Equal, func(e domain.EducationEntry) int64 { return e.ID }),
				nil)
		}},
		{name: domain.CollectionReferences, present: payload.References.Present(), run: func(ctx context.Context) error {
			return reconcileCollection(ctx, u.stores.References, id, domain.CollectionReferences, payload.References.Value(),
				keysFor(func(r domain.ReferenceEntry) error {
					if err := structValidator[domain.ReferenceEntry](u.validate)(r); err != nil {
						return err
					}
					if !r.IsActive() && r.EndDate.After(u.now()) {
						return errors.New("End date: must not be in the future")
					}
					return checkPeriod(&r.StartDate, r.EndDate)
				}, domain.ReferenceEntry.Equal, func(r domain.ReferenceEntry) int64 { return r.ID }),
				nil)
		}},
		{name: domain.CollectionContractuals, present: payload.Contractuals.Present(), run: func(ctx context.Context) error {
			return reconcileCollection(ctx, u.stores.Contractuals, id, domain.CollectionContractuals, payload.Contractuals.Value(),
				keysFor(structValidator[domain.ContractualLink](u.validate), domain.ContractualLink.Equal, func(l domain.ContractualLink) int64 { return l.ID }),
				func(ctx context.Context, items []domain.ContractualLink) error {
					return checkReferences(ctx, domain.CollectionContractuals, "contractual form", items,
						func(l domain.ContractualLink) int64 { return l.ContractualID },
						u.catalogs.Contractuals, func(v domain.Contractual) int64 { return v.ID })
				})
		}},
	}

	var failure error
	succeeded := []string{}
	for _, step := range steps {
		if !step.present {
			continue
		}
		if err := ctx.Err(); err != nil {
			failure = apperror.PartialUpdate(err, succeeded, step.name)
			break
		}
		if err := step.run(ctx); err != nil {
			failure = apperror.PartialUpdate(err, succeeded, step.name)
			break
		}
		succeeded = append(succeeded, step.name)
	}

	if err := u.resyncAfterUpdate(ctx, id); err != nil && failure == nil {
		return nil, err
	}

	if failure != nil {
		logger.Log.Warn("Merchandiser update stopped",
			"merchandiser_id", id, "succeeded", succeeded, "error", failure)
		return nil, failure
	}
	return u.GetProfile(ctx, id)
}

// resyncAfterUpdate runs the job type resync even when ctx is already done,
// on a detached context bounded by resyncTimeout.
func (u *merchandiserUsecase) resyncAfterUpdate(ctx context.Context, id int64) error {
	resyncCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		resyncCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), u.resyncTimeout)
		defer cancel()
	}

	if err := u.resyncJobTypes(resyncCtx, id); err != nil {
		logger.Log.Error("Job type resync failed", "merchandiser_id", id, "error", err)
		return err
	}
	return nil
}

func hasScalarChanges(p *domain.MerchandiserUpdate) bool {
	return p.Street.Present() || p.HouseNumber.Present() || p.PostalCode.Present() || p.CityID.Present() ||
		p.Nationality.Present() || p.Status.Present() || p.Birthday.Present() || p.TaxNumber.Present() ||
		p.TaxID.Present() || p.Website.Present()
}

func hasIdentityChanges(p *domain.MerchandiserUpdate) bool {
	return p.FirstName.Present() || p.LastName.Present() || p.Phone.Present() || p.Email.Present()
}

// mergeString applies Set and Clear to a plain string field.
func mergeString(dst *string, o domain.Optional[string]) {
	if o.Present() {
		*dst = o.Value()
	}
}

// mergePtr applies Set and Clear to a nullable field.
func mergePtr[T any](dst **T, o domain.Optional[T]) {
	if o.Present() {
		*dst = o.Ptr()
	}
}

func (u *merchandiserUsecase) updateScalars(ctx context.Context, m *domain.Merchandiser, p *domain.MerchandiserUpdate) error {
	merged := *m
	mergeString(&merged.Street, p.Street)
	mergeString(&merged.HouseNumber, p.HouseNumber)
	mergeString(&merged.PostalCode, p.PostalCode)
	mergeString(&merged.Nationality, p.Nationality)
	mergeString(&merged.Status, p.Status)
	mergeString(&merged.TaxNumber, p.TaxNumber)
	mergeString(&merged.TaxID, p.TaxID)
	mergePtr(&merged.CityID, p.CityID)
	mergePtr(&merged.Birthday, p.Birthday)
	if merged.Birthday != nil {
		day := domain.DateOf(*merged.Birthday)
		merged.Birthday = &day
	}
	mergePtr(&merged.Website, p.Website)

	fields := profileFields{
		Street:      merged.Street,
		HouseNumber: merged.HouseNumber,
		PostalCode:  merged.PostalCode,
		Nationality: merged.Nationality,
		Status:      merged.Status,
		Birthday:    merged.Birthday,
		TaxNumber:   merged.TaxNumber,
		TaxID:       merged.TaxID,
	}
	if merged.Website != nil {
		fields.Website = *merged.Website
	}
	if err := u.validate.Struct(fields); err != nil {
		return apperror.Validation(validationMessage(err), err)
	}

	if p.CityID.IsSet() {
		if _, err := u.catalogs.Cities.FindByID(ctx, p.CityID.Value()); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return apperror.Validation(fmt.Sprintf("City %d does not exist", p.CityID.Value()), err)
			}
			return storeError(err, "")
		}
	}

	if err := u.stores.Merchandisers.Update(ctx, &merged); err != nil {
		return storeError(err, "Merchandiser not found")
	}
	*m = merged
	return nil
}

func (u *merchandiserUsecase) updateIdentity(ctx context.Context, userID string, p *domain.MerchandiserUpdate) error {
	user, err := u.stores.Users.GetByID(ctx, userID)
	if err != nil {
		return storeError(err, "User not found")
	}

	mergeString(&user.FirstName, p.FirstName)
	mergeString(&user.LastName, p.LastName)
	mergeString(&user.Phone, p.Phone)
	mergeString(&user.Email, p.Email)

	fields := identityFields{FirstName: user.FirstName, LastName: user.LastName, Phone: user.Phone, Email: user.Email}
	if err := u.validate.Struct(fields); err != nil {
		return apperror.Validation(validationMessage(err), err)
	}

	if err := u.stores.Users.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return apperror.Conflict("Email is already in use")
		}
		return storeError(err, "User not found")
	}
	return nil
}

// structValidator checks one collection item against its struct tags.
func structValidator[T any](v *validator.Validate) func(T) error {
	return func(item T) error {
		if err := v.Struct(item); err != nil {
			return errors.New(validationMessage(err))
		}
		return nil
	}
}

func checkPeriod(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return errors.New("End date: must not be before the start date")
	}
	return nil
}

// keysFor builds reconciler keys for collections whose stored and desired
// items share one type and carry the id in the same field.
func keysFor[T any](validate func(T) error, equal func(T, T) bool, id func(T) int64) reconcile.Keys[T, T] {
	return reconcile.Keys[T, T]{
		ExistingID: id,
		DesiredID: func(item T) (int64, bool) {
			v := id(item)
			return v, v != 0
		},
		Validate: validate,
		Equal:    equal,
	}
}

// reconcileCollection diffs desired against the stored collection, checks
// catalog references and applies the result in one store call.
func reconcileCollection[T any](
	ctx context.Context,
	repo domain.ChildRepository[T],
	merchandiserID int64,
	collection string,
	desired []T,
	keys reconcile.Keys[T, T],
	checkRefs func(context.Context, []T) error,
) error {
	existing, err := repo.ListByMerchandiser(ctx, merchandiserID)
	if err != nil {
		return storeError(err, "")
	}

	plan, err := reconcile.Compute(collection, existing, desired, keys)
	if err != nil {
		return reconcileError(err)
	}

	if checkRefs != nil {
		if err := checkRefs(ctx, desired); err != nil {
			return err
		}
	}

	changes := domain.ChangeSet[T]{Create: plan.Create}
	for _, upd := range plan.Update {
		changes.Update = append(changes.Update, upd.Desired)
	}
	for _, del := range plan.Delete {
		changes.Delete = append(changes.Delete, keys.ExistingID(del))
	}
	if changes.Empty() {
		return nil
	}

	if err := repo.Apply(ctx, merchandiserID, changes); err != nil {
		return storeError(err, fmt.Sprintf("%s: entry does not exist", collection))
	}
	return nil
}

// checkReferences fails with a validation error naming the first item whose
// catalog reference does not exist.
func checkReferences[T, C any](
	ctx context.Context,
	collection, label string,
	items []T,
	ref func(T) int64,
	reader domain.CatalogReader[C],
	catalogID func(C) int64,
) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, ref(item))
	}
	found, err := reader.FindByIDs(ctx, ids)
	if err != nil {
		return storeError(err, "")
	}

	known := make(map[int64]bool, len(found))
	for _, entry := range found {
		known[catalogID(entry)] = true
	}
	for i, item := range items {
		if !known[ref(item)] {
			itemErr := &reconcile.ItemError{
				Collection: collection,
				Index:      i,
				Err:        fmt.Errorf("%s %d does not exist", label, ref(item)),
			}
			return apperror.Validation(itemErr.Error(), itemErr)
		}
	}
	return nil
}
