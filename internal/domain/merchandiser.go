package domain

import (
	"context"
	"time"
)

// ============================================================================
// Merchandiser (aggregate root)
// ============================================================================

type Merchandiser struct {
	ID          int64      `json:"id"`
	UserID      string     `json:"user_id"`
	Street      string     `json:"street"`
	HouseNumber string     `json:"house_number"`
	PostalCode  string     `json:"postal_code"`
	CityID      *int64     `json:"city_id,omitempty"`
	Nationality string     `json:"nationality"`
	Status      string     `json:"status"`
	Birthday    *time.Time `json:"birthday,omitempty"`
	TaxNumber   string     `json:"tax_number"`
	TaxID       string     `json:"tax_id"`
	Website     *string    `json:"website,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

// Status tags
const (
	StatusNew      = "NEW"
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// ============================================================================
// Child collections
// ============================================================================

type JobTypeLink struct {
	ID             int64   `json:"id,omitempty"`
	MerchandiserID int64   `json:"merchandiser_id,omitempty"`
	JobTypeID      int64   `json:"job_type_id" validate:"required,gt=0"`
	JobTypeName    string  `json:"job_type_name,omitempty"`
	Comment        *string `json:"comment,omitempty" validate:"omitempty,max=500"`
}

func (l JobTypeLink) Equal(o JobTypeLink) bool {
	return l.JobTypeID == o.JobTypeID && equalStringPtr(l.Comment, o.Comment)
}

type SpecializationLink struct {
	ID                 int64  `json:"id,omitempty"`
	MerchandiserID     int64  `json:"merchandiser_id,omitempty"`
	SpecializationID   int64  `json:"specialization_id" validate:"required,gt=0"`
	SpecializationName string `json:"specialization_name,omitempty"`
}

func (l SpecializationLink) Equal(o SpecializationLink) bool {
	return l.SpecializationID == o.SpecializationID
}

// Proficiency is ordered: BASIC < INTERMEDIATE < ADVANCED < FLUENT < NATIVE.
type Proficiency string

const (
	ProficiencyBasic        Proficiency = "BASIC"
	ProficiencyIntermediate Proficiency = "INTERMEDIATE"
	ProficiencyAdvanced     Proficiency = "ADVANCED"
	ProficiencyFluent       Proficiency = "FLUENT"
	ProficiencyNative       Proficiency = "NATIVE"
)

var proficiencyOrder = []Proficiency{
	ProficiencyBasic, ProficiencyIntermediate, ProficiencyAdvanced, ProficiencyFluent, ProficiencyNative,
}

// Rank returns 1..5 for valid levels and 0 otherwise.
func (p Proficiency) Rank() int {
	for i, level := range proficiencyOrder {
		if p == level {
			return i + 1
		}
	}
	return 0
}

func (p Proficiency) IsValid() bool {
	return p.Rank() > 0
}

type LanguageLink struct {
	ID             int64       `json:"id,omitempty"`
	MerchandiserID int64       `json:"merchandiser_id,omitempty"`
	LanguageID     int64       `json:"language_id" validate:"required,gt=0"`
	LanguageName   string      `json:"language_name,omitempty"`
	Level          Proficiency `json:"level" validate:"required,oneof=BASIC INTERMEDIATE ADVANCED FLUENT NATIVE"`
}

func (l LanguageLink) Equal(o LanguageLink) bool {
	return l.LanguageID == o.LanguageID && l.Level == o.Level
}

type EducationEntry struct {
	ID             int64      `json:"id,omitempty"`
	MerchandiserID int64      `json:"merchandiser_id,omitempty"`
	Institution    string     `json:"institution" validate:"required,max=200"`
	Degree         string     `json:"degree" validate:"max=200"`
	FieldOfStudy   string     `json:"field_of_study" validate:"max=200"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Description    string     `json:"description" validate:"max=2000"`
}

func (e EducationEntry) Equal(o EducationEntry) bool {
	return e.Institution == o.Institution && e.Degree == o.Degree && e.FieldOfStudy == o.FieldOfStudy &&
		equalTimePtr(e.StartDate, o.StartDate) && equalTimePtr(e.EndDate, o.EndDate) &&
		e.Description == o.Description
}

// ReferenceEntry is a previous engagement; a nil EndDate means still active.
type ReferenceEntry struct {
	ID             int64      `json:"id,omitempty"`
	MerchandiserID int64      `json:"merchandiser_id,omitempty"`
	Company        string     `json:"company" validate:"required,max=200"`
	Position       string     `json:"position" validate:"max=200"`
	Description    string     `json:"description" validate:"max=2000"`
	StartDate      time.Time  `json:"start_date" validate:"required,not_future"`
	EndDate        *time.Time `json:"end_date,omitempty"`
}

func (r ReferenceEntry) IsActive() bool {
	return r.EndDate == nil
}

func (r ReferenceEntry) Equal(o ReferenceEntry) bool {
	return r.Company == o.Company && r.Position == o.Position && r.Description == o.Description &&
		r.StartDate.Equal(o.StartDate) && equalTimePtr(r.EndDate, o.EndDate)
}

type ContractualLink struct {
	ID              int64  `json:"id,omitempty"`
	MerchandiserID  int64  `json:"merchandiser_id,omitempty"`
	ContractualID   int64  `json:"contractual_id" validate:"required,gt=0"`
	ContractualName string `json:"contractual_name,omitempty"`
}

func (l ContractualLink) Equal(o ContractualLink) bool {
	return l.ContractualID == o.ContractualID
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// ============================================================================
// Aggregate views and payloads
// ============================================================================

// MerchandiserWithRelations is the fully loaded aggregate.
type MerchandiserWithRelations struct {
	Merchandiser
	User            *User                `json:"user,omitempty"`
	City            *City                `json:"city,omitempty"`
	Portrait        *Asset               `json:"portrait,omitempty"`
	JobTypes        []JobTypeLink        `json:"job_types"`
	Specializations []SpecializationLink `json:"specializations"`
	Languages       []LanguageLink       `json:"languages"`
	Education       []EducationEntry     `json:"education"`
	References      []ReferenceEntry     `json:"references"`
	Contractuals    []ContractualLink    `json:"contractuals"`
	ReviewStats     ReviewStats          `json:"review_stats"`
}

// MerchandiserUpdate is a partial payload. Scalars: Unset keeps, Clear resets,
// Set overwrites. Collections: Unset keeps, Clear or an empty Set removes all.
type MerchandiserUpdate struct {
	Street      Optional[string]    `json:"street"`
	HouseNumber Optional[string]    `json:"house_number"`
	PostalCode  Optional[string]    `json:"postal_code"`
	CityID      Optional[int64]     `json:"city_id"`
	Nationality Optional[string]    `json:"nationality"`
	Status      Optional[string]    `json:"status"`
	Birthday    Optional[time.Time] `json:"birthday"`
	TaxNumber   Optional[string]    `json:"tax_number"`
	TaxID       Optional[string]    `json:"tax_id"`
	Website     Optional[string]    `json:"website"`

	// Owning user fields, applied through the identity service.
	FirstName Optional[string] `json:"first_name"`
	LastName  Optional[string] `json:"last_name"`
	Phone     Optional[string] `json:"phone"`
	Email     Optional[string] `json:"email"`

	JobTypes        Optional[[]JobTypeLink]        `json:"job_types"`
	Specializations Optional[[]SpecializationLink] `json:"specializations"`
	Languages       Optional[[]LanguageLink]       `json:"languages"`
	Education       Optional[[]EducationEntry]     `json:"education"`
	References      Optional[[]ReferenceEntry]     `json:"references"`
	Contractuals    Optional[[]ContractualLink]    `json:"contractuals"`
}

// Collection names used in reconciliation errors and partial update reports.
const (
	CollectionJobTypes        = "job_types"
	CollectionSpecializations = "specializations"
	CollectionLanguages       = "languages"
	CollectionEducation       = "education"
	CollectionReferences      = "references"
	CollectionContractuals    = "contractuals"
)

// ============================================================================
// Repository interfaces
// ============================================================================

// ChangeSet is the store-level form of a reconciliation plan.
type ChangeSet[T any] struct {
	Create []T
	Update []T
	Delete []int64
}

func (c ChangeSet[T]) Empty() bool {
	return len(c.Create) == 0 && len(c.Update) == 0 && len(c.Delete) == 0
}

// ChildRepository stores one child collection of a merchandiser.
type ChildRepository[T any] interface {
	ListByMerchandiser(ctx context.Context, merchandiserID int64) ([]T, error)
	// Apply executes the whole change set atomically for this collection.
	Apply(ctx context.Context, merchandiserID int64, changes ChangeSet[T]) error
}

type MerchandiserRepository interface {
	Create(ctx context.Context, m *Merchandiser) error
	// GetByID returns ErrNotFound for missing and soft-removed profiles.
	GetByID(ctx context.Context, id int64) (*Merchandiser, error)
	GetByUserID(ctx context.Context, userID string) (*Merchandiser, error)
	Update(ctx context.Context, m *Merchandiser) error
	SoftDelete(ctx context.Context, id int64, at time.Time) error
	// Search returns one page and the distinct number of matching profiles.
	Search(ctx context.Context, q SearchQuery) ([]MerchandiserSearchItem, int64, error)
}

// MerchandiserStores bundles every relation store the core works against.
type MerchandiserStores struct {
	Merchandisers   MerchandiserRepository
	JobTypes        ChildRepository[JobTypeLink]
	Specializations ChildRepository[SpecializationLink]
	Languages       ChildRepository[LanguageLink]
	Education       ChildRepository[EducationEntry]
	References      ChildRepository[ReferenceEntry]
	Contractuals    ChildRepository[ContractualLink]
	Favorites       FavoriteRepository
	Reviews         ReviewRepository
	Assets          AssetRepository
	Users           UserRepository
	Akzente         AkzenteRepository
}

// ============================================================================
// Usecase interface
// ============================================================================

type MerchandiserUsecase interface {
	Register(ctx context.Context, userID string) (*MerchandiserWithRelations, error)
	GetProfile(ctx context.Context, id int64) (*MerchandiserWithRelations, error)
	Update(ctx context.Context, id int64, payload *MerchandiserUpdate) (*MerchandiserWithRelations, error)
	Remove(ctx context.Context, id int64) error
	ResyncJobTypes(ctx context.Context, id int64) error

	Search(ctx context.Context, req SearchRequest, viewerUserID string) (*PaginatedResult[MerchandiserSearchItem], error)
	ListFavorites(ctx context.Context, viewerUserID string, page Pagination) (*PaginatedResult[MerchandiserSearchItem], error)
	ExportSearch(ctx context.Context, req SearchRequest) ([]byte, string, error)
}
