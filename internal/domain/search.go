package domain

import "time"

// ============================================================================
// Search request (API-facing)
// ============================================================================

// MerchandiserFilter holds every optional search filter. Empty fields are ignored.
type MerchandiserFilter struct {
	// Case-insensitive substring on full name, email or website.
	Search string `json:"search,omitempty"`
	// Substring on city name or postal code.
	City string `json:"city,omitempty"`

	JobTypeIDs        []int64 `json:"job_type_ids,omitempty"`
	CityIDs           []int64 `json:"city_ids,omitempty"`
	CountryIDs        []int64 `json:"country_ids,omitempty"`
	LanguageIDs       []int64 `json:"language_ids,omitempty"`
	SpecializationIDs []int64 `json:"specialization_ids,omitempty"`
	// IDs restricts results to the given merchandisers (internal callers only).
	IDs []int64 `json:"-"`

	// Label filters kept for older clients.
	JobTypeName        string `json:"job_type_name,omitempty"`
	SpecializationName string `json:"specialization_name,omitempty"`
	LanguageName       string `json:"language_name,omitempty"`

	// Age bucket ("18-30", "31-45", "46-60", "60+") or custom "min-max".
	Age string `json:"age,omitempty"`
	// "true" or "false"; anything else is ignored.
	HasWebsite string `json:"has_website,omitempty"`
	Status     string `json:"status,omitempty"`
}

type SortField struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // asc | desc
}

// Pagination with Limit == 0 means "every matching row, no paging".
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type SearchRequest struct {
	Filter     MerchandiserFilter `json:"filter"`
	Sort       []SortField        `json:"sort"`
	Pagination Pagination         `json:"pagination"`
}

type PaginatedResult[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// ============================================================================
// Search query (store-facing)
// ============================================================================

// SortKey is a whitelisted, store-independent order column.
type SortKey string

const (
	SortKeyFirstName   SortKey = "first_name"
	SortKeyLastName    SortKey = "last_name"
	SortKeyEmail       SortKey = "email"
	SortKeyCity        SortKey = "city"
	SortKeyBirthday    SortKey = "birthday"
	SortKeyStatus      SortKey = "status"
	SortKeyNationality SortKey = "nationality"
	SortKeyCreatedAt   SortKey = "created_at"
	SortKeyUpdatedAt   SortKey = "updated_at"
	SortKeyID          SortKey = "id"
)

type OrderTerm struct {
	Key  SortKey
	Desc bool
}

// SearchQuery is what a MerchandiserRepository executes. Limit 0 disables paging.
type SearchQuery struct {
	Predicates []Predicate
	Order      []OrderTerm
	Limit      int
	Offset     int
}

// MerchandiserSearchItem is the read-only search projection.
type MerchandiserSearchItem struct {
	ID          int64      `json:"id"`
	UserID      string     `json:"user_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Website     *string    `json:"website,omitempty"`
	PostalCode  string     `json:"postal_code"`
	CityID      *int64     `json:"city_id,omitempty"`
	CityName    *string    `json:"city_name,omitempty"`
	Nationality string     `json:"nationality"`
	Status      string     `json:"status"`
	Birthday    *time.Time `json:"birthday,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	IsFavorite  bool        `json:"is_favorite"`
	Portrait    *Asset      `json:"portrait"`
	ReviewStats ReviewStats `json:"review_stats"`
}

func (i MerchandiserSearchItem) FullName() string {
	return User{FirstName: i.FirstName, LastName: i.LastName}.FullName()
}

// AgeAt returns the age in whole years, or nil without a birthday.
func AgeAt(birthday *time.Time, now time.Time) *int {
	if birthday == nil {
		return nil
	}
	age := now.Year() - birthday.Year()
	if now.Month() < birthday.Month() || (now.Month() == birthday.Month() && now.Day() < birthday.Day()) {
		age--
	}
	return &age
}

// DateOf drops the time of day, keeping the calendar date in UTC.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
