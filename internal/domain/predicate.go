package domain

import "time"

// SearchField names a filterable attribute of the merchandiser aggregate.
// Stores translate fields into their native query form.
type SearchField string

const (
	FieldID                 SearchField = "id"
	FieldFullName           SearchField = "full_name"
	FieldEmail              SearchField = "email"
	FieldWebsite            SearchField = "website"
	FieldCityName           SearchField = "city_name"
	FieldPostalCode         SearchField = "postal_code"
	FieldStatus             SearchField = "status"
	FieldBirthday           SearchField = "birthday"
	FieldCityID             SearchField = "city_id"
	FieldCountryID          SearchField = "country_id"
	FieldJobTypeID          SearchField = "job_type_id"
	FieldJobTypeName        SearchField = "job_type_name"
	FieldSpecializationID   SearchField = "specialization_id"
	FieldSpecializationName SearchField = "specialization_name"
	FieldLanguageID         SearchField = "language_id"
	FieldLanguageName       SearchField = "language_name"
)

// Predicate is one ANDed search condition. The set of variants is closed.
type Predicate interface {
	predicate()
}

// TextMatch is a case-insensitive substring match on any of Fields.
type TextMatch struct {
	Fields []SearchField
	Value  string
}

// IDSetMatch matches when Field is one of IDs.
type IDSetMatch struct {
	Field SearchField
	IDs   []int64
}

// RangeMatch bounds a time field: After is exclusive, OnOrBefore inclusive.
type RangeMatch struct {
	Field      SearchField
	After      *time.Time
	OnOrBefore *time.Time
}

// BooleanFlagMatch tests presence (non-null, non-empty) of Field.
type BooleanFlagMatch struct {
	Field SearchField
	Want  bool
}

func (TextMatch) predicate()        {}
func (IDSetMatch) predicate()       {}
func (RangeMatch) predicate()       {}
func (BooleanFlagMatch) predicate() {}
