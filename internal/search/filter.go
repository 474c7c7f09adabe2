// Package search turns an API-facing search request into the store-neutral
// query that every MerchandiserRepository executes.
package search

import (
	"strconv"
	"strings"
	"time"

	"merchandiser-backend/internal/domain"
)

// AgeRange is an inclusive range of whole years. Max nil means open-ended.
type AgeRange struct {
	Min int
	Max *int
}

func intPtr(v int) *int { return &v }

// Named age buckets offered by the browse UI.
var ageBuckets = map[string]AgeRange{
	"18-30": {Min: 18, Max: intPtr(30)},
	"31-45": {Min: 31, Max: intPtr(45)},
	"46-60": {Min: 46, Max: intPtr(60)},
	"60+":   {Min: 60},
}

// ParseAge resolves a bucket name or a custom "min-max" string. Anything that
// does not describe a valid range reports false and is meant to be ignored.
func ParseAge(raw string) (AgeRange, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AgeRange{}, false
	}
	if bucket, ok := ageBuckets[raw]; ok {
		return bucket, true
	}

	lo, hi, found := strings.Cut(raw, "-")
	if !found {
		return AgeRange{}, false
	}
	minAge, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return AgeRange{}, false
	}
	maxAge, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return AgeRange{}, false
	}
	if minAge < 0 || maxAge < minAge {
		return AgeRange{}, false
	}
	return AgeRange{Min: minAge, Max: intPtr(maxAge)}, true
}

// BirthdayRange converts an age range into birthday bounds at now:
// age >= Min  <=>  birthday <= now - Min years
// age <= Max  <=>  birthday >  now - (Max+1) years
func (r AgeRange) BirthdayRange(now time.Time) domain.RangeMatch {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	latest := today.AddDate(-r.Min, 0, 0)
	match := domain.RangeMatch{Field: domain.FieldBirthday, OnOrBefore: &latest}
	if r.Max != nil {
		earliest := today.AddDate(-*r.Max-1, 0, 0)
		match.After = &earliest
	}
	return match
}

// BuildPredicates maps every non-empty filter field to one predicate. The
// predicates are ANDed by the store.
func BuildPredicates(f domain.MerchandiserFilter, now time.Time) []domain.Predicate {
	var preds []domain.Predicate

	if v := strings.TrimSpace(f.Search); v != "" {
		preds = append(preds, domain.TextMatch{
			Fields: []domain.SearchField{domain.FieldFullName, domain.FieldEmail, domain.FieldWebsite},
			Value:  v,
		})
	}
	if v := strings.TrimSpace(f.City); v != "" {
		preds = append(preds, domain.TextMatch{
			Fields: []domain.SearchField{domain.FieldCityName, domain.FieldPostalCode},
			Value:  v,
		})
	}

	idSets := []struct {
		field domain.SearchField
		ids   []int64
	}{
		{domain.FieldID, f.IDs},
		{domain.FieldJobTypeID, f.JobTypeIDs},
		{domain.FieldCityID, f.CityIDs},
		{domain.FieldCountryID, f.CountryIDs},
		{domain.FieldLanguageID, f.LanguageIDs},
		{domain.FieldSpecializationID, f.SpecializationIDs},
	}
	for _, s := range idSets {
		// A nil slice means "no filter"; an empty non-nil IDs list means "match nothing".
		if s.ids == nil {
			continue
		}
		if len(s.ids) == 0 && s.field != domain.FieldID {
			continue
		}
		preds = append(preds, domain.IDSetMatch{Field: s.field, IDs: s.ids})
	}

	labels := []struct {
		field domain.SearchField
		value string
	}{
		{domain.FieldJobTypeName, f.JobTypeName},
		{domain.FieldSpecializationName, f.SpecializationName},
		{domain.FieldLanguageName, f.LanguageName},
		{domain.FieldStatus, f.Status},
	}
	for _, l := range labels {
		if v := strings.TrimSpace(l.value); v != "" {
			preds = append(preds, domain.TextMatch{Fields: []domain.SearchField{l.field}, Value: v})
		}
	}

	if age, ok := ParseAge(f.Age); ok {
		preds = append(preds, age.BirthdayRange(now))
	}

	switch f.HasWebsite {
	case "true":
		preds = append(preds, domain.BooleanFlagMatch{Field: domain.FieldWebsite, Want: true})
	case "false":
		preds = append(preds, domain.BooleanFlagMatch{Field: domain.FieldWebsite, Want: false})
	}

	return preds
}
