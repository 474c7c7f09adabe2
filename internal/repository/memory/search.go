package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"merchandiser-backend/internal/domain"
)

// row is one merchandiser joined with its user and city.
type row struct {
	m    domain.Merchandiser
	user domain.User
	city *domain.City
}

func (r *merchandiserRepository) Search(ctx context.Context, q domain.SearchQuery) ([]domain.MerchandiserSearchItem, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []row
	for _, m := range s.merchandisers {
		if m.DeletedAt != nil {
			continue
		}
		candidate := row{m: m, user: s.users[m.UserID]}
		if m.CityID != nil {
			if c, ok := s.cities.rows[*m.CityID]; ok {
				candidate.city = &c
			}
		}

		ok := true
		for _, p := range q.Predicates {
			hit, err := s.match(candidate, p)
			if err != nil {
				return nil, 0, err
			}
			if !hit {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, candidate)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		for _, term := range q.Order {
			c := compareRows(matched[i], matched[j], term.Key)
			if c == 0 {
				continue
			}
			// Missing values sort last in both directions.
			if c == nullsLast || c == -nullsLast {
				return c < 0
			}
			if term.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	total := int64(len(matched))
	if q.Limit > 0 {
		if q.Offset >= len(matched) {
			matched = nil
		} else {
			end := q.Offset + q.Limit
			if end > len(matched) {
				end = len(matched)
			}
			matched = matched[q.Offset:end]
		}
	}

	items := make([]domain.MerchandiserSearchItem, 0, len(matched))
	for _, hit := range matched {
		item := domain.MerchandiserSearchItem{
			ID:          hit.m.ID,
			UserID:      hit.m.UserID,
			FirstName:   hit.user.FirstName,
			LastName:    hit.user.LastName,
			Email:       hit.user.Email,
			Phone:       hit.user.Phone,
			Website:     hit.m.Website,
			PostalCode:  hit.m.PostalCode,
			CityID:      hit.m.CityID,
			Nationality: hit.m.Nationality,
			Status:      hit.m.Status,
			Birthday:    hit.m.Birthday,
			CreatedAt:   hit.m.CreatedAt,
		}
		if hit.city != nil {
			name := hit.city.Name
			item.CityName = &name
		}
		items = append(items, item)
	}
	return items, total, nil
}

// match must be called with the read lock held.
func (s *Store) match(r row, p domain.Predicate) (bool, error) {
	switch p := p.(type) {
	case domain.TextMatch:
		needle := strings.ToLower(p.Value)
		for _, field := range p.Fields {
			values, err := s.textValues(r, field)
			if err != nil {
				return false, err
			}
			for _, v := range values {
				if strings.Contains(strings.ToLower(v), needle) {
					return true, nil
				}
			}
		}
		return false, nil

	case domain.IDSetMatch:
		values, err := s.idValues(r, p.Field)
		if err != nil {
			return false, err
		}
		for _, v := range values {
			for _, id := range p.IDs {
				if v == id {
					return true, nil
				}
			}
		}
		return false, nil

	case domain.RangeMatch:
		if p.Field != domain.FieldBirthday {
			return false, fmt.Errorf("range on %q is not supported", p.Field)
		}
		if r.m.Birthday == nil {
			return false, nil
		}
		b := domain.DateOf(*r.m.Birthday)
		if p.After != nil && !b.After(domain.DateOf(*p.After)) {
			return false, nil
		}
		if p.OnOrBefore != nil && b.After(domain.DateOf(*p.OnOrBefore)) {
			return false, nil
		}
		return true, nil

	case domain.BooleanFlagMatch:
		if p.Field != domain.FieldWebsite {
			return false, fmt.Errorf("flag on %q is not supported", p.Field)
		}
		present := r.m.Website != nil && *r.m.Website != ""
		return present == p.Want, nil
	}
	return false, fmt.Errorf("unsupported predicate %T", p)
}

func (s *Store) textValues(r row, field domain.SearchField) ([]string, error) {
	switch field {
	case domain.FieldFullName:
		return []string{r.user.FullName()}, nil
	case domain.FieldEmail:
		return []string{r.user.Email}, nil
	case domain.FieldWebsite:
		if r.m.Website == nil {
			return nil, nil
		}
		return []string{*r.m.Website}, nil
	case domain.FieldCityName:
		if r.city == nil {
			return nil, nil
		}
		return []string{r.city.Name}, nil
	case domain.FieldPostalCode:
		return []string{r.m.PostalCode}, nil
	case domain.FieldStatus:
		return []string{r.m.Status}, nil
	case domain.FieldJobTypeName:
		var out []string
		for _, l := range s.jobTypeLinks.byMerchandiser(r.m.ID) {
			if jt, ok := s.jobTypes.rows[l.JobTypeID]; ok {
				out = append(out, jt.Name)
			}
		}
		return out, nil
	case domain.FieldSpecializationName:
		var out []string
		for _, l := range s.specializationLinks.byMerchandiser(r.m.ID) {
			if sp, ok := s.specializations.rows[l.SpecializationID]; ok {
				out = append(out, sp.Name)
			}
		}
		return out, nil
	case domain.FieldLanguageName:
		var out []string
		for _, l := range s.languageLinks.byMerchandiser(r.m.ID) {
			if lang, ok := s.languages.rows[l.LanguageID]; ok {
				out = append(out, lang.Name)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("text match on %q is not supported", field)
}

func (s *Store) idValues(r row, field domain.SearchField) ([]int64, error) {
	switch field {
	case domain.FieldID:
		return []int64{r.m.ID}, nil
	case domain.FieldCityID:
		if r.m.CityID == nil {
			return nil, nil
		}
		return []int64{*r.m.CityID}, nil
	case domain.FieldCountryID:
		if r.city == nil {
			return nil, nil
		}
		return []int64{r.city.CountryID}, nil
	case domain.FieldJobTypeID:
		var out []int64
		for _, l := range s.jobTypeLinks.byMerchandiser(r.m.ID) {
			out = append(out, l.JobTypeID)
		}
		return out, nil
	case domain.FieldSpecializationID:
		var out []int64
		for _, l := range s.specializationLinks.byMerchandiser(r.m.ID) {
			out = append(out, l.SpecializationID)
		}
		return out, nil
	case domain.FieldLanguageID:
		var out []int64
		for _, l := range s.languageLinks.byMerchandiser(r.m.ID) {
			out = append(out, l.LanguageID)
		}
		return out, nil
	}
	return nil, fmt.Errorf("id match on %q is not supported", field)
}

// nullsLast marks a comparison decided by a missing value.
const nullsLast = 2

func compareRows(a, b row, key domain.SortKey) int {
	switch key {
	case domain.SortKeyFirstName:
		return strings.Compare(strings.ToLower(a.user.FirstName), strings.ToLower(b.user.FirstName))
	case domain.SortKeyLastName:
		return strings.Compare(strings.ToLower(a.user.LastName), strings.ToLower(b.user.LastName))
	case domain.SortKeyEmail:
		return strings.Compare(strings.ToLower(a.user.Email), strings.ToLower(b.user.Email))
	case domain.SortKeyCity:
		switch {
		case a.city == nil && b.city == nil:
			return 0
		case a.city == nil:
			return nullsLast
		case b.city == nil:
			return -nullsLast
		}
		return strings.Compare(strings.ToLower(a.city.Name), strings.ToLower(b.city.Name))
	case domain.SortKeyBirthday:
		switch {
		case a.m.Birthday == nil && b.m.Birthday == nil:
			return 0
		case a.m.Birthday == nil:
			return nullsLast
		case b.m.Birthday == nil:
			return -nullsLast
		}
		return compareTime(*a.m.Birthday, *b.m.Birthday)
	case domain.SortKeyStatus:
		return strings.Compare(a.m.Status, b.m.Status)
	case domain.SortKeyNationality:
		return strings.Compare(a.m.Nationality, b.m.Nationality)
	case domain.SortKeyCreatedAt:
		return compareTime(a.m.CreatedAt, b.m.CreatedAt)
	case domain.SortKeyUpdatedAt:
		return compareTime(a.m.UpdatedAt, b.m.UpdatedAt)
	case domain.SortKeyID:
		switch {
		case a.m.ID < b.m.ID:
			return -1
		case a.m.ID > b.m.ID:
			return 1
		}
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
