package search

import (
	"strings"

	"merchandiser-backend/internal/domain"
)

type sortColumn struct {
	key domain.SortKey
	// inverted columns sort opposite to the requested direction (age vs birthday).
	inverted bool
}

// sortable is the whitelist of API sort fields.
var sortable = map[string]sortColumn{
	"firstName":   {key: domain.SortKeyFirstName},
	"lastName":    {key: domain.SortKeyLastName},
	"email":       {key: domain.SortKeyEmail},
	"city":        {key: domain.SortKeyCity},
	"birthday":    {key: domain.SortKeyBirthday},
	"age":         {key: domain.SortKeyBirthday, inverted: true},
	"status":      {key: domain.SortKeyStatus},
	"nationality": {key: domain.SortKeyNationality},
	"createdAt":   {key: domain.SortKeyCreatedAt},
	"updatedAt":   {key: domain.SortKeyUpdatedAt},
}

var defaultOrder = domain.OrderTerm{Key: domain.SortKeyCreatedAt, Desc: true}

// ResolveSort maps requested sort fields onto whitelisted keys. Unknown fields
// fall back to createdAt, repeated keys keep their first position, and id is
// always appended as the final tie-break so paging is stable.
func ResolveSort(fields []domain.SortField) []domain.OrderTerm {
	order := make([]domain.OrderTerm, 0, len(fields)+1)
	seen := make(map[domain.SortKey]bool, len(fields)+1)

	for _, f := range fields {
		col, ok := sortable[strings.TrimSpace(f.Field)]
		if !ok {
			col = sortColumn{key: domain.SortKeyCreatedAt}
		}
		if seen[col.key] {
			continue
		}
		seen[col.key] = true

		desc := strings.EqualFold(strings.TrimSpace(f.Direction), "desc")
		if col.inverted {
			desc = !desc
		}
		order = append(order, domain.OrderTerm{Key: col.key, Desc: desc})
	}

	if len(order) == 0 {
		order = append(order, defaultOrder)
	}
	return append(order, domain.OrderTerm{Key: domain.SortKeyID})
}
