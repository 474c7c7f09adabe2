package postgres

import (
	"fmt"
	"strings"

	"merchandiser-backend/internal/domain"

	"github.com/lib/pq"
)

// searchFrom joins only 1:1 relations, so rows never fan out. Predicates on
// the child collections are correlated EXISTS subqueries.
const searchFrom = `
		FROM merchandisers m
		JOIN users u ON u.id = m.user_id
		LEFT JOIN cities c ON c.id = m.city_id`

// textColumns are the scalar columns a TextMatch can target.
var textColumns = map[domain.SearchField]string{
	domain.FieldFullName:   "TRIM(u.first_name || ' ' || u.last_name)",
	domain.FieldEmail:      "u.email",
	domain.FieldWebsite:    "m.website",
	domain.FieldCityName:   "c.name",
	domain.FieldPostalCode: "m.postal_code",
	domain.FieldStatus:     "m.status",
}

// labelJoins resolve a child collection label for TextMatch.
var labelJoins = map[domain.SearchField]string{
	domain.FieldJobTypeName: `SELECT 1 FROM merchandiser_job_types x JOIN job_types t ON t.id = x.job_type_id
			WHERE x.merchandiser_id = m.id AND t.name ILIKE %s`,
	domain.FieldSpecializationName: `SELECT 1 FROM merchandiser_specializations x JOIN specializations t ON t.id = x.specialization_id
			WHERE x.merchandiser_id = m.id AND t.name ILIKE %s`,
	domain.FieldLanguageName: `SELECT 1 FROM merchandiser_languages x JOIN languages t ON t.id = x.language_id
			WHERE x.merchandiser_id = m.id AND t.name ILIKE %s`,
}

var idColumns = map[domain.SearchField]string{
	domain.FieldID:        "m.id",
	domain.FieldCityID:    "m.city_id",
	domain.FieldCountryID: "c.country_id",
}

var idLinks = map[domain.SearchField]string{
	domain.FieldJobTypeID:        `SELECT 1 FROM merchandiser_job_types x WHERE x.merchandiser_id = m.id AND x.job_type_id = ANY(%s)`,
	domain.FieldSpecializationID: `SELECT 1 FROM merchandiser_specializations x WHERE x.merchandiser_id = m.id AND x.specialization_id = ANY(%s)`,
	domain.FieldLanguageID:       `SELECT 1 FROM merchandiser_languages x WHERE x.merchandiser_id = m.id AND x.language_id = ANY(%s)`,
}

var orderColumns = map[domain.SortKey]string{
	domain.SortKeyFirstName:   "LOWER(u.first_name)",
	domain.SortKeyLastName:    "LOWER(u.last_name)",
	domain.SortKeyEmail:       "LOWER(u.email)",
	domain.SortKeyCity:        "LOWER(c.name)",
	domain.SortKeyBirthday:    "m.birthday",
	domain.SortKeyStatus:      "m.status",
	domain.SortKeyNationality: "m.nationality",
	domain.SortKeyCreatedAt:   "m.created_at",
	domain.SortKeyUpdatedAt:   "m.updated_at",
	domain.SortKeyID:          "m.id",
}

type searchSQL struct {
	conditions []string
	args       []interface{}
	argIndex   int
}

func newSearchSQL() *searchSQL {
	return &searchSQL{conditions: []string{"m.deleted_at IS NULL"}, argIndex: 1}
}

func (b *searchSQL) bind(v interface{}) string {
	b.args = append(b.args, v)
	placeholder := fmt.Sprintf("$%d", b.argIndex)
	b.argIndex++
	return placeholder
}

// add folds one predicate into the WHERE clause.
func (b *searchSQL) add(p domain.Predicate) error {
	switch p := p.(type) {
	case domain.TextMatch:
		placeholder := b.bind(containsPattern(p.Value))
		var ors []string
		for _, field := range p.Fields {
			if col, ok := textColumns[field]; ok {
				ors = append(ors, fmt.Sprintf("%s ILIKE %s", col, placeholder))
				continue
			}
			if sub, ok := labelJoins[field]; ok {
				ors = append(ors, "EXISTS ("+fmt.Sprintf(sub, placeholder)+")")
				continue
			}
			return fmt.Errorf("text match on %q is not supported", field)
		}
		if len(ors) > 0 {
			b.conditions = append(b.conditions, "("+strings.Join(ors, " OR ")+")")
		}

	case domain.IDSetMatch:
		if len(p.IDs) == 0 {
			b.conditions = append(b.conditions, "FALSE")
			return nil
		}
		placeholder := b.bind(pq.Array(p.IDs))
		if col, ok := idColumns[p.Field]; ok {
			b.conditions = append(b.conditions, fmt.Sprintf("%s = ANY(%s)", col, placeholder))
			return nil
		}
		if sub, ok := idLinks[p.Field]; ok {
			b.conditions = append(b.conditions, "EXISTS ("+fmt.Sprintf(sub, placeholder)+")")
			return nil
		}
		return fmt.Errorf("id match on %q is not supported", p.Field)

	case domain.RangeMatch:
		if p.Field != domain.FieldBirthday {
			return fmt.Errorf("range on %q is not supported", p.Field)
		}
		if p.After != nil {
			b.conditions = append(b.conditions, fmt.Sprintf("m.birthday > %s::date", b.bind(p.After.Format("2006-01-02"))))
		}
		if p.OnOrBefore != nil {
			b.conditions = append(b.conditions, fmt.Sprintf("m.birthday <= %s::date", b.bind(p.OnOrBefore.Format("2006-01-02"))))
		}

	case domain.BooleanFlagMatch:
		if p.Field != domain.FieldWebsite {
			return fmt.Errorf("flag on %q is not supported", p.Field)
		}
		if p.Want {
			b.conditions = append(b.conditions, "(m.website IS NOT NULL AND m.website <> '')")
		} else {
			b.conditions = append(b.conditions, "(m.website IS NULL OR m.website = '')")
		}

	default:
		return fmt.Errorf("unsupported predicate %T", p)
	}
	return nil
}

func (b *searchSQL) where() string {
	return strings.Join(b.conditions, " AND ")
}

func orderClause(order []domain.OrderTerm) string {
	terms := make([]string, 0, len(order))
	for _, o := range order {
		col, ok := orderColumns[o.Key]
		if !ok {
			col = orderColumns[domain.SortKeyCreatedAt]
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		terms = append(terms, fmt.Sprintf("%s %s NULLS LAST", col, dir))
	}
	if len(terms) == 0 {
		return "m.created_at DESC, m.id ASC"
	}
	return strings.Join(terms, ", ")
}

// buildSearchQueries returns the count query, the page query and their args.
// The page query carries two extra args for LIMIT/OFFSET unless Limit is 0.
func buildSearchQueries(q domain.SearchQuery) (countQuery, pageQuery string, countArgs, pageArgs []interface{}, err error) {
	b := newSearchSQL()
	for _, p := range q.Predicates {
		if err := b.add(p); err != nil {
			return "", "", nil, nil, err
		}
	}
	whereClause := b.where()

	countQuery = fmt.Sprintf(`SELECT COUNT(DISTINCT m.id) %s WHERE %s`, searchFrom, whereClause)
	countArgs = append([]interface{}{}, b.args...)

	pageQuery = fmt.Sprintf(`
		SELECT m.id, m.user_id, u.first_name, u.last_name, u.email, u.phone,
			m.website, m.postal_code, m.city_id, c.name, m.nationality, m.status,
			m.birthday, m.created_at
		%s
		WHERE %s
		ORDER BY %s`, searchFrom, whereClause, orderClause(q.Order))
	pageArgs = append([]interface{}{}, b.args...)

	if q.Limit > 0 {
		pageQuery += fmt.Sprintf(" LIMIT $%d OFFSET $%d", b.argIndex, b.argIndex+1)
		pageArgs = append(pageArgs, q.Limit, q.Offset)
	}
	return countQuery, pageQuery, countArgs, pageArgs, nil
}
