package postgres

import (
	"context"
	"fmt"
	"strings"

	"merchandiser-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// childRepo stores one child collection of a merchandiser. Each collection
// differs only in its table, writable columns and read projection.
type childRepo[T any] struct {
	db *pgxpool.Pool

	table string
	// columns are written on insert and update, in values order.
	columns []string
	values  func(T) []interface{}
	id      func(T) int64

	// selectQuery lists a merchandiser's rows with $1 = merchandiser id.
	selectQuery string
	scan        func(row pgx.Row) (T, error)
}

func (r *childRepo[T]) ListByMerchandiser(ctx context.Context, merchandiserID int64) ([]T, error) {
	rows, err := r.db.Query(ctx, r.selectQuery, merchandiserID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Apply runs the whole change set in one transaction. A delete or update that
// does not hit a row owned by the merchandiser aborts it with ErrNotFound.
func (r *childRepo[T]) Apply(ctx context.Context, merchandiserID int64, changes domain.ChangeSet[T]) error {
	if changes.Empty() {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if len(changes.Delete) > 0 {
		tag, err := tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE merchandiser_id = $1 AND id = ANY($2)`, r.table),
			merchandiserID, pq.Array(changes.Delete))
		if err != nil {
			return fmt.Errorf("delete %s: %w", r.table, err)
		}
		if tag.RowsAffected() != int64(len(changes.Delete)) {
			return fmt.Errorf("delete %s: %w", r.table, domain.ErrNotFound)
		}
	}

	if len(changes.Update) > 0 {
		sets := make([]string, len(r.columns))
		for i, col := range r.columns {
			sets[i] = fmt.Sprintf("%s = $%d", col, i+3)
		}
		updateQuery := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1 AND merchandiser_id = $2`,
			r.table, strings.Join(sets, ", "))

		for _, item := range changes.Update {
			args := append([]interface{}{r.id(item), merchandiserID}, r.values(item)...)
			tag, err := tx.Exec(ctx, updateQuery, args...)
			if err != nil {
				return fmt.Errorf("update %s: %w", r.table, err)
			}
			if tag.RowsAffected() != 1 {
				return fmt.Errorf("update %s %d: %w", r.table, r.id(item), domain.ErrNotFound)
			}
		}
	}

	if len(changes.Create) > 0 {
		placeholders := make([]string, len(r.columns)+1)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		}
		insertQuery := fmt.Sprintf(`INSERT INTO %s (merchandiser_id, %s) VALUES (%s)`,
			r.table, strings.Join(r.columns, ", "), strings.Join(placeholders, ", "))

		for _, item := range changes.Create {
			args := append([]interface{}{merchandiserID}, r.values(item)...)
			if _, err := tx.Exec(ctx, insertQuery, args...); err != nil {
				return fmt.Errorf("insert %s: %w", r.table, err)
			}
		}
	}

	return tx.Commit(ctx)
}

func NewJobTypeLinkRepository(db *pgxpool.Pool) domain.ChildRepository[domain.JobTypeLink] {
	return &childRepo[domain.JobTypeLink]{
		db:      db,
		table:   "merchandiser_job_types",
		columns: []string{"job_type_id", "comment"},
		values:  func(l domain.JobTypeLink) []interface{} { return []interface{}{l.JobTypeID, l.Comment} },
		id:      func(l domain.JobTypeLink) int64 { return l.ID },
		selectQuery: `
			SELECT x.id, x.merchandiser_id, x.job_type_id, COALESCE(jt.name, ''), x.comment
			FROM merchandiser_job_types x
			LEFT JOIN job_types jt ON jt.id = x.job_type_id
			WHERE x.merchandiser_id = $1
			ORDER BY x.id`,
		scan: func(row pgx.Row) (domain.JobTypeLink, error) {
			var l domain.JobTypeLink
			err := row.Scan(&l.ID, &l.MerchandiserID, &l.JobTypeID, &l.JobTypeName, &l.Comment)
			return l, err
		},
	}
}

func NewSpecializationLinkRepository(db *pgxpool.Pool) domain.ChildRepository[domain.SpecializationLink] {
	return &childRepo[domain.SpecializationLink]{
		db:      db,
		table:   "merchandiser_specializations",
		columns: []string{"specialization_id"},
		values:  func(l domain.SpecializationLink) []interface{} { return []interface{}{l.SpecializationID} },
		id:      func(l domain.SpecializationLink) int64 { return l.ID },
		selectQuery: `
			SELECT x.id, x.merchandiser_id, x.specialization_id, COALESCE(s.name, '')
			FROM merchandiser_specializations x
			LEFT JOIN specializations s ON s.id = x.specialization_id
			WHERE x.merchandiser_id = $1
			ORDER BY x.id`,
		scan: func(row pgx.Row) (domain.SpecializationLink, error) {
			var l domain.SpecializationLink
			err := row.Scan(&l.ID, &l.MerchandiserID, &l.SpecializationID, &l.SpecializationName)
			return l, err
		},
	}
}

func NewLanguageLinkRepository(db *pgxpool.Pool) domain.ChildRepository[domain.LanguageLink] {
	return &childRepo[domain.LanguageLink]{
		db:      db,
		table:   "merchandiser_languages",
		columns: []string{"language_id", "level"},
		values:  func(l domain.LanguageLink) []interface{} { return []interface{}{l.LanguageID, string(l.Level)} },
		id:      func(l domain.LanguageLink) int64 { return l.ID },
		selectQuery: `
			SELECT x.id, x.merchandiser_id, x.language_id, COALESCE(l.name, ''), x.level
			FROM merchandiser_languages x
			LEFT JOIN languages l ON l.id = x.language_id
			WHERE x.merchandiser_id = $1
			ORDER BY x.id`,
		scan: func(row pgx.Row) (domain.LanguageLink, error) {
			var l domain.LanguageLink
			var level string
			err := row.Scan(&l.ID, &l.MerchandiserID, &l.LanguageID, &l.LanguageName, &level)
			l.Level = domain.Proficiency(level)
			return l, err
		},
	}
}

func NewEducationRepository(db *pgxpool.Pool) domain.ChildRepository[domain.EducationEntry] {
	return &childRepo[domain.EducationEntry]{
		db:      db,
		table:   "merchandiser_education",
		columns: []string{"institution", "degree", "field_of_study", "start_date", "end_date", "description"},
		values: func(e domain.EducationEntry) []interface{} {
			return []interface{}{e.Institution, e.Degree, e.FieldOfStudy, e.StartDate, e.EndDate, e.Description}
		},
		id: func(e domain.EducationEntry) int64 { return e.ID },
		selectQuery: `
			SELECT id, merchandiser_id, institution, degree, field_of_study, start_date, end_date, description
			FROM merchandiser_education
			WHERE merchandiser_id = $1
			ORDER BY start_date DESC NULLS LAST, id`,
		scan: func(row pgx.Row) (domain.EducationEntry, error) {
			var e domain.EducationEntry
			err := row.Scan(&e.ID, &e.MerchandiserID, &e.Institution, &e.Degree, &e.FieldOfStudy,
				&e.StartDate, &e.EndDate, &e.Description)
			return e, err
		},
	}
}

func NewReferenceRepository(db *pgxpool.Pool) domain.ChildRepository[domain.ReferenceEntry] {
	return &childRepo[domain.ReferenceEntry]{
		db:      db,
		table:   "merchandiser_references",
		columns: []string{"company", "position", "description", "start_date", "end_date"},
		values: func(r domain.ReferenceEntry) []interface{} {
			return []interface{}{r.Company, r.Position, r.Description, r.StartDate, r.EndDate}
		},
		id: func(r domain.ReferenceEntry) int64 { return r.ID },
		// Active references first, then most recent.
		selectQuery: `
			SELECT id, merchandiser_id, company, position, description, start_date, end_date
			FROM merchandiser_references
			WHERE merchandiser_id = $1
			ORDER BY COALESCE(end_date, CURRENT_DATE) DESC, start_date DESC, id`,
		scan: func(row pgx.Row) (domain.ReferenceEntry, error) {
			var r domain.ReferenceEntry
			err := row.Scan(&r.ID, &r.MerchandiserID, &r.Company, &r.Position, &r.Description, &r.StartDate, &r.EndDate)
			return r, err
		},
	}
}

func NewContractualLinkRepository(db *pgxpool.Pool) domain.ChildRepository[domain.ContractualLink] {
	return &childRepo[domain.ContractualLink]{
		db:      db,
		table:   "merchandiser_contractuals",
		columns: []string{"contractual_id"},
		values:  func(l domain.ContractualLink) []interface{} { return []interface{}{l.ContractualID} },
		id:      func(l domain.ContractualLink) int64 { return l.ID },
		selectQuery: `
			SELECT x.id, x.merchandiser_id, x.contractual_id, COALESCE(c.name, '')
			FROM merchandiser_contractuals x
			LEFT JOIN contractuals c ON c.id = x.contractual_id
			WHERE x.merchandiser_id = $1
			ORDER BY x.id`,
		scan: func(row pgx.Row) (domain.ContractualLink, error) {
			var l domain.ContractualLink
			err := row.Scan(&l.ID, &l.MerchandiserID, &l.ContractualID, &l.ContractualName)
			return l, err
		},
	}
}
