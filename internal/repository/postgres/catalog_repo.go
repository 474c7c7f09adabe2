package postgres

import (
	"context"
	"fmt"

	"merchandiser-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// catalogRepo reads one catalog table. The catalogs are maintained elsewhere.
type catalogRepo[T any] struct {
	db      *pgxpool.Pool
	table   string
	columns string
	scan    func(row pgx.Row) (T, error)
}

func (r *catalogRepo[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, r.columns, r.table)
	v, err := r.scan(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (r *catalogRepo[T]) FindByIDs(ctx context.Context, ids []int64) ([]T, error) {
	out := []T{}
	if len(ids) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ANY($1) ORDER BY id`, r.columns, r.table)
	rows, err := r.db.Query(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		v, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func NewJobTypeCatalog(db *pgxpool.Pool) domain.CatalogReader[domain.JobType] {
	return &catalogRepo[domain.JobType]{db: db, table: "job_types", columns: "id, name",
		scan: func(row pgx.Row) (domain.JobType, error) {
			var v domain.JobType
			err := row.Scan(&v.ID, &v.Name)
			return v, err
		}}
}

func NewSpecializationCatalog(db *pgxpool.Pool) domain.CatalogReader[domain.Specialization] {
	return &catalogRepo[domain.Specialization]{db: db, table: "specializations", columns: "id, name, job_type_id",
		scan: func(row pgx.Row) (domain.Specialization, error) {
			var v domain.Specialization
			err := row.Scan(&v.ID, &v.Name, &v.JobTypeID)
			return v, err
		}}
}

func NewLanguageCatalog(db *pgxpool.Pool) domain.CatalogReader[domain.Language] {
	return &catalogRepo[domain.Language]{db: db, table: "languages", columns: "id, name",
		scan: func(row pgx.Row) (domain.Language, error) {
			var v domain.Language
			err := row.Scan(&v.ID, &v.Name)
			return v, err
		}}
}

func NewCityCatalog(db *pgxpool.Pool) domain.CatalogReader[domain.City] {
	return &catalogRepo[domain.City]{db: db, table: "cities", columns: "id, name, postal_code, COALESCE(country_id, 0)",
		scan: func(row pgx.Row) (domain.City, error) {
			var v domain.City
			err := row.Scan(&v.ID, &v.Name, &v.PostalCode, &v.CountryID)
			return v, err
		}}
}

func NewCountryCatalog(db *pgxpool.Pool) domain.CatalogReader[domain.Country] {
	return &catalogRepo[domain.Country]{db: db, table: "countries", columns: "id, name, code",
		scan: func(row pgx.Row) (domain.Country, error) {
			var v domain.Country
			err := row.Scan(&v.ID, &v.Name, &v.Code)
			return v, err
		}}
}

func NewContractualCatalog(db *pgxpool.Pool) domain.CatalogReader[domain.Contractual] {
	return &catalogRepo[domain.Contractual]{db: db, table: "contractuals", columns: "id, name",
		scan: func(row pgx.Row) (domain.Contractual, error) {
			var v domain.Contractual
			err := row.Scan(&v.ID, &v.Name)
			return v, err
		}}
}

// NewCatalogs wires every catalog reader against the same pool.
func NewCatalogs(db *pgxpool.Pool) domain.Catalogs {
	return domain.Catalogs{
		JobTypes:        NewJobTypeCatalog(db),
		Specializations: NewSpecializationCatalog(db),
		Languages:       NewLanguageCatalog(db),
		Cities:          NewCityCatalog(db),
		Countries:       NewCountryCatalog(db),
		Contractuals:    NewContractualCatalog(db),
	}
}
