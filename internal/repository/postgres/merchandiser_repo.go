package postgres

import (
	"context"
	"fmt"
	"time"

	"merchandiser-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type merchandiserRepo struct {
	db *pgxpool.Pool
}

func NewMerchandiserRepository(db *pgxpool.Pool) domain.MerchandiserRepository {
	return &merchandiserRepo{db: db}
}

const merchandiserColumns = `id, user_id, street, house_number, postal_code, city_id, nationality, status,
	birthday, tax_number, tax_id, website, created_at, updated_at, deleted_at`

func scanMerchandiser(row pgx.Row) (*domain.Merchandiser, error) {
	var m domain.Merchandiser
	err := row.Scan(
		&m.ID, &m.UserID, &m.Street, &m.HouseNumber, &m.PostalCode, &m.CityID, &m.Nationality, &m.Status,
		&m.Birthday, &m.TaxNumber, &m.TaxID, &m.Website, &m.CreatedAt, &m.UpdatedAt, &m.DeletedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *merchandiserRepo) Create(ctx context.Context, m *domain.Merchandiser) error {
	if m.Status == "" {
		m.Status = domain.StatusNew
	}
	query := `
		INSERT INTO merchandisers (user_id, street, house_number, postal_code, city_id, nationality, status,
			birthday, tax_number, tax_id, website)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		m.UserID, m.Street, m.HouseNumber, m.PostalCode, m.CityID, m.Nationality, m.Status,
		m.Birthday, m.TaxNumber, m.TaxID, m.Website,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert merchandiser: %w", err)
	}
	return nil
}

func (r *merchandiserRepo) GetByID(ctx context.Context, id int64) (*domain.Merchandiser, error) {
	query := `SELECT ` + merchandiserColumns + ` FROM merchandisers WHERE id = $1 AND deleted_at IS NULL`
	return scanMerchandiser(r.db.QueryRow(ctx, query, id))
}

func (r *merchandiserRepo) GetByUserID(ctx context.Context, userID string) (*domain.Merchandiser, error) {
	query := `SELECT ` + merchandiserColumns + ` FROM merchandisers WHERE user_id = $1 AND deleted_at IS NULL`
	return scanMerchandiser(r.db.QueryRow(ctx, query, userID))
}

func (r *merchandiserRepo) Update(ctx context.Context, m *domain.Merchandiser) error {
	query := `
		UPDATE merchandisers SET
			street = $2, house_number = $3, postal_code = $4, city_id = $5, nationality = $6, status = $7,
			birthday = $8, tax_number = $9, tax_id = $10, website = $11, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		m.ID, m.Street, m.HouseNumber, m.PostalCode, m.CityID, m.Nationality, m.Status,
		m.Birthday, m.TaxNumber, m.TaxID, m.Website,
	).Scan(&m.UpdatedAt)
	if err != nil {
		return notFound(err)
	}
	return nil
}

func (r *merchandiserRepo) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE merchandisers SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Search runs a DISTINCT count and the page query built from q.
func (r *merchandiserRepo) Search(ctx context.Context, q domain.SearchQuery) ([]domain.MerchandiserSearchItem, int64, error) {
	countQuery, pageQuery, countArgs, pageArgs, err := buildSearchQueries(q)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count query failed: %w", err)
	}

	items := []domain.MerchandiserSearchItem{}
	if total == 0 {
		return items, 0, nil
	}

	rows, err := r.db.Query(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.MerchandiserSearchItem
		err := rows.Scan(
			&it.ID, &it.UserID, &it.FirstName, &it.LastName, &it.Email, &it.Phone,
			&it.Website, &it.PostalCode, &it.CityID, &it.CityName, &it.Nationality, &it.Status,
			&it.Birthday, &it.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan search row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
