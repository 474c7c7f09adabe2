package postgres

import (
	"context"
	"fmt"

	"merchandiser-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type reviewRepo struct {
	db *pgxpool.Pool
}

func NewReviewRepository(db *pgxpool.Pool) domain.ReviewRepository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) Create(ctx context.Context, review *domain.Review) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO merchandiser_reviews (reviewer_id, merchandiser_id, rating, text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		review.ReviewerID, review.MerchandiserID, review.Rating, review.Text,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *reviewRepo) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	var review domain.Review
	err := r.db.QueryRow(ctx, `
		SELECT id, reviewer_id, merchandiser_id, rating, text, created_at, updated_at
		FROM merchandiser_reviews WHERE id = $1`, id,
	).Scan(&review.ID, &review.ReviewerID, &review.MerchandiserID, &review.Rating, &review.Text,
		&review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &review, nil
}

func (r *reviewRepo) Update(ctx context.Context, review *domain.Review) error {
	err := r.db.QueryRow(ctx, `
		UPDATE merchandiser_reviews SET rating = $2, text = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING reviewer_id, merchandiser_id, created_at, updated_at`,
		review.ID, review.Rating, review.Text,
	).Scan(&review.ReviewerID, &review.MerchandiserID, &review.CreatedAt, &review.UpdatedAt)
	return notFound(err)
}

func (r *reviewRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM merchandiser_reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *reviewRepo) ListByMerchandiser(ctx context.Context, merchandiserID int64) ([]domain.Review, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, reviewer_id, merchandiser_id, rating, text, created_at, updated_at
		FROM merchandiser_reviews
		WHERE merchandiser_id = $1
		ORDER BY created_at DESC, id DESC`, merchandiserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(&review.ID, &review.ReviewerID, &review.MerchandiserID, &review.Rating, &review.Text,
			&review.CreatedAt, &review.UpdatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (r *reviewRepo) Stats(ctx context.Context, merchandiserID int64) (domain.ReviewStats, error) {
	var sum int64
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(rating), 0), COUNT(*) FROM merchandiser_reviews WHERE merchandiser_id = $1`,
		merchandiserID,
	).Scan(&sum, &count)
	if err != nil {
		return domain.ReviewStats{}, err
	}
	return domain.NewReviewStats(sum, count), nil
}

// StatsByMerchandiserIDs aggregates a whole page in one query. Merchandisers
// without reviews are absent from the map.
func (r *reviewRepo) StatsByMerchandiserIDs(ctx context.Context, ids []int64) (map[int64]domain.ReviewStats, error) {
	stats := make(map[int64]domain.ReviewStats, len(ids))
	if len(ids) == 0 {
		return stats, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT merchandiser_id, SUM(rating), COUNT(*)
		FROM merchandiser_reviews
		WHERE merchandiser_id = ANY($1)
		GROUP BY merchandiser_id`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, sum int64
		var count int
		if err := rows.Scan(&id, &sum, &count); err != nil {
			return nil, err
		}
		stats[id] = domain.NewReviewStats(sum, count)
	}
	return stats, rows.Err()
}
