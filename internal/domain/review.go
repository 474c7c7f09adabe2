package domain

import (
	"context"
	"math"
	"time"
)

type Review struct {
	ID             int64     `json:"id"`
	ReviewerID     string    `json:"reviewer_id"`
	MerchandiserID int64     `json:"merchandiser_id"`
	Rating         int       `json:"rating"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ReviewStats struct {
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// NewReviewStats rounds the mean to one decimal; no reviews yields {0, 0}.
func NewReviewStats(sum int64, count int) ReviewStats {
	if count <= 0 {
		return ReviewStats{}
	}
	avg := float64(sum) / float64(count)
	return ReviewStats{
		AverageRating: math.Round(avg*10) / 10,
		ReviewCount:   count,
	}
}

// ReviewInput is the payload for creating or changing a review.
type ReviewInput struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Text   string `json:"text" validate:"max=2000,no_emoji"`
}

type ReviewRepository interface {
	// Create returns ErrDuplicate when the reviewer already reviewed the merchandiser.
	Create(ctx context.Context, review *Review) error
	GetByID(ctx context.Context, id int64) (*Review, error)
	Update(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id int64) error
	ListByMerchandiser(ctx context.Context, merchandiserID int64) ([]Review, error)
	Stats(ctx context.Context, merchandiserID int64) (ReviewStats, error)
	StatsByMerchandiserIDs(ctx context.Context, ids []int64) (map[int64]ReviewStats, error)
}

type ReviewUsecase interface {
	Create(ctx context.Context, reviewerID string, merchandiserID int64, in ReviewInput) (*Review, error)
	Update(ctx context.Context, reviewerID string, reviewID int64, in ReviewInput) (*Review, error)
	Remove(ctx context.Context, reviewerID string, reviewID int64) error
	List(ctx context.Context, merchandiserID int64) ([]Review, error)
	Stats(ctx context.Context, merchandiserID int64) (ReviewStats, error)
}
