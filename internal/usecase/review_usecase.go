package usecase

import (
	"context"
	"errors"

	"merchandiser-backend/internal/domain"
	"merchandiser-backend/pkg/apperror"
	"merchandiser-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type reviewUsecase struct {
	merchandisers domain.MerchandiserRepository
	reviews       domain.ReviewRepository
	validate      *validator.Validate
}

func NewReviewUsecase(merchandisers domain.MerchandiserRepository, reviews domain.ReviewRepository) domain.ReviewUsecase {
	return &reviewUsecase{
		merchandisers: merchandisers,
		reviews:       reviews,
		validate:      validation.New(),
	}
}

func (u *reviewUsecase) validateInput(in domain.ReviewInput) error {
	if err := u.validate.Struct(in); err != nil {
		return apperror.Validation(validationMessage(err), err)
	}
	return nil
}

// Create adds the reviewer's single review of a merchandiser. Reviewing your
// own profile is rejected; a second review of the same pair is a conflict.
func (u *reviewUsecase) Create(ctx context.Context, reviewerID string, merchandiserID int64, in domain.ReviewInput) (*domain.Review, error) {
	if err := u.validateInput(in); err != nil {
		return nil, err
	}

	m, err := u.merchandisers.GetByID(ctx, merchandiserID)
	if err != nil {
		return nil, storeError(err, "Merchandiser not found")
	}
	if m.UserID == reviewerID {
		return nil, apperror.Validation("You cannot review your own profile", nil)
	}

	review := &domain.Review{
		ReviewerID:     reviewerID,
		MerchandiserID: merchandiserID,
		Rating:         in.Rating,
		Text:           in.Text,
	}
	if err := u.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, apperror.Conflict("You have already reviewed this merchandiser")
		}
		return nil, storeError(err, "")
	}
	return review, nil
}

func (u *reviewUsecase) Update(ctx context.Context, reviewerID string, reviewID int64, in domain.ReviewInput) (*domain.Review, error) {
	if err := u.validateInput(in); err != nil {
		return nil, err
	}

	review, err := u.ownReview(ctx, reviewerID, reviewID)
	if err != nil {
		return nil, err
	}

	review.Rating = in.Rating
	review.Text = in.Text
	if err := u.reviews.Update(ctx, review); err != nil {
		return nil, storeError(err, "Review not found")
	}
	return review, nil
}

func (u *reviewUsecase) Remove(ctx context.Context, reviewerID string, reviewID int64) error {
	if _, err := u.ownReview(ctx, reviewerID, reviewID); err != nil {
		return err
	}
	return storeError(u.reviews.Delete(ctx, reviewID), "Review not found")
}

func (u *reviewUsecase) List(ctx context.Context, merchandiserID int64) ([]domain.Review, error) {
	if _, err := u.merchandisers.GetByID(ctx, merchandiserID); err != nil {
		return nil, storeError(err, "Merchandiser not found")
	}
	reviews, err := u.reviews.ListByMerchandiser(ctx, merchandiserID)
	if err != nil {
		return nil, storeError(err, "")
	}
	return reviews, nil
}

// Stats is {0, 0} for a merchandiser without reviews.
func (u *reviewUsecase) Stats(ctx context.Context, merchandiserID int64) (domain.ReviewStats, error) {
	if _, err := u.merchandisers.GetByID(ctx, merchandiserID); err != nil {
		return domain.ReviewStats{}, storeError(err, "Merchandiser not found")
	}
	stats, err := u.reviews.Stats(ctx, merchandiserID)
	if err != nil {
		return domain.ReviewStats{}, storeError(err, "")
	}
	return stats, nil
}

// ownReview loads a review and checks that reviewerID wrote it.
func (u *reviewUsecase) ownReview(ctx context.Context, reviewerID string, reviewID int64) (*domain.Review, error) {
	review, err := u.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, storeError(err, "Review not found")
	}
	if review.ReviewerID != reviewerID {
		return nil, apperror.Forbidden("You can only change your own reviews")
	}
	return review, nil
}
