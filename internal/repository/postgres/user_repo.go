package postgres

import (
	"context"
	"fmt"

	"merchandiser-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type userRepo struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) domain.UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, email, first_name, last_name, phone, role, created_at, updated_at FROM users WHERE id = $1`
	var user domain.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Phone, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Update writes the profile fields of a user. Role is owned by the identity
// service and never changed here.
func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users SET email = $2, first_name = $3, last_name = $4, phone = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, user.ID, user.Email, user.FirstName, user.LastName, user.Phone).Scan(&user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if err = notFound(err); err == domain.ErrNotFound {
			return err
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

type akzenteRepo struct {
	db *pgxpool.Pool
}

func NewAkzenteRepository(db *pgxpool.Pool) domain.AkzenteRepository {
	return &akzenteRepo{db: db}
}

func (r *akzenteRepo) GetByUserID(ctx context.Context, userID string) (*domain.Akzente, error) {
	var a domain.Akzente
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, name, created_at FROM akzente WHERE user_id = $1`, userID,
	).Scan(&a.ID, &a.UserID, &a.Name, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}
