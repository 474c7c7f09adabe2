package domain

import (
	"context"
	"strings"
	"time"
)

// User is the identity record owned by the identity service.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName is the derived "first last" label used by search.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserRepository is the identity service as seen by the core.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user *User) error
}

// Akzente is a staff party that favorites and reviews merchandisers.
type Akzente struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type AkzenteRepository interface {
	// GetByUserID returns ErrNotFound when the user is not an Akzente.
	GetByUserID(ctx context.Context, userID string) (*Akzente, error)
}
