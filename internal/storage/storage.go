package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jwenlim/accounts-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures persistence operations needed by handlers.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	SetGoogleID(ctx context.Context, userID int64, googleID string) (models.User, error)
	SetResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	// ResetPassword replaces the password hash and clears the reset token
	// in one statement, matching only when the stored token equals token
	// and its expiry is strictly after now. Returns ErrNotFound when no
	// row matches, covering wrong and expired tokens alike.
	ResetPassword(ctx context.Context, email, token, passwordHash string, now time.Time) error
}
