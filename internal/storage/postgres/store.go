package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jwenlim/accounts-be/internal/models"
	"github.com/jwenlim/accounts-be/internal/storage"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

// DB is the subset of pgxpool.Pool the store uses. Mock pools satisfy
// it too, so the store is testable without a live database.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides Postgres-backed persistence for users.
type Store struct {
	db   DB
	pool *pgxpool.Pool
}

// NewStore wraps an existing connection source without running migrations.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// NewUserStore connects to databaseURL and runs migrations.
func NewUserStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{db: pool, pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			full_name TEXT NOT NULL,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			google_id TEXT,
			reset_token TEXT,
			reset_token_expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique_idx ON users (email);`,
		`CREATE INDEX IF NOT EXISTS users_reset_token_idx ON users (reset_token) WHERE reset_token IS NOT NULL;`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

const userColumns = `id, full_name, email, password_hash, role, google_id, reset_token, reset_token_expires_at, created_at`

// CreateUser inserts a new user row. A duplicate email surfaces as
// storage.ErrAlreadyExists via the unique index, so concurrent signups
// with the same address cannot both succeed.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
	INSERT INTO users (full_name, email, password_hash, role)
	VALUES ($1, $2, $3, $4)
	RETURNING ` + userColumns + `;`
	row := s.db.QueryRow(ctx, query, user.FullName, user.Email, user.PasswordHash, user.Role)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1;`
	row := s.db.QueryRow(ctx, query, email)
	return scanUser(row)
}

// SetGoogleID attaches an external Google identity to the user.
func (s *Store) SetGoogleID(ctx context.Context, userID int64, googleID string) (models.User, error) {
	const query = `
	UPDATE users SET google_id = $2
	WHERE id = $1
	RETURNING ` + userColumns + `;`
	row := s.db.QueryRow(ctx, query, userID, googleID)
	return scanUser(row)
}

// SetResetToken stores a pending password-reset token and its expiry.
func (s *Store) SetResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	const query = `
	UPDATE users SET reset_token = $2, reset_token_expires_at = $3
	WHERE id = $1;`
	tag, err := s.db.Exec(ctx, query, userID, token, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ResetPassword consumes a reset token: the new hash is written and the
// token cleared only when email, token, and a still-future expiry all
// match. Expired tokens simply stop matching; they are never purged.
func (s *Store) ResetPassword(ctx context.Context, email, token, passwordHash string, now time.Time) error {
	const query = `
	UPDATE users SET password_hash = $3, reset_token = NULL, reset_token_expires_at = NULL
	WHERE email = $1 AND reset_token = $2 AND reset_token_expires_at > $4;`
	tag, err := s.db.Exec(ctx, query, email, token, passwordHash, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var googleID, resetToken *string
	var resetExpiry *time.Time
	err := row.Scan(&user.ID, &user.FullName, &user.Email, &user.PasswordHash,
		&user.Role, &googleID, &resetToken, &resetExpiry, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	if googleID != nil {
		user.GoogleID = *googleID
	}
	if resetToken != nil {
		user.ResetToken = *resetToken
	}
	if resetExpiry != nil {
		user.ResetTokenExpiresAt = *resetExpiry
	}
	return user, nil
}
