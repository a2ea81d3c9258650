package models

import "time"

// User captures application-facing fields for a registered account.
// Sensitive columns never serialize: the JSON projection of a User is
// the sanitized representation returned to clients.
type User struct {
	ID                  int64     `json:"id"`
	FullName            string    `json:"fullName"`
	Email               string    `json:"email"`
	PasswordHash        string    `json:"-"`
	Role                string    `json:"role"`
	GoogleID            string    `json:"googleId,omitempty"`
	ResetToken          string    `json:"-"`
	ResetTokenExpiresAt time.Time `json:"-"`
	CreatedAt           time.Time `json:"created_at"`
}
