package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers signature, expiry, and claim-shape failures.
var ErrInvalidToken = errors.New("invalid token")

// LinkClaims is the payload of a pre-issued account-link token: the
// provider-verified email plus the external Google identity.
type LinkClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	GoogleID string `json:"googleId"`
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// TokenManager issues session JWTs and verifies link tokens, both
// signed HS256 with the shared application secret.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager creates a manager with the provided secret, issuer, and session lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// SessionTTL returns the configured session lifetime.
func (t *TokenManager) SessionTTL() time.Duration {
	return t.ttl
}

// GenerateSession issues a signed JWT whose subject is the user ID.
func (t *TokenManager) GenerateSession(userID int64) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ParseSession verifies a session token and returns its user ID.
func (t *TokenManager) ParseSession(tokenString string) (int64, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, t.keyFunc)
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

// VerifyLinkToken verifies signature and expiry of a pre-issued link
// token and extracts its embedded identity claims.
func (t *TokenManager) VerifyLinkToken(tokenString string) (LinkClaims, error) {
	claims := &LinkClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, t.keyFunc)
	if err != nil || !token.Valid {
		return LinkClaims{}, ErrInvalidToken
	}
	if claims.Email == "" || claims.GoogleID == "" {
		return LinkClaims{}, ErrInvalidToken
	}
	return *claims, nil
}

func (t *TokenManager) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return t.secret, nil
}
