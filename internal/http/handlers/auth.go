package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jwenlim/accounts-be/internal/auth"
	"github.com/jwenlim/accounts-be/internal/config"
	"github.com/jwenlim/accounts-be/internal/http/respond"
	"github.com/jwenlim/accounts-be/internal/mail"
	"github.com/jwenlim/accounts-be/internal/models"
	"github.com/jwenlim/accounts-be/internal/models/dto"
	"github.com/jwenlim/accounts-be/internal/storage"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "token"

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// AuthHandler owns the account endpoints: signup, login, logout,
// Google-account linking, and the password-reset pair.
type AuthHandler struct {
	store  storage.UserStore
	tokens *auth.TokenManager
	mailer mail.Sender
	cfg    *config.Config
}

// NewAuthHandler constructs the handler with its injected collaborators.
func NewAuthHandler(store storage.UserStore, tokens *auth.TokenManager, mailer mail.Sender, cfg *config.Config) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens, mailer: mailer, cfg: cfg}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/signup", h.handleSignup)
	mux.HandleFunc("/api/auth/login", h.handleLogin)
	mux.HandleFunc("/api/auth/logout", h.handleLogout)
	mux.HandleFunc("/api/auth/link", h.handleLinkAccount)
	mux.HandleFunc("/api/auth/forgot-password", h.handleForgotPassword)
	mux.HandleFunc("/api/auth/reset-password", h.handleResetPassword)
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	email := normalizeEmail(req.Email)
	if strings.TrimSpace(req.FullName) == "" || email == "" || req.Password == "" || strings.TrimSpace(req.Role) == "" {
		respond.Error(w, http.StatusBadRequest, "fullName, email, password, and role are required")
		return
	}
	if !emailPattern.MatchString(email) {
		respond.Error(w, http.StatusBadRequest, "invalid email address")
		return
	}
	role := strings.TrimSpace(req.Role)
	if !models.ValidRole(role) {
		respond.Error(w, http.StatusBadRequest, "unknown role")
		return
	}
	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := models.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		Role:         role,
		PasswordHash: passwordHash,
	}
	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			respond.Error(w, http.StatusConflict, "email already registered")
		default:
			log.Printf("create user error: %v", err)
			respond.Error(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	if !h.issueSession(w, created.ID) {
		return
	}
	respond.JSON(w, http.StatusCreated, "user created", created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}
	user, err := h.store.FindByEmail(r.Context(), email)
	if err != nil {
		// Unknown email and wrong password are the same outcome.
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		log.Printf("login: fetch user: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !h.issueSession(w, user.ID) {
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", user)
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.clearSessionCookie(w)
	respond.JSON(w, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) handleLinkAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.LinkAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Token) == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "token and password are required")
		return
	}
	claims, err := h.tokens.VerifyLinkToken(req.Token)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid link token")
		return
	}
	user, err := h.store.FindByEmail(r.Context(), normalizeEmail(claims.Email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "no account for this email")
			return
		}
		log.Printf("link account: fetch user: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	linked, err := h.store.SetGoogleID(r.Context(), user.ID, claims.GoogleID)
	if err != nil {
		log.Printf("link account: attach google id: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to link account")
		return
	}

	if !h.issueSession(w, linked.ID) {
		return
	}
	respond.JSON(w, http.StatusOK, "account linked", linked)
}

func (h *AuthHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	email := normalizeEmail(req.Email)
	if email == "" {
		respond.Error(w, http.StatusBadRequest, "email is required")
		return
	}
	user, err := h.store.FindByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "no account for this email")
			return
		}
		log.Printf("forgot password: fetch user: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	token, err := auth.NewResetToken()
	if err != nil {
		log.Printf("forgot password: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to generate reset token")
		return
	}
	expiresAt := time.Now().Add(auth.ResetTokenTTL)
	if err := h.store.SetResetToken(r.Context(), user.ID, token, expiresAt); err != nil {
		log.Printf("forgot password: store token: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to store reset token")
		return
	}

	// The token stays saved even if delivery fails; there is no rollback.
	link := h.resetLink(token, user.Email)
	if err := h.mailer.SendPasswordReset(user.Email, link); err != nil {
		log.Printf("forgot password: send email: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to send reset email")
		return
	}
	respond.JSON(w, http.StatusOK, "reset email sent", nil)
}

func (h *AuthHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	email := normalizeEmail(req.Email)
	if strings.TrimSpace(req.Token) == "" || email == "" || req.NewPassword == "" {
		respond.Error(w, http.StatusBadRequest, "token, email, and newPassword are required")
		return
	}
	passwordHash, err := hashPassword(req.NewPassword)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	err = h.store.ResetPassword(r.Context(), email, strings.TrimSpace(req.Token), passwordHash, time.Now())
	if err != nil {
		// Wrong and expired tokens are indistinguishable to the caller.
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusBadRequest, "invalid or expired reset token")
			return
		}
		log.Printf("reset password: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to reset password")
		return
	}
	respond.JSON(w, http.StatusOK, "password updated", nil)
}

// issueSession signs a session token for userID and sets the cookie.
// On failure it writes a 500 and reports false.
func (h *AuthHandler) issueSession(w http.ResponseWriter, userID int64) bool {
	token, err := h.tokens.GenerateSession(userID)
	if err != nil {
		log.Printf("issue session: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to generate session token")
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return true
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) resetLink(token, email string) string {
	return fmt.Sprintf("%s/reset-password?token=%s&email=%s",
		h.cfg.ClientURL, url.QueryEscape(token), url.QueryEscape(email))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
