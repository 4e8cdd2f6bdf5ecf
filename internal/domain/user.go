package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrUserAlreadyExists  = errors.New("user already registered")
)

// MinPasswordLength mirrors the auth provider's default policy.
const MinPasswordLength = 6

// User is the authenticated principal as reported by the auth provider.
type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username,omitempty"`
}

// DisplayName returns the username, falling back to the email.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Session carries the tokens issued on sign-in.
type Session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         User      `json:"user"`
}

// AuthProvider is the external identity service.
type AuthProvider interface {
	SignUp(ctx context.Context, email, password, username string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	RequestPasswordReset(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, accessToken, password string) error
}
