// Package supabase adapts the Supabase GoTrue auth API to domain.AuthProvider.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/dafibh/gastify/gastify-backend/internal/config"
	"github.com/dafibh/gastify/gastify-backend/internal/domain"
)

// AuthProvider implements domain.AuthProvider against a Supabase project
type AuthProvider struct {
	client gotrue.Client
}

var _ domain.AuthProvider = (*AuthProvider)(nil)

// NewAuthProvider creates a provider for the project at cfg.URL
func NewAuthProvider(cfg config.SupabaseConfig) *AuthProvider {
	client := gotrue.New("", cfg.AnonKey).WithCustomGoTrueURL(cfg.Issuer())
	return &AuthProvider{client: client}
}

// SignUp registers a user and stores the username in the user metadata
func (p *AuthProvider) SignUp(ctx context.Context, email, password, username string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := types.SignupRequest{Email: email, Password: password}
	if username != "" {
		req.Data = map[string]interface{}{"username": username}
	}

	resp, err := p.client.Signup(req)
	if err != nil {
		return nil, mapError(err)
	}

	// With email confirmation disabled the user arrives inside the session
	user := resp.User
	if user.ID == uuid.Nil {
		user = resp.Session.User
	}
	return toDomainUser(user), nil
}

// SignIn exchanges email and password for tokens
func (p *AuthProvider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := p.client.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, mapError(err)
	}

	return &domain.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second).UTC(),
		User:         *toDomainUser(resp.User),
	}, nil
}

// SignOut revokes the session of accessToken
func (p *AuthProvider) SignOut(ctx context.Context, accessToken string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.client.WithToken(accessToken).Logout(); err != nil {
		return mapError(err)
	}
	return nil
}

// RequestPasswordReset asks Supabase to email a recovery link. The link
// target is the project's configured redirect; redirectTo is logged only.
func (p *AuthProvider) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.client.Recover(types.RecoverRequest{Email: email}); err != nil {
		return mapError(err)
	}
	log.Debug().Str("redirect_to", redirectTo).Msg("Password recovery requested")
	return nil
}

// UpdatePassword changes the password of the user owning accessToken
func (p *AuthProvider) UpdatePassword(ctx context.Context, accessToken, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.client.WithToken(accessToken).UpdateUser(types.UpdateUserRequest{Password: &password})
	if err != nil {
		return mapError(err)
	}
	return nil
}

func toDomainUser(u types.User) *domain.User {
	user := &domain.User{ID: u.ID, Email: u.Email}
	if username, ok := u.UserMetadata["username"].(string); ok {
		user.Username = username
	}
	return user
}

// mapError turns GoTrue error responses into domain errors
func mapError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "invalid login credentials"), strings.Contains(msg, "invalid_credentials"):
		return domain.ErrInvalidCredentials
	case strings.Contains(msg, "already registered"), strings.Contains(msg, "user_already_exists"):
		return domain.ErrUserAlreadyExists
	case strings.Contains(msg, "password should be at least"), strings.Contains(msg, "weak_password"):
		return domain.ErrPasswordTooShort
	case strings.Contains(msg, "401"), strings.Contains(msg, "invalid jwt"), strings.Contains(msg, "bad_jwt"):
		return domain.ErrUnauthorized
	}
	return fmt.Errorf("supabase auth: %w", errors.Join(domain.ErrInternalError, err))
}
