package service

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/websocket"
)

// AuthService handles authentication-related business logic
type AuthService struct {
	eventSink
	provider         domain.AuthProvider
	categories       *CategoryService
	passwordRedirect string
}

// NewAuthService creates a new AuthService
func NewAuthService(provider domain.AuthProvider, categories *CategoryService, passwordRedirect string) *AuthService {
	return &AuthService{
		provider:         provider,
		categories:       categories,
		passwordRedirect: passwordRedirect,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", domain.ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", domain.ErrInvalidInput
	}
	return email, nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < domain.MinPasswordLength {
		return domain.ErrPasswordTooShort
	}
	return nil
}

// SignUp registers a new account. The username is kept in the user metadata.
func (s *AuthService) SignUp(ctx context.Context, email, password, username string) (*domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	user, err := s.provider.SignUp(ctx, email, password, strings.TrimSpace(username))
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("Sign up failed")
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Msg("User signed up")
	return user, nil
}

// SignIn exchanges credentials for a session
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	session, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("Sign in failed")
		return nil, err
	}

	log.Info().Str("user_id", session.User.ID.String()).Msg("User signed in")
	s.publishEvent(session.User.ID, websocket.SessionSignedIn(session.User))
	return session, nil
}

// SignOut revokes the token and clears the user's stored categories. The
// store is per user, so every device falls back to the defaults.
func (s *AuthService) SignOut(ctx context.Context, userID uuid.UUID, accessToken string) error {
	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to sign out")
		return err
	}

	if s.categories != nil {
		if err := s.categories.Reset(ctx, userID); err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to clear stored categories")
		}
	}

	log.Info().Str("user_id", userID.String()).Msg("User signed out")
	s.publishEvent(userID, websocket.SessionSignedOut(map[string]string{"userId": userID.String()}))
	return nil
}

// RequestPasswordReset sends a reset link to the email
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if err := s.provider.RequestPasswordReset(ctx, email, s.passwordRedirect); err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to request password reset")
		return err
	}
	return nil
}

// UpdatePassword sets a new password for the signed-in user
func (s *AuthService) UpdatePassword(ctx context.Context, userID uuid.UUID, accessToken, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	if err := s.provider.UpdatePassword(ctx, accessToken, password); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to update password")
		return err
	}

	log.Info().Str("user_id", userID.String()).Msg("Password updated")
	s.publishEvent(userID, websocket.SessionPasswordUpdated(map[string]string{"userId": userID.String()}))
	return nil
}
