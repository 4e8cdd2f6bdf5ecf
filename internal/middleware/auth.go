package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/dafibh/gastify/gastify-backend/internal/config"
	"github.com/dafibh/gastify/gastify-backend/internal/domain"
)

// UserMetadata is the free-form metadata set at sign-up
type UserMetadata struct {
	Username string `json:"username"`
}

// CustomClaims contains the Supabase-specific JWT claims
type CustomClaims struct {
	Email        string       `json:"email"`
	Role         string       `json:"role"`
	UserMetadata UserMetadata `json:"user_metadata"`
}

// Validate implements validator.CustomClaims. Only signed-in users are accepted.
func (c CustomClaims) Validate(ctx context.Context) error {
	if c.Role != "" && c.Role != "authenticated" {
		return fmt.Errorf("role %q is not allowed", c.Role)
	}
	return nil
}

// Identity is the authenticated caller of a request
type Identity struct {
	UserID    uuid.UUID
	Email     string
	Username  string
	Token     string
	ExpiresAt time.Time
}

// User converts the identity to the domain user
func (id Identity) User() *domain.User {
	return &domain.User{ID: id.UserID, Email: id.Email, Username: id.Username}
}

type identityKey struct{}

// WithIdentity returns ctx carrying id
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by Authenticate
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// AuthMiddleware provides JWT validation middleware
type AuthMiddleware struct {
	validator *validator.Validator
}

// NewAuthMiddleware creates an AuthMiddleware for a Supabase project. A JWT
// secret selects HS256; otherwise keys come from the project's JWKS endpoint.
func NewAuthMiddleware(cfg config.SupabaseConfig) (*AuthMiddleware, error) {
	issuer := cfg.Issuer()

	var (
		keyFunc   func(context.Context) (interface{}, error)
		algorithm validator.SignatureAlgorithm
	)
	if cfg.JWTSecret != "" {
		secret := []byte(cfg.JWTSecret)
		keyFunc = func(context.Context) (interface{}, error) { return secret, nil }
		algorithm = validator.HS256
	} else {
		issuerURL, err := url.Parse(issuer + "/")
		if err != nil {
			return nil, err
		}
		jwksURL, err := url.Parse(issuer + "/.well-known/jwks.json")
		if err != nil {
			return nil, err
		}
		provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute, jwks.WithCustomJWKSURI(jwksURL))
		keyFunc = provider.KeyFunc
		algorithm = validator.SignatureAlgorithm(cfg.JWTAlgorithm)
	}

	jwtValidator, err := validator.New(
		keyFunc,
		algorithm,
		issuer,
		[]string{cfg.JWTAudience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &AuthMiddleware{validator: jwtValidator}, nil
}

// identify validates a raw token and resolves its caller
func (m *AuthMiddleware) identify(ctx context.Context, token string) (Identity, error) {
	raw, err := m.validator.ValidateToken(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	claims, ok := raw.(*validator.ValidatedClaims)
	if !ok {
		return Identity{}, errors.New("unexpected claims type")
	}

	userID, err := uuid.Parse(claims.RegisteredClaims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("subject is not a user id: %w", err)
	}

	id := Identity{UserID: userID, Token: token}
	if claims.RegisteredClaims.Expiry > 0 {
		id.ExpiresAt = time.Unix(claims.RegisteredClaims.Expiry, 0).UTC()
	}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok {
		id.Email = custom.Email
		id.Username = custom.UserMetadata.Username
	}
	return id, nil
}

// VerifyToken resolves a raw token to its user. Used by the WebSocket endpoint.
func (m *AuthMiddleware) VerifyToken(ctx context.Context, token string) (uuid.UUID, error) {
	id, err := m.identify(ctx, token)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return id.UserID, nil
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate rejects requests without a valid Supabase access token and
// stores the caller's Identity on the request context
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return unauthorizedError(c, "Missing authorization header")
			}
			token, ok := bearerToken(header)
			if !ok {
				return unauthorizedError(c, "Invalid authorization header format")
			}

			req := c.Request()
			id, err := m.identify(req.Context(), token)
			if err != nil {
				log.Debug().Err(err).Str("path", req.URL.Path).Msg("Token rejected")
				return unauthorizedError(c, "Invalid token")
			}

			c.SetRequest(req.WithContext(WithIdentity(req.Context(), id)))
			return next(c)
		}
	}
}

// GetUserID returns the caller's user ID, or uuid.Nil on anonymous requests
func GetUserID(c echo.Context) uuid.UUID {
	id, _ := IdentityFrom(c.Request().Context())
	return id.UserID
}

// GetAccessToken returns the caller's raw bearer token
func GetAccessToken(c echo.Context) string {
	id, _ := IdentityFrom(c.Request().Context())
	return id.Token
}

// GetUser returns the caller as a domain user, or nil on anonymous requests
func GetUser(c echo.Context) *domain.User {
	id, ok := IdentityFrom(c.Request().Context())
	if !ok || id.UserID == uuid.Nil {
		return nil
	}
	return id.User()
}
