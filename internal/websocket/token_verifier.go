package websocket

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrInvalidToken is returned when JWT validation fails
var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier resolves a bearer token to the user it was issued for.
// The HTTP auth middleware implements it so both surfaces accept the same tokens.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (uuid.UUID, error)
}

// TokenVerifierFunc adapts a function to TokenVerifier
type TokenVerifierFunc func(ctx context.Context, token string) (uuid.UUID, error)

// VerifyToken calls f
func (f TokenVerifierFunc) VerifyToken(ctx context.Context, token string) (uuid.UUID, error) {
	return f(ctx, token)
}
