package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"task_manager/internal/models"
)

// ErrUnauthorized is matched by every *UnauthorizedError.
var ErrUnauthorized = errors.New("unauthorized")

// Reasons carried by UnauthorizedError. Token failure kinds are collapsed into
// ReasonInvalidToken so expired and forged tokens look the same to a client.
const (
	ReasonMissingToken = "missing token"
	ReasonInvalidToken = "invalid or expired token"
	ReasonUserNotFound = "user not found"
)

// UnauthorizedError is the only failure a caller of Resolve can act on.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string { return "unauthorized: " + e.Reason }

// Is makes errors.Is(err, ErrUnauthorized) true.
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// TokenVerifier turns a token into its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserFinder looks a user up by exact username. A missing user is (nil, nil).
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// SessionResolver maps a bearer token to the user it was issued for.
// Nothing is cached: every call verifies the token and hits the directory.
type SessionResolver struct {
	tokens TokenVerifier
	users  UserFinder
}

func NewSessionResolver(tokens TokenVerifier, users UserFinder) *SessionResolver {
	return &SessionResolver{tokens: tokens, users: users}
}

// Resolve returns the user behind token, an *UnauthorizedError, or a wrapped
// directory error when the lookup itself failed.
func (r *SessionResolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, &UnauthorizedError{Reason: ReasonMissingToken}
	}

	username, err := r.tokens.Verify(token)
	if err != nil {
		return nil, &UnauthorizedError{Reason: ReasonInvalidToken}
	}

	u, err := r.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolve session for %q: %w", username, err)
	}
	// deactivated accounts are indistinguishable from deleted ones
	if u == nil || !u.IsActive {
		return nil, &UnauthorizedError{Reason: ReasonUserNotFound}
	}
	return u, nil
}

// BearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively; any other shape yields "".
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
