package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the lifetime of an issued session token.
const DefaultTokenTTL = 30 * time.Minute

// MinSecretLength is the shortest accepted signing secret, in bytes.
const MinSecretLength = 32

// Token verification failures. They stay inside the auth core; callers at the
// HTTP boundary only ever see ErrUnauthorized.
var (
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrMalformedClaims  = errors.New("malformed token claims")
)

// TokenConfig configures a TokenManager.
type TokenConfig struct {
	Secret    []byte
	Algorithm string // HS256 | HS384 | HS512
	TTL       time.Duration
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) { m.now = now }
}

// TokenManager issues and verifies stateless, HMAC-signed JWTs whose subject is
// a username. Nothing is stored server side: a token lives until it expires.
type TokenManager struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager validates cfg and returns a ready TokenManager.
func NewTokenManager(cfg TokenConfig, opts ...TokenOption) (*TokenManager, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("signing secret must be at least %d bytes, got %d", MinSecretLength, len(cfg.Secret))
	}
	method, err := hmacMethod(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	if ttl < 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	m := &TokenManager{
		secret: append([]byte(nil), cfg.Secret...),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// hmacMethod maps an algorithm name to a symmetric signing method.
func hmacMethod(alg string) (*jwt.SigningMethodHMAC, error) {
	if alg == "" {
		return jwt.SigningMethodHS256, nil
	}
	m, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q: only HS256, HS384, HS512", alg)
	}
	return m, nil
}

// TTL returns the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue returns a signed token for subject expiring TTL from now.
func (m *TokenManager) Issue(subject string) (string, error) {
	if subject == "" {
		return "", ErrMalformedClaims
	}
	now := m.now()
	token := jwt.NewWithClaims(m.method, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		ID:        uuid.NewString(),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, then expiry, then the subject, and returns the
// subject. The error is one of ErrInvalidSignature, ErrExpired, ErrMalformedClaims.
func (m *TokenManager) Verify(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrExpired
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing), errors.Is(err, jwt.ErrTokenInvalidClaims):
		// claims are validated only after the signature checked out
		return "", ErrMalformedClaims
	default:
		// malformed input, foreign algorithm or a signature mismatch
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if claims.Subject == "" {
		return "", ErrMalformedClaims
	}
	return claims.Subject, nil
}
