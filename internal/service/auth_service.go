package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"unicode/utf8"

	"task_manager/internal/auth"
	"task_manager/internal/logger"
	"task_manager/internal/models"
	"task_manager/internal/repository"
)

const (
	maxUsernameLen = 50
	maxEmailLen    = 100
)

// AuthService handles registration, login and session resolution.
type AuthService struct {
	users    repository.UserDirectory
	hasher   *auth.Hasher
	tokens   *auth.TokenManager
	resolver *auth.SessionResolver
	rec      *recorder
	log      *logger.Logger

	// hash compared against when the username is unknown, so both failure
	// paths pay for one bcrypt comparison
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users repository.UserDirectory, hasher *auth.Hasher, tokens *auth.TokenManager, rec *recorder, log *logger.Logger) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		resolver: auth.NewSessionResolver(tokens, users),
		rec:      rec,
		log:      logger.OrNop(log),
	}
}

// Register creates an active user and returns a token for it. A taken
// username or email yields ErrUserExists; the unique constraints decide.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	username, email, err := validateRegistration(in)
	if err != nil {
		return "", err
	}

	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmptyPassword) {
			return "", fmt.Errorf("%w: password is required", ErrInvalidInput)
		}
		return "", err
	}

	u, err := s.users.Insert(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("register %q: %w", username, err)
	}

	token, err := s.tokens.Issue(u.Username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	s.log.Infow("auth_registered", "user_id", u.ID, "username", u.Username)
	s.rec.record(ctx, u.ID, models.EventRegister, "user registered", nil)
	return token, nil
}

func validateRegistration(in RegisterInput) (username, email string, err error) {
	username = strings.TrimSpace(in.Username)
	email = strings.TrimSpace(in.Email)

	switch {
	case username == "":
		return "", "", fmt.Errorf("%w: username is required", ErrInvalidInput)
	case utf8.RuneCountInString(username) > maxUsernameLen:
		return "", "", fmt.Errorf("%w: username is longer than %d characters", ErrInvalidInput, maxUsernameLen)
	case email == "":
		return "", "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	case utf8.RuneCountInString(email) > maxEmailLen:
		return "", "", fmt.Errorf("%w: email is longer than %d characters", ErrInvalidInput, maxEmailLen)
	}
	addr, perr := mail.ParseAddress(email)
	if perr != nil || addr.Address != email {
		return "", "", fmt.Errorf("%w: email is not a valid address", ErrInvalidInput)
	}
	return username, email, nil
}

// Login returns a fresh token. Unknown user, inactive user and wrong password
// all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("login %q: %w", username, err)
	}
	if u == nil {
		s.hasher.VerifyPassword(password, s.fallbackHash())
		return "", ErrInvalidCredentials
	}
	if !s.hasher.VerifyPassword(password, u.PasswordHash) || !u.IsActive {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.Username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	s.rec.record(ctx, u.ID, models.EventLogin, "user logged in", nil)
	return token, nil
}

// Authenticate resolves a bearer token to its user on every call.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	return s.resolver.Resolve(ctx, token)
}

func (s *AuthService) fallbackHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.HashPassword("not-a-real-password")
		if err != nil {
			s.log.Errorw("auth_dummy_hash_failed", "err", err)
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
