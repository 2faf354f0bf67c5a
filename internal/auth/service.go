package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"college-service/internal/db"
	"college-service/internal/metrics"

	"github.com/uptrace/bun"
)

var (
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
)

type Service struct {
	tx      db.Transactor
	repo    Repository
	tokens  *TokenService
	metrics *metrics.Metrics
}

func NewService(tx db.Transactor, repo Repository, tokens *TokenService, m *metrics.Metrics) *Service {
	return &Service{
		tx:      tx,
		repo:    repo,
		tokens:  tokens,
		metrics: m,
	}
}

// Login exchanges a username/password pair for a bearer token.
// Unknown users and wrong passwords fail identically with ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	var user *User
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		var err error
		user, err = s.repo.GetByUsername(ctx, tx, username)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			burnComparison(password)
			s.metrics.College.RecordLogin(ctx, false)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(password, user.PasswordHash) {
		s.metrics.College.RecordLogin(ctx, false)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, err
	}

	s.metrics.College.RecordLogin(ctx, true)
	return &TokenResponse{
		AccessToken: token,
		TokenType:   TokenType,
		ExpiresAt:   expiresAt,
	}, nil
}

// EnsureUser creates username with password unless it already exists.
// It reports whether a row was inserted.
func (s *Service) EnsureUser(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, ErrEmptyIdentity
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}

	created := false
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		_, err := s.repo.GetByUsername(ctx, tx, username)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			return err
		}

		if err := s.repo.Create(ctx, tx, &User{Username: username, PasswordHash: hash}); err != nil {
			return fmt.Errorf("failed to create user %q: %w", username, err)
		}
		created = true
		return nil
	})
	return created, err
}

// Validate resolves a bearer token to its username.
func (s *Service) Validate(token string) (string, error) {
	return s.tokens.Validate(token)
}
