package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/choafros/jdm-vault/internal/core/domain"
	"github.com/choafros/jdm-vault/internal/core/ports"
	"github.com/choafros/jdm-vault/internal/pkg/metrics"
)

// AuthService implements registration and login.
type AuthService struct {
	repo    ports.UserRepository
	hasher  ports.PasswordHasher
	tokens  ports.TokenService
	limiter ports.LoginLimiter
	audit   ports.AuditRecorder
	log     zerolog.Logger

	// dummyHash is compared against when the username is unknown so both
	// failure paths pay for one hash comparison.
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenService,
	limiter ports.LoginLimiter,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		limiter: limiter,
		audit:   audit,
		log:     log,
	}
}

// Register creates a non-privileged account.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrMissingField
	}

	created, err := s.create(ctx, username, password, domain.RoleUser)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		} else {
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	s.audit.Record(domain.AuthEvent{
		Type:      domain.EventUserRegistered,
		Username:  created.Username,
		SubjectID: created.ID,
	})
	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")

	return created, nil
}

// Login verifies credentials and issues a token. Unknown usernames and wrong
// passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", domain.ErrMissingField
	}

	blocked, err := s.limiter.Blocked(ctx, username)
	if err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("login limiter check failed, continuing")
	} else if blocked {
		metrics.LoginsTotal.WithLabelValues("throttled").Inc()
		return "", domain.ErrTooManyAttempts
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("error").Inc()
			return "", fmt.Errorf("login: %w", err)
		}
		s.hasher.Verify(password, s.fallbackHash())
		return "", s.loginFailed(ctx, username, "")
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", s.loginFailed(ctx, username, user.ID)
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("login: issue token: %w", err)
	}

	if err := s.limiter.Reset(ctx, username); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("failed to reset login attempts")
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.audit.Record(domain.AuthEvent{
		Type:      domain.EventLoginSucceeded,
		Username:  user.Username,
		SubjectID: user.ID,
	})

	return token, nil
}

// EnsureAdmin creates an admin account unless the username already exists.
// An existing account is left untouched whatever its role.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return domain.ErrMissingField
	}

	existing, err := s.repo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			s.log.Warn().Str("username", username).Str("role", string(existing.Role)).
				Msg("bootstrap admin username belongs to a non-admin account")
		}
		return nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return fmt.Errorf("ensure admin: %w", err)
	}

	created, err := s.create(ctx, username, password, domain.RoleAdmin)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			return nil
		}
		return fmt.Errorf("ensure admin: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Str("username", username).Msg("admin account created")
	return nil
}

func (s *AuthService) create(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	start := time.Now()
	hash, err := s.hasher.Hash(password)
	metrics.PasswordHashDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
}

func (s *AuthService) loginFailed(ctx context.Context, username, subjectID string) error {
	if err := s.limiter.RecordFailure(ctx, username); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("failed to record login failure")
	}

	metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
	s.audit.Record(domain.AuthEvent{
		Type:      domain.EventLoginFailed,
		Username:  username,
		SubjectID: subjectID,
	})

	return domain.ErrInvalidCredentials
}

func (s *AuthService) fallbackHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("jdm-vault-unknown-user")
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to prepare fallback hash")
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
