package ports

import (
	"context"

	"github.com/choafros/jdm-vault/internal/core/domain"
)

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type TokenService interface {
	Issue(subjectID string, role domain.Role) (string, error)
	Verify(token string) (*domain.Claims, error)
}

// LoginLimiter throttles repeated failed logins for a username.
type LoginLimiter interface {
	Blocked(ctx context.Context, username string) (bool, error)
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}

// AuditRecorder accepts audit events without blocking the caller.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}

type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	EnsureAdmin(ctx context.Context, username, password string) error
}

type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Delete(ctx context.Context, id string, actor *domain.Claims) error
}
