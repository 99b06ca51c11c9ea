package ports

import (
	"context"

	"github.com/choafros/jdm-vault/internal/core/domain"
)

// UserRepository defines the credential store.
type UserRepository interface {
	// Create persists a new user and returns it with its store-assigned ID.
	// Returns domain.ErrDuplicateUsername when the username is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByUsername returns domain.ErrUserNotFound when no user matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// DeleteByID returns domain.ErrUserNotFound when nothing was deleted.
	DeleteByID(ctx context.Context, id string) error
}

// AuditRepository persists authentication audit events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}
