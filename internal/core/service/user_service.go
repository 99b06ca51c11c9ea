package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/choafros/jdm-vault/internal/core/domain"
	"github.com/choafros/jdm-vault/internal/core/ports"
	"github.com/choafros/jdm-vault/internal/pkg/metrics"
)

// UserService implements the admin-only user management operations.
type UserService struct {
	repo  ports.UserRepository
	audit ports.AuditRecorder
	log   zerolog.Logger
}

func NewUserService(repo ports.UserRepository, audit ports.AuditRecorder, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, audit: audit, log: log}
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Delete removes the user with the given id. Returns domain.ErrUserNotFound
// when no such user exists.
func (s *UserService) Delete(ctx context.Context, id string, actor *domain.Claims) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}

	var actorID string
	if actor != nil {
		actorID = actor.SubjectID
	}

	metrics.UsersDeletedTotal.Inc()
	s.audit.Record(domain.AuthEvent{
		Type:      domain.EventUserDeleted,
		SubjectID: id,
		ActorID:   actorID,
	})
	s.log.Info().Str("user_id", id).Str("actor_id", actorID).Msg("user deleted")

	return nil
}
