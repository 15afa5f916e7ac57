package actor

import (
	"context"
	"errors"
	"sort"

	actorerrors "go-opsportal/internal/actor/errors"
	"go-opsportal/internal/rbac"
	"go-opsportal/internal/shared/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=actor_service.go -destination=mock/actor_service_mock.go -package=mock
type Service interface {
	// Resolve loads the permission-model view of an actor.
	Resolve(ctx context.Context, id string) (rbac.Actor, error)
	GetByID(ctx context.Context, caller rbac.Actor, id string) (ActorResponse, error)
	UpdateOverrides(ctx context.Context, caller rbac.Actor, id string, req UpdateOverridesRequest) (ActorResponse, error)
	UpdateStatus(ctx context.Context, caller rbac.Actor, id string, req UpdateStatusRequest) (ActorResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("actor.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("actor.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) load(ctx context.Context, id string) (*Actor, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, actorerrors.ErrInvalidActorID
	}
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, actorerrors.ErrActorNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *service) Resolve(ctx context.Context, id string) (rbac.Actor, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return rbac.Actor{}, err
	}
	out, err := a.ToRBAC()
	if err != nil {
		s.logger.Error("stored actor failed validation", zap.String("actor_id", id), zap.Error(err))
		return rbac.Actor{}, actorerrors.ErrCorruptActor.WithCause(err)
	}
	return out, nil
}

func (s *service) GetByID(ctx context.Context, caller rbac.Actor, id string) (ActorResponse, error) {
	if caller.ID != id && !caller.IsAdmin() {
		return ActorResponse{}, apperror.ErrForbidden
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return ActorResponse{}, err
	}
	return s.toResponse(a)
}

// UpdateOverrides replaces the actor's permission overrides. Admin only.
func (s *service) UpdateOverrides(ctx context.Context, caller rbac.Actor, id string, req UpdateOverridesRequest) (ActorResponse, error) {
	if !caller.IsAdmin() {
		return ActorResponse{}, apperror.ErrForbidden
	}
	if _, err := rbac.ValidateOverrides(req.Overrides); err != nil {
		return ActorResponse{}, actorerrors.ErrUnknownPermission.WithCause(err)
	}
	if _, err := s.load(ctx, id); err != nil {
		return ActorResponse{}, err
	}

	if err := s.repo.UpdateOverrides(ctx, id, req.Overrides); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ActorResponse{}, actorerrors.ErrActorNotFound
		}
		return ActorResponse{}, err
	}

	s.logger.Info("permission overrides updated",
		zap.String("actor_id", id),
		zap.String("updated_by", caller.ID),
		zap.Int("override_count", len(req.Overrides)),
	)

	a, err := s.load(ctx, id)
	if err != nil {
		return ActorResponse{}, err
	}
	return s.toResponse(a)
}

// UpdateStatus activates, deactivates or suspends an actor. Admin only.
func (s *service) UpdateStatus(ctx context.Context, caller rbac.Actor, id string, req UpdateStatusRequest) (ActorResponse, error) {
	if !caller.IsAdmin() {
		return ActorResponse{}, apperror.ErrForbidden
	}
	if !rbac.Status(req.Status).IsValid() {
		return ActorResponse{}, actorerrors.ErrInvalidStatus
	}
	if _, err := s.load(ctx, id); err != nil {
		return ActorResponse{}, err
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ActorResponse{}, actorerrors.ErrActorNotFound
		}
		return ActorResponse{}, err
	}

	s.logger.Info("actor status updated",
		zap.String("actor_id", id),
		zap.String("updated_by", caller.ID),
		zap.String("status", req.Status),
	)

	a, err := s.load(ctx, id)
	if err != nil {
		return ActorResponse{}, err
	}
	return s.toResponse(a)
}

func (s *service) toResponse(a *Actor) (ActorResponse, error) {
	ra, err := a.ToRBAC()
	if err != nil {
		return ActorResponse{}, actorerrors.ErrCorruptActor.WithCause(err)
	}

	overrides := make(map[string]bool, len(ra.Overrides))
	for p, v := range ra.Overrides {
		overrides[string(p)] = v
	}
	perms := make([]string, 0)
	for p, ok := range rbac.EffectivePermissions(ra) {
		if ok {
			perms = append(perms, string(p))
		}
	}
	sort.Strings(perms)

	return ActorResponse{
		ID:                  a.ID.String(),
		FullName:            a.FullName,
		Email:               a.Email,
		Role:                a.Role,
		Status:              a.Status,
		PermissionOverrides: overrides,
		Permissions:         perms,
	}, nil
}
