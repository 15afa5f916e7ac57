package rbac

import (
	"sync"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	LoadRolePolicy() error
	Enforce(actor Actor, perm Permission) (bool, error)
	Describe(actor Actor) PermissionsResponse
}

type service struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   *zap.Logger
}

func NewService(enforcer *casbin.Enforcer, logger ...*zap.Logger) (Service, error) {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	s := &service{enforcer: enforcer, logger: l}
	if err := s.LoadRolePolicy(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadRolePolicy rebuilds the casbin policy from the role-default table.
// Admin has no rows; it is allowed before casbin is consulted.
func (s *service) LoadRolePolicy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enforcer.ClearPolicy()

	rules := make([][]string, 0, 64)
	for _, role := range []Role{RoleStaff, RoleManager, RoleDepartmentHead} {
		for _, p := range DefaultPermissions(role) {
			resource, action := p.Split()
			rules = append(rules, []string{string(role), resource, action})
		}
	}
	if _, err := s.enforcer.AddPolicies(rules); err != nil {
		return err
	}

	s.logger.Debug("rbac role policy loaded", zap.Int("rules", len(rules)))
	return nil
}

func (s *service) Enforce(actor Actor, perm Permission) (bool, error) {
	if !perm.IsValid() {
		return false, ErrUnknownPermission
	}
	if !actor.IsActive() {
		s.logger.Debug("rbac enforce denied inactive actor",
			zap.String("actor_id", actor.ID),
			zap.String("status", string(actor.Status)),
		)
		return false, nil
	}
	if actor.Role == RoleAdmin {
		return true, nil
	}
	if v, ok := actor.Overrides[perm]; ok {
		s.logger.Debug("rbac enforce override",
			zap.String("actor_id", actor.ID),
			zap.String("permission", string(perm)),
			zap.Bool("allowed", v),
		)
		return v, nil
	}

	resource, action := perm.Split()

	s.mu.RLock()
	allowed, err := s.enforcer.Enforce(string(actor.Role), resource, action)
	s.mu.RUnlock()
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("actor_id", actor.ID),
			zap.String("permission", string(perm)),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce result",
		zap.String("actor_id", actor.ID),
		zap.String("role", string(actor.Role)),
		zap.String("permission", string(perm)),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}

func (s *service) Describe(actor Actor) PermissionsResponse {
	effective := EffectivePermissions(actor)
	granted := make([]string, 0, len(effective))
	for _, p := range allPermissions {
		if effective[p] {
			granted = append(granted, string(p))
		}
	}
	return PermissionsResponse{
		ActorID:     actor.ID,
		Role:        string(actor.Role),
		Status:      string(actor.Status),
		Permissions: granted,
	}
}
