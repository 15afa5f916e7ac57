package actor_test

import (
	"context"
	"testing"

	"go-opsportal/internal/actor"
	actorerrors "go-opsportal/internal/actor/errors"
	actorMock "go-opsportal/internal/actor/mock"
	"go-opsportal/internal/rbac"
	"go-opsportal/internal/shared/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type serviceDeps struct {
	repo    *actorMock.MockRepository
	service actor.Service
}

func setupService(t *testing.T) serviceDeps {
	ctrl := gomock.NewController(t)
	repo := actorMock.NewMockRepository(ctrl)
	return serviceDeps{repo: repo, service: actor.NewService(repo, zap.NewNop())}
}

func TestService_Resolve(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("converts overrides", func(t *testing.T) {
		deps := setupService(t)
		deps.repo.EXPECT().FindByID(gomock.Any(), id.String()).Return(&actor.Actor{
			ID:                  id,
			Role:                "staff",
			Status:              "active",
			PermissionOverrides: datatypes.JSONMap{"report.view": true, "task.create": false},
		}, nil)

		got, err := deps.service.Resolve(ctx, id.String())

		require.NoError(t, err)
		assert.Equal(t, rbac.RoleStaff, got.Role)
		assert.True(t, rbac.EffectivePermission(got, rbac.ReportView))
		assert.False(t, rbac.EffectivePermission(got, rbac.TaskCreate))
	})

	t.Run("unknown id", func(t *testing.T) {
		deps := setupService(t)
		deps.repo.EXPECT().FindByID(gomock.Any(), id.String()).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Resolve(ctx, id.String())
		assert.ErrorIs(t, err, actorerrors.ErrActorNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		deps := setupService(t)
		_, err := deps.service.Resolve(ctx, "nope")
		assert.ErrorIs(t, err, actorerrors.ErrInvalidActorID)
	})

	t.Run("non boolean override is corrupt", func(t *testing.T) {
		deps := setupService(t)
		deps.repo.EXPECT().FindByID(gomock.Any(), id.String()).Return(&actor.Actor{
			ID:                  id,
			Role:                "staff",
			Status:              "active",
			PermissionOverrides: datatypes.JSONMap{"report.view": "yes"},
		}, nil)

		_, err := deps.service.Resolve(ctx, id.String())
		assert.ErrorIs(t, err, actorerrors.ErrCorruptActor)
	})

	t.Run("unknown role is corrupt", func(t *testing.T) {
		deps := setupService(t)
		deps.repo.EXPECT().FindByID(gomock.Any(), id.String()).Return(&actor.Actor{
			ID: id, Role: "owner", Status: "active",
		}, nil)

		_, err := deps.service.Resolve(ctx, id.String())
		assert.ErrorIs(t, err, actorerrors.ErrCorruptActor)
	})
}

func TestService_UpdateOverrides(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	admin := rbac.Actor{ID: uuid.NewString(), Role: rbac.RoleAdmin, Status: rbac.StatusActive}
	manager := rbac.Actor{ID: uuid.NewString(), Role: rbac.RoleManager, Status: rbac.StatusActive}

	t.Run("admin replaces overrides", func(t *testing.T) {
		deps := setupService(t)
		req := actor.UpdateOverridesRequest{Overrides: map[string]bool{"report.create": true}}

		gomock.InOrder(
			deps.repo.EXPECT().FindByID(gomock.Any(), id.String()).Return(&actor.Actor{ID: id, Role: "staff", Status: "active"}, nil),
			deps.repo.EXPECT().UpdateOverrides(gomock.Any(), id.String(), req.Overrides).Return(nil),
			deps.repo.EXPECT().FindByID(gomock.Any(), id.String()).Return(&actor.Actor{
				ID: id, Role: "staff", Status: "active",
				PermissionOverrides: datatypes.JSONMap{"report.create": true},
			}, nil),
		)

		resp, err := deps.service.UpdateOverrides(ctx, admin, id.String(), req)

		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"report.create": true}, resp.PermissionOverrides)
		assert.Contains(t, resp.Permissions, "report.create")
	})

	t.Run("non admin is forbidden", func(t *testing.T) {
		deps := setupService(t)
		_, err := deps.service.UpdateOverrides(ctx, manager, id.String(), actor.UpdateOverridesRequest{})
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		deps := setupService(t)
		_, err := deps.service.UpdateOverrides(ctx, admin, id.String(), actor.UpdateOverridesRequest{
			Overrides: map[string]bool{"payroll.run": true},
		})
		assert.ErrorIs(t, err, actorerrors.ErrUnknownPermission)
	})
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	admin := rbac.Actor{ID: uuid.NewString(), Role: rbac.RoleAdmin, Status: rbac.StatusActive}

	t.Run("suspended actor loses every permission", func(t *testing.T) {
		deps := setupService(t)
		overrides := datatypes.JSONMap{"report.create": true}

		gomock.InOrder(
			deps.repo.EXPECT().FindByID(gomock.Any(), id.String()).Return(&actor.Actor{ID: id, Role: "manager", Status: "active", PermissionOverrides: overrides}, nil),
			deps.repo.EXPECT().UpdateStatus(gomock.Any(), id.String(), "suspended").Return(nil),
			deps.repo.EXPECT().FindByID(gomock.Any(), id.String()).Return(&actor.Actor{ID: id, Role: "manager", Status: "suspended", PermissionOverrides: overrides}, nil),
			deps.repo.EXPECT().FindByID(gomock.Any(), id.String()).Return(&actor.Actor{ID: id, Role: "manager", Status: "suspended", PermissionOverrides: overrides}, nil),
		)

		resp, err := deps.service.UpdateStatus(ctx, admin, id.String(), actor.UpdateStatusRequest{Status: "suspended"})
		require.NoError(t, err)
		assert.Equal(t, "suspended", resp.Status)
		assert.Empty(t, resp.Permissions)

		resolved, err := deps.service.Resolve(ctx, id.String())
		require.NoError(t, err)
		assert.False(t, rbac.EffectivePermission(resolved, rbac.ReportCreate))
		assert.False(t, rbac.CanAuthorize(resolved, []rbac.Role{rbac.RoleManager}, rbac.LeaveApprove))
	})

	t.Run("non admin is forbidden", func(t *testing.T) {
		deps := setupService(t)
		manager := rbac.Actor{ID: uuid.NewString(), Role: rbac.RoleManager, Status: rbac.StatusActive}
		_, err := deps.service.UpdateStatus(ctx, manager, id.String(), actor.UpdateStatusRequest{Status: "suspended"})
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("unknown status", func(t *testing.T) {
		deps := setupService(t)
		_, err := deps.service.UpdateStatus(ctx, admin, id.String(), actor.UpdateStatusRequest{Status: "banned"})
		assert.ErrorIs(t, err, actorerrors.ErrInvalidStatus)
	})

	t.Run("row vanished", func(t *testing.T) {
		deps := setupService(t)
		deps.repo.EXPECT().FindByID(gomock.Any(), id.String()).Return(&actor.Actor{ID: id, Role: "staff", Status: "active"}, nil)
		deps.repo.EXPECT().UpdateStatus(gomock.Any(), id.String(), "inactive").Return(gorm.ErrRecordNotFound)

		_, err := deps.service.UpdateStatus(ctx, admin, id.String(), actor.UpdateStatusRequest{Status: "inactive"})
		assert.ErrorIs(t, err, actorerrors.ErrActorNotFound)
	})
}

func TestService_GetByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	self := rbac.Actor{ID: id.String(), Role: rbac.RoleStaff, Status: rbac.StatusActive}
	other := rbac.Actor{ID: uuid.NewString(), Role: rbac.RoleManager, Status: rbac.StatusActive}

	t.Run("self", func(t *testing.T) {
		deps := setupService(t)
		deps.repo.EXPECT().FindByID(gomock.Any(), id.String()).Return(&actor.Actor{ID: id, Role: "staff", Status: "active"}, nil)

		resp, err := deps.service.GetByID(ctx, self, id.String())
		require.NoError(t, err)
		assert.Contains(t, resp.Permissions, "leave.create")
		assert.NotContains(t, resp.Permissions, "leave.approve")
	})

	t.Run("other non admin", func(t *testing.T) {
		deps := setupService(t)
		_, err := deps.service.GetByID(ctx, other, id.String())
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})
}
