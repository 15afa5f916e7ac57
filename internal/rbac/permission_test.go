package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectivePermission_InactiveActorsHaveNothing(t *testing.T) {
	allTrue := make(map[Permission]bool, len(allPermissions))
	for _, p := range allPermissions {
		allTrue[p] = true
	}

	for _, status := range []Status{StatusInactive, StatusSuspended} {
		for _, role := range []Role{RoleAdmin, RoleManager, RoleDepartmentHead, RoleStaff} {
			actor := Actor{ID: "a", Role: role, Status: status, Overrides: allTrue}
			for _, p := range allPermissions {
				assert.False(t, EffectivePermission(actor, p), "%s/%s/%s", status, role, p)
			}
			assert.False(t, HasAnyPermission(actor, allPermissions...))
			assert.False(t, HasAllPermissions(actor, LeaveView))
		}
	}
}

func TestEffectivePermission_MatchesRoleDefaults(t *testing.T) {
	for _, role := range []Role{RoleManager, RoleDepartmentHead, RoleStaff} {
		actor := Actor{ID: "a", Role: role, Status: StatusActive}
		for _, p := range allPermissions {
			assert.Equal(t, roleDefaults[role][p], EffectivePermission(actor, p), "%s/%s", role, p)
		}
	}
}

func TestEffectivePermission_AdminAlwaysTrue(t *testing.T) {
	actor := Actor{ID: "a", Role: RoleAdmin, Status: StatusActive, Overrides: map[Permission]bool{LeaveApprove: false}}
	for _, p := range allPermissions {
		assert.True(t, EffectivePermission(actor, p))
	}
}

func TestEffectivePermission_Overrides(t *testing.T) {
	staff := Actor{ID: "s", Role: RoleStaff, Status: StatusActive, Overrides: map[Permission]bool{
		LeaveApprove: true,
		LeaveCreate:  false,
	}}

	assert.True(t, EffectivePermission(staff, LeaveApprove))
	assert.False(t, EffectivePermission(staff, LeaveCreate))
	assert.True(t, EffectivePermission(staff, LeaveView))
}

func TestRoleDefaults(t *testing.T) {
	staff := toSet(DefaultPermissions(RoleStaff))
	manager := toSet(DefaultPermissions(RoleManager))
	head := toSet(DefaultPermissions(RoleDepartmentHead))

	assert.ElementsMatch(t, []Permission{
		ProfileView, ProfileEdit, TaskView, TaskCreate, DepartmentView,
		AttendanceView, LeaveView, LeaveCreate,
	}, DefaultPermissions(RoleStaff))

	for p := range staff {
		assert.True(t, manager[p], "manager missing staff key %s", p)
	}
	for p := range manager {
		assert.True(t, head[p], "department_head missing manager key %s", p)
	}

	assert.True(t, manager[LeaveApprove])
	assert.True(t, manager[LeaveManage])
	assert.False(t, manager[ReportCreate])
	assert.True(t, head[ReportCreate])
	assert.True(t, head[AttendanceManage])
	assert.False(t, head[DepartmentManage])
	assert.Len(t, DefaultPermissions(RoleAdmin), len(allPermissions))
}

func TestHasAnyAndAllPermissions(t *testing.T) {
	staff := Actor{ID: "s", Role: RoleStaff, Status: StatusActive}
	admin := Actor{ID: "a", Role: RoleAdmin, Status: StatusActive}

	assert.True(t, HasAnyPermission(staff, LeaveApprove, LeaveView))
	assert.False(t, HasAnyPermission(staff, LeaveApprove, LeaveManage))
	assert.False(t, HasAnyPermission(staff))

	assert.True(t, HasAllPermissions(staff, LeaveView, LeaveCreate))
	assert.False(t, HasAllPermissions(staff, LeaveView, LeaveApprove))

	assert.True(t, HasAnyPermission(admin))
	assert.True(t, HasAllPermissions(admin, allPermissions...))
}

func TestCanAuthorize(t *testing.T) {
	approvers := []Role{RoleManager, RoleDepartmentHead, RoleAdmin}

	tests := []struct {
		name  string
		actor Actor
		roles []Role
		want  bool
	}{
		{
			name:  "manager bypasses permission check",
			actor: Actor{Role: RoleManager, Status: StatusActive, Overrides: map[Permission]bool{LeaveApprove: false}},
			roles: approvers,
			want:  true,
		},
		{
			name:  "department head with default permission",
			actor: Actor{Role: RoleDepartmentHead, Status: StatusActive},
			roles: approvers,
			want:  true,
		},
		{
			name:  "department head with revoked permission",
			actor: Actor{Role: RoleDepartmentHead, Status: StatusActive, Overrides: map[Permission]bool{LeaveApprove: false}},
			roles: approvers,
			want:  false,
		},
		{
			name:  "staff role not allowed even with override",
			actor: Actor{Role: RoleStaff, Status: StatusActive, Overrides: map[Permission]bool{LeaveApprove: true}},
			roles: approvers,
			want:  false,
		},
		{
			name:  "admin still needs role in set",
			actor: Actor{Role: RoleAdmin, Status: StatusActive},
			roles: []Role{RoleManager},
			want:  false,
		},
		{
			name:  "suspended manager",
			actor: Actor{Role: RoleManager, Status: StatusSuspended},
			roles: approvers,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAuthorize(tt.actor, tt.roles, LeaveApprove))
		})
	}
}

func TestValidateOverrides(t *testing.T) {
	out, err := ValidateOverrides(map[string]bool{"leave.approve": true, "memo.create": false})
	require.NoError(t, err)
	assert.Equal(t, map[Permission]bool{LeaveApprove: true, MemoCreate: false}, out)

	_, err = ValidateOverrides(map[string]bool{"leave.approve": true, "manage_leaves": true, "bogus": false})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownPermission)
	assert.Contains(t, err.Error(), "bogus, manage_leaves")
}

func TestParsePermission(t *testing.T) {
	p, err := ParsePermission(" leave.manage ")
	require.NoError(t, err)
	assert.Equal(t, LeaveManage, p)

	resource, action := p.Split()
	assert.Equal(t, "leave", resource)
	assert.Equal(t, "manage", action)

	_, err = ParsePermission("leave.destroy")
	assert.ErrorIs(t, err, ErrUnknownPermission)
}
