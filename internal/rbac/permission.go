package rbac

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Role string

const (
	RoleAdmin          Role = "admin"
	RoleManager        Role = "manager"
	RoleDepartmentHead Role = "department_head"
	RoleStaff          Role = "staff"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleDepartmentHead, RoleStaff:
		return true
	}
	return false
}

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// Permission is a key from the closed set below, formatted as resource.action.
type Permission string

const (
	ProfileView      Permission = "profile.view"
	ProfileEdit      Permission = "profile.edit"
	TaskView         Permission = "task.view"
	TaskCreate       Permission = "task.create"
	TaskEdit         Permission = "task.edit"
	TaskAssign       Permission = "task.assign"
	TaskDelete       Permission = "task.delete"
	DepartmentView   Permission = "department.view"
	DepartmentManage Permission = "department.manage"
	ReportView       Permission = "report.view"
	ReportCreate     Permission = "report.create"
	ReportEdit       Permission = "report.edit"
	AttendanceView   Permission = "attendance.view"
	AttendanceManage Permission = "attendance.manage"
	LeaveView        Permission = "leave.view"
	LeaveCreate      Permission = "leave.create"
	LeaveEdit        Permission = "leave.edit"
	LeaveApprove     Permission = "leave.approve"
	LeaveManage      Permission = "leave.manage"
	MemoView         Permission = "memo.view"
	MemoCreate       Permission = "memo.create"
)

var allPermissions = []Permission{
	ProfileView, ProfileEdit,
	TaskView, TaskCreate, TaskEdit, TaskAssign, TaskDelete,
	DepartmentView, DepartmentManage,
	ReportView, ReportCreate, ReportEdit,
	AttendanceView, AttendanceManage,
	LeaveView, LeaveCreate, LeaveEdit, LeaveApprove, LeaveManage,
	MemoView, MemoCreate,
}

var knownPermissions = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(allPermissions))
	for _, p := range allPermissions {
		m[p] = struct{}{}
	}
	return m
}()

var ErrUnknownPermission = errors.New("unknown permission key")

func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

func (p Permission) IsValid() bool {
	_, ok := knownPermissions[p]
	return ok
}

// Split returns the resource and action halves of the key.
func (p Permission) Split() (resource, action string) {
	resource, action, _ = strings.Cut(string(p), ".")
	return resource, action
}

func ParsePermission(key string) (Permission, error) {
	p := Permission(strings.TrimSpace(key))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPermission, key)
	}
	return p, nil
}

var staffDefaults = []Permission{
	ProfileView, ProfileEdit,
	TaskView, TaskCreate,
	DepartmentView,
	AttendanceView,
	LeaveView, LeaveCreate,
}

var managerDefaults = append(append([]Permission{}, staffDefaults...),
	TaskEdit, TaskAssign,
	ReportView,
	LeaveEdit, LeaveApprove, LeaveManage,
)

var departmentHeadDefaults = append(append([]Permission{}, managerDefaults...),
	ReportCreate, ReportEdit,
	AttendanceManage,
)

var roleDefaults = map[Role]map[Permission]bool{
	RoleStaff:          toSet(staffDefaults),
	RoleManager:        toSet(managerDefaults),
	RoleDepartmentHead: toSet(departmentHeadDefaults),
	RoleAdmin:          toSet(allPermissions),
}

func toSet(perms []Permission) map[Permission]bool {
	m := make(map[Permission]bool, len(perms))
	for _, p := range perms {
		m[p] = true
	}
	return m
}

// DefaultPermissions lists the role-default keys in canonical order.
func DefaultPermissions(role Role) []Permission {
	set := roleDefaults[role]
	out := make([]Permission, 0, len(set))
	for _, p := range allPermissions {
		if set[p] {
			out = append(out, p)
		}
	}
	return out
}

// Actor is the authenticated principal an operation runs as. Overrides are
// keyed by the closed permission set; use ValidateOverrides on raw input.
type Actor struct {
	ID        string
	Role      Role
	Status    Status
	Overrides map[Permission]bool
}

func (a Actor) IsActive() bool { return a.Status == StatusActive }

func (a Actor) IsAdmin() bool { return a.IsActive() && a.Role == RoleAdmin }

// ValidateOverrides converts a raw override map and rejects unknown keys.
func ValidateOverrides(raw map[string]bool) (map[Permission]bool, error) {
	out := make(map[Permission]bool, len(raw))
	var unknown []string
	for k, v := range raw {
		p := Permission(k)
		if !p.IsValid() {
			unknown = append(unknown, k)
			continue
		}
		out[p] = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s", ErrUnknownPermission, strings.Join(unknown, ", "))
	}
	return out, nil
}

func EffectivePermission(actor Actor, perm Permission) bool {
	if !actor.IsActive() {
		return false
	}
	if actor.Role == RoleAdmin {
		return true
	}
	if v, ok := actor.Overrides[perm]; ok {
		return v
	}
	return roleDefaults[actor.Role][perm]
}

func HasAnyPermission(actor Actor, perms ...Permission) bool {
	if actor.IsAdmin() {
		return true
	}
	for _, p := range perms {
		if EffectivePermission(actor, p) {
			return true
		}
	}
	return false
}

func HasAllPermissions(actor Actor, perms ...Permission) bool {
	if actor.IsAdmin() {
		return true
	}
	if !actor.IsActive() {
		return false
	}
	for _, p := range perms {
		if !EffectivePermission(actor, p) {
			return false
		}
	}
	return true
}

// CanAuthorize requires the actor's role to be allowed for the action. Admins
// and managers skip the permission check but never the role check.
func CanAuthorize(actor Actor, allowedRoles []Role, perm Permission) bool {
	if !actor.IsActive() {
		return false
	}
	roleAllowed := false
	for _, r := range allowedRoles {
		if r == actor.Role {
			roleAllowed = true
			break
		}
	}
	if !roleAllowed {
		return false
	}
	if actor.Role == RoleAdmin || actor.Role == RoleManager {
		return true
	}
	return EffectivePermission(actor, perm)
}

// EffectivePermissions evaluates every known key for the actor.
func EffectivePermissions(actor Actor) map[Permission]bool {
	out := make(map[Permission]bool, len(allPermissions))
	for _, p := range allPermissions {
		out[p] = EffectivePermission(actor, p)
	}
	return out
}
