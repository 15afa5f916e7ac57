package actor

import (
	"fmt"
	"time"

	"go-opsportal/internal/rbac"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actor is the persisted principal behind an authenticated request.
type Actor struct {
	ID                  uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FullName            string            `gorm:"type:varchar(150);not null"`
	Email               string            `gorm:"type:varchar(150);not null;uniqueIndex:uq_actors_email"`
	DepartmentID        *uuid.UUID        `gorm:"type:uuid;index"`
	Role                string            `gorm:"type:varchar(30);not null;default:'staff'"`
	Status              string            `gorm:"type:varchar(20);not null;default:'active'"`
	PermissionOverrides datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Actor) TableName() string { return "actors" }

// ToRBAC converts the row into the value the permission model works on.
// Unknown roles, statuses or override keys are rejected.
func (a Actor) ToRBAC() (rbac.Actor, error) {
	role := rbac.Role(a.Role)
	if !role.IsValid() {
		return rbac.Actor{}, fmt.Errorf("actor %s: unknown role %q", a.ID, a.Role)
	}
	status := rbac.Status(a.Status)
	if !status.IsValid() {
		return rbac.Actor{}, fmt.Errorf("actor %s: unknown status %q", a.ID, a.Status)
	}

	raw := make(map[string]bool, len(a.PermissionOverrides))
	for k, v := range a.PermissionOverrides {
		b, ok := v.(bool)
		if !ok {
			return rbac.Actor{}, fmt.Errorf("actor %s: override %q is not a boolean", a.ID, k)
		}
		raw[k] = b
	}
	overrides, err := rbac.ValidateOverrides(raw)
	if err != nil {
		return rbac.Actor{}, fmt.Errorf("actor %s: %w", a.ID, err)
	}

	return rbac.Actor{
		ID:        a.ID.String(),
		Role:      role,
		Status:    status,
		Overrides: overrides,
	}, nil
}
