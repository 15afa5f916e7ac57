package leave

import (
	"time"

	"go-opsportal/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type LeaveRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee_dates"`

	LeaveType string          `gorm:"type:varchar(30);not null"`
	StartDate time.Time       `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	EndDate   time.Time       `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	TotalDays decimal.Decimal `gorm:"type:numeric(8,2);not null"`
	Reason    string          `gorm:"type:text"`

	ApprovalWorkflow datatypes.JSONSlice[workflow.ApprovalStep] `gorm:"type:jsonb;not null"`

	IsActive    bool       `gorm:"not null;default:true"`
	Cancelled   bool       `gorm:"not null;default:false"`
	CancelledBy *uuid.UUID `gorm:"type:uuid"`
	CancelledAt *time.Time

	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	Version   int64     `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveRequest) TableName() string { return "leave_requests" }

func (l LeaveRequest) Chain() workflow.Chain {
	return workflow.Chain(l.ApprovalWorkflow)
}

// Status is derived from the approval chain and the cancel flag; it is
// never stored.
func (l LeaveRequest) Status() workflow.Status {
	return workflow.DeriveStatus(l.Chain(), l.Cancelled)
}

// Year is the balance year the request is charged to.
func (l LeaveRequest) Year() int {
	return l.StartDate.Year()
}

// IsApprover reports whether the actor is named on, or holds the role of,
// any step in the chain.
func (l LeaveRequest) IsApprover(actorID string, role string) bool {
	for _, s := range l.ApprovalWorkflow {
		if s.ApproverRef == actorID || (s.ApproverRef == "" && string(s.ApproverRole) == role) {
			return true
		}
	}
	return false
}
