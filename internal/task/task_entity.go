package task

import (
	"time"

	"go-opsportal/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AssignmentLevel string

const (
	AssignmentInitial    AssignmentLevel = "initial"
	AssignmentDelegation AssignmentLevel = "delegation"
)

type AssignmentEntry struct {
	AssignedBy       string          `json:"assigned_by"`
	AssignedTo       string          `json:"assigned_to"`
	PreviousAssignee string          `json:"previous_assignee,omitempty"`
	AssignmentLevel  AssignmentLevel `json:"assignment_level"`
	Reason           string          `json:"reason,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
}

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string     `gorm:"type:varchar(200);not null"`
	Description string     `gorm:"type:text"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null;index"`
	DueDate     *time.Time `gorm:"type:date"`

	AssignedTo        datatypes.JSONSlice[string]                `gorm:"type:jsonb;not null"`
	ApprovalRequired  bool                                       `gorm:"not null;default:false"`
	Approvers         datatypes.JSONSlice[string]                `gorm:"type:jsonb;not null"`
	ApprovalHistory   datatypes.JSONSlice[workflow.HistoryEntry] `gorm:"type:jsonb;not null"`
	AssignmentHistory datatypes.JSONSlice[AssignmentEntry]       `gorm:"type:jsonb;not null"`

	Version   int64 `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Task) TableName() string { return "tasks" }

// ApprovalStatus is derived from the approval history: the first decision
// wins, and tasks that need no approval count as approved.
func (t Task) ApprovalStatus() workflow.Status {
	return workflow.SingleRoundStatus(t.ApprovalRequired, t.ApprovalHistory)
}

func (t Task) IsAssignee(id string) bool {
	return contains(t.AssignedTo, id)
}

func (t Task) IsApprover(id string) bool {
	return contains(t.Approvers, id)
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
