package workflow

import (
	"time"

	"go-opsportal/internal/rbac"
)

// HistoryEntry records one decision on a single-round approval.
type HistoryEntry struct {
	ApproverRef string     `json:"approver_ref"`
	Status      StepStatus `json:"status"`
	Comments    string     `json:"comments,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}

// SingleRoundStatus derives the approval status of a single-round entity.
// The first recorded decision is final. Entities that need no approval are
// approved from the start.
func SingleRoundStatus(required bool, history []HistoryEntry) Status {
	if !required {
		return StatusApproved
	}
	for _, h := range history {
		switch h.Status {
		case StepApproved:
			return StatusApproved
		case StepRejected:
			return StatusRejected
		}
	}
	return StatusPending
}

// ResolveSingleRound records the first decision on a single-round approval.
// Any listed approver may decide; admins may decide regardless.
func ResolveSingleRound(history []HistoryEntry, approvers []string, actor rbac.Actor, decision Decision, comments string, now time.Time) ([]HistoryEntry, error) {
	if !decision.IsValid() {
		return nil, ErrInvalidDecision
	}
	if SingleRoundStatus(true, history).IsTerminal() {
		return nil, ErrAlreadyTerminal
	}
	if !actor.IsActive() {
		return nil, ErrInvalidActor
	}

	listed := false
	for _, a := range approvers {
		if a == actor.ID {
			listed = true
			break
		}
	}
	if !listed && actor.Role != rbac.RoleAdmin {
		return nil, ErrInvalidActor
	}

	status := StepApproved
	if decision == Reject {
		status = StepRejected
	}

	out := make([]HistoryEntry, len(history), len(history)+1)
	copy(out, history)
	return append(out, HistoryEntry{
		ApproverRef: actor.ID,
		Status:      status,
		Comments:    comments,
		Timestamp:   now.UTC(),
	}), nil
}
