package workflow

import (
	"time"

	"go-opsportal/internal/rbac"
)

// Outcome describes the effect of one applied decision.
type Outcome struct {
	Chain    Chain
	Step     ApprovalStep
	Decision Decision
	Status   Status
	// Final is true when the decision closed the chain.
	Final bool
}

// Transition applies a decision to the step with the given order and returns
// the updated chain. The input chain is never modified.
//
// Checks run in this order: closed chain, step lookup, step already decided,
// actor fit, lower steps approved.
func Transition(chain Chain, order int, actor rbac.Actor, decision Decision, comments string, now time.Time) (Outcome, error) {
	if !decision.IsValid() {
		return Outcome{}, ErrInvalidDecision
	}
	if chain.IsTerminal() {
		return Outcome{}, ErrAlreadyTerminal
	}

	idx := chain.indexOf(order)
	if idx < 0 {
		return Outcome{}, ErrStepNotFound
	}
	step := chain[idx]
	if step.Status != StepPending {
		return Outcome{}, ErrAlreadyTerminal
	}

	if !canAct(step, actor) {
		return Outcome{}, ErrInvalidActor
	}

	for _, s := range chain {
		if s.Order < order && s.Status != StepApproved {
			return Outcome{}, ErrOutOfOrder
		}
	}

	next := chain.Clone()
	at := now.UTC()
	s := &next[idx]
	s.Comments = comments
	s.ActionDate = &at
	if s.ApproverRef == "" {
		s.ApproverRef = actor.ID
	}
	if decision == Approve {
		s.Status = StepApproved
	} else {
		s.Status = StepRejected
	}

	status := DeriveStatus(next, false)
	return Outcome{
		Chain:    next,
		Step:     *s,
		Decision: decision,
		Status:   status,
		Final:    status.IsTerminal(),
	}, nil
}

func canAct(step ApprovalStep, actor rbac.Actor) bool {
	if !actor.IsActive() {
		return false
	}
	if actor.Role == rbac.RoleAdmin {
		return true
	}
	if actor.Role != step.ApproverRole {
		return false
	}
	return step.ApproverRef == "" || step.ApproverRef == actor.ID
}
