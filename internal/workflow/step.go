package workflow

import (
	"time"

	"go-opsportal/internal/rbac"
)

type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepApproved StepStatus = "approved"
	StepRejected StepStatus = "rejected"
)

type Decision string

const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

func (d Decision) IsValid() bool {
	return d == Approve || d == Reject
}

// Status is the derived state of the entity an approval chain gates.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

type ApprovalStep struct {
	ApproverRef  string     `json:"approver_ref"`
	ApproverRole rbac.Role  `json:"approver_role"`
	Status       StepStatus `json:"status"`
	Order        int        `json:"order"`
	Comments     string     `json:"comments,omitempty"`
	ActionDate   *time.Time `json:"action_date,omitempty"`
}

// Chain is an approval workflow kept in ascending Order.
type Chain []ApprovalStep

func (c Chain) Clone() Chain {
	out := make(Chain, len(c))
	copy(out, c)
	for i := range out {
		if out[i].ActionDate != nil {
			d := *out[i].ActionDate
			out[i].ActionDate = &d
		}
	}
	return out
}

func (c Chain) indexOf(order int) int {
	for i := range c {
		if c[i].Order == order {
			return i
		}
	}
	return -1
}

func (c Chain) rejected() bool {
	for _, s := range c {
		if s.Status == StepRejected {
			return true
		}
	}
	return false
}

// finalApproved reports whether the highest-order step is approved.
func (c Chain) finalApproved() bool {
	if len(c) == 0 {
		return false
	}
	last := c[0]
	for _, s := range c[1:] {
		if s.Order > last.Order {
			last = s
		}
	}
	return last.Status == StepApproved
}

func (c Chain) IsTerminal() bool {
	return c.rejected() || c.finalApproved()
}

// Current returns the lowest-order pending step of an open chain.
func (c Chain) Current() (ApprovalStep, bool) {
	if c.IsTerminal() {
		return ApprovalStep{}, false
	}
	found := false
	var cur ApprovalStep
	for _, s := range c {
		if s.Status != StepPending {
			continue
		}
		if !found || s.Order < cur.Order {
			cur = s
			found = true
		}
	}
	return cur, found
}

// DeriveStatus computes entity status from the chain and the cancel flag.
func DeriveStatus(c Chain, cancelled bool) Status {
	switch {
	case cancelled:
		return StatusCancelled
	case c.rejected():
		return StatusRejected
	case c.finalApproved():
		return StatusApproved
	default:
		return StatusPending
	}
}
