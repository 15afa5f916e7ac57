package workflow

import (
	"fmt"

	"go-opsportal/internal/rbac"

	"github.com/shopspring/decimal"
)

// Tier is one approval level. MaxDays == 0 means unbounded.
type Tier struct {
	Role    rbac.Role
	MaxDays int
}

func (t Tier) Unbounded() bool { return t.MaxDays == 0 }

func (t Tier) Covers(days decimal.Decimal) bool {
	return t.Unbounded() || days.LessThanOrEqual(decimal.NewFromInt(int64(t.MaxDays)))
}

// Policy lists tiers in ascending authority.
type Policy []Tier

func DefaultPolicy() Policy {
	return NewPolicy(14, 30)
}

func NewPolicy(managerMaxDays, departmentHeadMaxDays int) Policy {
	return Policy{
		{Role: rbac.RoleManager, MaxDays: managerMaxDays},
		{Role: rbac.RoleDepartmentHead, MaxDays: departmentHeadMaxDays},
		{Role: rbac.RoleAdmin},
	}
}

func (p Policy) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: no tiers", ErrInvalidPolicy)
	}
	seen := make(map[rbac.Role]bool, len(p))
	prev := 0
	for i, t := range p {
		if !t.Role.IsValid() {
			return fmt.Errorf("%w: tier %d has unknown role %q", ErrInvalidPolicy, i, t.Role)
		}
		if seen[t.Role] {
			return fmt.Errorf("%w: role %q appears twice", ErrInvalidPolicy, t.Role)
		}
		seen[t.Role] = true

		last := i == len(p)-1
		if last {
			if !t.Unbounded() {
				return fmt.Errorf("%w: last tier must be unbounded", ErrInvalidPolicy)
			}
			break
		}
		if t.MaxDays <= prev {
			return fmt.Errorf("%w: tier %d threshold %d must exceed %d", ErrInvalidPolicy, i, t.MaxDays, prev)
		}
		prev = t.MaxDays
	}
	return nil
}

// Tiers returns the tiers needed for a request of the given length: every
// tier up to and including the first one whose threshold covers it.
func (p Policy) Tiers(days decimal.Decimal) ([]Tier, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !days.IsPositive() {
		return nil, ErrInvalidDuration
	}
	for i, t := range p {
		if t.Covers(days) {
			return append([]Tier(nil), p[:i+1]...), nil
		}
	}
	return append([]Tier(nil), p...), nil
}

// Build constructs a pending chain for the request. approvers maps a tier
// role to the actor expected to act; an absent entry leaves the step open to
// any actor holding that role.
func Build(days decimal.Decimal, policy Policy, approvers map[rbac.Role]string) (Chain, error) {
	tiers, err := policy.Tiers(days)
	if err != nil {
		return nil, err
	}

	chain := make(Chain, 0, len(tiers))
	for i, t := range tiers {
		chain = append(chain, ApprovalStep{
			ApproverRef:  approvers[t.Role],
			ApproverRole: t.Role,
			Status:       StepPending,
			Order:        i,
		})
	}
	return chain, nil
}
