package leave

type SubmitLeaveRequest struct {
	// EmployeeID defaults to the caller. Filing for someone else needs
	// leave.manage.
	EmployeeID string `json:"employee_id" binding:"omitempty,uuid"`
	LeaveType  string `json:"leave_type" binding:"required,max=30"`
	StartDate  string `json:"start_date" binding:"required,isodate"`
	EndDate    string `json:"end_date" binding:"required,isodate"`
	HalfDay    bool   `json:"half_day"`
	Reason     string `json:"reason"`
	// Approvers optionally pins a step to a named actor, keyed by role.
	Approvers map[string]string `json:"approvers"`
}

type DecisionRequest struct {
	Order    *int   `json:"order" binding:"required,min=0"`
	Comments string `json:"comments" binding:"max=1000"`
}

type ListLeaveRequest struct {
	EmployeeID      string `form:"employee_id" binding:"omitempty,uuid"`
	IncludeInactive bool   `form:"include_inactive"`
	Page            int    `form:"page,default=1" binding:"min=1"`
	Limit           int    `form:"limit,default=20" binding:"min=1,max=100"`
}

type ApprovalStepResponse struct {
	Order        int     `json:"order"`
	ApproverRole string  `json:"approver_role"`
	ApproverRef  string  `json:"approver_ref,omitempty"`
	Status       string  `json:"status"`
	Comments     string  `json:"comments,omitempty"`
	ActionDate   *string `json:"action_date,omitempty"`
}

type LeaveResponse struct {
	ID               string                 `json:"id"`
	EmployeeID       string                 `json:"employee_id"`
	LeaveType        string                 `json:"leave_type"`
	StartDate        string                 `json:"start_date"`
	EndDate          string                 `json:"end_date"`
	TotalDays        string                 `json:"total_days"`
	Reason           string                 `json:"reason"`
	Status           string                 `json:"status"`
	ApprovalWorkflow []ApprovalStepResponse `json:"approval_workflow"`
	IsActive         bool                   `json:"is_active"`
	CancelledBy      *string                `json:"cancelled_by,omitempty"`
	CancelledAt      *string                `json:"cancelled_at,omitempty"`
	CreatedBy        string                 `json:"created_by"`
	Version          int64                  `json:"version"`
}
