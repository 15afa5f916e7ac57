package task

type CreateTaskRequest struct {
	Title            string   `json:"title" binding:"required,max=200"`
	Description      string   `json:"description"`
	AssignedTo       []string `json:"assigned_to" binding:"required,min=1,dive,uuid"`
	ApprovalRequired bool     `json:"approval_required"`
	Approvers        []string `json:"approvers" binding:"dive,uuid"`
	DueDate          string   `json:"due_date" binding:"omitempty,isodate"`
}

type ResolveTaskRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
	Comments string `json:"comments" binding:"max=1000"`
}

type DelegateTaskRequest struct {
	From   string `json:"from" binding:"required,uuid"`
	To     string `json:"to" binding:"required,uuid"`
	Reason string `json:"reason" binding:"max=500"`
}

type ApprovalEntryResponse struct {
	ApproverRef string `json:"approver_ref"`
	Status      string `json:"status"`
	Comments    string `json:"comments,omitempty"`
	Timestamp   string `json:"timestamp"`
}

type AssignmentEntryResponse struct {
	AssignedBy       string `json:"assigned_by"`
	AssignedTo       string `json:"assigned_to"`
	PreviousAssignee string `json:"previous_assignee,omitempty"`
	AssignmentLevel  string `json:"assignment_level"`
	Reason           string `json:"reason,omitempty"`
	Timestamp        string `json:"timestamp"`
}

type TaskResponse struct {
	ID                string                    `json:"id"`
	Title             string                    `json:"title"`
	Description       string                    `json:"description"`
	CreatedBy         string                    `json:"created_by"`
	DueDate           *string                   `json:"due_date,omitempty"`
	AssignedTo        []string                  `json:"assigned_to"`
	ApprovalRequired  bool                      `json:"approval_required"`
	Approvers         []string                  `json:"approvers"`
	ApprovalStatus    string                    `json:"approval_status"`
	ApprovalHistory   []ApprovalEntryResponse   `json:"approval_history"`
	AssignmentHistory []AssignmentEntryResponse `json:"assignment_history"`
	Version           int64                     `json:"version"`
}
