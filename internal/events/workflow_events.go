package events

import "time"

const (
	LeaveWorkflowTopic = "ops.leave.workflow.v1"
	TaskWorkflowTopic  = "ops.task.workflow.v1"
)

const (
	AggregateLeave = "leave_request"
	AggregateTask  = "task"
)

const (
	LeaveSubmitted    = "leave.submitted"
	LeaveStepApproved = "leave.step_approved"
	LeaveApproved     = "leave.approved"
	LeaveRejected     = "leave.rejected"
	LeaveCancelled    = "leave.cancelled"
	TaskCreated       = "task.created"
	TaskApproved      = "task.approved"
	TaskRejected      = "task.rejected"
	TaskDelegated     = "task.delegated"
)

// TopicFor routes an aggregate type to its topic.
func TopicFor(aggregateType string) string {
	if aggregateType == AggregateTask {
		return TaskWorkflowTopic
	}
	return LeaveWorkflowTopic
}

// WorkflowEvent is the payload published for every committed transition.
type WorkflowEvent struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	AggregateType string            `json:"aggregate_type"`
	AggregateID   string            `json:"aggregate_id"`
	ActorID       string            `json:"actor_id"`
	Recipients    []string          `json:"recipients,omitempty"`
	Status        string            `json:"status"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}
