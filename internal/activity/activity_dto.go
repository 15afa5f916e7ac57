package activity

type EntryResponse struct {
	EventID     string         `json:"event_id"`
	EventType   string         `json:"event_type"`
	ActorID     string         `json:"actor_id"`
	Status      string         `json:"status"`
	Recipients  []string       `json:"recipients,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	OccurredAt  string         `json:"occurred_at"`
	AggregateID string         `json:"aggregate_id"`
}
