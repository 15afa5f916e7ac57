package activity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Entry is one consumed workflow event. ID is the event id, so replays of the
// same message collapse onto one row.
type Entry struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	EventType     string                      `gorm:"type:varchar(100);not null"`
	AggregateType string                      `gorm:"type:varchar(50);not null;index:idx_activity_aggregate"`
	AggregateID   string                      `gorm:"type:uuid;not null;index:idx_activity_aggregate"`
	ActorID       string                      `gorm:"type:varchar(64)"`
	Status        string                      `gorm:"type:varchar(20)"`
	Recipients    datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Attributes    datatypes.JSONMap           `gorm:"type:jsonb"`
	OccurredAt    time.Time                   `gorm:"not null;index:idx_activity_aggregate"`
	CreatedAt     time.Time
}

func (Entry) TableName() string { return "activity_logs" }
