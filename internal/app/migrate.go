package app

import (
	"go-opsportal/internal/activity"
	"go-opsportal/internal/actor"
	"go-opsportal/internal/leave"
	"go-opsportal/internal/ledger"
	"go-opsportal/internal/messaging/kafka"
	"go-opsportal/internal/task"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the engine owns.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return err
	}
	return db.AutoMigrate(
		&actor.Actor{},
		&leave.LeaveRequest{},
		&ledger.Balance{},
		&ledger.Transaction{},
		&task.Task{},
		&kafka.OutboxEvent{},
		&activity.Entry{},
	)
}
