package models

import (
	"time"
)

// JobTrigger records what started a job run
type JobTrigger string

const (
	JobTriggerTick   JobTrigger = "tick"
	JobTriggerManual JobTrigger = "manual"
	JobTriggerCLI    JobTrigger = "cli"
)

// JobRun tracks the execution history of background tasks
type JobRun struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	TaskName string                 `gorm:"type:varchar(255);index" json:"task_name"`
	Trigger  JobTrigger             `gorm:"type:varchar(20)" json:"trigger"`
	RunAt    time.Time              `gorm:"index" json:"run_at"`
	Runtime  int                    `json:"runtime"` // milliseconds
	Status   string                 `gorm:"type:varchar(50)" json:"status"`
	Result   map[string]interface{} `gorm:"serializer:json" json:"result"`
}

const (
	JobRunStatusSuccess = "success"
	JobRunStatusFailure = "failure"
)
