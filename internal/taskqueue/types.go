package taskqueue

import (
	"encoding/json"
	"time"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
	StatusCancelled  TaskStatus = "cancelled"
)

type TaskType string

const (
	TaskTypeBatchMatch TaskType = "batch_match"
	TaskTypeReport     TaskType = "report"
	TaskTypeCleanup    TaskType = "cleanup"
)

type Task struct {
	ID           string          `db:"id"`
	TaskType     string          `db:"task_type"`
	Payload      json.RawMessage `db:"payload"`
	Result       json.RawMessage `db:"result"`
	Priority     int             `db:"priority"`
	Status       TaskStatus      `db:"status"`
	ScheduledFor *time.Time      `db:"scheduled_for"`
	StartedAt    *time.Time      `db:"started_at"`
	CompletedAt  *time.Time      `db:"completed_at"`
	FailedAt     *time.Time      `db:"failed_at"`
	WorkerID     *string         `db:"worker_id"`
	RetryCount   int             `db:"retry_count"`
	MaxRetries   int             `db:"max_retries"`
	ErrorMessage *string         `db:"error_message"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

type ClaimedTask struct {
	ID       string          `db:"id"`
	TaskType string          `db:"task_type"`
	Payload  json.RawMessage `db:"payload"`
}
