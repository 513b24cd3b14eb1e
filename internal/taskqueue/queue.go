package taskqueue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskQueue struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *TaskQueue {
	return &TaskQueue{pool: pool}
}

func (q *TaskQueue) GetPool() *pgxpool.Pool {
	return q.pool
}

type ScheduleTaskInput struct {
	TaskType    string
	Payload     interface{}
	Priority    int
	ScheduledAt *time.Time
	MaxRetries  int
}

type ScheduleTaskResult struct {
	ID  string
	Err error
}

func (q *TaskQueue) ScheduleTask(ctx context.Context, input ScheduleTaskInput) ScheduleTaskResult {
	payload, err := json.Marshal(input.Payload)
	if err != nil {
		return ScheduleTaskResult{Err: err}
	}

	maxRetries := 3
	if input.MaxRetries > 0 {
		maxRetries = input.MaxRetries
	}

	priority := 0
	if input.Priority > 0 {
		priority = input.Priority
	}

	var id string
	if input.ScheduledAt != nil {
		err = q.pool.QueryRow(ctx, `
			INSERT INTO match_tasks (task_type, payload, priority, scheduled_for, max_retries)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, input.TaskType, payload, priority, *input.ScheduledAt, maxRetries).Scan(&id)
	} else {
		err = q.pool.QueryRow(ctx, `
			INSERT INTO match_tasks (task_type, payload, priority, scheduled_for, max_retries)
			VALUES ($1, $2, $3, NOW(), $4)
			RETURNING id
		`, input.TaskType, payload, priority, maxRetries).Scan(&id)
	}

	if err != nil {
		return ScheduleTaskResult{Err: err}
	}

	return ScheduleTaskResult{ID: id}
}

type ClaimTasksInput struct {
	WorkerID  string
	TaskTypes []string
	MaxTasks  int
}

type ClaimTasksResult struct {
	Tasks []ClaimedTask
	Err   error
}

// ClaimTasks atomically moves due pending tasks to processing for this worker.
// SKIP LOCKED keeps concurrent workers from claiming the same rows.
func (q *TaskQueue) ClaimTasks(ctx context.Context, input ClaimTasksInput) ClaimTasksResult {
	rows, err := q.pool.Query(ctx, `
		UPDATE match_tasks
		SET status = 'processing', worker_id = $1, started_at = NOW(), updated_at = NOW()
		WHERE id IN (
			SELECT id FROM match_tasks
			WHERE status = 'pending'
			  AND task_type = ANY($2)
			  AND scheduled_for <= NOW()
			ORDER BY priority DESC, scheduled_for ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, task_type, payload
	`, input.WorkerID, input.TaskTypes, input.MaxTasks)
	if err != nil {
		return ClaimTasksResult{Err: err}
	}
	defer rows.Close()

	tasks := make([]ClaimedTask, 0)
	for rows.Next() {
		var task ClaimedTask
		if err := rows.Scan(&task.ID, &task.TaskType, &task.Payload); err != nil {
			return ClaimTasksResult{Err: err}
		}
		tasks = append(tasks, task)
	}

	return ClaimTasksResult{Tasks: tasks, Err: rows.Err()}
}

func (q *TaskQueue) CompleteTask(ctx context.Context, taskID string, result interface{}) error {
	var resultJSON []byte
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		resultJSON = data
	}

	_, err := q.pool.Exec(ctx, `
		UPDATE match_tasks
		SET status = 'completed', result = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`, taskID, resultJSON)
	return err
}

func (q *TaskQueue) FailTask(ctx context.Context, taskID, errorMessage string, shouldRetry bool) error {
	if shouldRetry {
		// Requeue with backoff while retries remain, otherwise mark failed
		_, err := q.pool.Exec(ctx, `
			UPDATE match_tasks
			SET status = CASE WHEN retry_count + 1 < max_retries THEN 'pending' ELSE 'failed' END,
			    retry_count = retry_count + 1,
			    scheduled_for = NOW() + (interval '30 seconds' * (retry_count + 1)),
			    worker_id = NULL,
			    failed_at = CASE WHEN retry_count + 1 < max_retries THEN failed_at ELSE NOW() END,
			    error_message = $2,
			    updated_at = NOW()
			WHERE id = $1 AND status = 'processing'
		`, taskID, errorMessage)
		return err
	}

	_, err := q.pool.Exec(ctx, `
		UPDATE match_tasks
		SET status = 'failed', failed_at = NOW(), error_message = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`, taskID, errorMessage)
	return err
}

func (q *TaskQueue) CleanupOldTasks(ctx context.Context, daysToKeep int) (int, error) {
	tag, err := q.pool.Exec(ctx, `
		DELETE FROM match_tasks
		WHERE status IN ('completed', 'failed', 'cancelled')
		  AND updated_at < NOW() - ($1 * interval '1 day')
	`, daysToKeep)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (q *TaskQueue) CancelTask(ctx context.Context, taskID string) error {
	_, err := q.pool.Exec(ctx, `
		UPDATE match_tasks
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, taskID)
	return err
}

func (q *TaskQueue) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	err := q.pool.QueryRow(ctx, `
		SELECT id, task_type, payload, result, priority, status,
		       scheduled_for, started_at, completed_at, failed_at,
		       worker_id, retry_count, max_retries, error_message,
		       created_at, updated_at
		FROM match_tasks
		WHERE id = $1
	`, taskID).Scan(
		&task.ID, &task.TaskType, &task.Payload, &task.Result, &task.Priority, &task.Status,
		&task.ScheduledFor, &task.StartedAt, &task.CompletedAt, &task.FailedAt,
		&task.WorkerID, &task.RetryCount, &task.MaxRetries, &task.ErrorMessage,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}
