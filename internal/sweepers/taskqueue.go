package sweepers

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// staleAfterMinutes is how long a task may sit in 'processing' before
// it is considered orphaned by a dead worker.
const staleAfterMinutes = 10

// TaskQueueSweeper periodically recovers orphaned tasks
type TaskQueueSweeper struct {
	pool     *pgxpool.Pool
	logger   *zerolog.Logger
	interval time.Duration
	stopChan chan struct{}
}

// NewTaskQueueSweeper creates a new sweeper for task queue maintenance
func NewTaskQueueSweeper(pool *pgxpool.Pool, logger *zerolog.Logger, interval time.Duration) *TaskQueueSweeper {
	return &TaskQueueSweeper{
		pool:     pool,
		logger:   logger,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic recovery sweep
func (s *TaskQueueSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Msg("Starting task queue sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Task queue sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Task queue sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if err := s.RecoverOrphanedTasks(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Failed to recover orphaned tasks")
			}
		}
	}
}

// Stop signals the sweeper to stop
func (s *TaskQueueSweeper) Stop() {
	close(s.stopChan)
}

// RecoverOrphanedTasks requeues stale processing tasks with retries left
// and fails the rest.
func (s *TaskQueueSweeper) RecoverOrphanedTasks(ctx context.Context) error {
	s.logger.Debug().Msg("Running orphaned task recovery")

	recovered, err := s.pool.Exec(ctx, `
		UPDATE match_tasks
		SET status = 'pending', worker_id = NULL, retry_count = retry_count + 1,
		    scheduled_for = NOW(), updated_at = NOW()
		WHERE status = 'processing'
		  AND started_at < NOW() - make_interval(mins => $1)
		  AND retry_count + 1 < max_retries
	`, staleAfterMinutes)
	if err != nil {
		return fmt.Errorf("failed to requeue orphaned tasks: %w", err)
	}

	failed, err := s.pool.Exec(ctx, `
		UPDATE match_tasks
		SET status = 'failed', failed_at = NOW(),
		    error_message = 'worker timed out', updated_at = NOW()
		WHERE status = 'processing'
		  AND started_at < NOW() - make_interval(mins => $1)
	`, staleAfterMinutes)
	if err != nil {
		return fmt.Errorf("failed to fail orphaned tasks: %w", err)
	}

	recoveredCount := recovered.RowsAffected()
	failedCount := failed.RowsAffected()
	if recoveredCount > 0 || failedCount > 0 {
		s.logger.Info().
			Int64("recovered", recoveredCount).
			Int64("failed", failedCount).
			Msg("Recovered orphaned tasks")
	}

	return nil
}
