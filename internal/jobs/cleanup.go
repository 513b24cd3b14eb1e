package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// CleanupConfig configures retention policies for cleanup jobs
type CleanupConfig struct {
	CorrectionRetentionDays int
	ProductRetentionDays    int
	TaskRetentionDays       int
}

// DefaultCleanupConfig returns sensible retention defaults
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		CorrectionRetentionDays: 90, // Corrections feed audits and future tuning
		ProductRetentionDays:    7,  // Expired catalog rows are only useful briefly
		TaskRetentionDays:       7,
	}
}

// CleanupOldCorrections removes correction records past the retention window
func CleanupOldCorrections(ctx context.Context, db *pgxpool.Pool, cfg CleanupConfig) error {
	cutoffDate := time.Now().AddDate(0, 0, -cfg.CorrectionRetentionDays)

	result, err := db.Exec(ctx, `
		DELETE FROM match_corrections
		WHERE created_at < $1
	`, cutoffDate)

	if err != nil {
		return fmt.Errorf("cleanup old corrections: %w", err)
	}

	log.Info().
		Str("component", "jobs").
		Int64("rows_deleted", result.RowsAffected()).
		Time("cutoff", cutoffDate).
		Msg("Cleaned up old match corrections")

	return nil
}

// CleanupExpiredProducts removes catalog rows whose snapshot freshness
// window expired past the retention period
func CleanupExpiredProducts(ctx context.Context, db *pgxpool.Pool, cfg CleanupConfig) error {
	cutoffDate := time.Now().AddDate(0, 0, -cfg.ProductRetentionDays)

	result, err := db.Exec(ctx, `
		DELETE FROM platform_products
		WHERE expires_at < $1
	`, cutoffDate)

	if err != nil {
		return fmt.Errorf("cleanup expired products: %w", err)
	}

	log.Info().
		Str("component", "jobs").
		Int64("rows_deleted", result.RowsAffected()).
		Time("cutoff", cutoffDate).
		Msg("Cleaned up expired platform products")

	return nil
}

// CleanupFinishedTasks removes completed, failed, and cancelled match tasks
// past the retention window
func CleanupFinishedTasks(ctx context.Context, db *pgxpool.Pool, cfg CleanupConfig) error {
	result, err := db.Exec(ctx, `
		DELETE FROM match_tasks
		WHERE status IN ('completed', 'failed', 'cancelled')
		  AND updated_at < NOW() - ($1 * interval '1 day')
	`, cfg.TaskRetentionDays)

	if err != nil {
		return fmt.Errorf("cleanup finished tasks: %w", err)
	}

	log.Info().
		Str("component", "jobs").
		Int64("rows_deleted", result.RowsAffected()).
		Msg("Cleaned up finished match tasks")

	return nil
}

// CleanupScheduler runs the retention jobs on a daily schedule
type CleanupScheduler struct {
	db     *pgxpool.Pool
	config CleanupConfig
}

// NewCleanupScheduler creates a new cleanup scheduler
func NewCleanupScheduler(db *pgxpool.Pool, config CleanupConfig) *CleanupScheduler {
	if config.CorrectionRetentionDays == 0 {
		config.CorrectionRetentionDays = 90
	}
	if config.ProductRetentionDays == 0 {
		config.ProductRetentionDays = 7
	}
	if config.TaskRetentionDays == 0 {
		config.TaskRetentionDays = 7
	}

	return &CleanupScheduler{
		db:     db,
		config: config,
	}
}

// RunDailyCleanup runs all cleanup jobs in sequence
func (s *CleanupScheduler) RunDailyCleanup(ctx context.Context) error {
	log.Info().Str("component", "jobs").Msg("Running daily cleanup")

	if err := CleanupOldCorrections(ctx, s.db, s.config); err != nil {
		return fmt.Errorf("cleanup corrections: %w", err)
	}

	if err := CleanupExpiredProducts(ctx, s.db, s.config); err != nil {
		return fmt.Errorf("cleanup products: %w", err)
	}

	if err := CleanupFinishedTasks(ctx, s.db, s.config); err != nil {
		return fmt.Errorf("cleanup tasks: %w", err)
	}

	log.Info().Str("component", "jobs").Msg("Daily cleanup completed")
	return nil
}

// Start runs the cleanup loop until the context is cancelled
func (s *CleanupScheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("component", "jobs").Msg("Cleanup scheduler stopping")
			return
		case <-ticker.C:
			if err := s.RunDailyCleanup(ctx); err != nil {
				log.Error().Err(err).Msg("Cleanup run failed")
			}
		}
	}
}

// GetCleanupStats returns counts of rows each job would remove
func GetCleanupStats(ctx context.Context, db *pgxpool.Pool, cfg CleanupConfig) (map[string]int64, error) {
	stats := make(map[string]int64)

	correctionCutoff := time.Now().AddDate(0, 0, -cfg.CorrectionRetentionDays)
	var correctionCount int64
	err := db.QueryRow(ctx, `
		SELECT COUNT(*) FROM match_corrections WHERE created_at < $1
	`, correctionCutoff).Scan(&correctionCount)
	if err != nil {
		return nil, fmt.Errorf("count corrections: %w", err)
	}
	stats["old_corrections"] = correctionCount

	productCutoff := time.Now().AddDate(0, 0, -cfg.ProductRetentionDays)
	var productCount int64
	err = db.QueryRow(ctx, `
		SELECT COUNT(*) FROM platform_products WHERE expires_at < $1
	`, productCutoff).Scan(&productCount)
	if err != nil {
		return nil, fmt.Errorf("count expired products: %w", err)
	}
	stats["expired_products"] = productCount

	var taskCount int64
	err = db.QueryRow(ctx, `
		SELECT COUNT(*) FROM match_tasks
		WHERE status IN ('completed', 'failed', 'cancelled')
		  AND updated_at < NOW() - ($1 * interval '1 day')
	`, cfg.TaskRetentionDays).Scan(&taskCount)
	if err != nil {
		return nil, fmt.Errorf("count finished tasks: %w", err)
	}
	stats["finished_tasks"] = taskCount

	return stats, nil
}
