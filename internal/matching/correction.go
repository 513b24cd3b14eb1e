package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freshmeal/matcher-service/internal/platform"
)

// CorrectionSink receives human judgments about prior matches. Appends are
// fire-and-forget from the engine's perspective; no weight tuning is derived
// from them yet.
type CorrectionSink interface {
	Record(ctx context.Context, rec CorrectionRecord) error
}

// LogSink appends corrections to the structured log only. It is the default
// sink when no feedback store is configured.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a log-only correction sink.
func NewLogSink() *LogSink {
	return &LogSink{logger: log.With().Str("component", "correction_sink").Logger()}
}

func (s *LogSink) Record(_ context.Context, rec CorrectionRecord) error {
	s.logger.Info().
		Str("food_id", rec.FoodID).
		Str("platform", string(rec.Platform)).
		Str("platform_product_id", rec.PlatformProductID).
		Bool("is_correct", rec.IsCorrect).
		Msg("Match correction recorded")
	return nil
}

// PostgresSink appends corrections to the match_corrections table.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a database-backed correction sink.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

func (s *PostgresSink) Record(ctx context.Context, rec CorrectionRecord) error {
	if !platform.Valid(rec.Platform) {
		return fmt.Errorf("unknown platform %q", rec.Platform)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO match_corrections (id, food_id, platform, platform_product_id, is_correct, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.NewString(), rec.FoodID, string(rec.Platform), rec.PlatformProductID, rec.IsCorrect, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert correction: %w", err)
	}
	return nil
}
