package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/freshmeal/matcher-service/internal/matching"
	"github.com/freshmeal/matcher-service/internal/taskqueue"
)

// BatchMatchPayload is the task payload for asynchronous batch matching.
type BatchMatchPayload struct {
	Foods  []matching.FoodItem   `json:"foods"`
	Config *matching.MatchConfig `json:"config,omitempty"`
}

// BatchMatchResult is stored on the task row when a batch completes.
type BatchMatchResult struct {
	Results     map[string][]matching.SKUMatchResult `json:"results"`
	FoodCount   int                                  `json:"foodCount"`
	CompletedAt time.Time                            `json:"completedAt"`
}

// NewBatchMatchHandler returns the handler for batch_match tasks.
func NewBatchMatchHandler(engine *matching.Engine) Handler {
	return func(ctx context.Context, payload []byte) (interface{}, error) {
		var req BatchMatchPayload
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("failed to unmarshal batch match payload: %w", err)
		}

		if len(req.Foods) == 0 {
			return nil, fmt.Errorf("batch match payload contains no foods")
		}

		results, err := engine.MatchFoods(ctx, req.Foods, req.Config)
		if err != nil {
			return nil, err
		}

		return BatchMatchResult{
			Results:     results,
			FoodCount:   len(req.Foods),
			CompletedAt: time.Now().UTC(),
		}, nil
	}
}

// StartMatchWorker wires the batch-match handler onto a polling worker.
func StartMatchWorker(ctx context.Context, queue *taskqueue.TaskQueue, engine *matching.Engine) *Worker {
	worker := New(queue, WorkerConfig{
		WorkerID:   "match-worker",
		TaskTypes:  []string{string(taskqueue.TaskTypeBatchMatch)},
		MaxTasks:   2,
		NumWorkers: 2,
		PollDelay:  2 * time.Second,
	})
	worker.RegisterHandler(string(taskqueue.TaskTypeBatchMatch), NewBatchMatchHandler(engine))
	worker.Start(ctx)
	return worker
}
