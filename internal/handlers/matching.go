package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/freshmeal/matcher-service/internal/jobs"
	"github.com/freshmeal/matcher-service/internal/matching"
	"github.com/freshmeal/matcher-service/internal/platform"
	"github.com/freshmeal/matcher-service/internal/taskqueue"
	"github.com/freshmeal/matcher-service/internal/workers"
)

// MatchingHandler handles food-to-SKU matching HTTP endpoints
type MatchingHandler struct {
	engine *matching.Engine
	queue  *taskqueue.TaskQueue
	db     *pgxpool.Pool
}

// NewMatchingHandler creates a new matching handler. queue and db may be nil
// when the service runs without a database; async endpoints then return 503.
func NewMatchingHandler(engine *matching.Engine, queue *taskqueue.TaskQueue, db *pgxpool.Pool) *MatchingHandler {
	return &MatchingHandler{
		engine: engine,
		queue:  queue,
		db:     db,
	}
}

// MatchFoodRequest represents a single-food match request
type MatchFoodRequest struct {
	Food   matching.FoodItem     `json:"food" binding:"required"`
	Config *matching.MatchConfig `json:"config,omitempty"`
}

// MatchFoodResponse represents a single-food match response
type MatchFoodResponse struct {
	FoodID  string                    `json:"foodId"`
	Results []matching.SKUMatchResult `json:"results"`
}

// MatchFood matches one food item against the cached catalogs
// POST /internal/matching/food
func (h *MatchingHandler) MatchFood(c *gin.Context) {
	var req MatchFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Food.ID == "" || req.Food.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "food.id and food.name are required"})
		return
	}

	results, err := h.engine.MatchFood(c.Request.Context(), req.Food, req.Config)
	if err != nil {
		status, body := matchErrorResponse(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, MatchFoodResponse{
		FoodID:  req.Food.ID,
		Results: results,
	})
}

// MatchBatchRequest represents a batch match request
type MatchBatchRequest struct {
	Foods  []matching.FoodItem   `json:"foods" binding:"required"`
	Config *matching.MatchConfig `json:"config,omitempty"`
}

// MatchBatchResponse represents a batch match response
type MatchBatchResponse struct {
	Results map[string][]matching.SKUMatchResult `json:"results"`
}

// MatchBatch matches a batch of foods synchronously
// POST /internal/matching/batch
func (h *MatchingHandler) MatchBatch(c *gin.Context) {
	var req MatchBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if len(req.Foods) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "foods must not be empty"})
		return
	}

	results, err := h.engine.MatchFoods(c.Request.Context(), req.Foods, req.Config)
	if err != nil {
		status, body := matchErrorResponse(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, MatchBatchResponse{Results: results})
}

// MatchBatchAsyncResponse carries the scheduled task id
type MatchBatchAsyncResponse struct {
	TaskID string `json:"taskId"`
	Status string `json:"status"`
}

// MatchBatchAsync schedules a batch match on the task queue
// POST /internal/matching/batch-async
func (h *MatchingHandler) MatchBatchAsync(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Task queue not configured"})
		return
	}

	var req MatchBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if len(req.Foods) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "foods must not be empty"})
		return
	}
	// Reject malformed configs before queueing so callers hear about them now.
	if req.Config != nil {
		if err := matching.ValidateConfig(*req.Config); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match config: " + err.Error()})
			return
		}
	}

	result := h.queue.ScheduleTask(c.Request.Context(), taskqueue.ScheduleTaskInput{
		TaskType: string(taskqueue.TaskTypeBatchMatch),
		Payload: workers.BatchMatchPayload{
			Foods:  req.Foods,
			Config: req.Config,
		},
	})
	if result.Err != nil {
		log.Error().Err(result.Err).Msg("Failed to schedule batch match task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule batch match"})
		return
	}

	c.JSON(http.StatusAccepted, MatchBatchAsyncResponse{
		TaskID: result.ID,
		Status: string(taskqueue.StatusPending),
	})
}

// RecordCorrectionRequest represents a human judgment on a prior match
type RecordCorrectionRequest struct {
	FoodID            string `json:"foodId" binding:"required"`
	PlatformProductID string `json:"platformProductId" binding:"required"`
	Platform          string `json:"platform" binding:"required"`
	IsCorrect         *bool  `json:"isCorrect" binding:"required"`
}

// RecordCorrection appends a match correction to the feedback sink
// POST /internal/matching/corrections
func (h *MatchingHandler) RecordCorrection(c *gin.Context) {
	var req RecordCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	h.engine.RecordCorrection(c.Request.Context(), matching.CorrectionRecord{
		FoodID:            req.FoodID,
		PlatformProductID: req.PlatformProductID,
		Platform:          platform.ID(req.Platform),
		IsCorrect:         *req.IsCorrect,
	})

	c.JSON(http.StatusAccepted, gin.H{"message": "Correction recorded"})
}

// GetMatchingStatus returns queue and correction statistics, plus a single
// task when ?taskId= is given
// GET /internal/matching/status
func (h *MatchingHandler) GetMatchingStatus(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, gin.H{"database": "not configured"})
		return
	}
	ctx := c.Request.Context()

	if taskID := c.Query("taskId"); taskID != "" {
		if h.queue == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Task queue not configured"})
			return
		}
		task, err := h.queue.GetTask(ctx, taskID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"taskId":       task.ID,
			"status":       task.Status,
			"result":       task.Result,
			"retryCount":   task.RetryCount,
			"errorMessage": task.ErrorMessage,
		})
		return
	}

	count := func(sql string) (int, error) {
		var n int
		err := h.db.QueryRow(ctx, sql).Scan(&n)
		return n, err
	}

	var err error
	counts := map[string]int{}
	for label, sql := range map[string]string{
		"pending":    `SELECT COUNT(*) FROM match_tasks WHERE status = 'pending'`,
		"processing": `SELECT COUNT(*) FROM match_tasks WHERE status = 'processing'`,
		"completed":  `SELECT COUNT(*) FROM match_tasks WHERE status = 'completed'`,
		"failed":     `SELECT COUNT(*) FROM match_tasks WHERE status = 'failed'`,
	} {
		if counts[label], err = count(sql); err != nil {
			log.Error().Err(err).Msg("Failed to read task counters")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database unavailable"})
			return
		}
	}

	correctionCount, err := count(`SELECT COUNT(*) FROM match_corrections`)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read correction counters")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database unavailable"})
		return
	}
	correctCount, err := count(`SELECT COUNT(*) FROM match_corrections WHERE is_correct`)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read correction counters")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database unavailable"})
		return
	}

	cleanupStats, err := jobs.GetCleanupStats(ctx, h.db, jobs.DefaultCleanupConfig())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read cleanup stats")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": counts,
		"corrections": gin.H{
			"total":   correctionCount,
			"correct": correctCount,
		},
		"cleanup": cleanupStats,
	})
}

// matchErrorResponse maps a MatchError code to an HTTP status and body.
func matchErrorResponse(err error) (int, gin.H) {
	me, ok := matching.AsMatchError(err)
	if !ok {
		return http.StatusInternalServerError, gin.H{"error": err.Error()}
	}

	status := http.StatusInternalServerError
	switch me.Code {
	case matching.CodeInvalidConfig, matching.CodeUnknownPlatform:
		status = http.StatusBadRequest
	case matching.CodeCancelled:
		status = http.StatusRequestTimeout
	}
	return status, gin.H{
		"error":  me.Message,
		"code":   me.Code,
		"foodId": me.FoodID,
	}
}

// RegisterMatchingRoutes registers matching routes with the Gin router
func RegisterMatchingRoutes(r *gin.RouterGroup, engine *matching.Engine, queue *taskqueue.TaskQueue, db *pgxpool.Pool) {
	handler := NewMatchingHandler(engine, queue, db)

	r.POST("/matching/food", handler.MatchFood)
	r.POST("/matching/batch", handler.MatchBatch)
	r.POST("/matching/batch-async", handler.MatchBatchAsync)
	r.POST("/matching/corrections", handler.RecordCorrection)
	r.GET("/matching/status", handler.GetMatchingStatus)
}
