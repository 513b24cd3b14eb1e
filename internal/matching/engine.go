package matching

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/freshmeal/matcher-service/internal/catalog"
	"github.com/freshmeal/matcher-service/internal/platform"
)

// EngineConfig bounds the engine's concurrency against the shared catalog
// store.
type EngineConfig struct {
	// QueryConcurrency caps concurrent catalog reads within one food match.
	QueryConcurrency int
	// BatchConcurrency caps concurrent food matches within one batch.
	BatchConcurrency int
	// QueryTimeout bounds each catalog read; a timed-out query contributes
	// zero candidates instead of failing the food match.
	QueryTimeout time.Duration
	// DefaultMinConfidence and DefaultMaxResults seed per-call configs that
	// leave those fields unset. Zero values fall back to the package defaults.
	DefaultMinConfidence float64
	DefaultMaxResults    int
}

// DefaultEngineConfig returns the default engine limits.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		QueryConcurrency: 4,
		BatchConcurrency: 4,
		QueryTimeout:     3 * time.Second,
	}
}

// Engine runs the matching pipeline: normalize, query, read catalog,
// deduplicate, score, filter, rank, explain.
type Engine struct {
	catalog  catalog.Reader
	registry *platform.Registry
	sink     CorrectionSink
	cfg      EngineConfig
	defaults MatchConfig
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewEngine creates a matching engine over the given catalog reader. A nil
// registry falls back to the default platform registry; a nil sink falls back
// to the log-only sink.
func NewEngine(reader catalog.Reader, registry *platform.Registry, sink CorrectionSink, cfg EngineConfig) *Engine {
	def := DefaultEngineConfig()
	if cfg.QueryConcurrency <= 0 {
		cfg.QueryConcurrency = def.QueryConcurrency
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = def.BatchConcurrency
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = def.QueryTimeout
	}
	if registry == nil {
		registry = platform.DefaultRegistry
	}
	if sink == nil {
		sink = NewLogSink()
	}

	defaults := DefaultMatchConfig()
	if cfg.DefaultMinConfidence > 0 {
		defaults.MinConfidence = Float(cfg.DefaultMinConfidence)
	}
	if cfg.DefaultMaxResults > 0 {
		defaults.MaxResults = cfg.DefaultMaxResults
	}

	return &Engine{
		catalog:  reader,
		registry: registry,
		sink:     sink,
		cfg:      cfg,
		defaults: defaults,
		logger:   log.With().Str("component", "match_engine").Logger(),
		tracer:   otel.Tracer("matcher-service/matching"),
	}
}

// MatchFood matches one food item against the cached catalogs and returns
// ranked candidates. Failures surface as *MatchError with a stable code.
func (e *Engine) MatchFood(ctx context.Context, food FoodItem, cfgp *MatchConfig) (results []SKUMatchResult, err error) {
	start := time.Now()
	defer observeMatchDuration("single", start)
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = newMatchError(CodeMatchFailed, fmt.Sprintf("panic during match: %v", r), food.ID, nil)
		}
	}()

	cfg := e.resolveConfig(cfgp)
	if verr := ValidateConfig(cfg); verr != nil {
		return nil, newMatchError(CodeInvalidConfig, "invalid match config", food.ID, verr)
	}
	for _, id := range cfg.Platforms {
		if _, aerr := e.registry.GetOrInit(id); aerr != nil {
			return nil, newMatchError(CodeUnknownPlatform, "unrecognized platform scope", food.ID, aerr)
		}
	}

	ctx, span := e.tracer.Start(ctx, "MatchFood",
		trace.WithAttributes(attribute.String("food.id", food.ID)))
	defer span.End()

	nt := Normalize(food)
	queries := BuildQueries(nt)

	raw, gerr := e.gatherCandidates(ctx, queries, searchFilter(cfg))
	if gerr != nil {
		matchFailures.WithLabelValues("single").Inc()
		return nil, newMatchError(CodeCancelled, "match cancelled", food.ID, gerr)
	}

	candidates := dedupeCandidates(raw)
	candidateCount.Observe(float64(len(candidates)))

	results = make([]SKUMatchResult, 0, len(candidates))
	for _, p := range candidates {
		breakdown := scoreCandidate(food, nt, p)
		confidence := breakdown.Confidence()
		if confidence < *cfg.MinConfidence {
			continue
		}
		matched := matchedKeywords(nt.Keywords, p)
		results = append(results, SKUMatchResult{
			Product:         p,
			Confidence:      confidence,
			MatchedKeywords: matched,
			MatchReasons:    matchReasons(confidence, matched, breakdown.BrandRelevant),
		})
	}

	// Stable sort keeps catalog-return order for equal confidences.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	if len(results) > cfg.MaxResults {
		results = results[:cfg.MaxResults]
	}

	resultCount.Observe(float64(len(results)))
	e.logger.Debug().
		Str("food_id", food.ID).
		Int("queries", len(queries)).
		Int("candidates", len(candidates)).
		Int("results", len(results)).
		Msg("Food matched")

	return results, nil
}

// MatchFoods matches a batch of foods with bounded parallelism. A failure on
// one food yields an empty result list for that food; only caller
// cancellation aborts the batch.
func (e *Engine) MatchFoods(ctx context.Context, foods []FoodItem, cfgp *MatchConfig) (map[string][]SKUMatchResult, error) {
	start := time.Now()
	defer observeMatchDuration("batch", start)

	cfg := e.resolveConfig(cfgp)
	if verr := ValidateConfig(cfg); verr != nil {
		return nil, newMatchError(CodeInvalidConfig, "invalid match config", "", verr)
	}

	out := make(map[string][]SKUMatchResult, len(foods))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.BatchConcurrency)

	for _, food := range foods {
		g.Go(func() error {
			results, merr := e.MatchFood(gctx, food, &cfg)
			if merr != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				matchFailures.WithLabelValues("batch").Inc()
				e.logger.Error().
					Err(merr).
					Str("food_id", food.ID).
					Msg("Food match failed, returning empty result for item")
				results = nil
			}
			if results == nil {
				results = []SKUMatchResult{}
			}
			mu.Lock()
			out[food.ID] = results
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return out, fmt.Errorf("batch match aborted: %w", err)
	}
	return out, nil
}

// RecordCorrection appends a human judgment to the correction sink. Sink
// failures are logged, never surfaced: feedback must not block matching.
func (e *Engine) RecordCorrection(ctx context.Context, rec CorrectionRecord) {
	judgment := "incorrect"
	if rec.IsCorrect {
		judgment = "correct"
	}
	correctionsRecorded.WithLabelValues(judgment).Inc()

	if err := e.sink.Record(ctx, rec); err != nil {
		e.logger.Warn().
			Err(err).
			Str("food_id", rec.FoodID).
			Str("platform_product_id", rec.PlatformProductID).
			Msg("Failed to append match correction")
	}
}

// gatherCandidates fans catalog reads out across the query strings and
// accumulates every returned record. A failed or timed-out query logs and
// contributes nothing; only cancellation of the caller's context aborts.
func (e *Engine) gatherCandidates(ctx context.Context, queries []string, f catalog.Filter) ([]catalog.Product, error) {
	perQuery := make([][]catalog.Product, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.QueryConcurrency)

	for i, q := range queries {
		g.Go(func() error {
			// errgroup does not propagate panics; a panicking reader must be
			// caught on this goroutine or it takes the process down.
			defer func() {
				if r := recover(); r != nil {
					queryErrors.Inc()
					e.logger.Error().
						Interface("panic", r).
						Str("query", q).
						Msg("Catalog query panicked, contributing zero candidates")
				}
			}()

			qctx, cancel := context.WithTimeout(gctx, e.cfg.QueryTimeout)
			defer cancel()

			products, err := e.catalog.Search(qctx, q, f)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				queryErrors.Inc()
				e.logger.Warn().Err(err).Str("query", q).Msg("Catalog query failed, contributing zero candidates")
				return nil
			}
			perQuery[i] = products
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []catalog.Product
	for _, products := range perQuery {
		all = append(all, products...)
	}
	return all, nil
}

type candidateKey struct {
	platform platform.ID
	id       string
}

// dedupeCandidates collapses records returned by multiple queries to one per
// (platform, platform product id), keeping first occurrence.
func dedupeCandidates(products []catalog.Product) []catalog.Product {
	seen := make(map[candidateKey]struct{}, len(products))
	unique := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		key := candidateKey{platform: p.Platform, id: p.PlatformProductID}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, p)
	}
	return unique
}

// resolveConfig merges the caller's config over the engine defaults. A nil
// MinConfidence takes the default floor; Float(0) disables it explicitly.
func (e *Engine) resolveConfig(p *MatchConfig) MatchConfig {
	if p == nil {
		return e.defaults
	}
	cfg := *p
	if cfg.MinConfidence == nil {
		cfg.MinConfidence = e.defaults.MinConfidence
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = e.defaults.MaxResults
	}
	return cfg
}

func searchFilter(cfg MatchConfig) catalog.Filter {
	f := catalog.Filter{
		Limit:             cfg.MaxResults,
		IncludeOutOfStock: cfg.IncludeOutOfStock,
		Platforms:         cfg.Platforms,
	}
	if cfg.PriceRange != nil {
		f.MinPrice = cfg.PriceRange.Min
		f.MaxPrice = cfg.PriceRange.Max
	}
	return f
}
