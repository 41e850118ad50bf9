package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/matchsight/ensemble/infrastructure/middleware"
	"github.com/matchsight/ensemble/internal/domain"
	"github.com/matchsight/ensemble/internal/ports"
)

// Engine is the single entry point of the ensemble prediction aggregator.
// It runs the weight allocator, vote aggregator, and conflict detector
// over a fresh State per call and assembles their outputs into one
// EnsembleResult.
//
// The engine holds no mutable state between calls and is safe for
// unlimited concurrent use.
type Engine struct {
	cfg      Config
	log      *slog.Logger
	metrics  ports.MetricsCollector
	registry *UnitRegistry

	allocator  ports.Unit
	aggregator ports.Unit
	detector   ports.Unit
}

// BatchItem is the outcome of one input within a batch evaluation. Either
// Result or Err is set, never both; a failed item does not abort the batch.
type BatchItem struct {
	// Index is the position of the input in the submitted batch.
	Index int `json:"index"`

	// Result is the aggregation outcome for successful items.
	Result *domain.EnsembleResult `json:"result,omitempty"`

	// Err is the failure for invalid items.
	Err error `json:"-"`
}

// Status describes the engine's effective configuration for operational
// introspection.
type Status struct {
	// BaselineWeights are the configured relative model importances.
	BaselineWeights domain.WeightSet `json:"baseline_weights"`

	// ConflictThresholds are the severity band bounds, keyed by band.
	ConflictThresholds map[string]float64 `json:"conflict_thresholds"`

	// Units lists the pipeline stages in execution order.
	Units []string `json:"units"`

	// UnitTypes lists every unit type the registry can construct.
	UnitTypes []string `json:"unit_types"`

	// BatchParallelism is the concurrent prediction bound for batches.
	BatchParallelism int `json:"batch_parallelism"`
}

// New creates an Engine from the given configuration. The three pipeline
// units are constructed through the unit registry and, when tracing is
// enabled, wrapped in the OpenTelemetry middleware.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	registry := NewUnitRegistry()

	allocator, err := registry.Create(UnitTypeWeightAllocator, "weights", map[string]any{
		"full_time": cfg.Weights.FullTime,
		"half_time": cfg.Weights.HalfTime,
		"pattern":   cfg.Weights.Pattern,
	})
	if err != nil {
		return nil, err
	}

	aggregator, err := registry.Create(UnitTypeVoteAggregator, "votes", nil)
	if err != nil {
		return nil, err
	}

	detector, err := registry.Create(UnitTypeConflictDetector, "conflicts", map[string]any{
		"high":   cfg.Conflict.High,
		"medium": cfg.Conflict.Medium,
		"detect": cfg.Conflict.Detect,
	})
	if err != nil {
		return nil, err
	}

	eng := &Engine{
		cfg:        cfg,
		log:        log,
		metrics:    cfg.Metrics,
		registry:   registry,
		allocator:  allocator,
		aggregator: aggregator,
		detector:   detector,
	}

	if cfg.Tracing {
		eng.allocator = middleware.WithTracing(eng.allocator, cfg.Metrics)
		eng.aggregator = middleware.WithTracing(eng.aggregator, cfg.Metrics)
		eng.detector = middleware.WithTracing(eng.detector, cfg.Metrics)
	}

	for _, unit := range []ports.Unit{eng.allocator, eng.aggregator, eng.detector} {
		if err := unit.Validate(); err != nil {
			return nil, fmt.Errorf("unit %s failed validation: %w", unit.Name(), err)
		}
	}

	return eng, nil
}

// Predict combines up to three model predictions into one consensus
// prediction with a normalized confidence and an auditable breakdown.
// It fails only when the input carries no predictions at all; that error
// wraps domain.ErrNoPredictions and is a usage error, not a transient one.
func (e *Engine) Predict(ctx context.Context, input domain.EnsembleInput) (domain.EnsembleResult, error) {
	return e.predict(ctx, input, "")
}

func (e *Engine) predict(ctx context.Context, input domain.EnsembleInput, requestID string) (domain.EnsembleResult, error) {
	state := domain.NewState()
	state = domain.With(state, domain.KeyInput, input)
	if requestID != "" {
		state = domain.With(state, domain.KeyRequestID, requestID)
	}

	var err error
	for _, unit := range []ports.Unit{e.allocator, e.aggregator, e.detector} {
		state, err = unit.Execute(ctx, state)
		if err != nil {
			e.recordCounter("predictions_total", map[string]string{"status": "error"})
			e.log.ErrorContext(ctx, "prediction failed",
				slog.String("unit", unit.Name()),
				slog.String("error", err.Error()))
			return domain.EnsembleResult{}, fmt.Errorf("unit %s failed: %w", unit.Name(), err)
		}
	}

	result := assembleResult(input, state)

	e.recordCounter("predictions_total", map[string]string{"status": "ok"})
	e.log.InfoContext(ctx, "prediction completed",
		slog.String("prediction", result.Prediction),
		slog.Float64("confidence", result.Confidence),
		slog.Int("models", input.NumPresent()))

	if c := result.Breakdown.Conflict; c != nil {
		e.recordCounter("conflicts_total", map[string]string{"severity": c.Severity.String()})
		e.log.WarnContext(ctx, "model conflict detected",
			slog.String("severity", c.Severity.String()),
			slog.String("message", c.Message))
	}

	return result, nil
}

// assembleResult builds the EnsembleResult from the pipeline's final
// state, substituting the sentinel entry for every absent slot.
func assembleResult(input domain.EnsembleInput, state domain.State) domain.EnsembleResult {
	weights, _ := domain.Get(state, domain.KeyWeights)
	vote, _ := domain.Get(state, domain.KeyVote)

	breakdown := domain.EnsembleBreakdown{
		FullTime: domain.NoPrediction(),
		HalfTime: domain.NoPrediction(),
		Pattern:  domain.NoPrediction(),
		Weights:  weights,
	}
	if p := input.FullTime; p != nil {
		breakdown.FullTime = *p
	}
	if p := input.HalfTime; p != nil {
		breakdown.HalfTime = *p
	}
	if p := input.Pattern; p != nil {
		breakdown.Pattern = *p
	}
	if conflict, ok := domain.Get(state, domain.KeyConflict); ok {
		breakdown.Conflict = &conflict
	}

	return domain.EnsembleResult{
		Prediction: vote.Label,
		Confidence: vote.Confidence,
		Breakdown:  breakdown,
	}
}

// PredictBatch evaluates a slice of inputs with bounded concurrency.
// Results are returned in input order; a failed item carries its error
// and never aborts the rest of the batch. Context cancellation stops
// unstarted items, which then report the context error.
func (e *Engine) PredictBatch(ctx context.Context, inputs []domain.EnsembleInput) []BatchItem {
	items := make([]BatchItem, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.BatchParallelism)

	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				items[i] = BatchItem{Index: i, Err: err}
				return nil
			}
			result, err := e.predict(ctx, input, fmt.Sprintf("batch-%d", i))
			if err != nil {
				items[i] = BatchItem{Index: i, Err: err}
				return nil
			}
			items[i] = BatchItem{Index: i, Result: &result}
			return nil
		})
	}

	// Item errors are captured per item, so Wait never reports one.
	_ = g.Wait()

	e.log.Info("batch prediction completed",
		slog.Int("total", len(items)),
		slog.Int("failed", countFailed(items)))
	return items
}

func (e *Engine) recordCounter(metric string, labels map[string]string) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordCounter(metric, 1, labels)
}

func countFailed(items []BatchItem) int {
	n := 0
	for _, item := range items {
		if item.Err != nil {
			n++
		}
	}
	return n
}

// Status reports the engine's effective configuration.
func (e *Engine) Status() Status {
	return Status{
		BaselineWeights: e.cfg.Weights.Baseline(),
		ConflictThresholds: map[string]float64{
			"high":   e.cfg.Conflict.High,
			"medium": e.cfg.Conflict.Medium,
			"detect": e.cfg.Conflict.Detect,
		},
		Units:            []string{e.allocator.Name(), e.aggregator.Name(), e.detector.Name()},
		UnitTypes:        e.registry.Types(),
		BatchParallelism: e.cfg.BatchParallelism,
	}
}
