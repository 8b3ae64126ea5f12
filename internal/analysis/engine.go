// Package analysis orchestrates the import pipeline over one batch: entity
// resolution, risk scoring and summary aggregation. A run is synchronous and
// rebuilt from scratch on every invocation; nothing is persisted here.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/casetrace/smart-import/internal/batch"
	"github.com/casetrace/smart-import/internal/config"
	"github.com/casetrace/smart-import/internal/metrics"
	"github.com/casetrace/smart-import/internal/resolver"
	"github.com/casetrace/smart-import/internal/risk"
	"github.com/casetrace/smart-import/internal/schema"
)

// Precondition failures for an analysis run. The caller fixes the batch and
// re-invokes; there is no retry logic.
var (
	ErrEmptyBatch         = errors.New("batch is empty")
	ErrUnresolvedWarnings = errors.New("batch has unresolved error warnings")
)

// Summary aggregates counts and sums over the final entity and edge sets.
type Summary struct {
	TotalRecords        int     `json:"total_records"`
	TotalEntities       int     `json:"total_entities"`
	TotalEdges          int     `json:"total_edges"`
	TotalAmount         float64 `json:"total_amount"`
	HighRiskEntities    int     `json:"high_risk_entities"`
	CrossSourceEntities int     `json:"cross_source_entities"`
	SuspectCount        int     `json:"suspect_count"`
	VictimCount         int     `json:"victim_count"`
}

// Result is the terminal output of one analysis run.
type Result struct {
	RunID       string             `json:"run_id"`
	Entities    []*resolver.Entity `json:"entities"`
	Edges       []*resolver.Edge   `json:"edges"`
	Summary     Summary            `json:"summary"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt time.Time          `json:"completed_at"`
}

// Engine runs the resolution and scoring pipeline.
type Engine struct {
	resolver *resolver.Resolver
	scorer   *risk.Scorer
	config   config.ImportConfig
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewEngine creates an analysis engine.
func NewEngine(
	entityResolver *resolver.Resolver,
	scorer *risk.Scorer,
	cfg config.ImportConfig,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		resolver: entityResolver,
		scorer:   scorer,
		config:   cfg,
		metrics:  collector,
		logger:   logger,
	}
}

// Run executes the full pipeline over the batch. It refuses to run while any
// file carries an error-severity warning; files classified unknown are
// excluded from resolution but still counted in the record total. If ctx is
// cancelled the partial result is discarded.
func (e *Engine) Run(ctx context.Context, files []*batch.ParsedFile) (*Result, error) {
	startedAt := time.Now()

	if len(files) == 0 {
		e.metrics.AnalysisRejectedTotal.Inc()
		return nil, ErrEmptyBatch
	}
	for _, f := range files {
		if f.Status == batch.StatusError {
			e.metrics.AnalysisRejectedTotal.Inc()
			return nil, fmt.Errorf("file %q: %w", f.Name, ErrUnresolvedWarnings)
		}
	}

	runID := uuid.New().String()
	e.logger.Info("starting analysis run",
		"run_id", runID,
		"files", len(files))

	totalRecords := 0
	inputs := make([]resolver.InputFile, 0, len(files))
	for _, f := range files {
		totalRecords += f.RecordCount
		if f.RecordType == schema.RecordTypeUnknown {
			continue
		}
		inputs = append(inputs, resolver.InputFile{
			Name:    f.Name,
			Type:    f.RecordType,
			Records: f.NormalizedRecords(),
		})
	}

	graph := e.resolver.Resolve(inputs)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	entities := graph.Entities()
	edges := graph.Edges()
	e.scorer.Score(entities)

	result := &Result{
		RunID:       runID,
		Entities:    entities,
		Edges:       edges,
		Summary:     e.summarize(totalRecords, entities, edges),
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
	}

	e.metrics.AnalysisRunsTotal.Inc()
	e.metrics.AnalysisDuration.Observe(result.CompletedAt.Sub(startedAt).Seconds())
	e.metrics.EntitiesResolvedTotal.Add(float64(len(entities)))
	e.metrics.EdgesCreatedTotal.Add(float64(len(edges)))
	e.metrics.HighRiskEntities.Set(float64(result.Summary.HighRiskEntities))

	e.logger.Info("analysis run completed",
		"run_id", runID,
		"records", totalRecords,
		"entities", len(entities),
		"edges", len(edges),
		"high_risk", result.Summary.HighRiskEntities,
		"duration_ms", result.CompletedAt.Sub(startedAt).Milliseconds())

	return result, nil
}

// summarize aggregates the reporting counters over the final sets. Total
// amount sums bank transfer edges only.
func (e *Engine) summarize(totalRecords int, entities []*resolver.Entity, edges []*resolver.Edge) Summary {
	summary := Summary{
		TotalRecords:  totalRecords,
		TotalEntities: len(entities),
		TotalEdges:    len(edges),
	}

	for _, edge := range edges {
		if edge.Type == resolver.EdgeMoneyTransfer {
			summary.TotalAmount += edge.Amount
		}
	}

	for _, entity := range entities {
		if entity.RiskScore >= e.config.HighRiskThreshold {
			summary.HighRiskEntities++
		}
		if len(entity.Sources) >= 2 {
			summary.CrossSourceEntities++
		}
		switch entity.Metadata.Role {
		case resolver.RoleSuspect:
			summary.SuspectCount++
		case resolver.RoleVictim:
			summary.VictimCount++
		}
	}

	return summary
}
