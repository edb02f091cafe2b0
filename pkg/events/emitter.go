// Package events handles event emission for reconciliation runs
package events

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter handles event emission for clover
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter. A nil producer disables emission,
// which keeps batch runs usable without a broker.
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitOutcome emits a per-record outcome event
func (e *Emitter) EmitOutcome(ctx context.Context, runID string, outcome *models.ResolutionOutcome) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitOutcome")
	defer span.End()

	if e.producer == nil {
		return nil
	}

	eventType := "outcome.skipped"
	switch outcome.Action {
	case models.ActionUpdated:
		eventType = "outcome.updated"
	case models.ActionReview:
		eventType = "outcome.review"
	}

	event := &kafka.OutcomeEvent{
		EventType:     eventType,
		RunID:         runID,
		InputID:       outcome.InputID,
		BestMatchID:   outcome.BestMatchID,
		BestMatchName: outcome.BestMatchName,
		Score:         outcome.Score,
		Action:        outcome.Action,
	}

	if err := e.producer.PublishOutcomeEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit outcome event")
		return err
	}

	return nil
}

// EmitRunCompleted emits the run summary event
func (e *Emitter) EmitRunCompleted(ctx context.Context, summary *models.RunSummary) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunCompleted")
	defer span.End()

	if e.producer == nil {
		return nil
	}

	counts := make(map[string]int, len(summary.Counts))
	for action, n := range summary.Counts {
		counts[string(action)] = n
	}

	event := &kafka.RunEvent{
		EventType:  "run.completed",
		RunID:      summary.RunID,
		Counts:     counts,
		Duplicates: summary.Duplicates,
	}

	if err := e.producer.PublishRunEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run.completed event")
		return err
	}

	return nil
}

// EmitRunAborted emits a run failure event
func (e *Emitter) EmitRunAborted(ctx context.Context, runID string, cause error) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunAborted")
	defer span.End()

	if e.producer == nil {
		return nil
	}

	event := &kafka.RunEvent{
		EventType: "run.aborted",
		RunID:     runID,
		Error:     fmt.Sprintf("%v", cause),
	}

	if err := e.producer.PublishRunEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run.aborted event")
		return err
	}

	return nil
}
