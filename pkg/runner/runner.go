// Package runner orchestrates a full reconciliation batch: load the snapshot,
// resolve every record, detect duplicates, persist outcomes, and emit the
// audit report. It is thin orchestration over the engines; the matching
// packages stay pure and in-memory.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	appcontext "github.com/Ramsey-B/clover/internal/context"
	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/dedupe"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/report"
)

// RecordStore is the snapshot source and write-back target for leaders
type RecordStore interface {
	ListAll(ctx context.Context) ([]*models.Leader, error)
	ApplyVotingPlaceUpdates(ctx context.Context, leaders []*models.Leader) error
	FlagForReview(ctx context.Context, ids []string) error
}

// ReferenceStore supplies the polling station registry
type ReferenceStore interface {
	ListAll(ctx context.Context) ([]*models.PollingStation, error)
}

// OutcomeStore persists per-record outcomes for the review tooling
type OutcomeStore interface {
	CreateBatch(ctx context.Context, outcomes []*models.ResolutionOutcome) error
}

// ReportSink flushes the audit report
type ReportSink interface {
	Flush(r *report.Report) error
}

// Config controls runner behavior
type Config struct {
	// ApplyUpdates controls whether `updated` outcomes are written back to
	// the record store. Duplicate verdicts are always report-only.
	ApplyUpdates bool
}

// Runner executes reconciliation batches
type Runner struct {
	logger    ectologger.Logger
	records   RecordStore
	reference ReferenceStore
	outcomes  OutcomeStore
	sink      ReportSink
	engine    *matching.Engine
	detector  *dedupe.Detector
	emitter   *events.Emitter
	config    Config
}

// New creates a new batch runner
func New(
	logger ectologger.Logger,
	records RecordStore,
	reference ReferenceStore,
	outcomes OutcomeStore,
	sink ReportSink,
	engine *matching.Engine,
	detector *dedupe.Detector,
	emitter *events.Emitter,
	config Config,
) *Runner {
	return &Runner{
		logger:    logger,
		records:   records,
		reference: reference,
		outcomes:  outcomes,
		sink:      sink,
		engine:    engine,
		detector:  detector,
		emitter:   emitter,
		config:    config,
	}
}

// Run executes one reconciliation batch over a point-in-time snapshot and
// returns its summary. A reference-source failure aborts before any matching
// and produces no report; failures after matching started flush the partial
// report for diagnostics before returning the error.
func (r *Runner) Run(ctx context.Context) (*models.RunSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "runner.Runner.Run")
	defer span.End()

	runID := uuid.New().String()
	ctx = appcontext.SetRunID(ctx, runID)
	startedAt := time.Now().UTC()
	log := r.logger.WithContext(ctx).WithFields(map[string]any{"run_id": runID})

	stations, err := r.reference.ListAll(ctx)
	if err != nil {
		log.WithError(err).Error("Reference source load failed; aborting run")
		return nil, fmt.Errorf("failed to load polling station registry: %w", err)
	}
	refs := matching.BuildReferenceIndex(stations)

	leaders, err := r.records.ListAll(ctx)
	if err != nil {
		log.WithError(err).Error("Record source load failed; aborting run")
		return nil, fmt.Errorf("failed to load leader snapshot: %w", err)
	}

	log.WithFields(map[string]any{
		"leaders":  len(leaders),
		"stations": refs.Size(),
	}).Info("Starting reconciliation run")

	rep := report.New(runID)
	var updated []*models.Leader
	var reviewIDs []string

	for _, leader := range leaders {
		outcome := r.engine.Resolve(ctx, leader, refs)
		outcome.RunID = runID
		rep.AddOutcome(outcome)

		switch outcome.Action {
		case models.ActionUpdated:
			updated = append(updated, leader)
		case models.ActionReview:
			reviewIDs = append(reviewIDs, leader.ID)
		}
	}

	for _, verdict := range r.detector.Detect(ctx, leaders) {
		rep.AddVerdict(verdict)
	}

	if err := r.persist(ctx, rep, updated, reviewIDs); err != nil {
		r.abort(ctx, rep, err)
		return nil, err
	}

	if err := r.sink.Flush(rep); err != nil {
		log.WithError(err).Error("Failed to flush report")
		return nil, err
	}

	summary := r.summarize(rep, startedAt)
	r.emit(ctx, rep, summary)

	log.WithFields(map[string]any{
		"outcomes":   len(rep.Outcomes()),
		"duplicates": summary.Duplicates,
	}).Info("Reconciliation run complete")

	return summary, nil
}

func (r *Runner) persist(ctx context.Context, rep *report.Report, updated []*models.Leader, reviewIDs []string) error {
	outcomes := rep.Outcomes()
	rows := make([]*models.ResolutionOutcome, len(outcomes))
	for i := range outcomes {
		rows[i] = &outcomes[i]
	}
	if err := r.outcomes.CreateBatch(ctx, rows); err != nil {
		return fmt.Errorf("failed to persist outcomes: %w", err)
	}

	if !r.config.ApplyUpdates {
		return nil
	}
	if err := r.records.ApplyVotingPlaceUpdates(ctx, updated); err != nil {
		return fmt.Errorf("failed to apply voting place updates: %w", err)
	}
	if err := r.records.FlagForReview(ctx, reviewIDs); err != nil {
		return fmt.Errorf("failed to flag leaders for review: %w", err)
	}
	return nil
}

// abort flushes whatever the run produced so far so the partial report is
// available for diagnostics, then emits the failure event.
func (r *Runner) abort(ctx context.Context, rep *report.Report, cause error) {
	if err := r.sink.Flush(rep); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to flush partial report after abort")
	}
	if err := r.emitter.EmitRunAborted(ctx, rep.RunID, cause); err != nil {
		r.logger.WithContext(ctx).WithError(err).Warn("Failed to emit run.aborted event")
	}
}

func (r *Runner) summarize(rep *report.Report, startedAt time.Time) *models.RunSummary {
	duplicates := 0
	kept := 0
	for _, v := range rep.Verdicts() {
		if v.Status == models.DuplicateStatusDuplicate {
			duplicates++
		} else {
			kept++
		}
	}
	return &models.RunSummary{
		RunID:      rep.RunID,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
		Counts:     rep.Counts(),
		Duplicates: duplicates,
		Kept:       kept,
	}
}

func (r *Runner) emit(ctx context.Context, rep *report.Report, summary *models.RunSummary) {
	for i := range rep.Outcomes() {
		outcome := rep.Outcomes()[i]
		if err := r.emitter.EmitOutcome(ctx, rep.RunID, &outcome); err != nil {
			r.logger.WithContext(ctx).WithError(err).Warn("Failed to emit outcome event")
		}
	}
	if err := r.emitter.EmitRunCompleted(ctx, summary); err != nil {
		r.logger.WithContext(ctx).WithError(err).Warn("Failed to emit run.completed event")
	}
}
