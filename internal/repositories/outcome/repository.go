package outcome

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/internal/database"
	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Repository handles resolution outcome persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new outcome repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch persists every outcome of a run
func (r *Repository) CreateBatch(ctx context.Context, outcomes []*models.ResolutionOutcome) error {
	ctx, span := tracing.StartSpan(ctx, "outcome.Repository.CreateBatch")
	defer span.End()

	if len(outcomes) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("resolution_outcomes")
	sb.Cols("id", "run_id", "input_id", "original_value", "best_match_id", "best_match_name", "score", "action", "note", "created_at")

	for _, o := range outcomes {
		if o.ID == "" {
			o.ID = uuid.New().String()
		}
		o.CreatedAt = now
		sb.Values(o.ID, o.RunID, o.InputID, o.OriginalValue, o.BestMatchID, o.BestMatchName, o.Score, o.Action, o.Note, o.CreatedAt)
	}

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create resolution outcomes batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create resolution outcomes")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(outcomes)}).Debug("Created resolution outcomes batch")
	return nil
}

// ListByRun returns all outcomes of a run in insertion order
func (r *Repository) ListByRun(ctx context.Context, runID string) ([]models.ResolutionOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "outcome.Repository.ListByRun")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "run_id", "input_id", "original_value", "best_match_id", "best_match_name", "score", "action", "note", "created_at")
	sb.From("resolution_outcomes")
	sb.Where(sb.Equal("run_id", runID))
	sb.OrderBy("created_at").Asc()

	query, args := sb.Build()
	var outcomes []models.ResolutionOutcome
	if err := r.db.SelectContext(ctx, &outcomes, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list outcomes by run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list outcomes")
	}

	return outcomes, nil
}

// ListByAction returns outcomes with the given action, newest runs first.
// The review queue is ListByAction(ctx, models.ActionReview, limit).
func (r *Repository) ListByAction(ctx context.Context, action models.Action, limit int) ([]models.ResolutionOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "outcome.Repository.ListByAction")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "run_id", "input_id", "original_value", "best_match_id", "best_match_name", "score", "action", "note", "created_at")
	sb.From("resolution_outcomes")
	sb.Where(sb.Equal("action", action))
	sb.OrderBy("created_at").Desc()
	sb.Limit(limit)

	query, args := sb.Build()
	var outcomes []models.ResolutionOutcome
	if err := r.db.SelectContext(ctx, &outcomes, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list outcomes by action")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list outcomes")
	}

	return outcomes, nil
}
