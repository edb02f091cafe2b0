package leader

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/internal/database"
	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Repository handles leader persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new leader repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const columns = "id, event_id, name, email, phone, voting_place, locality, needs_review, created_at, updated_at, deleted_at"

// ListAll returns the point-in-time snapshot of active leaders used by a
// reconciliation run
func (r *Repository) ListAll(ctx context.Context) ([]*models.Leader, error) {
	ctx, span := tracing.StartSpan(ctx, "leader.Repository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("leaders")
	sb.Where(sb.IsNull("deleted_at"))
	sb.OrderBy("created_at").Asc()

	query, args := sb.Build()
	var leaders []*models.Leader
	if err := r.db.SelectContext(ctx, &leaders, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list leaders")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list leaders")
	}

	return leaders, nil
}

// ApplyVotingPlaceUpdates writes back the rewritten voting place and locality
// for every leader resolved as `updated`, in one transaction
func (r *Repository) ApplyVotingPlaceUpdates(ctx context.Context, leaders []*models.Leader) error {
	ctx, span := tracing.StartSpan(ctx, "leader.Repository.ApplyVotingPlaceUpdates")
	defer span.End()

	if len(leaders) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to begin update transaction")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update leaders")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, l := range leaders {
		ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
		ub.Update("leaders")
		ub.Set(
			ub.Assign("voting_place", l.VotingPlace),
			ub.Assign("locality", l.Locality),
			ub.Assign("needs_review", false),
			ub.Assign("updated_at", now),
		)
		ub.Where(ub.Equal("id", l.ID))

		query, args := ub.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"leader_id": l.ID}).Error("Failed to update leader voting place")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update leaders")
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to commit leader updates")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update leaders")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(leaders)}).Debug("Applied voting place updates")
	return nil
}

// FlagForReview marks leaders whose best candidate fell below the threshold
func (r *Repository) FlagForReview(ctx context.Context, ids []string) error {
	ctx, span := tracing.StartSpan(ctx, "leader.Repository.FlagForReview")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("leaders")
	ub.Set(
		ub.Assign("needs_review", true),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(ub.In("id", sqlbuilder.List(ids)))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to flag leaders for review")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to flag leaders for review")
	}

	return nil
}

// BackfillContacts copies contact fields from a kept sibling onto a duplicate
// record that is missing them. Invoked by the external apply step, never by
// the batch run itself.
func (r *Repository) BackfillContacts(ctx context.Context, targetID, siblingID string) error {
	ctx, span := tracing.StartSpan(ctx, "leader.Repository.BackfillContacts")
	defer span.End()

	query := `
		UPDATE leaders t
		SET email = CASE WHEN lower(trim(t.email)) IN ('', 'na', 'n/a') THEN s.email ELSE t.email END,
		    phone = CASE WHEN lower(trim(t.phone)) IN ('', 'na', 'n/a') THEN s.phone ELSE t.phone END,
		    updated_at = $1
		FROM leaders s
		WHERE t.id = $2 AND s.id = $3`

	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), targetID, siblingID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"target_id":  targetID,
			"sibling_id": siblingID,
		}).Error("Failed to backfill contacts")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to backfill contacts")
	}

	return nil
}
