package pollingstation

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/internal/database"
	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Repository handles the read-only polling station registry
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new polling station repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

type aliasRow struct {
	StationID string `db:"station_id"`
	Alias     string `db:"alias"`
}

// ListAll loads the full registry with aliases. A failure here aborts the
// run; there is no meaningful result without a reference set.
func (r *Repository) ListAll(ctx context.Context) ([]*models.PollingStation, error) {
	ctx, span := tracing.StartSpan(ctx, "pollingstation.Repository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "locality", "created_at", "updated_at")
	sb.From("polling_stations")
	sb.OrderBy("id").Asc()

	query, args := sb.Build()
	var stations []*models.PollingStation
	if err := r.db.SelectContext(ctx, &stations, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load polling station registry")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load polling station registry")
	}

	ab := sqlbuilder.PostgreSQL.NewSelectBuilder()
	ab.Select("station_id", "alias")
	ab.From("polling_station_aliases")

	query, args = ab.Build()
	var aliases []aliasRow
	if err := r.db.SelectContext(ctx, &aliases, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load polling station aliases")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load polling station aliases")
	}

	byID := make(map[string]*models.PollingStation, len(stations))
	for _, st := range stations {
		byID[st.ID] = st
	}
	for _, a := range aliases {
		if st, ok := byID[a.StationID]; ok {
			st.Aliases = append(st.Aliases, a.Alias)
		}
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"stations": len(stations),
		"aliases":  len(aliases),
	}).Debug("Loaded polling station registry")

	return stations, nil
}
