// Package matching implements canonical voting-place matching
package matching

import (
	"context"

	"github.com/Gobusters/ectologger"

	appcontext "github.com/Ramsey-B/clover/internal/context"
	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Config contains configuration for the match engine
type Config struct {
	// Threshold is the minimum similarity for an automatic rewrite (default: 0.85)
	Threshold float64
	// ValidLocalities is the enumerated set of administrative localities;
	// records outside it are never scored
	ValidLocalities []string
}

// DefaultConfig returns default engine configuration
func DefaultConfig() Config {
	return Config{
		Threshold:       0.85,
		ValidLocalities: DefaultLocalities,
	}
}

// DefaultLocalities is the fixed set of 20 administrative localities the
// reference registry covers. Overridable through configuration alongside a
// reference-source refresh.
var DefaultLocalities = []string{
	"Usaquén", "Chapinero", "Santa Fe", "San Cristóbal", "Usme",
	"Tunjuelito", "Bosa", "Kennedy", "Fontibón", "Engativá",
	"Suba", "Barrios Unidos", "Teusaquillo", "Los Mártires", "Antonio Nariño",
	"Puente Aranda", "La Candelaria", "Rafael Uribe Uribe", "Ciudad Bolívar", "Sumapaz",
}

// ReferenceIndex groups the polling station registry by normalized locality.
// Built once per run; the partition key is the sole basis for candidate
// pruning, so a station is never proposed outside its locality.
type ReferenceIndex struct {
	byLocality map[string][]*models.PollingStation
	size       int
}

// BuildReferenceIndex builds the per-locality candidate index
func BuildReferenceIndex(stations []*models.PollingStation) *ReferenceIndex {
	idx := &ReferenceIndex{
		byLocality: make(map[string][]*models.PollingStation),
		size:       len(stations),
	}
	for _, st := range stations {
		key := normalizers.Normalize(st.Locality)
		idx.byLocality[key] = append(idx.byLocality[key], st)
	}
	return idx
}

// Candidates returns the stations sharing the normalized locality key
func (idx *ReferenceIndex) Candidates(normalizedLocality string) []*models.PollingStation {
	return idx.byLocality[normalizedLocality]
}

// Size returns the total number of indexed stations
func (idx *ReferenceIndex) Size() int {
	return idx.size
}

// Engine resolves leader voting places against the polling station registry
type Engine struct {
	logger          ectologger.Logger
	scorer          *Scorer
	config          Config
	validLocalities map[string]struct{}
}

// NewEngine creates a new match engine
func NewEngine(logger ectologger.Logger, config Config) *Engine {
	valid := make(map[string]struct{}, len(config.ValidLocalities))
	for _, l := range config.ValidLocalities {
		valid[normalizers.Normalize(l)] = struct{}{}
	}
	return &Engine{
		logger:          logger,
		scorer:          NewScorer(),
		config:          config,
		validLocalities: valid,
	}
}

// Resolve classifies a single leader against the reference index and returns
// exactly one outcome. On an `updated` outcome the leader's voting place is
// rewritten to the canonical station name and its locality is normalized to
// the station's partition key; on `review` the leader is flagged and left
// untouched.
func (e *Engine) Resolve(ctx context.Context, leader *models.Leader, refs *ReferenceIndex) models.ResolutionOutcome {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.Resolve")
	defer span.End()

	outcome := models.ResolutionOutcome{
		InputID:       leader.ID,
		OriginalValue: leader.VotingPlace,
	}

	if leader.Malformed() {
		outcome.Action = models.ActionSkipMalformed
		outcome.Note = "record is missing its identifier or name"
		return outcome
	}

	locality := normalizers.Normalize(leader.Locality)
	if _, ok := e.validLocalities[locality]; !ok {
		outcome.Action = models.ActionSkipOutOfDomain
		return outcome
	}

	candidates := refs.Candidates(locality)
	if len(candidates) == 0 {
		outcome.Action = models.ActionSkipNoCandidates
		return outcome
	}

	best := e.bestCandidate(leader.VotingPlace, candidates)
	outcome.BestMatchID = best.Station.ID
	outcome.BestMatchName = best.Station.Name
	outcome.Score = best.Score

	if best.Score >= e.config.Threshold {
		outcome.Action = models.ActionUpdated
		leader.VotingPlace = best.Station.Name
		leader.Locality = best.Station.Locality
	} else {
		outcome.Action = models.ActionReview
		leader.NeedsReview = true
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":    appcontext.GetRunID(ctx),
		"leader_id": leader.ID,
		"action":    outcome.Action,
		"score":     outcome.Score,
	}).Debug("Resolved voting place")

	return outcome
}

// bestCandidate scores every candidate and picks the highest. A station's
// score is the best similarity across its canonical name and aliases.
// Equal scores break toward the lexicographically smallest station ID so
// repeated runs over the same snapshot are reproducible.
func (e *Engine) bestCandidate(value string, candidates []*models.PollingStation) models.MatchCandidate {
	var best models.MatchCandidate
	for _, st := range candidates {
		score := 0.0
		for _, name := range st.Names() {
			if s := e.scorer.Similarity(value, name); s > score {
				score = s
			}
		}
		if best.Station == nil ||
			score > best.Score ||
			(score == best.Score && st.ID < best.Station.ID) {
			best = models.MatchCandidate{Station: st, Score: score}
		}
	}
	return best
}
