// Package dedupe detects duplicate leader records within an event scope
package dedupe

import (
	"context"
	"sort"

	"github.com/Gobusters/ectologger"

	appcontext "github.com/Ramsey-B/clover/internal/context"
	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Detector finds duplicate leaders. Each record independently scans the other
// records in its scope and decides whether it is dominated by one of them;
// there is no global clustering step, so chains of 3+ near-duplicates are
// resolved pairwise.
type Detector struct {
	logger ectologger.Logger
}

// NewDetector creates a new duplicate detector
func NewDetector(logger ectologger.Logger) *Detector {
	return &Detector{logger: logger}
}

// GroupByEvent builds the per-scope grouping used for candidate pruning.
// Built once per run; leaders are never compared across scopes.
func GroupByEvent(leaders []*models.Leader) map[string][]*models.Leader {
	groups := make(map[string][]*models.Leader)
	for _, l := range leaders {
		groups[l.EventID] = append(groups[l.EventID], l)
	}
	return groups
}

// Detect returns one verdict per well-formed leader. Report-only: no record
// is mutated or removed.
func (d *Detector) Detect(ctx context.Context, leaders []*models.Leader) []models.DuplicateVerdict {
	ctx, span := tracing.StartSpan(ctx, "dedupe.Detector.Detect")
	defer span.End()

	groups := GroupByEvent(leaders)

	verdicts := make([]models.DuplicateVerdict, 0, len(leaders))
	for _, leader := range leaders {
		if leader.Malformed() {
			continue
		}
		verdict := d.judge(leader, groups[leader.EventID])
		verdicts = append(verdicts, verdict)
	}

	duplicates := 0
	for _, v := range verdicts {
		if v.Status == models.DuplicateStatusDuplicate {
			duplicates++
		}
	}
	d.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":     appcontext.GetRunID(ctx),
		"leaders":    len(leaders),
		"duplicates": duplicates,
	}).Info("Duplicate detection complete")

	return verdicts
}

// judge decides whether leader is dominated by any sibling in its scope.
// Candidates are visited in ID order so the chosen dominator is stable
// across runs.
func (d *Detector) judge(leader *models.Leader, scope []*models.Leader) models.DuplicateVerdict {
	verdict := models.DuplicateVerdict{
		InputID: leader.ID,
		Name:    leader.Name,
		EventID: leader.EventID,
		Status:  models.DuplicateStatusKept,
	}

	firstToken := normalizers.FirstToken(leader.Name)
	if firstToken == "" {
		return verdict
	}
	tokens := normalizers.TokenSet(leader.Name, nil)
	normName := normalizers.Normalize(leader.Name)
	hasEmail := models.HasContact(leader.Email)

	candidates := make([]*models.Leader, 0, len(scope))
	for _, other := range scope {
		if other.ID == leader.ID || other.Malformed() {
			continue
		}
		// First-token gate: cheap hard filter, never overridden by similarity
		if normalizers.FirstToken(other.Name) != firstToken {
			continue
		}
		candidates = append(candidates, other)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	for _, other := range candidates {
		otherTokens := normalizers.TokenSet(other.Name, nil)
		otherHasEmail := models.HasContact(other.Email)

		switch {
		case !hasEmail && otherHasEmail && isSubset(tokens, otherTokens):
			verdict.Status = models.DuplicateStatusDuplicate
			verdict.DuplicateOf = other.ID
			verdict.Reason = "missing email and name contained in a record with contact data"
			return verdict

		case hasEmail == otherHasEmail && len(tokens) < len(otherTokens) && isSubset(tokens, otherTokens):
			verdict.Status = models.DuplicateStatusDuplicate
			verdict.DuplicateOf = other.ID
			verdict.Reason = "partial name contained in a fuller record"
			return verdict

		case hasEmail == otherHasEmail && normName == normalizers.Normalize(other.Name) && leader.ID > other.ID:
			verdict.Status = models.DuplicateStatusDuplicate
			verdict.DuplicateOf = other.ID
			verdict.Reason = "identical name, earlier record kept"
			return verdict
		}
	}

	return verdict
}

// isSubset reports whether every token of a appears in b
func isSubset(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		return false
	}
	for t := range a {
		if _, ok := b[t]; !ok {
			return false
		}
	}
	return true
}
