package models

import "time"

// Action classifies what the engine decided for one input record.
type Action string

const (
	// ActionUpdated means the best candidate cleared the similarity threshold
	// and the record's voting place was rewritten to the canonical name.
	ActionUpdated Action = "updated"
	// ActionReview means candidates existed but none cleared the threshold.
	ActionReview Action = "review"
	// ActionSkipNoCandidates means the locality is valid but has no stations.
	ActionSkipNoCandidates Action = "skip_no_candidates"
	// ActionSkipOutOfDomain means the locality is not in the valid set.
	ActionSkipOutOfDomain Action = "skip_out_of_domain"
	// ActionSkipMalformed marks a diagnostic outcome for a record that is
	// missing its identifier or name and was never scored.
	ActionSkipMalformed Action = "skip_malformed"
)

// MatchCandidate pairs an input record with a reference station and its
// similarity score. Transient; never persisted.
type MatchCandidate struct {
	Station *PollingStation
	Score   float64
}

// ResolutionOutcome is the per-record result of a canonical matching run.
// Field names are a contract with the downstream review tooling.
type ResolutionOutcome struct {
	ID            string    `json:"-" db:"id"`
	RunID         string    `json:"-" db:"run_id"`
	InputID       string    `json:"inputId" db:"input_id"`
	OriginalValue string    `json:"originalValue" db:"original_value"`
	BestMatchID   string    `json:"-" db:"best_match_id"`
	BestMatchName string    `json:"bestMatchName" db:"best_match_name"`
	Score         float64   `json:"score" db:"score"`
	Action        Action    `json:"action" db:"action"`
	Note          string    `json:"note,omitempty" db:"note"`
	CreatedAt     time.Time `json:"-" db:"created_at"`
}

// DuplicateStatus classifies a leader after duplicate detection.
type DuplicateStatus string

const (
	DuplicateStatusKept      DuplicateStatus = "kept"
	DuplicateStatusDuplicate DuplicateStatus = "duplicate_of"
)

// DuplicateVerdict is the per-record result of duplicate detection within an
// event scope. Report-only: the engine never merges or deletes records.
type DuplicateVerdict struct {
	InputID     string          `json:"inputId"`
	Name        string          `json:"name"`
	EventID     string          `json:"eventId"`
	Status      DuplicateStatus `json:"status"`
	DuplicateOf string          `json:"duplicateOf,omitempty"`
	Reason      string          `json:"reason,omitempty"`
}

// RunSummary aggregates one reconciliation run for the audit report.
type RunSummary struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Counts     map[Action]int `json:"counts"`
	Duplicates int            `json:"duplicates"`
	Kept       int            `json:"kept"`
}
