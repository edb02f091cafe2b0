// Package report accumulates and serializes reconciliation results for audit
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Report collects the outcomes of one reconciliation run. Outcomes are
// append-only; nothing is mutated or dropped after it is recorded, so a
// partial report is still valid for diagnostics if the run aborts.
type Report struct {
	RunID      string
	outcomes   []models.ResolutionOutcome
	duplicates []models.DuplicateVerdict
}

// New creates an empty report for a run
func New(runID string) *Report {
	return &Report{RunID: runID}
}

// AddOutcome appends a resolution outcome
func (r *Report) AddOutcome(o models.ResolutionOutcome) {
	r.outcomes = append(r.outcomes, o)
}

// AddVerdict appends a duplicate verdict
func (r *Report) AddVerdict(v models.DuplicateVerdict) {
	r.duplicates = append(r.duplicates, v)
}

// Outcomes returns the accumulated outcomes in insertion order
func (r *Report) Outcomes() []models.ResolutionOutcome {
	return r.outcomes
}

// Verdicts returns the accumulated duplicate verdicts in insertion order
func (r *Report) Verdicts() []models.DuplicateVerdict {
	return r.duplicates
}

// Counts tallies outcomes by action
func (r *Report) Counts() map[models.Action]int {
	counts := make(map[models.Action]int)
	for _, o := range r.outcomes {
		counts[o.Action]++
	}
	return counts
}

// WriteOutcomes serializes the outcomes as a JSON array. Field names and
// action values are a contract with the downstream review tooling.
func (r *Report) WriteOutcomes(w io.Writer) error {
	outcomes := r.outcomes
	if outcomes == nil {
		outcomes = []models.ResolutionOutcome{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(outcomes)
}

// WriteDuplicates serializes the duplicate verdicts as a JSON array
func (r *Report) WriteDuplicates(w io.Writer) error {
	verdicts := r.duplicates
	if verdicts == nil {
		verdicts = []models.DuplicateVerdict{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(verdicts)
}

// FileSink writes reports to a directory, one pair of files per run
type FileSink struct {
	dir    string
	logger ectologger.Logger
}

// NewFileSink creates a sink rooted at dir
func NewFileSink(dir string, logger ectologger.Logger) *FileSink {
	return &FileSink{dir: dir, logger: logger}
}

// OutcomePath returns the outcome report path for a run
func (s *FileSink) OutcomePath(runID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("outcomes_%s.json", runID))
}

// DuplicatePath returns the duplicate report path for a run
func (s *FileSink) DuplicatePath(runID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("duplicates_%s.json", runID))
}

// Flush writes both report files. Called on success and on abort, so the
// partial report survives a fatal error.
func (s *FileSink) Flush(r *Report) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	if err := s.writeFile(s.OutcomePath(r.RunID), r.WriteOutcomes); err != nil {
		return err
	}
	if err := s.writeFile(s.DuplicatePath(r.RunID), r.WriteDuplicates); err != nil {
		return err
	}

	s.logger.WithFields(map[string]any{
		"run_id":   r.RunID,
		"outcomes": len(r.outcomes),
		"verdicts": len(r.duplicates),
	}).Info("Flushed reconciliation report")
	return nil
}

func (s *FileSink) writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file %s: %w", path, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return fmt.Errorf("failed to write report file %s: %w", path, err)
	}
	return nil
}
