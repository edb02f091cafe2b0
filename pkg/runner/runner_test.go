package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/dedupe"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/report"
)

type fakeRecordStore struct {
	leaders   []*models.Leader
	listErr   error
	applied   []*models.Leader
	flagged   []string
	applyErr  error
	applyCall int
}

func (f *fakeRecordStore) ListAll(ctx context.Context) ([]*models.Leader, error) {
	return f.leaders, f.listErr
}

func (f *fakeRecordStore) ApplyVotingPlaceUpdates(ctx context.Context, leaders []*models.Leader) error {
	f.applyCall++
	f.applied = leaders
	return f.applyErr
}

func (f *fakeRecordStore) FlagForReview(ctx context.Context, ids []string) error {
	f.flagged = ids
	return nil
}

type fakeReferenceStore struct {
	stations []*models.PollingStation
	listErr  error
}

func (f *fakeReferenceStore) ListAll(ctx context.Context) ([]*models.PollingStation, error) {
	return f.stations, f.listErr
}

type fakeOutcomeStore struct {
	rows      []*models.ResolutionOutcome
	createErr error
}

func (f *fakeOutcomeStore) CreateBatch(ctx context.Context, outcomes []*models.ResolutionOutcome) error {
	f.rows = outcomes
	return f.createErr
}

type fakeSink struct {
	flushed []*report.Report
}

func (f *fakeSink) Flush(r *report.Report) error {
	f.flushed = append(f.flushed, r)
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestRunner(records *fakeRecordStore, reference *fakeReferenceStore, outcomes *fakeOutcomeStore, sink *fakeSink, cfg Config) *Runner {
	logger := testLogger()
	return New(
		logger,
		records,
		reference,
		outcomes,
		sink,
		matching.NewEngine(logger, matching.DefaultConfig()),
		dedupe.NewDetector(logger),
		events.NewEmitter(nil, logger),
		cfg,
	)
}

func TestRunner_Run(t *testing.T) {
	reference := &fakeReferenceStore{stations: []*models.PollingStation{
		{ID: "s1", Name: "Colegio Distrital de Usaquén", Locality: "Usaquén"},
	}}
	records := &fakeRecordStore{leaders: []*models.Leader{
		{ID: "l1", EventID: "e1", Name: "Juan Perez", Email: "j@example.com",
			VotingPlace: "colegio distrital usaquen", Locality: "Usaquén"},
		{ID: "l2", EventID: "e1", Name: "Maria Gomez", Email: "m@example.com",
			VotingPlace: "Escuela Rural El Paso", Locality: "Usaquén"},
		{ID: "l3", EventID: "e1", Name: "Pedro Diaz", Email: "p@example.com",
			VotingPlace: "Colegio San José", Locality: "Miami"},
	}}
	outcomes := &fakeOutcomeStore{}
	sink := &fakeSink{}

	runner := newTestRunner(records, reference, outcomes, sink, Config{ApplyUpdates: true})
	summary, err := runner.Run(context.Background())

	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 1, summary.Counts[models.ActionUpdated])
	assert.Equal(t, 1, summary.Counts[models.ActionReview])
	assert.Equal(t, 1, summary.Counts[models.ActionSkipOutOfDomain])
	assert.Equal(t, 0, summary.Duplicates)
	assert.Equal(t, 3, summary.Kept)

	// Outcomes persisted with the run ID stamped on every row.
	require.Len(t, outcomes.rows, 3)
	for _, row := range outcomes.rows {
		assert.Equal(t, summary.RunID, row.RunID)
	}

	// The cleared match was written back; the weak one flagged for review.
	require.Len(t, records.applied, 1)
	assert.Equal(t, "l1", records.applied[0].ID)
	assert.Equal(t, "Colegio Distrital de Usaquén", records.applied[0].VotingPlace)
	assert.Equal(t, []string{"l2"}, records.flagged)

	require.Len(t, sink.flushed, 1)
	assert.Equal(t, summary.RunID, sink.flushed[0].RunID)
	assert.Len(t, sink.flushed[0].Verdicts(), 3)
}

func TestRunner_Run_DetectsDuplicates(t *testing.T) {
	reference := &fakeReferenceStore{}
	records := &fakeRecordStore{leaders: []*models.Leader{
		{ID: "l1", EventID: "e1", Name: "Juan Perez", Email: "na", Locality: "Miami"},
		{ID: "l2", EventID: "e1", Name: "Juan Perez Gomez", Email: "j@example.com", Locality: "Miami"},
	}}
	sink := &fakeSink{}

	runner := newTestRunner(records, reference, &fakeOutcomeStore{}, sink, Config{})
	summary, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, 1, summary.Kept)

	verdicts := sink.flushed[0].Verdicts()
	require.Len(t, verdicts, 2)
}

func TestRunner_Run_ReferenceFailureProducesNoReport(t *testing.T) {
	reference := &fakeReferenceStore{listErr: errors.New("registry unavailable")}
	sink := &fakeSink{}

	runner := newTestRunner(&fakeRecordStore{}, reference, &fakeOutcomeStore{}, sink, Config{})
	summary, err := runner.Run(context.Background())

	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Empty(t, sink.flushed)
}

func TestRunner_Run_RecordFailureProducesNoReport(t *testing.T) {
	records := &fakeRecordStore{listErr: errors.New("snapshot unavailable")}
	sink := &fakeSink{}

	runner := newTestRunner(records, &fakeReferenceStore{}, &fakeOutcomeStore{}, sink, Config{})
	summary, err := runner.Run(context.Background())

	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Empty(t, sink.flushed)
}

func TestRunner_Run_PersistFailureFlushesPartialReport(t *testing.T) {
	records := &fakeRecordStore{leaders: []*models.Leader{
		{ID: "l1", EventID: "e1", Name: "Juan Perez", Locality: "Miami"},
	}}
	outcomes := &fakeOutcomeStore{createErr: errors.New("insert failed")}
	sink := &fakeSink{}

	runner := newTestRunner(records, &fakeReferenceStore{}, outcomes, sink, Config{})
	summary, err := runner.Run(context.Background())

	require.Error(t, err)
	assert.Nil(t, summary)

	// The partial report still lands on disk for diagnostics.
	require.Len(t, sink.flushed, 1)
	assert.Len(t, sink.flushed[0].Outcomes(), 1)
}

func TestRunner_Run_ReportOnlyMode(t *testing.T) {
	reference := &fakeReferenceStore{stations: []*models.PollingStation{
		{ID: "s1", Name: "Colegio Distrital de Usaquén", Locality: "Usaquén"},
	}}
	records := &fakeRecordStore{leaders: []*models.Leader{
		{ID: "l1", EventID: "e1", Name: "Juan Perez",
			VotingPlace: "colegio distrital usaquen", Locality: "Usaquén"},
	}}
	outcomes := &fakeOutcomeStore{}
	sink := &fakeSink{}

	runner := newTestRunner(records, reference, outcomes, sink, Config{ApplyUpdates: false})
	summary, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Counts[models.ActionUpdated])

	// Outcomes are still recorded, but nothing is written back.
	assert.Len(t, outcomes.rows, 1)
	assert.Zero(t, records.applyCall)
	assert.Nil(t, records.flagged)
	require.Len(t, sink.flushed, 1)
}
