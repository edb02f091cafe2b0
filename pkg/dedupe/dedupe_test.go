package dedupe

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func testDetector() *Detector {
	return NewDetector(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func verdictFor(t *testing.T, verdicts []models.DuplicateVerdict, id string) models.DuplicateVerdict {
	t.Helper()
	for _, v := range verdicts {
		if v.InputID == id {
			return v
		}
	}
	t.Fatalf("no verdict for %s", id)
	return models.DuplicateVerdict{}
}

func TestGroupByEvent(t *testing.T) {
	groups := GroupByEvent([]*models.Leader{
		{ID: "l1", EventID: "e1"},
		{ID: "l2", EventID: "e1"},
		{ID: "l3", EventID: "e2"},
	})

	assert.Len(t, groups, 2)
	assert.Len(t, groups["e1"], 2)
	assert.Len(t, groups["e2"], 1)
}

func TestDetector_MissingEmailSubsumedByContactRecord(t *testing.T) {
	detector := testDetector()

	verdicts := detector.Detect(context.Background(), []*models.Leader{
		{ID: "l1", EventID: "e1", Name: "Juan Perez", Email: "na"},
		{ID: "l2", EventID: "e1", Name: "Juan Perez Gomez", Email: "juan@example.com"},
	})

	require.Len(t, verdicts, 2)

	dup := verdictFor(t, verdicts, "l1")
	assert.Equal(t, models.DuplicateStatusDuplicate, dup.Status)
	assert.Equal(t, "l2", dup.DuplicateOf)
	assert.Equal(t, "missing email and name contained in a record with contact data", dup.Reason)

	kept := verdictFor(t, verdicts, "l2")
	assert.Equal(t, models.DuplicateStatusKept, kept.Status)
	assert.Empty(t, kept.DuplicateOf)
}

func TestDetector_PartialNameSubsumedByFullerRecord(t *testing.T) {
	detector := testDetector()

	verdicts := detector.Detect(context.Background(), []*models.Leader{
		{ID: "l1", EventID: "e1", Name: "Maria Rodriguez", Email: "m@example.com"},
		{ID: "l2", EventID: "e1", Name: "Maria Rodriguez Lopez", Email: "ml@example.com"},
	})

	dup := verdictFor(t, verdicts, "l1")
	assert.Equal(t, models.DuplicateStatusDuplicate, dup.Status)
	assert.Equal(t, "l2", dup.DuplicateOf)
	assert.Equal(t, "partial name contained in a fuller record", dup.Reason)

	assert.Equal(t, models.DuplicateStatusKept, verdictFor(t, verdicts, "l2").Status)
}

func TestDetector_IdenticalNamesKeepEarliestID(t *testing.T) {
	detector := testDetector()

	verdicts := detector.Detect(context.Background(), []*models.Leader{
		{ID: "l2", EventID: "e1", Name: "Carlos Gómez", Email: "c2@example.com"},
		{ID: "l1", EventID: "e1", Name: "Carlos Gomez", Email: "c1@example.com"},
	})

	assert.Equal(t, models.DuplicateStatusKept, verdictFor(t, verdicts, "l1").Status)

	dup := verdictFor(t, verdicts, "l2")
	assert.Equal(t, models.DuplicateStatusDuplicate, dup.Status)
	assert.Equal(t, "l1", dup.DuplicateOf)
	assert.Equal(t, "identical name, earlier record kept", dup.Reason)
}

func TestDetector_FirstTokenGate(t *testing.T) {
	detector := testDetector()

	// "Juan Perez" is a token subset of "Pedro Juan Perez Gomez", but the
	// first tokens differ so they are never compared.
	verdicts := detector.Detect(context.Background(), []*models.Leader{
		{ID: "l1", EventID: "e1", Name: "Juan Perez", Email: "na"},
		{ID: "l2", EventID: "e1", Name: "Pedro Juan Perez Gomez", Email: "p@example.com"},
	})

	assert.Equal(t, models.DuplicateStatusKept, verdictFor(t, verdicts, "l1").Status)
	assert.Equal(t, models.DuplicateStatusKept, verdictFor(t, verdicts, "l2").Status)
}

func TestDetector_DistinctNamesBothKept(t *testing.T) {
	detector := testDetector()

	verdicts := detector.Detect(context.Background(), []*models.Leader{
		{ID: "l1", EventID: "e1", Name: "Juan Perez", Email: "jp@example.com"},
		{ID: "l2", EventID: "e1", Name: "Juan Gomez", Email: "jg@example.com"},
	})

	assert.Equal(t, models.DuplicateStatusKept, verdictFor(t, verdicts, "l1").Status)
	assert.Equal(t, models.DuplicateStatusKept, verdictFor(t, verdicts, "l2").Status)
}

func TestDetector_ScopesNeverCross(t *testing.T) {
	detector := testDetector()

	// Identical names in different events are different people.
	verdicts := detector.Detect(context.Background(), []*models.Leader{
		{ID: "l1", EventID: "e1", Name: "Juan Perez", Email: "jp@example.com"},
		{ID: "l2", EventID: "e2", Name: "Juan Perez", Email: "jp@example.com"},
	})

	assert.Equal(t, models.DuplicateStatusKept, verdictFor(t, verdicts, "l1").Status)
	assert.Equal(t, models.DuplicateStatusKept, verdictFor(t, verdicts, "l2").Status)
}

func TestDetector_MalformedRecordsIgnored(t *testing.T) {
	detector := testDetector()

	verdicts := detector.Detect(context.Background(), []*models.Leader{
		{ID: "l1", EventID: "e1", Name: "Juan Perez", Email: "jp@example.com"},
		{ID: "l2", EventID: "e1", Name: ""},
		{ID: "", EventID: "e1", Name: "Juan Perez"},
	})

	// Only the well-formed record gets a verdict, and the malformed ones do
	// not count as dominators either.
	require.Len(t, verdicts, 1)
	assert.Equal(t, "l1", verdicts[0].InputID)
	assert.Equal(t, models.DuplicateStatusKept, verdicts[0].Status)
}

func TestDetector_DominatorChosenByLowestID(t *testing.T) {
	detector := testDetector()

	// Both l2 and l3 dominate l1; the lowest sibling ID is picked so repeated
	// runs are stable.
	verdicts := detector.Detect(context.Background(), []*models.Leader{
		{ID: "l1", EventID: "e1", Name: "Juan Perez", Email: "na"},
		{ID: "l3", EventID: "e1", Name: "Juan Perez Gomez", Email: "a@example.com"},
		{ID: "l2", EventID: "e1", Name: "Juan Perez Diaz", Email: "b@example.com"},
	})

	dup := verdictFor(t, verdicts, "l1")
	assert.Equal(t, models.DuplicateStatusDuplicate, dup.Status)
	assert.Equal(t, "l2", dup.DuplicateOf)
}

func TestDetector_ContactSentinelsCountAsMissing(t *testing.T) {
	detector := testDetector()

	tests := []struct {
		name  string
		email string
	}{
		{"empty", ""},
		{"na", "na"},
		{"n/a", "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdicts := detector.Detect(context.Background(), []*models.Leader{
				{ID: "l1", EventID: "e1", Name: "Juan Perez", Email: tt.email},
				{ID: "l2", EventID: "e1", Name: "Juan Perez Gomez", Email: "j@example.com"},
			})

			dup := verdictFor(t, verdicts, "l1")
			assert.Equal(t, models.DuplicateStatusDuplicate, dup.Status)
			assert.Equal(t, "l2", dup.DuplicateOf)
		})
	}
}
