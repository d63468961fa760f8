package consolidate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-kb/inkwell/internal/capabilities"
	"github.com/inkwell-kb/inkwell/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir(), "test", 8)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestThresholdsPerTier(t *testing.T) {
	tests := []struct {
		tier    capabilities.Tier
		maxDocs int
		maxChk  int
		dedup   float64
	}{
		{capabilities.Base, 1_000, 10_000, 0.95},
		{capabilities.Enhanced, 5_000, 50_000, 0.92},
		{capabilities.Advanced, 20_000, 200_000, 0.90},
		{capabilities.Full, 100_000, 1_000_000, 0.88},
	}
	for _, tt := range tests {
		th := ThresholdsForTier(tt.tier)
		assert.Equal(t, tt.maxDocs, th.MaxDocuments, tt.tier.String())
		assert.Equal(t, tt.maxChk, th.MaxChunks, tt.tier.String())
		assert.Equal(t, tt.dedup, th.DedupThreshold, tt.tier.String())
	}
}

func TestRunEmptyStore(t *testing.T) {
	st := openStore(t)

	report := Run(st, capabilities.Base)

	assert.Zero(t, report.OrphansPruned)
	assert.Zero(t, report.DuplicatesRemoved)
	assert.Zero(t, report.DocumentsEvicted)
}

func TestRunUnderCapacityEvictsNothing(t *testing.T) {
	st := openStore(t)
	for i := 0; i < 5; i++ {
		_, err := st.AddDocument("doc", store.AddDocumentOptions{})
		require.NoError(t, err)
	}

	report := Run(st, capabilities.Base)
	assert.Zero(t, report.DocumentsEvicted)

	n, err := st.CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

// fakeStore lets tests drive over-capacity and failure paths without a
// thousand inserts.
type fakeStore struct {
	docs       int64
	pruneErr   error
	dedupErr   error
	evictErr   error
	evictedN   int
	pruned     int64
	duplicates int64
}

func (f *fakeStore) PruneOrphanChunks() (int64, error) {
	if f.pruneErr != nil {
		return 0, f.pruneErr
	}
	return f.pruned, nil
}

func (f *fakeStore) RemoveDuplicateDocuments() (int64, error) {
	if f.dedupErr != nil {
		return 0, f.dedupErr
	}
	return f.duplicates, nil
}

func (f *fakeStore) EvictOldestDocuments(n int) (int64, error) {
	if f.evictErr != nil {
		return 0, f.evictErr
	}
	f.evictedN = n
	return int64(n), nil
}

func (f *fakeStore) CountDocuments() (int64, error) {
	return f.docs, nil
}

func TestRunEvictsExactExcess(t *testing.T) {
	fake := &fakeStore{docs: 1_050}

	report := Run(fake, capabilities.Base)

	assert.Equal(t, 50, fake.evictedN)
	assert.Equal(t, int64(50), report.DocumentsEvicted)
}

func TestRunStageErrorsYieldZeroAndContinue(t *testing.T) {
	fake := &fakeStore{
		docs:     1_010,
		pruneErr: errors.New("prune boom"),
		dedupErr: errors.New("dedup boom"),
	}

	report := Run(fake, capabilities.Base)

	assert.Zero(t, report.OrphansPruned)
	assert.Zero(t, report.DuplicatesRemoved)
	// Eviction still ran despite the earlier failures.
	assert.Equal(t, int64(10), report.DocumentsEvicted)
}

func TestRunReportsStageCounts(t *testing.T) {
	fake := &fakeStore{pruned: 3, duplicates: 2, docs: 10}

	report := Run(fake, capabilities.Full)

	assert.Equal(t, int64(3), report.OrphansPruned)
	assert.Equal(t, int64(2), report.DuplicatesRemoved)
	assert.Zero(t, report.DocumentsEvicted)
}
