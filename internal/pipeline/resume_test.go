package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sepomex-enrich/internal/model"
)

func TestLoadResumeIndex_MissingFileYieldsEmptyIndex(t *testing.T) {
	idx, err := LoadResumeIndex(context.Background(), filepath.Join(t.TempDir(), "none.csv"), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}

func TestLoadResumeIndex_IndexesOnlyGeocodedRows(t *testing.T) {
	dir := t.TempDir()
	results := filepath.Join(dir, "out.csv")
	misses := filepath.Join(dir, "misses.csv")

	w, err := NewWriter(results, misses)
	require.NoError(t, err)

	geocoded := testOutputRecord(model.TierExactPostcode)
	require.NoError(t, w.Write(geocoded))

	noResult := testOutputRecord(model.TierNoResult)
	noResult.Source.PostalCode = "44200"
	require.NoError(t, w.Write(noResult))
	require.NoError(t, w.Close())

	idx, err := LoadResumeIndex(context.Background(), results, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
	assert.True(t, idx.Completed(geocoded.Source))
	assert.False(t, idx.Completed(noResult.Source), "rows without coordinates are re-attempted")
}

func TestResumeIndex_KeyNormalization(t *testing.T) {
	dir := t.TempDir()
	results := filepath.Join(dir, "out.csv")

	w, err := NewWriter(results, filepath.Join(dir, "misses.csv"))
	require.NoError(t, err)
	require.NoError(t, w.Write(testOutputRecord(model.TierExactPostcode)))
	require.NoError(t, w.Close())

	idx, err := LoadResumeIndex(context.Background(), results, nil)
	require.NoError(t, err)

	shouted := testOutputRecord(model.TierExactPostcode).Source
	shouted.Settlement = "CENTRO"
	shouted.Municipality = "guadalajara"
	assert.True(t, idx.Completed(shouted))
}

func TestResumeIndex_CustomKeyFields(t *testing.T) {
	dir := t.TempDir()
	results := filepath.Join(dir, "out.csv")

	w, err := NewWriter(results, filepath.Join(dir, "misses.csv"))
	require.NoError(t, err)
	require.NoError(t, w.Write(testOutputRecord(model.TierExactPostcode)))
	require.NoError(t, w.Close())

	idx, err := LoadResumeIndex(context.Background(), results, []string{"postal_code"})
	require.NoError(t, err)

	other := model.SourceRecord{PostalCode: "44100", Settlement: "different"}
	assert.True(t, idx.Completed(other), "key is postal code only")
}

func TestResumeIndex_Add(t *testing.T) {
	idx := NewResumeIndex(nil)
	rec := testOutputRecord(model.TierExactPostcode).Source
	assert.False(t, idx.Completed(rec))
	idx.Add(rec)
	assert.True(t, idx.Completed(rec))
}
