package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidenceTier_Precision(t *testing.T) {
	tests := []struct {
		tier ConfidenceTier
		want int
	}{
		{TierExactPostcode, 3},
		{TierTextLocality, 2},
		{TierMunicipalityFallback, 1},
		{TierNoResult, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.tier.Precision(), "tier %s", tt.tier)
	}
}

func TestConfidenceTier_NeedsReview(t *testing.T) {
	assert.False(t, TierExactPostcode.NeedsReview())
	assert.False(t, TierTextLocality.NeedsReview())
	assert.True(t, TierMunicipalityFallback.NeedsReview())
	assert.True(t, TierNoResult.NeedsReview())
}

func TestOutputColumns_Order(t *testing.T) {
	cols := OutputColumns()
	require.Len(t, cols, len(InputColumns)+7)
	assert.Equal(t, InputColumns, cols[:len(InputColumns)])
	assert.Equal(t,
		[]string{"lat", "lon", "strategy_source", "match_note", "confidence_tier", "miss_reason", "precision"},
		cols[len(InputColumns):],
	)
}

func TestOutputRecord_Row(t *testing.T) {
	rec := OutputRecord{
		Source:         sampleRecord(),
		Lat:            "20.6767",
		Lon:            "-103.3475",
		StrategySource: "cp_viewbox",
		MatchNote:      "44100, Guadalajara",
		Tier:           TierExactPostcode,
	}

	row := rec.Row()
	require.Len(t, row, len(OutputColumns()))
	assert.Equal(t, "44100", row[0])
	n := len(InputColumns)
	assert.Equal(t, "20.6767", row[n])
	assert.Equal(t, "-103.3475", row[n+1])
	assert.Equal(t, "cp_viewbox", row[n+2])
	assert.Equal(t, "exact_postcode", row[n+4])
	assert.Equal(t, "", row[n+5])
	assert.Equal(t, "3", row[n+6])
}

func TestOutputRecord_Geocoded(t *testing.T) {
	assert.True(t, OutputRecord{Lat: "1", Lon: "2"}.Geocoded())
	assert.False(t, OutputRecord{Lat: "1"}.Geocoded())
	assert.False(t, OutputRecord{}.Geocoded())
}
