package model

// ConfidenceTier labels how trustworthy a resolved coordinate is.
type ConfidenceTier string

const (
	// TierExactPostcode: a postal-code query matched the row's code.
	TierExactPostcode ConfidenceTier = "exact_postcode"
	// TierTextLocality: a settlement free-text query matched a locality.
	TierTextLocality ConfidenceTier = "text_locality"
	// TierMunicipalityFallback: only the municipality itself resolved.
	TierMunicipalityFallback ConfidenceTier = "municipality_fallback"
	// TierNoResult: every query strategy came back empty.
	TierNoResult ConfidenceTier = "no_result"
)

// Precision returns the numeric encoding of the tier (3 best, 0 none).
// The mapping is total: every tier has exactly one precision.
func (t ConfidenceTier) Precision() int {
	switch t {
	case TierExactPostcode:
		return 3
	case TierTextLocality:
		return 2
	case TierMunicipalityFallback:
		return 1
	default:
		return 0
	}
}

// NeedsReview reports whether a row of this tier belongs in the misses
// stream for manual review.
func (t ConfidenceTier) NeedsReview() bool {
	return t == TierMunicipalityFallback || t == TierNoResult
}
