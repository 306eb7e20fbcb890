package strategy

import (
	"github.com/sells-group/sepomex-enrich/internal/model"
	"github.com/sells-group/sepomex-enrich/internal/nominatim"
)

// Classify maps an accepted candidate to its confidence tier: postal-code
// strategies yield exact_postcode, settlement free-text strategies
// text_locality, the municipality fallback its own tier. A nil strategy or
// candidate means the ladder was exhausted.
func Classify(s *Strategy, c *nominatim.Candidate) model.ConfidenceTier {
	if s == nil || c == nil {
		return model.TierNoResult
	}
	return s.Tier
}
