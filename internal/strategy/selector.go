package strategy

import (
	"github.com/sells-group/sepomex-enrich/internal/model"
	"github.com/sells-group/sepomex-enrich/internal/nominatim"
	"github.com/sells-group/sepomex-enrich/internal/textnorm"
)

// classBlacklist: candidate classes that can never stand in for a
// settlement or postal area.
var classBlacklist = map[string]bool{
	"highway": true,
	"railway": true,
	"shop":    true,
	"amenity": true,
	"office":  true,
}

// settlementTypes: candidate types that plausibly pin a locality.
var settlementTypes = map[string]bool{
	"city":           true,
	"town":           true,
	"village":        true,
	"hamlet":         true,
	"suburb":         true,
	"neighbourhood":  true,
	"quarter":        true,
	"locality":       true,
	"municipality":   true,
	"administrative": true,
}

// placeClasses: candidate classes describing places and boundaries rather
// than physical features.
var placeClasses = map[string]bool{
	"place":    true,
	"boundary": true,
}

const (
	importanceWeight     = 10.0
	settlementTypeBonus  = 12.0
	placeClassBonus      = 6.0
	municipalityHitBonus = 6.0
)

// Select applies the strategy's acceptance rule to the raw candidates and
// returns at most one winner. Returns nil when nothing is acceptable.
func Select(mode AcceptMode, cands []nominatim.Candidate, row model.SourceRecord, targetState string) *nominatim.Candidate {
	switch mode {
	case AcceptExactPostcode:
		return selectExactPostcode(cands, row.PostalCode)
	default:
		return selectScored(cands, row, targetState)
	}
}

// selectExactPostcode takes the first candidate, in response order, that
// matches the row's postal code. No re-ranking.
func selectExactPostcode(cands []nominatim.Candidate, code string) *nominatim.Candidate {
	for i := range cands {
		if cands[i].MatchesPostcode(code) {
			return &cands[i]
		}
	}
	return nil
}

// selectScored discards blacklisted classes and out-of-state candidates,
// scores the rest, and returns the highest scorer. Ties resolve to the
// earlier candidate.
func selectScored(cands []nominatim.Candidate, row model.SourceRecord, targetState string) *nominatim.Candidate {
	var best *nominatim.Candidate
	var bestScore float64

	for i := range cands {
		c := &cands[i]
		if classBlacklist[c.Class] {
			continue
		}
		if c.Address.State != "" && !textnorm.Equal(c.Address.State, targetState) {
			continue
		}

		s := Score(*c, row)
		if best == nil || s > bestScore {
			best = c
			bestScore = s
		}
	}
	return best
}

// Score rates how well a candidate fits the row: importance anchors the
// score, settlement-like types and place/boundary classes earn bonuses,
// and so does an address naming the row's municipality.
func Score(c nominatim.Candidate, row model.SourceRecord) float64 {
	s := c.Importance * importanceWeight
	if settlementTypes[c.Type] {
		s += settlementTypeBonus
	}
	if placeClasses[c.Class] {
		s += placeClassBonus
	}
	if municipalityMatches(c.Address, row.Municipality) {
		s += municipalityHitBonus
	}
	return s
}

// municipalityMatches reports whether any municipality-like address field
// contains the row's municipality name, ignoring case and accents.
func municipalityMatches(a nominatim.Address, municipality string) bool {
	if municipality == "" {
		return false
	}
	for _, field := range []string{a.Municipality, a.City, a.Town, a.County} {
		if textnorm.Contains(field, municipality) {
			return true
		}
	}
	return false
}
