// Package strategy defines the ordered fallback ladder of geocoding
// queries, candidate acceptance, and confidence classification.
package strategy

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/sepomex-enrich/internal/model"
	"github.com/sells-group/sepomex-enrich/internal/nominatim"
)

// AcceptMode selects how a strategy's raw candidates are judged.
type AcceptMode int

const (
	// AcceptExactPostcode takes the first candidate matching the row's
	// postal code, in response order.
	AcceptExactPostcode AcceptMode = iota
	// AcceptScored filters and scores candidates, taking the best.
	AcceptScored
)

// Env carries the run-wide query context shared by every strategy.
type Env struct {
	State   string
	Country string
	Viewbox *geom.Bounds
}

// Strategy is one rung of the ladder: a stable identifier, a query
// builder, the acceptance mode, and the confidence tier an accepted
// candidate earns.
type Strategy struct {
	ID    string
	Mode  AcceptMode
	Tier  model.ConfidenceTier
	Build func(row model.SourceRecord, env Env) nominatim.Query
}

// Ladder returns the fallback sequence, most to least precise. Rungs are
// tried in order until one yields an accepted candidate.
func Ladder() []Strategy {
	return []Strategy{
		{
			ID:   "cp_viewbox",
			Mode: AcceptExactPostcode,
			Tier: model.TierExactPostcode,
			Build: func(row model.SourceRecord, env Env) nominatim.Query {
				return nominatim.Query{
					PostalCode: row.PostalCode,
					Country:    env.Country,
					Viewbox:    env.Viewbox,
				}
			},
		},
		{
			ID:   "cp",
			Mode: AcceptExactPostcode,
			Tier: model.TierExactPostcode,
			Build: func(row model.SourceRecord, env Env) nominatim.Query {
				return nominatim.Query{
					PostalCode: row.PostalCode,
					Country:    env.Country,
				}
			},
		},
		{
			ID:   "cp_city",
			Mode: AcceptExactPostcode,
			Tier: model.TierExactPostcode,
			Build: func(row model.SourceRecord, env Env) nominatim.Query {
				return nominatim.Query{
					PostalCode: row.PostalCode,
					City:       row.Municipality,
					State:      env.State,
					Country:    env.Country,
				}
			},
		},
		{
			ID:   "cp_county",
			Mode: AcceptExactPostcode,
			Tier: model.TierExactPostcode,
			Build: func(row model.SourceRecord, env Env) nominatim.Query {
				return nominatim.Query{
					PostalCode: row.PostalCode,
					County:     row.Municipality,
					State:      env.State,
					Country:    env.Country,
				}
			},
		},
		{
			ID:   "text_cp",
			Mode: AcceptExactPostcode,
			Tier: model.TierExactPostcode,
			Build: func(row model.SourceRecord, env Env) nominatim.Query {
				return nominatim.Query{
					FreeText: joinParts(row.PostalCode, env.State, env.Country),
				}
			},
		},
		{
			ID:   "text_settlement",
			Mode: AcceptScored,
			Tier: model.TierTextLocality,
			Build: func(row model.SourceRecord, env Env) nominatim.Query {
				return nominatim.Query{
					FreeText: joinParts(row.Settlement, row.Municipality, env.State, env.Country),
				}
			},
		},
		{
			ID:   "text_settlement_cp",
			Mode: AcceptScored,
			Tier: model.TierTextLocality,
			Build: func(row model.SourceRecord, env Env) nominatim.Query {
				return nominatim.Query{
					FreeText: joinParts(row.Settlement, row.PostalCode, env.State, env.Country),
				}
			},
		},
		{
			ID:   "text_municipality",
			Mode: AcceptScored,
			Tier: model.TierMunicipalityFallback,
			Build: func(row model.SourceRecord, env Env) nominatim.Query {
				return nominatim.Query{
					FreeText: joinParts(row.Municipality, env.State, env.Country),
				}
			},
		},
	}
}

func joinParts(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}
