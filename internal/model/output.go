package model

import "strconv"

// OutputRecord is one enriched row: the source fields plus the geocoding
// outcome. Appended once and never mutated.
type OutputRecord struct {
	Source SourceRecord

	Lat            string
	Lon            string
	StrategySource string
	MatchNote      string
	Tier           ConfidenceTier
	MissReason     string
}

// outputColumns extends InputColumns with the enrichment columns, in the
// fixed order consumed by downstream tooling.
var outputColumns = []string{
	"lat",
	"lon",
	"strategy_source",
	"match_note",
	"confidence_tier",
	"miss_reason",
	"precision",
}

// OutputColumns returns the full output header row.
func OutputColumns() []string {
	cols := make([]string, 0, len(InputColumns)+len(outputColumns))
	cols = append(cols, InputColumns...)
	cols = append(cols, outputColumns...)
	return cols
}

// Row returns the record's values in OutputColumns order.
func (o OutputRecord) Row() []string {
	row := o.Source.InputRow()
	row = append(row,
		o.Lat,
		o.Lon,
		o.StrategySource,
		o.MatchNote,
		string(o.Tier),
		o.MissReason,
		strconv.Itoa(o.Tier.Precision()),
	)
	return row
}

// Geocoded reports whether the record carries both coordinates. Only
// geocoded rows count as completed for resume purposes.
func (o OutputRecord) Geocoded() bool {
	return o.Lat != "" && o.Lon != ""
}
