package pipeline

import (
	"context"
	"fmt"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/sepomex-enrich/internal/model"
	"github.com/sells-group/sepomex-enrich/internal/nominatim"
	"github.com/sells-group/sepomex-enrich/internal/strategy"
)

// Searcher issues one geocoding query. ok=false means the transport gave up
// (retries exhausted or context ended) and the attempt counts as no result.
type Searcher interface {
	Search(ctx context.Context, q nominatim.Query) ([]nominatim.Candidate, bool)
}

// Stats summarizes one run.
type Stats struct {
	Processed      int
	SkippedResumed int
	SkippedMissing int
	Tiers          map[model.ConfidenceTier]int
}

// Orchestrator walks each row through the strategy ladder, one row and one
// query at a time, and hands composed records to the writer. A single row's
// failure never aborts the run.
type Orchestrator struct {
	search Searcher
	ladder []strategy.Strategy
	env    strategy.Env
	writer *Writer
	resume *ResumeIndex
	onRow  func()
}

// OrchestratorOption configures the Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithRowHook registers a callback invoked after every input row is
// handled (processed or skipped). Drives progress display.
func WithRowHook(fn func()) OrchestratorOption {
	return func(o *Orchestrator) { o.onRow = fn }
}

// NewOrchestrator wires the pipeline together.
func NewOrchestrator(search Searcher, env strategy.Env, writer *Writer, resume *ResumeIndex, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		search: search,
		ladder: strategy.Ladder(),
		env:    env,
		writer: writer,
		resume: resume,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes the rows sequentially. It returns early only on context
// cancellation or a writer failure; everything else degrades to a
// lower-confidence or no-result row.
func (o *Orchestrator) Run(ctx context.Context, rows []model.SourceRecord) (*Stats, error) {
	stats := &Stats{Tiers: make(map[model.ConfidenceTier]int)}
	warnDuplicateKeys(rows, o.resume.keyFields)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if row.Municipality == "" {
			// No join field to query on: no request, no output row.
			stats.SkippedMissing++
			zap.L().Debug("skipping row without municipality",
				zap.String("postal_code", row.PostalCode),
				zap.String("settlement", row.Settlement),
			)
			o.rowDone()
			continue
		}

		if o.resume.Completed(row) {
			stats.SkippedResumed++
			o.rowDone()
			continue
		}

		rec, err := o.processRow(ctx, row)
		if err != nil {
			return stats, err
		}
		if err := o.writer.Write(rec); err != nil {
			return stats, err
		}

		stats.Processed++
		stats.Tiers[rec.Tier]++
		o.rowDone()
	}

	zap.L().Info("run complete",
		zap.Int("processed", stats.Processed),
		zap.Int("skipped_resumed", stats.SkippedResumed),
		zap.Int("skipped_missing_municipality", stats.SkippedMissing),
		zap.Int("exact_postcode", stats.Tiers[model.TierExactPostcode]),
		zap.Int("text_locality", stats.Tiers[model.TierTextLocality]),
		zap.Int("municipality_fallback", stats.Tiers[model.TierMunicipalityFallback]),
		zap.Int("no_result", stats.Tiers[model.TierNoResult]),
	)
	return stats, nil
}

// processRow walks the ladder for one row. A panic while handling the row
// is captured into a no-result record so the run continues.
func (o *Orchestrator) processRow(ctx context.Context, row model.SourceRecord) (rec model.OutputRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("row processing failed",
				zap.String("postal_code", row.PostalCode),
				zap.String("settlement", row.Settlement),
				zap.Any("error", r),
			)
			rec = model.OutputRecord{
				Source:     row,
				Tier:       model.TierNoResult,
				MissReason: fmt.Sprintf("row error: %v", r),
			}
			err = nil
		}
	}()

	for i := range o.ladder {
		s := &o.ladder[i]
		if cerr := ctx.Err(); cerr != nil {
			return model.OutputRecord{}, cerr
		}

		cands, ok := o.search.Search(ctx, s.Build(row, o.env))
		if !ok || len(cands) == 0 {
			continue
		}

		c := strategy.Select(s.Mode, cands, row, o.env.State)
		if c == nil {
			continue
		}

		lat, lon, perr := c.Coordinates()
		if perr != nil {
			zap.L().Warn("discarding candidate with malformed coordinates",
				zap.String("strategy", s.ID),
				zap.Error(perr),
			)
			continue
		}

		return model.OutputRecord{
			Source:         row,
			Lat:            c.Lat,
			Lon:            c.Lon,
			StrategySource: s.ID,
			MatchNote:      o.matchNote(c, lat, lon),
			Tier:           strategy.Classify(s, c),
		}, nil
	}

	return model.OutputRecord{
		Source:     row,
		Tier:       model.TierNoResult,
		MissReason: "all query strategies returned no accepted candidate",
	}, nil
}

// matchNote records what matched and whether it landed inside the
// configured viewbox.
func (o *Orchestrator) matchNote(c *nominatim.Candidate, lat, lon float64) string {
	note := c.DisplayName
	if o.env.Viewbox != nil && !o.env.Viewbox.OverlapsPoint(geom.XY, geom.Coord{lon, lat}) {
		note += " [outside viewbox]"
	}
	return note
}

func (o *Orchestrator) rowDone() {
	if o.onRow != nil {
		o.onRow()
	}
}

// warnDuplicateKeys flags input rows sharing a resume key: the later row
// will be considered complete once the earlier one is geocoded, and a
// subsequent run will not process it.
func warnDuplicateKeys(rows []model.SourceRecord, keyFields []string) {
	seen := make(map[string]int, len(rows))
	dups := 0
	for _, row := range rows {
		k := row.ResumeKey(keyFields)
		seen[k]++
		if seen[k] == 2 {
			dups++
		}
	}
	if dups > 0 {
		zap.L().Warn("input contains rows sharing a resume key; duplicates will be skipped on later runs",
			zap.Int("duplicate_keys", dups),
		)
	}
}
