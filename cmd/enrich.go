package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sepomex-enrich/internal/model"
	"github.com/sells-group/sepomex-enrich/internal/nominatim"
	"github.com/sells-group/sepomex-enrich/internal/pipeline"
	"github.com/sells-group/sepomex-enrich/internal/registry"
	"github.com/sells-group/sepomex-enrich/internal/strategy"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Geocode registry rows",
	Long: `Reads the SEPOMEX export, filters rows to the target state, and geocodes
each row through a ladder of increasingly coarse Nominatim queries.

Rows already present with coordinates in the output file are skipped, so an
interrupted run can simply be restarted. One request is in flight at a time,
spaced at least the configured interval apart.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyEnrichFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}

		runID := uuid.NewString()
		log := zap.L().With(zap.String("command", "enrich"), zap.String("run_id", runID))

		viewbox, err := cfg.Geocoder.Bounds()
		if err != nil {
			return err
		}

		rows, err := registry.Load(ctx, cfg.Input.Path, registry.Options{
			Delimiter: delimiterRune(cfg.Input.Delimiter),
			Latin1:    cfg.Input.Latin1,
			Sheet:     cfg.Input.Sheet,
			State:     cfg.Input.State,
			Offset:    cfg.Input.Offset,
			Limit:     cfg.Input.Limit,
		})
		if err != nil {
			return eris.Wrap(err, "enrich: load input")
		}
		if len(rows) == 0 {
			fmt.Println("No rows to process")
			return nil
		}

		resume, err := pipeline.LoadResumeIndex(ctx, cfg.Output.ResultsPath, cfg.Resume.KeyFields)
		if err != nil {
			return eris.Wrap(err, "enrich: build resume index")
		}

		writer, err := pipeline.NewWriter(cfg.Output.ResultsPath, cfg.Output.MissesPath)
		if err != nil {
			return eris.Wrap(err, "enrich: open output")
		}
		defer writer.Close() //nolint:errcheck

		client := nominatim.NewClient(cfg.Geocoder.Contact,
			nominatim.WithBaseURL(cfg.Geocoder.BaseURL),
			nominatim.WithInterval(cfg.Geocoder.Interval()),
			nominatim.WithMaxRetries(cfg.Geocoder.MaxRetries),
			nominatim.WithTimeout(cfg.Geocoder.Timeout()),
		)

		env := strategy.Env{
			State:   cfg.Input.State,
			Country: cfg.Geocoder.Country,
			Viewbox: viewbox,
		}

		bar := progressbar.NewOptions(len(rows),
			progressbar.OptionSetDescription("geocoding"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
		)

		orch := pipeline.NewOrchestrator(client, env, writer, resume,
			pipeline.WithRowHook(func() { _ = bar.Add(1) }),
		)

		log.Info("starting enrichment run",
			zap.Int("rows", len(rows)),
			zap.Int("already_completed", resume.Len()),
			zap.String("state", cfg.Input.State),
			zap.Duration("interval", cfg.Geocoder.Interval()),
		)

		stats, err := orch.Run(ctx, rows)
		_ = bar.Finish()
		fmt.Println()
		if err != nil {
			return eris.Wrap(err, "enrich")
		}

		fmt.Printf("Processed %d rows (%d resumed, %d skipped without municipality)\n",
			stats.Processed, stats.SkippedResumed, stats.SkippedMissing)
		for _, tier := range []model.ConfidenceTier{
			model.TierExactPostcode,
			model.TierTextLocality,
			model.TierMunicipalityFallback,
			model.TierNoResult,
		} {
			fmt.Printf("  %-22s %d\n", tier, stats.Tiers[tier])
		}
		return nil
	},
}

func init() {
	enrichCmd.Flags().String("input", "", "registry file (.csv, .txt, or .xlsx); overrides config")
	enrichCmd.Flags().String("output", "", "results CSV path; overrides config")
	enrichCmd.Flags().String("misses", "", "misses CSV path; overrides config")
	enrichCmd.Flags().String("state", "", "target state filter; overrides config")
	enrichCmd.Flags().Int("offset", -1, "rows to skip after filtering")
	enrichCmd.Flags().Int("limit", -1, "max rows to process (0 = all)")
	rootCmd.AddCommand(enrichCmd)
}

// applyEnrichFlags overlays set flags onto the loaded config.
func applyEnrichFlags(cmd *cobra.Command) {
	if v, _ := cmd.Flags().GetString("input"); v != "" {
		cfg.Input.Path = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Output.ResultsPath = v
	}
	if v, _ := cmd.Flags().GetString("misses"); v != "" {
		cfg.Output.MissesPath = v
	}
	if v, _ := cmd.Flags().GetString("state"); v != "" {
		cfg.Input.State = v
	}
	if v, _ := cmd.Flags().GetInt("offset"); v >= 0 {
		cfg.Input.Offset = v
	}
	if v, _ := cmd.Flags().GetInt("limit"); v >= 0 {
		cfg.Input.Limit = v
	}
}

// delimiterRune interprets the configured delimiter string; defaults to '|'
// (the SEPOMEX text export) when empty or multi-rune.
func delimiterRune(s string) rune {
	runes := []rune(s)
	if len(runes) == 1 {
		return runes[0]
	}
	return '|'
}
