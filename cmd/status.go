package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/sepomex-enrich/internal/registry"
	"github.com/sells-group/sepomex-enrich/internal/textnorm"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize an output file",
	Long:  "Reads a results CSV and prints per-tier counts, the geocoded percentage, and how many rows await manual review.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("output")
		if path == "" {
			path = cfg.Output.ResultsPath
		}

		sum, err := summarizeOutput(cmd.Context(), path)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d rows\n", path, sum.total)
		tiers := make([]string, 0, len(sum.tiers))
		for tier := range sum.tiers {
			tiers = append(tiers, tier)
		}
		sort.Strings(tiers)
		for _, tier := range tiers {
			fmt.Printf("  %-22s %d\n", tier, sum.tiers[tier])
		}
		if sum.total > 0 {
			fmt.Printf("geocoded: %.1f%%\n", 100*float64(sum.geocoded)/float64(sum.total))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().String("output", "", "results CSV to summarize (default: configured results path)")
	rootCmd.AddCommand(statusCmd)
}

type outputSummary struct {
	total    int
	geocoded int
	tiers    map[string]int
}

// summarizeOutput tallies rows and confidence tiers in a results CSV.
func summarizeOutput(ctx context.Context, path string) (*outputSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "status: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	headerCh := make(chan []string, 1)
	rowCh, errCh := registry.StreamCSV(ctx, f, registry.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})

	sum := &outputSummary{tiers: make(map[string]int)}
	latIdx, lonIdx, tierIdx := -1, -1, -1
	for row := range rowCh {
		if latIdx < 0 {
			select {
			case hdr := <-headerCh:
				for i, h := range hdr {
					switch textnorm.Fold(h) {
					case "lat":
						latIdx = i
					case "lon":
						lonIdx = i
					case "confidence_tier":
						tierIdx = i
					}
				}
			default:
			}
			if latIdx < 0 || lonIdx < 0 || tierIdx < 0 {
				return nil, eris.Errorf("status: %s is not a results file (missing lat/lon/confidence_tier columns)", path)
			}
		}

		sum.total++
		if latIdx < len(row) && lonIdx < len(row) && row[latIdx] != "" && row[lonIdx] != "" {
			sum.geocoded++
		}
		if tierIdx < len(row) {
			sum.tiers[row[tierIdx]]++
		}
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "status: scan output")
	}
	return sum, nil
}
