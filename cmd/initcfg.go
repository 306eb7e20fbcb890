package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/sepomex-enrich/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config.yaml",
	Long:  "Writes the default configuration to config.yaml in the current directory. Fill in geocoder.contact before running enrich.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("path")
		force, _ := cmd.Flags().GetBool("force")

		if !force {
			if _, err := os.Stat(path); err == nil {
				return eris.Errorf("init: %s already exists (use --force to overwrite)", path)
			}
		}

		starter := config.Config{
			Input: config.InputConfig{
				Path:      "CPdescarga.txt",
				Delimiter: "|",
				Latin1:    true,
				State:     "Jalisco",
			},
			Output: config.OutputConfig{
				ResultsPath: "geocoded.csv",
				MissesPath:  "geocoded_misses.csv",
			},
			Geocoder: config.GeocoderConfig{
				BaseURL:     "https://nominatim.openstreetmap.org/search",
				Contact:     "you@example.com",
				Country:     "Mexico",
				IntervalMS:  1000,
				MaxRetries:  5,
				TimeoutSecs: 10,
				Viewbox:     []float64{-105.70, 18.92, -101.50, 22.75},
			},
			Resume: config.ResumeConfig{
				KeyFields: []string{"postal_code", "settlement", "municipality", "settlement_id"},
			},
			Log: config.LogConfig{Level: "info", Format: "console"},
		}

		out, err := yaml.Marshal(&starter)
		if err != nil {
			return eris.Wrap(err, "init: marshal config")
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return eris.Wrapf(err, "init: write %s", path)
		}

		fmt.Printf("Wrote %s; set geocoder.contact to your address before running enrich\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().String("path", "config.yaml", "where to write the config file")
	initCmd.Flags().Bool("force", false, "overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}
