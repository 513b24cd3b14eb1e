package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/freshmeal/matcher-service/internal/matching"
	"github.com/freshmeal/matcher-service/internal/report"
	"github.com/freshmeal/matcher-service/internal/storage"
)

var (
	exportMinConfidence float64
	exportMaxResults    int
	exportStoragePath   string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <foods.json>",
	Short: "Batch-match a foods file and export an xlsx match report",
	Long: `Read a JSON array of food items, match every item against the cached
platform catalogs, and write the ranked results to an xlsx report in the
configured report storage.

The input file holds an array of objects with id, name, optional aliases and
category fields.`,
	Example: `  matcher-service export ./weekly-plan.json
  matcher-service export ./weekly-plan.json --min-confidence 0.5 --storage-path ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().Float64Var(&exportMinConfidence, "min-confidence", 0.6, "Confidence floor in [0,1]")
	exportCmd.Flags().IntVar(&exportMaxResults, "max-results", 10, "Maximum candidates per food")
	exportCmd.Flags().StringVar(&exportStoragePath, "storage-path", "", "Report storage directory (defaults to config storage.base_path)")
}

func runExport(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read foods file: %w", err)
	}

	var foods []matching.FoodItem
	if err := json.Unmarshal(content, &foods); err != nil {
		return fmt.Errorf("failed to parse foods file: %w", err)
	}
	if len(foods) == 0 {
		return fmt.Errorf("foods file is empty")
	}

	basePath := exportStoragePath
	if basePath == "" && cfg != nil {
		basePath = cfg.Storage.BasePath
	}
	if basePath == "" {
		basePath = "./data/reports"
	}
	store, err := storage.NewLocalStorage(basePath)
	if err != nil {
		return fmt.Errorf("failed to open report storage: %w", err)
	}

	engine := newCLIEngine()
	matchCfg := matching.MatchConfig{
		MinConfidence: matching.Float(exportMinConfidence),
		MaxResults:    exportMaxResults,
	}

	ctx := context.Background()
	logger.Info().Int("foods", len(foods)).Msg("Matching batch")
	results, err := engine.MatchFoods(ctx, foods, &matchCfg)
	if err != nil {
		return fmt.Errorf("batch match failed: %w", err)
	}

	key, err := report.NewGenerator(store).Generate(ctx, foods, results)
	if err != nil {
		return fmt.Errorf("report generation failed: %w", err)
	}

	matchedCount := 0
	for _, res := range results {
		if len(res) > 0 {
			matchedCount++
		}
	}

	fmt.Printf("Matched %d of %d foods\n", matchedCount, len(foods))
	fmt.Printf("Report written to %s\n", key)
	return nil
}
