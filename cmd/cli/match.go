package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/freshmeal/matcher-service/internal/catalog"
	"github.com/freshmeal/matcher-service/internal/database"
	"github.com/freshmeal/matcher-service/internal/matching"
	"github.com/freshmeal/matcher-service/internal/platform"
)

var (
	matchAliases       []string
	matchCategory      string
	matchPlatforms     []string
	matchMinConfidence float64
	matchMaxResults    int
	matchOutput        string
	matchOutOfStock    bool
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match <food name>",
	Short: "Match one ingredient against the cached platform catalogs",
	Long: `Match a single ingredient name against the cached platform catalogs and
print the ranked candidates with confidence scores, matched keywords, and
match reasons.`,
	Example: `  matcher-service match 鸡胸肉 --category PROTEIN
  matcher-service match 土豆 --alias 马铃薯 --alias 洋芋 --min-confidence 0.5
  matcher-service match 牛奶 --platform sams_club --platform freshippo --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringArrayVar(&matchAliases, "alias", nil, "Alternate name (repeatable)")
	matchCmd.Flags().StringVar(&matchCategory, "category", "", "Food category (VEGETABLES, PROTEIN, SEAFOOD, DAIRY, GRAINS, FRUITS, OTHER)")
	matchCmd.Flags().StringArrayVar(&matchPlatforms, "platform", nil, "Restrict to platform slug (repeatable)")
	matchCmd.Flags().Float64Var(&matchMinConfidence, "min-confidence", 0.6, "Confidence floor in [0,1]")
	matchCmd.Flags().IntVar(&matchMaxResults, "max-results", 10, "Maximum candidates to return")
	matchCmd.Flags().StringVar(&matchOutput, "output", "table", "Output format: table or json")
	matchCmd.Flags().BoolVar(&matchOutOfStock, "include-out-of-stock", false, "Include out-of-stock candidates")
}

func runMatch(cmd *cobra.Command, args []string) error {
	food := matching.FoodItem{
		ID:       "cli",
		Name:     args[0],
		Aliases:  matchAliases,
		Category: matching.FoodCategory(strings.ToUpper(matchCategory)),
	}

	// Configured defaults apply unless the flag was given explicitly.
	if cfg != nil && !cmd.Flags().Changed("min-confidence") && cfg.Matching.MinConfidence > 0 {
		matchMinConfidence = cfg.Matching.MinConfidence
	}
	if cfg != nil && !cmd.Flags().Changed("max-results") && cfg.Matching.MaxResults > 0 {
		matchMaxResults = cfg.Matching.MaxResults
	}

	matchCfg := matching.MatchConfig{
		MinConfidence:     matching.Float(matchMinConfidence),
		MaxResults:        matchMaxResults,
		IncludeOutOfStock: matchOutOfStock,
	}
	for _, slug := range matchPlatforms {
		id := platform.ID(slug)
		if !platform.Valid(id) {
			return fmt.Errorf("unknown platform %q (valid: %s)", slug, platformSlugs())
		}
		matchCfg.Platforms = append(matchCfg.Platforms, id)
	}

	engine := newCLIEngine()
	results, err := engine.MatchFood(context.Background(), food, &matchCfg)
	if err != nil {
		return fmt.Errorf("match failed: %w", err)
	}

	switch strings.ToLower(matchOutput) {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	case "table":
		outputMatchTable(food.Name, results)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", matchOutput)
	}
}

func outputMatchTable(name string, results []matching.SKUMatchResult) {
	fmt.Printf("\nMatches for %s\n", name)
	fmt.Println(strings.Repeat("-", 72))

	if len(results) == 0 {
		fmt.Println("No candidates above the confidence floor.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Platform\tProduct\tSKU\tPrice\tConfidence\tReasons\n")
	fmt.Fprintf(w, "--------\t-------\t---\t-----\t----------\t-------\n")
	for _, res := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%s\n",
			res.Product.Platform,
			res.Product.Name,
			res.Product.SKU,
			res.Product.Price,
			res.Confidence,
			strings.Join(res.MatchReasons, "; "))
	}
	w.Flush()
}

func newCLIEngine() *matching.Engine {
	pool := database.Pool()
	reader := catalog.NewPostgresReader(pool)
	sink := matching.NewPostgresSink(pool)

	engineCfg := matching.DefaultEngineConfig()
	if cfg != nil {
		if cfg.Matching.QueryConcurrency > 0 {
			engineCfg.QueryConcurrency = cfg.Matching.QueryConcurrency
		}
		if cfg.Matching.BatchConcurrency > 0 {
			engineCfg.BatchConcurrency = cfg.Matching.BatchConcurrency
		}
		if cfg.Matching.QueryTimeout > 0 {
			engineCfg.QueryTimeout = cfg.Matching.QueryTimeout
		}
		engineCfg.DefaultMinConfidence = cfg.Matching.MinConfidence
		engineCfg.DefaultMaxResults = cfg.Matching.MaxResults
	}
	return matching.NewEngine(reader, nil, sink, engineCfg)
}

func platformSlugs() string {
	slugs := make([]string, 0, len(platform.All()))
	for _, id := range platform.All() {
		slugs = append(slugs, string(id))
	}
	return strings.Join(slugs, ", ")
}
