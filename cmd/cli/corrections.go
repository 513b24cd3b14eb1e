package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/freshmeal/matcher-service/internal/database"
	"github.com/freshmeal/matcher-service/internal/matching"
	"github.com/freshmeal/matcher-service/internal/platform"
)

var (
	correctionsLimit  int
	correctionsFoodID string

	recordFoodID    string
	recordProductID string
	recordPlatform  string
	recordCorrect   bool
)

// correctionsCmd represents the corrections command
var correctionsCmd = &cobra.Command{
	Use:   "corrections",
	Short: "List or record match corrections",
	Long: `List recently recorded match corrections, or append a new human judgment
about a prior match with the --record flags.`,
	Example: `  matcher-service corrections --limit 50
  matcher-service corrections --food-id f-123
  matcher-service corrections --record --food-id f-123 --product-id sam-1001 --platform sams_club --correct=false`,
	RunE: runCorrections,
}

var recordMode bool

func init() {
	rootCmd.AddCommand(correctionsCmd)

	correctionsCmd.Flags().IntVar(&correctionsLimit, "limit", 20, "Maximum rows to list")
	correctionsCmd.Flags().StringVar(&correctionsFoodID, "food-id", "", "Filter by food id (list) or set the food id (record)")

	correctionsCmd.Flags().BoolVar(&recordMode, "record", false, "Record a new correction instead of listing")
	correctionsCmd.Flags().StringVar(&recordProductID, "product-id", "", "Platform product id for --record")
	correctionsCmd.Flags().StringVar(&recordPlatform, "platform", "", "Platform slug for --record")
	correctionsCmd.Flags().BoolVar(&recordCorrect, "correct", true, "Whether the match was correct for --record")
}

func runCorrections(cmd *cobra.Command, args []string) error {
	if recordMode {
		return recordCorrection()
	}
	return listCorrections()
}

func recordCorrection() error {
	if correctionsFoodID == "" || recordProductID == "" || recordPlatform == "" {
		return fmt.Errorf("--record requires --food-id, --product-id and --platform")
	}
	id := platform.ID(recordPlatform)
	if !platform.Valid(id) {
		return fmt.Errorf("unknown platform %q (valid: %s)", recordPlatform, platformSlugs())
	}

	sink := matching.NewPostgresSink(database.Pool())
	rec := matching.CorrectionRecord{
		FoodID:            correctionsFoodID,
		PlatformProductID: recordProductID,
		Platform:          id,
		IsCorrect:         recordCorrect,
	}
	if err := sink.Record(context.Background(), rec); err != nil {
		return fmt.Errorf("failed to record correction: %w", err)
	}

	fmt.Println("Correction recorded")
	return nil
}

func listCorrections() error {
	ctx := context.Background()
	pool := database.Pool()

	query := `
		SELECT id, food_id, platform, platform_product_id, is_correct, created_at
		FROM match_corrections
	`
	queryArgs := []interface{}{}
	if correctionsFoodID != "" {
		query += ` WHERE food_id = $1`
		queryArgs = append(queryArgs, correctionsFoodID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, correctionsLimit)

	rows, err := pool.Query(ctx, query, queryArgs...)
	if err != nil {
		return fmt.Errorf("failed to query corrections: %w", err)
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Created\tFood\tPlatform\tProduct\tJudgment\n")
	fmt.Fprintf(w, "-------\t----\t--------\t-------\t--------\n")

	count := 0
	for rows.Next() {
		var (
			id, foodID, plat, productID string
			isCorrect                   bool
			createdAt                   time.Time
		)
		if err := rows.Scan(&id, &foodID, &plat, &productID, &isCorrect, &createdAt); err != nil {
			return fmt.Errorf("failed to scan correction: %w", err)
		}
		judgment := "incorrect"
		if isCorrect {
			judgment = "correct"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			createdAt.Format(time.RFC3339), foodID, plat, productID, judgment)
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read corrections: %w", err)
	}
	w.Flush()

	if count == 0 {
		fmt.Println("No corrections recorded.")
	}
	return nil
}
