// Package report renders batch match results into xlsx workbooks for
// operations review.
package report

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/freshmeal/matcher-service/internal/matching"
	"github.com/freshmeal/matcher-service/internal/storage"
)

const sheetName = "Matches"

var header = []string{
	"Food ID", "Food Name", "Platform", "Product Name", "SKU",
	"Brand", "Specification", "Price", "In Stock", "Confidence",
	"Matched Keywords", "Match Reasons",
}

// Generator renders match reports and persists them through a storage
// backend.
type Generator struct {
	store  storage.Storage
	logger zerolog.Logger
}

// NewGenerator creates a report generator over the given storage backend.
func NewGenerator(store storage.Storage) *Generator {
	return &Generator{
		store:  store,
		logger: log.With().Str("component", "report").Logger(),
	}
}

// Build renders the batch results into an xlsx workbook. Foods carry the
// display names; rows are grouped per food in its batch order, ranked
// candidates in result order.
func Build(foods []matching.FoodItem, results map[string][]matching.SKUMatchResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheetName)

	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	names := make(map[string]string, len(foods))
	order := make([]string, 0, len(foods))
	for _, food := range foods {
		names[food.ID] = food.Name
		order = append(order, food.ID)
	}
	// Foods not in the input list (stale task payloads) still get rows.
	var extras []string
	for id := range results {
		if _, ok := names[id]; !ok {
			extras = append(extras, id)
		}
	}
	sort.Strings(extras)
	order = append(order, extras...)

	row := 2
	for _, foodID := range order {
		matches := results[foodID]
		if len(matches) == 0 {
			if err := writeRow(f, row, []interface{}{foodID, names[foodID], "", "(no match)", "", "", "", "", "", "", "", ""}); err != nil {
				return nil, err
			}
			row++
			continue
		}
		for _, m := range matches {
			values := []interface{}{
				foodID,
				names[foodID],
				string(m.Product.Platform),
				m.Product.Name,
				m.Product.SKU,
				m.Product.Brand,
				m.Product.Specification,
				m.Product.Price,
				m.Product.InStock,
				m.Confidence,
				strings.Join(m.MatchedKeywords, "; "),
				strings.Join(m.MatchReasons, "; "),
			}
			if err := writeRow(f, row, values); err != nil {
				return nil, err
			}
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Generate builds the workbook and stores it, returning the storage key.
func (g *Generator) Generate(ctx context.Context, foods []matching.FoodItem, results map[string][]matching.SKUMatchResult) (string, error) {
	content, err := Build(foods, results)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	filename := fmt.Sprintf("match-report-%s.xlsx", now.Format("20060102-150405"))
	key := storage.BuildReportKey("match", now, filename)

	meta := &storage.Metadata{
		ContentType:  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		OriginalName: filename,
		ReportType:   "match",
		GeneratedAt:  now,
	}
	if err := g.store.Put(ctx, key, content, meta); err != nil {
		return "", fmt.Errorf("store report: %w", err)
	}

	g.logger.Info().
		Str("key", key).
		Int("foods", len(foods)).
		Int("bytes", len(content)).
		Msg("Match report generated")
	return key, nil
}

func writeRow(f *excelize.File, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("row %d cell: %w", row, err)
		}
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}
	return nil
}
