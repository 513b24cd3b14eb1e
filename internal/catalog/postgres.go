package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freshmeal/matcher-service/internal/platform"
)

// PostgresReader serves catalog searches from the platform_products snapshot
// table using case-insensitive substring matching.
type PostgresReader struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresReader creates a catalog reader backed by the given pool.
func NewPostgresReader(pool *pgxpool.Pool) *PostgresReader {
	return &PostgresReader{
		pool:   pool,
		logger: log.With().Str("component", "catalog_reader").Logger(),
	}
}

// Search returns up to f.Limit products whose name, description or brand
// contains the query string, restricted to valid, unexpired snapshots.
func (r *PostgresReader) Search(ctx context.Context, query string, f Filter) ([]Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}

	pattern := "%" + escapeLike(query) + "%"
	args := []any{pattern}
	conditions := []string{
		`(name ILIKE $1 OR description ILIKE $1 OR brand ILIKE $1)`,
		`is_valid = true`,
		`expires_at > NOW()`,
	}

	if !f.IncludeOutOfStock {
		conditions = append(conditions, `in_stock = true`)
	}
	if f.MinPrice > 0 {
		args = append(args, f.MinPrice)
		conditions = append(conditions, fmt.Sprintf(`price >= $%d`, len(args)))
	}
	if f.MaxPrice > 0 {
		args = append(args, f.MaxPrice)
		conditions = append(conditions, fmt.Sprintf(`price <= $%d`, len(args)))
	}
	if len(f.Platforms) > 0 {
		slugs := make([]string, len(f.Platforms))
		for i, p := range f.Platforms {
			slugs[i] = string(p)
		}
		args = append(args, slugs)
		conditions = append(conditions, fmt.Sprintf(`platform = ANY($%d)`, len(args)))
	}

	args = append(args, limit)
	sql := fmt.Sprintf(`
		SELECT
			platform, platform_product_id, sku, name, description, brand,
			category, specification, weight, volume, unit, price,
			stock, in_stock, stock_status, is_valid, expires_at
		FROM platform_products
		WHERE %s
		ORDER BY created_at, platform_product_id
		LIMIT $%d
	`, strings.Join(conditions, " AND "), len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog search %q: %w", query, err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		var plat string
		if err := rows.Scan(
			&plat,
			&p.PlatformProductID,
			&p.SKU,
			&p.Name,
			&p.Description,
			&p.Brand,
			&p.Category,
			&p.Specification,
			&p.Weight,
			&p.Volume,
			&p.Unit,
			&p.Price,
			&p.Stock,
			&p.InStock,
			&p.StockStatus,
			&p.IsValid,
			&p.ExpiresAt,
		); err != nil {
			r.logger.Error().Err(err).Msg("Failed to scan catalog row")
			continue
		}
		p.Platform = platform.ID(plat)
		products = append(products, p)
	}

	return products, rows.Err()
}

// escapeLike escapes LIKE wildcards so a query string is matched literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
