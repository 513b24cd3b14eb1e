// Package catalog exposes read access to the cached platform product
// snapshots. The snapshots are written and refreshed by the crawler/sync
// process; this service only ever reads them.
package catalog

import (
	"context"
	"time"

	"github.com/freshmeal/matcher-service/internal/platform"
)

// Product is one cached SKU snapshot from an e-commerce platform.
type Product struct {
	Platform          platform.ID `json:"platform"`
	PlatformProductID string      `json:"platformProductId"`
	SKU               string      `json:"sku"`
	Name              string      `json:"name"`
	Description       string      `json:"description"`
	Brand             string      `json:"brand"`
	Category          string      `json:"category"`
	Specification     string      `json:"specification"`
	Weight            float64     `json:"weight"`
	Volume            float64     `json:"volume"`
	Unit              string      `json:"unit"`
	Price             float64     `json:"price"`
	Stock             int         `json:"stock"`
	InStock           bool        `json:"inStock"`
	StockStatus       string      `json:"stockStatus"`
	IsValid           bool        `json:"isValid"`
	ExpiresAt         time.Time   `json:"expiresAt"`
}

// HasSpecification reports whether the snapshot declares any packaging
// information usable for plausibility checks.
func (p Product) HasSpecification() bool {
	return p.Specification != "" || p.Unit != "" || p.Weight > 0 || p.Volume > 0
}

// Filter restricts a catalog search.
type Filter struct {
	Limit             int
	IncludeOutOfStock bool
	MinPrice          float64
	MaxPrice          float64
	Platforms         []platform.ID
}

// Reader executes substring lookups against the cached catalog. Records whose
// validity flag is unset or whose snapshot has expired are never returned.
type Reader interface {
	Search(ctx context.Context, query string, f Filter) ([]Product, error)
}
