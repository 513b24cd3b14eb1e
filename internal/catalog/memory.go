package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/freshmeal/matcher-service/internal/platform"
)

// MemoryReader is an in-memory Reader over a fixed product snapshot. It is
// used by the CLI when no database is configured and by tests. Search
// semantics mirror PostgresReader: case-insensitive substring over
// name/description/brand, validity and expiry enforced, insertion order kept.
type MemoryReader struct {
	mu       sync.RWMutex
	products []Product
	now      func() time.Time
}

// NewMemoryReader creates an empty in-memory catalog.
func NewMemoryReader() *MemoryReader {
	return &MemoryReader{now: time.Now}
}

// NewMemoryReaderWithClock creates an in-memory catalog with a custom clock,
// so expiry behavior can be tested deterministically.
func NewMemoryReaderWithClock(now func() time.Time) *MemoryReader {
	return &MemoryReader{now: now}
}

// Add appends products to the snapshot.
func (r *MemoryReader) Add(products ...Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = append(r.products, products...)
}

// Len returns the number of products in the snapshot.
func (r *MemoryReader) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products)
}

// Search implements Reader.
func (r *MemoryReader) Search(ctx context.Context, query string, f Filter) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	var out []Product
	for _, p := range r.products {
		if !p.IsValid || !p.ExpiresAt.After(now) {
			continue
		}
		if !f.IncludeOutOfStock && !p.InStock {
			continue
		}
		if f.MinPrice > 0 && p.Price < f.MinPrice {
			continue
		}
		if f.MaxPrice > 0 && p.Price > f.MaxPrice {
			continue
		}
		if len(f.Platforms) > 0 && !containsPlatform(f.Platforms, p.Platform) {
			continue
		}
		haystack := strings.ToLower(p.Name + " " + p.Description + " " + p.Brand)
		if !strings.Contains(haystack, q) {
			continue
		}
		out = append(out, p)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func containsPlatform(ids []platform.ID, id platform.ID) bool {
	for _, p := range ids {
		if p == id {
			return true
		}
	}
	return false
}
