package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/freshmeal/matcher-service/internal/platform"
)

func testProduct(name string, mutate ...func(*Product)) Product {
	p := Product{
		Platform:          platform.SamsClub,
		PlatformProductID: "sku-" + name,
		SKU:               "SKU-" + name,
		Name:              name,
		InStock:           true,
		StockStatus:       "in_stock",
		IsValid:           true,
		Price:             19.9,
		ExpiresAt:         time.Now().Add(24 * time.Hour),
	}
	for _, m := range mutate {
		m(&p)
	}
	return p
}

func TestMemoryReaderSearch(t *testing.T) {
	r := NewMemoryReader()
	r.Add(
		testProduct("新鲜鸡胸肉 500g"),
		testProduct("冷冻鸡翅 1kg"),
		testProduct("有机西兰花"),
	)

	products, err := r.Search(context.Background(), "鸡胸", Filter{Limit: 10})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("got %d products, want 1", len(products))
	}
	if products[0].Name != "新鲜鸡胸肉 500g" {
		t.Errorf("matched %q, want 新鲜鸡胸肉 500g", products[0].Name)
	}
}

func TestMemoryReaderExcludesInvalidAndExpired(t *testing.T) {
	r := NewMemoryReader()
	r.Add(
		testProduct("牛奶", func(p *Product) { p.IsValid = false }),
		testProduct("纯牛奶", func(p *Product) { p.ExpiresAt = time.Now().Add(-time.Hour) }),
		testProduct("鲜牛奶"),
	)

	products, err := r.Search(context.Background(), "牛奶", Filter{Limit: 10})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("got %d products, want only the valid unexpired one", len(products))
	}
	if products[0].Name != "鲜牛奶" {
		t.Errorf("matched %q, want 鲜牛奶", products[0].Name)
	}
}

func TestMemoryReaderStockFilter(t *testing.T) {
	r := NewMemoryReader()
	r.Add(testProduct("三文鱼刺身", func(p *Product) {
		p.InStock = false
		p.StockStatus = "out_of_stock"
	}))

	products, err := r.Search(context.Background(), "三文鱼", Filter{Limit: 10})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(products) != 0 {
		t.Errorf("out-of-stock product returned with default filter")
	}

	products, err = r.Search(context.Background(), "三文鱼", Filter{Limit: 10, IncludeOutOfStock: true})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(products) != 1 {
		t.Errorf("out-of-stock product missing with IncludeOutOfStock")
	}
}

func TestMemoryReaderPlatformScope(t *testing.T) {
	r := NewMemoryReader()
	r.Add(
		testProduct("鸡蛋", func(p *Product) { p.Platform = platform.SamsClub }),
		testProduct("土鸡蛋", func(p *Product) { p.Platform = platform.Freshippo }),
	)

	products, err := r.Search(context.Background(), "鸡蛋", Filter{
		Limit:     10,
		Platforms: []platform.ID{platform.Freshippo},
	})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(products) != 1 || products[0].Platform != platform.Freshippo {
		t.Errorf("platform scope not applied: %+v", products)
	}
}

func TestMemoryReaderPriceRange(t *testing.T) {
	r := NewMemoryReader()
	r.Add(
		testProduct("大米 5kg", func(p *Product) { p.Price = 45 }),
		testProduct("大米 10kg", func(p *Product) { p.Price = 89 }),
	)

	products, err := r.Search(context.Background(), "大米", Filter{Limit: 10, MinPrice: 50, MaxPrice: 100})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(products) != 1 || products[0].Price != 89 {
		t.Errorf("price range not applied: %+v", products)
	}
}

func TestMemoryReaderLimit(t *testing.T) {
	r := NewMemoryReader()
	for i := 0; i < 20; i++ {
		r.Add(testProduct("酸奶", func(p *Product) {
			p.PlatformProductID = p.PlatformProductID + string(rune('a'+i))
		}))
	}

	products, err := r.Search(context.Background(), "酸奶", Filter{Limit: 5})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(products) != 5 {
		t.Errorf("got %d products, want limit of 5", len(products))
	}
}

func TestMemoryReaderEmptyQuery(t *testing.T) {
	r := NewMemoryReader()
	r.Add(testProduct("面条"))

	products, err := r.Search(context.Background(), "   ", Filter{Limit: 10})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if products != nil {
		t.Errorf("blank query should return nil, got %v", products)
	}
}
