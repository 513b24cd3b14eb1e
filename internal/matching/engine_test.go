package matching

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshmeal/matcher-service/internal/catalog"
	"github.com/freshmeal/matcher-service/internal/platform"
)

func newTestEngine(reader catalog.Reader) *Engine {
	return NewEngine(reader, platform.NewRegistry(), NewLogSink(), EngineConfig{
		QueryConcurrency: 2,
		BatchConcurrency: 2,
		QueryTimeout:     time.Second,
	})
}

func chickenCatalog() *catalog.MemoryReader {
	r := catalog.NewMemoryReader()
	r.Add(catalog.Product{
		Platform:          platform.SamsClub,
		PlatformProductID: "sam-1001",
		SKU:               "SKU-1001",
		Name:              "新鲜鸡胸肉 500g",
		Brand:             "山姆会员牌",
		Price:             29.9,
		InStock:           true,
		StockStatus:       "in_stock",
		IsValid:           true,
		ExpiresAt:         time.Now().Add(24 * time.Hour),
	})
	return r
}

func TestMatchFoodChickenBreastScenario(t *testing.T) {
	engine := newTestEngine(chickenCatalog())
	food := FoodItem{ID: "food-1", Name: "鸡胸肉", Category: CategoryProtein}

	results, err := engine.MatchFood(context.Background(), food, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.GreaterOrEqual(t, r.Confidence, 0.6)
	assert.LessOrEqual(t, r.Confidence, 1.0)
	assert.Equal(t, "sam-1001", r.Product.PlatformProductID)
	assert.Contains(t, r.MatchedKeywords, "鸡胸肉")
	require.NotEmpty(t, r.MatchReasons)
	assert.Contains(t, []string{reasonHighMatch, reasonModerateMatch, reasonLowMatch}, r.MatchReasons[0])
}

func TestMatchFoodOutOfStockExcludedByDefault(t *testing.T) {
	r := catalog.NewMemoryReader()
	r.Add(catalog.Product{
		Platform:          platform.Freshippo,
		PlatformProductID: "hm-1",
		Name:              "三文鱼刺身 200g",
		Price:             58,
		InStock:           false,
		IsValid:           true,
		ExpiresAt:         time.Now().Add(time.Hour),
	})
	engine := newTestEngine(r)

	results, err := engine.MatchFood(context.Background(), FoodItem{ID: "f", Name: "三文鱼", Category: CategorySeafood}, nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	cfg := DefaultMatchConfig()
	cfg.IncludeOutOfStock = true
	cfg.MinConfidence = Float(0.1)
	results, err = engine.MatchFood(context.Background(), FoodItem{ID: "f", Name: "三文鱼", Category: CategorySeafood}, &cfg)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestMatchFoodDedupAcrossQueries(t *testing.T) {
	r := catalog.NewMemoryReader()
	r.Add(catalog.Product{
		Platform:          platform.JDDaojia,
		PlatformProductID: "jd-7",
		Name:              "去皮鸡胸肉 1kg",
		Price:             39.9,
		InStock:           true,
		IsValid:           true,
		ExpiresAt:         time.Now().Add(time.Hour),
	})
	engine := newTestEngine(r)

	// "去皮鸡胸肉" tokenizes into one token, but aliases force extra queries
	// that all hit the same SKU.
	food := FoodItem{
		ID:      "f-dedup",
		Name:    "鸡胸肉",
		Aliases: []string{"去皮鸡胸肉", "鸡胸"},
	}
	cfg := DefaultMatchConfig()
	cfg.MinConfidence = Float(0.1)

	results, err := engine.MatchFood(context.Background(), food, &cfg)
	require.NoError(t, err)
	require.Len(t, results, 1, "same (platform, id) must appear once")

	seen := map[string]bool{}
	for _, res := range results {
		key := string(res.Product.Platform) + "/" + res.Product.PlatformProductID
		assert.False(t, seen[key], "duplicate result %s", key)
		seen[key] = true
	}
}

func TestMatchFoodThresholdAndCap(t *testing.T) {
	r := catalog.NewMemoryReader()
	for i := 0; i < 8; i++ {
		r.Add(catalog.Product{
			Platform:          platform.Meituan,
			PlatformProductID: fmt.Sprintf("mt-%d", i),
			Name:              "老酸奶原味",
			Price:             9.9,
			InStock:           true,
			IsValid:           true,
			ExpiresAt:         time.Now().Add(time.Hour),
		})
	}
	engine := newTestEngine(r)

	cfg := MatchConfig{MinConfidence: Float(0), MaxResults: 3}
	results, err := engine.MatchFood(context.Background(), FoodItem{ID: "f", Name: "酸奶"}, &cfg)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 3)

	for _, res := range results {
		assert.GreaterOrEqual(t, res.Confidence, *cfg.MinConfidence)
	}
}

func TestMatchFoodDeterminism(t *testing.T) {
	engine := newTestEngine(chickenCatalog())
	food := FoodItem{ID: "f", Name: "鸡胸肉", Category: CategoryProtein}

	first, err := engine.MatchFood(context.Background(), food, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := engine.MatchFood(context.Background(), food, nil)
		require.NoError(t, err)
		assert.Equal(t, first, again, "repeated match must be identical")
	}
}

func TestMatchFoodMonotonicFiltering(t *testing.T) {
	r := catalog.NewMemoryReader()
	add := func(id, name string) {
		r.Add(catalog.Product{
			Platform:          platform.SamsClub,
			PlatformProductID: id,
			Name:              name,
			Price:             25,
			InStock:           true,
			IsValid:           true,
			ExpiresAt:         time.Now().Add(time.Hour),
		})
	}
	add("a", "鸡胸肉")
	add("b", "新鲜鸡胸肉 500g")
	add("c", "鸡胸肉片")
	engine := newTestEngine(r)
	food := FoodItem{ID: "f", Name: "鸡胸肉", Category: CategoryProtein}

	strict := MatchConfig{MinConfidence: Float(0.5), MaxResults: 10}
	loose := MatchConfig{MinConfidence: Float(0.2), MaxResults: 10}

	strictResults, err := engine.MatchFood(context.Background(), food, &strict)
	require.NoError(t, err)
	looseResults, err := engine.MatchFood(context.Background(), food, &loose)
	require.NoError(t, err)

	require.NotEmpty(t, strictResults)
	assert.GreaterOrEqual(t, len(looseResults), len(strictResults))

	looseIDs := map[string]bool{}
	for _, res := range looseResults {
		looseIDs[res.Product.PlatformProductID] = true
	}
	for _, res := range strictResults {
		assert.True(t, looseIDs[res.Product.PlatformProductID],
			"lowering minConfidence dropped %s", res.Product.PlatformProductID)
	}
}

func TestMatchFoodInvalidConfig(t *testing.T) {
	engine := newTestEngine(catalog.NewMemoryReader())
	food := FoodItem{ID: "f", Name: "鸡蛋"}

	tests := []struct {
		name string
		cfg  MatchConfig
	}{
		{"Confidence above one", MatchConfig{MinConfidence: Float(1.5), MaxResults: 10}},
		{"Negative confidence", MatchConfig{MinConfidence: Float(-0.1), MaxResults: 10}},
		{"Inverted price range", MatchConfig{MaxResults: 10, PriceRange: &PriceRange{Min: 50, Max: 10}}},
		{"Negative price bound", MatchConfig{MaxResults: 10, PriceRange: &PriceRange{Min: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.MatchFood(context.Background(), food, &tt.cfg)
			require.Error(t, err)
			me, ok := AsMatchError(err)
			require.True(t, ok)
			assert.Equal(t, CodeInvalidConfig, me.Code)
			assert.Equal(t, "f", me.FoodID)
		})
	}
}

func TestMatchFoodUnknownPlatformScope(t *testing.T) {
	engine := newTestEngine(catalog.NewMemoryReader())
	cfg := DefaultMatchConfig()
	cfg.Platforms = []platform.ID{platform.ID("taobao")}

	_, err := engine.MatchFood(context.Background(), FoodItem{ID: "f", Name: "鸡蛋"}, &cfg)
	require.Error(t, err)
	me, ok := AsMatchError(err)
	require.True(t, ok)
	assert.Equal(t, CodeUnknownPlatform, me.Code)
}

// faultyReader fails or panics for chosen query substrings and delegates the
// rest to an inner reader.
type faultyReader struct {
	inner   catalog.Reader
	failOn  string
	panicOn string
}

func (r *faultyReader) Search(ctx context.Context, query string, f catalog.Filter) ([]catalog.Product, error) {
	if r.panicOn != "" && query == r.panicOn {
		panic("corrupt candidate record")
	}
	if r.failOn != "" && query == r.failOn {
		return nil, errors.New("catalog store unavailable")
	}
	return r.inner.Search(ctx, query, f)
}

func TestMatchFoodQueryFailureDegrades(t *testing.T) {
	reader := &faultyReader{inner: chickenCatalog(), failOn: "去皮"}
	engine := newTestEngine(reader)

	// "鸡胸肉 去皮" produces several queries; the failing one must only lose
	// its own candidates.
	cfg := DefaultMatchConfig()
	cfg.MinConfidence = Float(0.3)
	results, err := engine.MatchFood(context.Background(), FoodItem{ID: "f", Name: "鸡胸肉 去皮"}, &cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestMatchFoodPanickingQueryDegrades(t *testing.T) {
	reader := &faultyReader{inner: chickenCatalog(), panicOn: "去皮"}
	engine := newTestEngine(reader)

	// A reader panic happens on an errgroup goroutine, outside MatchFood's
	// own recover; the fan-out must contain it to the one query.
	cfg := DefaultMatchConfig()
	cfg.MinConfidence = Float(0.3)
	results, err := engine.MatchFood(context.Background(), FoodItem{ID: "f", Name: "鸡胸肉 去皮"}, &cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestMatchFoodPartialConfigKeepsDefaultFloor(t *testing.T) {
	r := chickenCatalog()
	// Scores ~0.42: no name-token overlap, keywords hit the description only.
	r.Add(catalog.Product{
		Platform:          platform.Meituan,
		PlatformProductID: "mt-weak",
		Name:              "川味卤味大礼包",
		Description:       "内含鸡胸肉少许",
		Price:             39,
		InStock:           true,
		IsValid:           true,
		ExpiresAt:         time.Now().Add(time.Hour),
	})
	engine := newTestEngine(r)
	food := FoodItem{ID: "f", Name: "鸡胸肉", Category: CategoryProtein}

	// Setting only maxResults must not drop the 0.6 confidence floor.
	results, err := engine.MatchFood(context.Background(), food, &MatchConfig{MaxResults: 5})
	require.NoError(t, err)
	for _, res := range results {
		assert.GreaterOrEqual(t, res.Confidence, 0.6)
		assert.NotEqual(t, "mt-weak", res.Product.PlatformProductID)
	}

	// An explicit zero floor lets the weak candidate through.
	results, err = engine.MatchFood(context.Background(), food, &MatchConfig{MinConfidence: Float(0), MaxResults: 5})
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, res := range results {
		ids[res.Product.PlatformProductID] = true
	}
	assert.True(t, ids["mt-weak"], "explicit zero floor must admit sub-threshold candidates")
}

func TestEngineConfiguredDefaultFloor(t *testing.T) {
	engine := NewEngine(chickenCatalog(), platform.NewRegistry(), NewLogSink(), EngineConfig{
		DefaultMinConfidence: 0.95,
		DefaultMaxResults:    5,
	})

	results, err := engine.MatchFood(context.Background(), FoodItem{ID: "f", Name: "鸡胸肉", Category: CategoryProtein}, nil)
	require.NoError(t, err)
	assert.Empty(t, results, "configured floor above the scenario confidence must filter it")
}

func TestMatchFoodsBatchIsolation(t *testing.T) {
	reader := &faultyReader{inner: chickenCatalog(), panicOn: "炸酱面"}
	engine := newTestEngine(reader)

	foods := []FoodItem{
		{ID: "good", Name: "鸡胸肉", Category: CategoryProtein},
		{ID: "bad", Name: "炸酱面"},
	}

	out, err := engine.MatchFoods(context.Background(), foods, nil)
	require.NoError(t, err, "batch must not abort on a per-food failure")
	require.Len(t, out, 2)

	assert.NotEmpty(t, out["good"], "healthy food should still match")
	require.NotNil(t, out["bad"])
	assert.Empty(t, out["bad"], "failing food yields an empty result list")
}

func TestMatchFoodsCancellation(t *testing.T) {
	engine := newTestEngine(chickenCatalog())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	foods := []FoodItem{{ID: "f1", Name: "鸡胸肉"}, {ID: "f2", Name: "牛奶"}}
	_, err := engine.MatchFoods(ctx, foods, nil)
	require.Error(t, err)
}

func TestMatchFoodsInvalidConfigRejectedUpFront(t *testing.T) {
	engine := newTestEngine(chickenCatalog())
	cfg := MatchConfig{MinConfidence: Float(2)}

	_, err := engine.MatchFoods(context.Background(), []FoodItem{{ID: "f", Name: "鸡蛋"}}, &cfg)
	require.Error(t, err)
	me, ok := AsMatchError(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidConfig, me.Code)
}

func TestRecordCorrectionDoesNotAffectMatching(t *testing.T) {
	engine := newTestEngine(chickenCatalog())
	food := FoodItem{ID: "f", Name: "鸡胸肉", Category: CategoryProtein}

	before, err := engine.MatchFood(context.Background(), food, nil)
	require.NoError(t, err)

	engine.RecordCorrection(context.Background(), CorrectionRecord{
		FoodID:            "f",
		PlatformProductID: "sam-1001",
		Platform:          platform.SamsClub,
		IsCorrect:         false,
	})

	after, err := engine.MatchFood(context.Background(), food, nil)
	require.NoError(t, err)
	assert.Equal(t, before, after, "corrections must not change results until learning is wired")
}
