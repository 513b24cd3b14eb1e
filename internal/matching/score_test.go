package matching

import (
	"math"
	"testing"
	"time"

	"github.com/freshmeal/matcher-service/internal/catalog"
	"github.com/freshmeal/matcher-service/internal/platform"
)

const scoreEpsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < scoreEpsilon
}

func snapshotProduct(name, brand string, price float64) catalog.Product {
	return catalog.Product{
		Platform:          platform.SamsClub,
		PlatformProductID: "p1",
		Name:              name,
		Brand:             brand,
		Price:             price,
		InStock:           true,
		IsValid:           true,
		ExpiresAt:         time.Now().Add(time.Hour),
	}
}

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name      string
		food      []string
		candidate []string
		expected  float64
	}{
		{"Identical single token", []string{"鸡胸肉"}, []string{"鸡胸肉"}, 1.0},
		{"Half overlap", []string{"鸡胸肉"}, []string{"鸡胸肉", "500g"}, 0.5},
		{"No overlap", []string{"牛肉"}, []string{"三文鱼"}, 0.0},
		{"Food empty", nil, []string{"牛肉"}, 0.0},
		{"Candidate empty", []string{"牛肉"}, nil, 0.0},
		{"Both empty", nil, nil, 0.0},
		{"Duplicate candidate tokens counted once", []string{"a", "b"}, []string{"a", "a"}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nameSimilarity(tt.food, tt.candidate)
			if !almostEqual(got, tt.expected) {
				t.Errorf("nameSimilarity(%v, %v) = %v, want %v", tt.food, tt.candidate, got, tt.expected)
			}
		})
	}
}

func TestKeywordCoverage(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		text     string
		expected float64
	}{
		{"All found", []string{"鸡胸", "去皮"}, "去皮鸡胸肉大包装", 1.0},
		{"Half found", []string{"鸡胸", "三文鱼"}, "新鲜鸡胸肉", 0.5},
		{"None found", []string{"牛排"}, "三文鱼刺身", 0.0},
		{"No keywords", nil, "anything", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keywordCoverage(tt.keywords, tt.text)
			if !almostEqual(got, tt.expected) {
				t.Errorf("keywordCoverage = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCategoryScoreNeutral(t *testing.T) {
	// The category table is declared but not consulted; every lookup returns
	// the neutral midpoint. Changing this reorders rankings, so it is pinned.
	for _, cat := range []FoodCategory{CategoryProtein, CategoryVegetables, CategoryOther, FoodCategory("BOGUS")} {
		if got := categoryScore(cat, "鸡肉"); !almostEqual(got, neutralCategoryScore) {
			t.Errorf("categoryScore(%s) = %v, want %v", cat, got, neutralCategoryScore)
		}
	}
}

func TestAttributeScore(t *testing.T) {
	tests := []struct {
		name          string
		keywords      []string
		product       catalog.Product
		expected      float64
		brandRelevant bool
	}{
		{
			name:     "Price only",
			keywords: []string{"鸡胸肉"},
			product:  snapshotProduct("新鲜鸡胸肉 500g", "山姆会员牌", 29.9),
			expected: 0.2,
		},
		{
			name:          "Brand plus spec plus price capped at 1",
			keywords:      []string{"伊利"},
			product:       catalog.Product{Brand: "伊利", Unit: "1l", Price: 69},
			expected:      1.0,
			brandRelevant: true,
		},
		{
			name:     "Zero price contributes nothing",
			keywords: []string{"牛奶"},
			product:  catalog.Product{Name: "牛奶", Price: 0},
			expected: 0.0,
		},
		{
			name:     "Price above sanity ceiling contributes nothing",
			keywords: []string{"牛奶"},
			product:  catalog.Product{Name: "牛奶", Price: 10000},
			expected: 0.0,
		},
		{
			name:     "Specification without brand or price",
			keywords: nil,
			product:  catalog.Product{Specification: "500g*2"},
			expected: 0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, brandRelevant := attributeScore(tt.keywords, tt.product)
			if !almostEqual(got, tt.expected) {
				t.Errorf("attributeScore = %v, want %v", got, tt.expected)
			}
			if brandRelevant != tt.brandRelevant {
				t.Errorf("brandRelevant = %v, want %v", brandRelevant, tt.brandRelevant)
			}
		})
	}
}

func TestScoreCandidateChickenBreast(t *testing.T) {
	food := FoodItem{ID: "f1", Name: "鸡胸肉", Category: CategoryProtein}
	nt := Normalize(food)
	p := snapshotProduct("新鲜鸡胸肉 500g", "山姆会员牌", 29.9)

	b := scoreCandidate(food, nt, p)

	// Candidate name filler-strips to "鸡胸肉 500g": intersection 1, union 2.
	if !almostEqual(b.NameSimilarity, 0.5) {
		t.Errorf("NameSimilarity = %v, want 0.5", b.NameSimilarity)
	}
	if !almostEqual(b.KeywordCoverage, 1.0) {
		t.Errorf("KeywordCoverage = %v, want 1.0", b.KeywordCoverage)
	}
	if !almostEqual(b.Category, 0.5) {
		t.Errorf("Category = %v, want 0.5", b.Category)
	}
	if !almostEqual(b.Attributes, 0.2) {
		t.Errorf("Attributes = %v, want 0.2 (price sanity only)", b.Attributes)
	}

	confidence := b.Confidence()
	if confidence < 0.6 {
		t.Errorf("confidence = %v, want >= 0.6", confidence)
	}
	if !almostEqual(confidence, 0.62) {
		t.Errorf("confidence = %v, want 0.62", confidence)
	}
}

func TestScoreCandidateNoKeywordsCeiling(t *testing.T) {
	// Single-rune name produces no keywords, so coverage is 0 and the
	// confidence ceiling is 0.4*1 + 0.2*0.5 + 0.1*attr.
	food := FoodItem{ID: "f2", Name: "米", Category: CategoryGrains}
	nt := Normalize(food)
	if len(nt.Keywords) != 0 {
		t.Fatalf("keywords = %v, want none", nt.Keywords)
	}

	p := snapshotProduct("米", "", 5)
	b := scoreCandidate(food, nt, p)

	if !almostEqual(b.KeywordCoverage, 0) {
		t.Errorf("KeywordCoverage = %v, want 0", b.KeywordCoverage)
	}
	if !almostEqual(b.Confidence(), 0.4+0.1+0.1*0.2) {
		t.Errorf("confidence = %v, want exactly %v", b.Confidence(), 0.4+0.1+0.1*0.2)
	}
}

func TestConfidenceBounds(t *testing.T) {
	foods := []FoodItem{
		{Name: "鸡胸肉", Category: CategoryProtein},
		{Name: "米"},
		{Name: ""},
		{Name: "Fresh Organic", Aliases: []string{"有机"}},
	}
	products := []catalog.Product{
		snapshotProduct("新鲜鸡胸肉 500g", "山姆会员牌", 29.9),
		{Name: "", Brand: "", Price: -3},
		{Name: "米", Unit: "5kg", Brand: "福临门", Price: 45},
	}

	for _, food := range foods {
		nt := Normalize(food)
		for _, p := range products {
			c := scoreCandidate(food, nt, p).Confidence()
			if c < 0 || c > 1 {
				t.Errorf("confidence %v out of bounds for food %q product %q", c, food.Name, p.Name)
			}
		}
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, out float64
	}{
		{-0.5, 0}, {0, 0}, {0.42, 0.42}, {1, 1}, {1.5, 1},
	}
	for _, tt := range tests {
		if got := clamp01(tt.in); !almostEqual(got, tt.out) {
			t.Errorf("clamp01(%v) = %v, want %v", tt.in, got, tt.out)
		}
	}
}
