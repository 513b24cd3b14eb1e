package matching

import (
	"github.com/freshmeal/matcher-service/internal/catalog"
	"github.com/freshmeal/matcher-service/internal/platform"
)

// FoodCategory is the coarse ingredient category supplied by the meal
// planner.
type FoodCategory string

const (
	CategoryVegetables FoodCategory = "VEGETABLES"
	CategoryProtein    FoodCategory = "PROTEIN"
	CategorySeafood    FoodCategory = "SEAFOOD"
	CategoryDairy      FoodCategory = "DAIRY"
	CategoryGrains     FoodCategory = "GRAINS"
	CategoryFruits     FoodCategory = "FRUITS"
	CategoryOther      FoodCategory = "OTHER"
)

// FoodItem is an ingredient to be matched against the cached platform
// catalogs. It is immutable input owned by the caller.
type FoodItem struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Aliases  []string     `json:"aliases,omitempty"`
	Category FoodCategory `json:"category,omitempty"`
}

// NormalizedText is the ephemeral derivation of one food's text: created
// fresh per match call, never persisted.
type NormalizedText struct {
	Original   string
	Normalized string
	Tokens     []string
	Keywords   []string
}

// PriceRange bounds candidate prices. A zero Max means unbounded above.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// MatchConfig is the per-call configuration, merged over defaults. A nil
// MinConfidence takes the default floor; Float(0) requests no floor at all.
type MatchConfig struct {
	MinConfidence     *float64      `json:"minConfidence,omitempty"`
	MaxResults        int           `json:"maxResults"`
	IncludeOutOfStock bool          `json:"includeOutOfStock"`
	PriceRange        *PriceRange   `json:"priceRange,omitempty"`
	Platforms         []platform.ID `json:"platforms,omitempty"`
}

// Float returns a pointer to v, for building MatchConfig literals.
func Float(v float64) *float64 {
	return &v
}

// DefaultMatchConfig returns the engine defaults: confidence floor 0.6,
// at most 10 results, out-of-stock candidates excluded.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		MinConfidence:     Float(0.6),
		MaxResults:        10,
		IncludeOutOfStock: false,
	}
}

// SKUMatchResult is one ranked candidate returned to the caller. Transient;
// the engine persists nothing.
type SKUMatchResult struct {
	Product         catalog.Product `json:"platformProduct"`
	Confidence      float64         `json:"confidence"`
	MatchedKeywords []string        `json:"matchedKeywords"`
	MatchReasons    []string        `json:"matchReasons"`
}

// CorrectionRecord is a human judgment about a prior match, appended to the
// correction sink for later weight refinement.
type CorrectionRecord struct {
	FoodID            string      `json:"foodId"`
	PlatformProductID string      `json:"platformProductId"`
	Platform          platform.ID `json:"platform"`
	IsCorrect         bool        `json:"isCorrect"`
}
