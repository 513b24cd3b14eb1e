package matching

import (
	"strings"

	"github.com/freshmeal/matcher-service/internal/catalog"
)

// Scoring weights. They sum to 1.0 so the weighted confidence stays in [0,1]
// as long as every sub-score is bounded.
const (
	weightNameSimilarity  = 0.4
	weightKeywordCoverage = 0.3
	weightCategory        = 0.2
	weightAttributes      = 0.1
)

// Attribute plausibility sub-terms, capped at 1.0 before weighting.
const (
	attrBrandRelevance = 0.5
	attrSpecification  = 0.3
	attrPriceSanity    = 0.2
)

// maxSanePrice is the price ceiling (local currency) above which a snapshot
// is treated as implausible for a grocery SKU.
const maxSanePrice = 10000

// neutralCategoryScore is returned when no category signal is applied.
const neutralCategoryScore = 0.5

// categoryKeywords maps a food category to catalog text fragments that signal
// compatibility.
// TODO: wire categoryScore to this table once the ranking change is approved;
// consulting it shifts result order for every category-bearing food.
var categoryKeywords = map[FoodCategory][]string{
	CategoryVegetables: {"蔬菜", "青菜", "叶菜", "菜"},
	CategoryProtein:    {"肉", "鸡", "牛", "猪", "蛋"},
	CategorySeafood:    {"鱼", "虾", "蟹", "海鲜", "贝"},
	CategoryDairy:      {"奶", "乳", "酸奶", "芝士"},
	CategoryGrains:     {"米", "面", "麦", "杂粮"},
	CategoryFruits:     {"水果", "果"},
}

// scoreBreakdown carries each bounded sub-score so the explainer can report
// which factors fired.
type scoreBreakdown struct {
	NameSimilarity  float64
	KeywordCoverage float64
	Category        float64
	Attributes      float64
	BrandRelevant   bool
}

// Confidence combines the sub-scores into the final weighted [0,1] value.
func (b scoreBreakdown) Confidence() float64 {
	c := b.NameSimilarity*weightNameSimilarity +
		b.KeywordCoverage*weightKeywordCoverage +
		b.Category*weightCategory +
		b.Attributes*weightAttributes
	return clamp01(c)
}

// scoreCandidate computes the four sub-scores for one deduplicated candidate.
// The candidate name goes through the same filler-strip normalization as the
// food name so qualifiers glued to CJK product names do not sink the Jaccard
// term.
func scoreCandidate(food FoodItem, nt NormalizedText, p catalog.Product) scoreBreakdown {
	candidateText := strings.ToLower(p.Name + " " + p.Description + " " + p.Brand)

	b := scoreBreakdown{
		NameSimilarity:  nameSimilarity(nt.Tokens, tokenizeText(normalizeString(p.Name))),
		KeywordCoverage: keywordCoverage(nt.Keywords, candidateText),
		Category:        categoryScore(food.Category, candidateText),
	}
	b.Attributes, b.BrandRelevant = attributeScore(nt.Keywords, p)
	return b
}

// nameSimilarity is the Jaccard similarity of the two token sets. Empty
// against anything is 0; two empty sets are also 0 so missing data is never
// rewarded.
func nameSimilarity(foodTokens, candidateTokens []string) float64 {
	if len(foodTokens) == 0 || len(candidateTokens) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(foodTokens))
	for _, t := range foodTokens {
		set[t] = struct{}{}
	}

	union := make(map[string]struct{}, len(foodTokens)+len(candidateTokens))
	for _, t := range foodTokens {
		union[t] = struct{}{}
	}

	intersection := 0
	counted := make(map[string]struct{}, len(candidateTokens))
	for _, t := range candidateTokens {
		union[t] = struct{}{}
		if _, ok := set[t]; ok {
			if _, dup := counted[t]; !dup {
				counted[t] = struct{}{}
				intersection++
			}
		}
	}

	return float64(intersection) / float64(len(union))
}

// keywordCoverage is the fraction of the food's keywords found as substrings
// of the candidate's combined lowercased text.
func keywordCoverage(keywords []string, candidateText string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	found := 0
	for _, kw := range keywords {
		if strings.Contains(candidateText, kw) {
			found++
		}
	}
	return float64(found) / float64(len(keywords))
}

// categoryScore returns the neutral midpoint. The keyword table above is
// declared but intentionally not consulted yet; see the TODO there.
func categoryScore(_ FoodCategory, _ string) float64 {
	return neutralCategoryScore
}

// attributeScore sums the brand, specification and price plausibility terms,
// capped at 1.0. The second return reports whether the brand term fired.
func attributeScore(keywords []string, p catalog.Product) (float64, bool) {
	score := 0.0
	brandRelevant := false

	if p.Brand != "" {
		brand := strings.ToLower(p.Brand)
		for _, kw := range keywords {
			if strings.Contains(brand, kw) {
				brandRelevant = true
				score += attrBrandRelevance
				break
			}
		}
	}

	if p.HasSpecification() {
		score += attrSpecification
	}

	if p.Price > 0 && p.Price < maxSanePrice {
		score += attrPriceSanity
	}

	if score > 1 {
		score = 1
	}
	return score, brandRelevant
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
