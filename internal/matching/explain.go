package matching

import (
	"strings"

	"github.com/freshmeal/matcher-service/internal/catalog"
)

// Confidence-tier reason strings surfaced to callers.
const (
	reasonHighMatch     = "high match: name and keywords strongly aligned"
	reasonModerateMatch = "moderate match: partial keyword overlap"
	reasonLowMatch      = "low match: basic field overlap"
	reasonManyKeywords  = "multiple keyword matches"
	reasonBrandRelevant = "brand relevant"
)

// matchedKeywords returns the subset of the food's keywords found in the
// candidate's combined name, description and brand text, keeping keyword
// order.
func matchedKeywords(keywords []string, p catalog.Product) []string {
	candidateText := strings.ToLower(p.Name + " " + p.Description + " " + p.Brand)
	matched := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if strings.Contains(candidateText, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// matchReasons derives the ordered explanation list for one surviving
// candidate: a confidence-tier statement, then the optional keyword and brand
// notes.
func matchReasons(confidence float64, matched []string, brandRelevant bool) []string {
	reasons := make([]string, 0, 3)

	switch {
	case confidence > 0.8:
		reasons = append(reasons, reasonHighMatch)
	case confidence > 0.6:
		reasons = append(reasons, reasonModerateMatch)
	default:
		reasons = append(reasons, reasonLowMatch)
	}

	if len(matched) > 2 {
		reasons = append(reasons, reasonManyKeywords)
	}
	if brandRelevant {
		reasons = append(reasons, reasonBrandRelevant)
	}

	return reasons
}
