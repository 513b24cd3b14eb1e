package matching

import (
	"strings"

	"golang.org/x/text/width"
)

// fillerQualifiers are descriptive words stripped before matching because
// they carry no product identity (Chinese first, they dominate catalog text).
var fillerQualifiers = []string{
	"新鲜", "有机", "进口", "散装", "袋装", "盒装", "精选", "特级",
	"fresh", "organic", "imported", "loose", "packaged",
}

// tokenDelimiters are the CJK and Latin punctuation marks that split product
// text into tokens, on top of plain whitespace.
const tokenDelimiters = "，,：:；;？?！!《》()（）、·/|"

// Normalize derives the ephemeral NormalizedText for one food item: width
// folding, lowercasing, filler stripping, tokenization and keyword
// extraction (tokens of rune length >= 2, alias tokens included).
func Normalize(food FoodItem) NormalizedText {
	normalized := normalizeString(food.Name)
	tokens := tokenizeText(normalized)

	keywords := make([]string, 0, len(tokens))
	seen := make(map[string]struct{})
	addKeyword := func(tok string) {
		if runeLen(tok) < 2 {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}

	for _, tok := range tokens {
		addKeyword(tok)
	}
	for _, alias := range food.Aliases {
		for _, tok := range tokenizeText(normalizeString(alias)) {
			addKeyword(tok)
		}
	}

	return NormalizedText{
		Original:   food.Name,
		Normalized: normalized,
		Tokens:     tokens,
		Keywords:   keywords,
	}
}

// normalizeString folds full-width forms, lowercases, trims and removes
// filler qualifiers via plain substring removal.
func normalizeString(s string) string {
	s = width.Fold.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	for _, filler := range fillerQualifiers {
		s = strings.ReplaceAll(s, filler, "")
	}
	return strings.TrimSpace(s)
}

// tokenizeText splits on whitespace and the fixed delimiter set, discarding
// empty tokens.
func tokenizeText(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '\r', '　':
			return true
		}
		return strings.ContainsRune(tokenDelimiters, r)
	})
}

func runeLen(s string) int {
	return len([]rune(s))
}
