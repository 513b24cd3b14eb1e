package matching

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		food         FoodItem
		wantNorm     string
		wantTokens   []string
		wantKeywords []string
	}{
		{
			name:         "Plain Chinese name",
			food:         FoodItem{Name: "鸡胸肉"},
			wantNorm:     "鸡胸肉",
			wantTokens:   []string{"鸡胸肉"},
			wantKeywords: []string{"鸡胸肉"},
		},
		{
			name:         "Filler qualifier stripped",
			food:         FoodItem{Name: "新鲜鸡胸肉"},
			wantNorm:     "鸡胸肉",
			wantTokens:   []string{"鸡胸肉"},
			wantKeywords: []string{"鸡胸肉"},
		},
		{
			name:         "English fillers and case",
			food:         FoodItem{Name: "  Fresh Organic Milk "},
			wantNorm:     "milk",
			wantTokens:   []string{"milk"},
			wantKeywords: []string{"milk"},
		},
		{
			name:         "Full-width punctuation delimiters",
			food:         FoodItem{Name: "西红柿，番茄：圣女果"},
			wantNorm:     "西红柿,番茄:圣女果",
			wantTokens:   []string{"西红柿", "番茄", "圣女果"},
			wantKeywords: []string{"西红柿", "番茄", "圣女果"},
		},
		{
			name:         "Aliases contribute keywords",
			food:         FoodItem{Name: "土豆", Aliases: []string{"马铃薯", "洋芋"}},
			wantNorm:     "土豆",
			wantTokens:   []string{"土豆"},
			wantKeywords: []string{"土豆", "马铃薯", "洋芋"},
		},
		{
			name:         "Single-rune tokens excluded from keywords",
			food:         FoodItem{Name: "米"},
			wantNorm:     "米",
			wantTokens:   []string{"米"},
			wantKeywords: []string{},
		},
		{
			name:         "Duplicate alias tokens collapsed",
			food:         FoodItem{Name: "鸡蛋", Aliases: []string{"鸡蛋", "土鸡蛋"}},
			wantNorm:     "鸡蛋",
			wantTokens:   []string{"鸡蛋"},
			wantKeywords: []string{"鸡蛋", "土鸡蛋"},
		},
		{
			name:         "Empty name",
			food:         FoodItem{Name: ""},
			wantNorm:     "",
			wantTokens:   []string{},
			wantKeywords: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nt := Normalize(tt.food)
			if nt.Original != tt.food.Name {
				t.Errorf("Original = %q, want %q", nt.Original, tt.food.Name)
			}
			if nt.Normalized != tt.wantNorm {
				t.Errorf("Normalized = %q, want %q", nt.Normalized, tt.wantNorm)
			}
			if !sameTokens(nt.Tokens, tt.wantTokens) {
				t.Errorf("Tokens = %v, want %v", nt.Tokens, tt.wantTokens)
			}
			if !sameTokens(nt.Keywords, tt.wantKeywords) {
				t.Errorf("Keywords = %v, want %v", nt.Keywords, tt.wantKeywords)
			}
		})
	}
}

// sameTokens treats nil and empty slices as equal.
func sameTokens(got, want []string) bool {
	if len(got) == 0 && len(want) == 0 {
		return true
	}
	return reflect.DeepEqual(got, want)
}

func TestNormalizeWidthFolding(t *testing.T) {
	nt := Normalize(FoodItem{Name: "ＣＯＬＡ　５００ｍｌ"})
	if nt.Normalized != "cola 500ml" {
		t.Errorf("Normalized = %q, want %q", nt.Normalized, "cola 500ml")
	}
}

func TestTokenizeText(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"鸡胸肉 500g", []string{"鸡胸肉", "500g"}},
		{"a，b；c！d？e", []string{"a", "b", "c", "d", "e"}},
		{"《精品》牛肉", []string{"精品", "牛肉"}},
		{"", nil},
		{"，，，", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := tokenizeText(tt.input)
			if !sameTokens(got, tt.expected) {
				t.Errorf("tokenizeText(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
