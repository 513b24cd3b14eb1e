package matching

import (
	"reflect"
	"testing"
)

func TestBuildQueries(t *testing.T) {
	tests := []struct {
		name     string
		nt       NormalizedText
		expected []string
	}{
		{
			name: "Single keyword same as name collapses",
			nt: NormalizedText{
				Normalized: "鸡胸肉",
				Keywords:   []string{"鸡胸肉"},
			},
			expected: []string{"鸡胸肉"},
		},
		{
			name: "Phrase query from first two keywords",
			nt: NormalizedText{
				Normalized: "鸡胸肉 去皮",
				Keywords:   []string{"鸡胸肉", "去皮"},
			},
			expected: []string{"鸡胸肉 去皮", "鸡胸肉", "去皮"},
		},
		{
			name: "Order preserved with many keywords",
			nt: NormalizedText{
				Normalized: "tomato cherry red",
				Keywords:   []string{"tomato", "cherry", "red"},
			},
			expected: []string{"tomato cherry red", "tomato cherry", "tomato", "cherry", "red"},
		},
		{
			name: "No keywords yields just the name",
			nt: NormalizedText{
				Normalized: "米",
				Keywords:   nil,
			},
			expected: []string{"米"},
		},
		{
			name:     "Empty normalized text yields nothing",
			nt:       NormalizedText{},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildQueries(tt.nt)
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("BuildQueries() = %v, want %v", got, tt.expected)
			}
		})
	}
}
