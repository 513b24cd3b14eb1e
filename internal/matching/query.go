package matching

import "strings"

// BuildQueries turns a normalized food description into the ordered,
// deduplicated set of catalog search strings. The full name comes first, then
// a two-keyword phrase when available (precision), then individual keywords
// (recall). The list bounds how many catalog lookups one food costs.
func BuildQueries(nt NormalizedText) []string {
	queries := make([]string, 0, len(nt.Keywords)+2)
	seen := make(map[string]struct{})
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" {
			return
		}
		if _, ok := seen[q]; ok {
			return
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
	}

	add(nt.Normalized)
	if len(nt.Keywords) >= 2 {
		add(nt.Keywords[0] + " " + nt.Keywords[1])
	}
	for _, kw := range nt.Keywords {
		add(kw)
	}

	return queries
}
