package report

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

const (
	suggestThreshold = 0.5
	suggestLimit     = 5
)

type scored struct {
	identifier string
	score      float64
}

// Suggest ranks candidate identifiers by similarity to the query and returns
// the closest ones above a fixed threshold. Substring containment is treated
// as near-certain; everything else falls back to normalized Levenshtein
// similarity.
func Suggest(query string, candidates []string) []string {
	if query == "" || len(candidates) == 0 {
		return nil
	}
	q := strings.ToLower(query)

	var results []scored
	for _, cand := range candidates {
		if cand == "" {
			continue
		}
		s := score(q, strings.ToLower(cand))
		if s >= suggestThreshold {
			results = append(results, scored{identifier: cand, score: s})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	limit := suggestLimit
	if len(results) < limit {
		limit = len(results)
	}
	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = results[i].identifier
	}
	return out
}

func score(query, candidate string) float64 {
	if query == candidate {
		return 1.0
	}
	if strings.Contains(candidate, query) || strings.Contains(query, candidate) {
		return 0.95
	}
	return levenshtein.Match(query, candidate, nil)
}
