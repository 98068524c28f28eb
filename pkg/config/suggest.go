package config

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

const (
	suggestLimit  = 3
	suggestCutoff = 0.6
)

// Suggest returns up to three candidate keys whose similarity to key is at
// least 0.6, best matches first. Similarity is normalized edit distance.
func Suggest(key string, candidates []string) []string {
	type scored struct {
		key   string
		score float64
	}
	var matches []scored
	for _, c := range candidates {
		score := levenshtein.Similarity(strings.ToLower(key), strings.ToLower(c), nil)
		if score >= suggestCutoff {
			matches = append(matches, scored{key: c, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > suggestLimit {
		matches = matches[:suggestLimit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.key
	}
	return out
}
