// Package match ranks catalog names against a free-text query.
package match

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultThreshold is the minimum similarity a candidate needs to be kept.
const DefaultThreshold = 0.4

// Normalize lowercases s and turns runs of punctuation and whitespace into
// single spaces.
func Normalize(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsPunct(r) || unicode.IsSpace(r) || (unicode.IsSymbol(r) && r != '+') {
			space = b.Len() > 0
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Similarity is the ratio of matching runes between two normalized strings,
// in [0, 1].
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

type scored[T any] struct {
	item  T
	score float64
}

// SearchAndRank returns candidates whose key contains the query after
// normalization and scores at least threshold, best first. Candidates
// sharing a raw key keep only their first occurrence; ties keep input order.
func SearchAndRank[T any](query string, candidates []T, key func(T) string, threshold float64) []T {
	q := Normalize(query)
	if q == "" {
		return nil
	}

	seen := make(map[string]bool)
	var hits []scored[T]
	for _, c := range candidates {
		k := key(c)
		if seen[k] {
			continue
		}
		n := Normalize(k)
		if !strings.Contains(n, q) {
			continue
		}
		seen[k] = true
		if score := Similarity(q, n); score >= threshold {
			hits = append(hits, scored[T]{item: c, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	out := make([]T, len(hits))
	for i, h := range hits {
		out[i] = h.item
	}
	return out
}
