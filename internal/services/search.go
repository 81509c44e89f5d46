package services

import (
	"math"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// FuzzyThreshold is the minimum partial ratio for a search hit.
const FuzzyThreshold = 60

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// PartialRatio scores 0..100 how well the shorter string matches
// its best aligned window inside the longer one.
func PartialRatio(a, b string) int {
	s1, s2 := chars(a), chars(b)
	if len(s1) == 0 || len(s2) == 0 {
		return 0
	}
	shorter, longer := s1, s2
	if len(s1) > len(s2) {
		shorter, longer = s2, s1
	}

	m := difflib.NewMatcher(shorter, longer)
	best := 0.0
	for _, block := range m.GetMatchingBlocks() {
		start := block.B - block.A
		if start < 0 {
			start = 0
		}
		end := start + len(shorter)
		if end > len(longer) {
			end = len(longer)
		}
		r := difflib.NewMatcher(shorter, longer[start:end]).Ratio()
		if r > 0.995 {
			return 100
		}
		if r > best {
			best = r
		}
	}
	return int(math.Round(100 * best))
}

// Scored pairs an item with its search score.
type Scored[T any] struct {
	Item  T
	Score int
}

// FuzzyRank keeps items whose text scores above FuzzyThreshold against query,
// best first. Ties keep the input order.
func FuzzyRank[T any](items []T, query string, text func(T) string) []Scored[T] {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Scored[T]
	if q == "" {
		return out
	}
	for _, it := range items {
		score := PartialRatio(q, strings.ToLower(text(it)))
		if score > FuzzyThreshold {
			out = append(out, Scored[T]{Item: it, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Items drops the scores.
func Items[T any](scored []Scored[T]) []T {
	out := make([]T, len(scored))
	for i, s := range scored {
		out[i] = s.Item
	}
	return out
}
