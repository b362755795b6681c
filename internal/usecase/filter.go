package usecase

import (
	"slices"
	"strings"

	"ExclusiveScanner/internal/domain"
)

// Blacklist drops items from banned publishers or mentioning banned keywords.
type Blacklist struct {
	Publishers []string
	Keywords   []string
}

// Apply returns the items that pass both lists, in input order.
func (b Blacklist) Apply(items []domain.NewsItem) []domain.NewsItem {
	kept := make([]domain.NewsItem, 0, len(items))
	for _, item := range items {
		if b.banned(item) {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

func (b Blacklist) banned(item domain.NewsItem) bool {
	if slices.Contains(b.Publishers, item.Publisher) {
		return true
	}
	text := item.Title + " " + item.Summary
	for _, keyword := range b.Keywords {
		if keyword != "" && strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// Cut keeps ranked items scoring at least minScore, at most maxCount of them.
// A non-positive maxCount means no limit.
func Cut(ranked []domain.RankedNews, minScore, maxCount int) []domain.RankedNews {
	kept := make([]domain.RankedNews, 0, len(ranked))
	for _, r := range ranked {
		if r.Score >= minScore {
			kept = append(kept, r)
		}
	}
	if maxCount > 0 && len(kept) > maxCount {
		kept = kept[:maxCount]
	}
	return kept
}
