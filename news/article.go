package news

import (
	"slices"
	"strings"
	"time"
)

// Known categories. Each one is cached under its own key.
const (
	CategoryAll     = "all"
	CategoryStocks  = "stocks"
	CategoryCrypto  = "crypto"
	CategoryEconomy = "economy"
)

// Categories lists the categories served by the categorized view.
var Categories = []string{CategoryAll, CategoryStocks, CategoryCrypto, CategoryEconomy}

// NormalizeCategory lowercases and trims a category name; empty means all.
func NormalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return CategoryAll
	}
	return category
}

// Article is a validated news record. Image URLs are never carried.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
	Category    string    `json:"category"`
}

// SortNewest orders articles by publication time, newest first.
// Articles published at the same instant keep their relative order.
func SortNewest(articles []Article) {
	slices.SortStableFunc(articles, func(a, b Article) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
}

// Dedupe drops articles whose ID was already seen, keeping the first.
func Dedupe(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Top returns at most limit articles, newest first, without touching the input.
func Top(articles []Article, limit int) []Article {
	out := slices.Clone(articles)
	SortNewest(out)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
