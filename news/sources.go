package news

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-finance-cache/fallback"
)

// Getter fetches a URL. provider.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, rawURL string, query url.Values) ([]byte, error)
}

// APISettings configure the headline REST API. An empty Key drops the API
// from every chain.
type APISettings struct {
	BaseURL  string
	Key      string
	Country  string
	Language string
	PageSize int
	Timeout  time.Duration
}

// Feed is one syndication feed URL.
type Feed struct {
	Name string
	URL  string
}

// CategorySettings say what to ask each upstream for a category.
type CategorySettings struct {
	// Query is a free text search. When empty the API top headlines for
	// APICategory are used instead.
	Query       string
	APICategory string
	Feeds       []Feed
}

// SourceSettings hold what is shared by every news chain.
type SourceSettings struct {
	API               APISettings
	FeedTimeout       time.Duration
	DescriptionLength int
	Now               func() time.Time
}

// Sources builds the ordered sources for category: the headline API first
// (when a key is configured) followed by the category feeds in order.
func Sources(client Getter, category string, settings SourceSettings, cat CategorySettings) []fallback.Source[Article] {
	category = NormalizeCategory(category)
	var sources []fallback.Source[Article]
	priority := 1

	if strings.TrimSpace(settings.API.Key) != "" && settings.API.BaseURL != "" {
		endpoint, query := apiRequest(settings.API, cat)
		opts := Options{
			Category:          category,
			FallbackSource:    "News API",
			DescriptionLength: settings.DescriptionLength,
			Now:               settings.Now,
		}
		sources = append(sources, fallback.NewSource(
			fallback.SourceConfig{Name: "newsapi:" + category, Priority: priority, Timeout: settings.API.Timeout},
			func(ctx context.Context) ([]byte, error) {
				return client.Get(ctx, endpoint, query)
			},
			NormalizeAPI(opts),
		))
		priority++
	}

	for _, feed := range cat.Feeds {
		if strings.TrimSpace(feed.URL) == "" {
			continue
		}
		feedURL := feed.URL
		opts := Options{
			Category:          category,
			FallbackSource:    feed.Name,
			DescriptionLength: settings.DescriptionLength,
			Now:               settings.Now,
		}
		sources = append(sources, fallback.NewSource(
			fallback.SourceConfig{Name: "feed:" + feedName(feed), Priority: priority, Timeout: settings.FeedTimeout},
			func(ctx context.Context) ([]byte, error) {
				return client.Get(ctx, feedURL, nil)
			},
			NormalizeFeed(opts),
		))
		priority++
	}

	return sources
}

func apiRequest(api APISettings, cat CategorySettings) (string, url.Values) {
	base := strings.TrimRight(api.BaseURL, "/")
	query := url.Values{}
	query.Set("apiKey", api.Key)
	if api.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(api.PageSize))
	}

	if strings.TrimSpace(cat.Query) != "" {
		query.Set("q", cat.Query)
		query.Set("sortBy", "publishedAt")
		if api.Language != "" {
			query.Set("language", api.Language)
		}
		return base + "/everything", query
	}

	apiCategory := cat.APICategory
	if apiCategory == "" {
		apiCategory = "business"
	}
	query.Set("category", apiCategory)
	if api.Country != "" {
		query.Set("country", api.Country)
	}
	return base + "/top-headlines", query
}

func feedName(feed Feed) string {
	if name := strings.TrimSpace(feed.Name); name != "" {
		return name
	}
	if u, err := url.Parse(feed.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return feed.URL
}
