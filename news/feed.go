package news

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/goliatone/go-finance-cache/fallback"
)

// ParseFeed parses an RSS, Atom or JSON feed document.
func ParseFeed(raw []byte) (*gofeed.Feed, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("parse feed: empty document")
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// NormalizeFeed returns the normalizer for syndication feed documents.
// The article source is the feed title, falling back to opts.FallbackSource.
func NormalizeFeed(opts Options) fallback.NormalizeFunc[[]byte, Article] {
	return func(raw []byte) (fallback.Batch[Article], error) {
		var batch fallback.Batch[Article]

		feed, err := ParseFeed(raw)
		if err != nil {
			return batch, err
		}

		source := strings.TrimSpace(feed.Title)
		for _, item := range feed.Items {
			if item == nil {
				continue
			}

			article, err := opts.build(candidate{
				Title:       item.Title,
				Description: firstNonEmpty(item.Description, item.Content),
				URL:         itemLink(item),
				Source:      source,
				Published:   itemPublished(item),
			})
			if err != nil {
				batch.Reject(err)
				continue
			}
			batch.Accept(article)
		}

		batch.Records = Dedupe(batch.Records)
		return batch, nil
	}
}

func itemLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	for _, link := range item.Links {
		if link = strings.TrimSpace(link); link != "" {
			return link
		}
	}
	if strings.HasPrefix(item.GUID, "http://") || strings.HasPrefix(item.GUID, "https://") {
		return item.GUID
	}
	return ""
}

func itemPublished(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return *item.PublishedParsed
	case item.UpdatedParsed != nil:
		return *item.UpdatedParsed
	case item.Published != "":
		return parseDate(item.Published)
	default:
		return parseDate(item.Updated)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
