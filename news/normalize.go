package news

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cespare/xxhash/v2"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-finance-cache/pkg/failure"
)

const (
	// MinTitleLength is the shortest accepted title, in runes, after trimming.
	MinTitleLength = 5
	// MinURLLength is the shortest accepted article URL.
	MinURLLength = 10
	// DefaultDescriptionLength caps descriptions, in runes.
	DefaultDescriptionLength = 300
	// UnknownSource names articles whose provider gave no usable source.
	UnknownSource = "Unknown"
)

// Options parameterise a normalizer for one source.
type Options struct {
	Category string
	// FallbackSource names the article source when the payload has none.
	FallbackSource    string
	DescriptionLength int
	// Now stamps articles whose date cannot be parsed. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

func (o Options) fallbackSource() string {
	if s := strings.TrimSpace(o.FallbackSource); s != "" {
		return s
	}
	return UnknownSource
}

func (o Options) descriptionLength() int {
	if o.DescriptionLength > 0 {
		return o.DescriptionLength
	}
	return DefaultDescriptionLength
}

// candidate is a record pulled out of a provider payload, before validation.
type candidate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Published   time.Time
}

func (c candidate) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Title, validation.Required, validation.RuneLength(MinTitleLength, 0)),
		validation.Field(&c.URL, validation.Required, validation.Length(MinURLLength, 0)),
	)
}

// build validates c and turns it into an Article.
func (o Options) build(c candidate) (Article, error) {
	c.Title = collapseSpace(c.Title)
	c.URL = strings.TrimSpace(c.URL)

	if err := c.Validate(); err != nil {
		return Article{}, failure.RecordInvalid(err, "article rejected: "+preview(c.Title, c.URL))
	}

	published := c.Published
	if published.IsZero() {
		published = o.now()
	}

	source := strings.TrimSpace(c.Source)
	if source == "" {
		source = o.fallbackSource()
	}

	return Article{
		ID:          ArticleID(c.URL),
		Title:       c.Title,
		Description: truncate(stripHTML(c.Description), o.descriptionLength()),
		Source:      source,
		URL:         c.URL,
		PublishedAt: published.UTC(),
		Category:    NormalizeCategory(o.Category),
	}, nil
}

// ArticleID derives a stable identifier from an article URL.
func ArticleID(url string) string {
	return strconv.FormatUint(xxhash.Sum64String(strings.TrimSpace(url)), 16)
}

// sourceName reads a provider source field that may be an object with a
// name, a plain string, or missing.
func sourceName(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Name)
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return strings.TrimSpace(plain)
	}

	return ""
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate tries the layouts providers use. The zero time means unparsable.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// stripHTML returns the text content of an HTML fragment.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func preview(title, url string) string {
	if title != "" {
		return strconv.Quote(truncate(title, 40))
	}
	return strconv.Quote(truncate(url, 60))
}
