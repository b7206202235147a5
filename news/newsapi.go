package news

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-finance-cache/fallback"
	"github.com/goliatone/go-finance-cache/pkg/failure"
)

// apiPayload is the headline API envelope. Articles are decoded one by one so
// a single malformed entry cannot fail the batch.
type apiPayload struct {
	Status   string            `json:"status"`
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Articles []json.RawMessage `json:"articles"`
}

type apiArticle struct {
	Source      json.RawMessage `json:"source"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Content     string          `json:"content"`
	URL         string          `json:"url"`
	PublishedAt string          `json:"publishedAt"`
}

// NormalizeAPI returns the normalizer for headline API responses.
func NormalizeAPI(opts Options) fallback.NormalizeFunc[[]byte, Article] {
	return func(raw []byte) (fallback.Batch[Article], error) {
		var batch fallback.Batch[Article]

		var payload apiPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return batch, fmt.Errorf("decode headline payload: %w", err)
		}
		if strings.EqualFold(payload.Status, "error") {
			return batch, fmt.Errorf("headline api error %s: %s", payload.Code, payload.Message)
		}

		for i, item := range payload.Articles {
			var a apiArticle
			if err := json.Unmarshal(item, &a); err != nil {
				batch.Reject(failure.RecordInvalid(err, fmt.Sprintf("article %d undecodable", i)))
				continue
			}

			description := a.Description
			if strings.TrimSpace(description) == "" {
				description = a.Content
			}

			article, err := opts.build(candidate{
				Title:       a.Title,
				Description: description,
				URL:         a.URL,
				Source:      sourceName(a.Source),
				Published:   parseDate(a.PublishedAt),
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
