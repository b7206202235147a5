package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-finance-cache/pkg/testsupport"
)

func TestNormalizeFeed_RSS(t *testing.T) {
	raw := testsupport.LoadFixture(t, testsupport.FixturePath("markets_rss.xml"))

	batch, err := NormalizeFeed(testOptions(CategoryStocks))(raw)
	require.NoError(t, err)

	require.Len(t, batch.Records, 2)
	require.Len(t, batch.Rejected, 1, "the four rune title is dropped")

	nifty := batch.Records[0]
	assert.Equal(t, "ET Markets", nifty.Source)
	assert.Equal(t, "Nifty & Sensex closed at fresh highs.", nifty.Description)
	assert.Equal(t, "https://economictimes.example.com/markets/nifty-record", nifty.URL)
	assert.Equal(t, time.Date(2024, 3, 5, 10, 35, 0, 0, time.UTC), nifty.PublishedAt)
	assert.Equal(t, CategoryStocks, nifty.Category)

	inflows := batch.Records[1]
	assert.Equal(t, fixedNow, inflows.PublishedAt, "unparsable pubDate becomes now")
}

func TestNormalizeFeed_Atom(t *testing.T) {
	raw := testsupport.LoadFixture(t, testsupport.FixturePath("crypto_atom.xml"))

	batch, err := NormalizeFeed(testOptions(CategoryCrypto))(raw)
	require.NoError(t, err)
	require.Len(t, batch.Records, 2)
	assert.Empty(t, batch.Rejected)

	btc := batch.Records[0]
	assert.Equal(t, "Crypto Desk", btc.Source)
	assert.Equal(t, "https://crypto.example.com/btc-68k", btc.URL)
	assert.Equal(t, time.Date(2024, 3, 5, 11, 30, 0, 0, time.UTC), btc.PublishedAt, "updated is used without published")
	assert.Equal(t, "Spot ETF demand keeps lifting prices.", btc.Description)

	eth := batch.Records[1]
	assert.Equal(t, time.Date(2024, 3, 5, 11, 45, 0, 0, time.UTC), eth.PublishedAt)
	assert.Equal(t, "Ether rose 4%.", eth.Description)
}

func TestNormalizeFeed_UntitledFeedUsesFallback(t *testing.T) {
	raw := []byte(`<?xml version="1.0"?><rss version="2.0"><channel>
		<item><title>Untitled channel headline</title><link>https://feeds.example.com/a</link></item>
	</channel></rss>`)

	batch, err := NormalizeFeed(testOptions(CategoryAll))(raw)
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, "Fallback Wire", batch.Records[0].Source)
}

func TestParseFeed_Invalid(t *testing.T) {
	for name, raw := range map[string][]byte{
		"empty":   nil,
		"blank":   []byte("   \n"),
		"garbage": []byte("this is not a feed"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFeed(raw)
			assert.Error(t, err)
		})
	}
}

func TestItemLinkFallsBackToGUID(t *testing.T) {
	raw := []byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Wire</title>
		<item><title>Headline with guid only</title><guid>https://feeds.example.com/guid-only</guid></item>
		<item><title>Headline with opaque guid</title><guid isPermaLink="false">tag-1234</guid></item>
	</channel></rss>`)

	batch, err := NormalizeFeed(testOptions(CategoryAll))(raw)
	require.NoError(t, err)

	require.Len(t, batch.Records, 1)
	assert.Equal(t, "https://feeds.example.com/guid-only", batch.Records[0].URL)
	assert.Len(t, batch.Rejected, 1, "no usable link")
}
