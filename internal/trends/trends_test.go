package trends

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const newsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Industry Wire</title>
    <item><title>AI mastering tools go mainstream</title></item>
    <item><title>TikTok deal reshapes short-form royalties</title><category>Amapiano</category></item>
    <item><title>Vinyl revival continues into a third year</title></item>
    <item><title>Vinyl pressing plants expand capacity</title></item>
  </channel>
</rss>`

const busyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Everything At Once</title>
    <item><title>AI mastering, lo-fi playlists and vinyl in one week</title></item>
    <item><title>Afrobeats meets hyperpop on TikTok</title></item>
    <item><title>Dolby Atmos mixes for superfan box sets</title></item>
  </channel>
</rss>`

func parseFeed(t *testing.T, xml string) *gofeed.Feed {
	t.Helper()
	feed, err := gofeed.NewParser().ParseString(xml)
	require.NoError(t, err)
	return feed
}

func TestExtractLabels(t *testing.T) {
	labels := ExtractLabels(parseFeed(t, newsFeed))

	// First-seen order across titles and categories, duplicates dropped.
	assert.Equal(t, []string{
		"ai_mastering",
		"short_form_video",
		"amapiano_wave",
		"vinyl_revival",
	}, labels)
}

func TestExtractLabelsMatchesPhraseVariants(t *testing.T) {
	feed := parseFeed(t, `<?xml version="1.0"?>
<rss version="2.0"><channel>
  <item><title>Dolby Atmos comes to the bedroom studio</title></item>
  <item><title>Short form video licensing update</title></item>
  <item><title>LO-FI beats to study to</title></item>
</channel></rss>`)

	labels := ExtractLabels(feed)
	assert.Equal(t, []string{"spatial_audio", "short_form_video", "lofi_beats"}, labels)
}

func TestExtractLabelsNoMatches(t *testing.T) {
	feed := parseFeed(t, `<?xml version="1.0"?>
<rss version="2.0"><channel>
  <item><title>Quarterly earnings call transcript</title></item>
</channel></rss>`)

	assert.Empty(t, ExtractLabels(feed))
}

func TestFetchTrendsFromLiveFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(newsFeed))
	}))
	defer srv.Close()

	f := NewFetcher([]string{srv.URL}, zerolog.Nop())
	labels := f.FetchTrends(context.Background())

	assert.Equal(t, []string{
		"ai_mastering",
		"short_form_video",
		"amapiano_wave",
		"vinyl_revival",
	}, labels)
}

func TestFetchTrendsCapsLabels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(busyFeed))
	}))
	defer srv.Close()

	f := NewFetcher([]string{srv.URL}, zerolog.Nop())
	labels := f.FetchTrends(context.Background())

	// busyFeed carries more than five vocabulary hits; the fetch stops at
	// the market model's rotation size.
	assert.Len(t, labels, 5)
	assert.Equal(t, "ai_mastering", labels[0])
}

func TestFetchTrendsSkipsUnreachableFeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(newsFeed))
	}))
	defer srv.Close()

	f := NewFetcher([]string{"http://127.0.0.1:1/down", srv.URL}, zerolog.Nop())
	labels := f.FetchTrends(context.Background())

	assert.Contains(t, labels, "vinyl_revival")
}

func TestNewFetcherDefaultsFeeds(t *testing.T) {
	f := NewFetcher(nil, zerolog.Nop())
	assert.Equal(t, DefaultFeeds, f.feeds)
}
