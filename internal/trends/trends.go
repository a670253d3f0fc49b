// Package trends extracts market trend labels from music-industry news
// feeds. The labels seed the simulation's market model so a fresh run
// opens on whatever the industry is actually talking about; feeds being
// unreachable just falls back to the model's built-in defaults.
package trends

import (
	"context"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// maxTrends caps how many labels a fetch returns; the market model carries
// a short rotating list.
const maxTrends = 5

// DefaultFeeds are the industry feeds polled when none are configured.
var DefaultFeeds = []string{
	"https://www.musicbusinessworldwide.com/feed/",
	"https://www.hypebot.com/hypebot/atom.xml",
	"https://musically.com/feed/",
}

// vocabulary maps headline phrases to the snake_case trend labels the
// market model understands. First match per phrase wins; scan order is
// fixed so a given feed body always yields the same labels.
var vocabulary = []struct {
	phrase string
	label  string
}{
	{"ai master", "ai_mastering"},
	{"ai-master", "ai_mastering"},
	{"short-form", "short_form_video"},
	{"short form", "short_form_video"},
	{"tiktok", "short_form_video"},
	{"lo-fi", "lofi_beats"},
	{"lofi", "lofi_beats"},
	{"vinyl", "vinyl_revival"},
	{"afrobeats", "afrobeats_crossover"},
	{"hyperpop", "hyperpop"},
	{"ambient", "ambient_focus"},
	{"catalog sale", "catalog_acquisitions"},
	{"catalog acquisition", "catalog_acquisitions"},
	{"superfan", "superfan_monetization"},
	{"spatial audio", "spatial_audio"},
	{"dolby atmos", "spatial_audio"},
	{"amapiano", "amapiano_wave"},
	{"phonk", "phonk_surge"},
}

// Fetcher polls RSS/Atom feeds and distills them into trend labels.
type Fetcher struct {
	parser *gofeed.Parser
	feeds  []string
	log    zerolog.Logger
}

// NewFetcher builds a fetcher over the given feed URLs; empty uses
// DefaultFeeds.
func NewFetcher(feeds []string, log zerolog.Logger) *Fetcher {
	if len(feeds) == 0 {
		feeds = DefaultFeeds
	}
	return &Fetcher{
		parser: gofeed.NewParser(),
		feeds:  feeds,
		log:    log,
	}
}

// FetchTrends pulls every configured feed and returns up to maxTrends
// labels in first-seen order. Unreachable feeds are logged and skipped;
// an empty result means the caller should keep its defaults.
func (f *Fetcher) FetchTrends(ctx context.Context) []string {
	var labels []string
	seen := make(map[string]bool)

	for _, url := range f.feeds {
		feed, err := f.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			f.log.Warn().Str("feed", url).Err(err).Msg("trend feed unreachable, skipping")
			continue
		}
		for _, label := range ExtractLabels(feed) {
			if seen[label] {
				continue
			}
			seen[label] = true
			labels = append(labels, label)
			if len(labels) >= maxTrends {
				return labels
			}
		}
	}
	return labels
}

// ExtractLabels scans one parsed feed's titles and categories against the
// vocabulary.
func ExtractLabels(feed *gofeed.Feed) []string {
	var labels []string
	seen := make(map[string]bool)

	match := func(text string) {
		lower := strings.ToLower(text)
		for _, v := range vocabulary {
			if seen[v.label] || !strings.Contains(lower, v.phrase) {
				continue
			}
			seen[v.label] = true
			labels = append(labels, v.label)
		}
	}

	for _, item := range feed.Items {
		match(item.Title)
		for _, cat := range item.Categories {
			match(cat)
		}
	}
	return labels
}
