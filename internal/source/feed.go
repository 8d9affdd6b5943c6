package source

import (
	"context"
	"log"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
)

const maxPerFeed = 30

// FeedConfig is a single RSS/Atom feed serving as a ranked listing;
// list position stands in for rank.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedFetcher adapts RSS/Atom feeds into ranked listings so they
// participate in aggregation like any platform source.
type FeedFetcher struct {
	feeds  []FeedConfig
	parser *gofeed.Parser
}

// NewFeedFetcher creates a feed fetcher.
func NewFeedFetcher(feeds []FeedConfig) *FeedFetcher {
	return &FeedFetcher{feeds: feeds, parser: gofeed.NewParser()}
}

// Sources returns the synthetic Source entries for the configured
// feeds; ids are derived from the feed host when no name is given.
func (f *FeedFetcher) Sources() []Source {
	sources := make([]Source, len(f.feeds))
	for i, fc := range f.feeds {
		sources[i] = Source{ID: feedID(fc), Name: feedName(fc)}
	}
	return sources
}

// FetchAll parses every configured feed. One feed failing does not
// stop the rest; failed ids are returned alongside the results.
func (f *FeedFetcher) FetchAll(ctx context.Context) (map[string][]RawItem, []string) {
	results := make(map[string][]RawItem)
	var failedIDs []string

	for _, fc := range f.feeds {
		id := feedID(fc)
		if ctx.Err() != nil {
			failedIDs = append(failedIDs, id)
			continue
		}

		feed, err := f.parser.ParseURLWithContext(fc.URL, ctx)
		if err != nil {
			log.Printf("failed to parse feed %s: %v", fc.URL, err)
			failedIDs = append(failedIDs, id)
			continue
		}

		var items []RawItem
		for _, item := range feed.Items {
			if len(items) >= maxPerFeed {
				break
			}
			title := strings.TrimSpace(item.Title)
			if title == "" {
				continue
			}
			items = append(items, RawItem{
				Title: title,
				Rank:  len(items) + 1,
				URL:   item.Link,
			})
		}
		results[id] = items
		log.Printf("parsed %d entries from feed %s", len(items), feedName(fc))
	}

	return results, failedIDs
}

func feedID(fc FeedConfig) string {
	if fc.Name != "" {
		return "feed:" + strings.ToLower(strings.ReplaceAll(fc.Name, " ", "-"))
	}
	return "feed:" + feedHost(fc.URL)
}

func feedName(fc FeedConfig) string {
	if fc.Name != "" {
		return fc.Name
	}
	return feedHost(fc.URL)
}

func feedHost(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())
	for _, prefix := range []string{"www.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}
	return host
}
