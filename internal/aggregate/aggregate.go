// Package aggregate merges repeated observations of the same title,
// both within a source's listing and across sources, into single
// logical items for one poll cycle.
package aggregate

import (
	"strings"

	"github.com/TobiSchelling/trendwatch/internal/source"
)

// Item is one deduplicated trending topic for the current cycle.
type Item struct {
	// Title is the normalized form used as the merge key.
	Title string
	// Ranks maps source id to that source's rank observations for
	// this title, in encounter order. A title listed twice by one
	// source has two entries there.
	Ranks     map[string][]int
	URL       string
	MobileURL string
	Hotness   *float64
}

// BestRank returns the lowest (best) rank across all sources, or 0
// when no ranks were recorded.
func (it *Item) BestRank() int {
	best := 0
	for _, ranks := range it.Ranks {
		for _, r := range ranks {
			if best == 0 || r < best {
				best = r
			}
		}
	}
	return best
}

// SourceCount returns the number of distinct sources reporting the item.
func (it *Item) SourceCount() int {
	return len(it.Ranks)
}

// NormalizeTitle trims, strips newlines, and collapses whitespace runs.
func NormalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\n", " ")
	title = strings.ReplaceAll(title, "\r", " ")
	return strings.Join(strings.Fields(title), " ")
}

// Merge aggregates the cycle's raw listings into deduplicated items.
// sourceOrder fixes iteration order so the output is deterministic;
// first-seen URL wins, hotness keeps the maximum observation.
func Merge(results map[string][]source.RawItem, sourceOrder []string) []*Item {
	byTitle := make(map[string]*Item)
	var order []string // first-appearance order for stable output

	for _, sourceID := range sourceOrder {
		items, ok := results[sourceID]
		if !ok {
			continue
		}
		for _, raw := range items {
			title := NormalizeTitle(raw.Title)
			if title == "" {
				continue
			}

			it, ok := byTitle[title]
			if !ok {
				it = &Item{Title: title, Ranks: make(map[string][]int)}
				byTitle[title] = it
				order = append(order, title)
			}

			it.Ranks[sourceID] = append(it.Ranks[sourceID], raw.Rank)
			if it.URL == "" {
				it.URL = raw.URL
			}
			if it.MobileURL == "" {
				it.MobileURL = raw.MobileURL
			}
			if raw.Hotness != nil && (it.Hotness == nil || *raw.Hotness > *it.Hotness) {
				h := *raw.Hotness
				it.Hotness = &h
			}
		}
	}

	merged := make([]*Item, 0, len(order))
	for _, title := range order {
		merged = append(merged, byTitle[title])
	}
	return merged
}
