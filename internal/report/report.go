// Package report turns the cycle's scored matches into report
// payloads according to the configured cadence mode. The only state
// carried between cycles is the day's seen registry, loaded from the
// store at run start and written back at run end; a new day key
// implies a fresh registry.
package report

import (
	"sort"
	"time"

	"github.com/TobiSchelling/trendwatch/internal/score"
	"github.com/TobiSchelling/trendwatch/internal/store"
)

// SeenStore is the day-keyed registry the controller persists across
// cycles. *store.Store satisfies it; tests may substitute their own.
type SeenStore interface {
	SeenTitles(dayKey string) (map[string]store.SeenEntry, error)
	UpsertSeen(dayKey string, entries map[string]store.SeenEntry) error
}

// Item is one entry of a report, decoupled from cycle-internal types
// so day-level summaries can be rebuilt from the registry alone.
type Item struct {
	Title        string
	Score        float64
	BestRank     int
	SourceCount  int
	URL          string
	MobileURL    string
	MatchedTerms []string
	Excerpt      string
}

// Report is the unit handed to the notifier.
type Report struct {
	Mode        Mode
	Type        string
	GeneratedAt time.Time
	Items       []Item
	NewItems    []Item
}

// Controller builds reports for one configured mode.
type Controller struct {
	mode          Mode
	rankThreshold int
	seen          SeenStore
}

// NewController creates a mode controller.
func NewController(mode Mode, rankThreshold int, seen SeenStore) *Controller {
	return &Controller{mode: mode, rankThreshold: rankThreshold, seen: seen}
}

// Mode returns the controller's configured mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// BuildCycle consumes one cycle's matched, scored items. It updates
// the day's registry with every matched title and returns the cycle's
// report, or nil when this cycle produces none (incremental mode with
// nothing new, or daily mode, which only accumulates).
func (c *Controller) BuildCycle(dayKey string, matched []*score.Item, now time.Time) (*Report, error) {
	registry, err := c.seen.SeenTitles(dayKey)
	if err != nil {
		return nil, err
	}

	var newItems []Item
	for _, it := range matched {
		if _, ok := registry[it.Title]; !ok {
			newItems = append(newItems, toReportItem(it))
		}
	}
	sortItems(newItems)

	// Registry update happens regardless of whether a report goes
	// out; "new" means new for the whole day, not since last push.
	if err := c.updateRegistry(dayKey, matched); err != nil {
		return nil, err
	}

	switch c.mode {
	case ModeIncremental:
		if len(newItems) == 0 {
			return nil, nil
		}
		return &Report{
			Mode:        c.mode,
			Type:        c.mode.CycleReportType(),
			GeneratedAt: now,
			Items:       newItems,
			NewItems:    newItems,
		}, nil

	case ModeCurrent:
		var items []Item
		for _, it := range matched {
			if best := it.BestRank(); best >= 1 && best <= c.rankThreshold {
				items = append(items, toReportItem(it))
			}
		}
		sortItems(items)
		return &Report{
			Mode:        c.mode,
			Type:        c.mode.CycleReportType(),
			GeneratedAt: now,
			Items:       items,
			NewItems:    newItems,
		}, nil

	default: // ModeDaily accumulates only
		return nil, nil
	}
}

// BuildDailySummary builds the day-level report from the full day's
// registry accumulation.
func (c *Controller) BuildDailySummary(dayKey string, now time.Time) (*Report, error) {
	registry, err := c.seen.SeenTitles(dayKey)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(registry))
	for title, e := range registry {
		items = append(items, Item{
			Title:    title,
			Score:    e.BestScore,
			BestRank: e.BestRank,
			URL:      e.URL,
		})
	}
	sortItems(items)

	return &Report{
		Mode:        c.mode,
		Type:        c.mode.SummaryReportType(),
		GeneratedAt: now,
		Items:       items,
	}, nil
}

func (c *Controller) updateRegistry(dayKey string, matched []*score.Item) error {
	if len(matched) == 0 {
		return nil
	}
	entries := make(map[string]store.SeenEntry, len(matched))
	for _, it := range matched {
		entries[it.Title] = store.SeenEntry{
			BestScore: it.Score,
			BestRank:  it.BestRank(),
			URL:       it.URL,
		}
	}
	return c.seen.UpsertSeen(dayKey, entries)
}

func toReportItem(it *score.Item) Item {
	return Item{
		Title:        it.Title,
		Score:        it.Score,
		BestRank:     it.BestRank(),
		SourceCount:  it.SourceCount(),
		URL:          it.URL,
		MobileURL:    it.MobileURL,
		MatchedTerms: it.MatchedTerms,
	}
}

// sortItems orders by score descending, then best rank ascending,
// then title, so report order is deterministic.
func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		if items[i].BestRank != items[j].BestRank {
			return items[i].BestRank < items[j].BestRank
		}
		return items[i].Title < items[j].Title
	})
}
