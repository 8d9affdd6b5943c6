// Package pipeline orchestrates one monitoring cycle: acquire
// listings, aggregate across sources, match the watchlist, score,
// build the mode's report, and hand it to the gate and notifiers.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/TobiSchelling/trendwatch/internal/aggregate"
	"github.com/TobiSchelling/trendwatch/internal/config"
	"github.com/TobiSchelling/trendwatch/internal/excerpt"
	"github.com/TobiSchelling/trendwatch/internal/gate"
	"github.com/TobiSchelling/trendwatch/internal/notify"
	"github.com/TobiSchelling/trendwatch/internal/report"
	"github.com/TobiSchelling/trendwatch/internal/score"
	"github.com/TobiSchelling/trendwatch/internal/source"
	"github.com/TobiSchelling/trendwatch/internal/store"
	"github.com/TobiSchelling/trendwatch/internal/watchlist"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full cycle.
type Result struct {
	DayKey string
	Steps  []StepResult
	Report *report.Report
	Pushed bool
}

// Pipeline runs monitoring cycles against one config and store.
type Pipeline struct {
	cfg        *config.Config
	st         *store.Store
	controller *report.Controller
	client     *source.Client
	feeds      *source.FeedFetcher
	sources    []source.Source
	notifiers  []notify.Notifier
}

// New wires a pipeline from validated config. The notifier list may
// be empty; the cycle then builds and stores reports without pushing.
func New(cfg *config.Config, st *store.Store, notifiers []notify.Notifier) (*Pipeline, error) {
	mode, err := report.ParseMode(cfg.Report.Mode)
	if err != nil {
		return nil, err
	}

	backoff := source.Backoff{
		MaxRetries: cfg.Crawler.MaxRetries,
		MinWait:    time.Duration(cfg.Crawler.MinRetryWait) * time.Second,
		MaxWait:    time.Duration(cfg.Crawler.MaxRetryWait) * time.Second,
	}
	client := source.NewClient(cfg.Crawler.BaseURL, cfg.Crawler.RequestInterval, backoff, cfg.Crawler.RateLimitRPS)

	sources := make([]source.Source, 0, len(cfg.Platforms))
	for _, p := range cfg.Platforms {
		sources = append(sources, source.Source{ID: p.ID, Name: p.Name})
	}

	feedConfigs := make([]source.FeedConfig, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		feedConfigs = append(feedConfigs, source.FeedConfig{URL: f.URL, Name: f.Name})
	}

	return &Pipeline{
		cfg:        cfg,
		st:         st,
		controller: report.NewController(mode, cfg.Report.RankThreshold, st),
		client:     client,
		feeds:      source.NewFeedFetcher(feedConfigs),
		sources:    sources,
		notifiers:  notifiers,
	}, nil
}

// Mode returns the configured report mode.
func (p *Pipeline) Mode() report.Mode {
	return p.controller.Mode()
}

// Run executes one full cycle.
func (p *Pipeline) Run(ctx context.Context) *Result {
	now := store.Now()
	r := &Result{DayKey: store.DayKey(now)}

	// Step 1: Acquire
	results, order, failed := p.acquire(ctx)
	if err := ctx.Err(); err != nil {
		// A cancelled run discards whatever was acquired so far; the
		// registry and the report store never see partial cycles.
		r.Steps = append(r.Steps, StepResult{
			Name: "Acquire",
			Err:  fmt.Errorf("run cancelled, discarding partial results: %w", err),
		})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Acquire",
		Summary: fmt.Sprintf("Fetched %d sources, %d failed %v", len(results), len(failed), failed),
	})

	// Step 2: Aggregate
	items := aggregate.Merge(results, order)
	var raw int
	for _, rs := range results {
		raw += len(rs)
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Aggregate",
		Summary: fmt.Sprintf("%d distinct titles from %d raw items", len(items), raw),
	})

	// Step 3: Match
	matched, terms, step := p.match(items)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	// Step 4: Score
	scorer := score.New(score.Weights{
		Rank:      p.cfg.Weight.Rank,
		Frequency: p.cfg.Weight.Frequency,
		Hotness:   p.cfg.Weight.Hotness,
	})
	scored := scorer.ScoreAll(matched, terms)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Score",
		Summary: fmt.Sprintf("Scored %d matched items", len(scored)),
	})

	// Step 5: Build report
	rep, err := p.controller.BuildCycle(r.DayKey, scored, now)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Build", Err: err})
		return r
	}
	if rep == nil {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Build",
			Summary: fmt.Sprintf("No report this cycle (%s mode)", p.Mode()),
		})
		return r
	}
	r.Report = rep
	r.Steps = append(r.Steps, StepResult{
		Name:    "Build",
		Summary: fmt.Sprintf("%s: %d items, %d new", rep.Type, len(rep.Items), len(rep.NewItems)),
	})

	// Step 6: Excerpts
	if p.cfg.Excerpts.Enabled && len(rep.NewItems) > 0 {
		fetcher := excerpt.NewFetcher(p.cfg.Excerpts.Limit, 0)
		res := fetcher.Enrich(ctx, rep.NewItems)
		r.Steps = append(r.Steps, StepResult{
			Name:    "Excerpts",
			Summary: fmt.Sprintf("Fetched %d excerpts, %d failed", res.Fetched, res.Failed),
		})
	}

	// Step 7: Deliver
	r.Steps = append(r.Steps, p.deliver(ctx, r, rep, now))
	return r
}

// RunDailySummary builds and delivers the day-level summary from the
// registry accumulated by the day's cycles.
func (p *Pipeline) RunDailySummary(ctx context.Context) *Result {
	now := store.Now()
	r := &Result{DayKey: store.DayKey(now)}

	rep, err := p.controller.BuildDailySummary(r.DayKey, now)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Summary", Err: err})
		return r
	}
	r.Report = rep
	r.Steps = append(r.Steps, StepResult{
		Name:    "Summary",
		Summary: fmt.Sprintf("%s: %d items", rep.Type, len(rep.Items)),
	})

	r.Steps = append(r.Steps, p.deliver(ctx, r, rep, now))
	return r
}

// acquire fetches the API platforms and the RSS feeds, merging their
// listings under one source-keyed map.
func (p *Pipeline) acquire(ctx context.Context) (map[string][]source.RawItem, []string, []string) {
	results, failed := p.client.FetchAll(ctx, p.sources)

	order := make([]string, 0, len(p.sources))
	for _, s := range p.sources {
		order = append(order, s.ID)
	}

	feedResults, feedFailed := p.feeds.FetchAll(ctx)
	for id, items := range feedResults {
		results[id] = items
		order = append(order, id)
	}
	failed = append(failed, feedFailed...)

	return results, order, failed
}

// match filters aggregated items through the watchlist. An empty or
// unconfigured watchlist passes everything through unmatched-terms.
func (p *Pipeline) match(items []*aggregate.Item) ([]*aggregate.Item, [][]string, StepResult) {
	wl, err := watchlist.LoadFile(p.cfg.Watchlist.File)
	if err != nil {
		return nil, nil, StepResult{Name: "Match", Err: fmt.Errorf("loading watchlist: %w", err)}
	}

	if wl.Empty() {
		terms := make([][]string, len(items))
		return items, terms, StepResult{
			Name:    "Match",
			Summary: fmt.Sprintf("No watchlist; keeping all %d items", len(items)),
		}
	}

	var matched []*aggregate.Item
	var terms [][]string
	for _, it := range items {
		if ok, hits := wl.Match(it.Title); ok {
			matched = append(matched, it)
			terms = append(terms, hits)
		}
	}
	return matched, terms, StepResult{
		Name:    "Match",
		Summary: fmt.Sprintf("%d of %d items matched %d watchlist groups", len(matched), len(items), len(wl.Groups)),
	}
}

// deliver runs the push gate and, when open, dispatches to the
// notifiers. The rendered report is stored either way so status and
// serve can show it.
func (p *Pipeline) deliver(ctx context.Context, r *Result, rep *report.Report, now time.Time) StepResult {
	// A cancelled run neither stores nor pushes.
	if err := ctx.Err(); err != nil {
		return StepResult{Name: "Deliver", Err: err}
	}

	body := rep.RenderMarkdown()
	if _, err := p.st.InsertReport(r.DayKey, rep.Type, rep.GeneratedAt, body); err != nil {
		log.Printf("Storing report failed: %v", err)
	}

	if !p.cfg.Notification.Enabled || len(p.notifiers) == 0 {
		return StepResult{Name: "Deliver", Summary: "Notifications disabled; report stored only"}
	}

	w := gate.Window{
		Enabled:    p.cfg.Notification.PushWindow.Enabled,
		Start:      p.cfg.Notification.PushWindow.TimeRange.Start,
		End:        p.cfg.Notification.PushWindow.TimeRange.End,
		OncePerDay: p.cfg.Notification.PushWindow.OncePerDay,
	}
	if !gate.Eligible(now, w, p.st.HasPushed(r.DayKey)) {
		return StepResult{Name: "Deliver", Summary: "Push gate closed; report stored only"}
	}

	pushed, err := notify.Dispatch(ctx, p.notifiers, rep.Subject(), body)
	if !pushed {
		return StepResult{Name: "Deliver", Err: fmt.Errorf("all notifiers failed: %w", err)}
	}
	r.Pushed = true

	if err := p.st.RecordPush(r.DayKey, rep.Type, now); err != nil {
		log.Printf("Recording push failed: %v", err)
	}
	return StepResult{Name: "Deliver", Summary: fmt.Sprintf("Pushed %s via %d notifier(s)", rep.Type, len(p.notifiers))}
}
