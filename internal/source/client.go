package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const minPacingMs = 50

// Client fetches trending listings from a newsnow-compatible API.
type Client struct {
	baseURL    string
	intervalMs int
	backoff    Backoff
	client     *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a listing client. rps > 0 adds a hard cap on
// request rate on top of the inter-source pacing; 0 disables it.
func NewClient(baseURL string, intervalMs int, backoff Backoff, rps float64) *Client {
	c := &Client{
		baseURL:    baseURL,
		intervalMs: intervalMs,
		backoff:    backoff,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

type listingPayload struct {
	Status string        `json:"status"`
	Items  []listingItem `json:"items"`
}

type listingItem struct {
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	MobileURL string   `json:"mobileUrl"`
	Hotness   *float64 `json:"hotness"`
}

// FetchOne fetches a single source's listing, retrying per the backoff
// policy. Transport errors, non-2xx responses, undecodable bodies, and
// payload statuses outside {success, cache} are all retryable; after
// the retries are exhausted the error is permanent for this cycle.
func (c *Client) FetchOne(ctx context.Context, src Source) ([]RawItem, error) {
	var lastErr error
	for attempt := 0; attempt <= c.backoff.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff.Wait(attempt)
			log.Printf("fetch %s failed: %v; retrying in %.2fs", src.ID, lastErr, wait.Seconds())
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		items, err := c.fetch(ctx, src)
		if err == nil {
			return items, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("fetching %s: %w", src.ID, lastErr)
}

func (c *Client) fetch(ctx context.Context, src Source) ([]RawItem, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u := fmt.Sprintf("%s/api/s?id=%s&latest", c.baseURL, url.QueryEscape(src.ID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var payload listingPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	// "success" is fresh data, "cache" is an acceptable stale copy;
	// anything else means the upstream aggregator itself failed.
	if payload.Status != "success" && payload.Status != "cache" {
		return nil, &statusError{status: payload.Status}
	}

	items := make([]RawItem, 0, len(payload.Items))
	for i, it := range payload.Items {
		if it.Title == "" {
			log.Printf("skipping %s item at position %d: missing title", src.ID, i+1)
			continue
		}
		items = append(items, RawItem{
			Title:     it.Title,
			Rank:      i + 1,
			URL:       it.URL,
			MobileURL: it.MobileURL,
			Hotness:   it.Hotness,
		})
	}
	return items, nil
}

// FetchAll fetches every source in order, pausing between sources (not
// after the last) to stay under upstream rate limits. Failed source ids
// are returned alongside the successful results.
func (c *Client) FetchAll(ctx context.Context, sources []Source) (map[string][]RawItem, []string) {
	results := make(map[string][]RawItem)
	var failedIDs []string

	for i, src := range sources {
		if ctx.Err() != nil {
			// Cancellation: remaining sources count as failed, no
			// further network calls are made.
			for _, rest := range sources[i:] {
				failedIDs = append(failedIDs, rest.ID)
			}
			break
		}

		items, err := c.FetchOne(ctx, src)
		if err != nil {
			log.Printf("source %s failed permanently: %v", src.ID, err)
			failedIDs = append(failedIDs, src.ID)
		} else {
			results[src.ID] = items
			log.Printf("fetched %d items from %s", len(items), src.DisplayName())
		}

		if i < len(sources)-1 {
			if err := sleep(ctx, pacingDelay(c.intervalMs)); err != nil {
				continue // loop once more to drain remaining into failedIDs
			}
		}
	}

	return results, failedIDs
}

// pacingDelay jitters the configured inter-source interval by
// uniform(-10,20) ms with a 50ms floor.
func pacingDelay(intervalMs int) time.Duration {
	jittered := intervalMs + rand.Intn(31) - 10
	if jittered < minPacingMs {
		jittered = minPacingMs
	}
	return time.Duration(jittered) * time.Millisecond
}
