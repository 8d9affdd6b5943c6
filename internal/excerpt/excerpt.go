// Package excerpt enriches report items with a short plain-text
// excerpt of the linked page, extracted via readability.
package excerpt

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"

	"github.com/TobiSchelling/trendwatch/internal/report"
)

const maxExcerptRunes = 280

// Result holds the results of an excerpt run.
type Result struct {
	Fetched int
	Failed  int
	Skipped int
}

// Fetcher fetches article pages and extracts excerpts.
type Fetcher struct {
	limit  int
	client *http.Client
}

// NewFetcher creates a fetcher that enriches at most limit items per
// report.
func NewFetcher(limit int, timeout time.Duration) *Fetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		limit: limit,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Enrich fills in the Excerpt field for the first limit items that
// carry a URL. A domain that fails once is skipped for the rest of
// the run; listing hosts rarely recover mid-batch.
func (f *Fetcher) Enrich(ctx context.Context, items []report.Item) *Result {
	result := &Result{}
	failedDomains := make(map[string]struct{})

	attempted := 0
	for i := range items {
		if attempted >= f.limit {
			break
		}
		target := items[i].URL
		if target == "" {
			continue
		}
		attempted++

		domain := hostOf(target)
		if _, failed := failedDomains[domain]; failed {
			result.Skipped++
			continue
		}

		text, err := f.fetchExcerpt(ctx, target)
		if err != nil {
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("Excerpt fetch failed for %s, skipping remaining from %s", target, domain)
			continue
		}
		if text == "" {
			result.Failed++
			log.Printf("No extractable content from: %s", target)
			continue
		}

		items[i].Excerpt = text
		result.Fetched++
	}

	return result
}

func (f *Fetcher) fetchExcerpt(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "trendwatch/1.0 (trending topics monitor)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return "", nil
	}

	return clip(article.TextContent), nil
}

// clip collapses whitespace and truncates to the excerpt length at a
// rune boundary.
func clip(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= maxExcerptRunes {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxExcerptRunes])) + "…"
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
