package excerpt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/TobiSchelling/trendwatch/internal/report"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Test article</title></head>
<body><article>
<h1>Test article</h1>
<p>The first paragraph carries the substance of the story and should
survive extraction. It keeps going for a while so readability treats
it as real content rather than boilerplate navigation text.</p>
<p>A second paragraph adds enough body text that the extractor has
something to work with across multiple blocks of the page.</p>
</article></body></html>`

func TestEnrichFetchesExcerpt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	items := []report.Item{{Title: "Test", URL: srv.URL + "/story"}}
	f := NewFetcher(5, 5*time.Second)
	res := f.Enrich(context.Background(), items)

	if res.Fetched != 1 {
		t.Fatalf("expected 1 fetched, got %+v", res)
	}
	if items[0].Excerpt == "" {
		t.Fatal("expected excerpt to be set")
	}
	if !strings.Contains(items[0].Excerpt, "first paragraph") {
		t.Errorf("unexpected excerpt: %q", items[0].Excerpt)
	}
	if utf8.RuneCountInString(items[0].Excerpt) > maxExcerptRunes+1 {
		t.Errorf("excerpt too long: %d runes", utf8.RuneCountInString(items[0].Excerpt))
	}
}

func TestEnrichRespectsLimit(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	items := []report.Item{
		{URL: srv.URL + "/1"},
		{URL: srv.URL + "/2"},
		{URL: srv.URL + "/3"},
	}
	NewFetcher(2, 5*time.Second).Enrich(context.Background(), items)

	if hits != 2 {
		t.Errorf("expected 2 requests, got %d", hits)
	}
	if items[2].Excerpt != "" {
		t.Error("item beyond limit must stay untouched")
	}
}

func TestEnrichSkipsFailedDomain(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	items := []report.Item{
		{URL: srv.URL + "/1"},
		{URL: srv.URL + "/2"},
	}
	res := NewFetcher(5, 5*time.Second).Enrich(context.Background(), items)

	if hits != 1 {
		t.Errorf("expected the second request to be short-circuited, got %d hits", hits)
	}
	if res.Failed != 1 || res.Skipped != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestEnrichSkipsItemsWithoutURL(t *testing.T) {
	items := []report.Item{{Title: "no link"}}
	res := NewFetcher(5, time.Second).Enrich(context.Background(), items)
	if res.Fetched != 0 || res.Failed != 0 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestClip(t *testing.T) {
	if got := clip("  a\n b\t c  "); got != "a b c" {
		t.Errorf("whitespace collapse: got %q", got)
	}

	long := strings.Repeat("字", 500)
	got := clip(long)
	if utf8.RuneCountInString(got) != maxExcerptRunes+1 {
		t.Errorf("expected %d runes plus ellipsis, got %d", maxExcerptRunes, utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("expected ellipsis suffix")
	}
}
