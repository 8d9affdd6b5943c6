package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func fastBackoff(maxRetries int) Backoff {
	return Backoff{
		MaxRetries: maxRetries,
		MinWait:    time.Millisecond,
		MaxWait:    2 * time.Millisecond,
		Step:       time.Millisecond,
	}
}

func TestFetchOneSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "weibo" {
			t.Errorf("expected id=weibo, got %q", got)
		}
		w.Write([]byte(`{"status":"success","items":[
			{"title":"First story","url":"https://a","mobileUrl":"https://m.a"},
			{"title":"Second story","url":"https://b","hotness":12345}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, fastBackoff(0), 0)
	items, err := c.FetchOne(context.Background(), Source{ID: "weibo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Rank != 1 || items[1].Rank != 2 {
		t.Errorf("expected ranks 1,2 got %d,%d", items[0].Rank, items[1].Rank)
	}
	if items[1].Hotness == nil || *items[1].Hotness != 12345 {
		t.Error("expected hotness to be decoded")
	}
}

func TestFetchOneAcceptsCacheStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"cache","items":[{"title":"Stale but fine"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, fastBackoff(0), 0)
	items, err := c.FetchOne(context.Background(), Source{ID: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}
}

func TestFetchOneRetriesBadStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Write([]byte(`{"status":"error","items":[]}`))
			return
		}
		w.Write([]byte(`{"status":"success","items":[{"title":"Recovered"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, fastBackoff(2), 0)
	items, err := c.FetchOne(context.Background(), Source{ID: "x"})
	if err != nil {
		t.Fatalf("expected recovery on third attempt, got %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 requests, got %d", got)
	}
}

func TestFetchOneExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, fastBackoff(2), 0)
	_, err := c.FetchOne(context.Background(), Source{ID: "x"})
	if err == nil {
		t.Fatal("expected a permanent error")
	}
	// maxRetries+1 total attempts
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 requests, got %d", got)
	}
}

func TestFetchOneMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, fastBackoff(1), 0)
	if _, err := c.FetchOne(context.Background(), Source{ID: "x"}); err == nil {
		t.Fatal("expected error for undecodable body")
	}
}

func TestFetchOneSkipsUntitledItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","items":[
			{"title":"Good"},
			{"url":"https://no-title"},
			{"title":"Also good"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, fastBackoff(0), 0)
	items, err := c.FetchOne(context.Background(), Source{ID: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected untitled item skipped, got %d items", len(items))
	}
	// An untitled item still occupies a listing position.
	if items[1].Rank != 3 {
		t.Errorf("expected third position to keep rank 3, got %d", items[1].Rank)
	}
}

func TestFetchAllCollectsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id") {
		case "good":
			w.Write([]byte(`{"status":"success","items":[{"title":"X"}]}`))
		default:
			http.Error(w, "boom", http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, fastBackoff(1), 0)
	results, failed := c.FetchAll(context.Background(), []Source{
		{ID: "bad1"}, {ID: "good"}, {ID: "bad2"},
	})

	if len(results) != 1 {
		t.Errorf("expected 1 successful source, got %d", len(results))
	}
	if len(failed) != 2 || failed[0] != "bad1" || failed[1] != "bad2" {
		t.Errorf("expected failed ids [bad1 bad2], got %v", failed)
	}
}

func TestFetchAllCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no network call expected after cancellation")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, 0, fastBackoff(0), 0)
	results, failed := c.FetchAll(ctx, []Source{{ID: "a"}, {ID: "b"}})
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	if len(failed) != 2 {
		t.Errorf("expected both sources marked failed, got %v", failed)
	}
}

func TestPacingDelayBounds(t *testing.T) {
	for i := 0; i < 200; i++ {
		d := pacingDelay(1000)
		if d < 990*time.Millisecond || d > 1020*time.Millisecond {
			t.Fatalf("pacing delay %v outside [990ms, 1020ms]", d)
		}
	}
	// Small intervals are floored at 50ms.
	for i := 0; i < 200; i++ {
		if d := pacingDelay(0); d < 50*time.Millisecond {
			t.Fatalf("expected 50ms floor, got %v", d)
		}
	}
}

func TestBackoffWaitGrowsLinearly(t *testing.T) {
	b := Backoff{MinWait: 3 * time.Second, MaxWait: 5 * time.Second, Step: time.Second}

	for i := 0; i < 100; i++ {
		w1 := b.Wait(1)
		if w1 < 3*time.Second || w1 > 5*time.Second {
			t.Fatalf("retry 1 wait %v outside [3s, 5s]", w1)
		}
		w3 := b.Wait(3)
		if w3 < 5*time.Second || w3 > 9*time.Second {
			t.Fatalf("retry 3 wait %v outside [5s, 9s]", w3)
		}
	}
}
