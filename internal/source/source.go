// Package source acquires raw trending listings from configured
// providers: a newsnow-compatible JSON API and optional RSS feeds.
// Acquisition is deliberately sequential with jittered pacing between
// sources; per-source failures are collected, never fatal to a run.
package source

import "fmt"

// Source is one external ranked-listing provider.
type Source struct {
	ID   string
	Name string
}

// DisplayName returns the human-readable name, falling back to the id.
func (s Source) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// RawItem is one listing entry as returned by a source. Rank is the
// 1-based position in the listing.
type RawItem struct {
	Title     string
	Rank      int
	URL       string
	MobileURL string
	Hotness   *float64
}

// statusError marks a payload whose status field is outside the
// accepted set; it is retryable like any transport failure.
type statusError struct {
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected response status %q", e.status)
}
