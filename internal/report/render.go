package report

import (
	"fmt"
	"strings"
)

// Subject is the one-line headline used by notifiers.
func (r *Report) Subject() string {
	return fmt.Sprintf("trendwatch %s: %d items (%s)",
		r.Type, len(r.Items), r.GeneratedAt.Format("01-02 15:04"))
}

// RenderMarkdown renders the report body. The same markdown goes to
// notifiers and into the report store for later browsing.
func (r *Report) RenderMarkdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Type)
	fmt.Fprintf(&b, "Generated %s (Beijing time)\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))

	if len(r.Items) == 0 {
		b.WriteString("No matched items.\n")
		return b.String()
	}

	for i, it := range r.Items {
		writeItem(&b, i+1, it)
	}

	// The new-items section is omitted when it would repeat the main
	// list (incremental reports are all new by definition).
	if len(r.NewItems) > 0 && r.Mode != ModeIncremental {
		b.WriteString("\n## New today\n\n")
		for i, it := range r.NewItems {
			writeItem(&b, i+1, it)
		}
	}

	return b.String()
}

func writeItem(b *strings.Builder, n int, it Item) {
	fmt.Fprintf(b, "%d. **%s**", n, it.Title)

	var meta []string
	meta = append(meta, fmt.Sprintf("score %.3f", it.Score))
	if it.BestRank > 0 {
		meta = append(meta, fmt.Sprintf("rank %d", it.BestRank))
	}
	if it.SourceCount > 1 {
		meta = append(meta, fmt.Sprintf("%d sources", it.SourceCount))
	}
	if len(it.MatchedTerms) > 0 {
		meta = append(meta, "terms: "+strings.Join(it.MatchedTerms, ", "))
	}
	fmt.Fprintf(b, " (%s)\n", strings.Join(meta, ", "))

	if link := it.link(); link != "" {
		fmt.Fprintf(b, "   %s\n", link)
	}
	if it.Excerpt != "" {
		fmt.Fprintf(b, "   > %s\n", it.Excerpt)
	}
}

func (it Item) link() string {
	if it.MobileURL != "" {
		return it.MobileURL
	}
	return it.URL
}
