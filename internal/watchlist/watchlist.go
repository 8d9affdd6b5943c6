// Package watchlist decides which aggregated items are worth
// reporting, based on a curated keyword file.
//
// The file format follows the original frequency-words convention:
// groups are separated by blank lines; "#" lines are comments; within
// a group a "+word" line
// must appear in the title, a "!word" line must not, and bare words
// are alternatives of which at least one must appear (when the group
// has any). All matching is case-insensitive substring.
package watchlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Group is one independent match rule.
type Group struct {
	Plain    []string
	Required []string
	Excluded []string
}

// Watchlist is the full set of match groups. An empty watchlist is
// pass-through: every item matches with no terms.
type Watchlist struct {
	Groups []Group
}

// Empty reports whether the watchlist has no groups.
func (w *Watchlist) Empty() bool {
	return w == nil || len(w.Groups) == 0
}

// Match reports whether the title satisfies at least one group. The
// returned terms are the union over satisfied groups of required
// terms plus the plain terms actually present, sorted for stable
// output.
func (w *Watchlist) Match(title string) (bool, []string) {
	if w.Empty() {
		return true, nil
	}

	lower := strings.ToLower(title)
	matched := false
	termSet := make(map[string]struct{})

	for _, g := range w.Groups {
		if !g.matches(lower) {
			continue
		}
		matched = true
		for _, term := range g.Required {
			termSet[term] = struct{}{}
		}
		for _, term := range g.Plain {
			if strings.Contains(lower, strings.ToLower(term)) {
				termSet[term] = struct{}{}
			}
		}
	}

	if !matched {
		return false, nil
	}
	terms := make([]string, 0, len(termSet))
	for term := range termSet {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return true, terms
}

func (g *Group) matches(lowerTitle string) bool {
	for _, term := range g.Excluded {
		if strings.Contains(lowerTitle, strings.ToLower(term)) {
			return false
		}
	}
	for _, term := range g.Required {
		if !strings.Contains(lowerTitle, strings.ToLower(term)) {
			return false
		}
	}
	if len(g.Plain) == 0 {
		return len(g.Required) > 0
	}
	for _, term := range g.Plain {
		if strings.Contains(lowerTitle, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// LoadFile reads a watchlist file. An empty path yields an empty
// (pass-through) watchlist.
func LoadFile(path string) (*Watchlist, error) {
	if path == "" {
		return &Watchlist{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening watchlist: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads groups from r.
func Parse(r io.Reader) (*Watchlist, error) {
	w := &Watchlist{}
	var current Group

	flush := func() {
		if len(current.Plain)+len(current.Required)+len(current.Excluded) > 0 {
			w.Groups = append(w.Groups, current)
		}
		current = Group{}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "+"):
			if term := strings.TrimSpace(line[1:]); term != "" {
				current.Required = append(current.Required, term)
			}
		case strings.HasPrefix(line, "!"):
			if term := strings.TrimSpace(line[1:]); term != "" {
				current.Excluded = append(current.Excluded, term)
			}
		default:
			current.Plain = append(current.Plain, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading watchlist: %w", err)
	}
	flush()
	return w, nil
}
