package watchlist

import (
	"reflect"
	"strings"
	"testing"
)

func parse(t *testing.T, text string) *Watchlist {
	t.Helper()
	w, err := Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return w
}

func TestParseGroups(t *testing.T) {
	w := parse(t, `
ai
chatbot
+release
!rumor

quantum
`)
	if len(w.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(w.Groups))
	}

	g := w.Groups[0]
	if !reflect.DeepEqual(g.Plain, []string{"ai", "chatbot"}) {
		t.Errorf("unexpected plain terms: %v", g.Plain)
	}
	if !reflect.DeepEqual(g.Required, []string{"release"}) {
		t.Errorf("unexpected required terms: %v", g.Required)
	}
	if !reflect.DeepEqual(g.Excluded, []string{"rumor"}) {
		t.Errorf("unexpected excluded terms: %v", g.Excluded)
	}
}

func TestParseSkipsComments(t *testing.T) {
	w := parse(t, `# curated topics
ai
# not a term
+release
`)
	if len(w.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(w.Groups))
	}
	g := w.Groups[0]
	if !reflect.DeepEqual(g.Plain, []string{"ai"}) || !reflect.DeepEqual(g.Required, []string{"release"}) {
		t.Errorf("comments leaked into terms: %+v", g)
	}
}

func TestMatchGroupSemantics(t *testing.T) {
	w := parse(t, `
ai
chatbot
+release
!rumor
`)

	tests := []struct {
		title string
		want  bool
	}{
		{"New AI model release announced", true},
		{"Chatbot release schedule", true},
		{"AI takes over", false},                  // required term absent
		{"Release day arrives", false},            // no plain alternative present
		{"AI release rumor spreads", false},       // excluded term present
		{"Completely unrelated headline", false},
	}
	for _, tt := range tests {
		got, _ := w.Match(tt.title)
		if got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestMatchCaseInsensitive(t *testing.T) {
	w := parse(t, "OpenAI\n")
	if ok, _ := w.Match("openai ships something"); !ok {
		t.Error("expected case-insensitive match")
	}
	if ok, _ := w.Match("OPENAI SHIPS SOMETHING"); !ok {
		t.Error("expected case-insensitive match on upper title")
	}
}

func TestMatchedTerms(t *testing.T) {
	w := parse(t, `
ai
ml
+launch
`)
	ok, terms := w.Match("AI and ML launch together")
	if !ok {
		t.Fatal("expected a match")
	}
	if !reflect.DeepEqual(terms, []string{"ai", "launch", "ml"}) {
		t.Errorf("expected sorted union of hits, got %v", terms)
	}

	_, terms = w.Match("AI launch only")
	if !reflect.DeepEqual(terms, []string{"ai", "launch"}) {
		t.Errorf("expected only present plain terms, got %v", terms)
	}
}

func TestMatchMultipleGroupsUnion(t *testing.T) {
	w := parse(t, `
ai

chip
`)
	ok, terms := w.Match("ai chip breakthrough")
	if !ok {
		t.Fatal("expected a match")
	}
	if !reflect.DeepEqual(terms, []string{"ai", "chip"}) {
		t.Errorf("expected union across groups, got %v", terms)
	}
}

func TestEmptyWatchlistPassThrough(t *testing.T) {
	w := &Watchlist{}
	ok, terms := w.Match("anything at all")
	if !ok {
		t.Error("empty watchlist should match everything")
	}
	if len(terms) != 0 {
		t.Errorf("expected no terms, got %v", terms)
	}
}

func TestRequiredOnlyGroup(t *testing.T) {
	w := parse(t, "+ai\n+regulation\n")
	if ok, _ := w.Match("new ai regulation drafted"); !ok {
		t.Error("expected required-only group to match when all present")
	}
	if ok, _ := w.Match("new ai model"); ok {
		t.Error("expected no match with one required term missing")
	}
}

func TestLoadFileEmptyPath(t *testing.T) {
	w, err := LoadFile("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Empty() {
		t.Error("expected empty watchlist for empty path")
	}
}
