package aggregate

import (
	"reflect"
	"testing"

	"github.com/TobiSchelling/trendwatch/internal/source"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  plain title  ", "plain title"},
		{"line\nbreak", "line break"},
		{"carriage\r\nreturn", "carriage return"},
		{"collapse    runs\t\tof space", "collapse runs of space"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMergeDuplicateWithinSource(t *testing.T) {
	results := map[string][]source.RawItem{
		"weibo": {
			{Title: "Same story", Rank: 2, URL: "https://first"},
			{Title: "Same  story", Rank: 9, URL: "https://second"},
		},
	}

	merged := Merge(results, []string{"weibo"})
	if len(merged) != 1 {
		t.Fatalf("expected 1 merged item, got %d", len(merged))
	}

	it := merged[0]
	if !reflect.DeepEqual(it.Ranks["weibo"], []int{2, 9}) {
		t.Errorf("expected ranks [2 9] in encounter order, got %v", it.Ranks["weibo"])
	}
	if it.URL != "https://first" {
		t.Errorf("expected first-seen URL to win, got %q", it.URL)
	}
}

func TestMergeAcrossSources(t *testing.T) {
	h1, h2 := 100.0, 250.0
	results := map[string][]source.RawItem{
		"weibo": {{Title: "Shared topic", Rank: 3, Hotness: &h1}},
		"zhihu": {{Title: "Shared topic", Rank: 7, Hotness: &h2}},
		"baidu": {{Title: "Solo topic", Rank: 1}},
	}

	merged := Merge(results, []string{"weibo", "zhihu", "baidu"})
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged items, got %d", len(merged))
	}

	shared := merged[0]
	if shared.Title != "Shared topic" {
		t.Fatalf("expected first-appearance order, got %q first", shared.Title)
	}
	if shared.SourceCount() != 2 {
		t.Errorf("expected 2 contributing sources, got %d", shared.SourceCount())
	}
	if shared.BestRank() != 3 {
		t.Errorf("expected best rank 3, got %d", shared.BestRank())
	}
	if shared.Hotness == nil || *shared.Hotness != 250.0 {
		t.Error("expected max hotness 250 to be kept")
	}

	if merged[1].BestRank() != 1 || merged[1].SourceCount() != 1 {
		t.Errorf("unexpected solo item: %+v", merged[1])
	}
}

func TestMergeSkipsMissingSources(t *testing.T) {
	results := map[string][]source.RawItem{
		"zhihu": {{Title: "A", Rank: 1}},
	}
	// weibo failed this cycle and is absent from results.
	merged := Merge(results, []string{"weibo", "zhihu"})
	if len(merged) != 1 {
		t.Fatalf("expected 1 item, got %d", len(merged))
	}
}

func TestMergeEmptyTitleDropped(t *testing.T) {
	results := map[string][]source.RawItem{
		"weibo": {{Title: "   ", Rank: 1}, {Title: "Kept", Rank: 2}},
	}
	merged := Merge(results, []string{"weibo"})
	if len(merged) != 1 || merged[0].Title != "Kept" {
		t.Fatalf("expected only the titled item, got %+v", merged)
	}
}
