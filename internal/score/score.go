// Package score computes the weighted composite score that orders
// report items: listing rank, cross-source frequency, and
// source-reported hotness, each normalized to [0,1].
package score

import (
	"math"

	"github.com/TobiSchelling/trendwatch/internal/aggregate"
)

// Weights are the non-negative component weights, validated at
// config load.
type Weights struct {
	Rank      float64
	Frequency float64
	Hotness   float64
}

// Item is an aggregated item with its composite score and the
// watchlist terms that matched it.
type Item struct {
	*aggregate.Item
	Score        float64
	MatchedTerms []string
}

// Scorer scores aggregated items with fixed weights. Scoring is
// deterministic given the same weights and inputs.
type Scorer struct {
	weights Weights
}

// New creates a scorer.
func New(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Score computes the weighted composite for one item.
//
// Component curves (each bounded and monotonic):
//   - rank:      1/bestRank, so rank 1 scores 1.0
//   - frequency: n/(n+1) for n distinct sources, rising toward 1
//   - hotness:   log1p(h)/(1+log1p(h)), log-damped since upstream
//     hotness magnitudes vary wildly between platforms
func (s *Scorer) Score(it *aggregate.Item) float64 {
	return s.weights.Rank*rankScore(it.BestRank()) +
		s.weights.Frequency*frequencyScore(it.SourceCount()) +
		s.weights.Hotness*hotnessScore(it.Hotness)
}

// ScoreAll wraps items with their scores and matched terms; callers
// pass matched terms per item in the same order.
func (s *Scorer) ScoreAll(items []*aggregate.Item, terms [][]string) []*Item {
	scored := make([]*Item, len(items))
	for i, it := range items {
		var t []string
		if terms != nil {
			t = terms[i]
		}
		scored[i] = &Item{
			Item:         it,
			Score:        s.Score(it),
			MatchedTerms: t,
		}
	}
	return scored
}

func rankScore(bestRank int) float64 {
	if bestRank < 1 {
		return 0
	}
	return 1 / float64(bestRank)
}

func frequencyScore(sources int) float64 {
	if sources < 1 {
		return 0
	}
	n := float64(sources)
	return n / (n + 1)
}

func hotnessScore(hotness *float64) float64 {
	if hotness == nil || *hotness <= 0 {
		return 0
	}
	l := math.Log1p(*hotness)
	return l / (1 + l)
}
