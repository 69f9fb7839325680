// Package rank implements rank placement and score recalculation for
// sentiment-banded collections.
package rank

import (
	"math"

	"github.com/reelrankapp/reelrank-server/internal/domain"
)

// ScoreAt computes the score for the item at rank r in a band holding n
// items. Rank 0 is the top of the band and receives the band maximum when
// the band has more than one item; a single item sits at the band midpoint.
//
// The function is pure: recalculating an unchanged band always reproduces
// the same scores.
func ScoreAt(b domain.Band, n, r int) float64 {
	if n <= 1 {
		return b.Mid()
	}
	centre := float64(n-1) / 2
	step := b.Half() / math.Max(centre, 1)
	return b.Mid() + (centre-float64(r))*step
}

// Scores computes the full score sequence for a band of n items, top rank
// first. The sequence is strictly decreasing for n > 1 and spans exactly
// [b.Min, b.Max].
func Scores(b domain.Band, n int) []float64 {
	out := make([]float64, n)
	for r := range n {
		out[r] = ScoreAt(b, n, r)
	}
	return out
}

// Provisional estimates the score an item would receive if placed at rank r
// among n existing peers, before any recalculation runs. Display only; the
// final score always comes from ScoreAt over the post-insert band.
func Provisional(b domain.Band, n, r int) float64 {
	return ScoreAt(b, n+1, r)
}
