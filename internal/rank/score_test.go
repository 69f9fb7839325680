package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelrankapp/reelrank-server/internal/domain"
)

func TestScoreAt_SingleItemSitsAtMidpoint(t *testing.T) {
	for _, s := range domain.SentimentOrder {
		b := domain.BandFor(s)
		assert.InDelta(t, b.Mid(), ScoreAt(b, 1, 0), 1e-9, "sentiment %s", s)
	}
}

func TestScoreAt_LikedBandOfFour(t *testing.T) {
	b := domain.BandFor(domain.SentimentLiked)

	got := Scores(b, 4)
	want := []float64{10.0, 8.9666666667, 7.9333333333, 6.9}

	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "rank %d", i)
	}
}

func TestScoreAt_SpansBandExactly(t *testing.T) {
	for _, s := range domain.SentimentOrder {
		b := domain.BandFor(s)
		for _, n := range []int{3, 5, 10, 100} {
			scores := Scores(b, n)
			assert.InDelta(t, b.Max, scores[0], 1e-9)
			assert.InDelta(t, b.Min, scores[n-1], 1e-9)

			// Strictly decreasing, every score inside the band.
			for i := 1; i < n; i++ {
				assert.Less(t, scores[i], scores[i-1])
				assert.True(t, b.Contains(scores[i]), "score %f outside band %v", scores[i], b)
			}
		}
	}
}

func TestScoreAt_PairStraddlesMidpoint(t *testing.T) {
	b := domain.BandFor(domain.SentimentDisliked)

	// With two items the centre is 0.5 and the step stays at half width,
	// so the pair sits a quarter-band either side of the midpoint.
	assert.InDelta(t, 2.925, ScoreAt(b, 2, 0), 1e-9)
	assert.InDelta(t, 0.975, ScoreAt(b, 2, 1), 1e-9)
}

func TestScoreAt_Idempotent(t *testing.T) {
	b := domain.BandFor(domain.SentimentFine)
	first := Scores(b, 7)
	second := Scores(b, 7)
	assert.Equal(t, first, second)
}

func TestScoreAt_MapsBackToSentiment(t *testing.T) {
	for _, s := range domain.SentimentOrder {
		b := domain.BandFor(s)
		for _, score := range Scores(b, 9) {
			assert.Equal(t, s, domain.SentimentForScore(score), "score %f", score)
		}
	}
}

func TestProvisional_UsesPostInsertSize(t *testing.T) {
	b := domain.BandFor(domain.SentimentLiked)

	// Placing at the top of a band of three previews the band-of-four top.
	assert.InDelta(t, ScoreAt(b, 4, 0), Provisional(b, 3, 0), 1e-9)

	// Placing into an empty band previews the midpoint.
	assert.InDelta(t, b.Mid(), Provisional(b, 0, 0), 1e-9)
}
