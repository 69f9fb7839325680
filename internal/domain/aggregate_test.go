package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewAggregateRating(t *testing.T) {
	item := rated("a", SentimentLiked, 9.2)
	item.ExternalID = "tt100"
	now := time.Now().UTC()

	agg := NewAggregateRating(item, 9.25, now)
	assert.Equal(t, 9.25, agg.TotalScore)
	assert.Equal(t, 1, agg.NumberOfRatings)
	assert.Equal(t, 9.3, agg.AverageRating, "average is rounded to one decimal")
	assert.Equal(t, "tt100", agg.ExternalID)
	assert.Equal(t, MediaKindMovie, agg.MediaType)
}

func TestAggregateRating_Recompute(t *testing.T) {
	agg := &AggregateRating{TotalScore: 14.0, NumberOfRatings: 2}
	agg.Recompute(time.Now())
	assert.Equal(t, 7.0, agg.AverageRating)

	agg.NumberOfRatings = 0
	agg.Recompute(time.Now())
	assert.Equal(t, 0.0, agg.AverageRating)
}

func TestAggregateRating_Corrupt(t *testing.T) {
	assert.False(t, (&AggregateRating{TotalScore: 7, NumberOfRatings: 1, AverageRating: 7}).Corrupt())
	assert.True(t, (&AggregateRating{NumberOfRatings: -1}).Corrupt())
	assert.True(t, (&AggregateRating{TotalScore: math.NaN(), NumberOfRatings: 1}).Corrupt())
	assert.True(t, (&AggregateRating{AverageRating: math.Inf(1), NumberOfRatings: 1}).Corrupt())
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 7.0, Round1(6.96))
	assert.Equal(t, 6.9, Round1(6.94))
	assert.Equal(t, -1.3, Round1(-1.25))
}

func TestIsFiniteScore(t *testing.T) {
	assert.True(t, IsFiniteScore(0))
	assert.True(t, IsFiniteScore(10))
	assert.False(t, IsFiniteScore(math.NaN()))
	assert.False(t, IsFiniteScore(math.Inf(-1)))
}
