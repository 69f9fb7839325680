package domain

import (
	"math"
	"time"
)

// AggregateRating is the shared, cross-user rating for one piece of
// external content. Keyed by external catalog id (item id fallback).
type AggregateRating struct {
	TotalScore      float64   `json:"totalScore"`
	NumberOfRatings int       `json:"numberOfRatings"`
	AverageRating   float64   `json:"averageRating"`
	LastUpdated     time.Time `json:"lastUpdated"`
	Title           string    `json:"title"`
	MediaType       MediaKind `json:"mediaType"`
	ExternalID      string    `json:"externalId,omitempty"`
}

// NewAggregateRating creates a fresh single-contributor record.
func NewAggregateRating(item *RatedItem, score float64, now time.Time) *AggregateRating {
	return &AggregateRating{
		TotalScore:      score,
		NumberOfRatings: 1,
		AverageRating:   Round1(score),
		LastUpdated:     now,
		Title:           item.Title,
		MediaType:       item.MediaType,
		ExternalID:      item.ExternalID,
	}
}

// Corrupt reports whether the stored record is unusable for incremental
// updates: a negative contributor count, or a non-finite total or average.
// Corrupt records are overwritten with a fresh single-contributor record
// rather than propagated.
func (a *AggregateRating) Corrupt() bool {
	if a.NumberOfRatings < 0 {
		return true
	}
	return !IsFiniteScore(a.TotalScore) || !IsFiniteScore(a.AverageRating)
}

// Recompute refreshes the stored average from total and count.
func (a *AggregateRating) Recompute(now time.Time) {
	if a.NumberOfRatings > 0 {
		a.AverageRating = Round1(a.TotalScore / float64(a.NumberOfRatings))
	} else {
		a.AverageRating = 0
	}
	a.LastUpdated = now
}

// IsFiniteScore reports whether v is a usable score value.
func IsFiniteScore(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Round1 rounds to one decimal place. Averages are always rounded before
// storage so floating-point drift never becomes visible across many
// contributors.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
