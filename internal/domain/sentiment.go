package domain

// Sentiment is the user-assigned preference tier for a rated item.
// The tier decides which score band the item lives in and which
// sub-sequence of the collection it is ranked within.
type Sentiment string

// Sentiment tiers, in collection order (best first).
const (
	SentimentLiked    Sentiment = "liked"
	SentimentFine     Sentiment = "fine"
	SentimentDisliked Sentiment = "disliked"
)

// SentimentOrder is the fixed order in which sentiment sub-sequences are
// concatenated to form the full collection. This order is load-bearing:
// insertion, recalculation and the score inverse mapping all rely on it.
var SentimentOrder = []Sentiment{SentimentLiked, SentimentFine, SentimentDisliked}

// Valid reports whether s is one of the three known tiers.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentLiked, SentimentFine, SentimentDisliked:
		return true
	}
	return false
}

// Band is the fixed numeric score range associated with a sentiment tier.
type Band struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Mid returns the midpoint of the band.
func (b Band) Mid() float64 { return (b.Min + b.Max) / 2 }

// Half returns half the width of the band.
func (b Band) Half() float64 { return (b.Max - b.Min) / 2 }

// Contains reports whether score falls inside the band (inclusive).
func (b Band) Contains(score float64) bool {
	return score >= b.Min && score <= b.Max
}

// The three bands are contiguous and non-overlapping over [0, 10].
var sentimentBands = map[Sentiment]Band{
	SentimentDisliked: {Min: 0.0, Max: 3.9},
	SentimentFine:     {Min: 4.0, Max: 6.8},
	SentimentLiked:    {Min: 6.9, Max: 10.0},
}

// BandFor returns the score band for a sentiment tier.
// Unknown tiers map to the Fine band so a bad value can never
// push a score outside [0, 10].
func BandFor(s Sentiment) Band {
	if b, ok := sentimentBands[s]; ok {
		return b
	}
	return sentimentBands[SentimentFine]
}

// SentimentForScore is the inverse mapping from a score to its tier.
// It must agree with BandFor: a recalculated score always maps back to
// the sentiment that produced it.
func SentimentForScore(score float64) Sentiment {
	switch {
	case score >= sentimentBands[SentimentLiked].Min:
		return SentimentLiked
	case score >= sentimentBands[SentimentFine].Min:
		return SentimentFine
	default:
		return SentimentDisliked
	}
}
