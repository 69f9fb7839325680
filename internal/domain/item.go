package domain

import "time"

// MediaKind distinguishes the two independently ranked collections.
type MediaKind string

// Supported media kinds.
const (
	MediaKindMovie MediaKind = "movie"
	MediaKindShow  MediaKind = "show"
)

// Valid reports whether k is a known media kind.
func (k MediaKind) Valid() bool {
	return k == MediaKindMovie || k == MediaKindShow
}

// Genre is a catalog genre tag attached to a rated item.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RatingState tracks an item through the rating lifecycle. Aggregate
// mutations are only allowed at the finalInsertion and scoreUpdate steps.
type RatingState string

// Rating lifecycle states.
const (
	// StateInitialSentiment: a tier was chosen but placement has not started.
	StateInitialSentiment RatingState = "initialSentiment"
	// StateComparing: pairwise placement is in progress. No aggregate mutation.
	StateComparing RatingState = "comparing"
	// StateFinalInsertion: terminal placement reached; the first-time
	// aggregate contribution happens here, exactly once.
	StateFinalInsertion RatingState = "finalInsertion"
	// StateScoreUpdate: a later recalculation changed the score; the
	// aggregate contribution is replaced. Repeatable.
	StateScoreUpdate RatingState = "scoreUpdate"
)

// CanTransitionTo reports whether moving from s to next is a legal step.
func (s RatingState) CanTransitionTo(next RatingState) bool {
	switch s {
	case StateInitialSentiment:
		return next == StateComparing || next == StateFinalInsertion
	case StateComparing:
		return next == StateFinalInsertion
	case StateFinalInsertion, StateScoreUpdate:
		return next == StateScoreUpdate
	}
	return false
}

// Completed reports whether the item has ever contributed to the shared
// aggregate (terminal placement reached at least once).
func (s RatingState) Completed() bool {
	return s == StateFinalInsertion || s == StateScoreUpdate
}

// RatedItem is one entry in a user's personal ranking.
// Owned exclusively by the user's collection; the aggregate sync only
// reads it.
type RatedItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Sentiment Sentiment `json:"sentiment"`
	// ExternalID is the shared catalog id. Items without one never enter
	// the cross-user aggregate.
	ExternalID string    `json:"externalId,omitempty"`
	MediaType  MediaKind `json:"mediaType"`
	Genres     []Genre   `json:"genres,omitempty"`
	Score      float64   `json:"score"`
	// OriginalScore is the score at first assignment. Immutable afterwards.
	OriginalScore float64 `json:"originalScore"`
	// ComparisonsCount increases by one for every pairwise comparison the
	// item takes part in. Monotonic, never reset.
	ComparisonsCount int         `json:"comparisonsCount"`
	RatingState      RatingState `json:"ratingState"`
	Timestamp        time.Time   `json:"timestamp"`
}

// RankingRecordID builds the composite store key for a user's item:
// "userID:itemID".
func RankingRecordID(userID, itemID string) string {
	return userID + ":" + itemID
}

// RecordID returns the item's composite store key.
func (i *RatedItem) RecordID() string {
	return RankingRecordID(i.UserID, i.ID)
}

// HasExternalID reports whether the item can contribute to the shared
// aggregate.
func (i *RatedItem) HasExternalID() bool { return i.ExternalID != "" }

// AggregateKey is the shared aggregate record key: the external catalog
// id, falling back to the item id when no external id exists.
func (i *RatedItem) AggregateKey() string {
	if i.ExternalID != "" {
		return i.ExternalID
	}
	return i.ID
}

// ExternalIndexKey builds the secondary-index key used to find a user's
// record for a given piece of external content. Items without an external
// id are not indexed.
func (i *RatedItem) ExternalIndexKey() string {
	if i.ExternalID == "" {
		return ""
	}
	return ExternalIndexKey(i.UserID, i.MediaType, i.ExternalID)
}

// ExternalIndexKey builds the external-content index key from its parts:
// "userID:mediaType:externalID".
func ExternalIndexKey(userID string, kind MediaKind, externalID string) string {
	return userID + ":" + string(kind) + ":" + externalID
}
