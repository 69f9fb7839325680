package api

import (
	"time"

	"github.com/reelrankapp/reelrank-server/internal/domain"
)

// MessageResponse contains a simple confirmation message.
type MessageResponse struct {
	Message string `json:"message" doc:"Confirmation message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// GenreResponse contains genre data in API responses.
type GenreResponse struct {
	ID   int    `json:"id" doc:"Catalog genre ID"`
	Name string `json:"name" doc:"Genre name"`
}

// RatedItemResponse contains one ranked item in API responses.
type RatedItemResponse struct {
	ID               string          `json:"id" doc:"Item ID"`
	Title            string          `json:"title" doc:"Display title"`
	Sentiment        string          `json:"sentiment" doc:"Sentiment tier: liked, fine, or disliked"`
	ExternalID       string          `json:"externalId,omitempty" doc:"External catalog ID"`
	MediaType        string          `json:"mediaType" doc:"Media kind: movie or show"`
	Genres           []GenreResponse `json:"genres,omitempty" doc:"Catalog genres"`
	Score            float64         `json:"score" doc:"Current score on the 0-10 scale"`
	OriginalScore    float64         `json:"originalScore" doc:"Score at first placement"`
	ComparisonsCount int             `json:"comparisonsCount" doc:"Total pairwise comparisons this item took part in"`
	RatingState      string          `json:"ratingState" doc:"Rating lifecycle state"`
	Timestamp        time.Time       `json:"timestamp" doc:"Last modification time"`
}

func toRatedItemResponse(item *domain.RatedItem) RatedItemResponse {
	genres := make([]GenreResponse, len(item.Genres))
	for i, g := range item.Genres {
		genres[i] = GenreResponse{ID: g.ID, Name: g.Name}
	}
	return RatedItemResponse{
		ID:               item.ID,
		Title:            item.Title,
		Sentiment:        string(item.Sentiment),
		ExternalID:       item.ExternalID,
		MediaType:        string(item.MediaType),
		Genres:           genres,
		Score:            item.Score,
		OriginalScore:    item.OriginalScore,
		ComparisonsCount: item.ComparisonsCount,
		RatingState:      string(item.RatingState),
		Timestamp:        item.Timestamp,
	}
}

func toRatedItemResponses(items []*domain.RatedItem) []RatedItemResponse {
	out := make([]RatedItemResponse, len(items))
	for i, item := range items {
		out[i] = toRatedItemResponse(item)
	}
	return out
}
