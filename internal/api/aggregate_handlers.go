package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerAggregateRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getAggregate",
		Method:      http.MethodGet,
		Path:        "/api/v1/aggregates/{key}",
		Summary:     "Get aggregate rating",
		Description: "Returns the shared cross-user rating for a piece of content",
		Tags:        []string{"Aggregates"},
	}, s.handleGetAggregate)
}

// === DTOs ===

// GetAggregateInput contains parameters for fetching an aggregate rating.
type GetAggregateInput struct {
	Key string `path:"key" doc:"Aggregate key, usually the external catalog ID"`
}

// AggregateResponse contains the shared rating for one piece of content.
type AggregateResponse struct {
	Title           string    `json:"title" doc:"Display title"`
	MediaType       string    `json:"mediaType" doc:"Media kind"`
	ExternalID      string    `json:"externalId,omitempty" doc:"External catalog ID"`
	AverageRating   float64   `json:"averageRating" doc:"Average score across contributors, one decimal"`
	NumberOfRatings int       `json:"numberOfRatings" doc:"How many users contributed"`
	LastUpdated     time.Time `json:"lastUpdated" doc:"Last mutation time"`
}

// AggregateOutput wraps the aggregate response for Huma.
type AggregateOutput struct {
	Body AggregateResponse
}

// === Handlers ===

func (s *Server) handleGetAggregate(ctx context.Context, input *GetAggregateInput) (*AggregateOutput, error) {
	agg, err := s.services.Aggregate.Get(ctx, input.Key)
	if err != nil {
		return nil, err
	}

	return &AggregateOutput{
		Body: AggregateResponse{
			Title:           agg.Title,
			MediaType:       string(agg.MediaType),
			ExternalID:      agg.ExternalID,
			AverageRating:   agg.AverageRating,
			NumberOfRatings: agg.NumberOfRatings,
			LastUpdated:     agg.LastUpdated,
		},
	}, nil
}
