package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/reelrankapp/reelrank-server/internal/domain"
)

func (s *Server) registerCollectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCollection",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{userID}/collection",
		Summary:     "Get collection",
		Description: "Returns a user's ordered ranking for one media kind, partitioned by sentiment tier",
		Tags:        []string{"Collections"},
	}, s.handleGetCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteItems",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/{userID}/items",
		Summary:     "Delete items",
		Description: "Removes items from a user's rankings. Failures are reported per item; the rest of the batch proceeds.",
		Tags:        []string{"Collections"},
	}, s.handleDeleteItems)
}

// === DTOs ===

// GetCollectionInput contains parameters for fetching a collection.
type GetCollectionInput struct {
	UserID    string `path:"userID" doc:"User ID"`
	MediaType string `query:"media_type" doc:"Media kind: movie or show"`
}

// CollectionResponse contains one user's ordered collection for a media kind.
type CollectionResponse struct {
	MediaType string              `json:"mediaType" doc:"Media kind"`
	Liked     []RatedItemResponse `json:"liked" doc:"Liked tier, best first"`
	Fine      []RatedItemResponse `json:"fine" doc:"Fine tier, best first"`
	Disliked  []RatedItemResponse `json:"disliked" doc:"Disliked tier, best first"`
	Total     int                 `json:"total" doc:"Total items across all tiers"`
}

// CollectionOutput wraps the collection response for Huma.
type CollectionOutput struct {
	Body CollectionResponse
}

// DeleteItemsRequest is the request body for a batch delete.
type DeleteItemsRequest struct {
	ItemIDs []string `json:"itemIds" doc:"IDs of the items to remove"`
}

// DeleteItemsInput wraps the batch delete request for Huma.
type DeleteItemsInput struct {
	UserID string `path:"userID" doc:"User ID"`
	Body   DeleteItemsRequest
}

// ItemFailureResponse reports one item that could not be deleted.
type ItemFailureResponse struct {
	ItemID string `json:"itemId" doc:"Item ID"`
	Reason string `json:"reason" doc:"Why the item was not deleted"`
}

// DeleteItemsResponse reports the result of a batch delete.
type DeleteItemsResponse struct {
	Deleted  int                   `json:"deleted" doc:"Number of items removed"`
	Failures []ItemFailureResponse `json:"failures,omitempty" doc:"Items that could not be removed"`
}

// DeleteItemsOutput wraps the batch delete response for Huma.
type DeleteItemsOutput struct {
	Body DeleteItemsResponse
}

// === Handlers ===

func (s *Server) handleGetCollection(ctx context.Context, input *GetCollectionInput) (*CollectionOutput, error) {
	kind := domain.MediaKind(input.MediaType)
	if input.MediaType == "" {
		kind = domain.MediaKindMovie
	}

	coll, err := s.services.Collection.GetCollection(ctx, input.UserID, kind)
	if err != nil {
		return nil, err
	}

	return &CollectionOutput{
		Body: CollectionResponse{
			MediaType: string(coll.MediaType),
			Liked:     toRatedItemResponses(coll.Band(domain.SentimentLiked)),
			Fine:      toRatedItemResponses(coll.Band(domain.SentimentFine)),
			Disliked:  toRatedItemResponses(coll.Band(domain.SentimentDisliked)),
			Total:     coll.Len(),
		},
	}, nil
}

func (s *Server) handleDeleteItems(ctx context.Context, input *DeleteItemsInput) (*DeleteItemsOutput, error) {
	failures, err := s.services.Collection.DeleteItems(ctx, input.UserID, input.Body.ItemIDs)
	if err != nil {
		return nil, err
	}

	resp := DeleteItemsResponse{
		Deleted: len(input.Body.ItemIDs) - len(failures),
	}
	for _, f := range failures {
		resp.Failures = append(resp.Failures, ItemFailureResponse{ItemID: f.ItemID, Reason: f.Reason})
	}
	return &DeleteItemsOutput{Body: resp}, nil
}
