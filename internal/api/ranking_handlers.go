package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/reelrankapp/reelrank-server/internal/domain"
	"github.com/reelrankapp/reelrank-server/internal/rank"
	"github.com/reelrankapp/reelrank-server/internal/service"
)

func (s *Server) registerRankingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "beginRanking",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/{userID}/rankings",
		Summary:     "Begin rating",
		Description: "Starts a placement flow for a movie or show. Completes immediately when the target tier is empty.",
		Tags:        []string{"Rankings"},
	}, s.handleBeginRanking)

	huma.Register(s.api, huma.Operation{
		OperationID: "submitComparison",
		Method:      http.MethodPost,
		Path:        "/api/v1/rankings/{sessionID}/comparisons",
		Summary:     "Submit comparison",
		Description: "Reports the outcome of one pairwise comparison and advances the placement",
		Tags:        []string{"Rankings"},
	}, s.handleSubmitComparison)

	huma.Register(s.api, huma.Operation{
		OperationID: "abandonRanking",
		Method:      http.MethodDelete,
		Path:        "/api/v1/rankings/{sessionID}",
		Summary:     "Abandon rating",
		Description: "Discards an in-flight placement session without saving anything",
		Tags:        []string{"Rankings"},
	}, s.handleAbandonRanking)
}

// === DTOs ===

// BeginRankingRequest is the request body for starting a rating flow.
type BeginRankingRequest struct {
	Title      string `json:"title,omitempty" doc:"Display title, used when the catalog has no entry"`
	Sentiment  string `json:"sentiment" doc:"Sentiment tier: liked, fine, or disliked"`
	MediaType  string `json:"mediaType" doc:"Media kind: movie or show"`
	ExternalID string `json:"externalId,omitempty" doc:"External catalog ID"`
}

// BeginRankingInput wraps the begin ranking request for Huma.
type BeginRankingInput struct {
	UserID string `path:"userID" doc:"User ID"`
	Body   BeginRankingRequest
}

// PlacementResponse describes the state of a placement flow.
type PlacementResponse struct {
	SessionID string `json:"sessionId" doc:"Placement session ID"`
	Completed bool   `json:"completed" doc:"Whether the item has been placed"`
	// NextPeer is present while comparisons remain.
	NextPeer *RatedItemResponse `json:"nextPeer,omitempty" doc:"Item to compare against next"`
	// ProvisionalScore is the score the item would get at the probed slot.
	ProvisionalScore float64 `json:"provisionalScore,omitempty" doc:"Score if placed at the probed position"`
	Remaining        int     `json:"remainingComparisons" doc:"Upper bound on comparisons left"`
	// Item is the final record once completed.
	Item *RatedItemResponse `json:"item,omitempty" doc:"Placed item"`
}

// PlacementOutput wraps the placement response for Huma.
type PlacementOutput struct {
	Body PlacementResponse
}

// ComparisonRequest is the request body for one comparison outcome.
type ComparisonRequest struct {
	Outcome string `json:"outcome" doc:"Comparison outcome: peer_wins, candidate_wins, or too_close"`
}

// ComparisonInput wraps the comparison request for Huma.
type ComparisonInput struct {
	SessionID string `path:"sessionID" doc:"Placement session ID"`
	Body      ComparisonRequest
}

// AbandonInput contains parameters for abandoning a session.
type AbandonInput struct {
	SessionID string `path:"sessionID" doc:"Placement session ID"`
}

// === Handlers ===

func (s *Server) handleBeginRanking(ctx context.Context, input *BeginRankingInput) (*PlacementOutput, error) {
	placement, err := s.services.Ranking.Begin(ctx, service.BeginRequest{
		UserID:     input.UserID,
		Title:      input.Body.Title,
		Sentiment:  domain.Sentiment(input.Body.Sentiment),
		MediaType:  domain.MediaKind(input.Body.MediaType),
		ExternalID: input.Body.ExternalID,
	})
	if err != nil {
		return nil, err
	}

	return &PlacementOutput{Body: toPlacementResponse(placement)}, nil
}

func (s *Server) handleSubmitComparison(ctx context.Context, input *ComparisonInput) (*PlacementOutput, error) {
	placement, err := s.services.Ranking.Compare(ctx, input.SessionID, rank.Outcome(input.Body.Outcome))
	if err != nil {
		return nil, err
	}

	return &PlacementOutput{Body: toPlacementResponse(placement)}, nil
}

func (s *Server) handleAbandonRanking(_ context.Context, input *AbandonInput) (*MessageOutput, error) {
	if err := s.services.Ranking.Abandon(input.SessionID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Rating abandoned"}}, nil
}

func toPlacementResponse(p *service.Placement) PlacementResponse {
	resp := PlacementResponse{
		SessionID:        p.SessionID,
		Completed:        p.Completed,
		ProvisionalScore: p.Provisional,
		Remaining:        p.Remaining,
	}
	if p.NextPeer != nil {
		peer := toRatedItemResponse(p.NextPeer)
		resp.NextPeer = &peer
	}
	if p.Item != nil {
		item := toRatedItemResponse(p.Item)
		resp.Item = &item
	}
	return resp
}
