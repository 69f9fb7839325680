package api

import (
	"github.com/reelrankapp/reelrank-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Ranking    *service.RankingService
	Collection *service.CollectionService
	Aggregate  *service.AggregateService
}
