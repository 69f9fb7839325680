package catalog

import (
	"context"

	"github.com/reelrankapp/reelrank-server/internal/domain"
)

// Details is the catalog metadata attached to a rated item.
type Details struct {
	Title     string           `json:"title"`
	Genres    []domain.Genre   `json:"genres"`
	MediaType domain.MediaKind `json:"mediaType"`
}

// detailsResponse is the raw catalog payload. Movies carry "title", shows
// carry "name"; both carry a genre list.
type detailsResponse struct {
	Title  string `json:"title"`
	Name   string `json:"name"`
	Genres []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

// Lookup is the catalog dependency of the ranking service. Implemented by
// Client; tests substitute fakes.
type Lookup interface {
	FetchDetails(ctx context.Context, kind domain.MediaKind, externalID string) (*Details, error)
}
