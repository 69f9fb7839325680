package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCollection_OrderedBands(t *testing.T) {
	ts := setupTestServer(t)

	ts.rate(t, "user-1", "Alien", "liked", "peer_wins")
	ts.rate(t, "user-1", "Ran", "liked", "candidate_wins")
	ts.rate(t, "user-1", "Cats", "disliked", "peer_wins")

	resp := ts.api.Get("/api/v1/users/user-1/collection?media_type=movie")
	require.Equal(t, http.StatusOK, resp.Code)

	var env testEnvelope[CollectionResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))

	assert.Equal(t, "movie", env.Data.MediaType)
	assert.Equal(t, 3, env.Data.Total)
	require.Len(t, env.Data.Liked, 2)
	require.Len(t, env.Data.Disliked, 1)
	assert.Empty(t, env.Data.Fine)

	// Ran beat Alien, so it ranks first with the higher score.
	assert.Equal(t, "Ran", env.Data.Liked[0].Title)
	assert.Equal(t, "Alien", env.Data.Liked[1].Title)
	assert.Greater(t, env.Data.Liked[0].Score, env.Data.Liked[1].Score)
}

func TestGetCollection_DefaultsToMovies(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/users/user-1/collection")
	require.Equal(t, http.StatusOK, resp.Code)

	var env testEnvelope[CollectionResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	assert.Equal(t, "movie", env.Data.MediaType)
	assert.Equal(t, 0, env.Data.Total)
}

func TestGetCollection_UnknownMediaType(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/users/user-1/collection?media_type=podcast")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDeleteItems_BatchWithFailures(t *testing.T) {
	ts := setupTestServer(t)

	item := ts.rate(t, "user-1", "Alien", "liked", "peer_wins")

	resp := ts.api.Delete("/api/v1/users/user-1/items", map[string]any{
		"itemIds": []string{item.ID, "itm-missing"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var env testEnvelope[DeleteItemsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))

	assert.Equal(t, 1, env.Data.Deleted)
	require.Len(t, env.Data.Failures, 1)
	assert.Equal(t, "itm-missing", env.Data.Failures[0].ItemID)

	resp = ts.api.Get("/api/v1/users/user-1/collection?media_type=movie")
	require.Equal(t, http.StatusOK, resp.Code)

	var collEnv testEnvelope[CollectionResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &collEnv))
	assert.Equal(t, 0, collEnv.Data.Total)
}
