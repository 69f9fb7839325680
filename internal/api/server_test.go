package api

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelrankapp/reelrank-server/internal/ratelimit"
	"github.com/reelrankapp/reelrank-server/internal/service"
	"github.com/reelrankapp/reelrank-server/internal/store"
	"github.com/reelrankapp/reelrank-server/internal/validation"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api humatest.TestAPI
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	aggregateService := service.NewAggregateService(st, logger)
	collectionService := service.NewCollectionService(st, aggregateService, logger)
	// No catalog in tests: items are rated with caller-supplied titles.
	rankingService := service.NewRankingService(st, collectionService, nil, validation.New(), logger)

	router := chi.NewRouter()

	humaConfig := huma.DefaultConfig("ReelRank API Test", "1.0.0")
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store: st,
		services: &Services{
			Ranking:    rankingService,
			Collection: collectionService,
			Aggregate:  aggregateService,
		},
		router:       router,
		api:          api,
		logger:       logger,
		writeLimiter: ratelimit.New(1000, 1000),
	}

	s.registerRoutes()

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, api),
	}
}

// rate walks one item through the full placement flow, answering every
// comparison with the given outcome.
func (ts *testServer) rate(t *testing.T, userID, title, sentiment string, outcome string) RatedItemResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/users/"+userID+"/rankings", map[string]any{
		"title":     title,
		"sentiment": sentiment,
		"mediaType": "movie",
	})
	require.Equal(t, http.StatusOK, resp.Code, "begin failed: %s", resp.Body.String())

	var env testEnvelope[PlacementResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))

	placement := env.Data
	for !placement.Completed {
		resp = ts.api.Post("/api/v1/rankings/"+placement.SessionID+"/comparisons", map[string]any{
			"outcome": outcome,
		})
		require.Equal(t, http.StatusOK, resp.Code, "comparison failed: %s", resp.Body.String())
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
		placement = env.Data
	}

	require.NotNil(t, placement.Item)
	return *placement.Item
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	var env testEnvelope[HealthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))

	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["database"].Status)
	assert.Contains(t, env.Data.Components, "sessions")
}
