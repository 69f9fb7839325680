package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelrankapp/reelrank-server/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", RPS: 1000, Burst: 1000}, testLogger())
}

func TestFetchDetails_Movie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/movie/550", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Fight Club","genres":[{"id":18,"name":"Drama"},{"id":53,"name":"Thriller"}]}`))
	})

	details, err := c.FetchDetails(context.Background(), domain.MediaKindMovie, "550")
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", details.Title)
	assert.Equal(t, domain.MediaKindMovie, details.MediaType)
	require.Len(t, details.Genres, 2)
	assert.Equal(t, domain.Genre{ID: 18, Name: "Drama"}, details.Genres[0])
}

func TestFetchDetails_ShowUsesNameField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/tv/1396", r.URL.Path)
		_, _ = w.Write([]byte(`{"name":"Breaking Bad","genres":[{"id":18,"name":"Drama"}]}`))
	})

	details, err := c.FetchDetails(context.Background(), domain.MediaKindShow, "1396")
	require.NoError(t, err)
	assert.Equal(t, "Breaking Bad", details.Title)
	assert.Equal(t, domain.MediaKindShow, details.MediaType)
}

func TestFetchDetails_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.FetchDetails(context.Background(), domain.MediaKindMovie, "0")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchDetails_ServerErrorIsNotNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.FetchDetails(context.Background(), domain.MediaKindMovie, "550")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFetchDetails_UnknownKind(t *testing.T) {
	c := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.FetchDetails(context.Background(), domain.MediaKind("podcast"), "1")
	assert.Error(t, err)
}
