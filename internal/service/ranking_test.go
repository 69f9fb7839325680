package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelrankapp/reelrank-server/internal/catalog"
	"github.com/reelrankapp/reelrank-server/internal/domain"
	apperrors "github.com/reelrankapp/reelrank-server/internal/errors"
	"github.com/reelrankapp/reelrank-server/internal/rank"
	"github.com/reelrankapp/reelrank-server/internal/store"
	"github.com/reelrankapp/reelrank-server/internal/validation"
)

// fakeCatalog serves canned catalog details in place of the real API.
type fakeCatalog struct {
	titles map[string]string
	calls  int
}

func (f *fakeCatalog) FetchDetails(_ context.Context, kind domain.MediaKind, externalID string) (*catalog.Details, error) {
	f.calls++
	title, ok := f.titles[externalID]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &catalog.Details{
		Title:     title,
		Genres:    []domain.Genre{{ID: 18, Name: "Drama"}},
		MediaType: kind,
	}, nil
}

type rankingEnv struct {
	ranking     *RankingService
	collections *CollectionService
	aggregates  *AggregateService
	store       *store.Store
	catalog     *fakeCatalog
}

func newRankingEnv(t *testing.T) *rankingEnv {
	t.Helper()
	st := newTestStore(t)
	log := testLogger()
	aggregates := NewAggregateService(st, log)
	collections := NewCollectionService(st, aggregates, log)
	fake := &fakeCatalog{titles: map[string]string{
		"100": "Heat",
		"200": "Ran",
		"300": "Alien",
		"400": "Brazil",
	}}
	return &rankingEnv{
		ranking:     NewRankingService(st, collections, fake, validation.New(), log),
		collections: collections,
		aggregates:  aggregates,
		store:       st,
		catalog:     fake,
	}
}

// seedLikedBand places n movies into user-1's liked band, best last, so the
// band ends up ordered by external id 100, 200, 300 from the top.
func (e *rankingEnv) seedLikedBand(t *testing.T, n int) {
	t.Helper()
	ids := []string{"100", "200", "300"}
	for i := n - 1; i >= 0; i-- {
		item := unrated("user-1", "itm-"+ids[i], ids[i], domain.SentimentLiked)
		item.Title = e.catalog.titles[ids[i]]
		require.NoError(t, e.collections.Insert(context.Background(), item, 0, nil))
	}
}

func TestBegin_EmptyBandCompletesImmediately(t *testing.T) {
	env := newRankingEnv(t)
	ctx := context.Background()

	placement, err := env.ranking.Begin(ctx, BeginRequest{
		UserID:     "user-1",
		Sentiment:  domain.SentimentLiked,
		MediaType:  domain.MediaKindMovie,
		ExternalID: "100",
	})
	require.NoError(t, err)

	assert.True(t, placement.Completed)
	require.NotNil(t, placement.Item)
	assert.Equal(t, "Heat", placement.Item.Title)
	assert.InDelta(t, 8.45, placement.Item.Score, 1e-9)
	assert.Equal(t, domain.StateFinalInsertion, placement.Item.RatingState)
	assert.Equal(t, 0, placement.Item.ComparisonsCount)
	assert.Equal(t, 0, env.ranking.ActiveSessions())

	agg, err := env.aggregates.Get(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, 1, agg.NumberOfRatings)
}

func TestBegin_ValidatesRequest(t *testing.T) {
	env := newRankingEnv(t)
	ctx := context.Background()

	_, err := env.ranking.Begin(ctx, BeginRequest{
		Sentiment: domain.SentimentLiked,
		MediaType: domain.MediaKindMovie,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = env.ranking.Begin(ctx, BeginRequest{
		UserID:    "user-1",
		Sentiment: domain.Sentiment("meh"),
		MediaType: domain.MediaKindMovie,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// ':' separates the parts of composite store keys and cannot appear in
	// a user id; "user:1" would otherwise read as user "user"'s records.
	_, err = env.ranking.Begin(ctx, BeginRequest{
		UserID:    "user:1",
		Title:     "Heat",
		Sentiment: domain.SentimentLiked,
		MediaType: domain.MediaKindMovie,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBegin_RequiresTitleWithoutCatalogEntry(t *testing.T) {
	env := newRankingEnv(t)

	_, err := env.ranking.Begin(context.Background(), BeginRequest{
		UserID:     "user-1",
		Sentiment:  domain.SentimentLiked,
		MediaType:  domain.MediaKindMovie,
		ExternalID: "999",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestComparisonFlow_CandidateWinsToTop(t *testing.T) {
	env := newRankingEnv(t)
	ctx := context.Background()
	env.seedLikedBand(t, 3)

	placement, err := env.ranking.Begin(ctx, BeginRequest{
		UserID:     "user-1",
		Sentiment:  domain.SentimentLiked,
		MediaType:  domain.MediaKindMovie,
		ExternalID: "400",
	})
	require.NoError(t, err)
	require.False(t, placement.Completed)
	assert.Equal(t, 1, env.ranking.ActiveSessions())

	// Band is [100, 200, 300] top first; the search probes the middle.
	require.NotNil(t, placement.NextPeer)
	assert.Equal(t, "Ran", placement.NextPeer.Title)
	assert.Equal(t, 2, placement.Remaining)
	// Landing at the probed slot of a would-be four-item band.
	assert.InDelta(t, 8.9666666667, placement.Provisional, 1e-6)

	placement, err = env.ranking.Compare(ctx, placement.SessionID, rank.OutcomeCandidateWins)
	require.NoError(t, err)
	require.False(t, placement.Completed)
	assert.Equal(t, "Heat", placement.NextPeer.Title)

	placement, err = env.ranking.Compare(ctx, placement.SessionID, rank.OutcomeCandidateWins)
	require.NoError(t, err)
	require.True(t, placement.Completed)
	assert.Equal(t, 0, env.ranking.ActiveSessions())

	// Two comparisons put the candidate at the very top of a four-item band.
	assert.InDelta(t, 10.0, placement.Item.Score, 1e-9)
	assert.Equal(t, 2, placement.Item.ComparisonsCount)

	coll, err := env.collections.GetCollection(ctx, "user-1", domain.MediaKindMovie)
	require.NoError(t, err)
	band := coll.Band(domain.SentimentLiked)
	require.Len(t, band, 4)
	assert.Equal(t, placement.Item.ID, band[0].ID)

	// Both probed peers had their comparison counters persisted.
	for _, extID := range []string{"100", "200"} {
		peer, err := env.store.GetRankingByExternalID(ctx, "user-1", domain.MediaKindMovie, extID)
		require.NoError(t, err)
		assert.Equal(t, 1, peer.ComparisonsCount, "peer %s", extID)
	}
	peer, err := env.store.GetRankingByExternalID(ctx, "user-1", domain.MediaKindMovie, "300")
	require.NoError(t, err)
	assert.Equal(t, 0, peer.ComparisonsCount)
}

func TestComparisonFlow_TooCloseLandsBelowProbedPeer(t *testing.T) {
	env := newRankingEnv(t)
	ctx := context.Background()
	env.seedLikedBand(t, 3)

	placement, err := env.ranking.Begin(ctx, BeginRequest{
		UserID:     "user-1",
		Sentiment:  domain.SentimentLiked,
		MediaType:  domain.MediaKindMovie,
		ExternalID: "400",
	})
	require.NoError(t, err)

	placement, err = env.ranking.Compare(ctx, placement.SessionID, rank.OutcomeTooClose)
	require.NoError(t, err)
	require.True(t, placement.Completed)

	// Probing rank 1 and giving up places the candidate at rank 3 of four.
	coll, err := env.collections.GetCollection(ctx, "user-1", domain.MediaKindMovie)
	require.NoError(t, err)
	band := coll.Band(domain.SentimentLiked)
	require.Len(t, band, 4)
	assert.Equal(t, placement.Item.ID, band[3].ID)
	assert.InDelta(t, 6.9, placement.Item.Score, 1e-9)
}

func TestCompare_UnknownSessionAndOutcome(t *testing.T) {
	env := newRankingEnv(t)
	ctx := context.Background()
	env.seedLikedBand(t, 3)

	_, err := env.ranking.Compare(ctx, "nope", rank.OutcomeTooClose)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	placement, err := env.ranking.Begin(ctx, BeginRequest{
		UserID:     "user-1",
		Sentiment:  domain.SentimentLiked,
		MediaType:  domain.MediaKindMovie,
		ExternalID: "400",
	})
	require.NoError(t, err)

	_, err = env.ranking.Compare(ctx, placement.SessionID, rank.Outcome("shrug"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// The failed comparison left the session usable.
	assert.Equal(t, 1, env.ranking.ActiveSessions())
}

func TestReRate_CorrectsInsteadOfDoubling(t *testing.T) {
	env := newRankingEnv(t)
	ctx := context.Background()

	first, err := env.ranking.Begin(ctx, BeginRequest{
		UserID:     "user-1",
		Sentiment:  domain.SentimentLiked,
		MediaType:  domain.MediaKindMovie,
		ExternalID: "100",
	})
	require.NoError(t, err)
	require.True(t, first.Completed)

	second, err := env.ranking.Begin(ctx, BeginRequest{
		UserID:     "user-1",
		Sentiment:  domain.SentimentDisliked,
		MediaType:  domain.MediaKindMovie,
		ExternalID: "100",
	})
	require.NoError(t, err)
	require.True(t, second.Completed)

	// Same record, new band, single aggregate contribution.
	assert.Equal(t, first.Item.ID, second.Item.ID)
	assert.Equal(t, domain.StateScoreUpdate, second.Item.RatingState)
	assert.InDelta(t, first.Item.OriginalScore, second.Item.OriginalScore, 1e-9)

	coll, err := env.collections.GetCollection(ctx, "user-1", domain.MediaKindMovie)
	require.NoError(t, err)
	assert.Equal(t, 1, coll.Len())

	agg, err := env.aggregates.Get(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, 1, agg.NumberOfRatings)
	assert.InDelta(t, 2.0, agg.AverageRating, 1e-9)
}

func TestAbandon_LeavesNoTrace(t *testing.T) {
	env := newRankingEnv(t)
	ctx := context.Background()
	env.seedLikedBand(t, 3)

	placement, err := env.ranking.Begin(ctx, BeginRequest{
		UserID:     "user-1",
		Sentiment:  domain.SentimentLiked,
		MediaType:  domain.MediaKindMovie,
		ExternalID: "400",
	})
	require.NoError(t, err)

	require.NoError(t, env.ranking.Abandon(placement.SessionID))
	assert.Equal(t, 0, env.ranking.ActiveSessions())
	assert.ErrorIs(t, env.ranking.Abandon(placement.SessionID), apperrors.ErrNotFound)

	_, err = env.store.GetRankingByExternalID(ctx, "user-1", domain.MediaKindMovie, "400")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSweep_DropsStaleSessions(t *testing.T) {
	env := newRankingEnv(t)
	ctx := context.Background()
	env.seedLikedBand(t, 3)

	_, err := env.ranking.Begin(ctx, BeginRequest{
		UserID:     "user-1",
		Sentiment:  domain.SentimentLiked,
		MediaType:  domain.MediaKindMovie,
		ExternalID: "400",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, env.ranking.Sweep(time.Hour))
	assert.Equal(t, 1, env.ranking.ActiveSessions())

	assert.Equal(t, 1, env.ranking.Sweep(-time.Second))
	assert.Equal(t, 0, env.ranking.ActiveSessions())
}
