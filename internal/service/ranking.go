package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelrankapp/reelrank-server/internal/catalog"
	"github.com/reelrankapp/reelrank-server/internal/domain"
	apperrors "github.com/reelrankapp/reelrank-server/internal/errors"
	"github.com/reelrankapp/reelrank-server/internal/id"
	"github.com/reelrankapp/reelrank-server/internal/rank"
	"github.com/reelrankapp/reelrank-server/internal/store"
	"github.com/reelrankapp/reelrank-server/internal/validation"
)

// RankingService drives the interactive placement flow: a user picks a
// sentiment, answers a short series of pairwise comparisons, and the item
// lands at a deterministic rank. Sessions live in memory; nothing touches
// the store or the shared aggregates until placement completes.
type RankingService struct {
	store       *store.Store
	collections *CollectionService
	catalog     catalog.Lookup
	validator   *validation.Validator
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*RankingSession
}

// NewRankingService creates the ranking service. catalog may be nil when
// no catalog API key is configured; items are then rated with
// caller-supplied titles only.
func NewRankingService(st *store.Store, collections *CollectionService, lookup catalog.Lookup, validator *validation.Validator, logger *slog.Logger) *RankingService {
	return &RankingService{
		store:       st,
		collections: collections,
		catalog:     lookup,
		validator:   validator,
		logger:      logger,
		sessions:    make(map[string]*RankingSession),
	}
}

// RankingSession is one in-flight placement. The candidate item and its
// band peers are pinned at session start; the binary search state advances
// with each reported comparison.
type RankingSession struct {
	ID     string
	UserID string
	Item   *domain.RatedItem
	// PriorScore is the candidate's previous aggregate contribution when
	// re-rating an already placed item; nil on first-time placement.
	PriorScore *float64
	Search     rank.Session
	peers      map[string]*domain.RatedItem
	CreatedAt  time.Time
}

// BeginRequest starts a rating flow for one piece of content.
type BeginRequest struct {
	// ':' is the composite store key separator and cannot appear in ids.
	UserID     string           `json:"userId" validate:"required,max=128,excludesall=:"`
	Title      string           `json:"title" validate:"max=512"`
	Sentiment  domain.Sentiment `json:"sentiment" validate:"required,oneof=liked fine disliked"`
	MediaType  domain.MediaKind `json:"mediaType" validate:"required,oneof=movie show"`
	ExternalID string           `json:"externalId" validate:"max=64"`
}

// Placement describes the state of a session to the caller after Begin or
// Compare. Exactly one of NextPeer or Item is meaningful: NextPeer while
// comparisons remain, Item once placement completed.
type Placement struct {
	SessionID string
	Completed bool
	// NextPeer is the item to compare against next.
	NextPeer *domain.RatedItem
	// Provisional is the score the candidate would get if it landed at the
	// probed position right now.
	Provisional float64
	// Remaining bounds the comparisons left.
	Remaining int
	// Item is the placed record, set once Completed.
	Item *domain.RatedItem
}

// Begin starts a placement session. When the item was already rated (same
// user, kind, and external id) the flow becomes a re-rating: the existing
// record is re-placed and its aggregate contribution corrected instead of
// doubled. An empty target band completes immediately with no comparisons.
func (s *RankingService) Begin(ctx context.Context, req BeginRequest) (*Placement, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	item := &domain.RatedItem{
		UserID:      req.UserID,
		Title:       req.Title,
		Sentiment:   req.Sentiment,
		MediaType:   req.MediaType,
		ExternalID:  req.ExternalID,
		RatingState: domain.StateInitialSentiment,
	}

	var prior *float64
	if req.ExternalID != "" {
		existing, err := s.store.GetRankingByExternalID(ctx, req.UserID, req.MediaType, req.ExternalID)
		switch {
		case err == nil:
			// Re-rating. Keep the record's identity and history; only the
			// sentiment and rank are being redone.
			item.ID = existing.ID
			item.OriginalScore = existing.OriginalScore
			item.ComparisonsCount = existing.ComparisonsCount
			item.Title = existing.Title
			item.Genres = existing.Genres
			if existing.RatingState.Completed() {
				score := existing.Score
				prior = &score
			}
		case apperrors.Is(err, store.ErrNotFound):
		default:
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to check existing rating")
		}

		s.enrich(ctx, item)
	}

	if item.ID == "" {
		item.ID = id.MustGenerate("itm")
	}
	if item.Title == "" {
		return nil, apperrors.Validation("title is required when the catalog has no entry for the item")
	}

	peers, err := s.bandPeers(ctx, item)
	if err != nil {
		return nil, err
	}

	peerIDs := make([]string, len(peers))
	byID := make(map[string]*domain.RatedItem, len(peers))
	for i, p := range peers {
		peerIDs[i] = p.ID
		byID[p.ID] = p
	}

	sess := &RankingSession{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		Item:       item,
		PriorScore: prior,
		Search:     rank.NewSession(peerIDs),
		peers:      byID,
		CreatedAt:  time.Now().UTC(),
	}

	if sess.Search.Done {
		return s.finalize(ctx, sess)
	}

	item.RatingState = domain.StateComparing

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Info("placement session started",
		"session_id", sess.ID,
		"user_id", req.UserID,
		"item_id", item.ID,
		"sentiment", req.Sentiment,
		"peers", len(peers),
	)

	return s.placement(sess), nil
}

// Compare advances a session with one comparison outcome. Both items of
// the pair get their comparison counters bumped. When the search
// terminates, the candidate is placed and the session is gone.
func (s *RankingService) Compare(ctx context.Context, sessionID string, outcome rank.Outcome) (*Placement, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, apperrors.NotFoundf("no ranking session %q", sessionID)
	}

	peer := sess.peers[sess.Search.CurrentPeerID()]

	next, err := sess.Search.Step(outcome)
	if err != nil {
		s.mu.Unlock()
		return nil, apperrors.Validation(err.Error())
	}
	sess.Search = next
	sess.Item.ComparisonsCount++

	if next.Done {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if peer != nil {
		peer.ComparisonsCount++
		if err := s.store.Rankings.Update(ctx, peer.RecordID(), peer); err != nil {
			s.logger.Warn("failed to persist peer comparison count",
				"item_id", peer.ID,
				"error", err,
			)
		}
	}

	if next.Done {
		return s.finalize(ctx, sess)
	}
	return s.placement(sess), nil
}

// Abandon discards an in-flight session. First-time candidates vanish
// without trace; a re-rating leaves the original record untouched.
func (s *RankingService) Abandon(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return apperrors.NotFoundf("no ranking session %q", sessionID)
	}
	delete(s.sessions, sessionID)
	return nil
}

// Sweep drops sessions older than maxAge and returns how many went.
// Run periodically so abandoned flows do not accumulate.
func (s *RankingService) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for sid, sess := range s.sessions {
		if sess.CreatedAt.Before(cutoff) {
			delete(s.sessions, sid)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("swept stale placement sessions", "removed", removed)
	}
	return removed
}

// ActiveSessions returns how many placements are currently in flight.
func (s *RankingService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// enrich fills title and genres from the catalog. Best effort: a missing
// catalog entry or an unreachable catalog never blocks rating.
func (s *RankingService) enrich(ctx context.Context, item *domain.RatedItem) {
	if s.catalog == nil {
		return
	}

	details, err := s.catalog.FetchDetails(ctx, item.MediaType, item.ExternalID)
	if err != nil {
		level := slog.LevelWarn
		if apperrors.Is(err, catalog.ErrNotFound) {
			level = slog.LevelDebug
		}
		s.logger.Log(ctx, level, "catalog enrichment skipped",
			"external_id", item.ExternalID,
			"kind", item.MediaType,
			"error", err,
		)
		return
	}

	if details.Title != "" {
		item.Title = details.Title
	}
	if len(details.Genres) > 0 {
		item.Genres = details.Genres
	}
}

// bandPeers loads the candidate's target band, best first, excluding the
// candidate itself when re-rating.
func (s *RankingService) bandPeers(ctx context.Context, item *domain.RatedItem) ([]*domain.RatedItem, error) {
	items, err := s.collections.loadItems(ctx, item.UserID, item.MediaType)
	if err != nil {
		return nil, err
	}

	coll := domain.BuildCollection(item.MediaType, items)
	band := coll.Band(item.Sentiment)

	peers := make([]*domain.RatedItem, 0, len(band))
	for _, p := range band {
		if p.ID == item.ID {
			continue
		}
		peers = append(peers, p)
	}
	return peers, nil
}

// finalize places the candidate at the rank the search settled on and
// reports the completed placement.
func (s *RankingService) finalize(ctx context.Context, sess *RankingSession) (*Placement, error) {
	if err := s.collections.Insert(ctx, sess.Item, sess.Search.Rank, sess.PriorScore); err != nil {
		return nil, err
	}

	s.logger.Info("placement completed",
		"session_id", sess.ID,
		"user_id", sess.UserID,
		"item_id", sess.Item.ID,
		"rank", sess.Search.Rank,
		"score", sess.Item.Score,
		"comparisons", sess.Item.ComparisonsCount,
	)

	return &Placement{
		SessionID: sess.ID,
		Completed: true,
		Item:      sess.Item,
	}, nil
}

// placement reports an in-progress session: the next pair to judge and
// the score the candidate would get if it landed at the probed position.
func (s *RankingService) placement(sess *RankingSession) *Placement {
	band := domain.BandFor(sess.Item.Sentiment)
	return &Placement{
		SessionID:   sess.ID,
		NextPeer:    sess.peers[sess.Search.CurrentPeerID()],
		Provisional: rank.Provisional(band, len(sess.Search.PeerIDs), sess.Search.Mid),
		Remaining:   sess.Search.Remaining(),
	}
}
