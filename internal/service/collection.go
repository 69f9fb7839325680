package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/reelrankapp/reelrank-server/internal/domain"
	apperrors "github.com/reelrankapp/reelrank-server/internal/errors"
	"github.com/reelrankapp/reelrank-server/internal/rank"
	"github.com/reelrankapp/reelrank-server/internal/store"
)

// AggregateSyncer mutates the shared cross-user rating records.
// *AggregateService is the production implementation.
type AggregateSyncer interface {
	Contribute(ctx context.Context, item *domain.RatedItem, score float64) error
	Correct(ctx context.Context, item *domain.RatedItem, oldScore, newScore float64) error
	Remove(ctx context.Context, item *domain.RatedItem, score float64) error
}

// CollectionService owns each user's ordered, sentiment-partitioned
// collections and keeps every mutation followed by a full recalculation
// of the touched bands.
type CollectionService struct {
	store      *store.Store
	aggregates AggregateSyncer
	logger     *slog.Logger
}

// NewCollectionService creates the collection service.
func NewCollectionService(st *store.Store, aggregates AggregateSyncer, logger *slog.Logger) *CollectionService {
	return &CollectionService{
		store:      st,
		aggregates: aggregates,
		logger:     logger,
	}
}

// DeleteFailure describes one item of a batch delete that could not be
// removed. The rest of the batch proceeds regardless.
type DeleteFailure struct {
	ItemID string `json:"itemId"`
	Reason string `json:"reason"`
}

// scoreChange records one item's score moving during recalculation.
type scoreChange struct {
	item     *domain.RatedItem
	oldScore float64
}

// GetCollection returns the user's ordered collection for one media kind.
// Duplicate external ids are resolved on load: the highest-scoring record
// survives, the rest are deleted.
func (s *CollectionService) GetCollection(ctx context.Context, userID string, kind domain.MediaKind) (*domain.Collection, error) {
	if err := validUserID(userID); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, apperrors.Validationf("unknown media type %q", kind)
	}

	items, err := s.loadItems(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	return domain.BuildCollection(kind, items), nil
}

// Insert places item at rank within its sentiment band, recalculates every
// touched band, persists the results, and syncs the shared aggregates.
//
// prior carries the item's previous aggregate contribution when this is a
// re-ranking of an already completed item; nil means first-time placement.
func (s *CollectionService) Insert(ctx context.Context, item *domain.RatedItem, rankPos int, prior *float64) error {
	items, err := s.loadItems(ctx, item.UserID, item.MediaType)
	if err != nil {
		return err
	}

	// Detach the existing copy when re-ranking, remembering which band it
	// leaves behind.
	var oldSentiment domain.Sentiment
	existed := false
	remaining := items[:0]
	for _, it := range items {
		if it.ID == item.ID {
			oldSentiment = it.Sentiment
			existed = true
			continue
		}
		remaining = append(remaining, it)
	}

	coll := domain.BuildCollection(item.MediaType, remaining)
	coll.Insert(item.Sentiment, rankPos, item)

	changes := s.recalcBand(coll, item.Sentiment)
	if existed && oldSentiment != item.Sentiment {
		changes = append(changes, s.recalcBand(coll, oldSentiment)...)
	}

	now := time.Now().UTC()
	item.Timestamp = now
	if prior == nil {
		item.RatingState = domain.StateFinalInsertion
		item.OriginalScore = item.Score
	} else {
		item.RatingState = domain.StateScoreUpdate
	}

	if existed {
		err = s.store.Rankings.Update(ctx, item.RecordID(), item)
	} else {
		err = s.store.Rankings.Create(ctx, item.RecordID(), item)
	}
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to persist rated item")
	}

	siblings := make([]scoreChange, 0, len(changes))
	for _, c := range changes {
		if c.item.ID == item.ID {
			continue
		}
		siblings = append(siblings, c)
	}
	s.persistSiblings(ctx, siblings, now)

	// Sibling corrections must follow their persisted scores no matter what
	// happens to the candidate's own sync: the correction delta exists only
	// here, in memory, and is unrecoverable once the new scores are stored.
	s.correctSiblings(ctx, siblings)

	// The candidate's own aggregate sync is the one callers need to see fail.
	if item.HasExternalID() {
		if prior == nil {
			err = s.aggregates.Contribute(ctx, item, item.Score)
		} else {
			err = s.aggregates.Correct(ctx, item, *prior, item.Score)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteItems removes the given items from a user's rankings. Each item is
// handled independently: one failure never blocks the rest. Touched bands
// are recalculated once at the end.
func (s *CollectionService) DeleteItems(ctx context.Context, userID string, itemIDs []string) ([]DeleteFailure, error) {
	if err := validUserID(userID); err != nil {
		return nil, err
	}

	var failures []DeleteFailure
	touched := make(map[domain.MediaKind]map[domain.Sentiment]bool)

	for _, itemID := range itemIDs {
		rec, err := s.store.Rankings.Get(ctx, domain.RankingRecordID(userID, itemID))
		if err != nil {
			reason := "not found"
			if !apperrors.Is(err, store.ErrNotFound) {
				reason = err.Error()
			}
			failures = append(failures, DeleteFailure{ItemID: itemID, Reason: reason})
			continue
		}

		if err := s.store.Rankings.Delete(ctx, rec.RecordID()); err != nil {
			failures = append(failures, DeleteFailure{ItemID: itemID, Reason: err.Error()})
			continue
		}

		if rec.RatingState.Completed() && rec.HasExternalID() {
			if err := s.aggregates.Remove(ctx, rec, rec.Score); err != nil {
				s.logger.Warn("failed to withdraw aggregate contribution",
					"key", rec.AggregateKey(),
					"user_id", userID,
					"error", err,
				)
				failures = append(failures, DeleteFailure{
					ItemID: itemID,
					Reason: "rating removed but aggregate withdrawal failed: " + err.Error(),
				})
			}
		}

		if touched[rec.MediaType] == nil {
			touched[rec.MediaType] = make(map[domain.Sentiment]bool)
		}
		touched[rec.MediaType][rec.Sentiment] = true
	}

	for kind, bands := range touched {
		items, err := s.loadItems(ctx, userID, kind)
		if err != nil {
			return failures, err
		}
		coll := domain.BuildCollection(kind, items)

		now := time.Now().UTC()
		var changes []scoreChange
		for sentiment := range bands {
			changes = append(changes, s.recalcBand(coll, sentiment)...)
		}
		s.persistSiblings(ctx, changes, now)
		s.correctSiblings(ctx, changes)
	}

	return failures, nil
}

// loadItems reads a user's rated items of one kind, applying the dedup
// invariant: duplicate external ids keep only the highest-scoring record.
// Discarded duplicates are deleted from the store; their aggregate
// contribution stays, since the surviving record represents the same user
// and title.
func (s *CollectionService) loadItems(ctx context.Context, userID string, kind domain.MediaKind) ([]*domain.RatedItem, error) {
	var items []*domain.RatedItem
	for item, err := range s.store.ListRankingsForUser(ctx, userID) {
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to list rankings")
		}
		if item.MediaType != kind {
			continue
		}
		items = append(items, item)
	}

	kept, discarded := domain.Deduplicate(items)
	for _, dup := range discarded {
		s.logger.Warn("removing duplicate rating",
			"user_id", userID,
			"item_id", dup.ID,
			"external_id", dup.ExternalID,
		)
		if err := s.store.Rankings.Delete(ctx, dup.RecordID()); err != nil {
			s.logger.Error("failed to remove duplicate rating",
				"item_id", dup.ID,
				"error", err,
			)
		}
	}

	return kept, nil
}

// recalcBand reapplies the rank formula over one band and returns the
// items whose scores moved. Item scores are updated in place.
func (s *CollectionService) recalcBand(coll *domain.Collection, sentiment domain.Sentiment) []scoreChange {
	band := coll.Band(sentiment)
	scores := rank.Scores(domain.BandFor(sentiment), len(band))

	var changes []scoreChange
	for i, item := range band {
		if item.Score == scores[i] {
			continue
		}
		changes = append(changes, scoreChange{item: item, oldScore: item.Score})
		item.Score = scores[i]
	}
	return changes
}

// persistSiblings writes recalculated neighbours back to the store.
// A completed item whose score moved enters the scoreUpdate state.
func (s *CollectionService) persistSiblings(ctx context.Context, changes []scoreChange, now time.Time) {
	for _, c := range changes {
		if c.item.RatingState.Completed() {
			c.item.RatingState = domain.StateScoreUpdate
		}
		c.item.Timestamp = now
		if err := s.store.Rankings.Update(ctx, c.item.RecordID(), c.item); err != nil {
			s.logger.Error("failed to persist recalculated score",
				"item_id", c.item.ID,
				"error", err,
			)
		}
	}
}

// validUserID rejects user ids that cannot form a composite store key.
// Keys join userID and itemID with ':', so an id containing one would
// alias another user's record prefix.
func validUserID(userID string) error {
	if userID == "" || strings.ContainsRune(userID, ':') {
		return apperrors.Validationf("invalid user id %q", userID)
	}
	return nil
}

// correctSiblings replaces the aggregate contributions of recalculated
// neighbours. Corrections are independent per key, so they run
// concurrently; failures are logged and never abort the mutation that
// triggered them.
func (s *CollectionService) correctSiblings(ctx context.Context, changes []scoreChange) {
	var wg sync.WaitGroup
	for _, c := range changes {
		if !c.item.RatingState.Completed() || !c.item.HasExternalID() {
			continue
		}
		wg.Add(1)
		go func(c scoreChange) {
			defer wg.Done()
			if err := s.aggregates.Correct(ctx, c.item, c.oldScore, c.item.Score); err != nil {
				s.logger.Warn("failed to correct aggregate contribution",
					"key", c.item.AggregateKey(),
					"error", err,
				)
			}
		}(c)
	}
	wg.Wait()
}
