// Package service implements the business logic for personal rankings and
// shared aggregate ratings.
package service

import (
	"context"
	"encoding/json/v2"
	"log/slog"
	"time"

	"github.com/reelrankapp/reelrank-server/internal/domain"
	apperrors "github.com/reelrankapp/reelrank-server/internal/errors"
	"github.com/reelrankapp/reelrank-server/internal/store"
)

// AggregateService maintains the shared cross-user rating records. Every
// mutation is an atomic per-key read-modify-write, so concurrent users of
// the same title never lose contributions.
type AggregateService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewAggregateService creates the aggregate service.
func NewAggregateService(st *store.Store, logger *slog.Logger) *AggregateService {
	return &AggregateService{
		store:  st,
		logger: logger,
	}
}

// Get returns the shared aggregate record for a key.
func (s *AggregateService) Get(ctx context.Context, key string) (*domain.AggregateRating, error) {
	agg, err := s.store.GetAggregate(ctx, key)
	if err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFoundf("no aggregate rating for %q", key)
		}
		return nil, err
	}
	return agg, nil
}

// Contribute adds a first-time contribution for item with the given score.
// Called exactly once per item, when placement first completes.
func (s *AggregateService) Contribute(ctx context.Context, item *domain.RatedItem, score float64) error {
	if s.skipNonFinite("contribute", item, score) {
		return nil
	}

	return s.transact(ctx, item, func(agg *domain.AggregateRating, now time.Time) *domain.AggregateRating {
		if agg == nil {
			return domain.NewAggregateRating(item, score, now)
		}
		agg.TotalScore += score
		agg.NumberOfRatings++
		s.refreshMetadata(agg, item)
		agg.Recompute(now)
		return agg
	})
}

// Correct replaces an existing contribution after a score recalculation.
// The contributor count stays unchanged.
func (s *AggregateService) Correct(ctx context.Context, item *domain.RatedItem, oldScore, newScore float64) error {
	if s.skipNonFinite("correct", item, newScore) || s.skipNonFinite("correct", item, oldScore) {
		return nil
	}

	return s.transact(ctx, item, func(agg *domain.AggregateRating, now time.Time) *domain.AggregateRating {
		if agg == nil {
			// The record this correction targets is gone. Rebuild it from
			// the one contribution we know about.
			s.logger.Warn("aggregate correction found no record, recreating",
				"key", item.AggregateKey(),
				"user_id", item.UserID,
			)
			return domain.NewAggregateRating(item, newScore, now)
		}
		agg.TotalScore += newScore - oldScore
		s.refreshMetadata(agg, item)
		agg.Recompute(now)
		return agg
	})
}

// Remove withdraws item's contribution. When the last contributor leaves,
// the record is deleted rather than kept at zero.
func (s *AggregateService) Remove(ctx context.Context, item *domain.RatedItem, score float64) error {
	if s.skipNonFinite("remove", item, score) {
		return nil
	}

	key := store.AggregatePrefix + item.AggregateKey()
	return s.store.Transact(ctx, key, func(current []byte, found bool) ([]byte, error) {
		if !found {
			return nil, nil
		}

		now := time.Now().UTC()
		agg, ok := s.decode(current, item)
		if !ok {
			// Cannot subtract from a record we cannot trust. Drop it; the
			// next contribution starts fresh.
			return nil, nil
		}

		agg.TotalScore -= score
		agg.NumberOfRatings--
		if agg.NumberOfRatings <= 0 {
			return nil, nil
		}
		agg.Recompute(now)
		return json.Marshal(agg)
	})
}

// transact runs fn against the decoded aggregate record for item's key.
// fn receives nil when no record exists and returns the replacement.
// Corrupt stored records are overwritten with a fresh single-contributor
// record instead of being propagated.
func (s *AggregateService) transact(ctx context.Context, item *domain.RatedItem, fn func(agg *domain.AggregateRating, now time.Time) *domain.AggregateRating) error {
	key := store.AggregatePrefix + item.AggregateKey()
	return s.store.Transact(ctx, key, func(current []byte, found bool) ([]byte, error) {
		now := time.Now().UTC()

		var agg *domain.AggregateRating
		if found {
			decoded, ok := s.decode(current, item)
			if !ok {
				// fn sees no record and builds a fresh one.
				agg = nil
			} else {
				agg = decoded
			}
		}

		next := fn(agg, now)
		if next == nil {
			return nil, nil
		}
		return json.Marshal(next)
	})
}

// decode unmarshals a stored aggregate record, reporting corrupt records
// so callers can overwrite instead of propagate them.
func (s *AggregateService) decode(data []byte, item *domain.RatedItem) (*domain.AggregateRating, bool) {
	var agg domain.AggregateRating
	if err := json.Unmarshal(data, &agg); err != nil {
		s.logger.Warn("aggregate record is unreadable, overwriting",
			"key", item.AggregateKey(),
			"error", err,
		)
		return nil, false
	}
	if agg.Corrupt() {
		s.logger.Warn("aggregate record is corrupt, overwriting",
			"key", item.AggregateKey(),
			"total", agg.TotalScore,
			"count", agg.NumberOfRatings,
		)
		return nil, false
	}
	return &agg, true
}

// refreshMetadata keeps display fields current with the latest contributor.
func (s *AggregateService) refreshMetadata(agg *domain.AggregateRating, item *domain.RatedItem) {
	if item.Title != "" {
		agg.Title = item.Title
	}
	agg.MediaType = item.MediaType
	agg.ExternalID = item.ExternalID
}

// skipNonFinite drops mutations carrying NaN or infinite scores. The
// personal record stays intact; only the shared record is protected.
func (s *AggregateService) skipNonFinite(op string, item *domain.RatedItem, score float64) bool {
	if domain.IsFiniteScore(score) {
		return false
	}
	s.logger.Warn("skipping aggregate mutation with non-finite score",
		"op", op,
		"key", item.AggregateKey(),
		"user_id", item.UserID,
		"score", score,
	)
	return true
}
