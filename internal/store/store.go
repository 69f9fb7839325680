// Package store provides the Badger-backed durable store for ranking
// records and shared aggregate ratings.
package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/reelrankapp/reelrank-server/internal/domain"
)

// Key namespaces. Ranking records are keyed "ranking:<userID>:<itemID>";
// aggregate records are keyed "aggregate:<externalID>" (item id fallback).
const (
	RankingPrefix   = "ranking:"
	AggregatePrefix = "aggregate:"
)

// externalIndexName is the secondary index mapping a user's external
// catalog id to their ranking record. One record per user, kind, and
// external id.
const externalIndexName = "external"

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Rankings holds per-user rated items.
	Rankings *Entity[domain.RatedItem]
}

// New creates a new Store at the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Sync writes to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}

	store.initRankings()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// initRankings initializes the Rankings entity. The external index is
// sparse: items without an external catalog id are not indexed.
func (s *Store) initRankings() {
	s.Rankings = NewEntity[domain.RatedItem](s, RankingPrefix).
		WithIndex(externalIndexName, func(item *domain.RatedItem) []string {
			if !item.HasExternalID() {
				return nil
			}
			return []string{item.ExternalIndexKey()}
		})
}

// GetRankingByExternalID finds a user's ranking record for a piece of
// external content, or ErrNotFound.
func (s *Store) GetRankingByExternalID(ctx context.Context, userID string, kind domain.MediaKind, externalID string) (*domain.RatedItem, error) {
	return s.Rankings.GetByIndex(ctx, externalIndexName, domain.ExternalIndexKey(userID, kind, externalID))
}

// ListRankingsForUser iterates all of a user's rated items across both
// media kinds.
func (s *Store) ListRankingsForUser(ctx context.Context, userID string) iter.Seq2[*domain.RatedItem, error] {
	return s.Rankings.ListByIDPrefix(ctx, userID+":")
}

// GetAggregate reads the shared aggregate record for a key, or ErrNotFound.
func (s *Store) GetAggregate(ctx context.Context, key string) (*domain.AggregateRating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var agg domain.AggregateRating
	k := buildKey(AggregatePrefix, key)
	defer releaseKey(k)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get aggregate: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &agg)
		})
	})
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

// ListAggregates iterates all shared aggregate records.
func (s *Store) ListAggregates(ctx context.Context) iter.Seq2[*domain.AggregateRating, error] {
	return func(yield func(*domain.AggregateRating, error) bool) {
		_ = s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(AggregatePrefix)
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek([]byte(AggregatePrefix)); it.ValidForPrefix([]byte(AggregatePrefix)); it.Next() {
				if ctx.Err() != nil {
					yield(nil, ctx.Err())
					return ctx.Err()
				}

				var agg domain.AggregateRating
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &agg)
				})
				if err != nil {
					yield(nil, err)
					return err
				}
				if !yield(&agg, nil) {
					return nil
				}
			}
			return nil
		})
	}
}
