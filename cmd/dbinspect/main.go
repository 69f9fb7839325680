// Package main provides a read-only inspection tool for the ReelRank
// database.
//
// Usage:
//
//	DB_PATH=~/ReelRank/data/db go run ./cmd/dbinspect
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/reelrankapp/reelrank-server/internal/domain"
	"github.com/reelrankapp/reelrank-server/internal/store"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/ReelRank/data/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	inspectRankings(db)
	fmt.Println()
	inspectAggregates(db)
}

func inspectRankings(db *badger.DB) {
	byUser := make(map[string]int)
	byState := make(map[string]int)
	total := 0

	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(store.RankingPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			key := string(it.Item().Key())

			// Skip index keys
			if strings.HasPrefix(key[len(store.RankingPrefix):], "idx:") {
				continue
			}

			err := it.Item().Value(func(val []byte) error {
				var item domain.RatedItem
				if err := json.Unmarshal(val, &item); err != nil {
					fmt.Printf("  UNREADABLE: %s (%v)\n", key, err)
					return nil
				}

				total++
				byUser[item.UserID]++
				byState[string(item.RatingState)]++

				if total <= 10 {
					fmt.Printf("  %-28s %-8s %-10s score=%.2f comparisons=%d\n",
						item.Title, item.MediaType, item.Sentiment,
						item.Score, item.ComparisonsCount)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to scan rankings: %v", err)
	}

	fmt.Printf("Rankings: %d total across %d users\n", total, len(byUser))
	for state, n := range byState {
		fmt.Printf("  state %-18s %d\n", state, n)
	}
}

func inspectAggregates(db *badger.DB) {
	total := 0
	corrupt := 0

	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(store.AggregatePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			key := string(it.Item().Key())

			err := it.Item().Value(func(val []byte) error {
				var agg domain.AggregateRating
				if err := json.Unmarshal(val, &agg); err != nil {
					fmt.Printf("  UNREADABLE: %s (%v)\n", key, err)
					corrupt++
					return nil
				}

				total++
				if agg.Corrupt() {
					corrupt++
					fmt.Printf("  CORRUPT: %s total=%.2f count=%d\n",
						key, agg.TotalScore, agg.NumberOfRatings)
					return nil
				}

				if total <= 10 {
					fmt.Printf("  %-28s avg=%.1f ratings=%d updated=%s\n",
						agg.Title, agg.AverageRating, agg.NumberOfRatings,
						agg.LastUpdated.Format("2006-01-02 15:04"))
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to scan aggregates: %v", err)
	}

	fmt.Printf("Aggregates: %d total, %d corrupt\n", total, corrupt)
}
