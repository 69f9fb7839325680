// Package main provides a tool to seed the database with demo rating data.
//
// Ratings go through the real services, so scores, bands, and shared
// aggregates end up exactly as they would from real traffic.
//
// Usage:
//
//	DB_PATH=~/ReelRank/data/db go run ./cmd/seed
//	DB_PATH=~/ReelRank/data/db go run ./cmd/seed --users 5
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/reelrankapp/reelrank-server/internal/domain"
	"github.com/reelrankapp/reelrank-server/internal/rank"
	"github.com/reelrankapp/reelrank-server/internal/service"
	"github.com/reelrankapp/reelrank-server/internal/store"
	"github.com/reelrankapp/reelrank-server/internal/validation"
)

var userCount = flag.Int("users", 3, "Number of demo users to seed")

// demoTitle is one seedable piece of content.
type demoTitle struct {
	title      string
	externalID string
	mediaType  domain.MediaKind
}

var demoTitles = []demoTitle{
	{"Heat", "949", domain.MediaKindMovie},
	{"Ran", "11645", domain.MediaKindMovie},
	{"Alien", "348", domain.MediaKindMovie},
	{"Brazil", "68", domain.MediaKindMovie},
	{"Stalker", "1398", domain.MediaKindMovie},
	{"Cats", "515195", domain.MediaKindMovie},
	{"The Room", "17473", domain.MediaKindMovie},
	{"Breaking Bad", "1396", domain.MediaKindShow},
	{"The Wire", "1438", domain.MediaKindShow},
	{"Deadwood", "1406", domain.MediaKindShow},
	{"Marco Polo", "61817", domain.MediaKindShow},
}

var sentiments = []domain.Sentiment{
	domain.SentimentLiked,
	domain.SentimentLiked,
	domain.SentimentFine,
	domain.SentimentDisliked,
}

var outcomes = []rank.Outcome{
	rank.OutcomePeerWins,
	rank.OutcomeCandidateWins,
	rank.OutcomeTooClose,
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/ReelRank/data/db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	s, err := store.New(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	aggregates := service.NewAggregateService(s, logger)
	collections := service.NewCollectionService(s, aggregates, logger)
	// No catalog client: demo titles carry their own names.
	rankings := service.NewRankingService(s, collections, nil, validation.New(), logger)

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for u := 1; u <= *userCount; u++ {
		userID := fmt.Sprintf("demo-user-%d", u)
		fmt.Printf("\nSeeding ratings for %s\n", userID)

		for _, title := range demoTitles {
			// Not every user has seen everything.
			if rng.Intn(100) < 25 {
				continue
			}

			sentiment := sentiments[rng.Intn(len(sentiments))]
			if err := rateTitle(ctx, rankings, rng, userID, title, sentiment); err != nil {
				log.Fatalf("Failed to rate %q for %s: %v", title.title, userID, err)
			}
			fmt.Printf("  rated %-16s as %s\n", title.title, sentiment)
		}
	}

	fmt.Println("\nDone. Inspect with: go run ./cmd/dbinspect")
}

// rateTitle walks one title through the full placement flow, answering
// comparisons at random.
func rateTitle(ctx context.Context, rankings *service.RankingService, rng *rand.Rand, userID string, title demoTitle, sentiment domain.Sentiment) error {
	placement, err := rankings.Begin(ctx, service.BeginRequest{
		UserID:     userID,
		Title:      title.title,
		Sentiment:  sentiment,
		MediaType:  title.mediaType,
		ExternalID: title.externalID,
	})
	if err != nil {
		return err
	}

	for !placement.Completed {
		placement, err = rankings.Compare(ctx, placement.SessionID, outcomes[rng.Intn(len(outcomes))])
		if err != nil {
			return err
		}
	}
	return nil
}
