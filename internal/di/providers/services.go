package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/reelrankapp/reelrank-server/internal/catalog"
	"github.com/reelrankapp/reelrank-server/internal/logger"
	"github.com/reelrankapp/reelrank-server/internal/service"
	"github.com/reelrankapp/reelrank-server/internal/validation"
)

// ProvideAggregateService provides the shared aggregate rating service.
func ProvideAggregateService(i do.Injector) (*service.AggregateService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAggregateService(storeHandle.Store, log.Logger), nil
}

// ProvideCollectionService provides the personal collection service.
func ProvideCollectionService(i do.Injector) (*service.CollectionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	aggregates := do.MustInvoke[*service.AggregateService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCollectionService(storeHandle.Store, aggregates, log.Logger), nil
}

// RankingServiceHandle wraps the ranking service with its session sweeper
// for lifecycle management.
type RankingServiceHandle struct {
	*service.RankingService
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *RankingServiceHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideRankingService provides the placement flow service. A background
// sweeper drops abandoned in-memory sessions.
func ProvideRankingService(i do.Injector) (*RankingServiceHandle, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	collections := do.MustInvoke[*service.CollectionService](i)
	lookup := do.MustInvoke[catalog.Lookup](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewRankingService(storeHandle.Store, collections, lookup, validator, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				svc.Sweep(sessionMaxAge)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Ranking service started",
		"sweep_interval", sessionSweepInterval,
		"session_max_age", sessionMaxAge,
	)

	return &RankingServiceHandle{
		RankingService: svc,
		cancel:         cancel,
	}, nil
}
