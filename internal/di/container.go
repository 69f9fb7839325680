// Package di provides dependency injection configuration for the ReelRank
// server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/reelrankapp/reelrank-server/internal/catalog"
	"github.com/reelrankapp/reelrank-server/internal/config"
	"github.com/reelrankapp/reelrank-server/internal/di/providers"
	"github.com/reelrankapp/reelrank-server/internal/logger"
	"github.com/reelrankapp/reelrank-server/internal/service"
	"github.com/reelrankapp/reelrank-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// External catalog
	do.Provide(injector, providers.ProvideCatalog)

	// Business services
	do.Provide(injector, providers.ProvideAggregateService)
	do.Provide(injector, providers.ProvideCollectionService)
	do.Provide(injector, providers.ProvideRankingService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[catalog.Lookup](injector)

	_ = do.MustInvoke[*service.AggregateService](injector)
	_ = do.MustInvoke[*service.CollectionService](injector)
	_ = do.MustInvoke[*providers.RankingServiceHandle](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
