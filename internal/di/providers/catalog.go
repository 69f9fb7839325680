package providers

import (
	"github.com/samber/do/v2"

	"github.com/reelrankapp/reelrank-server/internal/catalog"
	"github.com/reelrankapp/reelrank-server/internal/config"
	"github.com/reelrankapp/reelrank-server/internal/logger"
)

// ProvideCatalog provides the external catalog client. Without an API key
// the server runs without enrichment; items are rated with caller-supplied
// titles only.
func ProvideCatalog(i do.Injector) (catalog.Lookup, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Catalog.APIKey == "" {
		log.Warn("No catalog API key configured, metadata enrichment disabled")
		return nil, nil
	}

	client := catalog.NewClient(catalog.Config{
		BaseURL: cfg.Catalog.BaseURL,
		APIKey:  cfg.Catalog.APIKey,
		Timeout: cfg.Catalog.Timeout,
		RPS:     cfg.Catalog.RPS,
		Burst:   cfg.Catalog.Burst,
	}, log.Logger)

	log.Info("Catalog client initialized", "base_url", cfg.Catalog.BaseURL)

	return client, nil
}
