// Package catalog fetches movie and show metadata from the external
// catalog API.
package catalog

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/reelrankapp/reelrank-server/internal/domain"
	"github.com/reelrankapp/reelrank-server/internal/slug"
)

// ErrNotFound means the catalog has no entry for the requested id.
var ErrNotFound = errors.New("catalog: title not found")

// Config holds catalog client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// Client provides access to the catalog API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates a new catalog client. Outbound requests are rate
// limited to stay inside the catalog's per-key quota.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 4
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 8
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:      logger,
	}
}

// wait blocks until the rate limiter allows a request.
func (c *Client) wait(ctx context.Context) error {
	return c.rateLimiter.Wait(ctx)
}

// FetchDetails fetches title and genre metadata for a piece of content.
// Returns ErrNotFound when the catalog has no entry for the id; any other
// failure is a transport or decode error.
func (c *Client) FetchDetails(ctx context.Context, kind domain.MediaKind, externalID string) (*Details, error) {
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	detailsURL, err := c.detailsURL(kind, externalID)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetching catalog details",
		"kind", kind,
		"external_id", externalID,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, detailsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("details request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("details failed: status %d", resp.StatusCode)
	}

	var raw detailsResponse
	if err := json.UnmarshalRead(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	title := raw.Title
	if title == "" {
		title = raw.Name
	}

	genres := make([]domain.Genre, 0, len(raw.Genres))
	for _, g := range raw.Genres {
		if slug.Make(g.Name) == "" {
			continue
		}
		genres = append(genres, domain.Genre{ID: g.ID, Name: g.Name})
	}

	return &Details{
		Title:     title,
		Genres:    genres,
		MediaType: kind,
	}, nil
}

// detailsURL builds the per-kind details endpoint URL.
func (c *Client) detailsURL(kind domain.MediaKind, externalID string) (string, error) {
	var path string
	switch kind {
	case domain.MediaKindMovie:
		path = "/3/movie/"
	case domain.MediaKindShow:
		path = "/3/tv/"
	default:
		return "", fmt.Errorf("unknown media kind %q", kind)
	}

	params := url.Values{}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	u := c.baseURL + path + url.PathEscape(externalID)
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u, nil
}
