package external

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"jokehub/internal/config"
	"jokehub/internal/models"
	"jokehub/pkg/logger"

	"github.com/goccy/go-json"
)

// ErrUnavailable covers every way the external provider can fail to produce a
// joke: transport error, non-200 status, malformed body. Callers treat it as
// a soft miss, not a hard failure.
var ErrUnavailable = errors.New("external joke source unavailable")

// Client fetches random jokes from the external provider. The HTTP client is
// owned by the Client and reused across calls.
type Client struct {
	cfg    config.ExternalConfig
	client *http.Client
}

func New(cfg config.ExternalConfig, opts ...Option) *Client {
	c := &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// Random fetches one joke. Any provider-side failure comes back as
// ErrUnavailable.
func (c *Client) Random(ctx context.Context) (*models.ExternalJoke, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "jokehub/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn("External joke source unreachable", logger.Err(err))
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Non-OK status from external joke source",
			logger.Int("status", resp.StatusCode),
		)
		return nil, ErrUnavailable
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrUnavailable
	}

	var joke models.ExternalJoke
	if err := json.Unmarshal(body, &joke); err != nil {
		logger.Warn("Malformed body from external joke source", logger.Err(err))
		return nil, ErrUnavailable
	}

	return &joke, nil
}
