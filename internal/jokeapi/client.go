// Package jokeapi is the bot-side client of the joke service HTTP API.
package jokeapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"jokehub/internal/config"
	"jokehub/internal/models"

	"github.com/goccy/go-json"
)

var (
	ErrNotFound  = errors.New("joke not found")
	ErrForbidden = errors.New("incorrect secret")
)

type Client struct {
	baseURL string
	client  *http.Client
}

func New(cfg config.BotConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: cfg.APIURL,
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

type resultResponse struct {
	Result string `json:"result"`
	JokeID int64  `json:"jokeid"`
}

// Joke is the public shape of a stored joke, as the service returns it.
type Joke struct {
	ID       int64  `json:"id"`
	TgID     int64  `json:"tgid"`
	JokeText string `json:"joketext"`
}

// Random fetches one random joke. ErrNotFound means both of the service's
// sources came up empty.
func (c *Client) Random(ctx context.Context) (string, error) {
	var res resultResponse
	if err := c.do(ctx, http.MethodGet, "/randomjoke", nil, &res); err != nil {
		return "", err
	}
	return res.Result, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*Joke, error) {
	var joke Joke
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/userjoke/%d", id), nil, &joke); err != nil {
		return nil, err
	}
	return &joke, nil
}

func (c *Client) Create(ctx context.Context, tgID int64, secret, text string) (int64, error) {
	body := map[string]any{
		"tgid":     tgID,
		"secret":   secret,
		"joketext": text,
	}
	var res resultResponse
	if err := c.do(ctx, http.MethodPost, "/userjoke", body, &res); err != nil {
		return 0, err
	}
	return res.JokeID, nil
}

func (c *Client) Update(ctx context.Context, id int64, patch models.JokePatch) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/userjoke/%d", id), patch, nil)
}

func (c *Client) Delete(ctx context.Context, id int64, secret string) error {
	body := map[string]string{"secret": secret}
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/userjoke/%d", id), body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("joke service request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusForbidden:
		return ErrForbidden
	default:
		return fmt.Errorf("joke service returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
