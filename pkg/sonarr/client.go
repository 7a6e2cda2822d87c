package sonarr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors for Sonarr API responses.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized: invalid API key")
	ErrRateLimited  = errors.New("rate limited: too many requests")
)

// API path prefixes.
const (
	APIv3     = "v3"
	APILegacy = "legacy"
)

// Client is a Sonarr API client authenticated with an API key.
type Client struct {
	baseURL    string
	apiPath    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAPIVersion selects /api/v3 (APIv3) or /api (APILegacy).
func WithAPIVersion(v string) Option {
	return func(c *Client) {
		if v == APILegacy {
			c.apiPath = "/api"
		} else {
			c.apiPath = "/api/v3"
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log.With("component", "sonarr")
	}
}

// New creates a new Sonarr client. baseURL is the Sonarr root, e.g. http://localhost:8989.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiPath: "/api/v3",
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest performs an authenticated request and checks the status code.
// The caller closes the body of a successful response.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, body any) (*http.Response, error) {
	u := c.baseURL + c.apiPath + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if err := c.checkResponse(resp); err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, v any) error {
	resp, err := c.doRequest(ctx, http.MethodGet, endpoint, params, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// Status fetches the Sonarr version. Used as a connectivity check.
func (c *Client) Status(ctx context.Context) (string, error) {
	var status systemStatus
	if err := c.getJSON(ctx, "/system/status", nil, &status); err != nil {
		return "", err
	}
	return status.Version, nil
}

// ListSeries returns every series in the Sonarr library.
func (c *Client) ListSeries(ctx context.Context) ([]Series, error) {
	start := time.Now()

	var series []Series
	if err := c.getJSON(ctx, "/series", nil, &series); err != nil {
		return nil, err
	}

	if c.log != nil {
		c.log.Debug("fetched series", "count", len(series), "duration_ms", time.Since(start).Milliseconds())
	}
	return series, nil
}

// GetSeries fetches a single series by ID.
func (c *Client) GetSeries(ctx context.Context, id int) (*Series, error) {
	var s Series
	if err := c.getJSON(ctx, fmt.Sprintf("/series/%d", id), nil, &s); err != nil {
		if c.log != nil && errors.Is(err, ErrNotFound) {
			c.log.Debug("series not found", "id", id)
		}
		return nil, err
	}
	return &s, nil
}

// ListEpisodes returns all episodes of a series.
func (c *Client) ListEpisodes(ctx context.Context, seriesID int) ([]Episode, error) {
	start := time.Now()

	params := url.Values{"seriesId": []string{strconv.Itoa(seriesID)}}
	var episodes []Episode
	if err := c.getJSON(ctx, "/episode", params, &episodes); err != nil {
		return nil, err
	}

	if c.log != nil {
		c.log.Debug("fetched episodes", "series_id", seriesID, "count", len(episodes), "duration_ms", time.Since(start).Milliseconds())
	}
	return episodes, nil
}

// RescanSeries queues a disk rescan of one series.
func (c *Client) RescanSeries(ctx context.Context, seriesID int) (*Command, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/command", nil, commandRequest{Name: "RescanSeries", SeriesID: seriesID})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var cmd Command
	if err := json.NewDecoder(resp.Body).Decode(&cmd); err != nil {
		return nil, fmt.Errorf("decode command response: %w", err)
	}

	if c.log != nil {
		c.log.Debug("queued rescan", "series_id", seriesID, "command_id", cmd.ID)
	}
	return &cmd, nil
}

// checkResponse checks the HTTP response for errors and returns appropriate sentinel errors.
func (c *Client) checkResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("sonarr API error: %s", resp.Status)
	}
}
