// HTTP client for the sortifyr backend API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortifyr/internal/models"
	"github.com/desertthunder/sortifyr/internal/shared"
	"golang.org/x/time/rate"
)

const defaultBaseURL string = "http://127.0.0.1:3000"

const (
	linksPath       = "/api/link"
	linksSyncPath   = "/api/link/sync"
	directoriesPath = "/api/directory"
	playlistsPath   = "/api/playlist"
)

// Client provides methods for calling the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithRateLimit limits the client to rps requests per second. Zero disables throttling.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a new backend API client.
func NewClient(baseURL string, client *http.Client, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig creates a [Client] from the [api] config section.
func NewClientFromConfig(cfg shared.APIConfig, logger *log.Logger) *Client {
	return NewClient(
		cfg.BaseURL,
		&http.Client{Timeout: cfg.Timeout()},
		WithRateLimit(cfg.RateLimit),
		WithLogger(logger),
	)
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the status code is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response.
func (c *Client) Get(ctx context.Context, path string) (*APIResponse, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (c *Client) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return c.do(ctx, http.MethodPost, path, data)
}

func (c *Client) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	fullURL := c.baseURL + path

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("api request", "method", method, "path", path, "status", resp.StatusCode)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}

	var jsonData any
	if err := json.Unmarshal(respBody, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// doJSON sends in (when non-nil) as the request body and decodes a 2xx
// response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var data []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		data = b
	}

	resp, err := c.do(ctx, method, path, data)
	if err != nil {
		return err
	}

	if !resp.OK() {
		return apiError(method, path, resp)
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func apiError(method, path string, resp *APIResponse) error {
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("%w: %s %s (status %d): %s", shared.ErrAPIRequest, method, path, resp.StatusCode, errResp.Error)
	}

	msg := strings.TrimSpace(string(resp.Body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("%w: %s %s (status %d): %s", shared.ErrAPIRequest, method, path, resp.StatusCode, msg)
}

// GetLinks retrieves all links.
//
// Calls GET /api/link.
func (c *Client) GetLinks(ctx context.Context) ([]models.Link, error) {
	var links []models.Link
	if err := c.doJSON(ctx, http.MethodGet, linksPath, nil, &links); err != nil {
		return nil, err
	}
	return links, nil
}

// SyncLinks replaces the stored links with links and returns the stored set
// with ids assigned.
//
// Calls POST /api/link/sync.
func (c *Client) SyncLinks(ctx context.Context, links []models.Link) ([]models.Link, error) {
	if links == nil {
		links = []models.Link{}
	}

	var saved []models.Link
	if err := c.doJSON(ctx, http.MethodPost, linksSyncPath, links, &saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// GetDirectories retrieves the directory tree.
//
// Calls GET /api/directory.
func (c *Client) GetDirectories(ctx context.Context) ([]models.Directory, error) {
	var dirs []models.Directory
	if err := c.doJSON(ctx, http.MethodGet, directoriesPath, nil, &dirs); err != nil {
		return nil, err
	}
	return dirs, nil
}

// GetPlaylists retrieves all playlists.
//
// Calls GET /api/playlist.
func (c *Client) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	if err := c.doJSON(ctx, http.MethodGet, playlistsPath, nil, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}
