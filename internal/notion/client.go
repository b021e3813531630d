// Package notion creates pages through the Notion REST API.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/pageza/recipe-pages/backend/internal/metrics"
)

const (
	DefaultAPIURL  = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"
)

// ClientConfig configures the API client
type ClientConfig struct {
	APIURL            string
	Version           string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client sends page requests, paced by a shared limiter
type Client struct {
	apiURL  string
	version string
	base    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a new Client instance
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		apiURL:  strings.TrimRight(cfg.APIURL, "/"),
		version: cfg.Version,
		base:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// CreatePage creates a page. An error document comes back as *APIError.
// Requests with more than MaxChildrenPerRequest children are created with
// the first batch and the rest is appended.
func (c *Client) CreatePage(ctx context.Context, token *oauth2.Token, req *CreatePageRequest) (*Page, error) {
	first := *req
	var rest []Block
	if len(req.Children) > MaxChildrenPerRequest {
		first.Children = req.Children[:MaxChildrenPerRequest]
		rest = req.Children[MaxChildrenPerRequest:]
	}

	var page Page
	if err := c.do(ctx, token, http.MethodPost, "/pages", &first, &page); err != nil {
		return nil, err
	}

	if len(rest) > 0 {
		if err := c.AppendChildren(ctx, token, page.ID, rest); err != nil {
			return &page, err
		}
	}
	return &page, nil
}

// AppendChildren appends blocks to a page or block in batches
func (c *Client) AppendChildren(ctx context.Context, token *oauth2.Token, blockID string, children []Block) error {
	for len(children) > 0 {
		n := len(children)
		if n > MaxChildrenPerRequest {
			n = MaxChildrenPerRequest
		}
		body := struct {
			Children []Block `json:"children"`
		}{Children: children[:n]}

		if err := c.do(ctx, token, http.MethodPatch, "/blocks/"+blockID+"/children", &body, nil); err != nil {
			return err
		}
		children = children[n:]
	}
	return nil
}

// ArchivePage moves a page to the trash
func (c *Client) ArchivePage(ctx context.Context, token *oauth2.Token, pageID string) error {
	body := map[string]bool{"archived": true}
	return c.do(ctx, token, http.MethodPatch, "/pages/"+pageID, body, nil)
}

// do sends one JSON request with the bearer token and decodes the response
// into out. A non-2xx status or an "error" object is returned as *APIError.
func (c *Client) do(ctx context.Context, token *oauth2.Token, method, path string, in, out any) (err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	defer func() { metrics.ObserveUpstream(metrics.TargetNotionPages, start, err) }()

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", c.version)

	httpClient := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.base), oauth2.StaticTokenSource(token))
	httpClient.Timeout = c.base.Timeout

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var apiErr APIError
	_ = json.Unmarshal(body, &apiErr)
	if apiErr.Object == "error" || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if apiErr.Status == 0 {
			apiErr.Status = resp.StatusCode
		}
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		apiErr.Object = "error"
		c.logger.Warn("Notion API rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", apiErr.Status),
			zap.String("code", apiErr.Code))
		return &apiErr
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
