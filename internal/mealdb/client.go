// Package mealdb searches TheMealDB and normalizes its meals into recipes.
package mealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/recipe-pages/backend/internal/metrics"
	"github.com/pageza/recipe-pages/backend/internal/types"
	apperrors "github.com/pageza/recipe-pages/backend/pkg/errors"
)

// DefaultBaseURL is the public v1 API with the shared test key
const DefaultBaseURL = "https://www.themealdb.com/api/json/v1/1"

// searchResponse is the body of search.php. Meals is null on no match.
type searchResponse struct {
	Meals []Meal `json:"meals"`
}

// Searcher finds recipes by keyword
type Searcher interface {
	Search(ctx context.Context, keyword string) ([]types.Recipe, error)
}

// Client talks to the TheMealDB search endpoint
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a new Client instance
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Search runs one search.php query and returns the matched recipes in API
// order. No match is a not-found error; transport or decoding failures are
// upstream rejections.
func (c *Client) Search(ctx context.Context, keyword string) (recipes []types.Recipe, err error) {
	keyword, err = NormalizeKeyword(keyword)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { metrics.ObserveUpstream(metrics.TargetMealDB, start, err) }()

	endpoint := fmt.Sprintf("%s/search.php?s=%s", c.baseURL, url.QueryEscape(keyword))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("").WithCause(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamRejectionError("Recipe Search Failed", fmt.Errorf("failed to send request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewUpstreamRejectionError("Recipe Search Failed", fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewUpstreamRejectionError("Recipe Search Failed",
			fmt.Errorf("search API returned status %d", resp.StatusCode))
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, apperrors.NewUpstreamRejectionError("Recipe Search Failed", fmt.Errorf("failed to parse response: %w", err))
	}

	if len(result.Meals) == 0 {
		return nil, apperrors.NewNotFoundError("No Items Match Your Search")
	}

	recipes = Normalize(result.Meals)
	c.logger.Info("Fetched recipes",
		zap.String("keyword", keyword),
		zap.Int("count", len(recipes)))
	return recipes, nil
}
