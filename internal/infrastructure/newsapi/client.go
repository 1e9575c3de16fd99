// Package newsapi searches articles through the NewsAPI.org everything endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/provider"
)

// DefaultBaseURL is the production endpoint.
const DefaultBaseURL = "https://newsapi.org/v2/everything"

const maxPageSize = 100

// ErrMissingKey is returned when no API key is configured.
var ErrMissingKey = errors.New("newsapi: api key is not configured")

// Client implements provider.Provider for NewsAPI.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

var _ provider.Provider = (*Client)(nil)

// NewClient builds a client. An empty baseURL selects DefaultBaseURL.
func NewClient(client *http.Client, baseURL, apiKey string, log *slog.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
		logger:  log,
	}
}

// Name implements provider.Provider.
func (c *Client) Name() string {
	return provider.News
}

type response struct {
	Status   string    `json:"status"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Articles []article `json:"articles"`
}

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}

// Search runs an English relevancy-sorted query.
func (c *Client) Search(ctx context.Context, req provider.Request) ([]domain.RawResult, error) {
	if c.apiKey == "" {
		return nil, ErrMissingKey
	}

	pageSize := req.MaxResults
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("q", req.Query)
	q.Set("language", "en")
	q.Set("sortBy", "relevancy")
	q.Set("pageSize", strconv.Itoa(pageSize))
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	c.debug("search", "query", req.Query, "page_size", pageSize)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response (%s): %w", resp.Status, err)
	}
	if resp.StatusCode != http.StatusOK || payload.Status == "error" {
		return nil, fmt.Errorf("newsapi error: %s %s: %s", resp.Status, payload.Code, payload.Message)
	}

	results := make([]domain.RawResult, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if a.URL == "" {
			continue
		}
		source := a.Source.Name
		if source == "" {
			source = "News"
		}
		results = append(results, domain.RawResult{
			URL:         a.URL,
			Title:       a.Title,
			Description: a.Description,
			SourceName:  source,
			ImageURL:    a.URLToImage,
			MediaType:   domain.MediaArticle,
			Provider:    provider.News,
			PublishedAt: a.PublishedAt,
		})
	}
	return results, nil
}

func (c *Client) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
