// Package rss searches news through an RSS search feed such as Google News.
package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/provider"
)

// DefaultSearchURL is the Google News search feed.
const DefaultSearchURL = "https://news.google.com/rss/search"

// Client implements provider.Provider over an RSS search endpoint.
type Client struct {
	searchURL string
	client    *http.Client
	logger    *slog.Logger
}

var _ provider.Provider = (*Client)(nil)

// NewClient builds a client. An empty searchURL selects DefaultSearchURL.
func NewClient(client *http.Client, searchURL string, log *slog.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	return &Client{
		searchURL: searchURL,
		client:    client,
		logger:    log,
	}
}

// Name implements provider.Provider.
func (c *Client) Name() string {
	return provider.RSS
}

// Search fetches and parses the feed for req.Query.
func (c *Client) Search(ctx context.Context, req provider.Request) ([]domain.RawResult, error) {
	u, err := url.Parse(c.searchURL)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	q := u.Query()
	q.Set("q", req.Query)
	q.Set("hl", "en-US")
	q.Set("gl", "US")
	q.Set("ceid", "US:en")
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	source := strings.TrimSpace(feed.Title)
	if source == "" {
		source = "RSS"
	}

	results := make([]domain.RawResult, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if req.MaxResults > 0 && len(results) >= req.MaxResults {
			break
		}
		if entry.Link == "" {
			continue
		}
		results = append(results, domain.RawResult{
			URL:         entry.Link,
			Title:       entry.Title,
			Description: plainText(entry.Description),
			SourceName:  source,
			ImageURL:    imageOf(entry),
			MediaType:   domain.MediaArticle,
			Provider:    provider.RSS,
			PublishedAt: entry.Published,
		})
	}
	if c.logger != nil {
		c.logger.Debug("feed parsed", "items", len(feed.Items), "kept", len(results))
	}
	return results, nil
}

func imageOf(entry *gofeed.Item) string {
	if entry.Image != nil && entry.Image.URL != "" {
		return entry.Image.URL
	}
	for _, enc := range entry.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

// plainText strips markup from feed descriptions.
func plainText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
