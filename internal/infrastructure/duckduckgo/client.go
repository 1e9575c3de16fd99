// Package duckduckgo adapts DuckDuckGo image, video and text search to
// provider.Provider.
package duckduckgo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
)

// Default endpoints.
const (
	DefaultBaseURL = "https://duckduckgo.com"
	DefaultHTMLURL = "https://html.duckduckgo.com/html/"
)

const (
	sourceName = "DuckDuckGo"
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	maxPage    = 2 << 20
)

// ErrNoToken is returned when the search page carries no vqd token.
var ErrNoToken = errors.New("duckduckgo: vqd token not found")

var vqdPattern = regexp.MustCompile(`vqd=["']?([0-9-]+)["']?`)

// Client holds the transport shared by the three search flavours.
type Client struct {
	baseURL string
	htmlURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient builds a client. Empty URLs select the production endpoints.
func NewClient(client *http.Client, baseURL, htmlURL string, log *slog.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if htmlURL == "" {
		htmlURL = DefaultHTMLURL
	}
	return &Client{
		baseURL: baseURL,
		htmlURL: htmlURL,
		client:  client,
		logger:  log,
	}
}

// Images returns the image search provider.
func (c *Client) Images() *ImageSearch { return &ImageSearch{c: c} }

// Videos returns the video search provider.
func (c *Client) Videos() *VideoSearch { return &VideoSearch{c: c} }

// Text returns the web text search provider.
func (c *Client) Text() *TextSearch { return &TextSearch{c: c} }

// token obtains the vqd value required by the JSON endpoints.
func (c *Client) token(ctx context.Context, query string) (string, error) {
	body, err := c.get(ctx, c.baseURL+"/", url.Values{"q": {query}})
	if err != nil {
		return "", fmt.Errorf("load search page: %w", err)
	}
	m := vqdPattern.FindSubmatch(body)
	if m == nil {
		return "", ErrNoToken
	}
	return string(m[1]), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	target := endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.baseURL+"/")

	c.debug("request", "endpoint", endpoint)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPage))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (c *Client) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func limit(n, max int) int {
	if max > 0 && n > max {
		return max
	}
	return n
}
