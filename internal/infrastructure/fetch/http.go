// Package fetch downloads pages for the verify pass and extracts the parts
// the scorer needs.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"GoreScanner/internal/ports"
)

const (
	defaultTimeout   = 8 * time.Second
	defaultMaxBytes  = 4 << 20
	defaultUserAgent = "Mozilla/5.0 (compatible; GoreScanner/1.0)"
)

// HTTPFetcher retrieves raw HTML over plain HTTP.
type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	maxBytes  int64
	userAgent string
	logger    *slog.Logger
}

var _ ports.PageFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher builds a fetcher. A nil client falls back to http.DefaultClient
// and a zero timeout to eight seconds.
func NewHTTPFetcher(client *http.Client, timeout time.Duration, log *slog.Logger) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPFetcher{
		client:    client,
		timeout:   timeout,
		maxBytes:  defaultMaxBytes,
		userAgent: defaultUserAgent,
		logger:    log,
	}
}

// FetchPage downloads target and returns its body.
func (f *HTTPFetcher) FetchPage(ctx context.Context, target string) (ports.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return ports.Page{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	f.debug("fetch page", "url", target)
	resp, err := f.client.Do(req)
	if err != nil {
		return ports.Page{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ports.Page{}, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return ports.Page{}, fmt.Errorf("read body: %w", err)
	}

	final := target
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return ports.Page{URL: final, HTML: body}, nil
}

func (f *HTTPFetcher) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
