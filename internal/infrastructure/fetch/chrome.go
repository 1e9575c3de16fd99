package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"GoreScanner/internal/ports"
)

// ChromeFetcher renders pages in headless Chrome so script-built markup is
// visible to extraction. It requires a Chrome binary on the host.
type ChromeFetcher struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	logger      *slog.Logger
}

var _ ports.PageFetcher = (*ChromeFetcher)(nil)

// NewChromeFetcher starts an exec allocator shared by all fetches.
func NewChromeFetcher(timeout time.Duration, log *slog.Logger) *ChromeFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(defaultUserAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromeFetcher{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		timeout:     timeout,
		logger:      log,
	}
}

// FetchPage navigates to target and returns the rendered document.
func (c *ChromeFetcher) FetchPage(ctx context.Context, target string) (ports.Page, error) {
	taskCtx, cancel := chromedp.NewContext(c.allocCtx)
	defer cancel()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, c.timeout)
	defer cancelTimeout()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html, location string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(target),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&location),
	)
	if err != nil {
		return ports.Page{}, fmt.Errorf("render page: %w", err)
	}
	if c.logger != nil {
		c.logger.Debug("rendered page", "url", target, "bytes", len(html))
	}
	if location == "" {
		location = target
	}
	return ports.Page{URL: location, HTML: []byte(html)}, nil
}

// Close shuts the browser down.
func (c *ChromeFetcher) Close() {
	if c.allocCancel != nil {
		c.allocCancel()
	}
}
