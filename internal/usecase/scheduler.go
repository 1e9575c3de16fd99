package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"GoreScanner/internal/ports"
)

// Watcher wires the ticker driver with the scanner: every tick runs each
// watch query once.
type Watcher struct {
	driver  ports.Scheduler
	scanner *Scanner
	queries []string
	logger  *slog.Logger
}

// NewWatcher returns a helper to start/stop recurring scans.
func NewWatcher(driver ports.Scheduler, scanner *Scanner, queries []string, log *slog.Logger) *Watcher {
	return &Watcher{driver: driver, scanner: scanner, queries: queries, logger: log}
}

// Start registers the watch job with the provided scheduler.
func (w *Watcher) Start(ctx context.Context) error {
	if w.driver == nil || w.scanner == nil || len(w.queries) == 0 {
		return nil
	}

	job := func(trigger time.Time) {
		for _, q := range w.queries {
			if ctx.Err() != nil {
				return
			}
			result, err := w.scanner.Scan(ctx, ScanRequest{Query: q})
			if err != nil && !errors.Is(err, ErrStorage) {
				w.log(slog.LevelWarn, "watch scan failed", "query", q, "error", err)
				continue
			}
			w.log(slog.LevelInfo, "watch scan done",
				"query", q,
				"trigger", trigger.Format(time.RFC3339),
				"items", len(result.Items),
				"provider_errors", len(result.ProviderErrors))
		}
	}

	return w.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (w *Watcher) Stop(ctx context.Context) error {
	if w.driver == nil {
		return nil
	}

	return w.driver.Stop(ctx)
}

func (w *Watcher) log(level slog.Level, msg string, args ...interface{}) {
	if w.logger != nil {
		w.logger.Log(context.Background(), level, msg, args...)
	}
}
