package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"GoreScanner/internal/api"
	"GoreScanner/internal/config"
	"GoreScanner/internal/domain"
	"GoreScanner/internal/infrastructure/auditlog"
	"GoreScanner/internal/infrastructure/cache"
	"GoreScanner/internal/infrastructure/duckduckgo"
	"GoreScanner/internal/infrastructure/fetch"
	"GoreScanner/internal/infrastructure/newsapi"
	"GoreScanner/internal/infrastructure/rss"
	"GoreScanner/internal/infrastructure/scheduler"
	"GoreScanner/internal/infrastructure/storage"
	"GoreScanner/internal/infrastructure/telegram"
	"GoreScanner/internal/logging"
	"GoreScanner/internal/metrics"
	"GoreScanner/internal/ports"
	"GoreScanner/internal/provider"
	"GoreScanner/internal/severity"
	"GoreScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	repo     *storage.Repository
	metrics  *metrics.Metrics
	scanner  *usecase.Scanner
	verifier *usecase.Verifier
	closers  []func()
}

// New opens the store, applies persisted settings over cfg and builds the
// scan and verify pipelines.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	repo, err := storage.Open(ctx, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a := &Application{
		logger:  baseLogger,
		repo:    repo,
		metrics: metrics.New(),
	}
	a.closers = append(a.closers, func() { _ = repo.Close() })

	settings, err := repo.Settings(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if err := cfg.ApplySettings(settings); err != nil {
		baseLogger.Warn("ignored invalid persisted settings", "error", err)
	}
	a.cfg = cfg

	httpClient := &http.Client{Timeout: cfg.Providers.FetchTimeout}
	scorer := severity.NewScorer(severity.Options{
		HTTPClient: httpClient,
		Timeout:    cfg.Providers.FetchTimeout,
		Cache:      a.scoreCache(ctx),
		Logger:     logging.Component(baseLogger, "severity"),
	})

	audit := auditlog.New(cfg.Audit.Dir, logging.Component(baseLogger, "auditlog"))
	scoring := usecase.ScoringConfig{
		AutoLogSeverityMin:   cfg.Scoring.AutoLogSeverityMin,
		GoreVerifyThreshold:  cfg.Scoring.GoreVerifyThreshold,
		AlertSeverityMin:     cfg.Scoring.AlertSeverityMin,
		IncludeArticleImages: cfg.Scoring.IncludeArticleImages,
		ScoreThumbnails:      cfg.Scoring.ScoreThumbnails,
	}

	var notifier ports.Notifier
	if tg := telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID); tg.Configured() {
		notifier = tg
	}

	a.scanner = usecase.NewScanner(usecase.PipelineDeps{
		Source:           provider.NewSource(a.registry(httpClient), cfg.Providers.FetchTimeout, logging.Component(baseLogger, "source")),
		Scorer:           scorer,
		Repository:       repo,
		Audit:            audit,
		Notifier:         notifier,
		Metrics:          a.metrics,
		Logger:           logging.Component(baseLogger, "scanner"),
		Scoring:          scoring,
		DefaultProviders: cfg.Providers.EnabledDefaults(),
		MaxResults:       cfg.Providers.MaxResults,
	})

	a.verifier = usecase.NewVerifier(usecase.VerifierDeps{
		Fetcher:     a.pageFetcher(httpClient),
		Scorer:      scorer,
		Audit:       audit,
		Metrics:     a.metrics,
		Logger:      logging.Component(baseLogger, "verifier"),
		Scoring:     scoring,
		Concurrency: cfg.Verify.Concurrency,
	})

	return a, nil
}

// registry registers every enabled provider.
func (a *Application) registry(client *http.Client) *provider.Registry {
	cfg := a.cfg.Providers
	reg := provider.NewRegistry()

	if cfg.Enabled(config.ProviderNews) {
		reg.Register(newsapi.NewClient(client, cfg.News.BaseURL, cfg.News.APIKey, logging.Component(a.logger, "provider.news")))
	}

	ddg := duckduckgo.NewClient(client, cfg.DuckDuckGo.BaseURL, cfg.DuckDuckGo.HTMLURL, logging.Component(a.logger, "provider.duckduckgo"))
	if cfg.Enabled(config.ProviderDDGImages) {
		reg.Register(ddg.Images())
	}
	if cfg.Enabled(config.ProviderDDGVideos) {
		reg.Register(ddg.Videos())
	}
	if cfg.Enabled(config.ProviderDDGText) {
		reg.Register(ddg.Text())
	}

	if cfg.Enabled(config.ProviderRSS) {
		reg.Register(rss.NewClient(client, cfg.RSS.SearchURL, logging.Component(a.logger, "provider.rss")))
	}
	return reg
}

// scoreCache prefers Redis when configured and falls back to memory.
func (a *Application) scoreCache(ctx context.Context) ports.ScoreCache {
	if a.cfg.Cache.RedisAddr == "" {
		return cache.NewMemory(a.cfg.Cache.TTL)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rc, err := cache.NewRedis(pingCtx, a.cfg.Cache.RedisAddr, a.cfg.Cache.TTL, logging.Component(a.logger, "cache"))
	if err != nil {
		a.logger.Warn("redis cache unavailable, using memory", "addr", a.cfg.Cache.RedisAddr, "error", err)
		return cache.NewMemory(a.cfg.Cache.TTL)
	}
	a.closers = append(a.closers, func() { _ = rc.Close() })
	return rc
}

func (a *Application) pageFetcher(client *http.Client) ports.PageFetcher {
	if a.cfg.Verify.Render {
		cf := fetch.NewChromeFetcher(a.cfg.Providers.FetchTimeout, logging.Component(a.logger, "fetch.chrome"))
		a.closers = append(a.closers, cf.Close)
		return cf
	}
	return fetch.NewHTTPFetcher(client, a.cfg.Providers.FetchTimeout, logging.Component(a.logger, "fetch.http"))
}

// Config returns the effective configuration after persisted settings.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Scan runs one scan in the foreground.
func (a *Application) Scan(ctx context.Context, req usecase.ScanRequest) (*usecase.ScanResult, error) {
	return a.scanner.Scan(ctx, req)
}

// Verify re-scores urls in the foreground.
func (a *Application) Verify(ctx context.Context, urls []string) []domain.VerifyResult {
	return a.verifier.Verify(ctx, urls)
}

// Query lists stored items.
func (a *Application) Query(ctx context.Context, filter domain.ItemFilter) ([]domain.ScanItem, error) {
	return a.repo.Query(ctx, filter)
}

// Stats summarises stored items.
func (a *Application) Stats(ctx context.Context) (domain.Stats, error) {
	return a.repo.Stats(ctx)
}

// Export writes matching items to a CSV file.
func (a *Application) Export(ctx context.Context, path string, filter domain.ItemFilter) (int, error) {
	return a.repo.ExportCSV(ctx, path, filter)
}

// Settings returns persisted settings.
func (a *Application) Settings(ctx context.Context) (map[string]string, error) {
	return a.repo.Settings(ctx)
}

// SetSetting validates and persists one setting. It takes effect on the
// next start.
func (a *Application) SetSetting(ctx context.Context, key, value string) error {
	if err := config.ValidateSetting(key, value); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return a.repo.SetSetting(ctx, key, value)
}

// Serve runs the HTTP API until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	jobs := usecase.NewJobs(ctx, a.scanner, a.verifier)
	defer jobs.Wait()

	server := api.NewServer(api.Deps{
		Jobs:       jobs,
		Repository: a.repo,
		Metrics:    a.metrics,
		Logger:     logging.Component(a.logger, "api"),
	})
	return server.Run(ctx, a.cfg.HTTP.Addr)
}

// Watch re-runs the configured watch queries until ctx is cancelled.
func (a *Application) Watch(ctx context.Context) error {
	if len(a.cfg.Watch.Queries) == 0 {
		return fmt.Errorf("no watch queries configured")
	}
	watcher := usecase.NewWatcher(
		scheduler.NewTickerScheduler(a.cfg.Watch.Interval),
		a.scanner,
		a.cfg.Watch.Queries,
		logging.Component(a.logger, "watch"),
	)
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return watcher.Stop(stopCtx)
}

// Close releases the store, cache and browser.
func (a *Application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
