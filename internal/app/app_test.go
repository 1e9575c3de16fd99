package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"GoreScanner/internal/config"
	"GoreScanner/internal/domain"
	"GoreScanner/internal/usecase"
)

func testConfig(t *testing.T, newsURL string) config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Storage.DSN = filepath.Join(dir, "app.db")
	cfg.Audit.Dir = filepath.Join(dir, "logs")
	cfg.Providers.FetchTimeout = 2 * time.Second
	cfg.Providers.News.BaseURL = newsURL
	cfg.Providers.News.APIKey = "key"
	cfg.Providers.DuckDuckGo = config.DuckDuckGoConfig{}
	cfg.Providers.RSS.Enabled = false
	return cfg
}

func newsServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","articles":[
			{"source":{"name":"Wire"},"title":"Massacre in the square","url":"https://wire.example/1"},
			{"source":{"name":"Wire"},"title":"Calm day","url":"https://wire.example/2"},
			{"source":{"name":"Wire"},"title":"Calm day again","url":"https://WIRE.example/2/"}
		]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestApplicationScanPersistsAndLogs(t *testing.T) {
	t.Parallel()

	server := newsServer(t)
	cfg := testConfig(t, server.URL)
	ctx := context.Background()

	a, err := New(ctx, cfg, quietLogger())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer a.Close()

	result, err := a.Scan(ctx, usecase.ScanRequest{Query: "square"})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(result.Items) != 2 || result.Duplicates != 1 {
		t.Fatalf("unexpected scan result: items=%d duplicates=%d", len(result.Items), result.Duplicates)
	}

	stats, err := a.Stats(ctx)
	if err != nil || stats.Total != 2 || stats.BySource["Wire"] != 2 {
		t.Fatalf("unexpected stats: %+v (%v)", stats, err)
	}

	entries, err := os.ReadDir(cfg.Audit.Dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one audit file, got %v (%v)", entries, err)
	}

	out := filepath.Join(t.TempDir(), "export.csv")
	n, err := a.Export(ctx, out, domain.ItemFilter{ScoreMin: 0.5})
	if err != nil || n != 1 {
		t.Fatalf("expected 1 exported row, got %d (%v)", n, err)
	}
}

func TestApplicationPersistedSettingsOverrideConfig(t *testing.T) {
	t.Parallel()

	server := newsServer(t)
	cfg := testConfig(t, server.URL)
	ctx := context.Background()

	a, err := New(ctx, cfg, quietLogger())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := a.SetSetting(ctx, config.SettingAutoLogSeverityMin, "0.9"); err != nil {
		t.Fatalf("SetSetting error: %v", err)
	}
	if err := a.SetSetting(ctx, config.EnabledKey(config.ProviderNews), "maybe"); err == nil {
		t.Fatalf("expected validation error")
	}
	a.Close()

	reopened, err := New(ctx, cfg, quietLogger())
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	if reopened.Config().Scoring.AutoLogSeverityMin != 0.9 {
		t.Fatalf("persisted setting not applied: %v", reopened.Config().Scoring.AutoLogSeverityMin)
	}
	settings, err := reopened.Settings(ctx)
	if err != nil || len(settings) != 1 {
		t.Fatalf("unexpected settings: %v (%v)", settings, err)
	}
}

func TestApplicationVerifyUnreachable(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "")
	ctx := context.Background()
	a, err := New(ctx, cfg, quietLogger())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer a.Close()

	results := a.Verify(ctx, []string{"http://127.0.0.1:1/page"})
	if len(results) != 1 || results[0].GoreFlag || results[0].Severity != 0.1 || !strings.HasPrefix(results[0].Details, "error:") {
		t.Fatalf("unexpected verify results: %+v", results)
	}
}

func TestApplicationWatchRequiresQueries(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "")
	a, err := New(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer a.Close()

	if err := a.Watch(context.Background()); err == nil {
		t.Fatalf("expected error without watch queries")
	}
}
