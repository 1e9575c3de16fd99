package ports

import (
	"context"
	"time"

	"GoreScanner/internal/domain"
)

// ItemRepository persists scanned items keyed by canonical URL. Insert
// returns the item as stored, including its first-insert CreatedAt.
type ItemRepository interface {
	Insert(ctx context.Context, item domain.ScanItem) (domain.ScanItem, error)
	Query(ctx context.Context, filter domain.ItemFilter) ([]domain.ScanItem, error)
	Stats(ctx context.Context) (domain.Stats, error)
	ExportCSV(ctx context.Context, path string, filter domain.ItemFilter) (int, error)
}

// SettingsRepository keeps user settings (provider toggles, credentials) across runs.
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
	Settings(ctx context.Context) (map[string]string, error)
}

// AuditLogger mirrors severe items into the append-only daily log.
// Implementations must never fail the caller.
type AuditLogger interface {
	Append(record domain.AuditRecord)
}

// Page is a fetched HTML document.
type Page struct {
	URL  string
	HTML []byte
}

// PageFetcher downloads a page for the verify pass.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (Page, error)
}

// ScoreCache stores image scores keyed by image URL.
type ScoreCache interface {
	Get(ctx context.Context, key string) (float64, bool)
	Set(ctx context.Context, key string, score float64)
}

// Notifier streams severe-item digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when recurring scans execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
