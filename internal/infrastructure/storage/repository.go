package storage

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/ports"
	"GoreScanner/internal/severity"
)

const (
	itemsTable    = "scan_items"
	settingsTable = "settings"

	defaultQueryLimit = 500

	// timeLayout is fixed-width so text timestamps sort chronologically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// ErrStorage marks every failure that originates in the store.
var ErrStorage = errors.New("storage failure")

// ErrInvalidItem is returned for items that cannot be keyed.
var ErrInvalidItem = errors.New("item has no canonical url")

// Error wraps a driver error with the failed operation. It matches ErrStorage.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStorage) succeed for any store error.
func (e *Error) Is(target error) bool { return target == ErrStorage }

func fail(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// Dialect selects SQL flavour differences between supported databases.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

var itemColumns = []string{
	"id", "url", "canonical_url", "source_name", "media_type",
	"severity_score", "title", "snippet", "published_at", "created_at", "scanned_at",
}

// Repository persists scan items and settings in SQLite or Postgres.
// Writes are serialised; reads run concurrently.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	builder sq.StatementBuilderType
	writeMu sync.Mutex
	now     func() time.Time
}

var (
	_ ports.ItemRepository     = (*Repository)(nil)
	_ ports.SettingsRepository = (*Repository)(nil)
)

// Open connects to dsn and migrates the schema. postgres:// and
// postgresql:// DSNs use pgx; anything else is a SQLite file path,
// optionally prefixed with sqlite://.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	driver, source, dialect := resolveDSN(dsn)

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fail("open database", err)
	}
	if dialect == DialectSQLite && strings.Contains(source, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fail("ping database", err)
	}

	repo := New(db, dialect)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// New wraps an existing connection pool.
func New(db *sql.DB, dialect Dialect) *Repository {
	placeholder := sq.PlaceholderFormat(sq.Question)
	if dialect == DialectPostgres {
		placeholder = sq.Dollar
	}
	return &Repository{
		db:      db,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func resolveDSN(dsn string) (driver, source string, dialect Dialect) {
	dsn = strings.TrimSpace(dsn)
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return "pgx", dsn, DialectPostgres
	}

	path := strings.TrimPrefix(dsn, "sqlite://")
	if path == "" {
		path = "gorescanner.db"
	}
	if strings.Contains(path, "?") {
		return "sqlite", path, DialectSQLite
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return "sqlite", path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", DialectSQLite
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Migrate creates tables and indexes when missing.
func (r *Repository) Migrate(ctx context.Context) error {
	idColumn, realType := "id INTEGER PRIMARY KEY AUTOINCREMENT", "REAL"
	if r.dialect == DialectPostgres {
		idColumn, realType = "id BIGSERIAL PRIMARY KEY", "DOUBLE PRECISION"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + itemsTable + ` (
			` + idColumn + `,
			url TEXT NOT NULL,
			canonical_url TEXT NOT NULL UNIQUE,
			source_name TEXT NOT NULL DEFAULT '',
			media_type TEXT NOT NULL DEFAULT '',
			severity_score ` + realType + ` NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			snippet TEXT NOT NULL DEFAULT '',
			published_at TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			scanned_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_items_severity ON ` + itemsTable + ` (severity_score)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_items_source ON ` + itemsTable + ` (source_name)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_items_media_type ON ` + itemsTable + ` (media_type)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_items_scanned_at ON ` + itemsTable + ` (scanned_at)`,
		`CREATE TABLE IF NOT EXISTS ` + settingsTable + ` (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fail("migrate schema", err)
		}
	}
	return nil
}

// Insert upserts item by canonical URL and returns the row as stored. A
// repeated URL replaces the row wholesale except for created_at, so the
// returned CreatedAt is the first-insert time.
func (r *Repository) Insert(ctx context.Context, item domain.ScanItem) (domain.ScanItem, error) {
	if strings.TrimSpace(item.CanonicalURL) == "" {
		return domain.ScanItem{}, fail("insert item", ErrInvalidItem)
	}

	now := r.now()
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	stored := item
	if stored.ScannedAt.IsZero() {
		stored.ScannedAt = now
	}
	if stored.URL == "" {
		stored.URL = item.CanonicalURL
	}
	stored.Severity = severity.ClampDisplay(item.Severity)
	stored.Title = domain.Truncate(item.Title, domain.MaxTitleRunes)
	stored.Snippet = domain.Truncate(item.Snippet, domain.MaxSnippetRunes)
	stored.PublishedAt = domain.Truncate(item.PublishedAt, domain.MaxPublishedRunes)

	query, args, err := r.builder.Insert(itemsTable).
		Columns("url", "canonical_url", "source_name", "media_type", "severity_score", "title", "snippet", "published_at", "created_at", "scanned_at").
		Values(
			stored.URL,
			stored.CanonicalURL,
			stored.SourceName,
			string(stored.MediaType),
			stored.Severity,
			stored.Title,
			stored.Snippet,
			stored.PublishedAt,
			formatTime(createdAt),
			formatTime(stored.ScannedAt),
		).
		Suffix(`ON CONFLICT (canonical_url) DO UPDATE
			SET url = EXCLUDED.url,
				source_name = EXCLUDED.source_name,
				media_type = EXCLUDED.media_type,
				severity_score = EXCLUDED.severity_score,
				title = EXCLUDED.title,
				snippet = EXCLUDED.snippet,
				published_at = EXCLUDED.published_at,
				scanned_at = EXCLUDED.scanned_at
			RETURNING id, created_at`).
		ToSql()
	if err != nil {
		return domain.ScanItem{}, fail("build insert", err)
	}

	var storedCreatedAt string
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&stored.ID, &storedCreatedAt); err != nil {
		return domain.ScanItem{}, fail("upsert item", err)
	}
	stored.CreatedAt = parseTime(storedCreatedAt)
	stored.Persisted = true
	return stored, nil
}

// Query returns items with ScoreMin <= severity <= ScoreMax (unbounded when
// ScoreMax is nil), most recently scanned first, capped at Limit (default 500).
func (r *Repository) Query(ctx context.Context, filter domain.ItemFilter) ([]domain.ScanItem, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultQueryLimit
	}
	return r.query(ctx, filter)
}

func (r *Repository) query(ctx context.Context, filter domain.ItemFilter) ([]domain.ScanItem, error) {
	builder := r.builder.Select(itemColumns...).
		From(itemsTable).
		Where(sq.GtOrEq{"severity_score": filter.ScoreMin}).
		OrderBy("scanned_at DESC", "id DESC")
	if filter.ScoreMax != nil {
		builder = builder.Where(sq.LtOrEq{"severity_score": *filter.ScoreMax})
	}
	if filter.SourceName != "" {
		builder = builder.Where(sq.Eq{"source_name": filter.SourceName})
	}
	if filter.MediaType != "" {
		builder = builder.Where(sq.Eq{"media_type": string(filter.MediaType)})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fail("build query", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fail("query items", err)
	}

	var items []domain.ScanItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fail("scan item", err)
		}
		items = append(items, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fail("rows iteration", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fail("close rows", closeErr)
	}

	return items, nil
}

func scanItem(rows *sql.Rows) (domain.ScanItem, error) {
	var (
		item                 domain.ScanItem
		mediaType            string
		createdAt, scannedAt string
	)
	err := rows.Scan(
		&item.ID,
		&item.URL,
		&item.CanonicalURL,
		&item.SourceName,
		&mediaType,
		&item.Severity,
		&item.Title,
		&item.Snippet,
		&item.PublishedAt,
		&createdAt,
		&scannedAt,
	)
	if err != nil {
		return domain.ScanItem{}, err
	}
	item.MediaType = domain.MediaType(mediaType)
	item.CreatedAt = parseTime(createdAt)
	item.ScannedAt = parseTime(scannedAt)
	item.Persisted = true
	return item, nil
}

// Stats reports totals, per-source and per-media-type counts and the average severity.
func (r *Repository) Stats(ctx context.Context) (domain.Stats, error) {
	stats := domain.Stats{
		BySource:    map[string]int{},
		ByMediaType: map[string]int{},
	}

	query, args, err := r.builder.Select("COUNT(*)", "AVG(severity_score)").From(itemsTable).ToSql()
	if err != nil {
		return domain.Stats{}, fail("build stats", err)
	}
	var avg sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&stats.Total, &avg); err != nil {
		return domain.Stats{}, fail("query totals", err)
	}
	if avg.Valid {
		stats.AvgSeverity = math.Round(avg.Float64*100) / 100
	}

	if err := r.countBy(ctx, "source_name", stats.BySource); err != nil {
		return domain.Stats{}, err
	}
	if err := r.countBy(ctx, "media_type", stats.ByMediaType); err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

func (r *Repository) countBy(ctx context.Context, column string, into map[string]int) error {
	query, args, err := r.builder.Select(column, "COUNT(*)").From(itemsTable).GroupBy(column).ToSql()
	if err != nil {
		return fail("build group count", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fail("count by "+column, err)
	}
	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			_ = rows.Close()
			return fail("scan group count", err)
		}
		into[key] = count
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return fail("rows iteration", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return fail("close rows", closeErr)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		if t, err = time.Parse(time.RFC3339Nano, value); err != nil {
			return time.Time{}
		}
	}
	return t.UTC()
}
