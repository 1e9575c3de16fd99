// Package auditlog appends severe findings to one CSV file per calendar day.
package auditlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/ports"
)

// MaxFieldRunes caps title and snippet length in the log.
const MaxFieldRunes = 500

// Header is written once at the top of every daily file.
var Header = []string{"datetime", "source", "url", "title", "media_type", "severity", "gore_flagged", "snippet"}

// Logger writes audit records below dir. It never reports failures to the
// caller; they are logged and dropped.
type Logger struct {
	dir    string
	mu     sync.Mutex
	now    func() time.Time
	logger *slog.Logger
}

var _ ports.AuditLogger = (*Logger)(nil)

// New returns a logger writing into dir.
func New(dir string, log *slog.Logger) *Logger {
	return &Logger{
		dir:    dir,
		now:    time.Now,
		logger: log,
	}
}

// FileName returns the log file name for the calendar day of t.
func FileName(t time.Time) string {
	return "gore_log_" + t.Format("2006-01-02") + ".csv"
}

// Append writes record to the file of its day, creating the file with a
// header when it does not exist yet.
func (l *Logger) Append(record domain.AuditRecord) {
	if l == nil {
		return
	}
	if err := l.append(record); err != nil && l.logger != nil {
		l.logger.Warn("audit log append failed", "url", record.URL, "error", err)
	}
}

func (l *Logger) append(record domain.AuditRecord) error {
	if record.Time.IsZero() {
		record.Time = l.now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(l.dir, FileName(record.Time))
	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(Header); err != nil {
			_ = f.Close()
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.Write(row(record)); err != nil {
		_ = f.Close()
		return fmt.Errorf("write record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush record: %w", err)
	}
	return f.Close()
}

func row(record domain.AuditRecord) []string {
	flagged := "No"
	if record.GoreFlagged {
		flagged = "Yes"
	}
	return []string{
		record.Time.Format("2006-01-02 15:04:05"),
		record.Source,
		record.URL,
		domain.Truncate(record.Title, MaxFieldRunes),
		string(record.MediaType),
		strconv.FormatFloat(record.Severity, 'f', 2, 64),
		flagged,
		domain.Truncate(record.Snippet, MaxFieldRunes),
	}
}
