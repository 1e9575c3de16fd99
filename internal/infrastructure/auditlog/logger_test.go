package auditlog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"GoreScanner/internal/domain"
)

func readRecords(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return records
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger := New(dir, nil)
	day := time.Date(2026, 10, 18, 9, 30, 0, 0, time.Local)

	for i := 0; i < 3; i++ {
		logger.Append(domain.AuditRecord{
			Time:        day.Add(time.Duration(i) * time.Minute),
			Source:      "News",
			URL:         "https://example.com/a",
			Title:       "title",
			MediaType:   domain.MediaArticle,
			Severity:    0.66,
			GoreFlagged: true,
			Snippet:     "snippet",
		})
	}

	records := readRecords(t, filepath.Join(dir, "gore_log_2026-10-18.csv"))
	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != "datetime,source,url,title,media_type,severity,gore_flagged,snippet" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	row := records[1]
	if len(row) != 8 {
		t.Fatalf("expected 8 fields, got %d", len(row))
	}
	for i, field := range row {
		if field == "" {
			t.Fatalf("field %s is empty", Header[i])
		}
	}
	if row[5] != "0.66" || row[6] != "Yes" || row[0] != "2026-10-18 09:30:00" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestAppendSplitsByDay(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger := New(dir, nil)
	logger.Append(domain.AuditRecord{Time: time.Date(2026, 1, 1, 23, 0, 0, 0, time.Local), URL: "a"})
	logger.Append(domain.AuditRecord{Time: time.Date(2026, 1, 2, 1, 0, 0, 0, time.Local), URL: "b"})

	for _, name := range []string{"gore_log_2026-01-01.csv", "gore_log_2026-01-02.csv"} {
		records := readRecords(t, filepath.Join(dir, name))
		if len(records) != 2 {
			t.Fatalf("%s: expected header + 1 row, got %d", name, len(records))
		}
	}
}

func TestAppendKeepsExistingFileWithoutHeader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	day := time.Date(2026, 3, 4, 10, 0, 0, 0, time.Local)
	path := filepath.Join(dir, FileName(day))
	if err := os.WriteFile(path, []byte("existing,row,,,,,,\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	New(dir, nil).Append(domain.AuditRecord{Time: day, URL: "https://example.com"})

	records := readRecords(t, path)
	if len(records) != 2 || records[0][0] != "existing" {
		t.Fatalf("existing content changed or header re-written: %v", records)
	}
}

func TestAppendTruncatesFields(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	day := time.Date(2026, 5, 6, 7, 0, 0, 0, time.Local)
	long := strings.Repeat("y", 2000)

	New(dir, nil).Append(domain.AuditRecord{Time: day, URL: "u", Title: long, Snippet: long})

	records := readRecords(t, filepath.Join(dir, FileName(day)))
	if len(records[1][3]) != MaxFieldRunes || len(records[1][7]) != MaxFieldRunes {
		t.Fatalf("fields not truncated: %d %d", len(records[1][3]), len(records[1][7]))
	}
}

func TestAppendSwallowsFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("seed blocker: %v", err)
	}

	New(filepath.Join(blocker, "logs"), nil).Append(domain.AuditRecord{URL: "u"})

	var nilLogger *Logger
	nilLogger.Append(domain.AuditRecord{URL: "u"})
}
