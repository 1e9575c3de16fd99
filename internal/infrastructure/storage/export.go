package storage

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"GoreScanner/internal/domain"
)

// ExportHeader is the stable column order of CSV exports.
var ExportHeader = []string{
	"id", "url", "canonical_url", "source_name", "media_type",
	"severity_score", "title", "snippet", "published_at", "created_at", "scanned_at",
}

// ExportCSV writes the items matching filter to path and returns the number
// of rows written. A zero Limit exports every matching row. The header is
// always written, so an empty store produces a header-only file.
func (r *Repository) ExportCSV(ctx context.Context, path string, filter domain.ItemFilter) (int, error) {
	items, err := r.query(ctx, filter)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fail("create export file", err)
	}

	n, err := WriteCSV(f, items)
	if err != nil {
		_ = f.Close()
		return 0, fail("write export", err)
	}
	if err := f.Close(); err != nil {
		return 0, fail("close export file", err)
	}
	return n, nil
}

// WriteCSV writes the header and one row per item to w.
func WriteCSV(w io.Writer, items []domain.ScanItem) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return 0, err
	}
	for _, item := range items {
		record := []string{
			strconv.FormatInt(item.ID, 10),
			item.URL,
			item.CanonicalURL,
			item.SourceName,
			string(item.MediaType),
			strconv.FormatFloat(item.Severity, 'f', 2, 64),
			item.Title,
			item.Snippet,
			item.PublishedAt,
			formatTime(item.CreatedAt),
			formatTime(item.ScannedAt),
		}
		if err := cw.Write(record); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}
	return len(items), nil
}
