package domain

import "time"

// MediaType classifies what kind of content a result points to.
type MediaType string

const (
	MediaArticle MediaType = "article"
	MediaImage   MediaType = "image"
	MediaVideo   MediaType = "video"
	MediaText    MediaType = "text"
)

// Valid reports whether the media type is one of the known kinds.
func (m MediaType) Valid() bool {
	switch m {
	case MediaArticle, MediaImage, MediaVideo, MediaText:
		return true
	}
	return false
}

// Ingestion limits for free-form fields.
const (
	MaxTitleRunes     = 200
	MaxSnippetRunes   = 300
	MaxPublishedRunes = 50
)

// RawResult is the loosely-typed record a provider hands to the pipeline.
// Any field may be empty.
type RawResult struct {
	URL         string
	Title       string
	Description string
	SourceName  string
	ImageURL    string
	MediaType   MediaType
	Provider    string
	// PublishedAt is the provider's timestamp, verbatim.
	PublishedAt string
}

// ScanItem is one scored piece of content discovered by a scan.
type ScanItem struct {
	ID           int64
	URL          string
	CanonicalURL string
	SourceName   string
	MediaType    MediaType
	Severity     float64
	Title        string
	Snippet      string
	PublishedAt  string
	// CreatedAt is the first-insert time in the store. Items a scan could not
	// persist carry the scan time instead.
	CreatedAt    time.Time
	ScannedAt    time.Time

	// Persisted is only meaningful for items returned by a scan run.
	Persisted bool
}

// VerifyResult is the outcome of re-fetching and re-scoring one URL.
type VerifyResult struct {
	URL      string
	Severity float64
	GoreFlag bool
	Details  string
	Err      string
}

// AuditRecord is a single row of the daily audit log.
type AuditRecord struct {
	Time        time.Time
	Source      string
	URL         string
	Title       string
	MediaType   MediaType
	Severity    float64
	GoreFlagged bool
	Snippet     string
}

// ItemFilter narrows store queries. Zero values mean "no constraint"; a nil
// ScoreMax leaves severity unbounded above.
type ItemFilter struct {
	ScoreMin   float64
	ScoreMax   *float64
	SourceName string
	MediaType  MediaType
	Limit      int
}

// MaxScore returns a pointer for ItemFilter.ScoreMax.
func MaxScore(v float64) *float64 {
	return &v
}

// Stats summarises the store contents.
type Stats struct {
	Total       int
	BySource    map[string]int
	ByMediaType map[string]int
	AvgSeverity float64
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
