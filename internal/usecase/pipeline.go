package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/google/uuid"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/metrics"
	"GoreScanner/internal/ports"
	"GoreScanner/internal/provider"
	"GoreScanner/internal/severity"
	"GoreScanner/internal/urlnorm"
)

var (
	// ErrScanInProgress is returned when a scan is requested while one runs.
	ErrScanInProgress = errors.New("scan already in progress")
	// ErrStorage marks scans whose results could not all be persisted.
	ErrStorage = errors.New("storage failure")
)

// perceptualDistance is the dHash Hamming distance under which two images
// count as the same picture.
const perceptualDistance = 10

const scoreWorkers = 8

// State is the scanner lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
	StateError    State = "error"
)

// ScanRequest describes one scan run. Empty Providers selects the defaults,
// zero MaxResults the configured limit.
type ScanRequest struct {
	Query      string
	Providers  []string
	MaxResults int
}

// ScanResult is everything a scan produced, persisted or not.
type ScanResult struct {
	ID             string
	Query          string
	Items          []domain.ScanItem
	ProviderErrors []provider.Failure
	Duplicates     int
	StoreFailures  int
	StartedAt      time.Time
	FinishedAt     time.Time
}

// PipelineDeps wires all driven adapters into the scan pipeline.
type PipelineDeps struct {
	Source           *provider.Source
	Scorer           *severity.Scorer
	Repository       ports.ItemRepository
	Audit            ports.AuditLogger
	Notifier         ports.Notifier
	Metrics          *metrics.Metrics
	Logger           *slog.Logger
	Scoring          ScoringConfig
	DefaultProviders []string
	MaxResults       int
}

// Scanner implements the search → score → dedup → persist → log workflow.
type Scanner struct {
	source           *provider.Source
	scorer           *severity.Scorer
	repository       ports.ItemRepository
	audit            ports.AuditLogger
	notifier         ports.Notifier
	metrics          *metrics.Metrics
	logger           *slog.Logger
	scoring          ScoringConfig
	defaultProviders []string
	maxResults       int

	mu      sync.Mutex
	state   State
	lastErr error
	now     func() time.Time
}

// NewScanner constructs the orchestration component.
func NewScanner(deps PipelineDeps) *Scanner {
	defaults := deps.DefaultProviders
	if len(defaults) == 0 {
		defaults = provider.DefaultNames
	}
	scorer := deps.Scorer
	if scorer == nil {
		scorer = severity.NewScorer(severity.Options{Logger: deps.Logger})
	}
	return &Scanner{
		source:           deps.Source,
		scorer:           scorer,
		repository:       deps.Repository,
		audit:            deps.Audit,
		notifier:         deps.Notifier,
		metrics:          deps.Metrics,
		logger:           deps.Logger,
		scoring:          deps.Scoring,
		defaultProviders: defaults,
		maxResults:       deps.MaxResults,
		state:            StateIdle,
		now:              time.Now,
	}
}

// State returns the current lifecycle state and the last scan error.
func (s *Scanner) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.lastErr
}

// Scan runs one scan. The result is returned even when err is non-nil;
// a storage failure is reported as an error wrapping ErrStorage.
func (s *Scanner) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}

	result, err := s.run(ctx, req)

	status := "ok"
	if err != nil {
		status = "error"
		s.setState(StateError, err)
		s.warn("scan failed", "query", req.Query, "error", err)
	}
	if result != nil {
		s.metrics.ObserveScan(status, result.FinishedAt.Sub(result.StartedAt).Seconds())
	}
	s.setState(StateIdle, err)
	return result, err
}

func (s *Scanner) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrScanInProgress
	}
	s.state = StateScanning
	s.lastErr = nil
	return nil
}

func (s *Scanner) setState(state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.lastErr = err
}

func (s *Scanner) run(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	result := &ScanResult{
		ID:        uuid.NewString(),
		Query:     req.Query,
		StartedAt: s.now(),
	}
	defer func() { result.FinishedAt = s.now() }()

	if strings.TrimSpace(req.Query) == "" {
		return result, fmt.Errorf("empty query")
	}
	if s.source == nil {
		return result, fmt.Errorf("search source is not configured")
	}

	names := req.Providers
	if len(names) == 0 {
		names = s.defaultProviders
	}
	limit := req.MaxResults
	if limit <= 0 {
		limit = s.maxResults
	}

	s.debug("scan start", "scan_id", result.ID, "query", req.Query, "providers", names)
	raws, failures := s.source.Fetch(ctx, names, provider.Request{Query: req.Query, MaxResults: limit})
	result.ProviderErrors = failures
	for _, f := range failures {
		s.metrics.ProviderFailed(f.Provider)
	}

	candidates := make([]candidate, 0, len(raws))
	seen := &urlnorm.Seen{}
	for _, raw := range raws {
		canonical := urlnorm.Normalize(raw.URL)
		if canonical == "" {
			continue
		}
		if !seen.Add(canonical) {
			result.Duplicates++
			continue
		}
		candidates = append(candidates, candidate{raw: raw, canonical: canonical})
	}

	s.scoreAll(ctx, candidates)

	var (
		kept     []*goimagehash.ImageHash
		firstErr error
	)
	for _, c := range candidates {
		if c.hash != nil && nearDuplicate(kept, c.hash) {
			result.Duplicates++
			continue
		}
		if c.hash != nil {
			kept = append(kept, c.hash)
		}

		item := s.toItem(c)
		if s.repository != nil {
			stored, err := s.repository.Insert(ctx, item)
			if err != nil {
				result.StoreFailures++
				s.metrics.StoreFailed()
				s.warn("persist item failed", "url", item.URL, "error", err)
				if firstErr == nil {
					firstErr = err
				}
			} else {
				item = stored
			}
		}

		if s.scoring.shouldLog(item.Severity) && s.audit != nil {
			s.audit.Append(domain.AuditRecord{
				Time:        item.ScannedAt,
				Source:      item.SourceName,
				URL:         item.URL,
				Title:       item.Title,
				MediaType:   item.MediaType,
				Severity:    item.Severity,
				GoreFlagged: s.scoring.goreFlag(item.Severity),
				Snippet:     item.Snippet,
			})
		}

		s.metrics.ObserveItem(string(item.MediaType), item.Severity)
		result.Items = append(result.Items, item)
	}

	s.debug("scan scored", "scan_id", result.ID, "items", len(result.Items), "duplicates", result.Duplicates)
	s.alert(ctx, req.Query, result.Items)

	if result.StoreFailures > 0 {
		return result, fmt.Errorf("%w: %d of %d items not persisted: %w",
			ErrStorage, result.StoreFailures, len(result.Items), firstErr)
	}
	return result, nil
}

type candidate struct {
	raw       domain.RawResult
	canonical string
	score     float64
	hash      *goimagehash.ImageHash
}

// scoreAll scores candidates with a small worker pool; the slice order is kept.
func (s *Scanner) scoreAll(ctx context.Context, candidates []candidate) {
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(scoreWorkers, len(candidates)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				candidates[i].score, candidates[i].hash = s.score(ctx, candidates[i].raw)
			}
		}()
	}
	for i := range candidates {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// score picks the scorer for the item's media type. Only images yield a hash.
func (s *Scanner) score(ctx context.Context, raw domain.RawResult) (float64, *goimagehash.ImageHash) {
	text := severity.ScoreText(raw.Title + " " + raw.Description)

	switch mediaTypeOf(raw) {
	case domain.MediaArticle:
		return s.scorer.ScoreArticle(ctx, raw, s.scoring.IncludeArticleImages), nil
	case domain.MediaImage:
		src := raw.ImageURL
		if src == "" {
			src = raw.URL
		}
		analysis := s.scorer.AnalyzeImage(ctx, src)
		return max(text, analysis.Score), analysis.Hash
	case domain.MediaVideo:
		if s.scoring.ScoreThumbnails && raw.ImageURL != "" {
			return max(text, s.scorer.ScoreImageFromURL(ctx, raw.ImageURL)), nil
		}
		return text, nil
	default:
		return text, nil
	}
}

func (s *Scanner) toItem(c candidate) domain.ScanItem {
	now := s.now()
	source := c.raw.SourceName
	if source == "" {
		source = c.raw.Provider
	}
	return domain.ScanItem{
		URL:          c.raw.URL,
		CanonicalURL: c.canonical,
		SourceName:   source,
		MediaType:    mediaTypeOf(c.raw),
		Severity:     severity.ClampDisplay(c.score),
		Title:        domain.Truncate(c.raw.Title, domain.MaxTitleRunes),
		Snippet:      domain.Truncate(c.raw.Description, domain.MaxSnippetRunes),
		PublishedAt:  domain.Truncate(c.raw.PublishedAt, domain.MaxPublishedRunes),
		CreatedAt:    now,
		ScannedAt:    now,
	}
}

func mediaTypeOf(raw domain.RawResult) domain.MediaType {
	if raw.MediaType.Valid() {
		return raw.MediaType
	}
	return domain.MediaText
}

func nearDuplicate(kept []*goimagehash.ImageHash, hash *goimagehash.ImageHash) bool {
	for _, k := range kept {
		d, err := k.Distance(hash)
		if err == nil && d < perceptualDistance {
			return true
		}
	}
	return false
}

func (s *Scanner) alert(ctx context.Context, query string, items []domain.ScanItem) {
	if s.notifier == nil {
		return
	}
	var severe []domain.ScanItem
	for _, item := range items {
		if item.Severity >= s.scoring.AlertSeverityMin {
			severe = append(severe, item)
		}
	}
	if len(severe) == 0 {
		return
	}
	if err := s.notifier.PublishDigest(ctx, buildDigestMessage(query, severe)); err != nil {
		s.warn("publish digest failed", "error", err)
	}
}

func buildDigestMessage(query string, items []domain.ScanItem) string {
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Severe results for %q: %d\n\n", query, len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "- [%s] %s\nSeverity: %.2f (%s)\n%s\n\n",
			item.MediaType,
			item.Title,
			item.Severity,
			severity.BandFor(item.Severity),
			item.URL)
	}
	return b.String()
}

func (s *Scanner) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Scanner) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
