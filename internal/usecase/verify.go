package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/infrastructure/fetch"
	"GoreScanner/internal/metrics"
	"GoreScanner/internal/ports"
	"GoreScanner/internal/severity"
)

const defaultVerifyConcurrency = 4

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// VerifierDeps wires the verify pass.
type VerifierDeps struct {
	Fetcher     ports.PageFetcher
	Scorer      *severity.Scorer
	Audit       ports.AuditLogger
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	Scoring     ScoringConfig
	Concurrency int
}

// Verifier re-fetches URLs and re-scores them.
type Verifier struct {
	fetcher     ports.PageFetcher
	scorer      *severity.Scorer
	audit       ports.AuditLogger
	metrics     *metrics.Metrics
	logger      *slog.Logger
	scoring     ScoringConfig
	concurrency int
}

// NewVerifier constructs a verifier.
func NewVerifier(deps VerifierDeps) *Verifier {
	scorer := deps.Scorer
	if scorer == nil {
		scorer = severity.NewScorer(severity.Options{Logger: deps.Logger})
	}
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = defaultVerifyConcurrency
	}
	return &Verifier{
		fetcher:     deps.Fetcher,
		scorer:      scorer,
		audit:       deps.Audit,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		scoring:     deps.Scoring,
		concurrency: concurrency,
	}
}

// Verify checks every URL independently. The result slice matches urls by
// index; a failing URL never affects the others.
func (v *Verifier) Verify(ctx context.Context, urls []string) []domain.VerifyResult {
	results := make([]domain.VerifyResult, len(urls))
	sem := make(chan struct{}, v.concurrency)

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, u string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = v.VerifyOne(ctx, u)
		}(i, u)
	}
	wg.Wait()
	return results
}

// VerifyOne scores a single URL.
func (v *Verifier) VerifyOne(ctx context.Context, target string) (res domain.VerifyResult) {
	target = strings.TrimSpace(target)
	if target != "" && !strings.Contains(target, "://") {
		target = "https://" + target
	}
	defer func() {
		if r := recover(); r != nil {
			res = v.failed(target, fmt.Errorf("verify panic: %v", r))
		}
	}()

	var (
		out verdict
		err error
	)
	if isImageURL(target) {
		out, err = v.verifyImage(ctx, target)
	} else {
		out, err = v.verifyPage(ctx, target)
	}
	if err != nil {
		return v.failed(target, err)
	}

	res = domain.VerifyResult{
		URL:      target,
		Severity: severity.ClampDisplay(out.score),
		Details:  out.details,
	}
	res.GoreFlag = v.scoring.goreFlag(res.Severity)

	if res.GoreFlag {
		v.metrics.ObserveVerify("flagged")
	} else {
		v.metrics.ObserveVerify("clean")
	}
	if v.scoring.shouldLog(res.Severity) && v.audit != nil {
		v.audit.Append(domain.AuditRecord{
			Source:      "Verify",
			URL:         res.URL,
			Title:       res.Details,
			MediaType:   verifyMediaType(target),
			Severity:    res.Severity,
			GoreFlagged: res.GoreFlag,
			Snippet:     domain.Truncate(out.snippet, domain.MaxSnippetRunes),
		})
	}
	v.debug("verified", "url", target, "severity", res.Severity, "details", res.Details)
	return res
}

// verdict is the raw outcome of one verify pass. snippet feeds the audit row.
type verdict struct {
	score   float64
	details string
	snippet string
}

func (v *Verifier) verifyImage(ctx context.Context, target string) (verdict, error) {
	analysis := v.scorer.AnalyzeImage(ctx, target)
	if analysis.Err != nil {
		return verdict{}, fmt.Errorf("analyze image: %w", analysis.Err)
	}
	details := fmt.Sprintf("img=%.2f", analysis.Score)
	return verdict{score: analysis.Score, details: details, snippet: "image " + details}, nil
}

func (v *Verifier) verifyPage(ctx context.Context, target string) (verdict, error) {
	if v.fetcher == nil {
		return verdict{}, fmt.Errorf("page fetcher is not configured")
	}
	page, err := v.fetcher.FetchPage(ctx, target)
	if err != nil {
		return verdict{}, fmt.Errorf("fetch page: %w", err)
	}
	if page.URL == "" {
		page.URL = target
	}
	extracted, err := fetch.Extract(page)
	if err != nil {
		return verdict{}, fmt.Errorf("extract page: %w", err)
	}

	content := extracted.Text()
	text := severity.ScoreText(content)
	img := v.scorer.ScoreImageFromURL(ctx, extracted.ImageURL)
	return verdict{
		score:   max(text, img),
		details: fmt.Sprintf("text=%.2f | img=%.2f", text, img),
		snippet: strings.Join(strings.Fields(content), " "),
	}, nil
}

func (v *Verifier) failed(target string, err error) domain.VerifyResult {
	v.metrics.ObserveVerify("error")
	v.warn("verify failed", "url", target, "error", err)
	return domain.VerifyResult{
		URL:      target,
		Severity: severity.ClampDisplay(0),
		GoreFlag: false,
		Details:  "error: " + err.Error(),
		Err:      err.Error(),
	}
}

func isImageURL(raw string) bool {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	return imageExtensions[strings.ToLower(path.Ext(p))]
}

func verifyMediaType(target string) domain.MediaType {
	if isImageURL(target) {
		return domain.MediaImage
	}
	return domain.MediaArticle
}

func (v *Verifier) debug(msg string, args ...interface{}) {
	if v.logger != nil {
		v.logger.Debug(msg, args...)
	}
}

func (v *Verifier) warn(msg string, args ...interface{}) {
	if v.logger != nil {
		v.logger.Warn(msg, args...)
	}
}
