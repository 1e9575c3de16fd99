// Package severity turns text, article metadata and images into a heuristic
// score in [0,1] estimating how likely the content is graphic.
package severity

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/ports"
)

const (
	defaultTimeout   = 8 * time.Second
	defaultMaxBytes  = 5 << 20
	defaultUserAgent = "GoreScanner/1.0"
)

// Options configures a Scorer. Zero values fall back to defaults.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxBytes   int64
	UserAgent  string
	Cache      ports.ScoreCache
	Logger     *slog.Logger
}

// Scorer owns the network side of scoring (image downloads). Text scoring
// is available as the pure ScoreText function.
type Scorer struct {
	client    *http.Client
	timeout   time.Duration
	maxBytes  int64
	userAgent string
	cache     ports.ScoreCache
	logger    *slog.Logger
}

// NewScorer builds a scorer from options.
func NewScorer(opts Options) *Scorer {
	s := &Scorer{
		client:    opts.HTTPClient,
		timeout:   opts.Timeout,
		maxBytes:  opts.MaxBytes,
		userAgent: opts.UserAgent,
		cache:     opts.Cache,
		logger:    opts.Logger,
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: s.timeout}
	}
	if s.maxBytes <= 0 {
		s.maxBytes = defaultMaxBytes
	}
	if s.userAgent == "" {
		s.userAgent = defaultUserAgent
	}
	return s
}

// ScoreArticle scores title and description together and, when includeImage
// is set and the article carries an image, takes the max with the image score.
func (s *Scorer) ScoreArticle(ctx context.Context, article domain.RawResult, includeImage bool) float64 {
	textScore := ScoreText(article.Title + " " + article.Description)
	if !includeImage || article.ImageURL == "" {
		return textScore
	}
	return max(textScore, s.ScoreImageFromURL(ctx, article.ImageURL))
}

func (s *Scorer) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
