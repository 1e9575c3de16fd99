package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"GoreScanner/internal/domain"
)

// Failure records a provider that could not contribute to a scan.
type Failure struct {
	Provider string
	Err      error
}

func (f Failure) Error() string {
	return fmt.Sprintf("provider %s: %v", f.Provider, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Source runs registered providers in parallel.
type Source struct {
	registry *Registry
	timeout  time.Duration
	logger   *slog.Logger
}

// NewSource wires the registry with a per-provider timeout.
func NewSource(reg *Registry, timeout time.Duration, log *slog.Logger) *Source {
	return &Source{
		registry: reg,
		timeout:  timeout,
		logger:   log,
	}
}

// Fetch queries every named provider concurrently. Results are concatenated
// in the order of names; a failing provider is reported and skipped.
func (s *Source) Fetch(ctx context.Context, names []string, req Request) ([]domain.RawResult, []Failure) {
	if s.registry == nil {
		return nil, []Failure{{Provider: "*", Err: fmt.Errorf("provider registry is not configured")}}
	}

	s.debug("fetch", "providers", len(names), "query", req.Query)

	results := make([][]domain.RawResult, len(names))
	errs := make([]error, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		p, err := s.registry.Resolve(name)
		if err != nil {
			errs[i] = err
			continue
		}

		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			results[i], errs[i] = s.search(ctx, p, req)
		}(i, p)
	}
	wg.Wait()

	var (
		aggregated []domain.RawResult
		failures   []Failure
	)
	for i, name := range names {
		if errs[i] != nil {
			s.warn("provider failed", "provider", name, "error", errs[i])
			failures = append(failures, Failure{Provider: name, Err: errs[i]})
			continue
		}
		for j := range results[i] {
			if results[i][j].Provider == "" {
				results[i][j].Provider = name
			}
		}
		s.debug("provider produced results", "provider", name, "count", len(results[i]))
		aggregated = append(aggregated, results[i]...)
	}

	s.debug("source done", "total_results", len(aggregated), "failures", len(failures))
	return aggregated, failures
}

func (s *Source) search(ctx context.Context, p Provider, req Request) (res []domain.RawResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err = p.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if req.MaxResults > 0 && len(res) > req.MaxResults {
		res = res[:req.MaxResults]
	}
	return res, nil
}

func (s *Source) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Source) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
