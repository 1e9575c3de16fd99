// Package provider defines search provider strategies and fans a query out
// to them.
package provider

import (
	"context"
	"fmt"
	"sort"

	"GoreScanner/internal/domain"
)

// Provider names used in configuration and requests.
const (
	News      = "news"
	DDGImages = "ddg_images"
	DDGVideos = "ddg_videos"
	DDGText   = "ddg_text"
	RSS       = "rss"
)

// DefaultNames is the provider set used when a scan does not name any.
var DefaultNames = []string{News, DDGImages, DDGVideos, DDGText}

// Request carries the parameters of a single provider search.
type Request struct {
	Query      string
	MaxResults int
}

// Provider captures a single search backend (NewsAPI, DuckDuckGo, RSS).
type Provider interface {
	Name() string
	Search(ctx context.Context, req Request) ([]domain.RawResult, error)
}

// Registry keeps a mapping from provider names to their implementations.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// Register adds or replaces a provider implementation.
func (r *Registry) Register(p Provider) {
	if r.providers == nil {
		r.providers = map[string]Provider{}
	}
	r.providers[p.Name()] = p
}

// Resolve returns a provider by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Provider, error) {
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("provider %s is not registered", name)
}

// Names lists registered providers in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
