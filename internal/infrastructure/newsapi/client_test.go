package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/provider"
)

func TestSearch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "accident" || q.Get("language") != "en" || q.Get("sortBy") != "relevancy" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Get("pageSize") != "100" {
			t.Errorf("expected pageSize capped at 100, got %s", q.Get("pageSize"))
		}
		if r.Header.Get("X-Api-Key") != "secret" {
			t.Errorf("missing api key header")
		}
		_, _ = w.Write([]byte(`{"status":"ok","articles":[
			{"source":{"name":"Daily"},"title":"Crash","description":"injured","url":"https://daily.example/a","urlToImage":"https://daily.example/a.jpg","publishedAt":"2026-10-17T08:30:00Z"},
			{"source":{"name":""},"title":"No source","url":"https://x.example/b"},
			{"title":"no url"}
		]}`))
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, "secret", nil)
	results, err := c.Search(context.Background(), provider.Request{Query: "accident", MaxResults: 500})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	first := results[0]
	if first.SourceName != "Daily" || first.ImageURL != "https://daily.example/a.jpg" || first.MediaType != domain.MediaArticle {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if first.PublishedAt != "2026-10-17T08:30:00Z" {
		t.Fatalf("unexpected published time: %q", first.PublishedAt)
	}
	if results[1].SourceName != "News" {
		t.Fatalf("expected fallback source name, got %q", results[1].SourceName)
	}
}

func TestSearchAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"bad key"}`))
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, "wrong", nil)
	if _, err := c.Search(context.Background(), provider.Request{Query: "q"}); err == nil {
		t.Fatalf("expected api error")
	}
}

func TestSearchWithoutKey(t *testing.T) {
	t.Parallel()

	c := NewClient(nil, "", "", nil)
	if _, err := c.Search(context.Background(), provider.Request{Query: "q"}); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
}
