package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/infrastructure/storage"
	"GoreScanner/internal/metrics"
	"GoreScanner/internal/provider"
	"GoreScanner/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProvider struct {
	results []domain.RawResult
}

func (s stubProvider) Name() string { return provider.News }

func (s stubProvider) Search(context.Context, provider.Request) ([]domain.RawResult, error) {
	return s.results, nil
}

type fixture struct {
	server *Server
	repo   *storage.Repository
	jobs   *usecase.Jobs
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctx := context.Background()
	repo, err := storage.Open(ctx, filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	reg := provider.NewRegistry()
	reg.Register(stubProvider{results: []domain.RawResult{
		{URL: "https://a.example/one", Title: "massacre footage", MediaType: domain.MediaText, SourceName: "News"},
		{URL: "https://b.example/two", Title: "weather", MediaType: domain.MediaText, SourceName: "News"},
	}})
	scanner := usecase.NewScanner(usecase.PipelineDeps{
		Source:           provider.NewSource(reg, time.Second, nil),
		Repository:       repo,
		Scoring:          usecase.DefaultScoring(),
		DefaultProviders: []string{provider.News},
	})
	verifier := usecase.NewVerifier(usecase.VerifierDeps{Scoring: usecase.DefaultScoring()})
	jobs := usecase.NewJobs(ctx, scanner, verifier)

	server := NewServer(Deps{Jobs: jobs, Repository: repo, Metrics: metrics.New()})
	return fixture{server: server, repo: repo, jobs: jobs}
}

func (f fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestScanJobFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/scans", `{"query":"crash"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var submitted jobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("decode submit: %v", err)
	}
	if submitted.ID == "" || submitted.Kind != "scan" {
		t.Fatalf("unexpected submit response: %+v", submitted)
	}

	f.jobs.Wait()

	rec = f.do(t, http.MethodGet, "/api/scans/"+submitted.ID, "")
	var finished jobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &finished); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if finished.Status != "done" || finished.Scan == nil || len(finished.Scan.Items) != 2 {
		t.Fatalf("unexpected finished job: %s", rec.Body.String())
	}
	if finished.Scan.Items[0].Persisted == nil || !*finished.Scan.Items[0].Persisted {
		t.Fatalf("expected persisted flag: %s", rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/api/items?min=0.5", "")
	var listed struct {
		Items []itemResponse `json:"items"`
		Count int            `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if listed.Count != 1 || listed.Items[0].URL != "https://a.example/one" || listed.Items[0].Band != "medium" {
		t.Fatalf("unexpected items: %s", rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/api/items?min=0.5&max=0", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode bounded items: %v", err)
	}
	if listed.Count != 0 {
		t.Fatalf("max=0 should match nothing: %s", rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/api/stats", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total":2`) {
		t.Fatalf("unexpected stats: %s", rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/api/export", "")
	rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "id" {
		t.Fatalf("unexpected export: %v", rows)
	}
}

func TestVerifyJobFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/verify", `{"urls":["http://127.0.0.1:1/x"]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var submitted jobResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &submitted)
	f.jobs.Wait()

	rec = f.do(t, http.MethodGet, "/api/verify/"+submitted.ID, "")
	var finished jobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &finished); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if len(finished.Verify) != 1 || finished.Verify[0].GoreFlag || finished.Verify[0].Error == "" {
		t.Fatalf("unexpected verify job: %s", rec.Body.String())
	}
}

func TestBadRequests(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cases := []struct {
		method, target, body string
		want                 int
	}{
		{http.MethodPost, "/api/scans", `{}`, http.StatusBadRequest},
		{http.MethodPost, "/api/verify", `{"urls":[]}`, http.StatusBadRequest},
		{http.MethodGet, "/api/scans/unknown", "", http.StatusNotFound},
		{http.MethodGet, "/api/items?min=abc", "", http.StatusBadRequest},
		{http.MethodGet, "/api/items?media_type=audio", "", http.StatusBadRequest},
		{http.MethodGet, "/api/export?limit=-1", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		if rec := f.do(t, tc.method, tc.target, tc.body); rec.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.target, tc.want, rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.do(t, http.MethodGet, "/api/health", "")
	rec := f.do(t, http.MethodGet, "/metrics", "")
	if !strings.Contains(rec.Body.String(), `gorescanner_http_requests_total{method="GET",path="/api/health",status="200"} 1`) {
		t.Fatalf("request metric missing:\n%s", rec.Body.String())
	}
}
