package usecase

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/infrastructure/fetch"
	"GoreScanner/internal/severity"
)

func newTestVerifier(client *http.Client, audit *memoryAudit) *Verifier {
	return NewVerifier(VerifierDeps{
		Fetcher: fetch.NewHTTPFetcher(client, time.Second, nil),
		Scorer:  severity.NewScorer(severity.Options{HTTPClient: client, Timeout: time.Second}),
		Audit:   audit,
		Scoring: DefaultScoring(),
	})
}

func TestVerifyUnreachableURL(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(&http.Client{Timeout: time.Second}, &memoryAudit{})
	res := v.VerifyOne(context.Background(), "http://127.0.0.1:1/nothing")

	if res.GoreFlag {
		t.Fatalf("unreachable url must not be flagged")
	}
	if res.Severity != 0.1 {
		t.Fatalf("expected severity 0.1, got %v", res.Severity)
	}
	if !strings.HasPrefix(res.Details, "error: ") || res.Err == "" {
		t.Fatalf("expected error details, got %+v", res)
	}
}

func TestVerifyPageWithImage(t *testing.T) {
	t.Parallel()

	server := newMediaServer(t)
	audit := &memoryAudit{}
	v := newTestVerifier(server.Client(), audit)

	res := v.VerifyOne(context.Background(), server.URL+"/page/severe")
	if res.Err != "" {
		t.Fatalf("unexpected error: %s", res.Err)
	}
	if res.Details != "text=0.00 | img=1.00" {
		t.Fatalf("unexpected details: %q", res.Details)
	}
	if res.Severity != 1 || !res.GoreFlag {
		t.Fatalf("expected flagged severity 1, got %+v", res)
	}

	records := audit.all()
	if len(records) != 1 || records[0].Source != "Verify" || records[0].MediaType != domain.MediaArticle {
		t.Fatalf("expected one Verify audit record, got %+v", records)
	}
	if records[0].Snippet != "Calm title nothing to see" {
		t.Fatalf("audit snippet should carry page text, got %q", records[0].Snippet)
	}
	if records[0].Title == "" || records[0].URL == "" {
		t.Fatalf("audit record has empty fields: %+v", records[0])
	}
}

func TestVerifyPageTextOnly(t *testing.T) {
	t.Parallel()

	server := newMediaServer(t)
	audit := &memoryAudit{}
	v := newTestVerifier(server.Client(), audit)

	res := v.VerifyOne(context.Background(), server.URL+"/page/text")
	if res.Details != "text=0.60 | img=0.00" {
		t.Fatalf("unexpected details: %q", res.Details)
	}
	if res.Severity != 0.6 || !res.GoreFlag {
		t.Fatalf("expected flagged 0.6, got %+v", res)
	}
	if records := audit.all(); len(records) != 1 || records[0].Snippet != "Massacre report details" {
		t.Fatalf("expected page text as audit snippet, got %+v", records)
	}
}

func TestVerifyImageURL(t *testing.T) {
	t.Parallel()

	server := newMediaServer(t)
	v := newTestVerifier(server.Client(), &memoryAudit{})

	res := v.VerifyOne(context.Background(), server.URL+"/green.png")
	if res.Details != "img=0.00" {
		t.Fatalf("unexpected details: %q", res.Details)
	}
	if res.Severity != 0.1 || res.GoreFlag {
		t.Fatalf("expected clean 0.1, got %+v", res)
	}
}

func TestVerifyBatchKeepsOrder(t *testing.T) {
	t.Parallel()

	server := newMediaServer(t)
	v := newTestVerifier(server.Client(), &memoryAudit{})

	urls := []string{
		server.URL + "/red.png",
		server.URL + "/missing",
		server.URL + "/page/text",
	}
	results := v.Verify(context.Background(), urls)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.URL != urls[i] {
			t.Fatalf("result %d out of order: %s", i, res.URL)
		}
	}
	if results[0].Severity != 1 || results[1].Err == "" || results[2].Severity != 0.6 {
		t.Fatalf("unexpected batch results: %+v", results)
	}
}

func TestIsImageURL(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"https://x.example/a.JPG":          true,
		"https://x.example/a.webp?size=10": true,
		"https://x.example/a.bmp":          true,
		"https://x.example/page.html":      false,
		"https://x.example/jpg":            false,
	}
	for in, want := range cases {
		if got := isImageURL(in); got != want {
			t.Fatalf("isImageURL(%q) = %v, want %v", in, got, want)
		}
	}
}
