package api

import (
	"time"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/severity"
	"GoreScanner/internal/usecase"
)

type scanRequest struct {
	Query      string   `json:"query" binding:"required"`
	Providers  []string `json:"providers"`
	MaxResults int      `json:"maxResults"`
}

type verifyRequest struct {
	URLs []string `json:"urls" binding:"required,min=1"`
}

type itemResponse struct {
	ID           int64     `json:"id"`
	URL          string    `json:"url"`
	CanonicalURL string    `json:"canonicalUrl"`
	SourceName   string    `json:"sourceName"`
	MediaType    string    `json:"mediaType"`
	Severity     float64   `json:"severity"`
	Band         string    `json:"band"`
	Color        string    `json:"color"`
	Title        string    `json:"title,omitempty"`
	Snippet      string    `json:"snippet,omitempty"`
	PublishedAt  string    `json:"publishedAt,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	ScannedAt    time.Time `json:"scannedAt"`
	Persisted    *bool     `json:"persisted,omitempty"`
}

type verifyResponse struct {
	URL      string  `json:"url"`
	Severity float64 `json:"severity"`
	GoreFlag bool    `json:"goreFlag"`
	Details  string  `json:"details"`
	Error    string  `json:"error,omitempty"`
}

type providerErrorResponse struct {
	Provider string `json:"provider"`
	Error    string `json:"error"`
}

type scanResultResponse struct {
	ID             string                  `json:"id"`
	Query          string                  `json:"query"`
	Items          []itemResponse          `json:"items"`
	ProviderErrors []providerErrorResponse `json:"providerErrors,omitempty"`
	Duplicates     int                     `json:"duplicates"`
	StoreFailures  int                     `json:"storeFailures"`
}

type jobResponse struct {
	ID         string              `json:"id"`
	Kind       string              `json:"kind"`
	Status     string              `json:"status"`
	Error      string              `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
	FinishedAt *time.Time          `json:"finishedAt,omitempty"`
	Scan       *scanResultResponse `json:"scan,omitempty"`
	Verify     []verifyResponse    `json:"verify,omitempty"`
}

func toItem(item domain.ScanItem, withPersisted bool) itemResponse {
	out := itemResponse{
		ID:           item.ID,
		URL:          item.URL,
		CanonicalURL: item.CanonicalURL,
		SourceName:   item.SourceName,
		MediaType:    string(item.MediaType),
		Severity:     item.Severity,
		Band:         string(severity.BandFor(item.Severity)),
		Color:        severity.ColorFor(item.Severity),
		Title:        item.Title,
		Snippet:      item.Snippet,
		PublishedAt:  item.PublishedAt,
		CreatedAt:    item.CreatedAt,
		ScannedAt:    item.ScannedAt,
	}
	if withPersisted {
		persisted := item.Persisted
		out.Persisted = &persisted
	}
	return out
}

func toItems(items []domain.ScanItem, withPersisted bool) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItem(item, withPersisted))
	}
	return out
}

func toVerify(results []domain.VerifyResult) []verifyResponse {
	out := make([]verifyResponse, 0, len(results))
	for _, r := range results {
		out = append(out, verifyResponse{
			URL:      r.URL,
			Severity: r.Severity,
			GoreFlag: r.GoreFlag,
			Details:  r.Details,
			Error:    r.Err,
		})
	}
	return out
}

func toJob(snap usecase.JobSnapshot) jobResponse {
	out := jobResponse{
		ID:        snap.ID,
		Kind:      string(snap.Kind),
		Status:    string(snap.Status),
		Error:     snap.Error,
		CreatedAt: snap.CreatedAt,
	}
	if !snap.FinishedAt.IsZero() {
		finished := snap.FinishedAt
		out.FinishedAt = &finished
	}
	if snap.Scan != nil {
		scan := &scanResultResponse{
			ID:            snap.Scan.ID,
			Query:         snap.Scan.Query,
			Items:         toItems(snap.Scan.Items, true),
			Duplicates:    snap.Scan.Duplicates,
			StoreFailures: snap.Scan.StoreFailures,
		}
		for _, f := range snap.Scan.ProviderErrors {
			scan.ProviderErrors = append(scan.ProviderErrors, providerErrorResponse{
				Provider: f.Provider,
				Error:    f.Err.Error(),
			})
		}
		out.Scan = scan
	}
	if snap.Verify != nil {
		out.Verify = toVerify(snap.Verify)
	}
	return out
}
