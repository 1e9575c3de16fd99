package usecase

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/ports"
	"GoreScanner/internal/provider"
)

type stubProvider struct {
	name    string
	results []domain.RawResult
	err     error
	block   chan struct{}
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(ctx context.Context, _ provider.Request) ([]domain.RawResult, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.results, s.err
}

type memoryRepo struct {
	mu      sync.Mutex
	items   map[string]domain.ScanItem
	failErr error
}

var _ ports.ItemRepository = (*memoryRepo)(nil)

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[string]domain.ScanItem{}}
}

func (r *memoryRepo) Insert(_ context.Context, item domain.ScanItem) (domain.ScanItem, error) {
	if r.failErr != nil {
		return domain.ScanItem{}, r.failErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.items[item.CanonicalURL]; ok {
		item.ID = prev.ID
		item.CreatedAt = prev.CreatedAt
	} else {
		item.ID = int64(len(r.items) + 1)
	}
	item.Persisted = true
	r.items[item.CanonicalURL] = item
	return item, nil
}

func (r *memoryRepo) Query(context.Context, domain.ItemFilter) ([]domain.ScanItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ScanItem, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	return out, nil
}

func (r *memoryRepo) Stats(context.Context) (domain.Stats, error) {
	return domain.Stats{}, errors.New("not implemented")
}

func (r *memoryRepo) ExportCSV(context.Context, string, domain.ItemFilter) (int, error) {
	return 0, errors.New("not implemented")
}

func (r *memoryRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type memoryAudit struct {
	mu      sync.Mutex
	records []domain.AuditRecord
}

func (a *memoryAudit) Append(record domain.AuditRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, record)
}

func (a *memoryAudit) all() []domain.AuditRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.AuditRecord(nil), a.records...)
}

type memoryNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *memoryNotifier) PublishDigest(_ context.Context, digest string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, digest)
	return nil
}

func newSource(providers ...provider.Provider) *provider.Source {
	reg := provider.NewRegistry()
	for _, p := range providers {
		reg.Register(p)
	}
	return provider.NewSource(reg, 0, nil)
}

// gradientPNG draws a horizontal gradient. The direction makes the
// difference hashes of the red and green fixtures far apart.
func gradientPNG(t *testing.T, shade func(x int) color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, shade(x))
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// newMediaServer serves a red image under /red*.png, a green one under
// /green.png and HTML pages under /page/*.
func newMediaServer(t *testing.T) *httptest.Server {
	t.Helper()
	red := gradientPNG(t, func(x int) color.RGBA {
		return color.RGBA{R: uint8(150 + x), G: 20, B: 20, A: 255}
	})
	green := gradientPNG(t, func(x int) color.RGBA {
		return color.RGBA{R: 20, G: uint8(240 - 2*x), B: 40, A: 255}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/red.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(red)
	})
	mux.HandleFunc("/red-copy.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(red)
	})
	mux.HandleFunc("/green.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(green)
	})
	mux.HandleFunc("/page/severe", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Calm title</title></head>
<body><img src="data:image/png;base64,AAAA"><img src="/red.png"><p>nothing to see</p></body></html>`))
	})
	mux.HandleFunc("/page/text", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Massacre report</title></head><body><p>details</p></body></html>`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}
