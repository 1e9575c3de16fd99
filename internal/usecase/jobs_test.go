package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"GoreScanner/internal/domain"
	"GoreScanner/internal/provider"
)

func TestJobsScanLifecycle(t *testing.T) {
	t.Parallel()

	news := &stubProvider{name: provider.News, results: []domain.RawResult{{URL: "https://a.example", MediaType: domain.MediaText}}}
	jobs := NewJobs(context.Background(), newTestScanner(newSource(news), newMemoryRepo(), &memoryAudit{}), nil)

	job := jobs.SubmitScan(ScanRequest{Query: "q", Providers: []string{provider.News}})
	if job.ID == "" || job.Kind != JobScan {
		t.Fatalf("unexpected job: %+v", job)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := job.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	if snap.Status != JobDone || snap.Scan == nil || len(snap.Scan.Items) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	got, err := jobs.Get(job.ID)
	if err != nil || got != job {
		t.Fatalf("Get returned %v, %v", got, err)
	}
	if _, err := jobs.Get("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestJobsVerifyAndFailure(t *testing.T) {
	t.Parallel()

	jobs := NewJobs(context.Background(), nil, nil)
	job := jobs.SubmitVerify([]string{"https://x.example"})
	<-job.Done()
	if job.Status() != JobFailed || job.Snapshot().Error == "" {
		t.Fatalf("expected failed job without verifier, got %+v", job.Snapshot())
	}

	server := newMediaServer(t)
	jobs = NewJobs(context.Background(), nil, newTestVerifier(server.Client(), &memoryAudit{}))
	job = jobs.SubmitVerify([]string{server.URL + "/red.png"})
	jobs.Wait()
	snap := job.Snapshot()
	if snap.Status != JobDone || len(snap.Verify) != 1 || snap.Verify[0].Severity != 1 {
		t.Fatalf("unexpected verify job: %+v", snap)
	}
}

func TestJobsEvictsFinishedBeyondLimit(t *testing.T) {
	t.Parallel()

	jobs := NewJobs(context.Background(), nil, nil)
	first := jobs.SubmitVerify(nil)
	jobs.Wait()

	for i := 0; i < maxJobs; i++ {
		jobs.SubmitVerify(nil)
		jobs.Wait()
	}

	if _, err := jobs.Get(first.ID); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected oldest job evicted, got %v", err)
	}
}
