package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JohnnyHuang0515/ecommerce-backend/pkg/logger"
)

func TestCartAbandonmentJobUsesDefaultCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeCartAbandonmentRepo{}
	job := newCartAbandonmentJob(t, repo, 0)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.UTC().Add(-cartAbandonHours * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestCartAbandonmentJobHonorsConfiguredWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeCartAbandonmentRepo{}
	job := newCartAbandonmentJob(t, repo, 6*time.Hour)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.UTC().Add(-6 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
}

func TestCartAbandonmentJobPropagatesError(t *testing.T) {
	repo := &fakeCartAbandonmentRepo{err: errors.New("boom")}
	job := newCartAbandonmentJob(t, repo, 0)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newCartAbandonmentJob(t *testing.T, repo *fakeCartAbandonmentRepo, window time.Duration) *cartAbandonmentJob {
	t.Helper()
	jobIface, err := NewCartAbandonmentJob(CartAbandonmentJobParams{
		Logger:       logger.New(logger.Options{ServiceName: "test"}),
		Repository:   repo,
		AbandonAfter: window,
	})
	if err != nil {
		t.Fatalf("NewCartAbandonmentJob: %v", err)
	}
	job, ok := jobIface.(*cartAbandonmentJob)
	if !ok {
		t.Fatalf("expected cartAbandonmentJob, got %T", jobIface)
	}
	return job
}

type fakeCartAbandonmentRepo struct {
	lastCutoff time.Time
	called     int
	err        error
}

func (f *fakeCartAbandonmentRepo) MarkAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}
