package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/solsticehq/beacon-messaging/pkg/logger"
)

func TestMessageRetentionJobDeletesExpiredMessages(t *testing.T) {
	now := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	repo := &fakeMessageRetentionRepo{deletedRows: 17}
	job := newMessageRetentionJob(t, repo, 0)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.UTC().Add(-messageRetentionDays * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestMessageRetentionJobHonorsConfiguredRetention(t *testing.T) {
	now := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	repo := &fakeMessageRetentionRepo{}
	job := newMessageRetentionJob(t, repo, 30)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.UTC().Add(-30 * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
}

func TestMessageRetentionJobPropagatesErrors(t *testing.T) {
	repo := &fakeMessageRetentionRepo{err: errors.New("boom")}
	job := newMessageRetentionJob(t, repo, 0)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newMessageRetentionJob(t *testing.T, repo *fakeMessageRetentionRepo, retention int) *messageRetentionJob {
	t.Helper()
	jobIface, err := NewMessageRetentionJob(MessageRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         retentionFakeTxRunner{},
		Repository: repo,
		Retention:  retention,
	})
	if err != nil {
		t.Fatalf("NewMessageRetentionJob: %v", err)
	}
	job, ok := jobIface.(*messageRetentionJob)
	if !ok {
		t.Fatalf("expected messageRetentionJob, got %T", jobIface)
	}
	return job
}

type fakeMessageRetentionRepo struct {
	lastCutoff  time.Time
	deletedRows int64
	err         error
	called      int
}

func (f *fakeMessageRetentionRepo) DeleteTerminalMessagesBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.deletedRows, nil
}

type retentionFakeTxRunner struct{}

func (retentionFakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
