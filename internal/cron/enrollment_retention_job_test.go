package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/solsticehq/beacon-messaging/pkg/logger"
)

func TestEnrollmentRetentionJobDeletesClosedEnrollments(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeEnrollmentRetentionRepo{deletedRows: 5}
	job := newEnrollmentRetentionJob(t, repo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.UTC().Add(-enrollmentRetentionDays * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestEnrollmentRetentionJobPropagatesErrors(t *testing.T) {
	repo := &fakeEnrollmentRetentionRepo{err: errors.New("boom")}
	job := newEnrollmentRetentionJob(t, repo)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newEnrollmentRetentionJob(t *testing.T, repo *fakeEnrollmentRetentionRepo) *enrollmentRetentionJob {
	t.Helper()
	jobIface, err := NewEnrollmentRetentionJob(EnrollmentRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         retentionFakeTxRunner{},
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewEnrollmentRetentionJob: %v", err)
	}
	job, ok := jobIface.(*enrollmentRetentionJob)
	if !ok {
		t.Fatalf("expected enrollmentRetentionJob, got %T", jobIface)
	}
	return job
}

type fakeEnrollmentRetentionRepo struct {
	lastCutoff  time.Time
	deletedRows int64
	err         error
	called      int
}

func (f *fakeEnrollmentRetentionRepo) DeleteClosedEnrollmentsBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.deletedRows, nil
}
