package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/solsticehq/beacon-messaging/pkg/logger"
)

const enrollmentRetentionDays = 180

type enrollmentRetentionRepo interface {
	DeleteClosedEnrollmentsBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// EnrollmentRetentionJobParams configure the enrollment cleanup job.
type EnrollmentRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository enrollmentRetentionRepo
	Retention  int
}

// NewEnrollmentRetentionJob builds the job that prunes completed and
// cancelled enrollments past the retention window. Active enrollments are
// never touched.
func NewEnrollmentRetentionJob(params EnrollmentRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("enrollments repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = enrollmentRetentionDays
	}
	return &enrollmentRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type enrollmentRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      enrollmentRetentionRepo
	retention int
	now       func() time.Time
}

func (j *enrollmentRetentionJob) Name() string { return "enrollment-retention" }

func (j *enrollmentRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteClosedEnrollmentsBefore(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("enrollment retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "enrollment retention complete")
	return nil
}
