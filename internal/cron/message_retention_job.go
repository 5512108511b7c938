package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/solsticehq/beacon-messaging/pkg/logger"
)

const messageRetentionDays = 90

// txRunner runs a function inside a database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type messageRetentionRepo interface {
	DeleteTerminalMessagesBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// MessageRetentionJobParams configure the scheduled message cleanup job.
type MessageRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository messageRetentionRepo
	Retention  int
}

// NewMessageRetentionJob builds the job that prunes sent and failed messages
// past the retention window.
func NewMessageRetentionJob(params MessageRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("messages repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = messageRetentionDays
	}
	return &messageRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type messageRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      messageRetentionRepo
	retention int
	now       func() time.Time
}

func (j *messageRetentionJob) Name() string { return "message-retention" }

func (j *messageRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteTerminalMessagesBefore(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("message retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "message retention complete")
	return nil
}
