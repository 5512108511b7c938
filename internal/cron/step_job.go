package cron

import (
	"context"
	"fmt"

	"github.com/solsticehq/beacon-messaging/internal/steps"
	"github.com/solsticehq/beacon-messaging/pkg/logger"
)

const defaultStepBatchSize = 100

// SequenceStepJobParams configure the step advancement job.
type SequenceStepJobParams struct {
	Logger    *logger.Logger
	Service   steps.Service
	BatchSize int
}

// NewSequenceStepJob builds the job that walks due enrollments forward.
func NewSequenceStepJob(params SequenceStepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Service == nil {
		return nil, fmt.Errorf("steps service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultStepBatchSize
	}
	return &sequenceStepJob{
		logg:      params.Logger,
		svc:       params.Service,
		batchSize: batchSize,
	}, nil
}

type sequenceStepJob struct {
	logg      *logger.Logger
	svc       steps.Service
	batchSize int
}

func (j *sequenceStepJob) Name() string { return "sequence-steps" }

func (j *sequenceStepJob) Run(ctx context.Context) error {
	stats, err := j.svc.ProcessDue(ctx, j.batchSize)
	if err != nil {
		return fmt.Errorf("process due enrollments: %w", err)
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d due enrollments failed", stats.Failed, stats.Processed)
	}
	return nil
}
