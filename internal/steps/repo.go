package steps

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/solsticehq/beacon-messaging/pkg/db/models"
	"github.com/solsticehq/beacon-messaging/pkg/enums"
)

// Repository exposes the persistence surface the advancement worker needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	DueEnrollments(ctx context.Context, now time.Time, limit int) ([]models.SequenceEnrollment, error)
	ActiveStep(ctx context.Context, sequenceID uuid.UUID, stepOrder int) (*models.SequenceStep, error)

	EmailTemplateByID(ctx context.Context, id uuid.UUID) (*models.EmailTemplate, error)
	SmsTemplateByID(ctx context.Context, id uuid.UUID) (*models.SmsTemplate, error)
	CreateScheduledMessage(ctx context.Context, message *models.ScheduledMessage) error

	AdvanceEnrollment(ctx context.Context, enrollmentID uuid.UUID, stepOrder int, nextStepAt *time.Time) error
	CompleteEnrollment(ctx context.Context, enrollmentID uuid.UUID, now time.Time) error
	BumpStepSent(ctx context.Context, stepID uuid.UUID) error
	BumpSequenceCompleted(ctx context.Context, sequenceID uuid.UUID) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a step advancement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) DueEnrollments(ctx context.Context, now time.Time, limit int) ([]models.SequenceEnrollment, error) {
	var enrollments []models.SequenceEnrollment
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_step_at IS NOT NULL AND next_step_at <= ?", enums.EnrollmentStatusActive, now).
		Order("next_step_at ASC").
		Limit(limit).
		Find(&enrollments).Error
	if err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *repositoryImpl) ActiveStep(ctx context.Context, sequenceID uuid.UUID, stepOrder int) (*models.SequenceStep, error) {
	var step models.SequenceStep
	err := r.db.WithContext(ctx).
		Where("sequence_id = ? AND step_order = ? AND status = ?", sequenceID, stepOrder, enums.StepStatusActive).
		First(&step).Error
	if err != nil {
		return nil, err
	}
	return &step, nil
}

func (r *repositoryImpl) EmailTemplateByID(ctx context.Context, id uuid.UUID) (*models.EmailTemplate, error) {
	var template models.EmailTemplate
	if err := r.db.WithContext(ctx).First(&template, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *repositoryImpl) SmsTemplateByID(ctx context.Context, id uuid.UUID) (*models.SmsTemplate, error) {
	var template models.SmsTemplate
	if err := r.db.WithContext(ctx).First(&template, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *repositoryImpl) CreateScheduledMessage(ctx context.Context, message *models.ScheduledMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *repositoryImpl) AdvanceEnrollment(ctx context.Context, enrollmentID uuid.UUID, stepOrder int, nextStepAt *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.SequenceEnrollment{}).
		Where("id = ? AND status = ?", enrollmentID, enums.EnrollmentStatusActive).
		UpdateColumns(map[string]any{
			"current_step_order": stepOrder,
			"next_step_at":       nextStepAt,
		}).Error
}

func (r *repositoryImpl) CompleteEnrollment(ctx context.Context, enrollmentID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.SequenceEnrollment{}).
		Where("id = ? AND status = ?", enrollmentID, enums.EnrollmentStatusActive).
		UpdateColumns(map[string]any{
			"status":       enums.EnrollmentStatusCompleted,
			"completed_at": now,
			"next_step_at": nil,
		}).Error
}

func (r *repositoryImpl) BumpStepSent(ctx context.Context, stepID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.SequenceStep{}).
		Where("id = ?", stepID).
		UpdateColumn("total_sent", gorm.Expr("total_sent + 1")).Error
}

func (r *repositoryImpl) BumpSequenceCompleted(ctx context.Context, sequenceID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Sequence{}).
		Where("id = ?", sequenceID).
		UpdateColumn("total_completed", gorm.Expr("total_completed + 1")).Error
}
