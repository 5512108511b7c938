package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/solsticehq/beacon-messaging/pkg/db/models"
	"github.com/solsticehq/beacon-messaging/pkg/enums"
	"github.com/solsticehq/beacon-messaging/pkg/pagination"
)

// Repository exposes the persistence surface the trigger pipeline needs:
// rule/sequence config reads, template lookups, and the durable writes for
// scheduled messages and enrollments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ActiveRulesByEvent(ctx context.Context, eventName string) ([]models.AutomationRule, error)
	BumpRuleSendStats(ctx context.Context, ruleID uuid.UUID, now time.Time) error

	EmailTemplateByID(ctx context.Context, id uuid.UUID) (*models.EmailTemplate, error)
	SmsTemplateByID(ctx context.Context, id uuid.UUID) (*models.SmsTemplate, error)
	CreateScheduledMessage(ctx context.Context, message *models.ScheduledMessage) error

	ActiveSequencesByTrigger(ctx context.Context, eventName string) ([]models.Sequence, error)
	FirstActiveStep(ctx context.Context, sequenceID uuid.UUID) (*models.SequenceStep, error)
	CreateEnrollment(ctx context.Context, enrollment *models.SequenceEnrollment) error
	BumpSequenceEnrolled(ctx context.Context, sequenceID uuid.UUID) error

	ActiveEnrollmentsWithSequence(ctx context.Context) ([]models.SequenceEnrollment, error)
	CancelEnrollment(ctx context.Context, enrollmentID uuid.UUID, now time.Time, reason string) error

	ListEnrollments(ctx context.Context, params listEnrollmentsParams) ([]models.SequenceEnrollment, *pagination.Cursor, error)

	DeleteTerminalMessagesBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
	DeleteClosedEnrollmentsBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an engine repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listEnrollmentsParams struct {
	SequenceID uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
	Status     enums.EnrollmentStatus
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) ActiveRulesByEvent(ctx context.Context, eventName string) ([]models.AutomationRule, error) {
	var rules []models.AutomationRule
	err := r.db.WithContext(ctx).
		Where("event_name = ? AND status = ?", eventName, enums.RuleStatusActive).
		Order("created_at ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repositoryImpl) BumpRuleSendStats(ctx context.Context, ruleID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AutomationRule{}).
		Where("id = ?", ruleID).
		UpdateColumns(map[string]any{
			"total_sent":   gorm.Expr("total_sent + 1"),
			"last_sent_at": now,
		}).Error
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

func (r *repositoryImpl) ActiveSequencesByTrigger(ctx context.Context, eventName string) ([]models.Sequence, error) {
	var sequences []models.Sequence
	err := r.db.WithContext(ctx).
		Where("trigger_event = ? AND status = ?", eventName, enums.SequenceStatusActive).
		Order("created_at ASC").
		Find(&sequences).Error
	if err != nil {
		return nil, err
	}
	return sequences, nil
}

func (r *repositoryImpl) FirstActiveStep(ctx context.Context, sequenceID uuid.UUID) (*models.SequenceStep, error) {
	var step models.SequenceStep
	err := r.db.WithContext(ctx).
		Where("sequence_id = ? AND step_order = ? AND status = ?", sequenceID, 1, enums.StepStatusActive).
		First(&step).Error
	if err != nil {
		return nil, err
	}
	return &step, nil
}

func (r *repositoryImpl) CreateEnrollment(ctx context.Context, enrollment *models.SequenceEnrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *repositoryImpl) BumpSequenceEnrolled(ctx context.Context, sequenceID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Sequence{}).
		Where("id = ?", sequenceID).
		UpdateColumn("total_enrolled", gorm.Expr("total_enrolled + 1")).Error
}

func (r *repositoryImpl) ActiveEnrollmentsWithSequence(ctx context.Context) ([]models.SequenceEnrollment, error) {
	var enrollments []models.SequenceEnrollment
	err := r.db.WithContext(ctx).
		Preload("Sequence").
		Where("status = ?", enums.EnrollmentStatusActive).
		Find(&enrollments).Error
	if err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *repositoryImpl) CancelEnrollment(ctx context.Context, enrollmentID uuid.UUID, now time.Time, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.SequenceEnrollment{}).
		Where("id = ? AND status = ?", enrollmentID, enums.EnrollmentStatusActive).
		UpdateColumns(map[string]any{
			"status":        enums.EnrollmentStatusCancelled,
			"cancelled_at":  now,
			"cancel_reason": reason,
		}).Error
}

func (r *repositoryImpl) ListEnrollments(ctx context.Context, params listEnrollmentsParams) ([]models.SequenceEnrollment, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.SequenceEnrollment{}).
		Where("sequence_id = ?", params.SequenceID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(enrolled_at, id) < (?, ?)", params.Cursor.Timestamp, params.Cursor.ID)
	}

	var enrollments []models.SequenceEnrollment
	if err := query.Order("enrolled_at DESC, id DESC").Limit(limit).Find(&enrollments).Error; err != nil {
		return nil, nil, err
	}

	if len(enrollments) > normalized {
		enrollments = enrollments[:normalized]
		last := enrollments[normalized-1]
		return enrollments, &pagination.Cursor{Timestamp: last.EnrolledAt, ID: last.ID}, nil
	}
	return enrollments, nil, nil
}

func (r *repositoryImpl) DeleteTerminalMessagesBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	result := conn.WithContext(ctx).
		Where("status IN ? AND created_at < ?", []enums.MessageStatus{enums.MessageStatusSent, enums.MessageStatusFailed}, cutoff).
		Delete(&models.ScheduledMessage{})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) DeleteClosedEnrollmentsBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	result := conn.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", []enums.EnrollmentStatus{enums.EnrollmentStatusCompleted, enums.EnrollmentStatusCancelled}, cutoff).
		Delete(&models.SequenceEnrollment{})
	return result.RowsAffected, result.Error
}
