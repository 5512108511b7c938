package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/solsticehq/beacon-messaging/pkg/enums"
)

// SequenceStep is one ordered message inside a sequence. Step orders are
// 1-based and expected to be gapless; the trigger engine only reads step 1,
// the advancement worker walks the rest.
type SequenceStep struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SequenceID      uuid.UUID            `gorm:"column:sequence_id;type:uuid;not null;index"`
	StepOrder       int                  `gorm:"column:step_order;not null"`
	Channel         enums.MessageChannel `gorm:"column:channel;type:message_channel;not null;default:'email'"`
	TemplateID      uuid.UUID            `gorm:"column:template_id;type:uuid;not null"`
	SubjectOverride *string              `gorm:"column:subject_override;type:text"`
	DelayMinutes    int                  `gorm:"column:delay_minutes;not null;default:0"`
	DelayFrom       enums.DelayFrom      `gorm:"column:delay_from;type:delay_from;not null;default:'previous_step'"`
	Status          enums.StepStatus     `gorm:"column:status;type:step_status;not null;default:'active'"`
	TotalSent       int                  `gorm:"column:total_sent;not null;default:0"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
