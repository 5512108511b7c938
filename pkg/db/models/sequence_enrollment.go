package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/solsticehq/beacon-messaging/pkg/db/types"
	"github.com/solsticehq/beacon-messaging/pkg/enums"
)

// SequenceEnrollment records one contact's progress through one sequence.
// The (sequence_id, email) unique index is what makes repeated trigger events
// for the same contact a no-op rather than a double enrollment.
type SequenceEnrollment struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SequenceID       uuid.UUID              `gorm:"column:sequence_id;type:uuid;not null;uniqueIndex:idx_enrollments_sequence_email"`
	UserID           *uuid.UUID             `gorm:"column:user_id;type:uuid"`
	Email            string                 `gorm:"column:email;type:text;not null;uniqueIndex:idx_enrollments_sequence_email"`
	Phone            *string                `gorm:"column:phone;type:text"`
	Metadata         dbtypes.JSONMap        `gorm:"column:metadata;type:jsonb"`
	CurrentStepOrder int                    `gorm:"column:current_step_order;not null;default:0"`
	Status           enums.EnrollmentStatus `gorm:"column:status;type:enrollment_status;not null;default:'active';index"`
	NextStepAt       *time.Time             `gorm:"column:next_step_at;type:timestamptz;index"`
	EnrolledAt       time.Time              `gorm:"column:enrolled_at;autoCreateTime"`
	CompletedAt      *time.Time             `gorm:"column:completed_at;type:timestamptz"`
	CancelledAt      *time.Time             `gorm:"column:cancelled_at;type:timestamptz"`
	CancelReason     *string                `gorm:"column:cancel_reason;type:text"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`

	Sequence Sequence `gorm:"foreignKey:SequenceID"`
}
