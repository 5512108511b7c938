package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/solsticehq/beacon-messaging/pkg/db/types"
	"github.com/solsticehq/beacon-messaging/pkg/enums"
)

// Sequence is a multi-step drip campaign bound to one trigger event and a
// list of exit events.
type Sequence struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string               `gorm:"column:name;type:text;not null"`
	TriggerEvent      string               `gorm:"column:trigger_event;type:text;not null;index"`
	Status            enums.SequenceStatus `gorm:"column:status;type:sequence_status;not null;default:'draft'"`
	TriggerConditions dbtypes.JSONMap      `gorm:"column:trigger_conditions;type:jsonb"`
	ExitEvents        dbtypes.StringArray  `gorm:"column:exit_events;type:text[]"`
	TotalEnrolled     int                  `gorm:"column:total_enrolled;not null;default:0"`
	TotalCompleted    int                  `gorm:"column:total_completed;not null;default:0"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`

	Steps []SequenceStep `gorm:"foreignKey:SequenceID"`
}
