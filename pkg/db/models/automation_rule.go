package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/solsticehq/beacon-messaging/pkg/db/types"
	"github.com/solsticehq/beacon-messaging/pkg/enums"
)

// AutomationRule is a single-fire message configuration bound to one event
// name. Authored by the admin tool; the engine only reads it and bumps the
// send telemetry.
type AutomationRule struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string               `gorm:"column:name;type:text;not null"`
	EventName    string               `gorm:"column:event_name;type:text;not null;index"`
	Status       enums.RuleStatus     `gorm:"column:status;type:rule_status;not null;default:'active'"`
	Conditions   dbtypes.JSONMap      `gorm:"column:conditions;type:jsonb"`
	Channel      enums.MessageChannel `gorm:"column:channel;type:message_channel;not null"`
	TemplateID   uuid.UUID            `gorm:"column:template_id;type:uuid;not null"`
	DelayMinutes int                  `gorm:"column:delay_minutes;not null;default:0"`
	TotalSent    int                  `gorm:"column:total_sent;not null;default:0"`
	LastSentAt   *time.Time           `gorm:"column:last_sent_at;type:timestamptz"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
