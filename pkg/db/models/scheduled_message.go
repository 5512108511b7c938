package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/solsticehq/beacon-messaging/pkg/enums"
)

// ScheduledMessage is a durable, not-yet-delivered unit of outbound
// communication. The engine and step worker only insert rows; the delivery
// dispatcher polls for scheduled_for <= now and owns the terminal status.
type ScheduledMessage struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MessageType     enums.MessageChannel `gorm:"column:message_type;type:message_channel;not null"`
	RecipientEmail  *string              `gorm:"column:recipient_email;type:text"`
	RecipientPhone  *string              `gorm:"column:recipient_phone;type:text"`
	RecipientName   *string              `gorm:"column:recipient_name;type:text"`
	RecipientUserID *uuid.UUID           `gorm:"column:recipient_user_id;type:uuid"`
	Subject         *string              `gorm:"column:subject;type:text"`
	Body            string               `gorm:"column:body;type:text;not null"`
	TextBody        *string              `gorm:"column:text_body;type:text"`
	ScheduledFor    time.Time            `gorm:"column:scheduled_for;type:timestamptz;not null;index"`
	EmailTemplateID *uuid.UUID           `gorm:"column:email_template_id;type:uuid"`
	SmsTemplateID   *uuid.UUID           `gorm:"column:sms_template_id;type:uuid"`
	Status          enums.MessageStatus  `gorm:"column:status;type:message_status;not null;default:'pending';index"`
	SentAt          *time.Time           `gorm:"column:sent_at;type:timestamptz"`
	LastError       *string              `gorm:"column:last_error;type:text"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
}
