package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailTemplate holds admin-authored email content with {{key}} placeholders.
type EmailTemplate struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null"`
	Subject   string    `gorm:"column:subject;type:text;not null"`
	HTMLBody  string    `gorm:"column:html_body;type:text;not null"`
	TextBody  *string   `gorm:"column:text_body;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
