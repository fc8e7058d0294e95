package models

import (
	"time"

	"github.com/google/uuid"
)

// UploadedFile is a candidate file (CV or project report) stored on disk,
// with its plain text extracted eagerly at upload time.
type UploadedFile struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TenantID      uuid.UUID `gorm:"type:uuid;index;not null" json:"tenant_id"`
	OriginalName  string    `gorm:"type:text" json:"original_name"`
	MimeType      string    `gorm:"type:text" json:"mime_type"`
	Path          string    `gorm:"type:text" json:"path"`
	TextExtracted string    `gorm:"type:text" json:"-"`
	CreatedAt     time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt     time.Time `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (UploadedFile) TableName() string {
	return "uploaded_files"
}
