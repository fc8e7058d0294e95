package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Vector is an embedding stored as a jsonb column.
type Vector []float64

func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func (v *Vector) Scan(src interface{}) error {
	if src == nil {
		*v = nil
		return nil
	}

	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, v)
	case string:
		return json.Unmarshal([]byte(data), v)
	default:
		return fmt.Errorf("unsupported vector column type %T", src)
	}
}

// JSONMap is a free-form string map stored as a jsonb column.
type JSONMap map[string]string

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}

	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, m)
	case string:
		return json.Unmarshal([]byte(data), m)
	default:
		return fmt.Errorf("unsupported meta column type %T", src)
	}
}

// ContextDocument is a unit of retrievable evaluation context (job description,
// study case brief, scoring rubric). At most one current document exists per
// (tenant, type); upsert replaces it wholesale. The embedding is unit-norm,
// except when the source vector was all-zero.
type ContextDocument struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TenantID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_context_tenant_type;not null" json:"tenant_id"`
	Type      string    `gorm:"type:text;uniqueIndex:idx_context_tenant_type;not null" json:"type"`
	Content   string    `gorm:"type:text" json:"content"`
	Embedding Vector    `gorm:"type:jsonb" json:"-"`
	Meta      JSONMap   `gorm:"type:jsonb" json:"meta,omitempty"`
	CreatedAt time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (ContextDocument) TableName() string {
	return "context_documents"
}
