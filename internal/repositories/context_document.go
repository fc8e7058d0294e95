package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"talentscreen/cv-evaluator/internal/models"
)

type ContextDocumentRepository interface {
	UpsertByType(doc *models.ContextDocument) error
	List(tenantID uuid.UUID, docType string) ([]models.ContextDocument, error)
	ExistsByType(tenantID uuid.UUID, docType string) (bool, error)
}

type contextDocumentRepository struct {
	db *gorm.DB
}

func NewContextDocumentRepository(db *gorm.DB) ContextDocumentRepository {
	return &contextDocumentRepository{db: db}
}

// UpsertByType implements ContextDocumentRepository. Exactly one document is
// kept per (tenant, type); an existing row is replaced wholesale. Concurrent
// upserts of the same key are last-write-wins.
func (r *contextDocumentRepository) UpsertByType(doc *models.ContextDocument) error {
	var existing models.ContextDocument
	err := r.db.Where("tenant_id = ? AND type = ?", doc.TenantID, doc.Type).First(&existing).Error

	if err == gorm.ErrRecordNotFound {
		if err := r.db.Create(doc).Error; err != nil {
			return fmt.Errorf("failed to create context document: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up context document: %w", err)
	}

	result := r.db.Model(&models.ContextDocument{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"content":    doc.Content,
			"embedding":  doc.Embedding,
			"meta":       doc.Meta,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update context document: %w", result.Error)
	}

	doc.ID = existing.ID
	return nil
}

// List implements ContextDocumentRepository. Results come back in insertion
// order so that the store's stable sort keeps a deterministic tie-break.
func (r *contextDocumentRepository) List(tenantID uuid.UUID, docType string) ([]models.ContextDocument, error) {
	var docs []models.ContextDocument

	query := r.db.Where("tenant_id = ?", tenantID)
	if docType != "" {
		query = query.Where("type = ?", docType)
	}

	if err := query.Order("created_at ASC, id ASC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list context documents: %w", err)
	}

	return docs, nil
}

// ExistsByType implements ContextDocumentRepository.
func (r *contextDocumentRepository) ExistsByType(tenantID uuid.UUID, docType string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ContextDocument{}).
		Where("tenant_id = ? AND type = ?", tenantID, docType).
		Count(&count).Error

	if err != nil {
		return false, fmt.Errorf("failed to check context document: %w", err)
	}

	return count > 0, nil
}
