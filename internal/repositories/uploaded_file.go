package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"talentscreen/cv-evaluator/internal/models"
)

type UploadedFileRepository interface {
	Create(file *models.UploadedFile) error
	FindByID(tenantID, id uuid.UUID) (*models.UploadedFile, error)
}

type uploadedFileRepository struct {
	db *gorm.DB
}

func NewUploadedFileRepository(db *gorm.DB) UploadedFileRepository {
	return &uploadedFileRepository{db: db}
}

// Create implements UploadedFileRepository.
func (r *uploadedFileRepository) Create(file *models.UploadedFile) error {
	if err := r.db.Create(file).Error; err != nil {
		return fmt.Errorf("failed to create uploaded file: %w", err)
	}

	return nil
}

// FindByID implements UploadedFileRepository. Lookups are always tenant-scoped.
func (r *uploadedFileRepository) FindByID(tenantID, id uuid.UUID) (*models.UploadedFile, error) {
	var file models.UploadedFile
	if err := r.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&file).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("uploaded file not found: %w", err)
		}

		return nil, fmt.Errorf("failed to find uploaded file: %w", err)
	}

	return &file, nil
}
