package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"talentscreen/cv-evaluator/internal/models"
)

type TenantRepository interface {
	Create(tenant *models.Tenant) error
	FindByIDOrSlug(idOrSlug string) (*models.Tenant, error)
	Count() (int64, error)
}

type tenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

// Create implements TenantRepository.
func (r *tenantRepository) Create(tenant *models.Tenant) error {
	if err := r.db.Create(tenant).Error; err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	return nil
}

// FindByIDOrSlug implements TenantRepository. The identifier may be either the
// tenant UUID or its slug.
func (r *tenantRepository) FindByIDOrSlug(idOrSlug string) (*models.Tenant, error) {
	var tenant models.Tenant

	query := r.db.Where("slug = ?", idOrSlug)
	if id, err := uuid.Parse(idOrSlug); err == nil {
		query = r.db.Where("id = ?", id).Or("slug = ?", idOrSlug)
	}

	if err := query.First(&tenant).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("tenant not found")
		}
		return nil, fmt.Errorf("failed to find tenant: %w", err)
	}

	return &tenant, nil
}

// Count implements TenantRepository.
func (r *tenantRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Tenant{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count tenants: %w", err)
	}

	return count, nil
}
