package repo

import (
	"gorm.io/gorm"

	"cascade"
	"cascade/internal/api/models"
)

type SchemaRepository struct {
	Db *gorm.DB
}

func NewSchemaRepository() *SchemaRepository {
	return &SchemaRepository{Db: cascade.DB}
}

// ListByCompany retrieves the company's structured-schema definitions.
func (slf *SchemaRepository) ListByCompany(companyID string) ([]models.SchemaDefinition, error) {
	var definitions []models.SchemaDefinition
	err := slf.Db.
		Where("company_id = ?", companyID).
		Order("name asc").
		Find(&definitions).Error
	return definitions, err
}
