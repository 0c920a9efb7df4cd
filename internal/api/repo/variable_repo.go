package repo

import (
	"errors"

	"gorm.io/gorm"

	"cascade"
	"cascade/internal/api/models"
)

type VariableRepository struct {
	Db *gorm.DB
}

func NewVariableRepository() *VariableRepository {
	return &VariableRepository{Db: cascade.DB}
}

func (slf *VariableRepository) FindByName(companyID, name string) (*models.Variable, error) {
	var variable models.Variable
	err := slf.Db.
		Where("company_id = ? AND name = ?", companyID, name).
		First(&variable).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &variable, nil
}
