package repo

import (
	"errors"

	"gorm.io/gorm"

	"cascade"
	"cascade/internal/api/models"
)

type FrameworkRepository struct {
	Db *gorm.DB
}

func NewFrameworkRepository() *FrameworkRepository {
	return &FrameworkRepository{Db: cascade.DB}
}

func (slf *FrameworkRepository) FindByID(id string) (*models.Framework, error) {
	var framework models.Framework
	err := slf.Db.First(&framework, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &framework, nil
}
