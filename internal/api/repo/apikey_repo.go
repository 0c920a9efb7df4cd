package repo

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"cascade"
	"cascade/internal/api/models"
)

type ApiKeyRepository struct {
	Db *gorm.DB
}

func NewApiKeyRepository() *ApiKeyRepository {
	return &ApiKeyRepository{Db: cascade.DB}
}

// FindActiveByHash retrieves the active key matching a hash, or (nil, nil).
func (slf *ApiKeyRepository) FindActiveByHash(keyHash string) (*models.ApiKey, error) {
	var key models.ApiKey
	err := slf.Db.
		Where("key_hash = ? AND active = ?", keyHash, true).
		First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (slf *ApiKeyRepository) TouchLastUsed(id uint) error {
	now := time.Now()
	return slf.Db.Model(&models.ApiKey{}).
		Where("id = ?", id).
		Update("last_used_at", now).Error
}
