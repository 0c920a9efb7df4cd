package repo

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"cascade"
	"cascade/internal/api/models"
)

type AlertRepository struct {
	Db *gorm.DB
}

func NewAlertRepository() *AlertRepository {
	return &AlertRepository{Db: cascade.DB}
}

// FindUnresolved retrieves the open alert for a dedup key, or (nil, nil).
func (slf *AlertRepository) FindUnresolved(dedupKey string) (*models.Alert, error) {
	var alert models.Alert
	err := slf.Db.
		Where("dedup_key = ? AND is_resolved = ?", dedupKey, false).
		First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (slf *AlertRepository) Create(alert *models.Alert) error {
	return slf.Db.Create(alert).Error
}

// Touch increments the occurrence counter and bumps last-seen.
func (slf *AlertRepository) Touch(id uint, seenAt time.Time) error {
	return slf.Db.Model(&models.Alert{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"occurrence_count": gorm.Expr("occurrence_count + 1"),
			"last_seen_at":     seenAt,
		}).Error
}

func (slf *AlertRepository) Resolve(id uint) error {
	now := time.Now()
	return slf.Db.Model(&models.Alert{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_resolved": true,
			"resolved_at": now,
		}).Error
}

// ListByCompany retrieves alerts for a company, unresolved first, newest
// first within each group.
func (slf *AlertRepository) ListByCompany(companyID string, includeResolved bool) ([]models.Alert, error) {
	var alerts []models.Alert
	query := slf.Db.Where("company_id = ? OR company_id = ''", companyID)
	if !includeResolved {
		query = query.Where("is_resolved = ?", false)
	}
	err := query.Order("is_resolved asc, last_seen_at desc").Find(&alerts).Error
	return alerts, err
}
