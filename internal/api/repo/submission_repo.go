package repo

import (
	"gorm.io/gorm"

	"cascade"
	"cascade/internal/api/models"
)

type SubmissionRepository struct {
	Db *gorm.DB
}

func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{Db: cascade.DB}
}

func (slf *SubmissionRepository) Create(submission *models.IngestionSubmission) error {
	return slf.Db.Create(submission).Error
}

func (slf *SubmissionRepository) UpdateStatus(id string, status models.SubmissionStatus) error {
	return slf.Db.Model(&models.IngestionSubmission{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// RecentByCompany retrieves the latest submissions for a company, newest
// first.
func (slf *SubmissionRepository) RecentByCompany(companyID string, limit int) ([]models.IngestionSubmission, error) {
	var submissions []models.IngestionSubmission
	err := slf.Db.
		Where("company_id = ?", companyID).
		Order("created_at desc").
		Limit(limit).
		Find(&submissions).Error
	return submissions, err
}
