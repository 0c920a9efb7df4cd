package repo

import (
	"errors"

	"gorm.io/gorm"

	"cascade"
	"cascade/internal/api/models"
)

type WorkflowRepository struct {
	Db *gorm.DB
}

func NewWorkflowRepository() *WorkflowRepository {
	return &WorkflowRepository{Db: cascade.DB}
}

// FindByID retrieves a workflow with its nodes and edges.
func (slf *WorkflowRepository) FindByID(id string) (*models.Workflow, error) {
	var workflow models.Workflow
	err := slf.Db.
		Preload("Nodes").
		Preload("Edges").
		First(&workflow, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &workflow, nil
}

// FindActiveByCompany retrieves the company's active workflow, or (nil, nil).
func (slf *WorkflowRepository) FindActiveByCompany(companyID string) (*models.Workflow, error) {
	var workflow models.Workflow
	err := slf.Db.
		Preload("Nodes").
		Preload("Edges").
		Where("company_id = ? AND active = ?", companyID, true).
		First(&workflow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &workflow, nil
}
