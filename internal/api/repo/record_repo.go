package repo

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cascade"
	"cascade/internal/api/models"
)

type RecordRepository struct {
	Db *gorm.DB
}

func NewRecordRepository() *RecordRepository {
	return &RecordRepository{Db: cascade.DB}
}

// FindByKey retrieves the execution record for one (company, workflow, node)
// key. Returns (nil, nil) when no record exists.
func (slf *RecordRepository) FindByKey(companyID, workflowID, nodeID string) (*models.NodeExecutionRecord, error) {
	var record models.NodeExecutionRecord
	err := slf.Db.
		Where("company_id = ? AND workflow_id = ? AND node_id = ?", companyID, workflowID, nodeID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert writes a record, updating in place on key conflict. Records are
// never deleted.
func (slf *RecordRepository) Upsert(record *models.NodeExecutionRecord) error {
	return slf.Db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "company_id"}, {Name: "workflow_id"}, {Name: "node_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"node_type", "node_label", "data", "content_hash",
			"dependency_hashes", "version", "last_executed_at", "updated_at",
		}),
	}).Create(record).Error
}

// AppendHistory records one generative execution in the append-only log.
func (slf *RecordRepository) AppendHistory(entry *models.EvaluationHistory) error {
	return slf.Db.Create(entry).Error
}

// ListHistory retrieves a node's evaluation log, newest first.
func (slf *RecordRepository) ListHistory(companyID, workflowID, nodeID string, limit int) ([]models.EvaluationHistory, error) {
	var entries []models.EvaluationHistory
	err := slf.Db.
		Where("company_id = ? AND workflow_id = ? AND node_id = ?", companyID, workflowID, nodeID).
		Order("created_at desc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// ListByWorkflow retrieves every node record of a workflow.
func (slf *RecordRepository) ListByWorkflow(companyID, workflowID string) ([]models.NodeExecutionRecord, error) {
	var records []models.NodeExecutionRecord
	err := slf.Db.
		Where("company_id = ? AND workflow_id = ?", companyID, workflowID).
		Find(&records).Error
	return records, err
}
