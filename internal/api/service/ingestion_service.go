package service

import (
	"cascade"
	"cascade/internal/api/models"
	"cascade/internal/api/repo"
	"cascade/internal/engine"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNoWorkflow is returned when an ingestion caller has no workflow to
// process its submission.
var ErrNoWorkflow = errors.New("no active workflow for company")

type IngestResult struct {
	SubmissionID string
	WorkflowID   string
	Status       models.SubmissionStatus
	Run          *engine.Result
}

// IngestionService receives external data submissions and triggers the
// cascade that consumes them.
type IngestionService struct {
	cascadeService *CascadeService
	submissionRepo *repo.SubmissionRepository
	apiKeyRepo     *repo.ApiKeyRepository
	recordRepo     *repo.RecordRepository
	logger         zerolog.Logger
}

func NewIngestionService(cascadeService *CascadeService) *IngestionService {
	return &IngestionService{
		cascadeService: cascadeService,
		submissionRepo: repo.NewSubmissionRepository(),
		apiKeyRepo:     repo.NewApiKeyRepository(),
		recordRepo:     repo.NewRecordRepository(),
		logger:         cascade.Logger,
	}
}

// Ingest persists the submission, resolves the caller's workflow, seeds its
// ingest-fed nodes with the payload and runs the cascade synchronously.
// The submission row is kept even when the cascade fails.
func (slf *IngestionService) Ingest(ctx context.Context, key *models.ApiKey, payload map[string]any, metadata map[string]any) (*IngestResult, error) {
	submission := models.IngestionSubmission{
		ID:        uuid.NewString(),
		CompanyID: key.CompanyID,
		Source:    models.SubmissionSourceAPI,
		Status:    models.SubmissionStatusReceived,
		CreatedAt: time.Now(),
	}
	if data, err := json.Marshal(payload); err == nil {
		submission.Data = data
	}
	if meta, err := json.Marshal(metadata); err == nil {
		submission.Metadata = meta
	}
	if err := slf.submissionRepo.Create(&submission); err != nil {
		return nil, err
	}

	workflow, err := slf.workflowFor(key)
	if err != nil {
		return nil, err
	}

	seeds := map[string]any{}
	for _, id := range ingestFedNodeIDs(workflow) {
		seeds[id] = payload
	}

	run, err := slf.cascadeService.Run(ctx, engine.Request{
		CompanyID: key.CompanyID,
		Workflow:  workflow,
		Seeds:     seeds,
	})
	if err != nil {
		slf.markStatus(submission.ID, models.SubmissionStatusFailed)
		return nil, err
	}

	slf.markStatus(submission.ID, models.SubmissionStatusProcessed)
	slf.appendHistory(key.CompanyID, workflow.ID, run)

	return &IngestResult{
		SubmissionID: submission.ID,
		WorkflowID:   workflow.ID,
		Status:       models.SubmissionStatusProcessed,
		Run:          run,
	}, nil
}

func (slf *IngestionService) workflowFor(key *models.ApiKey) (*models.Workflow, error) {
	if key.WorkflowID != "" {
		workflow, err := slf.cascadeService.WorkflowByID(key.WorkflowID)
		if err != nil {
			return nil, err
		}
		if workflow == nil {
			return nil, ErrNoWorkflow
		}
		return workflow, nil
	}
	workflow, err := slf.cascadeService.ActiveWorkflow(key.CompanyID)
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		return nil, ErrNoWorkflow
	}
	return workflow, nil
}

func (slf *IngestionService) markStatus(id string, status models.SubmissionStatus) {
	if err := slf.submissionRepo.UpdateStatus(id, status); err != nil {
		slf.logger.Error().Err(err).Str("submissionId", id).Msg("Error updating submission status")
	}
}

// appendHistory logs every evaluated execution of this run.
func (slf *IngestionService) appendHistory(companyID, workflowID string, run *engine.Result) {
	for nodeID, node := range run.Nodes {
		if node.Evaluation == nil {
			continue
		}
		data, err := json.Marshal(node.Evaluation)
		if err != nil {
			continue
		}
		entry := models.EvaluationHistory{
			CompanyID:  companyID,
			WorkflowID: workflowID,
			NodeID:     nodeID,
			Data:       data,
			CreatedAt:  node.ExecutedAt,
		}
		if err := slf.recordRepo.AppendHistory(&entry); err != nil {
			slf.logger.Error().Err(err).Str("nodeId", nodeID).Msg("Error appending evaluation history")
		}
	}
}

// ingestFedNodeIDs lists the nodes a submission seeds: ingest nodes plus
// datasets reading from the ingest source.
func ingestFedNodeIDs(workflow *models.Workflow) []string {
	var ids []string
	for _, node := range workflow.Nodes {
		switch node.Type {
		case models.NodeTypeIngest:
			ids = append(ids, node.ID)
		case models.NodeTypeDataset:
			config, err := node.GetDatasetConfig()
			if err == nil && config.Source == models.DatasetSourceIngest {
				ids = append(ids, node.ID)
			}
		}
	}
	return ids
}
