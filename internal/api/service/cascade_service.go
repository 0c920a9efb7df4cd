package service

import (
	"cascade"
	"cascade/internal/api/models"
	"cascade/internal/api/repo"
	"cascade/internal/engine"
	"cascade/pkg"
	"context"

	"github.com/rs/zerolog"
)

// CascadeService owns the engine runtime: it binds the reactive cascade
// engine to the persistence layer, the LLM backend, Redis shared caches and
// the outbound event queue.
type CascadeService struct {
	runner       *engine.Runner
	workflowRepo *repo.WorkflowRepository
	recordRepo   *repo.RecordRepository
	logger       zerolog.Logger
}

func NewCascadeService(events engine.EventPublisher) *CascadeService {
	cfg := cascade.GetConfig()
	llm := pkg.NewChatClient(cfg.LLMConfig.Host)
	recordRepo := repo.NewRecordRepository()

	rt := &engine.Runtime{
		Records:      &recordStoreAdapter{repo: recordRepo},
		LLM:          llm,
		Schemas:      &schemaSourceAdapter{repo: repo.NewSchemaRepository()},
		Submissions:  &submissionSourceAdapter{repo: repo.NewSubmissionRepository()},
		Variables:    &variableSourceAdapter{repo: repo.NewVariableRepository()},
		Frameworks:   &frameworkSourceAdapter{repo: repo.NewFrameworkRepository()},
		Cache:        &redisSharedCache{},
		Integrations: NewIntegrationService(),
		Alerts:       NewAlertService(),
		Events:       events,
		Evaluator:    engine.NewEvaluator(llm, cfg.LLMConfig.EvaluationModel, cascade.Logger),
		DefaultModel: cfg.LLMConfig.DefaultModel,

		EvaluationMinOutputLen: cfg.CascadeConfig.EvaluationMinOutputLen,
		Logger:                 cascade.Logger,
	}

	return &CascadeService{
		runner:       engine.NewRunner(rt),
		workflowRepo: repo.NewWorkflowRepository(),
		recordRepo:   recordRepo,
		logger:       cascade.Logger,
	}
}

// Run executes one cascade request against the engine.
func (slf *CascadeService) Run(ctx context.Context, req engine.Request) (*engine.Result, error) {
	return slf.runner.Run(ctx, req)
}

func (slf *CascadeService) WorkflowByID(id string) (*models.Workflow, error) {
	return slf.workflowRepo.FindByID(id)
}

func (slf *CascadeService) ActiveWorkflow(companyID string) (*models.Workflow, error) {
	return slf.workflowRepo.FindActiveByCompany(companyID)
}

func (slf *CascadeService) Records(companyID, workflowID string) ([]models.NodeExecutionRecord, error) {
	return slf.recordRepo.ListByWorkflow(companyID, workflowID)
}

// recordStoreAdapter exposes the GORM record repository as the engine's
// RecordStore.
type recordStoreAdapter struct {
	repo *repo.RecordRepository
}

func (slf *recordStoreAdapter) Find(_ context.Context, companyID, workflowID, nodeID string) (*models.NodeExecutionRecord, error) {
	return slf.repo.FindByKey(companyID, workflowID, nodeID)
}

func (slf *recordStoreAdapter) Save(_ context.Context, record *models.NodeExecutionRecord) error {
	return slf.repo.Upsert(record)
}

func (slf *recordStoreAdapter) ListByWorkflow(_ context.Context, companyID, workflowID string) ([]models.NodeExecutionRecord, error) {
	return slf.repo.ListByWorkflow(companyID, workflowID)
}

type schemaSourceAdapter struct {
	repo *repo.SchemaRepository
}

func (slf *schemaSourceAdapter) Definitions(_ context.Context, companyID string) ([]models.SchemaDefinition, error) {
	return slf.repo.ListByCompany(companyID)
}

type submissionSourceAdapter struct {
	repo *repo.SubmissionRepository
}

func (slf *submissionSourceAdapter) Recent(_ context.Context, companyID string) ([]models.IngestionSubmission, error) {
	return slf.repo.RecentByCompany(companyID, 50)
}

type variableSourceAdapter struct {
	repo *repo.VariableRepository
}

func (slf *variableSourceAdapter) Value(_ context.Context, companyID, name string) (*models.Variable, error) {
	return slf.repo.FindByName(companyID, name)
}

type frameworkSourceAdapter struct {
	repo *repo.FrameworkRepository
}

func (slf *frameworkSourceAdapter) Find(_ context.Context, frameworkID string) (*models.Framework, error) {
	return slf.repo.FindByID(frameworkID)
}

// redisSharedCache backs dataset cache partitions with Redis.
type redisSharedCache struct{}

func (slf *redisSharedCache) Read(_ context.Context, companyID, cacheID string) (any, bool, error) {
	var value any
	found, err := pkg.DatasetCacheRead(companyID, cacheID, &value)
	if err != nil || !found {
		return nil, false, err
	}
	return value, true, nil
}

func (slf *redisSharedCache) Write(_ context.Context, companyID, cacheID string, value any) error {
	return pkg.DatasetCacheWrite(companyID, cacheID, value)
}
