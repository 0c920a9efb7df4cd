package engine

import (
	"context"

	"github.com/rs/zerolog"

	"cascade/internal/api/models"
	"cascade/pkg"
)

// RecordStore is the persisted per-node output store. Find returns (nil, nil)
// when no record exists for the key.
type RecordStore interface {
	Find(ctx context.Context, companyID, workflowID, nodeID string) (*models.NodeExecutionRecord, error)
	Save(ctx context.Context, record *models.NodeExecutionRecord) error
	ListByWorkflow(ctx context.Context, companyID, workflowID string) ([]models.NodeExecutionRecord, error)
}

// LLMClient is the opaque text-generation service.
type LLMClient interface {
	Chat(ctx context.Context, req pkg.ChatRequest) (*pkg.ChatResponse, error)
}

// SchemaSource reads the structured-schema store ("single source of truth")
// fresh; it is never cached.
type SchemaSource interface {
	Definitions(ctx context.Context, companyID string) ([]models.SchemaDefinition, error)
}

// SubmissionSource lists a company's recent external submissions, newest
// first. Qualification and priority selection happen in the engine.
type SubmissionSource interface {
	Recent(ctx context.Context, companyID string) ([]models.IngestionSubmission, error)
}

// VariableSource resolves named variables. ok is false when the variable is
// not defined for the company.
type VariableSource interface {
	Value(ctx context.Context, companyID, name string) (*models.Variable, error)
}

// FrameworkSource resolves framework definitions by id.
type FrameworkSource interface {
	Find(ctx context.Context, frameworkID string) (*models.Framework, error)
}

// SharedCache is the named cache partition store used by dataset nodes.
type SharedCache interface {
	Read(ctx context.Context, companyID, cacheID string) (any, bool, error)
	Write(ctx context.Context, companyID, cacheID string, value any) error
}

// IntegrationClient performs external capability calls.
type IntegrationClient interface {
	Call(ctx context.Context, capability, input string) (string, error)
}

// AlertSink receives deduplicated operational alerts.
type AlertSink interface {
	Raise(ctx context.Context, event AlertEvent)
}

// Event is one outbound cascade side effect.
type Event struct {
	Kind       string `json:"kind"`
	CompanyID  string `json:"companyId"`
	WorkflowID string `json:"workflowId"`
	NodeID     string `json:"nodeId,omitempty"`
	Detail     any    `json:"detail,omitempty"`
}

// EventPublisher dispatches cascade progress and side-effect events. It must
// not block the cascade's critical path.
type EventPublisher interface {
	Publish(event Event)
}

// Runtime bundles every collaborator a cascade run needs.
type Runtime struct {
	Records      RecordStore
	LLM          LLMClient
	Schemas      SchemaSource
	Submissions  SubmissionSource
	Variables    VariableSource
	Frameworks   FrameworkSource
	Cache        SharedCache
	Integrations IntegrationClient
	Alerts       AlertSink
	Events       EventPublisher
	Evaluator    *Evaluator
	DefaultModel string
	// EvaluationMinOutputLen is the minimum generative output length that
	// still goes through quality evaluation.
	EvaluationMinOutputLen int
	Logger                 zerolog.Logger
}

func (slf *Runtime) publish(event Event) {
	if slf.Events != nil {
		slf.Events.Publish(event)
	}
}

func (slf *Runtime) raiseAlert(ctx context.Context, event AlertEvent) {
	if slf.Alerts != nil {
		slf.Alerts.Raise(ctx, event)
	}
}
