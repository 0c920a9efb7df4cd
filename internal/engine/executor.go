package engine

import (
	"context"
	"encoding/json"

	"cascade/internal/api/models"
)

const errorOutputPrefix = "Error: "

// IsErrorMarker reports whether an output is the stored form of a per-node
// execution failure.
func IsErrorMarker(output any) bool {
	s, ok := output.(string)
	if !ok {
		return false
	}
	return len(s) >= len(errorOutputPrefix) && s[:len(errorOutputPrefix)] == errorOutputPrefix
}

// Executor produces a node's output given the run's resolved state.
type Executor interface {
	Execute(ctx context.Context, node *models.Node, p *pass) (any, error)
}

// Registry maps node types to their executors. New node types register an
// implementation instead of growing a dispatch switch.
type Registry struct {
	executors map[models.NodeType]Executor
}

// NewRegistry returns a registry with every built-in node type wired.
func NewRegistry() *Registry {
	r := &Registry{executors: make(map[models.NodeType]Executor)}
	r.Register(models.NodeTypePromptTemplate, promptTemplateExecutor{})
	// Agent nodes execute exactly as prompt templates.
	r.Register(models.NodeTypeAgent, promptTemplateExecutor{})
	r.Register(models.NodeTypePromptPiece, promptPieceExecutor{})
	r.Register(models.NodeTypeDataset, datasetExecutor{})
	r.Register(models.NodeTypeVariable, variableExecutor{})
	r.Register(models.NodeTypeFramework, frameworkExecutor{})
	r.Register(models.NodeTypeIngest, ingestExecutor{})
	r.Register(models.NodeTypeWorkflow, workflowExecutor{})
	r.Register(models.NodeTypeIntegration, integrationExecutor{})
	return r
}

func (slf *Registry) Register(nodeType models.NodeType, executor Executor) {
	slf.executors[nodeType] = executor
}

func (slf *Registry) Get(nodeType models.NodeType) (Executor, bool) {
	executor, ok := slf.executors[nodeType]
	return executor, ok
}

// pass is the mutable state of one cascade run.
type pass struct {
	companyID  string
	workflowID string
	graph      *Graph
	rt         *Runtime

	// results holds outputs produced or reused during this run.
	results map[string]any
	// hashes holds the current content hash of every local node touched so
	// far; persisted records fill the gaps lazily.
	hashes map[string]string
	// crossHashes caches persisted hashes of cross-workflow dependencies.
	crossHashes map[string]string
	// prompts keeps each generative node's assembled prompt for evaluation.
	prompts map[string]string
}

func newPass(companyID string, g *Graph, rt *Runtime) *pass {
	return &pass{
		companyID:   companyID,
		workflowID:  g.Workflow().ID,
		graph:       g,
		rt:          rt,
		results:     make(map[string]any),
		hashes:      make(map[string]string),
		crossHashes: make(map[string]string),
		prompts:     make(map[string]string),
	}
}

// resolveRef resolves one dependency value: this run's in-memory results
// first, then the persisted record (which is how cross-workflow references
// work). Missing dependencies resolve to an empty string.
func (slf *pass) resolveRef(ctx context.Context, ref DepRef) (any, error) {
	if ref.LiveSchema {
		return slf.liveSchemaSnapshot(ctx)
	}

	if ref.Local() {
		if value, ok := slf.results[ref.NodeID]; ok {
			return value, nil
		}
	}

	workflowID := slf.workflowID
	if !ref.Local() {
		workflowID = ref.WorkflowID
	}

	record, err := slf.rt.Records.Find(ctx, slf.companyID, workflowID, ref.NodeID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return "", nil
	}

	payload, err := record.Payload()
	if err != nil {
		return "", nil
	}
	return payload.Output, nil
}

// liveSchemaSnapshot reads the structured-schema store fresh, bypassing every
// cache layer.
func (slf *pass) liveSchemaSnapshot(ctx context.Context) (any, error) {
	definitions, err := slf.rt.Schemas.Definitions(ctx, slf.companyID)
	if err != nil {
		return nil, err
	}

	snapshot := make([]map[string]any, 0, len(definitions))
	for _, def := range definitions {
		var parsed any
		if err := json.Unmarshal(def.Definition, &parsed); err != nil {
			parsed = string(def.Definition)
		}
		snapshot = append(snapshot, map[string]any{
			"name":       def.Name,
			"definition": parsed,
		})
	}
	return snapshot, nil
}

// stringify renders a dependency value for prompt assembly: strings as-is,
// everything else JSON.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
