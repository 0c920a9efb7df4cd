package service

import (
	"cascade"
	"cascade/internal/engine"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrWorkflowNotFound is returned when a re-test names an unknown workflow.
var ErrWorkflowNotFound = errors.New("workflow not found")

type RetestNodeResult struct {
	NodeID     string    `json:"nodeId"`
	Output     any       `json:"output"`
	Cached     bool      `json:"cached"`
	ExecutedAt time.Time `json:"executedAt"`
	Error      string    `json:"error,omitempty"`
}

type RetestResult struct {
	WorkflowID string             `json:"workflowId"`
	Run        *engine.Result     `json:"-"`
	Results    []RetestNodeResult `json:"results"`
}

// RetestService re-runs a targeted set of nodes: the requested ones are
// forced stale, and the run is restricted to the minimal subgraph that can
// affect or be affected by them.
type RetestService struct {
	cascadeService *CascadeService
	logger         zerolog.Logger
}

func NewRetestService(cascadeService *CascadeService) *RetestService {
	return &RetestService{cascadeService: cascadeService, logger: cascade.Logger}
}

func (slf *RetestService) Retest(ctx context.Context, companyID, workflowID string, nodeIDs []string) (*RetestResult, error) {
	workflow, err := slf.cascadeService.WorkflowByID(workflowID)
	if err != nil {
		return nil, err
	}
	if workflow == nil || workflow.CompanyID != companyID {
		return nil, ErrWorkflowNotFound
	}

	graph := engine.NewGraph(workflow)
	targets := map[string]bool{}
	for _, id := range nodeIDs {
		if graph.Node(id) == nil {
			return nil, fmt.Errorf("unknown node %q: %w", id, ErrWorkflowNotFound)
		}
		targets[id] = true
	}

	// Minimal affected set: the requested nodes, everything they read from,
	// and everything that reads from them.
	subset := map[string]bool{}
	for id := range graph.UpstreamClosure(nodeIDs) {
		subset[id] = true
	}
	for id := range graph.DownstreamClosure(nodeIDs) {
		subset[id] = true
	}
	for _, id := range nodeIDs {
		subset[id] = true
	}
	subsetIDs := make([]string, 0, len(subset))
	for id := range subset {
		subsetIDs = append(subsetIDs, id)
	}

	run, err := slf.cascadeService.Run(ctx, engine.Request{
		CompanyID: companyID,
		Workflow:  workflow,
		Targets:   targets,
		Subset:    subsetIDs,
	})
	if err != nil {
		return nil, err
	}

	result := RetestResult{
		WorkflowID: workflowID,
		Run:        run,
	}
	for _, id := range nodeIDs {
		node, ok := run.Nodes[id]
		if !ok {
			continue
		}
		result.Results = append(result.Results, RetestNodeResult{
			NodeID:     id,
			Output:     node.Output,
			Cached:     node.Cached,
			ExecutedAt: node.ExecutedAt,
			Error:      node.Err,
		})
	}
	return &result, nil
}
