package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cascade/internal/api/models"
	"cascade/pkg"
)

// ErrCascadeBusy is returned when a cascade is already running for the same
// (company, workflow) key. Callers should retry later.
var ErrCascadeBusy = errors.New("a cascade is already running for this workflow")

// Request describes one cascade run.
type Request struct {
	CompanyID string
	Workflow  *models.Workflow
	// Seeds supplies changed values at source nodes; a seeded node takes the
	// value as its output and re-executes only when the value's hash differs
	// from its stored content hash.
	Seeds map[string]any
	// Targets are always treated as stale (user-forced re-run).
	Targets map[string]bool
	// Subset restricts the run to the given node ids; nil means the whole
	// workflow.
	Subset []string
}

// NodeResult is the per-node outcome of a run.
type NodeResult struct {
	NodeID     string                   `json:"nodeId"`
	Output     any                      `json:"output"`
	Cached     bool                     `json:"cached"`
	ExecutedAt time.Time                `json:"executedAt"`
	Evaluation *models.EvaluationRecord `json:"evaluation,omitempty"`
	Err        string                   `json:"error,omitempty"`
}

// Result enumerates what a run did: which nodes executed, which were reused
// from cache, which failed, and how long the pass took.
type Result struct {
	Executed []string              `json:"executed"`
	Cached   []string              `json:"cached"`
	Errored  []string              `json:"errored"`
	Nodes    map[string]NodeResult `json:"nodes"`
	Duration time.Duration         `json:"-"`
}

// Runner executes cascades against a runtime.
type Runner struct {
	rt       *Runtime
	registry *Registry
}

func NewRunner(rt *Runtime) *Runner {
	return &Runner{rt: rt, registry: NewRegistry()}
}

// Registry exposes the executor registry for custom node types.
func (slf *Runner) Registry() *Registry {
	return slf.registry
}

// inflight guards against concurrent cascades interleaving writes to the
// same records: one run per (company, workflow) key at a time.
var inflight sync.Map

// Run executes one cascade: order the affected nodes topologically, skip
// paused subtrees, reuse cached outputs whose dependencies are unchanged,
// execute the rest in sequence, and persist each result with a fresh
// dependency-hash snapshot.
func (slf *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	flightKey := req.CompanyID + "/" + req.Workflow.ID
	if _, loaded := inflight.LoadOrStore(flightKey, struct{}{}); loaded {
		return nil, ErrCascadeBusy
	}
	defer inflight.Delete(flightKey)

	start := time.Now()

	g := NewGraph(req.Workflow)
	subset := req.Subset
	if subset == nil {
		subset = g.NodeIDs()
	}

	order, err := TopoSort(g, subset)
	if err != nil {
		return nil, err
	}

	blocked := BlockedSet(g, req.Workflow.PausedNodeIDs())

	p := newPass(req.CompanyID, g, slf.rt)
	result := &Result{Nodes: make(map[string]NodeResult)}

	for _, nodeID := range order {
		// Cancellation is best-effort: the current node finishes, the
		// rest of the pass does not start.
		if ctx.Err() != nil {
			break
		}

		node := g.Node(nodeID)
		if node == nil {
			continue
		}

		if blocked[nodeID] {
			result.Cached = append(result.Cached, nodeID)
			result.Nodes[nodeID] = NodeResult{NodeID: nodeID, Cached: true}
			continue
		}

		record, err := slf.rt.Records.Find(ctx, req.CompanyID, req.Workflow.ID, nodeID)
		if err != nil {
			// Unreadable cache rows force re-execution.
			slf.rt.Logger.Error().Err(err).Str("nodeId", nodeID).Msg("Failed to load execution record")
			record = nil
		}

		seed, hasSeed := req.Seeds[nodeID]
		if !p.isStale(ctx, node, record, seed, hasSeed, req.Targets) {
			payload, err := record.Payload()
			if err != nil {
				slf.rt.Logger.Error().Err(err).Str("nodeId", nodeID).Msg("Failed to decode cached payload")
			}
			p.results[nodeID] = payload.Output
			p.hashes[nodeID] = record.ContentHash
			result.Cached = append(result.Cached, nodeID)
			result.Nodes[nodeID] = NodeResult{
				NodeID:     nodeID,
				Output:     payload.Output,
				Cached:     true,
				ExecutedAt: record.LastExecutedAt,
			}
			continue
		}

		output, execErr := slf.executeNode(ctx, node, p, seed, hasSeed)
		if execErr != nil {
			if isQuotaError(execErr) {
				// Quota and rate-limit failures from the generation
				// service propagate verbatim to the caller.
				return nil, execErr
			}
			output = errorOutputPrefix + execErr.Error()
		}

		now := time.Now()
		hash := ContentHash(output)
		snapshot := p.snapshotDeps(ctx, node)

		newRecord := &models.NodeExecutionRecord{
			CompanyID:        req.CompanyID,
			WorkflowID:       req.Workflow.ID,
			NodeID:           nodeID,
			NodeType:         node.Type,
			NodeLabel:        node.Label,
			ContentHash:      hash,
			DependencyHashes: snapshot,
			Version:          1,
			LastExecutedAt:   now,
		}
		if record != nil {
			newRecord.ID = record.ID
			newRecord.Version = record.Version + 1
		}

		payload := models.RecordPayload{Output: output}
		if execErr == nil {
			if evaluation := slf.maybeEvaluate(ctx, node, p, output); evaluation != nil {
				payload.Evaluation = evaluation
				payload.Flags = evaluation.Flags
				for _, event := range LowQualityEvents(evaluation, req.CompanyID, req.Workflow.ID, nodeID) {
					slf.rt.raiseAlert(ctx, event)
				}
			}
		}
		if err := newRecord.SetPayload(payload); err != nil {
			slf.rt.Logger.Error().Err(err).Str("nodeId", nodeID).Msg("Failed to encode record payload")
		}

		if err := slf.rt.Records.Save(ctx, newRecord); err != nil {
			slf.rt.Logger.Error().Err(err).Str("nodeId", nodeID).Msg("Failed to persist execution record")
		}

		p.results[nodeID] = output
		p.hashes[nodeID] = hash

		nodeResult := NodeResult{
			NodeID:     nodeID,
			Output:     output,
			ExecutedAt: now,
			Evaluation: payload.Evaluation,
		}
		if execErr != nil {
			nodeResult.Err = execErr.Error()
			result.Errored = append(result.Errored, nodeID)
		} else {
			result.Executed = append(result.Executed, nodeID)
		}
		result.Nodes[nodeID] = nodeResult

		slf.rt.publish(Event{
			Kind:       "node_executed",
			CompanyID:  req.CompanyID,
			WorkflowID: req.Workflow.ID,
			NodeID:     nodeID,
			Detail: map[string]any{
				"version": newRecord.Version,
				"failed":  execErr != nil,
			},
		})
	}

	result.Duration = time.Since(start)

	slf.rt.publish(Event{
		Kind:       "cascade_completed",
		CompanyID:  req.CompanyID,
		WorkflowID: req.Workflow.ID,
		Detail: map[string]any{
			"executed":        len(result.Executed),
			"cached":          len(result.Cached),
			"errors":          len(result.Errored),
			"executionTimeMs": result.Duration.Milliseconds(),
		},
	})

	return result, nil
}

func (slf *Runner) executeNode(ctx context.Context, node *models.Node, p *pass, seed any, hasSeed bool) (any, error) {
	if hasSeed {
		return seed, nil
	}

	executor, ok := slf.registry.Get(node.Type)
	if !ok {
		return nil, fmt.Errorf("no executor registered for node type %s", node.Type)
	}
	return executor.Execute(ctx, node, p)
}

// maybeEvaluate runs the quality sidecar for generative outputs that are
// substantive text and not error markers.
func (slf *Runner) maybeEvaluate(ctx context.Context, node *models.Node, p *pass, output any) *models.EvaluationRecord {
	if slf.rt.Evaluator == nil || !node.Type.IsGenerative() {
		return nil
	}

	text, ok := output.(string)
	if !ok || len(text) < slf.rt.EvaluationMinOutputLen || IsErrorMarker(text) {
		return nil
	}

	toggles := AllMetrics()
	if config, err := node.GetPromptConfig(); err == nil {
		toggles = TogglesFrom(config.Evaluation)
	}

	return slf.rt.Evaluator.Evaluate(ctx, p.prompts[node.ID], p.referenceFor(node), text, toggles)
}

// referenceFor joins the node's resolved dependency values into the
// reference context handed to the evaluator.
func (slf *pass) referenceFor(node *models.Node) string {
	var parts []string
	for _, ref := range slf.graph.DependenciesOf(node.ID) {
		if value, ok := slf.results[ref.NodeID]; ok && ref.Local() {
			if rendered := stringify(value); rendered != "" {
				parts = append(parts, rendered)
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

func isQuotaError(err error) bool {
	var chatErr *pkg.ChatError
	if !errors.As(err, &chatErr) {
		return false
	}
	return chatErr.StatusCode == 429 || chatErr.StatusCode == 402
}
