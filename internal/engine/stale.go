package engine

import (
	"context"

	"cascade/internal/api/models"
)

// alwaysStale marks node kinds that represent live external state and can
// never be hash-compared ahead of fetch.
func alwaysStale(node *models.Node) bool {
	switch node.Type {
	case models.NodeTypeIngest:
		return true
	case models.NodeTypeDataset:
		config, err := node.GetDatasetConfig()
		if err != nil {
			return false
		}
		return config.Source == models.DatasetSourceIngest || config.Source == models.DatasetSourceSchema
	}
	return false
}

// depKey is the dependencyHashes map key for a dependency: plain node id for
// local dependencies, workflow-qualified for cross-workflow ones.
func depKey(ref DepRef) string {
	if ref.WorkflowID != "" {
		return ref.WorkflowID + "/" + ref.NodeID
	}
	return ref.NodeID
}

// currentHash returns a dependency's current content hash: this run's result
// if the dependency executed earlier in the same pass, else the persisted
// record's hash. ok is false when neither exists.
func (slf *pass) currentHash(ctx context.Context, ref DepRef) (string, bool) {
	if ref.Local() {
		if hash, ok := slf.hashes[ref.NodeID]; ok {
			return hash, true
		}
	} else {
		if hash, ok := slf.crossHashes[depKey(ref)]; ok {
			return hash, true
		}
	}

	workflowID := slf.workflowID
	if !ref.Local() {
		workflowID = ref.WorkflowID
	}

	record, err := slf.rt.Records.Find(ctx, slf.companyID, workflowID, ref.NodeID)
	if err != nil || record == nil {
		return "", false
	}

	if ref.Local() {
		slf.hashes[ref.NodeID] = record.ContentHash
	} else {
		slf.crossHashes[depKey(ref)] = record.ContentHash
	}
	return record.ContentHash, true
}

// isStale decides whether a node must re-execute this run.
func (slf *pass) isStale(ctx context.Context, node *models.Node, record *models.NodeExecutionRecord, seed any, hasSeed bool, targets map[string]bool) bool {
	// Explicitly requested nodes always re-run.
	if targets[node.ID] {
		return true
	}

	// A seeded source node re-runs only when the supplied value actually
	// changed.
	if hasSeed {
		if record == nil {
			return true
		}
		return ContentHash(seed) != record.ContentHash
	}

	if alwaysStale(node) {
		return true
	}

	if record == nil {
		return true
	}

	for _, ref := range slf.graph.DependenciesOf(node.ID) {
		if !ref.Triggers {
			continue
		}
		current, ok := slf.currentHash(ctx, ref)
		if !ok {
			// A missing or unreadable dependency record forces
			// re-execution rather than erroring.
			return true
		}
		if record.DependencyHashes[depKey(ref)] != current {
			return true
		}
	}

	return false
}

// snapshotDeps captures the current hash of every non-suppressed dependency,
// after this run has resolved them.
func (slf *pass) snapshotDeps(ctx context.Context, node *models.Node) models.HashMap {
	snapshot := models.HashMap{}
	for _, ref := range slf.graph.DependenciesOf(node.ID) {
		if !ref.Triggers {
			continue
		}
		if hash, ok := slf.currentHash(ctx, ref); ok {
			snapshot[depKey(ref)] = hash
		}
	}
	return snapshot
}
