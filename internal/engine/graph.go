package engine

import (
	"cascade/internal/api/models"
)

// DepRef is one resolved dependency of a node: the union element coming from
// either a PromptPart dependency or an incoming edge. WorkflowID is empty for
// same-workflow dependencies.
type DepRef struct {
	NodeID     string
	WorkflowID string
	Triggers   bool
	LiveSchema bool
}

// Local reports whether the dependency lives in the current workflow.
func (slf DepRef) Local() bool {
	return slf.WorkflowID == ""
}

// Graph is the unified dependency relation of one workflow: per node, the
// union of its PromptPart dependency targets and its incoming edges. A
// cross-workflow dependency is first-class even when the referenced node is
// not part of this graph.
type Graph struct {
	workflow   *models.Workflow
	nodes      map[string]*models.Node
	deps       map[string][]DepRef
	dependents map[string][]string
}

// NewGraph extracts the dependency relation from a workflow definition.
func NewGraph(workflow *models.Workflow) *Graph {
	g := &Graph{
		workflow:   workflow,
		nodes:      make(map[string]*models.Node),
		deps:       make(map[string][]DepRef),
		dependents: make(map[string][]string),
	}

	for i := range workflow.Nodes {
		node := &workflow.Nodes[i]
		g.nodes[node.ID] = node
	}

	for i := range workflow.Nodes {
		node := &workflow.Nodes[i]
		seen := make(map[string]bool)

		for _, part := range node.Parts() {
			if part.Kind != models.PromptPartDependency || part.TargetNodeID == "" {
				continue
			}
			ref := DepRef{
				NodeID:     part.TargetNodeID,
				Triggers:   part.Triggers(),
				LiveSchema: part.LiveSchema,
			}
			if part.WorkflowID != "" && part.WorkflowID != workflow.ID {
				ref.WorkflowID = part.WorkflowID
			}
			key := ref.WorkflowID + "/" + ref.NodeID
			if seen[key] {
				continue
			}
			seen[key] = true
			g.deps[node.ID] = append(g.deps[node.ID], ref)
		}

		for _, edge := range workflow.Edges {
			if edge.ToNode != node.ID || edge.FromNode == "" {
				continue
			}
			key := "/" + edge.FromNode
			if seen[key] {
				continue
			}
			seen[key] = true
			g.deps[node.ID] = append(g.deps[node.ID], DepRef{NodeID: edge.FromNode, Triggers: true})
		}
	}

	for nodeID, refs := range g.deps {
		for _, ref := range refs {
			if ref.Local() {
				g.dependents[ref.NodeID] = append(g.dependents[ref.NodeID], nodeID)
			}
		}
	}

	return g
}

// Workflow returns the underlying workflow definition.
func (slf *Graph) Workflow() *models.Workflow {
	return slf.workflow
}

// Node returns the node with the given id, or nil.
func (slf *Graph) Node(id string) *models.Node {
	return slf.nodes[id]
}

// NodeIDs returns all node ids in definition order.
func (slf *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(slf.workflow.Nodes))
	for i := range slf.workflow.Nodes {
		ids = append(ids, slf.workflow.Nodes[i].ID)
	}
	return ids
}

// DependenciesOf returns every dependency reference of a node, including
// cross-workflow and non-triggering ones.
func (slf *Graph) DependenciesOf(nodeID string) []DepRef {
	return slf.deps[nodeID]
}

// DependencyParts returns the node's ordered prompt parts for assembly.
func (slf *Graph) DependencyParts(nodeID string) []models.PromptPart {
	node := slf.nodes[nodeID]
	if node == nil {
		return nil
	}
	return node.Parts()
}

// DependentsOf returns the local nodes that depend on the given node.
func (slf *Graph) DependentsOf(nodeID string) []string {
	return slf.dependents[nodeID]
}

// UpstreamClosure returns the given nodes plus all their transitive local
// dependencies.
func (slf *Graph) UpstreamClosure(nodeIDs []string) map[string]bool {
	closure := make(map[string]bool)
	var visit func(id string)
	visit = func(id string) {
		if closure[id] {
			return
		}
		closure[id] = true
		for _, ref := range slf.deps[id] {
			if ref.Local() {
				visit(ref.NodeID)
			}
		}
	}
	for _, id := range nodeIDs {
		if _, ok := slf.nodes[id]; ok {
			visit(id)
		}
	}
	return closure
}

// DownstreamClosure returns the given nodes plus all their transitive local
// dependents.
func (slf *Graph) DownstreamClosure(nodeIDs []string) map[string]bool {
	closure := make(map[string]bool)
	var visit func(id string)
	visit = func(id string) {
		if closure[id] {
			return
		}
		closure[id] = true
		for _, dependent := range slf.dependents[id] {
			visit(dependent)
		}
	}
	for _, id := range nodeIDs {
		if _, ok := slf.nodes[id]; ok {
			visit(id)
		}
	}
	return closure
}
