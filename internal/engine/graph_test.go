package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cascade/internal/api/models"
)

func TestNewGraph_UnionOfPartsAndEdges(t *testing.T) {
	// b depends on a via a prompt part AND via an edge: must dedup to one.
	workflow := workflowOf("wf",
		[]models.Node{
			pieceNode(t, "a", textPart("root")),
			promptNode(t, "b", depPart("a")),
		},
		models.Edge{FromNode: "a", ToNode: "b"},
	)
	g := NewGraph(workflow)

	deps := g.DependenciesOf("b")
	require.Len(t, deps, 1)
	assert.Equal(t, "a", deps[0].NodeID)
	assert.True(t, deps[0].Triggers)
	assert.Equal(t, []string{"b"}, g.DependentsOf("a"))
}

func TestNewGraph_CrossWorkflowDependency(t *testing.T) {
	part := models.PromptPart{
		Kind:         models.PromptPartDependency,
		TargetNodeID: "remote",
		WorkflowID:   "other-wf",
	}
	workflow := workflowOf("wf",
		[]models.Node{promptNode(t, "local", part)},
	)
	g := NewGraph(workflow)

	deps := g.DependenciesOf("local")
	require.Len(t, deps, 1)
	assert.Equal(t, "other-wf", deps[0].WorkflowID)
	assert.False(t, deps[0].Local())
	// Cross-workflow references never appear as local dependents.
	assert.Empty(t, g.DependentsOf("remote"))
}

func TestNewGraph_SameWorkflowIDIsLocal(t *testing.T) {
	part := models.PromptPart{
		Kind:         models.PromptPartDependency,
		TargetNodeID: "a",
		WorkflowID:   "wf",
	}
	workflow := workflowOf("wf",
		[]models.Node{
			pieceNode(t, "a", textPart("x")),
			promptNode(t, "b", part),
		},
	)
	g := NewGraph(workflow)

	deps := g.DependenciesOf("b")
	require.Len(t, deps, 1)
	assert.True(t, deps[0].Local())
}

func TestNewGraph_NonTriggeringPart(t *testing.T) {
	noTrigger := false
	part := models.PromptPart{
		Kind:              models.PromptPartDependency,
		TargetNodeID:      "a",
		TriggersExecution: &noTrigger,
	}
	workflow := workflowOf("wf",
		[]models.Node{
			pieceNode(t, "a", textPart("x")),
			promptNode(t, "b", part),
		},
	)
	g := NewGraph(workflow)

	deps := g.DependenciesOf("b")
	require.Len(t, deps, 1)
	assert.False(t, deps[0].Triggers)
}

func TestClosures(t *testing.T) {
	// a -> b -> c
	//      b -> d
	workflow := workflowOf("wf",
		[]models.Node{
			pieceNode(t, "a", textPart("root")),
			promptNode(t, "b", depPart("a")),
			promptNode(t, "c", depPart("b")),
			promptNode(t, "d", depPart("b")),
		},
	)
	g := NewGraph(workflow)

	up := g.UpstreamClosure([]string{"c"})
	assert.Equal(t, map[string]bool{"c": true, "b": true, "a": true}, up)

	down := g.DownstreamClosure([]string{"b"})
	assert.Equal(t, map[string]bool{"b": true, "c": true, "d": true}, down)

	// Unknown ids are ignored.
	assert.Empty(t, g.DownstreamClosure([]string{"missing"}))
}
